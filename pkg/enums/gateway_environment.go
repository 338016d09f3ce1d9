package enums

import (
	"fmt"
	"strings"
)

// GatewayEnvironment selects the Cashfree API host and callback transport rules.
type GatewayEnvironment string

const (
	GatewayEnvSandbox GatewayEnvironment = "sandbox"
	GatewayEnvLive    GatewayEnvironment = "live"
)

// String implements fmt.Stringer.
func (g GatewayEnvironment) String() string {
	return string(g)
}

// IsLive reports whether live-mode transport constraints apply.
func (g GatewayEnvironment) IsLive() bool {
	return g == GatewayEnvLive
}

// ParseGatewayEnvironment normalizes raw input into a GatewayEnvironment.
// Empty input defaults to sandbox.
func ParseGatewayEnvironment(value string) (GatewayEnvironment, error) {
	env := strings.TrimSpace(strings.ToLower(value))
	switch env {
	case "", string(GatewayEnvSandbox):
		return GatewayEnvSandbox, nil
	case string(GatewayEnvLive), "production":
		return GatewayEnvLive, nil
	default:
		return "", fmt.Errorf("invalid gateway environment %q", value)
	}
}
