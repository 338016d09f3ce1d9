package urlresolver

import (
	"net"
	"net/http"
	"strings"

	"github.com/craftkart/craftkart-backend/pkg/config"
	"github.com/craftkart/craftkart-backend/pkg/enums"
)

// Resolver derives externally reachable base URLs from the inbound request.
// Forwarding headers win over the raw request so the service works behind
// proxies and platform routers without static URL configuration.
type Resolver struct {
	localClientPort string
	localServerPort string
}

// New builds a resolver with the loopback port-swap pair.
func New(cfg config.URLConfig) *Resolver {
	return &Resolver{
		localClientPort: cfg.LocalClientPort,
		localServerPort: cfg.LocalServerPort,
	}
}

// ClientURL returns the storefront base URL for the request. On loopback hosts
// the backend port is swapped for the frontend dev-server port so same-machine
// development needs no extra configuration. Live mode forces https because the
// gateway rejects non-secure redirect targets.
func (r *Resolver) ClientURL(req *http.Request, env enums.GatewayEnvironment) string {
	scheme, host := deriveSchemeHost(req)
	if isLoopback(host) {
		host = swapPort(host, r.localServerPort, r.localClientPort)
	}
	if env.IsLive() {
		scheme = "https"
	}
	return scheme + "://" + host
}

// ServerURL returns this backend's own base URL, used for callback endpoints
// the gateway must be able to reach.
func (r *Resolver) ServerURL(req *http.Request, env enums.GatewayEnvironment) string {
	scheme, host := deriveSchemeHost(req)
	if isLoopback(host) {
		host = swapPort(host, r.localClientPort, r.localServerPort)
	}
	if env.IsLive() {
		scheme = "https"
	}
	return scheme + "://" + host
}

func deriveSchemeHost(req *http.Request) (string, string) {
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	if proto := headerFirst(req, "X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	host := req.Host
	if forwarded := headerFirst(req, "X-Forwarded-Host"); forwarded != "" {
		host = forwarded
	}
	return scheme, host
}

// headerFirst returns the first comma-separated token of the named header.
// Chained proxies append their own values; the first hop is the client-facing one.
func headerFirst(req *http.Request, name string) string {
	value := req.Header.Get(name)
	if value == "" {
		return ""
	}
	first := strings.TrimSpace(strings.Split(value, ",")[0])
	return first
}

func isLoopback(host string) bool {
	name := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		name = h
	}
	switch strings.ToLower(name) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func swapPort(host, from, to string) string {
	name, port, err := net.SplitHostPort(host)
	if err != nil || port != from {
		return host
	}
	return net.JoinHostPort(name, to)
}
