package enums

import "fmt"

// PaymentEventSource identifies which gateway entry point produced an audit row.
type PaymentEventSource string

const (
	PaymentEventSourceWebhook PaymentEventSource = "webhook"
	PaymentEventSourceReturn  PaymentEventSource = "return"
)

var validPaymentEventSources = []PaymentEventSource{
	PaymentEventSourceWebhook,
	PaymentEventSourceReturn,
}

// String implements fmt.Stringer.
func (s PaymentEventSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PaymentEventSource.
func (s PaymentEventSource) IsValid() bool {
	for _, candidate := range validPaymentEventSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePaymentEventSource converts raw input into a PaymentEventSource.
func ParsePaymentEventSource(value string) (PaymentEventSource, error) {
	for _, candidate := range validPaymentEventSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment event source %q", value)
}
