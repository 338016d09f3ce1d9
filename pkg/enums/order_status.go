package enums

import "fmt"

// OrderStatus mirrors the gateway-owned payment order lifecycle. ACTIVE is the
// only non-terminal state; the other three never transition further.
type OrderStatus string

const (
	OrderStatusActive     OrderStatus = "ACTIVE"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusExpired    OrderStatus = "EXPIRED"
	OrderStatusTerminated OrderStatus = "TERMINATED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusActive,
	OrderStatusPaid,
	OrderStatusExpired,
	OrderStatusTerminated,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status can no longer change.
func (o OrderStatus) IsTerminal() bool {
	return o.IsValid() && o != OrderStatusActive
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
