package cashfree

import (
	"encoding/json"
	"fmt"

	"github.com/craftkart/craftkart-backend/pkg/enums"
)

// Credentials authenticates a single API call. Resolved per request by the
// settings service, never cached inside the client.
type Credentials struct {
	ClientID     string
	ClientSecret string
	Environment  enums.GatewayEnvironment
}

// CustomerDetails identifies the shopper on an order.
type CustomerDetails struct {
	CustomerID    string `json:"customer_id"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerName  string `json:"customer_name,omitempty"`
}

// OrderMeta carries the callback URLs computed per request.
type OrderMeta struct {
	ReturnURL string `json:"return_url"`
	NotifyURL string `json:"notify_url"`
}

// OrderPayload is the order-creation request body.
type OrderPayload struct {
	OrderID         string          `json:"order_id"`
	OrderAmount     json.Number     `json:"order_amount"`
	OrderCurrency   string          `json:"order_currency"`
	OrderNote       string          `json:"order_note,omitempty"`
	OrderExpiryTime string          `json:"order_expiry_time,omitempty"`
	Customer        CustomerDetails `json:"customer_details"`
	OrderMeta       OrderMeta       `json:"order_meta"`
}

// OrderResult is the normalized successful response for create/status calls.
type OrderResult struct {
	OrderID          string            `json:"order_id"`
	Status           enums.OrderStatus `json:"order_status"`
	PaymentSessionID string            `json:"payment_session_id"`
	Raw              json.RawMessage   `json:"-"`
}

// GatewayError is an error body returned by the gateway itself (4xx/5xx).
// Generally not retryable, except rate-limit responses.
type GatewayError struct {
	ErrCode    string `json:"code"`
	ErrMessage string `json:"message"`
	HTTPStatus int    `json:"-"`
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("cashfree gateway error %d (%s): %s", e.HTTPStatus, e.ErrCode, e.ErrMessage)
}

// IsRateLimited reports whether the caller may retry after backoff.
func (e *GatewayError) IsRateLimited() bool {
	return e.HTTPStatus == 429
}

// TransportKind distinguishes timeout from connect/DNS failures.
type TransportKind string

const (
	TransportTimeout     TransportKind = "timeout"
	TransportUnreachable TransportKind = "unreachable"
)

// TransportError is a network-level failure where no gateway response was
// received. Safe for the caller to retry with backoff.
type TransportError struct {
	Kind  TransportKind
	cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("cashfree transport failure (%s): %v", e.Kind, e.cause)
}

func (e *TransportError) Unwrap() error {
	return e.cause
}
