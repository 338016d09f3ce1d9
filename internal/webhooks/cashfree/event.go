package cashfreewebhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// WebhookEvent is a server-to-server notification from the gateway. Only the
// fields the ingestor routes on are decoded; the raw payload is kept verbatim
// for the audit trail.
type WebhookEvent struct {
	Type      string    `json:"type"`
	EventTime string    `json:"event_time"`
	Data      EventData `json:"data"`

	Raw []byte `json:"-"`
}

type EventData struct {
	Order   OrderData   `json:"order"`
	Payment PaymentData `json:"payment"`
}

type OrderData struct {
	OrderID       string      `json:"order_id"`
	OrderAmount   json.Number `json:"order_amount"`
	OrderCurrency string      `json:"order_currency"`
}

type PaymentData struct {
	CfPaymentID   json.Number `json:"cf_payment_id"`
	PaymentStatus string      `json:"payment_status"`
}

// EventKey is the deduplication key. The gateway retries delivery without a
// stable event id, so the key is derived from the event's identifying fields.
func (e *WebhookEvent) EventKey() string {
	parts := []string{e.Type, e.Data.Order.OrderID, e.Data.Payment.CfPaymentID.String()}
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	key := strings.Trim(strings.Join(parts, ":"), ":")
	if key == "" {
		key = fmt.Sprintf("raw:%x", sha256.Sum256(e.Raw))
	}
	return key
}

// VerifySignature checks the gateway's webhook signature: a base64-encoded
// HMAC-SHA256 over timestamp concatenated with the raw payload.
func VerifySignature(payload []byte, timestamp, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
