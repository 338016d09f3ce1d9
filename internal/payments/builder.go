package payments

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/craftkart/craftkart-backend/pkg/cashfree"
	"github.com/craftkart/craftkart-backend/pkg/config"
	"github.com/craftkart/craftkart-backend/pkg/enums"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
)

var (
	phoneRe   = regexp.MustCompile(`^[6-9]\d{9}$`)
	emailRe   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	orderIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,45}$`)
)

// CheckoutInput is what the checkout flow hands the builder.
type CheckoutInput struct {
	Amount     decimal.Decimal
	Currency   string
	Phone      string
	Email      string
	Name       string
	CustomerID string
	OrderID    string
	OrderNote  string
	ExpiresAt  *time.Time
}

// CallbackURLs are the per-request return/notify targets from the URL resolver.
type CallbackURLs struct {
	ReturnURL string
	NotifyURL string
}

// Builder assembles gateway order payloads. It performs no I/O so every
// validation rule is testable without a network.
type Builder struct {
	maxAmount     decimal.Decimal
	orderIDPrefix string
	customerSalt  string
	orderExpiry   time.Duration

	now    func() time.Time
	random func() string
}

// NewBuilder constructs a Builder from payments configuration.
func NewBuilder(cfg config.PaymentsConfig) (*Builder, error) {
	maxAmount, err := decimal.NewFromString(cfg.MaxOrderAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid max order amount %q: %w", cfg.MaxOrderAmount, err)
	}
	prefix := strings.TrimSpace(cfg.OrderIDPrefix)
	if prefix == "" {
		prefix = "order"
	}
	expiry := cfg.OrderExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Builder{
		maxAmount:     maxAmount,
		orderIDPrefix: prefix,
		customerSalt:  cfg.CustomerIDSalt,
		orderExpiry:   expiry,
		now:           time.Now,
		random:        randomSuffix,
	}, nil
}

// Build validates the checkout input and assembles the order-creation payload.
// All rules run before any field is assembled; failures carry per-field detail.
func (b *Builder) Build(input CheckoutInput, urls CallbackURLs) (cashfree.OrderPayload, error) {
	fields := map[string]string{}

	if input.Amount.LessThanOrEqual(decimal.Zero) {
		fields["amount"] = "must be positive"
	} else if input.Amount.GreaterThan(b.maxAmount) {
		fields["amount"] = fmt.Sprintf("must not exceed %s", b.maxAmount.String())
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = enums.CurrencyINR.String()
	}
	if _, err := enums.ParseCurrency(currency); err != nil {
		fields["currency"] = "is not supported"
	}

	phone := strings.TrimSpace(input.Phone)
	if !phoneRe.MatchString(phone) {
		fields["phone"] = "must be a 10-digit mobile number starting with 6-9"
	}

	email := strings.TrimSpace(input.Email)
	if email != "" && !emailRe.MatchString(email) {
		fields["email"] = "must be a valid email"
	}

	orderID := strings.TrimSpace(input.OrderID)
	if orderID != "" && !orderIDRe.MatchString(orderID) {
		fields["order_id"] = "must be 3-45 characters of letters, digits, underscore or hyphen"
	}

	if strings.TrimSpace(urls.ReturnURL) == "" {
		fields["return_url"] = "is required"
	}
	if strings.TrimSpace(urls.NotifyURL) == "" {
		fields["notify_url"] = "is required"
	}

	if len(fields) > 0 {
		return cashfree.OrderPayload{}, pkgerrors.New(pkgerrors.CodeValidation, "checkout input invalid").WithDetails(fields)
	}

	if orderID == "" {
		orderID = b.generateOrderID()
	}

	customerID := strings.TrimSpace(input.CustomerID)
	if customerID == "" {
		customerID = b.deriveCustomerID(phone, email)
	}

	expiry := b.now().Add(b.orderExpiry)
	if input.ExpiresAt != nil {
		expiry = *input.ExpiresAt
	}

	return cashfree.OrderPayload{
		OrderID:         orderID,
		OrderAmount:     json.Number(input.Amount.String()),
		OrderCurrency:   currency,
		OrderNote:       strings.TrimSpace(input.OrderNote),
		OrderExpiryTime: expiry.UTC().Format(time.RFC3339),
		Customer: cashfree.CustomerDetails{
			CustomerID:    customerID,
			CustomerPhone: phone,
			CustomerEmail: email,
			CustomerName:  strings.TrimSpace(input.Name),
		},
		OrderMeta: cashfree.OrderMeta{
			ReturnURL: urls.ReturnURL,
			NotifyURL: urls.NotifyURL,
		},
	}, nil
}

func (b *Builder) generateOrderID() string {
	return fmt.Sprintf("%s_%d_%s", b.orderIDPrefix, b.now().Unix(), b.random())
}

// deriveCustomerID hashes the shopper contact fields so repeated checkouts by
// the same shopper map to the same gateway customer without client-side ID
// management.
func (b *Builder) deriveCustomerID(phone, email string) string {
	sum := sha256.Sum256([]byte(b.customerSalt + "|" + phone + "|" + strings.ToLower(email)))
	return "cust_" + hex.EncodeToString(sum[:])[:16]
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xffffffff)
	}
	return hex.EncodeToString(buf)
}
