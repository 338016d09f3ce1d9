package cashfree

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/craftkart/craftkart-backend/pkg/config"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/logger"
	"github.com/craftkart/craftkart-backend/pkg/metrics"
)

const defaultTimeout = 12 * time.Second

var baseURLs = map[string]string{
	"sandbox": "https://sandbox.cashfree.com/pg",
	"live":    "https://api.cashfree.com/pg",
}

var errLoggerRequired = errors.New("cashfree logger is required")

// Client performs order-create and order-status calls against the Cashfree API.
// It normalizes failures into GatewayError/TransportError and never retries:
// retry policy belongs to the caller because order creation is not idempotent
// from the gateway's perspective.
type Client struct {
	httpClient *http.Client
	apiVersion string
	logger     *logger.Logger
	metrics    *metrics.GatewayCallMetrics

	// baseURLOverride points calls at a test server.
	baseURLOverride string
}

// NewClient initializes the Cashfree wrapper.
func NewClient(cfg config.CashfreeConfig, logg *logger.Logger, m *metrics.GatewayCallMetrics) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	apiVersion := strings.TrimSpace(cfg.APIVersion)
	if apiVersion == "" {
		apiVersion = "2023-08-01"
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiVersion: apiVersion,
		logger:     logg,
		metrics:    m,
	}, nil
}

// CreateOrder creates a payment order with the gateway. Duplicate order ids are
// rejected by the gateway; that rejection is surfaced verbatim as GatewayError.
func (c *Client) CreateOrder(ctx context.Context, payload OrderPayload, creds Credentials) (*OrderResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal order payload")
	}

	ctx = c.logger.WithGatewayEnv(ctx, creds.Environment.String())
	c.log(ctx, "request", "create_order", map[string]any{
		"order_id":     payload.OrderID,
		"order_amount": payload.OrderAmount.String(),
		"currency":     payload.OrderCurrency,
	})

	result, err := c.do(ctx, http.MethodPost, "/orders", body, creds, "create_order")
	if err != nil {
		return nil, err
	}

	c.log(ctx, "response", "create_order", map[string]any{
		"order_id": result.OrderID,
		"status":   result.Status.String(),
	})
	return result, nil
}

// GetOrderStatus fetches the authoritative order state. This call is the single
// source of truth for whether an order was actually paid.
func (c *Client) GetOrderStatus(ctx context.Context, orderID string, creds Credentials) (*OrderResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	ctx = c.logger.WithGatewayEnv(ctx, creds.Environment.String())
	c.log(ctx, "request", "get_order_status", map[string]any{
		"order_id": orderID,
	})

	result, err := c.do(ctx, http.MethodGet, "/orders/"+orderID, nil, creds, "get_order_status")
	if err != nil {
		return nil, err
	}

	c.log(ctx, "response", "get_order_status", map[string]any{
		"order_id": result.OrderID,
		"status":   result.Status.String(),
	})
	return result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, creds Credentials, op string) (*OrderResult, error) {
	start := time.Now()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL(creds)+path, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-client-id", creds.ClientID)
	req.Header.Set("x-client-secret", creds.ClientSecret)
	req.Header.Set("x-api-version", c.apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		terr := classifyTransport(err)
		c.observe(op, "transport_error", start)
		c.log(ctx, "error", op, map[string]any{"error": terr.Error(), "kind": string(terr.Kind)})
		return nil, terr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		terr := &TransportError{Kind: TransportUnreachable, cause: err}
		c.observe(op, "transport_error", start)
		return nil, terr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		gerr := parseGatewayError(raw, resp.StatusCode)
		c.observe(op, "gateway_error", start)
		c.log(ctx, "error", op, map[string]any{
			"error":       gerr.Error(),
			"http_status": resp.StatusCode,
			"body":        string(raw),
		})
		return nil, gerr
	}

	var result OrderResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.observe(op, "gateway_error", start)
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode gateway response").
			WithDetails(map[string]any{"body": string(raw)})
	}
	result.Raw = raw

	c.observe(op, "ok", start)
	return &result, nil
}

func (c *Client) baseURL(creds Credentials) string {
	if c.baseURLOverride != "" {
		return c.baseURLOverride
	}
	if url, ok := baseURLs[creds.Environment.String()]; ok {
		return url
	}
	return baseURLs["sandbox"]
}

func (c *Client) observe(op, outcome string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.Observe(op, outcome, time.Since(start))
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"gateway":   "cashfree",
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("cashfree %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("cashfree %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"secret", "token", "phone", "email", "session"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func classifyTransport(err error) *TransportError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{Kind: TransportTimeout, cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Kind: TransportTimeout, cause: err}
	}
	return &TransportError{Kind: TransportUnreachable, cause: err}
}

func parseGatewayError(body []byte, status int) *GatewayError {
	gerr := &GatewayError{HTTPStatus: status}
	if err := json.Unmarshal(body, gerr); err != nil || gerr.ErrMessage == "" {
		gerr.ErrMessage = strings.TrimSpace(string(body))
		if gerr.ErrMessage == "" {
			gerr.ErrMessage = http.StatusText(status)
		}
	}
	return gerr
}

// DomainCode maps a client error onto the service error taxonomy.
func DomainCode(err error) pkgerrors.Code {
	var gerr *GatewayError
	if errors.As(err, &gerr) {
		if gerr.IsRateLimited() {
			return pkgerrors.CodeRateLimit
		}
		return pkgerrors.CodeGateway
	}
	var terr *TransportError
	if errors.As(err, &terr) {
		return pkgerrors.CodeDependency
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code()
	}
	return pkgerrors.CodeInternal
}
