package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/craftkart/craftkart-backend/internal/settings"
	"github.com/craftkart/craftkart-backend/internal/urlresolver"
	"github.com/craftkart/craftkart-backend/pkg/cashfree"
	"github.com/craftkart/craftkart-backend/pkg/db/models"
	"github.com/craftkart/craftkart-backend/pkg/enums"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/logger"
	"github.com/craftkart/craftkart-backend/pkg/metrics"
)

const (
	returnPath = "/api/v1/payments/return"
	notifyPath = "/api/v1/webhooks/cashfree"
)

// GatewayClient is the slice of the Cashfree client the service depends on.
type GatewayClient interface {
	CreateOrder(ctx context.Context, payload cashfree.OrderPayload, creds cashfree.Credentials) (*cashfree.OrderResult, error)
	GetOrderStatus(ctx context.Context, orderID string, creds cashfree.Credentials) (*cashfree.OrderResult, error)
}

// EventRecorder captures gateway-originated calls for offline reconciliation.
type EventRecorder interface {
	Record(ctx context.Context, event *models.PaymentEvent) error
}

// CreateOrderResult is what the checkout UI needs to launch gateway checkout.
type CreateOrderResult struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
	Status           string `json:"order_status"`
	Environment      string `json:"environment"`
}

// OrderStatusResult is the authoritative order state projection.
type OrderStatusResult struct {
	OrderID  string `json:"order_id"`
	Status   string `json:"order_status"`
	Terminal bool   `json:"terminal"`
}

// Service drives the payment order lifecycle: create, verify, and route the
// shopper's return from gateway-hosted checkout.
type Service interface {
	CreateOrder(ctx context.Context, r *http.Request, input CheckoutInput) (*CreateOrderResult, error)
	OrderStatus(ctx context.Context, orderID string) (*OrderStatusResult, error)
	HandleReturn(ctx context.Context, r *http.Request) string
}

type service struct {
	builder     *Builder
	gateway     GatewayClient
	credentials settings.Service
	urls        *urlresolver.Resolver
	reconciler  *Reconciler
	events      EventRecorder
	logg        *logger.Logger
	metrics     *metrics.CallbackMetrics
}

// NewService wires the payment lifecycle service.
func NewService(
	builder *Builder,
	gateway GatewayClient,
	credentials settings.Service,
	urls *urlresolver.Resolver,
	reconciler *Reconciler,
	events EventRecorder,
	logg *logger.Logger,
	m *metrics.CallbackMetrics,
) (Service, error) {
	if builder == nil || gateway == nil || credentials == nil || urls == nil || reconciler == nil {
		return nil, fmt.Errorf("payments service dependencies incomplete")
	}
	return &service{
		builder:     builder,
		gateway:     gateway,
		credentials: credentials,
		urls:        urls,
		reconciler:  reconciler,
		events:      events,
		logg:        logg,
		metrics:     m,
	}, nil
}

// CreateOrder validates input, resolves credentials and callback URLs, and
// creates the order with the gateway. Credentials are resolved before any
// other work so a disabled gateway fails closed without network I/O.
func (s *service) CreateOrder(ctx context.Context, r *http.Request, input CheckoutInput) (*CreateOrderResult, error) {
	creds, err := s.credentials.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	serverBase := s.urls.ServerURL(r, creds.Environment)
	payload, err := s.builder.Build(input, CallbackURLs{
		ReturnURL: serverBase + returnPath,
		NotifyURL: serverBase + notifyPath,
	})
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.CreateOrder(ctx, payload, creds)
	if err != nil {
		return nil, pkgerrors.Wrap(cashfree.DomainCode(err), err, "create gateway order")
	}

	return &CreateOrderResult{
		OrderID:          result.OrderID,
		PaymentSessionID: result.PaymentSessionID,
		Status:           result.Status.String(),
		Environment:      creds.Environment.String(),
	}, nil
}

// OrderStatus fetches the authoritative order state from the gateway.
func (s *service) OrderStatus(ctx context.Context, orderID string) (*OrderStatusResult, error) {
	creds, err := s.credentials.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.GetOrderStatus(ctx, orderID, creds)
	if err != nil {
		return nil, pkgerrors.Wrap(cashfree.DomainCode(err), err, "fetch gateway order status")
	}

	return &OrderStatusResult{
		OrderID:  result.OrderID,
		Status:   result.Status.String(),
		Terminal: result.Status.IsTerminal(),
	}, nil
}

// HandleReturn parses the gateway's browser redirect and decides where to send
// the shopper. It never fails: every path, including a panic during
// extraction, resolves to a storefront redirect rather than an error page.
func (s *service) HandleReturn(ctx context.Context, r *http.Request) (target string) {
	clientBase := s.clientBase(ctx, r)

	defer func() {
		if recovered := recover(); recovered != nil {
			if s.logg != nil {
				s.logg.Error(ctx, "return callback handling panicked", fmt.Errorf("%v", recovered))
			}
			s.observe("callback_panic", false)
			target = clientBase + "/cart?error=callback_error"
		}
	}()

	outcome := ParseReturnCallback(r)

	// Raw parameters are logged before any routing decision so unrecognized
	// callback shapes remain diagnosable after the fact.
	s.logCallback(ctx, outcome)
	s.recordReturnEvent(ctx, outcome)

	if outcome.OrderID != "" {
		return s.reconciler.Reconcile(ctx, outcome.OrderID, clientBase).RedirectTarget
	}

	if outcome.ProvisionalStatus == enums.ProvisionalSuccess {
		// The gateway told the shopper checkout succeeded; without an order id
		// nothing can be verified, but silently downgrading to failure would
		// contradict what the shopper just saw.
		s.observe("success_unverified", false)
		return successTarget(clientBase, "", false)
	}

	s.observe("missing_order_id", false)
	return clientBase + "/cart?error=missing_order_id"
}

func (s *service) clientBase(ctx context.Context, r *http.Request) string {
	env := enums.GatewayEnvSandbox
	if creds, err := s.credentials.Resolve(ctx); err == nil {
		env = creds.Environment
	}
	return s.urls.ClientURL(r, env)
}

func (s *service) logCallback(ctx context.Context, outcome CallbackOutcome) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":           outcome.OrderID,
		"provisional_status": outcome.ProvisionalStatus.String(),
		"raw_status":         outcome.RawStatus,
		"source":             outcome.Source,
		"params":             outcome.Raw,
	})
	s.logg.Info(ctx, "gateway return callback received")
}

// recordReturnEvent is best effort: the redirect must go out even when the
// audit store is down.
func (s *service) recordReturnEvent(ctx context.Context, outcome CallbackOutcome) {
	if s.events == nil {
		return
	}
	raw, err := json.Marshal(outcome.Raw)
	if err != nil {
		raw = []byte("{}")
	}
	event := &models.PaymentEvent{
		Source:     enums.PaymentEventSourceReturn,
		EventType:  outcome.RawStatus,
		RawPayload: string(raw),
	}
	if outcome.OrderID != "" {
		orderID := outcome.OrderID
		event.OrderID = &orderID
	}
	if err := s.events.Record(ctx, event); err != nil && s.logg != nil {
		s.logg.Warn(ctx, fmt.Sprintf("record return event: %v", err))
	}
}

func (s *service) observe(outcome string, verified bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.Inc(outcome, verified)
}
