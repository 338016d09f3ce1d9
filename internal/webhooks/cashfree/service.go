package cashfreewebhook

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/craftkart/craftkart-backend/pkg/cashfree"
	"github.com/craftkart/craftkart-backend/pkg/db/models"
	"github.com/craftkart/craftkart-backend/pkg/enums"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/logger"
	"github.com/craftkart/craftkart-backend/pkg/metrics"
)

type eventRecorder interface {
	Record(ctx context.Context, event *models.PaymentEvent) error
}

type statusFetcher interface {
	GetOrderStatus(ctx context.Context, orderID string, creds cashfree.Credentials) (*cashfree.OrderResult, error)
}

type credentialResolver interface {
	Resolve(ctx context.Context) (cashfree.Credentials, error)
}

type ServiceParams struct {
	Events      eventRecorder
	Gateway     statusFetcher
	Credentials credentialResolver
	Logger      *logger.Logger
	Metrics     *metrics.WebhookMetrics
}

// Service ingests gateway webhook notifications. It is fire-and-forget
// relative to the shopper-facing flow: events are persisted for audit and the
// authoritative status is re-read for the operational log, but nothing here
// drives a user-visible decision.
type Service struct {
	events      eventRecorder
	gateway     statusFetcher
	credentials credentialResolver
	logg        *logger.Logger
	metrics     *metrics.WebhookMetrics
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "event recorder required")
	}
	return &Service{
		events:      params.Events,
		gateway:     params.Gateway,
		credentials: params.Credentials,
		logg:        params.Logger,
		metrics:     params.Metrics,
	}, nil
}

// HandleEvent persists the notification and cross-checks the order against the
// gateway. Step failures are aggregated rather than short-circuiting so a
// broken audit store does not hide a reconciliation result, and vice versa.
// The caller acknowledges the delivery regardless of the returned error.
func (s *Service) HandleEvent(ctx context.Context, event *WebhookEvent) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event is required")
	}

	var errs error
	errs = multierr.Append(errs, s.recordEvent(ctx, event))
	errs = multierr.Append(errs, s.crossCheck(ctx, event))

	if errs != nil {
		s.observe("failed")
		return errs
	}
	s.observe("processed")
	return nil
}

func (s *Service) recordEvent(ctx context.Context, event *WebhookEvent) error {
	row := &models.PaymentEvent{
		Source:     enums.PaymentEventSourceWebhook,
		EventType:  event.Type,
		RawPayload: string(event.Raw),
	}
	if orderID := strings.TrimSpace(event.Data.Order.OrderID); orderID != "" {
		row.OrderID = &orderID
	}
	if err := s.events.Record(ctx, row); err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}
	return nil
}

// crossCheck re-reads the order from the gateway and logs disagreement between
// the webhook's claim and the authoritative state. Webhooks arrive without
// ordering guarantees, so a mismatch is noteworthy but not an error by itself.
func (s *Service) crossCheck(ctx context.Context, event *WebhookEvent) error {
	orderID := strings.TrimSpace(event.Data.Order.OrderID)
	if orderID == "" || s.gateway == nil || s.credentials == nil {
		return nil
	}

	creds, err := s.credentials.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("resolve credentials: %w", err)
	}
	result, err := s.gateway.GetOrderStatus(ctx, orderID, creds)
	if err != nil {
		return fmt.Errorf("fetch order status: %w", err)
	}

	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"order_id":       orderID,
			"webhook_type":   event.Type,
			"payment_status": event.Data.Payment.PaymentStatus,
			"order_status":   result.Status.String(),
		})
		if claimsPaid(event) && result.Status != enums.OrderStatusPaid {
			s.logg.Warn(ctx, "webhook claims payment but gateway disagrees")
		} else {
			s.logg.Info(ctx, "webhook reconciled against gateway")
		}
	}
	return nil
}

func claimsPaid(event *WebhookEvent) bool {
	switch strings.ToUpper(strings.TrimSpace(event.Data.Payment.PaymentStatus)) {
	case "SUCCESS", "PAID", "CAPTURED", "COMPLETED":
		return true
	}
	return strings.Contains(strings.ToUpper(event.Type), "PAYMENT_SUCCESS")
}

func (s *Service) observe(result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.Inc(result)
}
