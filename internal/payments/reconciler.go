package payments

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/craftkart/craftkart-backend/pkg/cashfree"
	"github.com/craftkart/craftkart-backend/pkg/config"
	"github.com/craftkart/craftkart-backend/pkg/enums"
	"github.com/craftkart/craftkart-backend/pkg/logger"
	"github.com/craftkart/craftkart-backend/pkg/metrics"
)

// GatewayStatusFetcher is the slice of the gateway client the reconciler needs.
type GatewayStatusFetcher interface {
	GetOrderStatus(ctx context.Context, orderID string, creds cashfree.Credentials) (*cashfree.OrderResult, error)
}

// CredentialResolver yields the active gateway credentials.
type CredentialResolver interface {
	Resolve(ctx context.Context) (cashfree.Credentials, error)
}

// FinalOutcome is the reconciler's routing decision for the shopper's browser.
type FinalOutcome struct {
	RedirectTarget string
	Verified       bool
	Status         enums.OrderStatus
}

// Reconciler fetches the authoritative order status and turns it into a
// storefront redirect. It is the single source of truth for whether an order
// was actually paid; the provisional callback signal never overrides it.
type Reconciler struct {
	gateway     GatewayStatusFetcher
	credentials CredentialResolver
	logger      *logger.Logger
	metrics     *metrics.CallbackMetrics

	maxRetries   uint64
	retryBackoff time.Duration
}

// NewReconciler wires the reconciler with its retry policy.
func NewReconciler(gateway GatewayStatusFetcher, credentials CredentialResolver, cfg config.PaymentsConfig, logg *logger.Logger, m *metrics.CallbackMetrics) *Reconciler {
	maxRetries := uint64(cfg.StatusRetries)
	if cfg.StatusRetries <= 0 {
		maxRetries = 3
	}
	backoff := cfg.StatusRetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Reconciler{
		gateway:      gateway,
		credentials:  credentials,
		logger:       logg,
		metrics:      m,
		maxRetries:   maxRetries,
		retryBackoff: backoff,
	}
}

// Reconcile resolves the order's authoritative status and returns the redirect
// decision. It never returns an error: every failure mode collapses into a
// failure redirect carrying the order id and a machine-readable reason.
// Transport errors are retried with bounded backoff; gateway rejections are
// not, because the gateway already gave a definitive answer.
func (r *Reconciler) Reconcile(ctx context.Context, orderID, clientBaseURL string) FinalOutcome {
	result, err := r.fetchStatus(ctx, orderID)
	if err != nil {
		r.logError(ctx, orderID, err)
		r.observe("verification_failed", false)
		return failureOutcome(clientBaseURL, orderID, reasonForError(err))
	}

	if result.Status == enums.OrderStatusPaid {
		r.observe("paid", true)
		return FinalOutcome{
			RedirectTarget: successTarget(clientBaseURL, orderID, true),
			Verified:       true,
			Status:         enums.OrderStatusPaid,
		}
	}

	r.observe("not_paid", true)
	outcome := failureOutcome(clientBaseURL, orderID, result.Status.String())
	outcome.Status = result.Status
	return outcome
}

func (r *Reconciler) fetchStatus(ctx context.Context, orderID string) (*cashfree.OrderResult, error) {
	creds, err := r.credentials.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	var result *cashfree.OrderResult
	backoff := retry.WithMaxRetries(r.maxRetries, retry.NewExponential(r.retryBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		fetched, fetchErr := r.gateway.GetOrderStatus(ctx, orderID, creds)
		if fetchErr != nil {
			var terr *cashfree.TransportError
			if errors.As(fetchErr, &terr) {
				return retry.RetryableError(fetchErr)
			}
			return fetchErr
		}
		result = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Reconciler) observe(outcome string, verified bool) {
	if r.metrics == nil {
		return
	}
	r.metrics.Inc(outcome, verified)
}

func (r *Reconciler) logError(ctx context.Context, orderID string, err error) {
	if r.logger == nil {
		return
	}
	ctx = r.logger.WithOrderID(ctx, orderID)
	r.logger.Error(ctx, "order status verification failed", err)
}

func reasonForError(err error) string {
	var terr *cashfree.TransportError
	if errors.As(err, &terr) {
		return "gateway_unreachable"
	}
	var gerr *cashfree.GatewayError
	if errors.As(err, &gerr) {
		return "gateway_error"
	}
	return "verification_failed"
}

func successTarget(base, orderID string, verified bool) string {
	query := url.Values{}
	if orderID != "" {
		query.Set("order_id", orderID)
	}
	if verified {
		query.Set("verified", "true")
	} else {
		query.Set("verified", "false")
	}
	return base + "/thankyou?" + query.Encode()
}

func failureOutcome(base, orderID, reason string) FinalOutcome {
	query := url.Values{}
	query.Set("error", "payment_failed")
	if orderID != "" {
		query.Set("order_id", orderID)
	}
	if reason != "" {
		query.Set("reason", reason)
	}
	return FinalOutcome{
		RedirectTarget: base + "/cart?" + query.Encode(),
		Verified:       false,
	}
}
