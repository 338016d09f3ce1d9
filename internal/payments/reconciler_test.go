package payments

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/craftkart/craftkart-backend/pkg/cashfree"
	"github.com/craftkart/craftkart-backend/pkg/config"
	"github.com/craftkart/craftkart-backend/pkg/enums"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
)

type stubFetcher struct {
	results []fetchResult
	calls   int
}

type fetchResult struct {
	result *cashfree.OrderResult
	err    error
}

func (s *stubFetcher) GetOrderStatus(ctx context.Context, orderID string, creds cashfree.Credentials) (*cashfree.OrderResult, error) {
	idx := s.calls
	s.calls++
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	return s.results[idx].result, s.results[idx].err
}

type stubCreds struct {
	err   error
	calls int
}

func (s *stubCreds) Resolve(ctx context.Context) (cashfree.Credentials, error) {
	s.calls++
	if s.err != nil {
		return cashfree.Credentials{}, s.err
	}
	return cashfree.Credentials{ClientID: "id", ClientSecret: "secret", Environment: enums.GatewayEnvSandbox}, nil
}

func newTestReconciler(fetcher *stubFetcher, creds *stubCreds) *Reconciler {
	return NewReconciler(fetcher, creds, config.PaymentsConfig{
		StatusRetries:      2,
		StatusRetryBackoff: time.Millisecond,
	}, nil, nil)
}

func statusResult(status enums.OrderStatus) fetchResult {
	return fetchResult{result: &cashfree.OrderResult{OrderID: "order_1", Status: status}}
}

func TestReconcile_PaidRoutesToVerifiedSuccess(t *testing.T) {
	fetcher := &stubFetcher{results: []fetchResult{statusResult(enums.OrderStatusPaid)}}
	outcome := newTestReconciler(fetcher, &stubCreds{}).Reconcile(context.Background(), "order_1", "https://shop.example")

	if !outcome.Verified {
		t.Fatalf("expected verified outcome")
	}
	if outcome.RedirectTarget != "https://shop.example/thankyou?order_id=order_1&verified=true" {
		t.Fatalf("unexpected redirect %q", outcome.RedirectTarget)
	}
}

func TestReconcile_NonPaidStatusCarriesReason(t *testing.T) {
	for _, status := range []enums.OrderStatus{enums.OrderStatusActive, enums.OrderStatusExpired, enums.OrderStatusTerminated} {
		fetcher := &stubFetcher{results: []fetchResult{statusResult(status)}}
		outcome := newTestReconciler(fetcher, &stubCreds{}).Reconcile(context.Background(), "order_1", "https://shop.example")

		if outcome.Verified {
			t.Fatalf("status %s: expected unverified", status)
		}
		if !strings.Contains(outcome.RedirectTarget, "/cart?") {
			t.Fatalf("status %s: expected cart redirect, got %q", status, outcome.RedirectTarget)
		}
		if !strings.Contains(outcome.RedirectTarget, "reason="+status.String()) {
			t.Fatalf("status %s: missing reason in %q", status, outcome.RedirectTarget)
		}
		if !strings.Contains(outcome.RedirectTarget, "order_id=order_1") {
			t.Fatalf("status %s: missing order id in %q", status, outcome.RedirectTarget)
		}
	}
}

func TestReconcile_TransportErrorRetriedThenSucceeds(t *testing.T) {
	fetcher := &stubFetcher{results: []fetchResult{
		{err: &cashfree.TransportError{Kind: cashfree.TransportUnreachable}},
		statusResult(enums.OrderStatusPaid),
	}}
	outcome := newTestReconciler(fetcher, &stubCreds{}).Reconcile(context.Background(), "order_1", "https://shop.example")

	if fetcher.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", fetcher.calls)
	}
	if !outcome.Verified {
		t.Fatalf("expected verified after retry")
	}
}

func TestReconcile_TransportErrorExhaustsRetries(t *testing.T) {
	fetcher := &stubFetcher{results: []fetchResult{
		{err: &cashfree.TransportError{Kind: cashfree.TransportTimeout}},
	}}
	outcome := newTestReconciler(fetcher, &stubCreds{}).Reconcile(context.Background(), "order_1", "https://shop.example")

	if fetcher.calls != 3 {
		t.Fatalf("expected initial call plus 2 retries, got %d", fetcher.calls)
	}
	if outcome.Verified {
		t.Fatalf("expected unverified outcome")
	}
	if !strings.Contains(outcome.RedirectTarget, "reason=gateway_unreachable") {
		t.Fatalf("unexpected redirect %q", outcome.RedirectTarget)
	}
}

func TestReconcile_GatewayErrorNotRetried(t *testing.T) {
	fetcher := &stubFetcher{results: []fetchResult{
		{err: &cashfree.GatewayError{HTTPStatus: 404, ErrCode: "order_not_found", ErrMessage: "not found"}},
	}}
	outcome := newTestReconciler(fetcher, &stubCreds{}).Reconcile(context.Background(), "order_1", "https://shop.example")

	if fetcher.calls != 1 {
		t.Fatalf("expected a single call, got %d", fetcher.calls)
	}
	if !strings.Contains(outcome.RedirectTarget, "reason=gateway_error") {
		t.Fatalf("unexpected redirect %q", outcome.RedirectTarget)
	}
}

func TestReconcile_CredentialFailureSkipsGateway(t *testing.T) {
	fetcher := &stubFetcher{results: []fetchResult{statusResult(enums.OrderStatusPaid)}}
	creds := &stubCreds{err: pkgerrors.New(pkgerrors.CodeConfiguration, "gateway disabled")}
	outcome := newTestReconciler(fetcher, creds).Reconcile(context.Background(), "order_1", "https://shop.example")

	if fetcher.calls != 0 {
		t.Fatalf("expected no gateway call, got %d", fetcher.calls)
	}
	if outcome.Verified {
		t.Fatalf("expected unverified outcome")
	}
	if !strings.Contains(outcome.RedirectTarget, "error=payment_failed") {
		t.Fatalf("unexpected redirect %q", outcome.RedirectTarget)
	}
}

var errBoom = errors.New("boom")

func TestReconcile_UnknownErrorDefaultsToGenericReason(t *testing.T) {
	fetcher := &stubFetcher{results: []fetchResult{{err: errBoom}}}
	outcome := newTestReconciler(fetcher, &stubCreds{}).Reconcile(context.Background(), "order_1", "https://shop.example")

	if !strings.Contains(outcome.RedirectTarget, "reason=verification_failed") {
		t.Fatalf("unexpected redirect %q", outcome.RedirectTarget)
	}
}
