package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/craftkart/craftkart-backend/internal/settings"
	"github.com/craftkart/craftkart-backend/internal/urlresolver"
	"github.com/craftkart/craftkart-backend/pkg/cashfree"
	"github.com/craftkart/craftkart-backend/pkg/config"
	"github.com/craftkart/craftkart-backend/pkg/db/models"
	"github.com/craftkart/craftkart-backend/pkg/enums"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
)

type stubGateway struct {
	createResult *cashfree.OrderResult
	createErr    error
	statusResult *cashfree.OrderResult
	statusErr    error

	createCalls   int
	statusCalls   int
	lastPayload   cashfree.OrderPayload
	panicOnStatus bool
}

func (s *stubGateway) CreateOrder(ctx context.Context, payload cashfree.OrderPayload, creds cashfree.Credentials) (*cashfree.OrderResult, error) {
	s.createCalls++
	s.lastPayload = payload
	return s.createResult, s.createErr
}

func (s *stubGateway) GetOrderStatus(ctx context.Context, orderID string, creds cashfree.Credentials) (*cashfree.OrderResult, error) {
	s.statusCalls++
	if s.panicOnStatus {
		panic("gateway stub exploded")
	}
	return s.statusResult, s.statusErr
}

type stubSettings struct {
	creds cashfree.Credentials
	err   error
}

func (s *stubSettings) Resolve(ctx context.Context) (cashfree.Credentials, error) {
	if s.err != nil {
		return cashfree.Credentials{}, s.err
	}
	return s.creds, nil
}

func (s *stubSettings) Update(ctx context.Context, input settings.UpdateInput) (*settings.SettingView, error) {
	return nil, nil
}

func (s *stubSettings) Get(ctx context.Context) (*settings.SettingView, error) {
	return nil, nil
}

func (s *stubSettings) Invalidate() {}

type stubRecorder struct {
	events []*models.PaymentEvent
	err    error
}

func (s *stubRecorder) Record(ctx context.Context, event *models.PaymentEvent) error {
	s.events = append(s.events, event)
	return s.err
}

func newTestService(t *testing.T, gateway *stubGateway, creds *stubSettings, recorder *stubRecorder) Service {
	t.Helper()
	builder := testBuilder(t)
	urls := urlresolver.New(config.URLConfig{LocalClientPort: "3000", LocalServerPort: "8080"})
	reconciler := NewReconciler(gateway, creds, config.PaymentsConfig{
		StatusRetries:      1,
		StatusRetryBackoff: time.Millisecond,
	}, nil, nil)

	var events EventRecorder
	if recorder != nil {
		events = recorder
	}
	svc, err := NewService(builder, gateway, creds, urls, reconciler, events, nil, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func sandboxCreds() *stubSettings {
	return &stubSettings{creds: cashfree.Credentials{
		ClientID:     "id",
		ClientSecret: "secret",
		Environment:  enums.GatewayEnvSandbox,
	}}
}

func checkoutRequest() *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/orders", nil)
	req.Host = "api.shop.example"
	return req
}

func returnRequest(query string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/return?"+query, nil)
	req.Host = "shop.example"
	return req
}

func TestCreateOrder_WiresCallbackURLsFromRequest(t *testing.T) {
	gateway := &stubGateway{createResult: &cashfree.OrderResult{
		OrderID:          "order_1",
		Status:           enums.OrderStatusActive,
		PaymentSessionID: "session_xyz",
	}}
	svc := newTestService(t, gateway, sandboxCreds(), nil)

	result, err := svc.CreateOrder(context.Background(), checkoutRequest(), validInput())
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if result.PaymentSessionID != "session_xyz" {
		t.Fatalf("unexpected session id %q", result.PaymentSessionID)
	}
	if result.Environment != "sandbox" {
		t.Fatalf("unexpected environment %q", result.Environment)
	}

	meta := gateway.lastPayload.OrderMeta
	if meta.ReturnURL != "http://api.shop.example/api/v1/payments/return" {
		t.Fatalf("unexpected return url %q", meta.ReturnURL)
	}
	if meta.NotifyURL != "http://api.shop.example/api/v1/webhooks/cashfree" {
		t.Fatalf("unexpected notify url %q", meta.NotifyURL)
	}
}

func TestCreateOrder_DisabledGatewayMakesNoNetworkCall(t *testing.T) {
	gateway := &stubGateway{}
	creds := &stubSettings{err: pkgerrors.New(pkgerrors.CodeConfiguration, "payment gateway disabled")}
	svc := newTestService(t, gateway, creds, nil)

	_, err := svc.CreateOrder(context.Background(), checkoutRequest(), validInput())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if gateway.createCalls != 0 {
		t.Fatalf("expected no gateway call, got %d", gateway.createCalls)
	}
}

func TestCreateOrder_ValidationFailsBeforeGateway(t *testing.T) {
	gateway := &stubGateway{}
	svc := newTestService(t, gateway, sandboxCreds(), nil)

	input := validInput()
	input.Phone = "12345"
	_, err := svc.CreateOrder(context.Background(), checkoutRequest(), input)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gateway.createCalls != 0 {
		t.Fatalf("expected no gateway call, got %d", gateway.createCalls)
	}
}

func TestCreateOrder_GatewayRejectionMapped(t *testing.T) {
	gateway := &stubGateway{createErr: &cashfree.GatewayError{HTTPStatus: 409, ErrCode: "order_already_exists", ErrMessage: "duplicate"}}
	svc := newTestService(t, gateway, sandboxCreds(), nil)

	_, err := svc.CreateOrder(context.Background(), checkoutRequest(), validInput())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeGateway {
		t.Fatalf("expected gateway error, got %v", err)
	}
}

func TestOrderStatus_ReportsTerminal(t *testing.T) {
	gateway := &stubGateway{statusResult: &cashfree.OrderResult{OrderID: "order_1", Status: enums.OrderStatusPaid}}
	svc := newTestService(t, gateway, sandboxCreds(), nil)

	result, err := svc.OrderStatus(context.Background(), "order_1")
	if err != nil {
		t.Fatalf("order status: %v", err)
	}
	if result.Status != "PAID" || !result.Terminal {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestHandleReturn_OrderIDDelegatesToReconciler(t *testing.T) {
	gateway := &stubGateway{statusResult: &cashfree.OrderResult{OrderID: "order_1", Status: enums.OrderStatusPaid}}
	svc := newTestService(t, gateway, sandboxCreds(), nil)

	target := svc.HandleReturn(context.Background(), returnRequest("order_id=order_1&order_status=PAID"))
	if target != "http://shop.example/thankyou?order_id=order_1&verified=true" {
		t.Fatalf("unexpected redirect %q", target)
	}
	if gateway.statusCalls != 1 {
		t.Fatalf("expected 1 status call, got %d", gateway.statusCalls)
	}
}

func TestHandleReturn_ReconcilerOverridesProvisionalSuccess(t *testing.T) {
	gateway := &stubGateway{statusResult: &cashfree.OrderResult{OrderID: "order_1", Status: enums.OrderStatusTerminated}}
	svc := newTestService(t, gateway, sandboxCreds(), nil)

	target := svc.HandleReturn(context.Background(), returnRequest("order_id=order_1&order_status=PAID"))
	if !strings.Contains(target, "/cart?") || !strings.Contains(target, "reason=TERMINATED") {
		t.Fatalf("unexpected redirect %q", target)
	}
}

func TestHandleReturn_SuccessWithoutOrderIDIsUnverifiedSuccess(t *testing.T) {
	gateway := &stubGateway{}
	svc := newTestService(t, gateway, sandboxCreds(), nil)

	target := svc.HandleReturn(context.Background(), returnRequest("payment_status=SUCCESS"))
	if target != "http://shop.example/thankyou?verified=false" {
		t.Fatalf("unexpected redirect %q", target)
	}
	if gateway.statusCalls != 0 {
		t.Fatalf("expected no verification call, got %d", gateway.statusCalls)
	}
}

func TestHandleReturn_NoOrderIDNoSuccessRoutesToCart(t *testing.T) {
	svc := newTestService(t, &stubGateway{}, sandboxCreds(), nil)

	target := svc.HandleReturn(context.Background(), returnRequest("txStatus=FAILED"))
	if target != "http://shop.example/cart?error=missing_order_id" {
		t.Fatalf("unexpected redirect %q", target)
	}

	target = svc.HandleReturn(context.Background(), returnRequest(""))
	if target != "http://shop.example/cart?error=missing_order_id" {
		t.Fatalf("unexpected redirect %q", target)
	}
}

func TestHandleReturn_PanicResolvesToFailureRedirect(t *testing.T) {
	gateway := &stubGateway{panicOnStatus: true}
	svc := newTestService(t, gateway, sandboxCreds(), nil)

	target := svc.HandleReturn(context.Background(), returnRequest("order_id=order_1&order_status=PAID"))
	if target != "http://shop.example/cart?error=callback_error" {
		t.Fatalf("unexpected redirect %q", target)
	}
}

func TestHandleReturn_RecordsAuditEvent(t *testing.T) {
	recorder := &stubRecorder{}
	gateway := &stubGateway{statusResult: &cashfree.OrderResult{OrderID: "order_1", Status: enums.OrderStatusPaid}}
	svc := newTestService(t, gateway, sandboxCreds(), recorder)

	svc.HandleReturn(context.Background(), returnRequest("order_id=order_1&order_status=PAID"))

	if len(recorder.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(recorder.events))
	}
	event := recorder.events[0]
	if event.Source != enums.PaymentEventSourceReturn {
		t.Fatalf("unexpected source %v", event.Source)
	}
	if event.OrderID == nil || *event.OrderID != "order_1" {
		t.Fatalf("unexpected order id %v", event.OrderID)
	}
	if !strings.Contains(event.RawPayload, "order_1") {
		t.Fatalf("expected raw params in payload, got %q", event.RawPayload)
	}
}

func TestHandleReturn_AuditFailureDoesNotBlockRedirect(t *testing.T) {
	recorder := &stubRecorder{err: context.DeadlineExceeded}
	gateway := &stubGateway{statusResult: &cashfree.OrderResult{OrderID: "order_1", Status: enums.OrderStatusPaid}}
	svc := newTestService(t, gateway, sandboxCreds(), recorder)

	target := svc.HandleReturn(context.Background(), returnRequest("order_id=order_1&order_status=PAID"))
	if !strings.Contains(target, "/thankyou?") {
		t.Fatalf("unexpected redirect %q", target)
	}
}

func TestHandleReturn_LiveModeRedirectsOverHTTPS(t *testing.T) {
	creds := &stubSettings{creds: cashfree.Credentials{
		ClientID: "id", ClientSecret: "secret", Environment: enums.GatewayEnvLive,
	}}
	gateway := &stubGateway{statusResult: &cashfree.OrderResult{OrderID: "order_1", Status: enums.OrderStatusPaid}}
	svc := newTestService(t, gateway, creds, nil)

	target := svc.HandleReturn(context.Background(), returnRequest("order_id=order_1&order_status=PAID"))
	if !strings.HasPrefix(target, "https://shop.example/") {
		t.Fatalf("expected https redirect in live mode, got %q", target)
	}
}

func TestCreateOrder_AmountSurvivesToGatewayPayload(t *testing.T) {
	gateway := &stubGateway{createResult: &cashfree.OrderResult{OrderID: "order_1", Status: enums.OrderStatusActive}}
	svc := newTestService(t, gateway, sandboxCreds(), nil)

	input := validInput()
	input.Amount = decimal.RequireFromString("499.50")
	if _, err := svc.CreateOrder(context.Background(), checkoutRequest(), input); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if gateway.lastPayload.OrderAmount.String() != "499.5" {
		t.Fatalf("unexpected amount %s", gateway.lastPayload.OrderAmount)
	}
}
