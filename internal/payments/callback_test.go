package payments

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/craftkart/craftkart-backend/pkg/enums"
)

func getRequest(query string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/api/v1/payments/return?"+query, nil)
}

func TestParseReturnCallback_CanonicalParams(t *testing.T) {
	outcome := ParseReturnCallback(getRequest("order_id=order_123&order_status=PAID"))
	if outcome.OrderID != "order_123" {
		t.Fatalf("unexpected order id %q", outcome.OrderID)
	}
	if outcome.ProvisionalStatus != enums.ProvisionalSuccess {
		t.Fatalf("unexpected status %v", outcome.ProvisionalStatus)
	}
	if outcome.Source != "query" {
		t.Fatalf("unexpected source %q", outcome.Source)
	}
}

func TestParseReturnCallback_AliasProbing(t *testing.T) {
	cases := []struct {
		name  string
		query string
		id    string
	}{
		{"cf prefixed", "cf_order_id=order_77&txStatus=SUCCESS", "order_77"},
		{"camel case", "orderId=order_88&paymentStatus=CAPTURED", "order_88"},
		{"upper case", "ORDER_ID=order_99&transaction_status=COMPLETED", "order_99"},
		{"session token", "payment_session_id=session_ab12&status=PAID", "session_ab12"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome := ParseReturnCallback(getRequest(tc.query))
			if outcome.OrderID != tc.id {
				t.Fatalf("unexpected order id %q", outcome.OrderID)
			}
			if outcome.ProvisionalStatus != enums.ProvisionalSuccess {
				t.Fatalf("unexpected status %v", outcome.ProvisionalStatus)
			}
		})
	}
}

func TestParseReturnCallback_AliasPriorityOrder(t *testing.T) {
	outcome := ParseReturnCallback(getRequest("order_token=tok_2&order_id=order_1"))
	if outcome.OrderID != "order_1" {
		t.Fatalf("expected canonical alias to win, got %q", outcome.OrderID)
	}
}

func TestParseReturnCallback_FailureTokens(t *testing.T) {
	for _, token := range []string{"FAILED", "FAILURE", "CANCELLED", "CANCELED", "EXPIRED", "TERMINATED", "USER_DROPPED", "VOID"} {
		outcome := ParseReturnCallback(getRequest("order_id=order_1&order_status=" + token))
		if outcome.ProvisionalStatus != enums.ProvisionalFailure {
			t.Fatalf("token %s: expected failure, got %v", token, outcome.ProvisionalStatus)
		}
		if outcome.RawStatus != token {
			t.Fatalf("token %s: raw status %q", token, outcome.RawStatus)
		}
	}
}

func TestParseReturnCallback_StatusCaseInsensitive(t *testing.T) {
	outcome := ParseReturnCallback(getRequest("order_id=order_1&order_status=paid"))
	if outcome.ProvisionalStatus != enums.ProvisionalSuccess {
		t.Fatalf("expected success for lowercase token, got %v", outcome.ProvisionalStatus)
	}
}

func TestParseReturnCallback_UnknownStatusAndMissingID(t *testing.T) {
	outcome := ParseReturnCallback(getRequest("order_status=PROCESSING"))
	if outcome.OrderID != "" {
		t.Fatalf("expected empty order id, got %q", outcome.OrderID)
	}
	if outcome.ProvisionalStatus != enums.ProvisionalUnknown {
		t.Fatalf("expected unknown, got %v", outcome.ProvisionalStatus)
	}

	outcome = ParseReturnCallback(getRequest(""))
	if outcome.ProvisionalStatus != enums.ProvisionalUnknown || outcome.OrderID != "" {
		t.Fatalf("expected empty outcome, got %+v", outcome)
	}
}

func TestParseReturnCallback_FormBody(t *testing.T) {
	form := url.Values{"orderId": {"order_55"}, "txStatus": {"FAILED"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/return", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	outcome := ParseReturnCallback(req)
	if outcome.OrderID != "order_55" {
		t.Fatalf("unexpected order id %q", outcome.OrderID)
	}
	if outcome.ProvisionalStatus != enums.ProvisionalFailure {
		t.Fatalf("unexpected status %v", outcome.ProvisionalStatus)
	}
	if outcome.Source != "body" {
		t.Fatalf("unexpected source %q", outcome.Source)
	}
}

func TestParseReturnCallback_JSONBody(t *testing.T) {
	body := `{"order_id":"order_66","order_status":"TERMINATED","irrelevant":42}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/return", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	outcome := ParseReturnCallback(req)
	if outcome.OrderID != "order_66" {
		t.Fatalf("unexpected order id %q", outcome.OrderID)
	}
	if outcome.ProvisionalStatus != enums.ProvisionalFailure {
		t.Fatalf("unexpected status %v", outcome.ProvisionalStatus)
	}
}

func TestParseReturnCallback_QueryWinsOverBody(t *testing.T) {
	form := url.Values{"order_id": {"body_order"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/return?order_id=query_order", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	outcome := ParseReturnCallback(req)
	if outcome.OrderID != "query_order" {
		t.Fatalf("expected query value to win, got %q", outcome.OrderID)
	}
}

func TestParseReturnCallback_RawParamsPreservedForLogging(t *testing.T) {
	outcome := ParseReturnCallback(getRequest("order_id=order_1&order_status=PAID&extra=value"))
	if outcome.Raw["extra"] != "value" {
		t.Fatalf("expected raw params preserved, got %v", outcome.Raw)
	}
}
