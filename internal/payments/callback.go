package payments

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/craftkart/craftkart-backend/pkg/enums"
)

// Gateways have renamed their callback parameters across dashboard versions and
// checkout SDKs, so extraction probes a wide alias list in priority order
// rather than trusting a single documented name.
var (
	orderIDAliases = []string{
		"order_id",
		"orderId",
		"ORDER_ID",
		"orderid",
		"cf_order_id",
		"order_token",
		"payment_session_id",
		"orderToken",
	}

	statusAliases = []string{
		"order_status",
		"orderStatus",
		"payment_status",
		"paymentStatus",
		"txStatus",
		"tx_status",
		"transaction_status",
		"status",
	}

	successTokens = map[string]struct{}{
		"PAID":      {},
		"SUCCESS":   {},
		"CAPTURED":  {},
		"COMPLETED": {},
	}

	failureTokens = map[string]struct{}{
		"FAILED":       {},
		"FAILURE":      {},
		"CANCELLED":    {},
		"CANCELED":     {},
		"EXPIRED":      {},
		"TERMINATED":   {},
		"USER_DROPPED": {},
		"VOID":         {},
	}
)

// CallbackOutcome is the result of defensively parsing a gateway return
// callback. The provisional status is only a hint; verification against the
// gateway decides the real order state.
type CallbackOutcome struct {
	OrderID           string
	ProvisionalStatus enums.ProvisionalStatus
	RawStatus         string
	Source            string
	Raw               map[string]string
}

// ParseReturnCallback extracts the order id and provisional status from a
// return redirect. Query parameters are probed first, then form fields, then a
// JSON body. It never fails: absent or unrecognized values degrade to empty id
// and UNKNOWN status.
func ParseReturnCallback(r *http.Request) CallbackOutcome {
	params, source := collectParams(r)

	outcome := CallbackOutcome{
		ProvisionalStatus: enums.ProvisionalUnknown,
		Source:            source,
		Raw:               params,
	}

	for _, alias := range orderIDAliases {
		if value := strings.TrimSpace(params[alias]); value != "" {
			outcome.OrderID = value
			break
		}
	}

	for _, alias := range statusAliases {
		value := strings.TrimSpace(params[alias])
		if value == "" {
			continue
		}
		outcome.RawStatus = strings.ToUpper(value)
		outcome.ProvisionalStatus = classifyStatus(outcome.RawStatus)
		break
	}

	return outcome
}

func classifyStatus(token string) enums.ProvisionalStatus {
	if _, ok := successTokens[token]; ok {
		return enums.ProvisionalSuccess
	}
	if _, ok := failureTokens[token]; ok {
		return enums.ProvisionalFailure
	}
	return enums.ProvisionalUnknown
}

// collectParams flattens query, form and JSON-body parameters into one map.
// Query values win over body values under the same key because the redirect
// URL is what the gateway actually controls.
func collectParams(r *http.Request) (map[string]string, string) {
	params := map[string]string{}
	source := "query"

	if r.Method == http.MethodPost {
		if fromBody := bodyParams(r); len(fromBody) > 0 {
			source = "body"
			for k, v := range fromBody {
				params[k] = v
			}
		}
	}

	for key, values := range r.URL.Query() {
		if len(values) > 0 && values[0] != "" {
			params[key] = values[0]
		}
	}

	return params, source
}

func bodyParams(r *http.Request) map[string]string {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		return jsonBodyParams(r)
	}

	if err := r.ParseForm(); err != nil {
		return nil
	}
	params := map[string]string{}
	for key, values := range r.PostForm {
		if len(values) > 0 && values[0] != "" {
			params[key] = values[0]
		}
	}
	return params
}

func jsonBodyParams(r *http.Request) map[string]string {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil
	}
	params := map[string]string{}
	for key, value := range decoded {
		switch v := value.(type) {
		case string:
			if v != "" {
				params[key] = v
			}
		case json.Number:
			params[key] = v.String()
		case float64:
			params[key] = strings.TrimSuffix(fmt.Sprintf("%v", v), ".0")
		}
	}
	return params
}
