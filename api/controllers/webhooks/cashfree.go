package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/craftkart/craftkart-backend/api/responses"
	cashfreewebhook "github.com/craftkart/craftkart-backend/internal/webhooks/cashfree"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/logger"
)

const (
	signatureHeader = "x-webhook-signature"
	timestampHeader = "x-webhook-timestamp"
)

type CashfreeWebhookService interface {
	HandleEvent(ctx context.Context, event *cashfreewebhook.WebhookEvent) error
}

type cashfreeWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventKey string) (bool, error)
	Delete(ctx context.Context, eventKey string) error
}

// CashfreeWebhook ingests gateway payment notifications. Once the signature
// checks out, the delivery is acknowledged with 200 regardless of processing
// outcome: a non-2xx makes the gateway retry, which is undesirable after the
// event has been seen. Processing failures are an alerting concern, not the
// gateway's.
func CashfreeWebhook(svc CashfreeWebhookService, secret string, guard cashfreeWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		signature := r.Header.Get(signatureHeader)
		timestamp := r.Header.Get(timestampHeader)
		if !cashfreewebhook.VerifySignature(payload, timestamp, signature, secret) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}

		var event cashfreewebhook.WebhookEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			// Signed but undecodable payloads are acknowledged so the gateway
			// stops retrying; the raw body is logged for diagnosis.
			if logg != nil {
				ctx = logg.WithField(ctx, "payload", string(payload))
				logg.Error(ctx, "webhook payload undecodable", err)
			}
			responses.WriteSuccess(w, nil)
			return
		}
		event.Raw = payload

		eventKey := event.EventKey()
		alreadyProcessed, err := guard.CheckAndMark(ctx, eventKey)
		if err != nil {
			// A broken idempotency store must not drop deliveries; process anyway.
			if logg != nil {
				logg.Error(ctx, "webhook idempotency check failed", err)
			}
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, nil)
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			_ = guard.Delete(ctx, eventKey)
			if logg != nil {
				ctx = logg.WithField(ctx, "event_key", eventKey)
				logg.Error(ctx, "webhook processing failed", err)
			}
			responses.WriteSuccess(w, nil)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("cashfree event %s processed", eventKey))
		}
		responses.WriteSuccess(w, nil)
	}
}
