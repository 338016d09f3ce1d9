package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/craftkart/craftkart-backend/api/responses"
	"github.com/craftkart/craftkart-backend/api/validators"
	"github.com/craftkart/craftkart-backend/pkg/db/models"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/logger"
)

type PaymentEventLister interface {
	ListByOrderID(ctx context.Context, orderID string, limit int) ([]models.PaymentEvent, error)
}

// ListPaymentEvents exposes the gateway audit trail for one order, for support
// staff chasing a disputed payment.
func ListPaymentEvents(repo PaymentEventLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if repo == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event store unavailable"))
			return
		}

		orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
		if orderID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		events, err := repo.ListByOrderID(ctx, orderID, limit)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment events"))
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"order_id": orderID,
			"events":   events,
		})
	}
}
