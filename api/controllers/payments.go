package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/craftkart/craftkart-backend/api/responses"
	"github.com/craftkart/craftkart-backend/api/validators"
	"github.com/craftkart/craftkart-backend/internal/payments"
	pkgerrors "github.com/craftkart/craftkart-backend/pkg/errors"
	"github.com/craftkart/craftkart-backend/pkg/logger"
)

type createOrderRequest struct {
	Amount    string `json:"amount" validate:"required"`
	Currency  string `json:"currency"`
	Phone     string `json:"phone" validate:"required"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	OrderID   string `json:"order_id"`
	OrderNote string `json:"order_note"`
}

// CreatePaymentOrder creates a gateway payment order for the checkout flow.
func CreatePaymentOrder(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "amount must be a decimal number").
				WithDetails(map[string]string{"amount": "must be a decimal number"}))
			return
		}

		result, err := svc.CreateOrder(ctx, r, payments.CheckoutInput{
			Amount:    amount,
			Currency:  req.Currency,
			Phone:     req.Phone,
			Email:     req.Email,
			Name:      req.Name,
			OrderID:   req.OrderID,
			OrderNote: req.OrderNote,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentOrderStatus returns the gateway's authoritative state for one order.
func PaymentOrderStatus(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
		if orderID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		result, err := svc.OrderStatus(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
