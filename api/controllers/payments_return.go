package controllers

import (
	"net/http"

	"github.com/craftkart/craftkart-backend/internal/payments"
	"github.com/craftkart/craftkart-backend/pkg/logger"
)

// PaymentReturn handles the gateway's browser redirect after hosted checkout.
// The response is always a 302 to the storefront; the shopper must never see a
// raw error page here.
func PaymentReturn(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		target := svc.HandleReturn(ctx, r)
		if logg != nil {
			ctx = logg.WithField(ctx, "redirect_target", target)
			logg.Info(ctx, "payment return redirect")
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}
