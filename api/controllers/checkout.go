package controllers

import (
	"context"
	"net/http"

	"github.com/shopsphere/storefront/api/responses"
	"github.com/shopsphere/storefront/api/validators"
	"github.com/shopsphere/storefront/internal/checkout"
	"github.com/shopsphere/storefront/internal/identity"
	"github.com/shopsphere/storefront/pkg/enums"
	"github.com/shopsphere/storefront/pkg/logger"
	"github.com/shopsphere/storefront/pkg/types"
)

type submitter interface {
	Submit(ctx context.Context, ident identity.Identity, addr types.Address, payment enums.PaymentMethod) (string, checkout.Totals, error)
}

type checkoutPayload struct {
	Address       types.Address `json:"address" validate:"required"`
	PaymentMethod string        `json:"paymentMethod" validate:"required"`
}

type checkoutResponse struct {
	OrderID string          `json:"orderId"`
	Totals  checkout.Totals `json:"totals"`
}

// CheckoutSubmit places the order for the current session.
func CheckoutSubmit(pipeline submitter, sessions identitySource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload checkoutPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ident, err := currentIdentity(ctx, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orderID, totals, err := pipeline.Submit(ctx, ident, payload.Address, enums.PaymentMethod(payload.PaymentMethod))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{OrderID: orderID, Totals: totals})
	}
}

// CheckoutSummary returns the display totals for the current cart without
// side effects; the review screen polls this between cart edits.
func CheckoutSummary(carts cartStore, totals totalsSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, totals.DisplayTotals(carts.Total()))
	}
}
