package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shopsphere/storefront/api/responses"
	"github.com/shopsphere/storefront/api/validators"
	"github.com/shopsphere/storefront/internal/orders"
	"github.com/shopsphere/storefront/pkg/enums"
	pkgerrors "github.com/shopsphere/storefront/pkg/errors"
	"github.com/shopsphere/storefront/pkg/logger"
)

type orderDirectory interface {
	List() []orders.Order
	Get(orderID string) (orders.Order, bool)
}

type transitioner interface {
	RequestTransition(ctx context.Context, orderID string, current, next enums.OrderStatus) error
}

type refresher interface {
	Refresh(ctx context.Context) error
}

type statusUpdatePayload struct {
	Status string `json:"status" validate:"required"`
}

// AdminOrdersList serves the directory the background poller keeps fresh.
func AdminOrdersList(dir orderDirectory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, dir.List())
	}
}

// AdminOrdersRefresh forces a poll cycle outside the fixed interval.
func AdminOrdersRefresh(poller refresher, dir orderDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := poller.Refresh(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dir.List())
	}
}

// AdminOrderStatusUpdate drives the order lifecycle. The transition is
// validated against the order's current local state before the order
// service is asked to apply it.
func AdminOrderStatusUpdate(dir orderDirectory, lifecycle transitioner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
		if orderID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		var payload statusUpdatePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		next, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown order status"))
			return
		}

		order, ok := dir.Get(orderID)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not known to the admin view"))
			return
		}

		if err := lifecycle.RequestTransition(ctx, orderID, order.Status, next); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		updated, _ := dir.Get(orderID)
		responses.WriteSuccess(w, updated)
	}
}
