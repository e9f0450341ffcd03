package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shopsphere/storefront/api/responses"
	"github.com/shopsphere/storefront/internal/remote"
	"github.com/shopsphere/storefront/internal/session"
	"github.com/shopsphere/storefront/pkg/enums"
	pkgerrors "github.com/shopsphere/storefront/pkg/errors"
	"github.com/shopsphere/storefront/pkg/logger"
)

type orderReader interface {
	Get(ctx context.Context, orderID string) (*remote.OrderRecord, error)
	ListByUser(ctx context.Context, userID string) ([]remote.OrderRecord, error)
}

type statusResolver interface {
	DisplayStatus(ctx context.Context, orderID, raw string) enums.OrderStatus
}

type lastOrderSource interface {
	LoadLastOrder(ctx context.Context) (session.OrderSnapshot, error)
}

type orderView struct {
	OrderID     string            `json:"orderId"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	OrderDate   string            `json:"orderDate"`
	Items       []map[string]any  `json:"items,omitempty"`
}

func toOrderView(ctx context.Context, resolver statusResolver, rec remote.OrderRecord) orderView {
	return orderView{
		OrderID:     rec.OrderID.String(),
		Status:      resolver.DisplayStatus(ctx, rec.OrderID.String(), rec.Status),
		TotalAmount: rec.TotalAmount,
		OrderDate:   rec.OrderDate,
		Items:       rec.Items,
	}
}

func OrderShow(reader orderReader, resolver statusResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
		if orderID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		rec, err := reader.Get(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderView(ctx, resolver, *rec))
	}
}

func OrdersList(reader orderReader, resolver statusResolver, sessions identitySource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ident, err := currentIdentity(ctx, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recs, err := reader.ListByUser(ctx, ident.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		views := make([]orderView, 0, len(recs))
		for _, rec := range recs {
			views = append(views, toOrderView(ctx, resolver, rec))
		}
		responses.WriteSuccess(w, views)
	}
}

// LastOrder returns the crash-recovery snapshot of the most recently
// placed order; used by the confirmation screen when navigation state is
// lost.
func LastOrder(sessions lastOrderSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		snapshot, err := sessions.LoadLastOrder(ctx)
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no recent order recorded"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load last order"))
			return
		}
		responses.WriteSuccess(w, snapshot)
	}
}
