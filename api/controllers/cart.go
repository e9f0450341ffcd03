package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shopsphere/storefront/api/responses"
	"github.com/shopsphere/storefront/api/validators"
	"github.com/shopsphere/storefront/internal/cart"
	"github.com/shopsphere/storefront/internal/checkout"
	"github.com/shopsphere/storefront/internal/identity"
	pkgerrors "github.com/shopsphere/storefront/pkg/errors"
	"github.com/shopsphere/storefront/pkg/logger"
)

type cartStore interface {
	AddItem(product identity.ProductReference, variant cart.Variant, quantity int)
	RemoveItem(productID string, variant *cart.Variant)
	SetQuantity(productID string, variant cart.Variant, quantity int)
	Items() []cart.LineItem
	Total() decimal.Decimal
	Clear()
}

type totalsSource interface {
	DisplayTotals(subtotal decimal.Decimal) checkout.Totals
}

type addCartItemPayload struct {
	Product  map[string]any `json:"product" validate:"required"`
	Size     string         `json:"size"`
	Color    string         `json:"color"`
	Quantity int            `json:"quantity"`
}

// Quantity deliberately has no validation floor: zero and below remove
// the line.
type setQuantityPayload struct {
	Size     string `json:"size"`
	Color    string `json:"color"`
	Quantity int    `json:"quantity"`
}

type cartResponse struct {
	Items  []cart.LineItem `json:"items"`
	Totals checkout.Totals `json:"totals"`
}

func CartShow(carts cartStore, totals totalsSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, cartResponse{
			Items:  carts.Items(),
			Totals: totals.DisplayTotals(carts.Total()),
		})
	}
}

func CartAdd(carts cartStore, totals totalsSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload addCartItemPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := identity.NormalizeProduct(payload.Product)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		carts.AddItem(product, cart.Variant{Size: payload.Size, Color: payload.Color}, payload.Quantity)
		responses.WriteSuccess(w, cartResponse{
			Items:  carts.Items(),
			Totals: totals.DisplayTotals(carts.Total()),
		})
	}
}

// CartRemove drops lines for the product. With no size/color query the
// whole product goes, whatever variants are in the cart.
func CartRemove(carts cartStore, totals totalsSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		variant := variantFromQuery(r)
		carts.RemoveItem(productID, variant)
		responses.WriteSuccess(w, cartResponse{
			Items:  carts.Items(),
			Totals: totals.DisplayTotals(carts.Total()),
		})
	}
}

func CartSetQuantity(carts cartStore, totals totalsSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		var payload setQuantityPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		carts.SetQuantity(productID, cart.Variant{Size: payload.Size, Color: payload.Color}, payload.Quantity)
		responses.WriteSuccess(w, cartResponse{
			Items:  carts.Items(),
			Totals: totals.DisplayTotals(carts.Total()),
		})
	}
}

func CartClear(carts cartStore, totals totalsSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		carts.Clear()
		responses.WriteSuccess(w, cartResponse{
			Items:  carts.Items(),
			Totals: totals.DisplayTotals(carts.Total()),
		})
	}
}

func variantFromQuery(r *http.Request) *cart.Variant {
	size := strings.TrimSpace(r.URL.Query().Get("size"))
	color := strings.TrimSpace(r.URL.Query().Get("color"))
	if size == "" && color == "" {
		return nil
	}
	return &cart.Variant{Size: size, Color: color}
}
