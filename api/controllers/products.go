package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shopsphere/storefront/api/responses"
	"github.com/shopsphere/storefront/api/validators"
	"github.com/shopsphere/storefront/internal/identity"
	pkgerrors "github.com/shopsphere/storefront/pkg/errors"
	"github.com/shopsphere/storefront/pkg/logger"
)

type catalog interface {
	GetProduct(ctx context.Context, productID string) (map[string]any, error)
	SearchProducts(ctx context.Context, query string) ([]map[string]any, error)
}

const maxSearchQueryLen = 200

func ProductShow(store catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		raw, err := store.GetProduct(ctx, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		product, err := identity.NormalizeProduct(raw)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductSearch proxies the catalog search, normalizing each hit. Hits
// with no resolvable identifier are dropped.
func ProductSearch(store catalog, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		query := validators.SanitizeString(r.URL.Query().Get("q"), maxSearchQueryLen)
		if query == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "search query is required"))
			return
		}

		raws, err := store.SearchProducts(ctx, query)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		products := make([]identity.ProductReference, 0, len(raws))
		for _, raw := range raws {
			product, err := identity.NormalizeProduct(raw)
			if err != nil {
				logg.Warn(ctx, "search hit without resolvable identifier dropped")
				continue
			}
			products = append(products, product)
		}
		responses.WriteSuccess(w, products)
	}
}
