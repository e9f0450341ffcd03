package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shopsphere/storefront/api/responses"
	"github.com/shopsphere/storefront/api/validators"
	"github.com/shopsphere/storefront/internal/identity"
	"github.com/shopsphere/storefront/internal/wishlist"
	pkgerrors "github.com/shopsphere/storefront/pkg/errors"
	"github.com/shopsphere/storefront/pkg/logger"
)

type wishlistStore interface {
	Load(ctx context.Context, ident identity.Identity) error
	Add(ctx context.Context, ident identity.Identity, rawProduct map[string]any) error
	Remove(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
	Entries() []wishlist.Entry
	Contains(productID string) bool
}

type identitySource interface {
	LoadSession(ctx context.Context) (identity.Identity, string, error)
}

type addWishlistPayload struct {
	Product map[string]any `json:"product" validate:"required"`
}

func currentIdentity(ctx context.Context, sessions identitySource) (identity.Identity, error) {
	ident, _, err := sessions.LoadSession(ctx)
	if err != nil {
		return identity.Identity{}, pkgerrors.Wrap(pkgerrors.CodeIdentity, err, "no resolved identity for this session")
	}
	return ident, nil
}

// WishlistShow refreshes the local mirror from the wishlist service and
// returns it.
func WishlistShow(store wishlistStore, sessions identitySource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ident, err := currentIdentity(ctx, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := store.Load(ctx, ident); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.Entries())
	}
}

func WishlistAdd(store wishlistStore, sessions identitySource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload addWishlistPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ident, err := currentIdentity(ctx, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := store.Add(ctx, ident, payload.Product); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, store.Entries())
	}
}

func WishlistRemove(store wishlistStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		productID := strings.TrimSpace(chi.URLParam(r, "productId"))
		if productID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}
		if err := store.Remove(ctx, productID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.Entries())
	}
}

func WishlistClear(store wishlistStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := store.Clear(ctx); err != nil {
			// local state is already empty; report the remote failures
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeRemoteRejection, err, "some wishlist entries were not deleted remotely"))
			return
		}
		responses.WriteSuccess(w, store.Entries())
	}
}
