package controllers

import (
	"context"
	"net/http"

	"github.com/shopsphere/storefront/api/responses"
	"github.com/shopsphere/storefront/api/validators"
	pkgerrors "github.com/shopsphere/storefront/pkg/errors"
	"github.com/shopsphere/storefront/pkg/logger"
	"github.com/shopsphere/storefront/pkg/types"

	"github.com/shopsphere/storefront/internal/remote"
)

type addressBook interface {
	ListByUser(ctx context.Context, userID string) ([]remote.AddressRecord, error)
	Create(ctx context.Context, userID string, addr types.Address) (*remote.AddressRecord, error)
}

func AddressList(book addressBook, sessions identitySource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ident, err := currentIdentity(ctx, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		recs, err := book.ListByUser(ctx, ident.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, recs)
	}
}

func AddressCreate(book addressBook, sessions identitySource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var addr types.Address
		if err := validators.DecodeJSONBody(r, &addr); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if field := addr.MissingField(); field != "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "address is missing "+field).
				WithDetails(map[string]any{"field": field}))
			return
		}

		ident, err := currentIdentity(ctx, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rec, err := book.Create(ctx, ident.ID, addr)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rec)
	}
}
