package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shopsphere/storefront/api/responses"
	"github.com/shopsphere/storefront/api/validators"
	"github.com/shopsphere/storefront/internal/identity"
	"github.com/shopsphere/storefront/internal/remote"
	"github.com/shopsphere/storefront/internal/session"
	pkgauth "github.com/shopsphere/storefront/pkg/auth"
	"github.com/shopsphere/storefront/pkg/config"
	pkgerrors "github.com/shopsphere/storefront/pkg/errors"
	"github.com/shopsphere/storefront/pkg/logger"
)

type authService interface {
	Login(ctx context.Context, creds remote.Credentials) (remote.LoginResult, error)
	Register(ctx context.Context, profile remote.RegisterProfile) error
}

type sessionStore interface {
	SaveSession(ctx context.Context, ident identity.Identity, token string) error
	LoadSession(ctx context.Context) (identity.Identity, string, error)
	Clear(ctx context.Context) error
}

type loginPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type registerPayload struct {
	Username string `json:"username" validate:"required,min=2,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginResponse struct {
	User  identity.Identity `json:"user"`
	Token string            `json:"token"`
}

// Login authenticates against the auth service, normalizes whichever user
// payload shape came back, persists the session, and issues a local access
// token.
func Login(auth authService, sessions sessionStore, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload loginPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := auth.Login(ctx, remote.Credentials{Email: payload.Email, Password: payload.Password})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ident, err := identity.NormalizeUser(result.User)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if result.Token == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRemoteRejection, "auth service returned no token"))
			return
		}

		if err := sessions.SaveSession(ctx, ident, result.Token); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist session"))
			return
		}

		accessToken, err := pkgauth.MintAccessToken(jwtCfg, time.Now(), ident.ID, ident.Role)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token"))
			return
		}

		logg.Info(logg.WithUserID(ctx, ident.ID), "login succeeded")
		responses.WriteSuccess(w, loginResponse{User: ident, Token: accessToken})
	}
}

func Register(auth authService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload registerPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		err := auth.Register(ctx, remote.RegisterProfile{
			Username: payload.Username,
			Email:    payload.Email,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "registered"})
	}
}

// Logout drops the persisted session. The cart is locally-owned state and
// dies with the session reset.
func Logout(sessions sessionStore, carts cartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := sessions.Clear(ctx); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear session"))
			return
		}
		carts.Clear()
		responses.WriteSuccess(w, map[string]string{"status": "logged out"})
	}
}

// SessionShow returns the persisted identity, if any.
func SessionShow(sessions sessionStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ident, _, err := sessions.LoadSession(ctx)
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "no active session"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session"))
			return
		}
		responses.WriteSuccess(w, ident)
	}
}
