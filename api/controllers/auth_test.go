package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/shopsphere/storefront/internal/cart"
	"github.com/shopsphere/storefront/internal/identity"
	"github.com/shopsphere/storefront/internal/remote"
	"github.com/shopsphere/storefront/internal/session"
	"github.com/shopsphere/storefront/pkg/config"
	pkgerrors "github.com/shopsphere/storefront/pkg/errors"
	"github.com/shopsphere/storefront/pkg/logger"
)

type stubAuthService struct {
	loginFn    func(ctx context.Context, creds remote.Credentials) (remote.LoginResult, error)
	registerFn func(ctx context.Context, profile remote.RegisterProfile) error
}

func (s stubAuthService) Login(ctx context.Context, creds remote.Credentials) (remote.LoginResult, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, creds)
	}
	return remote.LoginResult{}, nil
}

func (s stubAuthService) Register(ctx context.Context, profile remote.RegisterProfile) error {
	if s.registerFn != nil {
		return s.registerFn(ctx, profile)
	}
	return nil
}

type stubSessionStore struct {
	ident   identity.Identity
	token   string
	saved   int
	cleared int
	loadErr error
}

func (s *stubSessionStore) SaveSession(ctx context.Context, ident identity.Identity, token string) error {
	s.ident = ident
	s.token = token
	s.saved++
	return nil
}

func (s *stubSessionStore) LoadSession(ctx context.Context) (identity.Identity, string, error) {
	if s.loadErr != nil {
		return identity.Identity{}, "", s.loadErr
	}
	return s.ident, s.token, nil
}

func (s *stubSessionStore) Clear(ctx context.Context) error {
	s.cleared++
	return nil
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "shopsphere", ExpirationMinutes: 5}
}

func TestLogin(t *testing.T) {
	auth := stubAuthService{
		loginFn: func(ctx context.Context, creds remote.Credentials) (remote.LoginResult, error) {
			if creds.Email != "a@b.com" {
				t.Fatalf("unexpected email %q", creds.Email)
			}
			return remote.LoginResult{
				User:  map[string]any{"user": map[string]any{"userId": float64(7), "role": "customer"}},
				Token: "remote-token",
			}, nil
		},
	}
	sessions := &stubSessionStore{}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.com","password":"secret1"}`))
	resp := httptest.NewRecorder()
	Login(auth, sessions, testJWTConfig(), quietLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if sessions.saved != 1 || sessions.token != "remote-token" {
		t.Fatalf("session not persisted: %+v", sessions)
	}
	if sessions.ident.ID != "7" {
		t.Fatalf("expected normalized id 7, got %q", sessions.ident.ID)
	}

	var envelope struct {
		Data loginResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Token == "" || envelope.Data.Token == "remote-token" {
		t.Fatalf("expected locally minted token, got %q", envelope.Data.Token)
	}
	if envelope.Data.User.ID != "7" {
		t.Fatalf("unexpected user in response: %+v", envelope.Data.User)
	}
}

func TestLogin_NoIdentifierInUserPayload(t *testing.T) {
	auth := stubAuthService{
		loginFn: func(ctx context.Context, creds remote.Credentials) (remote.LoginResult, error) {
			return remote.LoginResult{User: map[string]any{"name": "ghost"}, Token: "tok"}, nil
		},
	}
	sessions := &stubSessionStore{}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.com","password":"secret1"}`))
	resp := httptest.NewRecorder()
	Login(auth, sessions, testJWTConfig(), quietLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if sessions.saved != 0 {
		t.Fatalf("session must not be persisted on resolution failure")
	}
}

func TestLogin_MissingToken(t *testing.T) {
	auth := stubAuthService{
		loginFn: func(ctx context.Context, creds remote.Credentials) (remote.LoginResult, error) {
			return remote.LoginResult{User: map[string]any{"id": "7"}}, nil
		},
	}
	sessions := &stubSessionStore{}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.com","password":"secret1"}`))
	resp := httptest.NewRecorder()
	Login(auth, sessions, testJWTConfig(), quietLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", resp.Code)
	}
	if sessions.saved != 0 {
		t.Fatalf("session must not be persisted without a remote token")
	}
}

func TestLogin_InvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"not-an-email","password":"x"}`))
	resp := httptest.NewRecorder()
	Login(stubAuthService{}, &stubSessionStore{}, testJWTConfig(), quietLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestRegister(t *testing.T) {
	var got remote.RegisterProfile
	auth := stubAuthService{
		registerFn: func(ctx context.Context, profile remote.RegisterProfile) error {
			got = profile
			return nil
		},
	}

	body := `{"username":"jane","email":"jane@shop.test","password":"secret1"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	resp := httptest.NewRecorder()
	Register(auth, quietLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if got.Username != "jane" || got.Email != "jane@shop.test" {
		t.Fatalf("unexpected profile %+v", got)
	}
}

type stubCartStore struct {
	items  []cart.LineItem
	clears int
}

func (s *stubCartStore) AddItem(product identity.ProductReference, variant cart.Variant, quantity int) {
}

func (s *stubCartStore) RemoveItem(productID string, variant *cart.Variant) {}

func (s *stubCartStore) SetQuantity(productID string, variant cart.Variant, quantity int) {}

func (s *stubCartStore) Items() []cart.LineItem { return s.items }

func (s *stubCartStore) Total() decimal.Decimal { return decimal.Zero }

func (s *stubCartStore) Clear() { s.clears++ }

func TestLogout(t *testing.T) {
	sessions := &stubSessionStore{ident: identity.Identity{ID: "7"}, token: "tok"}
	carts := &stubCartStore{}

	resp := httptest.NewRecorder()
	Logout(sessions, carts, quietLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if sessions.cleared != 1 {
		t.Fatalf("expected session clear")
	}
	if carts.clears != 1 {
		t.Fatalf("expected cart clear")
	}
}

func TestSessionShow_NoSession(t *testing.T) {
	sessions := &stubSessionStore{loadErr: session.ErrNoSession}

	resp := httptest.NewRecorder()
	SessionShow(sessions, quietLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeUnauthorized) {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
}
