package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Credentials carries the login form fields; the credential check itself
// belongs to the auth service.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterProfile carries the registration form fields.
type RegisterProfile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult keeps the user payload raw so the identity resolver can
// normalize whichever identifier shape the auth service returned.
type LoginResult struct {
	User  map[string]any
	Token string
}

// AuthClient talks to the auth service.
type AuthClient struct {
	caller
}

func NewAuthClient(baseURL string, timeout time.Duration) *AuthClient {
	return &AuthClient{caller: newCaller(baseURL, timeout, nil)}
}

func (c *AuthClient) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/auth/login", creds)
	if err != nil {
		return LoginResult{}, err
	}

	// The auth service has returned the user both nested and at top level
	// over time; keep the payload raw and let the resolver decide.
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return LoginResult{}, err
	}

	result := LoginResult{User: payload}
	if token, ok := payload["token"].(string); ok {
		result.Token = token
	}
	return result, nil
}

func (c *AuthClient) Register(ctx context.Context, profile RegisterProfile) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/register", profile, nil)
}
