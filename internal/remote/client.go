package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/shopsphere/storefront/pkg/errors"
)

// TokenFunc supplies the bearer token attached to outgoing requests.
// Returning "" leaves the request unauthenticated.
type TokenFunc func(ctx context.Context) string

// caller is the shared HTTP/JSON plumbing behind every collaborator client.
type caller struct {
	httpClient *http.Client
	baseURL    string
	token      TokenFunc
}

func newCaller(baseURL string, timeout time.Duration, token TokenFunc) caller {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return caller{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}

// do executes one round-trip and returns the raw response body. Failures
// are discriminated: no response at all is a transport error, a non-2xx
// response is a remote rejection carrying the server message when one is
// present.
func (c caller) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if token := c.token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, fmt.Sprintf("%s %s", method, path))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serverMessage(raw)
		if msg == "" {
			msg = fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode)
		}
		return nil, pkgerrors.New(pkgerrors.CodeRemoteRejection, msg).
			WithDetails(map[string]any{"status": resp.StatusCode})
	}

	return raw, nil
}

func (c caller) doJSON(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemoteRejection, err, "decode response body")
	}
	return nil
}

// serverMessage digs the human-readable message out of an error body.
func serverMessage(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	switch v := payload.Error.(type) {
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
	}
	return ""
}
