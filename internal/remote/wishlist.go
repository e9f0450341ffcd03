package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	pkgerrors "github.com/shopsphere/storefront/pkg/errors"
)

// WishlistEntryPayload is one remote wishlist record: the server-assigned
// entry handle plus the raw product reference (which may be absent).
type WishlistEntryPayload struct {
	EntryHandle json.Number    `json:"wishlistId"`
	Product     map[string]any `json:"product"`
}

// WishlistClient talks to the wishlist service.
type WishlistClient struct {
	caller
}

func NewWishlistClient(baseURL string, timeout time.Duration, token TokenFunc) *WishlistClient {
	return &WishlistClient{caller: newCaller(baseURL, timeout, token)}
}

func (c *WishlistClient) ListByUser(ctx context.Context, userID string) ([]WishlistEntryPayload, error) {
	var payload []WishlistEntryPayload
	if err := c.doJSON(ctx, http.MethodGet, "/api/wishlist/user/"+url.PathEscape(userID), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Create registers the (user, product) pair and returns the entry handle
// the server assigned to it.
func (c *WishlistClient) Create(ctx context.Context, userID, productID string) (string, error) {
	body := map[string]any{
		"user":    map[string]any{"userId": userID},
		"product": map[string]any{"productId": productID},
	}
	var payload struct {
		EntryHandle json.Number `json:"wishlistId"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/wishlist", body, &payload); err != nil {
		return "", err
	}
	handle := payload.EntryHandle.String()
	if handle == "" {
		return "", pkgerrors.New(pkgerrors.CodeRemoteRejection, "wishlist service returned no entry handle")
	}
	return handle, nil
}

func (c *WishlistClient) DeleteByHandle(ctx context.Context, handle string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/wishlist/"+url.PathEscape(handle), nil, nil)
}
