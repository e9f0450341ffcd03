package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/shopsphere/storefront/pkg/types"
)

// AddressRecord is a saved address as the address service reports it.
type AddressRecord struct {
	AddressID json.Number `json:"addressId"`
	types.Address
}

// AddressClient talks to the address book service.
type AddressClient struct {
	caller
}

func NewAddressClient(baseURL string, timeout time.Duration, token TokenFunc) *AddressClient {
	return &AddressClient{caller: newCaller(baseURL, timeout, token)}
}

func (c *AddressClient) ListByUser(ctx context.Context, userID string) ([]AddressRecord, error) {
	var recs []AddressRecord
	if err := c.doJSON(ctx, http.MethodGet, "/api/addresses/user/"+url.PathEscape(userID), nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *AddressClient) Create(ctx context.Context, userID string, addr types.Address) (*AddressRecord, error) {
	body := map[string]any{
		"userId":       userID,
		"fullName":     addr.FullName,
		"email":        addr.Email,
		"phone":        addr.Phone,
		"addressLine1": addr.Line1,
		"city":         addr.City,
		"state":        addr.State,
		"postalCode":   addr.PostalCode,
		"country":      addr.Country,
	}
	var rec AddressRecord
	if err := c.doJSON(ctx, http.MethodPost, "/api/addresses", body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
