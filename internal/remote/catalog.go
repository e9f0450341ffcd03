package remote

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// CatalogClient talks to the catalog service. Product payloads stay raw
// because the identifier field varies; normalization is the resolver's job.
type CatalogClient struct {
	caller
}

func NewCatalogClient(baseURL string, timeout time.Duration, token TokenFunc) *CatalogClient {
	return &CatalogClient{caller: newCaller(baseURL, timeout, token)}
}

func (c *CatalogClient) GetProduct(ctx context.Context, productID string) (map[string]any, error) {
	var payload map[string]any
	if err := c.doJSON(ctx, http.MethodGet, "/api/products/"+url.PathEscape(productID), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *CatalogClient) SearchProducts(ctx context.Context, query string) ([]map[string]any, error) {
	var payload []map[string]any
	path := "/api/products/search?q=" + url.QueryEscape(query)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
