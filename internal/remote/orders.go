package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopsphere/storefront/pkg/enums"
)

// OrderItemPayload is one line of an order request.
type OrderItemPayload struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// OrderPayload is the request body for order creation.
type OrderPayload struct {
	UserID          string             `json:"userId"`
	Items           []OrderItemPayload `json:"items"`
	ShippingAddress map[string]any     `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	TotalAmount     decimal.Decimal    `json:"totalAmount"`
}

// OrderRecord is an order as the order service reports it.
type OrderRecord struct {
	OrderID     json.Number      `json:"orderId"`
	UserID      json.Number      `json:"userId"`
	Status      string           `json:"status"`
	TotalAmount decimal.Decimal  `json:"totalAmount"`
	OrderDate   string           `json:"orderDate"`
	Items       []map[string]any `json:"items"`
}

// OrderClient talks to the order service.
type OrderClient struct {
	caller
}

func NewOrderClient(baseURL string, timeout time.Duration, token TokenFunc) *OrderClient {
	return &OrderClient{caller: newCaller(baseURL, timeout, token)}
}

// Create submits the order and returns the raw response body. The order
// service's response shape has drifted across versions, so the caller is
// responsible for digging the order id out of it.
func (c *OrderClient) Create(ctx context.Context, payload OrderPayload) (json.RawMessage, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/orders", payload)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func (c *OrderClient) Get(ctx context.Context, orderID string) (*OrderRecord, error) {
	var rec OrderRecord
	if err := c.doJSON(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(orderID), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *OrderClient) ListByUser(ctx context.Context, userID string) ([]OrderRecord, error) {
	var recs []OrderRecord
	if err := c.doJSON(ctx, http.MethodGet, "/api/orders/user/"+url.PathEscape(userID), nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *OrderClient) ListAll(ctx context.Context) ([]OrderRecord, error) {
	var recs []OrderRecord
	if err := c.doJSON(ctx, http.MethodGet, "/api/orders", nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// UpdateStatus asks the order service to move the order to status and
// returns the order as the service now reports it. Callers must compare
// the reported status against the requested one before trusting the
// change.
func (c *OrderClient) UpdateStatus(ctx context.Context, orderID string, status enums.OrderStatus) (*OrderRecord, error) {
	body := map[string]any{"status": status.String()}
	var rec OrderRecord
	if err := c.doJSON(ctx, http.MethodPut, "/api/orders/"+url.PathEscape(orderID)+"/status", body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
