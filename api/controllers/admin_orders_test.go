package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	internalorders "github.com/shopsphere/storefront/internal/orders"
	"github.com/shopsphere/storefront/pkg/enums"
	pkgerrors "github.com/shopsphere/storefront/pkg/errors"
)

type stubDirectory struct {
	orders map[string]internalorders.Order
	listed []internalorders.Order
}

func (s *stubDirectory) List() []internalorders.Order {
	return s.listed
}

func (s *stubDirectory) Get(orderID string) (internalorders.Order, bool) {
	order, ok := s.orders[orderID]
	return order, ok
}

type stubTransitioner struct {
	fn    func(ctx context.Context, orderID string, current, next enums.OrderStatus) error
	calls int
}

func (s *stubTransitioner) RequestTransition(ctx context.Context, orderID string, current, next enums.OrderStatus) error {
	s.calls++
	if s.fn != nil {
		return s.fn(ctx, orderID, current, next)
	}
	return nil
}

type stubRefresher struct {
	err   error
	calls int
}

func (s *stubRefresher) Refresh(ctx context.Context) error {
	s.calls++
	return s.err
}

func withOrderID(r *http.Request, orderID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", orderID)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestAdminOrdersList(t *testing.T) {
	dir := &stubDirectory{listed: []internalorders.Order{
		{OrderID: "2", Status: enums.OrderStatusPending, TotalAmount: decimal.NewFromInt(500)},
		{OrderID: "10", Status: enums.OrderStatusShipped, TotalAmount: decimal.NewFromInt(120)},
	}}

	resp := httptest.NewRecorder()
	AdminOrdersList(dir).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data []internalorders.Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 || envelope.Data[0].OrderID != "2" {
		t.Fatalf("unexpected payload %v", envelope.Data)
	}
}

func TestAdminOrdersRefresh(t *testing.T) {
	poller := &stubRefresher{}
	dir := &stubDirectory{listed: []internalorders.Order{{OrderID: "7"}}}

	resp := httptest.NewRecorder()
	AdminOrdersRefresh(poller, dir, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if poller.calls != 1 {
		t.Fatalf("expected one refresh call, got %d", poller.calls)
	}
}

func TestAdminOrdersRefresh_RemoteDown(t *testing.T) {
	poller := &stubRefresher{err: pkgerrors.New(pkgerrors.CodeTransport, "order service unreachable")}

	resp := httptest.NewRecorder()
	AdminOrdersRefresh(poller, &stubDirectory{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestAdminOrderStatusUpdate(t *testing.T) {
	dir := &stubDirectory{orders: map[string]internalorders.Order{
		"42": {OrderID: "42", Status: enums.OrderStatusPending},
	}}
	lifecycle := &stubTransitioner{
		fn: func(ctx context.Context, orderID string, current, next enums.OrderStatus) error {
			if orderID != "42" || current != enums.OrderStatusPending || next != enums.OrderStatusProcessing {
				t.Fatalf("unexpected transition %s: %s -> %s", orderID, current, next)
			}
			dir.orders["42"] = internalorders.Order{OrderID: "42", Status: next}
			return nil
		},
	}

	req := withOrderID(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"PROCESSING"}`)), "42")
	resp := httptest.NewRecorder()
	AdminOrderStatusUpdate(dir, lifecycle, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if lifecycle.calls != 1 {
		t.Fatalf("expected one transition call, got %d", lifecycle.calls)
	}
	var envelope struct {
		Data internalorders.Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != enums.OrderStatusProcessing {
		t.Fatalf("expected updated status in response, got %s", envelope.Data.Status)
	}
}

func TestAdminOrderStatusUpdate_UnknownStatus(t *testing.T) {
	dir := &stubDirectory{orders: map[string]internalorders.Order{"42": {OrderID: "42"}}}
	lifecycle := &stubTransitioner{}

	req := withOrderID(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"TELEPORTED"}`)), "42")
	resp := httptest.NewRecorder()
	AdminOrderStatusUpdate(dir, lifecycle, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if lifecycle.calls != 0 {
		t.Fatalf("lifecycle should not be called for unknown status")
	}
}

func TestAdminOrderStatusUpdate_UnknownOrder(t *testing.T) {
	dir := &stubDirectory{orders: map[string]internalorders.Order{}}

	req := withOrderID(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"PROCESSING"}`)), "999")
	resp := httptest.NewRecorder()
	AdminOrderStatusUpdate(dir, &stubTransitioner{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdminOrderStatusUpdate_IllegalTransition(t *testing.T) {
	dir := &stubDirectory{orders: map[string]internalorders.Order{
		"42": {OrderID: "42", Status: enums.OrderStatusShipped},
	}}
	lifecycle := &stubTransitioner{
		fn: func(ctx context.Context, orderID string, current, next enums.OrderStatus) error {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order status cannot move from SHIPPED to CANCELLED")
		},
	}

	req := withOrderID(httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"status":"CANCELLED"}`)), "42")
	resp := httptest.NewRecorder()
	AdminOrderStatusUpdate(dir, lifecycle, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.Contains(envelope.Error.Message, "SHIPPED") {
		t.Fatalf("expected transition detail in message, got %q", envelope.Error.Message)
	}
}
