package checkout

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopsphere/storefront/internal/cart"
	"github.com/shopsphere/storefront/internal/identity"
	"github.com/shopsphere/storefront/internal/remote"
	"github.com/shopsphere/storefront/internal/session"
	"github.com/shopsphere/storefront/pkg/config"
	"github.com/shopsphere/storefront/pkg/enums"
	pkgerrors "github.com/shopsphere/storefront/pkg/errors"
	"github.com/shopsphere/storefront/pkg/logger"
	"github.com/shopsphere/storefront/pkg/types"
)

type stubOrderCreator struct {
	response json.RawMessage
	err      error
	payload  remote.OrderPayload
	calls    int
}

func (s *stubOrderCreator) Create(_ context.Context, payload remote.OrderPayload) (json.RawMessage, error) {
	s.calls++
	s.payload = payload
	return s.response, s.err
}

type stubSnapshotSaver struct {
	saved []session.OrderSnapshot
	err   error
}

func (s *stubSnapshotSaver) SaveLastOrder(_ context.Context, snapshot session.OrderSnapshot) error {
	s.saved = append(s.saved, snapshot)
	return s.err
}

func defaultCheckoutConfig() config.CheckoutConfig {
	return config.CheckoutConfig{TaxRate: "0.18", FreeShippingThreshold: "500", FlatShippingFee: "50"}
}

func testAddress() types.Address {
	return types.Address{
		FullName:   "Asha Nair",
		Email:      "asha@example.com",
		Phone:      "9876543210",
		Line1:      "14 Marine Drive",
		City:       "Mumbai",
		State:      "MH",
		PostalCode: "400001",
		Country:    "IN",
	}
}

func product(id, name string, price float64) identity.ProductReference {
	return identity.ProductReference{ProductID: id, Name: name, Price: decimal.NewFromFloat(price)}
}

func newTestPipeline(t *testing.T, cartStore *cart.Store, orders *stubOrderCreator, saver *stubSnapshotSaver) *Pipeline {
	t.Helper()
	log := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	p, err := NewPipeline(defaultCheckoutConfig(), cartStore, orders, saver, log, nil)
	require.NoError(t, err)
	return p
}

func TestExtractOrderIDFallbackChain(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantID   string
		wantOK   bool
		strategy string
	}{
		{name: "direct orderId", raw: `{"orderId": 7, "status": "PENDING"}`, wantID: "7", wantOK: true, strategy: "direct orderId field"},
		{name: "direct id", raw: `{"id": 13, "total": 99}`, wantID: "13", wantOK: true, strategy: "direct id field"},
		{name: "string orderId", raw: `{"orderId": "88"}`, wantID: "88", wantOK: true, strategy: "direct orderId field"},
		{name: "nested orderId via scan", raw: `{"order": {"orderId": 42, "items": []}}`, wantID: "42", wantOK: true, strategy: "orderId body scan"},
		{name: "nested id via scan", raw: `{"data": {"id": 42}}`, wantID: "42", wantOK: true, strategy: "id body scan"},
		{name: "orderId preferred over id", raw: `{"id": 1, "orderId": 2}`, wantID: "2", wantOK: true},
		{name: "no identifier anywhere", raw: `{"status": "created"}`, wantOK: false},
		{name: "empty body", raw: ``, wantOK: false},
		{name: "non-numeric nested id ignored", raw: `{"order": {"id": "abc"}}`, wantOK: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id, strategy, ok := ExtractOrderID(json.RawMessage(tc.raw))
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantID, id)
			if tc.strategy != "" {
				assert.Equal(t, tc.strategy, strategy)
			}
		})
	}
}

func TestDisplayTotals(t *testing.T) {
	p := newTestPipeline(t, cart.NewStore(), &stubOrderCreator{}, &stubSnapshotSaver{})

	tests := []struct {
		subtotal string
		tax      string
		shipping string
		total    string
	}{
		{subtotal: "1000", tax: "180", shipping: "0", total: "1180"},
		{subtotal: "500", tax: "90", shipping: "50", total: "640"},
		{subtotal: "500.01", tax: "90.0018", shipping: "0", total: "590.0118"},
		{subtotal: "100", tax: "18", shipping: "50", total: "168"},
	}
	for _, tc := range tests {
		t.Run(tc.subtotal, func(t *testing.T) {
			totals := p.DisplayTotals(decimal.RequireFromString(tc.subtotal))
			assert.True(t, totals.Tax.Equal(decimal.RequireFromString(tc.tax)), "tax %s", totals.Tax)
			assert.True(t, totals.Shipping.Equal(decimal.RequireFromString(tc.shipping)), "shipping %s", totals.Shipping)
			assert.True(t, totals.Total.Equal(decimal.RequireFromString(tc.total)), "total %s", totals.Total)
		})
	}
}

func TestSubmitSuccessClearsCartAndSavesSnapshot(t *testing.T) {
	cartStore := cart.NewStore()
	cartStore.AddItem(product("9", "Canvas Tote", 250), cart.Variant{}, 4)

	orders := &stubOrderCreator{response: json.RawMessage(`{"orderId": 314}`)}
	saver := &stubSnapshotSaver{}
	p := newTestPipeline(t, cartStore, orders, saver)

	ident := identity.Identity{ID: "7", UserID: "7", Role: "customer"}
	orderID, totals, err := p.Submit(context.Background(), ident, testAddress(), enums.PaymentMethodCOD)
	require.NoError(t, err)

	assert.Equal(t, "314", orderID)
	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(1000)))
	assert.True(t, totals.Tax.Equal(decimal.NewFromInt(180)))
	assert.True(t, totals.Shipping.Equal(decimal.Zero))
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(1180)))

	assert.True(t, cartStore.IsEmpty())
	require.Len(t, saver.saved, 1)
	assert.Equal(t, "314", saver.saved[0].OrderID)
	assert.Equal(t, enums.OrderStatusPending, saver.saved[0].Status)
	assert.True(t, orders.payload.TotalAmount.Equal(decimal.NewFromInt(1180)))
}

func TestSubmitIDOnlyResponse(t *testing.T) {
	cartStore := cart.NewStore()
	cartStore.AddItem(product("9", "Canvas Tote", 45), cart.Variant{}, 1)
	orders := &stubOrderCreator{response: json.RawMessage(`{"id": 27}`)}
	p := newTestPipeline(t, cartStore, orders, &stubSnapshotSaver{})

	orderID, _, err := p.Submit(context.Background(), identity.Identity{ID: "7", UserID: "7"}, testAddress(), enums.PaymentMethodCOD)
	require.NoError(t, err)
	assert.Equal(t, "27", orderID)
}

// skewedCart reports a Total that no longer matches its items, as a cart
// mutated by another request between the two reads would.
type skewedCart struct {
	*cart.Store
}

func (skewedCart) Total() decimal.Decimal { return decimal.NewFromInt(999999) }

func TestSubmitTotalsFollowItemsSnapshot(t *testing.T) {
	cartStore := cart.NewStore()
	cartStore.AddItem(product("9", "Canvas Tote", 45), cart.Variant{}, 2)
	orders := &stubOrderCreator{response: json.RawMessage(`{"orderId": 314}`)}
	log := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	p, err := NewPipeline(defaultCheckoutConfig(), skewedCart{cartStore}, orders, &stubSnapshotSaver{}, log, nil)
	require.NoError(t, err)

	_, totals, err := p.Submit(context.Background(), identity.Identity{ID: "7", UserID: "7"}, testAddress(), enums.PaymentMethodCOD)
	require.NoError(t, err)

	// subtotal 90 -> tax 16.2, shipping 50
	assert.True(t, orders.payload.TotalAmount.Equal(decimal.NewFromFloat(156.2)), orders.payload.TotalAmount.String())
	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(90)))
}

func TestSubmitPartialFailureKeepsCart(t *testing.T) {
	cartStore := cart.NewStore()
	cartStore.AddItem(product("9", "Canvas Tote", 45), cart.Variant{}, 2)
	orders := &stubOrderCreator{response: json.RawMessage(`{"status": "created"}`)}
	saver := &stubSnapshotSaver{}
	p := newTestPipeline(t, cartStore, orders, saver)

	_, _, err := p.Submit(context.Background(), identity.Identity{ID: "7", UserID: "7"}, testAddress(), enums.PaymentMethodCOD)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodePartialFailure))
	assert.Contains(t, err.Error(), "order history")

	assert.Equal(t, 1, cartStore.Len())
	assert.Empty(t, saver.saved)
}

func TestSubmitRemoteFailureKeepsCart(t *testing.T) {
	cartStore := cart.NewStore()
	cartStore.AddItem(product("9", "Canvas Tote", 45), cart.Variant{}, 2)
	orders := &stubOrderCreator{err: pkgerrors.New(pkgerrors.CodeRemoteRejection, "product out of stock")}
	p := newTestPipeline(t, cartStore, orders, &stubSnapshotSaver{})

	_, _, err := p.Submit(context.Background(), identity.Identity{ID: "7", UserID: "7"}, testAddress(), enums.PaymentMethodCOD)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeRemoteRejection))
	assert.Equal(t, 1, cartStore.Len())
}

func TestSubmitValidation(t *testing.T) {
	ident := identity.Identity{ID: "7", UserID: "7"}

	t.Run("empty cart", func(t *testing.T) {
		orders := &stubOrderCreator{}
		p := newTestPipeline(t, cart.NewStore(), orders, &stubSnapshotSaver{})
		_, _, err := p.Submit(context.Background(), ident, testAddress(), enums.PaymentMethodCOD)
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
		assert.Equal(t, 0, orders.calls)
	})

	t.Run("line without unit price", func(t *testing.T) {
		cartStore := cart.NewStore()
		cartStore.AddItem(identity.ProductReference{ProductID: "9", Name: "Tote"}, cart.Variant{}, 1)
		orders := &stubOrderCreator{}
		p := newTestPipeline(t, cartStore, orders, &stubSnapshotSaver{})
		_, _, err := p.Submit(context.Background(), ident, testAddress(), enums.PaymentMethodCOD)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unitPrice")
		assert.Equal(t, 0, orders.calls)
	})

	t.Run("incomplete address", func(t *testing.T) {
		cartStore := cart.NewStore()
		cartStore.AddItem(product("9", "Tote", 45), cart.Variant{}, 1)
		addr := testAddress()
		addr.City = ""
		orders := &stubOrderCreator{}
		p := newTestPipeline(t, cartStore, orders, &stubSnapshotSaver{})
		_, _, err := p.Submit(context.Background(), ident, addr, enums.PaymentMethodCOD)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "city")
		assert.Equal(t, 0, orders.calls)
	})

	t.Run("unknown payment method", func(t *testing.T) {
		cartStore := cart.NewStore()
		cartStore.AddItem(product("9", "Tote", 45), cart.Variant{}, 1)
		orders := &stubOrderCreator{}
		p := newTestPipeline(t, cartStore, orders, &stubSnapshotSaver{})
		_, _, err := p.Submit(context.Background(), ident, testAddress(), enums.PaymentMethod("barter"))
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
		assert.Equal(t, 0, orders.calls)
	})

	t.Run("unknown identity", func(t *testing.T) {
		cartStore := cart.NewStore()
		cartStore.AddItem(product("9", "Tote", 45), cart.Variant{}, 1)
		orders := &stubOrderCreator{}
		p := newTestPipeline(t, cartStore, orders, &stubSnapshotSaver{})
		_, _, err := p.Submit(context.Background(), identity.Identity{}, testAddress(), enums.PaymentMethodCOD)
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeIdentity))
		assert.Equal(t, 0, orders.calls)
	})
}
