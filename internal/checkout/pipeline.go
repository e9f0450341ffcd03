package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopsphere/storefront/internal/cart"
	"github.com/shopsphere/storefront/internal/identity"
	"github.com/shopsphere/storefront/internal/remote"
	"github.com/shopsphere/storefront/internal/session"
	"github.com/shopsphere/storefront/pkg/config"
	"github.com/shopsphere/storefront/pkg/enums"
	pkgerrors "github.com/shopsphere/storefront/pkg/errors"
	"github.com/shopsphere/storefront/pkg/logger"
	"github.com/shopsphere/storefront/pkg/metrics"
	"github.com/shopsphere/storefront/pkg/types"
)

// Totals are the client-side display figures. The authoritative total is
// whatever the order service records; these exist so the review screen can
// show a breakdown before submission.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

type cartSource interface {
	Items() []cart.LineItem
	Clear()
}

type orderCreator interface {
	Create(ctx context.Context, payload remote.OrderPayload) (json.RawMessage, error)
}

type snapshotSaver interface {
	SaveLastOrder(ctx context.Context, snapshot session.OrderSnapshot) error
}

// Pipeline assembles an order from the cart, submits it, and resolves the
// created identifier from the order service's loosely-shaped response.
type Pipeline struct {
	cart    cartSource
	orders  orderCreator
	session snapshotSaver
	log     *logger.Logger
	metrics *metrics.CommerceMetrics

	taxRate           decimal.Decimal
	freeShippingAbove decimal.Decimal
	flatShippingFee   decimal.Decimal
}

func NewPipeline(cfg config.CheckoutConfig, cartStore cartSource, orders orderCreator, sessions snapshotSaver, log *logger.Logger, m *metrics.CommerceMetrics) (*Pipeline, error) {
	taxRate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return nil, fmt.Errorf("parse tax rate %q: %w", cfg.TaxRate, err)
	}
	threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold)
	if err != nil {
		return nil, fmt.Errorf("parse free shipping threshold %q: %w", cfg.FreeShippingThreshold, err)
	}
	fee, err := decimal.NewFromString(cfg.FlatShippingFee)
	if err != nil {
		return nil, fmt.Errorf("parse flat shipping fee %q: %w", cfg.FlatShippingFee, err)
	}
	return &Pipeline{
		cart:              cartStore,
		orders:            orders,
		session:           sessions,
		log:               log,
		metrics:           m,
		taxRate:           taxRate,
		freeShippingAbove: threshold,
		flatShippingFee:   fee,
	}, nil
}

// DisplayTotals computes the breakdown shown on the review screen for the
// given subtotal.
func (p *Pipeline) DisplayTotals(subtotal decimal.Decimal) Totals {
	tax := subtotal.Mul(p.taxRate)
	shipping := p.flatShippingFee
	if subtotal.GreaterThan(p.freeShippingAbove) {
		shipping = decimal.Zero
	}
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

// Submit validates the order, sends it, and returns the created order id.
// The cart is cleared only after the identifier is confirmed; on a partial
// failure (order possibly created, identifier unknown) the cart is kept so
// the user can consult their order history before deciding to retry.
func (p *Pipeline) Submit(ctx context.Context, ident identity.Identity, addr types.Address, payment enums.PaymentMethod) (string, Totals, error) {
	if !ident.Known() {
		return "", Totals{}, pkgerrors.New(pkgerrors.CodeIdentity, "cannot place an order without a resolved identity")
	}

	items := p.cart.Items()
	if len(items) == 0 {
		return "", Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for i, line := range items {
		if err := validateLine(i, line); err != nil {
			return "", Totals{}, err
		}
	}
	if field := addr.MissingField(); field != "" {
		return "", Totals{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("shipping address is missing %s", field)).
			WithDetails(map[string]any{"field": field})
	}
	if !payment.IsValid() {
		return "", Totals{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", payment))
	}

	// totals derive from the same snapshot the payload is built from, so a
	// concurrent cart mutation cannot desync totalAmount from the items
	subtotal := decimal.Zero
	for _, line := range items {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	totals := p.DisplayTotals(subtotal)
	payload := remote.OrderPayload{
		UserID:        ident.ID,
		Items:         orderItems(items),
		PaymentMethod: payment.String(),
		TotalAmount:   totals.Total,
		ShippingAddress: map[string]any{
			"fullName":     addr.FullName,
			"email":        addr.Email,
			"phone":        addr.Phone,
			"addressLine1": addr.Line1,
			"city":         addr.City,
			"state":        addr.State,
			"postalCode":   addr.PostalCode,
			"country":      addr.Country,
		},
	}

	raw, err := p.orders.Create(ctx, payload)
	if err != nil {
		p.metrics.IncOrderSubmission("failure")
		return "", totals, err
	}

	orderID, strategy, ok := ExtractOrderID(raw)
	if !ok {
		p.metrics.IncOrderSubmission("partial")
		p.log.Warn(ctx, "order created but identifier extraction failed")
		return "", totals, pkgerrors.New(pkgerrors.CodePartialFailure, "your order may have been placed, check your order history before retrying")
	}

	p.cart.Clear()
	snapshot := session.OrderSnapshot{
		OrderID:     orderID,
		TotalAmount: totals.Total,
		Status:      enums.OrderStatusPending,
		OrderDate:   time.Now().UTC(),
	}
	if err := p.session.SaveLastOrder(ctx, snapshot); err != nil {
		// recovery fallback only; the order itself is already placed
		p.log.Error(ctx, "persist last-order snapshot failed", err)
	}

	p.metrics.IncOrderSubmission("success")
	p.log.Info(p.log.WithFields(ctx, map[string]any{
		"order_id":            orderID,
		"extraction_strategy": strategy,
	}), "order placed")
	return orderID, totals, nil
}

func validateLine(index int, line cart.LineItem) error {
	fail := func(field string) error {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("cart line %d has invalid %s", index, field)).
			WithDetails(map[string]any{"line": index, "field": field})
	}
	if line.ProductID == "" {
		return fail("productId")
	}
	if line.Name == "" {
		return fail("name")
	}
	if !line.UnitPrice.IsPositive() {
		return fail("unitPrice")
	}
	if line.Quantity <= 0 {
		return fail("quantity")
	}
	return nil
}

func orderItems(items []cart.LineItem) []remote.OrderItemPayload {
	out := make([]remote.OrderItemPayload, 0, len(items))
	for _, line := range items {
		out = append(out, remote.OrderItemPayload{
			ProductID: line.ProductID,
			Name:      line.Name,
			Size:      line.Variant.Size,
			Color:     line.Variant.Color,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return out
}
