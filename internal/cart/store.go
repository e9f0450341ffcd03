package cart

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/shopsphere/storefront/internal/identity"
)

// Variant is the size/color selection distinguishing otherwise-identical
// lines for the same product. Structural equality decides line identity.
type Variant struct {
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}

// LineItem is one cart entry keyed by (productId, variant).
type LineItem struct {
	ProductID string          `json:"productId"`
	Variant   Variant         `json:"variant"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"imageUrl,omitempty"`
}

// Subtotal is the line's unitPrice x quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Store is the process-local cart. It is never persisted; it does not
// survive a full session reset. The store is the single writer of its
// collection; subscribers are notified after every mutation.
type Store struct {
	mu    sync.Mutex
	lines []LineItem
	subs  []func()
}

// NewStore returns an empty cart.
func NewStore() *Store {
	return &Store{}
}

// Subscribe registers a callback invoked after every mutation.
func (s *Store) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// AddItem merges quantity into an existing (productId, variant) line or
// appends a new one. Shape problems never error: the cart is disposable,
// locally-owned state, and placeholders are a presentation concern.
func (s *Store) AddItem(product identity.ProductReference, variant Variant, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	merged := false
	for i := range s.lines {
		if s.lines[i].ProductID == product.ProductID && s.lines[i].Variant == variant {
			s.lines[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		s.lines = append(s.lines, LineItem{
			ProductID: product.ProductID,
			Variant:   variant,
			Quantity:  quantity,
			UnitPrice: product.Price,
			Name:      product.Name,
			ImageURL:  product.ImageURL,
		})
	}
	s.mu.Unlock()
	s.notify()
}

// RemoveItem drops the matching line; a nil variant drops every line for
// the product. Removing a non-existent line is a no-op.
func (s *Store) RemoveItem(productID string, variant *Variant) {
	s.mu.Lock()
	kept := s.lines[:0]
	for _, line := range s.lines {
		if line.ProductID == productID && (variant == nil || line.Variant == *variant) {
			continue
		}
		kept = append(kept, line)
	}
	s.lines = kept
	s.mu.Unlock()
	s.notify()
}

// SetQuantity replaces the line's quantity; zero or less removes the line.
func (s *Store) SetQuantity(productID string, variant Variant, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(productID, &variant)
		return
	}

	s.mu.Lock()
	for i := range s.lines {
		if s.lines[i].ProductID == productID && s.lines[i].Variant == variant {
			s.lines[i].Quantity = quantity
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// Total recomputes the cart subtotal on every read so it always reflects
// the latest synchronous mutation.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, line := range s.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Items returns a snapshot copy of the current lines.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]LineItem, len(s.lines))
	copy(snapshot, s.lines)
	return snapshot
}

// Len returns the number of distinct lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// IsEmpty reports whether the cart holds no lines.
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// Clear drains all lines; called only after a confirmed order submission.
func (s *Store) Clear() {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()
	s.notify()
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// DisplayName falls back to a placeholder for partially-populated lines.
func (l LineItem) DisplayName() string {
	if strings.TrimSpace(l.Name) == "" {
		return "Unknown product"
	}
	return l.Name
}
