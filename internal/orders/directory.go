package orders

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopsphere/storefront/internal/remote"
	"github.com/shopsphere/storefront/pkg/enums"
)

// Order is the locally-held view of a remote order.
type Order struct {
	OrderID     string            `json:"orderId"`
	UserID      string            `json:"userId"`
	Status      enums.OrderStatus `json:"status"`
	RawStatus   string            `json:"-"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	OrderDate   string            `json:"orderDate"`
	Items       []map[string]any  `json:"items,omitempty"`
}

// Directory holds the admin view of all orders, keyed by order id. Poll
// results are merged in by identifier; a poll never replaces the whole
// collection, so a status edit confirmed after the poll started is not
// clobbered by the poll's stale snapshot.
type Directory struct {
	mu       sync.Mutex
	orders   map[string]Order
	modified map[string]time.Time
	now      func() time.Time
}

func NewDirectory() *Directory {
	return &Directory{
		orders:   map[string]Order{},
		modified: map[string]time.Time{},
		now:      time.Now,
	}
}

func fromRecord(rec remote.OrderRecord) Order {
	status := enums.OrderStatusPending
	if parsed, err := enums.ParseOrderStatus(rec.Status); err == nil {
		status = parsed
	}
	return Order{
		OrderID:     rec.OrderID.String(),
		UserID:      rec.UserID.String(),
		Status:      status,
		RawStatus:   rec.Status,
		TotalAmount: rec.TotalAmount,
		OrderDate:   rec.OrderDate,
		Items:       rec.Items,
	}
}

// Merge folds a poll result into the directory. pollStart is when the
// poll's request was issued; orders edited locally after that instant
// keep their local status because the poll's snapshot predates the edit.
func (d *Directory) Merge(recs []remote.OrderRecord, pollStart time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, rec := range recs {
		incoming := fromRecord(rec)
		if incoming.OrderID == "" {
			continue
		}
		if editedAt, ok := d.modified[incoming.OrderID]; ok && editedAt.After(pollStart) {
			existing := d.orders[incoming.OrderID]
			incoming.Status = existing.Status
			incoming.RawStatus = existing.RawStatus
		}
		d.orders[incoming.OrderID] = incoming
	}
}

// SetStatus records a locally-confirmed status change.
func (d *Directory) SetStatus(orderID string, status enums.OrderStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	order, ok := d.orders[orderID]
	if !ok {
		order = Order{OrderID: orderID}
	}
	order.Status = status
	order.RawStatus = status.String()
	d.orders[orderID] = order
	d.modified[orderID] = d.now()
}

func (d *Directory) Get(orderID string) (Order, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	order, ok := d.orders[orderID]
	return order, ok
}

// List returns every known order, newest order id first.
func (d *Directory) List() []Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Order, 0, len(d.orders))
	for _, order := range d.orders {
		out = append(out, order)
	}
	sort.Slice(out, func(i, j int) bool { return orderIDLess(out[j].OrderID, out[i].OrderID) })
	return out
}

// orderIDLess compares numeric-string order ids without parsing: a
// shorter digit string is always the smaller number.
func orderIDLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.orders)
}
