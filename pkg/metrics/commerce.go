package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// CommerceMetrics records counters for the storefront state layer.
type CommerceMetrics struct {
	orderSubmissions *prometheus.CounterVec
	wishlistOps      *prometheus.CounterVec
	pollerMerges     prometheus.Counter
	statusCorrection *prometheus.CounterVec
}

// NewCommerceMetrics registers the storefront metrics on the provided registerer.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	orderSubmissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_submissions_total",
		Help: "Order submissions by outcome (success, partial_failure, rejected, transport_error).",
	}, []string{"outcome"})
	wishlistOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wishlist_operations_total",
		Help: "Wishlist store operations against the remote service by op and outcome.",
	}, []string{"op", "outcome"})
	pollerMerges := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "admin_order_poll_merges_total",
		Help: "Admin order list refreshes merged into local state.",
	})
	statusCorrection := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_corrections_total",
		Help: "Background corrections issued for unknown remote order statuses.",
	}, []string{"outcome"})
	reg.MustRegister(orderSubmissions, wishlistOps, pollerMerges, statusCorrection)
	return &CommerceMetrics{
		orderSubmissions: orderSubmissions,
		wishlistOps:      wishlistOps,
		pollerMerges:     pollerMerges,
		statusCorrection: statusCorrection,
	}
}

// IncOrderSubmission counts one submission with the given outcome.
func (c *CommerceMetrics) IncOrderSubmission(outcome string) {
	if c == nil || c.orderSubmissions == nil {
		return
	}
	c.orderSubmissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncWishlistOp counts one remote wishlist operation.
func (c *CommerceMetrics) IncWishlistOp(op, outcome string) {
	if c == nil || c.wishlistOps == nil {
		return
	}
	c.wishlistOps.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// IncPollerMerge counts one merged admin poll cycle.
func (c *CommerceMetrics) IncPollerMerge() {
	if c == nil || c.pollerMerges == nil {
		return
	}
	c.pollerMerges.Inc()
}

// IncStatusCorrection counts one background status correction attempt.
func (c *CommerceMetrics) IncStatusCorrection(outcome string) {
	if c == nil || c.statusCorrection == nil {
		return
	}
	c.statusCorrection.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	label := strings.TrimSpace(strings.ToLower(value))
	if label == "" {
		return "unknown"
	}
	return strings.ReplaceAll(label, " ", "_")
}
