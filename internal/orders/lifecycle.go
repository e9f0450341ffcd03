package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/shopsphere/storefront/internal/remote"
	"github.com/shopsphere/storefront/pkg/enums"
	pkgerrors "github.com/shopsphere/storefront/pkg/errors"
	"github.com/shopsphere/storefront/pkg/logger"
	"github.com/shopsphere/storefront/pkg/metrics"
)

// forward is the linear fulfilment chain. CANCELLED is handled separately
// because it is reachable from more than one state.
var forward = map[enums.OrderStatus]enums.OrderStatus{
	enums.OrderStatusPending:    enums.OrderStatusProcessing,
	enums.OrderStatusProcessing: enums.OrderStatusShipped,
	enums.OrderStatusShipped:    enums.OrderStatusDelivered,
}

// CanTransition reports whether an order may move from current to next.
// A same-state transition is legal (callers short-circuit it without a
// remote call); otherwise next must be exactly one forward step, or
// CANCELLED while the order has not yet shipped.
func CanTransition(current, next enums.OrderStatus) bool {
	if !current.IsValid() || !next.IsValid() {
		return false
	}
	if current == next {
		return true
	}
	if next == enums.OrderStatusCancelled {
		return current == enums.OrderStatusPending || current == enums.OrderStatusProcessing
	}
	return forward[current] == next
}

type statusUpdater interface {
	UpdateStatus(ctx context.Context, orderID string, status enums.OrderStatus) (*remote.OrderRecord, error)
}

// Lifecycle validates and applies order status changes. It never mutates
// the directory optimistically: the remote service must report the
// requested status back before the local view changes.
type Lifecycle struct {
	remote  statusUpdater
	dir     *Directory
	log     *logger.Logger
	metrics *metrics.CommerceMetrics

	correctionBackoff time.Duration
	correctionRetries uint64
}

func NewLifecycle(remote statusUpdater, dir *Directory, log *logger.Logger, m *metrics.CommerceMetrics) *Lifecycle {
	return &Lifecycle{
		remote:            remote,
		dir:               dir,
		log:               log,
		metrics:           m,
		correctionBackoff: 500 * time.Millisecond,
		correctionRetries: 3,
	}
}

// RequestTransition moves the order from current to next. Same-state
// requests succeed without touching the network.
func (l *Lifecycle) RequestTransition(ctx context.Context, orderID string, current, next enums.OrderStatus) error {
	if current == next {
		return nil
	}
	if !CanTransition(current, next) {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("order status cannot move from %s to %s", current, next)).
			WithDetails(map[string]any{"orderId": orderID, "from": current.String(), "to": next.String()})
	}

	rec, err := l.remote.UpdateStatus(ctx, orderID, next)
	if err != nil {
		return err
	}
	confirmed, parseErr := enums.ParseOrderStatus(rec.Status)
	if parseErr != nil || confirmed != next {
		// remote did not land where we asked; leave local state alone
		return pkgerrors.New(pkgerrors.CodeRemoteRejection,
			fmt.Sprintf("order service reports status %q after requesting %s; re-fetch before retrying", rec.Status, next)).
			WithDetails(map[string]any{"orderId": orderID, "reported": rec.Status})
	}

	l.dir.SetStatus(orderID, next)
	return nil
}

// DisplayStatus resolves the status string reported by the remote service
// into something the views can render. Unknown or missing values display
// as PENDING and kick off a background correction of the remote record.
func (l *Lifecycle) DisplayStatus(ctx context.Context, orderID, raw string) enums.OrderStatus {
	status, err := enums.ParseOrderStatus(raw)
	if err == nil {
		return status
	}

	l.log.Warn(l.log.WithOrderID(ctx, orderID), fmt.Sprintf("unknown order status %q, displaying PENDING", raw))
	go l.correctStatus(context.WithoutCancel(ctx), orderID)
	return enums.OrderStatusPending
}

// correctStatus rewrites an unparseable remote status to PENDING, best
// effort with backoff. Failures are logged, never surfaced.
func (l *Lifecycle) correctStatus(ctx context.Context, orderID string) {
	backoff := retry.WithMaxRetries(l.correctionRetries, retry.NewExponential(l.correctionBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if _, err := l.remote.UpdateStatus(ctx, orderID, enums.OrderStatusPending); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		l.metrics.IncStatusCorrection("failure")
		l.log.Error(l.log.WithOrderID(ctx, orderID), "order status correction failed", err)
		return
	}
	l.metrics.IncStatusCorrection("success")
}
