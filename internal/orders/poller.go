package orders

import (
	"context"
	"time"

	"github.com/shopsphere/storefront/internal/remote"
	"github.com/shopsphere/storefront/pkg/logger"
	"github.com/shopsphere/storefront/pkg/metrics"
)

type orderLister interface {
	ListAll(ctx context.Context) ([]remote.OrderRecord, error)
}

// Poller refreshes the admin order directory on a fixed interval,
// independent of user action. Results are merged by order id so a poll
// that started before an admin edit cannot roll the edit back.
type Poller struct {
	remote   orderLister
	dir      *Directory
	interval time.Duration
	log      *logger.Logger
	metrics  *metrics.CommerceMetrics
	now      func() time.Time
}

func NewPoller(remote orderLister, dir *Directory, interval time.Duration, log *logger.Logger, m *metrics.CommerceMetrics) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Poller{
		remote:   remote,
		dir:      dir,
		interval: interval,
		log:      log,
		metrics:  m,
		now:      time.Now,
	}
}

// Run polls until ctx is cancelled. An initial refresh happens
// immediately so the admin view is not empty for a full interval.
func (p *Poller) Run(ctx context.Context) {
	if err := p.Refresh(ctx); err != nil {
		p.log.Error(ctx, "initial order poll failed", err)
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil {
				p.log.Error(ctx, "order poll failed", err)
			}
		}
	}
}

// Refresh performs one poll cycle.
func (p *Poller) Refresh(ctx context.Context) error {
	start := p.now()
	recs, err := p.remote.ListAll(ctx)
	if err != nil {
		return err
	}
	p.dir.Merge(recs, start)
	p.metrics.IncPollerMerge()
	return nil
}
