package deposit

import (
	"context"
	"sync/atomic"
	"time"

	"custora/internal/providers/exchange"

	"github.com/sirupsen/logrus"
)

// Poller is the periodic reconciliation loop. It owns its cursor and never
// runs two overlapping ticks; a tick still running when the timer fires
// again is skipped, not queued.
type Poller struct {
	svc      Service
	provider exchange.Client
	interval time.Duration

	// cursorMs only moves forward, guaranteeing bounded reprocessing even
	// across partial tick failures.
	cursorMs int64
	ticking  atomic.Bool
	log      *logrus.Logger
}

// NewPoller creates the poller with its cursor initialized to now minus the
// lookback window.
func NewPoller(svc Service, provider exchange.Client, cfg PollerConfig, log *logrus.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 24 * time.Hour
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Poller{
		svc:      svc,
		provider: provider,
		interval: cfg.Interval,
		cursorMs: time.Now().Add(-cfg.Lookback).UnixMilli(),
		log:      log,
	}
}

// Run blocks, ticking until ctx is cancelled. Cancellation stops scheduling
// future ticks; an in-flight tick finishes on its own.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.log.WithField("interval", p.interval).Info("deposit poller started")
	for {
		select {
		case <-ctx.Done():
			p.log.Info("deposit poller stopped")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// Cursor returns the current cursor in epoch milliseconds.
func (p *Poller) Cursor() int64 {
	return atomic.LoadInt64(&p.cursorMs)
}

func (p *Poller) tick(ctx context.Context) {
	if !p.ticking.CompareAndSwap(false, true) {
		p.log.Warn("previous poll tick still running; skipping")
		return
	}
	defer p.ticking.Store(false)

	tickStart := time.Now().UnixMilli()
	since := atomic.LoadInt64(&p.cursorMs)

	events, err := p.provider.RecentDeposits(ctx, since)
	if err != nil {
		// Cursor stays put; the next tick retries the same window.
		p.log.WithError(err).Warn("provider unreachable; will retry next tick")
		return
	}

	next := tickStart
	for _, ev := range events {
		if ev.InsertTime > next {
			next = ev.InsertTime
		}
		result, err := p.svc.VerifyAndConfirmEvent(ctx, ev)
		if err != nil {
			// One bad record must not stall the loop; the cursor still
			// advances past it.
			p.log.WithError(err).WithField("tx_id", ev.TxID).Error("failed to reconcile deposit event")
			continue
		}
		if result.Outcome == OutcomeConfirmed {
			p.log.WithFields(logrus.Fields{
				"tx_id":  ev.TxID,
				"amount": ev.Amount,
			}).Info("deposit confirmed")
		}
	}

	// Monotonic advance only.
	if next > since {
		atomic.StoreInt64(&p.cursorMs, next)
	}
}
