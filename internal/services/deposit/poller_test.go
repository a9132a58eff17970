package deposit

import (
	"context"
	"errors"
	"testing"
	"time"

	"custora/internal/providers/exchange"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerConfirmsSettledEvents(t *testing.T) {
	ev := settledEvent("tx-1", 100)
	ev.InsertTime = time.Now().UnixMilli()
	provider := &fakeProvider{events: map[string]exchange.DepositEvent{"tx-1": ev}}
	svc, walletSvc, _ := newTestService(t, provider)
	ctx := context.Background()

	_, err := svc.SubmitClaim(ctx, 1, "tx-1", 100, "USDT", "TRC20")
	require.NoError(t, err)

	p := NewPoller(svc, provider, PollerConfig{Interval: time.Minute, Lookback: time.Hour}, nil)
	p.tick(ctx)

	balances, err := walletSvc.GetBalances(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, balances.Account)
}

func TestPollerCursorAdvances(t *testing.T) {
	ev := settledEvent("tx-1", 50)
	ev.InsertTime = time.Now().Add(time.Hour).UnixMilli()
	provider := &fakeProvider{events: map[string]exchange.DepositEvent{"tx-1": ev}}
	svc, _, _ := newTestService(t, provider)

	p := NewPoller(svc, provider, PollerConfig{Lookback: time.Hour}, nil)
	before := p.Cursor()

	p.tick(context.Background())

	// The cursor lands on the newest event time, ahead of the tick start.
	assert.Equal(t, ev.InsertTime, p.Cursor())
	assert.Greater(t, p.Cursor(), before)
}

func TestPollerCursorHoldsOnProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("timeout")}
	svc, _, _ := newTestService(t, provider)

	p := NewPoller(svc, provider, PollerConfig{Lookback: time.Hour}, nil)
	before := p.Cursor()

	p.tick(context.Background())

	// Failed fetch leaves the window to be retried in full.
	assert.Equal(t, before, p.Cursor())
}

func TestPollerCursorNeverRewinds(t *testing.T) {
	ev := settledEvent("tx-old", 10)
	ev.InsertTime = time.Now().Add(-2 * time.Hour).UnixMilli()
	provider := &fakeProvider{events: map[string]exchange.DepositEvent{"tx-old": ev}}
	svc, _, _ := newTestService(t, provider)

	p := NewPoller(svc, provider, PollerConfig{Lookback: 3 * time.Hour}, nil)
	tickStart := time.Now().UnixMilli()

	p.tick(context.Background())

	// An old event does not drag the cursor backwards past the tick start.
	assert.GreaterOrEqual(t, p.Cursor(), tickStart)
}

func TestPollerIsolatesBadEvents(t *testing.T) {
	good := settledEvent("tx-good", 40)
	good.InsertTime = time.Now().UnixMilli()
	bad := settledEvent("tx-bad", 0.001) // fails amount validation on credit
	bad.InsertTime = time.Now().UnixMilli()
	provider := &fakeProvider{events: map[string]exchange.DepositEvent{
		"tx-good": good,
		"tx-bad":  bad,
	}}
	svc, walletSvc, _ := newTestService(t, provider)
	ctx := context.Background()

	_, err := svc.SubmitClaim(ctx, 1, "tx-good", 40, "USDT", "TRC20")
	require.NoError(t, err)
	_, err = svc.SubmitClaim(ctx, 2, "tx-bad", 10, "USDT", "TRC20")
	require.NoError(t, err)

	p := NewPoller(svc, provider, PollerConfig{Lookback: time.Hour}, nil)
	p.tick(ctx)

	// The bad event did not stall the good one.
	balances, err := walletSvc.GetBalances(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 40.0, balances.Account)
}
