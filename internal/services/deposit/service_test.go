package deposit

import (
	"context"
	"errors"
	"testing"

	custerrors "custora/internal/errors"
	"custora/internal/models"
	"custora/internal/providers/exchange"
	"custora/internal/repositories"
	"custora/internal/repositories/memory"
	"custora/internal/services/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider serves canned events keyed by transaction id.
type fakeProvider struct {
	events map[string]exchange.DepositEvent
	err    error
}

func (f *fakeProvider) FindDeposit(ctx context.Context, txID string) (*exchange.DepositEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	if ev, ok := f.events[txID]; ok {
		return &ev, nil
	}
	return nil, nil
}

func (f *fakeProvider) RecentDeposits(ctx context.Context, sinceMs int64) ([]exchange.DepositEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []exchange.DepositEvent
	for _, ev := range f.events {
		if ev.InsertTime > sinceMs {
			out = append(out, ev)
		}
	}
	return out, nil
}

func newTestService(t *testing.T, provider *fakeProvider) (Service, wallet.Service, repositories.Store) {
	t.Helper()
	store := memory.NewStore()
	walletSvc := wallet.NewService(store, wallet.NoopCache{}, nil, nil)
	svc := NewService(store, walletSvc, provider, Config{MinConfirmations: 1}, nil)
	return svc, walletSvc, store
}

func settledEvent(txID string, amount float64) exchange.DepositEvent {
	return exchange.DepositEvent{
		TxID:          txID,
		Amount:        amount,
		Asset:         "USDT",
		Network:       "TRC20",
		Status:        exchange.StatusSuccess,
		Confirmations: 3,
		InsertTime:    1000,
	}
}

func TestSubmitClaim(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeProvider{})
	ctx := context.Background()

	claim, err := svc.SubmitClaim(ctx, 1, "tx-1", 100, "USDT", "TRC20")
	require.NoError(t, err)
	assert.Equal(t, models.DepositStatusPending, claim.Status)
	assert.Equal(t, models.DepositSourceManual, claim.Source)

	// Resubmitting your own claim is a no-op.
	again, err := svc.SubmitClaim(ctx, 1, "tx-1", 100, "USDT", "TRC20")
	require.NoError(t, err)
	assert.Equal(t, claim.ID, again.ID)

	// A different user cannot claim the same transaction.
	_, err = svc.SubmitClaim(ctx, 2, "tx-1", 100, "USDT", "TRC20")
	assert.ErrorIs(t, err, custerrors.ErrDepositClaimed)
}

func TestVerifyAndConfirm(t *testing.T) {
	provider := &fakeProvider{events: map[string]exchange.DepositEvent{
		"tx-1": settledEvent("tx-1", 100),
	}}
	svc, walletSvc, _ := newTestService(t, provider)
	ctx := context.Background()

	_, err := svc.SubmitClaim(ctx, 1, "tx-1", 100, "USDT", "TRC20")
	require.NoError(t, err)

	result, err := svc.VerifyAndConfirm(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, result.Outcome)
	assert.Equal(t, models.DepositStatusConfirmed, result.Deposit.Status)
	assert.NotNil(t, result.Deposit.CreditedAt)

	balances, err := walletSvc.GetBalances(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, balances.Account)
}

func TestVerifyAndConfirmIsExactlyOnce(t *testing.T) {
	provider := &fakeProvider{events: map[string]exchange.DepositEvent{
		"tx-1": settledEvent("tx-1", 100),
	}}
	svc, walletSvc, _ := newTestService(t, provider)
	ctx := context.Background()

	_, err := svc.SubmitClaim(ctx, 1, "tx-1", 100, "USDT", "TRC20")
	require.NoError(t, err)

	// Webhook and poller can both observe the same event.
	first, err := svc.VerifyAndConfirm(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, first.Outcome)

	second, err := svc.VerifyAndConfirm(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyConfirmed, second.Outcome)

	third, err := svc.VerifyAndConfirmEvent(ctx, settledEvent("tx-1", 100))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyConfirmed, third.Outcome)

	balances, err := walletSvc.GetBalances(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, balances.Account)
}

func TestVerifyNoClaim(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeProvider{})
	ctx := context.Background()

	result, err := svc.VerifyAndConfirm(ctx, "unknown")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoClaim, result.Outcome)
}

func TestVerifyNotSettled(t *testing.T) {
	pending := settledEvent("tx-1", 100)
	pending.Status = exchange.StatusPending
	provider := &fakeProvider{events: map[string]exchange.DepositEvent{"tx-1": pending}}
	svc, walletSvc, _ := newTestService(t, provider)
	ctx := context.Background()

	_, err := svc.SubmitClaim(ctx, 1, "tx-1", 100, "USDT", "TRC20")
	require.NoError(t, err)

	result, err := svc.VerifyAndConfirm(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotSettled, result.Outcome)
	assert.Equal(t, models.DepositStatusProcessing, result.Deposit.Status)

	balances, err := walletSvc.GetBalances(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, balances.Account)
}

func TestVerifyFailedEvent(t *testing.T) {
	failed := settledEvent("tx-1", 100)
	failed.Status = exchange.StatusFailed
	provider := &fakeProvider{events: map[string]exchange.DepositEvent{"tx-1": failed}}
	svc, walletSvc, _ := newTestService(t, provider)
	ctx := context.Background()

	_, err := svc.SubmitClaim(ctx, 1, "tx-1", 100, "USDT", "TRC20")
	require.NoError(t, err)

	result, err := svc.VerifyAndConfirm(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Equal(t, models.DepositStatusFailed, result.Deposit.Status)

	// No funds move for a rejected transaction.
	balances, err := walletSvc.GetBalances(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, balances.Account)

	// Observing the same failure again is a no-op.
	again, err := svc.VerifyAndConfirmEvent(ctx, failed)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, again.Outcome)

	// A later success observation still confirms the claim.
	provider.events["tx-1"] = settledEvent("tx-1", 100)
	confirmed, err := svc.VerifyAndConfirm(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, confirmed.Outcome)

	balances, err = walletSvc.GetBalances(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, balances.Account)
}

func TestVerifyProviderUnreachable(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	svc, _, _ := newTestService(t, provider)
	ctx := context.Background()

	_, err := svc.SubmitClaim(ctx, 1, "tx-1", 100, "USDT", "TRC20")
	require.NoError(t, err)

	_, err = svc.VerifyAndConfirm(ctx, "tx-1")
	assert.Error(t, err)

	claim, err := svc.GetClaim(ctx, 1, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, models.DepositStatusPending, claim.Status)
}

func TestConfirmCreditsObservedAmount(t *testing.T) {
	// Provider saw 95.50 arrive; the user claimed 100.
	provider := &fakeProvider{events: map[string]exchange.DepositEvent{
		"tx-1": settledEvent("tx-1", 95.50),
	}}
	svc, walletSvc, _ := newTestService(t, provider)
	ctx := context.Background()

	_, err := svc.SubmitClaim(ctx, 1, "tx-1", 100, "USDT", "TRC20")
	require.NoError(t, err)

	result, err := svc.VerifyAndConfirm(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, result.Outcome)
	assert.Equal(t, 95.50, result.Deposit.AmountUSD)

	balances, err := walletSvc.GetBalances(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 95.50, balances.Account)
}

func TestListClaims(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeProvider{})
	ctx := context.Background()

	for _, txID := range []string{"tx-1", "tx-2", "tx-3"} {
		_, err := svc.SubmitClaim(ctx, 1, txID, 10, "USDT", "TRC20")
		require.NoError(t, err)
	}
	_, err := svc.SubmitClaim(ctx, 2, "tx-other", 10, "USDT", "TRC20")
	require.NoError(t, err)

	claims, err := svc.ListClaims(ctx, 1, 10, 0)
	require.NoError(t, err)
	assert.Len(t, claims, 3)

	// Ownership is enforced on single lookups too.
	_, err = svc.GetClaim(ctx, 1, "tx-other")
	assert.ErrorIs(t, err, custerrors.ErrDepositNotFound)
}
