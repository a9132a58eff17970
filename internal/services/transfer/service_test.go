package transfer

import (
	"context"
	"testing"
	"time"

	"custora/internal/errors"
	"custora/internal/models"
	"custora/internal/repositories"
	"custora/internal/repositories/memory"
	"custora/internal/services/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServices(t *testing.T, cfg Config) (Service, wallet.Service, repositories.Store) {
	t.Helper()
	store := memory.NewStore()
	walletSvc := wallet.NewService(store, wallet.NoopCache{}, nil, nil)
	return NewService(walletSvc, store, cfg, nil), walletSvc, store
}

func fund(t *testing.T, walletSvc wallet.Service, userID uint, walletType string, amount float64) {
	t.Helper()
	_, err := walletSvc.Credit(context.Background(), userID, walletType, amount, wallet.Operation{
		Reason: models.ReasonDeposit,
	})
	require.NoError(t, err)
}

func TestTransferFlowMatrix(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		wantType string
		wantErr  error
	}{
		{"account to trading", models.WalletTypeAccount, models.WalletTypeTrading, models.TransferTypePrincipal, nil},
		{"trading to account", models.WalletTypeTrading, models.WalletTypeAccount, models.TransferTypeProfit, nil},
		{"referral to account", models.WalletTypeReferral, models.WalletTypeAccount, models.TransferTypeProfit, nil},
		{"account to referral", models.WalletTypeAccount, models.WalletTypeReferral, "", errors.ErrFlowNotAllowed},
		{"referral to trading", models.WalletTypeReferral, models.WalletTypeTrading, "", errors.ErrFlowNotAllowed},
		{"trading to referral", models.WalletTypeTrading, models.WalletTypeReferral, "", errors.ErrFlowNotAllowed},
		{"same wallet", models.WalletTypeAccount, models.WalletTypeAccount, "", errors.ErrFlowNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, walletSvc, _ := newTestServices(t, Config{})
			fund(t, walletSvc, 1, tt.from, 500)

			result, err := svc.Transfer(context.Background(), 1, tt.from, tt.to, 100, "")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, result.TransferType)
		})
	}
}

func TestPrincipalTransferLocksFunds(t *testing.T) {
	svc, walletSvc, _ := newTestServices(t, Config{MinTradingTransfer: 50})
	ctx := context.Background()
	fund(t, walletSvc, 1, models.WalletTypeAccount, 200)

	result, err := svc.Transfer(ctx, 1, models.WalletTypeAccount, models.WalletTypeTrading, 150, "k1")
	require.NoError(t, err)

	require.NotNil(t, result.LockedUntil)
	assert.True(t, result.LockedUntil.After(time.Now()))
	assert.Equal(t, 50.0, result.Balances.Account)
	// Principal lands locked, not spendable.
	assert.Equal(t, 0.0, result.Balances.Trading)
	assert.Equal(t, 150.0, result.Balances.TradingLocked)
}

func TestProfitTransferIsSpendable(t *testing.T) {
	svc, walletSvc, _ := newTestServices(t, Config{})
	ctx := context.Background()
	fund(t, walletSvc, 1, models.WalletTypeTrading, 80)

	result, err := svc.Transfer(ctx, 1, models.WalletTypeTrading, models.WalletTypeAccount, 80, "k1")
	require.NoError(t, err)

	assert.Nil(t, result.LockedUntil)
	assert.Equal(t, 80.0, result.Balances.Account)
	assert.Equal(t, 0.0, result.Balances.Trading)
}

func TestMinimumPrincipalFloor(t *testing.T) {
	svc, walletSvc, _ := newTestServices(t, Config{MinTradingTransfer: 50})
	ctx := context.Background()
	fund(t, walletSvc, 1, models.WalletTypeAccount, 200)

	_, err := svc.Transfer(ctx, 1, models.WalletTypeAccount, models.WalletTypeTrading, 49.99, "k1")
	assert.ErrorIs(t, err, errors.ErrBelowMinimum)

	// The floor only applies to principal moves.
	fund(t, walletSvc, 1, models.WalletTypeTrading, 10)
	_, err = svc.Transfer(ctx, 1, models.WalletTypeTrading, models.WalletTypeAccount, 10, "k2")
	assert.NoError(t, err)
}

func TestTransferInsufficientFunds(t *testing.T) {
	svc, walletSvc, _ := newTestServices(t, Config{})
	ctx := context.Background()
	fund(t, walletSvc, 1, models.WalletTypeAccount, 60)

	_, err := svc.Transfer(ctx, 1, models.WalletTypeAccount, models.WalletTypeTrading, 100, "k1")
	assert.ErrorIs(t, err, errors.ErrInsufficientBalance)

	// Nothing moved.
	balances, err := walletSvc.GetBalances(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 60.0, balances.Account)
	assert.Equal(t, 0.0, balances.TradingLocked)
}

func TestTransferIdempotentReplay(t *testing.T) {
	svc, walletSvc, _ := newTestServices(t, Config{})
	ctx := context.Background()
	fund(t, walletSvc, 1, models.WalletTypeAccount, 500)

	first, err := svc.Transfer(ctx, 1, models.WalletTypeAccount, models.WalletTypeTrading, 100, "retry-key")
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := svc.Transfer(ctx, 1, models.WalletTypeAccount, models.WalletTypeTrading, 100, "retry-key")
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.TransferID, second.TransferID)

	// Only one debit happened.
	balances, err := walletSvc.GetBalances(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 400.0, balances.Account)
	assert.Equal(t, 100.0, balances.TradingLocked)
}

func TestReleaseMatured(t *testing.T) {
	svc, walletSvc, store := newTestServices(t, Config{PrincipalLockPeriod: time.Millisecond})
	ctx := context.Background()
	fund(t, walletSvc, 1, models.WalletTypeAccount, 300)

	result, err := svc.Transfer(ctx, 1, models.WalletTypeAccount, models.WalletTypeTrading, 300, "k1")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	released, err := svc.ReleaseMatured(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	balances, err := walletSvc.GetBalances(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 300.0, balances.Trading)
	assert.Equal(t, 0.0, balances.TradingLocked)

	record, err := store.Transfers().GetByID(ctx, result.TransferID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferStatusUnlocked, record.Status)
	assert.NotNil(t, record.UnlockedAt)

	// A second pass finds nothing left to release.
	released, err = svc.ReleaseMatured(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, released)
}

func TestReleaseSkipsUnmatured(t *testing.T) {
	svc, walletSvc, _ := newTestServices(t, Config{PrincipalLockPeriod: time.Hour})
	ctx := context.Background()
	fund(t, walletSvc, 1, models.WalletTypeAccount, 100)

	_, err := svc.Transfer(ctx, 1, models.WalletTypeAccount, models.WalletTypeTrading, 100, "k1")
	require.NoError(t, err)

	released, err := svc.ReleaseMatured(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, released)

	balances, err := walletSvc.GetBalances(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, balances.TradingLocked)
}
