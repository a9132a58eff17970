package wallet

import (
	"context"

	"custora/internal/models"
	"custora/internal/repositories"
)

// Service is the wallet engine's public surface.
type Service interface {
	// EnsureWallets creates the three wallets for a user if absent. Safe to
	// call concurrently and repeatedly.
	EnsureWallets(ctx context.Context, userID uint) ([]models.Wallet, error)

	// GetBalances returns the per-user balance view, served from cache when
	// possible.
	GetBalances(ctx context.Context, userID uint) (*Balances, error)

	// CreditAccount credits the user's account wallet. Exactly-once under
	// retry when op.IdempotencyKey is set.
	CreditAccount(ctx context.Context, userID uint, amount float64, op Operation) (*MutationResult, error)

	// Credit and Debit mutate a single wallet's spendable balance inside
	// their own transaction.
	Credit(ctx context.Context, userID uint, walletType string, amount float64, op Operation) (*MutationResult, error)
	Debit(ctx context.Context, userID uint, walletType string, amount float64, op Operation) (*MutationResult, error)

	// WithinTransaction runs fn against mutation primitives bound to one
	// database transaction; everything fn does commits or rolls back as a
	// unit.
	WithinTransaction(ctx context.Context, fn func(ops TxOperations) error) error

	// TransactionHistory lists a wallet's ledger rows, newest first.
	TransactionHistory(ctx context.Context, userID uint, walletType string, limit, offset int) ([]models.WalletTransaction, error)

	// Audit replays every ledger bucket of the user's wallets against the
	// stored balances.
	Audit(ctx context.Context, userID uint) ([]AuditEntry, error)
}

// TxOperations are the mutation primitives available inside one transaction.
// Lock moves balance into locked_balance; Unlock reverses it; DebitLocked
// forfeits locked funds (withdrawal payout).
type TxOperations interface {
	Credit(ctx context.Context, userID uint, walletType string, amount float64, op Operation) (*MutationResult, error)
	Debit(ctx context.Context, userID uint, walletType string, amount float64, op Operation) (*MutationResult, error)
	Lock(ctx context.Context, userID uint, walletType string, amount float64, op Operation) (*MutationResult, error)
	Unlock(ctx context.Context, userID uint, walletType string, amount float64, op Operation) (*MutationResult, error)
	DebitLocked(ctx context.Context, userID uint, walletType string, amount float64, op Operation) (*MutationResult, error)
	// CreditLocked lands funds directly in locked_balance (principal
	// transfers into the trading wallet).
	CreditLocked(ctx context.Context, userID uint, walletType string, amount float64, op Operation) (*MutationResult, error)
	// FindByIdempotencyKey returns the prior mutation for a key, if any.
	FindByIdempotencyKey(ctx context.Context, userID uint, walletType, key string) (*models.WalletTransaction, error)
	// Store exposes the repositories bound to this transaction so callers
	// can commit their own lifecycle rows atomically with the mutations.
	Store() repositories.Store
}

// Cache is the wallet read cache; mutations invalidate, reads populate.
type Cache interface {
	GetUserWallets(ctx context.Context, userID uint) ([]models.Wallet, bool, error)
	SetUserWallets(ctx context.Context, userID uint, wallets []models.Wallet) error
	InvalidateUserWallets(ctx context.Context, userID uint) error
}

// NoopCache disables caching; every read hits the database.
type NoopCache struct{}

func (NoopCache) GetUserWallets(context.Context, uint) ([]models.Wallet, bool, error) {
	return nil, false, nil
}
func (NoopCache) SetUserWallets(context.Context, uint, []models.Wallet) error { return nil }
func (NoopCache) InvalidateUserWallets(context.Context, uint) error           { return nil }

// MetricsCollector receives mutation metrics.
type MetricsCollector interface {
	RecordTransaction(operation string, amount float64)
	RecordError(operation, errType string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordTransaction(string, float64) {}
func (n *NoopMetricsCollector) RecordError(string, string)        {}
