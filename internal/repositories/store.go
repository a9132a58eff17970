// Package repositories provides the data access layer. All persistence goes
// through the Store interface so services can be tested against in-memory
// fakes and so a unit of work runs on one transaction object checked out for
// its full duration, never on bare BEGIN/COMMIT over a shared pool.
package repositories

import (
	"context"
	"errors"
	"time"

	"custora/internal/models"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransferNotFound    = errors.New("transfer not found")
	ErrDepositNotFound     = errors.New("deposit not found")
	ErrWithdrawalNotFound  = errors.New("withdrawal not found")
	ErrDuplicateDeposit    = errors.New("deposit already claimed")
)

// Store bundles the engine's repositories. ExecuteInTransaction yields a
// Store bound to a single database transaction; the callback either commits
// as a whole or rolls back as a whole.
type Store interface {
	Wallets() WalletRepository
	Transfers() TransferRepository
	Deposits() DepositRepository
	Withdrawals() WithdrawalRepository

	ExecuteInTransaction(ctx context.Context, fn func(Store) error) error
}

// WalletRepository owns wallet rows and the append-only ledger.
type WalletRepository interface {
	EnsureWallet(ctx context.Context, userID uint, walletType string) (*models.Wallet, error)
	GetByID(ctx context.Context, id uint) (*models.Wallet, error)
	GetByUserAndType(ctx context.Context, userID uint, walletType string) (*models.Wallet, error)
	// GetByUserAndTypeForUpdate acquires an exclusive row lock; only valid
	// inside ExecuteInTransaction.
	GetByUserAndTypeForUpdate(ctx context.Context, userID uint, walletType string) (*models.Wallet, error)
	UserWallets(ctx context.Context, userID uint) ([]models.Wallet, error)
	UpdateBalances(ctx context.Context, wallet *models.Wallet) error

	CreateTransaction(ctx context.Context, tx *models.WalletTransaction) error
	FindTransactionByIdempotencyKey(ctx context.Context, walletID uint, key string) (*models.WalletTransaction, error)
	TransactionsByWallet(ctx context.Context, walletID uint, limit, offset int) ([]models.WalletTransaction, error)
	// SumLedger replays one bucket of a wallet's ledger, summing signed
	// amounts. Used by the self-audit endpoint and tests.
	SumLedger(ctx context.Context, walletID uint, bucket string) (float64, error)
}

// TransferRepository owns WalletTransfer lifecycle rows.
type TransferRepository interface {
	Create(ctx context.Context, transfer *models.WalletTransfer) error
	GetByID(ctx context.Context, id string) (*models.WalletTransfer, error)
	Update(ctx context.Context, transfer *models.WalletTransfer) error
	// MaturedActive returns active principal transfers whose lock expired
	// before now, oldest first.
	MaturedActive(ctx context.Context, now time.Time, limit int) ([]models.WalletTransfer, error)
}

// DepositRepository owns deposit claims.
type DepositRepository interface {
	Create(ctx context.Context, deposit *models.Deposit) error
	GetByTxID(ctx context.Context, txID string) (*models.Deposit, error)
	Update(ctx context.Context, deposit *models.Deposit) error
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Deposit, error)
}

// WithdrawalRepository owns withdrawal request rows.
type WithdrawalRepository interface {
	Create(ctx context.Context, w *models.Withdrawal) error
	GetByID(ctx context.Context, id string) (*models.Withdrawal, error)
	// GetByIDForUpdate locks the row for a status transition; only valid
	// inside ExecuteInTransaction.
	GetByIDForUpdate(ctx context.Context, id string) (*models.Withdrawal, error)
	Update(ctx context.Context, w *models.Withdrawal) error
	// ListPending returns pending withdrawals still inside their processing
	// deadline, oldest first.
	ListPending(ctx context.Context, now time.Time) ([]models.Withdrawal, error)
	// ExpiredPending returns pending withdrawals whose deadline has passed.
	ExpiredPending(ctx context.Context, now time.Time, limit int) ([]models.Withdrawal, error)
}
