package wallet

import (
	"context"
	stderrors "errors"
	"fmt"

	"custora/internal/errors"
	"custora/internal/models"
	"custora/internal/repositories"
	"custora/internal/validation"

	"github.com/sirupsen/logrus"
)

type service struct {
	store   repositories.Store
	cache   Cache
	metrics MetricsCollector
	log     *logrus.Logger
}

// NewService creates a new wallet service.
func NewService(store repositories.Store, cache Cache, metrics MetricsCollector, log *logrus.Logger) Service {
	if store == nil {
		panic("store is required")
	}
	if cache == nil {
		panic("cache is required")
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &service{store: store, cache: cache, metrics: metrics, log: log}
}

func (s *service) EnsureWallets(ctx context.Context, userID uint) ([]models.Wallet, error) {
	wallets := make([]models.Wallet, 0, len(models.WalletTypes))
	for _, wt := range models.WalletTypes {
		w, err := s.store.Wallets().EnsureWallet(ctx, userID, wt)
		if err != nil {
			return nil, fmt.Errorf("failed to ensure %s wallet: %w", wt, err)
		}
		wallets = append(wallets, *w)
	}
	return wallets, nil
}

func (s *service) GetBalances(ctx context.Context, userID uint) (*Balances, error) {
	if cached, found, err := s.cache.GetUserWallets(ctx, userID); err == nil && found {
		b := BalancesFrom(cached)
		return &b, nil
	}

	wallets, err := s.store.Wallets().UserWallets(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(wallets) < len(models.WalletTypes) {
		if wallets, err = s.EnsureWallets(ctx, userID); err != nil {
			return nil, err
		}
	}

	if err := s.cache.SetUserWallets(ctx, userID, wallets); err != nil {
		s.log.WithError(err).Warn("failed to cache wallets")
	}

	b := BalancesFrom(wallets)
	return &b, nil
}

func (s *service) CreditAccount(ctx context.Context, userID uint, amount float64, op Operation) (*MutationResult, error) {
	return s.Credit(ctx, userID, models.WalletTypeAccount, amount, op)
}

func (s *service) Credit(ctx context.Context, userID uint, walletType string, amount float64, op Operation) (*MutationResult, error) {
	var result *MutationResult
	err := s.WithinTransaction(ctx, func(ops TxOperations) error {
		var err error
		result, err = ops.Credit(ctx, userID, walletType, amount, op)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Debit(ctx context.Context, userID uint, walletType string, amount float64, op Operation) (*MutationResult, error) {
	var result *MutationResult
	err := s.WithinTransaction(ctx, func(ops TxOperations) error {
		var err error
		result, err = ops.Debit(ctx, userID, walletType, amount, op)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) WithinTransaction(ctx context.Context, fn func(ops TxOperations) error) error {
	ops := &txOps{svc: s, touched: make(map[uint]struct{})}
	err := s.store.ExecuteInTransaction(ctx, func(st repositories.Store) error {
		ops.store = st
		return fn(ops)
	})
	if err != nil {
		var integrity *errors.IntegrityError
		if stderrors.As(err, &integrity) {
			s.log.WithError(err).Error("wallet integrity violation")
		}
		return err
	}

	// Invalidate outside the transaction so a rollback never leaves a stale
	// negative cache and a commit is never visible before it is durable.
	for userID := range ops.touched {
		if err := s.cache.InvalidateUserWallets(ctx, userID); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Warn("failed to invalidate wallet cache")
		}
	}
	return nil
}

func (s *service) TransactionHistory(ctx context.Context, userID uint, walletType string, limit, offset int) ([]models.WalletTransaction, error) {
	if !models.IsValidWalletType(walletType) {
		return nil, errors.ErrInvalidWalletType
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	w, err := s.store.Wallets().GetByUserAndType(ctx, userID, walletType)
	if err != nil {
		if stderrors.Is(err, repositories.ErrWalletNotFound) {
			return []models.WalletTransaction{}, nil
		}
		return nil, err
	}
	return s.store.Wallets().TransactionsByWallet(ctx, w.ID, limit, offset)
}

func (s *service) Audit(ctx context.Context, userID uint) ([]AuditEntry, error) {
	wallets, err := s.store.Wallets().UserWallets(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries := make([]AuditEntry, 0, len(wallets))
	for _, w := range wallets {
		balanceSum, err := s.store.Wallets().SumLedger(ctx, w.ID, models.BucketBalance)
		if err != nil {
			return nil, err
		}
		lockedSum, err := s.store.Wallets().SumLedger(ctx, w.ID, models.BucketLocked)
		if err != nil {
			return nil, err
		}
		entries = append(entries, AuditEntry{
			WalletID:   w.ID,
			Type:       w.Type,
			Balance:    w.Balance,
			LedgerSum:  validation.Round2(balanceSum),
			Locked:     w.LockedBalance,
			LockedSum:  validation.Round2(lockedSum),
			Consistent: validation.Round2(balanceSum) == w.Balance && validation.Round2(lockedSum) == w.LockedBalance,
		})
	}
	return entries, nil
}
