package wallet

import (
	"context"
	stderrors "errors"
	"fmt"

	"custora/internal/errors"
	"custora/internal/models"
	"custora/internal/repositories"
	"custora/internal/validation"
)

type mutationKind int

const (
	kindCredit mutationKind = iota
	kindDebit
	kindCreditLocked
	kindDebitLocked
	kindLock
	kindUnlock
)

var kindNames = map[mutationKind]string{
	kindCredit:       "credit",
	kindDebit:        "debit",
	kindCreditLocked: "credit_locked",
	kindDebitLocked:  "debit_locked",
	kindLock:         "lock",
	kindUnlock:       "unlock",
}

// txOps implements TxOperations against a Store bound to one open
// transaction. touched collects user ids for post-commit cache invalidation.
type txOps struct {
	svc     *service
	store   repositories.Store
	touched map[uint]struct{}
}

func (o *txOps) Credit(ctx context.Context, userID uint, walletType string, amount float64, op Operation) (*MutationResult, error) {
	return o.mutate(ctx, userID, walletType, amount, op, kindCredit)
}

func (o *txOps) Debit(ctx context.Context, userID uint, walletType string, amount float64, op Operation) (*MutationResult, error) {
	return o.mutate(ctx, userID, walletType, amount, op, kindDebit)
}

func (o *txOps) CreditLocked(ctx context.Context, userID uint, walletType string, amount float64, op Operation) (*MutationResult, error) {
	return o.mutate(ctx, userID, walletType, amount, op, kindCreditLocked)
}

func (o *txOps) DebitLocked(ctx context.Context, userID uint, walletType string, amount float64, op Operation) (*MutationResult, error) {
	return o.mutate(ctx, userID, walletType, amount, op, kindDebitLocked)
}

func (o *txOps) Lock(ctx context.Context, userID uint, walletType string, amount float64, op Operation) (*MutationResult, error) {
	return o.mutate(ctx, userID, walletType, amount, op, kindLock)
}

func (o *txOps) Unlock(ctx context.Context, userID uint, walletType string, amount float64, op Operation) (*MutationResult, error) {
	return o.mutate(ctx, userID, walletType, amount, op, kindUnlock)
}

func (o *txOps) Store() repositories.Store { return o.store }

func (o *txOps) FindByIdempotencyKey(ctx context.Context, userID uint, walletType, key string) (*models.WalletTransaction, error) {
	w, err := o.store.Wallets().GetByUserAndType(ctx, userID, walletType)
	if err != nil {
		if stderrors.Is(err, repositories.ErrWalletNotFound) {
			return nil, repositories.ErrTransactionNotFound
		}
		return nil, err
	}
	return o.store.Wallets().FindTransactionByIdempotencyKey(ctx, w.ID, key)
}

func (o *txOps) mutate(ctx context.Context, userID uint, walletType string, amount float64, op Operation, kind mutationKind) (*MutationResult, error) {
	opName := kindNames[kind]

	if !models.IsValidWalletType(walletType) {
		return nil, errors.ErrInvalidWalletType
	}
	if err := validation.ValidateAmount(amount); err != nil {
		o.svc.metrics.RecordError(opName, "invalid_amount")
		return nil, err
	}
	if err := validation.ValidateIdempotencyKey(op.IdempotencyKey); err != nil {
		o.svc.metrics.RecordError(opName, "invalid_idempotency_key")
		return nil, err
	}

	wallets := o.store.Wallets()
	if _, err := wallets.EnsureWallet(ctx, userID, walletType); err != nil {
		return nil, err
	}

	// Exclusive row lock held until the enclosing transaction ends. All
	// concurrent mutations of this wallet serialize here.
	w, err := wallets.GetByUserAndTypeForUpdate(ctx, userID, walletType)
	if err != nil {
		if stderrors.Is(err, repositories.ErrWalletNotFound) {
			return nil, &errors.IntegrityError{
				Detail: fmt.Sprintf("wallet missing after ensure: user=%d type=%s", userID, walletType),
			}
		}
		return nil, err
	}

	if op.IdempotencyKey != "" {
		prior, err := wallets.FindTransactionByIdempotencyKey(ctx, w.ID, op.IdempotencyKey)
		if err == nil {
			// Replay reports the balance as recorded when the original
			// mutation committed, not whatever the wallet holds now.
			result := &MutationResult{
				WalletID:      w.ID,
				NewBalance:    w.Balance,
				NewLocked:     w.LockedBalance,
				TransactionID: prior.ID,
				Duplicate:     true,
			}
			switch prior.Bucket {
			case models.BucketBalance:
				result.NewBalance = prior.BalanceAfter
			case models.BucketLocked:
				result.NewLocked = prior.BalanceAfter
			}
			return result, nil
		}
		if !stderrors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, err
		}
	}

	rows, err := o.applyKind(w, amount, op, kind)
	if err != nil {
		o.svc.metrics.RecordError(opName, "domain")
		return nil, err
	}

	if err := wallets.UpdateBalances(ctx, w); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := wallets.CreateTransaction(ctx, row); err != nil {
			return nil, err
		}
	}

	o.touched[userID] = struct{}{}
	o.svc.metrics.RecordTransaction(opName, amount)

	return &MutationResult{
		WalletID:      w.ID,
		NewBalance:    w.Balance,
		NewLocked:     w.LockedBalance,
		TransactionID: rows[0].ID,
	}, nil
}

// applyKind adjusts the in-memory wallet row and builds the ledger rows for
// the mutation. Lock and unlock move value between buckets, so they emit a
// row per bucket; the idempotency key always rides on the first row.
func (o *txOps) applyKind(w *models.Wallet, amount float64, op Operation, kind mutationKind) ([]*models.WalletTransaction, error) {
	row := func(direction, bucket string, after float64, withKey bool) *models.WalletTransaction {
		r := &models.WalletTransaction{
			WalletID:     w.ID,
			Direction:    direction,
			Bucket:       bucket,
			Amount:       amount,
			BalanceAfter: after,
			Reason:       op.Reason,
			RefType:      op.RefType,
			RefID:        op.RefID,
		}
		if withKey && op.IdempotencyKey != "" {
			key := op.IdempotencyKey
			r.IdempotencyKey = &key
		}
		return r
	}

	switch kind {
	case kindCredit:
		w.Balance = validation.Round2(w.Balance + amount)
		return []*models.WalletTransaction{
			row(models.DirectionCredit, models.BucketBalance, w.Balance, true),
		}, nil

	case kindDebit:
		if w.Balance < amount {
			return nil, errors.ErrInsufficientBalance
		}
		w.Balance = validation.Round2(w.Balance - amount)
		return []*models.WalletTransaction{
			row(models.DirectionDebit, models.BucketBalance, w.Balance, true),
		}, nil

	case kindCreditLocked:
		w.LockedBalance = validation.Round2(w.LockedBalance + amount)
		return []*models.WalletTransaction{
			row(models.DirectionCredit, models.BucketLocked, w.LockedBalance, true),
		}, nil

	case kindDebitLocked:
		if w.LockedBalance < amount {
			return nil, errors.ErrInsufficientLocked
		}
		w.LockedBalance = validation.Round2(w.LockedBalance - amount)
		return []*models.WalletTransaction{
			row(models.DirectionDebit, models.BucketLocked, w.LockedBalance, true),
		}, nil

	case kindLock:
		if w.Balance < amount {
			return nil, errors.ErrInsufficientBalance
		}
		w.Balance = validation.Round2(w.Balance - amount)
		w.LockedBalance = validation.Round2(w.LockedBalance + amount)
		return []*models.WalletTransaction{
			row(models.DirectionDebit, models.BucketBalance, w.Balance, true),
			row(models.DirectionCredit, models.BucketLocked, w.LockedBalance, false),
		}, nil

	case kindUnlock:
		if w.LockedBalance < amount {
			return nil, errors.ErrInsufficientLocked
		}
		w.LockedBalance = validation.Round2(w.LockedBalance - amount)
		w.Balance = validation.Round2(w.Balance + amount)
		return []*models.WalletTransaction{
			row(models.DirectionDebit, models.BucketLocked, w.LockedBalance, true),
			row(models.DirectionCredit, models.BucketBalance, w.Balance, false),
		}, nil
	}

	return nil, fmt.Errorf("unknown mutation kind %d", kind)
}
