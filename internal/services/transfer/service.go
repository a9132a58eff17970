// Package transfer orchestrates inter-wallet moves. Allowed flows and lock
// semantics live here; all money movement is delegated to the wallet service.
package transfer

import (
	"context"
	stderrors "errors"
	"time"

	"custora/internal/errors"
	"custora/internal/models"
	"custora/internal/repositories"
	"custora/internal/services/wallet"
	"custora/internal/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// flow is one allowed (from, to) pair and the transfer type it produces.
type flow struct {
	from, to string
}

// allowedFlows is the policy matrix. Everything not listed is rejected.
var allowedFlows = map[flow]string{
	{models.WalletTypeAccount, models.WalletTypeTrading}:  models.TransferTypePrincipal,
	{models.WalletTypeTrading, models.WalletTypeAccount}:  models.TransferTypeProfit,
	{models.WalletTypeReferral, models.WalletTypeAccount}: models.TransferTypeProfit,
}

type service struct {
	walletSvc wallet.Service
	store     repositories.Store
	cfg       Config
	log       *logrus.Logger
}

// NewService creates a new transfer service.
func NewService(walletSvc wallet.Service, store repositories.Store, cfg Config, log *logrus.Logger) Service {
	if walletSvc == nil {
		panic("wallet service is required")
	}
	if store == nil {
		panic("store is required")
	}
	if cfg.MinTradingTransfer <= 0 {
		cfg.MinTradingTransfer = DefaultConfig().MinTradingTransfer
	}
	if cfg.PrincipalLockPeriod <= 0 {
		cfg.PrincipalLockPeriod = DefaultConfig().PrincipalLockPeriod
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &service{walletSvc: walletSvc, store: store, cfg: cfg, log: log}
}

func (s *service) Transfer(ctx context.Context, userID uint, from, to string, amount float64, idempotencyKey string) (*Result, error) {
	if err := validation.ValidateAmount(amount); err != nil {
		return nil, err
	}
	if err := validation.ValidateIdempotencyKey(idempotencyKey); err != nil {
		return nil, err
	}

	transferType, ok := allowedFlows[flow{from, to}]
	if !ok {
		return nil, errors.ErrFlowNotAllowed
	}
	if transferType == models.TransferTypePrincipal && amount < s.cfg.MinTradingTransfer {
		return nil, errors.ErrBelowMinimum
	}

	result := &Result{
		From:         from,
		To:           to,
		Amount:       amount,
		TransferType: transferType,
	}

	err := s.walletSvc.WithinTransaction(ctx, func(ops wallet.TxOperations) error {
		// A replayed request is detected on the source wallet's ledger; the
		// original transfer row is returned untouched.
		if idempotencyKey != "" {
			prior, err := ops.FindByIdempotencyKey(ctx, userID, from, idempotencyKey)
			if err == nil {
				existing, err := ops.Store().Transfers().GetByID(ctx, prior.RefID)
				if err != nil {
					return err
				}
				result.TransferID = existing.ID
				result.TransferType = existing.TransferType
				result.LockedUntil = existing.LockedUntil
				result.Duplicate = true
				return nil
			}
			if !stderrors.Is(err, repositories.ErrTransactionNotFound) {
				return err
			}
		}

		transferID := uuid.NewString()
		result.TransferID = transferID

		debitOp := wallet.Operation{
			Reason:         models.ReasonTransferOut,
			RefType:        models.RefTypeTransfer,
			RefID:          transferID,
			IdempotencyKey: idempotencyKey,
		}
		if _, err := ops.Debit(ctx, userID, from, amount, debitOp); err != nil {
			return err
		}

		creditOp := wallet.Operation{
			Reason:  models.ReasonTransferIn,
			RefType: models.RefTypeTransfer,
			RefID:   transferID,
		}

		record := &models.WalletTransfer{
			ID:           transferID,
			UserID:       userID,
			FromWallet:   from,
			ToWallet:     to,
			Amount:       amount,
			TransferType: transferType,
			Status:       models.TransferStatusActive,
		}

		if transferType == models.TransferTypePrincipal {
			// Principal lands in the trading wallet's locked balance and
			// stays there until the lock matures.
			lockedUntil := time.Now().Add(s.cfg.PrincipalLockPeriod)
			record.LockedUntil = &lockedUntil
			result.LockedUntil = &lockedUntil
			if _, err := ops.CreditLocked(ctx, userID, to, amount, creditOp); err != nil {
				return err
			}
		} else {
			if _, err := ops.Credit(ctx, userID, to, amount, creditOp); err != nil {
				return err
			}
		}

		return ops.Store().Transfers().Create(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	balances, err := s.walletSvc.GetBalances(ctx, userID)
	if err != nil {
		return nil, err
	}
	result.Balances = *balances
	return result, nil
}

func (s *service) ReleaseMatured(ctx context.Context) (int, error) {
	matured, err := s.store.Transfers().MaturedActive(ctx, time.Now(), 100)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, t := range matured {
		if err := s.releaseOne(ctx, t); err != nil {
			// One stuck transfer must not block the rest of the batch.
			s.log.WithError(err).WithField("transfer_id", t.ID).Error("failed to release matured transfer")
			continue
		}
		released++
	}
	return released, nil
}

func (s *service) releaseOne(ctx context.Context, t models.WalletTransfer) error {
	return s.walletSvc.WithinTransaction(ctx, func(ops wallet.TxOperations) error {
		current, err := ops.Store().Transfers().GetByID(ctx, t.ID)
		if err != nil {
			return err
		}
		if current.Status != models.TransferStatusActive {
			return nil
		}

		unlockOp := wallet.Operation{
			Reason:         models.ReasonPrincipalRelease,
			RefType:        models.RefTypeTransfer,
			RefID:          current.ID,
			IdempotencyKey: "release:" + current.ID,
		}
		if _, err := ops.Unlock(ctx, current.UserID, current.ToWallet, current.Amount, unlockOp); err != nil {
			return err
		}

		now := time.Now()
		current.Status = models.TransferStatusUnlocked
		current.UnlockedAt = &now
		return ops.Store().Transfers().Update(ctx, current)
	})
}
