// Package withdrawal implements the request → lock → admin-approval →
// completion workflow. Every status transition commits in the same
// transaction as its lock movement, so the two can never diverge.
package withdrawal

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

type service struct {
	store     repositories.Store
	walletSvc wallet.Service
	policy    ProfitPolicy
	cfg       Config
	log       *logrus.Logger
}

// NewService creates the withdrawal workflow.
func NewService(store repositories.Store, walletSvc wallet.Service, policy ProfitPolicy, cfg Config, log *logrus.Logger) Service {
	if store == nil {
		panic("store is required")
	}
	if walletSvc == nil {
		panic("wallet service is required")
	}
	if policy == nil {
		policy = PrincipalOnlyPolicy{}
	}
	if cfg.ProcessingWindow <= 0 {
		cfg.ProcessingWindow = DefaultConfig().ProcessingWindow
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &service{store: store, walletSvc: walletSvc, policy: policy, cfg: cfg, log: log}
}

func (s *service) Create(ctx context.Context, userID uint, amount float64, walletType, destinationAddress string) (*models.Withdrawal, error) {
	if walletType != models.WalletTypeAccount {
		return nil, errors.ErrWrongWalletType
	}
	if err := validation.ValidateAmount(amount); err != nil {
		return nil, err
	}

	kind, err := s.policy.Classify(ctx, userID, amount)
	if err != nil {
		return nil, err
	}

	w := &models.Withdrawal{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Amount:             amount,
		WalletType:         walletType,
		DestinationAddress: destinationAddress,
		Kind:               kind,
		Status:             models.WithdrawalStatusPending,
		ProcessingDeadline: time.Now().Add(s.cfg.ProcessingWindow),
	}

	err = s.walletSvc.WithinTransaction(ctx, func(ops wallet.TxOperations) error {
		_, err := ops.Lock(ctx, userID, models.WalletTypeAccount, amount, wallet.Operation{
			Reason:  models.ReasonWithdrawalLock,
			RefType: models.RefTypeWithdrawal,
			RefID:   w.ID,
		})
		if err != nil {
			return err
		}
		return ops.Store().Withdrawals().Create(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (s *service) Approve(ctx context.Context, adminID uint, withdrawalID string) (*models.Withdrawal, error) {
	var approved *models.Withdrawal
	err := s.walletSvc.WithinTransaction(ctx, func(ops wallet.TxOperations) error {
		w, err := ops.Store().Withdrawals().GetByIDForUpdate(ctx, withdrawalID)
		if err != nil {
			return asDomain(err)
		}
		if w.Status != models.WithdrawalStatusPending {
			return errors.ErrWithdrawalNotPending
		}
		if time.Now().After(w.ProcessingDeadline) {
			return errors.ErrDeadlinePassed
		}

		now := time.Now()
		w.Status = models.WithdrawalStatusApproved
		w.AdminID = &adminID
		w.ApprovedAt = &now
		if err := ops.Store().Withdrawals().Update(ctx, w); err != nil {
			return err
		}
		approved = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

func (s *service) Reject(ctx context.Context, adminID uint, withdrawalID string) (*models.Withdrawal, error) {
	return s.release(ctx, withdrawalID, models.WithdrawalStatusRejected, func(w *models.Withdrawal) bool {
		w.AdminID = &adminID
		return true
	})
}

func (s *service) Cancel(ctx context.Context, userID uint, withdrawalID string) (*models.Withdrawal, error) {
	return s.release(ctx, withdrawalID, models.WithdrawalStatusCancelled, func(w *models.Withdrawal) bool {
		return w.UserID == userID
	})
}

// release reverses the lock and moves a pending withdrawal to a terminal
// state. The guard can veto (ownership check) or annotate the row.
func (s *service) release(ctx context.Context, withdrawalID, terminalStatus string, guard func(*models.Withdrawal) bool) (*models.Withdrawal, error) {
	var released *models.Withdrawal
	err := s.walletSvc.WithinTransaction(ctx, func(ops wallet.TxOperations) error {
		w, err := ops.Store().Withdrawals().GetByIDForUpdate(ctx, withdrawalID)
		if err != nil {
			return asDomain(err)
		}
		if !guard(w) {
			return errors.ErrWithdrawalNotFound
		}
		if w.Status != models.WithdrawalStatusPending {
			return errors.ErrWithdrawalNotPending
		}

		_, err = ops.Unlock(ctx, w.UserID, models.WalletTypeAccount, w.Amount, wallet.Operation{
			Reason:  models.ReasonWithdrawalRelease,
			RefType: models.RefTypeWithdrawal,
			RefID:   w.ID,
		})
		if err != nil {
			return err
		}

		w.Status = terminalStatus
		if err := ops.Store().Withdrawals().Update(ctx, w); err != nil {
			return err
		}
		released = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

func (s *service) Complete(ctx context.Context, withdrawalID, payoutRef string) (*models.Withdrawal, error) {
	var completed *models.Withdrawal
	err := s.walletSvc.WithinTransaction(ctx, func(ops wallet.TxOperations) error {
		w, err := ops.Store().Withdrawals().GetByIDForUpdate(ctx, withdrawalID)
		if err != nil {
			return asDomain(err)
		}
		if w.Status != models.WithdrawalStatusApproved {
			return errors.ErrWithdrawalNotPending
		}

		// The payout left the custody account; the locked funds are
		// forfeited, not returned.
		_, err = ops.DebitLocked(ctx, w.UserID, models.WalletTypeAccount, w.Amount, wallet.Operation{
			Reason:  models.ReasonWithdrawalComplete,
			RefType: models.RefTypeWithdrawal,
			RefID:   w.ID,
		})
		if err != nil {
			return err
		}

		w.Status = models.WithdrawalStatusCompleted
		w.PayoutRef = payoutRef
		if err := ops.Store().Withdrawals().Update(ctx, w); err != nil {
			return err
		}
		completed = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

func (s *service) Get(ctx context.Context, userID uint, withdrawalID string) (*models.Withdrawal, error) {
	w, err := s.store.Withdrawals().GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, asDomain(err)
	}
	if w.UserID != userID {
		return nil, errors.ErrWithdrawalNotFound
	}
	return w, nil
}

func (s *service) ListPending(ctx context.Context) ([]models.Withdrawal, error) {
	return s.store.Withdrawals().ListPending(ctx, time.Now())
}

func (s *service) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.store.Withdrawals().ExpiredPending(ctx, time.Now(), 100)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, w := range expired {
		if err := s.sweepOne(ctx, w.ID); err != nil {
			s.log.WithError(err).WithField("withdrawal_id", w.ID).Error("failed to sweep expired withdrawal")
			continue
		}
		swept++
	}
	return swept, nil
}

func (s *service) sweepOne(ctx context.Context, withdrawalID string) error {
	return s.walletSvc.WithinTransaction(ctx, func(ops wallet.TxOperations) error {
		w, err := ops.Store().Withdrawals().GetByIDForUpdate(ctx, withdrawalID)
		if err != nil {
			return err
		}
		// Re-check under the lock; an admin may have won the race.
		if w.Status != models.WithdrawalStatusPending || time.Now().Before(w.ProcessingDeadline) {
			return nil
		}

		_, err = ops.Unlock(ctx, w.UserID, models.WalletTypeAccount, w.Amount, wallet.Operation{
			Reason:  models.ReasonWithdrawalRelease,
			RefType: models.RefTypeWithdrawal,
			RefID:   w.ID,
		})
		if err != nil {
			return err
		}

		w.Status = models.WithdrawalStatusCancelled
		return ops.Store().Withdrawals().Update(ctx, w)
	})
}

func asDomain(err error) error {
	if stderrors.Is(err, repositories.ErrWithdrawalNotFound) {
		return errors.ErrWithdrawalNotFound
	}
	return err
}
