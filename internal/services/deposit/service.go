// Package deposit reconciles external exchange deposits against internal
// claims. A claim is credited exactly once no matter how many times the
// poller or webhook observes the same provider event.
package deposit

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"custora/internal/errors"
	"custora/internal/models"
	"custora/internal/providers/exchange"
	"custora/internal/repositories"
	"custora/internal/services/wallet"
	"custora/internal/validation"

	"github.com/sirupsen/logrus"
)

type service struct {
	store     repositories.Store
	walletSvc wallet.Service
	provider  ProviderLookup
	cfg       Config
	log       *logrus.Logger
}

// ProviderLookup is the slice of the exchange client the reconciler needs.
type ProviderLookup interface {
	FindDeposit(ctx context.Context, txID string) (*exchange.DepositEvent, error)
}

// NewService creates the deposit reconciler.
func NewService(store repositories.Store, walletSvc wallet.Service, provider ProviderLookup, cfg Config, log *logrus.Logger) Service {
	if store == nil {
		panic("store is required")
	}
	if walletSvc == nil {
		panic("wallet service is required")
	}
	if provider == nil {
		panic("provider client is required")
	}
	if cfg.MinConfirmations <= 0 {
		cfg.MinConfirmations = DefaultConfig().MinConfirmations
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &service{store: store, walletSvc: walletSvc, provider: provider, cfg: cfg, log: log}
}

func (s *service) DepositAddress() string { return s.cfg.DepositAddress }

func (s *service) SubmitClaim(ctx context.Context, userID uint, txID string, amountUSD float64, asset, network string) (*models.Deposit, error) {
	if txID == "" {
		return nil, &errors.DomainError{Code: "INVALID_TX_ID", Message: "transaction id is required"}
	}
	if err := validation.ValidateAmount(amountUSD); err != nil {
		return nil, err
	}

	claim := &models.Deposit{
		TxID:      txID,
		UserID:    userID,
		AmountUSD: amountUSD,
		Asset:     asset,
		Network:   network,
		Status:    models.DepositStatusPending,
		Source:    models.DepositSourceManual,
	}
	if err := s.store.Deposits().Create(ctx, claim); err != nil {
		if stderrors.Is(err, repositories.ErrDuplicateDeposit) {
			existing, getErr := s.store.Deposits().GetByTxID(ctx, txID)
			if getErr == nil && existing.UserID == userID {
				return existing, nil
			}
			return nil, errors.ErrDepositClaimed
		}
		return nil, err
	}
	return claim, nil
}

func (s *service) GetClaim(ctx context.Context, userID uint, txID string) (*models.Deposit, error) {
	claim, err := s.store.Deposits().GetByTxID(ctx, txID)
	if err != nil {
		if stderrors.Is(err, repositories.ErrDepositNotFound) {
			return nil, errors.ErrDepositNotFound
		}
		return nil, err
	}
	if claim.UserID != userID {
		return nil, errors.ErrDepositNotFound
	}
	return claim, nil
}

func (s *service) ListClaims(ctx context.Context, userID uint, limit, offset int) ([]models.Deposit, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.store.Deposits().ListByUser(ctx, userID, limit, offset)
}

func (s *service) VerifyAndConfirm(ctx context.Context, txID string) (*ConfirmResult, error) {
	claim, err := s.store.Deposits().GetByTxID(ctx, txID)
	if err != nil {
		if stderrors.Is(err, repositories.ErrDepositNotFound) {
			return &ConfirmResult{Outcome: OutcomeNoClaim}, nil
		}
		return nil, err
	}
	if claim.Status == models.DepositStatusConfirmed {
		return &ConfirmResult{Outcome: OutcomeAlreadyConfirmed, Deposit: claim}, nil
	}

	// Provider lookup happens before any transaction opens; no lock is held
	// across the network call.
	ev, err := s.provider.FindDeposit(ctx, txID)
	if err != nil {
		return nil, fmt.Errorf("provider lookup failed: %w", err)
	}
	if ev != nil && ev.Status == exchange.StatusFailed {
		return s.markFailed(ctx, claim)
	}
	if ev == nil || !ev.Settled(s.cfg.MinConfirmations) {
		return s.markProcessing(ctx, claim)
	}

	return s.confirm(ctx, claim, ev.Amount)
}

func (s *service) VerifyAndConfirmEvent(ctx context.Context, ev exchange.DepositEvent) (*ConfirmResult, error) {
	claim, err := s.store.Deposits().GetByTxID(ctx, ev.TxID)
	if err != nil {
		if stderrors.Is(err, repositories.ErrDepositNotFound) {
			// Provider event with no matching claim; nothing to credit.
			return &ConfirmResult{Outcome: OutcomeNoClaim}, nil
		}
		return nil, err
	}
	if claim.Status == models.DepositStatusConfirmed {
		return &ConfirmResult{Outcome: OutcomeAlreadyConfirmed, Deposit: claim}, nil
	}
	if ev.Status == exchange.StatusFailed {
		return s.markFailed(ctx, claim)
	}
	if !ev.Settled(s.cfg.MinConfirmations) {
		return s.markProcessing(ctx, claim)
	}
	return s.confirm(ctx, claim, ev.Amount)
}

// markProcessing records that the provider has seen the transaction but it
// is not final yet.
func (s *service) markProcessing(ctx context.Context, claim *models.Deposit) (*ConfirmResult, error) {
	if claim.Status == models.DepositStatusPending {
		claim.Status = models.DepositStatusProcessing
		if err := s.store.Deposits().Update(ctx, claim); err != nil {
			return nil, err
		}
	}
	return &ConfirmResult{Outcome: OutcomeNotSettled, Deposit: claim}, nil
}

// markFailed records that the provider rejected the transaction. No funds
// move. Failed is not terminal; a later success observation can still confirm.
func (s *service) markFailed(ctx context.Context, claim *models.Deposit) (*ConfirmResult, error) {
	if claim.Status != models.DepositStatusConfirmed && claim.Status != models.DepositStatusFailed {
		claim.Status = models.DepositStatusFailed
		if err := s.store.Deposits().Update(ctx, claim); err != nil {
			return nil, err
		}
	}
	return &ConfirmResult{Outcome: OutcomeFailed, Deposit: claim}, nil
}

// confirm flips the claim to confirmed and credits the account wallet in one
// transaction. The idempotency key makes the credit exactly-once even if two
// ingress paths race past the status check above.
func (s *service) confirm(ctx context.Context, claim *models.Deposit, providerAmount float64) (*ConfirmResult, error) {
	amount := validation.Round2(providerAmount)
	if amount != claim.AmountUSD {
		s.log.WithFields(logrus.Fields{
			"tx_id":    claim.TxID,
			"claimed":  claim.AmountUSD,
			"observed": amount,
		}).Warn("provider amount differs from claim; crediting observed amount")
	}

	result := &ConfirmResult{Outcome: OutcomeConfirmed}
	err := s.walletSvc.WithinTransaction(ctx, func(ops wallet.TxOperations) error {
		current, err := ops.Store().Deposits().GetByTxID(ctx, claim.TxID)
		if err != nil {
			return err
		}
		if current.Status == models.DepositStatusConfirmed {
			result.Outcome = OutcomeAlreadyConfirmed
			result.Deposit = current
			return nil
		}

		mutation, err := ops.Credit(ctx, current.UserID, models.WalletTypeAccount, amount, wallet.Operation{
			Reason:         models.ReasonDeposit,
			RefType:        models.RefTypeDeposit,
			RefID:          strconv.FormatUint(uint64(current.ID), 10),
			IdempotencyKey: "deposit:" + current.TxID,
		})
		if err != nil {
			return err
		}
		if mutation.Duplicate {
			result.Outcome = OutcomeAlreadyConfirmed
		}

		now := time.Now()
		current.Status = models.DepositStatusConfirmed
		current.AmountUSD = amount
		current.VerifiedAt = &now
		current.CreditedAt = &now
		if err := ops.Store().Deposits().Update(ctx, current); err != nil {
			return err
		}
		result.Deposit = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
