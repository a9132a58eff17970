package withdrawal

import (
	"context"
	"time"

	"custora/internal/models"
)

// Config holds the workflow policy.
type Config struct {
	// ProcessingWindow is how long an admin has to approve a pending
	// request before it expires.
	ProcessingWindow time.Duration
}

// DefaultConfig returns the production policy.
func DefaultConfig() Config {
	return Config{ProcessingWindow: 20 * time.Minute}
}

// ProfitPolicy classifies a withdrawal as profit or principal. The split
// comes from the investment ledger, which is outside this engine, so the
// policy is injected rather than derived here.
type ProfitPolicy interface {
	Classify(ctx context.Context, userID uint, amount float64) (string, error)
}

// PrincipalOnlyPolicy treats every withdrawal as principal. Used until the
// investment service supplies a real split.
type PrincipalOnlyPolicy struct{}

func (PrincipalOnlyPolicy) Classify(context.Context, uint, float64) (string, error) {
	return models.WithdrawalKindPrincipal, nil
}

// Service is the withdrawal request state machine: pending → approved →
// completed, or pending → rejected/cancelled. Funds sit in the account
// wallet's locked balance from create until a terminal transition.
type Service interface {
	// Create locks the amount and opens a pending request with a
	// processing deadline.
	Create(ctx context.Context, userID uint, amount float64, walletType, destinationAddress string) (*models.Withdrawal, error)

	// Approve is the admin action; it fails on expired or non-pending
	// requests without mutating anything.
	Approve(ctx context.Context, adminID uint, withdrawalID string) (*models.Withdrawal, error)

	// Reject is the admin refusal; it releases the lock.
	Reject(ctx context.Context, adminID uint, withdrawalID string) (*models.Withdrawal, error)

	// Cancel is the user's own cancellation of a still-pending request; it
	// releases the lock.
	Cancel(ctx context.Context, userID uint, withdrawalID string) (*models.Withdrawal, error)

	// Complete finalizes an approved request after payout, forfeiting the
	// locked funds.
	Complete(ctx context.Context, withdrawalID, payoutRef string) (*models.Withdrawal, error)

	// Get returns the user's withdrawal.
	Get(ctx context.Context, userID uint, withdrawalID string) (*models.Withdrawal, error)

	// ListPending returns pending requests still inside their deadline,
	// oldest first.
	ListPending(ctx context.Context) ([]models.Withdrawal, error)

	// SweepExpired cancels pending requests whose deadline passed and
	// releases their locks. Returns the number swept.
	SweepExpired(ctx context.Context) (int, error)
}
