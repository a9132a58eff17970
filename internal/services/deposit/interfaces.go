package deposit

import (
	"context"
	"time"

	"custora/internal/models"
	"custora/internal/providers/exchange"
)

// Config holds reconciliation policy.
type Config struct {
	// MinConfirmations a provider event needs before crediting.
	MinConfirmations int
	// DepositAddress is the custodial deposit address webhooks must match.
	DepositAddress string
}

// DefaultConfig returns the production policy.
func DefaultConfig() Config {
	return Config{MinConfirmations: 1}
}

// Confirmation outcomes. All are idempotent no-ops except Outcome "confirmed".
const (
	OutcomeConfirmed        = "confirmed"
	OutcomeAlreadyConfirmed = "already_confirmed"
	OutcomeNoClaim          = "no_claim"
	OutcomeNotSettled       = "not_settled"
	OutcomeFailed           = "failed"
)

// ConfirmResult reports what VerifyAndConfirm did for one transaction id.
type ConfirmResult struct {
	Outcome string          `json:"outcome"`
	Deposit *models.Deposit `json:"deposit,omitempty"`
}

// Service reconciles external deposit events against internal claims. Both
// ingress paths (poller and webhook) converge here, so processing the same
// event twice results in exactly one confirmed deposit and one credit.
type Service interface {
	// SubmitClaim records a user's claim that txID will arrive.
	SubmitClaim(ctx context.Context, userID uint, txID string, amountUSD float64, asset, network string) (*models.Deposit, error)

	// GetClaim returns the user's claim for txID.
	GetClaim(ctx context.Context, userID uint, txID string) (*models.Deposit, error)

	// ListClaims lists the user's claims, newest first.
	ListClaims(ctx context.Context, userID uint, limit, offset int) ([]models.Deposit, error)

	// VerifyAndConfirm looks up the provider event for txID and, if it is
	// settled and matches a pending claim, credits the account wallet.
	VerifyAndConfirm(ctx context.Context, txID string) (*ConfirmResult, error)

	// VerifyAndConfirmEvent is VerifyAndConfirm for an event already fetched
	// from the provider (the polling path).
	VerifyAndConfirmEvent(ctx context.Context, ev exchange.DepositEvent) (*ConfirmResult, error)

	// DepositAddress returns the configured custodial deposit address.
	DepositAddress() string
}

// PollerConfig holds the polling-loop settings.
type PollerConfig struct {
	Interval time.Duration
	// Lookback initializes the cursor on startup.
	Lookback time.Duration
}
