package transfer

import (
	"context"
	"time"

	"custora/internal/services/wallet"
)

// Config holds the transfer policy knobs.
type Config struct {
	// MinTradingTransfer is the floor for account→trading principal moves.
	MinTradingTransfer float64
	// PrincipalLockPeriod is how long principal stays locked in the trading
	// wallet.
	PrincipalLockPeriod time.Duration
}

// DefaultConfig returns the production policy.
func DefaultConfig() Config {
	return Config{
		MinTradingTransfer:  50.00,
		PrincipalLockPeriod: 30 * 24 * time.Hour,
	}
}

// Result reports a completed (or replayed) transfer.
type Result struct {
	TransferID   string          `json:"transfer_id"`
	From         string          `json:"from"`
	To           string          `json:"to"`
	Amount       float64         `json:"amount"`
	TransferType string          `json:"transfer_type"`
	LockedUntil  *time.Time      `json:"locked_until,omitempty"`
	Balances     wallet.Balances `json:"balances"`
	Duplicate    bool            `json:"duplicate,omitempty"`
}

// Service moves funds between a user's own wallets.
type Service interface {
	// Transfer executes one inter-wallet move under the allow-list policy.
	// Both ledger legs and the transfer row commit atomically.
	Transfer(ctx context.Context, userID uint, from, to string, amount float64, idempotencyKey string) (*Result, error)

	// ReleaseMatured unlocks principal transfers whose lock period has
	// passed, moving trading locked balance back to spendable. Returns the
	// number released.
	ReleaseMatured(ctx context.Context) (int, error)
}
