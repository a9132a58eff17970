package wallet

import (
	"custora/internal/models"
)

// Operation describes the business context of one balance mutation. RefType
// and RefID link the ledger row back to the originating deposit, transfer or
// withdrawal; IdempotencyKey, when set, makes the mutation exactly-once.
type Operation struct {
	Reason         string
	RefType        string
	RefID          string
	IdempotencyKey string
}

// MutationResult reports the outcome of one mutation. Duplicate is true when
// the idempotency key had already been recorded and no state changed.
type MutationResult struct {
	WalletID      uint    `json:"wallet_id"`
	NewBalance    float64 `json:"new_balance"`
	NewLocked     float64 `json:"new_locked_balance"`
	TransactionID uint    `json:"transaction_id"`
	Duplicate     bool    `json:"duplicate"`
}

// Balances is the per-user view across the wallet triple.
type Balances struct {
	Account       float64 `json:"account"`
	Trading       float64 `json:"trading"`
	TradingLocked float64 `json:"trading_locked"`
	Referral      float64 `json:"referral"`
}

// BalancesFrom folds a wallet list into the per-user view.
func BalancesFrom(wallets []models.Wallet) Balances {
	var b Balances
	for _, w := range wallets {
		switch w.Type {
		case models.WalletTypeAccount:
			// Pending withdrawals sit in the account wallet's locked
			// balance and are not spendable, so only Balance is reported.
			b.Account = w.Balance
		case models.WalletTypeTrading:
			b.Trading = w.Balance
			b.TradingLocked = w.LockedBalance
		case models.WalletTypeReferral:
			b.Referral = w.Balance
		}
	}
	return b
}

// AuditEntry is the replay check for one wallet: both buckets recomputed
// from the ledger against the stored row.
type AuditEntry struct {
	WalletID   uint    `json:"wallet_id"`
	Type       string  `json:"type"`
	Balance    float64 `json:"balance"`
	LedgerSum  float64 `json:"ledger_sum"`
	Locked     float64 `json:"locked_balance"`
	LockedSum  float64 `json:"locked_ledger_sum"`
	Consistent bool    `json:"consistent"`
}
