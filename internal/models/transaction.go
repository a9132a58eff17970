package models

import (
	"time"
)

// Ledger directions
const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

// Ledger buckets. Each row mutates exactly one of the wallet's two balances;
// replaying the rows of a bucket in creation order reproduces that balance.
const (
	BucketBalance = "balance"
	BucketLocked  = "locked"
)

// Ledger reasons
const (
	ReasonDeposit            = "deposit"
	ReasonTransferOut        = "transfer_out"
	ReasonTransferIn         = "transfer_in"
	ReasonPrincipalLock      = "principal_lock"
	ReasonPrincipalRelease   = "principal_release"
	ReasonWithdrawalLock     = "withdrawal_lock"
	ReasonWithdrawalRelease  = "withdrawal_release"
	ReasonWithdrawalComplete = "withdrawal_complete"
)

// Reference types linking ledger rows to their originating record.
const (
	RefTypeDeposit    = "deposit"
	RefTypeTransfer   = "transfer"
	RefTypeWithdrawal = "withdrawal"
)

// WalletTransaction is one immutable ledger row. Rows are never updated or
// deleted after insert; BalanceAfter snapshots the mutated bucket so the
// serialization order of concurrent mutations is auditable.
type WalletTransaction struct {
	ID           uint    `gorm:"primarykey" json:"id"`
	WalletID     uint    `gorm:"uniqueIndex:idx_ledger_wallet_idem;index;not null" json:"wallet_id"`
	Direction    string  `gorm:"not null" json:"direction"`
	Bucket       string  `gorm:"not null;default:'balance'" json:"bucket"`
	Amount       float64 `gorm:"not null" json:"amount"`
	BalanceAfter float64 `gorm:"not null" json:"balance_after"`
	Reason       string  `gorm:"not null" json:"reason"`
	RefType      string  `json:"ref_type"`
	RefID        string  `gorm:"index" json:"ref_id"`
	// Unique per wallet; NULL for mutations that need no retry protection.
	IdempotencyKey *string   `gorm:"uniqueIndex:idx_ledger_wallet_idem" json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Signed returns the amount with the sign implied by the direction.
func (t *WalletTransaction) Signed() float64 {
	if t.Direction == DirectionDebit {
		return -t.Amount
	}
	return t.Amount
}
