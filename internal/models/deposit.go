package models

import (
	"time"
)

// Deposit statuses. Confirmed is terminal and triggers exactly one credit.
const (
	DepositStatusPending    = "pending"
	DepositStatusProcessing = "processing"
	DepositStatusConfirmed  = "confirmed"
	DepositStatusFailed     = "failed"
)

// Deposit sources
const (
	DepositSourceManual = "manual"
	DepositSourceAuto   = "auto"
)

// Deposit is one claimed external deposit, keyed by the provider transaction
// id. The reconciler matches provider events against these claims before any
// wallet credit happens.
type Deposit struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	TxID       string     `gorm:"uniqueIndex;not null" json:"tx_id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	AmountUSD  float64    `gorm:"not null" json:"amount_usd"`
	Asset      string     `json:"asset"`
	Network    string     `json:"network"`
	Status     string     `gorm:"not null;default:'pending';index" json:"status"`
	Source     string     `gorm:"not null;default:'manual'" json:"source"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	CreditedAt *time.Time `json:"credited_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
