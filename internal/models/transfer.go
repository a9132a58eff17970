package models

import (
	"time"
)

// Transfer types
const (
	TransferTypePrincipal = "principal"
	TransferTypeProfit    = "profit"
)

// Transfer statuses
const (
	TransferStatusActive    = "active"
	TransferStatusUnlocked  = "unlocked"
	TransferStatusCancelled = "cancelled"
)

// WalletTransfer is one inter-wallet move initiated by a user. Principal
// transfers into the trading wallet stay locked until LockedUntil passes and
// the release job marks them unlocked.
type WalletTransfer struct {
	ID           string     `gorm:"primarykey" json:"id"`
	UserID       uint       `gorm:"index;not null" json:"user_id"`
	FromWallet   string     `gorm:"not null" json:"from_wallet"`
	ToWallet     string     `gorm:"not null" json:"to_wallet"`
	Amount       float64    `gorm:"not null" json:"amount"`
	TransferType string     `gorm:"not null" json:"transfer_type"`
	LockedUntil  *time.Time `json:"locked_until,omitempty"`
	UnlockedAt   *time.Time `json:"unlocked_at,omitempty"`
	Status       string     `gorm:"not null;default:'active';index" json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
