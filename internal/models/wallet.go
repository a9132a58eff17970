package models

import (
	"time"
)

// Wallet types. Every user owns exactly one wallet of each type.
const (
	WalletTypeAccount  = "account"
	WalletTypeTrading  = "trading"
	WalletTypeReferral = "referral"
)

// WalletTypes lists the wallet triple created lazily for every user.
var WalletTypes = []string{WalletTypeAccount, WalletTypeTrading, WalletTypeReferral}

// Wallet is a per-user, per-purpose balance bucket. LockedBalance holds funds
// that are spoken for but not yet released: principal locks on the trading
// wallet, pending withdrawals on the account wallet.
type Wallet struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	UserID        uint      `gorm:"uniqueIndex:idx_wallet_user_type;not null" json:"user_id"`
	Type          string    `gorm:"uniqueIndex:idx_wallet_user_type;not null" json:"type"`
	Balance       float64   `gorm:"not null;default:0" json:"balance"`
	LockedBalance float64   `gorm:"not null;default:0" json:"locked_balance"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsValidWalletType reports whether t names one of the three wallet types.
func IsValidWalletType(t string) bool {
	for _, wt := range WalletTypes {
		if wt == t {
			return true
		}
	}
	return false
}
