package models

import (
	"time"
)

// Withdrawal statuses. Pending is the only state an admin may act on.
const (
	WithdrawalStatusPending   = "pending"
	WithdrawalStatusApproved  = "approved"
	WithdrawalStatusCompleted = "completed"
	WithdrawalStatusRejected  = "rejected"
	WithdrawalStatusCancelled = "cancelled"
)

// Withdrawal kinds, supplied by the profit policy at creation time.
const (
	WithdrawalKindPrincipal = "principal"
	WithdrawalKindProfit    = "profit"
)

// Withdrawal is one withdrawal request. The requested amount sits in the
// account wallet's locked balance from creation until a terminal state
// releases or forfeits it.
type Withdrawal struct {
	ID                 string     `gorm:"primarykey" json:"id"`
	UserID             uint       `gorm:"index;not null" json:"user_id"`
	Amount             float64    `gorm:"not null" json:"amount"`
	WalletType         string     `gorm:"not null;default:'account'" json:"wallet_type"`
	DestinationAddress string     `json:"destination_address"`
	Kind               string     `gorm:"not null" json:"kind"`
	Status             string     `gorm:"not null;default:'pending';index" json:"status"`
	ProcessingDeadline time.Time  `gorm:"not null" json:"processing_deadline"`
	AdminID            *uint      `json:"admin_id,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	PayoutRef          string     `json:"payout_ref,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Terminal reports whether the withdrawal can no longer change state.
func (w *Withdrawal) Terminal() bool {
	switch w.Status {
	case WithdrawalStatusCompleted, WithdrawalStatusRejected, WithdrawalStatusCancelled:
		return true
	}
	return false
}
