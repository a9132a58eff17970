package errors

var (
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "amount must be positive with at most two decimal places",
	}
	ErrInsufficientBalance = &DomainError{
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient wallet balance",
	}
	ErrInsufficientLocked = &DomainError{
		Code:    "INSUFFICIENT_LOCKED_BALANCE",
		Message: "insufficient locked balance",
	}
	ErrWalletNotFound = &DomainError{
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
	}
	ErrInvalidWalletType = &DomainError{
		Code:    "INVALID_WALLET_TYPE",
		Message: "unknown wallet type",
	}
	ErrIdempotencyKeyTooLong = &DomainError{
		Code:    "IDEMPOTENCY_KEY_TOO_LONG",
		Message: "idempotency key exceeds maximum length",
	}

	ErrFlowNotAllowed = &DomainError{
		Code:    "FLOW_NOT_ALLOWED",
		Message: "transfer between these wallets is not allowed",
	}
	ErrBelowMinimum = &DomainError{
		Code:    "BELOW_MINIMUM",
		Message: "amount is below the minimum for this transfer",
	}

	ErrDepositNotFound = &DomainError{
		Code:    "DEPOSIT_NOT_FOUND",
		Message: "no deposit claim matches this transaction id",
	}
	ErrDepositNotSettled = &DomainError{
		Code:    "DEPOSIT_NOT_SETTLED",
		Message: "provider has not settled this transaction yet",
	}
	ErrDepositClaimed = &DomainError{
		Code:    "DEPOSIT_CLAIMED",
		Message: "this transaction id has already been claimed",
	}

	ErrWithdrawalNotFound = &DomainError{
		Code:    "WITHDRAWAL_NOT_FOUND",
		Message: "withdrawal not found",
	}
	ErrWithdrawalNotPending = &DomainError{
		Code:    "WITHDRAWAL_NOT_PENDING",
		Message: "withdrawal has already been processed",
	}
	ErrDeadlinePassed = &DomainError{
		Code:    "DEADLINE_PASSED",
		Message: "processing deadline has passed",
	}
	ErrWrongWalletType = &DomainError{
		Code:    "WRONG_WALLET_TYPE",
		Message: "withdrawals are only allowed from the account wallet",
	}
)
