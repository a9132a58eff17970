// Package validation holds request-level checks shared by services and
// handlers. Everything here runs before any state is touched.
package validation

import (
	"math"

	"custora/internal/errors"
)

// MaxIdempotencyKeyLength bounds caller-supplied idempotency keys.
const MaxIdempotencyKeyLength = 64

// ValidateAmount rejects non-positive amounts and amounts with more than two
// decimal places. All monetary values in the ledger are 2dp USD.
func ValidateAmount(amount float64) error {
	if amount <= 0 {
		return errors.ErrInvalidAmount
	}
	cents := amount * 100
	if math.Abs(cents-math.Round(cents)) > 1e-6 {
		return errors.ErrInvalidAmount
	}
	return nil
}

// ValidateIdempotencyKey bounds the key length; empty keys are allowed and
// mean "no retry protection requested".
func ValidateIdempotencyKey(key string) error {
	if len(key) > MaxIdempotencyKeyLength {
		return errors.ErrIdempotencyKeyTooLong
	}
	return nil
}

// Round2 normalizes an amount to two decimal places.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}
