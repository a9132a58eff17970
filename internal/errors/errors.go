// Package errors defines the engine's error taxonomy. Validation and domain
// errors carry stable machine-readable codes; integrity errors mark states
// that should be impossible and are logged loudly by callers.
package errors

import "fmt"

// DomainError is a business-rule violation with a stable code for clients.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IntegrityError marks an expected row missing after an ensure step. It is
// treated as fatal by callers and never surfaced to external clients.
type IntegrityError struct {
	Detail string
}

func (e *IntegrityError) Error() string {
	return "integrity violation: " + e.Detail
}
