package models

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error wraps exactly one of these so callers can
// branch with errors.Is without knowing the specific failure.
var (
	ErrValidation   = errors.New("validation failed")
	ErrBusinessRule = errors.New("business rule violated")
	ErrNotFound     = errors.New("not found")
)

var (
	ErrInvalidAmount     = kindError(ErrValidation, "invalid amount")
	ErrNegativeResult    = kindError(ErrValidation, "negative result")
	ErrDivisionByZero    = kindError(ErrValidation, "division by zero")
	ErrInvalidQuantity   = kindError(ErrValidation, "invalid quantity")
	ErrInvalidOperation  = kindError(ErrValidation, "invalid operation")
	ErrInvalidDiscount   = kindError(ErrValidation, "invalid discount")
	ErrInvalidField      = kindError(ErrValidation, "invalid field")
	ErrInsufficientStock = kindError(ErrBusinessRule, "insufficient stock")
	ErrProductNotFound   = kindError(ErrNotFound, "product not found")
)

type domainError struct {
	kind error
	msg  string
}

func kindError(kind error, msg string) error {
	return &domainError{kind: kind, msg: msg}
}

func (e *domainError) Error() string { return e.msg }
func (e *domainError) Unwrap() error { return e.kind }

// FieldError reports which Product field failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return ErrInvalidField }

// IsValidation reports whether err is a malformed-input error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsBusinessRule reports whether err is a well-formed request rejected by a domain invariant.
func IsBusinessRule(err error) bool { return errors.Is(err, ErrBusinessRule) }

// IsNotFound reports whether err means the entity does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
