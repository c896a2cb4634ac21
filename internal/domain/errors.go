package domain

import (
	"errors"
	"fmt"
)

// Category sentinels. Authentication failures deliberately do not distinguish
// unknown account from wrong credential.
var (
	ErrValidation        = errors.New("validation failed")
	ErrAuthentication    = errors.New("invalid credentials")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrPersistence       = errors.New("persistence failure")
)

// Specific validation failures. Each wraps ErrValidation so callers can match
// either the specific sentinel or the category.
var (
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be positive with at most two decimal places", ErrValidation)
	ErrSelfTransfer        = fmt.Errorf("%w: cannot transfer to same account", ErrValidation)
	ErrUnknownAccount      = fmt.Errorf("%w: account does not exist", ErrValidation)
	ErrInactiveAccount     = fmt.Errorf("%w: account is not active", ErrValidation)
	ErrNameRequired        = fmt.Errorf("%w: name is required", ErrValidation)
	ErrInvalidRole         = fmt.Errorf("%w: unknown role", ErrValidation)
	ErrInvalidHistoryCount = fmt.Errorf("%w: count must be positive", ErrValidation)
	ErrNotAdmin            = fmt.Errorf("%w: admin role required", ErrValidation)
)
