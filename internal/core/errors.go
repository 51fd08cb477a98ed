package core

import (
	"errors"
	"fmt"
)

// Base error classes. Handlers map these onto HTTP statuses; everything
// more specific wraps one of them so errors.Is works across layers.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

var (
	ErrInvalidAmount        = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrEmptyDescription     = fmt.Errorf("%w: empty description", ErrValidation)
	ErrDescriptionTooLong   = fmt.Errorf("%w: description too long", ErrValidation)
	ErrInvalidDate          = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidType          = fmt.Errorf("%w: invalid transaction type", ErrValidation)
	ErrInvalidRole          = fmt.Errorf("%w: invalid role", ErrValidation)
	ErrUnknownCategory      = fmt.Errorf("%w: unknown category", ErrValidation)
	ErrCategoryTypeMismatch = fmt.Errorf("%w: category type does not match transaction type", ErrValidation)
	ErrEmptyName            = fmt.Errorf("%w: empty name", ErrValidation)
	ErrInvalidColor         = fmt.Errorf("%w: color must be a #RRGGBB hex value", ErrValidation)
	ErrEmptyEmail           = fmt.Errorf("%w: empty email", ErrValidation)
	ErrEmptyPassword        = fmt.Errorf("%w: empty password", ErrValidation)
	ErrDuplicate            = fmt.Errorf("%w: already exists", ErrValidation)
)

// IsValidation reports whether err belongs to the validation class.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
