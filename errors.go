package formup

import (
	"errors"

	"github.com/pthm/formup/lib/validation"
)

// Sentinel errors for form operations.
var (
	ErrUnknownField   = errors.New("formup: unknown field")
	ErrDuplicateField = errors.New("formup: duplicate field")
	ErrEmptyFieldName = errors.New("formup: empty field name")
	ErrUnknownKind    = errors.New("formup: unknown field kind")
	ErrSubmitInFlight = errors.New("formup: submit already in flight")
	ErrInvalidState   = errors.New("formup: invalid form state")
	ErrFormNotFound   = errors.New("formup: form not found")
	ErrInvalidEvent   = errors.New("formup: invalid event")
)

// ErrAdapter is returned (wrapped) when the validator itself fails.
var ErrAdapter = validation.ErrAdapter

// IsUnknownField checks if err refers to a field outside the descriptor.
func IsUnknownField(err error) bool {
	return errors.Is(err, ErrUnknownField)
}

// IsStateError checks if err comes from a missing, tampered or mismatched
// state token.
func IsStateError(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsBadRequest checks if err was caused by a malformed event request.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrInvalidState) || errors.Is(err, ErrInvalidEvent) || errors.Is(err, ErrUnknownField)
}

// IsAdapterError checks if err is a validator failure rather than a
// validation result.
func IsAdapterError(err error) bool {
	return errors.Is(err, ErrAdapter)
}
