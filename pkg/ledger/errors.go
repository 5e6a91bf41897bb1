package ledger

import "errors"

var (
	// ErrInvalidAmount is returned for negative grant or set amounts
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNoCredits is returned when a consume finds an empty balance
	ErrNoCredits = errors.New("no credits remaining")

	// ErrInvalidEmail is returned when an account email is empty after normalization
	ErrInvalidEmail = errors.New("invalid email")

	// ErrStorageUnavailable is returned when the backing store is unavailable
	ErrStorageUnavailable = errors.New("storage unavailable")
)
