package credit

import "errors"

var (
	// ErrAccountNotFound is returned when no profile matches the account id
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidGrant is returned when a grant fails validation
	ErrInvalidGrant = errors.New("invalid grant")
)
