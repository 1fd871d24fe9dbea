package domain

import "errors"

var (
	// ErrNotFound indicates that a board, column or item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the acting principal may not update the item.
	ErrForbidden = errors.New("forbidden")
)

// RejectedError is a validation failure carrying the wire-level reason.
type RejectedError struct {
	Reason string
}

func (e RejectedError) Error() string { return e.Reason }

// Rejected builds a RejectedError with the given reason.
func Rejected(reason string) error { return RejectedError{Reason: reason} }

// IsRejected reports whether err is a validation rejection and returns its reason.
func IsRejected(err error) (string, bool) {
	var rej RejectedError
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return "", false
}
