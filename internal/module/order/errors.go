package order

import "errors"

var (
	// ErrValidation indicates malformed input, rejected before any side effect.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates the requested order does not exist.
	ErrNotFound = errors.New("order not found")

	// ErrForbidden indicates the requester is neither the owner nor an admin.
	ErrForbidden = errors.New("access to order denied")

	// ErrInvalidTransition indicates a disallowed order status transition.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrCancelNotAllowed indicates cancellation of a shipped or delivered order.
	ErrCancelNotAllowed = errors.New("order can no longer be cancelled")
)
