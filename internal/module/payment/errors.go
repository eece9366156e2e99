package payment

import "errors"

var (
	// ErrInvalidSignature indicates the inbound payload failed reverse-hash
	// verification and must not be trusted.
	ErrInvalidSignature = errors.New("invalid gateway signature")

	// ErrMissingOrderRef indicates the payload did not carry a usable order
	// reference in udf1.
	ErrMissingOrderRef = errors.New("missing or malformed order reference")

	// ErrAmountMismatch indicates the gateway-reported amount does not match
	// the order total within tolerance. The order is left untouched.
	ErrAmountMismatch = errors.New("amount mismatch")

	// ErrTransactionConflict indicates the order was already settled by a
	// different transaction than the one in this payload.
	ErrTransactionConflict = errors.New("order settled by a different transaction")

	// ErrOrderCancelled indicates the callback refers to an order the user
	// cancelled before the payment settled. The cancelled order is never
	// resurrected.
	ErrOrderCancelled = errors.New("order already cancelled")

	// ErrMissingCredentials indicates gateway credentials are not configured
	// in an environment that requires them.
	ErrMissingCredentials = errors.New("gateway credentials not configured")
)
