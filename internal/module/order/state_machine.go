package order

import "fmt"

// statusTransitions defines the allowed forward transitions for the order
// status dimension. Delivered and cancelled are terminal.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// paymentTransitions defines the allowed transitions for the payment
// sub-state. Failed and refunded are terminal. Completed can only move to
// refunded, and only as part of cancelling an order whose payment completed.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:   {PaymentCompleted, PaymentFailed},
	PaymentCompleted: {PaymentRefunded},
	PaymentFailed:    {},
	PaymentRefunded:  {},
}

// CanTransition reports whether the order status can move from one state to
// another.
func CanTransition(from, to OrderStatus) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns an error if the order status transition is not
// allowed.
func ValidateTransition(from, to OrderStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: cannot move order from %s to %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// CanCancel reports whether an order in the given status may be cancelled.
// Shipped and delivered orders cannot be cancelled.
func CanCancel(status OrderStatus) bool {
	return CanTransition(status, StatusCancelled)
}

// CanTransitionPayment reports whether the payment sub-state can move from
// one state to another.
func CanTransitionPayment(from, to PaymentStatus) bool {
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsValidStatus reports whether the given value is a known order status.
func IsValidStatus(s OrderStatus) bool {
	_, ok := statusTransitions[s]
	return ok
}
