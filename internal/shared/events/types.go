package events

import "github.com/google/uuid"

// Order event type constants.
const (
	OrderConfirmedType     = "OrderConfirmed"
	OrderPaymentFailedType = "OrderPaymentFailed"
	OrderCancelledType     = "OrderCancelled"
)

// OrderConfirmedEvent is emitted when a payment completes and the order is
// confirmed. Emitted exactly once per order, by the reconciliation call that
// performed the payment transition.
type OrderConfirmedEvent struct {
	BaseEvent

	OrderID       uuid.UUID `json:"order_id"`
	UserID        uuid.UUID `json:"user_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	Total         float64   `json:"total"`
	TransactionID string    `json:"transaction_id"`
}

// NewOrderConfirmedEvent creates a new OrderConfirmedEvent.
func NewOrderConfirmedEvent(orderID, userID uuid.UUID, name, email string, total float64, txnID string) *OrderConfirmedEvent {
	return &OrderConfirmedEvent{
		BaseEvent:     NewBaseEvent(OrderConfirmedType, orderID, "Order"),
		OrderID:       orderID,
		UserID:        userID,
		CustomerName:  name,
		CustomerEmail: email,
		Total:         total,
		TransactionID: txnID,
	}
}

// OrderPaymentFailedEvent is emitted when the gateway reports a non-success
// outcome and the order is cancelled.
type OrderPaymentFailedEvent struct {
	BaseEvent

	OrderID       uuid.UUID `json:"order_id"`
	UserID        uuid.UUID `json:"user_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	Reason        string    `json:"reason"`
}

// NewOrderPaymentFailedEvent creates a new OrderPaymentFailedEvent.
func NewOrderPaymentFailedEvent(orderID, userID uuid.UUID, name, email, reason string) *OrderPaymentFailedEvent {
	return &OrderPaymentFailedEvent{
		BaseEvent:     NewBaseEvent(OrderPaymentFailedType, orderID, "Order"),
		OrderID:       orderID,
		UserID:        userID,
		CustomerName:  name,
		CustomerEmail: email,
		Reason:        reason,
	}
}

// OrderCancelledEvent is emitted when a user or admin cancels an order.
type OrderCancelledEvent struct {
	BaseEvent

	OrderID       uuid.UUID `json:"order_id"`
	UserID        uuid.UUID `json:"user_id"`
	CustomerEmail string    `json:"customer_email"`
	Refunded      bool      `json:"refunded"`
	Reason        string    `json:"reason"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent.
func NewOrderCancelledEvent(orderID, userID uuid.UUID, email string, refunded bool, reason string) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseEvent:     NewBaseEvent(OrderCancelledType, orderID, "Order"),
		OrderID:       orderID,
		UserID:        userID,
		CustomerEmail: email,
		Refunded:      refunded,
		Reason:        reason,
	}
}
