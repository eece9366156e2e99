package notification

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/stylekart/server/internal/shared/events"
)

// EventHandler subscribes the notifier to order events.
type EventHandler struct {
	notifier *Notifier
	logger   *zap.Logger
}

// NewEventHandler creates a new notification event handler.
func NewEventHandler(notifier *Notifier, logger *zap.Logger) *EventHandler {
	return &EventHandler{notifier: notifier, logger: logger}
}

// Handles returns the event types this handler processes.
func (h *EventHandler) Handles() []string {
	return []string{
		events.OrderConfirmedType,
		events.OrderPaymentFailedType,
		events.OrderCancelledType,
	}
}

// Handle dispatches an order event to the matching notification. The
// notifier swallows delivery failures internally, so this only errors on an
// unexpected event payload.
func (h *EventHandler) Handle(event events.Event) error {
	switch e := event.(type) {
	case *events.OrderConfirmedEvent:
		h.notifier.OrderConfirmed(e.CustomerEmail, e.CustomerName, e.OrderID.String(), e.Total, e.TransactionID)
	case *events.OrderPaymentFailedEvent:
		h.notifier.PaymentFailed(e.CustomerEmail, e.CustomerName, e.OrderID.String(), e.Reason)
	case *events.OrderCancelledEvent:
		h.notifier.OrderCancelled(e.CustomerEmail, e.OrderID.String(), e.Refunded)
	default:
		return fmt.Errorf("unexpected event payload for type %s", event.EventType())
	}
	return nil
}
