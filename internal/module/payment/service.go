package payment

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stylekart/server/internal/module/order"
	"github.com/stylekart/server/internal/shared/events"
	"github.com/stylekart/server/internal/shared/metrics"
)

// AmountTolerance is the maximum accepted difference between the order total
// and the gateway-reported amount.
const AmountTolerance = 0.01

// ReconcileResult is the transport-neutral outcome of a reconciliation call.
type ReconcileResult struct {
	Order    *order.Order
	Success  bool
	Replayed bool
	Reason   string
}

// Service reconciles gateway callbacks into authoritative order state. It is
// the single logical operation behind both the webhook and the browser
// redirect entry points.
type Service struct {
	gateway *Gateway
	orders  order.Repository
	store   EventRepository
	bus     *events.Bus
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates a new reconciliation service.
func NewService(gateway *Gateway, orders order.Repository, store EventRepository, bus *events.Bus, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		gateway: gateway,
		orders:  orders,
		store:   store,
		bus:     bus,
		metrics: m,
		logger:  logger,
	}
}

// Reconcile authenticates the callback, reconciles the amount, applies the
// payment transition exactly once and notifies on the call that performed
// it. Duplicate deliveries of an already-processed event return the original
// outcome without side effects.
func (s *Service) Reconcile(ctx context.Context, resp *GatewayResponse) (*ReconcileResult, error) {
	if err := s.gateway.VerifySignature(resp); err != nil {
		s.metrics.SignatureFailuresTotal.Inc()
		s.logger.Warn("gateway callback rejected: signature mismatch",
			zap.String("txnid", resp.TxnID),
			zap.String("status", resp.Status),
		)
		return nil, err
	}

	orderID, err := uuid.Parse(resp.UDF1)
	if err != nil {
		return nil, fmt.Errorf("%w: udf1=%q", ErrMissingOrderRef, resp.UDF1)
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	received, err := strconv.ParseFloat(resp.Amount, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable amount %q", ErrAmountMismatch, resp.Amount)
	}
	if math.Abs(o.Total-received) >= AmountTolerance {
		s.metrics.AmountMismatchesTotal.Inc()
		s.recordEvent(ctx, o.ID, resp, OutcomeAmountMismatch)
		s.logger.Warn("gateway callback rejected: amount mismatch",
			zap.String("order_id", o.ID.String()),
			zap.Float64("expected", o.Total),
			zap.Float64("received", received),
		)
		return nil, fmt.Errorf("%w: expected %.2f, received %.2f", ErrAmountMismatch, o.Total, received)
	}

	if o.IsSettled() {
		return s.resolveSettled(ctx, o, resp)
	}
	if o.Status == order.StatusCancelled {
		return s.resolveCancelled(ctx, o, resp)
	}

	success := s.gateway.IsSuccessful(resp)
	update := order.PaymentUpdate{RawResponse: resp.RawJSON()}
	if success {
		update.PaymentStatus = order.PaymentCompleted
		update.OrderStatus = order.StatusConfirmed
		update.TransactionID = resp.TxnID
		update.GatewayPaymentID = resp.MihPayID
	} else {
		update.PaymentStatus = order.PaymentFailed
		update.OrderStatus = order.StatusCancelled
		update.TransactionID = resp.TxnID
	}

	claimed, err := s.orders.TransitionPayment(ctx, o.ID, order.PaymentPending, update)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// A concurrent delivery or cancellation won the race. Reload and
		// resolve against the state that actually landed.
		o, err = s.orders.GetByID(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		if !o.IsSettled() {
			return s.resolveCancelled(ctx, o, resp)
		}
		return s.resolveSettled(ctx, o, resp)
	}

	o.Payment.Status = update.PaymentStatus
	o.Payment.TransactionID = update.TransactionID
	o.Payment.GatewayPaymentID = update.GatewayPaymentID
	o.Payment.GatewayRawResponse = update.RawResponse
	o.Status = update.OrderStatus

	result := &ReconcileResult{Order: o, Success: success}

	if success {
		s.metrics.RecordReconciliation(OutcomeCompleted)
		s.recordEvent(ctx, o.ID, resp, OutcomeCompleted)
		s.logger.Info("payment completed",
			zap.String("order_id", o.ID.String()),
			zap.String("txnid", resp.TxnID),
			zap.String("gateway_payment_id", resp.MihPayID),
		)
		s.bus.Publish(events.NewOrderConfirmedEvent(o.ID, o.UserID, o.CustomerName, o.CustomerEmail, o.Total, resp.TxnID))
	} else {
		result.Reason = s.gateway.FailureReason(resp)
		s.metrics.RecordReconciliation(OutcomeFailed)
		s.recordEvent(ctx, o.ID, resp, OutcomeFailed)
		s.logger.Info("payment failed",
			zap.String("order_id", o.ID.String()),
			zap.String("txnid", resp.TxnID),
			zap.String("reason", result.Reason),
		)
		s.bus.Publish(events.NewOrderPaymentFailedEvent(o.ID, o.UserID, o.CustomerName, o.CustomerEmail, result.Reason))
	}

	return result, nil
}

// resolveSettled handles callbacks for orders whose payment already left
// pending. A matching transaction id is an idempotent replay and returns the
// original outcome; a different one is a conflict.
func (s *Service) resolveSettled(ctx context.Context, o *order.Order, resp *GatewayResponse) (*ReconcileResult, error) {
	if o.Payment.TransactionID != resp.TxnID {
		s.metrics.RecordReconciliation(OutcomeConflict)
		s.recordEvent(ctx, o.ID, resp, OutcomeConflict)
		s.logger.Warn("gateway callback rejected: transaction conflict",
			zap.String("order_id", o.ID.String()),
			zap.String("settled_txnid", o.Payment.TransactionID),
			zap.String("callback_txnid", resp.TxnID),
		)
		return nil, fmt.Errorf("%w: order %s", ErrTransactionConflict, o.ID)
	}

	result := &ReconcileResult{
		Order:    o,
		Replayed: true,
		Success:  o.Payment.Status == order.PaymentCompleted || o.Payment.Status == order.PaymentRefunded,
	}
	if !result.Success {
		result.Reason = s.gateway.FailureReason(resp)
	}

	s.metrics.RecordReconciliation(OutcomeReplayed)
	s.recordEvent(ctx, o.ID, resp, OutcomeReplayed)
	s.logger.Info("gateway callback replayed",
		zap.String("order_id", o.ID.String()),
		zap.String("txnid", resp.TxnID),
	)
	return result, nil
}

// resolveCancelled handles callbacks for orders the user cancelled while the
// payment was still pending. The outcome is recorded for the audit trail,
// but a cancelled order is terminal: it is never moved back to confirmed and
// no notification fires.
func (s *Service) resolveCancelled(ctx context.Context, o *order.Order, resp *GatewayResponse) (*ReconcileResult, error) {
	s.metrics.RecordReconciliation(OutcomeCancelledOrder)
	s.recordEvent(ctx, o.ID, resp, OutcomeCancelledOrder)
	s.logger.Warn("gateway callback for cancelled order",
		zap.String("order_id", o.ID.String()),
		zap.String("txnid", resp.TxnID),
		zap.String("status", resp.Status),
	)
	return nil, fmt.Errorf("%w: order %s", ErrOrderCancelled, o.ID)
}

// recordEvent appends to the callback audit trail. Audit failures are logged
// and swallowed, they never affect the reconciliation outcome.
func (s *Service) recordEvent(ctx context.Context, orderID uuid.UUID, resp *GatewayResponse, outcome string) {
	event := &GatewayEvent{
		OrderID:  orderID,
		TxnID:    resp.TxnID,
		MihPayID: resp.MihPayID,
		Status:   resp.Status,
		Amount:   resp.Amount,
		Outcome:  outcome,
		Raw:      resp.RawJSON(),
	}
	if err := s.store.Save(ctx, event); err != nil {
		s.logger.Error("failed to store gateway event",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
	}
}

// Events returns the stored callback audit trail for an order.
func (s *Service) Events(ctx context.Context, orderID uuid.UUID) ([]*GatewayEvent, error) {
	return s.store.ListByOrder(ctx, orderID)
}
