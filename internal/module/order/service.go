package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stylekart/server/internal/shared/events"
	"github.com/stylekart/server/internal/shared/metrics"
)

// CheckoutSession is the gateway handoff payload returned to the client.
// Params carries the signed form fields the browser posts to URL.
type CheckoutSession struct {
	URL    string            `json:"url"`
	Params map[string]string `json:"params"`
}

// CheckoutPreparer builds a signed gateway checkout session for an order.
// The payment module provides the implementation.
type CheckoutPreparer interface {
	PrepareCheckout(o *Order) (*CheckoutSession, error)
}

// Service implements the order lifecycle use cases.
type Service struct {
	repo     Repository
	checkout CheckoutPreparer
	bus      *events.Bus
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewService creates a new order service.
func NewService(repo Repository, checkout CheckoutPreparer, bus *events.Bus, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		checkout: checkout,
		bus:      bus,
		metrics:  m,
		logger:   logger,
	}
}

// Create validates the request, computes totals, persists the order in the
// pending state and prepares the gateway checkout session.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, email string, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	items := make([]Item, 0, len(req.Items))
	for _, ir := range req.Items {
		items = append(items, ir.toItem())
	}

	totals, err := CalculateTotals(items)
	if err != nil {
		return nil, err
	}

	method := req.PaymentMethod
	if method == "" {
		method = MethodGateway
	}

	billing := req.ShippingAddress
	if req.BillingAddress != nil {
		billing = *req.BillingAddress
	}

	now := time.Now()
	o := &Order{
		ID:              uuid.New(),
		UserID:          userID,
		Items:           items,
		CustomerName:    req.CustomerName,
		CustomerEmail:   email,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress.toAddress(),
		BillingAddress:  billing.toAddress(),
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		ShippingCost:    totals.ShippingCost,
		Total:           totals.Total,
		Status:          StatusPending,
		Payment: PaymentDetails{
			Method: method,
			Status: PaymentPending,
		},
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.Payment.GatewayOrderID = fmt.Sprintf("TXN_%s_%d", o.ID, now.Unix())

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}

	s.metrics.OrdersCreatedTotal.Inc()
	s.logger.Info("order created",
		zap.String("order_id", o.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Float64("total", o.Total),
		zap.String("gateway_order_id", o.Payment.GatewayOrderID),
	)

	resp := &CreateOrderResponse{Order: o}

	if method == MethodGateway {
		session, err := s.checkout.PrepareCheckout(o)
		if err != nil {
			// The order exists; surface the checkout failure so the client
			// can retry the handoff.
			return nil, fmt.Errorf("preparing checkout for order %s: %w", o.ID, err)
		}
		resp.Checkout = session
	}

	return resp, nil
}

// Get returns an order visible to the requester. Non-admin requesters may
// only read their own orders.
func (s *Service) Get(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && o.UserID != requesterID {
		return nil, ErrForbidden
	}
	return o, nil
}

// List returns a page of orders. Non-admin requesters are always scoped to
// their own orders regardless of the filter.
func (s *Service) List(ctx context.Context, requesterID uuid.UUID, isAdmin bool, filter ListFilter) (*ListOrdersResponse, error) {
	if !isAdmin {
		filter.UserID = &requesterID
	}

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	return &ListOrdersResponse{
		Orders:   orders,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// UpdateStatus advances the order status along the shipping pipeline.
// Admin only; the state machine rejects anything but a forward step.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req *UpdateStatusRequest) (*Order, error) {
	if !IsValidStatus(req.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}
	if req.Status == StatusCancelled {
		return nil, fmt.Errorf("%w: use the cancellation endpoint to cancel an order", ErrValidation)
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ValidateTransition(o.Status, req.Status); err != nil {
		return nil, err
	}

	claimed, err := s.repo.TransitionStatus(ctx, id, o.Status, req.Status, req.Notes)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, fmt.Errorf("%w: order changed concurrently", ErrInvalidTransition)
	}

	o.Status = req.Status
	if req.Notes != "" {
		o.Notes = req.Notes
	}

	s.metrics.OrdersByStatusTotal.WithLabelValues(string(req.Status)).Inc()
	s.logger.Info("order status updated",
		zap.String("order_id", o.ID.String()),
		zap.String("status", string(req.Status)),
	)
	return o, nil
}

// cancelRetries bounds the re-read loop when a cancellation races a
// concurrent reconciliation.
const cancelRetries = 3

// Cancel cancels an order on behalf of its owner or an admin. A shipped or
// delivered order cannot be cancelled. If the payment had completed, it is
// marked refunded; the order totals are never mutated.
//
// The write is conditional on the state read, mirroring the payment
// transition: if a reconciliation lands between the read and the write, the
// cancel re-reads and re-applies the guards instead of overwriting the
// settled payment.
func (s *Service) Cancel(ctx context.Context, id, requesterID uuid.UUID, isAdmin bool, reason string) (*Order, error) {
	for attempt := 0; attempt < cancelRetries; attempt++ {
		o, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !isAdmin && o.UserID != requesterID {
			return nil, ErrForbidden
		}

		if o.Status == StatusCancelled {
			return o, nil
		}
		if !CanCancel(o.Status) {
			return nil, fmt.Errorf("%w: order is %s", ErrCancelNotAllowed, o.Status)
		}

		newPayment := o.Payment.Status
		refunded := false
		if o.Payment.Status == PaymentCompleted {
			newPayment = PaymentRefunded
			refunded = true
		}

		claimed, err := s.repo.TransitionCancel(ctx, id, o.Status, o.Payment.Status, CancelUpdate{
			PaymentStatus: newPayment,
			Notes:         reason,
		})
		if err != nil {
			return nil, err
		}
		if !claimed {
			// the order moved underneath us, re-read and re-apply the guards
			continue
		}

		o.Status = StatusCancelled
		o.Payment.Status = newPayment
		if reason != "" {
			o.Notes = reason
		}

		s.metrics.OrdersByStatusTotal.WithLabelValues(string(StatusCancelled)).Inc()
		s.logger.Info("order cancelled",
			zap.String("order_id", o.ID.String()),
			zap.Bool("refunded", refunded),
		)

		s.bus.Publish(events.NewOrderCancelledEvent(o.ID, o.UserID, o.CustomerEmail, refunded, reason))

		return o, nil
	}

	return nil, fmt.Errorf("%w: too many concurrent updates", ErrInvalidTransition)
}
