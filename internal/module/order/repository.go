package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListFilter narrows and paginates order listings.
type ListFilter struct {
	UserID   *uuid.UUID
	Status   *OrderStatus
	Page     int
	PageSize int
}

// PaymentUpdate carries the fields written by a payment state transition.
type PaymentUpdate struct {
	PaymentStatus    PaymentStatus
	OrderStatus      OrderStatus
	TransactionID    string
	GatewayPaymentID string
	RawResponse      string
}

// CancelUpdate carries the fields written by a cancellation.
type CancelUpdate struct {
	PaymentStatus PaymentStatus
	Notes         string
}

// Repository defines persistence operations for orders. All mutations after
// creation are conditional updates keyed on the state the caller observed,
// so concurrent writers can never overwrite each other.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]*Order, int64, error)

	// TransitionStatus atomically advances the order status, keyed on the
	// status the caller observed. Returns false if the precondition no
	// longer held.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to OrderStatus, notes string) (bool, error)

	// TransitionCancel atomically cancels an order, keyed on both status
	// dimensions the caller observed so a concurrent reconciliation is never
	// overwritten.
	TransitionCancel(ctx context.Context, id uuid.UUID, fromStatus OrderStatus, fromPayment PaymentStatus, update CancelUpdate) (bool, error)

	// TransitionPayment atomically applies a payment transition with a single
	// conditional update keyed on the current payment status. Only a still
	// pending order can be claimed; a cancelled order stays cancelled. It
	// returns true if this call performed the transition, false if the
	// precondition no longer held (another call got there first).
	TransitionPayment(ctx context.Context, id uuid.UUID, from PaymentStatus, update PaymentUpdate) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a GORM-backed order repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, o *Order) error {
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		return fmt.Errorf("creating order: %w", err)
	}
	return nil
}

func (r *gormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	var o Order
	err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching order: %w", err)
	}
	return &o, nil
}

func (r *gormRepository) List(ctx context.Context, filter ListFilter) ([]*Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&Order{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var orders []*Order
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	return orders, total, nil
}

func (r *gormRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to OrderStatus, notes string) (bool, error) {
	values := map[string]any{
		"status":     to,
		"updated_at": time.Now(),
	}
	if notes != "" {
		values["notes"] = notes
	}

	result := r.db.WithContext(ctx).
		Model(&Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if result.Error != nil {
		return false, fmt.Errorf("transitioning status: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *gormRepository) TransitionCancel(ctx context.Context, id uuid.UUID, fromStatus OrderStatus, fromPayment PaymentStatus, update CancelUpdate) (bool, error) {
	values := map[string]any{
		"status":         StatusCancelled,
		"payment_status": update.PaymentStatus,
		"updated_at":     time.Now(),
	}
	if update.Notes != "" {
		values["notes"] = update.Notes
	}

	result := r.db.WithContext(ctx).
		Model(&Order{}).
		Where("id = ? AND status = ? AND payment_status = ?", id, fromStatus, fromPayment).
		Updates(values)
	if result.Error != nil {
		return false, fmt.Errorf("cancelling order: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *gormRepository) TransitionPayment(ctx context.Context, id uuid.UUID, from PaymentStatus, update PaymentUpdate) (bool, error) {
	values := map[string]any{
		"payment_status": update.PaymentStatus,
		"status":         update.OrderStatus,
		"updated_at":     time.Now(),
	}
	if update.TransactionID != "" {
		values["payment_transaction_id"] = update.TransactionID
	}
	if update.GatewayPaymentID != "" {
		values["payment_gateway_payment_id"] = update.GatewayPaymentID
	}
	if update.RawResponse != "" {
		values["payment_gateway_raw_response"] = update.RawResponse
	}

	// the status condition keeps a cancelled order cancelled
	result := r.db.WithContext(ctx).
		Model(&Order{}).
		Where("id = ? AND payment_status = ? AND status = ?", id, from, StatusPending).
		Updates(values)
	if result.Error != nil {
		return false, fmt.Errorf("transitioning payment: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
