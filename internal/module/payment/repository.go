package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventRepository stores the audit trail of gateway callbacks.
type EventRepository interface {
	Save(ctx context.Context, event *GatewayEvent) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*GatewayEvent, error)
}

type gormEventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a GORM-backed gateway event repository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &gormEventRepository{db: db}
}

func (r *gormEventRepository) Save(ctx context.Context, event *GatewayEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("saving gateway event: %w", err)
	}
	return nil
}

func (r *gormEventRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*GatewayEvent, error) {
	var events []*GatewayEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("listing gateway events: %w", err)
	}
	return events, nil
}
