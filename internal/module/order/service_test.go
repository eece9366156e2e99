package order

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/stylekart/server/internal/shared/events"
	"github.com/stylekart/server/internal/shared/metrics"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]*Order, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*Order), args.Get(1).(int64), args.Error(2)
}

func (m *mockRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to OrderStatus, notes string) (bool, error) {
	args := m.Called(ctx, id, from, to, notes)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) TransitionCancel(ctx context.Context, id uuid.UUID, fromStatus OrderStatus, fromPayment PaymentStatus, update CancelUpdate) (bool, error) {
	args := m.Called(ctx, id, fromStatus, fromPayment, update)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) TransitionPayment(ctx context.Context, id uuid.UUID, from PaymentStatus, update PaymentUpdate) (bool, error) {
	args := m.Called(ctx, id, from, update)
	return args.Bool(0), args.Error(1)
}

type mockCheckout struct {
	mock.Mock
}

func (m *mockCheckout) PrepareCheckout(o *Order) (*CheckoutSession, error) {
	args := m.Called(o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CheckoutSession), args.Error(1)
}

var testMetrics = metrics.New("order_service_test")

func newTestService(repo Repository, checkout CheckoutPreparer) *Service {
	logger := zap.NewNop()
	return NewService(repo, checkout, events.NewBus(logger), testMetrics, logger)
}

func validCreateRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		Items: []CreateItemRequest{
			{ProductID: uuid.New(), Name: "Jacket", Color: "black", Size: "M", SKU: "JKT-BLK-M", Quantity: 2, UnitPrice: 15000},
		},
		CustomerName:  "Asha Rao",
		CustomerPhone: "9999999999",
		ShippingAddress: AddressRequest{
			Line1:      "12 MG Road",
			City:       "Bengaluru",
			State:      "KA",
			PostalCode: "560001",
			Country:    "IN",
		},
	}
}

func TestService_Create(t *testing.T) {
	repo := new(mockRepository)
	checkout := new(mockCheckout)
	svc := newTestService(repo, checkout)
	userID := uuid.New()

	repo.On("Create", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)
	checkout.On("PrepareCheckout", mock.AnythingOfType("*order.Order")).
		Return(&CheckoutSession{URL: "https://test.payu.in/_payment", Params: map[string]string{"key": "gtKFFx"}}, nil)

	resp, err := svc.Create(context.Background(), userID, "asha@example.com", validCreateRequest())
	assert.NoError(t, err)

	o := resp.Order
	assert.NotEqual(t, uuid.Nil, o.ID)
	assert.Equal(t, userID, o.UserID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, PaymentPending, o.Payment.Status)
	assert.Equal(t, MethodGateway, o.Payment.Method)
	assert.Contains(t, o.Payment.GatewayOrderID, "TXN_"+o.ID.String())
	assert.InDelta(t, 32400.0, o.Total, 0.001)
	assert.Equal(t, "asha@example.com", o.CustomerEmail)
	// billing falls back to shipping when absent
	assert.Equal(t, o.ShippingAddress, o.BillingAddress)
	assert.NotNil(t, resp.Checkout)

	repo.AssertExpectations(t)
	checkout.AssertExpectations(t)
}

func TestService_Create_InvalidItems(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo, new(mockCheckout))

	req := validCreateRequest()
	req.Items[0].Quantity = 0

	_, err := svc.Create(context.Background(), uuid.New(), "a@b.c", req)
	assert.ErrorIs(t, err, ErrValidation)
	repo.AssertNotCalled(t, "Create")
}

func TestService_Get_OwnerAndAdmin(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo, new(mockCheckout))

	owner := uuid.New()
	stranger := uuid.New()
	o := &Order{ID: uuid.New(), UserID: owner, Status: StatusPending}
	repo.On("GetByID", mock.Anything, o.ID).Return(o, nil)

	t.Run("owner can read", func(t *testing.T) {
		got, err := svc.Get(context.Background(), o.ID, owner, false)
		assert.NoError(t, err)
		assert.Equal(t, o.ID, got.ID)
	})

	t.Run("stranger is rejected", func(t *testing.T) {
		_, err := svc.Get(context.Background(), o.ID, stranger, false)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin can read", func(t *testing.T) {
		got, err := svc.Get(context.Background(), o.ID, stranger, true)
		assert.NoError(t, err)
		assert.Equal(t, o.ID, got.ID)
	})
}

func TestService_List_ScopesNonAdminToOwnOrders(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo, new(mockCheckout))
	userID := uuid.New()

	repo.On("List", mock.Anything, mock.MatchedBy(func(f ListFilter) bool {
		return f.UserID != nil && *f.UserID == userID
	})).Return([]*Order{}, int64(0), nil)

	_, err := svc.List(context.Background(), userID, false, ListFilter{})
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestService_UpdateStatus(t *testing.T) {
	t.Run("forward transition succeeds", func(t *testing.T) {
		repo := new(mockRepository)
		svc := newTestService(repo, new(mockCheckout))

		o := &Order{ID: uuid.New(), Status: StatusConfirmed}
		repo.On("GetByID", mock.Anything, o.ID).Return(o, nil)
		repo.On("TransitionStatus", mock.Anything, o.ID, StatusConfirmed, StatusProcessing, "").Return(true, nil)

		got, err := svc.UpdateStatus(context.Background(), o.ID, &UpdateStatusRequest{Status: StatusProcessing})
		assert.NoError(t, err)
		assert.Equal(t, StatusProcessing, got.Status)
	})

	t.Run("skipping a stage is rejected", func(t *testing.T) {
		repo := new(mockRepository)
		svc := newTestService(repo, new(mockCheckout))

		o := &Order{ID: uuid.New(), Status: StatusPending}
		repo.On("GetByID", mock.Anything, o.ID).Return(o, nil)

		_, err := svc.UpdateStatus(context.Background(), o.ID, &UpdateStatusRequest{Status: StatusShipped})
		assert.ErrorIs(t, err, ErrInvalidTransition)
		repo.AssertNotCalled(t, "TransitionStatus")
	})

	t.Run("concurrent change is rejected", func(t *testing.T) {
		repo := new(mockRepository)
		svc := newTestService(repo, new(mockCheckout))

		o := &Order{ID: uuid.New(), Status: StatusConfirmed}
		repo.On("GetByID", mock.Anything, o.ID).Return(o, nil)
		repo.On("TransitionStatus", mock.Anything, o.ID, StatusConfirmed, StatusProcessing, "").Return(false, nil)

		_, err := svc.UpdateStatus(context.Background(), o.ID, &UpdateStatusRequest{Status: StatusProcessing})
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("cancel via status endpoint is rejected", func(t *testing.T) {
		repo := new(mockRepository)
		svc := newTestService(repo, new(mockCheckout))

		_, err := svc.UpdateStatus(context.Background(), uuid.New(), &UpdateStatusRequest{Status: StatusCancelled})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestService_Cancel(t *testing.T) {
	t.Run("pending order cancels without refund", func(t *testing.T) {
		repo := new(mockRepository)
		svc := newTestService(repo, new(mockCheckout))

		owner := uuid.New()
		o := &Order{ID: uuid.New(), UserID: owner, Status: StatusPending, Payment: PaymentDetails{Status: PaymentPending}}
		repo.On("GetByID", mock.Anything, o.ID).Return(o, nil)
		repo.On("TransitionCancel", mock.Anything, o.ID, StatusPending, PaymentPending,
			CancelUpdate{PaymentStatus: PaymentPending, Notes: "changed my mind"}).Return(true, nil)

		got, err := svc.Cancel(context.Background(), o.ID, owner, false, "changed my mind")
		assert.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.Status)
		assert.Equal(t, PaymentPending, got.Payment.Status)
	})

	t.Run("completed payment flips to refunded", func(t *testing.T) {
		repo := new(mockRepository)
		svc := newTestService(repo, new(mockCheckout))

		owner := uuid.New()
		o := &Order{ID: uuid.New(), UserID: owner, Status: StatusConfirmed, Total: 1279, Payment: PaymentDetails{Status: PaymentCompleted}}
		repo.On("GetByID", mock.Anything, o.ID).Return(o, nil)
		repo.On("TransitionCancel", mock.Anything, o.ID, StatusConfirmed, PaymentCompleted,
			CancelUpdate{PaymentStatus: PaymentRefunded}).Return(true, nil)

		got, err := svc.Cancel(context.Background(), o.ID, owner, false, "")
		assert.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.Status)
		assert.Equal(t, PaymentRefunded, got.Payment.Status)
		// refund never mutates the totals
		assert.InDelta(t, 1279.0, got.Total, 0.001)
	})

	t.Run("reconciliation landing mid-cancel is not overwritten", func(t *testing.T) {
		// Cancel reads a pending payment, but the webhook settles it before
		// the conditional write. The cancel must re-read and apply the
		// refund flip instead of writing back the stale pending state.
		repo := new(mockRepository)
		svc := newTestService(repo, new(mockCheckout))

		owner := uuid.New()
		id := uuid.New()
		before := &Order{ID: id, UserID: owner, Status: StatusPending, Payment: PaymentDetails{Status: PaymentPending}}
		after := &Order{ID: id, UserID: owner, Status: StatusConfirmed, Payment: PaymentDetails{Status: PaymentCompleted, TransactionID: "TXN_abc"}}

		repo.On("GetByID", mock.Anything, id).Return(before, nil).Once()
		repo.On("TransitionCancel", mock.Anything, id, StatusPending, PaymentPending,
			CancelUpdate{PaymentStatus: PaymentPending}).Return(false, nil).Once()
		repo.On("GetByID", mock.Anything, id).Return(after, nil).Once()
		repo.On("TransitionCancel", mock.Anything, id, StatusConfirmed, PaymentCompleted,
			CancelUpdate{PaymentStatus: PaymentRefunded}).Return(true, nil).Once()

		got, err := svc.Cancel(context.Background(), id, owner, false, "")
		assert.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.Status)
		assert.Equal(t, PaymentRefunded, got.Payment.Status)
		assert.Equal(t, "TXN_abc", got.Payment.TransactionID)
		repo.AssertExpectations(t)
	})

	t.Run("shipped order cannot be cancelled", func(t *testing.T) {
		repo := new(mockRepository)
		svc := newTestService(repo, new(mockCheckout))

		owner := uuid.New()
		o := &Order{ID: uuid.New(), UserID: owner, Status: StatusShipped}
		repo.On("GetByID", mock.Anything, o.ID).Return(o, nil)

		_, err := svc.Cancel(context.Background(), o.ID, owner, false, "")
		assert.ErrorIs(t, err, ErrCancelNotAllowed)
		repo.AssertNotCalled(t, "TransitionCancel")
	})

	t.Run("delivered order cannot be cancelled", func(t *testing.T) {
		repo := new(mockRepository)
		svc := newTestService(repo, new(mockCheckout))

		owner := uuid.New()
		o := &Order{ID: uuid.New(), UserID: owner, Status: StatusDelivered}
		repo.On("GetByID", mock.Anything, o.ID).Return(o, nil)

		_, err := svc.Cancel(context.Background(), o.ID, owner, false, "")
		assert.ErrorIs(t, err, ErrCancelNotAllowed)
	})

	t.Run("stranger cannot cancel", func(t *testing.T) {
		repo := new(mockRepository)
		svc := newTestService(repo, new(mockCheckout))

		o := &Order{ID: uuid.New(), UserID: uuid.New(), Status: StatusPending}
		repo.On("GetByID", mock.Anything, o.ID).Return(o, nil)

		_, err := svc.Cancel(context.Background(), o.ID, uuid.New(), false, "")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("cancelling twice is a no-op", func(t *testing.T) {
		repo := new(mockRepository)
		svc := newTestService(repo, new(mockCheckout))

		owner := uuid.New()
		o := &Order{ID: uuid.New(), UserID: owner, Status: StatusCancelled}
		repo.On("GetByID", mock.Anything, o.ID).Return(o, nil)

		got, err := svc.Cancel(context.Background(), o.ID, owner, false, "")
		assert.NoError(t, err)
		assert.Equal(t, StatusCancelled, got.Status)
		repo.AssertNotCalled(t, "TransitionCancel")
	})
}
