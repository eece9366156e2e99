package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusConfirmed, StatusProcessing, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusDelivered, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusDelivered, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestCanCancel(t *testing.T) {
	assert.True(t, CanCancel(StatusPending))
	assert.True(t, CanCancel(StatusConfirmed))
	assert.True(t, CanCancel(StatusProcessing))
	assert.False(t, CanCancel(StatusShipped))
	assert.False(t, CanCancel(StatusDelivered))
	assert.False(t, CanCancel(StatusCancelled))
}

func TestCanTransitionPayment(t *testing.T) {
	assert.True(t, CanTransitionPayment(PaymentPending, PaymentCompleted))
	assert.True(t, CanTransitionPayment(PaymentPending, PaymentFailed))
	assert.True(t, CanTransitionPayment(PaymentCompleted, PaymentRefunded))
	assert.False(t, CanTransitionPayment(PaymentCompleted, PaymentFailed))
	assert.False(t, CanTransitionPayment(PaymentFailed, PaymentCompleted))
	assert.False(t, CanTransitionPayment(PaymentRefunded, PaymentCompleted))
	assert.False(t, CanTransitionPayment(PaymentPending, PaymentRefunded))
}

func TestValidateTransition(t *testing.T) {
	assert.NoError(t, ValidateTransition(StatusPending, StatusConfirmed))
	assert.ErrorIs(t, ValidateTransition(StatusShipped, StatusCancelled), ErrInvalidTransition)
}

func TestIsValidStatus(t *testing.T) {
	assert.True(t, IsValidStatus(StatusProcessing))
	assert.False(t, IsValidStatus(OrderStatus("refunded")))
}
