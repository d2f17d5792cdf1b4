package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextPaymentTransition_PendingToCompleted(t *testing.T) {
	tr, err := NextPaymentTransition(PaymentStatusPending, PaymentStatusCompleted)

	assert.NoError(t, err)
	assert.False(t, tr.Noop)
	assert.Equal(t, PaymentStatusCompleted, tr.PaymentStatus)
	assert.Equal(t, OrderPaymentPaid, tr.OrderPaymentStatus)
	assert.Equal(t, OrderStatusProcessing, tr.OrderStatus)
}

func TestNextPaymentTransition_PendingToFailed(t *testing.T) {
	tr, err := NextPaymentTransition(PaymentStatusPending, PaymentStatusFailed)

	assert.NoError(t, err)
	assert.False(t, tr.Noop)
	assert.Equal(t, PaymentStatusFailed, tr.PaymentStatus)
	assert.Equal(t, OrderPaymentFailed, tr.OrderPaymentStatus)
	// 失敗では注文ステータスを進めない
	assert.Equal(t, OrderStatus(""), tr.OrderStatus)
}

func TestNextPaymentTransition_SameStatusIsNoop(t *testing.T) {
	cases := []PaymentStatus{
		PaymentStatusPending,
		PaymentStatusCompleted,
		PaymentStatusFailed,
	}

	for _, s := range cases {
		tr, err := NextPaymentTransition(s, s)
		assert.NoError(t, err, string(s))
		assert.True(t, tr.Noop, string(s))
	}
}

func TestNextPaymentTransition_TerminalConflicts(t *testing.T) {
	cases := []struct {
		current  PaymentStatus
		reported PaymentStatus
	}{
		{PaymentStatusCompleted, PaymentStatusFailed},
		{PaymentStatusFailed, PaymentStatusCompleted},
		{PaymentStatusCompleted, PaymentStatusPending},
		{PaymentStatusFailed, PaymentStatusPending},
	}

	for _, c := range cases {
		_, err := NextPaymentTransition(c.current, c.reported)
		assert.ErrorIs(t, err, ErrConflictingTransition,
			string(c.current)+"→"+string(c.reported))
	}
}

func TestNextPaymentTransition_UnknownStatus(t *testing.T) {
	_, err := NextPaymentTransition(PaymentStatusPending, PaymentStatus("REFUNDED"))
	assert.ErrorIs(t, err, ErrUnknownPaymentStatus)

	_, err = NextPaymentTransition(PaymentStatus("???"), PaymentStatusCompleted)
	assert.ErrorIs(t, err, ErrUnknownPaymentStatus)
}
