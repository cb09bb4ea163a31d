package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentStatusTransitions(t *testing.T) {
	tests := []struct {
		from PaymentStatus
		to   PaymentStatus
		want bool
	}{
		{PaymentStatusUnpaid, PaymentStatusPaid, true},
		{PaymentStatusUnpaid, PaymentStatusFailed, true},
		{PaymentStatusUnpaid, PaymentStatusRefunded, false},
		{PaymentStatusPaid, PaymentStatusRefundPending, true},
		{PaymentStatusPaid, PaymentStatusUnpaid, false},
		{PaymentStatusRefundPending, PaymentStatusRefunded, true},
		{PaymentStatusRefundPending, PaymentStatusPaid, true},
		{PaymentStatusRefunded, PaymentStatusPaid, false},
		{PaymentStatusFailed, PaymentStatusPaid, false},

		// Re-applying the current status is always allowed.
		{PaymentStatusPaid, PaymentStatusPaid, true},
		{PaymentStatusRefunded, PaymentStatusRefunded, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestSessionStatusTransitions(t *testing.T) {
	tests := []struct {
		from SessionStatus
		to   SessionStatus
		want bool
	}{
		{SessionStatusPending, SessionStatusCompleted, true},
		{SessionStatusPending, SessionStatusFailed, true},
		{SessionStatusPending, SessionStatusCancelled, true},
		{SessionStatusCompleted, SessionStatusPending, false},
		{SessionStatusCompleted, SessionStatusCancelled, false},
		{SessionStatusFailed, SessionStatusCompleted, false},
		{SessionStatusCancelled, SessionStatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestLineItemValidate(t *testing.T) {
	valid := LineItem{ProductID: "tool-7", ProductType: ProductTypeTool, Name: "Prompt Tool", UnitAmount: 1500, Quantity: 1}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*LineItem)
	}{
		{"missing name", func(li *LineItem) { li.Name = "" }},
		{"negative amount", func(li *LineItem) { li.UnitAmount = -1 }},
		{"zero quantity", func(li *LineItem) { li.Quantity = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := valid
			tt.mutate(&item)

			assert.ErrorIs(t, item.Validate(), ErrInvalidLineItem)
		})
	}
}

func TestNewPaymentSession(t *testing.T) {
	t.Run("rejects an empty item list", func(t *testing.T) {
		_, err := NewPaymentSession(nil, nil, "eur")
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("rejects invalid items", func(t *testing.T) {
		items := []LineItem{{ProductID: "x", ProductType: ProductTypeTool, Name: "X", UnitAmount: 100, Quantity: 0}}

		_, err := NewPaymentSession(nil, items, "eur")
		assert.ErrorIs(t, err, ErrInvalidLineItem)
	})

	t.Run("sums the total across quantities", func(t *testing.T) {
		items := []LineItem{
			{ProductID: "a", ProductType: ProductTypeCourse, Name: "A", UnitAmount: 4999, Quantity: 1},
			{ProductID: "b", ProductType: ProductTypeTool, Name: "B", UnitAmount: 1500, Quantity: 3},
		}

		session, err := NewPaymentSession(nil, items, "eur")
		require.NoError(t, err)

		assert.Equal(t, int64(4999+3*1500), session.AmountTotal)
		assert.Equal(t, PaymentStatusUnpaid, session.PaymentStatus)
		assert.Equal(t, SessionStatusPending, session.Status)
	})

	t.Run("generates unguessable session identifiers", func(t *testing.T) {
		items := []LineItem{{ProductID: "a", ProductType: ProductTypeTool, Name: "A", UnitAmount: 100, Quantity: 1}}

		first, err := NewPaymentSession(nil, items, "eur")
		require.NoError(t, err)

		second, err := NewPaymentSession(nil, items, "eur")
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(first.SessionID, "cs_"))
		assert.Len(t, first.SessionID, 3+64)
		assert.NotEqual(t, first.SessionID, second.SessionID)
	})
}
