package domain

import (
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusDelivered, true},
		{StatusConfirmed, StatusPending, false},
		{StatusShipped, StatusCancelled, true},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusDelivered, StatusDelivered, true},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestPaymentIsOneWay(t *testing.T) {
	assert.True(t, CanTransitionPayment(PaymentStatusUnpaid, PaymentStatusPaid))
	assert.False(t, CanTransitionPayment(PaymentStatusPaid, PaymentStatusUnpaid))
	assert.True(t, CanTransitionPayment(PaymentStatusPaid, PaymentStatusPaid))
}

func TestReceiptLocatorIsDeterministic(t *testing.T) {
	id := snowflake.ID(1234567890123)
	loc := ReceiptLocator(id)
	assert.Equal(t, loc, ReceiptLocator(id))
	assert.Equal(t, "R"+strings.ToUpper(id.Base36()), loc)
	assert.NotEqual(t, loc, ReceiptLocator(id+1))
}
