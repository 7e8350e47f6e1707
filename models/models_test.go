package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{OrderPending, OrderPaid, true},
		{OrderPending, OrderCancelled, true},
		{OrderPending, OrderFailed, true},

		{OrderFailed, OrderPaid, true},
		{OrderFailed, OrderCancelled, true},
		{OrderFailed, OrderPending, false},

		// paid is terminal
		{OrderPaid, OrderCancelled, false},
		{OrderPaid, OrderPending, false},
		{OrderPaid, OrderFailed, false},
		{OrderPaid, OrderPaid, false},

		// re-cancelling is allowed so the cancel endpoint stays idempotent,
		// and a payment confirmed after the sweep still completes the order
		{OrderCancelled, OrderCancelled, true},
		{OrderCancelled, OrderPaid, true},
		{OrderCancelled, OrderPending, false},
		{OrderCancelled, OrderFailed, false},

		{OrderPending, OrderPending, false},
	}

	for _, tt := range tests {
		order := &Order{PaymentStatus: tt.from}
		assert.Equal(t, tt.allowed, order.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}
