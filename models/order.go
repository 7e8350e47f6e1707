package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// Order payment statuses.
const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderCancelled = "cancelled"
	OrderFailed    = "failed"
)

// Order represents one purchase intent. It is created in pending state
// together with the hosted payment session and resolved by the webhook
// (paid), the cancel endpoint, or the stale-order sweep (cancelled).
type Order struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	EventID            string    `json:"event_id"`
	TicketTypeID       string    `json:"ticket_type_id"`
	Quantity           int       `json:"quantity"`
	DiscountPercent    int       `json:"discount_percent"`
	TotalAfterDiscount float64   `json:"total_after_discount"`
	PaymentStatus      string    `json:"payment_status"`
	SessionID          string    `json:"session_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

func OrderFromRecord(record *core.Record) *Order {
	return &Order{
		ID:                 record.Id,
		UserID:             record.GetString("user_id"),
		EventID:            record.GetString("event_id"),
		TicketTypeID:       record.GetString("ticket_type_id"),
		Quantity:           record.GetInt("quantity"),
		DiscountPercent:    record.GetInt("discount_percent"),
		TotalAfterDiscount: record.GetFloat("total_after_discount"),
		PaymentStatus:      record.GetString("payment_status"),
		SessionID:          record.GetString("session_id"),
		CreatedAt:          record.GetDateTime("created").Time(),
	}
}

// CanTransitionTo reports whether an order may move from its current payment
// status to the target one. Paid is terminal. Cancelling twice is allowed so
// the cancel endpoint stays idempotent, and paid is the one allowed exit from
// cancelled: the pending-order sweep runs well inside the payment session
// lifetime, so a confirmed payment routinely lands for an order the sweep
// already cancelled, and the payment wins.
func (o *Order) CanTransitionTo(target string) bool {
	if o.PaymentStatus == target {
		return target == OrderCancelled
	}

	switch o.PaymentStatus {
	case OrderPending:
		return target == OrderPaid || target == OrderCancelled || target == OrderFailed
	case OrderFailed:
		return target == OrderPaid || target == OrderCancelled
	case OrderCancelled:
		return target == OrderPaid
	default:
		// paid is terminal
		return false
	}
}
