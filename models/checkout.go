package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// Checkout statuses.
const (
	CheckoutPending   = "pending"
	CheckoutPaid      = "paid"
	CheckoutFailed    = "failed"
	CheckoutRefunded  = "refunded"
	CheckoutCancelled = "cancelled"
)

// PaymentMethodSummary is the display-only card summary resolved from the
// gateway during fulfillment. Placeholder values are stored when the lookup
// fails.
type PaymentMethodSummary struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

// Checkout is the receipt record, created exactly once per fulfilled order.
type Checkout struct {
	ID            string               `json:"id"`
	OrderID       string               `json:"order_id"`
	UserID        string               `json:"user_id"`
	BuyerName     string               `json:"buyer_name,omitempty"`
	BuyerEmail    string               `json:"buyer_email,omitempty"`
	BuyerPhone    string               `json:"buyer_phone,omitempty"`
	Amount        float64              `json:"amount"`
	Currency      string               `json:"currency"`
	Provider      string               `json:"provider"`
	PaymentMethod PaymentMethodSummary `json:"payment_method"`
	Status        string               `json:"status"`
	TransactionID string               `json:"transaction_id,omitempty"`
	Reference     string               `json:"reference,omitempty"`
	PaidAt        time.Time            `json:"paid_at"`
	CreatedAt     time.Time            `json:"created_at"`
}

func CheckoutFromRecord(record *core.Record) *Checkout {
	return &Checkout{
		ID:         record.Id,
		OrderID:    record.GetString("order_id"),
		UserID:     record.GetString("user_id"),
		BuyerName:  record.GetString("buyer_name"),
		BuyerEmail: record.GetString("buyer_email"),
		BuyerPhone: record.GetString("buyer_phone"),
		Amount:     record.GetFloat("amount"),
		Currency:   record.GetString("currency"),
		Provider:   record.GetString("provider"),
		PaymentMethod: PaymentMethodSummary{
			Brand:    record.GetString("payment_method_brand"),
			Last4:    record.GetString("payment_method_last4"),
			ExpMonth: record.GetInt("payment_method_exp_month"),
			ExpYear:  record.GetInt("payment_method_exp_year"),
		},
		Status:        record.GetString("status"),
		TransactionID: record.GetString("transaction_id"),
		Reference:     record.GetString("reference"),
		PaidAt:        record.GetDateTime("paid_at").Time(),
		CreatedAt:     record.GetDateTime("created").Time(),
	}
}
