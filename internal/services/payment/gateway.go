package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Webhook event types emitted by the provider. Only EventPaymentCompleted
// triggers fulfillment; everything else is acknowledged and ignored.
const (
	EventPaymentCompleted = "payment_completed"
	EventPaymentFailed    = "payment_failed"
	EventSessionExpired   = "session_expired"
)

// Session statuses reported by the provider.
const (
	SessionOpen     = "open"
	SessionComplete = "complete"
	SessionExpires  = "expired"
)

// SessionRequest describes a hosted checkout session to create. Metadata is
// echoed back verbatim on the completion webhook and is the only reliable
// channel for correlating the webhook to an order.
type SessionRequest struct {
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	ProductName   string            `json:"product_name"`
	Quantity      int               `json:"quantity"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	SuccessURL    string            `json:"success_url"`
	CancelURL     string            `json:"cancel_url"`
	ExpiresAt     time.Time         `json:"expires_at"`
	Metadata      map[string]string `json:"metadata"`
}

// Session is the provider's view of a hosted checkout session.
type Session struct {
	ID              string            `json:"id"`
	URL             string            `json:"url"`
	Status          string            `json:"status"`
	AmountTotal     decimal.Decimal   `json:"amount_total"`
	Currency        string            `json:"currency"`
	TransactionID   string            `json:"transaction_id"`
	PaymentMethodID string            `json:"payment_method_id"`
	CustomerName    string            `json:"customer_name"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerPhone   string            `json:"customer_phone"`
	Metadata        map[string]string `json:"metadata"`
	ExpiresAt       time.Time         `json:"expires_at"`
}

// PaymentMethod carries display-only card details for the receipt.
type PaymentMethod struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

// WebhookEvent is a signed provider notification.
type WebhookEvent struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Session *Session `json:"session"`
}

// Gateway is the narrow surface the pipeline needs from the card-payment
// provider, so the provider stays swappable and mockable.
type Gateway interface {
	// CreateSession creates a hosted checkout session and returns its
	// redirect URL alongside the provider session id.
	CreateSession(ctx context.Context, req *SessionRequest) (*Session, error)

	// RetrieveSession fetches the latest provider-side state of a session.
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)

	// RetrievePaymentMethod fetches display details for a payment method.
	RetrievePaymentMethod(ctx context.Context, paymentMethodID string) (*PaymentMethod, error)

	// VerifyWebhookSignature checks the signature header against the raw
	// payload and returns the decoded event on success.
	VerifyWebhookSignature(payload []byte, signatureHeader string) (*WebhookEvent, error)
}
