package models

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// Ticket is one admission unit minted during fulfillment. It is mutated at
// most once, by gate verification.
type Ticket struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	EventID    string    `json:"event_id"`
	CheckoutID string    `json:"checkout_id"`
	QRCodeURL  string    `json:"qr_code_url,omitempty"`
	IsVerified bool      `json:"is_verified"`
	VerifiedAt time.Time `json:"verified_at,omitzero"`
	CreatedAt  time.Time `json:"created_at"`
}

// TicketFromRecord maps a tickets record; publicURL is the server base used
// to build the QR file URL.
func TicketFromRecord(record *core.Record, publicURL string) *Ticket {
	return &Ticket{
		ID:         record.Id,
		UserID:     record.GetString("user_id"),
		EventID:    record.GetString("event_id"),
		CheckoutID: record.GetString("checkout_id"),
		QRCodeURL:  TicketQRCodeURL(record, publicURL),
		IsVerified: record.GetBool("is_verified"),
		VerifiedAt: record.GetDateTime("verified_at").Time(),
		CreatedAt:  record.GetDateTime("created").Time(),
	}
}

// TicketQRCodeURL returns the served file URL for the ticket's QR image, or
// "" when no image has been attached yet.
func TicketQRCodeURL(record *core.Record, publicURL string) string {
	filename := record.GetString("qr_code")
	if filename == "" {
		return ""
	}
	return fmt.Sprintf("%s/api/files/%s/%s/%s", publicURL, record.Collection().Name, record.Id, filename)
}
