package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// Event is the projection of an events record consumed by the checkout
// pipeline. Inventory counters live directly on the record and are mutated
// only inside the fulfillment transaction.
type Event struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Venue        string    `json:"venue"`
	StartsAt     time.Time `json:"starts_at"`
	TicketTypeID string    `json:"ticket_type_id"`
	TicketTitle  string    `json:"ticket_title"`
	TicketPrice  float64   `json:"ticket_price"`

	TicketQuantity   int     `json:"ticket_quantity"`
	TicketsAvailable int     `json:"tickets_available"`
	TicketsSold      int     `json:"tickets_sold"`
	TotalRevenue     float64 `json:"total_revenue"`
}

func EventFromRecord(record *core.Record) *Event {
	return &Event{
		ID:               record.Id,
		Title:            record.GetString("title"),
		Description:      record.GetString("description"),
		Venue:            record.GetString("venue"),
		StartsAt:         record.GetDateTime("starts_at").Time(),
		TicketTypeID:     record.GetString("ticket_type_id"),
		TicketTitle:      record.GetString("ticket_title"),
		TicketPrice:      record.GetFloat("ticket_price"),
		TicketQuantity:   record.GetInt("ticket_quantity"),
		TicketsAvailable: record.GetInt("tickets_available"),
		TicketsSold:      record.GetInt("tickets_sold"),
		TotalRevenue:     record.GetFloat("total_revenue"),
	}
}
