package services

import (
	"context"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotly/internal/status"
	"spotly/models"
	"spotly/utils"
)

func createTestCheckout(t *testing.T, app core.App, user, order *core.Record, checkoutStatus string) *core.Record {
	col, err := app.FindCollectionByNameOrId("checkouts")
	require.NoError(t, err)

	checkout := core.NewRecord(col)
	checkout.Set("order_id", order.Id)
	checkout.Set("user_id", user.Id)
	checkout.Set("amount", order.GetFloat("total_after_discount"))
	checkout.Set("currency", "egp")
	checkout.Set("provider", "cardpay")
	checkout.Set("status", checkoutStatus)
	require.NoError(t, app.Save(checkout))
	return checkout
}

func createTestTicket(t *testing.T, app core.App, user, event, checkout *core.Record) *core.Record {
	col, err := app.FindCollectionByNameOrId("tickets")
	require.NoError(t, err)

	ticket := core.NewRecord(col)
	ticket.Set("user_id", user.Id)
	ticket.Set("event_id", event.Id)
	ticket.Set("checkout_id", checkout.Id)
	ticket.Set("is_verified", false)
	require.NoError(t, app.Save(ticket))
	return ticket
}

func TestVerify_MarksTicketOnce(t *testing.T) {
	app := newTestApp(t)
	cfg := testConfig()
	user := createTestUser(t, app)
	event := createTestEvent(t, app, 5)
	order := createTestOrder(t, app, user, event, 1, models.OrderPaid)
	checkout := createTestCheckout(t, app, user, order, models.CheckoutPaid)
	ticket := createTestTicket(t, app, user, event, checkout)

	token, err := utils.GenerateTicketToken(cfg.TicketTokenSecret, ticket.Id, event.Id, user.Id, time.Hour)
	require.NoError(t, err)

	s := NewTicketService(app, cfg)

	result, err := s.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, result.AlreadyUsed)

	verified, err := app.FindRecordById("tickets", ticket.Id)
	require.NoError(t, err)
	assert.True(t, verified.GetBool("is_verified"))
	firstVerifiedAt := verified.GetDateTime("verified_at")
	assert.False(t, firstVerifiedAt.IsZero())

	// Re-scan is flagged, not an error, and mutates nothing
	result, err = s.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, result.AlreadyUsed)

	rescanned, err := app.FindRecordById("tickets", ticket.Id)
	require.NoError(t, err)
	assert.Equal(t, firstVerifiedAt.String(), rescanned.GetDateTime("verified_at").String())
}

func TestVerify_TokenMismatch(t *testing.T) {
	app := newTestApp(t)
	cfg := testConfig()
	user := createTestUser(t, app)
	event := createTestEvent(t, app, 5)
	otherEvent := createTestEvent(t, app, 5)
	order := createTestOrder(t, app, user, event, 1, models.OrderPaid)
	checkout := createTestCheckout(t, app, user, order, models.CheckoutPaid)
	ticket := createTestTicket(t, app, user, event, checkout)

	// Validly signed token describing a different event than the record
	token, err := utils.GenerateTicketToken(cfg.TicketTokenSecret, ticket.Id, otherEvent.Id, user.Id, time.Hour)
	require.NoError(t, err)

	s := NewTicketService(app, cfg)

	_, err = s.Verify(context.Background(), token)
	assert.ErrorIs(t, err, status.ErrTokenMismatch)

	unchanged, err := app.FindRecordById("tickets", ticket.Id)
	require.NoError(t, err)
	assert.False(t, unchanged.GetBool("is_verified"))
}

func TestVerify_PaymentIncomplete(t *testing.T) {
	app := newTestApp(t)
	cfg := testConfig()
	user := createTestUser(t, app)
	event := createTestEvent(t, app, 5)
	order := createTestOrder(t, app, user, event, 1, models.OrderPending)
	checkout := createTestCheckout(t, app, user, order, models.CheckoutPending)
	ticket := createTestTicket(t, app, user, event, checkout)

	token, err := utils.GenerateTicketToken(cfg.TicketTokenSecret, ticket.Id, event.Id, user.Id, time.Hour)
	require.NoError(t, err)

	s := NewTicketService(app, cfg)

	_, err = s.Verify(context.Background(), token)
	assert.ErrorIs(t, err, status.ErrPaymentIncomplete)
}

func TestVerify_MissingCheckoutFailsClosed(t *testing.T) {
	app := newTestApp(t)
	cfg := testConfig()
	user := createTestUser(t, app)
	event := createTestEvent(t, app, 5)
	order := createTestOrder(t, app, user, event, 1, models.OrderPaid)
	checkout := createTestCheckout(t, app, user, order, models.CheckoutPaid)
	ticket := createTestTicket(t, app, user, event, checkout)

	// Orphan the ticket: its checkout reference no longer resolves
	ticket.Set("checkout_id", "gone0000000gone")
	require.NoError(t, app.SaveNoValidate(ticket))

	token, err := utils.GenerateTicketToken(cfg.TicketTokenSecret, ticket.Id, event.Id, user.Id, time.Hour)
	require.NoError(t, err)

	s := NewTicketService(app, cfg)

	_, err = s.Verify(context.Background(), token)
	assert.ErrorIs(t, err, status.ErrPaymentIncomplete)
}

func TestVerify_UnknownTicket(t *testing.T) {
	app := newTestApp(t)
	cfg := testConfig()
	user := createTestUser(t, app)
	event := createTestEvent(t, app, 5)

	token, err := utils.GenerateTicketToken(cfg.TicketTokenSecret, "nosuchticket123", event.Id, user.Id, time.Hour)
	require.NoError(t, err)

	s := NewTicketService(app, cfg)

	_, err = s.Verify(context.Background(), token)
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
}
