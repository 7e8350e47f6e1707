package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/filesystem"
	"github.com/pocketbase/pocketbase/tools/mailer"
	"github.com/pocketbase/pocketbase/tools/types"
	pubnub "github.com/pubnub/go"

	"spotly/config"
	"spotly/internal/services/payment"
	"spotly/internal/status"
	"spotly/models"
	"spotly/monitoring"
	"spotly/utils"
)

// FulfillmentService turns a confirmed payment into tickets. Everything it
// persists happens in one transaction: order marked paid, receipt created,
// tickets minted with QR codes, event counters updated. Redelivered webhook
// events are absorbed by the paid-status check at the top of the
// transaction.
type FulfillmentService struct {
	app     core.App
	gateway payment.Gateway
	pubnub  *pubnub.PubNub
	cfg     *config.Config
}

func NewFulfillmentService(app core.App, gateway payment.Gateway, pn *pubnub.PubNub, cfg *config.Config) *FulfillmentService {
	return &FulfillmentService{
		app:     app,
		gateway: gateway,
		pubnub:  pn,
		cfg:     cfg,
	}
}

// FulfillmentResult captures the committed transaction output for the
// post-commit notification step.
type FulfillmentResult struct {
	OrderID    string
	CheckoutID string
	EventID    string
	EventTitle string
	UserID     string
	BuyerName  string
	BuyerEmail string
	Quantity   int
	Amount     float64
	Currency   string
	Reference  string
	TicketIDs  []string
}

// HandleEvent dispatches a verified webhook event. Only payment completions
// trigger fulfillment; every other type is acknowledged and ignored so the
// provider stops retrying.
func (s *FulfillmentService) HandleEvent(ctx context.Context, event *payment.WebhookEvent) error {
	switch event.Type {
	case payment.EventPaymentCompleted:
		monitoring.TrackWebhookEvent(event.Type, "processed")
		return s.Fulfill(ctx, event.Session)
	default:
		slog.Info("webhook event ignored", "event_id", event.ID, "type", event.Type)
		monitoring.TrackWebhookEvent(event.Type, "ignored")
		return nil
	}
}

// Fulfill runs the fulfillment transaction for a completed session, retrying
// on transient write conflicts before surfacing failure to the webhook
// handler (which then signals the provider to redeliver).
func (s *FulfillmentService) Fulfill(ctx context.Context, session *payment.Session) error {
	if session == nil || session.Metadata["order_id"] == "" {
		return errors.New("fulfillment: completed session carries no order metadata")
	}

	start := time.Now()

	var err error
	for attempt := 0; ; attempt++ {
		err = s.fulfillOnce(ctx, session)
		if err == nil {
			monitoring.ObserveFulfillment(time.Since(start), "ok")
			return nil
		}
		if !isTransientConflict(err) || attempt >= s.cfg.FulfillMaxRetries {
			break
		}

		backoff := s.cfg.FulfillRetryBackoff * time.Duration(attempt+1)
		slog.Warn("fulfillment conflict, retrying",
			"order_id", session.Metadata["order_id"],
			"attempt", attempt+1,
			"backoff", backoff,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	monitoring.ObserveFulfillment(time.Since(start), "error")
	return err
}

func (s *FulfillmentService) fulfillOnce(ctx context.Context, session *payment.Session) error {
	orderID := session.Metadata["order_id"]

	// Cheap pre-check so redeliveries skip the gateway lookup. The
	// authoritative check is the one inside the transaction.
	record, err := s.app.FindRecordById("orders", orderID)
	if err != nil {
		return fmt.Errorf("fulfillment: %w: %s", status.ErrOrderNotFound, orderID)
	}
	if record.GetString("payment_status") == models.OrderPaid {
		slog.Info("order already fulfilled, skipping", "order_id", orderID)
		return nil
	}

	method := s.resolvePaymentMethod(ctx, session)

	var result *FulfillmentResult
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		order, err := txApp.FindRecordById("orders", orderID)
		if err != nil {
			return fmt.Errorf("load order: %w", err)
		}
		// Idempotency rule: a redelivered event for an already paid order
		// commits nothing. Must stay the first check in the transaction.
		current := models.OrderFromRecord(order)
		if current.PaymentStatus == models.OrderPaid {
			return nil
		}
		if !current.CanTransitionTo(models.OrderPaid) {
			return fmt.Errorf("fulfillment: order %s cannot move from %s to paid", orderID, current.PaymentStatus)
		}
		if current.PaymentStatus == models.OrderCancelled {
			// The sweep cancels pending orders long before the payment
			// session expires, so a confirmed payment routinely arrives
			// after the order was swept to cancelled. The payment outranks
			// the sweep.
			slog.Info("completing order cancelled before payment confirmation", "order_id", orderID)
		}

		event, err := txApp.FindRecordById("events", order.GetString("event_id"))
		if err != nil {
			return fmt.Errorf("load event: %w", err)
		}

		checkout, err := s.createCheckout(txApp, order, session, method)
		if err != nil {
			return err
		}

		order.Set("payment_status", models.OrderPaid)
		if err := txApp.Save(order); err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}

		ticketIDs, err := s.mintTickets(txApp, order, checkout)
		if err != nil {
			return err
		}

		quantity := order.GetInt("quantity")
		charged := order.GetFloat("total_after_discount")

		// No floor clamp on tickets_available: the checkout-time
		// availability check plus once-only fulfillment is the contract,
		// and a negative value under a concurrent-purchase race is
		// tolerated rather than silently corrected.
		event.Set("tickets_sold", event.GetInt("tickets_sold")+quantity)
		event.Set("tickets_available", event.GetInt("tickets_available")-quantity)
		event.Set("total_revenue", event.GetFloat("total_revenue")+charged)
		if err := txApp.Save(event); err != nil {
			return fmt.Errorf("update event analytics: %w", err)
		}

		result = &FulfillmentResult{
			OrderID:    order.Id,
			CheckoutID: checkout.Id,
			EventID:    event.Id,
			EventTitle: event.GetString("title"),
			UserID:     order.GetString("user_id"),
			BuyerName:  checkout.GetString("buyer_name"),
			BuyerEmail: checkout.GetString("buyer_email"),
			Quantity:   quantity,
			Amount:     charged,
			Currency:   checkout.GetString("currency"),
			Reference:  checkout.GetString("reference"),
			TicketIDs:  ticketIDs,
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	// result stays nil when the transaction hit the idempotency check.
	if result != nil {
		monitoring.TrackTicketsMinted(len(result.TicketIDs))
		slog.Info("order fulfilled",
			"order_id", result.OrderID,
			"checkout_id", result.CheckoutID,
			"tickets", len(result.TicketIDs),
			"amount", result.Amount,
		)
		go s.notify(result)
	}

	return nil
}

func (s *FulfillmentService) createCheckout(txApp core.App, order *core.Record, session *payment.Session, method *payment.PaymentMethod) (*core.Record, error) {
	col, err := txApp.FindCollectionByNameOrId("checkouts")
	if err != nil {
		return nil, fmt.Errorf("find checkouts collection: %w", err)
	}

	reference, err := utils.GenerateCode(4)
	if err != nil {
		return nil, fmt.Errorf("generate receipt reference: %w", err)
	}

	checkout := core.NewRecord(col)
	checkout.Set("order_id", order.Id)
	checkout.Set("user_id", order.GetString("user_id"))
	checkout.Set("buyer_name", session.CustomerName)
	checkout.Set("buyer_email", session.CustomerEmail)
	checkout.Set("buyer_phone", session.CustomerPhone)
	checkout.Set("amount", order.GetFloat("total_after_discount"))
	checkout.Set("currency", s.currencyFor(session))
	checkout.Set("provider", "cardpay")
	checkout.Set("payment_method_brand", method.Brand)
	checkout.Set("payment_method_last4", method.Last4)
	checkout.Set("payment_method_exp_month", method.ExpMonth)
	checkout.Set("payment_method_exp_year", method.ExpYear)
	checkout.Set("status", models.CheckoutPaid)
	checkout.Set("transaction_id", session.TransactionID)
	checkout.Set("reference", reference)
	checkout.Set("paid_at", types.NowDateTime())

	if err := txApp.Save(checkout); err != nil {
		return nil, fmt.Errorf("create checkout record: %w", err)
	}

	return checkout, nil
}

func (s *FulfillmentService) mintTickets(txApp core.App, order, checkout *core.Record) ([]string, error) {
	col, err := txApp.FindCollectionByNameOrId("tickets")
	if err != nil {
		return nil, fmt.Errorf("find tickets collection: %w", err)
	}

	eventID := order.GetString("event_id")
	userID := order.GetString("user_id")
	quantity := order.GetInt("quantity")

	ticketIDs := make([]string, 0, quantity)
	for i := 0; i < quantity; i++ {
		ticket := core.NewRecord(col)
		// The id is generated up front so the signed token can embed it
		// before the record exists.
		ticket.Id = core.GenerateDefaultRandomId()

		token, err := utils.GenerateTicketToken(s.cfg.TicketTokenSecret, ticket.Id, eventID, userID, s.cfg.TicketTokenTTL)
		if err != nil {
			return nil, fmt.Errorf("ticket token: %w", err)
		}

		png, err := utils.RenderQRCode(token)
		if err != nil {
			return nil, err
		}

		file, err := filesystem.NewFileFromBytes(png, fmt.Sprintf("ticket-%s.png", ticket.Id))
		if err != nil {
			return nil, fmt.Errorf("qr code file: %w", err)
		}

		ticket.Set("user_id", userID)
		ticket.Set("event_id", eventID)
		ticket.Set("checkout_id", checkout.Id)
		ticket.Set("qr_code", file)
		ticket.Set("is_verified", false)

		if err := txApp.Save(ticket); err != nil {
			return nil, fmt.Errorf("create ticket %d of %d: %w", i+1, quantity, err)
		}

		ticketIDs = append(ticketIDs, ticket.Id)
	}

	return ticketIDs, nil
}

// resolvePaymentMethod fetches display-only card details for the receipt.
// Lookup failure never fails fulfillment; placeholders are stored instead.
func (s *FulfillmentService) resolvePaymentMethod(ctx context.Context, session *payment.Session) *payment.PaymentMethod {
	placeholder := &payment.PaymentMethod{Type: "card", Brand: "card", Last4: "0000"}

	if session.PaymentMethodID == "" {
		return placeholder
	}

	method, err := s.gateway.RetrievePaymentMethod(ctx, session.PaymentMethodID)
	if err != nil {
		slog.Warn("payment method lookup failed, using placeholder",
			"payment_method_id", session.PaymentMethodID,
			"error", err,
		)
		return placeholder
	}

	return method
}

func (s *FulfillmentService) currencyFor(session *payment.Session) string {
	if session.Currency != "" {
		return session.Currency
	}
	return s.cfg.Currency
}

// notify runs strictly after commit. Both channels are fire-and-forget: a
// failed email or publish never affects the committed fulfillment.
func (s *FulfillmentService) notify(result *FulfillmentResult) {
	if err := s.sendReceiptEmail(result); err != nil {
		slog.Error("receipt email failed", "order_id", result.OrderID, "error", err)
	}

	if s.pubnub != nil {
		_, _, err := s.pubnub.Publish().
			Channel("user-" + result.UserID).
			Message(map[string]any{
				"type":        "payment_success",
				"order_id":    result.OrderID,
				"checkout_id": result.CheckoutID,
				"ticket_ids":  result.TicketIDs,
			}).
			Execute()
		if err != nil {
			slog.Error("payment notification publish failed", "order_id", result.OrderID, "error", err)
		}
	}
}

func (s *FulfillmentService) sendReceiptEmail(result *FulfillmentResult) error {
	if result.BuyerEmail == "" {
		return nil
	}

	message := &mailer.Message{
		From: mail.Address{
			Address: s.app.Settings().Meta.SenderAddress,
			Name:    s.app.Settings().Meta.SenderName,
		},
		To:      []mail.Address{{Address: result.BuyerEmail, Name: result.BuyerName}},
		Subject: fmt.Sprintf("Your tickets for %s", result.EventTitle),
		HTML:    receiptHTML(result),
	}

	return s.app.NewMailClient().Send(message)
}

func receiptHTML(result *FulfillmentResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<h2>Thanks for your purchase, %s!</h2>", result.BuyerName))
	b.WriteString(fmt.Sprintf("<p>Your payment for <strong>%s</strong> was received.</p>", result.EventTitle))
	b.WriteString("<table border=\"0\" cellpadding=\"4\">")
	b.WriteString(fmt.Sprintf("<tr><td>Receipt</td><td>%s</td></tr>", result.Reference))
	b.WriteString(fmt.Sprintf("<tr><td>Tickets</td><td>%d</td></tr>", result.Quantity))
	b.WriteString(fmt.Sprintf("<tr><td>Total</td><td>%.2f %s</td></tr>", result.Amount, strings.ToUpper(result.Currency)))
	b.WriteString("</table>")
	b.WriteString("<p>Your QR-coded tickets are available in your account. Present them at the gate.</p>")
	return b.String()
}

// isTransientConflict reports whether the error looks like a SQLite write
// conflict worth retrying.
func isTransientConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "table is locked") ||
		strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "busy")
}
