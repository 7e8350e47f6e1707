package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/filesystem"
	"github.com/pocketbase/pocketbase/tools/types"

	"spotly/config"
	"spotly/internal/status"
	"spotly/models"
	"spotly/monitoring"
	"spotly/utils"
)

// TicketService verifies scanned ticket tokens at the gate and serves
// ticket lookups for buyers.
type TicketService struct {
	app core.App
	cfg *config.Config
}

func NewTicketService(app core.App, cfg *config.Config) *TicketService {
	return &TicketService{app: app, cfg: cfg}
}

// VerificationResult is the gate-scan response. AlreadyUsed distinguishes a
// re-scan from a first admission without treating it as an error.
type VerificationResult struct {
	AlreadyUsed bool           `json:"already_used"`
	Ticket      *models.Ticket `json:"ticket"`
}

// Verify decodes a scanned token, cross-checks it against the stored ticket
// and marks the ticket consumed exactly once.
func (s *TicketService) Verify(ctx context.Context, token string) (*VerificationResult, error) {
	claims, err := utils.VerifyTicketToken(s.cfg.TicketTokenSecret, token)
	if err != nil {
		monitoring.TrackTicketVerification("invalid_token")
		return nil, err
	}

	record, err := s.app.FindRecordById("tickets", claims.TicketID)
	if err != nil {
		monitoring.TrackTicketVerification("not_found")
		return nil, status.ErrTicketNotFound
	}

	// A valid signature is not enough: the token must describe this exact
	// ticket, or it was minted for a different record and tampered with.
	if record.GetString("event_id") != claims.EventID || record.GetString("user_id") != claims.UserID {
		monitoring.TrackTicketVerification("mismatch")
		return nil, status.ErrTokenMismatch
	}

	if checkoutID := record.GetString("checkout_id"); checkoutID != "" {
		// A checkout that cannot be loaded cannot be paid.
		checkout, err := s.app.FindRecordById("checkouts", checkoutID)
		if err != nil || checkout.GetString("status") != models.CheckoutPaid {
			monitoring.TrackTicketVerification("payment_incomplete")
			return nil, status.ErrPaymentIncomplete
		}
	}

	if record.GetBool("is_verified") {
		monitoring.TrackTicketVerification("already_used")
		return &VerificationResult{
			AlreadyUsed: true,
			Ticket:      models.TicketFromRecord(record, s.cfg.PublicURL),
		}, nil
	}

	record.Set("is_verified", true)
	record.Set("verified_at", types.NowDateTime())
	if err := s.app.Save(record); err != nil {
		return nil, fmt.Errorf("mark ticket verified: %w", err)
	}

	slog.Info("ticket verified", "ticket_id", record.Id, "event_id", claims.EventID)
	monitoring.TrackTicketVerification("verified")

	return &VerificationResult{
		AlreadyUsed: false,
		Ticket:      models.TicketFromRecord(record, s.cfg.PublicURL),
	}, nil
}

// GetTicket returns a single ticket, restricted to its owner or a superuser.
func (s *TicketService) GetTicket(ctx context.Context, ticketID, requesterID string, isAdmin bool) (*models.Ticket, error) {
	record, err := s.app.FindRecordById("tickets", ticketID)
	if err != nil {
		return nil, status.ErrTicketNotFound
	}
	if !isAdmin && record.GetString("user_id") != requesterID {
		return nil, status.ErrForbidden
	}

	return models.TicketFromRecord(record, s.cfg.PublicURL), nil
}

// EnsureQRCode returns the ticket's QR code URL, minting the token and image
// for tickets that predate QR generation.
func (s *TicketService) EnsureQRCode(ctx context.Context, ticketID, requesterID string, isAdmin bool) (*models.Ticket, error) {
	record, err := s.app.FindRecordById("tickets", ticketID)
	if err != nil {
		return nil, status.ErrTicketNotFound
	}
	if !isAdmin && record.GetString("user_id") != requesterID {
		return nil, status.ErrForbidden
	}

	if record.GetString("qr_code") != "" {
		return models.TicketFromRecord(record, s.cfg.PublicURL), nil
	}

	token, err := utils.GenerateTicketToken(
		s.cfg.TicketTokenSecret,
		record.Id,
		record.GetString("event_id"),
		record.GetString("user_id"),
		s.cfg.TicketTokenTTL,
	)
	if err != nil {
		return nil, err
	}

	png, err := utils.RenderQRCode(token)
	if err != nil {
		return nil, err
	}

	file, err := filesystem.NewFileFromBytes(png, fmt.Sprintf("ticket-%s.png", record.Id))
	if err != nil {
		return nil, fmt.Errorf("qr code file: %w", err)
	}

	record.Set("qr_code", file)
	if err := s.app.Save(record); err != nil {
		return nil, fmt.Errorf("attach qr code: %w", err)
	}

	return models.TicketFromRecord(record, s.cfg.PublicURL), nil
}

// TicketsByCheckout lists the ticket batch owned by a checkout.
func (s *TicketService) TicketsByCheckout(ctx context.Context, checkoutID, requesterID string, isAdmin bool) (*models.Checkout, []*models.Ticket, error) {
	checkoutRecord, err := s.app.FindRecordById("checkouts", checkoutID)
	if err != nil {
		return nil, nil, status.ErrCheckoutNotFound
	}
	if !isAdmin && checkoutRecord.GetString("user_id") != requesterID {
		return nil, nil, status.ErrForbidden
	}

	tickets, err := s.listTickets(checkoutID)
	if err != nil {
		return nil, nil, err
	}

	return models.CheckoutFromRecord(checkoutRecord), tickets, nil
}

// TicketsByOrder resolves the order's checkout and lists its tickets. An
// order without a checkout (payment never confirmed) yields an empty list.
func (s *TicketService) TicketsByOrder(ctx context.Context, orderID, requesterID string, isAdmin bool) (*models.Order, []*models.Ticket, error) {
	orderRecord, err := s.app.FindRecordById("orders", orderID)
	if err != nil {
		return nil, nil, status.ErrOrderNotFound
	}
	if !isAdmin && orderRecord.GetString("user_id") != requesterID {
		return nil, nil, status.ErrForbidden
	}

	order := models.OrderFromRecord(orderRecord)

	checkoutRecord, err := s.app.FindFirstRecordByFilter(
		"checkouts",
		"order_id = {:orderId}",
		map[string]any{"orderId": orderID},
	)
	if err != nil {
		return order, []*models.Ticket{}, nil
	}

	tickets, err := s.listTickets(checkoutRecord.Id)
	if err != nil {
		return nil, nil, err
	}

	return order, tickets, nil
}

func (s *TicketService) listTickets(checkoutID string) ([]*models.Ticket, error) {
	records, err := s.app.FindRecordsByFilter(
		"tickets",
		"checkout_id = {:checkoutId}",
		"created",
		-1,
		0,
		map[string]any{"checkoutId": checkoutID},
	)
	if err != nil {
		return nil, fmt.Errorf("list tickets for checkout %s: %w", checkoutID, err)
	}

	tickets := make([]*models.Ticket, len(records))
	for i, record := range records {
		tickets[i] = models.TicketFromRecord(record, s.cfg.PublicURL)
	}
	return tickets, nil
}
