package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"spotly/internal/services"
)

type TicketHandler struct {
	app     *pocketbase.PocketBase
	tickets *services.TicketService
}

func NewTicketHandler(app *pocketbase.PocketBase, ticketService *services.TicketService) *TicketHandler {
	return &TicketHandler{
		app:     app,
		tickets: ticketService,
	}
}

// Verify - Gate scan endpoint; idempotent for already-used tickets
func (h *TicketHandler) Verify(e *core.RequestEvent) error {
	token := e.Request.PathValue("ticketToken")
	if token == "" {
		return apis.NewBadRequestError("Ticket token is required", nil)
	}

	result, err := h.tickets.Verify(e.Request.Context(), token)
	if err != nil {
		return apiError(err)
	}

	message := "Ticket verified successfully"
	if result.AlreadyUsed {
		message = "Ticket already verified"
	}

	return e.JSON(http.StatusOK, map[string]any{
		"status":       "success",
		"message":      message,
		"already_used": result.AlreadyUsed,
		"ticket":       result.Ticket,
	})
}

// GetTicket - Ticket details for the owner or a superuser
func (h *TicketHandler) GetTicket(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticket, err := h.tickets.GetTicket(e.Request.Context(), e.Request.PathValue("ticketId"), e.Auth.Id, e.Auth.IsSuperuser())
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"status": "success",
		"ticket": ticket,
	})
}

// GetQRCode - Return the ticket QR code URL, minting it when missing
func (h *TicketHandler) GetQRCode(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticket, err := h.tickets.EnsureQRCode(e.Request.Context(), e.Request.PathValue("ticketId"), e.Auth.Id, e.Auth.IsSuperuser())
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"status":    "success",
		"ticket_id": ticket.ID,
		"qr_code":   ticket.QRCodeURL,
	})
}

// ListByCheckout - All tickets belonging to a checkout
func (h *TicketHandler) ListByCheckout(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	checkout, tickets, err := h.tickets.TicketsByCheckout(e.Request.Context(), e.Request.PathValue("checkoutId"), e.Auth.Id, e.Auth.IsSuperuser())
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"status":   "success",
		"count":    len(tickets),
		"checkout": checkout,
		"tickets":  tickets,
	})
}

// ListByOrder - All tickets belonging to an order's checkout
func (h *TicketHandler) ListByOrder(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	order, tickets, err := h.tickets.TicketsByOrder(e.Request.Context(), e.Request.PathValue("orderId"), e.Auth.Id, e.Auth.IsSuperuser())
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"status":  "success",
		"count":   len(tickets),
		"order":   order,
		"tickets": tickets,
	})
}
