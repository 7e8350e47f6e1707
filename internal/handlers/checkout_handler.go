package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"

	"spotly/config"
	"spotly/internal/services"
	"spotly/internal/services/payment"
	"spotly/monitoring"
)

const (
	webhookSignatureHeader = "X-Cardpay-Signature"
	webhookMaxBodySize     = 1 << 20
	webhookDedupTTL        = 24 * time.Hour
)

type CheckoutHandler struct {
	app         *pocketbase.PocketBase
	checkout    *services.CheckoutService
	fulfillment *services.FulfillmentService
	gateway     payment.Gateway
	redis       *redis.Client
	cfg         *config.Config
}

func NewCheckoutHandler(app *pocketbase.PocketBase, checkout *services.CheckoutService, fulfillment *services.FulfillmentService, gateway payment.Gateway, redisClient *redis.Client, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{
		app:         app,
		checkout:    checkout,
		fulfillment: fulfillment,
		gateway:     gateway,
		redis:       redisClient,
		cfg:         cfg,
	}
}

// Create - Create a hosted checkout session for the authenticated buyer
func (h *CheckoutHandler) Create(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID         string `json:"event_id"`
		Quantity        int    `json:"quantity"`
		DiscountPercent int    `json:"discount_percent"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.EventID == "" || req.Quantity == 0 {
		return apis.NewBadRequestError("Event ID and quantity are required", nil)
	}

	url, err := h.checkout.CreateSession(e.Request.Context(), services.CheckoutRequest{
		UserID:          e.Auth.Id,
		EventID:         req.EventID,
		Quantity:        req.Quantity,
		DiscountPercent: req.DiscountPercent,
	})
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusCreated, map[string]any{
		"status":  "success",
		"message": "Checkout session created",
		"url":     url,
	})
}

// Webhook - Signed provider notification endpoint. Responds 2xx for every
// verified delivery that needs no retry (including irrelevant event types
// and redeliveries); non-2xx only on signature failure or a processing
// error the provider should redeliver for.
func (h *CheckoutHandler) Webhook(e *core.RequestEvent) error {
	payload, err := io.ReadAll(io.LimitReader(e.Request.Body, webhookMaxBodySize))
	if err != nil {
		return apis.NewBadRequestError("Unreadable payload", err)
	}

	event, err := h.gateway.VerifyWebhookSignature(payload, e.Request.Header.Get(webhookSignatureHeader))
	if err != nil {
		slog.Warn("webhook signature rejected", "error", err)
		monitoring.TrackWebhookEvent("unknown", "signature_failed")
		return apis.NewBadRequestError("Invalid webhook signature", err)
	}

	ctx := e.Request.Context()

	if h.isDuplicate(ctx, event.ID) {
		monitoring.TrackWebhookEvent(event.Type, "duplicate")
		return e.JSON(http.StatusOK, map[string]any{"received": true, "duplicate": true})
	}

	if err := h.fulfillment.HandleEvent(ctx, event); err != nil {
		slog.Error("webhook processing failed", "event_id", event.ID, "type", event.Type, "error", err)
		return apis.NewInternalServerError("Event processing failed", err)
	}

	h.markProcessed(ctx, event.ID)

	return e.JSON(http.StatusOK, map[string]any{"received": true})
}

// Complete - Landing route for buyers returning from the hosted checkout
func (h *CheckoutHandler) Complete(e *core.RequestEvent) error {
	sessionID := e.Request.URL.Query().Get("session_id")
	if sessionID == "" {
		return apis.NewBadRequestError("session_id is required", nil)
	}

	result, err := h.checkout.CompleteSession(e.Request.Context(), sessionID)
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusOK, result)
}

// Cancel - Cancel a pending order and send the buyer back to the frontend
func (h *CheckoutHandler) Cancel(e *core.RequestEvent) error {
	orderID := e.Request.URL.Query().Get("order_id")
	if orderID == "" {
		return apis.NewBadRequestError("order_id is required", nil)
	}

	if _, err := h.checkout.CancelOrder(e.Request.Context(), orderID); err != nil {
		return apiError(err)
	}

	return e.Redirect(http.StatusFound, h.cfg.FrontendURL+"/checkout/cancelled")
}

// isDuplicate is a fast-path skip for provider redeliveries. The
// authoritative duplicate guard is the paid-status check inside the
// fulfillment transaction; Redis just avoids re-entering it.
func (h *CheckoutHandler) isDuplicate(ctx context.Context, eventID string) bool {
	if h.redis == nil || eventID == "" {
		return false
	}
	exists, err := h.redis.Exists(ctx, webhookEventKey(eventID)).Result()
	return err == nil && exists > 0
}

func (h *CheckoutHandler) markProcessed(ctx context.Context, eventID string) {
	if h.redis == nil || eventID == "" {
		return
	}
	if err := h.redis.Set(ctx, webhookEventKey(eventID), "1", webhookDedupTTL).Err(); err != nil {
		slog.Warn("webhook dedup marker not stored", "event_id", eventID, "error", err)
	}
}

func webhookEventKey(eventID string) string {
	return fmt.Sprintf("webhook:event:%s", eventID)
}
