package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"spotly/config"
	"spotly/internal/services/payment"
	"spotly/internal/status"
	"spotly/models"
	"spotly/monitoring"
)

const sweepLockKey = "sweep:pending_orders"

// CheckoutService validates purchase requests, creates pending orders and
// delegates to the payment gateway for the hosted checkout session. No
// inventory is reserved here; the decrement happens only on confirmed
// payment (see FulfillmentService).
type CheckoutService struct {
	app     core.App
	gateway payment.Gateway
	redis   *redis.Client
	cfg     *config.Config
}

func NewCheckoutService(app core.App, gateway payment.Gateway, redisClient *redis.Client, cfg *config.Config) *CheckoutService {
	return &CheckoutService{
		app:     app,
		gateway: gateway,
		redis:   redisClient,
		cfg:     cfg,
	}
}

type CheckoutRequest struct {
	UserID          string `json:"user_id"`
	EventID         string `json:"event_id"`
	Quantity        int    `json:"quantity"`
	DiscountPercent int    `json:"discount_percent"`
}

// ComputeTotals applies the percentage discount to the base ticket price.
func ComputeTotals(basePrice float64, discountPercent, quantity int) (perTicket, total decimal.Decimal, err error) {
	if quantity <= 0 {
		return decimal.Zero, decimal.Zero, status.ErrInvalidQuantity
	}
	if discountPercent < 0 || discountPercent >= 100 {
		return decimal.Zero, decimal.Zero, status.ErrInvalidDiscount
	}

	price := decimal.NewFromFloat(basePrice)
	perTicket = price.Mul(decimal.NewFromInt(int64(100 - discountPercent))).
		Div(decimal.NewFromInt(100))
	total = perTicket.Mul(decimal.NewFromInt(int64(quantity)))

	return perTicket, total, nil
}

// CreateSession runs the checkout orchestration: availability check, pending
// order creation, gateway session creation. Returns the hosted checkout
// redirect URL.
func (s *CheckoutService) CreateSession(ctx context.Context, req CheckoutRequest) (string, error) {
	event, err := s.app.FindRecordById("events", req.EventID)
	if err != nil {
		return "", status.ErrEventNotFound
	}

	if event.GetInt("tickets_available") < req.Quantity {
		monitoring.TrackCheckoutSession("rejected")
		return "", status.ErrInsufficientInventory
	}

	perTicket, total, err := ComputeTotals(event.GetFloat("ticket_price"), req.DiscountPercent, req.Quantity)
	if err != nil {
		monitoring.TrackCheckoutSession("rejected")
		return "", err
	}

	ordersCol, err := s.app.FindCollectionByNameOrId("orders")
	if err != nil {
		return "", fmt.Errorf("find orders collection: %w", err)
	}

	order := core.NewRecord(ordersCol)
	order.Set("user_id", req.UserID)
	order.Set("event_id", req.EventID)
	order.Set("ticket_type_id", event.GetString("ticket_type_id"))
	order.Set("quantity", req.Quantity)
	order.Set("discount_percent", req.DiscountPercent)
	order.Set("total_after_discount", total.InexactFloat64())
	order.Set("payment_status", models.OrderPending)

	if err := s.app.Save(order); err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}

	session, err := s.gateway.CreateSession(ctx, &payment.SessionRequest{
		Amount:      total,
		Currency:    s.cfg.Currency,
		ProductName: event.GetString("ticket_title"),
		Quantity:    req.Quantity,
		SuccessURL:  s.cfg.PublicURL + "/api/v1/checkout/complete?session_id={SESSION_ID}",
		CancelURL:   s.cfg.PublicURL + "/api/v1/checkout/cancel?order_id=" + order.Id,
		ExpiresAt:   time.Now().Add(s.cfg.SessionExpiry),
		// The gateway echoes this metadata back verbatim on completion;
		// it is the only channel correlating the webhook to the order.
		Metadata: map[string]string{
			"order_id":       order.Id,
			"event_id":       req.EventID,
			"user_id":        req.UserID,
			"ticket_type_id": event.GetString("ticket_type_id"),
			"quantity":       fmt.Sprintf("%d", req.Quantity),
		},
	})
	if err != nil {
		order.Set("payment_status", models.OrderFailed)
		if saveErr := s.app.Save(order); saveErr != nil {
			slog.Error("mark order failed after gateway error", "order_id", order.Id, "error", saveErr)
		}
		monitoring.TrackCheckoutSession("gateway_error")
		return "", fmt.Errorf("create payment session: %w", err)
	}

	order.Set("session_id", session.ID)
	if err := s.app.Save(order); err != nil {
		slog.Error("persist session id on order", "order_id", order.Id, "error", err)
	}

	slog.Info("checkout session created",
		"order_id", order.Id,
		"event_id", req.EventID,
		"quantity", req.Quantity,
		"per_ticket", perTicket.String(),
		"total", total.String(),
	)
	monitoring.TrackCheckoutSession("created")

	return session.URL, nil
}

// CancelOrder moves a pending order to cancelled. Cancelling an already
// cancelled order is a no-op; cancelling a paid order is rejected.
func (s *CheckoutService) CancelOrder(ctx context.Context, orderID string) (*models.Order, error) {
	record, err := s.app.FindRecordById("orders", orderID)
	if err != nil {
		return nil, status.ErrOrderNotFound
	}

	order := models.OrderFromRecord(record)
	if order.PaymentStatus == models.OrderCancelled {
		return order, nil
	}
	if !order.CanTransitionTo(models.OrderCancelled) {
		return nil, status.ErrInvalidStateTransition
	}

	record.Set("payment_status", models.OrderCancelled)
	if err := s.app.Save(record); err != nil {
		return nil, fmt.Errorf("cancel order %s: %w", orderID, err)
	}

	order.PaymentStatus = models.OrderCancelled
	slog.Info("order cancelled", "order_id", orderID)
	return order, nil
}

// CompleteSession reports the order and provider status to the buyer
// returning from the hosted checkout page. Fulfillment itself happens via
// the webhook, not here.
func (s *CheckoutService) CompleteSession(ctx context.Context, sessionID string) (map[string]any, error) {
	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("retrieve session %s: %w", sessionID, err)
	}

	orderID := session.Metadata["order_id"]
	record, err := s.app.FindRecordById("orders", orderID)
	if err != nil {
		return nil, status.ErrOrderNotFound
	}

	return map[string]any{
		"order":          models.OrderFromRecord(record),
		"session_status": session.Status,
	}, nil
}

// StartPendingOrderSweep periodically cancels orders stuck in pending beyond
// the configured age, reclaiming abandoned checkouts. A Redis lock keeps
// multiple instances from sweeping at once.
func (s *CheckoutService) StartPendingOrderSweep(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	slog.Info("pending order sweep started",
		"interval", s.cfg.SweepInterval,
		"max_age", s.cfg.PendingOrderMaxAge,
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.SweepPendingOrders(ctx); err != nil {
				slog.Error("pending order sweep failed", "error", err)
			} else if n > 0 {
				slog.Info("stale pending orders cancelled", "count", n)
			}
		}
	}
}

// SweepPendingOrders cancels every order still pending beyond the max age.
// Returns the number of cancelled orders.
func (s *CheckoutService) SweepPendingOrders(ctx context.Context) (int64, error) {
	ok, err := s.acquireSweepLock(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !ok {
		return 0, nil
	}

	cutoff, err := types.ParseDateTime(time.Now().Add(-s.cfg.PendingOrderMaxAge))
	if err != nil {
		return 0, err
	}

	res, err := s.app.DB().Update(
		"orders",
		dbx.Params{
			"payment_status": models.OrderCancelled,
			"updated":        types.NowDateTime().String(),
		},
		dbx.NewExp(
			"payment_status = {:status} AND created < {:cutoff}",
			dbx.Params{"status": models.OrderPending, "cutoff": cutoff.String()},
		),
	).WithContext(ctx).Execute()
	if err != nil {
		return 0, fmt.Errorf("sweep pending orders: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}

	monitoring.TrackOrdersSwept(rows)
	return rows, nil
}

func (s *CheckoutService) acquireSweepLock(ctx context.Context) (bool, error) {
	if s.redis == nil {
		return true, nil
	}
	return s.redis.SetNX(ctx, sweepLockKey, "1", s.cfg.SweepInterval).Result()
}
