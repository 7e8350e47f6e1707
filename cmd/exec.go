package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go"

	"spotly/config"
	"spotly/internal/handlers"
	"spotly/internal/services"
	"spotly/internal/services/payment/cardpay"
	_ "spotly/migrations"
	"spotly/monitoring"
	"spotly/security"
	"spotly/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	// Initialize payment gateway
	gateway := cardpay.New(&cardpay.Config{
		BaseURL:       cfg.CardpayBaseURL,
		SecretKey:     cfg.CardpaySecretKey,
		WebhookSecret: cfg.CardpayWebhookSecret,
		Timeout:       cfg.CardpayTimeout,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	checkoutService := services.NewCheckoutService(app, gateway, redisClient, cfg)
	fulfillmentService := services.NewFulfillmentService(app, gateway, pn, cfg)
	ticketService := services.NewTicketService(app, cfg)

	// Initialize handlers
	checkoutHandler := handlers.NewCheckoutHandler(app, checkoutService, fulfillmentService, gateway, redisClient, cfg)
	ticketHandler := handlers.NewTicketHandler(app, ticketService)
	orderHandler := handlers.NewOrderHandler(app)

	rateLimiter := security.NewRateLimiter(redisClient)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Start background tasks
	go checkoutService.StartPendingOrderSweep(ctx)

	if cfg.EnableMetrics {
		go func() {
			if err := monitoring.Serve(cfg.MetricsPort); err != nil {
				slog.Error("metrics listener stopped", "error", err)
			}
		}()
	}

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Checkout endpoints
		e.Router.POST("/api/v1/checkout", checkoutHandler.Create).
			Bind(apis.RequireAuth()).
			BindFunc(rateLimiter.Limit("checkout", cfg.CheckoutRateLimit, cfg.CheckoutRateWindow))
		e.Router.POST("/api/v1/checkout/webhook", checkoutHandler.Webhook)
		e.Router.GET("/api/v1/checkout/complete", checkoutHandler.Complete)
		e.Router.GET("/api/v1/checkout/cancel", checkoutHandler.Cancel)

		// Ticket endpoints
		e.Router.GET("/api/v1/tickets/verify/{ticketToken}", ticketHandler.Verify)
		e.Router.GET("/api/v1/tickets/checkout/{checkoutId}", ticketHandler.ListByCheckout).Bind(apis.RequireAuth())
		e.Router.GET("/api/v1/tickets/order/{orderId}", ticketHandler.ListByOrder).Bind(apis.RequireAuth())
		e.Router.GET("/api/v1/tickets/{ticketId}", ticketHandler.GetTicket).Bind(apis.RequireAuth())
		e.Router.GET("/api/v1/tickets/{ticketId}/qr", ticketHandler.GetQRCode).Bind(apis.RequireAuth())

		// Order endpoints
		e.Router.GET("/api/v1/orders", orderHandler.List).Bind(apis.RequireAuth())
		e.Router.GET("/api/v1/orders/{orderId}", orderHandler.Get).Bind(apis.RequireAuth())

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
