package cardpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"spotly/internal/services/payment"
	"spotly/utils"
)

// Config holds the credentials for the hosted-checkout provider.
type Config struct {
	BaseURL       string        `json:"baseUrl" mapstructure:"base_url"`
	SecretKey     string        `json:"secretKey" mapstructure:"secret_key"`
	WebhookSecret string        `json:"webhookSecret" mapstructure:"webhook_secret"`
	Timeout       time.Duration `json:"timeout" mapstructure:"timeout"`
}

// Client talks to the provider's REST API. It implements payment.Gateway.
type Client struct {
	// baseURL is the base url of the provider backend.
	baseURL string

	// secretKey authenticates API calls as a bearer token.
	secretKey string

	// webhookSecret signs webhook deliveries.
	webhookSecret string

	// tolerance bounds webhook timestamp age.
	tolerance time.Duration

	// breaker fails fast while the provider is degraded.
	breaker *utils.CircuitBreaker

	// hc is the http client.
	hc *http.Client
}

// New creates a new provider client.
func New(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:       cfg.BaseURL,
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		tolerance:     payment.DefaultSignatureTolerance,
		breaker:       utils.NewCircuitBreaker("cardpay"),
		hc: &http.Client{
			Timeout: timeout,
		},
	}
}

// CreateSession creates a hosted checkout session.
func (c *Client) CreateSession(ctx context.Context, req *payment.SessionRequest) (*payment.Session, error) {
	session := &payment.Session{}
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", req, session); err != nil {
		return nil, fmt.Errorf("cardpay: create session: %w", err)
	}
	return session, nil
}

// RetrieveSession fetches a session by id.
func (c *Client) RetrieveSession(ctx context.Context, sessionID string) (*payment.Session, error) {
	session := &payment.Session{}
	if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+sessionID, nil, session); err != nil {
		return nil, fmt.Errorf("cardpay: retrieve session %s: %w", sessionID, err)
	}
	return session, nil
}

// RetrievePaymentMethod fetches card display details by payment method id.
func (c *Client) RetrievePaymentMethod(ctx context.Context, paymentMethodID string) (*payment.PaymentMethod, error) {
	method := &payment.PaymentMethod{}
	if err := c.do(ctx, http.MethodGet, "/v1/payment_methods/"+paymentMethodID, nil, method); err != nil {
		return nil, fmt.Errorf("cardpay: retrieve payment method %s: %w", paymentMethodID, err)
	}
	return method, nil
}

// VerifyWebhookSignature checks a delivery's signature header and decodes the
// event. Verification is local; no provider round trip.
func (c *Client) VerifyWebhookSignature(payload []byte, signatureHeader string) (*payment.WebhookEvent, error) {
	if err := payment.VerifySignature(c.webhookSecret, payload, signatureHeader, c.tolerance); err != nil {
		return nil, err
	}

	event := &payment.WebhookEvent{}
	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("cardpay: decode webhook event: %w", err)
	}

	return event, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	return c.breaker.Execute(ctx, func() error {
		var reqBody io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("encode request: %w", err)
			}
			reqBody = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}

		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
		}

		if out != nil {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}

		return nil
	})
}

// APIError is a non-2xx provider response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cardpay api error: status %d: %s", e.StatusCode, e.Body)
}
