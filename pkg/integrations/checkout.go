package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/maya/out-and-about/pkg/domain"
)

// CheckoutClient creates payment sessions for ticket purchases. The backend
// is Stripe-shaped: form-encoded POST, bearer auth, and an Idempotency-Key
// header so a retried request never double-charges.
type CheckoutClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

type CheckoutConfig struct {
	SecretKey string
	BaseURL   string // override for tests
}

func NewCheckoutClient(config CheckoutConfig) (*CheckoutClient, error) {
	if config.SecretKey == "" {
		return nil, fmt.Errorf("checkout secret key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.stripe.com/v1"
	}

	return &CheckoutClient{
		baseURL:    baseURL,
		secretKey:  config.SecretKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type checkoutSessionResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// CreateCheckoutSession implements domain.CheckoutGateway.
func (c *CheckoutClient) CreateCheckoutSession(ctx context.Context, eventID, idempotencyKey string, quantity int) (*domain.CheckoutSession, error) {
	if eventID == "" || idempotencyKey == "" || quantity < 1 {
		return nil, domain.ErrInvalidRequest
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("ui_mode", "embedded")
	form.Set("metadata[event_id]", eventID)
	form.Set("metadata[quantity]", strconv.Itoa(quantity))

	sessionURL := fmt.Sprintf("%s/checkout/sessions", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", sessionURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimitExceeded
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("checkout session failed: status %d", resp.StatusCode)
	}

	var session checkoutSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if session.ClientSecret == "" {
		return nil, fmt.Errorf("checkout session missing client secret")
	}

	return &domain.CheckoutSession{ClientSecret: session.ClientSecret}, nil
}
