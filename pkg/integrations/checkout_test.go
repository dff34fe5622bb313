package integrations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maya/out-and-about/pkg/domain"
)

func TestCheckoutClient_CreateCheckoutSession(t *testing.T) {
	t.Run("successful session", func(t *testing.T) {
		var gotKey, gotAuth string
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("Idempotency-Key")
			gotAuth = r.Header.Get("Authorization")
			if err := r.ParseForm(); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if r.PostForm.Get("metadata[event_id]") == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id": "cs_123", "client_secret": "cs_123_secret"}`))
		}))
		defer mockServer.Close()

		client, err := NewCheckoutClient(CheckoutConfig{SecretKey: "sk_test", BaseURL: mockServer.URL})
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		session, err := client.CreateCheckoutSession(context.Background(), "ev-1", "idem-1", 2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if session.ClientSecret != "cs_123_secret" {
			t.Errorf("expected client secret, got %q", session.ClientSecret)
		}
		if gotKey != "idem-1" {
			t.Errorf("expected idempotency key header, got %q", gotKey)
		}
		if gotAuth != "Bearer sk_test" {
			t.Errorf("expected bearer auth, got %q", gotAuth)
		}
	})

	t.Run("invalid input rejected locally", func(t *testing.T) {
		calls := 0
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))
		defer mockServer.Close()

		client, _ := NewCheckoutClient(CheckoutConfig{SecretKey: "sk_test", BaseURL: mockServer.URL})

		if _, err := client.CreateCheckoutSession(context.Background(), "", "idem-1", 1); err != domain.ErrInvalidRequest {
			t.Errorf("expected ErrInvalidRequest for empty event, got %v", err)
		}
		if _, err := client.CreateCheckoutSession(context.Background(), "ev-1", "idem-1", 0); err != domain.ErrInvalidRequest {
			t.Errorf("expected ErrInvalidRequest for zero quantity, got %v", err)
		}
		if calls != 0 {
			t.Errorf("expected no server calls, got %d", calls)
		}
	})

	t.Run("server error surfaces", func(t *testing.T) {
		mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer mockServer.Close()

		client, _ := NewCheckoutClient(CheckoutConfig{SecretKey: "sk_test", BaseURL: mockServer.URL})
		if _, err := client.CreateCheckoutSession(context.Background(), "ev-1", "idem-1", 1); err == nil {
			t.Error("expected error for server failure")
		}
	})

	t.Run("missing secret key", func(t *testing.T) {
		if _, err := NewCheckoutClient(CheckoutConfig{}); err == nil {
			t.Error("expected error for missing secret key")
		}
	})
}
