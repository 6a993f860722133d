package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newFakeRazorpay(t *testing.T, handler http.HandlerFunc) *Config {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_test_key" || pass != "rzp_secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"auth failed"}}`))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	cfg := &Config{KeyID: " rzp_test_key ", KeySecret: "rzp_secret", APIBaseURL: server.URL + "/"}
	cfg.Normalize()
	return cfg
}

func TestValidateConfig(t *testing.T) {
	cfg := &Config{KeyID: "key"}
	cfg.Normalize()
	if err := ValidateConfig(cfg); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got: %v", err)
	}
	cfg.KeySecret = "secret"
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("ValidateConfig should pass, got: %v", err)
	}
	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("expected default api base url, got: %s", cfg.APIBaseURL)
	}
}

func TestCreateOrder(t *testing.T) {
	cfg := newFakeRazorpay(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/orders" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["amount"] != float64(49900) || body["currency"] != "INR" {
			t.Errorf("unexpected body: %+v", body)
		}
		_, _ = w.Write([]byte(`{"id":"order_1","amount":49900,"currency":"INR","receipt":"TS-1","status":"created"}`))
	})

	order, err := CreateOrder(context.Background(), cfg, OrderInput{Receipt: "TS-1", AmountMinor: 49900, Currency: "inr"})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if order.ID != "order_1" || order.Amount != 49900 {
		t.Fatalf("unexpected order: %+v", order)
	}
}

func TestCreateOrderRejectsInvalidAmount(t *testing.T) {
	cfg := &Config{KeyID: "key", KeySecret: "secret"}
	cfg.Normalize()
	if _, err := CreateOrder(context.Background(), cfg, OrderInput{AmountMinor: 0, Currency: "INR"}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got: %v", err)
	}
}

func TestFetchPayment(t *testing.T) {
	cfg := newFakeRazorpay(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/pay_1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"pay_1","order_id":"order_1","amount":49900,"currency":"INR","status":"captured","captured":true}`))
	})

	payment, err := FetchPayment(context.Background(), cfg, "pay_1")
	if err != nil {
		t.Fatalf("FetchPayment failed: %v", err)
	}
	if !payment.IsCaptured() || payment.OrderID != "order_1" {
		t.Fatalf("unexpected payment: %+v", payment)
	}
}

func TestFetchPaymentErrorStatus(t *testing.T) {
	cfg := newFakeRazorpay(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR"}}`))
	})
	if _, err := FetchPayment(context.Background(), cfg, "pay_missing"); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected ErrResponseInvalid, got: %v", err)
	}
}

func TestVerifySignature(t *testing.T) {
	cfg := &Config{KeyID: "key", KeySecret: "rzp_secret"}
	signature := ComputeSignature("rzp_secret", "order_1", "pay_1")

	if err := VerifySignature(cfg, "order_1", "pay_1", signature); err != nil {
		t.Fatalf("signature should verify, got: %v", err)
	}
	if err := VerifySignature(cfg, "order_1", "pay_2", signature); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid for other payment, got: %v", err)
	}
	if err := VerifySignature(cfg, "order_1", "pay_1", ""); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid for empty signature, got: %v", err)
	}
}
