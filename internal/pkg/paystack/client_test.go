package paystack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestResolveAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bank/resolve" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("account_number") != "0001234567" {
			t.Errorf("unexpected account_number: %s", r.URL.Query().Get("account_number"))
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_x" {
			t.Errorf("unexpected auth header: %s", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Account number resolved",
			"data": map[string]string{
				"account_number": "0001234567",
				"account_name":   "ADA OBI",
			},
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, SecretKey: "sk_test_x"})

	resolved, err := client.ResolveAccount(context.Background(), "0001234567", "058")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.AccountName != "ADA OBI" {
		t.Fatalf("unexpected account name: %s", resolved.AccountName)
	}
}

func TestInitiateTransferSendsKobo(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  true,
			"message": "Transfer has been queued",
			"data": map[string]string{
				"transfer_code": "TRF_abc123",
				"status":        "pending",
			},
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, SecretKey: "sk_test_x"})

	transfer, err := client.InitiateTransfer(context.Background(), "RCP_xyz", decimalFromString(t, "4975.50"), "wd-ref-1", "wishpool payout")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transfer.TransferCode != "TRF_abc123" {
		t.Fatalf("unexpected transfer code: %s", transfer.TransferCode)
	}

	// 4975.50 NGN must be serialized as 497550 kobo
	if amount, ok := gotBody["amount"].(float64); !ok || int64(amount) != 497550 {
		t.Fatalf("expected amount 497550 kobo, got %v", gotBody["amount"])
	}
	if gotBody["recipient"] != "RCP_xyz" {
		t.Fatalf("unexpected recipient: %v", gotBody["recipient"])
	}
}

func TestCallSurfacesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  false,
			"message": "Invalid bank code",
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, SecretKey: "sk_test_x"})

	if _, err := client.ResolveAccount(context.Background(), "0001234567", "999"); err == nil {
		t.Fatal("expected error for provider rejection")
	}
}

func TestInitiateTransferValidation(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://localhost", SecretKey: "sk"})

	if _, err := client.InitiateTransfer(context.Background(), "", decimalFromString(t, "100"), "ref", ""); err == nil {
		t.Fatal("expected error for missing recipient")
	}
	if _, err := client.InitiateTransfer(context.Background(), "RCP_x", decimal.Zero, "ref", ""); err == nil {
		t.Fatal("expected error for zero amount")
	}
}

func TestKoboRoundTrip(t *testing.T) {
	cases := []struct {
		ngn  string
		kobo int64
	}{
		{"100", 10000},
		{"0.01", 1},
		{"4975.50", 497550},
		{"33.33", 3333},
	}
	for _, tc := range cases {
		d := decimalFromString(t, tc.ngn)
		if got := ToKobo(d); got != tc.kobo {
			t.Errorf("ToKobo(%s) = %d, want %d", tc.ngn, got, tc.kobo)
		}
		if back := FromKobo(tc.kobo); !back.Equal(d) {
			t.Errorf("FromKobo(%d) = %s, want %s", tc.kobo, back, tc.ngn)
		}
	}
}
