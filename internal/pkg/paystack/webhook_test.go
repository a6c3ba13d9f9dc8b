package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"
)

func signBody(body []byte, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"wp-abc","amount":500000,"status":"success"}}`)
	secret := "sk_test_secret"

	if !VerifySignature(body, signBody(body, secret), secret) {
		t.Fatal("expected valid signature to verify")
	}

	if VerifySignature(body, signBody(body, "other_secret"), secret) {
		t.Fatal("expected signature with wrong secret to fail")
	}

	tampered := append([]byte{}, body...)
	tampered[10] = 'X'
	if VerifySignature(tampered, signBody(body, secret), secret) {
		t.Fatal("expected tampered body to fail verification")
	}

	if VerifySignature(body, "", secret) {
		t.Fatal("expected empty signature to fail")
	}
	if VerifySignature(body, signBody(body, secret), "") {
		t.Fatal("expected empty secret to fail")
	}
}

func TestParseEventCharge(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"wp-abc-123","amount":150000,"status":"success","id":42}}`)

	event, err := ParseEvent(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Type != EventChargeSuccess {
		t.Fatalf("expected charge.success, got %s", event.Type)
	}

	data, err := event.ParseChargeData()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Reference != "wp-abc-123" {
		t.Fatalf("unexpected reference: %s", data.Reference)
	}
	if got := FromKobo(data.Amount); !got.Equal(decimalFromString(t, "1500")) {
		t.Fatalf("expected 1500 NGN, got %s", got)
	}
}

func TestParseEventMissingType(t *testing.T) {
	if _, err := ParseEvent([]byte(`{"data":{}}`)); err == nil {
		t.Fatal("expected error for missing event type")
	}
	if _, err := ParseEvent([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
}
