package paystack

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// InitializeRequest starts a hosted checkout for an inbound payment
type InitializeRequest struct {
	Email       string
	Amount      decimal.Decimal
	Reference   string
	CallbackURL string
	Metadata    map[string]string
}

// InitializeResponse carries the checkout redirect for the contributor
type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// ChargeVerification is the provider's view of a transaction
type ChargeVerification struct {
	Status    string `json:"status"` // "success", "failed", "abandoned"
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"` // kobo
	PaidAt    string `json:"paid_at"`
	ID        int64  `json:"id"`
}

// AmountNGN returns the verified amount as a NGN decimal
func (v *ChargeVerification) AmountNGN() decimal.Decimal {
	return FromKobo(v.Amount)
}

// InitializeTransaction creates a pending charge and returns the checkout URL
func (c *Client) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("paystack: charge amount must be positive")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("paystack: email is required")
	}
	if strings.TrimSpace(req.Reference) == "" {
		return nil, fmt.Errorf("paystack: reference is required")
	}

	body := map[string]interface{}{
		"email":     req.Email,
		"amount":    ToKobo(req.Amount),
		"reference": req.Reference,
	}
	if req.CallbackURL != "" {
		body["callback_url"] = req.CallbackURL
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	var out InitializeResponse
	if err := c.call(ctx, http.MethodPost, "/transaction/initialize", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyTransaction fetches the provider-side status of a charge by reference
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*ChargeVerification, error) {
	if strings.TrimSpace(reference) == "" {
		return nil, fmt.Errorf("paystack: reference is required")
	}

	var out ChargeVerification
	if err := c.call(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
