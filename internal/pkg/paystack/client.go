package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds Paystack API configuration
type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// Client represents a Paystack API client
type Client struct {
	httpClient *http.Client
	config     Config
}

// envelope is the standard Paystack response wrapper
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Bank is a bank from the provider's bank list
type Bank struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// ResolvedAccount is the result of account-number verification
type ResolvedAccount struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

// TransferRecipient is a provider-side transfer destination
type TransferRecipient struct {
	RecipientCode string `json:"recipient_code"`
}

// Transfer is an initiated outbound transfer
type Transfer struct {
	TransferCode string `json:"transfer_code"`
	Status       string `json:"status"`
}

// NewClient creates a new Paystack API client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
	}
}

// ListBanks returns the supported banks for NGN transfers
func (c *Client) ListBanks(ctx context.Context) ([]Bank, error) {
	var banks []Bank
	if err := c.call(ctx, http.MethodGet, "/bank?currency=NGN", nil, &banks); err != nil {
		return nil, err
	}
	return banks, nil
}

// ResolveAccount verifies an account number against a bank code and returns
// the registered account name
func (c *Client) ResolveAccount(ctx context.Context, accountNumber, bankCode string) (*ResolvedAccount, error) {
	if strings.TrimSpace(accountNumber) == "" || strings.TrimSpace(bankCode) == "" {
		return nil, fmt.Errorf("paystack: account_number and bank_code are required")
	}

	path := "/bank/resolve?account_number=" + url.QueryEscape(accountNumber) + "&bank_code=" + url.QueryEscape(bankCode)
	var resolved ResolvedAccount
	if err := c.call(ctx, http.MethodGet, path, nil, &resolved); err != nil {
		return nil, err
	}
	return &resolved, nil
}

// CreateTransferRecipient registers a NUBAN account as a transfer destination
func (c *Client) CreateTransferRecipient(ctx context.Context, accountNumber, accountName, bankCode string) (*TransferRecipient, error) {
	if strings.TrimSpace(accountNumber) == "" || strings.TrimSpace(bankCode) == "" {
		return nil, fmt.Errorf("paystack: account_number and bank_code are required")
	}

	body := map[string]string{
		"type":           "nuban",
		"name":           accountName,
		"account_number": accountNumber,
		"bank_code":      bankCode,
		"currency":       "NGN",
	}
	var recipient TransferRecipient
	if err := c.call(ctx, http.MethodPost, "/transferrecipient", body, &recipient); err != nil {
		return nil, err
	}
	return &recipient, nil
}

// InitiateTransfer starts an outbound transfer of amount (NGN, 2dp) to a
// previously created recipient. Reference is the caller's idempotency key.
func (c *Client) InitiateTransfer(ctx context.Context, recipientCode string, amount decimal.Decimal, reference, reason string) (*Transfer, error) {
	if strings.TrimSpace(recipientCode) == "" {
		return nil, fmt.Errorf("paystack: recipient_code is required")
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("paystack: transfer amount must be positive")
	}

	body := map[string]interface{}{
		"source":    "balance",
		"amount":    ToKobo(amount),
		"recipient": recipientCode,
		"reference": reference,
		"reason":    reason,
	}
	var transfer Transfer
	if err := c.call(ctx, http.MethodPost, "/transfer", body, &transfer); err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (c *Client) call(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("paystack client is not initialized")
	}
	if strings.TrimSpace(c.config.BaseURL) == "" {
		return fmt.Errorf("paystack config error: base_url is empty")
	}
	if strings.TrimSpace(c.config.SecretKey) == "" {
		return fmt.Errorf("paystack config error: secret_key is empty")
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode paystack request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	base := strings.TrimRight(c.config.BaseURL, "/")

	timeout := c.config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		return fmt.Errorf("paystack api call failed: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("paystack api call failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("paystack api call failed: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to parse paystack response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Status {
		return fmt.Errorf("paystack api returned error: status %d, message: %s", resp.StatusCode, env.Message)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to parse paystack response data: %w", err)
		}
	}

	return nil
}

// ToKobo converts a NGN amount (2dp) to the provider's integer minor unit
func ToKobo(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromKobo converts the provider's integer minor unit back to a NGN amount
func FromKobo(kobo int64) decimal.Decimal {
	return decimal.NewFromInt(kobo).Div(decimal.NewFromInt(100))
}
