package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// SignatureHeader is the header Paystack signs webhook deliveries with
const SignatureHeader = "x-paystack-signature"

// Event types the settlement engine consumes
const (
	EventChargeSuccess   = "charge.success"
	EventTransferSuccess = "transfer.success"
	EventTransferFailed  = "transfer.failed"
)

// Event is a parsed webhook delivery
type Event struct {
	Type string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// ChargeEventData is the payload of a charge.success event
type ChargeEventData struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"` // kobo
	Status    string `json:"status"`
	ID        int64  `json:"id"`
}

// TransferEventData is the payload of transfer.* events
type TransferEventData struct {
	Reference    string `json:"reference"`
	TransferCode string `json:"transfer_code"`
	Status       string `json:"status"`
	Reason       string `json:"reason"`
}

// VerifySignature checks the HMAC-SHA512 signature of the raw webhook body.
// Paystack signs the exact bytes it sends, so callers must pass the body
// before any decoding.
func VerifySignature(body []byte, signature, secretKey string) bool {
	if signature == "" || secretKey == "" {
		return false
	}

	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseEvent decodes a webhook body into an Event
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to parse paystack webhook: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("paystack webhook missing event type")
	}
	return &event, nil
}

// ParseChargeData decodes the data of a charge event
func (e *Event) ParseChargeData() (*ChargeEventData, error) {
	var data ChargeEventData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse charge event data: %w", err)
	}
	return &data, nil
}

// ParseTransferData decodes the data of a transfer event
func (e *Event) ParseTransferData() (*TransferEventData, error) {
	var data TransferEventData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse transfer event data: %w", err)
	}
	return &data, nil
}
