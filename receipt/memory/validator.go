package memory

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/code-payments/iap-client/receipt"
)

// Validator checks an ed25519 signature over the receipt payload. For testing
// purposes, a "receipt" is any message that, when signed by the owner key, is
// considered valid for the product named by the message.
type Validator struct {
	publicKey ed25519.PublicKey

	mu       sync.Mutex
	receipts map[string]string
}

func NewValidator(pubKey ed25519.PublicKey) *Validator {
	return &Validator{
		publicKey: pubKey,
		receipts:  map[string]string{},
	}
}

// AddReceipt records the receipt to check when productID is validated.
func (v *Validator) AddReceipt(productID, value string) {
	v.mu.Lock()
	v.receipts[productID] = value
	v.mu.Unlock()
}

func (v *Validator) Validate(ctx context.Context, productID string) (*receipt.ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.Lock()
	value, ok := v.receipts[productID]
	v.mu.Unlock()

	if !ok {
		return &receipt.ValidationResult{
			Status: receipt.StatusInvalid,
			Reason: fmt.Sprintf("no receipt recorded for %s", productID),
		}, nil
	}

	// The receipt format is: base64(signature)|message
	signature, message, err := parseReceipt(value)
	if err != nil {
		return &receipt.ValidationResult{
			Status: receipt.StatusInvalid,
			Reason: err.Error(),
		}, nil
	}

	if !ed25519.Verify(v.publicKey, message, signature) {
		return &receipt.ValidationResult{
			Status: receipt.StatusInvalid,
			Reason: "signature verification failed",
		}, nil
	}

	if string(message) != productID {
		return &receipt.ValidationResult{
			Status: receipt.StatusInvalid,
			Reason: fmt.Sprintf("receipt covers %s, not %s", message, productID),
		}, nil
	}

	return &receipt.ValidationResult{
		Status:      receipt.StatusValid,
		ReceiptData: []byte(value),
	}, nil
}

func GenerateKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}

// GenerateValidReceipt signs message with the owner key and packs both into
// the receipt format the Validator accepts.
func GenerateValidReceipt(owner ed25519.PrivateKey, message string) string {
	signature := ed25519.Sign(owner, []byte(message))
	return base64.StdEncoding.EncodeToString(signature) + "|" + message
}

func parseReceipt(value string) (signature []byte, message []byte, err error) {
	parts := strings.Split(value, "|")
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("invalid receipt format: %s", value)
	}

	signature, err = base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("error decoding signature: %w", err)
	}

	message = []byte(parts[1])
	return signature, message, nil
}
