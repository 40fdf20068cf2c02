package apple

import (
	"context"
	"fmt"

	"github.com/devsisters/go-applereceipt"
	"github.com/devsisters/go-applereceipt/applepki"

	"github.com/code-payments/iap-client/receipt"
)

// ReceiptSource returns the app's current base64-encoded store receipt.
type ReceiptSource func(ctx context.Context) (string, error)

// StaticReceipt is a ReceiptSource that always serves the same blob.
func StaticReceipt(encoded string) ReceiptSource {
	return func(context.Context) (string, error) {
		return encoded, nil
	}
}

// Validator decides product purchases against the app's signed store receipt
// locally, without calling out to a verification service.
type Validator struct {
	bundleID string
	source   ReceiptSource
}

func NewValidator(bundleID string, source ReceiptSource) receipt.Validator {
	return &Validator{
		bundleID: bundleID,
		source:   source,
	}
}

func (v *Validator) Validate(ctx context.Context, productID string) (*receipt.ValidationResult, error) {
	encoded, err := v.source(ctx)
	if err != nil {
		return nil, err
	}

	decoded, err := applereceipt.DecodeBase64(encoded, applepki.CertPool())
	if err != nil {
		return &receipt.ValidationResult{
			Status: receipt.StatusInvalid,
			Reason: fmt.Sprintf("receipt decode failed: %v", err),
		}, nil
	}

	if decoded.BundleIdentifier != v.bundleID {
		return &receipt.ValidationResult{
			Status: receipt.StatusInvalid,
			Reason: fmt.Sprintf("receipt issued for %s", decoded.BundleIdentifier),
		}, nil
	}

	for _, purchased := range decoded.InAppPurchaseReceipts {
		if purchased.ProductIdentifier == productID {
			return &receipt.ValidationResult{
				Status:      receipt.StatusValid,
				ReceiptData: []byte(encoded),
			}, nil
		}
	}

	return &receipt.ValidationResult{
		Status: receipt.StatusInvalid,
		Reason: fmt.Sprintf("receipt does not cover %s", productID),
	}, nil
}
