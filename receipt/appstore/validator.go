package appstore

import (
	"context"
	"fmt"

	"github.com/code-payments/iap-client/receipt"
	"github.com/code-payments/iap-client/receipt/apple"
)

// Validator verifies product purchases against Apple's verifyReceipt service
// instead of decoding the receipt locally.
type Validator struct {
	bundleID string
	source   apple.ReceiptSource
	client   *Client
}

func NewValidator(bundleID string, source apple.ReceiptSource, client *Client) receipt.Validator {
	return &Validator{
		bundleID: bundleID,
		source:   source,
		client:   client,
	}
}

func (v *Validator) Validate(ctx context.Context, productID string) (*receipt.ValidationResult, error) {
	encoded, err := v.source(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := v.client.VerifyReceipt(ctx, encoded)
	if err != nil {
		return nil, err
	}

	if resp.Status != statusOK {
		return &receipt.ValidationResult{
			Status: receipt.StatusInvalid,
			Reason: fmt.Sprintf("verifyReceipt status %d", resp.Status),
		}, nil
	}

	if resp.Receipt.BundleID != v.bundleID {
		return &receipt.ValidationResult{
			Status: receipt.StatusInvalid,
			Reason: fmt.Sprintf("receipt issued for %s", resp.Receipt.BundleID),
		}, nil
	}

	for _, entries := range [][]InAppReceipt{resp.Receipt.InApp, resp.LatestReceiptInfo} {
		for _, entry := range entries {
			if entry.ProductID == productID {
				return &receipt.ValidationResult{
					Status:      receipt.StatusValid,
					ReceiptData: []byte(encoded),
				}, nil
			}
		}
	}

	return &receipt.ValidationResult{
		Status: receipt.StatusInvalid,
		Reason: fmt.Sprintf("receipt does not cover %s", productID),
	}, nil
}
