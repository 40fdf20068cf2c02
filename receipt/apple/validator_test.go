package apple

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/iap-client/receipt"
)

func TestAppleValidator_UndecodableReceipt(t *testing.T) {
	validator := NewValidator("com.example.app", StaticReceipt("not a pkcs7 receipt"))

	result, err := validator.Validate(context.Background(), "com.example.premium")
	require.NoError(t, err)
	require.Equal(t, receipt.StatusInvalid, result.Status)
	require.Contains(t, result.Reason, "decode")
}

func TestAppleValidator_SourceFailure(t *testing.T) {
	sourceErr := errors.New("no receipt on disk")
	validator := NewValidator("com.example.app", func(context.Context) (string, error) {
		return "", sourceErr
	})

	_, err := validator.Validate(context.Background(), "com.example.premium")
	require.ErrorIs(t, err, sourceErr)
}

// Requires a captured receipt from a real device build.
func TestAppleValidator_Integration(t *testing.T) {
	_ = godotenv.Load()

	encoded := os.Getenv("APPLE_RECEIPT_B64")
	bundleID := os.Getenv("APPLE_BUNDLE_ID")
	productID := os.Getenv("APPLE_PRODUCT_ID")
	if encoded == "" || bundleID == "" || productID == "" {
		t.Skip("APPLE_RECEIPT_B64, APPLE_BUNDLE_ID or APPLE_PRODUCT_ID is not set, skipping integration test")
	}

	validator := NewValidator(bundleID, StaticReceipt(encoded))

	result, err := validator.Validate(context.Background(), productID)
	require.NoError(t, err)
	require.Equal(t, receipt.StatusValid, result.Status)
	require.NotEmpty(t, result.ReceiptData)
}
