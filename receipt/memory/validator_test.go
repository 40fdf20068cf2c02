package memory

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/iap-client/receipt"
	"github.com/code-payments/iap-client/receipt/tests"
)

func TestMemoryValidator(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	validator := NewValidator(pub)
	validator.AddReceipt("paid_feature", GenerateValidReceipt(priv, "paid_feature"))

	teardown := func() {}

	tests.RunValidatorTests(t, validator, "paid_feature", "missing_feature", teardown)
}

func TestMemoryValidator_RejectedReceipts(t *testing.T) {
	ctx := context.Background()

	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	_, otherPriv, err := GenerateKeyPair()
	require.NoError(t, err)

	validator := NewValidator(pub)

	validator.AddReceipt("forged", GenerateValidReceipt(otherPriv, "forged"))
	result, err := validator.Validate(ctx, "forged")
	require.NoError(t, err)
	require.Equal(t, receipt.StatusInvalid, result.Status)
	require.Contains(t, result.Reason, "signature")

	// A valid signature over the wrong product is still a rejection.
	validator.AddReceipt("premium", GenerateValidReceipt(priv, "basic"))
	result, err = validator.Validate(ctx, "premium")
	require.NoError(t, err)
	require.Equal(t, receipt.StatusInvalid, result.Status)
	require.Contains(t, result.Reason, "basic")

	validator.AddReceipt("garbled", "no-separator-here")
	result, err = validator.Validate(ctx, "garbled")
	require.NoError(t, err)
	require.Equal(t, receipt.StatusInvalid, result.Status)

	validator.AddReceipt("binary", "!!!not-base64!!!|binary")
	result, err = validator.Validate(ctx, "binary")
	require.NoError(t, err)
	require.Equal(t, receipt.StatusInvalid, result.Status)
}

func TestMemoryValidator_ContextCancelled(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	validator := NewValidator(pub)
	validator.AddReceipt("paid_feature", GenerateValidReceipt(priv, "paid_feature"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = validator.Validate(ctx, "paid_feature")
	require.ErrorIs(t, err, context.Canceled)
}

func TestGenerateValidReceipt_Format(t *testing.T) {
	_, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	value := GenerateValidReceipt(priv, "paid_feature")
	signature, message, err := parseReceipt(value)
	require.NoError(t, err)
	require.Equal(t, "paid_feature", string(message))
	require.Len(t, signature, ed25519.SignatureSize)
}
