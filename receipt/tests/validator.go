package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/iap-client/receipt"
)

// RunValidatorTests exercises a validator that can decide validity locally.
// coveredProduct must be judged Valid and uncoveredProduct Invalid.
func RunValidatorTests(t *testing.T, v receipt.Validator, coveredProduct, uncoveredProduct string, teardown func()) {
	for _, testFunc := range []func(t *testing.T, v receipt.Validator, covered, uncovered string){
		testCoveredProduct,
		testUncoveredProduct,
	} {
		testFunc(t, v, coveredProduct, uncoveredProduct)
		teardown()
	}
}

// RunIndeterminateValidatorTests exercises a validator on a platform that
// cannot decide validity client-side. Every product, plausible or not, must
// come back Indeterminate with a reason.
func RunIndeterminateValidatorTests(t *testing.T, v receipt.Validator) {
	ctx := context.Background()

	for _, productID := range []string{
		"com.example.premium",
		"not-a-real-product",
		"",
	} {
		result, err := v.Validate(ctx, productID)
		require.NoError(t, err)
		require.Equal(t, receipt.StatusIndeterminate, result.Status)
		require.True(t, result.Status.Terminal())
		require.NotEmpty(t, result.Reason)
		require.Empty(t, result.ReceiptData)
		require.Empty(t, result.JWS)
	}
}

func testCoveredProduct(t *testing.T, v receipt.Validator, covered, uncovered string) {
	ctx := context.Background()

	result, err := v.Validate(ctx, covered)
	require.NoError(t, err)
	require.Equal(t, receipt.StatusValid, result.Status)
	require.True(t, result.Status.Terminal())
	require.NotEmpty(t, result.ReceiptData)
}

func testUncoveredProduct(t *testing.T, v receipt.Validator, covered, uncovered string) {
	ctx := context.Background()

	result, err := v.Validate(ctx, uncovered)
	require.NoError(t, err)
	require.Equal(t, receipt.StatusInvalid, result.Status)
	require.True(t, result.Status.Terminal())
	require.NotEmpty(t, result.Reason)
}
