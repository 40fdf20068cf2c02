package store

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestProduct_PlatformTag(t *testing.T) {
	apple := NewAppleProduct("p1", "Product One", &AppleProduct{
		DisplayPrice: "$0.99",
		Price:        decimal.RequireFromString("0.99"),
		Currency:     "USD",
	})

	require.Equal(t, PlatformApple, apple.Platform)

	detail, ok := apple.Apple()
	require.True(t, ok)
	require.Equal(t, "$0.99", detail.DisplayPrice)

	// The Play arm is unreachable on an Apple descriptor.
	_, ok = apple.Google()
	require.False(t, ok)

	google := NewGoogleProduct("p1", "Product One", &GoogleProduct{
		FormattedPrice:    "$0.99",
		PriceAmountMicros: 990000,
		PriceCurrencyCode: "USD",
	})

	_, ok = google.Apple()
	require.False(t, ok)

	detail2, ok := google.Google()
	require.True(t, ok)
	require.True(t, decimal.RequireFromString("0.99").Equal(detail2.PriceAmount()))
}

func TestSubscription_CloneIsDeep(t *testing.T) {
	sub := NewGoogleSubscription("s1", "Sub One", &GoogleSubscription{
		Offers: []*OfferDetail{{
			OfferID:    "intro",
			OfferToken: "offer-token-1",
			BasePlanID: "monthly",
			Phases: []*PricingPhase{{
				BillingPeriod:     "P1M",
				FormattedPrice:    "$9.99",
				PriceAmountMicros: 9990000,
				PriceCurrencyCode: "USD",
			}},
		}},
	})

	clone := sub.Clone()

	detail, ok := clone.Google()
	require.True(t, ok)
	detail.Offers[0].OfferToken = "defaced"
	detail.Offers[0].Phases[0].FormattedPrice = "defaced"

	original, ok := sub.Google()
	require.True(t, ok)
	require.Equal(t, "offer-token-1", original.Offers[0].OfferToken)
	require.Equal(t, "$9.99", original.Offers[0].Phases[0].FormattedPrice)
}

func TestPurchaseResult_Union(t *testing.T) {
	success := &PurchaseResult{Purchase: &Purchase{SKU: "p1"}}
	require.True(t, success.Succeeded())

	failure := &PurchaseResult{Err: &PurchaseError{
		SKU:  "p1",
		Code: PurchaseErrorCancelled,
	}}
	require.False(t, failure.Succeeded())
	require.Contains(t, failure.Err.Error(), "cancelled")
}

func TestSyncError_Classification(t *testing.T) {
	reauth := &SyncError{Code: SyncCodeReauthRequired, Message: "session stale"}
	require.False(t, reauth.Terminal())

	expired := &SyncError{Code: SyncCodeSessionExpired, Message: "gone"}
	require.True(t, expired.Terminal())

	require.NotEqual(t, reauth.Signature(), expired.Signature())
	require.Equal(t, reauth.Signature(), (&SyncError{Code: SyncCodeReauthRequired, Message: "session stale"}).Signature())
}
