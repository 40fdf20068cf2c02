package flags

// todo: make these configurable
var (
	// ProductSKUs are the one-time product identifiers the demo syncs.
	ProductSKUs = []string{
		"com.example.coins_100",
		"com.example.coins_500",
		"com.example.remove_ads",
	}

	// SubscriptionSKUs are the subscription identifiers the demo syncs.
	SubscriptionSKUs = []string{
		"com.example.premium_monthly",
		"com.example.premium_yearly",
	}

	// PackageName identifies the app to the Play-side verification contract.
	PackageName = "com.example.iapdemo"

	// BundleID identifies the app on receipt validation against StoreKit
	// receipts.
	BundleID = "com.example.iapdemo"
)
