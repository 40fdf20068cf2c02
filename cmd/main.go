package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/code-payments/iap-client/client"
	"github.com/code-payments/iap-client/flags"
	"github.com/code-payments/iap-client/receipt/google"
	receiptmemory "github.com/code-payments/iap-client/receipt/memory"
	"github.com/code-payments/iap-client/store"
	"github.com/code-payments/iap-client/store/memory"
)

func main() {
	_ = godotenv.Load()

	productSKUs := skuList("IAP_PRODUCT_SKUS", flags.ProductSKUs)
	subscriptionSKUs := skuList("IAP_SUBSCRIPTION_SKUS", flags.SubscriptionSKUs)

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}

	pub, priv, err := receiptmemory.GenerateKeyPair()
	if err != nil {
		log.Fatal("Failed to generate receipt keys:", err)
	}

	s := seedStore(productSKUs, subscriptionSKUs, priv)
	validator := receiptmemory.NewValidator(pub)

	c := client.NewClient(logger, s, validator)
	ctx := context.Background()

	c.OnConnectionChanged(func(state client.ConnectionState) {
		fmt.Println("connection state:", state)
	})

	if _, err := c.Connect(ctx); err != nil {
		log.Fatal("Failed to connect:", err)
	}

	// The two catalog fetches are independent; run them concurrently.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		products, err := c.FetchProducts(ctx, productSKUs)
		if err != nil {
			log.Fatal("Failed to fetch products:", err)
		}
		for _, p := range products {
			if detail, ok := p.Apple(); ok {
				fmt.Printf("product %s (%s): %s\n", p.ID, p.Title, detail.DisplayPrice)
			}
		}
	}()
	go func() {
		defer wg.Done()
		subscriptions, err := c.FetchSubscriptions(ctx, subscriptionSKUs)
		if err != nil {
			log.Fatal("Failed to fetch subscriptions:", err)
		}
		for _, sub := range subscriptions {
			if detail, ok := sub.Apple(); ok {
				fmt.Printf("subscription %s (%s): %s per %s\n", sub.ID, sub.Title, detail.DisplayPrice, detail.Period)
			}
		}
	}()
	wg.Wait()

	events := c.OpenEvents("demo")

	// One scripted failure, then a success for the same SKU.
	s.ScriptPurchaseFailure(productSKUs[0], store.PurchaseErrorCancelled, "user backed out")

	intent := &store.PurchaseIntent{SKUs: productSKUs[:1], Type: store.TypeInApp}
	if err := c.RequestPurchase(ctx, intent); err != nil {
		log.Fatal("Failed to dispatch purchase:", err)
	}
	if err := c.RequestPurchase(ctx, intent); err != nil {
		log.Fatal("Failed to dispatch purchase:", err)
	}

	var purchased *store.Purchase
	for i := 0; i < 2; i++ {
		e := <-events
		switch {
		case e.PurchaseResult == nil:
		case e.PurchaseResult.Succeeded():
			purchased = e.PurchaseResult.Purchase
			fmt.Printf("purchase succeeded: %s (order %s)\n", purchased.SKU, purchased.OrderID)
		default:
			fmt.Println("purchase failed:", e.PurchaseResult.Err)
		}
	}

	// Session-level failure, surfaced and then acknowledged by the "user".
	s.EmitSyncError(&store.SyncError{Code: store.SyncCodeReauthRequired, Message: "please sign in again"})
	if e := <-events; e.SyncError != nil {
		fmt.Println("sync error:", e.SyncError)
	}
	c.AcknowledgeSyncError()

	// The purchased SKU's receipt validates against the demo signer.
	validator.AddReceipt(purchased.SKU, purchased.Receipt)
	result, err := c.ValidateReceipt(ctx, purchased.SKU)
	if err != nil {
		log.Fatal("Failed to validate receipt:", err)
	}
	fmt.Printf("receipt validation for %s: %s\n", purchased.SKU, result.Status)

	// On the Play side validation is indeterminate client-side; show the
	// contract a server-side verifier would need.
	playValidator := google.NewValidator(flags.PackageName)
	playResult, err := playValidator.Validate(ctx, purchased.SKU)
	if err != nil {
		log.Fatal("Failed to run play validation:", err)
	}
	fmt.Printf("play-side validation: %s (%s)\n", playResult.Status, playResult.Reason)
	fmt.Printf("server verification contract: %+v\n", playValidator.RequiredParams(purchased.Token))

	if err := c.Disconnect(ctx); err != nil {
		log.Fatal("Failed to disconnect:", err)
	}
}

func skuList(env string, fallback []string) []string {
	if raw := os.Getenv(env); raw != "" {
		return strings.Split(raw, ",")
	}
	return fallback
}

func seedStore(productSKUs, subscriptionSKUs []string, signer ed25519.PrivateKey) *memory.Store {
	products := make([]*store.Product, 0, len(productSKUs))
	for i, sku := range productSKUs {
		price := decimal.New(int64(i+1)*99, -2)
		products = append(products, store.NewAppleProduct(sku, sku, &store.AppleProduct{
			DisplayPrice: "$" + price.StringFixed(2),
			Price:        price,
			Currency:     "USD",
		}))
	}

	subscriptions := make([]*store.Subscription, 0, len(subscriptionSKUs))
	for i, sku := range subscriptionSKUs {
		price := decimal.New(int64(i+1)*999, -2)
		subscriptions = append(subscriptions, store.NewAppleSubscription(sku, sku, &store.AppleSubscription{
			DisplayPrice: "$" + price.StringFixed(2),
			Price:        price,
			Currency:     "USD",
			Period:       "P1M",
		}))
	}

	return memory.NewStore(
		memory.WithPlatform(store.PlatformApple),
		memory.WithProducts(products...),
		memory.WithSubscriptions(subscriptions...),
		memory.WithReceiptSigner(signer),
	)
}
