package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/iap-client/store"
	"github.com/code-payments/iap-client/testutil"
)

const eventWait = 5 * time.Second

// CapturingSink is a store.EventSink that funnels every callback into
// buffered channels for test assertions.
type CapturingSink struct {
	Results    chan *store.PurchaseResult
	SyncErrors chan *store.SyncError
}

func NewCapturingSink() *CapturingSink {
	return &CapturingSink{
		Results:    make(chan *store.PurchaseResult, 64),
		SyncErrors: make(chan *store.SyncError, 64),
	}
}

func (s *CapturingSink) OnPurchaseResult(result *store.PurchaseResult) {
	s.Results <- result
}

func (s *CapturingSink) OnSyncError(syncErr *store.SyncError) {
	s.SyncErrors <- syncErr
}

// RunClientTests exercises the store.Client contract. The client must be
// seeded with catalogs covering productSKUs and subscriptionSKUs, every SKU
// purchasable with an unscripted success outcome.
func RunClientTests(t *testing.T, c store.Client, productSKUs, subscriptionSKUs []string, teardown func()) {
	for _, tf := range []func(t *testing.T, c store.Client, productSKUs, subscriptionSKUs []string){
		testClient_RequiresConnection,
		testClient_ConnectionLifecycle,
		testClient_CatalogQueries,
		testClient_AsyncPurchase,
		testClient_DisconnectStopsEvents,
	} {
		tf(t, c, productSKUs, subscriptionSKUs)
		teardown()
	}
}

func testClient_RequiresConnection(t *testing.T, c store.Client, productSKUs, subscriptionSKUs []string) {
	ctx := context.Background()

	_, err := c.QueryProducts(ctx, productSKUs)
	require.ErrorIs(t, err, store.ErrNotConnected)

	_, err = c.QuerySubscriptions(ctx, subscriptionSKUs)
	require.ErrorIs(t, err, store.ErrNotConnected)

	err = c.Purchase(ctx, &store.PurchaseIntent{SKUs: productSKUs[:1], Type: store.TypeInApp})
	require.ErrorIs(t, err, store.ErrNotConnected)
}

func testClient_ConnectionLifecycle(t *testing.T, c store.Client, productSKUs, subscriptionSKUs []string) {
	ctx := context.Background()
	sink := NewCapturingSink()

	// Disconnect before any session is safe.
	require.NoError(t, c.Disconnect(ctx))

	require.NoError(t, c.Connect(ctx, sink))
	require.NoError(t, c.Connect(ctx, sink))

	_, err := c.QueryProducts(ctx, productSKUs)
	require.NoError(t, err)

	require.NoError(t, c.Disconnect(ctx))
	require.NoError(t, c.Disconnect(ctx))

	_, err = c.QueryProducts(ctx, productSKUs)
	require.ErrorIs(t, err, store.ErrNotConnected)
}

func testClient_CatalogQueries(t *testing.T, c store.Client, productSKUs, subscriptionSKUs []string) {
	ctx := context.Background()

	require.NoError(t, c.Connect(ctx, NewCapturingSink()))
	defer c.Disconnect(ctx)

	// Descriptors come back in request order.
	products, err := c.QueryProducts(ctx, productSKUs)
	require.NoError(t, err)
	require.Len(t, products, len(productSKUs))
	for i, sku := range productSKUs {
		require.Equal(t, sku, products[i].ID)
		require.Equal(t, c.Platform(), products[i].Platform)
	}

	subscriptions, err := c.QuerySubscriptions(ctx, subscriptionSKUs)
	require.NoError(t, err)
	require.Len(t, subscriptions, len(subscriptionSKUs))
	for i, sku := range subscriptionSKUs {
		require.Equal(t, sku, subscriptions[i].ID)
	}

	// SKUs the store does not carry are absent, not an error.
	products, err = c.QueryProducts(ctx, append([]string{"definitely_not_a_sku"}, productSKUs[0]))
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, productSKUs[0], products[0].ID)

	products, err = c.QueryProducts(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, products)
}

func testClient_AsyncPurchase(t *testing.T, c store.Client, productSKUs, subscriptionSKUs []string) {
	ctx := context.Background()
	sink := NewCapturingSink()

	require.NoError(t, c.Connect(ctx, sink))
	defer c.Disconnect(ctx)

	// Purchase returns before its outcome is delivered.
	require.NoError(t, c.Purchase(ctx, &store.PurchaseIntent{
		SKUs: productSKUs[:1],
		Type: store.TypeInApp,
	}))

	result := testutil.Receive(t, sink.Results, eventWait)
	require.True(t, result.Succeeded())
	require.Equal(t, productSKUs[0], result.Purchase.SKU)
	require.Equal(t, c.Platform(), result.Purchase.Platform)
	require.NotEmpty(t, result.Purchase.OrderID)
	require.NotEmpty(t, result.Purchase.Token)

	// Identical intents are distinct attempts with distinct outcomes.
	intent := &store.PurchaseIntent{SKUs: productSKUs[:1], Type: store.TypeInApp}
	require.NoError(t, c.Purchase(ctx, intent))
	require.NoError(t, c.Purchase(ctx, intent))

	results := testutil.ReceiveN(t, sink.Results, 2, eventWait)
	require.NotEqual(t, results[0].Purchase.OrderID, results[1].Purchase.OrderID)
}

func testClient_DisconnectStopsEvents(t *testing.T, c store.Client, productSKUs, subscriptionSKUs []string) {
	ctx := context.Background()
	sink := NewCapturingSink()

	require.NoError(t, c.Connect(ctx, sink))
	require.NoError(t, c.Purchase(ctx, &store.PurchaseIntent{
		SKUs: productSKUs[:1],
		Type: store.TypeInApp,
	}))
	require.NoError(t, c.Disconnect(ctx))

	// No callback runs after Disconnect returns. The outcome may have been
	// delivered before teardown, so drain what is buffered, then require
	// silence.
	for drained := false; !drained; {
		select {
		case <-sink.Results:
		default:
			drained = true
		}
	}

	testutil.NoReceive(t, sink.Results, 100*time.Millisecond)
	testutil.NoReceive(t, sink.SyncErrors, 100*time.Millisecond)
}
