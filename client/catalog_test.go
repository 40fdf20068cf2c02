package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/iap-client/store"
	"github.com/code-payments/iap-client/store/memory"
	"github.com/code-payments/iap-client/testutil"
)

func TestCatalog_RequiresConnection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	c := newTestClient(t, s, nil)

	_, err := c.FetchProducts(ctx, []string{"p1"})
	require.ErrorIs(t, err, ErrNotConnected)

	_, err = c.FetchSubscriptions(ctx, []string{"s1"})
	require.ErrorIs(t, err, ErrNotConnected)

	// Precondition failures never reach the store.
	require.Equal(t, 0, s.ProductQueries())
	require.Equal(t, 0, s.SubscriptionQueries())
}

func TestCatalog_EmptySKUList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	c := newTestClient(t, s, nil)

	_, err := c.Connect(ctx)
	require.NoError(t, err)

	products, err := c.FetchProducts(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, products)

	subscriptions, err := c.FetchSubscriptions(ctx, []string{})
	require.NoError(t, err)
	require.Empty(t, subscriptions)

	require.Equal(t, 0, s.ProductQueries())
	require.Equal(t, 0, s.SubscriptionQueries())
}

func TestCatalog_FetchReplacesCache(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, newTestStore(), nil)

	_, err := c.Connect(ctx)
	require.NoError(t, err)

	fetched, err := c.FetchProducts(ctx, []string{"p1", "p2"})
	require.NoError(t, err)
	require.Len(t, fetched, 2)
	require.Len(t, c.Products(), 2)

	// A strict-subset fetch fully replaces the cache; stale entries do not
	// linger.
	fetched, err = c.FetchProducts(ctx, []string{"p2"})
	require.NoError(t, err)
	require.Len(t, fetched, 1)

	cached := c.Products()
	require.Len(t, cached, 1)
	require.Equal(t, "p2", cached[0].ID)
}

func TestCatalog_UnknownSKUsAbsent(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, newTestStore(), nil)

	_, err := c.Connect(ctx)
	require.NoError(t, err)

	// p2 is requested but the store does not carry "p3"; no error, the
	// unavailable SKU is simply absent.
	fetched, err := c.FetchProducts(ctx, []string{"p1", "p3"})
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	require.Equal(t, "p1", fetched[0].ID)

	cached := c.Products()
	require.Len(t, cached, 1)
	require.Equal(t, "p1", cached[0].ID)
}

func TestCatalog_FetchFailureKeepsCache(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	c := newTestClient(t, s, nil)

	_, err := c.Connect(ctx)
	require.NoError(t, err)

	_, err = c.FetchProducts(ctx, []string{"p1", "p2"})
	require.NoError(t, err)

	s.ScriptProductQueryFailure(errors.New("store backend flaked"))

	_, err = c.FetchProducts(ctx, []string{"p1"})
	require.ErrorIs(t, err, ErrCatalogFetch)

	// The last successful result survives the failed fetch.
	require.Len(t, c.Products(), 2)
}

func TestCatalog_ConcurrentFetches(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, newTestStore(memory.WithQueryDelay(50*time.Millisecond)), nil)

	_, err := c.Connect(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var products []*store.Product
	var subscriptions []*store.Subscription
	var productErr, subErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		products, productErr = c.FetchProducts(ctx, []string{"p1", "p2"})
	}()
	go func() {
		defer wg.Done()
		subscriptions, subErr = c.FetchSubscriptions(ctx, []string{"s1"})
	}()
	wg.Wait()

	require.NoError(t, productErr)
	require.NoError(t, subErr)
	require.Len(t, products, 2)
	require.Len(t, subscriptions, 1)
}

func TestCatalog_DisconnectWhilePending(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, newTestStore(memory.WithQueryDelay(200*time.Millisecond)), nil)

	_, err := c.Connect(ctx)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, fetchErr := c.FetchProducts(ctx, []string{"p1"})
		errCh <- fetchErr
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, c.Disconnect(ctx))

	// The pending fetch settles instead of hanging.
	fetchErr := testutil.Receive(t, errCh, 5*time.Second)
	require.ErrorIs(t, fetchErr, ErrNotConnected)
}

func TestCatalog_CachedCopiesAreIndependent(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t, newTestStore(), nil)

	_, err := c.Connect(ctx)
	require.NoError(t, err)

	_, err = c.FetchProducts(ctx, []string{"p1"})
	require.NoError(t, err)

	mutated := c.Products()
	mutated[0].Title = "defaced"

	require.Equal(t, "Product One", c.Products()[0].Title)
}
