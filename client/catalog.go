package client

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/code-payments/iap-client/store"
)

// FetchProducts queries the store for one-time product descriptors and
// replaces the cached product list with the result. SKUs unknown to the
// store are simply absent from the result. An empty request is valid and
// yields (and caches) an empty list without touching the store.
//
// Fails with ErrNotConnected when there is no session and ErrCatalogFetch
// on a store failure; on failure the previous cache is retained.
func (c *Client) FetchProducts(ctx context.Context, skus []string) ([]*store.Product, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}

	var fetched []*store.Product
	if len(skus) > 0 {
		var err error
		fetched, err = c.store.QueryProducts(ctx, skus)
		if err != nil {
			return nil, c.catalogError(err, "products", len(skus))
		}
	}

	c.catalogMu.Lock()
	c.products = fetched
	c.catalogMu.Unlock()

	c.log.Debug("Product catalog synced",
		zap.Int("requested", len(skus)),
		zap.Int("fetched", len(fetched)),
	)

	return cloneProducts(fetched), nil
}

// FetchSubscriptions is FetchProducts for subscription descriptors. The two
// fetches are independent and may run concurrently.
func (c *Client) FetchSubscriptions(ctx context.Context, skus []string) ([]*store.Subscription, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}

	var fetched []*store.Subscription
	if len(skus) > 0 {
		var err error
		fetched, err = c.store.QuerySubscriptions(ctx, skus)
		if err != nil {
			return nil, c.catalogError(err, "subscriptions", len(skus))
		}
	}

	c.catalogMu.Lock()
	c.subscriptions = fetched
	c.catalogMu.Unlock()

	c.log.Debug("Subscription catalog synced",
		zap.Int("requested", len(skus)),
		zap.Int("fetched", len(fetched)),
	)

	return cloneSubscriptions(fetched), nil
}

// Products returns the last fetched product catalog.
func (c *Client) Products() []*store.Product {
	c.catalogMu.Lock()
	defer c.catalogMu.Unlock()

	return cloneProducts(c.products)
}

// Subscriptions returns the last fetched subscription catalog.
func (c *Client) Subscriptions() []*store.Subscription {
	c.catalogMu.Lock()
	defer c.catalogMu.Unlock()

	return cloneSubscriptions(c.subscriptions)
}

func (c *Client) requireConnected() error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.state != Connected {
		return errors.Wrapf(ErrNotConnected, "connection state is %s", c.state)
	}
	return nil
}

func (c *Client) catalogError(cause error, category string, requested int) error {
	if errors.Is(cause, store.ErrNotConnected) {
		return errors.Wrap(ErrNotConnected, "store session ended during fetch")
	}

	c.log.Warn("Catalog fetch failed",
		zap.String("category", category),
		zap.Int("requested", requested),
		zap.Error(cause),
	)
	return errors.Wrapf(ErrCatalogFetch, "querying %s: %v", category, cause)
}

func cloneProducts(products []*store.Product) []*store.Product {
	cloned := make([]*store.Product, 0, len(products))
	for _, p := range products {
		cloned = append(cloned, p.Clone())
	}
	return cloned
}

func cloneSubscriptions(subscriptions []*store.Subscription) []*store.Subscription {
	cloned := make([]*store.Subscription, 0, len(subscriptions))
	for _, s := range subscriptions {
		cloned = append(cloned, s.Clone())
	}
	return cloned
}
