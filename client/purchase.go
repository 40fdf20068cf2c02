package client

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/code-payments/iap-client/store"
)

// RequestPurchase hands a purchase intent to the store and returns once the
// store has accepted it, before any outcome is known. Outcomes arrive on the
// event channel. Repeated identical intents are independent attempts; the
// client performs no deduplication.
//
// Precondition and intent-shape violations are reported synchronously:
// ErrNotConnected without a session, ErrRequestRejected for a malformed
// intent (no SKUs, unknown purchase type, or a Play subscription intent
// missing an offer token for one of its SKUs).
func (c *Client) RequestPurchase(ctx context.Context, intent *store.PurchaseIntent) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	if err := c.checkIntent(intent); err != nil {
		return err
	}

	if err := c.store.Purchase(ctx, intent.Clone()); err != nil {
		if errors.Is(err, store.ErrNotConnected) {
			return errors.Wrap(ErrNotConnected, "store session ended during dispatch")
		}
		return errors.Wrap(err, "failed to hand purchase to store")
	}

	c.log.Debug("Purchase dispatched",
		zap.Strings("skus", intent.SKUs),
		zap.String("type", intent.Type.String()),
	)

	return nil
}

func (c *Client) checkIntent(intent *store.PurchaseIntent) error {
	if intent == nil || len(intent.SKUs) == 0 {
		return errors.Wrap(ErrRequestRejected, "intent names no SKUs")
	}

	switch intent.Type {
	case store.TypeInApp, store.TypeSubs:
	default:
		return errors.Wrap(ErrRequestRejected, "intent has no purchase type")
	}

	// Play subscriptions are purchased against a specific pricing offer, so
	// the intent must select one per SKU. StoreKit has no offer tokens.
	if intent.Type == store.TypeSubs && c.store.Platform() == store.PlatformGoogle {
		for _, sku := range intent.SKUs {
			if intent.OfferTokens[sku] == "" {
				return errors.Wrapf(ErrRequestRejected, "no offer token for subscription %s", sku)
			}
		}
	}

	return nil
}
