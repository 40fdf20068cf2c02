package client

import (
	"go.uber.org/zap"

	"github.com/code-payments/iap-client/event"
	"github.com/code-payments/iap-client/store"
)

// Event is one entry of the purchase event channel. Exactly one field is
// set. Every subscription receives its own clone.
type Event struct {
	PurchaseResult *store.PurchaseResult
	SyncError      *store.SyncError
}

func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}

	return &Event{
		PurchaseResult: e.PurchaseResult.Clone(),
		SyncError:      e.SyncError.Clone(),
	}
}

// OpenEvents opens a subscription to the purchase event channel. The channel
// is a broadcast: every open subscription receives the full event sequence
// in the order the store emitted it, including store-driven redeliveries
// with no originating RequestPurchase call. Opening with an ID that is
// already subscribed closes the previous subscription first.
//
// The returned channel closes when the subscription is closed, the
// connection ends, or the consumer falls too far behind (a full buffer past
// the stream timeout drops the subscription rather than stalling emission
// for everyone else).
func (c *Client) OpenEvents(id string) <-chan *Event {
	ss := event.NewBufferedStream[*Event, *Event](
		id,
		c.streamBufferSize,
		func(e *Event) (*Event, bool) {
			return e.Clone(), true
		},
	)

	c.streamsMu.Lock()
	if existing, ok := c.streams[id]; ok {
		existing.Close()
		c.log.Debug("Closed previous event subscription", zap.String("subscription", id))
	}
	c.streams[id] = ss
	c.streamsMu.Unlock()

	return ss.Channel()
}

// CloseEvents closes the subscription with the given ID, if open.
func (c *Client) CloseEvents(id string) {
	c.streamsMu.Lock()
	defer c.streamsMu.Unlock()

	if ss, ok := c.streams[id]; ok {
		ss.Close()
		delete(c.streams, id)
	}
}

// ActiveSyncError returns the sync error awaiting acknowledgment, or nil.
func (c *Client) ActiveSyncError() *store.SyncError {
	c.streamsMu.Lock()
	defer c.streamsMu.Unlock()

	return c.activeSyncErr.Clone()
}

// AcknowledgeSyncError clears the active sync error and its alert
// suppression entry. Acknowledging when nothing is active is a no-op, so
// repeated acknowledgment is safe.
func (c *Client) AcknowledgeSyncError() {
	c.streamsMu.Lock()
	defer c.streamsMu.Unlock()

	if c.activeSyncErr == nil {
		return
	}

	c.alerts.Remove(c.activeSyncErr.Signature())
	c.activeSyncErr = nil

	c.log.Info("Sync error acknowledged")
}

func (c *Client) closeStreams() {
	c.streamsMu.Lock()
	defer c.streamsMu.Unlock()

	for id, ss := range c.streams {
		ss.Close()
		delete(c.streams, id)
	}
}

func (c *Client) broadcast(e *Event) {
	c.streamsMu.Lock()
	defer c.streamsMu.Unlock()

	for id, ss := range c.streams {
		if err := ss.Notify(e, c.streamTimeout); err != nil {
			// Notify already closed the stream on timeout.
			delete(c.streams, id)
			c.log.Warn("Dropped slow event subscription",
				zap.String("subscription", id),
				zap.Error(err),
			)
		}
	}
}

// sink adapts the client into the store.EventSink callback surface without
// exposing those methods on the public API.
type sink Client

func (s *sink) OnPurchaseResult(result *store.PurchaseResult) {
	c := (*Client)(s)

	if result.Succeeded() {
		c.log.Info("Purchase succeeded",
			zap.String("sku", result.Purchase.SKU),
			zap.String("order_id", result.Purchase.OrderID),
		)
	} else {
		c.log.Warn("Purchase failed",
			zap.String("sku", result.Err.SKU),
			zap.String("code", result.Err.Code.String()),
		)
	}

	c.broadcast(&Event{PurchaseResult: result})
}

func (s *sink) OnSyncError(syncErr *store.SyncError) {
	c := (*Client)(s)

	c.recordSyncError(syncErr)
	c.broadcast(&Event{SyncError: syncErr})

	if syncErr.Terminal() {
		c.log.Warn("Terminal sync error, dropping connection",
			zap.String("code", syncErr.Code.String()),
		)
		c.dropConnection()
	}
}

// recordSyncError makes syncErr the active error and decides whether to
// alert. Repeats of an unacknowledged cause within the suppression window
// log at Debug instead of Warn so the consumer is not re-alerted
// redundantly; the event itself is still broadcast either way.
func (c *Client) recordSyncError(syncErr *store.SyncError) {
	c.streamsMu.Lock()
	defer c.streamsMu.Unlock()

	c.activeSyncErr = syncErr.Clone()

	signature := syncErr.Signature()
	if _, suppressed := c.alerts.Get(signature); suppressed {
		c.log.Debug("Sync error repeated", zap.String("code", syncErr.Code.String()))
		return
	}

	c.alerts.Set(signature, struct{}{})
	c.log.Warn("Sync error",
		zap.String("code", syncErr.Code.String()),
		zap.String("message", syncErr.Message),
	)
}
