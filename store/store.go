package store

import (
	"context"
	"errors"
)

var ErrNotConnected = errors.New("store connection is not established")

// Platform identifies which native store a client fronts.
type Platform uint8

const (
	PlatformUnknown Platform = iota
	PlatformApple
	PlatformGoogle
)

func (p Platform) String() string {
	switch p {
	case PlatformApple:
		return "apple"
	case PlatformGoogle:
		return "google"
	default:
		return "unknown"
	}
}

// EventSink receives the store's asynchronous events. Implementations must
// be safe for calls from the store's own goroutines; a store emits events in
// a single total order and never calls the sink after Disconnect returns.
type EventSink interface {
	OnPurchaseResult(result *PurchaseResult)
	OnSyncError(syncErr *SyncError)
}

// Client is the contract a native billing integration satisfies. All methods
// are blocking; long calls must honor ctx cancellation.
type Client interface {
	// Platform reports which store this client talks to.
	Platform() Platform

	// Connect establishes the billing session and binds the sink that will
	// receive events for its lifetime. A store may redeliver purchases left
	// pending from a previous session shortly after Connect returns.
	Connect(ctx context.Context, sink EventSink) error

	// Disconnect releases the billing session. It is safe to call in any
	// state, including before Connect.
	Disconnect(ctx context.Context) error

	// QueryProducts returns descriptors for the requested one-time product
	// SKUs, preserving request order. SKUs the store does not know are
	// absent from the result rather than an error.
	//
	// ErrNotConnected is returned if there is no billing session.
	QueryProducts(ctx context.Context, skus []string) ([]*Product, error)

	// QuerySubscriptions is QueryProducts for subscription SKUs.
	QuerySubscriptions(ctx context.Context, skus []string) ([]*Subscription, error)

	// Purchase hands a purchase attempt to the store. It returns once the
	// request is accepted; the outcome arrives later through the EventSink.
	// Repeated identical intents are distinct attempts.
	Purchase(ctx context.Context, intent *PurchaseIntent) error
}
