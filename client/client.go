package client

import (
	"context"
	"sync"
	"time"

	"github.com/ReneKroon/ttlcache"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/code-payments/iap-client/event"
	"github.com/code-payments/iap-client/receipt"
	"github.com/code-payments/iap-client/store"
)

var (
	// ErrNotConnected is returned from gated operations while there is no
	// billing session. Callers correct it by connecting and retrying.
	ErrNotConnected = errors.New("not connected to the store")

	// ErrCatalogFetch wraps transient store failures during a catalog fetch.
	// Retrying is the caller's decision.
	ErrCatalogFetch = errors.New("catalog fetch failed")

	// ErrRequestRejected marks a malformed purchase intent. Retrying without
	// correcting the intent will fail again.
	ErrRequestRejected = errors.New("purchase request rejected")
)

const (
	DefaultStreamBufferSize = 64
	DefaultStreamTimeout    = time.Second
	DefaultAlertSuppression = time.Minute
)

// ConnectionState is the billing session lifecycle. It only ever moves
// Disconnected -> Connecting -> Connected, and back to Disconnected on
// teardown or a terminal sync error.
type ConnectionState uint8

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// StateHandler observes connection state transitions. Handlers run
// synchronously on the transitioning goroutine and must not block.
type StateHandler func(state ConnectionState)

type Option func(*Client)

// WithStreamBufferSize sets the per-subscription event buffer.
func WithStreamBufferSize(size int) Option {
	return func(c *Client) { c.streamBufferSize = size }
}

// WithStreamTimeout bounds how long an emission waits on a full
// subscription buffer before the subscription is dropped.
func WithStreamTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.streamTimeout = timeout }
}

// WithAlertSuppression sets the window within which repeated sync errors
// with the same cause signature are not re-alerted.
func WithAlertSuppression(window time.Duration) Option {
	return func(c *Client) { c.alerts.SetTTL(window) }
}

// Client is the purchase orchestration context: it owns the connection
// lifecycle, the cached catalogs, purchase dispatch, the broadcast event
// channel, and per-product receipt validation tracking. Instances are
// independent; nothing is shared between two Clients.
type Client struct {
	log       *zap.Logger
	store     store.Client
	validator receipt.Validator

	streamBufferSize int
	streamTimeout    time.Duration
	alerts           *ttlcache.Cache

	stateMu  sync.Mutex
	state    ConnectionState
	stateBus *event.Bus[store.Platform, ConnectionState]

	catalogMu     sync.Mutex
	products      []*store.Product
	subscriptions []*store.Subscription

	streamsMu     sync.Mutex
	streams       map[string]*event.BufferedStream[*Event, *Event]
	activeSyncErr *store.SyncError

	validationsMu sync.Mutex
	validations   map[string]receipt.Status
}

func NewClient(log *zap.Logger, storeClient store.Client, validator receipt.Validator, opts ...Option) *Client {
	c := &Client{
		log:       log,
		store:     storeClient,
		validator: validator,

		streamBufferSize: DefaultStreamBufferSize,
		streamTimeout:    DefaultStreamTimeout,
		alerts:           ttlcache.NewCache(),

		stateBus:    event.NewBus[store.Platform, ConnectionState](),
		streams:     make(map[string]*event.BufferedStream[*Event, *Event]),
		validations: make(map[string]receipt.Status),
	}
	c.alerts.SetTTL(DefaultAlertSuppression)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Platform reports which store this client orchestrates.
func (c *Client) Platform() store.Platform {
	return c.store.Platform()
}

// State reads the current connection state.
func (c *Client) State() ConnectionState {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	return c.state
}

// OnConnectionChanged registers a handler for state transitions. Handlers
// registered after a transition do not see it retroactively.
func (c *Client) OnConnectionChanged(h StateHandler) {
	c.stateBus.AddHandler(event.HandlerFunc[store.Platform, ConnectionState](
		func(_ store.Platform, state ConnectionState) {
			h(state)
		},
	))
}

// Connect establishes the billing session. It is idempotent: calls while
// Connected (or while another Connect is in flight) are no-ops. On failure
// the state returns to Disconnected and the error is reported for the caller
// to retry; nothing is fatal.
func (c *Client) Connect(ctx context.Context) (ConnectionState, error) {
	c.stateMu.Lock()
	if c.state != Disconnected {
		state := c.state
		c.stateMu.Unlock()
		return state, nil
	}
	c.state = Connecting
	c.stateMu.Unlock()

	c.notifyState(Connecting)

	if err := c.store.Connect(ctx, (*sink)(c)); err != nil {
		c.stateMu.Lock()
		c.state = Disconnected
		c.stateMu.Unlock()

		c.notifyState(Disconnected)

		c.log.Warn("Store connection failed", zap.Error(err))
		return Disconnected, errors.Wrap(err, "failed to connect to store")
	}

	c.stateMu.Lock()
	c.state = Connected
	c.stateMu.Unlock()

	c.notifyState(Connected)

	c.log.Info("Store connected", zap.String("platform", c.store.Platform().String()))
	return Connected, nil
}

// Disconnect releases the billing session and closes every open event
// subscription. Safe to call from any state. Cached catalogs survive as the
// last-known result.
func (c *Client) Disconnect(ctx context.Context) error {
	c.stateMu.Lock()
	if c.state == Disconnected {
		c.stateMu.Unlock()
		return nil
	}
	c.state = Disconnected
	c.stateMu.Unlock()

	err := c.store.Disconnect(ctx)

	c.notifyState(Disconnected)
	c.closeStreams()

	c.log.Info("Store disconnected")
	return err
}

// dropConnection is the terminal sync error path: state goes straight to
// Disconnected and subscriptions close, but the store teardown happens off
// the event goroutine since the store is mid-emission when this runs.
func (c *Client) dropConnection() {
	c.stateMu.Lock()
	if c.state == Disconnected {
		c.stateMu.Unlock()
		return
	}
	c.state = Disconnected
	c.stateMu.Unlock()

	c.notifyState(Disconnected)
	c.closeStreams()

	go func() {
		if err := c.store.Disconnect(context.Background()); err != nil {
			c.log.Warn("Failed to release store session", zap.Error(err))
		}
	}()
}

func (c *Client) notifyState(state ConnectionState) {
	_ = c.stateBus.OnEvent(c.store.Platform(), state)
}
