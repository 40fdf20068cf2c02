package memory

import (
	"context"
	"crypto/ed25519"
	"sync"
	"time"

	"github.com/code-payments/iap-client/model"
	receiptmemory "github.com/code-payments/iap-client/receipt/memory"
	"github.com/code-payments/iap-client/store"
)

const emitBuffer = 256

// Store is a scripted, in-memory stand-in for a native billing integration.
// Catalogs are seeded up front, failures and purchase outcomes are scripted,
// and every event goes through a single pump goroutine so each sink observes
// one total emission order.
type Store struct {
	platform store.Platform
	signer   ed25519.PrivateKey

	// emitMu serializes emitters and is always taken before mu, so a sender
	// blocked on a full emit queue never holds mu against the pump.
	emitMu sync.Mutex
	emits  chan emitJob

	mu            sync.Mutex
	connected     bool
	sink          store.EventSink
	products      map[string]*store.Product
	subscriptions map[string]*store.Subscription
	pending       []*store.Purchase
	outcomes      map[string][]*purchaseOutcome

	connectErr error
	productErr error
	subErr     error
	queryDelay time.Duration

	connectCalls        int
	productQueries      int
	subscriptionQueries int
	purchaseCalls       int
}

type purchaseOutcome struct {
	code    store.PurchaseErrorCode
	message string
}

type emitJob struct {
	result  *store.PurchaseResult
	syncErr *store.SyncError
	barrier chan struct{}
}

type Option func(*Store)

func WithPlatform(p store.Platform) Option {
	return func(s *Store) { s.platform = p }
}

func WithProducts(products ...*store.Product) Option {
	return func(s *Store) {
		for _, p := range products {
			s.products[p.ID] = p.Clone()
		}
	}
}

func WithSubscriptions(subscriptions ...*store.Subscription) Option {
	return func(s *Store) {
		for _, sub := range subscriptions {
			s.subscriptions[sub.ID] = sub.Clone()
		}
	}
}

// WithPendingPurchases seeds purchases the store redelivers shortly after the
// next Connect, as a real store does for transactions finished while the app
// was away.
func WithPendingPurchases(purchases ...*store.Purchase) Option {
	return func(s *Store) {
		for _, p := range purchases {
			s.pending = append(s.pending, p.Clone())
		}
	}
}

// WithQueryDelay makes catalog queries take d before resolving, to exercise
// callers racing a teardown against an in-flight fetch.
func WithQueryDelay(d time.Duration) Option {
	return func(s *Store) { s.queryDelay = d }
}

// WithReceiptSigner makes minted purchases carry ed25519-signed receipts the
// receipt/memory validator accepts.
func WithReceiptSigner(priv ed25519.PrivateKey) Option {
	return func(s *Store) { s.signer = priv }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		products:      make(map[string]*store.Product),
		subscriptions: make(map[string]*store.Subscription),
		outcomes:      make(map[string][]*purchaseOutcome),
		emits:         make(chan emitJob, emitBuffer),
		platform:      store.PlatformApple,
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.pump()

	return s
}

func (s *Store) pump() {
	for job := range s.emits {
		if job.barrier != nil {
			close(job.barrier)
			continue
		}

		s.mu.Lock()
		sink := s.sink
		s.mu.Unlock()

		if sink == nil {
			continue
		}
		if job.result != nil {
			sink.OnPurchaseResult(job.result)
		}
		if job.syncErr != nil {
			sink.OnSyncError(job.syncErr)
		}
	}
}

func (s *Store) Platform() store.Platform {
	return s.platform
}

func (s *Store) Connect(ctx context.Context, sink store.EventSink) error {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	s.connectCalls++

	if err := s.connectErr; err != nil {
		s.connectErr = nil
		s.mu.Unlock()
		return err
	}
	if s.connected {
		s.mu.Unlock()
		return nil
	}

	s.connected = true
	s.sink = sink
	redeliveries := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, p := range redeliveries {
		s.emits <- emitJob{result: &store.PurchaseResult{Purchase: p}}
	}

	return nil
}

// Disconnect releases the session. It returns only after every event already
// queued has been delivered or dropped, so no sink callback runs afterwards.
func (s *Store) Disconnect(ctx context.Context) error {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	s.connected = false
	s.sink = nil
	s.mu.Unlock()

	flushed := make(chan struct{})
	s.emits <- emitJob{barrier: flushed}
	<-flushed

	return nil
}

func (s *Store) QueryProducts(ctx context.Context, skus []string) ([]*store.Product, error) {
	s.mu.Lock()
	s.productQueries++
	if !s.connected {
		s.mu.Unlock()
		return nil, store.ErrNotConnected
	}
	if err := s.productErr; err != nil {
		s.productErr = nil
		s.mu.Unlock()
		return nil, err
	}
	delay := s.queryDelay
	s.mu.Unlock()

	if err := s.wait(ctx, delay); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil, store.ErrNotConnected
	}

	results := make([]*store.Product, 0, len(skus))
	for _, sku := range skus {
		if p, ok := s.products[sku]; ok {
			results = append(results, p.Clone())
		}
	}
	return results, nil
}

func (s *Store) QuerySubscriptions(ctx context.Context, skus []string) ([]*store.Subscription, error) {
	s.mu.Lock()
	s.subscriptionQueries++
	if !s.connected {
		s.mu.Unlock()
		return nil, store.ErrNotConnected
	}
	if err := s.subErr; err != nil {
		s.subErr = nil
		s.mu.Unlock()
		return nil, err
	}
	delay := s.queryDelay
	s.mu.Unlock()

	if err := s.wait(ctx, delay); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil, store.ErrNotConnected
	}

	results := make([]*store.Subscription, 0, len(skus))
	for _, sku := range skus {
		if sub, ok := s.subscriptions[sku]; ok {
			results = append(results, sub.Clone())
		}
	}
	return results, nil
}

func (s *Store) Purchase(ctx context.Context, intent *store.PurchaseIntent) error {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	s.purchaseCalls++
	if !s.connected {
		s.mu.Unlock()
		return store.ErrNotConnected
	}

	// Outcomes are decided before the call returns so back-to-back purchases
	// consume scripts, and emit, in dispatch order.
	jobs := make([]emitJob, 0, len(intent.SKUs))
	for _, sku := range intent.SKUs {
		if outcome := s.popOutcome(sku); outcome != nil {
			jobs = append(jobs, emitJob{result: &store.PurchaseResult{Err: &store.PurchaseError{
				SKU:     sku,
				Code:    outcome.code,
				Message: outcome.message,
			}}})
			continue
		}
		jobs = append(jobs, emitJob{result: &store.PurchaseResult{Purchase: s.mintPurchase(sku)}})
	}
	s.mu.Unlock()

	for _, job := range jobs {
		s.emits <- job
	}

	return nil
}

// EmitPurchase injects a store-driven purchase result, e.g. a redelivery with
// no originating purchase call.
func (s *Store) EmitPurchase(p *store.Purchase) {
	s.emitMu.Lock()
	s.emits <- emitJob{result: &store.PurchaseResult{Purchase: p.Clone()}}
	s.emitMu.Unlock()
}

// EmitSyncError injects a session-level store failure.
func (s *Store) EmitSyncError(syncErr *store.SyncError) {
	s.emitMu.Lock()
	s.emits <- emitJob{syncErr: syncErr.Clone()}
	s.emitMu.Unlock()
}

// ScriptConnectFailure makes the next Connect fail with err.
func (s *Store) ScriptConnectFailure(err error) {
	s.mu.Lock()
	s.connectErr = err
	s.mu.Unlock()
}

// ScriptProductQueryFailure makes the next QueryProducts fail with err.
func (s *Store) ScriptProductQueryFailure(err error) {
	s.mu.Lock()
	s.productErr = err
	s.mu.Unlock()
}

// ScriptSubscriptionQueryFailure makes the next QuerySubscriptions fail with err.
func (s *Store) ScriptSubscriptionQueryFailure(err error) {
	s.mu.Lock()
	s.subErr = err
	s.mu.Unlock()
}

// ScriptPurchaseFailure queues a failure outcome for the next purchase of
// sku. Unscripted purchases succeed.
func (s *Store) ScriptPurchaseFailure(sku string, code store.PurchaseErrorCode, message string) {
	s.mu.Lock()
	s.outcomes[sku] = append(s.outcomes[sku], &purchaseOutcome{code: code, message: message})
	s.mu.Unlock()
}

func (s *Store) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.connected
}

func (s *Store) ConnectCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.connectCalls
}

func (s *Store) ProductQueries() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.productQueries
}

func (s *Store) SubscriptionQueries() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.subscriptionQueries
}

func (s *Store) PurchaseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.purchaseCalls
}

// reset returns the store to its post-construction state: seeded catalogs
// survive, the session, scripts, and counters do not.
func (s *Store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = false
	s.sink = nil
	s.pending = nil
	s.outcomes = make(map[string][]*purchaseOutcome)
	s.connectErr = nil
	s.productErr = nil
	s.subErr = nil
	s.connectCalls = 0
	s.productQueries = 0
	s.subscriptionQueries = 0
	s.purchaseCalls = 0
}

func (s *Store) wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) popOutcome(sku string) *purchaseOutcome {
	queue := s.outcomes[sku]
	if len(queue) == 0 {
		return nil
	}

	outcome := queue[0]
	s.outcomes[sku] = queue[1:]
	return outcome
}

func (s *Store) mintPurchase(sku string) *store.Purchase {
	p := &store.Purchase{
		SKU:         sku,
		OrderID:     model.MustGenerateOrderID(),
		Token:       model.MustGeneratePurchaseToken(),
		Platform:    s.platform,
		PurchasedAt: time.Now(),
	}

	if s.signer != nil {
		p.Receipt = receiptmemory.GenerateValidReceipt(s.signer, sku)
	} else {
		p.Receipt = p.Token
	}
	return p
}
