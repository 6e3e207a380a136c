package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ExecFunc executes a named operation with its argument.
type ExecFunc func(ctx context.Context, op string, arg any) (any, error)

// Middleware wraps operation execution. The store update happens outside
// the chain, so middleware observes the remote call only.
type Middleware func(next ExecFunc) ExecFunc

// Feature groups a registry of operations with the store they populate.
type Feature struct {
	name       string
	registry   *Registry
	store      *Store
	keyer      Keyer
	middleware []Middleware
	group      singleflight.Group

	flightMu  sync.Mutex
	flights   map[string]*flight
	flightSeq uint64
}

// flight is one shared run of an operation for a key. Its context is
// detached from any single caller and is cancelled when the last waiter leaves.
type flight struct {
	id      string
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// FeatureOption configures a Feature.
type FeatureOption func(*Feature)

// WithKeyer sets the keyer used by the feature's operations.
// Default: DefaultKeyer.
func WithKeyer(k Keyer) FeatureOption {
	return func(f *Feature) {
		if k != nil {
			f.keyer = k
		}
	}
}

// WithMiddleware appends execution middleware. The first one is outermost.
func WithMiddleware(mw ...Middleware) FeatureOption {
	return func(f *Feature) {
		f.middleware = append(f.middleware, mw...)
	}
}

// NewFeature creates a feature with an empty registry and store.
func NewFeature(name string, policy Policy, opts ...FeatureOption) *Feature {
	registry := NewRegistry()
	f := &Feature{
		name:     strings.TrimSpace(name),
		registry: registry,
		store:    NewStore(name, registry, policy),
		keyer:    NewDefaultKeyer(),
		flights:  make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the feature name.
func (f *Feature) Name() string {
	return f.name
}

// Store returns the feature store.
func (f *Feature) Store() *Store {
	return f.store
}

// Registry returns the feature registry.
func (f *Feature) Registry() *Registry {
	return f.registry
}

// Keyer returns the feature keyer.
func (f *Feature) Keyer() Keyer {
	return f.keyer
}

// Clear empties the feature store.
func (f *Feature) Clear() {
	f.store.Clear()
}

// ClearEntry removes one key from the feature store.
func (f *Feature) ClearEntry(key string) {
	f.store.ClearEntry(key)
}

// qualify returns the fully qualified operation name.
func (f *Feature) qualify(op string) string {
	return f.name + "/" + op
}

func (f *Feature) chain(final ExecFunc) ExecFunc {
	exec := final
	for i := len(f.middleware) - 1; i >= 0; i-- {
		exec = f.middleware[i](exec)
	}
	return exec
}

// join registers a waiter on the shared run for key, starting a new flight
// when none is open. The flight keeps the values of ctx but not its cancellation.
func (f *Feature) join(ctx context.Context, key string) *flight {
	f.flightMu.Lock()
	defer f.flightMu.Unlock()

	if fl, ok := f.flights[key]; ok {
		fl.waiters++
		return fl
	}
	f.flightSeq++
	fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	fl := &flight{
		id:      key + "#" + strconv.FormatUint(f.flightSeq, 10),
		ctx:     fctx,
		cancel:  cancel,
		waiters: 1,
	}
	f.flights[key] = fl
	return fl
}

// leave removes a waiter. The last one out closes the flight; a run still
// in progress is then cancelled.
func (f *Feature) leave(key string, fl *flight) {
	f.flightMu.Lock()
	defer f.flightMu.Unlock()

	fl.waiters--
	if fl.waiters > 0 {
		return
	}
	if f.flights[key] == fl {
		delete(f.flights, key)
	}
	fl.cancel()
}
