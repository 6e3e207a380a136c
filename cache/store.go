package cache

import (
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Store is one feature's cache: data, loading and error per key.
// It changes only through Apply, Clear, ClearEntry and Cancel.
//
// Contract:
// - Concurrency: safe for concurrent use; Apply is the single write path for events.
// - Matching: Apply ignores events whose operation is not in the registry.
type Store struct {
	name     string
	registry *Registry
	policy   Policy
	now      func() time.Time

	mu       sync.RWMutex
	records  index
	removing bool
	// floor and cleared hold the newest request sequence issued before a
	// Clear or ClearEntry. Terminal events at or below them are dropped.
	floor   uint64
	cleared map[string]uint64

	seq       atomic.Uint64
	evictions atomic.Int64
	dropped   atomic.Int64

	subMu     sync.RWMutex
	subs      map[int]func(Event)
	nextSubID int
}

// record holds one key's state. started/applied/cancelled order requests.
type record struct {
	data      any
	hasData   bool
	updatedAt time.Time
	loading   bool
	err       string

	started   uint64
	applied   uint64
	cancelled uint64
}

// StoreStats reports store counters.
type StoreStats struct {
	Keys      int
	Evictions int64
	// Dropped counts terminal events ignored as stale or cancelled.
	Dropped int64
}

// NewStore creates a store reacting to the operations in registry.
func NewStore(name string, registry *Registry, policy Policy) *Store {
	s := &Store{
		name:     name,
		registry: registry,
		policy:   policy,
		now:      time.Now,
		subs:     make(map[int]func(Event)),
		cleared:  make(map[string]uint64),
	}
	s.records = s.newIndex()
	return s
}

// Name returns the feature name the store belongs to.
func (s *Store) Name() string {
	return s.name
}

// Policy returns the store policy.
func (s *Store) Policy() Policy {
	return s.policy
}

// Apply reduces an event into the store. It returns the request sequence
// (assigned for start events) and whether the event changed the store.
func (s *Store) Apply(ev Event) (uint64, bool) {
	if !s.registry.Has(ev.Op) {
		return ev.Seq, false
	}

	s.mu.Lock()
	rec, ok := s.records.get(ev.Key)
	if !ok {
		rec = &record{cancelled: max(s.floor, s.cleared[ev.Key])}
	}

	switch ev.Phase {
	case PhaseStart:
		ev.Seq = s.seq.Add(1)
		rec.started = ev.Seq
		rec.loading = true
		rec.err = ""

	case PhaseSuccess, PhaseFailure:
		if ev.Seq != 0 && (ev.Seq <= rec.applied || ev.Seq <= rec.cancelled) {
			s.mu.Unlock()
			s.dropped.Add(1)
			return ev.Seq, false
		}
		if ev.Seq != 0 {
			rec.applied = ev.Seq
		}
		rec.loading = ev.Seq != 0 && rec.started > ev.Seq && rec.started > rec.cancelled

		if ev.Phase == PhaseSuccess {
			rec.data = ev.Payload
			rec.hasData = true
			rec.updatedAt = s.now()
			rec.err = ""
		} else {
			msg := ev.Message
			if msg == "" {
				msg = DefaultFailureMessage
			}
			rec.err = msg
		}

	default:
		s.mu.Unlock()
		return ev.Seq, false
	}

	s.records.put(ev.Key, rec)
	delete(s.cleared, ev.Key)
	s.mu.Unlock()

	s.notify(ev)
	return ev.Seq, true
}

// Cancel abandons the latest in-flight request for key. Its terminal event
// will be dropped and loading is cleared. It reports whether a request was in flight.
func (s *Store) Cancel(key string) bool {
	s.mu.RLock()
	rec, ok := s.records.peek(key)
	var seq uint64
	if ok {
		seq = rec.started
	}
	s.mu.RUnlock()
	if !ok {
		return false
	}
	return s.CancelRequest(key, seq)
}

// CancelRequest abandons the request seq for key and every older one.
// Loading stays set when a newer request is still in flight.
func (s *Store) CancelRequest(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records.peek(key)
	if !ok || !rec.loading || seq <= rec.cancelled || seq <= rec.applied {
		return false
	}
	rec.cancelled = seq
	rec.loading = rec.started > seq
	return true
}

// Clear resets the store: every key reverts to never fetched.
// Requests in flight at the time of the call are abandoned.
func (s *Store) Clear() {
	s.mu.Lock()
	s.records = s.newIndex()
	s.floor = s.seq.Load()
	clear(s.cleared)
	s.mu.Unlock()
}

// ClearEntry removes one key and abandons its in-flight requests.
// Other keys are unaffected.
func (s *Store) ClearEntry(key string) {
	s.mu.Lock()
	if rec, ok := s.records.peek(key); ok && rec.started > s.floor {
		s.cleared[key] = rec.started
	}
	s.removing = true
	s.records.remove(key)
	s.removing = false
	s.mu.Unlock()
}

// Entry returns the state of key. Unseen keys return the zero Entry.
func (s *Store) Entry(key string) Entry {
	s.mu.RLock()
	rec, ok := s.records.peek(key)
	if !ok {
		s.mu.RUnlock()
		return Entry{}
	}
	e := Entry{
		Data:      rec.data,
		HasData:   rec.hasData,
		Loading:   rec.loading,
		Error:     rec.err,
		UpdatedAt: rec.updatedAt,
	}
	s.mu.RUnlock()

	if e.HasData && !s.policy.Fresh(e.UpdatedAt, s.now()) {
		e.Data = nil
		e.HasData = false
	}
	return e
}

// Data returns the cached payload for key, or (nil, false).
func (s *Store) Data(key string) (any, bool) {
	e := s.Entry(key)
	return e.Data, e.HasData
}

// Loading reports whether a request for key is in flight.
func (s *Store) Loading(key string) bool {
	return s.Entry(key).Loading
}

// Error returns the last failure message for key, or "".
func (s *Store) Error(key string) string {
	return s.Entry(key).Error
}

// Keys returns the keys currently held.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records.keys()
}

// Len returns the number of keys held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records.len()
}

// Stats returns store counters.
func (s *Store) Stats() StoreStats {
	return StoreStats{
		Keys:      s.Len(),
		Evictions: s.evictions.Load(),
		Dropped:   s.dropped.Load(),
	}
}

// Subscribe registers fn to be called after every applied event.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(ev Event) {
	s.subMu.RLock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// index abstracts the key space so bounded and unbounded stores share Apply.
type index interface {
	get(key string) (*record, bool)
	peek(key string) (*record, bool)
	put(key string, rec *record)
	remove(key string)
	keys() []string
	len() int
}

func (s *Store) newIndex() index {
	if !s.policy.Bounded() {
		return mapIndex{}
	}
	c, err := lru.NewWithEvict[string, *record](s.policy.Capacity, func(string, *record) {
		// Called with mu held; explicit removals are not evictions.
		if !s.removing {
			s.evictions.Add(1)
		}
	})
	if err != nil {
		// Only returned for a non-positive size, which Bounded rules out.
		return mapIndex{}
	}
	return lruIndex{c: c}
}

type mapIndex map[string]*record

func (m mapIndex) get(key string) (*record, bool) {
	r, ok := m[key]
	return r, ok
}

func (m mapIndex) peek(key string) (*record, bool) {
	return m.get(key)
}

func (m mapIndex) put(key string, rec *record) { m[key] = rec }
func (m mapIndex) remove(key string)           { delete(m, key) }
func (m mapIndex) len() int                    { return len(m) }

func (m mapIndex) keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

type lruIndex struct {
	c *lru.Cache[string, *record]
}

func (l lruIndex) get(key string) (*record, bool)  { return l.c.Get(key) }
func (l lruIndex) peek(key string) (*record, bool) { return l.c.Peek(key) }
func (l lruIndex) put(key string, rec *record)     { l.c.Add(key, rec) }
func (l lruIndex) remove(key string)               { l.c.Remove(key) }
func (l lruIndex) keys() []string                  { return l.c.Keys() }
func (l lruIndex) len() int                        { return l.c.Len() }
