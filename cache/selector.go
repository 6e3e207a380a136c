package cache

// Selector reads a value from a store. Selectors never mutate the store
// and do no I/O, so they are safe to call on every render.
type Selector[T any] func(s *Store) T

// SelectData returns a selector for the cached result of arg.
// It yields the zero R until a run with an equal argument succeeds.
func (op *Operation[A, R]) SelectData(arg A) Selector[R] {
	key, err := op.Key(arg)
	return func(s *Store) R {
		var zero R
		if err != nil || s == nil {
			return zero
		}
		v, ok := s.Data(key)
		if !ok {
			return zero
		}
		r, _ := v.(R)
		return r
	}
}

// SelectLoading returns a selector reporting whether a run for arg is in flight.
func (op *Operation[A, R]) SelectLoading(arg A) Selector[bool] {
	key, err := op.Key(arg)
	return func(s *Store) bool {
		if err != nil || s == nil {
			return false
		}
		return s.Loading(key)
	}
}

// SelectError returns a selector for the last failure message of arg, or "".
func (op *Operation[A, R]) SelectError(arg A) Selector[string] {
	key, err := op.Key(arg)
	return func(s *Store) string {
		if err != nil || s == nil {
			return ""
		}
		return s.Error(key)
	}
}

// Cached reads the result for arg from the operation's own store.
func (op *Operation[A, R]) Cached(arg A) (R, bool) {
	var zero R
	key, err := op.Key(arg)
	if err != nil {
		return zero, false
	}
	v, ok := op.feature.store.Data(key)
	if !ok {
		return zero, false
	}
	r, ok := v.(R)
	return r, ok
}

// Loading reports whether a run for arg is in flight.
func (op *Operation[A, R]) Loading(arg A) bool {
	return op.SelectLoading(arg)(op.feature.store)
}

// Error returns the last failure message for arg, or "".
func (op *Operation[A, R]) Error(arg A) string {
	return op.SelectError(arg)(op.feature.store)
}

// SelectKey returns a by-key selector for callers holding a computed key.
func SelectKey(key string) Selector[Entry] {
	return func(s *Store) Entry {
		if s == nil {
			return Entry{}
		}
		return s.Entry(key)
	}
}

// Entry returns data, loading and error for arg from the operation's own store.
func (op *Operation[A, R]) Entry(arg A) Entry {
	key, err := op.Key(arg)
	if err != nil {
		return Entry{}
	}
	return op.feature.store.Entry(key)
}
