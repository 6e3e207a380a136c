package cache

import "time"

// Policy configures a feature store.
type Policy struct {
	// Capacity bounds the number of keys kept. Least recently used keys
	// are evicted once it is reached. If zero, the store is unbounded.
	Capacity int

	// TTL makes data older than this read as absent. If zero, data never expires.
	TTL time.Duration

	// Dedupe collapses concurrent runs of the same key into one call.
	Dedupe bool
}

// DefaultPolicy returns an unbounded store without expiry or deduplication.
func DefaultPolicy() Policy {
	return Policy{}
}

// BoundedPolicy returns a policy holding at most capacity keys,
// with deduplication of in-flight requests.
func BoundedPolicy(capacity int, ttl time.Duration) Policy {
	return Policy{
		Capacity: capacity,
		TTL:      ttl,
		Dedupe:   true,
	}
}

// Bounded reports whether the policy limits the number of keys.
func (p Policy) Bounded() bool {
	return p.Capacity > 0
}

// Fresh reports whether data written at updatedAt is still readable at now.
func (p Policy) Fresh(updatedAt, now time.Time) bool {
	if p.TTL <= 0 {
		return true
	}
	return now.Sub(updatedAt) < p.TTL
}
