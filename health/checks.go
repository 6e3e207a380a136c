package health

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jonwraymond/ems/api"
	"github.com/jonwraymond/ems/auth"
	"github.com/jonwraymond/ems/cache"
)

// BackendChecker pings the election backend.
type BackendChecker struct {
	client *api.Client
	path   string
}

// NewBackendChecker creates a checker issuing GET path against client.
func NewBackendChecker(client *api.Client, path string) *BackendChecker {
	return &BackendChecker{client: client, path: path}
}

// Name returns "backend".
func (b *BackendChecker) Name() string { return "backend" }

// Check reports unreachable backends and 5xx answers as unhealthy. Any
// other non-2xx answer means the server is up, so it is degraded.
func (b *BackendChecker) Check(ctx context.Context) Result {
	details := map[string]any{"base_url": b.client.BaseURL()}

	resp, err := b.client.Do(ctx, api.Request{Method: http.MethodGet, Path: b.path})
	if err != nil {
		status := api.StatusCode(err)
		details["status_code"] = status
		switch {
		case errors.Is(err, api.ErrNetwork):
			return Unhealthy(api.NetworkErrorMessage, err).WithDetails(details)
		case status >= http.StatusInternalServerError:
			return Unhealthy("backend error", err).WithDetails(details)
		default:
			return Degraded("backend answered "+http.StatusText(status), err).WithDetails(details)
		}
	}
	details["status_code"] = resp.Status
	return Healthy("backend reachable").WithDetails(details)
}

// SessionChecker reports on the persisted session.
type SessionChecker struct {
	store auth.SessionStore
	now   func() time.Time
}

// NewSessionChecker creates a checker reading store. It never clears the
// stored session.
func NewSessionChecker(store auth.SessionStore) *SessionChecker {
	return &SessionChecker{store: store, now: time.Now}
}

// Name returns "session".
func (s *SessionChecker) Name() string { return "session" }

// Check reports a signed-out or expired session as degraded and an
// unreadable store as unhealthy.
func (s *SessionChecker) Check(context.Context) Result {
	sess, err := s.store.Load()
	switch {
	case errors.Is(err, auth.ErrNoSession):
		return Degraded("signed out", err)
	case err != nil:
		return Unhealthy("session storage unreadable", err)
	case !sess.HasToken():
		return Degraded("signed out", auth.ErrNoSession)
	case sess.Expired(s.now()):
		return Degraded("session expired", auth.ErrSessionExpired)
	}

	details := map[string]any{"role": string(sess.Role)}
	if sess.User != nil {
		details["user_id"] = sess.User.ID
	}
	return Healthy("signed in").WithDetails(details)
}

// StatsSource exposes per-feature cache statistics.
type StatsSource interface {
	Stats() map[string]cache.StoreStats
}

// CacheChecker summarizes the feature stores. Caches are always usable, so
// the result is healthy; the details carry the numbers.
type CacheChecker struct {
	source StatsSource
}

// NewCacheChecker creates a checker over source, typically a features.Root.
func NewCacheChecker(source StatsSource) *CacheChecker {
	return &CacheChecker{source: source}
}

// Name returns "cache".
func (c *CacheChecker) Name() string { return "cache" }

// Check reports key, eviction and drop counts per feature.
func (c *CacheChecker) Check(context.Context) Result {
	details := make(map[string]any)
	total := 0
	for name, st := range c.source.Stats() {
		total += st.Keys
		details[name] = map[string]any{
			"keys":      st.Keys,
			"evictions": st.Evictions,
			"dropped":   st.Dropped,
		}
	}
	details["total_keys"] = total
	return Healthy("cache available").WithDetails(details)
}
