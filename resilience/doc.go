// Package resilience bounds calls to the backend.
//
// A Timeout gives every request a deadline and a Bulkhead caps the number of
// requests in flight. There is no retry: a failed operation records its
// failure in the cache and the caller re-invokes it.
//
//	exec := resilience.NewExecutor(
//		resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 6})),
//		resilience.WithTimeout(30*time.Second),
//	)
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//		return doRequest(ctx)
//	})
package resilience
