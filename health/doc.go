// Package health reports whether an ems client can do useful work.
//
// A Checker inspects one dependency and returns a Result with a Status:
// Healthy, Degraded, or Unhealthy. Three checkers cover the client:
//
//   - BackendChecker pings the election backend through the api client.
//   - SessionChecker reports whether a usable session is persisted.
//   - CacheChecker summarizes the feature stores of a Root.
//
// An Aggregator runs a set of checkers concurrently and folds their results
// into a Report, which Handler serves as JSON:
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewBackendChecker(client, "/health"))
//	agg.Register(health.NewSessionChecker(sessions))
//	agg.Register(health.NewCacheChecker(root))
//
//	report := agg.Run(ctx)
//	if report.Status == health.StatusUnhealthy {
//		log.Printf("backend down: %s", report.Checks["backend"].Message)
//	}
package health
