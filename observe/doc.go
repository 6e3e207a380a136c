// Package observe provides logging, tracing and metrics for cache operations.
//
// It is a pure instrumentation library. The features package adapts
// Middleware into the cache execution chain so every remote call made by an
// operation is traced, counted and logged.
package observe
