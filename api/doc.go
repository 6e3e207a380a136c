// Package api is the HTTP client for the election backend.
//
// Every request carries the bearer token of the session found in its
// context, the tenant host header when one is configured, and a fresh
// request ID. Failures come back as *Error, whose UserMessage is the text
// recorded in the cache:
//
//   - transport failures read "Network error"
//   - server failures read the message found in the response body
//   - otherwise the per-operation failure message passed by the caller
package api
