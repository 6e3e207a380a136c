// Package cache provides a keyed cache for asynchronous remote calls.
//
// A Feature owns a Registry of named operations and the Store they populate.
// Running an operation emits a start event, then a success or failure event;
// the Store reduces those events into per-key data, loading and error state.
// Keys are derived from the operation name and a canonical JSON encoding of
// the argument, so structurally equal arguments share an entry. Selectors
// rebuild the same key to read entries without side effects.
package cache
