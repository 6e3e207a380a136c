package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Func is the remote call behind an operation.
type Func[A, R any] func(ctx context.Context, arg A) (R, error)

// Operation is a named asynchronous call whose outcome is cached per argument.
//
// Contract:
//   - Concurrency: Run may be called concurrently; each run emits a start event
//     and exactly one terminal event unless it is cancelled.
//   - Errors: Run returns the call's error unchanged; the store records its message.
type Operation[A, R any] struct {
	feature *Feature
	name    string
	fn      Func[A, R]
	keyFn   func(A) any
	exec    ExecFunc
}

// Define registers an operation on f. The operation name is qualified
// with the feature name, e.g. "elections/getElectionById".
func Define[A, R any](f *Feature, name string, fn Func[A, R]) (*Operation[A, R], error) {
	if f == nil {
		return nil, ErrNilFeature
	}
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return nil, ErrInvalidName
	}

	qualified := f.qualify(name)
	if err := f.registry.Register(qualified); err != nil {
		return nil, err
	}

	op := &Operation[A, R]{
		feature: f,
		name:    qualified,
		fn:      fn,
	}
	op.exec = f.chain(func(ctx context.Context, _ string, arg any) (any, error) {
		a, ok := arg.(A)
		if !ok && arg != nil {
			return nil, fmt.Errorf("cache: %s: unexpected argument type %T", qualified, arg)
		}
		return fn(ctx, a)
	})
	return op, nil
}

// MustDefine is like Define but panics on error. Use it for static registration.
func MustDefine[A, R any](f *Feature, name string, fn Func[A, R]) *Operation[A, R] {
	op, err := Define(f, name, fn)
	if err != nil {
		panic(err)
	}
	return op
}

// KeyBy keys runs by fn(arg) instead of arg. Use it for arguments that
// cannot be serialized, such as uploads.
func (op *Operation[A, R]) KeyBy(fn func(A) any) *Operation[A, R] {
	op.keyFn = fn
	return op
}

// Name returns the fully qualified operation name.
func (op *Operation[A, R]) Name() string {
	return op.name
}

// Feature returns the feature the operation belongs to.
func (op *Operation[A, R]) Feature() *Feature {
	return op.feature
}

// Key derives the cache key for arg.
func (op *Operation[A, R]) Key(arg A) (string, error) {
	var v any = arg
	if op.keyFn != nil {
		v = op.keyFn(arg)
	}
	return op.feature.keyer.Key(op.name, v)
}

// Run executes the operation and records its outcome under the key for arg.
// A context cancellation abandons the request: its outcome is not recorded.
// With Policy.Dedupe, concurrent runs for one key share a request, which is
// abandoned only once every caller has gone.
func (op *Operation[A, R]) Run(ctx context.Context, arg A) (R, error) {
	var zero R

	key, err := op.Key(arg)
	if err != nil {
		return zero, fmt.Errorf("cache: %s: %w", op.name, err)
	}

	if !op.feature.store.Policy().Dedupe {
		return op.execute(ctx, key, arg)
	}

	// Waiters share one run; each stops waiting when its own ctx ends.
	fl := op.feature.join(ctx, key)
	defer op.feature.leave(key, fl)

	ch := op.feature.group.DoChan(fl.id, func() (any, error) {
		return op.execute(fl.ctx, key, arg)
	})
	select {
	case res := <-ch:
		result, _ := res.Val.(R)
		return result, res.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (op *Operation[A, R]) execute(ctx context.Context, key string, arg A) (R, error) {
	var zero R
	store := op.feature.store

	seq, _ := store.Apply(Start(op.name, key))

	v, err := op.exec(ctx, op.name, arg)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			store.CancelRequest(key, seq)
			return zero, err
		}
		store.Apply(Failure(op.name, key, seq, FailureMessage(err)))
		return zero, err
	}

	result, _ := v.(R)
	store.Apply(Success(op.name, key, seq, result))
	return result, nil
}

// Invalidate removes the entry for arg from the feature store.
func (op *Operation[A, R]) Invalidate(arg A) error {
	key, err := op.Key(arg)
	if err != nil {
		return err
	}
	op.feature.store.ClearEntry(key)
	return nil
}

// Cancel abandons the in-flight run for arg, if any.
func (op *Operation[A, R]) Cancel(arg A) bool {
	key, err := op.Key(arg)
	if err != nil {
		return false
	}
	return op.feature.store.Cancel(key)
}
