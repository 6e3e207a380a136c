package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestTimeout_Expires(t *testing.T) {
	tm := NewTimeout(TimeoutConfig{Timeout: 10 * time.Millisecond})

	err := tm.Execute(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Execute() error = %v, want ErrTimeout", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Execute() error = %v, want the operation error kept", err)
	}
}

func TestTimeout_ParentCancelIsNotTimeout(t *testing.T) {
	tm := NewTimeout(TimeoutConfig{Timeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tm.Execute(ctx, func(ctx context.Context) error { return ctx.Err() })
	if errors.Is(err, ErrTimeout) || !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled only", err)
	}
}

func TestTimeout_Default(t *testing.T) {
	if got := NewTimeout(TimeoutConfig{}).Config().Timeout; got != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", got, DefaultTimeout)
	}
}

func TestBulkhead_LimitsConcurrency(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 2})
	release := make(chan struct{})
	var started sync.WaitGroup
	var done sync.WaitGroup

	for i := 0; i < 2; i++ {
		started.Add(1)
		done.Add(1)
		go func() {
			defer done.Done()
			_ = b.Execute(context.Background(), func(context.Context) error {
				started.Done()
				<-release
				return nil
			})
		}()
	}
	started.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := b.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() on full bulkhead error = %v, want deadline", err)
	}

	close(release)
	done.Wait()

	m := b.Metrics()
	if m.Active != 0 || m.MaxActive != 2 || m.Available != 2 {
		t.Errorf("Metrics() = %+v", m)
	}
}

func TestBulkhead_MaxWait(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: 5 * time.Millisecond})
	if err := b.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer b.Release()

	if err := b.Acquire(context.Background()); !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("Acquire() error = %v, want ErrBulkheadFull", err)
	}
	if got := b.Metrics().Rejected; got != 1 {
		t.Errorf("Rejected = %d, want 1", got)
	}
}

func TestExecutor(t *testing.T) {
	e := NewExecutor(
		WithBulkhead(NewBulkhead(BulkheadConfig{MaxConcurrent: 1})),
		WithTimeout(10*time.Millisecond),
	)

	if err := e.Execute(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Errorf("Execute() error = %v", err)
	}

	err := e.Execute(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Execute() error = %v, want ErrTimeout", err)
	}
	if got := e.Bulkhead().Metrics().Active; got != 0 {
		t.Errorf("slot leaked: Active = %d", got)
	}

	plain := NewExecutor()
	boom := errors.New("boom")
	if err := plain.Execute(context.Background(), func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Execute() error = %v", err)
	}
}
