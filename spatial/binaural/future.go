package binaural

import (
	"context"
	"sync"
)

// Future is a one-shot handle on an HRIR set that becomes available later.
// It resolves exactly once, with a set or an error.
type Future struct {
	done chan struct{}
	once sync.Once

	set *HRIRSet
	err error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a future that is already complete.
func Resolved(set *HRIRSet, err error) *Future {
	f := newFuture()
	f.resolve(set, err)
	return f
}

// LoadAsync starts loading paths on its own goroutine and returns
// immediately.
func LoadAsync(ctx context.Context, l *Loader, paths []string) *Future {
	f := newFuture()
	go func() {
		f.resolve(l.Load(ctx, paths))
	}()
	return f
}

func (f *Future) resolve(set *HRIRSet, err error) {
	f.once.Do(func() {
		f.set, f.err = set, err
		close(f.done)
	})
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Ready reports without blocking whether the result is available.
func (f *Future) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result blocks until the future resolves and returns its outcome.
func (f *Future) Result() (*HRIRSet, error) {
	<-f.done
	return f.set, f.err
}

// Wait is Result bounded by ctx.
func (f *Future) Wait(ctx context.Context) (*HRIRSet, error) {
	select {
	case <-f.done:
		return f.set, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
