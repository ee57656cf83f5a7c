package dashboard

import (
	"context"
	"sync"

	"parkwatch/internal/infrastructure/logger"
	"parkwatch/internal/signals"
)

// Fetcher reads a view's data from scratch.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Snapshot is the state a view renders. Err is set when the latest fetch
// failed; Data then keeps the last good value. Version counts applied fetches.
type Snapshot[T any] struct {
	Data    T
	Err     error
	Loaded  bool
	Version uint64
}

// View owns one slice of derived state. It fetches on Mount and whenever one
// of its triggers fires. Only the most recently started fetch may commit;
// results of superseded fetches are dropped.
type View[T any] struct {
	name     string
	bus      *signals.Bus
	fetch    Fetcher[T]
	triggers []signals.Trigger
	logger   logger.Logger

	mu         sync.Mutex
	ctx        context.Context
	mounted    bool
	mounts     uint64
	generation uint64
	snapshot   Snapshot[T]
	subs       []*signals.Subscription
	onChange   func(Snapshot[T])
}

func NewView[T any](name string, bus *signals.Bus, fetch Fetcher[T], log logger.Logger, triggers ...signals.Trigger) *View[T] {
	return &View[T]{
		name:     name,
		bus:      bus,
		fetch:    fetch,
		triggers: triggers,
		logger:   log.WithField("view", name),
	}
}

func (v *View[T]) Name() string { return v.name }

// OnChange registers fn to run after every committed fetch. fn runs on the
// fetching goroutine.
func (v *View[T]) OnChange(fn func(Snapshot[T])) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

// Mount subscribes to the view's triggers and starts the initial fetch.
// ctx bounds every fetch made while mounted. Mounting twice is a no-op.
func (v *View[T]) Mount(ctx context.Context) <-chan struct{} {
	v.mu.Lock()
	if v.mounted {
		v.mu.Unlock()
		done := make(chan struct{})
		close(done)
		return done
	}
	v.mounted = true
	v.mounts++
	mount := v.mounts
	v.ctx = ctx
	v.mu.Unlock()

	subs := make([]*signals.Subscription, 0, len(v.triggers))
	for _, t := range v.triggers {
		subs = append(subs, t.Watch(v.bus, func() { v.Refresh() }))
	}

	v.mu.Lock()
	if !v.mounted || v.mounts != mount {
		// Unmounted while subscribing; nothing else will drop these.
		v.mu.Unlock()
		for _, sub := range subs {
			sub.Unsubscribe()
		}
		done := make(chan struct{})
		close(done)
		return done
	}
	v.subs = subs
	v.mu.Unlock()

	return v.Refresh()
}

// Unmount drops every subscription. Fetches still in flight complete but
// their results are discarded.
func (v *View[T]) Unmount() {
	v.mu.Lock()
	subs := v.subs
	v.subs = nil
	v.mounted = false
	v.generation++
	v.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
}

// Refresh starts a fetch and returns a channel closed once it settled,
// whether its result was committed or discarded. On an unmounted view it
// returns a closed channel without fetching.
func (v *View[T]) Refresh() <-chan struct{} {
	done := make(chan struct{})

	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		close(done)
		return done
	}
	v.generation++
	gen := v.generation
	ctx := v.ctx
	v.mu.Unlock()

	go func() {
		defer close(done)

		data, err := v.fetch(ctx)

		v.mu.Lock()
		if gen != v.generation {
			v.mu.Unlock()
			v.logger.Debugf("Discarding superseded fetch %d", gen)
			return
		}
		if err != nil {
			v.snapshot.Err = err
		} else {
			v.snapshot.Data = data
			v.snapshot.Err = nil
			v.snapshot.Loaded = true
		}
		v.snapshot.Version++
		snap := v.snapshot
		onChange := v.onChange
		v.mu.Unlock()

		if err != nil {
			v.logger.Warnf("Fetch failed: %v", err)
		}
		if onChange != nil {
			onChange(snap)
		}
	}()

	return done
}

// Snapshot returns the last committed state.
func (v *View[T]) Snapshot() Snapshot[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshot
}

// Mounted reports whether the view currently holds subscriptions.
func (v *View[T]) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}
