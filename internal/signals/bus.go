// Package signals is a process-local typed publish/subscribe registry. A
// component that completes a mutation emits a signal; components that derive
// state from the mutated data subscribe and re-read.
//
// The set of signals is closed: values of Signal can only be declared in this
// package.
package signals

import (
	"fmt"
	"sync"
	"sync/atomic"

	"parkwatch/internal/infrastructure/logger"
)

// District identifies the district a user selected.
type District struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Signal is a named event carrying an advisory detail of type T.
type Signal[T any] struct {
	name string
}

func (s Signal[T]) Name() string { return s.name }

var (
	// AlertsUpdated fires after an alert changed read or processing state.
	AlertsUpdated = Signal[struct{}]{name: "alerts-updated"}
	// ParkingChange fires after the active parking lot changed. The detail is
	// the new parking id and may be empty.
	ParkingChange = Signal[string]{name: "parking-change"}
	// DistrictChange fires after the active district changed.
	DistrictChange = Signal[District]{name: "district-change"}
)

// Trigger is a signal viewed without its detail type. Views use it to list
// the signals that make them refetch.
type Trigger interface {
	Name() string
	Watch(b *Bus, fn func()) *Subscription
}

var (
	_ Trigger = AlertsUpdated
	_ Trigger = ParkingChange
	_ Trigger = DistrictChange
)

// Watch subscribes fn to s, discarding the detail.
func (s Signal[T]) Watch(b *Bus, fn func()) *Subscription {
	return Subscribe(b, s, func(T) { fn() })
}

// Subscription is one registered handler. The component that registered it
// owns its removal.
type Subscription struct {
	bus    *Bus
	signal string
	active atomic.Bool
	call   func(any)
}

// Unsubscribe removes the handler. Emits that start after it returns never
// invoke the handler. Calling it again is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil || !s.active.CompareAndSwap(true, false) {
		return
	}
	s.bus.remove(s)
}

// Active reports whether the subscription is still registered.
func (s *Subscription) Active() bool { return s != nil && s.active.Load() }

// Bus holds subscriptions keyed by signal name.
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]*Subscription

	logger logger.Logger
}

func NewBus(logger logger.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]*Subscription),
		logger:   logger.WithField("component", "signals"),
	}
}

// Subscribe registers fn for s. Handlers of one signal run in registration
// order.
func Subscribe[T any](b *Bus, s Signal[T], fn func(T)) *Subscription {
	sub := &Subscription{
		bus:    b,
		signal: s.name,
		call:   func(detail any) { fn(detail.(T)) },
	}
	sub.active.Store(true)

	b.mu.Lock()
	b.handlers[s.name] = append(b.handlers[s.name], sub)
	b.mu.Unlock()

	return sub
}

// Emit invokes every handler of s synchronously with detail. A signal with no
// subscribers is a no-op. A panicking handler is logged and the remaining
// handlers still run.
func Emit[T any](b *Bus, s Signal[T], detail T) {
	b.mu.Lock()
	subs := make([]*Subscription, len(b.handlers[s.name]))
	copy(subs, b.handlers[s.name])
	b.mu.Unlock()

	if len(subs) == 0 {
		return
	}

	b.logger.Debugf("Emitting %s to %d handlers", s.name, len(subs))
	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		b.dispatch(sub, detail)
	}
}

// Subscribers returns the number of live handlers for t.
func (b *Bus) Subscribers(t Trigger) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[t.Name()])
}

func (b *Bus) dispatch(sub *Subscription, detail any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf("Handler for %s panicked: %v", sub.signal, fmt.Sprint(r))
		}
	}()
	sub.call(detail)
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[sub.signal]
	for i, s := range subs {
		if s == sub {
			// Copy so an Emit iterating the old slice is unaffected.
			next := make([]*Subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			if len(next) == 0 {
				delete(b.handlers, sub.signal)
			} else {
				b.handlers[sub.signal] = next
			}
			return
		}
	}
}
