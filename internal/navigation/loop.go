package navigation

import (
	"context"
	"sync"

	"resultsdash/internal"
)

// Scheduler separates the event loop from blocking work. Go runs a blocking task off the loop;
// Post hands a continuation back to the loop, where it runs to completion like any other event.
type Scheduler interface {
	Go(task func())
	Post(fn func())
}

// Loop is a Scheduler backed by one goroutine draining a queue of events.
type Loop struct {
	queue     chan func()
	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once
}

// NewLoop starts the loop goroutine
func NewLoop(buffer int) *Loop {
	l := &Loop{
		queue:  make(chan func(), buffer),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.exited)
	for {
		select {
		case fn := <-l.queue:
			fn()
		case <-l.done:
			return
		}
	}
}

// Go implements Scheduler
func (l *Loop) Go(task func()) {
	go task()
}

// Post implements Scheduler. Events posted after Close are dropped.
func (l *Loop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Do posts fn and waits until it has run. It must not be called from the loop goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case l.queue <- func() { fn(); close(finished) }:
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the loop and waits for the running event to finish; queued events that have not
// started are discarded. It must not be called from the loop goroutine.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
	<-l.exited
}

type lookupState int

const (
	lookupIdle lookupState = iota
	lookupLoading
	lookupDone
)

// Lookup loads one collection once and hands it to every transition that needs it. A load is
// never re-issued while in flight or after it succeeded; a failed load is forgotten so the next
// caller tries again. Lookup is confined to the event loop.
type Lookup[T any] struct {
	name    string
	sched   Scheduler
	fetch   func(ctx context.Context) (T, error)
	state   lookupState
	value   T
	waiters []func(T, bool)
	log     *internal.Logger
}

// NewLookup creates an idle lookup
func NewLookup[T any](name string, sched Scheduler, fetch func(ctx context.Context) (T, error), logger *internal.Logger) *Lookup[T] {
	return &Lookup[T]{name: name, sched: sched, fetch: fetch, log: logger}
}

// Then calls cb on the event loop with the loaded value; ok is false when loading failed.
// If the value is already loaded cb runs immediately.
func (l *Lookup[T]) Then(cb func(value T, ok bool)) {
	switch l.state {
	case lookupDone:
		cb(l.value, true)
		return
	case lookupLoading:
		l.waiters = append(l.waiters, cb)
		return
	}

	l.state = lookupLoading
	l.waiters = append(l.waiters, cb)
	l.log.Debug("loading %s", l.name)
	l.sched.Go(func() {
		value, err := l.fetch(context.Background())
		l.sched.Post(func() { l.resolve(value, err) })
	})
}

func (l *Lookup[T]) resolve(value T, err error) {
	waiters := l.waiters
	l.waiters = nil
	if err != nil {
		l.state = lookupIdle
		l.log.Warn("loading %s failed, treating as not found: %v", l.name, err)
		var zero T
		for _, cb := range waiters {
			cb(zero, false)
		}
		return
	}
	l.state = lookupDone
	l.value = value
	for _, cb := range waiters {
		cb(value, true)
	}
}

// Loaded returns the value if it has been loaded
func (l *Lookup[T]) Loaded() (T, bool) {
	return l.value, l.state == lookupDone
}
