// Package store holds the client-side caches for server-held collections.
// Each store owns its collection's in-memory copy and exposes an explicit
// load state machine:
//
//	Uninitialized -> Loading -> Ready <-> Refreshing -> Ready' | Errored
//
// Data written by one successful load survives later refetches and failures
// (stale-while-revalidate); the error slot is cleared only by the next
// successful resolution.
package store

import (
	"context"
	"sync"
)

// Phase is the externally visible load state of a store.
type Phase int

const (
	Uninitialized Phase = iota
	Loading             // first load in flight, nothing to show yet
	Ready               // last load succeeded
	Refreshing          // background reload with previous data still shown
	Errored             // last load failed; stale data may still be present
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Refreshing:
		return "refreshing"
	case Errored:
		return "errored"
	}
	return "unknown"
}

type flight[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Store is a tri-state cache for a single collection.
type Store[T any] struct {
	mu        sync.Mutex
	fetch     func(context.Context) (T, error)
	data      T
	loaded    bool // at least one successful load
	err       error
	inflight  *flight[T]
	normalize func(T) T
	onSuccess func(T)
}

// New builds a store around a fetch function. The zero data value is what
// consumers see before the first successful load.
func New[T any](fetch func(context.Context) (T, error)) *Store[T] {
	return &Store[T]{fetch: fetch}
}

// NewList builds a store for a list-typed collection. Consumers always see a
// non-nil slice, before the first load and after loads that return null.
func NewList[E any](fetch func(context.Context) ([]E, error)) *Store[[]E] {
	s := &Store[[]E]{fetch: fetch, data: []E{}}
	s.normalize = func(v []E) []E {
		if v == nil {
			return []E{}
		}
		return v
	}
	return s
}

// OnSuccess registers a hook invoked after each successful load, outside the
// store lock. Used for snapshot persistence.
func (s *Store[T]) OnSuccess(fn func(T)) *Store[T] {
	s.onSuccess = fn
	return s
}

// Refetch resolves the collection from the server. Overlapping calls are
// coalesced onto the in-flight request; every resolution that completes
// overwrites the store, so the most recently resolved response wins. The
// initiating caller's ctx bounds the fetch; a coalesced caller's ctx only
// bounds its own wait.
func (s *Store[T]) Refetch(ctx context.Context) (T, error) {
	s.mu.Lock()
	if f := s.inflight; f != nil {
		s.mu.Unlock()
		select {
		case <-f.done:
			return f.val, f.err
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
	f := &flight[T]{done: make(chan struct{})}
	s.inflight = f
	fetch := s.fetch
	s.mu.Unlock()

	val, err := fetch(ctx)

	s.mu.Lock()
	if err == nil {
		if s.normalize != nil {
			val = s.normalize(val)
		}
		s.data = val
		s.loaded = true
		s.err = nil
	} else {
		s.err = err
	}
	if s.inflight == f {
		s.inflight = nil
	}
	f.val, f.err = val, err
	close(f.done)
	hook := s.onSuccess
	s.mu.Unlock()

	if err == nil && hook != nil {
		hook(val)
	}
	return val, err
}

// Data returns the last successfully loaded value. For list stores this is
// an empty slice until the first load resolves.
func (s *Store[T]) Data() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Err returns the most recent failure, or nil after a successful resolution.
func (s *Store[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// IsLoading is true only while the first successful load is still pending.
func (s *Store[T]) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight != nil && !s.loaded
}

// IsFetching is true during any in-flight call, including background
// refreshes.
func (s *Store[T]) IsFetching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight != nil
}

// Phase reports the store's position in the load state machine.
func (s *Store[T]) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.inflight != nil && !s.loaded:
		return Loading
	case s.inflight != nil:
		return Refreshing
	case s.err != nil:
		return Errored
	case s.loaded:
		return Ready
	}
	return Uninitialized
}

// Mutate applies fn to the cached value under the store lock. Used for
// local merges of authoritative server responses, e.g. prepending a created
// task without a full reload.
func (s *Store[T]) Mutate(fn func(T) T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = fn(s.data)
	if s.normalize != nil {
		s.data = s.normalize(s.data)
	}
}
