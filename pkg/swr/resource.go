package swr

import (
	"context"
	"sync"
	"time"
)

// Value is a typed Snapshot.
type Value[T any] struct {
	Key       string
	Data      T
	Err       error
	State     State
	HasData   bool
	UpdatedAt time.Time
}

// Loading reports whether a fetch is in flight.
func (v Value[T]) Loading() bool {
	return v.State == StateFetching || v.State == StateRefetching
}

func typed[T any](s Snapshot, def T) Value[T] {
	v := Value[T]{
		Key:       s.Key,
		Data:      def,
		Err:       s.Err,
		State:     s.State,
		HasData:   s.HasData,
		UpdatedAt: s.UpdatedAt,
	}
	if data, ok := s.Data.(T); ok {
		v.Data = data
	}
	return v
}

// Resource is a typed subscription that can move between keys.
type Resource[T any] struct {
	c        *Coordinator
	def      T
	onChange func(Value[T])

	mu    sync.Mutex
	sub   *Subscription
	fetch func(context.Context) (T, error)
}

// Use subscribes to key with a typed fetcher. def is reported as Data until
// the first successful fetch. onChange may be nil.
func Use[T any](c *Coordinator, key string, fetch func(context.Context) (T, error), def T, onChange func(Value[T])) *Resource[T] {
	r := &Resource[T]{c: c, def: def, onChange: onChange}
	r.Rekey(key, fetch)
	return r
}

// Key returns the key currently subscribed to.
func (r *Resource[T]) Key() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub == nil {
		return ""
	}
	return r.sub.Key()
}

// Current returns the current typed value.
func (r *Resource[T]) Current() Value[T] {
	key := r.Key()
	s := r.c.Get(key)
	return typed(s, r.def)
}

// Rekey moves the subscription to a new key, as a view does when its
// parameters change. A nil fetch keeps the current fetcher. Rekeying to the
// current key is a no-op.
func (r *Resource[T]) Rekey(key string, fetch func(context.Context) (T, error)) Value[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fetch != nil {
		r.fetch = fetch
	}
	if r.sub != nil {
		if r.sub.Key() == key {
			return typed(r.c.Get(key), r.def)
		}
		r.sub.Unsubscribe()
	}

	var fetcher Fetcher
	if f := r.fetch; f != nil {
		fetcher = func(ctx context.Context) (any, error) {
			return f(ctx)
		}
	}
	var notify func(Snapshot)
	if r.onChange != nil {
		notify = func(s Snapshot) { r.onChange(typed(s, r.def)) }
	}
	sub, snap := r.c.Subscribe(key, fetcher, r.def, notify)
	r.sub = sub
	return typed(snap, r.def)
}

// Mutate writes v to the current key.
func (r *Resource[T]) Mutate(v T) {
	r.c.Mutate(r.Key(), v)
}

// Refetch re-runs the fetcher for the current key and waits.
func (r *Resource[T]) Refetch(ctx context.Context) (Value[T], error) {
	s, err := r.c.Refetch(ctx, r.Key())
	return typed(s, r.def), err
}

// Close unsubscribes.
func (r *Resource[T]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub != nil {
		r.sub.Unsubscribe()
	}
}
