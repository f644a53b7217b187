package swr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bidster/bidster/pkg/logging"
)

// State is the lifecycle position of a cache entry.
type State int

const (
	// StateEmpty means the key has never been fetched or mutated.
	StateEmpty State = iota
	// StateFetching means the first fetch is in flight.
	StateFetching
	// StatePopulated means the entry holds a value and no error.
	StatePopulated
	// StateRefetching means a populated entry is being revalidated.
	StateRefetching
	// StatePopulatedWithError means the last fetch failed. Data holds the
	// previous value, or the subscriber's default when there was none.
	StatePopulatedWithError
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateFetching:
		return "fetching"
	case StatePopulated:
		return "populated"
	case StateRefetching:
		return "refetching"
	case StatePopulatedWithError:
		return "populated_with_error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrNoFetcher is returned by Refetch for a key nobody registered a
	// fetcher for.
	ErrNoFetcher = errors.New("swr: no fetcher registered for key")
	// ErrClosed is returned once the coordinator has been closed.
	ErrClosed = errors.New("swr: coordinator closed")
)

// Fetcher loads the value for a key. The context is cancelled when the
// coordinator is closed.
type Fetcher func(ctx context.Context) (any, error)

// Snapshot is a point-in-time view of an entry.
type Snapshot struct {
	Key   string
	Data  any
	Err   error
	State State
	// HasData is false while Data is only the subscriber's default.
	HasData bool
	// UpdatedAt is when Data was last written, zero if never.
	UpdatedAt time.Time
}

type entry struct {
	data      any
	hasData   bool
	err       error
	state     State
	fetcher   Fetcher
	updatedAt time.Time
	subs      map[uint64]*Subscription

	// fetchSeq numbers fetches as they start; appliedSeq is the newest
	// fetch whose result has been applied. mutatedSeq is fetchSeq at the
	// last Update: fetches at or below it started before that write.
	fetchSeq   uint64
	appliedSeq uint64
	mutatedSeq uint64
}

func (e *entry) snapshot(key string, def any) Snapshot {
	s := Snapshot{
		Key:       key,
		Data:      e.data,
		Err:       e.err,
		State:     e.state,
		HasData:   e.hasData,
		UpdatedAt: e.updatedAt,
	}
	if !e.hasData {
		s.Data = def
	}
	return s
}

// Subscription is a registered interest in a key.
type Subscription struct {
	c            *Coordinator
	key          string
	id           uint64
	defaultValue any
	onChange     func(Snapshot)
	alive        atomic.Bool
}

// Key returns the subscribed key.
func (s *Subscription) Key() string { return s.key }

// Active reports whether the subscription still receives updates.
func (s *Subscription) Active() bool { return s.alive.Load() }

// Unsubscribe stops delivery. No callback starts after Unsubscribe returns.
// It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if !s.alive.CompareAndSwap(true, false) {
		return
	}
	s.c.mu.Lock()
	if e, ok := s.c.entries[s.key]; ok {
		delete(e.subs, s.id)
	}
	s.c.mu.Unlock()
}

type notification struct {
	sub  *Subscription
	snap Snapshot
}

// Coordinator owns the cache entries. It is safe for concurrent use.
type Coordinator struct {
	mu      sync.Mutex
	idle    *sync.Cond
	entries map[string]*entry
	nextID  uint64
	active  int
	closed  bool

	group  singleflight.Group
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger for fetch tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Coordinator. Call Close to cancel background fetches.
func New(opts ...Option) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		entries: make(map[string]*entry),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logging.Nop(),
		now:     time.Now,
	}
	c.idle = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers onChange for key and returns the current snapshot,
// with defaultValue standing in for data that was never fetched. A non-nil
// fetcher replaces the key's fetcher and triggers a background fetch unless
// one is already in flight. onChange may be nil.
func (c *Coordinator) Subscribe(key string, fetcher Fetcher, defaultValue any, onChange func(Snapshot)) (*Subscription, Snapshot) {
	c.mu.Lock()
	e := c.entryLocked(key)
	if fetcher != nil {
		e.fetcher = fetcher
	}
	c.nextID++
	sub := &Subscription{
		c:            c,
		key:          key,
		id:           c.nextID,
		defaultValue: defaultValue,
		onChange:     onChange,
	}
	sub.alive.Store(true)
	e.subs[sub.id] = sub
	snap := e.snapshot(key, defaultValue)
	fetch := e.fetcher != nil && !c.closed
	c.mu.Unlock()

	if fetch {
		c.group.DoChan(key, c.fetchFunc(key))
	}
	return sub, snap
}

// Get returns the current snapshot for key without subscribing.
func (c *Coordinator) Get(key string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Snapshot{Key: key, State: StateEmpty}
	}
	return e.snapshot(key, nil)
}

// Keys returns every key with an entry, sorted.
func (c *Coordinator) Keys() []string {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// Mutate overwrites the value for key, clears its error and notifies live
// subscribers before returning. It performs no fetch.
func (c *Coordinator) Mutate(key string, value any) {
	c.Update(key, func(any, bool) any { return value })
}

// Update is Mutate with a value derived from the current one. fn receives
// the current data and whether any was ever stored; it runs under the
// coordinator lock and must not call back into the coordinator.
func (c *Coordinator) Update(key string, fn func(current any, ok bool) any) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.data = fn(e.data, e.hasData)
	e.hasData = true
	e.err = nil
	e.updatedAt = c.now()
	e.mutatedSeq = e.fetchSeq
	if e.state != StateFetching && e.state != StateRefetching {
		e.state = StatePopulated
	}
	pending := c.pendingLocked(key, e)
	c.mu.Unlock()

	deliver(pending)
}

// Revalidate starts a background fetch for key if it has a fetcher and none
// is in flight. It reports whether a fetch is now running.
func (c *Coordinator) Revalidate(key string) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	fetch := ok && e.fetcher != nil && !c.closed
	c.mu.Unlock()
	if fetch {
		c.group.DoChan(key, c.fetchFunc(key))
	}
	return fetch
}

// Refetch runs the key's fetcher, joining a fetch already in flight, and
// waits for it. The result is applied exactly as Mutate would apply it; a
// failure keeps the previous value and is also returned.
func (c *Coordinator) Refetch(ctx context.Context, key string) (Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{Key: key}, ErrClosed
	}
	e, ok := c.entries[key]
	if !ok || e.fetcher == nil {
		c.mu.Unlock()
		return Snapshot{Key: key}, ErrNoFetcher
	}
	c.mu.Unlock()

	select {
	case res := <-c.group.DoChan(key, c.fetchFunc(key)):
		return c.Get(key), res.Err
	case <-ctx.Done():
		return c.Get(key), ctx.Err()
	}
}

// Close cancels in-flight fetches and waits for them to finish. Subsequent
// Subscribe calls return snapshots but start no fetches.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	for c.active > 0 {
		c.idle.Wait()
	}
}

func (c *Coordinator) entryLocked(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{state: StateEmpty, subs: make(map[uint64]*Subscription)}
		c.entries[key] = e
	}
	return e
}

// fetchFunc returns the singleflight body for key. The key is forgotten as
// soon as the fetcher returns, so a caller arriving after the result is
// applied starts a new fetch instead of joining a finished one.
func (c *Coordinator) fetchFunc(key string) func() (any, error) {
	return func() (v any, err error) {
		c.mu.Lock()
		e, ok := c.entries[key]
		if c.closed {
			c.mu.Unlock()
			return nil, ErrClosed
		}
		if !ok || e.fetcher == nil {
			c.mu.Unlock()
			return nil, ErrNoFetcher
		}
		fetcher := e.fetcher
		e.fetchSeq++
		seq := e.fetchSeq
		if e.hasData {
			e.state = StateRefetching
		} else {
			e.state = StateFetching
		}
		c.active++
		c.mu.Unlock()

		defer func() {
			c.mu.Lock()
			c.active--
			if c.active == 0 {
				c.idle.Broadcast()
			}
			c.mu.Unlock()
		}()

		start := c.now()
		v, err = c.runFetcher(key, fetcher)
		c.group.Forget(key)
		if err != nil {
			c.logger.Debug("revalidation failed", "key", key, "duration", c.now().Sub(start), "error", err)
		} else {
			c.logger.Debug("revalidated", "key", key, "duration", c.now().Sub(start))
		}
		c.apply(key, seq, v, err)
		return v, err
	}
}

func (c *Coordinator) runFetcher(key string, fetcher Fetcher) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("swr: fetcher for %q panicked: %v", key, r)
		}
	}()
	return fetcher(c.ctx)
}

func (c *Coordinator) apply(key string, seq uint64, v any, err error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	if seq < e.appliedSeq {
		c.mu.Unlock()
		return
	}
	e.appliedSeq = seq
	switch {
	case seq <= e.mutatedSeq:
		// Older than the mutated value; keep it and only settle the state.
		e.state = StatePopulated
	case err != nil:
		e.err = err
		e.state = StatePopulatedWithError
	default:
		e.data = v
		e.hasData = true
		e.err = nil
		e.state = StatePopulated
		e.updatedAt = c.now()
	}
	if e.fetchSeq > seq {
		e.state = StateRefetching
	}
	var pending []notification
	if !c.closed {
		pending = c.pendingLocked(key, e)
	}
	c.mu.Unlock()

	deliver(pending)
}

func (c *Coordinator) pendingLocked(key string, e *entry) []notification {
	ids := make([]uint64, 0, len(e.subs))
	for id := range e.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	pending := make([]notification, 0, len(ids))
	for _, id := range ids {
		sub := e.subs[id]
		if sub.onChange == nil {
			continue
		}
		pending = append(pending, notification{sub: sub, snap: e.snapshot(key, sub.defaultValue)})
	}
	return pending
}

// deliver invokes callbacks outside the lock, skipping subscriptions that
// were cancelled after the update was applied.
func deliver(pending []notification) {
	for _, n := range pending {
		if n.sub.alive.Load() {
			n.sub.onChange(n.snap)
		}
	}
}
