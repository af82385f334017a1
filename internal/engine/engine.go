package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/sheetview/internal/catalog"
	"github.com/roach88/sheetview/internal/ir"
	"github.com/roach88/sheetview/internal/store"
	"github.com/roach88/sheetview/internal/view"
)

// IDGenerator assigns correlation ids to mutations.
// UUIDv7Generator is the default; tests use testutil.SequentialGenerator.
type IDGenerator interface {
	Generate() string
}

// Journal records applied mutations. internal/journal implements it.
type Journal interface {
	AppendMutation(ctx context.Context, m store.Mutation) error
}

// MutationObserver is told about every mutation the engine handles.
type MutationObserver interface {
	MutationApplied(m store.Mutation)
	MutationFailed(m store.Mutation, err error)
}

// Engine owns the store, the view cache and the mutation loop.
//
// Thread-safety model:
//   - RequestView, Read, Apply and Replay: safe from any goroutine,
//     serialized by an internal mutex
//   - Enqueue: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//
// INVARIANTS:
//   - Mutations apply strictly in submission order
//   - Every applied mutation carries a unique, increasing seq from Clock
//   - The view cache is only touched while mu is held
type Engine struct {
	mu       sync.Mutex
	store    *store.Store
	cache    *view.Cache
	registry *view.Registry
	clock    *Clock
	queue    *mutationQueue
	ids      IDGenerator
	journal  Journal
	observer MutationObserver
	logger   *slog.Logger

	cacheOpts []view.CacheOption
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithClock replaces the logical clock, e.g. to resume after a snapshot.
func WithClock(c *Clock) EngineOption {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithIDGenerator sets the mutation id generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) EngineOption {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithJournal records every applied mutation in j.
func WithJournal(j Journal) EngineOption {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithMutationObserver registers o for mutation outcomes.
func WithMutationObserver(o MutationObserver) EngineOption {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRegistry replaces the catalog registry.
func WithRegistry(r *view.Registry) EngineOption {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithCacheOptions configures the view cache, e.g. view.WithMaxEntries.
func WithCacheOptions(opts ...view.CacheOption) EngineOption {
	return func(e *Engine) {
		e.cacheOpts = append(e.cacheOpts, opts...)
	}
}

// New creates an Engine over s. A nil s starts from an empty store.
//
// The clock starts at the revision of the store's current State so that
// seqs keep increasing across restarts from a snapshot.
func New(s *store.Store, opts ...EngineOption) *Engine {
	if s == nil {
		s = store.New(nil)
	}
	e := &Engine{
		store:    s,
		registry: catalog.Registry(),
		queue:    newMutationQueue(),
		ids:      UUIDv7Generator{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.clock == nil {
		e.clock = NewClockAt(s.State().Revision)
	}
	e.cache = view.NewCache(e.cacheOpts...)
	return e
}

// RequestView returns the named view for characterID. The only error is an
// unknown name; a missing character yields the view's empty value.
func (e *Engine) RequestView(name string, characterID ir.ID) (any, error) {
	v, ok := e.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return v.ReadAny(view.NewReader(e.cache, e.store.State()), characterID), nil
}

// Read returns v for key through the engine's cache.
func Read[R any](e *Engine, v *view.View[R], key ir.ID) R {
	e.mu.Lock()
	defer e.mu.Unlock()
	return v.Read(view.NewReader(e.cache, e.store.State()), key)
}

// Views returns every view name RequestView accepts, sorted.
func (e *Engine) Views() []string {
	return e.registry.Names()
}

// Registry returns the engine's view registry.
func (e *Engine) Registry() *view.Registry {
	return e.registry
}

// State returns the current store snapshot.
func (e *Engine) State() *store.State {
	return e.store.State()
}

// CacheStats returns the view cache counters.
func (e *Engine) CacheStats() view.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Stats()
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// Apply stamps m with the next seq and an id (unless it already has one),
// applies it to the store and records it in the journal.
//
// A rejected mutation returns a *MutationError and leaves the store as it
// was. A journal failure also returns a *MutationError, but the mutation has
// already been applied.
func (e *Engine) Apply(ctx context.Context, m store.Mutation) (*store.State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m.Seq = e.clock.Next()
	if m.ID == "" {
		m.ID = e.ids.Generate()
	}
	next, err := e.applyLocked(m)
	if err != nil {
		return nil, err
	}

	if e.journal != nil {
		if err := e.journal.AppendMutation(ctx, m); err != nil {
			return next, &MutationError{Seq: m.Seq, MutationID: m.ID, Op: m.Op, Kind: m.Kind, Err: fmt.Errorf("journal: %w", err)}
		}
	}
	return next, nil
}

// applyLocked reduces m into the store. Caller holds mu.
func (e *Engine) applyLocked(m store.Mutation) (*store.State, error) {
	e.logger.Debug("applying mutation",
		"id", m.ID,
		"seq", m.Seq,
		"op", m.Op,
		"kind", m.Kind,
		"entity_id", m.TargetID(),
	)

	next, err := e.store.Apply(m)
	if err != nil {
		if e.observer != nil {
			e.observer.MutationFailed(m, err)
		}
		return nil, &MutationError{Seq: m.Seq, MutationID: m.ID, Op: m.Op, Kind: m.Kind, Err: err}
	}
	if e.observer != nil {
		e.observer.MutationApplied(m)
	}

	e.logger.Info("mutation applied",
		"id", m.ID,
		"seq", m.Seq,
		"op", m.Op,
		"kind", m.Kind,
		"revision", next.Revision,
	)
	return next, nil
}

// Enqueue submits m for the Run loop.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(m store.Mutation) bool {
	return e.queue.Enqueue(m)
}

// QueueLen returns the number of mutations waiting for Run.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Run applies enqueued mutations in FIFO order until ctx is cancelled or
// Stop is called. Mutations already queued when Stop is called are applied
// before Run returns.
//
// A failed mutation is logged and skipped; later mutations still apply.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting")

	for {
		m, ok := e.queue.TryDequeue()
		if ok {
			if _, err := e.Apply(ctx, m); err != nil {
				e.logger.Error("mutation failed",
					"id", m.ID,
					"op", m.Op,
					"kind", m.Kind,
					"entity_id", m.TargetID(),
					"error", err,
				)
			}
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			if e.queue.Closed() && e.queue.Len() == 0 {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue, which makes Run return once it drains.
func (e *Engine) Stop() {
	e.queue.Close()
}
