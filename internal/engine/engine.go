// Package engine wires every subsystem into the single programmatic
// surface spec §6 describes: an explicit, caller-owned value (spec §9's
// "replace module-level singletons with an explicit engine value")
// rather than free functions over package-level state.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/cache"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/config"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/embedding"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/graph"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/logging"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/search"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/storage"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/writer"
)

// injectionTimeout is the end-to-end budget the memory-injection path
// (Suggest) enforces (spec §5).
const injectionTimeout = 5 * time.Second

// outcomeAttachWindow is how far back the Outcome Tracker looks for a
// pending decision on the current session (spec §4.9: "within the last
// hour").
const outcomeAttachWindow = time.Hour

// Engine is the caller-owned handle over every subsystem: storage,
// cache, embedding pipeline, writer, graph, and search. Construct with
// New, then call Init before any other method.
type Engine struct {
	cfg config.Config

	mu          sync.RWMutex
	initialized bool
	initFlight  singleflight.Group

	db       *storage.DB
	cache    *cache.Cache
	pipeline *embedding.Pipeline
	writer   *writer.Writer
	graph    *graph.Engine
	search   *search.Engine
}

// New constructs an uninitialized Engine over cfg. Call Init before use.
func New(cfg config.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Init performs connect + migrations + vector-extension detection +
// startup reconciliation exactly once, even under concurrent callers
// (spec §5 "single-flight initialization"): the first caller does the
// work, concurrent callers share its result. On failure, all internal
// state is cleared so a later call can retry.
func (e *Engine) Init(ctx context.Context) error {
	_, err, _ := e.initFlight.Do("init", func() (any, error) {
		e.mu.RLock()
		already := e.initialized
		e.mu.RUnlock()
		if already {
			return nil, nil
		}

		db, err := storage.Open(e.cfg.DBPath, e.cfg.EmbeddingDim)
		if err != nil {
			return nil, databaseErr(err)
		}

		if _, err := storage.ReconcileSupersedeChains(ctx, db); err != nil {
			db.Close()
			return nil, databaseErr(err)
		}

		c := cache.New(cache.DefaultCapacity)
		pipeline := embedding.NewPipeline(e.cfg.ModelName, e.cfg.EmbeddingDim, e.cfg.EmbeddingEndpoint, e.cfg.ForceTier3, c)

		e.mu.Lock()
		e.db = db
		e.cache = c
		e.pipeline = pipeline
		e.writer = writer.New(db, pipeline)
		e.graph = graph.New(db)
		e.search = search.New(db, pipeline)
		e.initialized = true
		e.mu.Unlock()

		logging.Get(logging.CategoryEngine).Infow("engine initialized", "db_path", e.cfg.DBPath, "vector_capable", db.VectorCapable())
		return nil, nil
	})

	if err != nil {
		// Clear state to allow retry (spec §7: "init state cleared on
		// init-path failure").
		e.mu.Lock()
		e.initialized = false
		e.db = nil
		e.mu.Unlock()
		return err
	}
	return nil
}

// requireInit returns the NotInitialized error if Init hasn't completed
// yet (spec §5: "called before init, they fail with a well-defined 'not
// initialized' error").
func (e *Engine) requireInit() *Error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.initialized {
		return newError(ErrCodeNotInitialized, "engine not initialized: call Init first", nil)
	}
	return nil
}

// Close releases the underlying database connection. Safe to call once;
// a second call is a no-op.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized || e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.initialized = false
	return err
}

// CacheStats exposes the embedding cache's lifetime counters.
func (e *Engine) CacheStats() (cache.Stats, error) {
	if err := e.requireInit(); err != nil {
		return cache.Stats{}, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cache.Stats(), nil
}

// withTimeout wraps ctx with the 5-second end-to-end budget the
// memory-injection path enforces (spec §5); asTimeout maps a failure under
// that budget onto a Timeout engine error.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}

// asTimeout returns a Timeout engine error when ctx's deadline has passed,
// and a DatabaseError wrapping err otherwise.
func asTimeout(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return timeoutErr(fmt.Sprintf("operation exceeded its time budget: %v", err))
	}
	return databaseErr(err)
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
	defaultErr    error
)

// Default lazily constructs and initializes a process-wide Engine from
// config.Load, for callers that want a process-wide default without
// managing their own Engine value (spec §9: "a lazy static with
// synchronization, once-cell semantics" — as opposed to free functions
// smuggling state).
func Default(ctx context.Context) (*Engine, error) {
	defaultOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			defaultErr = databaseErr(err)
			return
		}
		e := New(cfg)
		if err := e.Init(ctx); err != nil {
			defaultErr = err
			return
		}
		defaultEngine = e
	})
	return defaultEngine, defaultErr
}
