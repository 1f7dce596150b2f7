// Package logging provides a small categorized logger facade over zap,
// in the shape of codenerd's internal/logging (per-category loggers and a
// StartTimer duration helper) but backed by a single structured zap
// logger rather than one log file per category.
package logging

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names the subsystem emitting a log line. Kept deliberately
// small — one per engine component — rather than codenerd's UI/shard-scale
// category list.
type Category string

const (
	CategoryStorage   Category = "storage"
	CategoryCache     Category = "cache"
	CategoryEmbedding Category = "embedding"
	CategoryWriter    Category = "writer"
	CategoryGraph     Category = "graph"
	CategorySearch    Category = "search"
	CategoryOutcome   Category = "outcome"
	CategoryEngine    Category = "engine"
)

var (
	mu     sync.RWMutex
	base   *zap.Logger
	inited bool
)

// Init configures the package-wide zap logger from a MAMA_LOG_LEVEL-style
// level string (DEBUG, INFO, WARN, ERROR, NONE). Safe to call more than
// once; the most recent call wins.
func Init(level string) {
	mu.Lock()
	defer mu.Unlock()

	if strings.EqualFold(level, "NONE") {
		base = zap.NewNop()
		inited = true
		return
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.OutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		// Fall back to a bare development logger rather than panic —
		// logging must never be the reason the engine fails to start.
		logger = zap.NewExample()
	}
	base = logger
	inited = true
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func ensureInit() *zap.Logger {
	mu.RLock()
	if inited {
		defer mu.RUnlock()
		return base
	}
	mu.RUnlock()

	// Lazy default: honor MAMA_DEBUG / MAMA_LOG_LEVEL if the caller never
	// called Init explicitly.
	level := os.Getenv("MAMA_LOG_LEVEL")
	if level == "" && os.Getenv("MAMA_DEBUG") != "" {
		level = "DEBUG"
	}
	Init(level)

	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Get returns a zap.SugaredLogger scoped to category.
func Get(category Category) *zap.SugaredLogger {
	return ensureInit().With(zap.String("category", string(category))).Sugar()
}

// Timer measures and logs the duration of an operation on Stop, in the
// shape of codenerd's logging.StartTimer/timer.Stop pattern.
type Timer struct {
	category  Category
	operation string
	start     time.Time
}

// StartTimer begins timing operation within category. Call Stop when the
// operation completes (typically via defer).
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, operation: operation, start: time.Now()}
}

// Stop logs the elapsed duration at debug level.
func (t *Timer) Stop() {
	Get(t.category).Debugw("operation completed", "operation", t.operation, "duration_ms", time.Since(t.start).Milliseconds())
}
