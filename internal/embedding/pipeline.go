package embedding

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/cache"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/logging"
	"github.com/jungjaehoon-lifegamez/mama-memory/internal/model"
)

// errForceTier3 is returned by NoopProvider to simulate a permanently
// unavailable embedding backend.
var errForceTier3 = errors.New("embedding: forced Tier 3, no embedding backend configured")

// ErrPermanentlyUnavailable is returned once a provider has failed to
// load; subsequent calls short-circuit rather than retrying (spec §4.4
// "a previous load failure is remembered").
var ErrPermanentlyUnavailable = errors.New("embedding: provider permanently unavailable")

// Pipeline is the lazy, config-sensitive embedding transform spec §4.4
// describes: it owns the process-wide cache, swaps providers when the
// model configuration changes, and remembers permanent failures.
type Pipeline struct {
	mu sync.Mutex

	modelName string
	dim       int
	endpoint  string
	forceTier3 bool

	provider Provider
	failed   bool

	cache *cache.Cache
}

// NewPipeline constructs a pipeline. The underlying provider is not built
// until the first Embed call (lazy init, spec §4.4).
func NewPipeline(modelName string, dim int, endpoint string, forceTier3 bool, c *cache.Cache) *Pipeline {
	return &Pipeline{
		modelName:  modelName,
		dim:        dim,
		endpoint:   endpoint,
		forceTier3: forceTier3,
		cache:      c,
	}
}

// Reconfigure updates the model name/dimension the pipeline targets. If
// either changed, the current provider handle is discarded and the
// embedding cache is cleared (spec §4.4, §6).
func (p *Pipeline) Reconfigure(modelName string, dim int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if modelName == p.modelName && dim == p.dim {
		return
	}
	logging.Get(logging.CategoryEmbedding).Infow("embedding config changed, resetting pipeline",
		"old_model", p.modelName, "new_model", modelName, "old_dim", p.dim, "new_dim", dim)

	p.modelName = modelName
	p.dim = dim
	p.provider = nil
	p.failed = false
	p.cache.Clear()
}

// ensureProvider lazily constructs the provider on first use, memoizing
// a permanent failure so subsequent calls short-circuit instead of
// retrying (spec §4.4, §7 EmbeddingError).
func (p *Pipeline) ensureProvider() (Provider, error) {
	if p.failed {
		return nil, ErrPermanentlyUnavailable
	}
	if p.provider != nil {
		return p.provider, nil
	}

	var provider Provider
	if p.forceTier3 {
		provider = NewNoopProvider(p.dim)
	} else {
		provider = NewHTTPProvider(p.endpoint, p.modelName, p.dim)
	}
	p.provider = provider
	return provider, nil
}

// Embed embeds text, consulting the cache first. Embedding failure here
// is reported to the caller (the Decision Writer decides whether that's
// fatal per spec §4.5 step 5 — it isn't, for saves).
func (p *Pipeline) Embed(ctx context.Context, text string) ([]float32, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "Pipeline.Embed")
	defer timer.Stop()

	if err := rejectBlank(text); err != nil {
		return nil, err
	}

	key := cache.Key(text)
	if vec, ok := p.cache.Get(key); ok {
		return vec, nil
	}

	p.mu.Lock()
	provider, err := p.ensureProvider()
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	vec, err := provider.Embed(ctx, text)
	if err != nil {
		p.mu.Lock()
		p.failed = true
		p.mu.Unlock()
		logging.Get(logging.CategoryEmbedding).Warnw("embedding provider failed, marking permanently unavailable", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPermanentlyUnavailable, err)
	}

	if err := validateDimension(vec, p.dim); err != nil {
		return nil, err
	}

	p.cache.Set(key, vec)
	return vec, nil
}

// EmbedBatch embeds each text, preserving order, consulting and
// populating the cache per-item (spec §4.4).
func (p *Pipeline) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := p.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed batch item %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// EmbedEnriched builds the fixed-order enriched text view of a decision
// (spec §4.4: Topic, Decision, Reasoning, Outcome, Confidence, User
// Involvement, and when present Evidence, Alternatives, Risks) and embeds
// it.
func (p *Pipeline) EmbedEnriched(ctx context.Context, d *model.Decision) ([]float32, error) {
	return p.Embed(ctx, EnrichedText(d))
}

// EnrichedText builds the fixed-order enriched text view spec §4.4
// defines, exported so callers can inspect or hash it without embedding.
func EnrichedText(d *model.Decision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", d.Topic)
	fmt.Fprintf(&b, "Decision: %s\n", d.Decision)
	fmt.Fprintf(&b, "Reasoning: %s\n", d.Reasoning)
	fmt.Fprintf(&b, "Outcome: %s\n", string(d.Outcome))
	fmt.Fprintf(&b, "Confidence: %s\n", strconv.FormatFloat(d.Confidence, 'f', 2, 64))
	fmt.Fprintf(&b, "User Involvement: %s\n", d.UserInvolvement)
	if d.Evidence != "" {
		fmt.Fprintf(&b, "Evidence: %s\n", d.Evidence)
	}
	if d.Alternatives != "" {
		fmt.Fprintf(&b, "Alternatives: %s\n", d.Alternatives)
	}
	if d.Risks != "" {
		fmt.Fprintf(&b, "Risks: %s\n", d.Risks)
	}
	return b.String()
}

// Dimensions returns the pipeline's currently configured dimension.
func (p *Pipeline) Dimensions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dim
}
