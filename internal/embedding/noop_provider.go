package embedding

import "context"

// NoopProvider returns no vector (every Embed call fails) without calling
// any external model, for MAMA_FORCE_TIER_3 testing mode (spec §6):
// forcing Tier 3 (no embeddings at all) without needing a local model
// server running.
type NoopProvider struct {
	dim int
}

// NewNoopProvider constructs a provider that always fails Embed, driving
// the pipeline's Tier-3 degradation path.
func NewNoopProvider(dim int) *NoopProvider {
	return &NoopProvider{dim: dim}
}

func (p *NoopProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errForceTier3
}

func (p *NoopProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errForceTier3
}

func (p *NoopProvider) Dimensions() int { return p.dim }

func (p *NoopProvider) Name() string { return "noop" }
