// Package embedding provides the lazy, config-sensitive text→vector
// pipeline (spec §4.4), grounded on codenerd's internal/embedding: a
// small Provider interface with interchangeable backends, an HTTP
// (Ollama-compatible) implementation, and a noop implementation used
// when embeddings are force-disabled for testing.
package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Provider generates vector embeddings for text, in codenerd's
// EmbeddingEngine shape.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// l2Normalize scales vec to unit length in place, matching the mean-pool
// + L2-normalize contract spec §4.4 requires of embed(). Providers that
// already return normalized vectors (most embedding servers do) get a
// harmless no-op renormalization; providers that don't get corrected here
// so the pipeline's contract holds regardless of backend.
func l2Normalize(vec []float32) {
	var sumSquares float64
	for _, v := range vec {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return
	}
	norm := math.Sqrt(sumSquares)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}

// validateDimension rejects a vector whose length doesn't match want,
// per spec §4.4's "mismatch is fatal."
func validateDimension(vec []float32, want int) error {
	if len(vec) != want {
		return fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vec), want)
	}
	return nil
}

// rejectBlank rejects empty or whitespace-only input per spec §4.4.
func rejectBlank(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("embedding input must not be empty or whitespace-only")
	}
	return nil
}
