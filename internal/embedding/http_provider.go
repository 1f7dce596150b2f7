package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jungjaehoon-lifegamez/mama-memory/internal/logging"
)

// HTTPProvider talks to a local Ollama-compatible embedding server over
// its /api/embeddings endpoint, in the shape of codenerd's OllamaEngine
// (internal/embedding/ollama.go) generalized to any model name.
type HTTPProvider struct {
	endpoint string
	model    string
	dim      int
	client   *http.Client
}

// NewHTTPProvider constructs a provider against endpoint serving model,
// which is expected to emit vectors of length dim.
func NewHTTPProvider(endpoint, model string, dim int) *HTTPProvider {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	return &HTTPProvider{
		endpoint: endpoint,
		model:    model,
		dim:      dim,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates a single embedding, enforcing the non-blank input,
// L2-normalization, and dimension-match contract of spec §4.4.
func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "HTTPProvider.Embed")
	defer timer.Stop()

	if err := rejectBlank(text); err != nil {
		return nil, err
	}

	body, err := json.Marshal(embedRequest{Model: p.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding server returned status %d: %s", resp.StatusCode, string(raw))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}

	l2Normalize(out.Embedding)
	if err := validateDimension(out.Embedding, p.dim); err != nil {
		return nil, err
	}
	return out.Embedding, nil
}

// EmbedBatch embeds each text sequentially: the Ollama-compatible
// /api/embeddings endpoint has no native batch form, matching codenerd's
// OllamaEngine.EmbedBatch.
func (p *HTTPProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "HTTPProvider.EmbedBatch")
	defer timer.Stop()

	if len(texts) == 0 {
		return nil, nil
	}
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

// Dimensions returns the provider's configured output dimension.
func (p *HTTPProvider) Dimensions() int { return p.dim }

// Name identifies the provider for logging and config-sensitivity checks.
func (p *HTTPProvider) Name() string { return p.model }
