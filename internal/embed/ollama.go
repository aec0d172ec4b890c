package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"maharajah/internal/apperr"
)

// OllamaEmbedder calls a local Ollama /api/embed endpoint. The model is
// shared mutable state on the server side, so calls are serialized here.
type OllamaEmbedder struct {
	baseURL string
	model   string
	dim     int
	client  *http.Client
	mu      sync.Mutex
}

// NewOllamaEmbedder creates an embedder targeting the given endpoint.
// dim is the expected vector dimension; responses with a different
// dimension are rejected.
func NewOllamaEmbedder(baseURL, model string, dim int) *OllamaEmbedder {
	return &OllamaEmbedder{
		baseURL: baseURL,
		model:   model,
		dim:     dim,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Dimension returns the configured vector dimension.
func (e *OllamaEmbedder) Dimension() int { return e.dim }

// ModelID returns the configured model identifier.
func (e *OllamaEmbedder) ModelID() string { return e.model }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed sends a batch of texts to the model server and returns their
// vectors in input order. Query-role texts get the retrieval prefix.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string, role Role) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	input := texts
	if role == RoleQuery {
		input = make([]string, len(texts))
		for i, t := range texts {
			input[i] = QueryPrefix + t
		}
	}

	body, err := json.Marshal(embedRequest{Model: e.model, Input: input})
	if err != nil {
		return nil, &apperr.EmbedError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, &apperr.EmbedError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &apperr.EmbedError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &apperr.EmbedError{Err: fmt.Errorf("model server returned %d: %s", resp.StatusCode, string(respBody))}
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &apperr.EmbedError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(result.Embeddings) != len(texts) {
		return nil, &apperr.EmbedError{Err: fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Embeddings))}
	}
	for i, v := range result.Embeddings {
		if len(v) != e.dim {
			return nil, &apperr.EmbedError{Err: fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), e.dim)}
		}
	}

	return result.Embeddings, nil
}
