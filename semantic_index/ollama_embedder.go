package semantic_index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434/api"
	defaultOllamaModel   = "nomic-embed-text"
)

// OllamaConfig configures the Ollama embedding client.
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OllamaEmbedder calls the Ollama embeddings endpoint.
type OllamaEmbedder struct {
	BaseURL string
	Model   string
	client  *http.Client
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaEmbedder initializes a new OllamaEmbedder.
func NewOllamaEmbedder(config *OllamaConfig) *OllamaEmbedder {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	model := config.Model
	if model == "" {
		model = defaultOllamaModel
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaEmbedder{
		BaseURL: baseURL,
		Model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Embed returns the embedding of text. Transport failures are reported as ErrIndexUnavailable.
func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	jsonData, err := json.Marshal(ollamaEmbeddingRequest{Model: o.Model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("error marshalling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/embeddings", o.BaseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("request canceled: %w", err)
		}
		return nil, fmt.Errorf("%w: error sending request: %v", ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiError ollamaError
		if err := json.Unmarshal(body, &apiError); err != nil || apiError.Error == "" {
			return nil, fmt.Errorf("%w: embedding request failed with status code '%d'", ErrIndexUnavailable, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: embedding request failed with status code '%d' - %s", ErrIndexUnavailable, resp.StatusCode, apiError.Error)
	}

	var response ollamaEmbeddingResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("error unmarshalling embedding: %w", err)
	}
	if len(response.Embedding) == 0 {
		return nil, fmt.Errorf("model %s returned an empty embedding", o.Model)
	}
	return response.Embedding, nil
}

// Ping lists the server's models to check that Ollama is reachable.
func (o *OllamaEmbedder) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/tags", o.BaseURL), nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ollama responded with status code '%d'", ErrIndexUnavailable, resp.StatusCode)
	}
	return nil
}
