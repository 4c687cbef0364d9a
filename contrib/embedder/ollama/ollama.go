package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultBaseURL = "http://localhost:11434"

// Config holds Ollama embedder configuration
type Config struct {
	BaseURL   string
	Model     string
	Dimension int
}

// DefaultConfig returns default Ollama embedder configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   defaultBaseURL,
		Model:     "nomic-embed-text",
		Dimension: 768,
	}
}

// OllamaEmbedder implements vector.Embedder against a local Ollama server
type OllamaEmbedder struct {
	config *Config
	client *http.Client
}

// New creates a new Ollama embedder
func New(config *Config) *OllamaEmbedder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Model == "" {
		config.Model = "nomic-embed-text"
	}
	return &OllamaEmbedder{
		config: config,
		client: &http.Client{},
	}
}

// Dimension return number of embedding dimensions
func (e *OllamaEmbedder) Dimension() int {
	return e.config.Dimension
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

// Embed converts text to a vector embedding
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(embedRequest{
		Model:  e.config.Model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(e.config.BaseURL, "/") + "/api/embeddings"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Ollama API error (status %d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp embedResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("Ollama API error: %s", resp.Error)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("no embedding in response")
	}

	return resp.Embedding, nil
}

// EmbedBatch converts multiple texts to embeddings
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}
