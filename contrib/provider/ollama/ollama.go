package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sweetpotato0/transagent/errors"
	"github.com/sweetpotato0/transagent/llm"
	"github.com/sweetpotato0/transagent/message"
)

const defaultBaseURL = "http://localhost:11434"

// Config holds Ollama provider configuration
type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
}

// DefaultConfig returns default Ollama configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     defaultBaseURL,
		Model:       "mistral",
		Temperature: 0.7,
	}
}

// Provider implements the llm.Client interface for a local Ollama server
type Provider struct {
	config *Config
	client *http.Client
}

// New creates a new Ollama provider
func New(config *Config) *Provider {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Model == "" {
		config.Model = "mistral"
	}

	return &Provider{
		config: config,
		client: &http.Client{},
	}
}

// ollamaMessage represents a message in Ollama chat API format
type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ollamaRequest represents an Ollama chat API request
type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

// ollamaResponse represents an Ollama chat API response
type ollamaResponse struct {
	Message ollamaMessage `json:"message"`
	Error   string        `json:"error,omitempty"`
}

// Generate implements llm.Client interface
func (p *Provider) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("generate request cannot be nil")
	}

	// Convert messages to Ollama format
	ollamaMessages := make([]ollamaMessage, len(req.Messages))
	for i, msg := range req.Messages {
		ollamaMessages[i] = ollamaMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	chatReq := ollamaRequest{
		Model:    p.config.Model,
		Messages: ollamaMessages,
		Stream:   false,
		Options: ollamaOptions{
			Temperature: p.config.Temperature,
		},
	}

	reqBody, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(p.config.BaseURL, "/") + "/api/chat"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
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

	var resp ollamaResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("Ollama API error: %s", resp.Error)
	}
	if resp.Message.Content == "" {
		return nil, fmt.Errorf("no content returned from Ollama: %w", errors.ErrEmptyResponse)
	}

	responseMsg := message.NewMessage(message.RoleAssistant, resp.Message.Content)
	return &llm.GenerateResponse{Message: responseMsg}, nil
}

// SetModel updates the model
func (p *Provider) SetModel(model string) {
	p.config.Model = model
}

// SetTemperature updates the temperature setting
func (p *Provider) SetTemperature(temp float64) {
	p.config.Temperature = temp
}
