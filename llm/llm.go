package llm

import (
	"context"
	"time"

	"github.com/sweetpotato0/transagent/message"
)

// Client defines the interface for language model providers.
// Implementations must report failures as errors rather than returning
// silent empty text.
type Client interface {
	// Generate produces a response from the model for the given messages.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest bundles inputs for a non-streaming model invocation.
type GenerateRequest struct {
	Messages []*message.Message
}

// GenerateResponse captures the model reply for non-streaming calls.
type GenerateResponse struct {
	Message *message.Message
}

// NewRequest builds a request from a system prompt and a user prompt, the
// shape every pipeline stage uses.
func NewRequest(systemPrompt, userPrompt string) *GenerateRequest {
	return &GenerateRequest{
		Messages: []*message.Message{
			message.NewMessage(message.RoleSystem, systemPrompt),
			message.NewMessage(message.RoleUser, userPrompt),
		},
	}
}

type timeoutClient struct {
	inner   Client
	timeout time.Duration
}

// WithTimeout wraps a client so every Generate call carries a bounded
// deadline. A timeout surfaces as a regular error, which the pipeline
// stages treat like any other model failure.
func WithTimeout(inner Client, timeout time.Duration) Client {
	if timeout <= 0 {
		return inner
	}
	return &timeoutClient{inner: inner, timeout: timeout}
}

func (c *timeoutClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.inner.Generate(ctx, req)
}
