// Package middleware lets callers intercept the question answering
// pipeline. Middlewares run in order around the final handler and can
// inspect or rewrite the question, the answer, and shared metadata.
package middleware

import (
	"context"
	"errors"
)

var (
	// ErrRateLimitExceeded indicates rate limit has been exceeded
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidInput indicates input validation failed
	ErrInvalidInput = errors.New("invalid input")
)

// Context carries one question through the middleware chain.
type Context struct {
	// ChatID identifies the conversation, empty for one-shot questions.
	ChatID string

	// Question is the user input, possibly rewritten by middlewares.
	Question string

	// Answer is filled by the final handler.
	Answer string

	// Confidence is the verification score of the answer.
	Confidence float64

	// Metadata passes data between middlewares.
	Metadata map[string]any

	context context.Context
}

// NewContext creates a middleware context for a question.
func NewContext(ctx context.Context, chatID, question string) *Context {
	return &Context{
		ChatID:   chatID,
		Question: question,
		Metadata: make(map[string]any),
		context:  ctx,
	}
}

// Context returns the underlying context.Context.
func (c *Context) Context() context.Context {
	if c.context == nil {
		return context.Background()
	}
	return c.context
}

// Middleware intercepts pipeline execution. Returning an error stops
// the chain.
type Middleware interface {
	// Name identifies the middleware for logging and debugging.
	Name() string

	// Execute runs the middleware, calling next to continue the chain.
	Execute(ctx *Context, next Handler) error
}

// Handler passes control to the next middleware or the final handler.
type Handler func(*Context) error

// Chain is a sequence of middlewares executed around a final handler.
type Chain struct {
	middlewares []Middleware
}

// NewChain creates a middleware chain.
func NewChain(middlewares ...Middleware) *Chain {
	return &Chain{middlewares: middlewares}
}

// Add appends a middleware to the chain.
func (c *Chain) Add(m Middleware) *Chain {
	c.middlewares = append(c.middlewares, m)
	return c
}

// Execute runs the chain, ending with the final handler.
func (c *Chain) Execute(ctx *Context, final Handler) error {
	return c.execute(ctx, 0, final)
}

func (c *Chain) execute(ctx *Context, index int, final Handler) error {
	if index >= len(c.middlewares) {
		return final(ctx)
	}
	next := func(ctx *Context) error {
		return c.execute(ctx, index+1, final)
	}
	return c.middlewares[index].Execute(ctx, next)
}
