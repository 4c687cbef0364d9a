// Package config holds pipeline configuration loaded from the
// environment with sane defaults.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds tunables for the question answering pipeline.
type Config struct {
	// MaxIterations bounds the reasoning loop.
	MaxIterations int

	// LLMTimeout caps every individual model call.
	LLMTimeout time.Duration

	// MaxResults is the base number of passages requested from the
	// vector store.
	MaxResults int

	// MaxPassageChars truncates each retrieved passage.
	MaxPassageChars int

	// MaxContextTokens bounds the assembled retrieval context when a
	// tokenizer is available. Zero disables the token budget.
	MaxContextTokens int

	// UseReAct enables the iterative reasoning loop. When false the
	// pipeline answers with a single generation over the structured
	// context.
	UseReAct bool

	// MemoryWindow is the number of messages kept per conversation.
	MemoryWindow int
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxIterations:    5,
		LLMTimeout:       60 * time.Second,
		MaxResults:       30,
		MaxPassageChars:  5000,
		MaxContextTokens: 0,
		UseReAct:         true,
		MemoryWindow:     20,
	}
}

// FromEnv loads configuration from environment variables, falling back
// to defaults for anything unset or unparsable.
func FromEnv() *Config {
	cfg := DefaultConfig()
	cfg.MaxIterations = getEnvInt("AGENT_MAX_ITERATIONS", cfg.MaxIterations)
	cfg.LLMTimeout = getEnvDuration("AGENT_LLM_TIMEOUT", cfg.LLMTimeout)
	cfg.MaxResults = getEnvInt("RETRIEVAL_MAX_RESULTS", cfg.MaxResults)
	cfg.MaxPassageChars = getEnvInt("RETRIEVAL_MAX_PASSAGE_CHARS", cfg.MaxPassageChars)
	cfg.MaxContextTokens = getEnvInt("RETRIEVAL_MAX_CONTEXT_TOKENS", cfg.MaxContextTokens)
	cfg.UseReAct = getEnvBool("AGENT_USE_REACT", cfg.UseReAct)
	cfg.MemoryWindow = getEnvInt("MEMORY_WINDOW", cfg.MemoryWindow)
	return cfg
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	v := NewValidator()
	v.RequirePositive("maxIterations", c.MaxIterations)
	v.RequirePositiveDuration("llmTimeout", c.LLMTimeout)
	v.RequirePositive("maxResults", c.MaxResults)
	v.RequirePositive("maxPassageChars", c.MaxPassageChars)
	if c.MaxContextTokens < 0 {
		v.RequirePositive("maxContextTokens", c.MaxContextTokens)
	}
	v.RequirePositive("memoryWindow", c.MemoryWindow)
	return v.Error()
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
