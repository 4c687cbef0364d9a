// Package validator provides input validation middleware for the ask
// pipeline.
package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sweetpotato0/transagent/middleware"
)

// ValidatorFunc validates a question before the pipeline runs.
type ValidatorFunc func(string) error

// RequireQuestion rejects blank questions and questions longer than
// maxRunes (0 disables the length check).
func RequireQuestion(maxRunes int) ValidatorFunc {
	return func(question string) error {
		if strings.TrimSpace(question) == "" {
			return fmt.Errorf("question cannot be blank: %w", middleware.ErrInvalidInput)
		}
		if maxRunes > 0 && utf8.RuneCountInString(question) > maxRunes {
			return fmt.Errorf("question exceeds %d characters: %w", maxRunes, middleware.ErrInvalidInput)
		}
		return nil
	}
}

// QuestionValidator validates the question before passing it on.
type QuestionValidator struct {
	validator ValidatorFunc
}

// NewQuestionValidator creates an input validation middleware. A nil
// validator falls back to RequireQuestion(0).
func NewQuestionValidator(validator ValidatorFunc) *QuestionValidator {
	if validator == nil {
		validator = RequireQuestion(0)
	}
	return &QuestionValidator{validator: validator}
}

// Name returns the middleware name
func (m *QuestionValidator) Name() string {
	return "QuestionValidator"
}

// Execute validates the question, stopping the chain on failure.
func (m *QuestionValidator) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if err := m.validator(ctx.Question); err != nil {
		return err
	}
	return next(ctx)
}
