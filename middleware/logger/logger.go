// Package logger provides request and answer logging middlewares.
package logger

import (
	"log/slog"
	"time"

	"github.com/sweetpotato0/transagent/middleware"
	"github.com/sweetpotato0/transagent/pkg/logging"
)

// QuestionLogger logs incoming questions.
type QuestionLogger struct {
	logger *slog.Logger
}

// NewQuestionLogger creates a question logging middleware.
func NewQuestionLogger(logger *slog.Logger) *QuestionLogger {
	if logger == nil {
		logger = logging.WithComponent("middleware.logger")
	}
	return &QuestionLogger{logger: logger}
}

// Name returns the middleware name
func (m *QuestionLogger) Name() string {
	return "QuestionLogger"
}

// Execute logs the question before passing it on.
func (m *QuestionLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	m.logger.Info("question received",
		slog.String("chat_id", ctx.ChatID),
		slog.Int("length", len(ctx.Question)))
	return next(ctx)
}

// AnswerLogger logs answers and their verification confidence, along
// with the time the pipeline took.
type AnswerLogger struct {
	logger *slog.Logger
}

// NewAnswerLogger creates an answer logging middleware.
func NewAnswerLogger(logger *slog.Logger) *AnswerLogger {
	if logger == nil {
		logger = logging.WithComponent("middleware.logger")
	}
	return &AnswerLogger{logger: logger}
}

// Name returns the middleware name
func (m *AnswerLogger) Name() string {
	return "AnswerLogger"
}

// Execute logs the answer after the rest of the chain ran.
func (m *AnswerLogger) Execute(ctx *middleware.Context, next middleware.Handler) error {
	start := time.Now()
	err := next(ctx)
	elapsed := time.Since(start)

	if err != nil {
		m.logger.Error("pipeline failed",
			slog.String("chat_id", ctx.ChatID),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err))
		return err
	}
	m.logger.Info("answer produced",
		slog.String("chat_id", ctx.ChatID),
		slog.Float64("confidence", ctx.Confidence),
		slog.Duration("elapsed", elapsed),
		slog.Int("length", len(ctx.Answer)))
	return nil
}
