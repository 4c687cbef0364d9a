// Package orchestrator wires the pipeline stages into the end-to-end
// question answering flow. A question is classified, grounded in
// documents or the transaction store, structured, answered, verified
// and optionally corrected. The caller always gets a result: any
// uncaught failure becomes a zero-confidence apology.
package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/sweetpotato0/transagent/classifier"
	"github.com/sweetpotato0/transagent/config"
	"github.com/sweetpotato0/transagent/errors"
	"github.com/sweetpotato0/transagent/llm"
	"github.com/sweetpotato0/transagent/memory"
	"github.com/sweetpotato0/transagent/message"
	"github.com/sweetpotato0/transagent/pkg/logging"
	"github.com/sweetpotato0/transagent/pkg/telemetry"
	"github.com/sweetpotato0/transagent/react"
	"github.com/sweetpotato0/transagent/retrieval"
	"github.com/sweetpotato0/transagent/structurer"
	"github.com/sweetpotato0/transagent/tooluse"
	"github.com/sweetpotato0/transagent/verify"
)

const (
	errorAnswer = "Erreur lors du traitement de votre question. Veuillez réessayer."
	errorIntent = "error"
)

// Result is the externally visible outcome of one question.
type Result struct {
	FinalAnswer  string
	Confidence   float64
	WasCorrected bool
	Intent       string
}

// Orchestrator sequences the pipeline stages.
type Orchestrator struct {
	classifier *classifier.Classifier
	retriever  *retrieval.Retriever
	tools      *tooluse.Invoker
	structurer *structurer.Structurer
	loop       *react.Loop
	verifier   *verify.Verifier
	client     llm.Client
	memory     memory.Store
	useReAct   bool
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures the orchestrator
type Option func(*Orchestrator)

// WithRetriever sets the document retriever. Without one, document
// questions proceed with an empty context.
func WithRetriever(r *retrieval.Retriever) Option {
	return func(o *Orchestrator) { o.retriever = r }
}

// WithTools sets the transaction tool invoker. Without one, transaction
// questions proceed with no tool result.
func WithTools(t *tooluse.Invoker) Option {
	return func(o *Orchestrator) { o.tools = t }
}

// WithMemory records each completed exchange in conversation memory.
func WithMemory(store memory.Store) Option {
	return func(o *Orchestrator) { o.memory = store }
}

// WithReAct toggles the iterative reasoning loop. Disabled, the answer
// comes from a single generation over the structured context.
func WithReAct(enabled bool) Option {
	return func(o *Orchestrator) { o.useReAct = enabled }
}

// New creates an orchestrator around a model client. The classifier,
// structurer, reasoning loop and verifier are built from cfg; retriever,
// tools and memory are attached via options.
func New(client llm.Client, cfg *config.Config, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	bounded := llm.WithTimeout(client, cfg.LLMTimeout)

	o := &Orchestrator{
		classifier: classifier.New(),
		structurer: structurer.New(bounded),
		loop:       react.New(bounded, cfg.MaxIterations),
		verifier:   verify.New(bounded),
		client:     bounded,
		useReAct:   cfg.UseReAct,
		logger:     logging.WithComponent("orchestrator"),
		tracer:     telemetry.Tracer("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Answer runs the full pipeline for a one-shot question.
func (o *Orchestrator) Answer(ctx context.Context, question string) *Result {
	return o.AnswerChat(ctx, "", question)
}

// AnswerChat runs the full pipeline and, when a chat ID is given and a
// memory store is attached, records the completed exchange. It never
// returns an error: any panic or unhandled failure yields the apology
// result with zero confidence.
func (o *Orchestrator) AnswerChat(ctx context.Context, chatID, question string) (result *Result) {
	ctx, span := o.tracer.Start(ctx, "pipeline",
		trace.WithAttributes(attribute.String("chat_id", chatID)))

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("pipeline panic", slog.Any("panic", r))
			telemetry.End(span, fmt.Errorf("pipeline panic: %v: %w", r, errors.ErrInternal))
			result = &Result{
				FinalAnswer: errorAnswer,
				Confidence:  0,
				Intent:      errorIntent,
			}
			return
		}
		span.SetAttributes(attribute.Float64("confidence", result.Confidence))
		telemetry.End(span, nil)
	}()

	route := o.classify(ctx, question)

	var ragContext, toolResult string
	switch route {
	case classifier.RouteDocument:
		ragContext = o.retrieve(ctx, question)
	case classifier.RouteTransaction:
		toolResult = o.invokeTools(ctx, question)
	}

	structured := o.structure(ctx, question, ragContext, toolResult)
	answer := o.generate(ctx, question, structured)
	verification := o.check(ctx, question, answer, structured.Body)

	result = &Result{
		FinalAnswer: answer,
		Confidence:  verification.Confidence,
		Intent:      structured.Intent,
	}
	if verification.NeedsCorrection && verification.CorrectedAnswer != "" {
		result.FinalAnswer = verification.CorrectedAnswer
		result.WasCorrected = true
	}

	o.remember(ctx, chatID, question, result.FinalAnswer)

	o.logger.Info("pipeline complete",
		slog.String("route", string(route)),
		slog.Float64("confidence", result.Confidence),
		slog.Bool("corrected", result.WasCorrected))
	return result
}

// History returns the recorded conversation for a chat ID, empty when no
// memory store is attached.
func (o *Orchestrator) History(ctx context.Context, chatID string) ([]*message.Message, error) {
	if o.memory == nil || chatID == "" {
		return nil, nil
	}
	return o.memory.History(ctx, chatID)
}

func (o *Orchestrator) classify(ctx context.Context, question string) classifier.Route {
	_, span := o.tracer.Start(ctx, "classify")
	route := o.classifier.Classify(question)
	span.SetAttributes(attribute.String("route", string(route)))
	telemetry.End(span, nil)
	return route
}

func (o *Orchestrator) retrieve(ctx context.Context, question string) string {
	if o.retriever == nil {
		return ""
	}
	ctx, span := o.tracer.Start(ctx, "retrieve")
	ragContext := o.retriever.Search(ctx, question)
	span.SetAttributes(attribute.Int("context_chars", len(ragContext)))
	telemetry.End(span, nil)
	return ragContext
}

func (o *Orchestrator) invokeTools(ctx context.Context, question string) string {
	if o.tools == nil {
		return ""
	}
	ctx, span := o.tracer.Start(ctx, "tooluse")
	toolResult, err := o.tools.Execute(ctx, question)
	span.SetAttributes(attribute.Bool("matched", err == nil))
	telemetry.End(span, nil)
	if stderrors.Is(err, errors.ErrNoToolMatched) {
		return ""
	}
	return toolResult
}

func (o *Orchestrator) structure(ctx context.Context, question, ragContext, toolResult string) *structurer.StructuredContext {
	ctx, span := o.tracer.Start(ctx, "structure")
	structured := o.structurer.Structure(ctx, question, ragContext, toolResult)
	telemetry.End(span, nil)
	return structured
}

func (o *Orchestrator) generate(ctx context.Context, question string, structured *structurer.StructuredContext) string {
	if o.useReAct {
		ctx, span := o.tracer.Start(ctx, "react")
		answer := o.loop.React(ctx, question, structured.Body)
		telemetry.End(span, nil)
		return answer
	}

	ctx, span := o.tracer.Start(ctx, "generate")
	answer := o.generateDirect(ctx, question, structured)
	telemetry.End(span, nil)
	return answer
}

// generateDirect answers with a single model call over the structured
// context, used when the reasoning loop is disabled.
func (o *Orchestrator) generateDirect(ctx context.Context, question string, structured *structurer.StructuredContext) string {
	systemPrompt := fmt.Sprintf(`Tu es un assistant qui répond de manière claire et structurée.

Intention de l'utilisateur: %s

Format de réponse suggéré: %s

Réponds en te basant uniquement sur le contexte fourni.`,
		structured.Intent, structured.ResponseTemplate)

	prompt := fmt.Sprintf(`%s

Points clés:
%s

Question: %s

Réponse:`, structured.Body, structured.KeyPoints, question)

	resp, err := o.client.Generate(ctx, llm.NewRequest(systemPrompt, prompt))
	if err != nil || resp == nil || resp.Message.Text() == "" {
		o.logger.Warn("direct generation failed", slog.Any("error", err))
		return "Je n'ai pas pu générer de réponse. Veuillez réessayer."
	}
	return resp.Message.Text()
}

func (o *Orchestrator) check(ctx context.Context, question, answer, contextText string) *verify.Result {
	ctx, span := o.tracer.Start(ctx, "verify")
	verification := o.verifier.Verify(ctx, question, answer, contextText)
	span.SetAttributes(attribute.Bool("needs_correction", verification.NeedsCorrection))
	telemetry.End(span, nil)
	return verification
}

func (o *Orchestrator) remember(ctx context.Context, chatID, question, answer string) {
	if o.memory == nil || chatID == "" {
		return
	}
	q, a := memory.NewExchange(question, answer)
	if err := o.memory.AppendExchange(ctx, chatID, q, a); err != nil {
		o.logger.Warn("failed to record exchange",
			slog.String("chat_id", chatID),
			slog.Any("error", err))
	}
}
