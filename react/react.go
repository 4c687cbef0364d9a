// Package react implements the Think-Act-Observe reasoning loop. The
// loop is bounded, parses model replies with prefix fields, and fails
// open: any malformed reply or model failure collapses to generating an
// answer, so the loop always completes with a non-empty result.
package react

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/transagent/llm"
	"github.com/sweetpotato0/transagent/pkg/logging"
)

// Action decided by a THINK step
type Action string

const (
	ActionAnswer     Action = "ANSWER"
	ActionSearchMore Action = "SEARCH_MORE"
	ActionClarify    Action = "CLARIFY"
)

// NextStep decided by an OBSERVE step
type NextStep string

const (
	NextAnswer     NextStep = "ANSWER"
	NextContinue   NextStep = "CONTINUE"
	NextSearchMore NextStep = "SEARCH_MORE"
)

// Per-prompt context truncation bounds (in runes)
const (
	thinkContextLimit   = 1500
	observeContextLimit = 1000
)

// Thought is one reasoning step
type Thought struct {
	Reasoning string
	Action    Action
	Step      string
}

// Observation is the assessment of a non-terminal action
type Observation struct {
	Result   string
	Success  bool
	NextStep NextStep
}

// Loop runs the bounded reasoning cycle
type Loop struct {
	client        llm.Client
	maxIterations int
	logger        *slog.Logger
}

// New creates a reasoning loop. maxIterations below 1 is raised to 1.
func New(client llm.Client, maxIterations int) *Loop {
	if maxIterations < 1 {
		maxIterations = 1
	}
	return &Loop{
		client:        client,
		maxIterations: maxIterations,
		logger:        logging.WithComponent("react"),
	}
}

// React runs the Think-Act-Observe cycle and always returns a non-empty
// answer within maxIterations rounds.
func (l *Loop) React(ctx context.Context, question, contextText string) string {
	var history []string
	currentContext := contextText

	for iteration := 1; iteration <= l.maxIterations; iteration++ {
		l.logger.Info("reasoning iteration", "iteration", iteration, "max", l.maxIterations)

		thought := l.think(ctx, question, currentContext, history)
		history = append(history, fmt.Sprintf("Étape %d: %s", iteration, thought.Reasoning))
		l.logger.Debug("thought", "action", thought.Action, "reasoning", thought.Reasoning)

		switch thought.Action {
		case ActionAnswer:
			return l.generateAnswer(ctx, question, currentContext, history)
		case ActionClarify:
			// No generation call: the clarification is built from the
			// reasoning text directly.
			return "Pourriez-vous préciser votre question ? " + thought.Reasoning
		}

		observation := l.observe(ctx, currentContext, thought)
		l.logger.Debug("observation", "success", observation.Success, "next_step", observation.NextStep)

		if observation.NextStep == NextAnswer {
			return l.generateAnswer(ctx, question, currentContext, history)
		}
		if observation.Success && observation.NextStep == NextContinue {
			currentContext = observation.Result
		}
	}

	l.logger.Warn("iteration bound reached, forcing answer")
	return l.generateAnswer(ctx, question, currentContext, history)
}

func (l *Loop) think(ctx context.Context, question, contextText string, history []string) Thought {
	historyStr := "Aucune étape précédente"
	if len(history) > 0 {
		historyStr = strings.Join(history, "\n")
	}

	contextStr := "Aucun contexte"
	if contextText != "" {
		contextStr = truncateRunes(contextText, thinkContextLimit)
	}

	prompt := fmt.Sprintf(`Tu es un agent de raisonnement. Analyse la question et le contexte, puis décide de la prochaine action.

QUESTION:
%s

CONTEXTE DISPONIBLE:
%s

HISTORIQUE DES ÉTAPES:
%s

Réponds au format suivant:
RAISONNEMENT: [ton raisonnement en 2-3 phrases]
ACTION: [ANSWER, SEARCH_MORE, ou CLARIFY]
ÉTAPE: [description de l'étape de raisonnement]
`, question, contextStr, historyStr)

	resp, err := l.client.Generate(ctx, llm.NewRequest(
		"Tu es un agent de raisonnement. Analyse et décide de la prochaine action.",
		prompt))
	if err != nil {
		l.logger.Error("think call failed", "error", err)
		return Thought{Reasoning: "Erreur de raisonnement", Action: ActionAnswer, Step: "Continuer avec la réponse"}
	}

	text := resp.Message.Text()
	thought := Thought{
		Reasoning: extractField(text, "RAISONNEMENT"),
		Action:    parseAction(extractField(text, "ACTION")),
		Step:      extractField(text, "ÉTAPE"),
	}
	return thought
}

func (l *Loop) observe(ctx context.Context, contextText string, thought Thought) Observation {
	contextStr := "Aucun contexte"
	if contextText != "" {
		contextStr = truncateRunes(contextText, observeContextLimit)
	}

	prompt := fmt.Sprintf(`Analyse le contexte disponible après l'action suivante.

ACTION EFFECTUÉE:
%s

CONTEXTE DISPONIBLE:
%s

Réponds au format:
RÉSULTAT: [description du résultat]
SUCCÈS: [OUI ou NON]
PROCHAINE_ÉTAPE: [ANSWER, CONTINUE, ou SEARCH_MORE]
`, thought.Action, contextStr)

	resp, err := l.client.Generate(ctx, llm.NewRequest(
		"Tu es un agent d'observation. Analyse le résultat de l'action.",
		prompt))
	if err != nil {
		l.logger.Error("observe call failed", "error", err)
		return Observation{Result: "Erreur d'observation", Success: false, NextStep: NextAnswer}
	}

	text := resp.Message.Text()
	return Observation{
		Result:   extractField(text, "RÉSULTAT"),
		Success:  strings.Contains(strings.ToUpper(extractField(text, "SUCCÈS")), "OUI"),
		NextStep: parseNextStep(extractField(text, "PROCHAINE_ÉTAPE")),
	}
}

func (l *Loop) generateAnswer(ctx context.Context, question, contextText string, history []string) string {
	historyStr := ""
	if len(history) > 0 {
		historyStr = "\n\nHistorique du raisonnement:\n" + strings.Join(history, "\n")
	}

	contextStr := "Aucun contexte disponible"
	if contextText != "" {
		contextStr = contextText
	}

	prompt := fmt.Sprintf(`Réponds à la question suivante en utilisant le contexte fourni.

QUESTION:
%s

CONTEXTE:
%s
%s

RÉPONSE:
`, question, contextStr, historyStr)

	resp, err := l.client.Generate(ctx, llm.NewRequest(
		"Tu es un assistant expert. Réponds de manière claire et précise. Réponds TOUJOURS en FRANÇAIS.",
		prompt))
	if err != nil {
		l.logger.Error("answer generation failed", "error", err)
		return "Je n'ai pas pu générer de réponse. Veuillez réessayer."
	}
	return resp.Message.Text()
}

// parseAction maps a raw ACTION field to a known action, defaulting to
// ANSWER for anything missing or unrecognized.
func parseAction(raw string) Action {
	switch Action(strings.ToUpper(strings.TrimSpace(raw))) {
	case ActionSearchMore:
		return ActionSearchMore
	case ActionClarify:
		return ActionClarify
	}
	return ActionAnswer
}

// parseNextStep maps a raw PROCHAINE_ÉTAPE field, defaulting to ANSWER
func parseNextStep(raw string) NextStep {
	switch NextStep(strings.ToUpper(strings.TrimSpace(raw))) {
	case NextContinue:
		return NextContinue
	case NextSearchMore:
		return NextSearchMore
	}
	return NextAnswer
}

// extractField returns the text after "FIELD:" up to the next newline
func extractField(text, field string) string {
	marker := field + ":"
	start := strings.Index(text, marker)
	if start == -1 {
		return ""
	}
	start += len(marker)
	rest := text[start:]
	if end := strings.IndexByte(rest, '\n'); end != -1 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func truncateRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
