// Package verify scores a generated answer along three axes and runs a
// single correction pass when quality is too low. Scores are parsed
// defensively and clamped; confidence is always in [0,1].
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/sweetpotato0/transagent/llm"
	"github.com/sweetpotato0/transagent/pkg/logging"
)

// Axis weights
const (
	coherenceWeight     = 0.4
	hallucinationWeight = 0.4
	relevanceWeight     = 0.2
)

// Issue thresholds per axis
const (
	coherenceThreshold     = 0.6
	hallucinationThreshold = 0.7
	relevanceThreshold     = 0.6
)

// correctionThreshold is the confidence below which a correction pass
// runs even without axis-level issues.
const correctionThreshold = 0.7

// Axis defaults when a score cannot be obtained. The hallucination axis
// fails closed without context: nothing to verify against means low
// trust, not neutral.
const (
	neutralScore                = 0.5
	noContextCoherenceScore     = 0.5
	noContextHallucinationScore = 0.3
)

// Per-prompt truncation bounds (in runes)
const (
	contextPromptLimit  = 2000
	responsePromptLimit = 1000
)

var nonNumericPattern = regexp.MustCompile(`[^0-9.]`)

// Result of a verification pass
type Result struct {
	Confidence      float64
	NeedsCorrection bool
	Issues          []string
	CorrectedAnswer string
}

// Verifier scores answers with model calls
type Verifier struct {
	client llm.Client
	logger *slog.Logger
}

// New creates a verifier
func New(client llm.Client) *Verifier {
	return &Verifier{
		client: client,
		logger: logging.WithComponent("verify"),
	}
}

// Verify scores the answer and, when needed, produces a corrected one.
// It never returns an error: a broken model degrades to a neutral 0.5
// confidence with no correction.
func (v *Verifier) Verify(ctx context.Context, question, answer, contextText string) *Result {
	coherence := v.checkCoherence(ctx, answer, contextText)
	hallucination := v.detectHallucinations(ctx, answer, contextText)
	relevance := v.checkRelevance(ctx, question, answer)

	confidence := clamp(coherence*coherenceWeight +
		hallucination*hallucinationWeight +
		relevance*relevanceWeight)

	var issues []string
	if coherence < coherenceThreshold {
		issues = append(issues, "Faible cohérence avec le contexte")
	}
	if hallucination < hallucinationThreshold {
		issues = append(issues, "Possible hallucination détectée")
	}
	if relevance < relevanceThreshold {
		issues = append(issues, "Réponse peu pertinente par rapport à la question")
	}

	needsCorrection := confidence < correctionThreshold || len(issues) > 0

	result := &Result{
		Confidence:      confidence,
		NeedsCorrection: needsCorrection,
		Issues:          issues,
	}
	if needsCorrection {
		result.CorrectedAnswer = v.correct(ctx, question, answer, contextText, issues)
	}

	v.logger.Info("verification done",
		"confidence", confidence,
		"needs_correction", needsCorrection,
		"issues", len(issues))
	return result
}

func (v *Verifier) checkCoherence(ctx context.Context, answer, contextText string) float64 {
	if contextText == "" {
		return noContextCoherenceScore
	}

	prompt := fmt.Sprintf(`Analyse la cohérence entre la réponse suivante et le contexte fourni.
Réponds UNIQUEMENT par un score entre 0.0 et 1.0 (0.0 = pas cohérent, 1.0 = très cohérent).

CONTEXTE:
%s

RÉPONSE:
%s

Score de cohérence (0.0-1.0):
`, truncateRunes(contextText, contextPromptLimit), truncateRunes(answer, responsePromptLimit))

	return v.score(ctx,
		"Tu es un expert en analyse de cohérence. Réponds UNIQUEMENT par un nombre entre 0.0 et 1.0.",
		prompt, "coherence")
}

func (v *Verifier) detectHallucinations(ctx context.Context, answer, contextText string) float64 {
	if contextText == "" {
		return noContextHallucinationScore
	}

	prompt := fmt.Sprintf(`Analyse si la réponse suivante contient des informations qui ne sont PAS dans le contexte.
Réponds UNIQUEMENT par un score entre 0.0 et 1.0 (0.0 = beaucoup d'hallucinations, 1.0 = aucune hallucination).

CONTEXTE:
%s

RÉPONSE:
%s

Score (0.0-1.0):
`, truncateRunes(contextText, contextPromptLimit), truncateRunes(answer, responsePromptLimit))

	return v.score(ctx,
		"Tu es un expert en détection d'hallucinations. Réponds UNIQUEMENT par un nombre entre 0.0 et 1.0.",
		prompt, "hallucination")
}

func (v *Verifier) checkRelevance(ctx context.Context, question, answer string) float64 {
	prompt := fmt.Sprintf(`Analyse si la réponse suivante répond bien à la question posée.
Réponds UNIQUEMENT par un score entre 0.0 et 1.0 (0.0 = pas pertinent, 1.0 = très pertinent).

QUESTION:
%s

RÉPONSE:
%s

Score de pertinence (0.0-1.0):
`, question, truncateRunes(answer, responsePromptLimit))

	return v.score(ctx,
		"Tu es un expert en analyse de pertinence. Réponds UNIQUEMENT par un nombre entre 0.0 et 1.0.",
		prompt, "relevance")
}

// score runs one axis call and parses the reply into a clamped score,
// falling back to neutral on any failure.
func (v *Verifier) score(ctx context.Context, systemPrompt, prompt, axis string) float64 {
	resp, err := v.client.Generate(ctx, llm.NewRequest(systemPrompt, prompt))
	if err != nil {
		v.logger.Warn("axis scoring failed", "axis", axis, "error", err)
		return neutralScore
	}
	return parseScore(resp.Message.Text())
}

func (v *Verifier) correct(ctx context.Context, question, answer, contextText string, issues []string) string {
	issuesStr := strings.Join(issues, ", ")
	contextStr := "Aucun contexte"
	if contextText != "" {
		contextStr = truncateRunes(contextText, contextPromptLimit)
	}

	prompt := fmt.Sprintf(`La réponse suivante a été générée mais présente des problèmes: %s

QUESTION ORIGINALE:
%s

CONTEXTE DISPONIBLE:
%s

RÉPONSE ORIGINALE (à corriger):
%s

PROBLÈMES DÉTECTÉS:
%s

Génère une réponse CORRIGÉE qui:
1. Répond mieux à la question
2. Utilise uniquement les informations du contexte
3. Évite les hallucinations
4. Est cohérente avec le contexte

RÉPONSE CORRIGÉE:
`, issuesStr, question, contextStr, truncateRunes(answer, responsePromptLimit), issuesStr)

	resp, err := v.client.Generate(ctx, llm.NewRequest(
		"Tu es un expert en correction de réponses. Génère une réponse améliorée basée sur le contexte. Réponds TOUJOURS en FRANÇAIS.",
		prompt))
	if err != nil {
		v.logger.Error("correction failed, keeping original answer", "error", err)
		return answer
	}
	corrected := strings.TrimSpace(resp.Message.Text())
	if corrected == "" {
		return answer
	}
	return corrected
}

// parseScore strips everything but digits and dots, parses, and clamps.
// Unparseable replies score neutral.
func parseScore(text string) float64 {
	cleaned := nonNumericPattern.ReplaceAllString(strings.TrimSpace(text), "")
	if cleaned == "" {
		return neutralScore
	}
	score, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return neutralScore
	}
	return clamp(score)
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func truncateRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
