// Package structurer interprets the question and whichever knowledge
// source answered it, and produces the structured context the reasoning
// loop generates from. Every model call here is fail-soft: a failure
// degrades to a neutral default, structuring never returns an error.
package structurer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sweetpotato0/transagent/llm"
	"github.com/sweetpotato0/transagent/pkg/logging"
)

// Defaults substituted when a model call fails
const (
	defaultIntent   = "Répondre à la question de l'utilisateur"
	defaultTemplate = "Répondre de manière claire et structurée"
)

// keyPointsContextLimit bounds how much retrieved context the key-point
// extraction prompt carries.
const keyPointsContextLimit = 2000

// StructuredContext is the single immutable artifact consumed by the
// reasoning loop and the verifier.
type StructuredContext struct {
	Intent           string
	Body             string
	KeyPoints        string
	ResponseTemplate string
}

// Structurer derives intent, key points and a response template from
// the question and its context.
type Structurer struct {
	client llm.Client
	logger *slog.Logger
}

// New creates a context structurer
func New(client llm.Client) *Structurer {
	return &Structurer{
		client: client,
		logger: logging.WithComponent("structurer"),
	}
}

// Structure builds the structured context from the question and
// whichever of ragContext / toolResult is populated. It never fails: on
// total breakdown it returns a minimal context built from the raw
// source.
func (s *Structurer) Structure(ctx context.Context, question, ragContext, toolResult string) *StructuredContext {
	intent := s.extractIntent(ctx, question)
	body := buildBody(ragContext, toolResult)
	keyPoints := s.extractKeyPoints(ctx, question, ragContext, toolResult)
	template := s.suggestTemplate(ctx, intent, keyPoints)

	return &StructuredContext{
		Intent:           intent,
		Body:             body,
		KeyPoints:        keyPoints,
		ResponseTemplate: template,
	}
}

func (s *Structurer) extractIntent(ctx context.Context, question string) string {
	prompt := fmt.Sprintf(`Analyse la question suivante et identifie l'intention principale.
Réponds UNIQUEMENT par l'intention en une phrase courte.

QUESTION:
%s

INTENTION:
`, question)

	resp, err := s.client.Generate(ctx, llm.NewRequest(
		"Tu es un expert en analyse d'intentions. Réponds UNIQUEMENT par l'intention en une phrase courte.",
		prompt))
	if err != nil {
		s.logger.Warn("intent extraction failed", "error", err)
		return defaultIntent
	}
	intent := strings.TrimSpace(resp.Message.Text())
	if intent == "" {
		return defaultIntent
	}
	return intent
}

func (s *Structurer) extractKeyPoints(ctx context.Context, question, ragContext, toolResult string) string {
	contextToAnalyze := ""
	if ragContext != "" {
		runes := []rune(ragContext)
		if len(runes) > keyPointsContextLimit {
			runes = runes[:keyPointsContextLimit]
		}
		contextToAnalyze = string(runes)
	} else if toolResult != "" {
		contextToAnalyze = toolResult
	}
	if contextToAnalyze == "" {
		return ""
	}

	prompt := fmt.Sprintf(`À partir de la question et du contexte suivants, extrais les 3-5 points clés les plus importants.
Réponds UNIQUEMENT par une liste à puces des points clés.

QUESTION:
%s

CONTEXTE:
%s

POINTS CLÉS:
`, question, contextToAnalyze)

	resp, err := s.client.Generate(ctx, llm.NewRequest(
		"Tu es un expert en extraction d'informations. Réponds UNIQUEMENT par une liste à puces des points clés.",
		prompt))
	if err != nil {
		s.logger.Warn("key point extraction failed", "error", err)
		return ""
	}
	return strings.TrimSpace(resp.Message.Text())
}

func (s *Structurer) suggestTemplate(ctx context.Context, intent, keyPoints string) string {
	prompt := fmt.Sprintf(`Basé sur l'intention suivante, suggère un template de réponse (structure, pas le contenu).

INTENTION:
%s

POINTS CLÉS:
%s

TEMPLATE DE RÉPONSE (structure seulement):
`, intent, keyPoints)

	resp, err := s.client.Generate(ctx, llm.NewRequest(
		"Tu es un expert en structuration de réponses. Suggère UNIQUEMENT la structure (template), pas le contenu.",
		prompt))
	if err != nil {
		s.logger.Warn("response template suggestion failed", "error", err)
		return defaultTemplate
	}
	template := strings.TrimSpace(resp.Message.Text())
	if template == "" {
		return defaultTemplate
	}
	return template
}

// buildBody assembles the context block with source-exclusive
// instructions. The both-sources branch is defensive: the classifier's
// routing makes it unreachable in the normal pipeline.
func buildBody(ragContext, toolResult string) string {
	var b strings.Builder
	b.WriteString("═══════════════════════════════════════════════════════════\n")
	b.WriteString("CONTEXTE STRUCTURÉ POUR LA GÉNÉRATION\n")
	b.WriteString("═══════════════════════════════════════════════════════════\n\n")

	if ragContext != "" {
		b.WriteString("INFORMATIONS DES DOCUMENTS:\n")
		b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		cleaned := strings.TrimSpace(strings.NewReplacer(
			"═══════════════════════════════════════════════════════════", "",
			"CONTEXTE PERTINENT DEPUIS LES DOCUMENTS CHARGÉS", "",
		).Replace(ragContext))
		b.WriteString(cleaned)
		b.WriteString("\n\n")
	}

	if toolResult != "" {
		b.WriteString("DONNÉES DE LA BASE DE DONNÉES:\n")
		b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		b.WriteString(toolResult)
		b.WriteString("\n\n")
	}

	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	switch {
	case ragContext != "" && toolResult == "":
		b.WriteString("- Utiliser UNIQUEMENT les informations des documents ci-dessus\n")
		b.WriteString("- Ne pas mentionner la base de données\n")
	case toolResult != "" && ragContext == "":
		b.WriteString("- Utiliser UNIQUEMENT les données de la base de données ci-dessus\n")
		b.WriteString("- Ne pas mentionner les documents\n")
	default:
		b.WriteString("- Utiliser les informations pertinentes du contexte ci-dessus\n")
	}
	b.WriteString("- Répondre de manière claire et structurée\n")
	b.WriteString("- Citer les sources quand c'est pertinent\n")

	return b.String()
}
