// Package retrieval finds relevant document passages for a question
// using a progressive-threshold search ladder. Recall at any single
// similarity threshold is not guaranteed, so each step widens the net
// until something comes back; total failure yields an empty context,
// never an error.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sweetpotato0/transagent/pkg/logging"
	"github.com/sweetpotato0/transagent/tokenizer"
	"github.com/sweetpotato0/transagent/vector"
)

// Score thresholds tried in order during the primary search
var scoreThresholds = []float32{0.0, 0.1, 0.2, 0.3, 0.5}

// Last-resort query terms when nothing in the question matches
var fallbackTerms = []string{"texte", "contenu", "information", "données", "analyse"}

// Generic broadening terms, with subsets preferred when the question
// carries the matching cue words
var genericTerms = []string{
	"document", "contenu", "texte", "information", "données", "analyse",
	"analyse de données", "cours", "résumé", "introduction", "méthode",
	"technique", "statistique", "apprentissage", "machine learning",
}

var dataAnalysisTerms = []string{
	"analyse de données", "analyse", "données", "statistique",
	"méthode", "technique", "cours", "résumé", "introduction",
}

var courseSummaryTerms = []string{
	"cours", "résumé", "introduction", "document", "contenu",
	"texte", "information", "analyse",
}

var stopwordPattern = regexp.MustCompile(`^(le|la|les|un|une|de|du|des|et|ou|est|sont|dans|pour|avec)$`)

// Config holds retriever tuning knobs
type Config struct {
	// MaxResults is the result cap for the primary threshold search.
	// The effective cap is never below 30.
	MaxResults int

	// MaxPassageChars truncates each passage before formatting.
	MaxPassageChars int

	// MaxContextTokens bounds the total formatted context when a
	// tokenizer is attached. Zero means unbounded.
	MaxContextTokens int
}

// DefaultConfig returns default retriever configuration
func DefaultConfig() *Config {
	return &Config{
		MaxResults:      30,
		MaxPassageChars: 5000,
	}
}

// Retriever searches the vector store and formats the hits into a
// context block for generation.
type Retriever struct {
	embedder vector.Embedder
	store    vector.Store
	config   *Config
	tok      *tokenizer.Tokenizer
	logger   *slog.Logger
}

// Option configures a Retriever
type Option func(*Retriever)

// WithConfig replaces the default configuration
func WithConfig(config *Config) Option {
	return func(r *Retriever) {
		if config != nil {
			r.config = config
		}
	}
}

// WithTokenizer enables the token budget on the formatted context
func WithTokenizer(tok *tokenizer.Tokenizer) Option {
	return func(r *Retriever) {
		r.tok = tok
	}
}

// New creates a retriever over an embedder and a vector store. Either
// may be nil; search then returns an empty context.
func New(embedder vector.Embedder, store vector.Store, opts ...Option) *Retriever {
	r := &Retriever{
		embedder: embedder,
		store:    store,
		config:   DefaultConfig(),
		logger:   logging.WithComponent("retrieval"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search runs the full ladder and returns the formatted context, or an
// empty string when nothing can be found. Errors from the embedder or
// the store are logged and treated as empty results.
func (r *Retriever) Search(ctx context.Context, question string) string {
	if r.embedder == nil || r.store == nil {
		r.logger.Warn("embedder or vector store not available")
		return ""
	}

	queryEmbedding, err := r.embedder.Embed(ctx, question)
	if err != nil {
		r.logger.Error("failed to embed question", "error", err)
		return ""
	}

	matches := r.progressiveSearch(ctx, queryEmbedding, question)
	if len(matches) == 0 {
		r.logger.Warn("no passages found after full search ladder")
		return ""
	}

	return r.buildContext(matches)
}

// progressiveSearch tries each ladder step in order and returns the
// first non-empty result set.
func (r *Retriever) progressiveSearch(ctx context.Context, queryEmbedding []float32, question string) []vector.Match {
	maxResults := r.config.MaxResults
	if maxResults < 30 {
		maxResults = 30
	}

	for _, threshold := range scoreThresholds {
		matches := r.find(ctx, queryEmbedding, maxResults, threshold)
		if len(matches) > 0 {
			r.logger.Info("passages found", "count", len(matches), "min_score", threshold)
			return matches
		}
	}

	// Widen the result cap without changing the query
	r.logger.Warn("no results at normal thresholds, widening search")
	if matches := r.find(ctx, queryEmbedding, 100, 0.0); len(matches) > 0 {
		r.logger.Info("passages found with widened search", "count", len(matches))
		return matches
	}

	r.logger.Warn("no results with widened search, trying keywords")
	if matches := r.searchByKeywords(ctx, question); len(matches) > 0 {
		return matches
	}

	r.logger.Warn("no results by keywords, retrieving whatever exists")
	return r.retrieveAnything(ctx, queryEmbedding)
}

// searchByKeywords embeds individual question tokens, then generic
// domain terms, stopping at the first hit.
func (r *Retriever) searchByKeywords(ctx context.Context, question string) []vector.Match {
	lower := strings.ToLower(question)

	for _, keyword := range strings.Fields(lower) {
		if len(keyword) <= 3 || stopwordPattern.MatchString(keyword) {
			continue
		}
		embedding, err := r.embedder.Embed(ctx, keyword)
		if err != nil {
			r.logger.Debug("failed to embed keyword", "keyword", keyword, "error", err)
			continue
		}
		if matches := r.find(ctx, embedding, 20, 0.0); len(matches) > 0 {
			r.logger.Info("passages found by keyword", "keyword", keyword, "count", len(matches))
			return matches
		}
	}

	terms := genericTerms
	if strings.Contains(lower, "analyse") || strings.Contains(lower, "données") {
		terms = dataAnalysisTerms
	} else if strings.Contains(lower, "cours") || strings.Contains(lower, "résumé") {
		terms = courseSummaryTerms
	}

	for _, term := range terms {
		embedding, err := r.embedder.Embed(ctx, term)
		if err != nil {
			r.logger.Debug("failed to embed generic term", "term", term, "error", err)
			continue
		}
		if matches := r.find(ctx, embedding, 50, 0.0); len(matches) > 0 {
			r.logger.Info("passages found by generic term", "term", term, "count", len(matches))
			return matches
		}
	}

	return nil
}

// retrieveAnything is the absolute fallback: a deliberately permissive
// score floor and a large cap, with progressively more generic query
// embeddings.
func (r *Retriever) retrieveAnything(ctx context.Context, queryEmbedding []float32) []vector.Match {
	if matches := r.find(ctx, queryEmbedding, 1000, -10.0); len(matches) > 0 {
		r.logger.Info("passages retrieved in fallback mode", "count", len(matches))
		return matches
	}

	terms := append([]string{"document"}, fallbackTerms...)
	terms = append(terms, "a")
	for _, term := range terms {
		embedding, err := r.embedder.Embed(ctx, term)
		if err != nil {
			r.logger.Debug("failed to embed fallback term", "term", term, "error", err)
			continue
		}
		if matches := r.find(ctx, embedding, 1000, -10.0); len(matches) > 0 {
			r.logger.Info("passages retrieved with fallback term", "term", term, "count", len(matches))
			return matches
		}
	}

	return nil
}

// find is a single store call with errors flattened to empty results
func (r *Retriever) find(ctx context.Context, embedding []float32, maxResults int, minScore float32) []vector.Match {
	matches, err := r.store.FindRelevant(ctx, embedding, maxResults, minScore)
	if err != nil {
		r.logger.Debug("vector search failed", "min_score", minScore, "error", err)
		return nil
	}
	return matches
}

// buildContext formats matches into the numbered context block with the
// document-only instruction preamble.
func (r *Retriever) buildContext(matches []vector.Match) string {
	var b strings.Builder
	b.WriteString("═══════════════════════════════════════════════════════════\n")
	b.WriteString("CONTEXTE PERTINENT DEPUIS LES DOCUMENTS CHARGÉS\n")
	b.WriteString("═══════════════════════════════════════════════════════════\n\n")
	b.WriteString("INSTRUCTIONS CRITIQUES:\n")
	b.WriteString("1. Les informations ci-dessous proviennent UNIQUEMENT des documents chargés.\n")
	b.WriteString("2. Vous DEVEZ répondre EXCLUSIVEMENT en utilisant ces informations de documents.\n")
	b.WriteString("3. INTERDICTION ABSOLUE de mentionner les transactions, comptes, soldes ou outils de base de données.\n")
	b.WriteString("4. Si l'information n'est pas dans les documents, dites-le clairement.\n")
	b.WriteString("5. Ne pas inventer d'informations.\n\n")
	b.WriteString("CONTENU DES DOCUMENTS:\n")
	b.WriteString("───────────────────────────────────────────────────────────\n\n")

	budget := 0
	if r.tok != nil && r.config.MaxContextTokens > 0 {
		budget = r.config.MaxContextTokens - r.tok.CountTokens(b.String())
	}

	index := 1
	for _, match := range matches {
		text := strings.TrimSpace(match.Text)
		if text == "" {
			continue
		}
		text = truncate(text, r.config.MaxPassageChars)

		block := fmt.Sprintf("【 Extrait %d 】\n%s\n\n", index, text)
		if budget > 0 {
			cost := r.tok.CountTokens(block)
			if cost > budget {
				r.logger.Info("context token budget reached", "passages", index-1)
				break
			}
			budget -= cost
		}
		b.WriteString(block)
		index++
	}

	b.WriteString("═══════════════════════════════════════════════════════════\n")
	return b.String()
}

// truncate bounds text to max characters without splitting a rune
func truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
