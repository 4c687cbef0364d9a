// Package classifier routes questions to the document corpus or the
// transaction ledger based on keyword scoring.
package classifier

import (
	"log/slog"
	"strings"

	"github.com/sweetpotato0/transagent/pkg/logging"
)

// Route is the knowledge source a question is dispatched to
type Route string

const (
	RouteDocument    Route = "DOCUMENT"
	RouteTransaction Route = "TRANSACTION"
)

// Questions about documents, files, and their content
var documentKeywords = []string{
	"document", "pdf", "fichier", "file",
	"analyse", "analysis", "analyser", "analyze",
	"données", "data", "dataset",
	"conclusion", "conclusions",
	"méthode", "method", "méthodes", "methods",
	"résultat", "result", "résultats", "results",
	"cours", "course", "formation", "training",
	"contenu", "content", "contenus",
	"résume", "summarize", "summary", "résumé", "résumés",
	"décris", "describe", "description",
	"explique", "explain", "explication",
	"qu'est-ce que", "what is", "what are",
	"définition", "definition",
	"image", "images", "photo", "photos",
	"rapport", "report", "rapports", "reports",
}

// Questions about the transaction ledger
var transactionKeywords = []string{
	"transaction", "transactions",
	"compte", "account", "comptes", "accounts",
	"solde", "balance", "soldes", "balances",
	"montant", "amount", "montants", "amounts",
	"débit", "debit", "crédit", "credit",
	"statut", "status", "statuts", "statuses",
	"pending", "executed", "canceled", "cancelled",
	"en attente", "exécuté", "annulé", "annulée",
	"créer", "create", "ajouter", "add",
	"supprimer", "delete", "remove",
	"mettre à jour", "update", "modifier", "modify",
	"liste", "list", "afficher", "show", "display",
}

// Classifier scores a question against the two keyword sets and picks a
// route. Classification never fails.
type Classifier struct {
	logger *slog.Logger
}

// New creates a question classifier
func New() *Classifier {
	return &Classifier{
		logger: logging.WithComponent("classifier"),
	}
}

// Classify returns the route for a question. Blank questions default to
// the transaction route without scoring. When both keyword sets match,
// the document route wins ties.
func (c *Classifier) Classify(question string) Route {
	if strings.TrimSpace(question) == "" {
		return RouteTransaction
	}

	lower := strings.ToLower(strings.TrimSpace(question))
	documentScore := countKeywords(lower, documentKeywords)
	transactionScore := countKeywords(lower, transactionKeywords)

	c.logger.Debug("classified question",
		"document_score", documentScore,
		"transaction_score", transactionScore)

	if documentScore > 0 && documentScore >= transactionScore {
		return RouteDocument
	}
	return RouteTransaction
}

// countKeywords counts how many keywords appear in the question as
// substrings. Each keyword counts at most once.
func countKeywords(question string, keywords []string) int {
	count := 0
	for _, keyword := range keywords {
		if strings.Contains(question, keyword) {
			count++
		}
	}
	return count
}
