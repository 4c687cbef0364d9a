// Package tooluse pattern-matches questions against transactional
// intents and executes the matching ledger operation. Patterns are
// ordered most specific first so a broad lookup never shadows a
// narrower command; the first match wins.
package tooluse

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/sweetpotato0/transagent/errors"
	"github.com/sweetpotato0/transagent/pkg/logging"
	"github.com/sweetpotato0/transagent/transaction"
)

var (
	listAllPhrases = []string{
		"toutes les transactions",
		"all transactions",
		"liste des transactions",
		"list transactions",
		"afficher toutes les transactions",
	}

	updatePattern  = regexp.MustCompile(`(?i)(?:mettre à jour|update|changer|change)\s+(?:le statut|status)\s+(?:de|of)?\s+(?:la transaction|transaction)?\s*(\d+)\s+(?:à|to|en)\s+(PENDING|EXECUTED|CANCELED|CANCELLED)`)
	createPattern  = regexp.MustCompile(`(?i)(?:créer|create|ajouter|add)\s+(?:une|a)?\s*(?:transaction|nouvelle transaction)\s+(?:pour|for)?\s*(?:compte|account)?\s*(\d+)\s+(?:montant|amount)?\s*(\d+(?:\.\d+)?)\s+(?:type)?\s+(DEBIT|CREDIT)`)
	deletePattern  = regexp.MustCompile(`(?i)(?:supprimer|delete|remove)\s+(?:la transaction|transaction)?\s*(?:numéro|number|id)?\s*(?:de|of)?\s*(\d+)`)
	balancePattern = regexp.MustCompile(`(?i)(?:solde|balance)\s+(?:du|de|of)?\s*(?:compte|account)?\s*(?:numéro|number|id)?\s*(?:de|of)?\s*(\d+)`)
	statusPattern  = regexp.MustCompile(`(?i)(?:transactions|transaction)\s+(?:avec|with|en|in)?\s+(?:le statut|status)?\s+(PENDING|EXECUTED|CANCELED|CANCELLED)`)
	byIDPattern    = regexp.MustCompile(`(?i)(?:transaction|la transaction)\s+(?:numéro|number|id)?\s*(?:de|of)?\s*(\d+)`)
	accountPattern = regexp.MustCompile(`(?i)(?:compte|account|id)\s*(?:numéro|number|id)?\s*(?:de|of)?\s*(\d+)`)
)

// Invoker dispatches recognized intents to the transaction store
type Invoker struct {
	store  transaction.Store
	logger *slog.Logger
}

// New creates a tool invoker over a transaction store
func New(store transaction.Store) *Invoker {
	return &Invoker{
		store:  store,
		logger: logging.WithComponent("tooluse"),
	}
}

// Execute matches the question against the intent patterns and runs the
// first match. When no intent applies it returns ErrNoToolMatched; the
// caller must treat that as "no tool", not as a failure. Store failures
// are rendered as user-facing French error strings.
func (inv *Invoker) Execute(ctx context.Context, question string) (string, error) {
	if inv.store == nil {
		return "", errors.ErrNoToolMatched
	}

	lower := strings.ToLower(question)
	for _, phrase := range listAllPhrases {
		if strings.Contains(lower, phrase) {
			return inv.listAll(ctx), nil
		}
	}

	if m := updatePattern.FindStringSubmatch(question); m != nil {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return inv.updateStatus(ctx, id, m[2]), nil
		}
	}

	if m := createPattern.FindStringSubmatch(question); m != nil {
		accountID, errA := strconv.ParseInt(m[1], 10, 64)
		amount, errB := strconv.ParseFloat(m[2], 64)
		if errA == nil && errB == nil {
			return inv.create(ctx, accountID, amount, m[3]), nil
		}
	}

	if m := deletePattern.FindStringSubmatch(question); m != nil {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return inv.delete(ctx, id), nil
		}
	}

	if m := balancePattern.FindStringSubmatch(question); m != nil {
		if accountID, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return inv.balance(ctx, accountID), nil
		}
	}

	if m := statusPattern.FindStringSubmatch(question); m != nil {
		status, err := transaction.ParseStatus(strings.ToUpper(m[1]))
		if err == nil {
			return inv.listByStatus(ctx, status), nil
		}
	}

	if m := byIDPattern.FindStringSubmatch(question); m != nil {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return inv.getByID(ctx, id), nil
		}
	}

	if m := accountPattern.FindStringSubmatch(question); m != nil {
		if accountID, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return inv.listByAccount(ctx, accountID), nil
		}
	}

	inv.logger.Debug("no tool pattern matched", "question", question)
	return "", errors.ErrNoToolMatched
}

func (inv *Invoker) listAll(ctx context.Context) string {
	transactions, err := inv.store.List(ctx)
	if err != nil {
		inv.logger.Error("failed to list transactions", "error", err)
		return "Erreur lors de la récupération: " + err.Error()
	}
	if len(transactions) == 0 {
		return "Aucune transaction trouvée."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Voici toutes les transactions (%d):\n\n", len(transactions))
	for _, tx := range transactions {
		b.WriteString(formatTransaction(tx))
		b.WriteByte('\n')
	}
	return b.String()
}

func (inv *Invoker) listByAccount(ctx context.Context, accountID int64) string {
	transactions, err := inv.store.FindByAccount(ctx, accountID)
	if err != nil {
		inv.logger.Error("failed to list transactions by account", "account_id", accountID, "error", err)
		return "Erreur lors de la récupération: " + err.Error()
	}
	if len(transactions) == 0 {
		return fmt.Sprintf("Aucune transaction trouvée pour le compte %d.", accountID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Voici les transactions du compte %d (%d):\n\n", accountID, len(transactions))
	for _, tx := range transactions {
		b.WriteString(formatTransaction(tx))
		b.WriteByte('\n')
	}
	return b.String()
}

func (inv *Invoker) balance(ctx context.Context, accountID int64) string {
	balance, err := inv.store.Balance(ctx, accountID)
	if err != nil {
		inv.logger.Error("failed to compute balance", "account_id", accountID, "error", err)
		return "Erreur lors du calcul du solde: " + err.Error()
	}
	return fmt.Sprintf("Le solde du compte %d est de %.2f", accountID, balance)
}

func (inv *Invoker) listByStatus(ctx context.Context, status transaction.Status) string {
	transactions, err := inv.store.FindByStatus(ctx, status)
	if err != nil {
		inv.logger.Error("failed to list transactions by status", "status", status, "error", err)
		return "Erreur lors de la récupération: " + err.Error()
	}
	if len(transactions) == 0 {
		return fmt.Sprintf("Aucune transaction trouvée avec le statut %s.", status)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Voici les transactions avec le statut %s (%d):\n\n", status, len(transactions))
	for _, tx := range transactions {
		b.WriteString(formatTransaction(tx))
		b.WriteByte('\n')
	}
	return b.String()
}

func (inv *Invoker) getByID(ctx context.Context, id int64) string {
	tx, err := inv.store.Get(ctx, id)
	if err != nil {
		inv.logger.Error("failed to get transaction", "id", id, "error", err)
		return "Erreur: " + err.Error()
	}
	return "Détails de la transaction:\n" + formatTransaction(tx)
}

func (inv *Invoker) updateStatus(ctx context.Context, id int64, rawStatus string) string {
	status, err := transaction.ParseStatus(strings.ToUpper(rawStatus))
	if err != nil {
		return "Erreur lors de la mise à jour: " + err.Error()
	}
	tx, err := inv.store.UpdateStatus(ctx, id, status)
	if err != nil {
		inv.logger.Error("failed to update transaction status", "id", id, "error", err)
		return "Erreur lors de la mise à jour: " + err.Error()
	}
	return fmt.Sprintf("Transaction %d mise à jour avec succès. Nouveau statut: %s\nDétails: %s",
		id, status, formatTransaction(tx))
}

func (inv *Invoker) create(ctx context.Context, accountID int64, amount float64, rawType string) string {
	typ, err := transaction.ParseType(strings.ToUpper(rawType))
	if err != nil {
		return "Erreur lors de la création: " + err.Error()
	}
	tx, err := inv.store.Create(ctx, &transaction.Transaction{
		AccountID: accountID,
		Amount:    amount,
		Type:      typ,
		Status:    transaction.StatusPending,
	})
	if err != nil {
		inv.logger.Error("failed to create transaction", "account_id", accountID, "error", err)
		return "Erreur lors de la création: " + err.Error()
	}
	return "Transaction créée avec succès:\n" + formatTransaction(tx)
}

func (inv *Invoker) delete(ctx context.Context, id int64) string {
	if err := inv.store.Delete(ctx, id); err != nil {
		inv.logger.Error("failed to delete transaction", "id", id, "error", err)
		return fmt.Sprintf("Transaction non trouvée avec l'ID: %d", id)
	}
	return fmt.Sprintf("Transaction %d supprimée avec succès", id)
}

func formatTransaction(t *transaction.Transaction) string {
	return fmt.Sprintf("ID: %d | Compte: %d | Montant: %.2f | Type: %s | Statut: %s | Date: %s",
		t.ID, t.AccountID, t.Amount, t.Type, t.Status, t.Date.Format("2006-01-02 15:04:05"))
}
