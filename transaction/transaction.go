// Package transaction defines the ledger domain records and the store
// contract the tool layer dispatches to.
package transaction

import (
	"context"
	"fmt"
	"time"
)

// Type is the direction of a ledger movement
type Type string

const (
	TypeDebit  Type = "DEBIT"
	TypeCredit Type = "CREDIT"
)

// Status is the lifecycle state of a transaction
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusExecuted Status = "EXECUTED"
	StatusCanceled Status = "CANCELED"
)

// ParseStatus normalizes a raw status string. "CANCELLED" is accepted as
// an alias for CANCELED.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusExecuted, StatusCanceled:
		return Status(s), nil
	case "CANCELLED":
		return StatusCanceled, nil
	}
	return "", fmt.Errorf("unknown transaction status: %q", s)
}

// ParseType normalizes a raw type string
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeDebit, TypeCredit:
		return Type(s), nil
	}
	return "", fmt.Errorf("unknown transaction type: %q", s)
}

// Transaction is one ledger record
type Transaction struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	AccountID int64     `json:"accountId"`
	Amount    float64   `json:"amount"`
	Type      Type      `json:"type"`
	Status    Status    `json:"status"`
}

// Store persists transactions. Implementations must be safe for
// concurrent use; lookups on missing IDs return errors.ErrNotFound.
type Store interface {
	// Create inserts a transaction and returns it with its assigned ID.
	Create(ctx context.Context, tx *Transaction) (*Transaction, error)

	// Get returns the transaction with the given ID.
	Get(ctx context.Context, id int64) (*Transaction, error)

	// UpdateStatus changes the status of an existing transaction and
	// returns the updated record.
	UpdateStatus(ctx context.Context, id int64, status Status) (*Transaction, error)

	// Delete removes a transaction.
	Delete(ctx context.Context, id int64) error

	// List returns all transactions in insertion order.
	List(ctx context.Context) ([]*Transaction, error)

	// FindByAccount returns all transactions for an account.
	FindByAccount(ctx context.Context, accountID int64) ([]*Transaction, error)

	// FindByStatus returns all transactions with the given status.
	FindByStatus(ctx context.Context, status Status) ([]*Transaction, error)

	// Balance returns the sum of credits minus the sum of debits for an
	// account. An account with no transactions has balance 0.
	Balance(ctx context.Context, accountID int64) (float64, error)
}
