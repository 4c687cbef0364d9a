package inmemory

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/sweetpotato0/transagent/errors"
	"github.com/sweetpotato0/transagent/transaction"
)

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := New()

	created, err := store.Create(ctx, &transaction.Transaction{
		AccountID: 42,
		Amount:    100.0,
		Type:      transaction.TypeCredit,
		Status:    transaction.StatusPending,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected assigned ID")
	}
	if created.Date.IsZero() {
		t.Error("expected assigned date")
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.AccountID != 42 || got.Amount != 100.0 {
		t.Errorf("unexpected transaction: %+v", got)
	}
}

func TestGetNotFound(t *testing.T) {
	store := New()
	_, err := store.Get(context.Background(), 999)
	if !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	store := New()

	created, _ := store.Create(ctx, &transaction.Transaction{
		AccountID: 1,
		Amount:    50,
		Type:      transaction.TypeDebit,
		Status:    transaction.StatusPending,
	})

	updated, err := store.UpdateStatus(ctx, created.ID, transaction.StatusExecuted)
	if err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if updated.Status != transaction.StatusExecuted {
		t.Errorf("expected EXECUTED, got %s", updated.Status)
	}

	if _, err := store.UpdateStatus(ctx, 999, transaction.StatusCanceled); !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := New()

	created, _ := store.Create(ctx, &transaction.Transaction{AccountID: 1, Amount: 10, Type: transaction.TypeCredit, Status: transaction.StatusPending})
	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, created.ID); !stderrors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestFindByAccountAndStatus(t *testing.T) {
	ctx := context.Background()
	store := New()

	store.Create(ctx, &transaction.Transaction{AccountID: 1, Amount: 10, Type: transaction.TypeCredit, Status: transaction.StatusPending})
	store.Create(ctx, &transaction.Transaction{AccountID: 2, Amount: 20, Type: transaction.TypeDebit, Status: transaction.StatusExecuted})
	store.Create(ctx, &transaction.Transaction{AccountID: 1, Amount: 30, Type: transaction.TypeDebit, Status: transaction.StatusExecuted})

	byAccount, err := store.FindByAccount(ctx, 1)
	if err != nil {
		t.Fatalf("FindByAccount failed: %v", err)
	}
	if len(byAccount) != 2 {
		t.Errorf("expected 2 transactions for account 1, got %d", len(byAccount))
	}

	byStatus, err := store.FindByStatus(ctx, transaction.StatusExecuted)
	if err != nil {
		t.Fatalf("FindByStatus failed: %v", err)
	}
	if len(byStatus) != 2 {
		t.Errorf("expected 2 executed transactions, got %d", len(byStatus))
	}
}

func TestBalance(t *testing.T) {
	ctx := context.Background()
	store := New()

	store.Create(ctx, &transaction.Transaction{AccountID: 42, Amount: 200, Type: transaction.TypeCredit, Status: transaction.StatusExecuted})
	store.Create(ctx, &transaction.Transaction{AccountID: 42, Amount: 50, Type: transaction.TypeDebit, Status: transaction.StatusExecuted})
	store.Create(ctx, &transaction.Transaction{AccountID: 7, Amount: 1000, Type: transaction.TypeCredit, Status: transaction.StatusExecuted})

	balance, err := store.Balance(ctx, 42)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if balance != 150.0 {
		t.Errorf("expected balance 150.0, got %v", balance)
	}

	empty, err := store.Balance(ctx, 999)
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if empty != 0 {
		t.Errorf("expected zero balance for unknown account, got %v", empty)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    transaction.Status
		wantErr bool
	}{
		{"PENDING", transaction.StatusPending, false},
		{"EXECUTED", transaction.StatusExecuted, false},
		{"CANCELED", transaction.StatusCanceled, false},
		{"CANCELLED", transaction.StatusCanceled, false},
		{"UNKNOWN", "", true},
	}
	for _, tt := range tests {
		got, err := transaction.ParseStatus(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
