// Package pg provides a PostgreSQL-backed transaction store.
package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sweetpotato0/transagent/errors"
	"github.com/sweetpotato0/transagent/transaction"
)

// Store implements transaction.Store on PostgreSQL
type Store struct {
	db *sql.DB
}

// Config holds PostgreSQL configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultConfig returns default PostgreSQL configuration
func DefaultConfig() *Config {
	return &Config{
		Host:    "127.0.0.1",
		Port:    5432,
		User:    "postgres",
		DBName:  "transagent",
		SSLMode: "disable",
	}
}

// New opens a connection and ensures the transactions table exists
func New(config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	store := &Store{db: db}
	if err := store.setup(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to setup transactions table: %w", err)
	}
	return store, nil
}

func (s *Store) setup(ctx context.Context) error {
	const createTableSQL = `
	CREATE TABLE IF NOT EXISTS transactions (
		id BIGSERIAL PRIMARY KEY,
		date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		account_id BIGINT NOT NULL,
		amount DOUBLE PRECISION NOT NULL,
		type VARCHAR(16) NOT NULL,
		status VARCHAR(16) NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Create implements transaction.Store interface
func (s *Store) Create(ctx context.Context, tx *transaction.Transaction) (*transaction.Transaction, error) {
	if tx == nil {
		return nil, errors.ErrInvalidInput
	}

	date := tx.Date
	if date.IsZero() {
		date = time.Now()
	}

	const query = `
	INSERT INTO transactions (date, account_id, amount, type, status)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id`

	clone := *tx
	clone.Date = date
	err := s.db.QueryRowContext(ctx, query, date, tx.AccountID, tx.Amount, string(tx.Type), string(tx.Status)).Scan(&clone.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return &clone, nil
}

// Get implements transaction.Store interface
func (s *Store) Get(ctx context.Context, id int64) (*transaction.Transaction, error) {
	const query = `SELECT id, date, account_id, amount, type, status FROM transactions WHERE id = $1`
	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// UpdateStatus implements transaction.Store interface
func (s *Store) UpdateStatus(ctx context.Context, id int64, status transaction.Status) (*transaction.Transaction, error) {
	const query = `
	UPDATE transactions SET status = $2 WHERE id = $1
	RETURNING id, date, account_id, amount, type, status`
	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, id, string(status)))
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction status: %w", err)
	}
	return tx, nil
}

// Delete implements transaction.Store interface
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return errors.ErrNotFound
	}
	return nil
}

// List implements transaction.Store interface
func (s *Store) List(ctx context.Context) ([]*transaction.Transaction, error) {
	const query = `SELECT id, date, account_id, amount, type, status FROM transactions ORDER BY id`
	return s.queryTransactions(ctx, query)
}

// FindByAccount implements transaction.Store interface
func (s *Store) FindByAccount(ctx context.Context, accountID int64) ([]*transaction.Transaction, error) {
	const query = `SELECT id, date, account_id, amount, type, status FROM transactions WHERE account_id = $1 ORDER BY id`
	return s.queryTransactions(ctx, query, accountID)
}

// FindByStatus implements transaction.Store interface
func (s *Store) FindByStatus(ctx context.Context, status transaction.Status) ([]*transaction.Transaction, error) {
	const query = `SELECT id, date, account_id, amount, type, status FROM transactions WHERE status = $1 ORDER BY id`
	return s.queryTransactions(ctx, query, string(status))
}

// Balance implements transaction.Store interface
func (s *Store) Balance(ctx context.Context, accountID int64) (float64, error) {
	const query = `
	SELECT COALESCE(SUM(CASE WHEN type = 'CREDIT' THEN amount ELSE -amount END), 0)
	FROM transactions WHERE account_id = $1`
	var balance float64
	if err := s.db.QueryRowContext(ctx, query, accountID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to compute balance: %w", err)
	}
	return balance, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]*transaction.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	out := make([]*transaction.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*transaction.Transaction, error) {
	var tx transaction.Transaction
	var typ, status string
	if err := row.Scan(&tx.ID, &tx.Date, &tx.AccountID, &tx.Amount, &typ, &status); err != nil {
		return nil, err
	}
	tx.Type = transaction.Type(typ)
	tx.Status = transaction.Status(status)
	return &tx, nil
}
