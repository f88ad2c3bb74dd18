// Package store persists transactions, budgets, savings goals and import
// state in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/spendwise/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

var (
	// ErrNotFound is returned when a lookup by ID matches nothing the user owns.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when an ID is already owned by another user.
	ErrConflict = errors.New("id belongs to another user")
)

const dateLayout = time.RFC3339

// Store is a SQLite-backed repository. Safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at dbPath and applies migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	if err := Migrate(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveTransactions upserts txns in a single transaction. Every record is
// validated first; one invalid record aborts the whole batch. Rows are keyed
// by owner and ID, so users never overwrite each other's transactions.
func (s *Store) SaveTransactions(ctx context.Context, txns []model.Transaction) error {
	if err := validateAll(txns); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := upsertTransactions(ctx, tx, txns, ""); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceFileTransactions makes txns the complete set of userID's
// transactions imported from path. Rows the file no longer contains are
// removed; rows saved by hand or from other files are untouched.
func (s *Store) ReplaceFileTransactions(ctx context.Context, userID, path string, txns []model.Transaction) error {
	if err := validateAll(txns); err != nil {
		return err
	}
	for _, t := range txns {
		if t.UserID != userID {
			return fmt.Errorf("transaction %q belongs to %q, not %q", t.ID, t.UserID, userID)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM transactions WHERE user_id = ? AND source_file = ?", userID, path); err != nil {
		return fmt.Errorf("clearing %s: %w", path, err)
	}
	if err := upsertTransactions(ctx, tx, txns, path); err != nil {
		return err
	}
	return tx.Commit()
}

func validateAll(txns []model.Transaction) error {
	for _, t := range txns {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transaction %q: %w", t.ID, err)
		}
	}
	return nil
}

// upsertTransactions writes txns inside tx. An empty source keeps the
// source file of an existing row.
func upsertTransactions(ctx context.Context, tx *sql.Tx, txns []model.Transaction, source string) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transactions
		(id, user_id, title, amount, type, category, date, notes, tags,
		 is_recurring, recurring_frequency, source_file, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
			title = excluded.title,
			amount = excluded.amount,
			type = excluded.type,
			category = excluded.category,
			date = excluded.date,
			notes = excluded.notes,
			tags = excluded.tags,
			is_recurring = excluded.is_recurring,
			recurring_frequency = excluded.recurring_frequency,
			source_file = COALESCE(NULLIF(excluded.source_file, ''), transactions.source_file)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC().Format(dateLayout)
	for _, t := range txns {
		tags, err := json.Marshal(nonNil(t.Tags))
		if err != nil {
			return err
		}
		recurring := 0
		if t.Recurring {
			recurring = 1
		}
		_, err = stmt.ExecContext(ctx,
			t.ID, t.UserID, t.Title, t.Amount.String(), string(t.Type), t.Category,
			t.Date.UTC().Format(dateLayout), t.Notes, string(tags),
			recurring, string(t.RecurringFrequency), source, now,
		)
		if err != nil {
			return fmt.Errorf("saving transaction %q: %w", t.ID, err)
		}
	}
	return nil
}

const transactionColumns = `id, user_id, title, amount, type, category, date,
	notes, tags, is_recurring, recurring_frequency`

// ListTransactions returns all transactions for userID ordered by date.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY date, id`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTransaction looks up one of userID's transactions by ID.
func (s *Store) GetTransaction(ctx context.Context, userID, id string) (model.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, fmt.Errorf("transaction %q: %w", id, ErrNotFound)
	}
	return t, err
}

// DeleteTransaction removes one of userID's transactions by ID.
func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.deleteByID(ctx, "transactions", "transaction", userID, id)
}

// TransactionCount returns the number of stored transactions for userID.
func (s *Store) TransactionCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions WHERE user_id = ?", userID).Scan(&count)
	return count, err
}

// SaveBudget upserts a budget. It fails with ErrConflict when the ID is
// already used by another user's budget.
func (s *Store) SaveBudget(ctx context.Context, b model.Budget) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("budget %q: %w", b.ID, err)
	}

	var end sql.NullString
	if b.EndDate != nil {
		end = sql.NullString{String: b.EndDate.UTC().Format(dateLayout), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO budgets
		(id, user_id, category, amount, period, start_date, end_date, alert_threshold)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			amount = excluded.amount,
			period = excluded.period,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			alert_threshold = excluded.alert_threshold
		WHERE budgets.user_id = excluded.user_id`,
		b.ID, b.UserID, b.Category, b.Amount.String(), string(b.Period),
		b.StartDate.UTC().Format(dateLayout), end, b.AlertThreshold,
	)
	return ownedWrite(res, err, "budget", b.ID)
}

// ListBudgets returns all budgets for userID ordered by category.
func (s *Store) ListBudgets(ctx context.Context, userID string) ([]model.Budget, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, user_id, category, amount, period, start_date, end_date, alert_threshold
		FROM budgets WHERE user_id = ? ORDER BY category, id`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Budget
	for rows.Next() {
		var b model.Budget
		var amount, period, start string
		var end sql.NullString
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &amount, &period, &start, &end, &b.AlertThreshold); err != nil {
			return nil, err
		}
		if b.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("budget %q amount: %w", b.ID, err)
		}
		b.Period = model.Period(period)
		if b.StartDate, err = time.Parse(dateLayout, start); err != nil {
			return nil, fmt.Errorf("budget %q start_date: %w", b.ID, err)
		}
		if end.Valid && end.String != "" {
			e, err := time.Parse(dateLayout, end.String)
			if err != nil {
				return nil, fmt.Errorf("budget %q end_date: %w", b.ID, err)
			}
			b.EndDate = &e
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// DeleteBudget removes one of userID's budgets by ID.
func (s *Store) DeleteBudget(ctx context.Context, userID, id string) error {
	return s.deleteByID(ctx, "budgets", "budget", userID, id)
}

// ownedWrite maps an owner-guarded upsert that touched no row to ErrConflict.
func ownedWrite(res sql.Result, err error, kind, id string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, ErrConflict)
	}
	return nil
}

func (s *Store) deleteByID(ctx context.Context, table, kind, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = ? AND id = ?", userID, id) //nolint:gosec // table is a constant
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (model.Transaction, error) {
	var t model.Transaction
	var amount, typ, date, tags, freq string
	var recurring int

	err := row.Scan(&t.ID, &t.UserID, &t.Title, &amount, &typ, &t.Category, &date,
		&t.Notes, &tags, &recurring, &freq)
	if err != nil {
		return t, err
	}

	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return t, fmt.Errorf("transaction %q amount: %w", t.ID, err)
	}
	if t.Date, err = time.Parse(dateLayout, date); err != nil {
		return t, fmt.Errorf("transaction %q date: %w", t.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return t, fmt.Errorf("transaction %q tags: %w", t.ID, err)
	}
	if len(t.Tags) == 0 {
		t.Tags = nil
	}
	t.Type = model.TransactionType(typ)
	t.Recurring = recurring != 0
	t.RecurringFrequency = model.Frequency(freq)
	return t, nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
