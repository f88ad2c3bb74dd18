package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/spendwise/internal/model"
)

const goalColumns = `id, user_id, title, target_amount, current_amount, target_date,
	category, priority, status, created_at`

// SaveGoal upserts a savings goal. It fails with ErrConflict when the ID is
// already used by another user's goal.
func (s *Store) SaveGoal(ctx context.Context, g model.Goal) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("goal %q: %w", g.ID, err)
	}
	return saveGoal(ctx, s.db, g)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveGoal(ctx context.Context, db execer, g model.Goal) error {
	var target sql.NullString
	if g.TargetDate != nil {
		target = sql.NullString{String: g.TargetDate.UTC().Format(dateLayout), Valid: true}
	}
	created := g.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	res, err := db.ExecContext(ctx, `INSERT INTO goals (`+goalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			target_amount = excluded.target_amount,
			current_amount = excluded.current_amount,
			target_date = excluded.target_date,
			category = excluded.category,
			priority = excluded.priority,
			status = excluded.status
		WHERE goals.user_id = excluded.user_id`,
		g.ID, g.UserID, g.Title, g.TargetAmount.String(), g.CurrentAmount.String(), target,
		g.Category, string(g.Priority), string(g.Status), created.UTC().Format(dateLayout),
	)
	return ownedWrite(res, err, "goal", g.ID)
}

// ListGoals returns userID's goals, newest first.
func (s *Store) ListGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetGoal looks up one of userID's goals by ID.
func (s *Store) GetGoal(ctx context.Context, userID, id string) (model.Goal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? AND id = ?`, userID, id)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Goal{}, fmt.Errorf("goal %q: %w", id, ErrNotFound)
	}
	return g, err
}

// ContributeGoal adds amount to one of userID's goals and returns the
// updated goal. Reaching the target marks the goal completed.
func (s *Store) ContributeGoal(ctx context.Context, userID, id string, amount decimal.Decimal) (model.Goal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Goal{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? AND id = ?`, userID, id)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Goal{}, fmt.Errorf("goal %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Goal{}, err
	}

	if err := g.Contribute(amount); err != nil {
		return model.Goal{}, err
	}
	if err := saveGoal(ctx, tx, g); err != nil {
		return model.Goal{}, err
	}
	return g, tx.Commit()
}

// DeleteGoal removes one of userID's goals by ID.
func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	return s.deleteByID(ctx, "goals", "goal", userID, id)
}

func scanGoal(row scanner) (model.Goal, error) {
	var g model.Goal
	var target, current, priority, status, created string
	var due sql.NullString

	err := row.Scan(&g.ID, &g.UserID, &g.Title, &target, &current, &due,
		&g.Category, &priority, &status, &created)
	if err != nil {
		return g, err
	}

	if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return g, fmt.Errorf("goal %q target_amount: %w", g.ID, err)
	}
	if g.CurrentAmount, err = decimal.NewFromString(current); err != nil {
		return g, fmt.Errorf("goal %q current_amount: %w", g.ID, err)
	}
	if due.Valid && due.String != "" {
		d, err := time.Parse(dateLayout, due.String)
		if err != nil {
			return g, fmt.Errorf("goal %q target_date: %w", g.ID, err)
		}
		g.TargetDate = &d
	}
	if g.CreatedAt, err = time.Parse(dateLayout, created); err != nil {
		return g, fmt.Errorf("goal %q created_at: %w", g.ID, err)
	}
	g.Priority = model.Priority(priority)
	g.Status = model.GoalStatus(status)
	return g, nil
}
