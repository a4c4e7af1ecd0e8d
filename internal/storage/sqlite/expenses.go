package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/huddleup/huddle/internal/models"
	"github.com/huddleup/huddle/internal/storage"
)

// CreateExpense persists an expense entry and its shares in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, entry *models.ExpenseEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, payer_id, description, amount, settled, void, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.GroupID, entry.PayerID, entry.Description, entry.Amount,
		entry.Settled, entry.Void, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, participant := range entry.Participants {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, member_id, share, position) VALUES (?, ?, ?, ?)",
			entry.ID, participant, entry.Shares[i], i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert share: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves one expense entry with its shares.
func (s *SQLiteStore) GetExpense(ctx context.Context, groupID, entryID string) (*models.ExpenseEntry, error) {
	entry := &models.ExpenseEntry{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, payer_id, description, amount, settled, void, created_at
		 FROM expenses WHERE id = ? AND group_id = ?`,
		entryID, groupID,
	).Scan(&entry.ID, &entry.GroupID, &entry.PayerID, &entry.Description, &entry.Amount,
		&entry.Settled, &entry.Void, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := s.loadShares(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *SQLiteStore) loadShares(ctx context.Context, entry *models.ExpenseEntry) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT member_id, share FROM expense_shares WHERE expense_id = ? ORDER BY position",
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var memberID string
		var share int64
		if err := rows.Scan(&memberID, &share); err != nil {
			return fmt.Errorf("failed to scan share: %w", err)
		}
		entry.Participants = append(entry.Participants, memberID)
		entry.Shares = append(entry.Shares, share)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate shares: %w", err)
	}
	return nil
}

// ListExpenses retrieves every expense entry of a group, voided ones
// included, newest first.
func (s *SQLiteStore) ListExpenses(ctx context.Context, groupID string) ([]*models.ExpenseEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, payer_id, description, amount, settled, void, created_at
		 FROM expenses WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var entries []*models.ExpenseEntry
	for rows.Next() {
		entry := &models.ExpenseEntry{}
		if err := rows.Scan(&entry.ID, &entry.GroupID, &entry.PayerID, &entry.Description,
			&entry.Amount, &entry.Settled, &entry.Void, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, entry := range entries {
		if err := s.loadShares(ctx, entry); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// SetExpenseVoid marks an entry void.
func (s *SQLiteStore) SetExpenseVoid(ctx context.Context, groupID, entryID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET void = 1 WHERE id = ? AND group_id = ?",
		entryID, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to void expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SetExpenseSettled toggles the display-only settled flag.
func (s *SQLiteStore) SetExpenseSettled(ctx context.Context, groupID, entryID string, settled bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET settled = ? WHERE id = ? AND group_id = ?",
		settled, entryID, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
