package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/huddleup/huddle/internal/models"
	"github.com/huddleup/huddle/internal/storage"
)

// CreatePoll persists a poll and its options in one transaction.
func (s *SQLiteStore) CreatePoll(ctx context.Context, poll *models.Poll) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO polls (id, group_id, question, deadline, status, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		poll.ID, poll.GroupID, poll.Question, poll.Deadline, string(poll.Status), poll.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert poll: %w", err)
	}

	for i, opt := range poll.Options {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO poll_options (id, poll_id, label, position) VALUES (?, ?, ?, ?)",
			opt.ID, poll.ID, opt.Text, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert option: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPoll retrieves a poll with its ordered options.
func (s *SQLiteStore) GetPoll(ctx context.Context, pollID string) (*models.Poll, error) {
	poll := &models.Poll{}
	var status string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, group_id, question, deadline, status, created_at FROM polls WHERE id = ?",
		pollID,
	).Scan(&poll.ID, &poll.GroupID, &poll.Question, &poll.Deadline, &status, &poll.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	poll.Status = models.PollStatus(status)

	if err := s.loadOptions(ctx, poll); err != nil {
		return nil, err
	}
	return poll, nil
}

func (s *SQLiteStore) loadOptions(ctx context.Context, poll *models.Poll) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, label FROM poll_options WHERE poll_id = ? ORDER BY position",
		poll.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var opt models.PollOption
		if err := rows.Scan(&opt.ID, &opt.Text); err != nil {
			return fmt.Errorf("failed to scan option: %w", err)
		}
		poll.Options = append(poll.Options, opt)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate options: %w", err)
	}
	return nil
}

// ListPolls retrieves every poll of a group, newest first.
func (s *SQLiteStore) ListPolls(ctx context.Context, groupID string) ([]*models.Poll, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, group_id, question, deadline, status, created_at FROM polls WHERE group_id = ? ORDER BY created_at DESC, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	polls, err := scanPolls(rows)
	if err != nil {
		return nil, err
	}
	for _, poll := range polls {
		if err := s.loadOptions(ctx, poll); err != nil {
			return nil, err
		}
	}
	return polls, nil
}

// ListOpenPollsPastDeadline retrieves open polls whose deadline is at or
// before now. Used by the background deadline sweep.
func (s *SQLiteStore) ListOpenPollsPastDeadline(ctx context.Context, now int64) ([]*models.Poll, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, question, deadline, status, created_at
		 FROM polls WHERE status = ? AND deadline > 0 AND deadline <= ?`,
		string(models.PollOpen), now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired polls: %w", err)
	}
	defer rows.Close()

	return scanPolls(rows)
}

func scanPolls(rows *sql.Rows) ([]*models.Poll, error) {
	var polls []*models.Poll
	for rows.Next() {
		poll := &models.Poll{}
		var status string
		if err := rows.Scan(&poll.ID, &poll.GroupID, &poll.Question, &poll.Deadline, &status, &poll.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		poll.Status = models.PollStatus(status)
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate polls: %w", err)
	}
	return polls, nil
}

// SetPollStatus updates a poll's lifecycle state.
func (s *SQLiteStore) SetPollStatus(ctx context.Context, pollID string, status models.PollStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE polls SET status = ? WHERE id = ?",
		string(status), pollID,
	)
	if err != nil {
		return fmt.Errorf("failed to update poll status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpsertVote inserts a member's vote, replacing any earlier vote by the same
// member on the same poll.
func (s *SQLiteStore) UpsertVote(ctx context.Context, vote models.Vote) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO votes (poll_id, member_id, option_id, cast_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(poll_id, member_id) DO UPDATE SET option_id = excluded.option_id, cast_at = excluded.cast_at`,
		vote.PollID, vote.MemberID, vote.OptionID, vote.CastAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert vote: %w", err)
	}
	return nil
}

// ListVotes retrieves all current votes on a poll in a stable order.
func (s *SQLiteStore) ListVotes(ctx context.Context, pollID string) ([]models.Vote, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT poll_id, member_id, option_id, cast_at FROM votes WHERE poll_id = ? ORDER BY member_id",
		pollID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	var votes []models.Vote
	for rows.Next() {
		var v models.Vote
		if err := rows.Scan(&v.PollID, &v.MemberID, &v.OptionID, &v.CastAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate votes: %w", err)
	}
	return votes, nil
}

// CountVotes returns the number of distinct members with a vote on the poll.
func (s *SQLiteStore) CountVotes(ctx context.Context, pollID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM votes WHERE poll_id = ?", pollID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return n, nil
}
