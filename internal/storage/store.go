// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/huddleup/huddle/internal/models"
)

// ErrNotFound is returned by lookups that match no row. Callers translate it
// into their own domain errors.
var ErrNotFound = errors.New("not found")

// Store defines the persistence operations the engine and transport layers
// need. The abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without touching the engine.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Groups. CreateGroup persists the group and its initial members in one
	// transaction. DeleteGroup cascades to members, expenses, and polls.
	CreateGroup(ctx context.Context, group *models.Group, members []models.Member) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListGroupsByOwner(ctx context.Context, ownerID string) ([]*models.Group, error)
	DeleteGroup(ctx context.Context, groupID string) error

	// Members.
	AddMember(ctx context.Context, groupID string, member models.Member) error
	RemoveMember(ctx context.Context, groupID, memberID string) error
	GetMember(ctx context.Context, groupID, memberID string) (*models.Member, error)
	ListMembers(ctx context.Context, groupID string) ([]models.Member, error)
	CountMembers(ctx context.Context, groupID string) (int, error)

	// Expenses. CreateExpense writes the entry and its shares atomically.
	CreateExpense(ctx context.Context, entry *models.ExpenseEntry) error
	GetExpense(ctx context.Context, groupID, entryID string) (*models.ExpenseEntry, error)
	ListExpenses(ctx context.Context, groupID string) ([]*models.ExpenseEntry, error)
	SetExpenseVoid(ctx context.Context, groupID, entryID string) error
	SetExpenseSettled(ctx context.Context, groupID, entryID string, settled bool) error

	// Polls and votes. UpsertVote replaces a member's earlier vote on the
	// same poll, if any.
	CreatePoll(ctx context.Context, poll *models.Poll) error
	GetPoll(ctx context.Context, pollID string) (*models.Poll, error)
	ListPolls(ctx context.Context, groupID string) ([]*models.Poll, error)
	SetPollStatus(ctx context.Context, pollID string, status models.PollStatus) error
	ListOpenPollsPastDeadline(ctx context.Context, now int64) ([]*models.Poll, error)
	UpsertVote(ctx context.Context, vote models.Vote) error
	ListVotes(ctx context.Context, pollID string) ([]models.Vote, error)
	CountVotes(ctx context.Context, pollID string) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
