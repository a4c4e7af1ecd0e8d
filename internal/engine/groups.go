package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/huddleup/huddle/internal/models"
	"github.com/huddleup/huddle/internal/storage"
)

// CreateGroup creates a group owned by ownerID with the given initial
// members. Member IDs are caller-supplied (so external systems can use their
// own identifiers); a member with an empty ID gets its handle as ID. Quorum
// 0 selects models.DefaultQuorum.
func (e *Engine) CreateGroup(ctx context.Context, ownerID, name, description string, members []models.Member, quorum float64) (*models.Group, []models.Member, error) {
	if quorum == 0 {
		quorum = models.DefaultQuorum
	}
	if quorum < 0 || quorum > 1 {
		return nil, nil, ErrInvalidQuorum
	}

	seen := make(map[string]bool, len(members))
	for i := range members {
		if members[i].ID == "" {
			members[i].ID = members[i].Handle
		}
		if members[i].Handle == "" {
			members[i].Handle = members[i].ID
		}
		if seen[members[i].ID] {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateMember, members[i].ID)
		}
		seen[members[i].ID] = true
	}

	group := &models.Group{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		Quorum:      quorum,
		CreatedAt:   e.now().Unix(),
	}

	if err := e.store.CreateGroup(ctx, group, members); err != nil {
		return nil, nil, fmt.Errorf("create group: %w", err)
	}

	slog.Info("group created", "group_id", group.ID, "members", len(members))
	return group, members, nil
}

// GetGroup retrieves a group and its members.
func (e *Engine) GetGroup(ctx context.Context, groupID string) (*models.Group, []models.Member, error) {
	group, err := e.store.GetGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrGroupNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	members, err := e.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	return group, members, nil
}

// ListGroups retrieves the groups owned by a user.
func (e *Engine) ListGroups(ctx context.Context, ownerID string) ([]*models.Group, error) {
	return e.store.ListGroupsByOwner(ctx, ownerID)
}

// DeleteGroup removes a group and everything under it: members, ledger
// entries, polls, and votes. All derived state for the group becomes
// invalid.
func (e *Engine) DeleteGroup(ctx context.Context, groupID string) error {
	unlock := e.groupLocks.Lock(groupID)
	defer unlock()

	err := e.store.DeleteGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrGroupNotFound
	}
	if err != nil {
		return err
	}

	slog.Info("group deleted", "group_id", groupID)
	return nil
}
