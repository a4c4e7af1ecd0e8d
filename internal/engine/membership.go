package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/huddleup/huddle/internal/models"
	"github.com/huddleup/huddle/internal/storage"
)

// AddMember adds a member to a group. The member ID must be unique within
// the group.
func (e *Engine) AddMember(ctx context.Context, groupID string, member models.Member) error {
	unlock := e.groupLocks.Lock(groupID)
	defer unlock()

	if _, err := e.store.GetGroup(ctx, groupID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrGroupNotFound
		}
		return err
	}

	if member.ID == "" {
		member.ID = member.Handle
	}
	if member.Handle == "" {
		member.Handle = member.ID
	}

	if _, err := e.store.GetMember(ctx, groupID, member.ID); err == nil {
		return fmt.Errorf("%w: %s", ErrDuplicateMember, member.ID)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if err := e.store.AddMember(ctx, groupID, member); err != nil {
		return fmt.Errorf("add member: %w", err)
	}

	slog.Info("member added", "group_id", groupID, "member_id", member.ID)
	return nil
}

// Resolve looks up a member reference within a group.
func (e *Engine) Resolve(ctx context.Context, groupID, memberID string) (*models.Member, error) {
	member, err := e.store.GetMember(ctx, groupID, memberID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMember, memberID)
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember removes a member from a group. Removal is rejected while the
// member's balance is non-zero so debt is never silently orphaned.
func (e *Engine) RemoveMember(ctx context.Context, groupID, memberID string) error {
	unlock := e.groupLocks.Lock(groupID)
	defer unlock()

	if _, err := e.store.GetMember(ctx, groupID, memberID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownMember, memberID)
		}
		return err
	}

	balances, err := e.balancesLocked(ctx, groupID)
	if err != nil {
		return err
	}
	if balances[memberID] != 0 {
		return fmt.Errorf("%w: %s owes or is owed %d", ErrMemberHasOpenBalance, memberID, balances[memberID])
	}

	if err := e.store.RemoveMember(ctx, groupID, memberID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	slog.Info("member removed", "group_id", groupID, "member_id", memberID)
	return nil
}
