package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/huddleup/huddle/internal/events"
	"github.com/huddleup/huddle/internal/ledger"
	"github.com/huddleup/huddle/internal/metrics"
	"github.com/huddleup/huddle/internal/models"
	"github.com/huddleup/huddle/internal/storage"
)

// RecordExpense appends an entry to the group's ledger. The payer and every
// participant must resolve in the group; explicit shares, when supplied,
// must align with participants and sum to the amount exactly (no rounding
// tolerance). With no shares the amount is split evenly, remainder minor
// units going to the first participants in the supplied order.
func (e *Engine) RecordExpense(ctx context.Context, groupID, payerID, description string, amount int64, participants []string, shares []int64) (*models.ExpenseEntry, error) {
	unlock := e.groupLocks.Lock(groupID)
	defer unlock()

	if _, err := e.store.GetGroup(ctx, groupID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if len(participants) == 0 {
		return nil, ErrInvalidParticipants
	}

	if _, err := e.Resolve(ctx, groupID, payerID); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(participants))
	for _, p := range participants {
		if seen[p] {
			return nil, fmt.Errorf("%w: duplicate participant %s", ErrInvalidParticipants, p)
		}
		seen[p] = true
		if _, err := e.Resolve(ctx, groupID, p); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidParticipants, p)
		}
	}

	if shares != nil {
		if len(shares) != len(participants) {
			return nil, ErrInvalidShares
		}
		for _, s := range shares {
			if s < 0 {
				return nil, ErrInvalidShares
			}
		}
		if ledger.SumShares(shares) != amount {
			return nil, ErrInvalidShares
		}
	} else {
		shares = ledger.EvenSplit(amount, len(participants))
	}

	entry := &models.ExpenseEntry{
		ID:           uuid.New().String(),
		GroupID:      groupID,
		PayerID:      payerID,
		Description:  description,
		Amount:       amount,
		Participants: participants,
		Shares:       shares,
		CreatedAt:    e.now().Unix(),
	}

	if err := e.store.CreateExpense(ctx, entry); err != nil {
		return nil, fmt.Errorf("record expense: %w", err)
	}

	metrics.ExpensesRecorded.Inc()
	slog.Info("expense recorded",
		"group_id", groupID,
		"entry_id", entry.ID,
		"payer_id", payerID,
		"amount", amount,
		"participants", len(participants),
	)
	e.publish(ctx, events.Event{
		Kind:       events.KindExpenseRecorded,
		GroupID:    groupID,
		EntityID:   entry.ID,
		OccurredAt: e.now(),
	})
	return entry, nil
}

// VoidExpense soft-cancels an entry, reversing its effect on balances. The
// entry stays in the ledger for audit history. Voiding a void entry fails
// with ErrAlreadyVoid rather than silently succeeding.
func (e *Engine) VoidExpense(ctx context.Context, groupID, entryID string) error {
	unlock := e.groupLocks.Lock(groupID)
	defer unlock()

	entry, err := e.store.GetExpense(ctx, groupID, entryID)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	if err != nil {
		return err
	}
	if entry.Void {
		return fmt.Errorf("%w: %s", ErrAlreadyVoid, entryID)
	}

	if err := e.store.SetExpenseVoid(ctx, groupID, entryID); err != nil {
		return fmt.Errorf("void expense: %w", err)
	}

	metrics.ExpensesVoided.Inc()
	slog.Info("expense voided", "group_id", groupID, "entry_id", entryID)
	e.publish(ctx, events.Event{
		Kind:       events.KindExpenseVoided,
		GroupID:    groupID,
		EntityID:   entryID,
		OccurredAt: e.now(),
	})
	return nil
}

// MarkSettled sets the display-only settled flag on an entry. Balances are
// unaffected.
func (e *Engine) MarkSettled(ctx context.Context, groupID, entryID string, settled bool) error {
	unlock := e.groupLocks.Lock(groupID)
	defer unlock()

	err := e.store.SetExpenseSettled(ctx, groupID, entryID, settled)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	return err
}

// ListExpenses retrieves the group's full ledger, voided entries included.
func (e *Engine) ListExpenses(ctx context.Context, groupID string) ([]*models.ExpenseEntry, error) {
	if _, err := e.store.GetGroup(ctx, groupID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return e.store.ListExpenses(ctx, groupID)
}

// Balances recomputes every member's net balance from the unvoided ledger.
// The balances of a group always sum to exactly zero.
func (e *Engine) Balances(ctx context.Context, groupID string) (map[string]int64, error) {
	unlock := e.groupLocks.Lock(groupID)
	defer unlock()

	if _, err := e.store.GetGroup(ctx, groupID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return e.balancesLocked(ctx, groupID)
}

// balancesLocked computes balances; the caller must hold the group lock.
func (e *Engine) balancesLocked(ctx context.Context, groupID string) (map[string]int64, error) {
	entries, err := e.store.ListExpenses(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members, err := e.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return ledger.Balances(entries, members), nil
}

// SuggestSettlements computes transfers that would zero every balance in the
// group. The suggestion is derived state: nothing is persisted and the
// ledger is not touched. Callers that want a settlement on the books apply
// it with ApplySettlement.
func (e *Engine) SuggestSettlements(ctx context.Context, groupID string) ([]models.SettlementTransfer, error) {
	balances, err := e.Balances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	metrics.SettlementSuggestions.Inc()
	return ledger.Suggest(balances), nil
}

// ApplySettlement records a settlement payment (from paid amount to) as an
// offsetting ledger entry, so applied transfers flow through the same
// zero-sum ledger as every other expense.
func (e *Engine) ApplySettlement(ctx context.Context, groupID, fromID, toID string, amount int64) (*models.ExpenseEntry, error) {
	entry, err := e.RecordExpense(ctx, groupID, fromID, "settlement payment", amount, []string{toID}, nil)
	if err != nil {
		return nil, err
	}

	// A settlement is settled by definition.
	if err := e.MarkSettled(ctx, groupID, entry.ID, true); err != nil {
		return nil, err
	}
	entry.Settled = true
	return entry, nil
}
