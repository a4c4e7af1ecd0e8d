package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/huddleup/huddle/internal/events"
	"github.com/huddleup/huddle/internal/metrics"
	"github.com/huddleup/huddle/internal/models"
	"github.com/huddleup/huddle/internal/poll"
	"github.com/huddleup/huddle/internal/storage"
)

// CreatePoll creates an open poll with at least two options. The option list
// is frozen at creation. deadline is a Unix timestamp; zero means no
// deadline.
func (e *Engine) CreatePoll(ctx context.Context, groupID, question string, optionTexts []string, deadline int64) (*models.Poll, error) {
	if _, err := e.store.GetGroup(ctx, groupID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	if len(optionTexts) < 2 {
		return nil, ErrInsufficientOptions
	}

	p := &models.Poll{
		ID:        uuid.New().String(),
		GroupID:   groupID,
		Question:  question,
		Options:   make([]models.PollOption, len(optionTexts)),
		Deadline:  deadline,
		Status:    models.PollOpen,
		CreatedAt: e.now().Unix(),
	}
	for i, text := range optionTexts {
		p.Options[i] = models.PollOption{ID: uuid.New().String(), Text: text}
	}

	if err := e.store.CreatePoll(ctx, p); err != nil {
		return nil, fmt.Errorf("create poll: %w", err)
	}

	slog.Info("poll created", "group_id", groupID, "poll_id", p.ID, "options", len(p.Options))
	return p, nil
}

// CastVote upserts a member's vote on an open poll: a later vote from the
// same member replaces the earlier one. After the vote the poll's quorum is
// re-evaluated, and an expired deadline is applied before the vote is
// accepted.
func (e *Engine) CastVote(ctx context.Context, pollID, memberID, optionID string) error {
	unlock := e.pollLocks.Lock(pollID)
	defer unlock()

	p, err := e.getPollLocked(ctx, pollID)
	if err != nil {
		return err
	}
	if p.Status.Closed() {
		return fmt.Errorf("%w: %s", ErrPollClosed, string(p.Status))
	}

	if _, err := e.store.GetMember(ctx, p.GroupID, memberID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownMember, memberID)
		}
		return err
	}
	if p.Option(optionID) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownOption, optionID)
	}

	vote := models.Vote{
		PollID:   pollID,
		MemberID: memberID,
		OptionID: optionID,
		CastAt:   e.now().Unix(),
	}
	if err := e.store.UpsertVote(ctx, vote); err != nil {
		return fmt.Errorf("cast vote: %w", err)
	}

	metrics.VotesCast.Inc()
	slog.Info("vote cast", "poll_id", pollID, "member_id", memberID)

	return e.evaluateQuorum(ctx, p)
}

// evaluateQuorum closes the poll when the configured fraction of the
// group's members has voted.
func (e *Engine) evaluateQuorum(ctx context.Context, p *models.Poll) error {
	group, err := e.store.GetGroup(ctx, p.GroupID)
	if err != nil {
		return err
	}
	voters, err := e.store.CountVotes(ctx, p.ID)
	if err != nil {
		return err
	}
	memberCount, err := e.store.CountMembers(ctx, p.GroupID)
	if err != nil {
		return err
	}

	quorum := group.Quorum
	if quorum == 0 {
		quorum = models.DefaultQuorum
	}
	if memberCount > 0 && float64(voters) >= quorum*float64(memberCount) {
		return e.closeLocked(ctx, p, models.PollClosedQuorum)
	}
	return nil
}

// ClosePoll manually closes an open poll.
func (e *Engine) ClosePoll(ctx context.Context, pollID string) error {
	unlock := e.pollLocks.Lock(pollID)
	defer unlock()

	p, err := e.getPollLocked(ctx, pollID)
	if err != nil {
		return err
	}
	if p.Status.Closed() {
		return fmt.Errorf("%w: %s", ErrPollClosed, string(p.Status))
	}
	return e.closeLocked(ctx, p, models.PollClosedManual)
}

// Results computes the live tally for a poll. Valid in any state, including
// Open; like every poll operation it first applies an expired deadline.
func (e *Engine) Results(ctx context.Context, pollID string) (*models.PollResult, error) {
	unlock := e.pollLocks.Lock(pollID)
	defer unlock()

	p, err := e.getPollLocked(ctx, pollID)
	if err != nil {
		return nil, err
	}

	votes, err := e.store.ListVotes(ctx, pollID)
	if err != nil {
		return nil, err
	}
	return poll.Tally(p, votes), nil
}

// ListPolls retrieves a group's polls with their live tallies.
func (e *Engine) ListPolls(ctx context.Context, groupID string) ([]*models.Poll, []*models.PollResult, error) {
	if _, err := e.store.GetGroup(ctx, groupID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, ErrGroupNotFound
		}
		return nil, nil, err
	}

	polls, err := e.store.ListPolls(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}

	results := make([]*models.PollResult, len(polls))
	for i, p := range polls {
		votes, err := e.store.ListVotes(ctx, p.ID)
		if err != nil {
			return nil, nil, err
		}
		results[i] = poll.Tally(p, votes)
	}
	return polls, results, nil
}

// SweepDeadlines closes every open poll whose deadline has passed. Deadlines
// are also applied lazily on each poll operation; the sweep exists so idle
// polls still close near their deadline. Returns the number of polls closed.
func (e *Engine) SweepDeadlines(ctx context.Context) (int, error) {
	expired, err := e.store.ListOpenPollsPastDeadline(ctx, e.now().Unix())
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, p := range expired {
		unlock := e.pollLocks.Lock(p.ID)
		// Re-read under the lock; a concurrent vote may have closed it.
		current, err := e.getPollLocked(ctx, p.ID)
		if err == nil && !current.Status.Closed() {
			if err := e.closeLocked(ctx, current, models.PollClosedDeadline); err == nil {
				closed++
			}
		}
		unlock()
	}
	return closed, nil
}

// getPollLocked fetches a poll and applies an expired deadline before
// returning it. The caller must hold the poll lock.
func (e *Engine) getPollLocked(ctx context.Context, pollID string) (*models.Poll, error) {
	p, err := e.store.GetPoll(ctx, pollID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPollNotFound, pollID)
	}
	if err != nil {
		return nil, err
	}

	if p.Status == models.PollOpen && p.Deadline > 0 && e.now().Unix() >= p.Deadline {
		if err := e.closeLocked(ctx, p, models.PollClosedDeadline); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// closeLocked transitions an open poll to a terminal state. The caller must
// hold the poll lock and have verified the poll is open.
func (e *Engine) closeLocked(ctx context.Context, p *models.Poll, status models.PollStatus) error {
	if err := e.store.SetPollStatus(ctx, p.ID, status); err != nil {
		return fmt.Errorf("close poll: %w", err)
	}
	p.Status = status

	metrics.PollsClosed.WithLabelValues(string(status)).Inc()
	slog.Info("poll closed", "poll_id", p.ID, "group_id", p.GroupID, "reason", string(status))
	e.publish(ctx, events.Event{
		Kind:       events.KindPollClosed,
		GroupID:    p.GroupID,
		EntityID:   p.ID,
		Detail:     string(status),
		OccurredAt: e.now(),
	})
	return nil
}
