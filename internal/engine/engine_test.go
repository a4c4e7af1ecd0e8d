package engine

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/huddleup/huddle/internal/models"
	"github.com/huddleup/huddle/internal/storage/sqlite"
)

// testClock is an adjustable time source for deadline tests.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEngine(t *testing.T) (*Engine, *testClock) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "engine-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
		os.Remove(tmpFile.Name())
	})

	clock := &testClock{now: time.Unix(1700000000, 0)}
	return New(store, WithClock(clock.Now)), clock
}

// newTestGroup creates an owner account and a group with the given member
// IDs (handles double as IDs).
func newTestGroup(t *testing.T, e *Engine, memberIDs ...string) string {
	t.Helper()
	ctx := context.Background()

	owner := models.NewUser("owner@example.com", "Owner", "hash")
	if err := e.store.CreateUser(ctx, owner); err != nil {
		t.Fatalf("failed to create owner: %v", err)
	}

	members := make([]models.Member, len(memberIDs))
	for i, id := range memberIDs {
		members[i] = models.Member{ID: id, Handle: id}
	}

	group, _, err := e.CreateGroup(ctx, owner.ID, "Test Group", "", members, 0)
	if err != nil {
		t.Fatalf("failed to create group: %v", err)
	}
	return group.ID
}

func TestAddMember_Duplicate(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	groupID := newTestGroup(t, e, "A", "B")

	err := e.AddMember(ctx, groupID, models.Member{ID: "A", Handle: "Alice again"})
	if !errors.Is(err, ErrDuplicateMember) {
		t.Errorf("AddMember duplicate = %v, want ErrDuplicateMember", err)
	}

	if err := e.AddMember(ctx, groupID, models.Member{ID: "C", Handle: "Carol"}); err != nil {
		t.Errorf("AddMember new = %v, want nil", err)
	}
}

func TestResolve(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	groupID := newTestGroup(t, e, "A")

	member, err := e.Resolve(ctx, groupID, "A")
	if err != nil {
		t.Fatalf("Resolve = %v", err)
	}
	if member.ID != "A" {
		t.Errorf("member.ID = %q, want A", member.ID)
	}

	if _, err := e.Resolve(ctx, groupID, "ghost"); !errors.Is(err, ErrUnknownMember) {
		t.Errorf("Resolve unknown = %v, want ErrUnknownMember", err)
	}
}

func TestRemoveMember_OpenBalance(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	groupID := newTestGroup(t, e, "A", "B")

	if _, err := e.RecordExpense(ctx, groupID, "A", "", 100, []string{"A", "B"}, nil); err != nil {
		t.Fatalf("RecordExpense = %v", err)
	}

	// B owes 50; removal must be refused until the debt clears.
	if err := e.RemoveMember(ctx, groupID, "B"); !errors.Is(err, ErrMemberHasOpenBalance) {
		t.Fatalf("RemoveMember with debt = %v, want ErrMemberHasOpenBalance", err)
	}

	if _, err := e.ApplySettlement(ctx, groupID, "B", "A", 50); err != nil {
		t.Fatalf("ApplySettlement = %v", err)
	}
	if err := e.RemoveMember(ctx, groupID, "B"); err != nil {
		t.Errorf("RemoveMember after settling = %v, want nil", err)
	}

	if err := e.RemoveMember(ctx, groupID, "ghost"); !errors.Is(err, ErrUnknownMember) {
		t.Errorf("RemoveMember unknown = %v, want ErrUnknownMember", err)
	}
}

func TestRecordExpense_Validation(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	groupID := newTestGroup(t, e, "A", "B")

	tests := []struct {
		name         string
		payer        string
		amount       int64
		participants []string
		shares       []int64
		wantErr      error
	}{
		{name: "zero amount", payer: "A", amount: 0, participants: []string{"A", "B"}, wantErr: ErrInvalidAmount},
		{name: "negative amount", payer: "A", amount: -5, participants: []string{"A"}, wantErr: ErrInvalidAmount},
		{name: "no participants", payer: "A", amount: 100, participants: nil, wantErr: ErrInvalidParticipants},
		{name: "unknown participant", payer: "A", amount: 100, participants: []string{"A", "ghost"}, wantErr: ErrInvalidParticipants},
		{name: "unknown payer", payer: "ghost", amount: 100, participants: []string{"A"}, wantErr: ErrUnknownMember},
		{name: "share count mismatch", payer: "A", amount: 100, participants: []string{"A", "B"}, shares: []int64{100}, wantErr: ErrInvalidShares},
		{name: "shares do not sum", payer: "A", amount: 100, participants: []string{"A", "B"}, shares: []int64{60, 39}, wantErr: ErrInvalidShares},
		{name: "negative share", payer: "A", amount: 100, participants: []string{"A", "B"}, shares: []int64{150, -50}, wantErr: ErrInvalidShares},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.RecordExpense(ctx, groupID, tt.payer, "", tt.amount, tt.participants, tt.shares)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RecordExpense = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Rejected operations must leave the ledger untouched.
	entries, err := e.ListExpenses(ctx, groupID)
	if err != nil {
		t.Fatalf("ListExpenses = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("ledger has %d entries after rejected submissions, want 0", len(entries))
	}
}

func TestEndToEndExample(t *testing.T) {
	// Group with A, B, C; 300 paid by A split evenly; balances
	// {A:+200, B:-100, C:-100}; suggestion [(B->A,100), (C->A,100)].
	e, _ := newTestEngine(t)
	ctx := context.Background()
	groupID := newTestGroup(t, e, "A", "B", "C")

	if _, err := e.RecordExpense(ctx, groupID, "A", "Dinner", 300, []string{"A", "B", "C"}, nil); err != nil {
		t.Fatalf("RecordExpense = %v", err)
	}

	balances, err := e.Balances(ctx, groupID)
	if err != nil {
		t.Fatalf("Balances = %v", err)
	}
	if balances["A"] != 200 || balances["B"] != -100 || balances["C"] != -100 {
		t.Fatalf("balances = %v, want A:200 B:-100 C:-100", balances)
	}

	transfers, err := e.SuggestSettlements(ctx, groupID)
	if err != nil {
		t.Fatalf("SuggestSettlements = %v", err)
	}
	if len(transfers) != 2 {
		t.Fatalf("got %d transfers, want 2", len(transfers))
	}
	if transfers[0].From != "B" || transfers[0].To != "A" || transfers[0].Amount != 100 {
		t.Errorf("transfers[0] = %v, want B->A 100", transfers[0])
	}
	if transfers[1].From != "C" || transfers[1].To != "A" || transfers[1].Amount != 100 {
		t.Errorf("transfers[1] = %v, want C->A 100", transfers[1])
	}
}

func TestVoidExpense(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	groupID := newTestGroup(t, e, "A", "B")

	before, _ := e.Balances(ctx, groupID)

	entry, err := e.RecordExpense(ctx, groupID, "A", "", 101, []string{"A", "B"}, nil)
	if err != nil {
		t.Fatalf("RecordExpense = %v", err)
	}

	if err := e.VoidExpense(ctx, groupID, entry.ID); err != nil {
		t.Fatalf("VoidExpense = %v", err)
	}

	after, err := e.Balances(ctx, groupID)
	if err != nil {
		t.Fatalf("Balances = %v", err)
	}
	for id := range before {
		if after[id] != before[id] {
			t.Errorf("balance[%s] = %d after void, want %d", id, after[id], before[id])
		}
	}

	// No silent no-op on double void.
	if err := e.VoidExpense(ctx, groupID, entry.ID); !errors.Is(err, ErrAlreadyVoid) {
		t.Errorf("second VoidExpense = %v, want ErrAlreadyVoid", err)
	}
	if err := e.VoidExpense(ctx, groupID, "missing"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("VoidExpense missing = %v, want ErrEntryNotFound", err)
	}
}

func TestMarkSettled_DoesNotAffectBalances(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	groupID := newTestGroup(t, e, "A", "B")

	entry, err := e.RecordExpense(ctx, groupID, "A", "", 80, []string{"A", "B"}, nil)
	if err != nil {
		t.Fatalf("RecordExpense = %v", err)
	}
	before, _ := e.Balances(ctx, groupID)

	if err := e.MarkSettled(ctx, groupID, entry.ID, true); err != nil {
		t.Fatalf("MarkSettled = %v", err)
	}

	after, _ := e.Balances(ctx, groupID)
	for id := range before {
		if after[id] != before[id] {
			t.Errorf("balance[%s] changed after MarkSettled", id)
		}
	}

	entries, _ := e.ListExpenses(ctx, groupID)
	if len(entries) != 1 || !entries[0].Settled {
		t.Error("entry not flagged settled")
	}

	if err := e.MarkSettled(ctx, groupID, "missing", true); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("MarkSettled missing = %v, want ErrEntryNotFound", err)
	}
}

func TestApplySettlement_ZeroesBalances(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	groupID := newTestGroup(t, e, "A", "B", "C")

	if _, err := e.RecordExpense(ctx, groupID, "A", "", 300, []string{"A", "B", "C"}, nil); err != nil {
		t.Fatalf("RecordExpense = %v", err)
	}

	transfers, err := e.SuggestSettlements(ctx, groupID)
	if err != nil {
		t.Fatalf("SuggestSettlements = %v", err)
	}
	for _, tr := range transfers {
		if _, err := e.ApplySettlement(ctx, groupID, tr.From, tr.To, tr.Amount); err != nil {
			t.Fatalf("ApplySettlement = %v", err)
		}
	}

	balances, _ := e.Balances(ctx, groupID)
	for id, b := range balances {
		if b != 0 {
			t.Errorf("balance[%s] = %d after applying all transfers, want 0", id, b)
		}
	}
}

func TestCreatePoll_InsufficientOptions(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	groupID := newTestGroup(t, e, "A", "B")

	if _, err := e.CreatePoll(ctx, groupID, "Where to?", []string{"Beach"}, 0); !errors.Is(err, ErrInsufficientOptions) {
		t.Errorf("CreatePoll one option = %v, want ErrInsufficientOptions", err)
	}
	if _, err := e.CreatePoll(ctx, "missing", "Q", []string{"a", "b"}, 0); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("CreatePoll missing group = %v, want ErrGroupNotFound", err)
	}
}

func TestCastVote_QuorumTransition(t *testing.T) {
	// Quorum 0.5 in a 4-member group: the 2nd distinct voter closes the
	// poll, and the 3rd member's attempt fails.
	e, _ := newTestEngine(t)
	ctx := context.Background()
	groupID := newTestGroup(t, e, "A", "B", "C", "D")

	p, err := e.CreatePoll(ctx, groupID, "Movie night?", []string{"Yes", "No"}, 0)
	if err != nil {
		t.Fatalf("CreatePoll = %v", err)
	}
	yes := p.Options[0].ID

	if err := e.CastVote(ctx, p.ID, "A", yes); err != nil {
		t.Fatalf("first vote = %v", err)
	}
	result, _ := e.Results(ctx, p.ID)
	if result.Status != models.PollOpen {
		t.Fatalf("status after 1 vote = %s, want open", result.Status)
	}

	if err := e.CastVote(ctx, p.ID, "B", yes); err != nil {
		t.Fatalf("second vote = %v", err)
	}
	result, _ = e.Results(ctx, p.ID)
	if result.Status != models.PollClosedQuorum {
		t.Fatalf("status after 2 votes = %s, want closed_quorum", result.Status)
	}

	if err := e.CastVote(ctx, p.ID, "C", yes); !errors.Is(err, ErrPollClosed) {
		t.Errorf("vote on closed poll = %v, want ErrPollClosed", err)
	}
}

func TestCastVote_Revote(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	groupID := newTestGroup(t, e, "A", "B", "C", "D", "E")

	p, err := e.CreatePoll(ctx, groupID, "Dinner?", []string{"Pizza", "Sushi"}, 0)
	if err != nil {
		t.Fatalf("CreatePoll = %v", err)
	}
	pizza, sushi := p.Options[0].ID, p.Options[1].ID

	if err := e.CastVote(ctx, p.ID, "A", pizza); err != nil {
		t.Fatalf("vote = %v", err)
	}
	if err := e.CastVote(ctx, p.ID, "A", sushi); err != nil {
		t.Fatalf("re-vote = %v", err)
	}

	result, err := e.Results(ctx, p.ID)
	if err != nil {
		t.Fatalf("Results = %v", err)
	}
	if result.TotalVotes != 1 {
		t.Errorf("TotalVotes = %d after re-vote, want 1", result.TotalVotes)
	}
	if result.Counts[0].Votes != 0 || result.Counts[1].Votes != 1 {
		t.Errorf("counts = %d/%d, want 0/1", result.Counts[0].Votes, result.Counts[1].Votes)
	}
}

func TestCastVote_UnknownReferences(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	groupID := newTestGroup(t, e, "A", "B", "C")

	p, err := e.CreatePoll(ctx, groupID, "Q?", []string{"a", "b"}, 0)
	if err != nil {
		t.Fatalf("CreatePoll = %v", err)
	}

	if err := e.CastVote(ctx, p.ID, "ghost", p.Options[0].ID); !errors.Is(err, ErrUnknownMember) {
		t.Errorf("vote by non-member = %v, want ErrUnknownMember", err)
	}
	if err := e.CastVote(ctx, p.ID, "A", "bogus-option"); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("vote for unknown option = %v, want ErrUnknownOption", err)
	}
	if err := e.CastVote(ctx, "missing-poll", "A", "x"); !errors.Is(err, ErrPollNotFound) {
		t.Errorf("vote on missing poll = %v, want ErrPollNotFound", err)
	}
}

func TestClosePoll_Manual(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()
	groupID := newTestGroup(t, e, "A", "B", "C")

	p, err := e.CreatePoll(ctx, groupID, "Q?", []string{"a", "b"}, 0)
	if err != nil {
		t.Fatalf("CreatePoll = %v", err)
	}

	if err := e.ClosePoll(ctx, p.ID); err != nil {
		t.Fatalf("ClosePoll = %v", err)
	}
	result, _ := e.Results(ctx, p.ID)
	if result.Status != models.PollClosedManual {
		t.Errorf("status = %s, want closed_manual", result.Status)
	}

	// Closed states are terminal.
	if err := e.ClosePoll(ctx, p.ID); !errors.Is(err, ErrPollClosed) {
		t.Errorf("second ClosePoll = %v, want ErrPollClosed", err)
	}
}

func TestPollDeadline(t *testing.T) {
	e, clock := newTestEngine(t)
	ctx := context.Background()
	groupID := newTestGroup(t, e, "A", "B", "C")

	deadline := clock.Now().Add(time.Hour).Unix()
	p, err := e.CreatePoll(ctx, groupID, "Q?", []string{"a", "b"}, deadline)
	if err != nil {
		t.Fatalf("CreatePoll = %v", err)
	}

	if err := e.CastVote(ctx, p.ID, "A", p.Options[0].ID); err != nil {
		t.Fatalf("vote before deadline = %v", err)
	}

	clock.Advance(2 * time.Hour)

	// The expired deadline is applied before the vote is considered.
	if err := e.CastVote(ctx, p.ID, "B", p.Options[0].ID); !errors.Is(err, ErrPollClosed) {
		t.Fatalf("vote after deadline = %v, want ErrPollClosed", err)
	}

	result, err := e.Results(ctx, p.ID)
	if err != nil {
		t.Fatalf("Results = %v", err)
	}
	if result.Status != models.PollClosedDeadline {
		t.Errorf("status = %s, want closed_deadline", result.Status)
	}
	if result.TotalVotes != 1 {
		t.Errorf("TotalVotes = %d, want 1 (late vote rejected)", result.TotalVotes)
	}
}

func TestSweepDeadlines(t *testing.T) {
	e, clock := newTestEngine(t)
	ctx := context.Background()
	groupID := newTestGroup(t, e, "A", "B", "C")

	expired, err := e.CreatePoll(ctx, groupID, "Old?", []string{"a", "b"}, clock.Now().Add(time.Minute).Unix())
	if err != nil {
		t.Fatalf("CreatePoll = %v", err)
	}
	open, err := e.CreatePoll(ctx, groupID, "Fresh?", []string{"a", "b"}, clock.Now().Add(time.Hour).Unix())
	if err != nil {
		t.Fatalf("CreatePoll = %v", err)
	}

	clock.Advance(10 * time.Minute)

	closed, err := e.SweepDeadlines(ctx)
	if err != nil {
		t.Fatalf("SweepDeadlines = %v", err)
	}
	if closed != 1 {
		t.Errorf("SweepDeadlines closed %d polls, want 1", closed)
	}

	expiredResult, _ := e.Results(ctx, expired.ID)
	if expiredResult.Status != models.PollClosedDeadline {
		t.Errorf("expired poll status = %s, want closed_deadline", expiredResult.Status)
	}
	openResult, _ := e.Results(ctx, open.ID)
	if openResult.Status != models.PollOpen {
		t.Errorf("open poll status = %s, want open", openResult.Status)
	}
}
