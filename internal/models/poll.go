package models

// PollStatus is the lifecycle state of a poll. A poll starts Open and moves
// to exactly one of the closed states; closed states are terminal.
type PollStatus string

const (
	PollOpen           PollStatus = "open"
	PollClosedQuorum   PollStatus = "closed_quorum"
	PollClosedDeadline PollStatus = "closed_deadline"
	PollClosedManual   PollStatus = "closed_manual"
)

// Closed reports whether the status is terminal.
func (s PollStatus) Closed() bool {
	return s != PollOpen
}

// Poll is a group decision with a fixed option list. Options are frozen at
// creation; none may be added later.
type Poll struct {
	// ID is the unique identifier for the poll (UUID format).
	ID string

	// GroupID is the group this poll belongs to.
	GroupID string

	// Question is the text members vote on.
	Question string

	// Options is the ordered option list, at least two entries.
	Options []PollOption

	// Deadline is the Unix timestamp after which the poll auto-closes.
	// Zero means no deadline.
	Deadline int64

	// Status is the current lifecycle state.
	Status PollStatus

	// CreatedAt is the Unix timestamp when the poll was created.
	CreatedAt int64
}

// Option returns the option with the given ID, or nil if the poll has no
// such option.
func (p *Poll) Option(optionID string) *PollOption {
	for i := range p.Options {
		if p.Options[i].ID == optionID {
			return &p.Options[i]
		}
	}
	return nil
}

// PollOption is one choice on a poll.
type PollOption struct {
	// ID is the option identifier, stable for the poll's lifetime.
	ID string

	// Text is the option label.
	Text string
}

// Vote is one member's current choice on a poll. There is at most one vote
// per (poll, member) pair; re-voting while the poll is open replaces the
// earlier vote.
type Vote struct {
	PollID   string
	MemberID string
	OptionID string

	// CastAt is the Unix timestamp of the most recent cast.
	CastAt int64
}

// OptionCount is the live tally for one option.
type OptionCount struct {
	OptionID string
	Text     string
	Votes    int

	// Percent is Votes as a percentage of all votes cast, 0 when no votes
	// have been cast yet.
	Percent float64
}

// PollResult is the derived tally for a poll. It is valid in any state,
// including Open (live tally).
type PollResult struct {
	PollID string
	Status PollStatus

	// TotalVotes is the number of distinct members who currently have a vote.
	TotalVotes int

	// Counts follows the poll's option order.
	Counts []OptionCount

	// Leaders lists every option ID tied for the highest count. Ties are
	// reported as-is, never broken arbitrarily. Empty when no votes exist.
	Leaders []string
}
