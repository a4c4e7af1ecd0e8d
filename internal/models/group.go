package models

// DefaultQuorum is the fraction of group members whose votes close a poll
// when the group does not configure its own value.
const DefaultQuorum = 0.5

// Group represents a set of people who share a ledger and run polls.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Trip 2026").
	Name string

	// Description is an optional free-form blurb shown on the group page.
	Description string

	// OwnerID is the user account that created the group.
	OwnerID string

	// Quorum is the fraction of members whose votes auto-close a poll.
	// Zero means "use DefaultQuorum"; the stored value is always in (0, 1].
	Quorum float64

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Member is a participant identity scoped to a single group. Every payer,
// expense participant, and voter must resolve to a member of the same group.
type Member struct {
	// ID is the member identifier, unique within the group.
	ID string

	// Handle is the display name shown in the UI.
	Handle string
}
