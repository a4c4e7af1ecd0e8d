package models

// ExpenseEntry is one ledger entry: a payer covered Amount on behalf of the
// listed participants. Entries are immutable once recorded; the only state
// that changes afterwards is the Settled display flag and the Void flag.
type ExpenseEntry struct {
	// ID is the unique identifier for the entry (UUID format).
	ID string

	// GroupID is the group whose ledger this entry belongs to.
	GroupID string

	// PayerID is the member who paid.
	PayerID string

	// Description is an optional label ("Dinner at Italian Place").
	Description string

	// Amount is the total paid, in minor currency units.
	Amount int64

	// Participants are the member IDs the amount is split across, in the
	// order supplied by the caller. The order is significant: when the
	// caller does not provide explicit shares, remainder cents go to the
	// first participants in this order.
	Participants []string

	// Shares holds each participant's owed portion, aligned with
	// Participants. It is always populated at record time (computed by even
	// split when the caller omits explicit shares) and always sums to
	// exactly Amount.
	Shares []int64

	// Settled is a display-only flag; it never affects balances.
	Settled bool

	// Void marks a soft-cancelled entry. Void entries are kept for audit
	// history but excluded from every balance computation.
	Void bool

	// CreatedAt is the Unix timestamp when the entry was recorded.
	CreatedAt int64
}

// SettlementTransfer is one suggested payment: From pays To the given amount
// of minor units. Transfers are derived on demand and never persisted.
type SettlementTransfer struct {
	From   string
	To     string
	Amount int64
}
