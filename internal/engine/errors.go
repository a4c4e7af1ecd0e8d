package engine

import "errors"

// Engine errors. Every rejected operation returns one of these (possibly
// wrapped) and leaves state untouched; there are no silent no-ops.
var (
	// Not found.
	ErrGroupNotFound = errors.New("group not found")
	ErrEntryNotFound = errors.New("expense entry not found")
	ErrPollNotFound  = errors.New("poll not found")
	ErrUnknownMember = errors.New("member not found in group")
	ErrUnknownOption = errors.New("option is not part of the poll")

	// Validation.
	ErrInvalidAmount       = errors.New("amount must be a positive number of minor units")
	ErrInvalidParticipants = errors.New("expense requires at least one participant from the group")
	ErrInvalidShares       = errors.New("explicit shares must sum to the expense amount exactly")
	ErrInsufficientOptions = errors.New("poll requires at least two options")
	ErrInvalidQuorum       = errors.New("quorum must be a fraction in (0, 1]")

	// Conflicts.
	ErrDuplicateMember      = errors.New("member already exists in group")
	ErrMemberHasOpenBalance = errors.New("member has a non-zero balance")
	ErrAlreadyVoid          = errors.New("expense entry is already void")
	ErrPollClosed           = errors.New("poll is closed")
)

// NotFound reports whether err is one of the engine's not-found errors.
func NotFound(err error) bool {
	return errors.Is(err, ErrGroupNotFound) ||
		errors.Is(err, ErrEntryNotFound) ||
		errors.Is(err, ErrPollNotFound) ||
		errors.Is(err, ErrUnknownMember) ||
		errors.Is(err, ErrUnknownOption)
}

// Validation reports whether err is one of the engine's validation errors.
func Validation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidParticipants) ||
		errors.Is(err, ErrInvalidShares) ||
		errors.Is(err, ErrInsufficientOptions) ||
		errors.Is(err, ErrInvalidQuorum)
}

// Conflict reports whether err is one of the engine's conflict errors.
func Conflict(err error) bool {
	return errors.Is(err, ErrDuplicateMember) ||
		errors.Is(err, ErrMemberHasOpenBalance) ||
		errors.Is(err, ErrAlreadyVoid) ||
		errors.Is(err, ErrPollClosed)
}
