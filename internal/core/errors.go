package core

import "errors"

// Error kinds surfaced by the engines. Callers classify with errors.Is;
// everything wraps one of these sentinels so the HTTP layer can map them
// without string matching.
var (
	// Validation
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDuration    = errors.New("invalid duration")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidID          = errors.New("invalid identifier")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrTooFewParticipants = errors.New("at least 2 participants required")

	// Conflict / state
	ErrActiveCycleExists     = errors.New("an active cycle already exists")
	ErrNoActiveCycle         = errors.New("no active cycle")
	ErrCycleFinished         = errors.New("cycle already finished")
	ErrDuplicateContribution = errors.New("member already contributed this month")

	// Lookup
	ErrMemberNotFound = errors.New("member not found")
	ErrCycleNotFound  = errors.New("cycle not found")
	ErrNotParticipant = errors.New("member is not a cycle participant")

	// ErrCorruptState signals an invariant violation found in loaded data,
	// e.g. more than one unfinished cycle. It is surfaced, never repaired
	// silently.
	ErrCorruptState = errors.New("corrupt ledger state")
)
