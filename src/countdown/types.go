package countdown

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyCountdown is returned by statistics queries on a countdown without messages.
	ErrEmptyCountdown = errors.New("countdown has no messages")
	// ErrNotEnoughMessages is returned by rate based queries that need at least two messages.
	ErrNotEnoughMessages = fmt.Errorf("countdown needs at least two messages: %w", ErrEmptyCountdown)
	// ErrContributorNotFound is returned when an author has no messages in a countdown.
	ErrContributorNotFound = errors.New("contributor not found")
	// ErrInvalidPeriod is returned when a bucketing period is not positive.
	ErrInvalidPeriod = errors.New("period must be positive")
	// ErrCountdownExists is returned when creating a countdown id that is already registered.
	ErrCountdownExists = errors.New("countdown already exists")
	// ErrCountdownNotFound is returned when a countdown id is not registered.
	ErrCountdownNotFound = errors.New("countdown not found")
)

// Message is one accepted countdown post. It is created by TryAppend and never mutated.
type Message struct {
	ID          string
	CountdownID string
	AuthorID    string
	Timestamp   time.Time
	Number      int64
}

// Candidate is a parsed chat message offered to a countdown.
type Candidate struct {
	ID        string
	AuthorID  string
	Number    int64
	Timestamp time.Time
}

// RejectKind tags why a candidate was not appended.
type RejectKind int

const (
	RejectNone RejectKind = iota
	RejectSameAuthor
	RejectWrongNumber
)

func (k RejectKind) String() string {
	switch k {
	case RejectNone:
		return "none"
	case RejectSameAuthor:
		return "same_author"
	case RejectWrongNumber:
		return "wrong_number"
	default:
		return "unknown"
	}
}

// Signals are the side effects of an accepted message. The countdown only computes
// them; a notifier decides what they mean on the chat platform.
type Signals struct {
	Celebrate bool
	PinWorthy bool
	// Triggers holds the reaction tokens registered for the accepted number.
	Triggers []string
}

// Any reports whether at least one signal is raised.
func (s Signals) Any() bool {
	return s.Celebrate || s.PinWorthy || len(s.Triggers) > 0
}

// Outcome is the tagged result of TryAppend.
type Outcome struct {
	Accepted bool
	Reject   RejectKind
	// Message is the appended message when Accepted.
	Message Message
	// Expected is the number the countdown wanted when Reject is RejectWrongNumber.
	Expected int64
	Signals  Signals
}

const (
	// PinMinimumTotal is the smallest total for which milestone pins are raised.
	PinMinimumTotal = 500
	// PinDivisions is how many pin milestones a countdown is split into.
	PinDivisions = 50
)
