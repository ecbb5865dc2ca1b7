package user

import (
	"fmt"
	"time"
)

// State names a lifecycle state. Exactly one state holds at a time.
type State string

const (
	StateActive   State = "active"
	StateBanned   State = "banned"
	StateDeleted  State = "deleted"
	StateDetained State = "detained"
)

// ParseState converts a stored or user-supplied name to a State.
func ParseState(s string) (State, error) {
	switch st := State(s); st {
	case StateActive, StateBanned, StateDeleted, StateDetained:
		return st, nil
	default:
		return "", fmt.Errorf("unknown lifecycle state %q", s)
	}
}

func (s State) String() string { return string(s) }

// Status is a user's lifecycle as a tagged value. Which timestamps are
// meaningful depends on State:
//
//	active    Since is when the user last became active (zero if always)
//	banned    Since is when the ban started
//	deleted   Since is when the user was deleted
//	detained  Since is when detention started, Until = Since + Duration
type Status struct {
	State    State         `json:"state"`
	Since    time.Time     `json:"since,omitzero"`
	Until    time.Time     `json:"until,omitzero"`
	Duration time.Duration `json:"duration,omitempty"`
}

// ActiveStatus is the status of a user in good standing.
func ActiveStatus(since time.Time) Status {
	return Status{State: StateActive, Since: since}
}

// BannedStatus is the status of a user banned at since.
func BannedStatus(since time.Time) Status {
	return Status{State: StateBanned, Since: since}
}

// DeletedStatus is the status of a user deleted at since.
func DeletedStatus(since time.Time) Status {
	return Status{State: StateDeleted, Since: since}
}

// DetainedStatus is the status of a user detained at since for duration.
func DetainedStatus(since time.Time, duration time.Duration) Status {
	return Status{
		State:    StateDetained,
		Since:    since,
		Until:    since.Add(duration),
		Duration: duration,
	}
}

// At evaluates the status at now. A detention that has run out is active.
func (s Status) At(now time.Time) Status {
	if s.State == StateDetained && !now.Before(s.Until) {
		return ActiveStatus(s.Until)
	}
	return s
}

// IsActive reports whether the status permits actions.
func (s Status) IsActive() bool {
	return s.State == StateActive
}

// transitions lists the states reachable from each state. Deleted is terminal.
var transitions = map[State][]State{
	StateActive:   {StateBanned, StateDeleted, StateDetained},
	StateDetained: {StateBanned, StateDeleted, StateActive},
	StateBanned:   {StateActive, StateDeleted},
	StateDeleted:  nil,
}

// CanTransition reports whether a user in state from may move to state to.
func CanTransition(from, to State) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
