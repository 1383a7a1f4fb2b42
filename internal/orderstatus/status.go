// Package orderstatus defines the order lifecycle and the transitions a rider
// may perform between its stages.
package orderstatus

import (
	"strings"
)

// Status is the canonical uppercase form of an order's lifecycle stage.
type Status string

const (
	Pending   Status = "PENDING"
	Assigned  Status = "ASSIGNED"
	Accepted  Status = "ACCEPTED"
	PickedUp  Status = "PICKED_UP"
	Delivered Status = "DELIVERED"
	Cancelled Status = "CANCELLED"
)

// transitions lists the statuses reachable in one step. Terminal statuses map
// to an empty set; every other status can reach Cancelled.
var transitions = map[Status][]Status{
	Pending:   {Accepted, Cancelled},
	Assigned:  {Accepted, Cancelled},
	Accepted:  {PickedUp, Cancelled},
	PickedUp:  {Delivered, Cancelled},
	Delivered: {},
	Cancelled: {},
}

// Normalize converts a backend status string to canonical form. Empty input
// yields Pending. Values outside the known set are returned in canonical form
// and have no outgoing transitions.
func Normalize(raw string) Status {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Pending
	}
	return Status(strings.Join(strings.Fields(strings.ToUpper(trimmed)), "_"))
}

// Known reports whether s is one of the lifecycle statuses.
func Known(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// Resolve normalizes raw and maps anything unrecognized to Pending.
func Resolve(raw string) Status {
	s := Normalize(raw)
	if !Known(s) {
		return Pending
	}
	return s
}

// Reachable returns a copy of the statuses reachable from current in one step.
func Reachable(current string) []Status {
	next := transitions[Normalize(current)]
	if len(next) == 0 {
		return nil
	}
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether next is reachable from current in one step.
// Both values are normalized first. Unknown current statuses reach nothing.
func CanTransition(current, next string) bool {
	target := Normalize(next)
	for _, s := range transitions[Normalize(current)] {
		if s == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing transitions.
func IsTerminal(s Status) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// All returns every lifecycle status in display order.
func All() []Status {
	return []Status{Pending, Assigned, Accepted, PickedUp, Delivered, Cancelled}
}

// Label returns a human-readable form, e.g. "Picked up".
func (s Status) Label() string {
	lower := strings.ToLower(strings.ReplaceAll(string(s), "_", " "))
	if lower == "" {
		return ""
	}
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func (s Status) String() string {
	return string(s)
}
