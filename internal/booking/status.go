package booking

// Status represents the lifecycle state of an occurrence.
type Status string

const (
	// StatusPending is the initial state: a soft hold awaiting approval.
	StatusPending Status = "pending"
	// StatusApproved is a confirmed reservation blocking overlapping bookings.
	StatusApproved Status = "approved"
	// StatusRejected is terminal; the occurrence left the active set.
	StatusRejected Status = "rejected"
	// StatusCancelled is terminal; the occurrence left the active set.
	StatusCancelled Status = "cancelled"
)

// validTransitions defines the occurrence state machine. Rejected and
// cancelled are terminal.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusCancelled},
	StatusRejected:  {},
	StatusCancelled: {},
}

// IsValid reports whether the status is a recognized lifecycle state.
func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

// CanTransitionTo reports whether a transition from s to target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	allowed, ok := validTransitions[s]
	if !ok {
		return true
	}
	return len(allowed) == 0
}

// IsActive reports whether the occurrence participates in conflict
// detection. Only pending and approved occurrences occupy the active set.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusApproved
}
