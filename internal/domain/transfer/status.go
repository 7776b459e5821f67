package transfer

// Status defines the transfer lifecycle states
type Status string

const (
	StatusPending    Status = "PENDING"    // Created, waiting for validation
	StatusValidating Status = "VALIDATING" // Validation started
	StatusValidated  Status = "VALIDATED"  // Validated, waiting for execution
	StatusExecuting  Status = "EXECUTING"  // Execution started
	StatusCompleted  Status = "COMPLETED"  // Funds moved, terminal
	StatusFailed     Status = "FAILED"     // Unrecoverable business error, terminal
)

// transitions is the forward-only state graph. FAILED is reachable only from
// the two in-flight stages; nothing leaves a terminal state.
var transitions = map[Status][]Status{
	StatusPending:    {StatusValidating},
	StatusValidating: {StatusValidated, StatusFailed},
	StatusValidated:  {StatusExecuting},
	StatusExecuting:  {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// rank orders the happy-path states so stage consumers can detect redelivery
// of an already-advanced transfer. Terminal FAILED sits outside the ordering.
var rank = map[Status]int{
	StatusPending:    0,
	StatusValidating: 1,
	StatusValidated:  2,
	StatusExecuting:  3,
	StatusCompleted:  4,
}

// IsTerminal reports whether no further transition can leave the status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// AtLeast reports whether s has already reached target on the happy path.
// FAILED never satisfies any stage target.
func (s Status) AtLeast(target Status) bool {
	sr, ok := rank[s]
	if !ok {
		return false
	}
	tr, ok := rank[target]
	if !ok {
		return false
	}
	return sr >= tr
}

// CanTransition reports whether from → to is in the transition graph.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
