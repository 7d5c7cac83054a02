package models

// Status is the lifecycle state of a credit application.
type Status string

const (
	StatusPendingAnalyst  Status = "PENDING_ANALYST"
	StatusPendingDirector Status = "PENDING_DIRECTOR"
	StatusAnalyzed        Status = "ANALYZED"
	StatusApproved        Status = "APPROVED"
	StatusDenied          Status = "DENIED"
)

var transitions = map[Status][]Status{
	StatusPendingAnalyst:  {StatusPendingDirector, StatusAnalyzed},
	StatusPendingDirector: {StatusAnalyzed, StatusApproved, StatusDenied},
	StatusAnalyzed:        {StatusApproved, StatusDenied},
}

// CanTransition reports whether from -> to is an allowed move.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingAnalyst, StatusPendingDirector, StatusAnalyzed, StatusApproved, StatusDenied:
		return true
	}
	return false
}

// Terminal reports whether no further transition exists.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusDenied
}

// AwaitingDirector reports whether the director can decide from s.
func (s Status) AwaitingDirector() bool {
	return s == StatusPendingDirector || s == StatusAnalyzed
}

// Decided reports whether s carries decision fields.
func (s Status) Decided() bool {
	return s.Terminal()
}
