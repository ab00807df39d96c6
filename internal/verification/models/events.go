package models

// EventKind tags reconciler inputs.
type EventKind int

const (
	EventConfirmed EventKind = iota + 1
	EventStillPending
	EventDeadlineElapsed
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventConfirmed:
		return "confirmed"
	case EventStillPending:
		return "still_pending"
	case EventDeadlineElapsed:
		return "deadline_elapsed"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Source names where a reconciler event came from.
type Source string

const (
	SourceInitial  Source = "initial"
	SourcePush     Source = "push"
	SourcePoll     Source = "poll"
	SourceDeadline Source = "deadline"
	SourceCaller   Source = "caller"
)

// Event is one input to the session reducer.
type Event struct {
	Kind   EventKind
	Source Source
	Err    error
}
