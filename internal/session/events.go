package session

// Event reports a change in a session's lifecycle.
//
// Events are delivered on a best-effort basis; a full channel drops them.
type Event struct {
	Kind     EventKind
	Session  ID
	Round    int
	Expected int
	Received int
	Message  string
	Err      error
}

// EventKind enumerates session lifecycle changes
type EventKind int

const (
	SessionOpened EventKind = iota
	ReplyReceived
	ReplyDropped
	RoundProcessed
	RoundOpened
	SessionCompleted
	SessionFailed
	SessionAborted
)

func (k EventKind) String() string {
	switch k {
	case SessionOpened:
		return "session_opened"
	case ReplyReceived:
		return "reply_received"
	case ReplyDropped:
		return "reply_dropped"
	case RoundProcessed:
		return "round_processed"
	case RoundOpened:
		return "round_opened"
	case SessionCompleted:
		return "session_completed"
	case SessionFailed:
		return "session_failed"
	case SessionAborted:
		return "session_aborted"
	default:
		return ""
	}
}

// emit sends ev without blocking.
func (m *Manager) emit(ev Event) {
	if m.events == nil {
		return
	}
	select {
	case m.events <- ev:
	default:
	}
}
