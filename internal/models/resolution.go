package models

import (
	"fmt"
	"time"
)

// ResolutionStatus is the terminal state of a resolution session
type ResolutionStatus string

const (
	ResolutionPending   ResolutionStatus = "pending"
	ResolutionCompleted ResolutionStatus = "completed"
	ResolutionFailed    ResolutionStatus = "failed"
	ResolutionAborted   ResolutionStatus = "aborted"
	ResolutionCached    ResolutionStatus = "cached"
)

// IsTerminal reports whether the status ends a session
func (s ResolutionStatus) IsTerminal() bool {
	return s != ResolutionPending && s != ""
}

// Resolution records one attempt at resolving lyrics for a [Song].
type Resolution struct {
	record
	sessionID   string
	source      string
	artist      string
	title       string
	status      ResolutionStatus
	rounds      int
	accepted    int
	errorMsg    string
	startedAt   time.Time
	completedAt *time.Time
}

// NewResolution creates a pending [Resolution] for song
func NewResolution(sequence int, sessionID, source string, song Song) *Resolution {
	r := &Resolution{
		record:    newRecord(sequence),
		sessionID: sessionID,
		source:    source,
		artist:    song.Artist,
		title:     song.Title,
		status:    ResolutionPending,
	}
	r.startedAt = r.createdAt
	return r
}

func (r *Resolution) SessionID() string { return r.sessionID }
func (r *Resolution) Source() string { return r.source }
func (r *Resolution) Song() Song { return Song{Artist: r.artist, Title: r.title} }
func (r *Resolution) Status() ResolutionStatus { return r.status }
func (r *Resolution) Rounds() int { return r.rounds }
func (r *Resolution) Accepted() int { return r.accepted }
func (r *Resolution) ErrorMessage() string { return r.errorMsg }
func (r *Resolution) StartedAt() time.Time { return r.startedAt }
func (r *Resolution) CompletedAt() *time.Time { return r.completedAt }
func (r *Resolution) SetStartedAt(t time.Time) { r.startedAt = t }
func (r *Resolution) SetCompletedAt(t *time.Time) { r.completedAt = t }

// Duration returns the elapsed time between start and completion, or zero while pending
func (r *Resolution) Duration() time.Duration {
	if r.completedAt == nil {
		return 0
	}
	return r.completedAt.Sub(r.startedAt)
}

// Finish moves the resolution into a terminal status
func (r *Resolution) Finish(status ResolutionStatus, rounds, accepted int, err error) {
	now := time.Now()
	r.status = status
	r.rounds = rounds
	r.accepted = accepted
	if err != nil {
		r.errorMsg = err.Error()
	}
	r.completedAt = &now
	r.updatedAt = now
}

// Restore sets the outcome fields read back from storage
func (r *Resolution) Restore(status ResolutionStatus, rounds, accepted int, errorMsg string) {
	r.status = status
	r.rounds = rounds
	r.accepted = accepted
	r.errorMsg = errorMsg
}

// Validate checks required fields and status consistency
func (r *Resolution) Validate() error {
	if r.id == "" {
		return fmt.Errorf("resolution ID is required")
	}
	if r.sessionID == "" {
		return fmt.Errorf("resolution session ID is required")
	}
	switch r.status {
	case ResolutionPending, ResolutionCompleted, ResolutionFailed, ResolutionAborted, ResolutionCached:
	default:
		return fmt.Errorf("invalid resolution status: %q", r.status)
	}
	if r.status.IsTerminal() && r.completedAt == nil {
		return fmt.Errorf("terminal resolution requires a completion time")
	}
	if r.rounds < 0 || r.accepted < 0 {
		return fmt.Errorf("resolution counters must not be negative")
	}
	return nil
}
