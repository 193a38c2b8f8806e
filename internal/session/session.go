package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/lrcx/internal/models"
)

var (
	ErrUnknownSession     = fmt.Errorf("unknown session")
	ErrSessionExists      = fmt.Errorf("session already exists")
	ErrSessionClosed      = fmt.Errorf("session already terminal")
	ErrRoundMismatch      = fmt.Errorf("round does not match session")
	ErrExpectedAlreadySet = fmt.Errorf("expected reply count already set for round")
	ErrNoRequests         = fmt.Errorf("round issued no requests")
	ErrAborted            = fmt.Errorf("session aborted")
)

// ID identifies one resolution attempt.
type ID string

func (id ID) String() string { return string(id) }

// Request is one outbound fetch. Tag is echoed back unchanged on the matching [Reply].
type Request struct {
	URL string
	Tag any
}

// Reply is a fetch result delivered to [Manager.Submit].
//
// Transport failures are reported as a reply with an empty Body.
type Reply struct {
	Round int
	Body  []byte
	Tag   any
}

// Info is the read-only view of a session handed to a [Processor].
type Info struct {
	Session ID
	Song    models.Song
	Round   int
}

// Outcome is what a [Processor] decides once a round's replies are in.
// Build one with [Advance], [Complete] or [Fail].
type Outcome struct {
	next     []Request
	done     bool
	err      error
	accepted int
}

// Advance opens the next round with reqs. An empty reqs fails the session with [ErrNoRequests].
func Advance(reqs []Request) Outcome { return Outcome{next: reqs} }

// Complete ends the session successfully; accepted is the number of payloads kept in this round.
func Complete(accepted int) Outcome { return Outcome{done: true, accepted: accepted} }

// Fail ends the session with err.
func Fail(err error) Outcome {
	if err == nil {
		err = fmt.Errorf("round failed")
	}
	return Outcome{err: err}
}

// Processor holds the round-specific logic of a provider protocol.
type Processor interface {
	// Name identifies the provider, e.g. for persisted rows.
	Name() string
	// Initial returns the first round's requests for song.
	Initial(song models.Song) []Request
	// Process receives every reply of a round at once. Calls for one session are serialized.
	Process(ctx context.Context, info Info, replies []Reply) Outcome
}

// Submitter accepts fetch replies.
type Submitter interface {
	Submit(id ID, reply Reply) bool
}

// Fetcher performs requests asynchronously and reports each result to sub exactly once.
//
// Fetch must not block on the network; it is called without any session lock held and
// may call sub.Submit before returning.
type Fetcher interface {
	Fetch(ctx context.Context, sub Submitter, id ID, round int, req Request)
}

// Result describes a terminal session.
type Result struct {
	ID         ID                      `json:"id"`
	Song       models.Song             `json:"song"`
	Status     models.ResolutionStatus `json:"status"`
	Rounds     int                     `json:"rounds"`
	Accepted   int                     `json:"accepted"`
	Err        error                   `json:"-"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
}

// Error returns the failure message, or "" for successful results
func (r Result) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

type session struct {
	mu          sync.Mutex
	id          ID
	song        models.Song
	ctx         context.Context
	cancel      context.CancelFunc
	round       int
	expected    int
	expectedSet bool
	replies     []Reply
	processed   int
	accepted    int
	status      models.ResolutionStatus
	err         error
	startedAt   time.Time
	finishedAt  time.Time
	done        chan struct{}
}

func newSession(ctx context.Context, id ID, song models.Song) *session {
	sctx, cancel := context.WithCancel(ctx)
	return &session{
		id:        id,
		song:      song,
		ctx:       sctx,
		cancel:    cancel,
		round:     1,
		status:    models.ResolutionPending,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// terminal reports whether the session has ended. Caller holds s.mu.
func (s *session) terminal() bool {
	return s.status.IsTerminal()
}

// ready reports whether the round barrier should fire. Caller holds s.mu.
func (s *session) ready() bool {
	return !s.terminal() && s.expectedSet && len(s.replies) >= s.expected
}

// result snapshots the session. Caller holds s.mu.
func (s *session) result() Result {
	return Result{
		ID:         s.id,
		Song:       s.song,
		Status:     s.status,
		Rounds:     s.processed,
		Accepted:   s.accepted,
		Err:        s.err,
		StartedAt:  s.startedAt,
		FinishedAt: s.finishedAt,
	}
}
