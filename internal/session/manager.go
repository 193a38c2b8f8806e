package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/shared"
)

const defaultHistory = 128

// ManagerOpts configures a [Manager].
type ManagerOpts struct {
	Fetcher   Fetcher     // Transport for every round's requests
	Processor Processor   // Protocol logic invoked at each round barrier
	Logger    *log.Logger // Defaults to a discarding logger
	Events    chan<- Event
	History   int // Finished results kept for [Manager.Wait] (default: 128, negative disables)
}

// Manager tracks in-flight sessions and fires round barriers.
//
// Sessions are independent: each has its own lock, held while a reply is recorded and
// while the [Processor] runs. The manager's own lock only guards the session table.
// Lock order is session then table.
type Manager struct {
	fetcher   Fetcher
	processor Processor
	logger    *log.Logger
	events    chan<- Event
	history   int

	mu       sync.Mutex
	sessions map[ID]*session
	finished map[ID]Result
	order    []ID
}

// NewManager creates a [Manager]. Fetcher and Processor are required.
func NewManager(opts ManagerOpts) (*Manager, error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("%w: session manager requires a fetcher", shared.ErrInvalidArgument)
	}
	if opts.Processor == nil {
		return nil, fmt.Errorf("%w: session manager requires a processor", shared.ErrInvalidArgument)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.History == 0 {
		opts.History = defaultHistory
	}

	return &Manager{
		fetcher:   opts.Fetcher,
		processor: opts.Processor,
		logger:    shared.WithLogger(opts.Logger, "provider", opts.Processor.Name()),
		events:    opts.Events,
		history:   opts.History,
		sessions:  make(map[ID]*session),
		finished:  make(map[ID]Result),
	}, nil
}

// Provider returns the processor's name
func (m *Manager) Provider() string {
	return m.processor.Name()
}

// Active returns the number of sessions that have not reached a terminal state.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Open registers a new session at round 1 with no expected count.
//
// The session lives until it completes, fails or is aborted; cancelling ctx aborts it.
func (m *Manager) Open(ctx context.Context, id ID, song models.Song) error {
	m.mu.Lock()
	if _, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	if _, ok := m.finished[id]; ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionClosed, id)
	}
	s := newSession(ctx, id, song)
	m.sessions[id] = s
	m.mu.Unlock()

	context.AfterFunc(s.ctx, func() {
		m.abort(s, context.Cause(s.ctx))
	})

	m.logger.Debug("session opened", "session", id, "song", song.String())
	m.emit(Event{Kind: SessionOpened, Session: id, Round: 1})
	return nil
}

// Start opens a session for song and dispatches the processor's initial requests.
func (m *Manager) Start(ctx context.Context, song models.Song) (ID, error) {
	s, err := m.start(ctx, song)
	if s == nil {
		return "", err
	}
	return s.id, err
}

func (m *Manager) start(ctx context.Context, song models.Song) (*session, error) {
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	id := ID(shared.GenerateID())
	if err := m.Open(ctx, id, song); err != nil {
		return nil, err
	}
	s := m.lookup(id)
	if s == nil {
		// Already aborted by a cancelled ctx.
		return nil, fmt.Errorf("%w: %v", ErrAborted, ctx.Err())
	}

	reqs := m.processor.Initial(song)
	if len(reqs) == 0 {
		s.mu.Lock()
		m.finish(s, models.ResolutionFailed, ErrNoRequests)
		s.mu.Unlock()
		return s, ErrNoRequests
	}

	if err := m.SetExpected(id, 1, len(reqs)); err != nil {
		return s, err
	}
	m.dispatch(s, 1, reqs)
	return s, nil
}

// SetExpected declares how many replies round will receive.
//
// It may be called once per round. If the replies already collected reach n, the barrier
// fires before SetExpected returns.
func (m *Manager) SetExpected(id ID, round, n int) error {
	s := m.lookup(id)
	if s == nil {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}

	s.mu.Lock()
	switch {
	case s.terminal():
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionClosed, id)
	case round != s.round:
		current := s.round
		s.mu.Unlock()
		return fmt.Errorf("%w: got round %d, session %s is at round %d", ErrRoundMismatch, round, id, current)
	case s.expectedSet:
		s.mu.Unlock()
		return fmt.Errorf("%w: session %s round %d", ErrExpectedAlreadySet, id, round)
	case n <= 0:
		s.mu.Unlock()
		return fmt.Errorf("%w: session %s round %d", ErrNoRequests, id, round)
	}

	s.expected = n
	s.expectedSet = true

	var next []Request
	var nextRound int
	if s.ready() {
		next, nextRound = m.fire(s)
	}
	s.mu.Unlock()

	m.dispatch(s, nextRound, next)
	return nil
}

// Submit records reply for session id and reports whether it was kept.
//
// Replies for unknown or terminal sessions, or for a round other than the current one, are
// dropped. The reply that completes the round runs the processor before Submit returns.
func (m *Manager) Submit(id ID, reply Reply) bool {
	s := m.lookup(id)
	if s == nil {
		m.drop(id, reply.Round, "unknown session")
		return false
	}

	s.mu.Lock()
	if s.terminal() {
		s.mu.Unlock()
		m.drop(id, reply.Round, "session terminal")
		return false
	}
	if reply.Round != s.round {
		current := s.round
		s.mu.Unlock()
		m.drop(id, reply.Round, fmt.Sprintf("stale round (current %d)", current))
		return false
	}

	s.replies = append(s.replies, reply)
	received, expected := len(s.replies), s.expected
	m.emit(Event{Kind: ReplyReceived, Session: id, Round: reply.Round, Expected: expected, Received: received})

	var next []Request
	var nextRound int
	if s.ready() {
		next, nextRound = m.fire(s)
	}
	s.mu.Unlock()

	m.dispatch(s, nextRound, next)
	return true
}

// Complete marks the session successful and releases it. Calling it on a session that is
// already released is a no-op.
func (m *Manager) Complete(id ID) error {
	s := m.lookup(id)
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m.finish(s, models.ResolutionCompleted, nil)
	return nil
}

// Abort ends the session early. Replies still in flight are dropped when they arrive.
func (m *Manager) Abort(id ID) error {
	s := m.lookup(id)
	if s == nil {
		return nil
	}
	m.abort(s, nil)
	return nil
}

func (m *Manager) abort(s *session, cause error) {
	err := ErrAborted
	if cause != nil && cause != context.Canceled {
		err = fmt.Errorf("%w: %w", ErrAborted, cause)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m.finish(s, models.ResolutionAborted, err)
}

// Wait blocks until session id is terminal or ctx is done.
//
// The returned error is the session's failure, if any, or the ctx error.
func (m *Manager) Wait(ctx context.Context, id ID) (Result, error) {
	m.mu.Lock()
	s, live := m.sessions[id]
	res, done := m.finished[id]
	m.mu.Unlock()

	switch {
	case done:
		return res, res.Err
	case !live:
		return Result{ID: id}, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return m.wait(ctx, s)
}

// Resolve starts a session for song and waits for it. Cancelling ctx aborts the session.
func (m *Manager) Resolve(ctx context.Context, song models.Song) (Result, error) {
	s, err := m.start(ctx, song)
	if s == nil {
		return Result{Song: song, Status: models.ResolutionFailed, Err: err}, err
	}

	res, err := m.wait(ctx, s)
	if ctx.Err() == nil {
		return res, err
	}

	m.abort(s, ctx.Err())
	s.mu.Lock()
	res = s.result()
	s.mu.Unlock()
	return res, res.Err
}

func (m *Manager) wait(ctx context.Context, s *session) (Result, error) {
	select {
	case <-s.done:
	case <-ctx.Done():
		s.mu.Lock()
		res := s.result()
		s.mu.Unlock()
		return res, ctx.Err()
	}

	s.mu.Lock()
	res := s.result()
	s.mu.Unlock()
	return res, res.Err
}

// fire hands the round's replies to the processor and applies its outcome.
// Caller holds s.mu. Returns the next round's requests, if any.
func (m *Manager) fire(s *session) ([]Request, int) {
	replies := s.replies
	s.replies = nil
	round := s.round

	logger := shared.WithLogger(m.logger, "session", s.id, "round", round)
	logger.Debug("round barrier", "expected", s.expected, "received", len(replies))

	out := m.processor.Process(s.ctx, Info{Session: s.id, Song: s.song, Round: round}, replies)
	s.processed++
	s.accepted += out.accepted
	m.emit(Event{Kind: RoundProcessed, Session: s.id, Round: round, Expected: s.expected, Received: len(replies)})

	switch {
	case out.err != nil:
		m.finish(s, models.ResolutionFailed, out.err)
	case out.done:
		m.finish(s, models.ResolutionCompleted, nil)
	case len(out.next) == 0:
		m.finish(s, models.ResolutionFailed, fmt.Errorf("%w: round %d", ErrNoRequests, round+1))
	default:
		s.round++
		s.expected = len(out.next)
		s.expectedSet = true
		logger.Debug("round opened", "next", s.round, "expected", s.expected)
		m.emit(Event{Kind: RoundOpened, Session: s.id, Round: s.round, Expected: s.expected})
		return out.next, s.round
	}
	return nil, 0
}

// finish moves s into a terminal status and releases it. Caller holds s.mu.
func (m *Manager) finish(s *session, status models.ResolutionStatus, err error) {
	if s.terminal() {
		return
	}

	s.status = status
	s.err = err
	s.finishedAt = time.Now()
	s.replies = nil
	s.cancel()
	res := s.result()

	m.mu.Lock()
	delete(m.sessions, s.id)
	m.remember(res)
	m.mu.Unlock()

	close(s.done)

	logger := shared.WithLogger(m.logger, "session", s.id, "rounds", res.Rounds, "accepted", res.Accepted)
	switch status {
	case models.ResolutionCompleted:
		logger.Info("session completed", "song", s.song.String())
		m.emit(Event{Kind: SessionCompleted, Session: s.id, Round: s.round, Received: res.Accepted})
	case models.ResolutionAborted:
		logger.Info("session aborted", "err", err)
		m.emit(Event{Kind: SessionAborted, Session: s.id, Round: s.round, Err: err})
	default:
		logger.Warn("session failed", "song", s.song.String(), "err", err)
		m.emit(Event{Kind: SessionFailed, Session: s.id, Round: s.round, Err: err, Message: s.song.String()})
	}
}

// remember keeps res for Wait. Caller holds m.mu.
func (m *Manager) remember(res Result) {
	if m.history < 0 {
		return
	}
	m.finished[res.ID] = res
	m.order = append(m.order, res.ID)
	for len(m.order) > m.history {
		delete(m.finished, m.order[0])
		m.order = m.order[1:]
	}
}

func (m *Manager) dispatch(s *session, round int, reqs []Request) {
	for _, req := range reqs {
		m.fetcher.Fetch(s.ctx, m, s.id, round, req)
	}
}

func (m *Manager) drop(id ID, round int, reason string) {
	m.logger.Debug("reply dropped", "session", id, "round", round, "reason", reason)
	m.emit(Event{Kind: ReplyDropped, Session: id, Round: round, Message: reason})
}

func (m *Manager) lookup(id ID) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}
