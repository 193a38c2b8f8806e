// package tasks implements lyric resolution workflows on top of the session manager.
//
// The core abstraction is LyricsEngine, which layers the disk cache and resolution history around sessions.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/lrcx/internal/cache"
	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/session"
	"github.com/desertthunder/lrcx/internal/shared"
	"github.com/desertthunder/lrcx/internal/ttplayer"
)

// Resolver runs one resolution session to a terminal state.
// Implemented by [session.Manager].
type Resolver interface {
	Provider() string
	Resolve(ctx context.Context, song models.Song) (session.Result, error)
}

// LyricsCache is the song keyed payload cache. Implemented by [cache.Store].
type LyricsCache interface {
	Get(song models.Song) ([]models.Lyrics, error)
	Set(song models.Song, lyrics []models.Lyrics) error
}

// HistoryStore records finished resolutions. Implemented by repositories.ResolutionRepository.
type HistoryStore interface {
	Create(res *models.Resolution) error
}

// ResolveOpts adjusts a single resolution.
type ResolveOpts struct {
	NoCache bool // Skip the cache lookup (results are still cached)
}

// ResolveResult is the outcome of [LyricsEngine.Resolve].
type ResolveResult struct {
	Song       models.Song
	Session    session.Result
	Lyrics     []models.Lyrics    // Payloads accepted by this session, or the cached payloads
	Cached     bool               // Served from the cache without a session
	Resolution *models.Resolution // History row (nil when no history store is configured)
}

// EngineOpts wires a [LyricsEngine].
type EngineOpts struct {
	Resolver  Resolver   // Required
	Collector *Collector // Captures accepted payloads per session; required for cache fills
	Cache     LyricsCache
	History   HistoryStore
	Logger    *log.Logger
}

// LyricsEngine resolves lyrics for songs.
type LyricsEngine struct {
	resolver  Resolver
	collector *Collector
	cache     LyricsCache
	history   HistoryStore
	logger    *log.Logger
}

// NewLyricsEngine creates a new LyricsEngine with the provided collaborators.
func NewLyricsEngine(opts EngineOpts) (*LyricsEngine, error) {
	if opts.Resolver == nil {
		return nil, fmt.Errorf("%w: lyrics engine requires a resolver", shared.ErrServiceUnavailable)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &LyricsEngine{
		resolver:  opts.Resolver,
		collector: opts.Collector,
		cache:     opts.Cache,
		history:   opts.History,
		logger:    opts.Logger,
	}, nil
}

// Provider returns the name of the lyric provider sessions run against
func (e *LyricsEngine) Provider() string {
	return e.resolver.Provider()
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Resolve returns lyrics for song from the cache or from a new session.
//
// A session that completes without accepting any payload returns the result along with [shared.ErrLyricsNotFound].
func (e *LyricsEngine) Resolve(ctx context.Context, song models.Song, opts ResolveOpts, progress chan<- ProgressUpdate) (*ResolveResult, error) {
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	logger := shared.WithLogger(e.logger, "song", song.String())
	result := &ResolveResult{Song: song}

	if e.cache != nil && !opts.NoCache {
		sendProgress(progress, cacheLookupUpdate(1, 4, song))
		lyrics, err := e.cache.Get(song)
		switch {
		case err == nil && len(lyrics) > 0:
			logger.Debug("cache hit", "payloads", len(lyrics))
			result.Cached = true
			result.Lyrics = lyrics
			result.Session = session.Result{
				ID:       session.ID(shared.GenerateID()),
				Song:     song,
				Status:   models.ResolutionCached,
				Accepted: len(lyrics),
			}
			result.Resolution = e.record(logger, result.Session)
			sendProgress(progress, resolvedUpdate(4, 4, result))
			return result, nil
		case err != nil && !errors.Is(err, cache.ErrMiss):
			logger.Warn("cache read failed", "err", err)
		}
	}

	sendProgress(progress, resolvingUpdate(2, 4, song, e.resolver.Provider()))
	res, err := e.resolver.Resolve(ctx, song)
	result.Session = res
	if e.collector != nil {
		result.Lyrics = e.collector.Take(res.ID)
	}

	sendProgress(progress, recordingUpdate(3, 4, res))
	result.Resolution = e.record(logger, res)

	if err != nil {
		logger.Info("resolution failed", "status", res.Status, "err", err)
		return result, err
	}

	if e.cache != nil && len(result.Lyrics) > 0 {
		if err := e.cache.Set(song, result.Lyrics); err != nil {
			logger.Warn("cache write failed", "err", err)
		}
	}

	sendProgress(progress, resolvedUpdate(4, 4, result))
	if res.Accepted == 0 {
		return result, fmt.Errorf("%w: %s", shared.ErrLyricsNotFound, song)
	}
	return result, nil
}

// record writes the history row for res. Failures are logged, never returned.
func (e *LyricsEngine) record(logger *log.Logger, res session.Result) *models.Resolution {
	if e.history == nil || res.ID == "" {
		return nil
	}

	r := models.NewResolution(0, res.ID.String(), e.resolver.Provider(), res.Song)
	if !res.StartedAt.IsZero() {
		r.SetStartedAt(res.StartedAt)
	}
	r.Finish(res.Status, res.Rounds, res.Accepted, res.Err)
	if !res.FinishedAt.IsZero() {
		finished := res.FinishedAt
		r.SetCompletedAt(&finished)
	}

	if err := e.history.Create(r); err != nil {
		logger.Warn("failed to record resolution", "session", res.ID, "err", err)
		return nil
	}
	return r
}

// maxPendingSessions bounds how many unclaimed sessions a [Collector] holds.
const maxPendingSessions = 256

// Collector is a [ttplayer.Persister] that forwards payloads to another persister
// and keeps a copy per session until [Collector.Take] claims them.
//
// Sessions started outside [LyricsEngine.Resolve] are never claimed. Once more than
// maxPendingSessions sessions are pending, the oldest is dropped.
type Collector struct {
	next    ttplayer.Persister
	mu      sync.Mutex
	pending map[string][]models.Lyrics
	order   []string
	limit   int
}

// NewCollector wraps next, which may be nil.
func NewCollector(next ttplayer.Persister) *Collector {
	return &Collector{
		next:    next,
		pending: make(map[string][]models.Lyrics),
		limit:   maxPendingSessions,
	}
}

// Persist forwards lyrics and keeps them only if the inner persister accepted them.
func (c *Collector) Persist(ctx context.Context, lyrics models.Lyrics) error {
	if c.next != nil {
		if err := c.next.Persist(ctx, lyrics); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[lyrics.SessionID]; !ok {
		c.order = append(c.order, lyrics.SessionID)
		for len(c.order) > c.limit {
			delete(c.pending, c.order[0])
			c.order = c.order[1:]
		}
	}
	c.pending[lyrics.SessionID] = append(c.pending[lyrics.SessionID], lyrics)
	return nil
}

// Take returns and forgets the payloads collected for a session.
func (c *Collector) Take(id session.ID) []models.Lyrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := id.String()
	lyrics, ok := c.pending[key]
	if !ok {
		return nil
	}
	delete(c.pending, key)
	c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == key })
	return lyrics
}

// Len reports how many sessions have unclaimed payloads.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
