package tasks

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/desertthunder/lrcx/internal/models"
)

// BulkResolveOpts contains configuration for resolving many songs.
type BulkResolveOpts struct {
	NumWorkers int     // Concurrent sessions (default: 4, max: 16)
	RateLimit  float64 // Sessions started per second (default: 2)
	NoCache    bool
}

// SongResult is the outcome for one song of a bulk run.
type SongResult struct {
	Song     models.Song
	Result   *ResolveResult
	Accepted int
	Err      error
}

// Success reports whether at least one payload was found
func (r SongResult) Success() bool {
	return r.Err == nil && r.Accepted > 0
}

// BulkResolveResult summarises a bulk run. Results keep the input order.
type BulkResolveResult struct {
	Total     int
	Succeeded int
	Failed    int
	Cached    int
	Results   []SongResult
}

// BulkResolve resolves songs concurrently with rate limiting and progress tracking.
//
// Individual failures are recorded in the result and do not stop the run. Only cancellation of ctx
// is returned as an error, along with the partial result.
func (e *LyricsEngine) BulkResolve(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	songs []models.Song,
	opts BulkResolveOpts,
) (*BulkResolveResult, error) {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 16 {
		opts.NumWorkers = 16
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	result := &BulkResolveResult{
		Total:   len(songs),
		Results: make([]SongResult, len(songs)),
	}
	for i, song := range songs {
		result.Results[i].Song = song
	}
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	sendProgress(prog, bulkStartedUpdate(len(songs), opts.NumWorkers))

	var (
		mu        sync.Mutex
		completed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.NumWorkers)

	for i, song := range songs {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}

			res, err := e.Resolve(gctx, song, ResolveOpts{NoCache: opts.NoCache}, nil)
			sr := SongResult{Song: song, Result: res, Err: err}
			if res != nil {
				sr.Accepted = res.Session.Accepted
			}

			mu.Lock()
			defer mu.Unlock()
			result.Results[i] = sr
			completed++
			if sr.Success() {
				result.Succeeded++
				if res.Cached {
					result.Cached++
				}
				sendProgress(prog, bulkCompletedUpdate(completed, len(songs), song, sr.Accepted))
			} else {
				result.Failed++
				sendProgress(prog, bulkFailedUpdate(completed, len(songs), song, err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}
