package ttplayer

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/session"
	"github.com/desertthunder/lrcx/internal/shared"
)

var (
	ErrNoCandidates    = fmt.Errorf("%w: no lyric candidates", shared.ErrLyricsNotFound)
	ErrReplyCount      = fmt.Errorf("unexpected discovery reply count")
	ErrUnexpectedRound = fmt.Errorf("unexpected round")
)

// errorMarker appears in retrieval bodies the provider rejected.
var errorMarker = []byte("errmsg")

// Persister stores accepted lyric payloads.
type Persister interface {
	Persist(ctx context.Context, lyrics models.Lyrics) error
}

// DownloaderOpts configures a [Downloader].
type DownloaderOpts struct {
	Mirrors   []string // Discovery hosts (default: [DefaultMirrors])
	Persister Persister
	Logger    *log.Logger
}

// Downloader implements [session.Processor] for the TTPlayer mirrors.
type Downloader struct {
	mirrors   []string
	persister Persister
	logger    *log.Logger
}

// NewDownloader creates a [Downloader].
func NewDownloader(opts DownloaderOpts) *Downloader {
	if len(opts.Mirrors) == 0 {
		opts.Mirrors = DefaultMirrors
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Downloader{
		mirrors:   append([]string(nil), opts.Mirrors...),
		persister: opts.Persister,
		logger:    shared.WithLogger(opts.Logger, "provider", Name),
	}
}

func (d *Downloader) Name() string { return Name }

// Mirrors returns the discovery hosts
func (d *Downloader) Mirrors() []string {
	return append([]string(nil), d.mirrors...)
}

// Initial issues one discovery request per mirror, tagged with the mirror host.
func (d *Downloader) Initial(song models.Song) []session.Request {
	reqs := make([]session.Request, 0, len(d.mirrors))
	for _, host := range d.mirrors {
		reqs = append(reqs, session.Request{URL: DiscoveryURL(host, song), Tag: host})
	}
	return reqs
}

// Process handles discovery replies in round 1 and payloads in round 2.
func (d *Downloader) Process(ctx context.Context, info session.Info, replies []session.Reply) session.Outcome {
	switch info.Round {
	case 1:
		return d.discover(info, replies)
	case 2:
		return d.retrieve(ctx, info, replies)
	default:
		return session.Fail(fmt.Errorf("%w: %d", ErrUnexpectedRound, info.Round))
	}
}

// discover turns mirror search results into one retrieval request per candidate.
func (d *Downloader) discover(info session.Info, replies []session.Reply) session.Outcome {
	logger := shared.WithLogger(d.logger, "session", info.Session)

	if len(replies) != len(d.mirrors) {
		return session.Fail(fmt.Errorf("%w: got %d, want %d", ErrReplyCount, len(replies), len(d.mirrors)))
	}

	var reqs []session.Request
	for _, reply := range replies {
		host, _ := reply.Tag.(string)
		candidates, skipped, err := ParseCandidates(reply.Body, host)
		if err != nil {
			logger.Debug("discovery reply ignored", "host", host, "err", err)
			continue
		}
		if skipped > 0 {
			logger.Debug("candidates with invalid ids skipped", "host", host, "count", skipped)
		}

		for _, c := range candidates {
			reqs = append(reqs, session.Request{
				URL: RetrievalURL(c.Host, c.WireID(), CandidateToken(c)),
				Tag: c,
			})
		}
	}

	if len(reqs) == 0 {
		return session.Fail(fmt.Errorf("%w: %s", ErrNoCandidates, info.Song))
	}

	logger.Info("candidates found", "song", info.Song.String(), "count", len(reqs))
	return session.Advance(reqs)
}

// retrieve stores every usable payload and completes the session.
func (d *Downloader) retrieve(ctx context.Context, info session.Info, replies []session.Reply) session.Outcome {
	logger := shared.WithLogger(d.logger, "session", info.Session)

	accepted := 0
	for _, reply := range replies {
		if !Usable(reply.Body) {
			logger.Debug("payload skipped", "bytes", len(reply.Body))
			continue
		}

		c, ok := reply.Tag.(models.Candidate)
		if !ok {
			logger.Warn("payload without candidate tag skipped")
			continue
		}

		if d.persister == nil {
			accepted++
			continue
		}

		err := d.persister.Persist(ctx, models.Lyrics{
			SessionID: info.Session.String(),
			Source:    Name,
			Title:     c.Title,
			Artist:    c.Artist,
			Content:   string(reply.Body),
		})
		if err != nil {
			logger.Warn("failed to persist lyrics", "title", c.Title, "artist", c.Artist, "err", err)
			continue
		}
		accepted++
	}

	logger.Info("payloads retrieved", "accepted", accepted, "replies", len(replies))
	return session.Complete(accepted)
}

// Usable reports whether a retrieval body holds lyrics rather than nothing or a provider error.
func Usable(body []byte) bool {
	return len(body) > 0 && !bytes.Contains(body, errorMarker)
}
