package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/server"
	"github.com/desertthunder/lrcx/internal/shared"
	"github.com/desertthunder/lrcx/internal/tasks"
	"github.com/desertthunder/lrcx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Fetch resolves lyrics for one song and prints a summary.
func (r *Runner) Fetch(ctx context.Context, cmd *cli.Command) error {
	song := models.Song{Artist: cmd.String("artist"), Title: cmd.String("title")}
	if err := song.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	engine, err := r.services()
	if err != nil {
		return err
	}

	jsonOutput := cmd.Bool("json")
	progress := make(chan tasks.ProgressUpdate, 8)
	done := make(chan struct{})
	if jsonOutput {
		go func() {
			defer close(done)
			for range progress {
			}
		}()
	} else {
		go ui.WatchProgress(r.output, r.palette, progress, done)
	}

	result, err := engine.Resolve(ctx, song, tasks.ResolveOpts{NoCache: cmd.Bool("no-cache")}, progress)
	close(progress)
	<-done

	if err != nil && !errors.Is(err, shared.ErrLyricsNotFound) {
		return fmt.Errorf("failed to resolve %s: %w", song, err)
	}

	if jsonOutput {
		return r.writeJSON(server.NewResolveResponse(result, err), cmd.Bool("pretty"))
	}

	r.writePlain("\n")
	ui.ResolveSummary(r.output, r.palette, result)
	if errors.Is(err, shared.ErrLyricsNotFound) {
		r.writePlainln("%s", r.palette.Warn("No lyrics found for "+song.String()))
		return nil
	}

	if cmd.Bool("print") && len(result.Lyrics) > 0 {
		r.writePlainln("%s", strings.TrimRight(result.Lyrics[0].Content, "\n"))
	}
	return nil
}

// Batch resolves every song in a CSV file concurrently.
func (r *Runner) Batch(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to a CSV file is required", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open song list: %w", err)
	}
	defer f.Close()

	songs, err := readSongs(f)
	if err != nil {
		return err
	}
	if len(songs) == 0 {
		return fmt.Errorf("%w: %s lists no songs", shared.ErrInvalidInput, path)
	}

	engine, err := r.services()
	if err != nil {
		return err
	}

	jsonOutput := cmd.Bool("json")
	progress := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	if jsonOutput {
		go func() {
			defer close(done)
			for range progress {
			}
		}()
	} else {
		r.writePlainHeader(fmt.Sprintf("Resolving %d songs via %s", len(songs), engine.Provider()))
		go ui.WatchProgress(r.output, r.palette, progress, done)
	}

	result, err := engine.BulkResolve(ctx, progress, songs, tasks.BulkResolveOpts{
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
		NoCache:    cmd.Bool("no-cache"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if jsonOutput {
		return r.writeJSON(bulkJSON(result), true)
	}
	r.writePlain("\n")
	ui.BulkSummary(r.output, r.palette, result)
	return nil
}

// readSongs parses "artist,title" rows. A header row naming those columns is skipped,
// as are blank rows.
func readSongs(in io.Reader) ([]models.Song, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var songs []models.Song
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("%w: line %d: expected artist,title", shared.ErrInvalidInput, line)
		}
		if line == 1 && strings.EqualFold(record[0], "artist") && strings.EqualFold(record[1], "title") {
			continue
		}

		song := models.Song{Artist: strings.TrimSpace(record[0]), Title: strings.TrimSpace(record[1])}
		if err := song.Validate(); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", shared.ErrInvalidInput, line, err)
		}
		songs = append(songs, song)
	}
	return songs, nil
}

type bulkSongJSON struct {
	Artist   string `json:"artist"`
	Title    string `json:"title"`
	Accepted int    `json:"accepted"`
	Cached   bool   `json:"cached"`
	Session  string `json:"session_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

type bulkResultJSON struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Cached    int            `json:"cached"`
	Songs     []bulkSongJSON `json:"songs"`
}

func bulkJSON(r *tasks.BulkResolveResult) bulkResultJSON {
	out := bulkResultJSON{
		Total:     r.Total,
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
		Cached:    r.Cached,
		Songs:     make([]bulkSongJSON, 0, len(r.Results)),
	}
	for _, sr := range r.Results {
		s := bulkSongJSON{Artist: sr.Song.Artist, Title: sr.Song.Title, Accepted: sr.Accepted}
		if sr.Result != nil {
			s.Cached = sr.Result.Cached
			s.Session = sr.Result.Session.ID.String()
		}
		if sr.Err != nil {
			s.Error = sr.Err.Error()
		}
		out.Songs = append(out.Songs, s)
	}
	return out
}
