package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/lrcx/internal/formatter"
	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/server"
	"github.com/desertthunder/lrcx/internal/shared"
	"github.com/urfave/cli/v3"
)

func songCriteria(cmd *cli.Command) map[string]any {
	criteria := map[string]any{}
	if v := cmd.String("artist"); v != "" {
		criteria["artist"] = v
	}
	if v := cmd.String("title"); v != "" {
		criteria["title"] = v
	}
	return criteria
}

// LyricsList prints stored payloads.
func (r *Runner) LyricsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.database(); err != nil {
		return err
	}

	criteria := songCriteria(cmd)
	criteria["limit"] = int(cmd.Int("limit"))

	lyrics, err := r.lyrics.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]server.LyricsResponse, 0, len(lyrics))
		for _, l := range lyrics {
			out = append(out, server.NewLyricsResponse(l))
		}
		return r.writeJSON(out, true)
	}

	if len(lyrics) == 0 {
		return r.writePlain("No stored lyrics.\n")
	}

	tw := tabwriter.NewWriter(r.output, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEQ\tARTIST\tTITLE\tLINES\tCREATED")
	for _, l := range lyrics {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%s\n",
			l.ID(), l.Sequence(), l.Artist(), l.Title(),
			strings.Count(l.Content(), "\n")+1, l.CreatedAt().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

// LyricsShow prints one stored payload in the requested format.
func (r *Runner) LyricsShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: lyrics ID is required", shared.ErrMissingArgument)
	}
	if err := r.database(); err != nil {
		return err
	}

	l, err := r.lyrics.Get(id)
	if err != nil {
		return err
	}

	data, err := formatter.Render(l, cmd.String("format"))
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		return r.writePlain("\n")
	}
	return nil
}

// LyricsExport writes stored payloads to files in the output directory.
func (r *Runner) LyricsExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.database(); err != nil {
		return err
	}

	lyrics, err := r.lyrics.List(songCriteria(cmd))
	if err != nil {
		return err
	}
	if len(lyrics) == 0 {
		return r.writePlain("Nothing to export.\n")
	}

	format := cmd.String("format")
	outputDir := cmd.String("output")

	var files []string
	if format == "csv" {
		data, err := formatter.ExportToCSV(lyrics)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		path := filepath.Join(outputDir, "lyrics.csv")
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		files = append(files, path)
	} else if files, err = formatter.WriteLyricsExport(lyrics, format, outputDir); err != nil {
		return err
	}

	r.logger.Info("exported lyrics", "files", len(files), "dir", outputDir)
	r.writePlain("%s Exported %d file(s) to %s\n", r.palette.OK("✓"), len(files), outputDir)
	for _, f := range files {
		r.writePlain("  %s\n", f)
	}
	return nil
}

// LyricsDelete soft-deletes a stored payload.
func (r *Runner) LyricsDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: lyrics ID is required", shared.ErrMissingArgument)
	}
	if err := r.database(); err != nil {
		return err
	}
	if err := r.lyrics.Delete(id); err != nil {
		return err
	}
	return r.writePlain("%s Deleted %s\n", r.palette.OK("✓"), id)
}

// History prints past resolution sessions, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if status := cmd.String("status"); status != "" {
		criteria["status"] = models.ResolutionStatus(status)
	}

	format := cmd.String("format")
	switch format {
	case "table", "json", "csv":
	default:
		return fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, format)
	}

	if err := r.database(); err != nil {
		return err
	}
	rows, err := r.history.List(criteria)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		out := make([]server.ResolutionResponse, 0, len(rows))
		for _, res := range rows {
			out = append(out, server.NewResolutionResponse(res))
		}
		return r.writeJSON(out, true)
	case "csv":
		data, err := formatter.HistoryToCSV(rows)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	if len(rows) == 0 {
		return r.writePlain("No resolutions recorded.\n")
	}

	tw := tabwriter.NewWriter(r.output, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSONG\tSTATUS\tROUNDS\tACCEPTED\tDURATION")
	for _, res := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			res.SessionID(), res.Song(), r.palette.Status(res.Status()),
			res.Rounds(), res.Accepted(), res.Duration().Round(time.Millisecond))
	}
	return tw.Flush()
}
