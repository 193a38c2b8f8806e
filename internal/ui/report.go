package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/tasks"
)

// Status renders a resolution status with its color.
func (p *Palette) Status(s models.ResolutionStatus) string {
	switch s {
	case models.ResolutionCompleted, models.ResolutionCached:
		return p.OK(string(s))
	case models.ResolutionFailed:
		return p.Err(string(s))
	case models.ResolutionAborted, models.ResolutionPending:
		return p.Warn(string(s))
	default:
		return string(s)
	}
}

// WatchProgress prints every update from ch to w until ch is closed, then closes done.
func WatchProgress(w io.Writer, p *Palette, ch <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for u := range ch {
		msg := u.Message
		switch {
		case strings.Contains(msg, "✗"):
			msg = p.Err(msg)
		case strings.Contains(msg, "✓"), u.Phase == tasks.Resolved:
			msg = p.OK(msg)
		case u.Phase == tasks.LookupCache || u.Phase == tasks.RecordHistory:
			msg = p.Help(msg)
		}
		fmt.Fprintln(w, msg)
	}
}

// ResolveSummary writes a short report for a single resolution.
func ResolveSummary(w io.Writer, p *Palette, r *tasks.ResolveResult) {
	fmt.Fprintln(w, p.Title(r.Song.String()))
	status := r.Session.Status
	if r.Cached {
		status = models.ResolutionCached
	}
	fmt.Fprintf(w, "  status:   %s\n", p.Status(status))
	if !r.Cached {
		fmt.Fprintf(w, "  session:  %s\n", r.Session.ID)
		fmt.Fprintf(w, "  rounds:   %d\n", r.Session.Rounds)
	}
	fmt.Fprintf(w, "  payloads: %d\n", len(r.Lyrics))
	if r.Session.Err != nil {
		fmt.Fprintf(w, "  error:    %s\n", p.Err(r.Session.Error()))
	}
}

// BulkSummary writes totals and the failures of a bulk resolution.
func BulkSummary(w io.Writer, p *Palette, r *tasks.BulkResolveResult) {
	fmt.Fprintln(w, p.Title("Bulk resolution"))
	fmt.Fprintf(w, "  total:     %d\n", r.Total)
	fmt.Fprintf(w, "  succeeded: %s\n", p.OK(fmt.Sprint(r.Succeeded)))
	fmt.Fprintf(w, "  cached:    %d\n", r.Cached)
	if r.Failed == 0 {
		fmt.Fprintf(w, "  failed:    %d\n", r.Failed)
		return
	}
	fmt.Fprintf(w, "  failed:    %s\n", p.Err(fmt.Sprint(r.Failed)))
	for _, sr := range r.Results {
		if sr.Success() {
			continue
		}
		reason := "no lyrics accepted"
		if sr.Err != nil {
			reason = sr.Err.Error()
		}
		fmt.Fprintf(w, "    %s %s: %s\n", p.Err("✗"), sr.Song, reason)
	}
}
