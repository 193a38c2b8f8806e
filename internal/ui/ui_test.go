package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/session"
	"github.com/desertthunder/lrcx/internal/tasks"
)

func TestPalette(t *testing.T) {
	t.Run("Plain Leaves Text Unchanged", func(t *testing.T) {
		for _, got := range []string{Plain.Title("x"), Plain.OK("x"), Plain.Err("x"), Plain.Warn("x"), Plain.Help("x")} {
			if got != "x" {
				t.Errorf("got %q, want %q", got, "x")
			}
		}
	})

	t.Run("Nil Palette Is Plain", func(t *testing.T) {
		var p *Palette
		if got := p.OK("x"); got != "x" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("Status", func(t *testing.T) {
		if got := Plain.Status(models.ResolutionAborted); got != "aborted" {
			t.Errorf("Status() = %q", got)
		}
		if !strings.Contains(Default.Status(models.ResolutionFailed), "failed") {
			t.Error("styled status should keep its text")
		}
	})
}

func TestWatchProgress(t *testing.T) {
	var buf bytes.Buffer
	ch := make(chan tasks.ProgressUpdate, 3)
	done := make(chan struct{})
	ch <- tasks.ProgressUpdate{Phase: tasks.LookupCache, Message: "Checking cache"}
	ch <- tasks.ProgressUpdate{Phase: tasks.BulkResolve, Message: "[1/2] ✓ A - B"}
	ch <- tasks.ProgressUpdate{Phase: tasks.BulkResolve, Message: "[2/2] ✗ C - D"}
	close(ch)

	WatchProgress(&buf, Plain, ch, done)
	<-done

	want := "Checking cache\n[1/2] ✓ A - B\n[2/2] ✗ C - D\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestSummaries(t *testing.T) {
	song := models.Song{Artist: "Beyond", Title: "海阔天空"}

	t.Run("Resolve", func(t *testing.T) {
		var buf bytes.Buffer
		ResolveSummary(&buf, Plain, &tasks.ResolveResult{
			Song:    song,
			Session: session.Result{ID: "s-3", Status: models.ResolutionCompleted, Rounds: 2, Accepted: 1},
			Lyrics:  []models.Lyrics{{Content: "[00:01.00]x"}},
		})
		out := buf.String()
		for _, want := range []string{"Beyond - 海阔天空", "status:   completed", "session:  s-3", "rounds:   2", "payloads: 1"} {
			if !strings.Contains(out, want) {
				t.Errorf("summary missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("Cached", func(t *testing.T) {
		var buf bytes.Buffer
		ResolveSummary(&buf, Plain, &tasks.ResolveResult{Song: song, Cached: true})
		if !strings.Contains(buf.String(), "status:   cached") || strings.Contains(buf.String(), "rounds") {
			t.Errorf("unexpected cached summary:\n%s", buf.String())
		}
	})

	t.Run("Bulk Lists Failures", func(t *testing.T) {
		var buf bytes.Buffer
		BulkSummary(&buf, Plain, &tasks.BulkResolveResult{
			Total: 3, Succeeded: 1, Failed: 2,
			Results: []tasks.SongResult{
				{Song: song, Accepted: 1},
				{Song: models.Song{Artist: "A", Title: "B"}, Err: errors.New("boom")},
				{Song: models.Song{Artist: "C", Title: "D"}},
			},
		})
		out := buf.String()
		for _, want := range []string{"failed:    2", "✗ A - B: boom", "✗ C - D: no lyrics accepted"} {
			if !strings.Contains(out, want) {
				t.Errorf("summary missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "✗ Beyond") {
			t.Error("successful songs should not be listed")
		}
	})
}
