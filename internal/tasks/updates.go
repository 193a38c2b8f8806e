package tasks

import (
	"fmt"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/session"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LookupCache Phase = iota
	ResolveLyrics
	RecordHistory
	Resolved
	BulkResolve
)

func (p Phase) String() string {
	switch p {
	case LookupCache:
		return "lookup_cache"
	case ResolveLyrics:
		return "resolve_lyrics"
	case RecordHistory:
		return "record_history"
	case Resolved:
		return "resolved"
	case BulkResolve:
		return "bulk_resolve"
	default:
		return ""
	}
}

func cacheLookupUpdate(step, total int, song models.Song) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LookupCache,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Checking cache for %s...", song),
	}
}

func resolvingUpdate(step, total int, song models.Song, provider string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveLyrics,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Searching %s for %s...", provider, song),
	}
}

func recordingUpdate(step, total int, res session.Result) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordHistory,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Session %s %s after %d rounds", res.ID, res.Status, res.Rounds),
		Data:    res,
	}
}

func resolvedUpdate(step, total int, result *ResolveResult) ProgressUpdate {
	source := "provider"
	if result.Cached {
		source = "cache"
	}
	return ProgressUpdate{
		Phase:   Resolved,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("%s: %d payloads from %s", result.Song, len(result.Lyrics), source),
		Data:    result,
	}
}

func bulkStartedUpdate(total, workers int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BulkResolve,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Resolving %d songs with %d workers...", total, workers),
	}
}

func bulkCompletedUpdate(step, total int, song models.Song, accepted int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BulkResolve,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d payloads)", step, total, song, accepted),
	}
}

func bulkFailedUpdate(step, total int, song models.Song, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BulkResolve,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, song, err),
	}
}
