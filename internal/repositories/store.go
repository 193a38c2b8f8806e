package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/shared"
)

// LyricsStoreAdapter implements ttplayer.Persister using LyricsRepository.
//
// Identical payloads (same source, title, artist and content) are stored once; duplicates
// are silently ignored, including UNIQUE constraint violations from concurrent inserts.
type LyricsStoreAdapter struct {
	repo *LyricsRepository
}

// NewLyricsStoreAdapter creates a new LyricsStoreAdapter with the given repository
func NewLyricsStoreAdapter(repo *LyricsRepository) *LyricsStoreAdapter {
	return &LyricsStoreAdapter{repo: repo}
}

// Persist stores an accepted payload.
// Returns nil if the payload already exists.
func (a *LyricsStoreAdapter) Persist(ctx context.Context, lyrics models.Lyrics) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	checksum := models.Checksum(lyrics.Content)
	existing, err := a.repo.GetByChecksum(lyrics.Source, lyrics.Title, lyrics.Artist, checksum)
	if err == nil && existing != nil {
		return nil
	}
	if err != nil && !errors.Is(err, shared.ErrLyricsNotFound) {
		return fmt.Errorf("failed to look up lyrics: %w", err)
	}

	persisted := models.NewPersistedLyrics(0, lyrics.SessionID, lyrics.Source, lyrics.Title, lyrics.Artist, lyrics.Content)
	if err := a.repo.Create(persisted); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to store lyrics: %w", err)
	}

	return nil
}
