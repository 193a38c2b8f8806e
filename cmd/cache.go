package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/lrcx/internal/cache"
	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/shared"
	"github.com/urfave/cli/v3"
)

// openCache returns the configured cache, failing when caching is disabled.
func (r *Runner) openCache() (*cache.Store, error) {
	store, err := r.lyricCache()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: cache is disabled (cache.enabled = false)", shared.ErrMissingConfig)
	}
	return store, nil
}

// CacheShow prints the payloads cached for a song.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	song := models.Song{Artist: cmd.String("artist"), Title: cmd.String("title")}

	store, err := r.openCache()
	if err != nil {
		return err
	}

	lyrics, err := store.Get(song)
	switch {
	case errors.Is(err, cache.ErrMiss):
		return r.writePlain("%s %s is not cached\n", r.palette.Warn("•"), song)
	case err != nil:
		return fmt.Errorf("failed to read cache entry: %w", err)
	}

	r.writePlainHeader(fmt.Sprintf("%s (%d cached)", song, len(lyrics)))
	r.writePlain("%s\n", r.palette.Help(cache.Filename(song)))
	for i, l := range lyrics {
		r.writePlainln("[%d] %s", i+1, l.Source)
		r.writePlain("%s\n", strings.TrimRight(l.Content, "\n"))
	}
	return nil
}

// CacheDelete removes the cache entry for a song.
func (r *Runner) CacheDelete(ctx context.Context, cmd *cli.Command) error {
	song := models.Song{Artist: cmd.String("artist"), Title: cmd.String("title")}

	store, err := r.openCache()
	if err != nil {
		return err
	}
	if err := store.Delete(song); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return r.writePlain("%s Removed %s from the cache\n", r.palette.OK("✓"), song)
}

// CacheClear removes every cache entry.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openCache()
	if err != nil {
		return err
	}

	n, err := store.Clear()
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	r.logger.Info("cache cleared", "dir", store.Path(), "entries", n)
	return r.writePlain("%s Removed %d cache entries\n", r.palette.OK("✓"), n)
}
