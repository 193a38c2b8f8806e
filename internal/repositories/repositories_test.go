package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newLyrics(title, artist, content string) *models.PersistedLyrics {
	return models.NewPersistedLyrics(0, "session-1", "TTPlayer", title, artist, content)
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "lyrics")
		if err != nil {
			t.Fatalf("NextSequence() error = %v", err)
		}
		if got != want {
			t.Errorf("NextSequence() = %d, want %d", got, want)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for unknown sequence table")
	}
}

func TestLyricsRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewLyricsRepository(setupTestDB(t))
		lyrics := newLyrics("Song", "Test", "[00:01.00]hello")

		if err := repo.Create(lyrics); err != nil {
			t.Fatalf("failed to create lyrics: %v", err)
		}
		if lyrics.ID() == "" {
			t.Error("lyrics ID should be set after creation")
		}
		if lyrics.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", lyrics.Sequence())
		}
	})

	t.Run("Create Validation", func(t *testing.T) {
		repo := NewLyricsRepository(setupTestDB(t))
		if err := repo.Create(newLyrics("Song", "Test", "")); err == nil {
			t.Error("expected validation error for empty content")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewLyricsRepository(setupTestDB(t))
		lyrics := newLyrics("晴天", "周杰伦", "[00:01.00]故事的小黄花")
		if err := repo.Create(lyrics); err != nil {
			t.Fatalf("failed to create lyrics: %v", err)
		}

		got, err := repo.Get(lyrics.ID())
		if err != nil {
			t.Fatalf("failed to get lyrics: %v", err)
		}
		if got.Title() != "晴天" || got.Artist() != "周杰伦" || got.Content() != lyrics.Content() {
			t.Errorf("unexpected lyrics %+v", got)
		}
		if got.Checksum() != lyrics.Checksum() || got.SessionID() != "session-1" {
			t.Error("checksum and session should round trip")
		}

		if _, err := repo.Get("missing"); !errors.Is(err, shared.ErrLyricsNotFound) {
			t.Errorf("expected ErrLyricsNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewLyricsRepository(setupTestDB(t))
		lyrics := newLyrics("Song", "Test", "v1")
		if err := repo.Create(lyrics); err != nil {
			t.Fatal(err)
		}

		lyrics.SetContent("v2")
		if err := repo.Update(lyrics); err != nil {
			t.Fatalf("failed to update lyrics: %v", err)
		}

		got, err := repo.Get(lyrics.ID())
		if err != nil {
			t.Fatal(err)
		}
		if got.Content() != "v2" || got.Checksum() != models.Checksum("v2") {
			t.Errorf("update not persisted: %q", got.Content())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewLyricsRepository(setupTestDB(t))
		lyrics := newLyrics("Song", "Test", "x")
		if err := repo.Create(lyrics); err != nil {
			t.Fatal(err)
		}

		if err := repo.Delete(lyrics.ID()); err != nil {
			t.Fatalf("failed to delete lyrics: %v", err)
		}
		if _, err := repo.Get(lyrics.ID()); !errors.Is(err, shared.ErrLyricsNotFound) {
			t.Errorf("deleted lyrics should not be found, got %v", err)
		}
		if err := repo.Delete(lyrics.ID()); !errors.Is(err, shared.ErrLyricsNotFound) {
			t.Errorf("second delete should fail with ErrLyricsNotFound, got %v", err)
		}
		if err := repo.Update(lyrics); !errors.Is(err, shared.ErrLyricsNotFound) {
			t.Errorf("update of deleted lyrics should fail, got %v", err)
		}
	})

	t.Run("List And FindBySong", func(t *testing.T) {
		repo := NewLyricsRepository(setupTestDB(t))
		for i, l := range []*models.PersistedLyrics{
			newLyrics("Song", "Test", "a"),
			newLyrics("song", "TEST", "b"),
			newLyrics("Other", "Test", "c"),
		} {
			if err := repo.Create(l); err != nil {
				t.Fatalf("create %d: %v", i, err)
			}
		}

		all, err := repo.List(nil)
		if err != nil || len(all) != 3 {
			t.Fatalf("List() = %d rows, %v", len(all), err)
		}
		if all[0].Sequence() > all[1].Sequence() {
			t.Error("List should order by sequence")
		}

		found, err := repo.FindBySong(models.Song{Artist: "test", Title: "SONG"})
		if err != nil || len(found) != 2 {
			t.Errorf("FindBySong() = %d rows, %v", len(found), err)
		}

		limited, err := repo.List(map[string]any{"limit": 1, "source": "TTPlayer"})
		if err != nil || len(limited) != 1 {
			t.Errorf("List(limit) = %d rows, %v", len(limited), err)
		}

		none, err := repo.List(map[string]any{"session_id": "other"})
		if err != nil || len(none) != 0 {
			t.Errorf("List(session_id) = %d rows, %v", len(none), err)
		}
	})
}

func TestResolutionRepository(t *testing.T) {
	song := models.Song{Artist: "Test", Title: "Song"}

	t.Run("Create And Get", func(t *testing.T) {
		repo := NewResolutionRepository(setupTestDB(t))
		res := models.NewResolution(0, "s-1", "TTPlayer", song)
		res.Finish(models.ResolutionCompleted, 2, 1, nil)

		if err := repo.Create(res); err != nil {
			t.Fatalf("failed to create resolution: %v", err)
		}

		got, err := repo.GetBySession("s-1")
		if err != nil {
			t.Fatalf("failed to get resolution: %v", err)
		}
		if got.ID() != res.ID() || got.Status() != models.ResolutionCompleted || got.Rounds() != 2 || got.Accepted() != 1 {
			t.Errorf("unexpected resolution %+v", got)
		}
		if got.CompletedAt() == nil || got.Song() != song {
			t.Error("completion time and song should round trip")
		}

		if _, err := repo.Get("missing"); !errors.Is(err, shared.ErrResolutionNotFound) {
			t.Errorf("expected ErrResolutionNotFound, got %v", err)
		}
	})

	t.Run("Duplicate Session", func(t *testing.T) {
		repo := NewResolutionRepository(setupTestDB(t))
		if err := repo.Create(models.NewResolution(0, "dup", "TTPlayer", song)); err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(models.NewResolution(0, "dup", "TTPlayer", song)); err == nil {
			t.Error("expected unique violation for repeated session id")
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewResolutionRepository(setupTestDB(t))
		res := models.NewResolution(0, "s-2", "TTPlayer", song)
		if err := repo.Create(res); err != nil {
			t.Fatal(err)
		}

		res.Finish(models.ResolutionFailed, 1, 0, errors.New("no lyric candidates found"))
		if err := repo.Update(res); err != nil {
			t.Fatalf("failed to update resolution: %v", err)
		}

		got, err := repo.Get(res.ID())
		if err != nil {
			t.Fatal(err)
		}
		if got.Status() != models.ResolutionFailed || got.ErrorMessage() != "no lyric candidates found" {
			t.Errorf("update not persisted: %s %q", got.Status(), got.ErrorMessage())
		}
	})

	t.Run("List And Delete", func(t *testing.T) {
		repo := NewResolutionRepository(setupTestDB(t))
		statuses := []models.ResolutionStatus{models.ResolutionCompleted, models.ResolutionFailed, models.ResolutionCompleted}
		var ids []string
		for i, st := range statuses {
			res := models.NewResolution(0, fmt.Sprintf("s-%d", i), "TTPlayer", song)
			res.Finish(st, 2, 0, nil)
			if err := repo.Create(res); err != nil {
				t.Fatal(err)
			}
			ids = append(ids, res.ID())
		}

		all, err := repo.List(nil)
		if err != nil || len(all) != 3 {
			t.Fatalf("List() = %d, %v", len(all), err)
		}
		if all[0].ID() != ids[2] {
			t.Error("List should return newest first")
		}

		completed, err := repo.List(map[string]any{"status": models.ResolutionCompleted})
		if err != nil || len(completed) != 2 {
			t.Errorf("List(status) = %d, %v", len(completed), err)
		}
		failed, err := repo.List(map[string]any{"status": "failed", "artist": "TEST"})
		if err != nil || len(failed) != 1 {
			t.Errorf("List(status string) = %d, %v", len(failed), err)
		}

		if err := repo.Delete(ids[0]); err != nil {
			t.Fatalf("failed to delete resolution: %v", err)
		}
		remaining, _ := repo.List(map[string]any{"limit": 10})
		if len(remaining) != 2 {
			t.Errorf("expected 2 remaining, got %d", len(remaining))
		}
	})
}

func TestLyricsStoreAdapter(t *testing.T) {
	t.Run("Deduplicates Identical Payloads", func(t *testing.T) {
		repo := NewLyricsRepository(setupTestDB(t))
		adapter := NewLyricsStoreAdapter(repo)
		lyrics := models.Lyrics{SessionID: "s", Source: "TTPlayer", Title: "Song", Artist: "Test", Content: "[00:01.00]a"}

		for range 3 {
			if err := adapter.Persist(context.Background(), lyrics); err != nil {
				t.Fatalf("Persist() error = %v", err)
			}
		}

		lyrics.Content = "[00:01.00]b"
		if err := adapter.Persist(context.Background(), lyrics); err != nil {
			t.Fatalf("Persist() error = %v", err)
		}

		stored, _ := repo.List(nil)
		if len(stored) != 2 {
			t.Errorf("expected 2 distinct payloads, got %d", len(stored))
		}
	})

	t.Run("Concurrent Persist", func(t *testing.T) {
		repo := NewLyricsRepository(setupTestDB(t))
		adapter := NewLyricsStoreAdapter(repo)
		lyrics := models.Lyrics{SessionID: "s", Source: "TTPlayer", Title: "Song", Artist: "Test", Content: "same"}

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- adapter.Persist(context.Background(), lyrics)
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			if err != nil {
				t.Errorf("Persist() error = %v", err)
			}
		}
		if stored, _ := repo.List(nil); len(stored) != 1 {
			t.Errorf("expected one stored payload, got %d", len(stored))
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		adapter := NewLyricsStoreAdapter(NewLyricsRepository(setupTestDB(t)))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := adapter.Persist(ctx, models.Lyrics{Source: "x", Title: "t", Content: "c"}); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
