package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/shared"
)

const lyricsColumns = `id, sequence, session_id, source, title, artist, content, checksum, created_at, updated_at, deleted_at`

// LyricsRepository implements models.Repository[*models.PersistedLyrics].
//
// Payloads are soft deleted and unique per (source, title, artist, checksum) among live rows.
type LyricsRepository struct {
	db *sql.DB
}

// NewLyricsRepository creates a new LyricsRepository with the given database connection
func NewLyricsRepository(db *sql.DB) *LyricsRepository {
	return &LyricsRepository{db: db}
}

// Create inserts a new [models.PersistedLyrics] into the database with generated ID and sequence
func (r *LyricsRepository) Create(lyrics *models.PersistedLyrics) error {
	sequence, err := NextSequence(r.db, "lyrics")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	lyrics.SetID(id)
	lyrics.SetSequence(sequence)

	if err := lyrics.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO lyrics (id, sequence, session_id, source, title, artist, content, checksum, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		lyrics.SessionID(),
		lyrics.Source(),
		lyrics.Title(),
		lyrics.Artist(),
		lyrics.Content(),
		lyrics.Checksum(),
		lyrics.CreatedAt(),
		lyrics.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert lyrics: %w", err)
	}

	return nil
}

// Get retrieves lyrics by ID, excluding soft-deleted rows
func (r *LyricsRepository) Get(id string) (*models.PersistedLyrics, error) {
	query := `SELECT ` + lyricsColumns + ` FROM lyrics WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByChecksum retrieves the live row holding an identical payload, if any
func (r *LyricsRepository) GetByChecksum(source, title, artist, checksum string) (*models.PersistedLyrics, error) {
	query := `
		SELECT ` + lyricsColumns + `
		FROM lyrics
		WHERE source = ? AND title = ? AND artist = ? AND checksum = ? AND deleted_at IS NULL
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(query, source, title, artist, checksum))
}

// FindBySong returns every live payload for the song, matching artist and title without regard to ASCII case
func (r *LyricsRepository) FindBySong(song models.Song) ([]*models.PersistedLyrics, error) {
	return r.List(map[string]any{"artist": song.Artist, "title": song.Title})
}

// Update replaces the content of existing lyrics
func (r *LyricsRepository) Update(lyrics *models.PersistedLyrics) error {
	if err := lyrics.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	lyrics.SetUpdatedAt(now)

	query := `
		UPDATE lyrics
		SET title = ?, artist = ?, content = ?, checksum = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		lyrics.Title(),
		lyrics.Artist(),
		lyrics.Content(),
		lyrics.Checksum(),
		now,
		lyrics.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update lyrics: %w", err)
	}

	return expectAffected(result, shared.ErrLyricsNotFound, lyrics.ID())
}

// Delete soft-deletes lyrics by ID
func (r *LyricsRepository) Delete(id string) error {
	query := `
		UPDATE lyrics
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete lyrics: %w", err)
	}

	return expectAffected(result, shared.ErrLyricsNotFound, id)
}

// List retrieves lyrics matching the given criteria, excluding soft-deleted rows.
//
// Supported criteria: "source", "session_id", "artist", "title" (strings) and "limit" (int).
func (r *LyricsRepository) List(criteria map[string]any) ([]*models.PersistedLyrics, error) {
	query := `SELECT ` + lyricsColumns + ` FROM lyrics WHERE deleted_at IS NULL`
	args := []any{}

	if source, ok := criteria["source"].(string); ok && source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}

	if sessionID, ok := criteria["session_id"].(string); ok && sessionID != "" {
		query += " AND session_id = ?"
		args = append(args, sessionID)
	}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND lower(artist) = lower(?)"
		args = append(args, artist)
	}

	if title, ok := criteria["title"].(string); ok && title != "" {
		query += " AND lower(title) = lower(?)"
		args = append(args, title)
	}

	query += " ORDER BY sequence ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lyrics: %w", err)
	}
	defer rows.Close()

	var out []*models.PersistedLyrics
	for rows.Next() {
		lyrics, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, lyrics)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}

// scanOne scans a single [sql.Row] into a [models.PersistedLyrics]
func (r *LyricsRepository) scanOne(row *sql.Row) (*models.PersistedLyrics, error) {
	lyrics, err := r.scan(row)
	if err == sql.ErrNoRows {
		return nil, shared.ErrLyricsNotFound
	}
	return lyrics, err
}

// scan reads one row from either [sql.Row] or [sql.Rows]
func (r *LyricsRepository) scan(s scanner) (*models.PersistedLyrics, error) {
	var (
		id        string
		sequence  int
		sessionID string
		source    string
		title     string
		artist    string
		content   string
		checksum  string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := s.Scan(&id, &sequence, &sessionID, &source, &title, &artist, &content, &checksum, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan lyrics: %w", err)
	}

	lyrics := models.NewPersistedLyrics(sequence, sessionID, source, title, artist, content)
	lyrics.SetID(id)
	lyrics.SetCreatedAt(createdAt)
	lyrics.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		lyrics.SetDeletedAt(&deletedAt.Time)
	}
	if lyrics.Checksum() != checksum {
		return nil, fmt.Errorf("lyrics %s checksum mismatch", id)
	}

	return lyrics, nil
}
