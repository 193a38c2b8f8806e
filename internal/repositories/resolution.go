package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/shared"
)

const resolutionColumns = `id, sequence, session_id, source, artist, title, status, rounds, accepted, error_message,
	started_at, completed_at, created_at, updated_at, deleted_at`

// ResolutionRepository implements models.Repository[*models.Resolution] for resolution history.
//
// Handles resolution CRUD operations with soft delete support and status-based queries.
type ResolutionRepository struct {
	db *sql.DB
}

// NewResolutionRepository creates a new ResolutionRepository with the given database connection
func NewResolutionRepository(db *sql.DB) *ResolutionRepository {
	return &ResolutionRepository{db: db}
}

// Create inserts a new resolution into the database with generated ID and sequence
func (r *ResolutionRepository) Create(res *models.Resolution) error {
	sequence, err := NextSequence(r.db, "resolutions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	res.SetID(id)
	res.SetSequence(sequence)

	if err := res.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO resolutions (
			id, sequence, session_id, source, artist, title, status, rounds, accepted,
			error_message, started_at, completed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	song := res.Song()
	_, err = r.db.Exec(query,
		id,
		sequence,
		res.SessionID(),
		res.Source(),
		song.Artist,
		song.Title,
		string(res.Status()),
		res.Rounds(),
		res.Accepted(),
		res.ErrorMessage(),
		res.StartedAt(),
		nullTime(res.CompletedAt()),
		res.CreatedAt(),
		res.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert resolution: %w", err)
	}

	return nil
}

// Get retrieves a resolution by ID
func (r *ResolutionRepository) Get(id string) (*models.Resolution, error) {
	query := `SELECT ` + resolutionColumns + ` FROM resolutions WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetBySession retrieves the resolution recorded for a session
func (r *ResolutionRepository) GetBySession(sessionID string) (*models.Resolution, error) {
	query := `SELECT ` + resolutionColumns + ` FROM resolutions WHERE session_id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, sessionID))
}

// Update modifies the outcome fields of an existing resolution
func (r *ResolutionRepository) Update(res *models.Resolution) error {
	if err := res.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	res.SetUpdatedAt(now)

	query := `
		UPDATE resolutions
		SET status = ?, rounds = ?, accepted = ?, error_message = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		string(res.Status()),
		res.Rounds(),
		res.Accepted(),
		res.ErrorMessage(),
		nullTime(res.CompletedAt()),
		now,
		res.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update resolution: %w", err)
	}

	return expectAffected(result, shared.ErrResolutionNotFound, res.ID())
}

// Delete soft-deletes a resolution by ID
func (r *ResolutionRepository) Delete(id string) error {
	query := `
		UPDATE resolutions
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete resolution: %w", err)
	}

	return expectAffected(result, shared.ErrResolutionNotFound, id)
}

// List retrieves resolutions newest first.
//
// Supported criteria: "status" ([models.ResolutionStatus] or string), "artist", "title" and "limit" (int).
func (r *ResolutionRepository) List(criteria map[string]any) ([]*models.Resolution, error) {
	query := `SELECT ` + resolutionColumns + ` FROM resolutions WHERE deleted_at IS NULL`
	args := []any{}

	switch status := criteria["status"].(type) {
	case models.ResolutionStatus:
		if status != "" {
			query += " AND status = ?"
			args = append(args, string(status))
		}
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND lower(artist) = lower(?)"
		args = append(args, artist)
	}

	if title, ok := criteria["title"].(string); ok && title != "" {
		query += " AND lower(title) = lower(?)"
		args = append(args, title)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	var out []*models.Resolution
	for rows.Next() {
		res, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}

// scanOne scans a single [sql.Row] into a [models.Resolution]
func (r *ResolutionRepository) scanOne(row *sql.Row) (*models.Resolution, error) {
	res, err := r.scan(row)
	if err == sql.ErrNoRows {
		return nil, shared.ErrResolutionNotFound
	}
	return res, err
}

func (r *ResolutionRepository) scan(s scanner) (*models.Resolution, error) {
	var (
		id           string
		sequence     int
		sessionID    string
		source       string
		artist       string
		title        string
		status       string
		rounds       int
		accepted     int
		errorMessage string
		startedAt    time.Time
		completedAt  sql.NullTime
		createdAt    time.Time
		updatedAt    time.Time
		deletedAt    sql.NullTime
	)

	err := s.Scan(&id, &sequence, &sessionID, &source, &artist, &title, &status, &rounds, &accepted, &errorMessage,
		&startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan resolution: %w", err)
	}

	res := models.NewResolution(sequence, sessionID, source, models.Song{Artist: artist, Title: title})
	res.SetID(id)
	res.Restore(models.ResolutionStatus(status), rounds, accepted, errorMessage)
	res.SetStartedAt(startedAt)
	res.SetCreatedAt(createdAt)
	res.SetUpdatedAt(updatedAt)
	if completedAt.Valid {
		res.SetCompletedAt(&completedAt.Time)
	}
	if deletedAt.Valid {
		res.SetDeletedAt(&deletedAt.Time)
	}

	return res, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
