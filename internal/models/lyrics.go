package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// PersistedLyrics represents an accepted lyric payload stored in the database.
//
// Rows are unique by (source, title, artist, checksum) so re-resolving a song does not
// duplicate identical payloads.
type PersistedLyrics struct {
	record
	sessionID string
	source    string
	title     string
	artist    string
	content   string
	checksum  string
}

// NewPersistedLyrics creates a [PersistedLyrics] for content returned by source.
func NewPersistedLyrics(sequence int, sessionID, source, title, artist, content string) *PersistedLyrics {
	return &PersistedLyrics{
		record:    newRecord(sequence),
		sessionID: sessionID,
		source:    source,
		title:     title,
		artist:    artist,
		content:   content,
		checksum:  Checksum(content),
	}
}

// Checksum returns the hex sha256 digest used to dedupe payloads.
func Checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (l *PersistedLyrics) SessionID() string { return l.sessionID }

func (l *PersistedLyrics) Source() string { return l.source }

func (l *PersistedLyrics) Title() string { return l.title }

func (l *PersistedLyrics) Artist() string { return l.artist }

func (l *PersistedLyrics) Content() string { return l.content }

func (l *PersistedLyrics) Checksum() string { return l.checksum }

// Song returns the artist/title pair the lyrics were stored under
func (l *PersistedLyrics) Song() Song { return Song{Artist: l.artist, Title: l.title} }

// SetContent replaces the payload and recomputes its checksum
func (l *PersistedLyrics) SetContent(content string) {
	l.content = content
	l.checksum = Checksum(content)
	l.updatedAt = time.Now()
}

// Validate checks required fields
func (l *PersistedLyrics) Validate() error {
	if l.id == "" {
		return fmt.Errorf("lyrics ID is required")
	}
	if l.source == "" {
		return fmt.Errorf("lyrics source is required")
	}
	if l.title == "" && l.artist == "" {
		return fmt.Errorf("lyrics require a title or an artist")
	}
	if l.content == "" {
		return fmt.Errorf("lyrics content is required")
	}
	return nil
}

// Lyrics is an accepted payload on its way to storage.
type Lyrics struct {
	SessionID string `json:"session_id"`
	Source    string `json:"source"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Content   string `json:"content"`
}

// Song returns the artist/title pair the payload belongs to
func (l Lyrics) Song() Song { return Song{Artist: l.Artist, Title: l.Title} }
