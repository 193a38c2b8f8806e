package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Song describes the lyrics a caller wants. It is never mutated once a resolution starts.
type Song struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// Validate requires at least one of artist or title.
func (s Song) Validate() error {
	if strings.TrimSpace(s.Artist) == "" && strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("song requires an artist or a title")
	}
	return nil
}

func (s Song) String() string {
	switch {
	case s.Artist == "":
		return s.Title
	case s.Title == "":
		return s.Artist
	default:
		return s.Artist + " - " + s.Title
	}
}

// Candidate is a lyric record listed by a mirror during discovery.
type Candidate struct {
	Title  string `xml:"title,attr" json:"title"`
	Artist string `xml:"artist,attr" json:"artist"`
	RawID  string `xml:"id,attr" json:"-"`
	ID     int64  `xml:"-" json:"id"`
	Host   string `xml:"-" json:"host"`
}

// ParseID converts RawID into ID.
func (c *Candidate) ParseID() error {
	id, err := strconv.ParseInt(strings.TrimSpace(c.RawID), 10, 64)
	if err != nil {
		return fmt.Errorf("candidate %q has invalid id %q: %w", c.Title, c.RawID, err)
	}
	c.ID = id
	return nil
}

// WireID is the id as the mirror sent it, falling back to ID when RawID is empty.
func (c Candidate) WireID() string {
	if raw := strings.TrimSpace(c.RawID); raw != "" {
		return raw
	}
	return strconv.FormatInt(c.ID, 10)
}

// Song returns the artist/title pair carried by the candidate.
func (c Candidate) Song() Song {
	return Song{Artist: c.Artist, Title: c.Title}
}
