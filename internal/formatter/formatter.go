// package formatter provides functions to export stored lyrics and resolution history to various formats (LRC, plain text, JSON, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/shared"
)

// Supported export formats
const (
	FormatLRC  = "lrc"
	FormatText = "txt"
	FormatJSON = "json"
)

var (
	timeTag     = regexp.MustCompile(`\[\d+:\d+(?:[.:]\d+)?\]`)
	metadataTag = regexp.MustCompile(`^\[[a-zA-Z]+:.*\]$`)
	unsafeChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
)

// lyricsJSON is the exported shape of a stored payload
type lyricsJSON struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	SessionID string    `json:"session_id"`
	Source    string    `json:"source"`
	Artist    string    `json:"artist"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// resolutionJSON is the exported shape of a history row
type resolutionJSON struct {
	ID          string     `json:"id"`
	Sequence    int        `json:"sequence"`
	SessionID   string     `json:"session_id"`
	Source      string     `json:"source"`
	Artist      string     `json:"artist"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	Rounds      int        `json:"rounds"`
	Accepted    int        `json:"accepted"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ExportToLRC returns the payload as an LRC document, adding [ar:] and [ti:] tags when the provider omitted them
func ExportToLRC(l *models.PersistedLyrics) []byte {
	var buf bytes.Buffer
	content := strings.TrimPrefix(l.Content(), "\ufeff")

	if l.Artist() != "" && !strings.Contains(content, "[ar:") {
		fmt.Fprintf(&buf, "[ar:%s]\n", l.Artist())
	}
	if l.Title() != "" && !strings.Contains(content, "[ti:") {
		fmt.Fprintf(&buf, "[ti:%s]\n", l.Title())
	}
	buf.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// ExportToText strips time and metadata tags, leaving one lyric line per row.
// Consecutive blank lines collapse into one.
func ExportToText(l *models.PersistedLyrics) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s\n\n", l.Song())

	blank := true
	for _, line := range strings.Split(strings.ReplaceAll(l.Content(), "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if metadataTag.MatchString(line) {
			continue
		}
		line = strings.TrimSpace(timeTag.ReplaceAllString(line, ""))
		if line == "" {
			if !blank {
				buf.WriteByte('\n')
			}
			blank = true
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
		blank = false
	}
	return buf.Bytes()
}

// ExportToJSON converts stored lyrics to indented JSON
func ExportToJSON(lyrics ...*models.PersistedLyrics) ([]byte, error) {
	out := make([]lyricsJSON, 0, len(lyrics))
	for _, l := range lyrics {
		out = append(out, lyricsJSON{
			ID:        l.ID(),
			Sequence:  l.Sequence(),
			SessionID: l.SessionID(),
			Source:    l.Source(),
			Artist:    l.Artist(),
			Title:     l.Title(),
			Checksum:  l.Checksum(),
			Content:   l.Content(),
			CreatedAt: l.CreatedAt(),
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// HistoryToJSON converts resolution history to indented JSON
func HistoryToJSON(history []*models.Resolution) ([]byte, error) {
	out := make([]resolutionJSON, 0, len(history))
	for _, r := range history {
		song := r.Song()
		out = append(out, resolutionJSON{
			ID:          r.ID(),
			Sequence:    r.Sequence(),
			SessionID:   r.SessionID(),
			Source:      r.Source(),
			Artist:      song.Artist,
			Title:       song.Title,
			Status:      string(r.Status()),
			Rounds:      r.Rounds(),
			Accepted:    r.Accepted(),
			Error:       r.ErrorMessage(),
			StartedAt:   r.StartedAt(),
			CompletedAt: r.CompletedAt(),
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// ExportToCSV converts stored lyrics to CSV format with columns: ID, Sequence, Source, Artist, Title, Lines, Checksum, Created
func ExportToCSV(lyrics []*models.PersistedLyrics) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Sequence", "Source", "Artist", "Title", "Lines", "Checksum", "Created"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, l := range lyrics {
		record := []string{
			l.ID(),
			strconv.Itoa(l.Sequence()),
			l.Source(),
			l.Artist(),
			l.Title(),
			strconv.Itoa(len(timeTag.FindAllString(l.Content(), -1))),
			l.Checksum(),
			l.CreatedAt().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// HistoryToCSV converts resolution history to CSV format
func HistoryToCSV(history []*models.Resolution) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Session", "Status", "Artist", "Title", "Rounds", "Accepted", "Duration", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range history {
		song := r.Song()
		record := []string{
			r.ID(),
			r.SessionID(),
			string(r.Status()),
			song.Artist,
			song.Title,
			strconv.Itoa(r.Rounds()),
			strconv.Itoa(r.Accepted()),
			r.Duration().Round(time.Millisecond).String(),
			r.ErrorMessage(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// Filename builds "Artist - Title.ext" with path separators and reserved characters replaced.
// Payloads after the first for a song get their sequence appended.
func Filename(l *models.PersistedLyrics, ext string, withSequence bool) string {
	name := unsafeChars.Replace(l.Song().String())
	name = strings.Trim(name, ". ")
	if name == "" {
		name = l.ID()
	}
	if withSequence {
		name = fmt.Sprintf("%s (%d)", name, l.Sequence())
	}
	return name + "." + ext
}

// Render returns a single payload in format
func Render(l *models.PersistedLyrics, format string) ([]byte, error) {
	switch format {
	case FormatLRC, "":
		return ExportToLRC(l), nil
	case FormatText:
		return ExportToText(l), nil
	case FormatJSON:
		return ExportToJSON(l)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, format)
	}
}

// WriteLyricsExport writes each payload to its own file in outputDir and returns the paths written.
//
// Defaults to the LRC format and the current directory.
func WriteLyricsExport(lyrics []*models.PersistedLyrics, format, outputDir string) ([]string, error) {
	if format == "" {
		format = FormatLRC
	}
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	seen := make(map[string]bool)
	files := make([]string, 0, len(lyrics))
	for _, l := range lyrics {
		data, err := Render(l, format)
		if err != nil {
			return files, err
		}

		key := shared.NormalizeSongKey(l.Artist(), l.Title())
		path := filepath.Join(outputDir, Filename(l, format, seen[key]))
		seen[key] = true

		if err := os.WriteFile(path, data, 0644); err != nil {
			return files, fmt.Errorf("failed to write %s: %w", path, err)
		}
		files = append(files, path)
	}
	return files, nil
}
