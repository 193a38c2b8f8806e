// package cache keeps resolved lyrics on disk as lz4 compressed blocks, keyed by song.
package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/shared"
)

const extension = ".lrcx"

var (
	signature = [4]byte{'l', 'r', 'c', 'x'}

	ErrMiss              = errors.New("cache miss")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrCorrupt           = errors.New("corrupt cache entry")
)

// header prefixes every cache file. BodySize is the uncompressed size.
type header struct {
	Signature [4]byte
	BodySize  uint32
	Count     uint16
	Raw       uint8
	Source    [12]byte
}

// Store is a directory of cache files, one per song.
type Store struct {
	path string
}

// New creates the cache directory if needed and returns a [Store] rooted there.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: cache dir is empty", shared.ErrMissingConfig)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	return &Store{path: path}, nil
}

// Path returns the cache directory
func (c *Store) Path() string { return c.path }

// Filename maps a song to its cache file name. Case and whitespace differences share an entry.
func Filename(song models.Song) string {
	sum := sha256.Sum256([]byte(shared.NormalizeSongKey(song.Artist, song.Title)))
	return hex.EncodeToString(sum[:16]) + extension
}

// Set replaces the entry for song with lyrics. All payloads must share one source.
func (c *Store) Set(song models.Song, lyrics []models.Lyrics) error {
	if len(lyrics) == 0 {
		return c.Delete(song)
	}
	if len(lyrics) > math.MaxUint16 {
		return fmt.Errorf("%w: too many payloads (%d)", shared.ErrInvalidInput, len(lyrics))
	}

	body, err := encodeBody(lyrics)
	if err != nil {
		return err
	}

	h := header{
		Signature: signature,
		BodySize:  uint32(len(body)),
		Count:     uint16(len(lyrics)),
	}
	copy(h.Source[:], lyrics[0].Source)

	compressed := make([]byte, lz4.CompressBlockBound(len(body)))
	compressor := lz4.CompressorHC{Level: lz4.Level9}
	n, err := compressor.CompressBlock(body, compressed)
	if err != nil {
		return fmt.Errorf("failed to compress lyrics: %w", err)
	}
	block := compressed[:n]
	// incompressible input is stored as is
	if n == 0 || n >= len(body) {
		h.Raw = 1
		block = body
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		return err
	}
	buf.Write(block)

	fpath := filepath.Join(c.path, Filename(song))
	f, err := os.CreateTemp(c.path, "*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	tmp := f.Name()
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, fpath); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Get returns the cached payloads for song, or [ErrMiss].
func (c *Store) Get(song models.Song) ([]models.Lyrics, error) {
	f, err := os.Open(filepath.Join(c.path, Filename(song)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := header{}
	if err := binary.Read(f, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if h.Signature != signature {
		return nil, ErrSignatureMismatch
	}

	buf, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	body := buf
	if h.Raw != 0 && len(buf) != int(h.BodySize) {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrCorrupt, h.BodySize, len(buf))
	}
	if h.Raw == 0 {
		body = make([]byte, h.BodySize)
		n, err := lz4.UncompressBlock(buf, body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if n != int(h.BodySize) {
			return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrCorrupt, h.BodySize, n)
		}
	}

	source := string(bytes.TrimRight(h.Source[:], "\x00"))
	return decodeBody(body, int(h.Count), source)
}

// Delete removes the entry for song. Missing entries are not an error.
func (c *Store) Delete(song models.Song) error {
	err := os.Remove(filepath.Join(c.path, Filename(song)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes every cache file and returns how many were deleted.
func (c *Store) Clear() (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.path, "*"+extension))
	if err != nil {
		return 0, err
	}
	for i, m := range matches {
		if err := os.Remove(m); err != nil {
			return i, err
		}
	}
	return len(matches), nil
}

// encodeBody lays out each payload as title, artist (uint16 length prefixed) and content (uint32 length prefixed).
func encodeBody(lyrics []models.Lyrics) ([]byte, error) {
	var body bytes.Buffer
	for _, l := range lyrics {
		if len(l.Title) > math.MaxUint16 || len(l.Artist) > math.MaxUint16 {
			return nil, fmt.Errorf("%w: title or artist too long", shared.ErrInvalidInput)
		}
		binary.Write(&body, binary.LittleEndian, uint16(len(l.Title)))
		body.WriteString(l.Title)
		binary.Write(&body, binary.LittleEndian, uint16(len(l.Artist)))
		body.WriteString(l.Artist)
		binary.Write(&body, binary.LittleEndian, uint32(len(l.Content)))
		body.WriteString(l.Content)
	}
	if uint64(body.Len()) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: payload too large", shared.ErrInvalidInput)
	}
	return body.Bytes(), nil
}

func decodeBody(body []byte, count int, source string) ([]models.Lyrics, error) {
	out := make([]models.Lyrics, 0, count)
	offset := 0

	field := func(width int) (string, error) {
		if offset+width > len(body) {
			return "", ErrCorrupt
		}
		var n int
		if width == 2 {
			n = int(binary.LittleEndian.Uint16(body[offset:]))
		} else {
			n = int(binary.LittleEndian.Uint32(body[offset:]))
		}
		offset += width
		if offset+n > len(body) {
			return "", ErrCorrupt
		}
		s := string(body[offset : offset+n])
		offset += n
		return s, nil
	}

	for range count {
		title, err := field(2)
		if err != nil {
			return nil, err
		}
		artist, err := field(2)
		if err != nil {
			return nil, err
		}
		content, err := field(4)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Lyrics{Source: source, Title: title, Artist: artist, Content: content})
	}
	return out, nil
}
