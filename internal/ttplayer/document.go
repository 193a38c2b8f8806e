package ttplayer

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/desertthunder/lrcx/internal/models"
)

// ErrMalformedDocument is returned when a discovery reply is not a readable XML document.
var ErrMalformedDocument = fmt.Errorf("malformed discovery document")

const candidateElement = "lrc"

// ParseCandidates extracts every lrc element below the document root of body.
//
// Each candidate is stamped with host. Elements whose id attribute is not an integer are
// skipped and counted in skipped. An empty body yields no candidates and no error.
func ParseCandidates(body []byte, host string) (candidates []models.Candidate, skipped int, err error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, 0, nil
	}

	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charsetReader

	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			if depth < 2 || el.Name.Local != candidateElement {
				continue
			}

			var c models.Candidate
			if err := dec.DecodeElement(&c, &el); err != nil {
				return nil, 0, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
			}
			depth--

			if err := c.ParseID(); err != nil {
				skipped++
				continue
			}
			c.Host = host
			candidates = append(candidates, c)
		case xml.EndElement:
			depth--
		}
	}

	return candidates, skipped, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
