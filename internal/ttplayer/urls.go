package ttplayer

import (
	"strings"
	"unicode"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/textenc"
)

// Name is the provider name recorded with every stored payload.
const Name = "TTPlayer"

const (
	MirrorCNC = "http://ttlrccnc.qianqian.com"
	MirrorCT  = "http://ttlrcct.qianqian.com"

	lyricsPath = "/dll/lyricsvr.dll"
)

// DefaultMirrors lists the hosts queried during discovery.
var DefaultMirrors = []string{MirrorCNC, MirrorCT}

// DiscoveryURL builds the search request for song on host.
//
// Artist and title are normalised with [ProcessKeywords] and sent as UTF-16LE hex.
func DiscoveryURL(host string, song models.Song) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(host, "/"))
	b.WriteString(lyricsPath)
	b.WriteString("?sh?Artist=")
	b.WriteString(textenc.UTF16LEHex(ProcessKeywords(song.Artist)))
	b.WriteString("&Title=")
	b.WriteString(textenc.UTF16LEHex(ProcessKeywords(song.Title)))
	b.WriteString("&Flags=0")
	return b.String()
}

// RetrievalURL builds the download request for candidate id on host. id is sent
// verbatim.
func RetrievalURL(host, id, token string) string {
	return strings.TrimRight(host, "/") + lyricsPath + "?dl?Id=" + id + "&Code=" + token
}

// ProcessKeywords lower-cases s and strips whitespace and apostrophes, which the
// mirrors ignore when matching.
func ProcessKeywords(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\'' || r == '’' {
			return -1
		}
		return r
	}, s)
}
