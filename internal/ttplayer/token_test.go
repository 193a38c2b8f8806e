package ttplayer

import (
	"errors"
	"testing"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/textenc"
)

func TestGenerateToken(t *testing.T) {
	tt := []struct {
		name   string
		artist string
		title  string
		id     int64
		want   string
	}{
		{name: "ascii", artist: "Test", title: "Song", id: 12345, want: "1063719680"},
		{name: "negative result", artist: "a", title: "b", id: 255, want: "-1056942168"},
		{name: "empty input", artist: "", title: "", id: 0, want: "0"},
		{name: "all id bytes set", artist: "Test", title: "Song", id: 305419896, want: "1942724628"},
		{name: "max int32 id", artist: "Test", title: "Song", id: 2147483647, want: "1300574136"},
		{name: "cjk", artist: "周杰伦", title: "晴天", id: 1, want: "1006000314"},
		{name: "mixed scripts", artist: "Beyond", title: "海阔天空", id: 98765, want: "1129607370"},
		{name: "result at min int32", artist: "", title: "", id: 1074266112, want: "-2147483648"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := GenerateToken(textenc.UTF8Hex(tc.artist+tc.title), tc.id)
			if err != nil {
				t.Fatalf("GenerateToken() error = %v", err)
			}
			if got != tc.want {
				t.Errorf("GenerateToken(%q, %d) = %s, want %s", tc.artist+tc.title, tc.id, got, tc.want)
			}

			c := models.Candidate{Artist: tc.artist, Title: tc.title, ID: tc.id}
			if tok := CandidateToken(c); tok != tc.want {
				t.Errorf("CandidateToken() = %s, want %s", tok, tc.want)
			}
		})
	}
}

func TestTokenDeterministic(t *testing.T) {
	code := []byte("The Beatles" + "Let It Be")
	for _, id := range []int64{0, 1, 255, 65535, 1 << 24, -1, 1<<40 + 7} {
		first := Token(code, id)
		for range 3 {
			if got := Token(code, id); got != first {
				t.Fatalf("Token(%d) changed between calls: %s then %s", id, first, got)
			}
		}
	}
}

func TestTokenTruncatesID(t *testing.T) {
	code := []byte("TestSong")
	if a, b := Token(code, 12345), Token(code, 1<<32+12345); a != b {
		t.Errorf("ids equal in their low 32 bits should share a token: %s != %s", a, b)
	}
}

func TestGenerateTokenMalformedHex(t *testing.T) {
	for _, in := range []string{"5", "ZZ", "54657G"} {
		if _, err := GenerateToken(in, 1); !errors.Is(err, textenc.ErrMalformedHex) {
			t.Errorf("GenerateToken(%q) error = %v, want ErrMalformedHex", in, err)
		}
	}
}

func TestNorm(t *testing.T) {
	tt := []struct {
		in   int64
		want int64
	}{
		{in: 0, want: 0},
		{in: 0x7FFFFFFF, want: 0x7FFFFFFF},
		{in: 0x80000000, want: 0x80000000},
		{in: 0x80000001, want: -0x7FFFFFFF},
		{in: 0xFFFFFFFF, want: -1},
		{in: 1 << 32, want: 0},
		{in: -1, want: -1},
	}
	for _, tc := range tt {
		if got := norm(tc.in); got != tc.want {
			t.Errorf("norm(%#x) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
