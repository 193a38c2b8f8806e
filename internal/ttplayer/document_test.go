package ttplayer

import (
	"errors"
	"testing"
)

func TestParseCandidates(t *testing.T) {
	tt := []struct {
		name        string
		body        string
		wantIDs     []int64
		wantSkipped int
		wantErr     error
	}{
		{name: "empty body", body: ""},
		{name: "no candidates", body: `<?xml version="1.0" encoding="UTF-8"?><result></result>`},
		{
			name:    "flat list",
			body:    `<?xml version="1.0" encoding="UTF-8"?><result><lrc id="1" artist="A" title="T"/><lrc id="22" artist="B" title="U"></lrc></result>`,
			wantIDs: []int64{1, 22},
		},
		{
			name:    "nested elements",
			body:    `<result><group><lrc id="7" artist="A" title="T"/></group></result>`,
			wantIDs: []int64{7},
		},
		{
			name: "root element is not a candidate",
			body: `<lrc id="9" artist="A" title="T"></lrc>`,
		},
		{
			name:        "invalid ids skipped",
			body:        `<result><lrc id="x" artist="A" title="T"/><lrc id="" artist="A" title="T"/><lrc id="3" artist="A" title="T"/></result>`,
			wantIDs:     []int64{3},
			wantSkipped: 2,
		},
		{
			name:    "gbk declared charset",
			body:    "<?xml version=\"1.0\" encoding=\"GBK\"?><result><lrc id=\"5\" artist=\"\xc7\xe7\" title=\"T\"/></result>",
			wantIDs: []int64{5},
		},
		{name: "truncated", body: `<result><lrc id="1"`, wantErr: ErrMalformedDocument},
		{name: "not xml", body: `{"json": true}`, wantErr: nil},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, skipped, err := ParseCandidates([]byte(tc.body), MirrorCT)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("ParseCandidates() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCandidates() unexpected error = %v", err)
			}
			if skipped != tc.wantSkipped {
				t.Errorf("skipped = %d, want %d", skipped, tc.wantSkipped)
			}
			if len(got) != len(tc.wantIDs) {
				t.Fatalf("got %d candidates, want %d", len(got), len(tc.wantIDs))
			}
			for i, c := range got {
				if c.ID != tc.wantIDs[i] {
					t.Errorf("candidate %d id = %d, want %d", i, c.ID, tc.wantIDs[i])
				}
				if c.Host != MirrorCT {
					t.Errorf("candidate %d host = %q, want %q", i, c.Host, MirrorCT)
				}
			}
		})
	}

	t.Run("attributes decoded", func(t *testing.T) {
		got, _, err := ParseCandidates([]byte("<?xml version=\"1.0\" encoding=\"GBK\"?><result><lrc id=\"5\" artist=\"\xc7\xe7\" title=\"Song\"/></result>"), MirrorCNC)
		if err != nil || len(got) != 1 {
			t.Fatalf("ParseCandidates() = %v, %v", got, err)
		}
		if got[0].Artist != "晴" || got[0].Title != "Song" {
			t.Errorf("candidate = %+v", got[0])
		}
	})
}
