package ttplayer

import (
	"math"
	"strconv"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/textenc"
)

// Token computes the retrieval code the mirrors expect for a candidate.
//
// code is the UTF-8 byte form of the candidate's artist followed by its title. id is
// truncated to its low 32 bits. Every intermediate step wraps like a 32-bit signed
// integer; the final products are folded back into range with norm and the
// result is always a signed 32-bit value.
func Token(code []byte, id int64) string {
	id32 := int32(id)

	t1 := (id32 & 0x0000FF00) >> 8
	var t2 int32
	var t3 int32
	if id32&0x00FF0000 == 0 {
		t3 = 0xFF & ^t1
	} else {
		t3 = 0xFF & ((id32 & 0x00FF0000) >> 16)
	}

	t3 |= (0xFF & id32) << 8
	t3 <<= 8
	t3 |= 0xFF & t1
	t3 <<= 8
	if uint32(id32)&0xFF000000 == 0 {
		t3 |= 0xFF & ^id32
	} else {
		t3 |= 0xFF & (id32 >> 24)
	}

	for j := len(code) - 1; j >= 0; j-- {
		c := int32(int8(code[j]))
		t1 = c + t2
		t2 <<= uint(j%2 + 4)
		t2 = t1 + t2
	}

	t1 = 0
	for j := range code {
		c := int32(int8(code[j]))
		t4 := c + t1
		t1 <<= uint(j%2 + 3)
		t1 = t1 + t4
	}

	t5 := norm(int64(t2) ^ int64(t3))
	t5 = norm(t5 + (int64(t1) | int64(id32)))
	t5 = norm(t5 * (int64(t1) | int64(t3)))
	t5 = norm(t5 * (int64(t2) ^ int64(id32)))
	if t5 > math.MaxInt32 {
		t5 -= 1 << 32
	}

	return strconv.FormatInt(t5, 10)
}

// GenerateToken is [Token] over a hex string, usually [textenc.UTF8Hex] of artist+title.
func GenerateToken(hexText string, id int64) (string, error) {
	code, err := textenc.DecodeHex(hexText)
	if err != nil {
		return "", err
	}
	return Token(code, id), nil
}

// CandidateToken builds the token for c from its artist, title and id.
func CandidateToken(c models.Candidate) string {
	return Token([]byte(c.Artist+c.Title), c.ID)
}

// norm keeps the low 32 bits of v and reads them as signed.
//
// 0x80000000 itself stays positive.
func norm(v int64) int64 {
	u := v & 0xFFFFFFFF
	if u > 0x80000000 {
		u -= 1 << 32
	}
	return u
}
