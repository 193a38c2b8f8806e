// Package ttplayer implements the two-round lookup against the TTPlayer lyric mirrors.
//
// Round 1 queries every mirror for candidates matching the song. Round 2 downloads each
// candidate using a token derived from its artist, title and id (see [Token]). Payloads
// that come back empty or carry the provider's error marker are skipped; the rest are
// handed to a [Persister].
package ttplayer
