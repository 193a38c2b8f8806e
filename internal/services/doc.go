// Package services implements the network side of lyric resolution.
//
// [Client] performs raw GET requests against provider mirrors with a fixed user agent and a
// response size cap. [HTTPFetcher] adapts it to [session.Fetcher]: every request runs on its
// own goroutine behind a shared [rate.Limiter], and its outcome is submitted back to the
// session manager as a reply.
//
// # Error Handling
//
// [Client.Get] wraps transport failures in [shared.ErrProviderRequest]. The fetcher never
// returns errors; a failed request becomes a reply with an empty body, which the round
// processor skips.
package services
