// Package session drives multi-round lyric lookups.
//
// A [Manager] owns one session per resolution attempt. Each round issues a batch of
// [Request]s through a [Fetcher]; replies come back through [Manager.Submit] in any order
// and from any goroutine. Once the number of replies for the round matches the expected
// count, the round barrier fires and the [Processor] sees the whole batch. It then either
// opens the next round, completes the session, or fails it.
//
// Replies for unknown, finished or already processed rounds are dropped.
package session
