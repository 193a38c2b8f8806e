// Package tasks orchestrates lyric resolution with real-time progress reporting.
//
// # Core Operations
//
//  1. [LyricsEngine.Resolve] : Resolve one song
//     - Serves cached payloads when the song was resolved before
//     - Otherwise runs a session through the [Resolver] (a session.Manager)
//     - Records a resolution history row for every outcome, including cache hits
//     - Fills the cache with the payloads the session accepted
//
//  2. [LyricsEngine.BulkResolve] : Resolve many songs
//     - Bounded worker pool (errgroup) with a shared rate limiter
//     - Partial failures are reported per song, in input order
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Payload Collection
//
// [Collector] sits between the round processor and the lyrics store. It forwards every accepted payload
// and keeps a per-session copy so the engine can cache exactly what a session produced. The engine
// claims a session's copy as soon as it finishes; unclaimed sessions are evicted oldest first.
package tasks
