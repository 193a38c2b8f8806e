// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [LyricsRepository] : Accepted lyric payloads with song lookups
//   - [ResolutionRepository] : Resolution history with status tracking
//   - [LyricsStoreAdapter] : Deduplicating persister handed to the round processor
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
