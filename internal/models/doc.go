// Package models defines domain entities and persistence interfaces for the lrcx lyrics resolver.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs passed between the resolver stages
//   - [Song] : Artist and title a caller asks lyrics for
//   - [Candidate] : Lyric record discovered on a provider mirror, pending retrieval
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [PersistedLyrics] : Accepted lyric payloads keyed by source, title and artist
//   - [Resolution] : One row per resolution session with its outcome
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
