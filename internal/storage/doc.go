// Package storage persists the match snapshot between runs.
//
// A Store loads and saves whole snapshots. BlobStore implements it on top of
// a Backend, which only moves bytes: a local file, an S3 object, a GitHub
// Gist, a Redis key or a row in SQLite or PostgreSQL. EncryptedBackend wraps
// any backend with AES-GCM encryption at rest.
//
// A backend reports a missing snapshot with ErrNotFound. Every other read
// failure is returned as is so callers never mistake an outage for an empty
// history.
package storage
