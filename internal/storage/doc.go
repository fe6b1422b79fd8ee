// Package storage implements the local persistence tiers and the Adapter that
// picks one of them at startup.
//
// Tiers, best first:
//
//   - directory: one JSON file per key in a user-chosen directory
//   - sqlite:    a key/value table in an embedded SQLite database
//   - kv:        a single JSON object file, always available
//
// An S3 backend implements the same Backend contract and is used as a
// snapshot target for Backup and Restore. It is never selected as a tier.
//
// Reading a key that does not exist yields (nil, nil) from every backend.
package storage
