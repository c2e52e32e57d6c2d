// Package store provides a SQLite-backed workflow library.
//
// The store keeps named documents and their revisions:
//   - Documents: a UUIDv7 id, a display name and a creation seq
//   - Revisions: canonical document bodies, content-addressed per document
//
// # Patterns
//
// Content-addressed revisions
//   - UNIQUE(document_id, content_hash) constraint
//   - Saving an unchanged graph returns the existing revision
//
// Logical ordering
//   - Ordering uses seq INTEGER columns, never timestamps
//   - Every list query ends in ORDER BY seq ASC
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Bodies are RFC 8785 canonical JSON and hashes come from ir.DocumentHash, so
// camera state is stored but does not create a new revision on its own.
package store
