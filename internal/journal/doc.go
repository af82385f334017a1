// Package journal provides SQLite-backed durable storage for sheetview.
//
// A journal holds two things:
//   - Mutations: an append-only log of every mutation the engine applied
//   - Snapshots: full copies of the entity tables at a revision
//
// Starting from the latest snapshot and replaying the mutations after its
// revision rebuilds the engine's state.
//
// # Ordering
//
// All ordering uses the seq column (the engine's logical clock), never
// wall-clock time. Every read includes ORDER BY seq ASC, id COLLATE BINARY
// ASC so results are identical across runs.
//
// # Encoding
//
// Entities are stored as plain JSON and decode to exactly what was written.
// Snapshot digests use ir's canonical form, so they do not depend on the
// stored bytes.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package journal
