// Package store provides the normalized, copy-on-write entity store that
// every view reads from.
//
// The store holds one Table per entity kind (id → entity) inside an
// immutable State snapshot. Applying a mutation never edits a published
// State; it builds a new one:
//
//   - The table of the mutated kind is replaced by a new map.
//   - The mutated entity is replaced by a new pointer.
//   - Every other table and every untouched entity keeps its pointer.
//
// # Critical Patterns
//
// Reference stability: repeated reads of an unmodified entity or table
// return the same pointer across any number of States. The view cache
// detects change purely by pointer identity, so this is load-bearing.
//
// Tolerant reads: a character may reference ids that are absent from the
// target table (for example halfway through a delete). Readers drop such
// ids silently; ResolveIDs never fails on a missing character or relation.
//
// Single writer: Store.Apply is serialized internally. Readers take a State
// with Store.State and may keep using it after later mutations land.
package store
