// Package engine is the request and mutation surface of sheetview.
//
// The engine owns one store.Store, one view.Cache and a view.Registry. It
// exposes two operations to collaborators:
//
//   - RequestView(name, characterID): read a named view through the cache.
//   - Apply / Enqueue: feed entity mutations into the store.
//
// ARCHITECTURE:
//
// Single-Writer Mutation Loop:
// Mutations may be applied directly with Apply or queued with Enqueue and
// drained by Run. Either way they are serialized by one mutex together with
// view requests, so a view computation never observes a half-applied
// mutation and the cache is never touched concurrently.
//
// Mutation Flow:
//  1. Stamp seq from Clock.Next() and an id from the IDGenerator
//  2. store.Reduce builds the next State (copy-on-write)
//  3. The Journal, if any, records the mutation
//  4. Later view requests read the new State; only views whose inputs
//     changed identity recompute
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// All mutations are stamped with a monotonic seq from Clock.Next(), which
// becomes State.Revision. Wall-clock timestamps are never used for ordering.
//
// Deterministic Replay:
// Replay re-applies journaled mutations in seq order with their original
// seqs and ids, producing a State with the same digest.
package engine
