// Package ir defines the entity model shared by every sheetview package.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// entity model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Entities are handled as pointers and are immutable by convention. A
//     changed entity is a new pointer; an unchanged entity keeps its pointer.
//   - IDs are int64 and unique within a Kind, never across kinds.
//   - Relation lists on Character are ordered and never absent: a missing
//     list is normalized to an empty one before it reaches a store.
//   - All JSON tags use snake_case; YAML tags mirror them for fixtures.
package ir
