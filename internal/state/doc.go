// Package state provides the concurrency primitives shared by the session,
// catalog and swap components.
//
// # Overview
//
// Each state component owns one Store holding its snapshot. Request
// goroutines (Bubble Tea commands, the background refresher) mutate the
// snapshot under the write lock; the UI reads copies on its own schedule.
//
//	Request goroutine:             UI:
//	┌────────────────────┐         ┌─────────────────────┐
//	│ ticket := seq.Next()│         │                     │
//	│ client.ListItems() │         │                     │
//	│       ↓            │         │                     │
//	│ store.Update(...)  │────────→│ store.Snapshot()    │
//	│ (if IsCurrent)     │ (mutex) │       ↓             │
//	└────────────────────┘         │ render              │
//	                               └─────────────────────┘
//
// # Core Types
//
// Store[T]:
//   - Holds one snapshot value behind a sync.RWMutex
//   - Update/Apply mutate in place; Snapshot returns a deep copy
//
// Sequence:
//   - Monotonic request tickets
//   - A response is applied only if its ticket is still current, so an
//     older request finishing last never overwrites a newer one
//
// Health:
//   - Consecutive remote failures and the last probe outcome
//   - IsOffline drives the catalog's choice between local and remote writes
//
// # Defensive Copying
//
// Snapshots never alias the stored slices or error instances. CloneSlice,
// CloneEach and CloneError are the helpers each component's clone function
// is built from.
package state
