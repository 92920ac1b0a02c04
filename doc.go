// Package ecs implements a small, in-memory Entity-Component-System core.
//
// It maps sparse 32-bit entity ids to heterogeneous, statically-typed
// component records, and provides a join engine that visits every entity
// owning a given tuple of components in ascending id order.
//
// Each component type is stored in its own ComponentContainer, a two-level
// paged sparse set: an occupancy bitmask answers "is this id present", and a
// jump table answers "what is the next present id" in O(1) amortized. A
// Scene owns one container per component type plus the entity id allocator
// and the event dispatcher; JoinEngine drives a multi-container traversal
// over a Scene.
//
// The core is single-threaded and thread-oblivious: nothing here is safe for
// concurrent use without external synchronization.
package ecs
