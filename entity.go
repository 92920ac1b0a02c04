package ecs

// EntityID is a sparse, recyclable identifier for an entity. It carries no
// payload of its own; an id only starts consuming memory once a component is
// attached to it.
type EntityID uint32

// InvalidEntity is the reserved sentinel returned when an operation cannot
// produce a valid id (allocator exhaustion) or when a lookup misses.
const InvalidEntity EntityID = 1<<32 - 1

// reservedEntity is never issued by Scene's allocator; it is skipped so that
// id 0 can be used internally as a "no value" marker distinct from
// InvalidEntity where that reads more naturally.
const reservedEntity EntityID = 0
