package ecs

// SearchIndex lets a component type maintain an auxiliary index alongside
// its container -- a spatial grid, a name-to-entity map, whatever a
// particular game needs fast lookups for. It mirrors monkero's
// search_index<Component> CRTP base (original_source/monkeroecs.hh:1250-1280):
// Go has no inheritance, so a type opts in by passing an implementation to
// NewComponentContainer instead of by deriving from a base class.
//
// AddEntity and RemoveEntity are called exactly when Added[T]/Removed[T]
// would be published for the same id, including while a batch is open (at
// the moment of the change, not at commit), and in the same position in the
// sequence (search index first, then event).
type SearchIndex[T any] interface {
	AddEntity(id EntityID, component *T)
	RemoveEntity(id EntityID, component *T)
}
