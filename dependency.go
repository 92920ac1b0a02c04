package ecs

// dependencyEnsurer attaches a dependency's default value to id if it's
// missing. It's registered per owning component type and run right after
// that component is attached, mirroring monkero's
// dependency_components<Deps...>::ensure_dependency_components_exist
// (original_source/monkeroecs.hh:1730-1750).
type dependencyEnsurer func(s *Scene, id EntityID)

var dependencyEnsurers = make(map[componentTypeKey][]dependencyEnsurer)

// ResetDependencyRegistry clears the global dependency table. It exists for
// the same test-isolation reason as ResetComponentRegistry.
func ResetDependencyRegistry() {
	dependencyEnsurers = make(map[componentTypeKey][]dependencyEnsurer)
}

// RegisterDependency declares that attaching a T to an entity must also
// attach a D, constructed by makeDefault, whenever the entity doesn't
// already have one. Erasing T later does not erase D; only removing the
// whole entity does. Call this during package initialization, before any
// Scene attaches a T.
func RegisterDependency[T any, D any](makeDefault func() D) {
	key := componentKey[T]()
	dependencyEnsurers[key] = append(dependencyEnsurers[key], func(s *Scene, id EntityID) {
		if Has[D](s, id) {
			return
		}
		Attach(s, id, makeDefault())
	})
}

func ensureDependencies[T any](s *Scene, id EntityID) {
	ensurers := dependencyEnsurers[componentKey[T]()]
	for _, ensure := range ensurers {
		ensure(s, id)
	}
}
