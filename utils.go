package ecs

import "unsafe"

// sizeOf returns the in-memory size of a value of type T, the same quantity
// edwinsyarief-lazyecs' RegisterComponent stashes via unsafe.Sizeof at
// registration time.
func sizeOf[T any](zero T) uintptr {
	return unsafe.Sizeof(zero)
}

// Indirect is implemented by component types that need a stable address
// across container growth (spec §3's indirect(T) storage class). It mirrors
// monkero's ptr_component marker base class; Go has no base classes, so the
// marker is an interface instead.
type Indirect interface {
	// IndirectComponent is a marker method; its body is never called.
	IndirectComponent()
}

// isIndirect reports whether T opts into indirect storage.
func isIndirect[T any]() bool {
	var zero T
	_, ok := any(zero).(Indirect)
	return ok
}

// NonCopyable is implemented by component types that must not be duplicated
// by Scene.Concat or Scene.Copy. Types that don't implement it are copied by
// plain assignment, matching monkero's std::is_copy_constructible_v check
// (original_source/monkeroecs.hh:1692, 1705) -- Go has no analogous trait, so
// the decision is inverted into an explicit opt-out marker.
type NonCopyable interface {
	// NotCopyable is a marker method; its body is never called.
	NotCopyable()
}

func isNonCopyable[T any]() bool {
	var zero T
	_, ok := any(zero).(NonCopyable)
	return ok
}
