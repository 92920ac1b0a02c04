package ecs_test

import "github.com/ashgrove-systems/swarmecs"

// Position/Velocity are ordinary inline-storage components.
type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

// Alive is a zero-sized tag component.
type Alive struct{}

// Dead is a second, distinct tag component.
type Dead struct{}

// Age is a small inline component used in the aging/breeding scenario.
type Age struct {
	Years int
}

// Handle opts into indirect storage to exercise storageKindFor's
// isIndirect branch.
type Handle struct {
	Value int
}

func (Handle) IndirectComponent() {}

var _ ecs.Indirect = Handle{}

// Session is non-copyable: Scene.Concat/Copy must skip it silently.
type Session struct {
	Token string
}

func (Session) NotCopyable() {}

var _ ecs.NonCopyable = Session{}

func resetRegistries() {
	ecs.ResetComponentRegistry()
	ecs.ResetEventRegistry()
	ecs.ResetDependencyRegistry()
}
