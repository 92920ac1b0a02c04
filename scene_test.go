package ecs_test

import (
	"testing"

	"github.com/ashgrove-systems/swarmecs"
)

func TestSceneAttachHasGetCount(t *testing.T) {
	resetRegistries()
	s := ecs.NewScene()
	id := s.AddEntity()

	if ecs.Has[Position](s, id) {
		t.Fatalf("fresh entity reports having a Position")
	}
	ecs.Attach(s, id, Position{X: 3, Y: 4})
	if !ecs.Has[Position](s, id) {
		t.Fatalf("entity does not have Position after Attach")
	}
	if got := ecs.Get[Position](s, id); got == nil || *got != (Position{X: 3, Y: 4}) {
		t.Fatalf("Get[Position] = %v, want {3 4}", got)
	}
	if ecs.Count[Position](s) != 1 {
		t.Fatalf("Count[Position] = %d, want 1", ecs.Count[Position](s))
	}
}

func TestSceneRemoveEntityErasesEveryComponent(t *testing.T) {
	resetRegistries()
	s := ecs.NewScene()
	id := s.AddEntity()
	ecs.Attach(s, id, Position{})
	ecs.Attach(s, id, Velocity{})
	ecs.Attach(s, id, Alive{})

	s.RemoveEntity(id)

	if ecs.Has[Position](s, id) || ecs.Has[Velocity](s, id) || ecs.Has[Alive](s, id) {
		t.Fatalf("components survived RemoveEntity")
	}
}

func TestSceneAddEntityRecyclesFreedIds(t *testing.T) {
	resetRegistries()
	s := ecs.NewScene()
	a := s.AddEntity()
	s.RemoveEntity(a)
	b := s.AddEntity()
	if b != a {
		t.Fatalf("AddEntity() = %d after freeing %d, want id reused", b, a)
	}
}

func TestSceneFreedIdNotReallocatedUntilBatchCommits(t *testing.T) {
	resetRegistries()
	s := ecs.NewScene()
	a := s.AddEntity()

	s.StartBatch()
	s.RemoveEntity(a)
	b := s.AddEntity()
	if b == a {
		t.Fatalf("AddEntity() reused id %d freed earlier in the same batch", a)
	}
	s.FinishBatch()

	c := s.AddEntity()
	if c != a {
		t.Fatalf("AddEntity() after FinishBatch = %d, want the freed id %d", c, a)
	}
}

func TestSceneAddEntitySkipsReservedId(t *testing.T) {
	resetRegistries()
	s := ecs.NewScene()
	id := s.AddEntity()
	if id == 0 {
		t.Fatalf("AddEntity() returned the reserved id 0")
	}
	if id == ecs.InvalidEntity {
		t.Fatalf("first AddEntity() returned InvalidEntity")
	}
}

func TestSceneClearEntitiesResetsAllocator(t *testing.T) {
	resetRegistries()
	s := ecs.NewScene()
	a := s.AddEntity()
	ecs.Attach(s, a, Position{})
	s.AddEntity()

	s.ClearEntities()

	if ecs.Count[Position](s) != 0 {
		t.Fatalf("Count[Position] = %d after ClearEntities, want 0", ecs.Count[Position](s))
	}
	if s.LiveCount() != 0 {
		t.Fatalf("LiveCount() = %d after ClearEntities, want 0", s.LiveCount())
	}
	fresh := s.AddEntity()
	if fresh != 1 {
		t.Fatalf("AddEntity() after ClearEntities = %d, want 1", fresh)
	}
}

func TestSceneClearEntitiesMidBatchCommitsFirst(t *testing.T) {
	resetRegistries()
	s := ecs.NewScene()
	id := s.AddEntity()
	ecs.Attach(s, id, Position{X: 1})

	s.StartBatch()
	s.RemoveEntity(id)
	ecs.Attach(s, s.AddEntity(), Position{X: 2})
	s.ClearEntities()

	if ecs.Count[Position](s) != 0 {
		t.Fatalf("Count[Position] = %d after ClearEntities mid-batch, want 0", ecs.Count[Position](s))
	}
	if s.LiveCount() != 0 {
		t.Fatalf("LiveCount() = %d after ClearEntities mid-batch, want 0", s.LiveCount())
	}
	// The scene must behave as freshly created: no dangling batch depth, no
	// stale checklist left over from the batch that was open at clear time.
	fresh := s.AddEntity()
	if fresh != 1 {
		t.Fatalf("AddEntity() after ClearEntities mid-batch = %d, want 1", fresh)
	}
	ecs.Attach(s, fresh, Position{X: 3})
	if got := ecs.Get[Position](s, fresh); got == nil || got.X != 3 {
		t.Fatalf("Get[Position] = %v after ClearEntities mid-batch, want {3 0}", got)
	}
}

func TestSceneConcatDoublesDisjointCounts(t *testing.T) {
	resetRegistries()
	a := ecs.NewScene()
	b := ecs.NewScene()

	const n = 200
	for i := 0; i < n; i++ {
		id := b.AddEntity()
		ecs.Attach(b, id, Position{X: float64(id)})
		if id%2 == 0 {
			ecs.Attach(b, id, Velocity{})
		}
	}

	countABefore := ecs.Count[Position](a)
	idMap := a.Concat(b)

	if got, want := ecs.Count[Position](a), countABefore+ecs.Count[Position](b); got != want {
		t.Fatalf("Count[Position](a) = %d, want %d", got, want)
	}
	if got, want := ecs.Count[Velocity](a), ecs.Count[Velocity](b); got != want {
		t.Fatalf("Count[Velocity](a) = %d, want %d", got, want)
	}
	for srcID, dstID := range idMap {
		srcPos := ecs.Get[Position](b, srcID)
		dstPos := ecs.Get[Position](a, dstID)
		if srcPos == nil || dstPos == nil || *srcPos != *dstPos {
			t.Fatalf("concat did not preserve Position value for %d -> %d", srcID, dstID)
		}
	}

	a.StartBatch()
	a.Concat(b)
	a.Concat(b)
	a.FinishBatch()

	if got, want := ecs.Count[Position](a), countABefore+3*ecs.Count[Position](b); got != want {
		t.Fatalf("Count[Position](a) after two more concats = %d, want %d", got, want)
	}
}

func TestSceneContainerCreatedMidBatchStillCommits(t *testing.T) {
	resetRegistries()
	s := ecs.NewScene()
	id := s.AddEntity()

	s.StartBatch()
	// Position has never been attached in this scene before: its container
	// is created lazily right here, mid-batch.
	ecs.Attach(s, id, Position{X: 1})
	if !ecs.Has[Position](s, id) {
		t.Fatalf("pending add not visible mid-batch")
	}
	s.FinishBatch()

	if !ecs.Has[Position](s, id) {
		t.Fatalf("component created mid-batch did not survive FinishBatch")
	}
	if ecs.Count[Position](s) != 1 {
		t.Fatalf("Count[Position] = %d, want 1", ecs.Count[Position](s))
	}
}

func TestSceneCopySkipsNonCopyable(t *testing.T) {
	resetRegistries()
	a := ecs.NewScene()
	b := ecs.NewScene()

	id := b.AddEntity()
	ecs.Attach(b, id, Position{X: 1})
	ecs.Attach(b, id, Session{Token: "secret"})

	newID := ecs.Copy(a, b, id)

	if got := ecs.Get[Position](a, newID); got == nil || *got != (Position{X: 1}) {
		t.Fatalf("Get[Position](a, newID) = %v, want {1 0}", got)
	}
	if ecs.Has[Session](a, newID) {
		t.Fatalf("non-copyable Session was copied")
	}
	if ecs.Count[Session](a) != 0 {
		t.Fatalf("Count[Session](a) = %d, want 0", ecs.Count[Session](a))
	}
}

func TestSceneDependencyAutoAttach(t *testing.T) {
	resetRegistries()
	ecs.RegisterDependency[Velocity, Position](func() Position { return Position{} })
	ecs.RegisterDependency[Velocity, Alive](func() Alive { return Alive{} })

	s := ecs.NewScene()
	id := s.AddEntity()
	ecs.Attach(s, id, Velocity{DX: 1})

	if !ecs.Has[Position](s, id) || !ecs.Has[Alive](s, id) || !ecs.Has[Velocity](s, id) {
		t.Fatalf("attaching Velocity did not auto-attach its dependencies")
	}

	ecs.Attach(s, id, Position{X: 5}) // already present: must not be clobbered by a second ensure pass
	if got := ecs.Get[Position](s, id); got.X != 5 {
		t.Fatalf("Position = %v, dependency re-check overwrote an explicit attach", *got)
	}

	ecs.Remove[Velocity](s, id)
	if !ecs.Has[Position](s, id) || !ecs.Has[Alive](s, id) {
		t.Fatalf("erasing the owner erased its dependencies too")
	}

	s.RemoveEntity(id)
	if ecs.Has[Position](s, id) || ecs.Has[Alive](s, id) {
		t.Fatalf("dependencies survived RemoveEntity")
	}
}

func TestSceneCloseEmitsRemovedForEverythingPresent(t *testing.T) {
	resetRegistries()
	s := ecs.NewScene()
	a := s.AddEntity()
	ecs.Attach(s, a, Position{})
	ecs.Attach(s, a, Velocity{})

	var removed int
	ecs.Subscribe(s.Events(), func(ecs.Removed[Position]) { removed++ })
	ecs.Subscribe(s.Events(), func(ecs.Removed[Velocity]) { removed++ })

	s.Close()

	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if ecs.GetHandlerCount[ecs.Removed[Position]](s.Events()) != 0 {
		t.Fatalf("handlers survived Close")
	}
}
