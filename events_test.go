package ecs_test

import (
	"testing"

	"github.com/ashgrove-systems/swarmecs"
)

type LevelUp struct {
	Entity ecs.EntityID
	Level  int
}

func TestEventSubscribePublish(t *testing.T) {
	resetRegistries()
	d := ecs.NewEventDispatcher()

	var got []int
	ecs.Subscribe(d, func(e LevelUp) { got = append(got, e.Level) })
	ecs.Publish(d, LevelUp{Level: 1})
	ecs.Publish(d, LevelUp{Level: 2})

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("got %v, want [1 2]", got)
	}
}

func TestEventSubscriptionOrder(t *testing.T) {
	resetRegistries()
	d := ecs.NewEventDispatcher()

	var order []string
	ecs.Subscribe(d, func(LevelUp) { order = append(order, "first") })
	ecs.Subscribe(d, func(LevelUp) { order = append(order, "second") })
	ecs.Subscribe(d, func(LevelUp) { order = append(order, "third") })
	ecs.Publish(d, LevelUp{})

	want := []string{"first", "second", "third"}
	for i, w := range want {
		if order[i] != w {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestEventSubscriptionCloseUnregisters(t *testing.T) {
	resetRegistries()
	d := ecs.NewEventDispatcher()

	called := 0
	sub := ecs.Subscribe(d, func(LevelUp) { called++ })
	ecs.Publish(d, LevelUp{})
	sub.Close()
	ecs.Publish(d, LevelUp{})

	if called != 1 {
		t.Fatalf("called = %d, want 1", called)
	}

	sub.Close() // closing twice must not panic
}

func TestEventGetHandlerCount(t *testing.T) {
	resetRegistries()
	d := ecs.NewEventDispatcher()

	if ecs.GetHandlerCount[LevelUp](d) != 0 {
		t.Fatalf("GetHandlerCount = %d, want 0", ecs.GetHandlerCount[LevelUp](d))
	}
	s1 := ecs.Subscribe(d, func(LevelUp) {})
	ecs.Subscribe(d, func(LevelUp) {})
	if ecs.GetHandlerCount[LevelUp](d) != 2 {
		t.Fatalf("GetHandlerCount = %d, want 2", ecs.GetHandlerCount[LevelUp](d))
	}
	s1.Close()
	if ecs.GetHandlerCount[LevelUp](d) != 1 {
		t.Fatalf("GetHandlerCount = %d, want 1", ecs.GetHandlerCount[LevelUp](d))
	}
}

func TestEventReentrantPublish(t *testing.T) {
	resetRegistries()
	d := ecs.NewEventDispatcher()

	var levels []int
	ecs.Subscribe(d, func(e LevelUp) {
		levels = append(levels, e.Level)
		if e.Level < 3 {
			ecs.Publish(d, LevelUp{Level: e.Level + 1})
		}
	})
	ecs.Publish(d, LevelUp{Level: 1})

	want := []int{1, 2, 3}
	if len(levels) != len(want) {
		t.Fatalf("levels = %v, want %v", levels, want)
	}
	for i := range want {
		if levels[i] != want[i] {
			t.Fatalf("levels = %v, want %v", levels, want)
		}
	}
}

func TestEventAddedRemovedParity(t *testing.T) {
	resetRegistries()
	s := ecs.NewScene()

	added, removed := 0, 0
	ecs.Subscribe(s.Events(), func(ecs.Added[Position]) { added++ })
	ecs.Subscribe(s.Events(), func(ecs.Removed[Position]) { removed++ })

	id := s.AddEntity()
	ecs.Attach(s, id, Position{})
	ecs.Attach(s, id, Position{X: 1}) // replace: one more Added, one more Removed
	ecs.Remove[Position](s, id)

	if added != 2 {
		t.Fatalf("added = %d, want 2", added)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
}
