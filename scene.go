package ecs

import "slices"

// anyContainer is the type-erased view of a ComponentContainer[T] that
// Scene needs to drive whole-entity and whole-scene operations without
// knowing T. It plays the role of monkero's virtual component_container
// base (original_source/monkeroecs.hh:1660-1720); Go has no covariant
// virtual dispatch across generic instantiations, so each concrete T gets
// its own typedContainer[T] implementing this interface.
type anyContainer interface {
	eraseEntity(id EntityID)
	clearAll()
	startBatch()
	finishBatch()
	concatInto(dst *Scene, mapID func(EntityID) EntityID)
	copyOne(dst *Scene, srcID, dstID EntityID)
}

type typedContainer[T any] struct {
	container *ComponentContainer[T]
}

func (tc *typedContainer[T]) eraseEntity(id EntityID) { tc.container.Erase(id) }
func (tc *typedContainer[T]) clearAll()               { tc.container.Clear() }
func (tc *typedContainer[T]) startBatch()             { tc.container.StartBatch() }
func (tc *typedContainer[T]) finishBatch()            { tc.container.FinishBatch() }

// concatInto remaps every entity this container has a T on into dst via
// mapID, then copies the component unless T opts out via NonCopyable.
// mapID is called for every source id regardless of copyability, because a
// skipped component must not also skip creating the destination entity.
func (tc *typedContainer[T]) concatInto(dst *Scene, mapID func(EntityID) EntityID) {
	skip := isNonCopyable[T]()
	for id := tc.container.Begin(); id != InvalidEntity; id = tc.container.Advance(id) {
		dstID := mapID(id)
		if skip {
			continue
		}
		value := *tc.container.Get(id)
		Attach(dst, dstID, value)
	}
}

func (tc *typedContainer[T]) copyOne(dst *Scene, srcID, dstID EntityID) {
	if isNonCopyable[T]() {
		return
	}
	ptr := tc.container.Get(srcID)
	if ptr == nil {
		return
	}
	Attach(dst, dstID, *ptr)
}

// Scene owns the entity allocator and one ComponentContainer per component
// type ever attached within it, plus the shared EventDispatcher all of
// those containers publish Added/Removed through.
type Scene struct {
	dispatcher *EventDispatcher

	containers map[componentTypeKey]anyContainer
	order      []componentTypeKey // first-attach order; gives RemoveEntity/ClearEntities a deterministic sweep order

	nextID      EntityID
	freeList    []EntityID
	pendingFree []EntityID // ids removed mid-batch; not reusable until the outermost FinishBatch
	batchDepth  int
	liveCount   int
}

// NewScene returns an empty scene with no entities and no registered
// component containers; containers are created lazily on first use of a
// given type.
func NewScene() *Scene {
	return &Scene{
		dispatcher: NewEventDispatcher(),
		containers: make(map[componentTypeKey]anyContainer, 16),
	}
}

// Events returns the dispatcher that every component container in this
// scene publishes Added[T]/Removed[T] through.
func (s *Scene) Events() *EventDispatcher {
	return s.dispatcher
}

// LiveCount returns the number of entities currently allocated, whether or
// not they carry any components.
func (s *Scene) LiveCount() int {
	return s.liveCount
}

func containerFor[T any](s *Scene) *ComponentContainer[T] {
	key := componentKey[T]()
	if existing, ok := s.containers[key]; ok {
		return existing.(*typedContainer[T]).container
	}
	cc := NewComponentContainer[T](s.dispatcher, nil)
	if s.batchDepth > 0 {
		// A container created mid-batch must join the batch immediately, or
		// its later finishBatch call (at the next 1->0 transition) would be
		// the first one it ever saw and would have nothing queued to commit.
		cc.StartBatch()
	}
	s.containers[key] = &typedContainer[T]{container: cc}
	s.order = append(s.order, key)
	return cc
}

// SetSearchIndex wires idx to receive AddEntity/RemoveEntity notifications
// for every future change to T's container. It must be called before the
// scene has any entities with a T, since existing ones aren't backfilled.
func SetSearchIndex[T any](s *Scene, idx SearchIndex[T]) {
	containerFor[T](s) // ensure the container (and its registry entry) exists
	key := componentKey[T]()
	s.containers[key].(*typedContainer[T]).container.search = idx
}

// AddEntity allocates a fresh id with no components attached. Ids freed
// while a batch is open are not handed back out until the outermost
// FinishBatch, so a concurrent JoinEngine traversal never observes a
// recycled id. Returns InvalidEntity if the 32-bit id space is exhausted.
func (s *Scene) AddEntity() EntityID {
	if n := len(s.freeList); n > 0 {
		id := s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		s.liveCount++
		return id
	}
	if s.nextID == reservedEntity {
		s.nextID = 1
	}
	if s.nextID == InvalidEntity {
		return InvalidEntity
	}
	id := s.nextID
	s.nextID++
	s.liveCount++
	return id
}

// RemoveEntity erases every component id has, across every registered
// component type, then frees id for reuse. A no-op for InvalidEntity or an
// id that was already removed.
func (s *Scene) RemoveEntity(id EntityID) {
	if id == InvalidEntity || slices.Contains(s.freeList, id) || slices.Contains(s.pendingFree, id) {
		return
	}
	for _, key := range s.order {
		s.containers[key].eraseEntity(id)
	}
	s.liveCount--
	if s.batchDepth > 0 {
		s.pendingFree = append(s.pendingFree, id)
	} else {
		s.freeList = append(s.freeList, id)
	}
}

// ClearEntities removes every entity and every component of every type,
// and resets the allocator, as if the scene had just been created. If a
// batch is open, every pending level is committed first: spec §4.3's
// allocator reset only applies while not batching, and committing first
// keeps every container's occupancy, overlay, and checklist state
// consistent with each other instead of leaving them mid-batch while
// Size()/Contains() are reset out from under them.
func (s *Scene) ClearEntities() {
	for s.batchDepth > 0 {
		s.FinishBatch()
	}
	for _, key := range s.order {
		s.containers[key].clearAll()
	}
	s.nextID = 0
	s.freeList = nil
	s.pendingFree = nil
	s.liveCount = 0
	s.batchDepth = 0
}

// StartBatch defers structural changes (component adds/erases, and the
// reuse of freed entity ids) until the matching FinishBatch. Calls nest:
// containers are only told to start/finish batching on the outermost
// 0<->1 transition of the depth counter.
func (s *Scene) StartBatch() {
	s.batchDepth++
	if s.batchDepth == 1 {
		for _, key := range s.order {
			s.containers[key].startBatch()
		}
	}
}

// FinishBatch commits one level of deferred changes. Calling it more times
// than StartBatch was called is a no-op.
func (s *Scene) FinishBatch() {
	if s.batchDepth == 0 {
		return
	}
	s.batchDepth--
	if s.batchDepth == 0 {
		for _, key := range s.order {
			s.containers[key].finishBatch()
		}
		s.freeList = append(s.freeList, s.pendingFree...)
		s.pendingFree = s.pendingFree[:0]
	}
}

// Close emits one Removed[T] for every component still present, across
// every type, then dismantles the event dispatcher. Go has no destructors,
// so this is the explicit substitute for monkero's ~ecs() cleanup
// (original_source/monkeroecs.hh:1070-1090); call it when a Scene is done
// being used if anything is subscribed to Removed events.
func (s *Scene) Close() {
	s.ClearEntities()
	s.dispatcher.handlers = make(map[eventTypeKey][]subscription, 16)
}

// Attach adds or replaces id's T component, then attaches any components T
// was registered to depend on via RegisterDependency that id doesn't
// already have, and returns a pointer to the stored value.
func Attach[T any](s *Scene, id EntityID, value T) *T {
	c := containerFor[T](s)
	c.Insert(id, value)
	ensureDependencies[T](s, id)
	return c.Get(id)
}

// Get returns a pointer to id's T component, or nil if it doesn't have one.
func Get[T any](s *Scene, id EntityID) *T {
	return containerFor[T](s).Get(id)
}

// Has reports whether id currently has a T component.
func Has[T any](s *Scene, id EntityID) bool {
	return containerFor[T](s).Contains(id)
}

// Remove detaches id's T component. Components T depends on are left
// alone; only RemoveEntity cascades a removal across all types.
func Remove[T any](s *Scene, id EntityID) {
	containerFor[T](s).Erase(id)
}

// Count returns the number of entities in s that currently have a T.
func Count[T any](s *Scene) int {
	return containerFor[T](s).Size()
}

// ListEntities returns, in ascending order, every entity in s with a T.
func ListEntities[T any](s *Scene) []EntityID {
	c := containerFor[T](s)
	out := make([]EntityID, 0, c.Size())
	for id := c.Begin(); id != InvalidEntity; id = c.Advance(id) {
		out = append(out, id)
	}
	return out
}

// Concat appends every entity of src into dst under freshly allocated ids,
// copying each copyable component and skipping components whose type
// implements NonCopyable. Entities are created in dst even for components
// that get skipped, so dst gains one entity per src entity that carries at
// least one component; src entities with no components are not carried
// over. Returns the src-id -> dst-id mapping that was used.
func (dst *Scene) Concat(src *Scene) map[EntityID]EntityID {
	idMap := make(map[EntityID]EntityID)
	mapID := func(id EntityID) EntityID {
		if mapped, ok := idMap[id]; ok {
			return mapped
		}
		mapped := dst.AddEntity()
		idMap[id] = mapped
		return mapped
	}
	for _, key := range src.order {
		src.containers[key].concatInto(dst, mapID)
	}
	return idMap
}

// Copy duplicates srcID's copyable components onto a freshly allocated
// entity in dst (which may be src itself) and returns the new id.
// Components whose type implements NonCopyable are not duplicated.
func Copy(dst *Scene, src *Scene, srcID EntityID) EntityID {
	dstID := dst.AddEntity()
	for _, key := range src.order {
		src.containers[key].copyOne(dst, srcID, dstID)
	}
	return dstID
}
