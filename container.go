package ecs

import "slices"

// storageKind selects how a ComponentContainer lays out payload memory for
// its component type, per spec §3's three storage classes.
type storageKind int

const (
	kindEmpty storageKind = iota
	kindInline
	kindIndirect
)

func storageKindFor[T any]() storageKind {
	if isIndirect[T]() {
		return kindIndirect
	}
	var zero T
	if sizeOf(zero) == 0 {
		return kindEmpty
	}
	return kindInline
}

// ComponentContainer is the sparse per-component-type store described in
// spec §4.1: a paged occupancy bitmask with an amortized-O(1) jump table for
// gap skipping, plus the batch overlay that lets Scene defer structural
// changes made while a JoinEngine traversal is in flight.
type ComponentContainer[T any] struct {
	kind     storageKind
	pageExp  uint
	pageSize uint32
	pageMask uint32

	pages      []*page[T]
	topBitmask []uint64

	size  int
	minID EntityID

	batching     bool
	checklist    []EntityID
	checklistPos map[EntityID]int

	dispatcher *EventDispatcher
	search     SearchIndex[T]

	tag T // zero value returned by Get for kindEmpty components
}

// NewComponentContainer constructs an empty container for component type T.
// dispatcher may be nil, in which case Added[T]/Removed[T] are never
// published. search may be nil, in which case no search index is notified.
func NewComponentContainer[T any](dispatcher *EventDispatcher, search SearchIndex[T]) *ComponentContainer[T] {
	exp := PageExpHint[T]()
	size := uint32(1) << exp
	return &ComponentContainer[T]{
		kind:         storageKindFor[T](),
		pageExp:      exp,
		pageSize:     size,
		pageMask:     size - 1,
		minID:        InvalidEntity,
		checklistPos: make(map[EntityID]int),
		dispatcher:   dispatcher,
		search:       search,
	}
}

func (c *ComponentContainer[T]) split(id EntityID) (pageIdx, offset uint32) {
	v := uint32(id)
	return v >> c.pageExp, v & c.pageMask
}

func (c *ComponentContainer[T]) join(pageIdx, offset uint32) EntityID {
	return EntityID(pageIdx<<c.pageExp | offset)
}

func (c *ComponentContainer[T]) pageAt(pageIdx uint32) *page[T] {
	if int(pageIdx) >= len(c.pages) {
		return nil
	}
	return c.pages[pageIdx]
}

func (c *ComponentContainer[T]) ensurePage(pageIdx uint32) *page[T] {
	for uint32(len(c.pages)) <= pageIdx {
		c.pages = append(c.pages, nil)
	}
	if c.pages[pageIdx] == nil {
		c.pages[pageIdx] = newPage[T](c.pageSize, c.kind)
	}
	needed := wordsFor(pageIdx + 1)
	for len(c.topBitmask) < needed {
		c.topBitmask = append(c.topBitmask, 0)
	}
	return c.pages[pageIdx]
}

func (c *ComponentContainer[T]) rawOccupied(id EntityID) bool {
	pageIdx, offset := c.split(id)
	p := c.pageAt(pageIdx)
	if p == nil {
		return false
	}
	return testBit(p.occupancy, offset)
}

func (c *ComponentContainer[T]) overlayBit(id EntityID) bool {
	pageIdx, offset := c.split(id)
	p := c.pageAt(pageIdx)
	if p == nil || p.overlay == nil {
		return false
	}
	return testBit(p.overlay, offset)
}

// Contains reports whether id currently has a component of type T. While
// batching, this honors pending adds/erases that haven't committed yet.
func (c *ComponentContainer[T]) Contains(id EntityID) bool {
	if id == InvalidEntity {
		return false
	}
	occ := c.rawOccupied(id)
	if !c.batching {
		return occ
	}
	return occ != c.overlayBit(id)
}

// Size returns the number of entities currently holding T, including
// pending batched adds and excluding pending batched erases.
func (c *ComponentContainer[T]) Size() int {
	return c.size
}

func (c *ComponentContainer[T]) payloadPtr(p *page[T], offset uint32) *T {
	switch c.kind {
	case kindEmpty:
		return &c.tag
	case kindIndirect:
		return p.indirect[offset]
	default:
		return &p.payload[offset]
	}
}

func (c *ComponentContainer[T]) writePayload(p *page[T], offset uint32, value T) {
	switch c.kind {
	case kindEmpty:
		return
	case kindIndirect:
		if p.indirect[offset] == nil {
			v := value
			p.indirect[offset] = &v
		} else {
			*p.indirect[offset] = value
		}
	default:
		p.payload[offset] = value
	}
}

// Get returns a pointer to id's component, or nil if id does not have one.
// The pointer is stable until the next commit that erases id (inline and
// empty storage point into page-owned arrays; indirect storage points at a
// per-entity allocation that later inserts never move).
func (c *ComponentContainer[T]) Get(id EntityID) *T {
	if !c.Contains(id) {
		return nil
	}
	pageIdx, offset := c.split(id)
	return c.payloadPtr(c.pages[pageIdx], offset)
}

func (c *ComponentContainer[T]) setMin(id EntityID) {
	c.minID = id
}

// Begin returns the smallest occupied id, or InvalidEntity if the container
// is empty.
func (c *ComponentContainer[T]) Begin() EntityID {
	return c.minID
}

// nextOccupied finds the smallest physically-occupied id >= from, ignoring
// the batch overlay entirely; it is jump-table bookkeeping, not a query.
func (c *ComponentContainer[T]) nextOccupied(from EntityID) (EntityID, bool) {
	pageIdx, offset := c.split(from)
	if p := c.pageAt(pageIdx); p != nil {
		if bit, ok := nextSetBit(p.occupancy, offset); ok {
			return c.join(pageIdx, bit), true
		}
	}
	nextPage, ok := nextSetBit(c.topBitmask, pageIdx+1)
	if !ok {
		return InvalidEntity, false
	}
	bit, _ := nextSetBit(c.pages[nextPage].occupancy, 0)
	return c.join(nextPage, bit), true
}

// prevOccupied finds the largest physically-occupied id <= from.
func (c *ComponentContainer[T]) prevOccupied(from EntityID) (EntityID, bool) {
	pageIdx, offset := c.split(from)
	if p := c.pageAt(pageIdx); p != nil {
		if bit, ok := prevSetBit(p.occupancy, offset); ok {
			return c.join(pageIdx, bit), true
		}
	}
	if pageIdx == 0 {
		return InvalidEntity, false
	}
	prevPage, ok := prevSetBit(c.topBitmask, pageIdx-1)
	if !ok {
		return InvalidEntity, false
	}
	bit, _ := prevSetBit(c.pages[prevPage].occupancy, c.pageSize-1)
	return c.join(prevPage, bit), true
}

// Advance returns the smallest occupied id strictly greater than id, or
// InvalidEntity if none remain. id must currently be occupied.
func (c *ComponentContainer[T]) Advance(id EntityID) EntityID {
	if id == InvalidEntity {
		return InvalidEntity
	}
	next := EntityID(uint32(id) + 1)
	if next != InvalidEntity && c.rawOccupied(next) {
		return next
	}
	pageIdx, offset := c.split(id)
	p := c.pageAt(pageIdx)
	if p == nil {
		return InvalidEntity
	}
	return p.forward[offset]
}

// TryAdvance reports whether target currently holds a component, honoring
// the batch overlay the same way Contains does; it is equivalent to
// Contains, which is what JoinEngine calls to probe a candidate id.
func (c *ComponentContainer[T]) TryAdvance(target EntityID) bool {
	return c.Contains(target)
}

func (c *ComponentContainer[T]) signalAdd(id EntityID, ptr *T) {
	if c.search != nil {
		c.search.AddEntity(id, ptr)
	}
	if c.dispatcher != nil {
		Publish(c.dispatcher, Added[T]{ID: id, Ptr: ptr})
	}
}

func (c *ComponentContainer[T]) signalRemove(id EntityID, ptr *T) {
	if c.search != nil {
		c.search.RemoveEntity(id, ptr)
	}
	if c.dispatcher != nil {
		Publish(c.dispatcher, Removed[T]{ID: id, Ptr: ptr})
	}
}

// setOccupied marks id physically occupied, repairing the jump table and the
// container-wide minimum. Callers must have already written the payload and
// must not have set the occupancy bit yet.
func (c *ComponentContainer[T]) setOccupied(id EntityID) {
	prev, hasPrev := c.prevOccupiedExclusive(id)
	next, hasNext := c.nextOccupiedExclusive(id)

	pageIdx, offset := c.split(id)
	p := c.ensurePage(pageIdx)
	if p.live == 0 {
		setBit(c.topBitmask, pageIdx)
	}
	setBit(p.occupancy, offset)
	p.live++

	leftAdjacent := hasPrev && uint32(prev)+1 == uint32(id)
	rightAdjacent := hasNext && uint32(id)+1 == uint32(next)

	switch {
	case !leftAdjacent && !rightAdjacent:
		if hasPrev {
			c.setForward(prev, id)
		}
		c.setForward(id, invalidOr(next, hasNext))
	case rightAdjacent && !leftAdjacent:
		if hasPrev {
			c.setForward(prev, id)
		}
	case leftAdjacent && !rightAdjacent:
		c.setForward(id, invalidOr(next, hasNext))
	default:
		// Both neighbors adjacent: id merges two runs; their boundary
		// entries are untouched and become interior (unread) positions.
	}

	if !hasPrev {
		c.setMin(id)
	}
}

// clearOccupied marks id physically unoccupied, repairing the jump table,
// the top-level page bitmask, and the container-wide minimum. Callers must
// call this before clearing the payload. It keeps topBitmask exactly in
// sync with whether the page has any occupant left (nextOccupied/
// prevOccupied depend on that to decide whether to descend into a page at
// all), but it does not free the page's own arrays even when this was its
// last occupant: a page committed empty can still receive a same-page
// pending insert later in the same commit pass, and freeing the arrays
// immediately would orphan a payload already written into them. Callers
// must call releaseEmptyPage once they're done touching the page.
func (c *ComponentContainer[T]) clearOccupied(id EntityID) {
	prev, hasPrev := c.prevOccupiedExclusive(id)
	next, hasNext := c.nextOccupiedExclusive(id)

	pageIdx, offset := c.split(id)
	p := c.pages[pageIdx]
	clearBit(p.occupancy, offset)
	p.live--
	if p.live == 0 {
		clearBit(c.topBitmask, pageIdx)
	}

	if hasPrev {
		c.setForward(prev, invalidOr(next, hasNext))
	}
	if id == c.minID {
		c.setMin(invalidOr(next, hasNext))
	}
}

// releaseEmptyPage frees pageIdx's page arrays if it still has no occupants
// (topBitmask is already accurate by the time this runs; this only
// reclaims memory). A no-op if the page has since been refilled or was
// already released.
func (c *ComponentContainer[T]) releaseEmptyPage(pageIdx uint32) {
	p := c.pageAt(pageIdx)
	if p == nil || p.live != 0 {
		return
	}
	c.pages[pageIdx] = nil
}

// prevOccupiedExclusive/nextOccupiedExclusive search strictly before/after
// id, guarding the uint32 wraparound at the ends of the id space.
func (c *ComponentContainer[T]) prevOccupiedExclusive(id EntityID) (EntityID, bool) {
	if id == 0 {
		return InvalidEntity, false
	}
	return c.prevOccupied(EntityID(uint32(id) - 1))
}

func (c *ComponentContainer[T]) nextOccupiedExclusive(id EntityID) (EntityID, bool) {
	if uint32(id) == uint32(InvalidEntity)-1 {
		return InvalidEntity, false
	}
	return c.nextOccupied(EntityID(uint32(id) + 1))
}

func (c *ComponentContainer[T]) setForward(runEnd, value EntityID) {
	pageIdx, offset := c.split(runEnd)
	c.pages[pageIdx].forward[offset] = value
}

func invalidOr(id EntityID, ok bool) EntityID {
	if !ok {
		return InvalidEntity
	}
	return id
}

// toggleOverlay flips the pending-change bit for id and maintains the
// checklist: a second toggle within the same batch cancels the first and
// removes id from the checklist, rather than appending a duplicate entry.
func (c *ComponentContainer[T]) toggleOverlay(id EntityID) {
	pageIdx, offset := c.split(id)
	p := c.ensurePage(pageIdx)
	if p.overlay == nil {
		p.overlay = make([]uint64, wordsFor(c.pageSize))
	}
	if testBit(p.overlay, offset) {
		clearBit(p.overlay, offset)
		if idx, ok := c.checklistPos[id]; ok {
			c.checklist[idx] = InvalidEntity
			delete(c.checklistPos, id)
		}
		return
	}
	setBit(p.overlay, offset)
	c.checklistPos[id] = len(c.checklist)
	c.checklist = append(c.checklist, id)
}

// Insert attaches value to id, or replaces its existing component. On
// replace, Removed is published for the old value before it is overwritten,
// then Added for the new one, matching spec §4.1's replace-insert ordering.
// Inserting InvalidEntity is a silent no-op.
func (c *ComponentContainer[T]) Insert(id EntityID, value T) {
	if id == InvalidEntity {
		return
	}
	pageIdx, offset := c.split(id)
	p := c.ensurePage(pageIdx)

	if c.Contains(id) {
		old := c.payloadPtr(p, offset)
		c.signalRemove(id, old)
		c.writePayload(p, offset, value)
		c.signalAdd(id, c.payloadPtr(p, offset))
		return
	}

	c.size++
	c.writePayload(p, offset, value)
	ptr := c.payloadPtr(p, offset)
	if c.batching {
		c.toggleOverlay(id)
		c.signalAdd(id, ptr)
		return
	}
	c.setOccupied(id)
	c.signalAdd(id, ptr)
}

// Erase detaches id's component, if it has one. Erasing an id with no
// component, or InvalidEntity, is a no-op.
func (c *ComponentContainer[T]) Erase(id EntityID) {
	if !c.Contains(id) {
		return
	}
	pageIdx, offset := c.split(id)
	p := c.pages[pageIdx]
	ptr := c.payloadPtr(p, offset)
	c.signalRemove(id, ptr)
	c.size--

	if c.batching {
		c.toggleOverlay(id)
		return
	}
	c.clearOccupied(id)
	c.writePayload(p, offset, zeroValue[T]())
	c.releaseEmptyPage(pageIdx)
}

func zeroValue[T any]() T {
	var z T
	return z
}

// Clear removes every entity's component, in ascending id order, publishing
// Removed for each.
func (c *ComponentContainer[T]) Clear() {
	ids := make([]EntityID, 0, c.size)
	for id := c.Begin(); id != InvalidEntity; id = c.Advance(id) {
		ids = append(ids, id)
	}
	if c.batching {
		// Pending adds are not physically occupied yet, so the walk above
		// misses them; the checklist has them.
		for _, id := range c.checklist {
			if id != InvalidEntity && !c.rawOccupied(id) {
				ids = append(ids, id)
			}
		}
		slices.Sort(ids)
		for _, id := range ids {
			c.Erase(id)
		}
		return
	}
	for _, id := range ids {
		pageIdx, offset := c.split(id)
		c.signalRemove(id, c.payloadPtr(c.pages[pageIdx], offset))
	}
	c.size = 0
	c.pages = nil
	c.topBitmask = nil
	c.minID = InvalidEntity
}

// StartBatch begins deferring structural changes. Safe to call while
// already batching (Scene tracks the nesting depth and only calls this on
// the 0->1 transition).
func (c *ComponentContainer[T]) StartBatch() {
	c.batching = true
}

// FinishBatch commits every pending add/erase recorded since StartBatch, in
// the order they were first touched, then stops deferring. Page release for
// any page a commit-erase emptied runs only after every checklist entry has
// landed, so a later entry in that same page (e.g. a pending insert landing
// where a pending erase just vacated) always finds its page still allocated.
func (c *ComponentContainer[T]) FinishBatch() {
	checklist := c.checklist
	c.checklist = nil
	c.checklistPos = make(map[EntityID]int)
	c.batching = false

	touchedPages := make([]uint32, 0, len(checklist))
	for _, id := range checklist {
		if id == InvalidEntity {
			continue
		}
		pageIdx, offset := c.split(id)
		p := c.pages[pageIdx]
		if p.overlay != nil {
			clearBit(p.overlay, offset)
		}
		if testBit(p.occupancy, offset) {
			c.clearOccupied(id)
			c.writePayload(p, offset, zeroValue[T]())
			touchedPages = append(touchedPages, pageIdx)
		} else {
			c.setOccupied(id)
		}
	}
	for _, pageIdx := range touchedPages {
		c.releaseEmptyPage(pageIdx)
	}
}
