package ecs

// page holds one fixed-size slice of entity-id space for a single
// component type: 2^pageExp consecutive ids, their occupancy bitmask, and
// the run-end jump table used to skip gaps in O(1) amortized time.
//
// forward is meaningful only at a run's end offset: forward[e] holds the id
// of the next run's start, or InvalidEntity if there is none. Advance()
// only ever consults it after the cheap id+1 bitmask probe has already
// missed, which happens precisely when the cursor sits on a run's end.
//
// checklist entries live on the container, not the page; pages only carry
// the physical bitmask plus the batch overlay bitmask, since the overlay
// must be tested per-bit the same way occupancy is.
type page[T any] struct {
	occupancy []uint64
	overlay   []uint64 // nil until the first batched touch on this page
	forward   []EntityID

	payload  []T  // used when storage kind is kindInline
	indirect []*T // used when storage kind is kindIndirect

	live uint32
}

func newPage[T any](pageSize uint32, kind storageKind) *page[T] {
	p := &page[T]{
		occupancy: make([]uint64, wordsFor(pageSize)),
		forward:   make([]EntityID, pageSize),
	}
	switch kind {
	case kindInline:
		p.payload = make([]T, pageSize)
	case kindIndirect:
		p.indirect = make([]*T, pageSize)
	}
	return p
}
