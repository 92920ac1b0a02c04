package ecs

// joinTerm is one type-erased component requirement in a JoinEngine. The
// type itself is baked into the closures at construction time by
// Required/Optional, which is how this package gets variadic-arity queries
// without Go's lack of variadic type parameters getting in the way.
type joinTerm struct {
	required bool
	size     func() int
	begin    func() EntityID
	advance  func(EntityID) EntityID
	contains func(EntityID) bool
}

// JoinEngine builds a multi-component query over a Scene: visit every
// entity satisfying every Required term, never filtering on Optional
// terms. It mirrors monkero's ecs::ranged iteration
// (original_source/monkeroecs.hh:520-700): the pivot is the smallest
// required container, every other required term is a point-probe, and the
// whole traversal runs inside a batch so structural changes a callback
// makes are deferred until it finishes.
type JoinEngine struct {
	scene *Scene
	terms []joinTerm
}

// Join starts building a query against s.
func Join(s *Scene) *JoinEngine {
	return &JoinEngine{scene: s}
}

// Scene returns the scene this engine queries, so callers can pass it to
// Get[T]/Has[T] inside an Each callback.
func (j *JoinEngine) Scene() *Scene {
	return j.scene
}

// Required adds T to the join: only entities that have a T are visited.
func Required[T any](j *JoinEngine) *JoinEngine {
	c := containerFor[T](j.scene)
	j.terms = append(j.terms, joinTerm{
		required: true,
		size:     c.Size,
		begin:    c.Begin,
		advance:  c.Advance,
		contains: c.Contains,
	})
	return j
}

// Optional adds T to the join without filtering on it. If a JoinEngine has
// no Required terms at all, the traversal visits the union of every
// Optional term's entities instead of the Required intersection.
//
// If the JoinEngine has at least one Required term, an Optional term has no
// observable effect: Each's id-only callback never surfaces T's presence or
// value, so there is nothing for the optional check to do in that case.
// Call Get[T] or Has[T] inside the callback to read T; Optional only
// matters for forming the all-optional union case above.
func Optional[T any](j *JoinEngine) *JoinEngine {
	c := containerFor[T](j.scene)
	j.terms = append(j.terms, joinTerm{
		required: false,
		size:     c.Size,
		begin:    c.Begin,
		advance:  c.Advance,
		contains: c.Contains,
	})
	return j
}

// Each visits every matching entity in strictly ascending id order, calling
// fn for each. fn returning false stops the traversal early. The whole
// traversal runs under Scene.StartBatch/FinishBatch, including when fn
// panics, so structural changes fn makes never perturb the cursor it's
// currently driving.
func (j *JoinEngine) Each(fn func(id EntityID) bool) {
	j.scene.StartBatch()
	defer j.scene.FinishBatch()

	pivot := -1
	for i, t := range j.terms {
		if !t.required {
			continue
		}
		if pivot == -1 || t.size() < j.terms[pivot].size() {
			pivot = i
		}
	}

	if pivot == -1 {
		j.eachUnion(fn)
		return
	}

	for id := j.terms[pivot].begin(); id != InvalidEntity; id = j.terms[pivot].advance(id) {
		matched := true
		for i, t := range j.terms {
			if i == pivot || !t.required {
				continue
			}
			if !t.contains(id) {
				matched = false
				break
			}
		}
		if matched && !fn(id) {
			return
		}
	}
}

// eachUnion handles a JoinEngine with no Required terms: a k-way merge of
// every Optional term's ascending cursor, visiting each id that appears in
// at least one of them exactly once.
func (j *JoinEngine) eachUnion(fn func(id EntityID) bool) {
	cursors := make([]EntityID, len(j.terms))
	for i, t := range j.terms {
		cursors[i] = t.begin()
	}
	for {
		min := InvalidEntity
		for _, c := range cursors {
			if c != InvalidEntity && (min == InvalidEntity || c < min) {
				min = c
			}
		}
		if min == InvalidEntity {
			return
		}
		if !fn(min) {
			return
		}
		for i, t := range j.terms {
			if cursors[i] == min {
				cursors[i] = t.advance(min)
			}
		}
	}
}
