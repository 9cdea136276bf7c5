package dynamics

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// Pair is a pair of bodies whose bounds overlap.
type Pair struct {
	A, B *RigidBody
}

type pairKey struct {
	lo, hi uint64
}

func keyOf(a, b *RigidBody) pairKey {
	if a.id > b.id {
		a, b = b, a
	}
	return pairKey{a.id, b.id}
}

// PairCache tracks overlapping body pairs between steps.
type PairCache struct {
	pairs map[pairKey]Pair
}

// NewPairCache returns an empty cache.
func NewPairCache() *PairCache {
	return &PairCache{pairs: make(map[pairKey]Pair)}
}

// Len returns the number of cached pairs.
func (c *PairCache) Len() int { return len(c.pairs) }

// Pairs returns the cached pairs ordered by body id.
func (c *PairCache) Pairs() []Pair {
	keys := make([]pairKey, 0, len(c.pairs))
	for k := range c.pairs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].lo != keys[j].lo {
			return keys[i].lo < keys[j].lo
		}
		return keys[i].hi < keys[j].hi
	})
	out := make([]Pair, len(keys))
	for i, k := range keys {
		out[i] = c.pairs[k]
	}
	return out
}

// Contains reports whether a and b are cached as overlapping.
func (c *PairCache) Contains(a, b *RigidBody) bool {
	_, ok := c.pairs[keyOf(a, b)]
	return ok
}

// CleanOverlappingPairs drops every pair that involves b.
func (c *PairCache) CleanOverlappingPairs(b *RigidBody) int {
	n := 0
	for k, p := range c.pairs {
		if p.A == b || p.B == b {
			delete(c.pairs, k)
			n++
		}
	}
	return n
}

// Clear drops every pair.
func (c *PairCache) Clear() {
	for k := range c.pairs {
		delete(c.pairs, k)
	}
}

type aabb struct {
	lo, hi mgl32.Vec3
}

func (a aabb) overlaps(b aabb) bool {
	for i := 0; i < 3; i++ {
		if a.hi[i] < b.lo[i] || b.hi[i] < a.lo[i] {
			return false
		}
	}
	return true
}

// update rebuilds the cache from the current body bounds. Static pairs and
// pairs excluded by skip are never cached.
func (c *PairCache) update(bodies []*RigidBody, skip func(a, b *RigidBody) bool) {
	c.Clear()
	boxes := make([]aabb, len(bodies))
	for i, b := range bodies {
		if b.shape == nil || b.shape.Kind == ShapeEmpty {
			continue
		}
		lo, hi := b.shape.AABB(b.transform)
		boxes[i] = aabb{lo, hi}
	}
	for i := 0; i < len(bodies); i++ {
		a := bodies[i]
		if a.shape == nil || a.shape.Kind == ShapeEmpty {
			continue
		}
		for j := i + 1; j < len(bodies); j++ {
			b := bodies[j]
			if b.shape == nil || b.shape.Kind == ShapeEmpty {
				continue
			}
			if a.IsStatic() && b.IsStatic() {
				continue
			}
			if skip != nil && skip(a, b) {
				continue
			}
			if boxes[i].overlaps(boxes[j]) {
				c.pairs[keyOf(a, b)] = Pair{A: a, B: b}
			}
		}
	}
}
