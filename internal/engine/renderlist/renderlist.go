// Package renderlist collects the per-frame draw submissions handed to the
// renderer.
package renderlist

import "github.com/go-gl/mathgl/mgl32"

// Kind distinguishes the item payloads the renderer handles.
type Kind uint8

const (
	KindMesh Kind = iota
	KindSkinnedMesh
	KindLines
)

func (k Kind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindSkinnedMesh:
		return "skinned-mesh"
	case KindLines:
		return "lines"
	default:
		return "unknown"
	}
}

// Line is a world space segment.
type Line struct {
	From, To mgl32.Vec3
	Color    mgl32.Vec3
}

// Item is one draw submission. SkinMatrices is set only for KindSkinnedMesh
// and Lines only for KindLines.
type Item struct {
	Kind         Kind
	Mesh         string
	World        mgl32.Mat4
	SkinMatrices []mgl32.Mat4
	Lines        []Line
	Layer        int
}

// List is an append-only frame list. Clear it at the start of each frame.
type List struct {
	items []Item
}

// Submit appends an item.
func (l *List) Submit(item Item) {
	l.items = append(l.items, item)
}

// Items returns the submitted items in order.
func (l *List) Items() []Item { return l.items }

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// Clear drops all items and keeps the backing storage.
func (l *List) Clear() { l.items = l.items[:0] }

// LineCount returns the number of segments over all KindLines items.
func (l *List) LineCount() int {
	n := 0
	for i := range l.items {
		if l.items[i].Kind == KindLines {
			n += len(l.items[i].Lines)
		}
	}
	return n
}

// Count returns the number of items of the given kind.
func (l *List) Count(kind Kind) int {
	n := 0
	for i := range l.items {
		if l.items[i].Kind == kind {
			n++
		}
	}
	return n
}
