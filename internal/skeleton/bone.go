// Package skeleton implements the bone hierarchy, the per-bone blend
// accumulator and the per-tick pose composition.
package skeleton

import (
	"errors"
	"fmt"

	"github.com/decker502/chore/internal/mathutil"
)

// Errors reported while building or loading a hierarchy.
var (
	ErrBadMagic     = errors.New("skeleton: bad magic")
	ErrTruncated    = errors.New("skeleton: truncated stream")
	ErrBadHierarchy = errors.New("skeleton: invalid hierarchy")
)

// Bone is one node of the hierarchy. Relations are arena indices.
type Bone struct {
	Name     string
	Index    int
	Parent   int
	Children []int
	Pivot    mathutil.Vec3
}

// BoneDef describes a bone before parent links are derived.
type BoneDef struct {
	Name     string
	Pivot    mathutil.Vec3
	Children []int
}

// Hierarchy is an immutable arena of bones. It can be shared by any number
// of Skeletons.
type Hierarchy struct {
	name   string
	bones  []Bone
	order  []int
	byName map[string]int
}

// NewHierarchy builds a hierarchy from child lists. Parent links are derived
// by inverting the child lists; a bone listed as the child of two bones, a
// bone listed as its own child, an out-of-range child or a cycle is an
// error.
func NewHierarchy(name string, defs []BoneDef) (*Hierarchy, error) {
	h := &Hierarchy{
		name:   name,
		bones:  make([]Bone, len(defs)),
		byName: make(map[string]int, len(defs)),
	}
	for i, d := range defs {
		h.bones[i] = Bone{
			Name:     d.Name,
			Index:    i,
			Parent:   -1,
			Children: append([]int(nil), d.Children...),
			Pivot:    d.Pivot,
		}
		if _, dup := h.byName[d.Name]; !dup {
			h.byName[d.Name] = i
		}
	}

	for i := range h.bones {
		for _, c := range h.bones[i].Children {
			switch {
			case c < 0 || c >= len(h.bones):
				return nil, fmt.Errorf("%w: %q: bone %d lists child %d (of %d bones)", ErrBadHierarchy, name, i, c, len(h.bones))
			case c == i:
				return nil, fmt.Errorf("%w: %q: bone %d lists itself as child", ErrBadHierarchy, name, i)
			case h.bones[c].Parent != -1:
				return nil, fmt.Errorf("%w: %q: bone %d has parents %d and %d", ErrBadHierarchy, name, c, h.bones[c].Parent, i)
			}
			h.bones[c].Parent = i
		}
	}

	// Depth-first from every root. Bones on a cycle have a parent but are
	// unreachable from any root.
	h.order = make([]int, 0, len(h.bones))
	stack := make([]int, 0, len(h.bones))
	for i := range h.bones {
		if h.bones[i].Parent != -1 {
			continue
		}
		stack = append(stack, i)
		for len(stack) > 0 {
			b := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			h.order = append(h.order, b)
			ch := h.bones[b].Children
			for j := len(ch) - 1; j >= 0; j-- {
				stack = append(stack, ch[j])
			}
		}
	}
	if len(h.order) != len(h.bones) {
		return nil, fmt.Errorf("%w: %q: %d bones unreachable from a root (cycle)", ErrBadHierarchy, name, len(h.bones)-len(h.order))
	}
	return h, nil
}

// Name returns the resource name the hierarchy was loaded from.
func (h *Hierarchy) Name() string { return h.name }

// Len returns the number of bones.
func (h *Hierarchy) Len() int { return len(h.bones) }

// Bone returns the bone at index i.
func (h *Hierarchy) Bone(i int) *Bone { return &h.bones[i] }

// Index returns the index of the first bone called name.
func (h *Hierarchy) Index(name string) (int, bool) {
	i, ok := h.byName[name]
	return i, ok
}

// Order returns bone indices in depth-first order: every parent appears
// before its children. The slice must not be modified.
func (h *Hierarchy) Order() []int { return h.order }
