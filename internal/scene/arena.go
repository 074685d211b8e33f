// Package scene holds the arena-backed node hierarchy and the drawable
// element kinds placed into it.
//
// Nodes live in a flat slab addressed by integer handles. Freed slots are
// reused and handles carry no generation: callers must not hold a handle
// across a Destroy of the node it names.
package scene

import (
	"errors"
	"fmt"
	"sort"
)

// Handle is an index into the arena slab.
type Handle int

// None is the null handle.
const None Handle = -1

var (
	// ErrInvalidHandle marks use of a freed or out-of-range handle — a
	// caller bug, surfaced with context.
	ErrInvalidHandle = errors.New("invalid node handle")
	// ErrCycleWouldForm is returned by Attach when the child is an
	// ancestor of the requested parent.
	ErrCycleWouldForm = errors.New("attach would form a cycle")
)

// Node is one slot of the scene arena.
type Node struct {
	Parent   Handle
	Children []Handle

	Style     Style
	Transform *Transform
	ZIndex    int
	Mask      Handle
	BlendMode int
	Element   Element
	Name      string

	// Layout is the rectangle computed by the layout pass for the current
	// frame, in the parent's coordinate space.
	Layout Rect
}

// Arena owns every node exclusively; handles are views into it.
type Arena struct {
	nodes []*Node
	free  []Handle
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Create inserts a node wrapping the element and returns its handle,
// reusing a freed slot when one is available.
func (a *Arena) Create(el Element) Handle {
	n := &Node{
		Parent:    None,
		Mask:      None,
		Transform: NewTransform(),
		Element:   el,
		Style:     DefaultStyle(),
	}
	if len(a.free) > 0 {
		h := a.free[len(a.free)-1]
		a.free = a.free[:len(a.free)-1]
		a.nodes[h] = n
		return h
	}
	a.nodes = append(a.nodes, n)
	return Handle(len(a.nodes) - 1)
}

// Get returns the node for a handle, or ErrInvalidHandle.
func (a *Arena) Get(h Handle) (*Node, error) {
	if h < 0 || int(h) >= len(a.nodes) || a.nodes[h] == nil {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHandle, h)
	}
	return a.nodes[h], nil
}

// Valid reports whether the handle names a live node.
func (a *Arena) Valid(h Handle) bool {
	return h >= 0 && int(h) < len(a.nodes) && a.nodes[h] != nil
}

// node is Get without the error path, for internal traversals that have
// already validated the handle.
func (a *Arena) node(h Handle) *Node { return a.nodes[h] }

// Attach links child under parent, keeping the parent/child links
// symmetric. Re-attaching under the same parent is a no-op; attaching a
// node that would become its own ancestor fails with ErrCycleWouldForm.
func (a *Arena) Attach(parent, child Handle) error {
	if parent == child {
		return fmt.Errorf("%w: node %d under itself", ErrCycleWouldForm, child)
	}
	p, err := a.Get(parent)
	if err != nil {
		return err
	}
	c, err := a.Get(child)
	if err != nil {
		return err
	}

	// Walk up from parent: if we meet child, linking would close a loop.
	for cur := parent; cur != None; {
		if cur == child {
			return fmt.Errorf("%w: %d is an ancestor of %d", ErrCycleWouldForm, child, parent)
		}
		cur = a.node(cur).Parent
	}

	if c.Parent == parent {
		return nil
	}
	if c.Parent != None {
		a.detach(c.Parent, child)
	}
	p.Children = append(p.Children, child)
	c.Parent = parent
	return nil
}

func (a *Arena) detach(parent, child Handle) {
	p := a.node(parent)
	for i, h := range p.Children {
		if h == child {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			break
		}
	}
	a.node(child).Parent = None
}

// Destroy frees the node and all of its descendants, recycling their
// slots immediately. Handles to destroyed nodes become stale.
func (a *Arena) Destroy(h Handle) {
	if !a.Valid(h) {
		return
	}
	n := a.node(h)
	if n.Parent != None && a.Valid(n.Parent) {
		a.detach(n.Parent, h)
	}
	a.destroyRec(h)
}

func (a *Arena) destroyRec(h Handle) {
	n := a.node(h)
	for _, c := range n.Children {
		if a.Valid(c) {
			a.destroyRec(c)
		}
	}
	a.nodes[h] = nil
	a.free = append(a.free, h)
}

// Descendants visits root and every node below it depth-first, preorder.
// Children are visited in insertion order; z-index sorting is a render
// concern.
func (a *Arena) Descendants(root Handle, visit func(Handle, *Node)) {
	if !a.Valid(root) {
		return
	}
	n := a.node(root)
	visit(root, n)
	for _, c := range n.Children {
		a.Descendants(c, visit)
	}
}

// ChildrenByZ returns the children of h sorted by z-index. The sort is
// stable: equal z keeps insertion order.
func (a *Arena) ChildrenByZ(h Handle) []Handle {
	n := a.node(h)
	out := make([]Handle, len(n.Children))
	copy(out, n.Children)
	sort.SliceStable(out, func(i, j int) bool {
		return a.node(out[i]).ZIndex < a.node(out[j]).ZIndex
	})
	return out
}

// Len reports the number of live nodes.
func (a *Arena) Len() int {
	return len(a.nodes) - len(a.free)
}
