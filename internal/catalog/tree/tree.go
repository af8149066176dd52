// Package tree resolves a flat, self-referencing category list into a forest.
//
// Nodes live in an arena slice and children are stored as index lists, so the
// structure never holds pointer cycles. Parent links that point outside the
// input set turn the node into a root. Cycles are not detected: traversal
// always starts from roots, so it terminates, and nodes that are only
// reachable through a cycle are never emitted.
package tree

// Item is anything that can be placed in the forest.
type Item interface {
	NodeID() int64
	ParentNodeID() *int64
}

type node[T Item] struct {
	item     T
	parent   int
	children []int
}

// Forest is an arena of nodes built from a flat list.
type Forest[T Item] struct {
	nodes []node[T]
	index map[int64]int
	roots []int
}

// Entry is a node emitted by Flatten with its nesting depth (roots are 0).
type Entry[T Item] struct {
	Item  T
	Depth int
}

// Build creates a forest from items. Roots and children keep input order.
// Duplicate ids after the first occurrence are ignored.
func Build[T Item](items []T) *Forest[T] {
	f := &Forest[T]{
		nodes: make([]node[T], 0, len(items)),
		index: make(map[int64]int, len(items)),
	}

	for _, item := range items {
		id := item.NodeID()
		if _, exists := f.index[id]; exists {
			continue
		}
		f.index[id] = len(f.nodes)
		f.nodes = append(f.nodes, node[T]{item: item, parent: -1})
	}

	for i := range f.nodes {
		parentID := f.nodes[i].item.ParentNodeID()
		if parentID == nil {
			f.roots = append(f.roots, i)
			continue
		}
		parent, ok := f.index[*parentID]
		if !ok {
			f.roots = append(f.roots, i)
			continue
		}
		f.nodes[i].parent = parent
		f.nodes[parent].children = append(f.nodes[parent].children, i)
	}

	return f
}

// Len returns the number of distinct nodes in the forest.
func (f *Forest[T]) Len() int {
	return len(f.nodes)
}

// Contains reports whether id is part of the forest.
func (f *Forest[T]) Contains(id int64) bool {
	_, ok := f.index[id]
	return ok
}

// Roots returns the root items in input order.
func (f *Forest[T]) Roots() []T {
	out := make([]T, 0, len(f.roots))
	for _, idx := range f.roots {
		out = append(out, f.nodes[idx].item)
	}
	return out
}

// Flatten returns a pre-order traversal annotated with depth.
func (f *Forest[T]) Flatten() []Entry[T] {
	out := make([]Entry[T], 0, len(f.nodes))
	for _, root := range f.roots {
		out = f.walk(out, root, 0)
	}
	return out
}

// Descendants returns id followed by every id in its subtree, in pre-order.
// Unknown ids yield nil.
func (f *Forest[T]) Descendants(id int64) []int64 {
	idx, ok := f.index[id]
	if !ok {
		return nil
	}
	entries := f.walk(nil, idx, 0)
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Item.NodeID())
	}
	return out
}

// Ancestors returns the parent chain of id, nearest first. The walk is
// bounded by the node count so malformed data cannot loop forever.
func (f *Forest[T]) Ancestors(id int64) []int64 {
	idx, ok := f.index[id]
	if !ok {
		return nil
	}
	var out []int64
	for steps := 0; steps < len(f.nodes)-1; steps++ {
		idx = f.nodes[idx].parent
		if idx < 0 {
			break
		}
		out = append(out, f.nodes[idx].item.NodeID())
	}
	return out
}

func (f *Forest[T]) walk(out []Entry[T], start, depth int) []Entry[T] {
	type frame struct {
		idx   int
		depth int
	}
	stack := []frame{{idx: start, depth: depth}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := f.nodes[top.idx]
		out = append(out, Entry[T]{Item: n.item, Depth: top.depth})

		// push in reverse so the first child is visited first
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, frame{idx: n.children[i], depth: top.depth + 1})
		}
	}
	return out
}
