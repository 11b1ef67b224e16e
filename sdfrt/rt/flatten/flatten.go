// Package flatten orders scene primitives into the sequence the raymarch
// kernel walks.
//
// Roots come first sorted by combine operation; each root is followed by its
// direct primitive children. Only one level of hierarchy is kept: children of
// children are never visited.
package flatten

import (
	"fmt"
	"slices"

	"github.com/gekko3d/raymarch/sdfrt/rt/core"
)

// Entry is one slot of the ordered buffer.
type Entry struct {
	Node *core.Node
	// ChildCount is the number of entries that follow a root and belong to
	// it. Always 0 for children.
	ChildCount int32
}

// IsRoot reports whether the entry was emitted as a root.
func (e Entry) IsRoot() bool {
	_, hasParent := e.Node.PrimitiveParent()
	return !hasParent
}

// Flatten orders prims, which must be every primitive node of the scene in
// discovery order. Nodes without a primitive are ignored.
func Flatten(prims []*core.Node) []Entry {
	sorted := make([]*core.Node, 0, len(prims))
	for _, n := range prims {
		if n.Primitive != nil {
			sorted = append(sorted, n)
		}
	}
	slices.SortStableFunc(sorted, func(a, b *core.Node) int {
		return int(a.Primitive.OperationCode()) - int(b.Primitive.OperationCode())
	})

	out := make([]Entry, 0, len(sorted))
	for _, n := range sorted {
		// Children are emitted after their root.
		if _, ok := n.PrimitiveParent(); ok {
			continue
		}

		rootIdx := len(out)
		out = append(out, Entry{Node: n})
		for _, child := range n.Children() {
			if child.Primitive == nil {
				continue
			}
			out = append(out, Entry{Node: child, ChildCount: 0})
		}
		out[rootIdx].ChildCount = int32(len(out) - rootIdx - 1)
	}
	return out
}

// Nodes returns the node of every entry, in buffer order.
func Nodes(entries []Entry) []*core.Node {
	nodes := make([]*core.Node, len(entries))
	for i, e := range entries {
		nodes[i] = e.Node
	}
	return nodes
}

// Roots returns only the root entries, in order. It stops at the first entry
// with a negative child count.
func Roots(entries []Entry) []Entry {
	var roots []Entry
	for i := 0; i < len(entries); i += int(entries[i].ChildCount) + 1 {
		if entries[i].ChildCount < 0 {
			break
		}
		roots = append(roots, entries[i])
	}
	return roots
}

// Validate checks the ordering contract of an ordered buffer. It is used by
// tests and by the debug path of the frame controller.
func Validate(entries []Entry) error {
	lastOp := int32(-1 << 31)
	for i := 0; i < len(entries); {
		root := entries[i]
		if !root.IsRoot() {
			return fmt.Errorf("entry %d (%s): expected a root, found a child", i, root.Node.Name)
		}
		op := root.Node.Primitive.OperationCode()
		if op < lastOp {
			return fmt.Errorf("entry %d (%s): operation %d after %d", i, root.Node.Name, op, lastOp)
		}
		lastOp = op

		n := int(root.ChildCount)
		if i+n >= len(entries) && n > 0 {
			return fmt.Errorf("entry %d (%s): %d children overrun buffer of %d", i, root.Node.Name, n, len(entries))
		}
		var want []*core.Node
		for _, c := range root.Node.Children() {
			if c.Primitive != nil {
				want = append(want, c)
			}
		}
		if len(want) != n {
			return fmt.Errorf("entry %d (%s): child count %d, has %d primitive children", i, root.Node.Name, n, len(want))
		}
		for j, c := range want {
			got := entries[i+1+j]
			if got.Node != c {
				return fmt.Errorf("entry %d: expected child %s of %s, found %s", i+1+j, c.Name, root.Node.Name, got.Node.Name)
			}
			if got.ChildCount != 0 {
				return fmt.Errorf("entry %d (%s): child has child count %d", i+1+j, c.Name, got.ChildCount)
			}
		}
		i += n + 1
	}
	return nil
}
