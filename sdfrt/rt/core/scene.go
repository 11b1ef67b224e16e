package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Graph is the scene collaborator the compositor queries once per frame.
// Both methods return nodes in discovery order.
type Graph interface {
	Primitives() []*Node
	Lights() []*Node
}

// Node is a transform in the scene graph, optionally carrying an SDF
// primitive and/or a light.
type Node struct {
	Name      string
	Transform Transform
	Primitive *Primitive
	Light     *Light

	parent   *Node
	children []*Node
}

func NewNode(name string) *Node {
	return &Node{
		Name:      name,
		Transform: NewTransform(),
	}
}

// NewPrimitiveNode is a shorthand for a node carrying prim at position.
func NewPrimitiveNode(name string, prim *Primitive, position mgl32.Vec3) *Node {
	n := NewNode(name)
	n.Primitive = prim
	n.Transform.Position = position
	return n
}

func (n *Node) Parent() *Node { return n.parent }

// Children returns the node's children in order. The slice must not be
// modified.
func (n *Node) Children() []*Node { return n.children }

// PrimitiveParent returns the parent only when it carries a primitive.
func (n *Node) PrimitiveParent() (*Node, bool) {
	if n.parent == nil || n.parent.Primitive == nil {
		return nil, false
	}
	return n.parent, true
}

// World resolves the full transform chain up to the root.
func (n *Node) World() Transform {
	if n.parent == nil {
		return n.Transform
	}
	return Compose(n.parent.World(), n.Transform)
}

func (n *Node) WorldPosition() mgl32.Vec3 {
	return n.World().Position
}

// Forward is the world-space -Z axis of the node.
func (n *Node) Forward() mgl32.Vec3 {
	return n.World().Rotation.Rotate(mgl32.Vec3{0, 0, -1}).Normalize()
}

// EffectiveScale is the node's local scale multiplied by the effective scale
// of its parent when that parent is itself a primitive. Non-primitive
// ancestors do not contribute.
func (n *Node) EffectiveScale() mgl32.Vec3 {
	parent, ok := n.PrimitiveParent()
	if !ok {
		return n.Transform.Scale
	}
	return mulVec3(n.Transform.Scale, parent.EffectiveScale())
}

// Scene is an in-memory Graph.
type Scene struct {
	roots []*Node
}

func NewScene() *Scene {
	return &Scene{
		roots: []*Node{},
	}
}

// Add appends a root node. A node that already has a parent is detached
// first.
func (s *Scene) Add(n *Node) *Node {
	s.detach(n)
	s.roots = append(s.roots, n)
	return n
}

// AddChild appends child to parent's children.
func (s *Scene) AddChild(parent, child *Node) *Node {
	s.detach(child)
	child.parent = parent
	parent.children = append(parent.children, child)
	return child
}

// Remove takes the node and its subtree out of the scene.
func (s *Scene) Remove(n *Node) {
	s.detach(n)
}

func (s *Scene) detach(n *Node) {
	if n.parent != nil {
		n.parent.children = removeNode(n.parent.children, n)
		n.parent = nil
		return
	}
	s.roots = removeNode(s.roots, n)
}

func removeNode(nodes []*Node, n *Node) []*Node {
	for i, o := range nodes {
		if o == n {
			return append(nodes[:i], nodes[i+1:]...)
		}
	}
	return nodes
}

// Nodes walks the graph depth-first in insertion order.
func (s *Scene) Nodes() []*Node {
	out := make([]*Node, 0, len(s.roots))
	var walk func(n *Node)
	walk = func(n *Node) {
		out = append(out, n)
		for _, c := range n.children {
			walk(c)
		}
	}
	for _, r := range s.roots {
		walk(r)
	}
	return out
}

func (s *Scene) Primitives() []*Node {
	var out []*Node
	for _, n := range s.Nodes() {
		if n.Primitive != nil {
			out = append(out, n)
		}
	}
	return out
}

func (s *Scene) Lights() []*Node {
	var out []*Node
	for _, n := range s.Nodes() {
		if n.Light != nil {
			out = append(out, n)
		}
	}
	return out
}
