package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

type LightKind uint32

const (
	LightPoint       LightKind = 0
	LightDirectional LightKind = 1
	LightSpot        LightKind = 2
)

// Light is the authored light component. Placement comes from the node.
type Light struct {
	Kind      LightKind
	Color     mgl32.Vec3 // RGB
	Intensity float32
}

func (l *Light) Directional() bool {
	return l.Kind == LightDirectional
}

// Radiance is color scaled by intensity.
func (l *Light) Radiance() mgl32.Vec3 {
	return l.Color.Mul(l.Intensity)
}

// NewLightNode is a shorthand for a node carrying a light.
func NewLightNode(name string, light *Light, position mgl32.Vec3) *Node {
	n := NewNode(name)
	n.Light = light
	n.Transform.Position = position
	return n
}
