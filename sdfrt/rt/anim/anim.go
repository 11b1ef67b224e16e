// Package anim has small time-driven helpers for animating scene nodes.
package anim

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// PingPong bounces t between 0 and length. A non-positive length yields 0.
func PingPong(t, length float32) float32 {
	if length <= 0 {
		return 0
	}
	t = math32.Mod(t, 2*length)
	if t < 0 {
		t += 2 * length
	}
	return length - math32.Abs(t-length)
}

// Pulse oscillates a uniform scale offset between Min and Max.
type Pulse struct {
	Min   float32
	Max   float32
	Speed float32
}

func DefaultPulse() Pulse {
	return Pulse{Min: -0.5, Max: 0.5, Speed: 5}
}

// Offset is the pulse value at time t in seconds.
func (p Pulse) Offset(t float32) float32 {
	return p.Min + PingPong(t*p.Speed, p.Max-p.Min)
}

// Scale adds the pulse offset to each axis of base.
func (p Pulse) Scale(base mgl32.Vec3, t float32) mgl32.Vec3 {
	o := p.Offset(t)
	return mgl32.Vec3{base[0] + o, base[1] + o, base[2] + o}
}

// Orbit is a point circling Center in the XZ plane.
type Orbit struct {
	Center mgl32.Vec3
	Radius float32
	Speed  float32 // radians per second
}

func (o Orbit) At(t float32) mgl32.Vec3 {
	s, c := math32.Sincos(t * o.Speed)
	return o.Center.Add(mgl32.Vec3{c * o.Radius, 0, s * o.Radius})
}
