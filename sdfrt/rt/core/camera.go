package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Viewpoint is the active camera for a frame.
type Viewpoint interface {
	PixelSize() (width, height int)
	CameraToWorld() mgl32.Mat4
	Projection() mgl32.Mat4
}

// Camera is a yaw/pitch fly camera, Y-up.
type Camera struct {
	Position    mgl32.Vec3
	Yaw         float32
	Pitch       float32
	FovY        float32 // degrees
	Near, Far   float32
	Speed       float32
	Sensitivity float32

	width, height int
}

func NewCamera(width, height int) *Camera {
	return &Camera{
		Position:    mgl32.Vec3{0, 1, 6},
		FovY:        60,
		Near:        0.1,
		Far:         1000,
		Speed:       5.0,
		Sensitivity: 0.003,
		width:       width,
		height:      height,
	}
}

func (c *Camera) Resize(width, height int) {
	c.width = width
	c.height = height
}

func (c *Camera) PixelSize() (int, int) {
	return c.width, c.height
}

func (c *Camera) Forward() mgl32.Vec3 {
	return mgl32.Vec3{
		math32.Cos(c.Pitch) * math32.Sin(c.Yaw),
		math32.Sin(c.Pitch),
		-math32.Cos(c.Pitch) * math32.Cos(c.Yaw),
	}
}

func (c *Camera) Right() mgl32.Vec3 {
	return mgl32.Vec3{math32.Cos(c.Yaw), 0, math32.Sin(c.Yaw)}
}

func (c *Camera) View() mgl32.Mat4 {
	eye := c.Position
	target := eye.Add(c.Forward())
	return mgl32.LookAtV(eye, target, mgl32.Vec3{0, 1, 0})
}

func (c *Camera) CameraToWorld() mgl32.Mat4 {
	return c.View().Inv()
}

func (c *Camera) Projection() mgl32.Mat4 {
	aspect := float32(1)
	if c.height > 0 {
		aspect = float32(c.width) / float32(c.height)
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// Move translates the camera along its local axes, scaled by Speed*dt.
func (c *Camera) Move(forward, right, up, dt float32) {
	step := c.Speed * dt
	c.Position = c.Position.
		Add(c.Forward().Mul(forward * step)).
		Add(c.Right().Mul(right * step)).
		Add(mgl32.Vec3{0, up * step, 0})
}

// Look applies a mouse delta, clamping pitch short of the poles.
func (c *Camera) Look(dx, dy float32) {
	c.Yaw += dx * c.Sensitivity
	c.Pitch -= dy * c.Sensitivity
	limit := float32(math32.Pi/2 - 0.01)
	c.Pitch = math32.Max(-limit, math32.Min(limit, c.Pitch))
}
