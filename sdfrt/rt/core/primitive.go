package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Shape is the closed set of SDF shapes the kernel can evaluate.
// Codes are part of the kernel contract and must not be reordered.
type Shape interface {
	ShapeCode() int32
	isShape()
}

type Sphere struct{}
type Box struct{}
type Torus struct{}
type Mandelbulb struct{}
type Juliabulb struct{}

func (Sphere) ShapeCode() int32     { return 0 }
func (Box) ShapeCode() int32        { return 1 }
func (Torus) ShapeCode() int32      { return 2 }
func (Mandelbulb) ShapeCode() int32 { return 3 }
func (Juliabulb) ShapeCode() int32  { return 4 }

func (Sphere) isShape()     {}
func (Box) isShape()        {}
func (Torus) isShape()      {}
func (Mandelbulb) isShape() {}
func (Juliabulb) isShape()  {}

// Operation is how a primitive is combined with what was marched before it.
// The flattener sorts roots by OperationCode, so additive shapes come first.
type Operation interface {
	OperationCode() int32
	isOperation()
}

type Add struct{}
type SmoothAdd struct{}
type Cut struct{}
type Mask struct{}

func (Add) OperationCode() int32       { return 0 }
func (SmoothAdd) OperationCode() int32 { return 1 }
func (Cut) OperationCode() int32       { return 2 }
func (Mask) OperationCode() int32      { return 3 }

func (Add) isOperation()       {}
func (SmoothAdd) isOperation() {}
func (Cut) isOperation()       {}
func (Mask) isOperation()      {}

// Modifier deforms the sample point or distance before shading.
// Every case packs into a single parameter vector; scalar cases use X.
type Modifier interface {
	ModifierCode() int32
	Param() mgl32.Vec3
	isModifier()
}

type NoModifier struct{}

// Elongate stretches the shape along each axis by Extent.
type Elongate struct{ Extent mgl32.Vec3 }

// Round inflates the surface by Radius.
type Round struct{ Radius float32 }

// Onion hollows the shape into a shell of Thickness.
type Onion struct{ Thickness float32 }

// Repetition tiles space with the given Period per axis.
type Repetition struct{ Period mgl32.Vec3 }

// Displacement adds a sinusoidal offset with per-axis Frequency.
type Displacement struct{ Frequency mgl32.Vec3 }

// Twist rotates around Y proportionally to height.
type Twist struct{ Rate float32 }

func (NoModifier) ModifierCode() int32   { return 0 }
func (Elongate) ModifierCode() int32     { return 1 }
func (Round) ModifierCode() int32        { return 2 }
func (Onion) ModifierCode() int32        { return 3 }
func (Repetition) ModifierCode() int32   { return 4 }
func (Displacement) ModifierCode() int32 { return 5 }
func (Twist) ModifierCode() int32        { return 6 }

func (NoModifier) Param() mgl32.Vec3     { return mgl32.Vec3{} }
func (m Elongate) Param() mgl32.Vec3     { return m.Extent }
func (m Round) Param() mgl32.Vec3        { return mgl32.Vec3{m.Radius, 0, 0} }
func (m Onion) Param() mgl32.Vec3        { return mgl32.Vec3{m.Thickness, 0, 0} }
func (m Repetition) Param() mgl32.Vec3   { return m.Period }
func (m Displacement) Param() mgl32.Vec3 { return m.Frequency }
func (m Twist) Param() mgl32.Vec3        { return mgl32.Vec3{m.Rate, 0, 0} }

func (NoModifier) isModifier()   {}
func (Elongate) isModifier()     {}
func (Round) isModifier()        {}
func (Onion) isModifier()        {}
func (Repetition) isModifier()   {}
func (Displacement) isModifier() {}
func (Twist) isModifier()        {}

type TextureMapping int32

const (
	MappingCylindrical TextureMapping = 0
	MappingTriplanar   TextureMapping = 1
	MappingBiplanar    TextureMapping = 2
)

// Primitive is the authored SDF component attached to a scene node.
// The compositor only reads it; per-frame values such as child counts and
// atlas slots are derived elsewhere.
type Primitive struct {
	Shape     Shape
	Operation Operation
	Modifier  Modifier

	Color      mgl32.Vec3 // RGB
	Blend      float32    // [0,1]
	Smoothness float32

	Texture *Texture
	Mapping TextureMapping
}

// NewPrimitive returns a white additive primitive of the given shape.
func NewPrimitive(shape Shape) *Primitive {
	return &Primitive{
		Shape:     shape,
		Operation: Add{},
		Modifier:  NoModifier{},
		Color:     mgl32.Vec3{1, 1, 1},
	}
}

// ShapeCode returns the kernel code of the shape; a nil shape is a sphere.
func (p *Primitive) ShapeCode() int32 {
	if p.Shape == nil {
		return 0
	}
	return p.Shape.ShapeCode()
}

func (p *Primitive) OperationCode() int32 {
	if p.Operation == nil {
		return 0
	}
	return p.Operation.OperationCode()
}

func (p *Primitive) ModifierCode() int32 {
	if p.Modifier == nil {
		return 0
	}
	return p.Modifier.ModifierCode()
}

func (p *Primitive) ModifierParam() mgl32.Vec3 {
	if p.Modifier == nil {
		return mgl32.Vec3{}
	}
	return p.Modifier.Param()
}
