package core

import (
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneDiscoveryOrder(t *testing.T) {
	scene := NewScene()

	a := scene.Add(NewPrimitiveNode("a", NewPrimitive(Sphere{}), mgl32.Vec3{}))
	b := scene.Add(NewPrimitiveNode("b", NewPrimitive(Box{}), mgl32.Vec3{}))
	group := scene.AddChild(a, NewNode("group"))
	c := scene.AddChild(group, NewPrimitiveNode("c", NewPrimitive(Torus{}), mgl32.Vec3{}))
	lamp := scene.Add(NewLightNode("lamp", &Light{Kind: LightPoint}, mgl32.Vec3{}))

	assert.Equal(t, []*Node{a, group, c, b, lamp}, scene.Nodes())
	assert.Equal(t, []*Node{a, c, b}, scene.Primitives())
	assert.Equal(t, []*Node{lamp}, scene.Lights())
}

func TestSceneRemoveDetachesSubtree(t *testing.T) {
	scene := NewScene()
	root := scene.Add(NewPrimitiveNode("root", NewPrimitive(Sphere{}), mgl32.Vec3{}))
	child := scene.AddChild(root, NewPrimitiveNode("child", NewPrimitive(Box{}), mgl32.Vec3{}))
	grandchild := scene.AddChild(child, NewPrimitiveNode("grandchild", NewPrimitive(Box{}), mgl32.Vec3{}))

	scene.Remove(child)

	assert.Empty(t, root.Children())
	assert.Nil(t, child.Parent())
	assert.Equal(t, []*Node{root}, scene.Nodes())
	assert.Equal(t, child, grandchild.Parent(), "subtree stays attached to the removed node")

	// Re-adding as a root moves it back into the scene.
	scene.Add(child)
	assert.Equal(t, []*Node{root, child, grandchild}, scene.Nodes())
}

func TestEffectiveScaleFollowsPrimitiveParents(t *testing.T) {
	scene := NewScene()

	root := scene.Add(NewPrimitiveNode("root", NewPrimitive(Sphere{}), mgl32.Vec3{}))
	root.Transform.Scale = mgl32.Vec3{2, 2, 2}

	child := scene.AddChild(root, NewPrimitiveNode("child", NewPrimitive(Box{}), mgl32.Vec3{}))
	child.Transform.Scale = mgl32.Vec3{0.5, 1, 3}

	assert.Equal(t, mgl32.Vec3{1, 2, 6}, child.EffectiveScale())

	// A plain transform in between breaks the chain.
	empty := scene.Add(NewNode("empty"))
	empty.Transform.Scale = mgl32.Vec3{10, 10, 10}
	orphan := scene.AddChild(empty, NewPrimitiveNode("orphan", NewPrimitive(Box{}), mgl32.Vec3{}))
	orphan.Transform.Scale = mgl32.Vec3{1, 2, 3}

	assert.Equal(t, mgl32.Vec3{1, 2, 3}, orphan.EffectiveScale())
	_, ok := orphan.PrimitiveParent()
	assert.False(t, ok)
}

func TestWorldPositionPropagation(t *testing.T) {
	scene := NewScene()

	parent := scene.Add(NewNode("parent"))
	parent.Transform.Position = mgl32.Vec3{10, 0, 0}

	child := scene.AddChild(parent, NewNode("child"))
	child.Transform.Position = mgl32.Vec3{0, 5, 0}

	grandchild := scene.AddChild(child, NewNode("grandchild"))
	grandchild.Transform.Position = mgl32.Vec3{0, 0, 2}

	assert.Equal(t, mgl32.Vec3{10, 5, 2}, grandchild.WorldPosition())

	// Rotate parent 90 degrees around Y: local +Y stays, +Z maps to +X.
	parent.Transform.Rotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})
	got := grandchild.WorldPosition()
	assert.True(t, got.ApproxEqualThreshold(mgl32.Vec3{12, 5, 0}, 1e-4), "got %v", got)
}

func TestForwardIsNegativeZ(t *testing.T) {
	n := NewNode("sun")
	assert.True(t, n.Forward().ApproxEqual(mgl32.Vec3{0, 0, -1}))

	n.Transform.Rotation = mgl32.QuatRotate(mgl32.DegToRad(-90), mgl32.Vec3{1, 0, 0})
	assert.True(t, n.Forward().ApproxEqualThreshold(mgl32.Vec3{0, -1, 0}, 1e-5), "got %v", n.Forward())
}

func TestPrimitiveCodes(t *testing.T) {
	shapes := []Shape{Sphere{}, Box{}, Torus{}, Mandelbulb{}, Juliabulb{}}
	for i, s := range shapes {
		assert.Equal(t, int32(i), s.ShapeCode())
	}
	ops := []Operation{Add{}, SmoothAdd{}, Cut{}, Mask{}}
	for i, o := range ops {
		assert.Equal(t, int32(i), o.OperationCode())
	}
	mods := []Modifier{NoModifier{}, Elongate{}, Round{}, Onion{}, Repetition{}, Displacement{}, Twist{}}
	for i, m := range mods {
		assert.Equal(t, int32(i), m.ModifierCode())
	}

	assert.Equal(t, mgl32.Vec3{0.25, 0, 0}, Round{Radius: 0.25}.Param())
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, Repetition{Period: mgl32.Vec3{1, 2, 3}}.Param())

	var p Primitive
	assert.Equal(t, int32(0), p.ShapeCode())
	assert.Equal(t, int32(0), p.OperationCode())
	assert.Equal(t, int32(0), p.ModifierCode())
	assert.Equal(t, mgl32.Vec3{}, p.ModifierParam())
}

func TestLightRadiance(t *testing.T) {
	l := &Light{Kind: LightDirectional, Color: mgl32.Vec3{1, 0.5, 0}, Intensity: 2}
	assert.True(t, l.Directional())
	assert.Equal(t, mgl32.Vec3{2, 1, 0}, l.Radiance())
}

func TestNewTextureConvertsToRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(4, 4, 7, 6)) // 3x2, non-zero origin
	src.Set(4, 4, color.NRGBA{R: 255, A: 255})

	tex := NewTexture(src)
	require.Equal(t, 3, tex.Width)
	require.Equal(t, 2, tex.Height)
	require.Len(t, tex.Pix, 3*2*4)
	assert.Equal(t, []uint8{255, 0, 0, 255}, tex.Pix[0:4])

	other := NewTexture(src)
	assert.NotEqual(t, tex.ID, other.ID, "each texture gets its own asset id")

	img := tex.Image()
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
}

func TestNewVolume(t *testing.T) {
	v := NewVolume(2, 2, 2, func(x, y, z int) [4]float32 {
		return [4]float32{float32(x), float32(y), float32(z), 2}
	})
	require.Len(t, v.Pix, 2*2*2*4)
	// texel (1,0,1) is index 1 + 0*2 + 1*4 = 5
	assert.Equal(t, []uint8{255, 0, 255, 255}, v.Pix[5*4:5*4+4])
}

func TestRadialVolume(t *testing.T) {
	v := RadialVolume(8)
	require.Len(t, v.Pix, 8*8*8*4)
	texel := func(x, y, z int) []uint8 {
		i := ((z*8+y)*8 + x) * 4
		return v.Pix[i : i+4]
	}
	assert.Equal(t, []uint8{0, 255, 128, 255}, texel(4, 4, 4), "centre")
	assert.Equal(t, []uint8{0, 0, 128, 255}, texel(0, 0, 0), "corner is past the falloff")
	assert.Equal(t, uint8(128), texel(2, 4, 4)[1], "half way along an axis")
}

func TestCameraMatrices(t *testing.T) {
	cam := NewCamera(800, 400)
	w, h := cam.PixelSize()
	assert.Equal(t, 800, w)
	assert.Equal(t, 400, h)

	c2w := cam.CameraToWorld()
	origin := c2w.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	assert.True(t, origin.ApproxEqualThreshold(cam.Position, 1e-4), "camera origin %v", origin)

	inv := cam.Projection().Inv()
	ident := cam.Projection().Mul4(inv)
	assert.True(t, ident.ApproxEqualThreshold(mgl32.Ident4(), 1e-4))

	cam.Look(0, 1e6)
	assert.Less(t, cam.Pitch, float32(0))
	assert.Greater(t, cam.Pitch, float32(-1.58))
}
