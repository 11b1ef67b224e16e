package encode

import (
	"strings"
	"testing"

	"github.com/gekko3d/raymarch/sdfrt/rt/core"
	"github.com/gekko3d/raymarch/sdfrt/rt/flatten"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveSchemaLayout(t *testing.T) {
	want := map[string]int{
		"position":      0,
		"scale":         12,
		"color":         24,
		"objType":       36,
		"combineOp":     40,
		"blendFactor":   44,
		"smoothness":    48,
		"childrenCount": 52,
		"modifierType":  56,
		"modifierVar":   60,
	}

	plain := PrimitiveSchema(false)
	for name, off := range want {
		f, ok := plain.Field(name)
		require.True(t, ok, name)
		assert.Equal(t, off, f.Offset, name)
	}
	assert.Equal(t, 72, plain.Size())
	floats, ints := plain.Counts()
	assert.Equal(t, 14, floats)
	assert.Equal(t, 4, ints)
	_, ok := plain.Field("textureID")
	assert.False(t, ok)

	textured := PrimitiveSchema(true)
	for name, off := range want {
		f, _ := textured.Field(name)
		assert.Equal(t, off, f.Offset, name)
	}
	f, _ := textured.Field("textureMappingType")
	assert.Equal(t, 72, f.Offset)
	f, _ = textured.Field("textureID")
	assert.Equal(t, 76, f.Offset)
	assert.Equal(t, 80, textured.Size())
	floats, ints = textured.Counts()
	assert.Equal(t, 14, floats)
	assert.Equal(t, 6, ints)

	assert.Equal(t, 28, LightSchema().Size())
	assert.Equal(t, 8, UVRangeSchema().Size())
}

func TestSchemaWGSL(t *testing.T) {
	src := PrimitiveSchema(true).WGSL()
	assert.Contains(t, src, "struct SDFObject {")
	assert.Contains(t, src, "position: array<f32, 3>, // offset 0")
	assert.Contains(t, src, "childrenCount: i32, // offset 52")
	assert.Contains(t, src, "textureID: i32, // offset 76")
	assert.Contains(t, src, "80 bytes")

	assert.NotContains(t, PrimitiveSchema(false).WGSL(), "textureID")
	assert.Equal(t, 6, strings.Count(LightSchema().WGSL(), "\n"), "header, open, three fields, close")
}

func TestEncodePrimitiveRecord(t *testing.T) {
	p := core.NewPrimitive(core.Torus{})
	p.Operation = core.SmoothAdd{}
	p.Color = mgl32.Vec3{0.25, 0.5, 0.75}
	p.Blend = 0.3
	p.Smoothness = 0.8
	p.Modifier = core.Round{Radius: 0.1}
	p.Mapping = core.MappingTriplanar

	scene := core.NewScene()
	root := scene.Add(core.NewPrimitiveNode("root", p, mgl32.Vec3{1, 2, 3}))
	root.Transform.Scale = mgl32.Vec3{2, 2, 2}
	scene.AddChild(root, core.NewPrimitiveNode("child", core.NewPrimitive(core.Sphere{}), mgl32.Vec3{1, 0, 0}))

	entries := flatten.Flatten(scene.Primitives())
	require.Len(t, entries, 2)

	enc := NewPrimitiveEncoder(true)
	buf := enc.EncodeAll(entries, []int32{3, NoTexture})
	require.Len(t, buf, 160)

	assert.Equal(t, float32(1), Float32At(buf, 0))
	assert.Equal(t, float32(2), Float32At(buf, 4))
	assert.Equal(t, float32(3), Float32At(buf, 8))
	assert.Equal(t, float32(2), Float32At(buf, 12))
	assert.Equal(t, float32(0.5), Float32At(buf, 28))
	assert.Equal(t, int32(2), Int32At(buf, 36))
	assert.Equal(t, int32(1), Int32At(buf, 40))
	assert.Equal(t, float32(0.3), Float32At(buf, 44))
	assert.Equal(t, float32(0.8), Float32At(buf, 48))
	assert.Equal(t, int32(1), Int32At(buf, 52))
	assert.Equal(t, int32(2), Int32At(buf, 56))
	assert.Equal(t, float32(0.1), Float32At(buf, 60))
	assert.Equal(t, int32(1), Int32At(buf, 72))
	assert.Equal(t, int32(3), Int32At(buf, 76))

	child := buf[80:]
	// Parent scale applies to the local offset and propagates to the child.
	assert.Equal(t, float32(3), Float32At(child, 0))
	assert.Equal(t, float32(2), Float32At(child, 4))
	assert.Equal(t, float32(2), Float32At(child, 12))
	assert.Equal(t, int32(0), Int32At(child, 52))
	assert.Equal(t, NoTexture, Int32At(child, 76))
}

func TestEncodePlainDropsTextureFields(t *testing.T) {
	scene := core.NewScene()
	scene.Add(core.NewPrimitiveNode("a", core.NewPrimitive(core.Box{}), mgl32.Vec3{}))
	scene.Add(core.NewPrimitiveNode("b", core.NewPrimitive(core.Sphere{}), mgl32.Vec3{}))

	buf := NewPrimitiveEncoder(false).EncodeAll(flatten.Flatten(scene.Primitives()), nil)
	require.Len(t, buf, 144)
	assert.Equal(t, int32(1), Int32At(buf, 36))
	assert.Equal(t, int32(0), Int32At(buf, 72+36))
}

func TestEncodeEmptyScene(t *testing.T) {
	assert.Empty(t, NewPrimitiveEncoder(true).EncodeAll(nil, nil))
	assert.Len(t, NewPrimitiveEncoder(true).Encode(PrimitiveRecord{}), 80)
	assert.Panics(t, func() {
		NewPrimitiveEncoder(true).EncodeAll(nil, []int32{0})
	})
}

func TestEncodeLights(t *testing.T) {
	point := core.NewLightNode("point", &core.Light{
		Kind: core.LightPoint, Color: mgl32.Vec3{1, 0.5, 0}, Intensity: 2,
	}, mgl32.Vec3{4, 5, 6})
	sun := core.NewLightNode("sun", &core.Light{
		Kind: core.LightDirectional, Color: mgl32.Vec3{1, 1, 1}, Intensity: 1,
	}, mgl32.Vec3{100, 100, 100})
	sun.Transform.Rotation = mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0})

	buf, n := EncodeLights([]*core.Node{point, core.NewNode("none"), sun})
	require.Equal(t, 2, n)
	require.Len(t, buf, 56)

	assert.Equal(t, float32(4), Float32At(buf, 0))
	assert.Equal(t, float32(6), Float32At(buf, 8))
	assert.Equal(t, float32(2), Float32At(buf, 12))
	assert.Equal(t, float32(1), Float32At(buf, 16))
	assert.Equal(t, float32(0), Float32At(buf, 20))
	assert.Equal(t, int32(0), Int32At(buf, 24))

	s := buf[28:]
	// Rotating -Z by 90 degrees about +Y points along -X.
	assert.InDelta(t, -1, Float32At(s, 0), 1e-5)
	assert.InDelta(t, 0, Float32At(s, 4), 1e-5)
	assert.InDelta(t, 0, Float32At(s, 8), 1e-5)
	assert.Equal(t, int32(1), Int32At(s, 24))
}

func TestEncodeNoLights(t *testing.T) {
	buf, n := EncodeLights(nil)
	assert.Empty(t, buf)
	assert.Zero(t, n)
}

func TestMatrixBytesColumnMajor(t *testing.T) {
	m := mgl32.Translate3D(7, 8, 9)
	buf := Mat4Bytes(m)
	require.Len(t, buf, 64)
	assert.Equal(t, float32(7), Float32At(buf, 48))
	assert.Equal(t, float32(8), Float32At(buf, 52))
	assert.Equal(t, float32(9), Float32At(buf, 56))
	assert.Equal(t, float32(1), Float32At(buf, 60))

	v := Vec4Bytes(mgl32.Vec4{0.1, 0.2, 0.3, 1})
	assert.Equal(t, float32(0.3), Float32At(v, 8))
}
