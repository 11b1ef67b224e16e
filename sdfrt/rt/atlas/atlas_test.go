package atlas

import (
	"image"
	"image/color"
	"testing"

	"github.com/gekko3d/raymarch/sdfrt/rt/core"
	"github.com/gekko3d/raymarch/sdfrt/rt/encode"
	"github.com/gekko3d/raymarch/sdfrt/rt/flatten"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidTexture(w, h int, c color.RGBA) *core.Texture {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return core.NewTexture(img)
}

func textured(name string, tex *core.Texture) *core.Node {
	p := core.NewPrimitive(core.Box{})
	p.Texture = tex
	return core.NewPrimitiveNode(name, p, mgl32.Vec3{})
}

func TestAtlasScenario(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}
	T := solidTexture(64, 32, red)
	U := solidTexture(32, 64, blue)

	prims := []*core.Node{textured("p1", T), textured("p2", T), textured("p3", U)}
	a := Build(prims)

	require.Equal(t, 64, a.Width)
	require.Equal(t, 64, a.Height)
	require.Equal(t, 2, a.Layers())

	assert.Equal(t, int32(0), a.Slot(T))
	assert.Equal(t, int32(1), a.Slot(U))
	assert.Equal(t, mgl32.Vec2{1.0, 0.5}, a.Slots[0].UVScale)
	assert.Equal(t, mgl32.Vec2{0.5, 1.0}, a.Slots[1].UVScale)

	// T occupies the top half of its layer, U the left half of its layer.
	layer0 := a.Layer(0)
	require.Len(t, layer0, 64*64*4)
	assert.Equal(t, []uint8{255, 0, 0, 255}, layer0[0:4])
	assert.Equal(t, []uint8{255, 0, 0, 255}, layer0[(31*64+63)*4:(31*64+63)*4+4])
	assert.Equal(t, []uint8{0, 0, 0, 0}, layer0[(32*64)*4:(32*64)*4+4], "below T is untouched")

	layer1 := a.Layer(1)
	assert.Equal(t, []uint8{0, 0, 255, 255}, layer1[(63*64+31)*4:(63*64+31)*4+4])
	assert.Equal(t, []uint8{0, 0, 0, 0}, layer1[32*4:32*4+4], "right of U is untouched")

	uv := a.UVScaleBytes()
	require.Len(t, uv, 16)
	assert.Equal(t, float32(1.0), encode.Float32At(uv, 0))
	assert.Equal(t, float32(0.5), encode.Float32At(uv, 4))
	assert.Equal(t, float32(0.5), encode.Float32At(uv, 8))
	assert.Equal(t, float32(1.0), encode.Float32At(uv, 12))
}

func TestAtlasPlaceholderWhenUntextured(t *testing.T) {
	prims := []*core.Node{
		core.NewPrimitiveNode("plain", core.NewPrimitive(core.Sphere{}), mgl32.Vec3{}),
	}
	a := Build(prims)

	assert.False(t, a.Textured())
	assert.Equal(t, 1, a.Width)
	assert.Equal(t, 1, a.Height)
	assert.Equal(t, 1, a.Layers())
	assert.Len(t, a.Layer(0), 4)
	assert.Equal(t, mgl32.Vec2{1, 1}, a.Slots[0].UVScale)
	assert.Equal(t, NoSlot, a.Slot(prims[0].Primitive.Texture))

	empty := Build(nil)
	assert.Equal(t, 1, empty.Layers())
	assert.Len(t, empty.UVScaleBytes(), 8)
}

func TestAtlasSlotUniquenessAndBounds(t *testing.T) {
	sizes := [][2]int{{16, 16}, {8, 32}, {64, 4}, {16, 16}, {1, 1}, {33, 17}}
	var textures []*core.Texture
	for _, s := range sizes {
		textures = append(textures, solidTexture(s[0], s[1], color.RGBA{1, 2, 3, 255}))
	}

	// Each texture referenced twice, interleaved, plus untextured primitives.
	var prims []*core.Node
	for round := 0; round < 2; round++ {
		for i, tex := range textures {
			prims = append(prims, textured("p", tex))
			if i%2 == 0 {
				prims = append(prims, core.NewPrimitiveNode("plain", core.NewPrimitive(core.Sphere{}), mgl32.Vec3{}))
			}
		}
	}

	a := Build(prims)
	require.Equal(t, len(textures), a.Layers())
	assert.Equal(t, 64, a.Width)
	assert.Equal(t, 32, a.Height)

	seen := map[int32]*core.Texture{}
	for _, n := range prims {
		slot := a.Slot(n.Primitive.Texture)
		if n.Primitive.Texture == nil {
			assert.Equal(t, NoSlot, slot)
			continue
		}
		if prev, ok := seen[slot]; ok {
			assert.Same(t, prev, n.Primitive.Texture, "slot %d shared by distinct textures", slot)
		}
		seen[slot] = n.Primitive.Texture
	}
	assert.Len(t, seen, len(textures))

	widest, tallest := 0, 0
	for i, s := range a.Slots {
		assert.Greater(t, s.UVScale[0], float32(0))
		assert.Greater(t, s.UVScale[1], float32(0))
		assert.LessOrEqual(t, s.UVScale[0], float32(1))
		assert.LessOrEqual(t, s.UVScale[1], float32(1))
		if s.UVScale[0] == 1 {
			assert.Equal(t, a.Width, s.Texture.Width)
			widest++
		}
		if s.UVScale[1] == 1 {
			assert.Equal(t, a.Height, s.Texture.Height)
			tallest++
		}
		assert.Equal(t, int32(i), a.Slot(s.Texture))
	}
	assert.Equal(t, 1, widest)
	assert.Equal(t, 1, tallest)
}

func TestAtlasSlotIndicesFollowEntries(t *testing.T) {
	T := solidTexture(4, 4, color.RGBA{A: 255})
	scene := core.NewScene()
	root := scene.Add(textured("root", nil))
	root.Primitive.Operation = core.Cut{}
	scene.AddChild(root, textured("child", T))
	scene.Add(textured("other", T))

	a := Build(scene.Primitives())
	entries := flatten.Flatten(scene.Primitives())
	slots := a.SlotIndices(entries)

	// other (Add) sorts before root (Cut).
	require.Len(t, slots, 3)
	assert.Equal(t, []int32{0, NoSlot, 0}, slots)
}

func TestAtlasDedupByAssetID(t *testing.T) {
	T := solidTexture(8, 8, color.RGBA{A: 255})
	alias := *T // same asset, different pointer
	a := Build([]*core.Node{textured("a", T), textured("b", &alias)})
	assert.Equal(t, 1, a.Layers())
	assert.Equal(t, a.Slot(T), a.Slot(&alias))
}

func TestAtlasTexturesWithoutIDShareOnlyByPointer(t *testing.T) {
	T := &core.Texture{Width: 64, Height: 32, Pix: make([]uint8, 64*32*4)}
	U := &core.Texture{Width: 32, Height: 64, Pix: make([]uint8, 32*64*4)}
	a := Build([]*core.Node{textured("t1", T), textured("u", U), textured("t2", T)})

	require.Equal(t, 2, a.Layers())
	assert.Equal(t, 64, a.Width)
	assert.Equal(t, 64, a.Height)
	assert.NotEqual(t, a.Slot(T), a.Slot(U))
	assert.Equal(t, int32(0), a.Slot(T))
	assert.Equal(t, int32(1), a.Slot(U))

	copyOfT := *T
	assert.Equal(t, NoSlot, a.Slot(&copyOfT), "an untagged copy is a different texture")
}
