// Package atlas packs the distinct textures referenced by primitives into one
// array texture.
//
// Every slot has the size of the largest width and the largest height seen.
// Smaller textures sit at the slot origin and the kernel rescales UVs by the
// per-slot UVScale so it never samples the unused remainder.
package atlas

import (
	"encoding/binary"
	"image"
	"math"

	"github.com/gekko3d/raymarch/sdfrt/rt/core"
	"github.com/gekko3d/raymarch/sdfrt/rt/flatten"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// NoSlot is returned for primitives without a texture.
const NoSlot int32 = -1

type Slot struct {
	Texture *core.Texture // nil for the placeholder slot
	UVScale mgl32.Vec2
}

type Atlas struct {
	Width, Height int
	Slots         []Slot

	layers [][]uint8
	index  map[slotKey]int32
}

// slotKey identifies a texture by asset ID. Textures without an ID are only
// shared by pointer.
type slotKey struct {
	id  uuid.UUID
	ptr *core.Texture
}

func keyOf(tex *core.Texture) slotKey {
	if tex.ID == uuid.Nil {
		return slotKey{ptr: tex}
	}
	return slotKey{id: tex.ID}
}

// Build scans prims in order and assigns a slot to each distinct texture on
// first sight. prims is normally the node list of the ordered buffer. When nothing is textured the atlas holds one 1x1 placeholder
// slot so the kernel always has something to bind.
func Build(prims []*core.Node) *Atlas {
	a := &Atlas{index: make(map[slotKey]int32)}

	var textures []*core.Texture
	for _, n := range prims {
		if n.Primitive == nil || n.Primitive.Texture == nil {
			continue
		}
		tex := n.Primitive.Texture
		key := keyOf(tex)
		if _, seen := a.index[key]; seen {
			continue
		}
		a.index[key] = int32(len(textures))
		textures = append(textures, tex)

		if tex.Width > a.Width {
			a.Width = tex.Width
		}
		if tex.Height > a.Height {
			a.Height = tex.Height
		}
	}

	if len(textures) == 0 {
		a.Width, a.Height = 1, 1
		a.Slots = []Slot{{UVScale: mgl32.Vec2{1, 1}}}
		a.layers = [][]uint8{make([]uint8, 4)}
		return a
	}
	// Degenerate zero-sized textures still need a bindable layer.
	a.Width = max(a.Width, 1)
	a.Height = max(a.Height, 1)

	a.Slots = make([]Slot, len(textures))
	a.layers = make([][]uint8, len(textures))
	for i, tex := range textures {
		a.Slots[i] = Slot{
			Texture: tex,
			UVScale: mgl32.Vec2{
				float32(tex.Width) / float32(a.Width),
				float32(tex.Height) / float32(a.Height),
			},
		}
		a.layers[i] = a.copyToSlot(tex)
	}
	return a
}

// copyToSlot places tex at the origin of a fresh transparent layer.
func (a *Atlas) copyToSlot(tex *core.Texture) []uint8 {
	layer := image.NewRGBA(image.Rect(0, 0, a.Width, a.Height))
	if tex.Width > 0 && tex.Height > 0 {
		draw.Draw(layer, image.Rect(0, 0, tex.Width, tex.Height), tex.Image(), image.Point{}, draw.Src)
	}
	return layer.Pix
}

// Layers is the number of array layers, at least one.
func (a *Atlas) Layers() int { return len(a.layers) }

// Layer returns the RGBA8 pixels of layer i, Width*Height*4 bytes.
func (a *Atlas) Layer(i int) []uint8 { return a.layers[i] }

// AllLayers returns every layer in slot order.
func (a *Atlas) AllLayers() [][]uint8 { return a.layers }

// Textured reports whether any real texture was packed.
func (a *Atlas) Textured() bool { return len(a.index) > 0 }

// Slot returns the slot of tex, or NoSlot.
func (a *Atlas) Slot(tex *core.Texture) int32 {
	if tex == nil {
		return NoSlot
	}
	if s, ok := a.index[keyOf(tex)]; ok {
		return s
	}
	return NoSlot
}

// SlotIndices maps every ordered entry to its slot, parallel to entries.
func (a *Atlas) SlotIndices(entries []flatten.Entry) []int32 {
	out := make([]int32, len(entries))
	for i, e := range entries {
		out[i] = a.Slot(e.Node.Primitive.Texture)
	}
	return out
}

// UVScaleBytes packs one (u, v) float pair per slot.
func (a *Atlas) UVScaleBytes() []byte {
	buf := make([]byte, len(a.Slots)*8)
	for i, s := range a.Slots {
		binary.LittleEndian.PutUint32(buf[i*8:], math.Float32bits(s.UVScale[0]))
		binary.LittleEndian.PutUint32(buf[i*8+4:], math.Float32bits(s.UVScale[1]))
	}
	return buf
}
