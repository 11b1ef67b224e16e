package encode

import (
	"fmt"

	"github.com/gekko3d/raymarch/sdfrt/rt/flatten"

	"github.com/go-gl/mathgl/mgl32"
)

// NoTexture is the slot index of primitives that sample no texture.
const NoTexture int32 = -1

// PrimitiveRecord is the per-frame derived view of one ordered primitive.
type PrimitiveRecord struct {
	Position      mgl32.Vec3
	Scale         mgl32.Vec3
	Color         mgl32.Vec3
	Shape         int32
	Operation     int32
	Blend         float32
	Smoothness    float32
	ChildCount    int32
	Modifier      int32
	ModifierParam mgl32.Vec3
	Mapping       int32
	TextureSlot   int32
}

// NewPrimitiveRecord derives the record of a flattened entry. Enum codes are
// passed through unchecked.
func NewPrimitiveRecord(e flatten.Entry, slot int32) PrimitiveRecord {
	p := e.Node.Primitive
	return PrimitiveRecord{
		Position:      e.Node.WorldPosition(),
		Scale:         e.Node.EffectiveScale(),
		Color:         p.Color,
		Shape:         p.ShapeCode(),
		Operation:     p.OperationCode(),
		Blend:         p.Blend,
		Smoothness:    p.Smoothness,
		ChildCount:    e.ChildCount,
		Modifier:      p.ModifierCode(),
		ModifierParam: p.ModifierParam(),
		Mapping:       int32(p.Mapping),
		TextureSlot:   slot,
	}
}

// PrimitiveEncoder writes PrimitiveRecords in a given schema.
type PrimitiveEncoder struct {
	Schema Schema
}

func NewPrimitiveEncoder(textured bool) *PrimitiveEncoder {
	return &PrimitiveEncoder{Schema: PrimitiveSchema(textured)}
}

// Encode returns exactly one record.
func (e *PrimitiveEncoder) Encode(rec PrimitiveRecord) []byte {
	buf := make([]byte, e.Schema.Size())
	e.put(buf, rec)
	return buf
}

func (e *PrimitiveEncoder) put(buf []byte, rec PrimitiveRecord) {
	r := newRecord(e.Schema, buf)
	r.putVec3("position", rec.Position)
	r.putVec3("scale", rec.Scale)
	r.putVec3("color", rec.Color)
	r.putI32("objType", rec.Shape)
	r.putI32("combineOp", rec.Operation)
	r.putF32("blendFactor", rec.Blend)
	r.putF32("smoothness", rec.Smoothness)
	r.putI32("childrenCount", rec.ChildCount)
	r.putI32("modifierType", rec.Modifier)
	r.putVec3("modifierVar", rec.ModifierParam)
	r.putI32("textureMappingType", rec.Mapping)
	r.putI32("textureID", rec.TextureSlot)
}

// EncodeAll packs the ordered entries back to back. slots runs parallel to
// entries; a nil slots slice means no primitive is textured. An empty scene
// yields an empty slice.
func (e *PrimitiveEncoder) EncodeAll(entries []flatten.Entry, slots []int32) []byte {
	if slots != nil && len(slots) != len(entries) {
		panic(fmt.Sprintf("encode: %d slots for %d entries", len(slots), len(entries)))
	}
	stride := e.Schema.Size()
	out := make([]byte, len(entries)*stride)
	for i, entry := range entries {
		slot := NoTexture
		if slots != nil {
			slot = slots[i]
		}
		e.put(out[i*stride:(i+1)*stride], NewPrimitiveRecord(entry, slot))
	}
	return out
}
