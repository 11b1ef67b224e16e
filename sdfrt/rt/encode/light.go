package encode

import (
	"github.com/gekko3d/raymarch/sdfrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

// LightRecord is the derived per-frame view of one light.
type LightRecord struct {
	// Position holds the world forward direction for directional lights and
	// the world position otherwise.
	Position    mgl32.Vec3
	Intensity   mgl32.Vec3
	Directional bool
}

func NewLightRecord(n *core.Node) LightRecord {
	l := n.Light
	rec := LightRecord{
		Position:    n.WorldPosition(),
		Intensity:   l.Radiance(),
		Directional: l.Directional(),
	}
	if rec.Directional {
		rec.Position = n.Forward()
	}
	return rec
}

func (rec LightRecord) put(buf []byte) {
	r := newRecord(lightSchema, buf)
	r.putVec3("position", rec.Position)
	r.putVec3("intensity", rec.Intensity)
	dir := int32(0)
	if rec.Directional {
		dir = 1
	}
	r.putI32("isDirectional", dir)
}

var lightSchema = LightSchema()

// EncodeLight returns exactly one light record.
func EncodeLight(rec LightRecord) []byte {
	buf := make([]byte, lightSchema.Size())
	rec.put(buf)
	return buf
}

// EncodeLights packs every light node in order. Nodes without a light are
// skipped. Zero lights yield an empty slice.
func EncodeLights(nodes []*core.Node) ([]byte, int) {
	stride := lightSchema.Size()
	out := make([]byte, 0, len(nodes)*stride)
	count := 0
	for _, n := range nodes {
		if n.Light == nil {
			continue
		}
		buf := make([]byte, stride)
		NewLightRecord(n).put(buf)
		out = append(out, buf...)
		count++
	}
	return out, count
}
