package encode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// record writes named fields into one schema-sized slot of buf.
// Fields the schema does not declare are skipped, which is how the plain
// variant drops the texture members.
type record struct {
	schema Schema
	buf    []byte
}

func newRecord(schema Schema, buf []byte) record {
	if len(buf) != schema.Size() {
		panic(fmt.Sprintf("encode: %s record needs %d bytes, got %d", schema.Name, schema.Size(), len(buf)))
	}
	return record{schema: schema, buf: buf}
}

func (r record) field(name string, kind ScalarKind, components int) (Field, bool) {
	f, ok := r.schema.Field(name)
	if !ok {
		return f, false
	}
	if f.Kind != kind || f.Components != components {
		panic(fmt.Sprintf("encode: %s.%s declared as %d x %s", r.schema.Name, name, f.Components, f.Kind.wgsl()))
	}
	return f, true
}

func (r record) putF32(name string, v float32) {
	if f, ok := r.field(name, F32, 1); ok {
		binary.LittleEndian.PutUint32(r.buf[f.Offset:], math.Float32bits(v))
	}
}

func (r record) putI32(name string, v int32) {
	if f, ok := r.field(name, I32, 1); ok {
		binary.LittleEndian.PutUint32(r.buf[f.Offset:], uint32(v))
	}
}

func (r record) putVec3(name string, v mgl32.Vec3) {
	if f, ok := r.field(name, F32, 3); ok {
		binary.LittleEndian.PutUint32(r.buf[f.Offset:], math.Float32bits(v[0]))
		binary.LittleEndian.PutUint32(r.buf[f.Offset+4:], math.Float32bits(v[1]))
		binary.LittleEndian.PutUint32(r.buf[f.Offset+8:], math.Float32bits(v[2]))
	}
}

// Helpers

// Mat4Bytes packs a column-major matrix, 64 bytes.
func Mat4Bytes(m mgl32.Mat4) []byte {
	buf := make([]byte, 64)
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// Vec4Bytes packs four floats, 16 bytes.
func Vec4Bytes(v mgl32.Vec4) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v[3]))
	return buf
}

// Float32At reads back the scalar stored at offset.
func Float32At(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}

// Int32At reads back the scalar stored at offset.
func Int32At(buf []byte, offset int) int32 {
	return int32(binary.LittleEndian.Uint32(buf[offset:]))
}
