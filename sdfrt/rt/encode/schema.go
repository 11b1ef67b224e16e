// Package encode packs primitives and lights into the fixed binary records
// read by the raymarch kernel.
//
// Records are flat sequences of little-endian 4-byte scalars. Three-component
// vectors occupy exactly 12 bytes with no padding; the kernel-side struct is
// generated from the same Schema (see Schema.WGSL) so both sides agree.
package encode

import (
	"fmt"
	"strings"
)

// SchemaVersion is bumped whenever a record layout changes.
const SchemaVersion = 1

type ScalarKind uint8

const (
	F32 ScalarKind = iota
	I32
)

func (k ScalarKind) wgsl() string {
	if k == I32 {
		return "i32"
	}
	return "f32"
}

// Field is one named member of a record.
type Field struct {
	Name       string
	Kind       ScalarKind
	Components int // 1 or 3
	Offset     int // bytes from record start
}

func (f Field) Size() int { return 4 * f.Components }

// Schema is an ordered, versioned record layout.
type Schema struct {
	Name    string
	Version int
	Fields  []Field
}

func newSchema(name string, fields ...Field) Schema {
	offset := 0
	for i := range fields {
		fields[i].Offset = offset
		offset += fields[i].Size()
	}
	return Schema{Name: name, Version: SchemaVersion, Fields: fields}
}

func f32(name string) Field  { return Field{Name: name, Kind: F32, Components: 1} }
func i32(name string) Field  { return Field{Name: name, Kind: I32, Components: 1} }
func vec3(name string) Field { return Field{Name: name, Kind: F32, Components: 3} }

// Size is the record stride in bytes.
func (s Schema) Size() int {
	if len(s.Fields) == 0 {
		return 0
	}
	last := s.Fields[len(s.Fields)-1]
	return last.Offset + last.Size()
}

// Field looks a member up by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Counts returns how many 4-byte floats and ints the record holds.
func (s Schema) Counts() (floats, ints int) {
	for _, f := range s.Fields {
		if f.Kind == I32 {
			ints += f.Components
		} else {
			floats += f.Components
		}
	}
	return floats, ints
}

// WGSL renders the record as a WGSL struct declaration. Vectors are declared
// as array<f32, 3>, whose alignment in storage buffers is 4, so the struct
// stride equals Size.
func (s Schema) WGSL() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "// %s record, schema v%d, %d bytes\n", s.Name, s.Version, s.Size())
	fmt.Fprintf(&sb, "struct %s {\n", s.Name)
	for _, f := range s.Fields {
		typ := f.Kind.wgsl()
		if f.Components > 1 {
			typ = fmt.Sprintf("array<%s, %d>", typ, f.Components)
		}
		fmt.Fprintf(&sb, "    %s: %s, // offset %d\n", f.Name, typ, f.Offset)
	}
	sb.WriteString("}\n")
	return sb.String()
}

// PrimitiveSchema is the SDF object record. The textured variant appends the
// mapping kind and the atlas slot.
func PrimitiveSchema(textured bool) Schema {
	fields := []Field{
		vec3("position"),
		vec3("scale"),
		vec3("color"),
		i32("objType"),
		i32("combineOp"),
		f32("blendFactor"),
		f32("smoothness"),
		i32("childrenCount"),
		i32("modifierType"),
		vec3("modifierVar"),
	}
	if textured {
		fields = append(fields,
			i32("textureMappingType"),
			i32("textureID"),
		)
	}
	return newSchema("SDFObject", fields...)
}

// LightSchema is the light record.
func LightSchema() Schema {
	return newSchema("Light",
		vec3("position"),
		vec3("intensity"),
		i32("isDirectional"),
	)
}

// UVRangeSchema is one atlas slot's UV scale.
func UVRangeSchema() Schema {
	return newSchema("UVRange",
		f32("u"),
		f32("v"),
	)
}
