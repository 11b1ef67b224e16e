// Package shaders holds the WGSL sources of the raymarch kernels and the
// fullscreen blit, and assembles a kernel for a given record schema.
package shaders

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gekko3d/raymarch/sdfrt/rt/encode"

	"github.com/gogpu/naga"
)

//go:embed common.wgsl
var CommonWGSL string

//go:embed raymarch_textured.wgsl
var TexturedWGSL string

//go:embed raymarch_volume.wgsl
var VolumeWGSL string

//go:embed fullscreen.wgsl
var FullscreenWGSL string

// Variant selects the texture path of the kernel.
type Variant string

const (
	Textured   Variant = "textured"
	Volumetric Variant = "volume"
)

// MaxTile bounds the workgroup edge; tile*tile must stay within the default
// limit of 256 invocations per workgroup.
const MaxTile = 16

var ErrUnknownVariant = errors.New("shaders: unknown variant")

func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case Textured, Volumetric:
		return v, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownVariant, s)
	}
}

// Schema returns the primitive record layout the variant reads.
func (v Variant) Schema() encode.Schema {
	return encode.PrimitiveSchema(v == Textured)
}

// Sources is one complete set of kernel sources.
type Sources struct {
	Common     string
	Textured   string
	Volume     string
	Fullscreen string
}

// Embedded returns the sources compiled into the binary.
func Embedded() Sources {
	return Sources{
		Common:     CommonWGSL,
		Textured:   TexturedWGSL,
		Volume:     VolumeWGSL,
		Fullscreen: FullscreenWGSL,
	}
}

// Files lists the source file names in Sources field order.
var Files = []string{"common.wgsl", "raymarch_textured.wgsl", "raymarch_volume.wgsl", "fullscreen.wgsl"}

// LoadDir reads the sources from dir. Files that do not exist fall back to
// the embedded copy.
func LoadDir(dir string) (Sources, error) {
	s := Embedded()
	fields := []*string{&s.Common, &s.Textured, &s.Volume, &s.Fullscreen}
	for i, name := range Files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Sources{}, fmt.Errorf("read shader %s: %w", name, err)
		}
		*fields[i] = string(data)
	}
	return s, nil
}

// Kernel assembles the compute kernel: generated record structs, the common
// body and the variant's texture path, with the workgroup edge set to tile.
func (s Sources) Kernel(v Variant, schema encode.Schema, tile int) (string, error) {
	if tile < 1 || tile > MaxTile {
		return "", fmt.Errorf("shaders: tile %d outside 1..%d", tile, MaxTile)
	}
	var body string
	switch v {
	case Textured:
		body = s.Textured
	case Volumetric:
		body = s.Volume
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownVariant, string(v))
	}

	var sb strings.Builder
	sb.WriteString(schema.WGSL())
	sb.WriteString("\n")
	sb.WriteString(encode.LightSchema().WGSL())
	sb.WriteString("\n")
	sb.WriteString(encode.UVRangeSchema().WGSL())
	sb.WriteString("\n")
	sb.WriteString(strings.ReplaceAll(s.Common, "WORKGROUP_SIZE", strconv.Itoa(tile)))
	sb.WriteString("\n")
	sb.WriteString(body)
	return sb.String(), nil
}

// Kernel assembles a kernel from the embedded sources.
func Kernel(v Variant, schema encode.Schema, tile int) (string, error) {
	return Embedded().Kernel(v, schema, tile)
}

// Check compiles src to SPIR-V offline and returns the module size.
func Check(src string) (int, error) {
	spirv, err := naga.Compile(src)
	if err != nil {
		return 0, err
	}
	return len(spirv), nil
}
