// Package gpu is the device boundary of the compositor. The controller talks
// to a Device; WebGPU is the production implementation.
package gpu

import (
	"errors"

	"github.com/gekko3d/raymarch/sdfrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrNoDevice     = errors.New("gpu: no device")
	ErrNoPipeline   = errors.New("gpu: kernel pipeline not created")
	ErrEmptySurface = errors.New("gpu: surface has zero size")
)

// Resource is anything the device allocated on behalf of a frame.
type Resource interface {
	Release()
}

// Surface is a readable or writable 2-D image: the background source or the
// presentation destination.
type Surface interface {
	Size() (width, height int)
}

// Target is the float32 RGBA storage image the kernel writes.
type Target interface {
	Resource
	Surface
}

type Device interface {
	// CreateTarget allocates the kernel output image.
	CreateTarget(width, height int) (Target, error)
	// CreateBuffer uploads data into a read-only storage buffer. Empty data
	// still yields a bindable buffer.
	CreateBuffer(label string, data []byte) (Resource, error)
	// CreateTextureArray uploads RGBA8 layers of width x height texels.
	CreateTextureArray(label string, width, height int, layers [][]byte) (Resource, error)
	// CreateVolume uploads an RGBA8 3-D texture.
	CreateVolume(label string, v *core.Volume) (Resource, error)
	// Dispatch runs the raymarch kernel once.
	Dispatch(f *Frame) error
	// Blit copies the kernel output onto dst.
	Blit(src Target, dst Surface) error
}

// Frame is one kernel invocation. Field names follow the kernel's bindings.
type Frame struct {
	Objects    Resource // objects
	NumObjects int      // numObjects
	Lights     Resource // lights
	NumLights  int      // numLights

	Textures        Resource // textures, textured variant
	TextureUVRanges Resource // textureUVranges, textured variant
	NumTextures     int
	VolumeTexture   Resource // volumeTexture, volumetric variant

	Source Surface // Source; nil binds a black background
	Result Target  // Result

	CameraToWorldMatrix           mgl32.Mat4
	CameraInverseProjectionMatrix mgl32.Mat4
	AmbientColor                  mgl32.Vec4

	GroupsX, GroupsY uint32
}

// Workgroups returns the dispatch grid covering width x height with square
// tiles of the given edge.
func Workgroups(width, height, tile int) (x, y uint32) {
	if tile <= 0 {
		tile = 1
	}
	return uint32((width + tile - 1) / tile), uint32((height + tile - 1) / tile)
}
