package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ParamsSize is the byte size of the kernel's params uniform.
const ParamsSize = 256

// PackParams lays out the params uniform:
//
//	CameraToWorldMatrix:           mat4x4<f32> -- 0
//	CameraInverseProjectionMatrix: mat4x4<f32> -- 64
//	AmbientColor:                  vec4<f32>   -- 128
//	numObjects:                    i32         -- 144
//	numLights:                     i32         -- 148
//	numTextures:                   i32         -- 152
//	resolution:                    vec2<u32>   -- 160
//
// padded to 256 bytes.
func PackParams(f *Frame) []byte {
	buf := make([]byte, ParamsSize)

	writeMat := func(offset int, mat mgl32.Mat4) {
		for i, v := range mat {
			binary.LittleEndian.PutUint32(buf[offset+i*4:], math.Float32bits(v))
		}
	}
	writeMat(0, f.CameraToWorldMatrix)
	writeMat(64, f.CameraInverseProjectionMatrix)

	for i, v := range f.AmbientColor {
		binary.LittleEndian.PutUint32(buf[128+i*4:], math.Float32bits(v))
	}

	binary.LittleEndian.PutUint32(buf[144:], uint32(int32(f.NumObjects)))
	binary.LittleEndian.PutUint32(buf[148:], uint32(int32(f.NumLights)))
	binary.LittleEndian.PutUint32(buf[152:], uint32(int32(f.NumTextures)))

	if f.Result != nil {
		w, h := f.Result.Size()
		binary.LittleEndian.PutUint32(buf[160:], uint32(w))
		binary.LittleEndian.PutUint32(buf[164:], uint32(h))
	}
	return buf
}

// padded returns data rounded up to a multiple of 4 bytes and never empty.
// Storage bindings cannot be zero-sized; the kernel reads the real count
// from the params uniform.
func padded(data []byte) []byte {
	n := len(data)
	if n == 0 {
		n = 16
	}
	if n%4 != 0 {
		n += 4 - n%4
	}
	if n == len(data) {
		return data
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}
