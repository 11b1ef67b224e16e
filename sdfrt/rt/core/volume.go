package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Volume is a precomputed RGBA8 density field sampled by the volumetric
// kernel. Texels are laid out x-fastest, then y, then z.
type Volume struct {
	Width, Height, Depth int
	Pix                  []uint8
}

// NewVolume fills a volume by evaluating fn at every texel. fn returns RGBA
// components in [0,1].
func NewVolume(w, h, d int, fn func(x, y, z int) [4]float32) *Volume {
	v := &Volume{Width: w, Height: h, Depth: d, Pix: make([]uint8, w*h*d*4)}
	i := 0
	for z := 0; z < d; z++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := fn(x, y, z)
				for k := 0; k < 4; k++ {
					v.Pix[i+k] = unorm8(c[k])
				}
				i += 4
			}
		}
	}
	return v
}

func unorm8(f float32) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}

// RadialVolume is a cube of edge n whose green channel falls off linearly
// from 1 at the centre to 0 at distance n/2, over a constant blue of 0.5.
func RadialVolume(n int) *Volume {
	c := float32(n) / 2
	return NewVolume(n, n, n, func(x, y, z int) [4]float32 {
		d := mgl32.Vec3{float32(x) - c, float32(y) - c, float32(z) - c}.Len()
		return [4]float32{0, 1 - d/c, 0.5, 1}
	})
}
