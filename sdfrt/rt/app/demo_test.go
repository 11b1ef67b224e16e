package app

import (
	"context"
	"image/color"
	"testing"

	"github.com/gekko3d/raymarch/sdfrt/rt/shaders"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoRenders(t *testing.T) {
	demo := NewDemo()
	require.NotNil(t, demo.Pulsed.Primitive)
	require.NotNil(t, demo.Lamp.Light)

	dev := &fakeDevice{}
	c := newController(t, dev, shaders.Textured)
	require.NoError(t, c.RenderFrame(context.Background(), demo.Scene, &fixedView{32, 32}, nil, nil))

	f := dev.frames[0]
	assert.Equal(t, 6, f.NumObjects)
	assert.Equal(t, 2, f.NumLights)
	assert.Equal(t, 2, f.NumTextures, "two distinct checker textures")
}

func TestChecker(t *testing.T) {
	a := color.RGBA{255, 255, 255, 255}
	b := color.RGBA{0, 0, 0, 255}
	tex := Checker(8, 2, a, b)
	img := tex.Image()
	assert.Equal(t, a, img.RGBAAt(0, 0))
	assert.Equal(t, b, img.RGBAAt(4, 0))
	assert.Equal(t, b, img.RGBAAt(0, 4))
	assert.Equal(t, a, img.RGBAAt(7, 7))
}

func TestGradient(t *testing.T) {
	pix := Gradient(2, 3, color.RGBA{0, 0, 0, 255}, color.RGBA{200, 100, 50, 255})
	require.Len(t, pix, 2*3*4)
	assert.Equal(t, []byte{0, 0, 0, 255}, pix[0:4])
	assert.Equal(t, []byte{100, 50, 25, 255}, pix[8:12])
	assert.Equal(t, []byte{200, 100, 50, 255}, pix[20:24])
}
