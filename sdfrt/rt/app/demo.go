package app

import (
	"image"
	"image/color"

	"github.com/gekko3d/raymarch/sdfrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

// Demo is the scene the sdfrt binary opens with.
type Demo struct {
	Scene  *core.Scene
	Pulsed *core.Node // scale animated each frame
	Lamp   *core.Node // orbiting point light
}

func NewDemo(textures ...*core.Texture) *Demo {
	if len(textures) == 0 {
		textures = []*core.Texture{
			Checker(64, 8, color.RGBA{230, 230, 230, 255}, color.RGBA{40, 40, 48, 255}),
			Checker(32, 4, color.RGBA{220, 90, 40, 255}, color.RGBA{250, 200, 60, 255}),
		}
	}
	tex := func(i int) *core.Texture { return textures[i%len(textures)] }

	scene := core.NewScene()
	d := &Demo{Scene: scene}

	floor := core.NewPrimitive(core.Box{})
	floor.Texture = tex(0)
	floor.Mapping = core.MappingBiplanar
	floorNode := scene.Add(core.NewPrimitiveNode("floor", floor, mgl32.Vec3{0, -1, 0}))
	floorNode.Transform.Scale = mgl32.Vec3{8, 0.1, 8}

	body := core.NewPrimitive(core.Sphere{})
	body.Color = mgl32.Vec3{0.9, 0.3, 0.3}
	bodyNode := scene.Add(core.NewPrimitiveNode("body", body, mgl32.Vec3{0, 0.5, 0}))

	hole := core.NewPrimitive(core.Box{})
	hole.Operation = core.Cut{}
	hole.Modifier = core.Round{Radius: 0.05}
	holeNode := scene.AddChild(bodyNode, core.NewPrimitiveNode("hole", hole, mgl32.Vec3{0.6, 0.3, 0.6}))
	holeNode.Transform.Scale = mgl32.Vec3{0.6, 0.6, 0.6}

	ring := core.NewPrimitive(core.Torus{})
	ring.Operation = core.SmoothAdd{}
	ring.Smoothness = 0.3
	ring.Blend = 0.5
	ring.Texture = tex(1)
	ring.Mapping = core.MappingCylindrical
	d.Pulsed = scene.Add(core.NewPrimitiveNode("ring", ring, mgl32.Vec3{0, 0.5, 0}))

	twisted := core.NewPrimitive(core.Box{})
	twisted.Color = mgl32.Vec3{0.3, 0.6, 0.9}
	twisted.Modifier = core.Twist{Rate: 2}
	twistedNode := scene.Add(core.NewPrimitiveNode("pillar", twisted, mgl32.Vec3{-3, 0.5, -1}))
	twistedNode.Transform.Scale = mgl32.Vec3{0.5, 1.5, 0.5}

	bulb := core.NewPrimitive(core.Mandelbulb{})
	bulb.Color = mgl32.Vec3{0.8, 0.8, 0.3}
	bulb.Texture = tex(0)
	bulb.Mapping = core.MappingTriplanar
	scene.Add(core.NewPrimitiveNode("bulb", bulb, mgl32.Vec3{3, 0.5, -1}))

	sun := core.NewLightNode("sun", &core.Light{Kind: core.LightDirectional, Color: mgl32.Vec3{1, 0.95, 0.9}, Intensity: 1}, mgl32.Vec3{})
	sun.Transform.Rotation = mgl32.QuatRotate(mgl32.DegToRad(-50), mgl32.Vec3{1, 0, 0}).
		Mul(mgl32.QuatRotate(mgl32.DegToRad(30), mgl32.Vec3{0, 1, 0}))
	scene.Add(sun)

	d.Lamp = scene.Add(core.NewLightNode("lamp", &core.Light{Kind: core.LightPoint, Color: mgl32.Vec3{0.4, 0.6, 1}, Intensity: 4}, mgl32.Vec3{2, 2, 2}))
	return d
}

// Checker returns a size x size texture of cells x cells squares.
func Checker(size, cells int, a, b color.RGBA) *core.Texture {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	cell := max(size/max(cells, 1), 1)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			img.SetRGBA(x, y, c)
		}
	}
	return core.NewTexture(img)
}

// Gradient returns RGBA8 pixels fading from top to bottom, used as the
// background the kernel composites over.
func Gradient(width, height int, top, bottom color.RGBA) []byte {
	pix := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		t := float32(y) / float32(max(height-1, 1))
		row := [4]byte{
			lerp8(top.R, bottom.R, t),
			lerp8(top.G, bottom.G, t),
			lerp8(top.B, bottom.B, t),
			lerp8(top.A, bottom.A, t),
		}
		for x := 0; x < width; x++ {
			copy(pix[(y*width+x)*4:], row[:])
		}
	}
	return pix
}

func lerp8(a, b uint8, t float32) uint8 {
	return uint8(float32(a) + (float32(b)-float32(a))*t + 0.5)
}
