package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gekko3d/raymarch/sdfrt/rt/atlas"
	"github.com/gekko3d/raymarch/sdfrt/rt/core"
	"github.com/gekko3d/raymarch/sdfrt/rt/encode"
	"github.com/gekko3d/raymarch/sdfrt/rt/flatten"
	"github.com/gekko3d/raymarch/sdfrt/rt/gpu"
	"github.com/gekko3d/raymarch/sdfrt/rt/shaders"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrNoViewpoint = errors.New("app: no active viewpoint")

// Stats describes the last frame.
type Stats struct {
	Frame        int
	Skipped      bool
	Objects      int
	Lights       int
	TextureSlots int
	GroupsX      uint32
	GroupsY      uint32
}

// Controller turns a scene into one kernel dispatch per frame. It is not safe
// for concurrent use; call it from the render thread only.
type Controller struct {
	device  gpu.Device
	variant shaders.Variant
	encoder *encode.PrimitiveEncoder
	tile    int
	ambient mgl32.Vec4
	debug   bool

	volume      *core.Volume
	blankVolume *core.Volume

	logger       core.Logger
	profiler     *Profiler
	profileEvery int

	target     gpu.Target
	transients []gpu.Resource
	frame      int
	stats      Stats
}

func NewController(device gpu.Device, cfg Config, logger core.Logger) (*Controller, error) {
	if device == nil {
		return nil, gpu.ErrNoDevice
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = core.NewNopLogger()
	}
	variant := cfg.ParsedVariant()
	return &Controller{
		device:       device,
		variant:      variant,
		encoder:      &encode.PrimitiveEncoder{Schema: variant.Schema()},
		tile:         cfg.TileSize,
		ambient:      cfg.Ambient(),
		debug:        cfg.Debug,
		logger:       logger,
		profiler:     NewProfiler(),
		profileEvery: cfg.ProfileEvery,
		blankVolume: core.NewVolume(1, 1, 1, func(x, y, z int) [4]float32 {
			return [4]float32{1, 1, 1, 1}
		}),
	}, nil
}

// SetVolume sets the 3-D texture bound by the volumetric variant. nil binds
// a single white texel.
func (c *Controller) SetVolume(v *core.Volume) { c.volume = v }

// SetAmbient changes the ambient colour for subsequent frames.
func (c *Controller) SetAmbient(color mgl32.Vec4) { c.ambient = color }

func (c *Controller) Variant() shaders.Variant { return c.variant }

func (c *Controller) Profiler() *Profiler { return c.profiler }

func (c *Controller) Stats() Stats { return c.stats }

// Target returns the persistent output image, nil before the first frame.
func (c *Controller) Target() gpu.Target { return c.target }

// RenderFrame flattens, encodes and dispatches scene as seen from view, then
// blits the result onto dst. src is the background the kernel composites
// over and may be nil; dst may be nil for headless use.
//
// A cancelled ctx or an empty viewport skips the frame without error. Every
// per-frame GPU resource is released before RenderFrame returns.
func (c *Controller) RenderFrame(ctx context.Context, scene core.Graph, view core.Viewpoint, src, dst gpu.Surface) error {
	c.releaseTransients()
	c.frame++
	c.stats = Stats{Frame: c.frame}

	if err := ctx.Err(); err != nil {
		c.logger.Debugf("frame %d skipped: %v", c.frame, err)
		c.stats.Skipped = true
		return nil
	}
	if view == nil {
		return ErrNoViewpoint
	}
	width, height := view.PixelSize()
	if width <= 0 || height <= 0 {
		c.logger.Debugf("frame %d skipped: viewport %dx%d", c.frame, width, height)
		c.stats.Skipped = true
		return nil
	}

	defer c.releaseTransients()
	c.profiler.Reset()

	if err := c.ensureTarget(width, height); err != nil {
		return err
	}

	var prims, lightNodes []*core.Node
	if scene != nil {
		prims = scene.Primitives()
		lightNodes = scene.Lights()
	}

	endFlatten := c.profiler.Scope("flatten")
	entries := flatten.Flatten(prims)
	if c.debug {
		if err := flatten.Validate(entries); err != nil {
			c.logger.Warnf("frame %d: ordered buffer invalid: %v", c.frame, err)
		}
	}
	endFlatten()

	f := &gpu.Frame{
		NumObjects:                    len(entries),
		Result:                        c.target,
		Source:                        src,
		CameraToWorldMatrix:           view.CameraToWorld(),
		CameraInverseProjectionMatrix: view.Projection().Inv(),
		AmbientColor:                  c.ambient,
	}

	endUpload := c.profiler.Scope("upload")
	err := c.upload(f, entries, lightNodes)
	endUpload()
	if err != nil {
		return err
	}

	f.GroupsX, f.GroupsY = gpu.Workgroups(width, height, c.tile)

	endDispatch := c.profiler.Scope("dispatch")
	err = c.device.Dispatch(f)
	endDispatch()
	if err != nil {
		return fmt.Errorf("dispatch frame %d: %w", c.frame, err)
	}

	if dst != nil {
		endBlit := c.profiler.Scope("blit")
		err = c.device.Blit(c.target, dst)
		endBlit()
		if err != nil {
			return fmt.Errorf("blit frame %d: %w", c.frame, err)
		}
	}

	c.stats.Objects = f.NumObjects
	c.stats.Lights = f.NumLights
	c.stats.TextureSlots = f.NumTextures
	c.stats.GroupsX, c.stats.GroupsY = f.GroupsX, f.GroupsY
	c.report()
	return nil
}

// upload encodes the frame's buffers and textures as transient resources.
func (c *Controller) upload(f *gpu.Frame, entries []flatten.Entry, lightNodes []*core.Node) error {
	var slots []int32
	switch c.variant {
	case shaders.Textured:
		// Only encoded primitives take atlas slots.
		a := atlas.Build(flatten.Nodes(entries))
		slots = a.SlotIndices(entries)

		tex, err := c.track(c.device.CreateTextureArray("textures", a.Width, a.Height, a.AllLayers()))
		if err != nil {
			return fmt.Errorf("upload texture atlas: %w", err)
		}
		uv, err := c.track(c.device.CreateBuffer("textureUVranges", a.UVScaleBytes()))
		if err != nil {
			return fmt.Errorf("upload uv ranges: %w", err)
		}
		f.Textures = tex
		f.TextureUVRanges = uv
		f.NumTextures = a.Layers()

	case shaders.Volumetric:
		v := c.volume
		if v == nil {
			v = c.blankVolume
		}
		vol, err := c.track(c.device.CreateVolume("volumeTexture", v))
		if err != nil {
			return fmt.Errorf("upload volume: %w", err)
		}
		f.VolumeTexture = vol
	}

	objects, err := c.track(c.device.CreateBuffer("objects", c.encoder.EncodeAll(entries, slots)))
	if err != nil {
		return fmt.Errorf("upload objects: %w", err)
	}
	f.Objects = objects

	lightData, numLights := encode.EncodeLights(lightNodes)
	lights, err := c.track(c.device.CreateBuffer("lights", lightData))
	if err != nil {
		return fmt.Errorf("upload lights: %w", err)
	}
	f.Lights = lights
	f.NumLights = numLights
	return nil
}

// ensureTarget keeps the output image in step with the viewport size. The
// old image is released before a new one is allocated.
func (c *Controller) ensureTarget(width, height int) error {
	if c.target != nil {
		w, h := c.target.Size()
		if w == width && h == height {
			return nil
		}
		c.target.Release()
		c.target = nil
	}
	target, err := c.device.CreateTarget(width, height)
	if err != nil {
		return fmt.Errorf("allocate target %dx%d: %w", width, height, err)
	}
	c.logger.Debugf("allocated target %dx%d", width, height)
	c.target = target
	return nil
}

func (c *Controller) track(r gpu.Resource, err error) (gpu.Resource, error) {
	if err != nil {
		return nil, err
	}
	c.transients = append(c.transients, r)
	return r, nil
}

func (c *Controller) releaseTransients() {
	for _, r := range c.transients {
		r.Release()
	}
	c.transients = c.transients[:0]
}

func (c *Controller) report() {
	c.profiler.Frames++
	c.profiler.SetCount("objects", c.stats.Objects)
	c.profiler.SetCount("lights", c.stats.Lights)
	c.profiler.SetCount("texture slots", c.stats.TextureSlots)
	if c.profileEvery > 0 && c.frame%c.profileEvery == 0 && c.logger.DebugEnabled() {
		c.logger.Debugf("frame %d\n%s", c.frame, c.profiler)
	}
}

// Swapchain hands out presentable images; Host implements it.
type Swapchain interface {
	Acquire() (*gpu.ViewSurface, func(), error)
	Present()
}

// RenderToSwapchain renders one frame into the next swapchain image and
// presents it. Nothing is acquired or presented while view has no pixels,
// such as a minimised window.
func (c *Controller) RenderToSwapchain(ctx context.Context, sc Swapchain, scene core.Graph, view core.Viewpoint, src gpu.Surface) error {
	if view != nil {
		if w, h := view.PixelSize(); w <= 0 || h <= 0 {
			return c.RenderFrame(ctx, scene, view, src, nil)
		}
	}
	dst, release, err := sc.Acquire()
	if err != nil {
		return err
	}
	defer release()
	err = c.RenderFrame(ctx, scene, view, src, dst)
	sc.Present()
	return err
}

// Close releases the output image. The controller must not be used again.
func (c *Controller) Close() {
	c.releaseTransients()
	if c.target != nil {
		c.target.Release()
		c.target = nil
	}
}
