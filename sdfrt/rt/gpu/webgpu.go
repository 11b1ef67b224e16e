package gpu

import (
	"fmt"

	"github.com/gekko3d/raymarch/sdfrt/rt/core"

	"github.com/cogentcore/webgpu/wgpu"
)

// TargetFormat is the kernel output format. It is not filterable, so the
// blit reads it with textureLoad.
const TargetFormat = wgpu.TextureFormatRGBA32Float

// Options configures a WebGPU device.
type Options struct {
	KernelWGSL    string
	BlitWGSL      string
	Volumetric    bool // bind volumeTexture instead of textures/textureUVranges
	SurfaceFormat wgpu.TextureFormat
}

// WebGPU implements Device on a wgpu device. Bind group layouts are explicit
// so the kernel can be hot-swapped without re-deriving them.
type WebGPU struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	volumetric bool

	sceneLayout   *wgpu.BindGroupLayout // group 0
	imageLayout   *wgpu.BindGroupLayout // group 1
	textureLayout *wgpu.BindGroupLayout // group 2
	kernelLayout  *wgpu.PipelineLayout
	kernel        *wgpu.ComputePipeline

	blitLayout *wgpu.BindGroupLayout
	blit       *wgpu.RenderPipeline

	sampler *wgpu.Sampler
	params  *wgpu.Buffer
	black   *texture
}

func NewWebGPU(device *wgpu.Device, opts Options) (*WebGPU, error) {
	if device == nil {
		return nil, ErrNoDevice
	}
	g := &WebGPU{
		Device:     device,
		Queue:      device.GetQueue(),
		volumetric: opts.Volumetric,
	}

	if err := g.createLayouts(); err != nil {
		g.Close()
		return nil, err
	}
	if err := g.Reload(opts.KernelWGSL); err != nil {
		g.Close()
		return nil, err
	}
	if err := g.createBlit(opts.BlitWGSL, opts.SurfaceFormat); err != nil {
		g.Close()
		return nil, err
	}

	var err error
	g.sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "SDF Texture Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("create sampler: %w", err)
	}

	g.params, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "SDF Params",
		Size:  ParamsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("create params buffer: %w", err)
	}

	// 1x1 opaque black stands in for a missing Source.
	g.black, err = g.createTexture2D("Black Source", 1, 1, []byte{0, 0, 0, 255})
	if err != nil {
		g.Close()
		return nil, err
	}
	return g, nil
}

func (g *WebGPU) createLayouts() error {
	storage := func(binding uint32) wgpu.BindGroupLayoutEntry {
		return wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: wgpu.ShaderStageCompute,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
		}
	}

	scene := []wgpu.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: wgpu.ShaderStageCompute,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
		},
		storage(1), // objects
		storage(2), // lights
	}
	if !g.volumetric {
		scene = append(scene, storage(3)) // textureUVranges
	}

	var err error
	g.sceneLayout, err = g.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "SDF Scene BGL",
		Entries: scene,
	})
	if err != nil {
		return fmt.Errorf("create scene layout: %w", err)
	}

	g.imageLayout, err = g.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "SDF Image BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0, // Source
				Visibility: wgpu.ShaderStageCompute,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1, // Result
				Visibility: wgpu.ShaderStageCompute,
				StorageTexture: wgpu.StorageTextureBindingLayout{
					Access:        wgpu.StorageTextureAccessWriteOnly,
					Format:        TargetFormat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create image layout: %w", err)
	}

	dim := wgpu.TextureViewDimension2DArray
	if g.volumetric {
		dim = wgpu.TextureViewDimension3D
	}
	g.textureLayout, err = g.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "SDF Texture BGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageCompute,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: dim,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageCompute,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create texture layout: %w", err)
	}

	g.kernelLayout, err = g.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "SDF Kernel Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{g.sceneLayout, g.imageLayout, g.textureLayout},
	})
	if err != nil {
		return fmt.Errorf("create kernel layout: %w", err)
	}
	return nil
}

// Reload compiles a new kernel and swaps it in. The previous kernel stays
// active when compilation fails.
func (g *WebGPU) Reload(kernelWGSL string) error {
	module, err := g.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "SDF Raymarch CS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: kernelWGSL},
	})
	if err != nil {
		return fmt.Errorf("compile kernel: %w", err)
	}
	defer module.Release()

	pipeline, err := g.Device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "SDF Raymarch Pipeline",
		Layout: g.kernelLayout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return fmt.Errorf("create kernel pipeline: %w", err)
	}

	if g.kernel != nil {
		g.kernel.Release()
	}
	g.kernel = pipeline
	return nil
}

func (g *WebGPU) createBlit(blitWGSL string, format wgpu.TextureFormat) error {
	module, err := g.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Fullscreen VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: blitWGSL},
	})
	if err != nil {
		return fmt.Errorf("compile blit: %w", err)
	}
	defer module.Release()

	g.blitLayout, err = g.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Blit BGL",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeUnfilterableFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("create blit layout: %w", err)
	}

	layout, err := g.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Blit Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{g.blitLayout},
	})
	if err != nil {
		return fmt.Errorf("create blit pipeline layout: %w", err)
	}
	defer layout.Release()

	g.blit, err = g.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Blit Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create blit pipeline: %w", err)
	}
	return nil
}

// Resources

type buffer struct {
	buf *wgpu.Buffer
}

func (b *buffer) Release() { b.buf.Release() }

type texture struct {
	tex           *wgpu.Texture
	view          *wgpu.TextureView
	width, height int
}

func (t *texture) Release() {
	t.view.Release()
	t.tex.Release()
}

func (t *texture) Size() (int, int)                { return t.width, t.height }
func (t *texture) textureView() *wgpu.TextureView { return t.view }

// ViewSurface wraps an externally owned texture view, typically the current
// swapchain image or a background texture.
type ViewSurface struct {
	View          *wgpu.TextureView
	Width, Height int
}

func (s *ViewSurface) Size() (int, int)                { return s.Width, s.Height }
func (s *ViewSurface) textureView() *wgpu.TextureView { return s.View }

type viewer interface {
	textureView() *wgpu.TextureView
}

func (g *WebGPU) CreateTarget(width, height int) (Target, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrEmptySurface
	}
	tex, err := g.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "SDF Result",
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        TargetFormat,
		Usage:         wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("create target %dx%d: %w", width, height, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("create target view: %w", err)
	}
	return &texture{tex: tex, view: view, width: width, height: height}, nil
}

func (g *WebGPU) CreateBuffer(label string, data []byte) (Resource, error) {
	data = padded(data)
	buf, err := g.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %s: %w", label, err)
	}
	g.Queue.WriteBuffer(buf, 0, data)
	return &buffer{buf: buf}, nil
}

func (g *WebGPU) createTexture2D(label string, width, height int, pix []byte) (*texture, error) {
	return g.createTexture(label, wgpu.TextureDimension2D, wgpu.TextureViewDimension2D, width, height, 1, [][]byte{pix})
}

func (g *WebGPU) CreateTextureArray(label string, width, height int, layers [][]byte) (Resource, error) {
	return g.createTexture(label, wgpu.TextureDimension2D, wgpu.TextureViewDimension2DArray, width, height, len(layers), layers)
}

func (g *WebGPU) CreateVolume(label string, v *core.Volume) (Resource, error) {
	return g.createTexture(label, wgpu.TextureDimension3D, wgpu.TextureViewDimension3D, v.Width, v.Height, v.Depth, [][]byte{v.Pix})
}

// createTexture uploads RGBA8 texels. For 2-D arrays each slice of layers is
// one array layer; for 3-D textures layers holds a single slab of all depth
// slices.
func (g *WebGPU) createTexture(label string, dim wgpu.TextureDimension, viewDim wgpu.TextureViewDimension, width, height, depth int, layers [][]byte) (*texture, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("create texture %s: %w", label, ErrEmptySurface)
	}
	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: uint32(depth)}
	tex, err := g.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		Dimension:     dim,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %s: %w", label, err)
	}

	layout := &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(width * 4),
		RowsPerImage: uint32(height),
	}
	if dim == wgpu.TextureDimension3D {
		g.Queue.WriteTexture(&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		}, layers[0], layout, &size)
	} else {
		for i, pix := range layers {
			g.Queue.WriteTexture(&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{Z: uint32(i)},
				Aspect:   wgpu.TextureAspectAll,
			}, pix, layout, &wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1})
		}
	}

	arrayLayers := uint32(1)
	if viewDim == wgpu.TextureViewDimension2DArray {
		arrayLayers = uint32(depth)
	}
	view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           label + " View",
		Format:          wgpu.TextureFormatRGBA8Unorm,
		Dimension:       viewDim,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: arrayLayers,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("create texture view %s: %w", label, err)
	}
	return &texture{tex: tex, view: view, width: width, height: height}, nil
}

// CreateSource uploads an RGBA8 image usable as the kernel's Source.
func (g *WebGPU) CreateSource(label string, width, height int, pix []byte) (Target, error) {
	return g.createTexture2D(label, width, height, pix)
}

func (g *WebGPU) Dispatch(f *Frame) error {
	if g.kernel == nil {
		return ErrNoPipeline
	}
	result, ok := f.Result.(viewer)
	if !ok {
		return fmt.Errorf("dispatch: result %T is not a WebGPU target", f.Result)
	}
	objects, ok := f.Objects.(*buffer)
	if !ok {
		return fmt.Errorf("dispatch: objects %T is not a WebGPU buffer", f.Objects)
	}
	lights, ok := f.Lights.(*buffer)
	if !ok {
		return fmt.Errorf("dispatch: lights %T is not a WebGPU buffer", f.Lights)
	}

	source := viewer(g.black)
	if f.Source != nil {
		if source, ok = f.Source.(viewer); !ok {
			return fmt.Errorf("dispatch: source %T is not a WebGPU surface", f.Source)
		}
	}

	var sampled viewer
	sceneEntries := []wgpu.BindGroupEntry{
		{Binding: 0, Buffer: g.params, Size: wgpu.WholeSize},
		{Binding: 1, Buffer: objects.buf, Size: wgpu.WholeSize},
		{Binding: 2, Buffer: lights.buf, Size: wgpu.WholeSize},
	}
	if g.volumetric {
		if sampled, ok = f.VolumeTexture.(viewer); !ok {
			return fmt.Errorf("dispatch: volumeTexture %T is not a WebGPU texture", f.VolumeTexture)
		}
	} else {
		uv, ok := f.TextureUVRanges.(*buffer)
		if !ok {
			return fmt.Errorf("dispatch: textureUVranges %T is not a WebGPU buffer", f.TextureUVRanges)
		}
		sceneEntries = append(sceneEntries, wgpu.BindGroupEntry{Binding: 3, Buffer: uv.buf, Size: wgpu.WholeSize})
		if sampled, ok = f.Textures.(viewer); !ok {
			return fmt.Errorf("dispatch: textures %T is not a WebGPU texture", f.Textures)
		}
	}

	g.Queue.WriteBuffer(g.params, 0, PackParams(f))

	bg0, err := g.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "SDF Scene BG",
		Layout:  g.sceneLayout,
		Entries: sceneEntries,
	})
	if err != nil {
		return fmt.Errorf("create scene bind group: %w", err)
	}
	defer bg0.Release()

	bg1, err := g.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "SDF Image BG",
		Layout: g.imageLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: source.textureView()},
			{Binding: 1, TextureView: result.textureView()},
		},
	})
	if err != nil {
		return fmt.Errorf("create image bind group: %w", err)
	}
	defer bg1.Release()

	bg2, err := g.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "SDF Texture BG",
		Layout: g.textureLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: sampled.textureView()},
			{Binding: 1, Sampler: g.sampler},
		},
	})
	if err != nil {
		return fmt.Errorf("create texture bind group: %w", err)
	}
	defer bg2.Release()

	encoder, err := g.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	defer encoder.Release()

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(g.kernel)
	pass.SetBindGroup(0, bg0, nil)
	pass.SetBindGroup(1, bg1, nil)
	pass.SetBindGroup(2, bg2, nil)
	pass.DispatchWorkgroups(f.GroupsX, f.GroupsY, 1)
	if err := pass.End(); err != nil {
		return fmt.Errorf("end raymarch pass: %w", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish raymarch pass: %w", err)
	}
	defer cmd.Release()
	g.Queue.Submit(cmd)
	return nil
}

func (g *WebGPU) Blit(src Target, dst Surface) error {
	from, ok := src.(viewer)
	if !ok {
		return fmt.Errorf("blit: source %T is not a WebGPU target", src)
	}
	to, ok := dst.(viewer)
	if !ok {
		return fmt.Errorf("blit: destination %T is not a WebGPU surface", dst)
	}

	bg, err := g.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Blit BG",
		Layout:  g.blitLayout,
		Entries: []wgpu.BindGroupEntry{{Binding: 0, TextureView: from.textureView()}},
	})
	if err != nil {
		return fmt.Errorf("create blit bind group: %w", err)
	}
	defer bg.Release()

	encoder, err := g.Device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       to.textureView(),
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	pass.SetPipeline(g.blit)
	pass.SetBindGroup(0, bg, nil)
	pass.Draw(3, 1, 0, 0)
	if err := pass.End(); err != nil {
		return fmt.Errorf("end blit pass: %w", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish blit pass: %w", err)
	}
	defer cmd.Release()
	g.Queue.Submit(cmd)
	return nil
}

// Close releases everything the device created. Resources handed out to
// callers are theirs to release.
func (g *WebGPU) Close() {
	if g.black != nil {
		g.black.Release()
		g.black = nil
	}
	if g.params != nil {
		g.params.Release()
		g.params = nil
	}
	if g.sampler != nil {
		g.sampler.Release()
		g.sampler = nil
	}
	if g.blit != nil {
		g.blit.Release()
		g.blit = nil
	}
	if g.blitLayout != nil {
		g.blitLayout.Release()
		g.blitLayout = nil
	}
	if g.kernel != nil {
		g.kernel.Release()
		g.kernel = nil
	}
	if g.kernelLayout != nil {
		g.kernelLayout.Release()
		g.kernelLayout = nil
	}
	for _, l := range []**wgpu.BindGroupLayout{&g.sceneLayout, &g.imageLayout, &g.textureLayout} {
		if *l != nil {
			(*l).Release()
			*l = nil
		}
	}
}
