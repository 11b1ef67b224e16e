package app

import (
	"fmt"

	"github.com/gekko3d/raymarch/sdfrt/rt/gpu"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Host owns the window surface and the wgpu device the controller renders
// with. It must be used from the thread that created the window.
type Host struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration
}

func NewHost(window *glfw.Window) (*Host, error) {
	h := &Host{Window: window}
	h.Instance = wgpu.CreateInstance(nil)
	h.Surface = h.Instance.CreateSurface(GetSurfaceDescriptor(window))

	adapter, err := h.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: h.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		h.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	h.Adapter = adapter

	h.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		h.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}

	width, height := window.GetFramebufferSize()
	caps := h.Surface.GetCapabilities(adapter)
	h.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	if width > 0 && height > 0 {
		h.Surface.Configure(adapter, h.Device, h.Config)
	}
	return h, nil
}

// Format is the swapchain format the blit pipeline must target.
func (h *Host) Format() wgpu.TextureFormat { return h.Config.Format }

func (h *Host) Size() (int, int) { return int(h.Config.Width), int(h.Config.Height) }

// Resize reconfigures the surface. A minimised window (0x0) is ignored.
func (h *Host) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	h.Config.Width = uint32(width)
	h.Config.Height = uint32(height)
	h.Surface.Configure(h.Adapter, h.Device, h.Config)
}

// Acquire returns the next swapchain image as a blit destination. The
// returned func releases it and must be called after Present.
func (h *Host) Acquire() (*gpu.ViewSurface, func(), error) {
	next, err := h.Surface.GetCurrentTexture()
	if err != nil {
		return nil, nil, fmt.Errorf("get current texture: %w", err)
	}
	view, err := next.CreateView(nil)
	if err != nil {
		next.Release()
		return nil, nil, fmt.Errorf("create surface view: %w", err)
	}
	release := func() {
		view.Release()
		next.Release()
	}
	return &gpu.ViewSurface{View: view, Width: int(h.Config.Width), Height: int(h.Config.Height)}, release, nil
}

func (h *Host) Present() { h.Surface.Present() }

func (h *Host) Release() {
	if h.Device != nil {
		h.Device.Release()
		h.Device = nil
	}
	if h.Adapter != nil {
		h.Adapter.Release()
		h.Adapter = nil
	}
	if h.Surface != nil {
		h.Surface.Release()
		h.Surface = nil
	}
	if h.Instance != nil {
		h.Instance.Release()
		h.Instance = nil
	}
}

func GetSurfaceDescriptor(w *glfw.Window) *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w)
}
