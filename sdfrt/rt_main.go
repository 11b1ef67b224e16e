package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"os"
	"runtime"

	"github.com/gekko3d/raymarch/sdfrt/rt/anim"
	"github.com/gekko3d/raymarch/sdfrt/rt/app"
	"github.com/gekko3d/raymarch/sdfrt/rt/core"
	"github.com/gekko3d/raymarch/sdfrt/rt/gpu"
	"github.com/gekko3d/raymarch/sdfrt/rt/shaders"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "TOML config file")
	debug := flag.Bool("debug", false, "Enable debug logging and buffer validation")
	width := flag.Int("width", 0, "Window width (overrides config)")
	height := flag.Int("height", 0, "Window height (overrides config)")
	variant := flag.String("variant", "", "Kernel variant: textured or volume")
	tile := flag.Int("tile", 0, "Workgroup edge in pixels")
	shaderDir := flag.String("shader-dir", "", "Load and hot-reload kernel sources from this directory")
	texture := flag.String("texture", "", "Image file used on the demo primitives")
	check := flag.Bool("check", false, "Compile the kernels offline and exit")
	flag.Parse()

	cfg := app.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = app.LoadConfig(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if *debug {
		cfg.Debug = true
	}
	if *width > 0 {
		cfg.Window.Width = *width
	}
	if *height > 0 {
		cfg.Window.Height = *height
	}
	if *variant != "" {
		cfg.Variant = *variant
	}
	if *tile > 0 {
		cfg.TileSize = *tile
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := core.NewDefaultLogger(cfg.LogPrefix, cfg.Debug)

	sources := shaders.Embedded()
	if *shaderDir != "" {
		var err error
		if sources, err = shaders.LoadDir(*shaderDir); err != nil {
			logger.Errorf("%v", err)
			os.Exit(1)
		}
	}

	if *check {
		os.Exit(checkKernels(sources, cfg.TileSize, logger))
	}

	kind := cfg.ParsedVariant()
	kernel, err := sources.Kernel(kind, kind.Schema(), cfg.TileSize)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	host, err := app.NewHost(window)
	if err != nil {
		panic(err)
	}
	defer host.Release()

	device, err := gpu.NewWebGPU(host.Device, gpu.Options{
		KernelWGSL:    kernel,
		BlitWGSL:      sources.Fullscreen,
		Volumetric:    kind == shaders.Volumetric,
		SurfaceFormat: host.Format(),
	})
	if err != nil {
		panic(err)
	}
	defer device.Close()

	controller, err := app.NewController(device, cfg, logger)
	if err != nil {
		panic(err)
	}
	defer controller.Close()
	controller.SetVolume(core.RadialVolume(32))

	background, err := device.CreateSource("Background", 4, 256,
		app.Gradient(4, 256, color.RGBA{70, 110, 170, 255}, color.RGBA{200, 210, 225, 255}))
	if err != nil {
		panic(err)
	}
	defer background.Release()

	var textures []*core.Texture
	if *texture != "" {
		tex, err := core.LoadTexture(*texture)
		if err != nil {
			logger.Warnf("%v; using generated textures", err)
		} else {
			textures = append(textures, tex)
		}
	}
	demo := app.NewDemo(textures...)
	pulse := anim.DefaultPulse()
	orbit := anim.Orbit{Center: mgl32.Vec3{0, 2, 0}, Radius: 3, Speed: 0.7}

	var reload <-chan string
	if *shaderDir != "" {
		watcher, err := app.WatchShaders(*shaderDir, logger)
		if err != nil {
			logger.Warnf("%v; hot reload disabled", err)
		} else {
			defer watcher.Close()
			reload = watcher.Changed
		}
	}

	fbw, fbh := window.GetFramebufferSize()
	camera := core.NewCamera(fbw, fbh)
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		host.Resize(width, height)
		camera.Resize(width, height)
	})

	mouseCaptured := false
	var lastX, lastY float64
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if mouseCaptured {
			camera.Look(float32(xpos-lastX), float32(ypos-lastY))
		}
		lastX, lastY = xpos, ypos
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyTab:
			mouseCaptured = !mouseCaptured
			if mouseCaptured {
				w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
			} else {
				w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			}
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyF3:
			logger.SetDebug(!logger.DebugEnabled())
		}
	})

	ctx := context.Background()
	last := glfw.GetTime()
	for !window.ShouldClose() {
		glfw.PollEvents()

		now := glfw.GetTime()
		dt := float32(now - last)
		last = now
		t := float32(now)

		select {
		case name := <-reload:
			reloadKernel(device, *shaderDir, kind, cfg.TileSize, name, logger)
		default:
		}

		camera.Move(axis(window, glfw.KeyW, glfw.KeyS), axis(window, glfw.KeyD, glfw.KeyA), axis(window, glfw.KeySpace, glfw.KeyLeftShift), dt)
		demo.Pulsed.Transform.Scale = pulse.Scale(mgl32.Vec3{1, 1, 1}, t)
		demo.Lamp.Transform.Position = orbit.At(t)

		if err := controller.RenderToSwapchain(ctx, host, demo.Scene, camera, background); err != nil {
			logger.Errorf("%v", err)
		}
	}
}

func axis(w *glfw.Window, pos, neg glfw.Key) float32 {
	var v float32
	if w.GetKey(pos) == glfw.Press {
		v++
	}
	if w.GetKey(neg) == glfw.Press {
		v--
	}
	return v
}

// reloadKernel swaps in the edited kernel. A broken edit keeps the running
// pipeline.
func reloadKernel(device *gpu.WebGPU, dir string, kind shaders.Variant, tile int, changed string, logger core.Logger) {
	sources, err := shaders.LoadDir(dir)
	if err != nil {
		logger.Warnf("reload %s: %v", changed, err)
		return
	}
	kernel, err := sources.Kernel(kind, kind.Schema(), tile)
	if err != nil {
		logger.Warnf("reload %s: %v", changed, err)
		return
	}
	if err := device.Reload(kernel); err != nil {
		logger.Warnf("reload %s: %v", changed, err)
		return
	}
	logger.Infof("reloaded kernel after change to %s", changed)
}

func checkKernels(sources shaders.Sources, tile int, logger core.Logger) int {
	failed := 0
	for _, kind := range []shaders.Variant{shaders.Textured, shaders.Volumetric} {
		src, err := sources.Kernel(kind, kind.Schema(), tile)
		if err == nil {
			var n int
			if n, err = shaders.Check(src); err == nil {
				logger.Infof("%s kernel: %d bytes of SPIR-V", kind, n)
				continue
			}
		}
		logger.Errorf("%s kernel: %v", kind, err)
		failed++
	}
	if n, err := shaders.Check(sources.Fullscreen); err != nil {
		logger.Errorf("fullscreen blit: %v", err)
		failed++
	} else {
		logger.Infof("fullscreen blit: %d bytes of SPIR-V", n)
	}
	if failed > 0 {
		return 1
	}
	return 0
}
