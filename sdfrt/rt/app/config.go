package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/gekko3d/raymarch/sdfrt/rt/shaders"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
)

type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

// Config drives the controller and the demo host.
type Config struct {
	Variant      string     `toml:"variant"`
	TileSize     int        `toml:"tile_size"`
	AmbientColor [4]float32 `toml:"ambient_color"`
	Debug        bool       `toml:"debug"`
	LogPrefix    string     `toml:"log_prefix"`
	// ProfileEvery logs the profiler report every N frames in debug mode.
	// Zero disables the report.
	ProfileEvery int          `toml:"profile_every"`
	Window       WindowConfig `toml:"window"`
}

func DefaultConfig() Config {
	return Config{
		Variant:      string(shaders.Textured),
		TileSize:     8,
		AmbientColor: [4]float32{0.1, 0.1, 0.12, 1},
		LogPrefix:    "SDFRT",
		ProfileEvery: 120,
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "SDF Raymarch Go",
		},
	}
}

// LoadConfig reads a TOML file over the defaults. Keys that are not part of
// Config are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("config %s: %s", path, strict.String())
		}
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if _, err := shaders.ParseVariant(c.Variant); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.TileSize < 1 || c.TileSize > shaders.MaxTile {
		return fmt.Errorf("config: tile_size %d outside 1..%d", c.TileSize, shaders.MaxTile)
	}
	if c.ProfileEvery < 0 {
		return fmt.Errorf("config: profile_every must not be negative")
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("config: window size %dx%d", c.Window.Width, c.Window.Height)
	}
	return nil
}

// Ambient returns the ambient colour as a vector.
func (c Config) Ambient() mgl32.Vec4 {
	return mgl32.Vec4(c.AmbientColor)
}

// ParsedVariant returns the validated variant. Call Validate first.
func (c Config) ParsedVariant() shaders.Variant {
	v, _ := shaders.ParseVariant(c.Variant)
	return v
}
