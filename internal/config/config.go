// Package config loads the process configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/chrisdevito/ViewNudger/internal/core/observability/log"
)

// Config is the whole process configuration.
type Config struct {
	Log    log.Config   `yaml:"log"`
	Server ServerConfig `yaml:"server"`
	Scene  SceneConfig  `yaml:"scene"`
}

// ServerConfig configures the websocket front end.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadLimit       int64         `yaml:"read_limit"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// WriteTimeout bounds every write to a client; a client that misses it
	// is disconnected. Zero disables the deadline.
	WriteTimeout    time.Duration `yaml:"write_timeout"`
}

// SceneConfig seeds the in-memory host.
type SceneConfig struct {
	ActiveViewport string           `yaml:"active_viewport"`
	Cameras        []CameraConfig   `yaml:"cameras"`
	Viewports      []ViewportConfig `yaml:"viewports"`
	Objects        []ObjectConfig   `yaml:"objects"`
	Selection      []string         `yaml:"selection"`
}

// CameraConfig places a camera at Position looking at Target.
type CameraConfig struct {
	Name     string     `yaml:"name"`
	Position mgl64.Vec3 `yaml:"position"`
	Target   mgl64.Vec3 `yaml:"target"`
}

// ViewportConfig is a panel bound to a camera with a perspective lens.
type ViewportConfig struct {
	Name   string  `yaml:"name"`
	Camera string  `yaml:"camera"`
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FovY   float64 `yaml:"fov_y"`
	Near   float64 `yaml:"near"`
	Far    float64 `yaml:"far"`
}

// ObjectConfig is a non-camera entity; Kind defaults to transform.
type ObjectConfig struct {
	Name     string     `yaml:"name"`
	Kind     string     `yaml:"kind"`
	Position mgl64.Vec3 `yaml:"position"`
	Rotation mgl64.Vec3 `yaml:"rotation"`
}

// Default returns a single perspective camera at the origin looking down -Z
// through a 512x512 panel, with one sphere ten units in front of it.
func Default() Config {
	return Config{
		Log: log.DefaultConfig(),
		Server: ServerConfig{
			Addr:            "127.0.0.1:8765",
			ReadLimit:       4096,
			ShutdownTimeout: 5 * time.Second,
			WriteTimeout:    5 * time.Second,
		},
		Scene: SceneConfig{
			ActiveViewport: "modelPanel1",
			Cameras: []CameraConfig{
				{Name: "persp", Position: mgl64.Vec3{0, 0, 0}, Target: mgl64.Vec3{0, 0, -1}},
			},
			Viewports: []ViewportConfig{
				{Name: "modelPanel1", Camera: "persp", Width: 512, Height: 512, FovY: 54.43, Near: 0.1, Far: 10000},
			},
			Objects: []ObjectConfig{
				{Name: "pSphere1", Kind: "transform", Position: mgl64.Vec3{0, 0, -10}},
			},
			Selection: []string{"pSphere1"},
		},
	}
}

// Load decodes YAML from r on top of Default and validates the result.
func Load(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile is Load for a path on disk.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate checks the whole configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Server.ReadLimit < 0 {
		errs = append(errs, fmt.Errorf("server.read_limit %d is negative", c.Server.ReadLimit))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout %s is negative", c.Server.ShutdownTimeout))
	}
	if c.Server.WriteTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.write_timeout %s is negative", c.Server.WriteTimeout))
	}
	if c.Log.Encoding != "" && c.Log.Encoding != "json" && c.Log.Encoding != "console" {
		errs = append(errs, fmt.Errorf("log.encoding %q is not json or console", c.Log.Encoding))
	}
	errs = append(errs, c.Scene.validate()...)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func (s *SceneConfig) validate() []error {
	var errs []error
	names := make(map[string]string)
	claim := func(name, what string) {
		if name == "" {
			errs = append(errs, fmt.Errorf("%s with empty name", what))
			return
		}
		if prev, ok := names[name]; ok {
			errs = append(errs, fmt.Errorf("%s %q already used by a %s", what, name, prev))
			return
		}
		names[name] = what
	}

	for _, cam := range s.Cameras {
		claim(cam.Name, "camera")
		if cam.Position.Sub(cam.Target).Len() == 0 {
			errs = append(errs, fmt.Errorf("camera %q: position equals target", cam.Name))
		}
	}
	for _, obj := range s.Objects {
		claim(obj.Name, "object")
		switch obj.Kind {
		case "", "transform", "mesh", "light":
		default:
			errs = append(errs, fmt.Errorf("object %q: unknown kind %q", obj.Name, obj.Kind))
		}
	}

	panels := make(map[string]bool)
	for _, vp := range s.Viewports {
		if vp.Name == "" {
			errs = append(errs, errors.New("viewport with empty name"))
			continue
		}
		if panels[vp.Name] {
			errs = append(errs, fmt.Errorf("viewport %q defined twice", vp.Name))
		}
		panels[vp.Name] = true
		if names[vp.Camera] != "camera" {
			errs = append(errs, fmt.Errorf("viewport %q: unknown camera %q", vp.Name, vp.Camera))
		}
		if vp.Width <= 0 || vp.Height <= 0 {
			errs = append(errs, fmt.Errorf("viewport %q: size %dx%d", vp.Name, vp.Width, vp.Height))
		}
		if !(vp.FovY > 0 && vp.FovY < 180) {
			errs = append(errs, fmt.Errorf("viewport %q: fov_y %v out of (0, 180)", vp.Name, vp.FovY))
		}
		if !(vp.Near > 0 && vp.Far > vp.Near) {
			errs = append(errs, fmt.Errorf("viewport %q: near %v far %v", vp.Name, vp.Near, vp.Far))
		}
	}
	if s.ActiveViewport != "" && !panels[s.ActiveViewport] {
		errs = append(errs, fmt.Errorf("active_viewport %q is not defined", s.ActiveViewport))
	}
	for _, name := range s.Selection {
		if _, ok := names[name]; !ok {
			errs = append(errs, fmt.Errorf("selection: unknown entity %q", name))
		}
	}
	return errs
}
