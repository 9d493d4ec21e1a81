package cellular

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gekko3d/cellular/automata/rule"
	"github.com/gekko3d/cellular/automata/sim"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "CELLULAR"

var ErrInvalidConfig = errors.New("invalid config")

// Simulation engines selectable with simulation.engine.
const (
	EngineMulti  = "multi"
	EngineSingle = "single"
)

type WindowConfig struct {
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Title  string `mapstructure:"title"`
}

type SimulationConfig struct {
	Preset      string  `mapstructure:"preset"`
	Engine      string  `mapstructure:"engine"`
	PresetsFile string  `mapstructure:"presets_file"`
	Bounds      int     `mapstructure:"bounds"` // 0 keeps each preset's bounds
	TickRate    float64 `mapstructure:"tick_rate"`
	Seed        int64   `mapstructure:"seed"`
	Workers     int     `mapstructure:"workers"`
	NoiseRadius int     `mapstructure:"noise_radius"`
	NoiseAmount int     `mapstructure:"noise_amount"`
}

type CameraConfig struct {
	Mode     string  `mapstructure:"mode"`
	Distance float32 `mapstructure:"distance"`
	Speed    float32 `mapstructure:"speed"`
}

type RenderConfig struct {
	ClearColor string `mapstructure:"clear_color"`
}

type Config struct {
	Window     WindowConfig     `mapstructure:"window"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Camera     CameraConfig     `mapstructure:"camera"`
	Render     RenderConfig     `mapstructure:"render"`
	Debug      bool             `mapstructure:"debug"`
	Headless   bool             `mapstructure:"headless"`
	Steps      uint64           `mapstructure:"steps"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("window.width", 1280)
	v.SetDefault("window.height", 720)
	v.SetDefault("window.title", "cellular")
	v.SetDefault("simulation.preset", rule.DefaultPreset)
	v.SetDefault("simulation.engine", EngineMulti)
	v.SetDefault("simulation.presets_file", "")
	v.SetDefault("simulation.bounds", 0)
	v.SetDefault("simulation.tick_rate", 0.0)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.workers", 0)
	v.SetDefault("simulation.noise_radius", sim.DefaultNoiseRadius)
	v.SetDefault("simulation.noise_amount", sim.DefaultNoiseAmount)
	v.SetDefault("camera.mode", CameraOrbit.String())
	v.SetDefault("camera.distance", DefaultOrbitDistance)
	v.SetDefault("camera.speed", DefaultOrbitSpeed)
	v.SetDefault("render.clear_color", "#696b6d")
	v.SetDefault("debug", false)
	v.SetDefault("headless", false)
	v.SetDefault("steps", 0)
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"preset":    "simulation.preset",
	"engine":    "simulation.engine",
	"presets":   "simulation.presets_file",
	"bounds":    "simulation.bounds",
	"tick-rate": "simulation.tick_rate",
	"seed":      "simulation.seed",
	"workers":   "simulation.workers",
	"camera":    "camera.mode",
	"headless":  "headless",
	"steps":     "steps",
	"debug":     "debug",
}

// RegisterFlags adds the run flags to fs. Unset flags fall back to the
// config file, then the environment, then the defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (yaml, toml or json)")
	fs.String("preset", rule.DefaultPreset, "preset to start with")
	fs.String("engine", EngineMulti, "simulation engine: multi or single")
	fs.String("presets", "", "yaml file with extra presets")
	fs.Int("bounds", 0, "grid edge length, 0 keeps the preset's")
	fs.Float64("tick-rate", 0, "generations per second, 0 steps every frame")
	fs.Int64("seed", 0, "noise seed")
	fs.Int("workers", 0, "update workers, 0 uses GOMAXPROCS")
	fs.String("camera", CameraOrbit.String(), "camera mode: orbit or flying")
	fs.Bool("headless", false, "run without a window")
	fs.Uint64("steps", 0, "stop after this many generations, 0 runs forever")
	fs.Bool("debug", false, "debug logging")
}

// LoadConfig merges defaults, an optional config file, CELLULAR_* environment
// variables and the flags in fs, in increasing order of precedence. fs may be
// nil.
func LoadConfig(v *viper.Viper, fs *pflag.FlagSet) (Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
		}
	}

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	case c.Simulation.Engine != EngineMulti && c.Simulation.Engine != EngineSingle:
		return fmt.Errorf("%w: engine %q", ErrInvalidConfig, c.Simulation.Engine)
	case c.Simulation.Bounds < 0:
		return fmt.Errorf("%w: bounds %d", ErrInvalidConfig, c.Simulation.Bounds)
	case c.Simulation.TickRate < 0:
		return fmt.Errorf("%w: tick rate %v", ErrInvalidConfig, c.Simulation.TickRate)
	case c.Simulation.NoiseRadius < 0 || c.Simulation.NoiseAmount < 0:
		return fmt.Errorf("%w: noise radius %d amount %d", ErrInvalidConfig,
			c.Simulation.NoiseRadius, c.Simulation.NoiseAmount)
	}
	if _, err := ParseCameraMode(c.Camera.Mode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := c.ClearColour(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// NewEngine builds the configured engine for the i-th simulation. Each one
// gets its own noise seed.
func (c Config) NewEngine(i int) sim.Simulation {
	seed := c.Simulation.Seed + int64(i)
	if c.Simulation.Engine == EngineSingle {
		return sim.NewSingleThreaded(seed)
	}
	return sim.NewMultiThreaded(c.Simulation.Workers, seed)
}

func (c Config) ClearColour() (mgl32.Vec4, error) {
	return rule.ParseColour(c.Render.ClearColor)
}

// ExtraPresets loads the presets file, if any.
func (c Config) ExtraPresets() ([]rule.Preset, error) {
	if c.Simulation.PresetsFile == "" {
		return nil, nil
	}
	return rule.LoadPresetFile(c.Simulation.PresetsFile)
}

// SimulationPresets returns the simulations to register, in key order: the
// selected preset first, then every other preset by name. A non-zero Bounds
// overrides the bounds of all of them.
func (c Config) SimulationPresets() ([]rule.Preset, error) {
	extra, err := c.ExtraPresets()
	if err != nil {
		return nil, err
	}
	first, err := rule.Lookup(c.Simulation.Preset, extra)
	if err != nil {
		return nil, err
	}

	presets := []rule.Preset{{Name: strings.ToLower(strings.TrimSpace(c.Simulation.Preset)), Rule: first}}
	for _, name := range rule.Names(extra) {
		if name == presets[0].Name {
			continue
		}
		r, err := rule.Lookup(name, extra)
		if err != nil {
			return nil, err
		}
		presets = append(presets, rule.Preset{Name: name, Rule: r})
	}

	if c.Simulation.Bounds > 0 {
		for i := range presets {
			presets[i].Rule.Bounds = c.Simulation.Bounds
		}
	}
	return presets, nil
}
