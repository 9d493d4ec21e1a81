package cellular

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/cellular/automata/rule"
	"github.com/gekko3d/cellular/automata/sim"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(viper.New(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, rule.DefaultPreset, cfg.Simulation.Preset)
	assert.Equal(t, EngineMulti, cfg.Simulation.Engine)
	assert.Zero(t, cfg.Simulation.Bounds)
	assert.Equal(t, 6, cfg.Simulation.NoiseRadius)
	assert.Equal(t, 12*12*12, cfg.Simulation.NoiseAmount)
	assert.Equal(t, "orbit", cfg.Camera.Mode)
	assert.Equal(t, DefaultOrbitDistance, cfg.Camera.Distance)
	assert.False(t, cfg.Headless)
	assert.Zero(t, cfg.Steps)

	c, err := cfg.ClearColour()
	require.NoError(t, err)
	assert.InDelta(t, 0.41, c.X(), 0.01)
	assert.InDelta(t, 0.43, c.Z(), 0.01)
}

func TestConfig_EnvAndFlags(t *testing.T) {
	t.Setenv("CELLULAR_SIMULATION_BOUNDS", "64")
	t.Setenv("CELLULAR_SIMULATION_WORKERS", "3")
	t.Setenv("CELLULAR_STEPS", "7")

	cfg, err := LoadConfig(viper.New(), testFlags(t))
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Simulation.Bounds)
	assert.Equal(t, 3, cfg.Simulation.Workers)
	assert.Equal(t, uint64(7), cfg.Steps)

	cfg, err = LoadConfig(viper.New(), testFlags(t, "--bounds=40", "--preset=445", "--headless", "--camera=flying", "--tick-rate=2"))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Simulation.Bounds, "flags win over the environment")
	assert.Equal(t, "445", cfg.Simulation.Preset)
	assert.True(t, cfg.Headless)
	assert.Equal(t, "flying", cfg.Camera.Mode)
	assert.Equal(t, 2.0, cfg.Simulation.TickRate)
	assert.Equal(t, 3, cfg.Simulation.Workers)
}

func TestConfig_Engine(t *testing.T) {
	cfg, err := LoadConfig(viper.New(), testFlags(t, "--engine=single"))
	require.NoError(t, err)
	assert.Equal(t, EngineSingle, cfg.Simulation.Engine)
	assert.IsType(t, &sim.SingleThreaded{}, cfg.NewEngine(0))

	t.Setenv("CELLULAR_SIMULATION_ENGINE", "single")
	cfg, err = LoadConfig(viper.New(), nil)
	require.NoError(t, err)
	assert.IsType(t, &sim.SingleThreaded{}, cfg.NewEngine(1))

	cfg, err = LoadConfig(viper.New(), testFlags(t, "--engine=multi"))
	require.NoError(t, err)
	assert.IsType(t, &sim.MultiThreaded{}, cfg.NewEngine(0), "flags win over the environment")
}

func TestConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cellular.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
window:
  width: 800
simulation:
  preset: crystals
  tick_rate: 2.5
render:
  clear_color: black
`), 0o644))

	t.Setenv("CELLULAR_WINDOW_HEIGHT", "600")
	cfg, err := LoadConfig(viper.New(), testFlags(t, "--config", path, "--seed=9"))
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, "crystals", cfg.Simulation.Preset)
	assert.Equal(t, 2.5, cfg.Simulation.TickRate)
	assert.Equal(t, int64(9), cfg.Simulation.Seed)

	c, err := cfg.ClearColour()
	require.NoError(t, err)
	assert.Equal(t, rule.Black, c)
}

func TestConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(viper.New(), testFlags(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

func TestConfig_Invalid(t *testing.T) {
	for name, args := range map[string][]string{
		"negative bounds":    {"--bounds=-1"},
		"negative tick rate": {"--tick-rate=-2"},
		"camera mode":        {"--camera=sideways"},
		"engine":             {"--engine=gpu"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(viper.New(), testFlags(t, args...))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	t.Run("clear colour", func(t *testing.T) {
		t.Setenv("CELLULAR_RENDER_CLEAR_COLOR", "#zz")
		_, err := LoadConfig(viper.New(), nil)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("window", func(t *testing.T) {
		t.Setenv("CELLULAR_WINDOW_WIDTH", "0")
		_, err := LoadConfig(viper.New(), nil)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestConfig_SimulationPresets(t *testing.T) {
	cfg, err := LoadConfig(viper.New(), testFlags(t, "--preset=445"))
	require.NoError(t, err)

	presets, err := cfg.SimulationPresets()
	require.NoError(t, err)
	require.Len(t, presets, len(rule.Builtin()))
	assert.Equal(t, "445", presets[0].Name)

	var rest []string
	for _, p := range presets[1:] {
		rest = append(rest, p.Name)
		assert.Equal(t, rule.DefaultBounds, p.Rule.Bounds)
	}
	assert.IsIncreasing(t, rest)
	assert.NotContains(t, rest, "445")

	cfg.Simulation.Bounds = 40
	presets, err = cfg.SimulationPresets()
	require.NoError(t, err)
	for _, p := range presets {
		assert.Equal(t, 40, p.Rule.Bounds, p.Name)
	}

	cfg.Simulation.Preset = "missing"
	_, err = cfg.SimulationPresets()
	assert.ErrorIs(t, err, rule.ErrUnknownPreset)
}

func TestConfig_ExtraPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
presets:
  - name: Mine
    rule: 4/4/5/M
    bounds: 32
`), 0o644))

	cfg, err := LoadConfig(viper.New(), testFlags(t, "--presets", path, "--preset", "mine"))
	require.NoError(t, err)

	presets, err := cfg.SimulationPresets()
	require.NoError(t, err)
	require.Len(t, presets, len(rule.Builtin())+1)
	assert.Equal(t, "mine", presets[0].Name)
	assert.Equal(t, 32, presets[0].Rule.Bounds)
	assert.Equal(t, "4/4/5/M", presets[0].Rule.Notation())

	cfg.Simulation.PresetsFile = filepath.Join(t.TempDir(), "absent.yaml")
	_, err = cfg.SimulationPresets()
	assert.Error(t, err)
}
