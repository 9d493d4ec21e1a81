package cellular

import (
	"context"
	"fmt"
)

// BuildApp assembles the visualiser from a config. Unless cfg.Headless is
// set it opens a window and a GPU device, so it must be called from the
// OS-locked main goroutine. Cancelling ctx stops the app at the next frame.
func BuildApp(ctx context.Context, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sims, err := newSimulations(ctx, cfg)
	if err != nil {
		return nil, err
	}

	builder := NewAppBuilder().
		UseStates(StateRunning, StateQuit).
		UseModule(
			LoggingModule{Prefix: "cellular", Debug: cfg.Debug},
			TimeModule{},
		)

	if cfg.Headless {
		builder.UseModule(
			InputModule{},
			SimulationsModule{Simulations: sims},
		)
		return builder.Build(), nil
	}

	mode, _ := ParseCameraMode(cfg.Camera.Mode)
	clearColour, _ := cfg.ClearColour()

	window, err := createWindowState(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title)
	if err != nil {
		return nil, err
	}
	gpu, err := createGpuState(window)
	if err != nil {
		window.destroy()
		return nil, fmt.Errorf("gpu: %w", err)
	}
	renderer, err := NewCellRendererModule(gpu, clearColour)
	if err != nil {
		gpu.release()
		window.destroy()
		return nil, fmt.Errorf("cell renderer: %w", err)
	}

	builder.UseModule(
		PlatformWindowModule{Window: window},
		InputModule{},
		CameraModule{Mode: mode, Distance: cfg.Camera.Distance, Speed: cfg.Camera.Speed},
		SimulationsModule{Simulations: sims},
		renderer,
	)
	return builder.Build(), nil
}

func newSimulations(ctx context.Context, cfg Config) (*Simulations, error) {
	presets, err := cfg.SimulationPresets()
	if err != nil {
		return nil, err
	}

	sims := NewSimulations(ctx)
	sims.TickRate = cfg.Simulation.TickRate
	sims.StepLimit = cfg.Steps
	sims.NoiseRadius = cfg.Simulation.NoiseRadius
	sims.NoiseAmount = cfg.Simulation.NoiseAmount
	for i, p := range presets {
		if err := sims.Add(p.Name, p.Rule, cfg.NewEngine(i)); err != nil {
			return nil, err
		}
	}
	return sims, nil
}
