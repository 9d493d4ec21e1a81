package cellular

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gekko3d/cellular/automata/instance"
	"github.com/gekko3d/cellular/automata/rule"
	"github.com/gekko3d/cellular/automata/sim"
	"github.com/google/uuid"
)

// CellInstancesComponent holds the cubes to draw for the active simulation.
// Version changes whenever Instances is rewritten.
type CellInstancesComponent struct {
	Instances []instance.InstanceData
	Version   uint64
}

type SimulationEntry struct {
	Name string
	Rule rule.Rule
	Sim  sim.Simulation
}

// Simulations is the registry of runnable automata and the state of the one
// currently shown.
type Simulations struct {
	entries []SimulationEntry
	active  int
	started bool
	dirty   bool
	bounds  int

	Paused     bool
	Generation uint64 // generations since the last reset
	Steps      uint64 // generations over the whole run
	RunID      uuid.UUID

	// TickRate is the number of generations per second. Zero steps once per
	// frame.
	TickRate    float64
	accumulator time.Duration

	// StepLimit stops the app after that many generations. Zero runs until
	// the window closes or the context is cancelled.
	StepLimit uint64

	NoiseRadius int
	NoiseAmount int

	ctx context.Context
}

func NewSimulations(ctx context.Context) *Simulations {
	return &Simulations{
		NoiseRadius: sim.DefaultNoiseRadius,
		NoiseAmount: sim.DefaultNoiseAmount,
		ctx:         ctx,
	}
}

// runContext is the context passed at construction. A Simulations built as
// a zero value runs under context.Background.
func (s *Simulations) runContext() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// Add registers a simulation under a name. The rule is validated first.
func (s *Simulations) Add(name string, r rule.Rule, engine sim.Simulation) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("simulation %q: %w", name, err)
	}
	s.entries = append(s.entries, SimulationEntry{Name: name, Rule: r, Sim: engine})
	return nil
}

func (s *Simulations) Len() int { return len(s.entries) }

func (s *Simulations) Names() []string {
	names := make([]string, len(s.entries))
	for i, e := range s.entries {
		names[i] = e.Name
	}
	return names
}

func (s *Simulations) ActiveIndex() int { return s.active }

// Active returns the running entry, or nil when nothing is registered.
func (s *Simulations) Active() *SimulationEntry {
	if s.active < 0 || s.active >= len(s.entries) {
		return nil
	}
	return &s.entries[s.active]
}

// Activate switches to entry i and resets it.
func (s *Simulations) Activate(i int) error {
	if i < 0 || i >= len(s.entries) {
		return fmt.Errorf("no simulation #%d, have %d", i+1, len(s.entries))
	}
	s.active = i
	s.started = true
	s.Reset()
	return nil
}

// Reset clears the active grid, applies its bounds and seeds noise at the
// centre.
func (s *Simulations) Reset() {
	e := s.Active()
	if e == nil {
		return
	}
	s.bounds = e.Sim.SetBounds(e.Rule.Bounds)
	e.Sim.Reset()
	e.Sim.SpawnNoise(&e.Rule, e.Sim.Center(), s.NoiseRadius, s.NoiseAmount)
	s.Generation = 0
	s.accumulator = 0
	s.RunID = uuid.New()
	s.dirty = true
}

// SpawnNoise adds another burst of noise at the centre of the active grid.
func (s *Simulations) SpawnNoise() {
	e := s.Active()
	if e == nil {
		return
	}
	e.Sim.SpawnNoise(&e.Rule, e.Sim.Center(), s.NoiseRadius, s.NoiseAmount)
	s.dirty = true
}

// Step advances the active simulation by one generation.
func (s *Simulations) Step() error {
	e := s.Active()
	if e == nil {
		return nil
	}
	if err := e.Sim.Update(s.runContext(), &e.Rule); err != nil {
		return err
	}
	s.Generation++
	s.Steps++
	s.dirty = true
	return nil
}

// due reports whether a generation should run this frame. At most one
// generation runs per frame; a backlog of more than one period is dropped.
func (s *Simulations) due(dt time.Duration) bool {
	if s.TickRate <= 0 {
		return true
	}
	period := time.Duration(float64(time.Second) / s.TickRate)
	s.accumulator += dt
	if s.accumulator < period {
		return false
	}
	s.accumulator -= period
	if s.accumulator > period {
		s.accumulator = period
	}
	return true
}

func (s *Simulations) limitReached() bool {
	return s.StepLimit > 0 && s.Steps >= s.StepLimit
}

// SimulationsModule installs the registry and the system driving it. The
// first registered simulation starts on the first frame. Leaving the running
// state removes the cell entity.
type SimulationsModule struct {
	Simulations *Simulations
}

func (m SimulationsModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(m.Simulations)
	cmd.AddEntity(&CellInstancesComponent{}, &TransformComponent{})

	app.UseSystem(
		System(simulationsSystem).
			InStage(Update).
			InState(OnExecute(StateRunning)),
	)
	app.UseSystem(
		System(stopSimulationsSystem).
			InStage(Finale).
			InState(OnExit(StateRunning)),
	)
}

var simulationKeys = [...]int{Key1, Key2, Key3, Key4, Key5, Key6, Key7, Key8, Key9}

func simulationsSystem(cmd *Commands, sims *Simulations, input *Input, t *Time) {
	log := cmd.Logger()

	if err := sims.runContext().Err(); err != nil {
		log.Infof("stopping: %v", err)
		cmd.ChangeState(StateQuit)
		return
	}
	if sims.Len() == 0 {
		return
	}

	if !sims.started {
		if err := sims.Activate(0); err != nil {
			log.Errorf("%v", err)
			return
		}
		log.Infof("simulation %q (%s) run %s", sims.Active().Name, sims.Active().Rule.Notation(), sims.RunID)
	}

	for i, key := range simulationKeys {
		if input.JustPressed[key] && i < sims.Len() && i != sims.active {
			if err := sims.Activate(i); err == nil {
				log.Infof("simulation %q (%s) run %s", sims.Active().Name, sims.Active().Rule.Notation(), sims.RunID)
			}
		}
	}
	if input.JustPressed[KeyR] {
		sims.Reset()
		log.Debugf("reset, run %s", sims.RunID)
	}
	if input.JustPressed[KeyP] {
		sims.Paused = !sims.Paused
		log.Debugf("paused %v", sims.Paused)
	}
	if input.JustPressed[KeyN] {
		sims.SpawnNoise()
	}

	active := sims.Active()
	if b := active.Sim.SetBounds(active.Rule.Bounds); b != sims.bounds {
		log.Debugf("bounds changed %d -> %d", sims.bounds, b)
		sims.Reset()
	}

	if !sims.Paused && sims.due(t.Dt) {
		if err := sims.Step(); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Infof("stopping: %v", err)
				cmd.ChangeState(StateQuit)
				return
			}
			log.Errorf("simulation %q: %v", active.Name, err)
			sims.Paused = true
		}
	}

	if sims.dirty {
		sims.dirty = false
		MakeQuery1[CellInstancesComponent](cmd).Map(func(eid EntityId, cells *CellInstancesComponent) bool {
			cells.Instances = active.Sim.Render(&active.Rule, cells.Instances[:0])
			cells.Version++
			return true
		})
	}

	if sims.limitReached() {
		log.Infof("reached %d generations", sims.Steps)
		cmd.ChangeState(StateQuit)
	}
}

func stopSimulationsSystem(cmd *Commands, sims *Simulations) {
	if e := sims.Active(); e != nil {
		cmd.Logger().Infof("run %s of %q ended after %d generations, %d cells alive",
			sims.RunID, e.Name, sims.Steps, e.Sim.CellCount())
	}
	MakeQuery1[CellInstancesComponent](cmd).Map(func(eid EntityId, _ *CellInstancesComponent) bool {
		cmd.RemoveEntity(eid)
		return true
	})
}
