package cellular

import (
	"context"
	"testing"
	"time"

	"github.com/gekko3d/cellular/automata/rule"
	"github.com/gekko3d/cellular/automata/sim"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSimulations(t *testing.T, ctx context.Context, presets ...string) *Simulations {
	t.Helper()
	sims := NewSimulations(ctx)
	for i, name := range presets {
		r, err := rule.Lookup(name, nil)
		require.NoError(t, err)
		r.Bounds = 32
		require.NoError(t, sims.Add(name, r, sim.NewMultiThreaded(2, int64(i+1))))
	}
	return sims
}

func simulationsApp(sims *Simulations) *App {
	return NewAppBuilder().
		UseStates(StateRunning, StateQuit).
		UseModule(
			LoggingModule{Logger: NewNopLogger()},
			TimeModule{FixedStep: 100 * time.Millisecond},
			InputModule{},
			SimulationsModule{Simulations: sims},
		).
		Build()
}

func cellInstances(app *App) (res CellInstancesComponent) {
	MakeQuery1[CellInstancesComponent](app.Commands()).Map(func(_ EntityId, c *CellInstancesComponent) bool {
		res = *c
		return false
	})
	return res
}

func press(app *App, key int) {
	in := Resource[Input](app)
	in.SetKey(key, true)
	app.RunFrame()
	in.SetKey(key, false)
}

func TestSimulations_AddValidates(t *testing.T) {
	sims := NewSimulations(context.Background())
	r := rule.Default()
	r.States = 0

	err := sims.Add("broken", r, sim.NewSingleThreaded(1))
	assert.ErrorIs(t, err, rule.ErrInvalidStates)
	assert.Zero(t, sims.Len())
	assert.Nil(t, sims.Active())
	assert.Error(t, sims.Activate(0))

	require.NoError(t, sims.Add("fine", rule.Default(), sim.NewSingleThreaded(1)))
	assert.Equal(t, []string{"fine"}, sims.Names())
}

func TestSimulations_Due(t *testing.T) {
	sims := NewSimulations(context.Background())
	assert.True(t, sims.due(0), "zero tick rate steps every frame")

	sims.TickRate = 4
	assert.False(t, sims.due(100*time.Millisecond))
	assert.False(t, sims.due(100*time.Millisecond))
	assert.True(t, sims.due(100*time.Millisecond))

	// a long frame runs one generation and keeps at most one period of backlog
	assert.True(t, sims.due(2*time.Second))
	assert.True(t, sims.due(0))
	assert.False(t, sims.due(0))
}

func TestSimulations_FirstFrameStartsFirstSimulation(t *testing.T) {
	sims := testSimulations(t, context.Background(), rule.DefaultPreset, "445")
	app := simulationsApp(sims)

	require.True(t, app.RunFrame())
	assert.Equal(t, 0, sims.ActiveIndex())
	assert.Equal(t, uint64(1), sims.Generation)
	assert.NotEqual(t, uuid.Nil, sims.RunID)

	cells := cellInstances(app)
	assert.Equal(t, uint64(1), cells.Version)
	assert.Len(t, cells.Instances, sims.Active().Sim.CellCount())
	assert.NotEmpty(t, cells.Instances)

	app.RunFrame()
	assert.Equal(t, uint64(2), sims.Generation)
	assert.Equal(t, uint64(2), cellInstances(app).Version)
}

func TestSimulations_Keys(t *testing.T) {
	sims := testSimulations(t, context.Background(), rule.DefaultPreset, "445")
	app := simulationsApp(sims)
	app.RunFrame()

	press(app, KeyP)
	assert.True(t, sims.Paused)
	assert.Equal(t, uint64(1), sims.Generation)
	version := cellInstances(app).Version

	app.RunFrame()
	assert.Equal(t, uint64(1), sims.Generation)
	assert.Equal(t, version, cellInstances(app).Version, "nothing to redraw while paused")

	before := sims.Active().Sim.CellCount()
	press(app, KeyN)
	assert.GreaterOrEqual(t, sims.Active().Sim.CellCount(), before)
	assert.Equal(t, version+1, cellInstances(app).Version)

	run := sims.RunID
	press(app, KeyR)
	assert.NotEqual(t, run, sims.RunID)
	assert.Zero(t, sims.Generation)

	press(app, Key2)
	assert.Equal(t, 1, sims.ActiveIndex())
	assert.Equal(t, "445", sims.Active().Name)

	// no third simulation registered
	press(app, Key3)
	assert.Equal(t, 1, sims.ActiveIndex())

	press(app, KeyP)
	assert.False(t, sims.Paused)
	assert.Equal(t, uint64(1), sims.Generation)
}

func TestSimulations_TickRate(t *testing.T) {
	sims := testSimulations(t, context.Background(), "445")
	sims.TickRate = 5
	app := simulationsApp(sims)

	var generations []uint64
	for range 4 {
		app.RunFrame()
		generations = append(generations, sims.Generation)
	}
	assert.Equal(t, []uint64{0, 1, 1, 2}, generations)
}

func TestSimulations_BoundsChangeResets(t *testing.T) {
	sims := testSimulations(t, context.Background(), "445")
	app := simulationsApp(sims)
	app.RunFrame()
	app.RunFrame()
	run := sims.RunID

	sims.Active().Rule.Bounds = 64
	app.RunFrame()
	assert.NotEqual(t, run, sims.RunID)
	assert.Equal(t, uint64(1), sims.Generation)
	assert.Equal(t, uint64(3), sims.Steps)
	assert.Equal(t, 64, sims.bounds)
}

func TestSimulations_StepLimitQuits(t *testing.T) {
	sims := testSimulations(t, context.Background(), "445")
	sims.StepLimit = 3
	app := simulationsApp(sims)

	assert.True(t, app.RunFrame())
	assert.True(t, app.RunFrame())
	assert.False(t, app.RunFrame())
	assert.Equal(t, StateQuit, app.State())
	assert.Equal(t, uint64(3), sims.Steps)
}

func TestSimulations_CancelQuits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sims := testSimulations(t, ctx, "445")
	app := simulationsApp(sims)

	assert.True(t, app.RunFrame())
	cancel()
	assert.False(t, app.RunFrame())
	assert.Equal(t, uint64(1), sims.Steps)
}

func TestSimulations_Empty(t *testing.T) {
	app := simulationsApp(NewSimulations(context.Background()))
	assert.True(t, app.RunFrame())
	assert.Empty(t, cellInstances(app).Instances)
}

func cellEntities(app *App) int {
	n := 0
	MakeQuery1[CellInstancesComponent](app.Commands()).Map(func(EntityId, *CellInstancesComponent) bool {
		n++
		return true
	})
	return n
}

func TestSimulations_QuitRemovesCellEntity(t *testing.T) {
	sims := testSimulations(t, context.Background(), "445")
	sims.StepLimit = 2
	app := simulationsApp(sims)

	assert.True(t, app.RunFrame())
	assert.Equal(t, 1, cellEntities(app))

	assert.False(t, app.RunFrame())
	assert.Equal(t, StateQuit, app.State())
	assert.Zero(t, cellEntities(app))
}

func TestSimulations_ZeroValue(t *testing.T) {
	sims := &Simulations{NoiseRadius: 3, NoiseAmount: 50}
	r := rule.Default()
	r.Bounds = 32
	require.NoError(t, sims.Add("plain", r, sim.NewSingleThreaded(1)))

	require.NoError(t, sims.Activate(0))
	require.NoError(t, sims.Step())
	assert.Equal(t, uint64(1), sims.Generation)

	app := simulationsApp(&Simulations{})
	assert.NotPanics(t, func() { app.RunFrame() })
	assert.Equal(t, StateRunning, app.State())
}
