package cellular

import (
	"time"
)

type Time struct {
	Time time.Time
	Dt   time.Duration
}

// DeltaSeconds is the frame delta in seconds.
func (t *Time) DeltaSeconds() float32 {
	return float32(t.Dt.Seconds())
}

// TimeModule advances the Time resource once per frame. A non-zero
// FixedStep replaces the wall clock, so every frame lasts exactly FixedStep.
type TimeModule struct {
	FixedStep time.Duration
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Time{
		Time: time.Now(),
		Dt:   0,
	})

	system := timeSystem
	if mod.FixedStep > 0 {
		step := mod.FixedStep
		system = func(t *Time) {
			t.Dt = step
			t.Time = t.Time.Add(step)
		}
	}
	app.UseSystem(
		System(system).
			InStage(Prelude).
			RunAlways(),
	)
}

func timeSystem(timeResource *Time) {
	now := time.Now()

	timeResource.Dt = now.Sub(timeResource.Time)
	timeResource.Time = now
}
