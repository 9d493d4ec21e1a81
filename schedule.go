package cellular

import (
	"fmt"
)

type State int

const (
	StateRunning State = iota
	StateQuit
)

// Stage is a named slot in a frame. Commands issued by a stage's systems are
// applied before the next stage runs.
type Stage struct {
	Name string
}

var (
	Prelude    = Stage{Name: "Prelude"}
	PreUpdate  = Stage{Name: "PreUpdate"}
	Update     = Stage{Name: "Update"}
	PostUpdate = Stage{Name: "PostUpdate"}
	PreRender  = Stage{Name: "PreRender"}
	Render     = Stage{Name: "Render"}
	PostRender = Stage{Name: "PostRender"}
	Finale     = Stage{Name: "Finale"}
)

var defaultStages = []Stage{Prelude, PreUpdate, Update, PostUpdate, PreRender, Render, PostRender, Finale}

type statePhase int

const (
	enter statePhase = iota
	execute
	exit
)

// StateHook ties a system to one phase of a state.
type StateHook struct {
	state State
	phase statePhase
}

func OnEnter(state State) StateHook   { return StateHook{state: state, phase: enter} }
func OnExecute(state State) StateHook { return StateHook{state: state, phase: execute} }
func OnExit(state State) StateHook    { return StateHook{state: state, phase: exit} }

// SystemSchedule places a system in a stage. A system without a state hook
// runs every frame, before the stage's hooked systems.
type SystemSchedule struct {
	fn    systemFn
	stage Stage
	hook  *StateHook
}

func System(fn systemFn) SystemSchedule {
	return SystemSchedule{fn: fn, stage: Update}
}

func (s SystemSchedule) InStage(stage Stage) SystemSchedule {
	s.stage = stage
	return s
}

func (s SystemSchedule) InState(hook StateHook) SystemSchedule {
	s.hook = &hook
	return s
}

// RunAlways drops any state hook.
func (s SystemSchedule) RunAlways() SystemSchedule {
	s.hook = nil
	return s
}

type stageSystems struct {
	always []systemFn
	hooked map[StateHook][]systemFn
}

func (app *App) UseSystem(s SystemSchedule) *App {
	systems, ok := app.schedule[s.stage.Name]
	if !ok {
		panic(fmt.Sprintf("stage %s doesn't exist", s.stage.Name))
	}

	if s.hook == nil {
		systems.always = append(systems.always, s.fn)
		return app
	}
	if !app.stateful {
		panic("stateful system in a stateless app")
	}
	if s.hook.state < app.initialState || s.hook.state > app.finalState {
		panic(fmt.Sprintf("state %d doesn't exist", s.hook.state))
	}
	systems.hooked[*s.hook] = append(systems.hooked[*s.hook], s.fn)
	return app
}

func (app *App) addStage(stage Stage) {
	app.stages = append(app.stages, stage)
	app.schedule[stage.Name] = &stageSystems{hooked: make(map[StateHook][]systemFn)}
}
