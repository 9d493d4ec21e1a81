package cellular

import (
	"fmt"
	"reflect"
	"runtime"
)

type systemFn any

type App struct {
	stateful           bool
	stateTransitioning bool
	entered            bool
	initialState       State
	finalState         State
	nextState          State
	state              State
	stages             []Stage
	schedule           map[string]*stageSystems
	resources          map[reflect.Type]any
	ecs                *Ecs
	frame              uint64

	// Entity commands wait here until the current stage ends.
	pendingAdditions []pendingAdd
	pendingRemovals  []EntityId
}

type pendingAdd struct {
	eid        EntityId
	components []any
}

func (app *App) Commands() *Commands {
	return &Commands{
		app: app,
	}
}

func (app *App) State() State  { return app.state }
func (app *App) Frame() uint64 { return app.frame }

// Run executes frames until the final state is reached. A stateless app never
// returns.
func (app *App) Run() {
	if app.stateful {
		app.Logger().Debugf("running in stateful mode")
	} else {
		app.Logger().Debugf("running in stateless mode")
	}

	for app.RunFrame() {
	}
}

// RunFrame executes a single frame and reports whether the app should keep
// running. The initial state is entered on the first call.
func (app *App) RunFrame() bool {
	if app.stateful && !app.entered {
		app.entered = true
		app.state = app.initialState
		app.callSystems(app.state, enter)
	}

	app.frame++
	app.callSystems(app.state, execute)

	if app.stateful {
		if app.stateTransitioning {
			app.stateTransitioning = false
			app.executeChangeState(app.nextState)
		}

		if app.state == app.finalState {
			app.callSystems(app.state, exit)
			return false
		}
	}
	return true
}

func (app *App) callSystems(state State, phase statePhase) {
	hook := StateHook{state: state, phase: phase}
	for _, stage := range app.stages {
		systems := app.schedule[stage.Name]
		if phase == execute {
			for _, system := range systems.always {
				app.callSystem(system)
			}
		}
		if app.stateful {
			for _, system := range systems.hooked[hook] {
				app.callSystem(system)
			}
		}
		app.FlushCommands()
	}
}

func (app *App) changeState(newState State) {
	app.nextState = newState
	app.stateTransitioning = true
}

func (app *App) executeChangeState(newState State) {
	app.callSystems(app.state, exit)
	app.state = newState
	app.callSystems(app.state, enter)
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}

		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource returns the resource stored for T, or nil.
func Resource[T any](app *App) *T {
	if r, ok := app.resources[reflect.TypeOf((*T)(nil)).Elem()]; ok {
		return r.(*T)
	}
	return nil
}

var typeOfCommands = reflect.TypeOf(Commands{})

func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())

	for i := 0; i < systemType.NumIn(); i++ {
		argType := systemType.In(i)
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, argIsResource := app.resources[underlyingType]; argIsResource {
			resourceVal := reflect.ValueOf(resource)
			typedResourceVal := reflect.NewAt(underlyingType, resourceVal.UnsafePointer())

			args[i] = typedResourceVal
		} else {
			msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
				runtime.FuncForPC(systemValue.Pointer()).Name(),
				fmt.Sprint(systemType),
				fmt.Sprint(argType),
			)
			panic(msg)
		}
	}
	systemValue.Call(args)
}

// FlushCommands applies buffered entity commands: removals first, then
// additions. Removing an entity twice, or one that never existed, is ignored.
func (app *App) FlushCommands() {
	for _, eid := range app.pendingRemovals {
		if app.ecs.removeEntity(eid) {
			app.Logger().Debugf("removed entity %v", eid)
		}
	}
	app.pendingRemovals = app.pendingRemovals[:0]

	for _, add := range app.pendingAdditions {
		app.ecs.insertEntity(add.eid, add.components...)
	}
	app.pendingAdditions = app.pendingAdditions[:0]
}
