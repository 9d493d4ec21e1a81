package cellular

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

// PlatformWindowModule shares an already opened window as a resource. Closing
// the window or pressing Escape moves the app to StateQuit, and the window
// is destroyed once every other quit handler has run.
type PlatformWindowModule struct {
	Window *WindowState
}

func (m PlatformWindowModule) Install(app *App, cmd *Commands) {
	if Resource[WindowState](app) != nil {
		// single window per app
		return
	}

	cmd.AddResources(m.Window)
	app.UseSystem(
		System(windowEventsSystem).
			InStage(PreUpdate).
			InState(OnExecute(StateRunning)),
	)
	app.UseSystem(
		System(destroyWindowSystem).
			InStage(Finale).
			InState(OnEnter(StateQuit)),
	)
}

func windowEventsSystem(cmd *Commands, s *WindowState) {
	if s.windowGlfw.ShouldClose() || s.windowGlfw.GetKey(glfw.KeyEscape) == glfw.Press {
		cmd.Logger().Infof("window closed")
		cmd.ChangeState(StateQuit)
		return
	}
	s.WindowWidth, s.WindowHeight = s.windowGlfw.GetFramebufferSize()
}

func destroyWindowSystem(s *WindowState) {
	s.destroy()
}
