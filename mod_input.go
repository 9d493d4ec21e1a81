package cellular

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	KeyA int = iota
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
	Key0
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeySpace
	KeyEnter
	KeyEscape
	KeyTab
	KeyShift
	KeyControl
	MouseButtonLeft
	MouseButtonRight
	MouseButtonMiddle
)

// InputModule provides the Input resource. When a window is present the
// resource is refreshed from GLFW at the start of every frame; without one it
// stays as callers set it.
type InputModule struct{}

type Input struct {
	Pressed [256]bool

	JustPressed  [256]bool
	JustReleased [256]bool

	MouseX, MouseY           float64
	MouseDeltaX, MouseDeltaY float64
	MouseCaptured            bool

	WindowWidth, WindowHeight int
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&Input{})
	if Resource[WindowState](app) == nil {
		app.UseSystem(
			System(clearInputSystem).
				InStage(PostRender).
				RunAlways(),
		)
		return
	}
	app.UseSystem(
		System(inputSystem).
			InStage(PreUpdate).
			RunAlways(),
	)
}

// SetKey records the state of a key or mouse button for this frame.
func (input *Input) SetKey(key int, down bool) {
	input.JustPressed[key] = down && !input.Pressed[key]
	input.JustReleased[key] = !down && input.Pressed[key]
	input.Pressed[key] = down
}

// clearInputSystem ends the frame for windowless apps, so a key set with
// SetKey is only just-pressed for one frame.
func clearInputSystem(input *Input) {
	input.JustPressed = [256]bool{}
	input.JustReleased = [256]bool{}
	input.MouseDeltaX, input.MouseDeltaY = 0, 0
}

func inputSystem(s *WindowState, input *Input) {
	glfw.PollEvents()

	for key, glfwKey := range keyToGlfw {
		input.SetKey(key, s.windowGlfw.GetKey(glfwKey) == glfw.Press)
	}
	for btn, glfwBtn := range mouseToGlfw {
		input.SetKey(btn, s.windowGlfw.GetMouseButton(glfwBtn) == glfw.Press)
	}

	mx, my := s.windowGlfw.GetCursorPos()
	if input.MouseCaptured {
		input.MouseDeltaX = mx - input.MouseX
		input.MouseDeltaY = my - input.MouseY
	} else {
		input.MouseDeltaX = 0
		input.MouseDeltaY = 0
	}
	input.MouseX = mx
	input.MouseY = my

	input.WindowWidth, input.WindowHeight = s.windowGlfw.GetSize()

	if input.MouseCaptured {
		s.windowGlfw.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	} else {
		s.windowGlfw.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
}

var mouseToGlfw = map[int]glfw.MouseButton{
	MouseButtonLeft:   glfw.MouseButtonLeft,
	MouseButtonRight:  glfw.MouseButtonRight,
	MouseButtonMiddle: glfw.MouseButtonMiddle,
}

var keyToGlfw = map[int]glfw.Key{
	KeyA:       glfw.KeyA,
	KeyB:       glfw.KeyB,
	KeyC:       glfw.KeyC,
	KeyD:       glfw.KeyD,
	KeyE:       glfw.KeyE,
	KeyF:       glfw.KeyF,
	KeyG:       glfw.KeyG,
	KeyH:       glfw.KeyH,
	KeyI:       glfw.KeyI,
	KeyJ:       glfw.KeyJ,
	KeyK:       glfw.KeyK,
	KeyL:       glfw.KeyL,
	KeyM:       glfw.KeyM,
	KeyN:       glfw.KeyN,
	KeyO:       glfw.KeyO,
	KeyP:       glfw.KeyP,
	KeyQ:       glfw.KeyQ,
	KeyR:       glfw.KeyR,
	KeyS:       glfw.KeyS,
	KeyT:       glfw.KeyT,
	KeyU:       glfw.KeyU,
	KeyV:       glfw.KeyV,
	KeyW:       glfw.KeyW,
	KeyX:       glfw.KeyX,
	KeyY:       glfw.KeyY,
	KeyZ:       glfw.KeyZ,
	Key0:       glfw.Key0,
	Key1:       glfw.Key1,
	Key2:       glfw.Key2,
	Key3:       glfw.Key3,
	Key4:       glfw.Key4,
	Key5:       glfw.Key5,
	Key6:       glfw.Key6,
	Key7:       glfw.Key7,
	Key8:       glfw.Key8,
	Key9:       glfw.Key9,
	KeySpace:   glfw.KeySpace,
	KeyEnter:   glfw.KeyEnter,
	KeyEscape:  glfw.KeyEscape,
	KeyTab:     glfw.KeyTab,
	KeyShift:   glfw.KeyLeftShift,
	KeyControl: glfw.KeyLeftControl,
}
