package cellular

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

type CameraComponent struct {
	Position mgl32.Vec3
	LookAt   mgl32.Vec3
	Up       mgl32.Vec3
	Fov      float32 // vertical, degrees
	Near     float32
	Far      float32
}

// glToWebGPUDepth maps clip z from the GL range [-w, w] to [0, w].
var glToWebGPUDepth = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

func (c *CameraComponent) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.LookAt, c.Up)
}

func (c *CameraComponent) Projection(aspect float32) mgl32.Mat4 {
	return glToWebGPUDepth.Mul4(mgl32.Perspective(mgl32.DegToRad(c.Fov), aspect, c.Near, c.Far))
}

// ViewProjection is the matrix bound as view_proj in the cell shader.
func (c *CameraComponent) ViewProjection(aspect float32) mgl32.Mat4 {
	return c.Projection(aspect).Mul4(c.View())
}

// TransformComponent places a renderable entity in the world. A zero Scale
// is treated as 1 and a zero Rotation as identity.
type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func (t *TransformComponent) Matrix() mgl32.Mat4 {
	scale := t.Scale
	if scale == (mgl32.Vec3{}) {
		scale = mgl32.Vec3{1, 1, 1}
	}
	rotation := mgl32.Ident4()
	if t.Rotation != (mgl32.Quat{}) {
		rotation = t.Rotation.Normalize().Mat4()
	}
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(rotation).
		Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
}

type CameraMode int

const (
	CameraOrbit CameraMode = iota
	CameraFlying
)

func (m CameraMode) String() string {
	switch m {
	case CameraOrbit:
		return "orbit"
	case CameraFlying:
		return "flying"
	default:
		return fmt.Sprintf("CameraMode(%d)", int(m))
	}
}

func ParseCameraMode(s string) (CameraMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "orbit", "rotating":
		return CameraOrbit, nil
	case "flying", "fly":
		return CameraFlying, nil
	}
	return CameraOrbit, fmt.Errorf("unknown camera mode %q", s)
}

// CameraRig selects which controller drives the camera.
type CameraRig struct {
	Mode CameraMode
}

// CameraModule spawns the camera entity with both controllers attached.
// Pressing C switches between them.
type CameraModule struct {
	Mode     CameraMode
	Distance float32
	Speed    float32
	Fov      float32
}

func (m CameraModule) Install(app *App, cmd *Commands) {
	orbit := RotatingCameraComponent{Distance: m.Distance, Speed: m.Speed}
	if orbit.Distance == 0 {
		orbit.Distance = DefaultOrbitDistance
	}
	if orbit.Speed == 0 {
		orbit.Speed = DefaultOrbitSpeed
	}
	fov := m.Fov
	if fov == 0 {
		fov = 45
	}

	cmd.AddResources(&CameraRig{Mode: m.Mode})
	cmd.AddEntity(
		&CameraComponent{
			Position: mgl32.Vec3{0, 0, orbit.Distance},
			Up:       mgl32.Vec3{0, 1, 0},
			Fov:      fov,
			Near:     0.1,
			Far:      1000,
		},
		&orbit,
		NewFlyingCamera(),
	)

	app.UseSystem(
		System(cameraModeSystem).
			InStage(Update).
			RunAlways(),
	)
	app.UseSystem(
		System(rotatingCameraSystem).
			InStage(Update).
			RunAlways(),
	)
	app.UseSystem(
		System(flyingCameraSystem).
			InStage(Update).
			RunAlways(),
	)
}

func cameraModeSystem(cmd *Commands, input *Input, rig *CameraRig) {
	if !input.JustPressed[KeyC] {
		return
	}

	if rig.Mode == CameraOrbit {
		rig.Mode = CameraFlying
		MakeQuery2[CameraComponent, FlyingCameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, fly *FlyingCameraComponent) bool {
			fly.Yaw, fly.Pitch = yawPitchFromDirection(cam.LookAt.Sub(cam.Position))
			fly.Velocity = mgl32.Vec3{}
			return true
		})
	} else {
		rig.Mode = CameraOrbit
		input.MouseCaptured = false
	}
	cmd.Logger().Debugf("camera mode %v", rig.Mode)
}

// forwardFromYawPitch returns the unit view direction. Yaw 0 looks down -Z
// and positive yaw turns towards +X. Angles are in degrees.
func forwardFromYawPitch(yaw, pitch float32) mgl32.Vec3 {
	yawRad := float64(mgl32.DegToRad(yaw))
	pitchRad := float64(mgl32.DegToRad(pitch))
	return mgl32.Vec3{
		float32(math.Sin(yawRad) * math.Cos(pitchRad)),
		float32(math.Sin(pitchRad)),
		float32(-math.Cos(yawRad) * math.Cos(pitchRad)),
	}.Normalize()
}

func yawPitchFromDirection(dir mgl32.Vec3) (yaw, pitch float32) {
	if dir.Len() == 0 {
		return 0, 0
	}
	dir = dir.Normalize()
	yaw = mgl32.RadToDeg(float32(math.Atan2(float64(dir.X()), float64(-dir.Z()))))
	pitch = mgl32.RadToDeg(float32(math.Asin(float64(mgl32.Clamp(dir.Y(), -1, 1)))))
	return yaw, pitch
}
