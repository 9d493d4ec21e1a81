package cellular

import (
	"github.com/go-gl/mathgl/mgl32"
)

// FlyingCameraComponent is a free camera with inertia. Keys accelerate it,
// friction slows it down, and its speed never exceeds MaxSpeed.
// Yaw and Pitch are in degrees.
type FlyingCameraComponent struct {
	Acceleration float32
	MaxSpeed     float32
	Friction     float32
	Sensitivity  float32
	Velocity     mgl32.Vec3
	Yaw          float32
	Pitch        float32
}

func NewFlyingCamera() *FlyingCameraComponent {
	return &FlyingCameraComponent{
		Acceleration: 90,
		MaxSpeed:     30,
		Friction:     60,
		Sensitivity:  3,
	}
}

// look turns the camera by a mouse delta in pixels. Pitch stays within
// ±89 degrees.
func (fly *FlyingCameraComponent) look(dx, dy, dt float32) {
	fly.Yaw += dx * fly.Sensitivity * dt
	fly.Pitch = mgl32.Clamp(fly.Pitch-dy*fly.Sensitivity*dt, -89, 89)
}

// accelerate integrates one frame. strafe, walk and rise are axis inputs in
// [-1, 1].
func (fly *FlyingCameraComponent) accelerate(strafe, walk, rise, dt float32) {
	forward := forwardFromYawPitch(fly.Yaw, fly.Pitch)
	right := forward.Cross(mgl32.Vec3{0, 1, 0}).Normalize()

	accel := right.Mul(strafe).Add(forward.Mul(walk)).Add(mgl32.Vec3{0, rise, 0})
	if accel.Len() != 0 {
		accel = accel.Normalize().Mul(fly.Acceleration)
	}

	var friction mgl32.Vec3
	if fly.Velocity.Len() != 0 {
		friction = fly.Velocity.Normalize().Mul(-fly.Friction)
	}

	fly.Velocity = fly.Velocity.Add(accel.Mul(dt))
	if fly.Velocity.Len() > fly.MaxSpeed {
		fly.Velocity = fly.Velocity.Normalize().Mul(fly.MaxSpeed)
	}

	// friction never reverses the motion
	slowed := fly.Velocity.Add(friction.Mul(dt))
	if slowed.Dot(fly.Velocity) <= 0 {
		fly.Velocity = mgl32.Vec3{}
	} else {
		fly.Velocity = slowed
	}
}

func axis(input *Input, positive, negative int) float32 {
	var v float32
	if input.Pressed[positive] {
		v++
	}
	if input.Pressed[negative] {
		v--
	}
	return v
}

func flyingCameraSystem(cmd *Commands, input *Input, t *Time, rig *CameraRig) {
	if rig.Mode != CameraFlying {
		return
	}
	if input.JustPressed[KeyTab] {
		input.MouseCaptured = !input.MouseCaptured
	}
	dt := t.DeltaSeconds()
	if dt <= 0 {
		return
	}

	MakeQuery2[CameraComponent, FlyingCameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, fly *FlyingCameraComponent) bool {
		if input.MouseCaptured {
			fly.look(float32(input.MouseDeltaX), float32(input.MouseDeltaY), dt)
		}
		fly.accelerate(
			axis(input, KeyD, KeyA),
			axis(input, KeyW, KeyS),
			axis(input, KeySpace, KeyShift),
			dt,
		)

		cam.Position = cam.Position.Add(fly.Velocity.Mul(dt))
		cam.LookAt = cam.Position.Add(forwardFromYawPitch(fly.Yaw, fly.Pitch))
		cam.Up = mgl32.Vec3{0, 1, 0}
		return true
	})
}
