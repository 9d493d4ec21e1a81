package cellular

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultOrbitDistance float32 = 150
	DefaultOrbitSpeed    float32 = 0.6 // radians per second
)

// RotatingCameraComponent orbits the camera around Center in the XZ plane.
type RotatingCameraComponent struct {
	Center   mgl32.Vec3
	Distance float32
	Speed    float32
	Rotation float32
}

func (o *RotatingCameraComponent) advance(dt float32) {
	o.Rotation += o.Speed * dt
}

func (o *RotatingCameraComponent) position() mgl32.Vec3 {
	offset := mgl32.Rotate3DY(o.Rotation).Mul3x1(mgl32.Vec3{0, 0, 1}).Mul(o.Distance)
	return o.Center.Add(offset)
}

func rotatingCameraSystem(cmd *Commands, t *Time, rig *CameraRig) {
	if rig.Mode != CameraOrbit {
		return
	}
	dt := t.DeltaSeconds()

	MakeQuery2[CameraComponent, RotatingCameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, orbit *RotatingCameraComponent) bool {
		orbit.advance(dt)
		cam.Position = orbit.position()
		cam.LookAt = orbit.Center
		cam.Up = mgl32.Vec3{0, 1, 0}
		return true
	})
}
