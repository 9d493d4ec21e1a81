// Package instance is the CPU twin of the cell shader: the per-instance
// transform and colour pass applied to every vertex of an instanced cube.
package instance

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Vertex is one base mesh vertex. Field order and sizes match the mesh
// vertex buffer, slot 0.
type Vertex struct {
	Position mgl32.Vec3 `cellular:"layout" format:"float3" location:"0"`
	Normal   mgl32.Vec3 `cellular:"layout" format:"float3" location:"1"`
	UV       mgl32.Vec2 `cellular:"layout" format:"float2" location:"2"`
}

// InstanceData is one cube instance. PositionScale holds the translation in
// xyz and a uniform scale factor in w.
type InstanceData struct {
	PositionScale mgl32.Vec4 `cellular:"layout" format:"float4" location:"3"`
	Colour        mgl32.Vec4 `cellular:"layout" format:"float4" location:"4"`
}

func NewInstanceData(translation mgl32.Vec3, scale float32, colour mgl32.Vec4) InstanceData {
	return InstanceData{
		PositionScale: translation.Vec4(scale),
		Colour:        colour,
	}
}

func (d InstanceData) Translation() mgl32.Vec3 { return d.PositionScale.Vec3() }
func (d InstanceData) Scale() float32          { return d.PositionScale.W() }

// Uniforms are the per-draw values shared by all invocations.
type Uniforms struct {
	ViewProj mgl32.Mat4
	Model    mgl32.Mat4
}

func IdentityUniforms() Uniforms {
	return Uniforms{
		ViewProj: mgl32.Ident4(),
		Model:    mgl32.Ident4(),
	}
}

// VertexOutput is what the vertex stage hands to the rasterizer.
type VertexOutput struct {
	ClipPosition mgl32.Vec4
	Colour       mgl32.Vec4
}

// WorldPosition scales the base position by the instance scale and moves it
// by the instance translation. Any scale is accepted; zero collapses the
// instance onto its translation and a negative scale mirrors it.
func WorldPosition(base mgl32.Vec3, inst InstanceData) mgl32.Vec3 {
	return base.Mul(inst.Scale()).Add(inst.Translation())
}

// TransformVertex mirrors vs_main in cell.wgsl.
func TransformVertex(u Uniforms, v Vertex, inst InstanceData) VertexOutput {
	world := WorldPosition(v.Position, inst)
	return VertexOutput{
		ClipPosition: u.ViewProj.Mul4(u.Model).Mul4x1(world.Vec4(1)),
		Colour:       inst.Colour,
	}
}

// ShadeFragment mirrors fs_main in cell.wgsl: no lighting, no texturing.
func ShadeFragment(in VertexOutput) mgl32.Vec4 {
	return in.Colour
}

// Interpolate blends three vertex outputs with barycentric weights, the way
// the rasterizer does before invoking the fragment stage.
func Interpolate(a, b, c VertexOutput, bary mgl32.Vec3) VertexOutput {
	return VertexOutput{
		ClipPosition: a.ClipPosition.Mul(bary[0]).Add(b.ClipPosition.Mul(bary[1])).Add(c.ClipPosition.Mul(bary[2])),
		Colour:       a.Colour.Mul(bary[0]).Add(b.Colour.Mul(bary[1])).Add(c.Colour.Mul(bary[2])),
	}
}

// TransformBatch runs the vertex stage for a whole instanced draw,
// instance-major, appending len(mesh)*len(instances) outputs to out.
func TransformBatch(u Uniforms, mesh []Vertex, instances []InstanceData, out []VertexOutput) []VertexOutput {
	for _, inst := range instances {
		for _, v := range mesh {
			out = append(out, TransformVertex(u, v, inst))
		}
	}
	return out
}
