package instance

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

const eps = 1e-5

func assertVec3(t *testing.T, expected, actual mgl32.Vec3) {
	t.Helper()
	assert.True(t, expected.ApproxEqualThreshold(actual, eps), "expected %v, got %v", expected, actual)
}

func assertVec4(t *testing.T, expected, actual mgl32.Vec4) {
	t.Helper()
	assert.True(t, expected.ApproxEqualThreshold(actual, eps), "expected %v, got %v", expected, actual)
}

func TestWorldPosition(t *testing.T) {
	tests := []struct {
		name     string
		base     mgl32.Vec3
		scale    float32
		trans    mgl32.Vec3
		expected mgl32.Vec3
	}{
		{"unit scale", mgl32.Vec3{1, 2, 3}, 1, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 2, 3}},
		{"scale then translate", mgl32.Vec3{1, 0, 0}, 4, mgl32.Vec3{0, 5, 0}, mgl32.Vec3{4, 5, 0}},
		{"half scale", mgl32.Vec3{-0.5, 0.5, -0.5}, 0.5, mgl32.Vec3{10, -10, 3}, mgl32.Vec3{9.75, -9.75, 2.75}},
		{"negative scale mirrors", mgl32.Vec3{1, 1, 1}, -2, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{-2, -2, -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := NewInstanceData(tt.trans, tt.scale, mgl32.Vec4{1, 1, 1, 1})
			assertVec3(t, tt.expected, WorldPosition(tt.base, inst))
		})
	}
}

func TestWorldPosition_Random(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := func() float32 { return rng.Float32()*200 - 100 }

	for i := 0; i < 1000; i++ {
		p := mgl32.Vec3{r(), r(), r()}
		tr := mgl32.Vec3{r(), r(), r()}
		s := rng.Float32() * 10
		inst := NewInstanceData(tr, s, mgl32.Vec4{})

		expected := mgl32.Vec3{p[0]*s + tr[0], p[1]*s + tr[1], p[2]*s + tr[2]}
		got := WorldPosition(p, inst)
		for k := 0; k < 3; k++ {
			assert.InDelta(t, expected[k], got[k], 1e-3)
		}
	}
}

func TestWorldPosition_ZeroScaleCollapses(t *testing.T) {
	trans := mgl32.Vec3{3, -4, 5}
	inst := NewInstanceData(trans, 0, mgl32.Vec4{0, 1, 0, 1})

	mesh, _ := Cube(1)
	for _, v := range mesh {
		assertVec3(t, trans, WorldPosition(v.Position, inst))
	}
}

func TestTransformVertex_IdentityMatrices(t *testing.T) {
	u := IdentityUniforms()
	inst := NewInstanceData(mgl32.Vec3{0, 5, 0}, 4, mgl32.Vec4{1, 0, 0, 1})

	out := TransformVertex(u, Vertex{Position: mgl32.Vec3{1, 0, 0}}, inst)

	assertVec4(t, mgl32.Vec4{4, 5, 0, 1}, out.ClipPosition)
	assertVec4(t, mgl32.Vec4{1, 0, 0, 1}, out.Colour)
}

func TestTransformVertex_IdentityEqualsWorld(t *testing.T) {
	u := IdentityUniforms()
	mesh, _ := Cube(2)
	inst := NewInstanceData(mgl32.Vec3{-7, 1.5, 22}, 3, mgl32.Vec4{0.2, 0.4, 0.6, 0.8})

	for _, v := range mesh {
		out := TransformVertex(u, v, inst)
		assertVec4(t, WorldPosition(v.Position, inst).Vec4(1), out.ClipPosition)
	}
}

func TestTransformVertex_AppliesViewProjAfterModel(t *testing.T) {
	u := Uniforms{
		ViewProj: mgl32.Scale3D(2, 2, 2),
		Model:    mgl32.Translate3D(1, 0, 0),
	}
	inst := NewInstanceData(mgl32.Vec3{0, 1, 0}, 1, mgl32.Vec4{})

	out := TransformVertex(u, Vertex{Position: mgl32.Vec3{0, 0, 0}}, inst)

	// model first: (1,1,0), then view_proj: (2,2,0)
	assertVec4(t, mgl32.Vec4{2, 2, 0, 1}, out.ClipPosition)
}

func TestShadeFragment_InteriorColourUnchanged(t *testing.T) {
	u := IdentityUniforms()
	colour := mgl32.Vec4{1, 0, 0, 1}
	inst := NewInstanceData(mgl32.Vec3{0, 0, 0}, 1, colour)

	a := TransformVertex(u, Vertex{Position: mgl32.Vec3{0, 0, 0}}, inst)
	b := TransformVertex(u, Vertex{Position: mgl32.Vec3{1, 0, 0}}, inst)
	c := TransformVertex(u, Vertex{Position: mgl32.Vec3{0, 1, 0}}, inst)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		w0 := rng.Float32()
		w1 := rng.Float32() * (1 - w0)
		bary := mgl32.Vec3{w0, w1, 1 - w0 - w1}

		frag := Interpolate(a, b, c, bary)
		assertVec4(t, colour, ShadeFragment(frag))
	}
}

func TestInterpolate_Vertices(t *testing.T) {
	a := VertexOutput{ClipPosition: mgl32.Vec4{0, 0, 0, 1}, Colour: mgl32.Vec4{1, 0, 0, 1}}
	b := VertexOutput{ClipPosition: mgl32.Vec4{1, 0, 0, 1}, Colour: mgl32.Vec4{0, 1, 0, 1}}
	c := VertexOutput{ClipPosition: mgl32.Vec4{0, 1, 0, 1}, Colour: mgl32.Vec4{0, 0, 1, 1}}

	assertVec4(t, b.Colour, Interpolate(a, b, c, mgl32.Vec3{0, 1, 0}).Colour)

	mid := Interpolate(a, b, c, mgl32.Vec3{0.5, 0.5, 0})
	assertVec4(t, mgl32.Vec4{0.5, 0.5, 0, 1}, mid.Colour)
	assertVec4(t, mgl32.Vec4{0.5, 0, 0, 1}, mid.ClipPosition)
}

func TestTransformBatch(t *testing.T) {
	mesh, _ := Cube(1)
	instances := []InstanceData{
		NewInstanceData(mgl32.Vec3{0, 0, 0}, 1, mgl32.Vec4{1, 0, 0, 1}),
		NewInstanceData(mgl32.Vec3{10, 0, 0}, 0, mgl32.Vec4{0, 0, 1, 1}),
	}

	out := TransformBatch(IdentityUniforms(), mesh, instances, nil)

	assert.Len(t, out, len(mesh)*len(instances))
	for _, o := range out[len(mesh):] {
		assertVec4(t, mgl32.Vec4{10, 0, 0, 1}, o.ClipPosition)
		assertVec4(t, instances[1].Colour, o.Colour)
	}
}

func TestCube(t *testing.T) {
	vertices, indices := Cube(1)

	assert.Len(t, vertices, 24)
	assert.Len(t, indices, 36)

	for _, v := range vertices {
		for k := 0; k < 3; k++ {
			assert.InDelta(t, 0.5, mgl32.Abs(v.Position[k]), eps)
		}
		// every vertex lies on the face its normal points out of
		assert.InDelta(t, 0.5, v.Position.Dot(v.Normal), eps)
	}

	// triangles wind counter-clockwise seen from outside
	for i := 0; i < len(indices); i += 3 {
		a := vertices[indices[i]]
		b := vertices[indices[i+1]]
		c := vertices[indices[i+2]]
		n := b.Position.Sub(a.Position).Cross(c.Position.Sub(a.Position))
		assert.Greater(t, n.Dot(a.Normal), float32(0), "triangle %d", i/3)
	}
}
