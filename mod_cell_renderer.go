package cellular

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/cellular/automata/instance"
	"github.com/gekko3d/cellular/automata/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	minInstanceCapacity = 1024
	instanceStride      = int(unsafe.Sizeof(instance.InstanceData{}))

	viewBindGroupIndex   = 0
	meshBindGroupIndex   = 1
	meshVertexBufferSlot = 0
	instanceBufferSlot   = 1
)

var DefaultClearColour = mgl32.Vec4{0.41, 0.42, 0.43, 1}

type viewUniforms struct {
	ViewProj mgl32.Mat4
}

type modelUniforms struct {
	Model mgl32.Mat4
}

type cellRenderState struct {
	gpu *GpuState

	pipeline   *wgpu.RenderPipeline
	vertexBuf  *wgpu.Buffer
	indexBuf   *wgpu.Buffer
	indexCount uint32

	instanceBuf      *wgpu.Buffer
	instanceCapacity int
	instanceCount    int
	version          uint64

	viewBuf    *wgpu.Buffer
	modelBuf   *wgpu.Buffer
	viewGroup  *wgpu.BindGroup
	modelGroup *wgpu.BindGroup

	clear wgpu.Color
}

// CellRendererModule draws every CellInstancesComponent as instanced cubes
// seen through the first CameraComponent.
type CellRendererModule struct {
	state *cellRenderState
}

// NewCellRendererModule creates the cube mesh, uniform buffers and pipeline
// on an initialised GPU.
func NewCellRendererModule(gpu *GpuState, clearColour mgl32.Vec4) (*CellRendererModule, error) {
	rs := &cellRenderState{
		gpu: gpu,
		clear: wgpu.Color{
			R: float64(clearColour.X()),
			G: float64(clearColour.Y()),
			B: float64(clearColour.Z()),
			A: float64(clearColour.W()),
		},
	}

	pipeline, err := createRenderPipeline("Cell Pipeline", shaders.CellWGSL, []wgpu.VertexBufferLayout{
		meshVertexBufferSlot: createVertexBufferLayout(instance.Vertex{}, wgpu.VertexStepModeVertex),
		instanceBufferSlot:   createVertexBufferLayout(instance.InstanceData{}, wgpu.VertexStepModeInstance),
	}, gpu)
	if err != nil {
		return nil, err
	}
	rs.pipeline = pipeline

	vertices, indices := instance.Cube(1)
	rs.vertexBuf, rs.indexBuf, err = createVertexIndexBuffers(vertices, indices, gpu.device)
	if err != nil {
		return nil, fmt.Errorf("cube buffers: %w", err)
	}
	rs.indexCount = uint32(len(indices))

	uniforms := instance.IdentityUniforms()
	if rs.viewBuf, err = createBuffer("View Uniforms", viewUniforms{ViewProj: uniforms.ViewProj}, gpu,
		wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst); err != nil {
		return nil, fmt.Errorf("view uniforms: %w", err)
	}
	if rs.modelBuf, err = createBuffer("Model Uniforms", modelUniforms{Model: uniforms.Model}, gpu,
		wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst); err != nil {
		return nil, fmt.Errorf("model uniforms: %w", err)
	}
	if rs.viewGroup, err = createBindGroup(rs.viewBuf, viewBindGroupIndex, pipeline, gpu.device); err != nil {
		return nil, fmt.Errorf("view bind group: %w", err)
	}
	if rs.modelGroup, err = createBindGroup(rs.modelBuf, meshBindGroupIndex, pipeline, gpu.device); err != nil {
		return nil, fmt.Errorf("model bind group: %w", err)
	}

	return &CellRendererModule{state: rs}, nil
}

func (m CellRendererModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(m.state)
	app.UseSystem(
		System(cellUploadSystem).
			InStage(PreRender).
			InState(OnExecute(StateRunning)),
	)
	app.UseSystem(
		System(cellRenderSystem).
			InStage(Render).
			InState(OnExecute(StateRunning)),
	)
	app.UseSystem(
		System(releaseCellRendererSystem).
			InStage(Render).
			InState(OnEnter(StateQuit)),
	)
}

// growCapacity returns the instance buffer capacity needed for count
// instances. Capacity doubles so uploads of a growing simulation rarely
// reallocate.
func growCapacity(capacity, count int) int {
	if count <= capacity {
		return capacity
	}
	if capacity < minInstanceCapacity {
		capacity = minInstanceCapacity
	}
	for capacity < count {
		capacity *= 2
	}
	return capacity
}

func (rs *cellRenderState) uploadInstances(instances []instance.InstanceData) error {
	rs.instanceCount = len(instances)
	if len(instances) == 0 {
		return nil
	}

	if capacity := growCapacity(rs.instanceCapacity, len(instances)); capacity != rs.instanceCapacity || rs.instanceBuf == nil {
		if rs.instanceBuf != nil {
			rs.instanceBuf.Release()
		}
		buf, err := rs.gpu.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Cell Instances",
			Size:  uint64(capacity * instanceStride),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			rs.instanceBuf = nil
			rs.instanceCapacity = 0
			rs.instanceCount = 0
			return err
		}
		rs.instanceBuf = buf
		rs.instanceCapacity = capacity
	}
	return rs.gpu.queue.WriteBuffer(rs.instanceBuf, 0, wgpu.ToBytes(instances))
}

func cellUploadSystem(cmd *Commands, rs *cellRenderState, window *WindowState) {
	log := cmd.Logger()
	if err := rs.gpu.resize(window.WindowWidth, window.WindowHeight); err != nil {
		log.Errorf("resize: %v", err)
	}

	aspect := rs.gpu.aspect()
	MakeQuery1[CameraComponent](cmd).Map(func(eid EntityId, cam *CameraComponent) bool {
		view := viewUniforms{ViewProj: cam.ViewProjection(aspect)}
		if err := rs.gpu.queue.WriteBuffer(rs.viewBuf, 0, toBufferBytes(view)); err != nil {
			log.Warnf("view uniforms: %v", err)
		}
		return false
	})

	MakeQuery2[CellInstancesComponent, TransformComponent](cmd).Map(func(eid EntityId, cells *CellInstancesComponent, transform *TransformComponent) bool {
		model := modelUniforms{Model: transform.Matrix()}
		if err := rs.gpu.queue.WriteBuffer(rs.modelBuf, 0, toBufferBytes(model)); err != nil {
			log.Warnf("model uniforms: %v", err)
		}
		if cells.Version != rs.version {
			rs.version = cells.Version
			if err := rs.uploadInstances(cells.Instances); err != nil {
				log.Errorf("upload %d instances: %v", len(cells.Instances), err)
			}
		}
		return false
	})
}

func cellRenderSystem(cmd *Commands, rs *cellRenderState) {
	log := cmd.Logger()
	gpu := rs.gpu
	if gpu.depthView == nil {
		return
	}

	nextTexture, err := gpu.surface.GetCurrentTexture()
	if err != nil {
		log.Warnf("surface texture: %v", err)
		return
	}
	view, err := nextTexture.CreateView(nil)
	if err != nil {
		log.Warnf("surface view: %v", err)
		return
	}
	defer view.Release()

	encoder, err := gpu.device.CreateCommandEncoder(nil)
	if err != nil {
		log.Warnf("command encoder: %v", err)
		return
	}
	defer encoder.Release()

	renderPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: rs.clear,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            gpu.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1,
		},
	})
	defer renderPass.Release()

	if rs.instanceCount > 0 && rs.instanceBuf != nil {
		renderPass.SetPipeline(rs.pipeline)
		renderPass.SetBindGroup(viewBindGroupIndex, rs.viewGroup, nil)
		renderPass.SetBindGroup(meshBindGroupIndex, rs.modelGroup, nil)
		renderPass.SetVertexBuffer(meshVertexBufferSlot, rs.vertexBuf, 0, wgpu.WholeSize)
		renderPass.SetVertexBuffer(instanceBufferSlot, rs.instanceBuf, 0, uint64(rs.instanceCount*instanceStride))
		renderPass.SetIndexBuffer(rs.indexBuf, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
		renderPass.DrawIndexed(rs.indexCount, uint32(rs.instanceCount), 0, 0, 0)
	}

	if err := renderPass.End(); err != nil {
		log.Warnf("render pass: %v", err)
		return
	}

	cmdBuffer, err := encoder.Finish(nil)
	if err != nil {
		log.Warnf("finish encoder: %v", err)
		return
	}
	defer cmdBuffer.Release()

	gpu.queue.Submit(cmdBuffer)
	gpu.surface.Present()
}

func releaseCellRendererSystem(rs *cellRenderState) {
	for _, g := range []*wgpu.BindGroup{rs.viewGroup, rs.modelGroup} {
		if g != nil {
			g.Release()
		}
	}
	for _, b := range []*wgpu.Buffer{rs.instanceBuf, rs.viewBuf, rs.modelBuf, rs.vertexBuf, rs.indexBuf} {
		if b != nil {
			b.Release()
		}
	}
	if rs.pipeline != nil {
		rs.pipeline.Release()
	}
	rs.gpu.release()
	*rs = cellRenderState{}
}
