package cellular

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

const depthFormat = wgpu.TextureFormatDepth24Plus

type WindowState struct {
	windowGlfw   *glfw.Window
	WindowWidth  int
	WindowHeight int
	windowTitle  string
}

type GpuState struct {
	surface       *wgpu.Surface
	adapter       *wgpu.Adapter
	device        *wgpu.Device
	queue         *wgpu.Queue
	surfaceConfig *wgpu.SurfaceConfiguration
	depthTexture  *wgpu.Texture
	depthView     *wgpu.TextureView
}

// createWindowState opens a resizable GLFW window without a client API.
// It must run on the main, OS-locked thread.
func createWindowState(windowWidth int, windowHeight int, windowTitle string) (*WindowState, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("init glfw: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("create window: %w", err)
	}

	return &WindowState{
		windowGlfw:   win,
		WindowWidth:  windowWidth,
		WindowHeight: windowHeight,
		windowTitle:  windowTitle,
	}, nil
}

func (s *WindowState) destroy() {
	if s.windowGlfw != nil {
		s.windowGlfw.Destroy()
		s.windowGlfw = nil
		glfw.Terminate()
	}
}

// releaser collects GPU handles as they are acquired so a failed setup can
// drop them again, newest first.
type releaser []interface{ Release() }

func (r *releaser) add(h interface{ Release() }) {
	*r = append(*r, h)
}

func (r *releaser) release() {
	for i := len(*r) - 1; i >= 0; i-- {
		(*r)[i].Release()
	}
	*r = nil
}

func createGpuState(s *WindowState) (g *GpuState, err error) {
	var acquired releaser
	defer func() {
		if err != nil {
			acquired.release()
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()
	// wraps GLFW window into a wgpu surface.
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(s.windowGlfw))
	acquired.add(surface)
	// finds a suitable GPU (discrete GPU preferred)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	acquired.add(adapter)
	// allocates the device and command queue
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	acquired.add(device)
	queue := device.GetQueue()
	acquired.add(queue)

	width, height := s.windowGlfw.GetFramebufferSize()
	caps := surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		return nil, errors.New("surface has no usable format")
	}
	// defines how the swapchain behaves (size, format, vsync)
	surfaceConfig := wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo, // vsync
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, &surfaceConfig)

	g = &GpuState{
		surface:       surface,
		adapter:       adapter,
		device:        device,
		queue:         queue,
		surfaceConfig: &surfaceConfig,
	}
	if err = g.createDepthTexture(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GpuState) createDepthTexture() error {
	texture, err := g.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              g.surfaceConfig.Width,
			Height:             g.surfaceConfig.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create depth texture: %w", err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return fmt.Errorf("create depth view: %w", err)
	}
	g.depthTexture = texture
	g.depthView = view
	return nil
}

// resize reconfigures the surface and recreates the depth texture. A zero
// size (minimised window) is ignored.
func (g *GpuState) resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if uint32(width) == g.surfaceConfig.Width && uint32(height) == g.surfaceConfig.Height {
		return nil
	}
	g.surfaceConfig.Width = uint32(width)
	g.surfaceConfig.Height = uint32(height)
	g.surface.Configure(g.adapter, g.device, g.surfaceConfig)

	g.releaseDepth()
	return g.createDepthTexture()
}

func (g *GpuState) aspect() float32 {
	if g.surfaceConfig.Height == 0 {
		return 1
	}
	return float32(g.surfaceConfig.Width) / float32(g.surfaceConfig.Height)
}

func (g *GpuState) releaseDepth() {
	if g.depthView != nil {
		g.depthView.Release()
		g.depthView = nil
	}
	if g.depthTexture != nil {
		g.depthTexture.Release()
		g.depthTexture = nil
	}
}

func (g *GpuState) release() {
	g.releaseDepth()
	g.queue.Release()
	g.device.Release()
	g.adapter.Release()
	g.surface.Release()
}

// createRenderPipeline builds a triangle-list pipeline with back-face culling
// and a less-than depth test. Vertex buffer slots follow the order of
// layouts.
func createRenderPipeline(name string, shaderCode string, layouts []wgpu.VertexBufferLayout, gpuState *GpuState) (*wgpu.RenderPipeline, error) {
	shader, err := gpuState.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaderCode},
	})
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", name, err)
	}
	defer shader.Release()

	pipeline, err := gpuState.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: name,
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    layouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    gpuState.surfaceConfig.Format,
					Blend:     nil,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", name, err)
	}
	return pipeline, nil
}

func createVertexIndexBuffers[V any](vertices []V, indices []uint16, device *wgpu.Device) (vertexBuf *wgpu.Buffer, indexBuf *wgpu.Buffer, err error) {
	vertexBuf, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Vertex Buffer",
		Contents: wgpu.ToBytes(vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, nil, err
	}
	indexBuf, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Index Buffer",
		Contents: wgpu.ToBytes(indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		vertexBuf.Release()
		return nil, nil, err
	}
	return vertexBuf, indexBuf, nil
}

func createBuffer(name string, data any, gpuState *GpuState, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	return gpuState.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    name,
		Contents: toBufferBytes(data),
		Usage:    usage,
	})
}

func toBufferBytes(data any) []byte {
	val := reflect.ValueOf(data)
	buf := new(bytes.Buffer)
	readUniformsBytes(val, buf)
	return buf.Bytes()
}

func readUniformsBytes(field reflect.Value, buf *bytes.Buffer) {
	switch field.Kind() {
	case reflect.Pointer:
		readUniformsBytes(field.Elem(), buf)

	case reflect.Slice, reflect.Array:
		for i := 0; i < field.Len(); i++ {
			readUniformsBytes(field.Index(i), buf)
		}

	case reflect.Struct:
		for i := 0; i < field.NumField(); i++ {
			readUniformsBytes(field.Field(i), buf)
		}

	case reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Float32:
		if err := binary.Write(buf, binary.LittleEndian, field.Interface()); err != nil {
			panic(fmt.Errorf("failed to write scalar field: %w", err))
		}

	default:
		panic(fmt.Errorf("unsupported uniform type: %v", field.Type()))
	}
}

func parseFormat(name string) wgpu.VertexFormat {
	switch name {
	case "float2":
		return wgpu.VertexFormatFloat32x2
	case "float3":
		return wgpu.VertexFormatFloat32x3
	case "float4":
		return wgpu.VertexFormatFloat32x4
	default:
		panic("unsupported vertex layout format: " + name)
	}
}

// createVertexBufferLayout derives a buffer layout from the fields of a
// struct tagged `cellular:"layout"`. Untagged fields still advance the offset.
func createVertexBufferLayout(vertexType any, stepMode wgpu.VertexStepMode) wgpu.VertexBufferLayout {
	t := reflect.TypeOf(vertexType)
	if t.Kind() != reflect.Struct {
		panic("Vertex must be a struct")
	}

	var attributes []wgpu.VertexAttribute
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if "layout" == field.Tag.Get("cellular") {
			format := parseFormat(field.Tag.Get("format"))
			location, err := strconv.Atoi(field.Tag.Get("location"))
			if nil != err {
				panic(err)
			}

			attributes = append(attributes, wgpu.VertexAttribute{
				ShaderLocation: uint32(location),
				Offset:         uint64(field.Offset),
				Format:         format,
			})
		}
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(t.Size()),
		StepMode:    stepMode,
		Attributes:  attributes,
	}
}

func createBindGroup(buffer *wgpu.Buffer, group uint32, pipeline *wgpu.RenderPipeline, device *wgpu.Device) (*wgpu.BindGroup, error) {
	bindGroupLayout := pipeline.GetBindGroupLayout(group)
	defer bindGroupLayout.Release()

	return device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  buffer,
			Size:    wgpu.WholeSize,
		}},
	})
}
