// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/earth"
	"github.com/gogpu/earth/projection"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

const (
	paletteBytes = 4 * earth.PaletteSize
	fenceTimeout = 5 * time.Second
)

// FieldEngine renders overlays with one compute dispatch per frame. It
// implements earth.GPUEngine.
type FieldEngine struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	// item serves states built by the latest Setup, prev those of the one
	// before until the pipeline has swapped its state.
	item  *renderItem
	prev  *renderItem
	frame *earth.Frame

	gpuReady       bool
	externalDevice bool // true when using a shared device (don't destroy on Close)
}

// renderItem is the GPU state built by Setup and reused every frame until
// the next Setup replaces it.
type renderItem struct {
	params    overlayParams
	field     hal.Buffer
	fieldSize uint64
	palette   hal.Buffer
	uniform   hal.Buffer

	// Per-view buffers, rebuilt when the view size changes.
	view      earth.View
	pixels    hal.Buffer
	staging   hal.Buffer
	pixelSize uint64
	bindGroup hal.BindGroup
	readback  []byte
}

var (
	_ earth.GPUEngine           = (*FieldEngine)(nil)
	_ earth.DeviceProviderAware = (*FieldEngine)(nil)
)

// engineName identifies the engine in logs and pipeline status.
const engineName = "wgpu"

// Name returns "wgpu".
func (e *FieldEngine) Name() string { return engineName }

// Supports reports whether the shader has a path for family.
func (e *FieldEngine) Supports(family projection.Family) bool {
	return family.GPUSupported()
}

// SetLogger sets the logger for the GPU engine. Called by earth.SetLogger
// to propagate logging configuration.
func (e *FieldEngine) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Init acquires a Vulkan device. It returns an error when no adapter can
// be opened; the engine is then not registered.
func (e *FieldEngine) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gpuReady {
		return nil
	}
	return e.initGPU()
}

// Close releases all GPU resources. The engine can be initialized again.
func (e *FieldEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dropItems()
	e.frame = nil
	e.destroyPipelines()
	if !e.externalDevice {
		if e.device != nil {
			e.device.Destroy()
		}
		if e.instance != nil {
			e.instance.Destroy()
		}
	}
	e.device = nil
	e.instance = nil
	e.queue = nil
	e.gpuReady = false
	e.externalDevice = false
}

// SetDeviceProvider switches the engine to a shared GPU device from an
// external provider (e.g., gogpu). The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
// The current render item is dropped; call Setup again.
func (e *FieldEngine) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.dropItems()
	e.destroyPipelines()
	if !e.externalDevice && e.device != nil {
		e.device.Destroy()
	}
	if e.instance != nil {
		e.instance.Destroy()
		e.instance = nil
	}

	e.device = device
	e.queue = queue
	e.externalDevice = true

	if err := e.createPipelines(); err != nil {
		e.gpuReady = false
		return fmt.Errorf("gpu: create pipelines with shared device: %w", err)
	}
	e.gpuReady = true
	slogger().Info("gpu: switched to shared GPU device")
	return nil
}

// Setup uploads ov for rendering with family. The previous render item
// stays valid until the Setup after this one, so frames of the state
// being replaced still render.
func (e *FieldEngine) Setup(family projection.Family, ov *earth.Overlay) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("gpu: setup panic: %v", r)
		}
	}()
	if !e.Supports(family) {
		return fmt.Errorf("gpu: %s: %w", family, earth.ErrUnsupportedProjection)
	}
	if err := ov.Validate(); err != nil {
		return err
	}
	if !fitsTexels(ov.Grid) {
		return fmt.Errorf("gpu: grid values exceed the texel domain: %w", earth.ErrFallbackToCPU)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.gpuReady {
		return earth.ErrFallbackToCPU
	}
	item, err := e.newItem(family, ov)
	if err != nil {
		e.destroyItem(item)
		return fmt.Errorf("gpu: setup: %w", err)
	}
	e.destroyItem(e.prev)
	e.prev = e.item
	e.item = item
	slogger().Debug("gpu: render item ready",
		"family", family.String(), "field_bytes", item.fieldSize)
	return nil
}

// Render draws one frame for globe. Pixels outside mask are left
// transparent.
func (e *FieldEngine) Render(globe *earth.Globe, mask *earth.Mask, view earth.View) (*earth.Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.gpuReady {
		return nil, earth.ErrFallbackToCPU
	}
	item := e.itemFor(globe.Family())
	if item == nil {
		return nil, fmt.Errorf("gpu: no render item for %s: %w", globe.Family(), earth.ErrNotSetup)
	}
	if e.frame == nil || e.frame.View() != view {
		e.frame = earth.NewFrame(view.Width, view.Height)
	} else {
		e.frame.Clear()
	}
	if mask != nil && !mask.Matches(view) {
		mask = nil
	}

	b := globe.Bounds(view)
	if b.Empty() {
		return e.frame, nil
	}
	if err := e.ensureView(item, view); err != nil {
		return nil, err
	}
	params := item.params.frameParams(globe.Projection(), view, b)
	e.queue.WriteBuffer(item.uniform, 0, params.bytes())

	size := uint64(4 * b.Width * b.Height) //nolint:gosec // bounds are clamped to the view
	readback, err := e.dispatch(item, uint32(b.Width), uint32(b.Height), size) //nolint:gosec // bounds are clamped to the view
	if err != nil {
		return nil, err
	}
	copyBounds(e.frame, readback, b, mask)
	slogger().Debug("gpu: frame",
		"x", b.X, "y", b.Y, "w", b.Width, "h", b.Height, "readback_bytes", size)
	return e.frame, nil
}

// copyBounds writes the readback words of bounds b into f, skipping pixels
// the mask hides.
func copyBounds(f *earth.Frame, readback []byte, b earth.Bounds, mask *earth.Mask) {
	for j := 0; j < b.Height; j++ {
		y := b.Y + j
		row := readback[4*j*b.Width:]
		for i := 0; i < b.Width; i++ {
			x := b.X + i
			if mask != nil && !mask.IsVisible(x, y) {
				continue
			}
			w := binary.LittleEndian.Uint32(row[4*i:])
			if w == 0 {
				continue
			}
			f.SetPremul(x, y, unpackRGBA(w))
		}
	}
}

func (e *FieldEngine) dispatch(item *renderItem, w, h uint32, size uint64) ([]byte, error) {
	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "field_encoder"})
	if err != nil {
		return nil, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("field"); err != nil {
		return nil, fmt.Errorf("gpu: begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "field_pass"})
	pass.SetPipeline(e.pipeline)
	pass.SetBindGroup(0, item.bindGroup, nil)
	pass.Dispatch((w+7)/8, (h+7)/8, 1)
	pass.End()

	encoder.CopyBufferToBuffer(item.pixels, item.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer e.device.FreeCommandBuffer(cmdBuf)

	fence, err := e.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("gpu: create fence: %w", err)
	}
	defer e.device.DestroyFence(fence)
	if err := e.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("gpu: submit: %w", err)
	}
	fenceOK, err := e.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return nil, fmt.Errorf("gpu: wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := item.readback[:size]
	if err := e.queue.ReadBuffer(item.staging, 0, readback); err != nil {
		return nil, fmt.Errorf("gpu: readback: %w", err)
	}
	return readback, nil
}

// newItem uploads the field, palette and uniform buffers for ov. On error
// the partially built item is returned for cleanup.
func (e *FieldEngine) newItem(family projection.Family, ov *earth.Overlay) (*renderItem, error) {
	item := &renderItem{params: newOverlayParams(family, ov)}

	data := encodeField(ov.Grid)
	item.fieldSize = uint64(len(data))
	var err error
	item.field, err = e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "field_texels", Size: item.fieldSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return item, fmt.Errorf("create field buffer: %w", err)
	}
	e.queue.WriteBuffer(item.field, 0, data)

	item.palette, err = e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "field_palette", Size: paletteBytes,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return item, fmt.Errorf("create palette buffer: %w", err)
	}
	e.queue.WriteBuffer(item.palette, 0, encodePalette(ov.Scale))

	item.uniform, err = e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "field_params", Size: paramsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return item, fmt.Errorf("create uniform buffer: %w", err)
	}
	return item, nil
}

// ensureView sizes the pixel buffers and bind group for view.
func (e *FieldEngine) ensureView(item *renderItem, view earth.View) error {
	if item.bindGroup != nil && item.view == view {
		return nil
	}
	e.destroyViewBuffers(item)
	item.view = view
	item.pixelSize = uint64(4 * view.Width * view.Height) //nolint:gosec // view dimensions are positive

	var err error
	item.pixels, err = e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "field_pixels", Size: item.pixelSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("gpu: create pixel buffer: %w", err)
	}
	item.staging, err = e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "field_staging", Size: item.pixelSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	item.bindGroup, err = e.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "field_bind", Layout: e.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: item.uniform.NativeHandle(), Offset: 0, Size: paramsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: item.field.NativeHandle(), Offset: 0, Size: item.fieldSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: item.palette.NativeHandle(), Offset: 0, Size: paletteBytes}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: item.pixels.NativeHandle(), Offset: 0, Size: item.pixelSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group: %w", err)
	}
	item.readback = make([]byte, item.pixelSize)
	slogger().Debug("gpu: view buffers", "width", view.Width, "height", view.Height, "bytes", item.pixelSize)
	return nil
}

func (e *FieldEngine) destroyViewBuffers(item *renderItem) {
	if item.bindGroup != nil {
		e.device.DestroyBindGroup(item.bindGroup)
		item.bindGroup = nil
	}
	if item.staging != nil {
		e.device.DestroyBuffer(item.staging)
		item.staging = nil
	}
	if item.pixels != nil {
		e.device.DestroyBuffer(item.pixels)
		item.pixels = nil
	}
	item.view = earth.View{}
	item.readback = nil
}

// itemFor returns the newest render item set up for family.
func (e *FieldEngine) itemFor(family projection.Family) *renderItem {
	for _, item := range []*renderItem{e.item, e.prev} {
		if item != nil && item.params.family == family {
			return item
		}
	}
	return nil
}

func (e *FieldEngine) dropItems() {
	e.destroyItem(e.item)
	e.destroyItem(e.prev)
	e.item, e.prev = nil, nil
}

func (e *FieldEngine) destroyItem(item *renderItem) {
	if item == nil || e.device == nil {
		return
	}
	e.destroyViewBuffers(item)
	for _, b := range []hal.Buffer{item.uniform, item.palette, item.field} {
		if b != nil {
			e.device.DestroyBuffer(b)
		}
	}
}

func (e *FieldEngine) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("gpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("gpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return fmt.Errorf("gpu: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("gpu: open device: %w", err)
	}
	e.instance = instance
	e.device = openDev.Device
	e.queue = openDev.Queue
	if err := e.createPipelines(); err != nil {
		e.device.Destroy()
		e.instance.Destroy()
		e.device, e.queue, e.instance = nil, nil, nil
		return fmt.Errorf("gpu: create pipelines: %w", err)
	}
	e.gpuReady = true
	slogger().Info("gpu: field engine initialized", "adapter", selected.Info.Name)
	return nil
}

func (e *FieldEngine) createPipelines() error {
	spirv, err := compileField()
	if err != nil {
		return err
	}
	shader, err := e.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "field",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("create field shader module: %w", err)
	}
	e.shader = shader

	bindLayout, err := e.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "field_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create field bind group layout: %w", err)
	}
	e.bindLayout = bindLayout

	pipeLayout, err := e.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "field_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{e.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create field pipeline layout: %w", err)
	}
	e.pipeLayout = pipeLayout

	pipeline, err := e.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "field_pipeline", Layout: e.pipeLayout,
		Compute: hal.ComputeState{Module: e.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create field compute pipeline: %w", err)
	}
	e.pipeline = pipeline
	return nil
}

func (e *FieldEngine) destroyPipelines() {
	if e.device == nil {
		return
	}
	if e.pipeline != nil {
		e.device.DestroyComputePipeline(e.pipeline)
		e.pipeline = nil
	}
	if e.pipeLayout != nil {
		e.device.DestroyPipelineLayout(e.pipeLayout)
		e.pipeLayout = nil
	}
	if e.bindLayout != nil {
		e.device.DestroyBindGroupLayout(e.bindLayout)
		e.bindLayout = nil
	}
	if e.shader != nil {
		e.device.DestroyShaderModule(e.shader)
		e.shader = nil
	}
}
