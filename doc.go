// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package earth renders scalar and vector geophysical fields onto an
// interactively rotatable, zoomable globe.
//
// # Overview
//
// For every visible screen pixel the renderer recovers the geographic
// coordinate under the current projection, interpolates a data grid at
// that coordinate, and maps the value through a color scale. The same
// sampling runs on two engines: a GPU compute shader and a CPU fallback.
// The [Pipeline] picks one per setup and fails over silently.
//
// # Quick Start
//
//	g, _ := grid.Decode(file)
//	globe := earth.NewGlobe(projection.Orthographic)
//	view := earth.View{Width: 800, Height: 600}
//	globe.SetOrientation("30,-10", view)
//
//	p := earth.NewPipeline()
//	defer p.Close()
//	if err := p.Setup(globe, view, &earth.Overlay{Grid: g, Scale: earth.TemperatureScale()}); err != nil {
//	    log.Fatal(err)
//	}
//	frame, err := p.Render()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = frame.SavePNG("globe.png")
//
// # GPU Engine
//
// GPU rendering is opt-in via blank import:
//
//	import _ "github.com/gogpu/earth/gpu"
//
// Without it, or when no adapter is available, or when the projection has
// no shader path, the CPU engine renders every frame.
//
// # Architecture
//
//   - projection: projection families, rotation, outline, orthographic fold
//   - grid: lattice model, bilinear interpolation, JSON and raster decoders
//   - solar: sub-solar point and day/night factor
//   - earth (this package): Globe, Mask, ColorScale, engines, Pipeline,
//     Loader and Throttle
//   - gpu, internal/gpu: the wgpu compute engine
//   - cmd/earth: render, serve and view commands
package earth
