// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/earth"
	"github.com/gogpu/earth/grid"
	"github.com/gogpu/earth/internal/session"
)

// newSession builds a session for cfg in view.
func newSession(ctx context.Context, cfg config, view earth.View) (*session.Session, error) {
	family, err := cfg.family()
	if err != nil {
		return nil, err
	}
	mode, err := cfg.engineMode()
	if err != nil {
		return nil, err
	}
	scale, err := earth.LookupScale(cfg.Scale)
	if err != nil {
		return nil, err
	}
	at, err := cfg.terminator()
	if err != nil {
		return nil, err
	}

	var loader *earth.Loader
	if cfg.Source != "" {
		loader = earth.NewLoader(earth.HTTPFetcher(cfg.Source, nil))
	}
	g, err := initialGrid(ctx, cfg, loader)
	if err != nil {
		return nil, err
	}

	return session.New(session.Config{
		Family:      family,
		Orientation: cfg.Orientation,
		View:        view,
		Overlay: &earth.Overlay{
			Grid:       g,
			Scale:      scale,
			Alpha:      uint8(cfg.Alpha), //nolint:gosec // validated in loadConfig
			Terminator: at,
			NightLevel: cfg.Night,
		},
		Loader:  loader,
		Options: []earth.PipelineOption{earth.WithEngineMode(mode)},
	})
}

// initialGrid reads --grid, loads --key from --source, or falls back to a
// synthetic field.
func initialGrid(ctx context.Context, cfg config, loader *earth.Loader) (*grid.Grid, error) {
	switch {
	case cfg.Grid != "":
		return readGrid(cfg.Grid)
	case loader != nil && cfg.Key != "":
		return loader.Load(ctx, "overlay", cfg.Key)
	default:
		earth.Logger().Info("no grid given, using a synthetic temperature field")
		return syntheticGrid()
	}
}

// readGrid decodes a JSON grid file or a global raster image.
func readGrid(path string) (*grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	var g *grid.Grid
	if strings.EqualFold(filepath.Ext(path), ".json") {
		g, err = grid.Decode(f)
	} else {
		g, err = grid.DecodeImage(f, grid.Header{}, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("earth: %s: %w", path, err)
	}
	return g, nil
}

// syntheticGrid is a 1° global surface temperature in kelvin, warm at the
// equator and cold at the poles.
func syntheticGrid() (*grid.Grid, error) {
	h := grid.Header{
		Lo1: 0, La1: 90, Dx: 1, Dy: 1, Nx: 360, Ny: 181,
		Parameter: "temp", Name: "synthetic temperature", Units: "K",
	}
	return grid.Build(h, func(i int) (float64, bool) {
		lon := float64(i%h.Nx) * math.Pi / 180
		lat := (90 - float64(i/h.Nx)) * math.Pi / 180
		s := math.Sin(lat)
		return 300 - 60*s*s + 6*math.Cos(3*lon)*math.Cos(lat), true
	})
}
