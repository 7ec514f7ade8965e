// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package grid models regular longitude/latitude lattices of geophysical
// samples and interpolates them bilinearly.
//
// Samples are laid out row-major starting at (Lo1, La1), advancing east by
// Dx and south by Dy. When the lattice spans the full circle of longitude
// (floor(Nx*Dx) >= 360) an extra column equal to column 0 is appended so
// interpolation is continuous across the antimeridian.
//
// Missing samples never surface as sentinel numbers: Interpolate and At
// return (Sample, bool) and report false when any contributing cell is
// missing or the point lies outside the lattice.
//
// Grids are immutable once built and safe for concurrent readers.
package grid
