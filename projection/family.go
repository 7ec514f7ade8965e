// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package projection

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFamily is returned by ParseFamily for unrecognized names.
var ErrUnknownFamily = errors.New("projection: unknown family")

// Family enumerates the supported projection families.
type Family uint8

const (
	// Orthographic views the sphere from infinite distance. Default family.
	Orthographic Family = iota

	// Stereographic is the conformal azimuthal projection.
	Stereographic

	// AzimuthalEquidistant preserves distance from the projection center.
	AzimuthalEquidistant

	// Equirectangular maps longitude and latitude linearly (plate carrée).
	Equirectangular

	// ConicEquidistant is the equidistant conic with standard parallels 0° and 60°.
	ConicEquidistant

	// WinkelTripel is the Winkel tripel compromise projection.
	WinkelTripel

	familyCount
)

var familyNames = [familyCount]string{
	Orthographic:         "orthographic",
	Stereographic:        "stereographic",
	AzimuthalEquidistant: "azimuthal_equidistant",
	Equirectangular:      "equirectangular",
	ConicEquidistant:     "conic_equidistant",
	WinkelTripel:         "winkel3",
}

// String returns the snake_case family name.
func (f Family) String() string {
	if f < familyCount {
		return familyNames[f]
	}
	return fmt.Sprintf("Family(%d)", uint8(f))
}

// Valid reports whether f is one of the enumerated families.
func (f Family) Valid() bool { return f < familyCount }

// GPUSupported reports whether the GPU engine has a shader path for f.
func (f Family) GPUSupported() bool {
	switch f {
	case Orthographic, Stereographic, AzimuthalEquidistant, Equirectangular:
		return true
	default:
		return false
	}
}

// Azimuthal reports whether f projects onto a disk around its center.
func (f Family) Azimuthal() bool {
	switch f {
	case Orthographic, Stereographic, AzimuthalEquidistant:
		return true
	default:
		return false
	}
}

// Families returns all families in declaration order.
func Families() []Family {
	out := make([]Family, 0, familyCount)
	for f := Family(0); f < familyCount; f++ {
		out = append(out, f)
	}
	return out
}

// ParseFamily parses a family name. Matching ignores case and accepts
// hyphens or spaces in place of underscores.
func ParseFamily(s string) (Family, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	switch key {
	case "winkel_tripel", "winkel":
		return WinkelTripel, nil
	case "azimuthal", "azimuthalequidistant", "azimuthal_equal_distance":
		return AzimuthalEquidistant, nil
	case "conic", "conicequidistant":
		return ConicEquidistant, nil
	}
	for f, name := range familyNames {
		if name == key {
			return Family(f), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFamily, s)
}
