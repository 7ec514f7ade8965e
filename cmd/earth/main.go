// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command earth renders geophysical fields on a globe.
//
// Usage:
//
//	earth render --grid temp.json --projection stereographic -o globe.png
//	earth serve --listen :8080 --source http://localhost:8000/data
//	earth view --scale wind
//
// Every flag can also be set in ./earth.yaml or with an EARTH_ variable,
// for example EARTH_PROJECTION=equirectangular.
package main

import (
	"os"

	// Enable GPU rendering when an adapter is available.
	_ "github.com/gogpu/earth/gpu"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
