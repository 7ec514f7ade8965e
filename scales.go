// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

import (
	"fmt"
	"sort"
	"strings"
)

// TemperatureScale returns the air temperature scale in kelvin.
func TemperatureScale() *ColorScale {
	return mustScale("temp",
		ColorStop{193, [3]uint8{37, 4, 42}},
		ColorStop{206, [3]uint8{41, 10, 130}},
		ColorStop{219, [3]uint8{81, 40, 40}},
		ColorStop{233.15, [3]uint8{192, 37, 149}},  // -40 C/F
		ColorStop{255.372, [3]uint8{70, 215, 215}}, // 0 F
		ColorStop{273.15, [3]uint8{21, 84, 187}},   // 0 C
		ColorStop{275.15, [3]uint8{24, 132, 14}},   // just above 0 C
		ColorStop{291, [3]uint8{247, 251, 59}},
		ColorStop{298, [3]uint8{235, 167, 21}},
		ColorStop{311, [3]uint8{230, 71, 39}},
		ColorStop{328, [3]uint8{88, 27, 67}},
	)
}

// WindScale returns the wind speed scale in m/s.
func WindScale() *ColorScale {
	return mustScale("wind",
		ColorStop{0, [3]uint8{37, 74, 255}},
		ColorStop{1, [3]uint8{0, 100, 254}},
		ColorStop{3, [3]uint8{0, 200, 254}},
		ColorStop{5, [3]uint8{37, 193, 146}},
		ColorStop{7, [3]uint8{0, 230, 0}},
		ColorStop{9, [3]uint8{0, 250, 0}},
		ColorStop{11, [3]uint8{254, 225, 0}},
		ColorStop{13, [3]uint8{254, 174, 0}},
		ColorStop{15, [3]uint8{220, 74, 29}},
		ColorStop{17, [3]uint8{180, 0, 50}},
		ColorStop{19, [3]uint8{254, 0, 150}},
		ColorStop{21, [3]uint8{151, 50, 222}},
		ColorStop{24, [3]uint8{86, 54, 222}},
		ColorStop{27, [3]uint8{42, 132, 222}},
		ColorStop{29, [3]uint8{64, 199, 222}},
		ColorStop{100, [3]uint8{255, 255, 255}},
	)
}

// CurrentsScale returns the ocean surface current scale in m/s.
func CurrentsScale() *ColorScale {
	return mustScale("currents",
		ColorStop{0, [3]uint8{10, 25, 68}},
		ColorStop{0.15, [3]uint8{10, 25, 250}},
		ColorStop{0.4, [3]uint8{24, 255, 93}},
		ColorStop{0.65, [3]uint8{255, 233, 102}},
		ColorStop{1.0, [3]uint8{255, 233, 15}},
		ColorStop{1.5, [3]uint8{255, 15, 15}},
	)
}

// HumidityScale returns the relative humidity scale in percent.
func HumidityScale() *ColorScale {
	return mustScale("rh",
		ColorStop{0, [3]uint8{230, 165, 30}},
		ColorStop{25, [3]uint8{120, 100, 95}},
		ColorStop{60, [3]uint8{40, 44, 92}},
		ColorStop{75, [3]uint8{21, 13, 193}},
		ColorStop{90, [3]uint8{75, 63, 235}},
		ColorStop{100, [3]uint8{25, 255, 255}},
	)
}

var builtinScales = map[string]func() *ColorScale{
	"temp":     TemperatureScale,
	"wind":     WindScale,
	"currents": CurrentsScale,
	"rh":       HumidityScale,
}

// ScaleNames returns the names of the built-in scales, sorted.
func ScaleNames() []string {
	names := make([]string, 0, len(builtinScales))
	for name := range builtinScales {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupScale returns the built-in scale with the given name.
func LookupScale(name string) (*ColorScale, error) {
	fn, ok := builtinScales[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("earth: unknown color scale %q (want one of %s)",
			name, strings.Join(ScaleNames(), ", "))
	}
	return fn(), nil
}
