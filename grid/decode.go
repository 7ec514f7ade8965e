// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package grid

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
	"unicode"
)

// ErrNoRecords is returned when a document carries no grid data.
var ErrNoRecords = errors.New("grid: no records")

// Decode reads a grid document from r. Two layouts are accepted:
//
//   - a JSON array of records, each {"header": {...}, "data": [...]}, one
//     record for scalar products or two (u then v) for vector products
//   - a JSON object {"metadata": {...}, "grid": {...}, "values": [...]},
//     or with "u_values" and "v_values" for vector products
//
// JSON null samples are missing.
func Decode(r io.Reader) (*Grid, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		return nil, fmt.Errorf("grid: read document: %w", err)
	}
	switch first {
	case '[':
		var recs []record
		if err := json.NewDecoder(br).Decode(&recs); err != nil {
			return nil, fmt.Errorf("grid: decode records: %w", err)
		}
		return fromRecords(recs)
	case '{':
		var doc document
		if err := json.NewDecoder(br).Decode(&doc); err != nil {
			return nil, fmt.Errorf("grid: decode document: %w", err)
		}
		return fromDocument(&doc)
	default:
		return nil, fmt.Errorf("grid: unexpected leading byte %q", first)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		if !unicode.IsSpace(rune(b[0])) {
			return b[0], nil
		}
		if _, err := br.ReadByte(); err != nil {
			return 0, err
		}
	}
}

// record is one product in the array layout.
type record struct {
	Header struct {
		Lo1                 float64 `json:"lo1"`
		La1                 float64 `json:"la1"`
		Dx                  float64 `json:"dx"`
		Dy                  float64 `json:"dy"`
		Nx                  int     `json:"nx"`
		Ny                  int     `json:"ny"`
		RefTime             string  `json:"refTime"`
		ForecastTime        int     `json:"forecastTime"`
		ParameterCategory   int     `json:"parameterCategory"`
		ParameterNumber     int     `json:"parameterNumber"`
		ParameterNumberName string  `json:"parameterNumberName"`
		ParameterUnit       string  `json:"parameterUnit"`
		Surface1TypeName    string  `json:"surface1TypeName"`
		Surface1Value       float64 `json:"surface1Value"`
	} `json:"header"`
	Data []*float64 `json:"data"`
}

func (rec *record) header() (Header, error) {
	rh := rec.Header
	h := Header{
		Lo1: rh.Lo1, La1: rh.La1, Dx: rh.Dx, Dy: rh.Dy, Nx: rh.Nx, Ny: rh.Ny,
		ForecastTime: rh.ForecastTime,
		Name:         rh.ParameterNumberName,
		Units:        rh.ParameterUnit,
	}
	if rh.Surface1TypeName != "" {
		h.Level = fmt.Sprintf("%s %g", rh.Surface1TypeName, rh.Surface1Value)
	}
	if rh.RefTime != "" {
		t, err := time.Parse(time.RFC3339, rh.RefTime)
		if err != nil {
			return Header{}, fmt.Errorf("grid: refTime %q: %w", rh.RefTime, err)
		}
		h.RefTime = t
	}
	return h, nil
}

func fromRecords(recs []record) (*Grid, error) {
	if len(recs) == 0 {
		return nil, ErrNoRecords
	}
	h, err := recs[0].header()
	if err != nil {
		return nil, err
	}
	if len(recs) == 1 {
		return Build(h, nullable(recs[0].Data))
	}
	u, v := recs[0], recs[1]
	// Per GRIB2 table 4.2 the u component is parameter 2 and v is 3.
	if u.Header.ParameterNumber == 3 && v.Header.ParameterNumber == 2 {
		u, v = v, u
	}
	return BuildVector(h, nullable(u.Data), nullable(v.Data))
}

func nullable(data []*float64) Accessor {
	return func(i int) (float64, bool) {
		if i < 0 || i >= len(data) || data[i] == nil {
			return 0, false
		}
		x := *data[i]
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	}
}

// document is the object layout produced by the GRIB conversion service.
type document struct {
	Metadata struct {
		Parameter    string      `json:"parameter"`
		UParameter   string      `json:"u_parameter"`
		Name         string      `json:"name"`
		Units        string      `json:"units"`
		Level        json.Number `json:"level"`
		TypeOfLevel  string      `json:"typeOfLevel"`
		DataDate     json.Number `json:"dataDate"`
		DataTime     json.Number `json:"dataTime"`
		ForecastTime int         `json:"forecastTime"`
	} `json:"metadata"`
	Grid struct {
		Nx       int     `json:"nx"`
		Ny       int     `json:"ny"`
		LatFirst float64 `json:"lat_first"`
		LonFirst float64 `json:"lon_first"`
		LatLast  float64 `json:"lat_last"`
		LonLast  float64 `json:"lon_last"`
		Dx       float64 `json:"dx"`
		Dy       float64 `json:"dy"`
	} `json:"grid"`
	Values  []*float64 `json:"values"`
	UValues []*float64 `json:"u_values"`
	VValues []*float64 `json:"v_values"`
}

func fromDocument(doc *document) (*Grid, error) {
	dg := doc.Grid
	h := Header{
		Lo1: dg.LonFirst, La1: dg.LatFirst,
		Dx: math.Abs(dg.Dx), Dy: math.Abs(dg.Dy),
		Nx: dg.Nx, Ny: dg.Ny,
		ForecastTime: doc.Metadata.ForecastTime,
		Parameter:    doc.Metadata.Parameter,
		Name:         doc.Metadata.Name,
		Units:        doc.Metadata.Units,
	}
	if h.Parameter == "" {
		h.Parameter = doc.Metadata.UParameter
	}
	if doc.Metadata.Level != "" {
		h.Level = string(doc.Metadata.Level)
		if doc.Metadata.TypeOfLevel != "" {
			h.Level = doc.Metadata.TypeOfLevel + " " + h.Level
		}
	}
	if t, ok := gribTime(doc.Metadata.DataDate, doc.Metadata.DataTime); ok {
		h.RefTime = t
	}

	// South-first lattices are flipped so row 0 is always the northernmost.
	southFirst := dg.LatLast > dg.LatFirst
	if southFirst {
		h.La1 = dg.LatLast
	}
	at := func(data []*float64) Accessor {
		a := nullable(data)
		if !southFirst {
			return a
		}
		return func(i int) (float64, bool) {
			j, col := i/h.Nx, i%h.Nx
			return a((h.Ny-1-j)*h.Nx + col)
		}
	}

	switch {
	case doc.UValues != nil && doc.VValues != nil:
		return BuildVector(h, at(doc.UValues), at(doc.VValues))
	case doc.Values != nil:
		return Build(h, at(doc.Values))
	default:
		return nil, ErrNoRecords
	}
}

// gribTime combines GRIB dataDate (YYYYMMDD) and dataTime (HHMM).
func gribTime(date, clock json.Number) (time.Time, bool) {
	d, err := strconv.Atoi(string(date))
	if err != nil || d <= 0 {
		return time.Time{}, false
	}
	c, _ := strconv.Atoi(string(clock))
	return time.Date(d/10000, time.Month(d/100%100), d%100, c/100, c%100, 0, 0, time.UTC), true
}
