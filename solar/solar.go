// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package solar computes the sub-solar point and the day/night factor used
// to shade the terminator.
//
// The ephemeris is the low-precision solar position of the Astronomical
// Almanac, good to about 0.01° between 1950 and 2050.
package solar

import (
	"math"
	"time"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// j2000 is 2000-01-01 12:00 TT, approximated as UTC.
var j2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// Twilight bounds of the day factor: full night beyond NightZenith, full
// day within DayZenith.
const (
	NightZenith = 100 * s1.Degree
	DayZenith   = 80 * s1.Degree
)

// daysSinceJ2000 returns fractional days since the J2000 epoch.
func daysSinceJ2000(t time.Time) float64 {
	return t.Sub(j2000).Hours() / 24
}

// Position is the apparent equatorial position of the sun.
type Position struct {
	RightAscension s1.Angle
	Declination    s1.Angle
	SiderealTime   s1.Angle // Greenwich mean sidereal time
}

// At returns the sun's position at t.
func At(t time.Time) Position {
	d := daysSinceJ2000(t)

	meanLon := normalize360(280.460 + 0.9856474*d)
	meanAnomaly := normalize360(357.528+0.9856003*d) * math.Pi / 180
	eclipticLon := (meanLon + 1.915*math.Sin(meanAnomaly) + 0.020*math.Sin(2*meanAnomaly)) * math.Pi / 180
	obliquity := (23.439 - 0.0000004*d) * math.Pi / 180

	sinL, cosL := math.Sincos(eclipticLon)
	ra := math.Atan2(math.Cos(obliquity)*sinL, cosL)
	dec := math.Asin(math.Sin(obliquity) * sinL)
	gmst := normalize360(280.46061837 + 360.98564736629*d)

	return Position{
		RightAscension: s1.Angle(ra),
		Declination:    s1.Angle(dec),
		SiderealTime:   s1.Angle(gmst * math.Pi / 180),
	}
}

// SubSolarPoint returns the geographic point directly beneath the sun at t.
// Longitude is normalized to [-180°, 180°).
func SubSolarPoint(t time.Time) s2.LatLng {
	p := At(t)
	lon := normalize360((p.RightAscension-p.SiderealTime).Degrees()+180) - 180
	return s2.LatLng{Lat: p.Declination, Lng: s1.Angle(lon * math.Pi / 180)}
}

// ZenithAngle returns the solar zenith angle at (lat, lon) in degrees for a
// sun above sub, using the spherical law of cosines.
func ZenithAngle(lat, lon float64, sub s2.LatLng) s1.Angle {
	phi := lat * math.Pi / 180
	dLon := lon*math.Pi/180 - sub.Lng.Radians()
	cosZ := math.Sin(phi)*math.Sin(sub.Lat.Radians()) +
		math.Cos(phi)*math.Cos(sub.Lat.Radians())*math.Cos(dLon)
	return s1.Angle(math.Acos(math.Max(-1, math.Min(1, cosZ))))
}

// DayFactor returns smoothstep(NightZenith, DayZenith, zenith): 1 in full
// daylight, 0 at night, with a smooth twilight band in between.
func DayFactor(zenith s1.Angle) float64 {
	t := (zenith - NightZenith).Radians() / (DayZenith - NightZenith).Radians()
	t = math.Max(0, math.Min(1, t))
	return t * t * (3 - 2*t)
}

func normalize360(x float64) float64 {
	x = math.Mod(x, 360)
	if x < 0 {
		x += 360
	}
	return x
}
