package astro

import (
	"math"
	"time"
)

// j2000 is the J2000.0 epoch as a Julian day.
const j2000 = 2451545.0

// unixEpochJD is the Julian day of 1970-01-01T00:00:00Z.
const unixEpochJD = 2440587.5

// JulianDayUT returns the Julian day of t on the UT scale.
func JulianDayUT(t time.Time) float64 {
	return unixEpochJD + float64(t.UnixNano())/(86400*1e9)
}

// DeltaT returns TT - UT in seconds for t, from the Espenak-Meeus
// polynomials. Outside 1986..2150 it falls back to the long-term parabola.
func DeltaT(t time.Time) float64 {
	u := t.UTC()
	y := float64(u.Year()) + (float64(u.YearDay())-0.5)/365.25

	switch {
	case y >= 1986 && y < 2005:
		x := y - 2000
		return 63.86 + 0.3345*x - 0.060374*x*x + 0.0017275*x*x*x +
			0.000651814*x*x*x*x + 0.00002373599*x*x*x*x*x
	case y >= 2005 && y < 2050:
		x := y - 2000
		return 62.92 + 0.32217*x + 0.005589*x*x
	case y >= 2050 && y < 2150:
		return -20 + 32*math.Pow((y-1820)/100, 2) - 0.5628*(2150-y)
	default:
		c := (y - 1820) / 100
		return -20 + 32*c*c
	}
}

// JulianDayTT returns the Julian ephemeris day (TT scale) for t.
func JulianDayTT(t time.Time) float64 {
	return JulianDayUT(t) + DeltaT(t)/86400
}

// centuriesTT returns Julian centuries of TT since J2000.0.
func centuriesTT(t time.Time) float64 {
	return (JulianDayTT(t) - j2000) / 36525
}

// GreenwichMeanSiderealDeg returns the mean sidereal time at Greenwich in
// degrees [0, 360) (Meeus 12.4).
func GreenwichMeanSiderealDeg(t time.Time) float64 {
	jd := JulianDayUT(t)
	T := (jd - j2000) / 36525
	theta := 280.46061837 + 360.98564736629*(jd-j2000) +
		0.000387933*T*T - T*T*T/38710000
	return normalize360(theta)
}

func deg2rad(d float64) float64 {
	return d * math.Pi / 180
}

func rad2deg(r float64) float64 {
	return r * 180 / math.Pi
}

func sinD(d float64) float64 {
	return math.Sin(deg2rad(d))
}

func cosD(d float64) float64 {
	return math.Cos(deg2rad(d))
}

func normalize360(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	// -1e-14 + 360 rounds to exactly 360.
	if d >= 360 {
		d = 0
	}
	return d
}
