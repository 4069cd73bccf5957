package astro

import (
	"math"
	"sync"
	"time"
)

// Position is an apparent geocentric position of date.
type Position struct {
	Longitude  float64 // ecliptic longitude, degrees [0, 360)
	Latitude   float64 // ecliptic latitude, degrees
	RA         float64 // right ascension, degrees [0, 360)
	Dec        float64 // declination, degrees
	DistanceKm float64
}

// Ephemeris supplies body positions and the sidereal time needed to turn
// them into local altitudes.
type Ephemeris interface {
	Sun(t time.Time) Position
	Moon(t time.Time) Position
	// SiderealDeg is the apparent sidereal time at Greenwich, degrees.
	SiderealDeg(t time.Time) float64
}

var (
	ephOnce sync.Once
	eph     Ephemeris
)

// LoadEphemeris returns the process-wide ephemeris. It is built on first
// use and is read-only afterwards, so it can be shared freely.
func LoadEphemeris() Ephemeris {
	ephOnce.Do(func() {
		eph = analytic{}
	})
	return eph
}

// analytic evaluates truncated Meeus series. Accuracy is roughly 0.01 deg
// for the Sun and 0.003 deg in lunar longitude over 1900..2100.
type analytic struct{}

// nutation holds the nutation in longitude and obliquity plus the true
// obliquity of the ecliptic, all in degrees.
type nutation struct {
	dPsi, dEps, eps float64
}

func nutationAt(T float64) nutation {
	omega := 125.04452 - 1934.136261*T
	lSun := 280.4665 + 36000.7698*T
	lMoon := 218.3165 + 481267.8813*T

	dPsi := (-17.20*sinD(omega) - 1.32*sinD(2*lSun) - 0.23*sinD(2*lMoon) + 0.21*sinD(2*omega)) / 3600
	dEps := (9.20*cosD(omega) + 0.57*cosD(2*lSun) + 0.10*cosD(2*lMoon) - 0.09*cosD(2*omega)) / 3600
	eps0 := 23.439291111 - 0.013004167*T - 1.64e-7*T*T + 5.04e-7*T*T*T

	return nutation{dPsi: dPsi, dEps: dEps, eps: eps0 + dEps}
}

// eclipticToEquatorial converts ecliptic lon/lat to RA/Dec, all degrees.
func eclipticToEquatorial(lon, lat, eps float64) (ra, dec float64) {
	sinLon, cosLon := math.Sincos(deg2rad(lon))
	sinLat, cosLat := math.Sincos(deg2rad(lat))
	sinEps, cosEps := math.Sincos(deg2rad(eps))

	ra = rad2deg(math.Atan2(sinLon*cosEps-(sinLat/cosLat)*sinEps, cosLon))
	dec = rad2deg(math.Asin(sinLat*cosEps + cosLat*sinEps*sinLon))
	return normalize360(ra), dec
}

const auKm = 149597870.7

// Sun implements Ephemeris (Meeus ch. 25, low accuracy).
func (analytic) Sun(t time.Time) Position {
	T := centuriesTT(t)
	n := nutationAt(T)

	L0 := 280.46646 + 36000.76983*T + 0.0003032*T*T
	M := 357.52911 + 35999.05029*T - 0.0001537*T*T
	e := 0.016708634 - 0.000042037*T - 0.0000001267*T*T

	C := (1.914602-0.004817*T-0.000014*T*T)*sinD(M) +
		(0.019993-0.000101*T)*sinD(2*M) +
		0.000289*sinD(3*M)

	trueLon := L0 + C
	nu := M + C
	R := 1.000001018 * (1 - e*e) / (1 + e*cosD(nu))

	// aberration: -20.4898" / R
	lon := normalize360(trueLon + n.dPsi - 20.4898/3600/R)
	ra, dec := eclipticToEquatorial(lon, 0, n.eps)

	return Position{
		Longitude:  lon,
		RA:         ra,
		Dec:        dec,
		DistanceKm: R * auKm,
	}
}

// lunarTerm is one row of the periodic series for lunar longitude/distance
// (Meeus table 47.A) or latitude (table 47.B). Coefficients are in 1e-6
// degrees and 1e-3 km.
type lunarTerm struct {
	d, m, mp, f float64
	coef, dist  float64
}

var lunarLonDist = [...]lunarTerm{
	{0, 0, 1, 0, 6288774, -20905355},
	{2, 0, -1, 0, 1274027, -3699111},
	{2, 0, 0, 0, 658314, -2955968},
	{0, 0, 2, 0, 213618, -569925},
	{0, 1, 0, 0, -185116, 48888},
	{0, 0, 0, 2, -114332, -3149},
	{2, 0, -2, 0, 58793, 246158},
	{2, -1, -1, 0, 57066, -152138},
	{2, 0, 1, 0, 53322, -170733},
	{2, -1, 0, 0, 45758, -204586},
	{0, 1, -1, 0, -40923, -129620},
	{1, 0, 0, 0, -34720, 108743},
	{0, 1, 1, 0, -30383, 104755},
	{2, 0, 0, -2, 15327, 10321},
	{0, 0, 1, 2, -12528, 0},
	{0, 0, 1, -2, 10980, 79661},
	{4, 0, -1, 0, 10675, -34782},
	{0, 0, 3, 0, 10034, -23210},
	{4, 0, -2, 0, 8548, -21636},
	{2, 1, -1, 0, -7888, 24208},
	{2, 1, 0, 0, -6766, 30824},
	{1, 0, -1, 0, -5163, -8379},
	{1, 1, 0, 0, 4987, -16675},
	{2, -1, 1, 0, 4036, -12831},
	{2, 0, 2, 0, 3994, -10445},
	{4, 0, 0, 0, 3861, -11650},
	{2, 0, -3, 0, 3665, 14403},
	{0, 1, -2, 0, -2689, -7003},
	{2, 0, -1, 2, -2602, 0},
	{2, -1, -2, 0, 2390, 10056},
	{1, 0, 1, 0, -2348, 6322},
	{2, -2, 0, 0, 2236, -9884},
	{0, 1, 2, 0, -2120, 5751},
	{0, 2, 0, 0, -2069, 0},
	{2, -2, -1, 0, 2048, -4950},
	{2, 0, 1, -2, -1773, 4130},
	{2, 0, 0, 2, -1595, 0},
	{4, -1, -1, 0, 1215, -3958},
	{0, 0, 2, 2, -1110, 0},
	{3, 0, -1, 0, -892, 3258},
	{2, 1, 1, 0, -810, 2616},
	{4, -1, -2, 0, 759, -1897},
	{0, 2, -1, 0, -713, -2117},
	{2, 2, -1, 0, -700, 2354},
	{2, 1, -2, 0, 691, 0},
	{2, -1, 0, -2, 596, 0},
	{4, 0, 1, 0, 549, -1423},
	{0, 0, 4, 0, 537, -1117},
	{4, -1, 0, 0, 520, -1571},
	{1, 0, -2, 0, -487, -1739},
	{2, 1, 0, -2, -399, 0},
	{0, 0, 2, -2, -381, -4421},
	{1, 1, 1, 0, 351, 0},
	{3, 0, -2, 0, -340, 0},
	{4, 0, -3, 0, 330, 0},
	{2, -1, 2, 0, 327, 0},
	{0, 2, 1, 0, -323, 1165},
	{1, 1, -1, 0, 299, 0},
	{2, 0, 3, 0, 294, 0},
	{2, 0, -1, -2, 0, 8752},
}

var lunarLat = [...]lunarTerm{
	{0, 0, 0, 1, 5128122, 0},
	{0, 0, 1, 1, 280602, 0},
	{0, 0, 1, -1, 277693, 0},
	{2, 0, 0, -1, 173237, 0},
	{2, 0, -1, 1, 55413, 0},
	{2, 0, -1, -1, 46271, 0},
	{2, 0, 0, 1, 32573, 0},
	{0, 0, 2, 1, 17198, 0},
	{2, 0, 1, -1, 9266, 0},
	{0, 0, 2, -1, 8822, 0},
	{2, -1, 0, -1, 8216, 0},
	{2, 0, -2, -1, 4324, 0},
	{2, 0, 1, 1, 4200, 0},
	{2, 1, 0, -1, -3359, 0},
	{2, -1, -1, 1, 2463, 0},
	{2, -1, 0, 1, 2211, 0},
	{2, -1, -1, -1, 2065, 0},
	{0, 1, -1, -1, -1870, 0},
	{4, 0, -1, -1, 1828, 0},
	{0, 1, 0, 1, -1794, 0},
	{0, 0, 0, 3, -1749, 0},
	{0, 1, -1, 1, -1565, 0},
	{1, 0, 0, 1, -1491, 0},
	{0, 1, 1, 1, -1475, 0},
	{0, 1, 1, -1, -1410, 0},
	{0, 1, 0, -1, -1344, 0},
	{1, 0, 0, -1, -1335, 0},
	{0, 0, 3, 1, 1107, 0},
	{4, 0, 0, -1, 1021, 0},
	{4, 0, -1, 1, 833, 0},
}

// Moon implements Ephemeris (Meeus ch. 47, truncated).
func (analytic) Moon(t time.Time) Position {
	T := centuriesTT(t)
	n := nutationAt(T)

	Lp := normalize360(218.3164477 + 481267.88123421*T - 0.0015786*T*T + T*T*T/538841 - T*T*T*T/65194000)
	D := normalize360(297.8501921 + 445267.1114034*T - 0.0018819*T*T + T*T*T/545868 - T*T*T*T/113065000)
	M := normalize360(357.5291092 + 35999.0502909*T - 0.0001536*T*T + T*T*T/24490000)
	Mp := normalize360(134.9633964 + 477198.8675055*T + 0.0087414*T*T + T*T*T/69699 - T*T*T*T/14712000)
	F := normalize360(93.2720950 + 483202.0175233*T - 0.0036539*T*T - T*T*T/3526000 + T*T*T*T/863310000)

	A1 := 119.75 + 131.849*T
	A2 := 53.09 + 479264.290*T
	A3 := 313.45 + 481266.484*T
	E := 1 - 0.002516*T - 0.0000074*T*T

	eccentricity := func(m float64) float64 {
		switch math.Abs(m) {
		case 1:
			return E
		case 2:
			return E * E
		default:
			return 1
		}
	}

	var sumL, sumR, sumB float64
	for _, term := range lunarLonDist {
		arg := term.d*D + term.m*M + term.mp*Mp + term.f*F
		k := eccentricity(term.m)
		sumL += term.coef * k * sinD(arg)
		sumR += term.dist * k * cosD(arg)
	}
	for _, term := range lunarLat {
		arg := term.d*D + term.m*M + term.mp*Mp + term.f*F
		sumB += term.coef * eccentricity(term.m) * sinD(arg)
	}

	sumL += 3958*sinD(A1) + 1962*sinD(Lp-F) + 318*sinD(A2)
	sumB += -2235*sinD(Lp) + 382*sinD(A3) + 175*sinD(A1-F) +
		175*sinD(A1+F) + 127*sinD(Lp-Mp) - 115*sinD(Lp+Mp)

	lon := normalize360(Lp + sumL/1e6 + n.dPsi)
	lat := sumB / 1e6
	ra, dec := eclipticToEquatorial(lon, lat, n.eps)

	return Position{
		Longitude:  lon,
		Latitude:   lat,
		RA:         ra,
		Dec:        dec,
		DistanceKm: 385000.56 + sumR/1000,
	}
}

// SiderealDeg implements Ephemeris: mean sidereal time plus the equation
// of the equinoxes.
func (analytic) SiderealDeg(t time.Time) float64 {
	n := nutationAt(centuriesTT(t))
	return normalize360(GreenwichMeanSiderealDeg(t) + n.dPsi*cosD(n.eps))
}
