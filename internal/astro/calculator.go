// Package astro computes rise/set, golden/blue hour and moon phase events
// for a location and calendar date.
//
// Every calculator works the same way: build the local day's scan window,
// express the question as a piecewise-constant function of time ("is the
// Sun above -0.833 deg?", "which quarter of the lunation are we in?"), and
// let FindDiscrete locate the instants where that function changes. A day
// without a matching change is a normal outcome (polar day and night, days
// between lunar phases) and is reported as a nil event with a nil error.
package astro

import (
	"fmt"
	"math"
	"time"

	appLog "suncal/internal/log"
	"suncal/internal/timeutil"
)

const (
	// SunHorizonDeg is the altitude of the Sun's centre at apparent
	// sunrise/sunset: 34' of refraction plus a 16' semi-diameter.
	SunHorizonDeg = -0.8333

	earthRadiusKm = 6378.14
)

// Calculator evaluates events against an Ephemeris. The zero value is not
// usable; construct with NewCalculator.
type Calculator struct {
	Ephemeris Ephemeris
	Finder    FinderOptions
}

// NewCalculator returns a Calculator on the shared ephemeris with default
// finder settings.
func NewCalculator() *Calculator {
	return &Calculator{Ephemeris: LoadEphemeris()}
}

func (c *Calculator) position(body Body, t time.Time) (Position, error) {
	switch body {
	case Sun:
		return c.Ephemeris.Sun(t), nil
	case Moon:
		return c.Ephemeris.Moon(t), nil
	default:
		return Position{}, fmt.Errorf("unknown body %v", body)
	}
}

// altitudeOf returns the geocentric altitude (degrees) of a body at pos
// seen from lat/lon at t.
func (c *Calculator) altitudeOf(pos Position, lat, lon float64, t time.Time) float64 {
	h := c.Ephemeris.SiderealDeg(t) + lon - pos.RA
	sinAlt := sinD(lat)*sinD(pos.Dec) + cosD(lat)*cosD(pos.Dec)*cosD(h)
	return rad2deg(math.Asin(math.Max(-1, math.Min(1, sinAlt))))
}

// Altitude returns the geocentric altitude of body's centre in degrees.
func (c *Calculator) Altitude(body Body, lat, lon float64, t time.Time) (float64, error) {
	pos, err := c.position(body, t)
	if err != nil {
		return 0, err
	}
	return c.altitudeOf(pos, lat, lon, t), nil
}

// horizonDeg is the centre altitude at which body is considered to rise or
// set. For the Moon it depends on the distance through the parallax.
func horizonDeg(body Body, pos Position) float64 {
	if body == Moon {
		parallax := rad2deg(math.Asin(earthRadiusKm / pos.DistanceKm))
		return 0.7275*parallax - 0.5667
	}
	return SunHorizonDeg
}

// Elongation returns the Moon's ecliptic longitude minus the Sun's, in
// degrees [0, 360): 0 new, 90 first quarter, 180 full, 270 last quarter.
func (c *Calculator) Elongation(t time.Time) float64 {
	return normalize360(c.Ephemeris.Moon(t).Longitude - c.Ephemeris.Sun(t).Longitude)
}

// CalculateRiseSet finds the first rise (rise=true) or set of body during
// local day d at loc. It returns nil when the body does not cross the
// horizon in that direction that day.
func (c *Calculator) CalculateRiseSet(d timeutil.Date, loc Location, rise bool, body Body) (*RiseSetEvent, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if body != Sun && body != Moon {
		return nil, fmt.Errorf("unknown body %v", body)
	}
	start, end, err := timeutil.TimeRangeOfDate(d, loc.Timezone)
	if err != nil {
		return nil, err
	}

	above := func(t time.Time) int {
		pos, _ := c.position(body, t)
		if c.altitudeOf(pos, loc.Latitude, loc.Longitude, t) > horizonDeg(body, pos) {
			return 1
		}
		return 0
	}

	want := 0
	if rise {
		want = 1
	}
	for _, tr := range FindDiscrete(start, end, above, c.Finder) {
		if tr.Value != want {
			continue
		}
		return &RiseSetEvent{
			Location: loc,
			Time:     tr.Time.In(start.Location()),
			Body:     body,
			Rise:     rise,
		}, nil
	}

	appLog.Debug("no horizon crossing in window",
		"body", body, "rise", rise, "date", d, "lat", loc.Latitude, "lon", loc.Longitude)
	return nil, nil
}

// sunAbove returns a StepFunc that is 1 while the Sun's centre is above
// thresholdDeg.
func (c *Calculator) sunAbove(loc Location, thresholdDeg float64) StepFunc {
	return func(t time.Time) int {
		if c.altitudeOf(c.Ephemeris.Sun(t), loc.Latitude, loc.Longitude, t) > thresholdDeg {
			return 1
		}
		return 0
	}
}

// firstCrossing returns the first transition to want, if any.
func firstCrossing(trs []Transition, want int) (time.Time, bool) {
	for _, tr := range trs {
		if tr.Value == want {
			return tr.Time, true
		}
	}
	return time.Time{}, false
}

// CalculateMagicHour finds the morning (rising) or evening (setting)
// transit of the Sun through color's altitude band during local day d.
// Both band edges must be crossed inside the day, otherwise nil.
func (c *Calculator) CalculateMagicHour(d timeutil.Date, loc Location, color Color, morning bool) (*MagicHourEvent, error) {
	low, high, ok := color.Band()
	if !ok {
		return nil, fmt.Errorf("%w: unknown color %q", ErrInvalidMagicHour, color)
	}
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	start, end, err := timeutil.TimeRangeOfDate(d, loc.Timezone)
	if err != nil {
		return nil, err
	}

	want := 0
	if morning {
		want = 1
	}
	lowAt, okLow := firstCrossing(FindDiscrete(start, end, c.sunAbove(loc, low), c.Finder), want)
	highAt, okHigh := firstCrossing(FindDiscrete(start, end, c.sunAbove(loc, high), c.Finder), want)
	if !okLow || !okHigh {
		appLog.Debug("magic hour band not fully crossed",
			"color", color, "morning", morning, "date", d, "low", okLow, "high", okHigh)
		return nil, nil
	}

	// Rising: low edge first. Setting: high edge first.
	from, to := lowAt, highAt
	if !morning {
		from, to = highAt, lowAt
	}
	if !from.Before(to) {
		appLog.Debug("magic hour band crossed out of order",
			"color", color, "morning", morning, "date", d)
		return nil, nil
	}

	tz := start.Location()
	ev, err := NewMagicHourEvent(color, from.In(tz), to.In(tz), morning)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// CalculateMoonPhase returns the quarter phase the Moon enters during local
// day d in zone tz, or nil on the (common) days without one.
func (c *Calculator) CalculateMoonPhase(d timeutil.Date, tz string) (*MoonPhaseEvent, error) {
	start, end, err := timeutil.TimeRangeOfDate(d, tz)
	if err != nil {
		return nil, err
	}

	quadrant := func(t time.Time) int {
		return int(c.Elongation(t) / 90)
	}

	trs := FindDiscrete(start, end, quadrant, c.Finder)
	if len(trs) == 0 {
		return nil, nil
	}

	loc := start.Location()
	ev, err := NewMoonPhaseEvent(loc.String(), trs[0].Time.In(loc), trs[0].Value)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// CalculateRiseSet is Calculator.CalculateRiseSet on the shared ephemeris.
func CalculateRiseSet(d timeutil.Date, loc Location, rise bool, body Body) (*RiseSetEvent, error) {
	return NewCalculator().CalculateRiseSet(d, loc, rise, body)
}

// CalculateMagicHour is Calculator.CalculateMagicHour on the shared ephemeris.
func CalculateMagicHour(d timeutil.Date, loc Location, color Color, morning bool) (*MagicHourEvent, error) {
	return NewCalculator().CalculateMagicHour(d, loc, color, morning)
}

// CalculateMoonPhase is Calculator.CalculateMoonPhase on the shared ephemeris.
func CalculateMoonPhase(d timeutil.Date, tz string) (*MoonPhaseEvent, error) {
	return NewCalculator().CalculateMoonPhase(d, tz)
}
