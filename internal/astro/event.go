package astro

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"suncal/internal/timeutil"
)

var (
	// ErrInvalidLocation is returned for coordinates outside the globe.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidPhase is returned for a moon phase index outside 0..3.
	ErrInvalidPhase = errors.New("invalid moon phase index")

	// ErrInvalidMagicHour is returned for an unknown colour or an empty
	// interval.
	ErrInvalidMagicHour = errors.New("invalid magic hour")
)

// Location is an observer on the Earth's surface plus the zone used to cut
// calendar days.
type Location struct {
	Timezone  string  `json:"timezone" yaml:"timezone"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`   // degrees, north positive
	Longitude float64 `json:"longitude" yaml:"longitude"` // degrees, east positive
}

// Validate checks the coordinate ranges and that Timezone resolves.
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude %g outside [-90, 90]", ErrInvalidLocation, l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude %g outside [-180, 180]", ErrInvalidLocation, l.Longitude)
	}
	if _, err := timeutil.LoadLocation(l.Timezone); err != nil {
		return err
	}
	return nil
}

// Body is a celestial body the calculators know about.
type Body int

const (
	Sun Body = iota
	Moon
)

func (b Body) String() string {
	switch b {
	case Sun:
		return "sun"
	case Moon:
		return "moon"
	default:
		return fmt.Sprintf("body(%d)", int(b))
	}
}

// Kind discriminates the Event variants.
type Kind int

const (
	KindRiseSet Kind = iota + 1
	KindMoonPhase
	KindMagicHour
)

func (k Kind) String() string {
	switch k {
	case KindRiseSet:
		return "rise-set"
	case KindMoonPhase:
		return "moon-phase"
	case KindMagicHour:
		return "magic-hour"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is a calculator result. The set of implementations is closed:
// RiseSetEvent, MoonPhaseEvent and MagicHourEvent.
type Event interface {
	Kind() Kind
	// At is the instant the calendar entry is anchored on.
	At() time.Time
	sealed()
}

// RiseSetEvent is one crossing of the horizon.
type RiseSetEvent struct {
	Location Location
	Time     time.Time
	Body     Body
	Rise     bool
}

func (RiseSetEvent) Kind() Kind      { return KindRiseSet }
func (e RiseSetEvent) At() time.Time { return e.Time }
func (RiseSetEvent) sealed()         {}

// Phase is one of the four quantized lunar phases.
type Phase int

const (
	NewMoon Phase = iota
	FirstQuarter
	FullMoon
	LastQuarter
)

var phaseNames = [...]string{"New Moon", "First Quarter", "Full Moon", "Last Quarter"}

func (p Phase) Valid() bool {
	return p >= NewMoon && p <= LastQuarter
}

func (p Phase) String() string {
	if !p.Valid() {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MoonPhaseEvent is the instant the Moon enters a phase.
type MoonPhaseEvent struct {
	Timezone string
	Time     time.Time
	Phase    Phase
}

// NewMoonPhaseEvent validates the phase index.
func NewMoonPhaseEvent(tz string, t time.Time, idx int) (MoonPhaseEvent, error) {
	p := Phase(idx)
	if !p.Valid() {
		return MoonPhaseEvent{}, fmt.Errorf("%w: %d", ErrInvalidPhase, idx)
	}
	return MoonPhaseEvent{Timezone: tz, Time: t, Phase: p}, nil
}

func (MoonPhaseEvent) Kind() Kind      { return KindMoonPhase }
func (e MoonPhaseEvent) At() time.Time { return e.Time }
func (MoonPhaseEvent) sealed()         {}

// Color names a magic hour band.
type Color string

const (
	Golden Color = "golden"
	Blue   Color = "blue"
)

// ParseColor accepts "golden" or "blue" in any case.
func ParseColor(s string) (Color, error) {
	switch c := Color(strings.ToLower(strings.TrimSpace(s))); c {
	case Golden, Blue:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown color %q", ErrInvalidMagicHour, s)
	}
}

// Band returns the lower and upper sun altitude, in degrees, bounding c.
func (c Color) Band() (low, high float64, ok bool) {
	switch c {
	case Golden:
		return -4, 6, true
	case Blue:
		return -8, -4, true
	default:
		return 0, 0, false
	}
}

// MagicHourEvent is a transit of the Sun through a Color band.
type MagicHourEvent struct {
	Color   Color
	Start   time.Time
	End     time.Time
	Morning bool
}

// NewMagicHourEvent validates the colour and that start < end.
func NewMagicHourEvent(c Color, start, end time.Time, morning bool) (MagicHourEvent, error) {
	if _, _, ok := c.Band(); !ok {
		return MagicHourEvent{}, fmt.Errorf("%w: unknown color %q", ErrInvalidMagicHour, c)
	}
	if !start.Before(end) {
		return MagicHourEvent{}, fmt.Errorf("%w: start %s not before end %s",
			ErrInvalidMagicHour, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return MagicHourEvent{Color: c, Start: start, End: end, Morning: morning}, nil
}

func (MagicHourEvent) Kind() Kind      { return KindMagicHour }
func (e MagicHourEvent) At() time.Time { return e.Start }
func (MagicHourEvent) sealed()         {}
