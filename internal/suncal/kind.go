package suncal

import (
	"fmt"
	"strings"

	"suncal/internal/astro"
)

// EventKind selects which calculator a Request runs.
type EventKind string

const (
	Sunrise           EventKind = "sunrise"
	Sunset            EventKind = "sunset"
	Moonrise          EventKind = "moonrise"
	Moonset           EventKind = "moonset"
	MoonPhase         EventKind = "moonphase"
	GoldenHourMorning EventKind = "golden-hour-morning"
	GoldenHourEvening EventKind = "golden-hour-evening"
	BlueHourMorning   EventKind = "blue-hour-morning"
	BlueHourEvening   EventKind = "blue-hour-evening"
)

var eventKinds = []EventKind{
	Sunrise, Sunset, Moonrise, Moonset, MoonPhase,
	GoldenHourMorning, GoldenHourEvening, BlueHourMorning, BlueHourEvening,
}

var displayNames = map[EventKind]string{
	Sunrise:           "Sunrise",
	Sunset:            "Sunset",
	Moonrise:          "Moonrise",
	Moonset:           "Moonset",
	MoonPhase:         "Moon phase",
	GoldenHourMorning: "Golden hour (morning)",
	GoldenHourEvening: "Golden hour (evening)",
	BlueHourMorning:   "Blue hour (morning)",
	BlueHourEvening:   "Blue hour (evening)",
}

// EventKinds lists every supported kind in a stable order.
func EventKinds() []EventKind {
	out := make([]EventKind, len(eventKinds))
	copy(out, eventKinds)
	return out
}

// ParseEventKind accepts the kind names case-insensitively; underscores are
// treated as dashes.
func ParseEventKind(s string) (EventKind, error) {
	k := EventKind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if _, ok := displayNames[k]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown event kind %q (want one of %s)", s, kindList())
}

func kindList() string {
	names := make([]string, len(eventKinds))
	for i, k := range eventKinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// DisplayName is the human label used in log and CLI messages.
func (k EventKind) DisplayName() string {
	if name, ok := displayNames[k]; ok {
		return name
	}
	return string(k)
}

func (k EventKind) String() string { return string(k) }

// Set implements pflag.Value so kinds can be bound to flags directly.
func (k *EventKind) Set(s string) error {
	v, err := ParseEventKind(s)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Type implements pflag.Value.
func (k *EventKind) Type() string { return "event" }

// riseSet returns the body and direction for the rise/set kinds.
func (k EventKind) riseSet() (body astro.Body, rise, ok bool) {
	switch k {
	case Sunrise:
		return astro.Sun, true, true
	case Sunset:
		return astro.Sun, false, true
	case Moonrise:
		return astro.Moon, true, true
	case Moonset:
		return astro.Moon, false, true
	}
	return 0, false, false
}

// magicHour returns the band and direction for the golden/blue hour kinds.
func (k EventKind) magicHour() (color astro.Color, morning, ok bool) {
	switch k {
	case GoldenHourMorning:
		return astro.Golden, true, true
	case GoldenHourEvening:
		return astro.Golden, false, true
	case BlueHourMorning:
		return astro.Blue, true, true
	case BlueHourEvening:
		return astro.Blue, false, true
	}
	return "", false, false
}
