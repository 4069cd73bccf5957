package model

import (
	"fmt"

	"suncal/internal/astro"
	"suncal/internal/timeutil"
)

// clock12 renders a local time the way summaries show it: "06:35 AM".
const clock12 = "03:04 PM"

var phaseSymbols = map[astro.Phase]string{
	astro.NewMoon:      "🌑",
	astro.FirstQuarter: "🌓",
	astro.FullMoon:     "🌕",
	astro.LastQuarter:  "🌗",
}

var bodySymbols = map[astro.Body]string{
	astro.Sun:  "🌞",
	astro.Moon: "🌝",
}

var magicHourSummaries = map[astro.Color]string{
	astro.Golden: "📷 Golden Hour",
	astro.Blue:   "📷 Blue Hour",
}

// FromCelestial maps a calculator result to a calendar event:
//
//   - rise/set: a zero-length timed event, "↑🌞 06:35 AM"
//   - moon phase: an all-day event on the local date, "🌗 Last Quarter 03:08 AM"
//   - magic hour: a timed event over the band transit, "📷 Golden Hour"
//
// Pointer and value forms of the variants are both accepted.
func FromCelestial(ev astro.Event) (CalendarEvent, error) {
	switch e := ev.(type) {
	case astro.RiseSetEvent:
		return fromRiseSet(e)
	case *astro.RiseSetEvent:
		if e != nil {
			return fromRiseSet(*e)
		}
	case astro.MoonPhaseEvent:
		return fromMoonPhase(e)
	case *astro.MoonPhaseEvent:
		if e != nil {
			return fromMoonPhase(*e)
		}
	case astro.MagicHourEvent:
		return fromMagicHour(e)
	case *astro.MagicHourEvent:
		if e != nil {
			return fromMagicHour(*e)
		}
	}
	return CalendarEvent{}, fmt.Errorf("%w: %T", ErrUnsupportedEventType, ev)
}

func fromRiseSet(e astro.RiseSetEvent) (CalendarEvent, error) {
	symbol, ok := bodySymbols[e.Body]
	if !ok {
		return CalendarEvent{}, fmt.Errorf("%w: body %s", ErrUnsupportedEventType, e.Body)
	}
	at, err := NewTimed(e.Time, e.Location.Timezone)
	if err != nil {
		return CalendarEvent{}, err
	}

	arrow := "↓"
	if e.Rise {
		arrow = "↑"
	}
	local, _ := at.Time()
	summary := fmt.Sprintf("%s%s %s", arrow, symbol, local.Format(clock12))

	return NewCalendarEvent(at, at, summary, Transparent)
}

func fromMoonPhase(e astro.MoonPhaseEvent) (CalendarEvent, error) {
	symbol, ok := phaseSymbols[e.Phase]
	if !ok {
		return CalendarEvent{}, fmt.Errorf("%w: phase %d", astro.ErrInvalidPhase, int(e.Phase))
	}
	loc, err := resolveZone(e.Timezone)
	if err != nil {
		return CalendarEvent{}, err
	}

	local := e.Time.In(loc)
	day := timeutil.DateOf(local)
	start, err := NewAllDay(day, loc.String())
	if err != nil {
		return CalendarEvent{}, err
	}
	end, err := NewAllDay(day.AddDays(1), loc.String())
	if err != nil {
		return CalendarEvent{}, err
	}

	summary := fmt.Sprintf("%s %s %s", symbol, e.Phase, local.Format(clock12))
	return NewCalendarEvent(start, end, summary, Transparent)
}

func fromMagicHour(e astro.MagicHourEvent) (CalendarEvent, error) {
	summary, ok := magicHourSummaries[e.Color]
	if !ok {
		return CalendarEvent{}, fmt.Errorf("%w: color %q", astro.ErrInvalidMagicHour, e.Color)
	}
	// The zone comes from the instants themselves; time.Local is rejected.
	start, err := NewTimed(e.Start, "")
	if err != nil {
		return CalendarEvent{}, err
	}
	end, err := NewTimed(e.End, start.Timezone())
	if err != nil {
		return CalendarEvent{}, err
	}
	return NewCalendarEvent(start, end, summary, Transparent)
}
