// Package model is the validated calendar-event representation every
// exporter consumes. Values are immutable and only built through the
// constructors, which check the invariants eagerly.
package model

import (
	"fmt"
	"strings"
)

// Transparency is the free/busy flag of an event.
type Transparency string

const (
	Transparent Transparency = "transparent"
	Opaque      Transparency = "opaque"
)

// ParseTransparency accepts "transparent" or "opaque" in any case; an empty
// string selects Transparent.
func ParseTransparency(s string) (Transparency, error) {
	switch t := Transparency(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return Transparent, nil
	case Transparent, Opaque:
		return t, nil
	default:
		return "", invalid(KindInvalidTransparency, "%q is neither %s nor %s", s, Transparent, Opaque)
	}
}

// CalendarEvent is one entry ready for export.
type CalendarEvent struct {
	start, end   CalendarTime
	summary      string
	transparency Transparency
}

// NewCalendarEvent validates and returns an event. Start and end must be of
// the same kind; all-day ends are exclusive and must be after start, timed
// ends may equal start. An empty transparency means Transparent.
func NewCalendarEvent(start, end CalendarTime, summary string, transparency Transparency) (CalendarEvent, error) {
	if start.kind == 0 || end.kind == 0 {
		return CalendarEvent{}, invalid(KindMissingTime, "start and end are required")
	}
	if start.kind != end.kind {
		return CalendarEvent{}, invalid(KindMixedKinds, "start is %s but end is %s", start.kind, end.kind)
	}

	switch start.kind {
	case AllDay:
		if !end.date.After(start.date) {
			return CalendarEvent{}, invalid(KindNonIncreasingRange,
				"all-day end %s must be after start %s", end.date, start.date)
		}
	case Timed:
		if end.instant.Before(start.instant) {
			return CalendarEvent{}, invalid(KindNonIncreasingRange,
				"end %s is before start %s", end, start)
		}
	}

	tr, err := ParseTransparency(string(transparency))
	if err != nil {
		return CalendarEvent{}, err
	}

	return CalendarEvent{start: start, end: end, summary: summary, transparency: tr}, nil
}

func (e CalendarEvent) Start() CalendarTime        { return e.start }
func (e CalendarEvent) End() CalendarTime          { return e.end }
func (e CalendarEvent) Summary() string            { return e.summary }
func (e CalendarEvent) Transparency() Transparency { return e.transparency }
func (e CalendarEvent) IsAllDay() bool             { return e.start.kind == AllDay }

func (e CalendarEvent) String() string {
	return fmt.Sprintf("%s [%s, %s]", e.summary, e.start, e.end)
}
