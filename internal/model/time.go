package model

import (
	"strings"
	"time"

	"suncal/internal/timeutil"
)

// TimeKind discriminates CalendarTime.
type TimeKind int

const (
	AllDay TimeKind = iota + 1
	Timed
)

func (k TimeKind) String() string {
	switch k {
	case AllDay:
		return "all-day"
	case Timed:
		return "timed"
	default:
		return "unset"
	}
}

// naiveLayouts are accepted for a datetime without an offset; such values
// need an explicit zone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// CalendarTime is either an all-day date or a precise instant, always with
// the IANA zone it belongs to. The zero value is invalid; build one with
// NewAllDay, NewTimed or NewCalendarTime.
type CalendarTime struct {
	kind     TimeKind
	date     timeutil.Date
	instant  time.Time
	timezone string
}

// NewAllDay returns an all-day marker for d in zone tz.
func NewAllDay(d timeutil.Date, tz string) (CalendarTime, error) {
	if strings.TrimSpace(tz) == "" {
		return CalendarTime{}, invalid(KindMissingTimezone, "all-day date %s needs a timezone", d)
	}
	if d.IsZero() {
		return CalendarTime{}, invalid(KindMissingTime, "all-day date is empty")
	}
	if d.Year < 1 || d.Year > timeutil.MaxYear {
		return CalendarTime{}, invalid(KindInvalidDate, "year %d outside 1..%d", d.Year, timeutil.MaxYear)
	}
	loc, err := resolveZone(tz)
	if err != nil {
		return CalendarTime{}, err
	}
	return CalendarTime{kind: AllDay, date: d, timezone: loc.String()}, nil
}

// NewTimed returns a timed value for t. An empty tz takes t's location,
// which must then be a named zone rather than Local.
func NewTimed(t time.Time, tz string) (CalendarTime, error) {
	if t.IsZero() {
		return CalendarTime{}, invalid(KindMissingTime, "datetime is empty")
	}
	if strings.TrimSpace(tz) == "" {
		tz = t.Location().String()
		if tz == "Local" {
			return CalendarTime{}, invalid(KindMissingTimezone, "datetime %s has no named zone", t.Format(time.RFC3339))
		}
	}
	loc, err := resolveZone(tz)
	if err != nil {
		return CalendarTime{}, err
	}
	return CalendarTime{kind: Timed, instant: t.In(loc), timezone: loc.String()}, nil
}

// NewCalendarTime is the string-input constructor used when decoding
// payloads. Exactly one of date (YYYY-MM-DD) and datetime must be set. A
// date always needs tz; a datetime needs tz unless it carries an offset.
func NewCalendarTime(date, datetime, tz string) (CalendarTime, error) {
	date, datetime, tz = strings.TrimSpace(date), strings.TrimSpace(datetime), strings.TrimSpace(tz)

	switch {
	case date != "" && datetime != "":
		return CalendarTime{}, invalid(KindConflictingTime, "both date %q and datetime %q are set", date, datetime)
	case date == "" && datetime == "":
		return CalendarTime{}, invalid(KindMissingTime, "one of date or datetime is required")
	case date != "":
		if tz == "" {
			return CalendarTime{}, invalid(KindMissingTimezone, "date %q needs a timezone", date)
		}
		d, err := timeutil.ParseDate(date)
		if err != nil {
			return CalendarTime{}, invalidWrap(KindInvalidDate, err, "date %q", date)
		}
		return NewAllDay(d, tz)
	}

	if t, err := time.Parse(time.RFC3339Nano, datetime); err == nil {
		if t.Year() > timeutil.MaxYear {
			return CalendarTime{}, invalid(KindInvalidDate, "datetime %q after year %d", datetime, timeutil.MaxYear)
		}
		if tz == "" {
			// Keep the offset-only instant, reported in UTC.
			return CalendarTime{kind: Timed, instant: t.UTC(), timezone: "UTC"}, nil
		}
		return NewTimed(t, tz)
	}

	if tz == "" {
		return CalendarTime{}, invalid(KindMissingTimezone, "naive datetime %q needs a timezone", datetime)
	}
	loc, err := resolveZone(tz)
	if err != nil {
		return CalendarTime{}, err
	}
	for _, layout := range naiveLayouts {
		t, err := time.ParseInLocation(layout, datetime, loc)
		if err != nil {
			continue
		}
		if t.Year() > timeutil.MaxYear {
			return CalendarTime{}, invalid(KindInvalidDate, "datetime %q after year %d", datetime, timeutil.MaxYear)
		}
		return NewTimed(t, loc.String())
	}
	return CalendarTime{}, invalid(KindInvalidDate, "datetime %q is not ISO 8601", datetime)
}

func resolveZone(tz string) (*time.Location, error) {
	loc, err := timeutil.LoadLocation(tz)
	if err != nil {
		return nil, invalidWrap(KindInvalidTimezone, err, "timezone %q", tz)
	}
	return loc, nil
}

// Kind returns AllDay or Timed.
func (c CalendarTime) Kind() TimeKind { return c.kind }

func (c CalendarTime) IsAllDay() bool { return c.kind == AllDay }

// Date returns the all-day date; ok is false for timed values.
func (c CalendarTime) Date() (d timeutil.Date, ok bool) {
	return c.date, c.kind == AllDay
}

// Time returns the instant in the value's zone; ok is false for all-day
// values.
func (c CalendarTime) Time() (t time.Time, ok bool) {
	return c.instant, c.kind == Timed
}

// Timezone returns the canonical IANA name.
func (c CalendarTime) Timezone() string { return c.timezone }

// Start returns the instant the value begins at: the instant itself, or
// local midnight of the date.
func (c CalendarTime) Start() time.Time {
	if c.kind == Timed {
		return c.instant
	}
	loc, err := timeutil.LoadLocation(c.timezone)
	if err != nil {
		loc = time.UTC
	}
	return c.date.In(loc)
}

// Equal reports whether both values have the same kind, zone and moment.
func (c CalendarTime) Equal(o CalendarTime) bool {
	if c.kind != o.kind || c.timezone != o.timezone {
		return false
	}
	if c.kind == AllDay {
		return c.date == o.date
	}
	return c.instant.Equal(o.instant)
}

func (c CalendarTime) String() string {
	switch c.kind {
	case AllDay:
		return c.date.String() + " " + c.timezone
	case Timed:
		return c.instant.Format(time.RFC3339) + " " + c.timezone
	default:
		return "<unset>"
	}
}
