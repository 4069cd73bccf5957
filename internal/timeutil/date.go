// Package timeutil holds the calendar-date and time-zone plumbing shared by
// the calculators and the calendar model: civil dates, the per-day scan
// window, inclusive date ranges and IANA zone resolution.
package timeutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// ISODate is the layout used for Date on the wire and on the command line.
const ISODate = "2006-01-02"

// MaxYear is the last year accepted by ParseDate.
const MaxYear = 2999

var (
	// ErrInvalidDate is returned for malformed or out-of-range dates.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidTimezone is returned when a name is not a known IANA zone.
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// Date is a civil calendar date without a time of day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalizes its arguments the way time.Date does, so
// NewDate(2024, 2, 30) is 2024-03-01.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string. Impossible dates such as
// 2020-30-01 and years outside 1..MaxYear are rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, s)
	}
	d := DateOf(t)
	if d.Year < 1 || d.Year > MaxYear {
		return Date{}, fmt.Errorf("%w: year %d outside 1..%d", ErrInvalidDate, d.Year, MaxYear)
	}
	return d, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// In returns local midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) AddDays(n int) Date {
	return NewDate(d.Year, d.Month, d.Day+n)
}

func (d Date) Before(o Date) bool {
	return d.utc().Before(o.utc())
}

func (d Date) After(o Date) bool {
	return d.utc().After(o.utc())
}

// DaysUntil returns the number of days from d to o (negative if o is earlier).
func (d Date) DaysUntil(o Date) int {
	return int(o.utc().Sub(d.utc()).Hours() / 24)
}

func (d Date) utc() time.Time {
	return d.In(time.UTC)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange returns every date from `from` to `to`, both inclusive, in
// ascending order. The expansion runs through a DAILY recurrence rule so
// month, year and leap-day boundaries need no special casing here.
func DateRange(from, to Date) ([]Date, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("date range: to %s is before from %s", to, from)
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Dtstart: from.utc(),
		Until:   to.utc(),
	})
	if err != nil {
		return nil, fmt.Errorf("date range: %w", err)
	}

	occ := r.All()
	out := make([]Date, 0, len(occ))
	for _, t := range occ {
		out = append(out, DateOf(t))
	}
	return out, nil
}

// TimeRangeOfDate returns the scan window for d in the named zone: start at
// local midnight, end one microsecond before the following local midnight.
func TimeRangeOfDate(d Date, tz string) (start, end time.Time, err error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, end = WindowIn(d, loc)
	return start, end, nil
}

// WindowIn is TimeRangeOfDate for an already resolved location.
func WindowIn(d Date, loc *time.Location) (start, end time.Time) {
	start = d.In(loc)
	end = time.Date(d.Year, d.Month, d.Day+1, 0, 0, 0, 0, loc).Add(-time.Microsecond)
	return start, end
}

// ICalUTC formats t as an iCalendar UTC date-time, e.g. 20210417T143000Z.
func ICalUTC(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}
