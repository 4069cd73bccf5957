// Package ics writes calendar events as an iCalendar (RFC 5545) document and
// reads such documents back.
package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"suncal/internal/model"
)

// ProductID is written as PRODID.
const ProductID = "-//suncal//suncal calendar export//EN"

// uidNamespace scopes the name-based UIDs of exported events.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://suncal.invalid/events"))

// CalendarMeta is the calendar-level header data.
type CalendarMeta struct {
	Name     string // X-WR-CALNAME
	Timezone string // X-WR-TIMEZONE
	// Stamp is written as DTSTAMP on every event; zero means time.Now.
	Stamp time.Time
}

// Build returns the golang-ical calendar for events.
func Build(meta CalendarMeta, events []model.CalendarEvent) *ical.Calendar {
	stamp := meta.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetVersion("2.0")
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ical.MethodPublish)
	if meta.Name != "" {
		cal.SetXWRCalName(meta.Name)
	}
	if meta.Timezone != "" {
		cal.SetXWRTimezone(meta.Timezone)
	}

	for _, ev := range events {
		ve := cal.AddEvent(EventUID(ev))
		ve.SetDtStampTime(stamp)

		if ev.IsAllDay() {
			ve.SetAllDayStartAt(ev.Start().Start())
			ve.SetAllDayEndAt(ev.End().Start())
		} else {
			ve.SetStartAt(ev.Start().Start())
			ve.SetEndAt(ev.End().Start())
		}

		ve.SetSummary(ev.Summary())
		ve.SetProperty(ical.ComponentPropertyTransp, strings.ToUpper(string(ev.Transparency())))
	}

	return cal
}

// Encode returns the document for events as lines without terminators,
// ready for AppendLines.
func Encode(meta CalendarMeta, events []model.CalendarEvent) []string {
	body := Build(meta, events).Serialize()
	body = strings.TrimRight(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	if body == "" {
		return nil
	}
	return strings.Split(body, "\n")
}

// EventUID derives a stable UID from the event's content, so exporting the
// same range twice yields the same identifiers.
func EventUID(ev model.CalendarEvent) string {
	key := ev.Start().String() + "|" + ev.End().String() + "|" + ev.Summary()
	return uuid.NewSHA1(uidNamespace, []byte(key)).String()
}
