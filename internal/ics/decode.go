package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "suncal/internal/log"
	"suncal/internal/model"
	"suncal/internal/timeutil"
)

// Document is a decoded calendar.
type Document struct {
	Meta   CalendarMeta
	Events []model.CalendarEvent
}

// Decode parses an iCalendar document. Events that do not satisfy the model
// invariants are logged and skipped; a document that cannot be parsed at
// all is an error.
//
// Zones come from TZID parameters, falling back to X-WR-TIMEZONE and then
// UTC for values written as UTC.
func Decode(r io.Reader) (Document, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		appLog.Error("ics parse failed", err)
		return Document{}, fmt.Errorf("parse calendar: %w", err)
	}

	var doc Document
	for _, p := range cal.CalendarProperties {
		switch ical.Property(p.IANAToken) {
		case ical.PropertyXWRCalName:
			doc.Meta.Name = p.Value
		case ical.PropertyXWRTimezone:
			doc.Meta.Timezone = p.Value
		}
	}

	for _, ve := range cal.Events() {
		ev, perr := decodeVEvent(ve, doc.Meta.Timezone)
		if perr != nil {
			uid := ""
			if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
				uid = p.Value
			}
			appLog.Warn("ics vevent skipped", "uid", uid, "err", perr.Error())
			continue
		}
		doc.Events = append(doc.Events, ev)
	}

	appLog.Debug("ics parse completed", "calendar", doc.Meta.Name, "event_count", len(doc.Events))
	return doc, nil
}

func decodeVEvent(ve *ical.VEvent, calTZ string) (model.CalendarEvent, error) {
	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return model.CalendarEvent{}, errors.New("missing DTSTART")
	}
	start, err := decodeTime(startProp, calTZ)
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("DTSTART: %w", err)
	}

	end := start
	if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil {
		if end, err = decodeTime(endProp, calTZ); err != nil {
			return model.CalendarEvent{}, fmt.Errorf("DTEND: %w", err)
		}
	} else if d, ok := start.Date(); ok {
		// An all-day DTSTART without DTEND lasts one day.
		if end, err = model.NewAllDay(d.AddDays(1), start.Timezone()); err != nil {
			return model.CalendarEvent{}, err
		}
	}

	summary := ""
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		summary = p.Value
	}
	transp := model.Transparent
	if p := ve.GetProperty(ical.ComponentPropertyTransp); p != nil {
		if transp, err = model.ParseTransparency(p.Value); err != nil {
			return model.CalendarEvent{}, err
		}
	}

	return model.NewCalendarEvent(start, end, summary, transp)
}

// decodeTime turns a DTSTART/DTEND property into a CalendarTime. All-day
// values are detected by VALUE=DATE or the absence of a time part.
func decodeTime(p *ical.IANAProperty, calTZ string) (model.CalendarTime, error) {
	v := strings.TrimSpace(p.Value)
	if v == "" {
		return model.CalendarTime{}, errors.New("empty time value")
	}

	tz := calTZ
	if tzs, ok := p.ICalParameters[string(ical.ParameterTzid)]; ok && len(tzs) > 0 {
		tz = tzs[0]
	}

	allDay := !strings.Contains(v, "T")
	if vs, ok := p.ICalParameters[string(ical.ParameterValue)]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		allDay = true
	}

	if allDay {
		t, err := time.Parse("20060102", v)
		if err != nil {
			return model.CalendarTime{}, err
		}
		if tz == "" {
			tz = "UTC"
		}
		return model.NewAllDay(timeutil.DateOf(t), tz)
	}

	// UTC form, e.g. 20210417T143000Z
	if strings.HasSuffix(v, "Z") {
		t, err := time.Parse("20060102T150405Z", v)
		if err != nil {
			return model.CalendarTime{}, err
		}
		if tz == "" {
			tz = "UTC"
		}
		return model.NewTimed(t, tz)
	}

	// Floating or TZID-qualified local time.
	if tz == "" {
		return model.CalendarTime{}, fmt.Errorf("local time %q without TZID", v)
	}
	loc, err := timeutil.LoadLocation(tz)
	if err != nil {
		return model.CalendarTime{}, err
	}
	t, err := time.ParseInLocation("20060102T150405", v, loc)
	if err != nil {
		return model.CalendarTime{}, err
	}
	return model.NewTimed(t, tz)
}
