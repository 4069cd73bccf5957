package model

import (
	"encoding/json"
	"time"
)

// TimePayload is the transport form of a CalendarTime. Exactly one of Date
// and DateTime is non-nil; the unset one encodes as null.
type TimePayload struct {
	Date     *string `json:"date"`
	DateTime *string `json:"dateTime"`
	Timezone *string `json:"timeZone"`
}

// Payload is the transport form of a CalendarEvent, keyed the way remote
// calendar APIs expect.
type Payload struct {
	Start        TimePayload  `json:"start"`
	End          TimePayload  `json:"end"`
	Summary      string       `json:"summary"`
	Transparency Transparency `json:"transparency"`
}

func strPtr(s string) *string { return &s }

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Payload returns the transport form of c.
func (c CalendarTime) Payload() TimePayload {
	p := TimePayload{Timezone: strPtr(c.timezone)}
	switch c.kind {
	case AllDay:
		p.Date = strPtr(c.date.String())
	case Timed:
		p.DateTime = strPtr(c.instant.Format(time.RFC3339))
	}
	return p
}

// Payload returns the transport form of e.
func (e CalendarEvent) Payload() Payload {
	return Payload{
		Start:        e.start.Payload(),
		End:          e.end.Payload(),
		Summary:      e.summary,
		Transparency: e.transparency,
	}
}

// MarshalJSON encodes e as its Payload.
func (e CalendarEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Payload())
}

// Decode validates p through the regular constructors.
func (p TimePayload) Decode() (CalendarTime, error) {
	return NewCalendarTime(deref(p.Date), deref(p.DateTime), deref(p.Timezone))
}

// DecodePayload rebuilds and validates an event from its transport form.
func DecodePayload(p Payload) (CalendarEvent, error) {
	start, err := p.Start.Decode()
	if err != nil {
		return CalendarEvent{}, err
	}
	end, err := p.End.Decode()
	if err != nil {
		return CalendarEvent{}, err
	}
	return NewCalendarEvent(start, end, p.Summary, p.Transparency)
}

// UnmarshalJSON decodes and validates a Payload document into e.
func (e *CalendarEvent) UnmarshalJSON(b []byte) error {
	var p Payload
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	ev, err := DecodePayload(p)
	if err != nil {
		return err
	}
	*e = ev
	return nil
}
