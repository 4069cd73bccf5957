// Package suncal runs one calculator over an inclusive date range and turns
// the results into calendar events, in ascending date order.
package suncal

import (
	"fmt"

	"suncal/internal/astro"
	appLog "suncal/internal/log"
	"suncal/internal/model"
	"suncal/internal/timeutil"
)

// Request describes one run.
type Request struct {
	Kind     EventKind
	From, To timeutil.Date
	Location astro.Location
}

// Validate checks the kind, the date order and the location.
func (r Request) Validate() error {
	if _, err := ParseEventKind(string(r.Kind)); err != nil {
		return err
	}
	if r.From.IsZero() || r.To.IsZero() {
		return fmt.Errorf("%w: from and to are required", timeutil.ErrInvalidDate)
	}
	if r.To.Before(r.From) {
		return fmt.Errorf("%w: to %s is before from %s", timeutil.ErrInvalidDate, r.To, r.From)
	}
	return r.Location.Validate()
}

// Result pairs a calculator result with the calendar event built from it.
type Result struct {
	Date     timeutil.Date
	Event    astro.Event
	Calendar model.CalendarEvent
}

// Pipeline computes requests against one calculator.
type Pipeline struct {
	calc *astro.Calculator
}

// New returns a Pipeline over calc, or over the shared ephemeris when calc
// is nil.
func New(calc *astro.Calculator) *Pipeline {
	if calc == nil {
		calc = astro.NewCalculator()
	}
	return &Pipeline{calc: calc}
}

// Compute runs the request's calculator for every date in [From, To]. Dates
// without an event are logged and skipped.
func (p *Pipeline) Compute(req Request) ([]Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	// Validate accepts every spelling ParseEventKind does; compute on the
	// canonical one.
	req.Kind, _ = ParseEventKind(string(req.Kind))

	dates, err := timeutil.DateRange(req.From, req.To)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(dates))
	for _, d := range dates {
		ev, err := p.computeDate(req, d)
		if err != nil {
			return nil, fmt.Errorf("%s on %s: %w", req.Kind, d, err)
		}
		if ev == nil {
			appLog.Info(fmt.Sprintf("no %s for %s at longitude %g and latitude %g",
				req.Kind.DisplayName(), d, req.Location.Longitude, req.Location.Latitude))
			continue
		}

		cal, err := model.FromCelestial(ev)
		if err != nil {
			return nil, fmt.Errorf("%s on %s: %w", req.Kind, d, err)
		}
		out = append(out, Result{Date: d, Event: ev, Calendar: cal})
	}

	return out, nil
}

// CreateCalendarEvents is Compute reduced to the calendar events.
func (p *Pipeline) CreateCalendarEvents(req Request) ([]model.CalendarEvent, error) {
	results, err := p.Compute(req)
	if err != nil {
		return nil, err
	}
	events := make([]model.CalendarEvent, len(results))
	for i, r := range results {
		events[i] = r.Calendar
	}
	return events, nil
}

// computeDate returns nil without error when there is nothing on d.
func (p *Pipeline) computeDate(req Request, d timeutil.Date) (astro.Event, error) {
	if body, rise, ok := req.Kind.riseSet(); ok {
		ev, err := p.calc.CalculateRiseSet(d, req.Location, rise, body)
		if err != nil || ev == nil {
			return nil, err
		}
		return ev, nil
	}

	if color, morning, ok := req.Kind.magicHour(); ok {
		ev, err := p.calc.CalculateMagicHour(d, req.Location, color, morning)
		if err != nil || ev == nil {
			return nil, err
		}
		return ev, nil
	}

	if req.Kind == MoonPhase {
		ev, err := p.calc.CalculateMoonPhase(d, req.Location.Timezone)
		if err != nil || ev == nil {
			return nil, err
		}
		return ev, nil
	}

	return nil, fmt.Errorf("unknown event kind %q", req.Kind)
}

// Compute runs req on a default Pipeline.
func Compute(req Request) ([]Result, error) {
	return New(nil).Compute(req)
}

// CreateCalendarEvents runs req on a default Pipeline.
func CreateCalendarEvents(req Request) ([]model.CalendarEvent, error) {
	return New(nil).CreateCalendarEvents(req)
}
