// Package gcal exports calendar events to Google Calendar.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"suncal/internal/model"
)

// CalendarInfo is one entry of the user's calendar list.
type CalendarInfo struct {
	ID       string
	Summary  string
	Timezone string
}

// Service is the subset of the Calendar API the exporter needs.
type Service interface {
	ListCalendars(ctx context.Context) ([]CalendarInfo, error)
	CreateCalendar(ctx context.Context, title, tz string) (string, error)
	InsertEvent(ctx context.Context, calendarID string, p model.Payload) error
}

// GoogleService implements Service on calendar/v3.
type GoogleService struct {
	api *calendar.Service
}

// NewService builds a Calendar API client. With a non-empty credentialsFile
// the service-account or OAuth JSON in it is used; otherwise Application
// Default Credentials apply.
func NewService(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*GoogleService, error) {
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	opts = append(opts, option.WithScopes(calendar.CalendarScope))

	api, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	return &GoogleService{api: api}, nil
}

func (s *GoogleService) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	var out []CalendarInfo
	call := s.api.CalendarList.List().Context(ctx)
	err := call.Pages(ctx, func(page *calendar.CalendarList) error {
		for _, item := range page.Items {
			out = append(out, CalendarInfo{ID: item.Id, Summary: item.Summary, Timezone: item.TimeZone})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	return out, nil
}

func (s *GoogleService) CreateCalendar(ctx context.Context, title, tz string) (string, error) {
	cal, err := s.api.Calendars.Insert(&calendar.Calendar{Summary: title, TimeZone: tz}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create calendar %q: %w", title, err)
	}
	return cal.Id, nil
}

func (s *GoogleService) InsertEvent(ctx context.Context, calendarID string, p model.Payload) error {
	_, err := s.api.Events.Insert(calendarID, toAPIEvent(p)).Context(ctx).Do()
	return err
}

func toAPIEvent(p model.Payload) *calendar.Event {
	return &calendar.Event{
		Summary:      p.Summary,
		Start:        toAPITime(p.Start),
		End:          toAPITime(p.End),
		Transparency: string(p.Transparency),
	}
}

func toAPITime(t model.TimePayload) *calendar.EventDateTime {
	out := &calendar.EventDateTime{}
	if t.Date != nil {
		out.Date = *t.Date
	}
	if t.DateTime != nil {
		out.DateTime = *t.DateTime
	}
	if t.Timezone != nil {
		out.TimeZone = *t.Timezone
	}
	return out
}

// retryable reports whether err is worth another attempt. API errors are
// retried on 429 and 5xx only; cancellation is final.
func retryable(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500
	}
	return true
}
