package gcal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"suncal/internal/model"
)

type fakeService struct {
	mu        sync.Mutex
	calendars []CalendarInfo
	created   []string
	inserted  map[string][]model.Payload
	// failures maps a summary to the errors returned by its next inserts.
	failures map[string][]error
	attempts map[string]int
}

func newFake() *fakeService {
	return &fakeService{
		inserted: map[string][]model.Payload{},
		failures: map[string][]error{},
		attempts: map[string]int{},
	}
}

func (f *fakeService) ListCalendars(context.Context) ([]CalendarInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CalendarInfo(nil), f.calendars...), nil
}

func (f *fakeService) CreateCalendar(_ context.Context, title, tz string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := "cal-" + title
	f.calendars = append(f.calendars, CalendarInfo{ID: id, Summary: title, Timezone: tz})
	f.created = append(f.created, title)
	return id, nil
}

func (f *fakeService) InsertEvent(_ context.Context, calendarID string, p model.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts[p.Summary]++
	if errs := f.failures[p.Summary]; len(errs) > 0 {
		f.failures[p.Summary] = errs[1:]
		return errs[0]
	}
	f.inserted[calendarID] = append(f.inserted[calendarID], p)
	return nil
}

func events(t *testing.T, n int) []model.CalendarEvent {
	t.Helper()
	base := time.Date(2023, 1, 1, 7, 0, 0, 0, time.UTC)
	out := make([]model.CalendarEvent, n)
	for i := range out {
		ct, err := model.NewTimed(base.Add(time.Duration(i)*24*time.Hour), "UTC")
		require.NoError(t, err)
		out[i], err = model.NewCalendarEvent(ct, ct, ct.String(), model.Transparent)
		require.NoError(t, err)
	}
	return out
}

func fastOptions() Options {
	return Options{Concurrency: 8, RatePerSec: 1e6, RetryDelay: time.Millisecond}
}

func TestBatches(t *testing.T) {
	items := make([]int, 2500)
	got := Batches(items, 1000)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1000, 1000, 500}, []int{len(got[0]), len(got[1]), len(got[2])})

	assert.Len(t, Batches(items[:1000], 1000), 1)
	assert.Len(t, Batches(items[:1001], 1000), 2)
	assert.Nil(t, Batches([]int{}, 10))
	assert.Len(t, Batches(items[:7], 0), 1)

	// Batches do not share capacity, so appending to one cannot clobber the next.
	small := Batches([]int{1, 2, 3, 4}, 2)
	_ = append(small[0], 99)
	assert.Equal(t, []int{3, 4}, small[1])
}

func TestCalendarID_FindOrCreate(t *testing.T) {
	svc := newFake()
	svc.calendars = []CalendarInfo{{ID: "primary", Summary: "Me"}, {ID: "sun-1", Summary: "Sonne"}}
	exp := NewExporter(svc, fastOptions())

	id, err := exp.CalendarID(context.Background(), "Sonne", "Europe/Berlin")
	require.NoError(t, err)
	assert.Equal(t, "sun-1", id)
	assert.Empty(t, svc.created)

	id, err = exp.CalendarID(context.Background(), "Mond", "Europe/Berlin")
	require.NoError(t, err)
	assert.Equal(t, "cal-Mond", id)
	assert.Equal(t, []string{"Mond"}, svc.created)
}

func TestExport_Batches(t *testing.T) {
	svc := newFake()
	exp := NewExporter(svc, Options{BatchSize: 4, Concurrency: 3, RatePerSec: 1e6, RetryDelay: time.Millisecond})

	results := exp.Export(context.Background(), "cal", events(t, 10))

	require.Len(t, results, 3)
	for i, want := range []int{4, 4, 2} {
		assert.Equal(t, i, results[i].Index)
		assert.Equal(t, want, results[i].Size)
		assert.Equal(t, want, results[i].Inserted)
		assert.NoError(t, results[i].Err)
	}
	assert.Len(t, svc.inserted["cal"], 10)
}

func TestExport_RetriesTransientErrors(t *testing.T) {
	svc := newFake()
	evs := events(t, 3)
	flaky := evs[1].Summary()
	svc.failures[flaky] = []error{
		&googleapi.Error{Code: http.StatusTooManyRequests},
		&googleapi.Error{Code: http.StatusServiceUnavailable},
	}
	exp := NewExporter(svc, fastOptions())

	results := exp.Export(context.Background(), "cal", evs)

	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, 3, results[0].Inserted)
	assert.Equal(t, 3, svc.attempts[flaky])
}

func TestExport_PermanentErrorFailsBatchOnly(t *testing.T) {
	svc := newFake()
	evs := events(t, 4)
	bad := evs[0].Summary()
	svc.failures[bad] = []error{&googleapi.Error{Code: http.StatusForbidden, Message: "forbidden"}}
	exp := NewExporter(svc, Options{BatchSize: 2, Concurrency: 2, RatePerSec: 1e6, RetryDelay: time.Millisecond})

	results := exp.Export(context.Background(), "cal", evs)

	require.Len(t, results, 2)
	require.Error(t, results[0].Err)
	var gerr *googleapi.Error
	assert.True(t, errors.As(results[0].Err, &gerr))
	assert.Equal(t, 1, results[0].Inserted)
	assert.Equal(t, 1, svc.attempts[bad])

	assert.NoError(t, results[1].Err)
	assert.Equal(t, 2, results[1].Inserted)
}

func TestExport_CancelledContext(t *testing.T) {
	svc := newFake()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := NewExporter(svc, fastOptions()).Export(ctx, "cal", events(t, 2))

	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.Equal(t, 0, results[0].Inserted)
	assert.Empty(t, svc.inserted["cal"])
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&googleapi.Error{Code: 500}))
	assert.True(t, retryable(&googleapi.Error{Code: http.StatusTooManyRequests}))
	assert.False(t, retryable(&googleapi.Error{Code: http.StatusNotFound}))
	assert.False(t, retryable(context.Canceled))
	assert.True(t, retryable(errors.New("connection reset")))
}

func TestToAPIEvent(t *testing.T) {
	ev := events(t, 1)[0]
	api := toAPIEvent(ev.Payload())

	assert.Equal(t, ev.Summary(), api.Summary)
	assert.Equal(t, "2023-01-01T07:00:00Z", api.Start.DateTime)
	assert.Equal(t, "UTC", api.Start.TimeZone)
	assert.Empty(t, api.Start.Date)
	assert.Equal(t, "transparent", api.Transparency)
}
