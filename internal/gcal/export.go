package gcal

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	appLog "suncal/internal/log"
	"suncal/internal/model"
)

// MaxBatchSize is the largest batch the Calendar API accepts.
const MaxBatchSize = 1000

// Options tunes an Exporter. Zero values select the defaults.
type Options struct {
	BatchSize   int           // events per batch, at most MaxBatchSize
	Concurrency int           // parallel inserts inside a batch
	RatePerSec  float64       // insert rate across the whole export
	Retries     uint          // attempts per insert, including the first
	RetryDelay  time.Duration // initial backoff between attempts
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 || o.BatchSize > MaxBatchSize {
		o.BatchSize = MaxBatchSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.RatePerSec <= 0 {
		o.RatePerSec = 5
	}
	if o.Retries == 0 {
		o.Retries = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 500 * time.Millisecond
	}
	return o
}

// BatchResult reports one batch of an export.
type BatchResult struct {
	Index    int
	Size     int
	Inserted int
	Err      error
}

// Exporter writes events to a remote calendar.
type Exporter struct {
	svc     Service
	opts    Options
	limiter *rate.Limiter
}

// NewExporter returns an Exporter writing through svc.
func NewExporter(svc Service, opts Options) *Exporter {
	opts = opts.withDefaults()
	return &Exporter{
		svc:     svc,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.Concurrency),
	}
}

// Batches splits items into consecutive chunks of at most size elements.
// A non-positive size yields a single batch.
func Batches[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(items)
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end:end])
	}
	return out
}

// CalendarID returns the ID of the calendar whose summary is title,
// creating it in zone tz when there is none.
func (e *Exporter) CalendarID(ctx context.Context, title, tz string) (string, error) {
	cals, err := e.svc.ListCalendars(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range cals {
		if c.Summary == title {
			appLog.Debug("gcal calendar found", "title", title, "id", c.ID)
			return c.ID, nil
		}
	}

	id, err := e.svc.CreateCalendar(ctx, title, tz)
	if err != nil {
		return "", err
	}
	appLog.Info("gcal calendar created", "title", title, "id", id, "timezone", tz)
	return id, nil
}

// Export inserts events batch by batch. Batches run one after another;
// inserts inside a batch run concurrently. A failed batch does not stop
// the following ones.
func (e *Exporter) Export(ctx context.Context, calendarID string, events []model.CalendarEvent) []BatchResult {
	batches := Batches(events, e.opts.BatchSize)
	results := make([]BatchResult, 0, len(batches))

	for i, batch := range batches {
		res := e.exportBatch(ctx, calendarID, i, batch)
		if res.Err != nil {
			appLog.Error("gcal batch failed", res.Err,
				"batch", res.Index, "size", res.Size, "inserted", res.Inserted)
		} else {
			appLog.Info("gcal batch inserted", "batch", res.Index, "size", res.Size)
		}
		results = append(results, res)
	}

	return results
}

func (e *Exporter) exportBatch(ctx context.Context, calendarID string, index int, batch []model.CalendarEvent) BatchResult {
	var inserted atomic.Int64

	p := pool.New().
		WithMaxGoroutines(e.opts.Concurrency).
		WithContext(ctx)

	for _, ev := range batch {
		payload := ev.Payload()
		p.Go(func(ctx context.Context) error {
			if err := e.insert(ctx, calendarID, payload); err != nil {
				return fmt.Errorf("insert %q: %w", payload.Summary, err)
			}
			inserted.Add(1)
			return nil
		})
	}

	err := p.Wait()
	return BatchResult{Index: index, Size: len(batch), Inserted: int(inserted.Load()), Err: err}
}

func (e *Exporter) insert(ctx context.Context, calendarID string, payload model.Payload) error {
	return retry.Do(
		func() error {
			if err := e.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			return e.svc.InsertEvent(ctx, calendarID, payload)
		},
		retry.Context(ctx),
		retry.Attempts(e.opts.Retries),
		retry.Delay(e.opts.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			appLog.Warn("gcal insert retry", "attempt", n+1, "summary", payload.Summary, "err", err.Error())
		}),
	)
}
