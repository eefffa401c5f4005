package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/quakeseq/internal/domain"
	"github.com/couchcryptid/quakeseq/internal/observability"
)

// Fetcher retrieves the validated event set for the current query window.
type Fetcher interface {
	Fetch(ctx context.Context) ([]domain.Event, error)
}

// Publisher forwards rendered quake records to a downstream consumer.
type Publisher interface {
	Publish(ctx context.Context, records []domain.QuakeRecord) error
}

// Pipeline composes Fetch → Aggregate → Render and, optionally, Publish.
type Pipeline struct {
	fetcher   Fetcher
	publisher Publisher
	geocoder  domain.Geocoder
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline. publisher and geocoder may be nil; geocoding only
// enriches published records.
func New(f Fetcher, publisher Publisher, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:   f,
		publisher: publisher,
		geocoder:  geocoder,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a fetch has succeeded, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no successful earthquake fetch yet")
	}
	return nil
}

// Run renders one sequence and writes it to w, one line per row.
// On a *domain.FetchError the error line is written and the error returned.
func (p *Pipeline) Run(ctx context.Context, w io.Writer) error {
	lines, err := p.Render(ctx)
	for _, line := range lines {
		if _, werr := fmt.Fprintln(w, line); werr != nil {
			return fmt.Errorf("write sequence: %w", werr)
		}
	}
	return err
}

// Render produces the sequence lines for the current window. A fetch status
// failure yields exactly the error line together with the error; every other
// failure yields no lines.
func (p *Pipeline) Render(ctx context.Context) ([]string, error) {
	events, err := p.fetcher.Fetch(ctx)
	if err != nil {
		p.metrics.LastRunSuccess.Set(0)
		return p.fetchFailure(err)
	}
	p.ready.Store(true)
	p.metrics.EventsFetched.Add(float64(len(events)))

	if len(events) == 0 {
		p.logger.Warn("no earthquakes in window")
		p.metrics.LastRunSuccess.Set(1)
		return nil, nil
	}

	agg := p.aggregate(events)

	lines := make([]string, 0, 2*len(events))
	records := make([]domain.QuakeRecord, 0, len(events))
	for _, e := range events {
		note := domain.NewNote(e, agg)
		lines = append(lines, domain.CommentLine(e), note.Line())
		records = append(records, domain.NewQuakeRecord(e, note))
	}
	p.metrics.LinesRendered.WithLabelValues("comment").Add(float64(len(events)))
	p.metrics.LinesRendered.WithLabelValues("note").Add(float64(len(events)))
	p.metrics.LastRunSuccess.Set(1)

	p.logger.Info("rendered sequence",
		"events", len(events),
		"magnitude_min", agg.Magnitude.Min,
		"magnitude_max", agg.Magnitude.Max,
	)

	p.publish(ctx, records)
	return lines, nil
}

func (p *Pipeline) fetchFailure(err error) ([]string, error) {
	var fetchErr *domain.FetchError
	if errors.As(err, &fetchErr) {
		p.logger.Error("earthquake fetch failed", "status", fetchErr.StatusCode)
		p.metrics.LinesRendered.WithLabelValues("error").Inc()
		return []string{fetchErr.Line()}, err
	}
	if errors.Is(err, domain.ErrMalformedResponse) {
		p.metrics.MalformedErrors.Inc()
	}
	p.logger.Error("earthquake fetch failed", "error", err)
	return nil, err
}

// aggregate computes the normalization ranges and reports every series that
// collapsed to a single value. Such series render at the midpoint of their
// output range.
func (p *Pipeline) aggregate(events []domain.Event) domain.Aggregates {
	agg := domain.Aggregate(events)
	for _, series := range agg.DegenerateSeries() {
		p.logger.Warn("degenerate range, notes use the midpoint", "series", series, "events", len(events))
		p.metrics.DegenerateRange.WithLabelValues(series).Inc()
	}
	return agg
}

// publish enriches and forwards records. Failures are logged and never
// affect the rendered sequence.
func (p *Pipeline) publish(ctx context.Context, records []domain.QuakeRecord) {
	if p.publisher == nil {
		return
	}
	for i := range records {
		records[i] = domain.EnrichWithGeocoding(ctx, records[i], p.geocoder, p.logger)
	}
	if err := p.publisher.Publish(ctx, records); err != nil {
		p.logger.Warn("publish quake records failed", "error", err, "count", len(records))
		p.metrics.PublishErrors.Inc()
		return
	}
	p.metrics.RecordsPublished.Add(float64(len(records)))
}
