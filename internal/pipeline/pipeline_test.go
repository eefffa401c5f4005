package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/couchcryptid/quakeseq/internal/domain"
	"github.com/couchcryptid/quakeseq/internal/observability"
	"github.com/couchcryptid/quakeseq/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockFetcher struct {
	events []domain.Event
	err    error
	calls  int
}

func (m *mockFetcher) Fetch(_ context.Context) ([]domain.Event, error) {
	m.calls++
	return m.events, m.err
}

type mockPublisher struct {
	published []domain.QuakeRecord
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, records []domain.QuakeRecord) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, records...)
	return nil
}

type mockGeocoder struct {
	result domain.GeocodingResult
	calls  int
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, nil
}

type failingWriter struct{}

func (failingWriter) Write(_ []byte) (int, error) { return 0, errors.New("disk full") }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func makeEvents(n int) []domain.Event {
	events := make([]domain.Event, n)
	for i := range events {
		events[i] = domain.Event{
			ID:        fmt.Sprintf("us%04d", i),
			Time:      1700000000000 + int64(i)*3600000,
			Magnitude: 5.5 + 0.3*float64(i),
			Latitude:  float64(i) - 10,
			Longitude: -120 + 40*float64(i),
			Title:     fmt.Sprintf("M %.1f - event %d", 5.5+0.3*float64(i), i),
		}
	}
	return events
}

func outputLines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
}

// --- tests ---

func TestPipeline_Run_TwoLinesPerEvent(t *testing.T) {
	events := makeEvents(5)
	metrics := newTestMetrics()
	p := pipeline.New(&mockFetcher{events: events}, nil, nil, discardLogger(), metrics)

	var buf bytes.Buffer
	require.NoError(t, p.Run(context.Background(), &buf))

	lines := outputLines(&buf)
	require.Len(t, lines, 2*len(events))
	for i, e := range events {
		assert.Equal(t, domain.CommentLine(e), lines[2*i])
		assert.True(t, strings.HasPrefix(lines[2*i+1], "@ "), "line %d", 2*i+1)
	}
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 5, testutil.ToFloat64(metrics.EventsFetched), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(metrics.LinesRendered.WithLabelValues("note")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.LastRunSuccess), 0)
}

func TestPipeline_Run_RangeEndpoints(t *testing.T) {
	events := []domain.Event{
		{ID: "a", Time: 1700000000000, Magnitude: 5.5, Latitude: 12, Longitude: -100, Title: "first"},
		{ID: "b", Time: 1700086400000, Magnitude: 7.0, Latitude: -3, Longitude: 50, Title: "second"},
	}
	p := pipeline.New(&mockFetcher{events: events}, nil, nil, discardLogger(), newTestMetrics())

	var buf bytes.Buffer
	require.NoError(t, p.Run(context.Background(), &buf))

	lines := outputLines(&buf)
	require.Len(t, lines, 4)
	assert.Equal(t, "@ 1.0 0.1 SineEnv 0.01 110.0 0.01 1.0 -1.0 -100.0 12.0", lines[1])

	fields := strings.Fields(lines[3])
	require.Len(t, fields, 11)
	assert.Equal(t, "60.0", fields[1])
	assert.Equal(t, "880.0", fields[5])
	assert.Equal(t, "1.0", fields[8])
}

func TestPipeline_Run_FetchStatusError(t *testing.T) {
	metrics := newTestMetrics()
	pub := &mockPublisher{}
	p := pipeline.New(&mockFetcher{err: &domain.FetchError{StatusCode: 503}}, pub, nil, discardLogger(), metrics)

	var buf bytes.Buffer
	err := p.Run(context.Background(), &buf)

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "# Error: Unable to retrieve earthquake data. Status code 503\n", buf.String())
	assert.NotContains(t, buf.String(), "@")
	assert.Empty(t, pub.published)
	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.LinesRendered.WithLabelValues("error")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.LastRunSuccess), 0)
}

func TestPipeline_Run_WrappedFetchStatusError(t *testing.T) {
	wrapped := fmt.Errorf("query window: %w", &domain.FetchError{StatusCode: 404})
	p := pipeline.New(&mockFetcher{err: wrapped}, nil, nil, discardLogger(), newTestMetrics())

	var buf bytes.Buffer
	require.Error(t, p.Run(context.Background(), &buf))
	assert.Equal(t, []string{"# Error: Unable to retrieve earthquake data. Status code 404"}, outputLines(&buf))
}

func TestPipeline_Run_MalformedResponse(t *testing.T) {
	metrics := newTestMetrics()
	err := fmt.Errorf("%w: feature 0: missing properties.mag", domain.ErrMalformedResponse)
	p := pipeline.New(&mockFetcher{err: err}, nil, nil, discardLogger(), metrics)

	var buf bytes.Buffer
	runErr := p.Run(context.Background(), &buf)

	require.ErrorIs(t, runErr, domain.ErrMalformedResponse)
	assert.Empty(t, buf.String())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.MalformedErrors), 0)
}

func TestPipeline_Run_TransportError(t *testing.T) {
	p := pipeline.New(&mockFetcher{err: errors.New("dial tcp: connection refused")}, nil, nil, discardLogger(), newTestMetrics())

	var buf bytes.Buffer
	require.Error(t, p.Run(context.Background(), &buf))
	assert.Empty(t, buf.String())
}

func TestPipeline_Run_EmptyEventSet(t *testing.T) {
	pub := &mockPublisher{}
	p := pipeline.New(&mockFetcher{events: []domain.Event{}}, pub, nil, discardLogger(), newTestMetrics())

	var buf bytes.Buffer
	require.NoError(t, p.Run(context.Background(), &buf))
	assert.Empty(t, buf.String())
	assert.Empty(t, pub.published)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_SingleEventDegenerate(t *testing.T) {
	metrics := newTestMetrics()
	events := []domain.Event{{ID: "solo", Time: 1700000000000, Magnitude: 6.0, Latitude: 1, Longitude: 10.0, Title: "solo"}}
	p := pipeline.New(&mockFetcher{events: events}, nil, nil, discardLogger(), metrics)

	var buf bytes.Buffer
	require.NoError(t, p.Run(context.Background(), &buf))

	lines := outputLines(&buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "@ 30.5 1.05 SineEnv 0.05500000000000001 495.0 0.01 1.0 0.0 10.0 1.0", lines[1])
	for _, series := range []string{"time", "magnitude", "longitude"} {
		assert.InDelta(t, 1, testutil.ToFloat64(metrics.DegenerateRange.WithLabelValues(series)), 0, series)
	}
}

func TestPipeline_Run_PublishesEnrichedRecords(t *testing.T) {
	events := makeEvents(3)
	metrics := newTestMetrics()
	pub := &mockPublisher{}
	geo := &mockGeocoder{result: domain.GeocodingResult{FormattedAddress: "Somewhere, Earth", Confidence: 0.8}}
	p := pipeline.New(&mockFetcher{events: events}, pub, geo, discardLogger(), metrics)

	var buf bytes.Buffer
	require.NoError(t, p.Run(context.Background(), &buf))

	require.Len(t, pub.published, 3)
	assert.Equal(t, 3, geo.calls)
	for i, rec := range pub.published {
		assert.Equal(t, events[i], rec.Event)
		assert.Equal(t, "Somewhere, Earth", rec.PlaceName)
		assert.Equal(t, "reverse", rec.GeoSource)
		assert.Contains(t, buf.String(), rec.Note.Line())
	}
	assert.NotContains(t, buf.String(), "Somewhere")
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.RecordsPublished), 0)
}

func TestPipeline_Run_PublishFailureKeepsOutput(t *testing.T) {
	events := makeEvents(2)
	metrics := newTestMetrics()
	pub := &mockPublisher{err: errors.New("broker unavailable")}
	p := pipeline.New(&mockFetcher{events: events}, pub, nil, discardLogger(), metrics)

	var buf bytes.Buffer
	require.NoError(t, p.Run(context.Background(), &buf))
	assert.Len(t, outputLines(&buf), 4)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PublishErrors), 0)
}

func TestPipeline_Run_WriteError(t *testing.T) {
	p := pipeline.New(&mockFetcher{events: makeEvents(1)}, nil, nil, discardLogger(), newTestMetrics())

	err := p.Run(context.Background(), failingWriter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write sequence")
}

func TestPipeline_CheckReadiness_BeforeFirstFetch(t *testing.T) {
	fetcher := &mockFetcher{}
	p := pipeline.New(fetcher, nil, nil, discardLogger(), newTestMetrics())

	err := p.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, fetcher.calls)
}

func TestPipeline_Render_IsRepeatable(t *testing.T) {
	fetcher := &mockFetcher{events: makeEvents(4)}
	p := pipeline.New(fetcher, nil, nil, discardLogger(), newTestMetrics())

	first, err := p.Render(context.Background())
	require.NoError(t, err)
	second, err := p.Render(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, fetcher.calls)
}
