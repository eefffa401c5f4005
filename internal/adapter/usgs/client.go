package usgs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/quakeseq/internal/domain"
	"github.com/couchcryptid/quakeseq/internal/observability"
)

// DefaultBaseURL is the public USGS earthquake service.
const DefaultBaseURL = "https://earthquake.usgs.gov"

const queryPath = "/fdsnws/event/1/query"

// Options configure the query sent to the event service.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	WindowDays   int
	MinMagnitude float64
}

// Client fetches earthquake events from the USGS FDSN event service.
// It implements pipeline.Fetcher.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	windowDays   int
	minMagnitude float64
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewClient creates a USGS client.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient:   newHTTPClient(opts.Timeout),
		baseURL:      baseURL,
		windowDays:   opts.WindowDays,
		minMagnitude: opts.MinMagnitude,
		metrics:      metrics,
		logger:       logger,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// QueryURL builds the request URL for the window ending on the current UTC date.
func (c *Client) QueryURL() string {
	end := domain.Now()
	start := end.AddDate(0, 0, -c.windowDays)

	params := url.Values{
		"format":       {"geojson"},
		"starttime":    {start.Format(time.DateOnly)},
		"endtime":      {end.Format(time.DateOnly)},
		"minmagnitude": {strconv.FormatFloat(c.minMagnitude, 'f', -1, 64)},
	}
	return c.baseURL + queryPath + "?" + params.Encode()
}

// Fetch issues a single GET and validates the response into an event set.
// A non-200 status is returned as *domain.FetchError.
func (c *Client) Fetch(ctx context.Context) ([]domain.Event, error) {
	fullURL := c.QueryURL()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("usgs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.FetchRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &domain.FetchError{StatusCode: resp.StatusCode}
	}
	c.metrics.FetchRequests.WithLabelValues("200").Inc()

	events, err := domain.ParseFeatureCollection(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("fetched earthquakes", "url", fullURL, "count", len(events))
	return events, nil
}
