package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrMalformedResponse is returned when the upstream document does not have
// the FeatureCollection shape the renderer depends on.
var ErrMalformedResponse = errors.New("malformed earthquake response")

// ParseFeatureCollection decodes a USGS GeoJSON body and validates it into
// an ordered event set.
func ParseFeatureCollection(r io.Reader) ([]Event, error) {
	var fc FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrMalformedResponse, err)
	}
	return fc.Events()
}

// Events validates every feature and converts it to an Event, preserving
// response order. The first invalid feature aborts the conversion.
func (fc FeatureCollection) Events() ([]Event, error) {
	if fc.Features == nil {
		return nil, fmt.Errorf("%w: missing features", ErrMalformedResponse)
	}

	events := make([]Event, 0, len(fc.Features))
	for i, f := range fc.Features {
		event, err := f.event()
		if err != nil {
			return nil, fmt.Errorf("%w: feature %d (%s): %w", ErrMalformedResponse, i, f.ID, err)
		}
		events = append(events, event)
	}
	return events, nil
}

func (f Feature) event() (Event, error) {
	if f.Properties == nil {
		return Event{}, errors.New("missing properties")
	}
	if f.Geometry == nil {
		return Event{}, errors.New("missing geometry")
	}

	p := f.Properties
	switch {
	case p.Time == nil:
		return Event{}, errors.New("missing properties.time")
	case p.Mag == nil:
		return Event{}, errors.New("missing properties.mag")
	case p.Title == nil:
		return Event{}, errors.New("missing properties.title")
	}

	coords := f.Geometry.Coordinates
	if len(coords) < 2 {
		return Event{}, fmt.Errorf("geometry.coordinates has %d values, want at least 2", len(coords))
	}
	lon, lat := coords[0], coords[1]
	if math.Abs(lon) > 180 || math.Abs(lat) > 90 {
		return Event{}, fmt.Errorf("coordinates out of range: lon=%g lat=%g", lon, lat)
	}

	event := Event{
		ID:        f.ID,
		Time:      *p.Time,
		Magnitude: *p.Mag,
		Latitude:  lat,
		Longitude: lon,
		Title:     *p.Title,
	}
	if len(coords) > 2 {
		event.Depth = coords[2]
	}
	return event, nil
}
