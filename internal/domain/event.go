package domain

import "time"

// FeatureCollection is the GeoJSON document returned by the USGS query endpoint.
// Fields the pipeline relies on are pointers so that absence can be told
// apart from zero during validation.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one earthquake in the USGS response.
type Feature struct {
	ID         string             `json:"id"`
	Properties *FeatureProperties `json:"properties"`
	Geometry   *FeatureGeometry   `json:"geometry"`
}

// FeatureProperties holds the subset of USGS properties used for rendering.
type FeatureProperties struct {
	Time  *int64   `json:"time"`  // epoch milliseconds
	Mag   *float64 `json:"mag"`   // may be null upstream
	Title *string  `json:"title"` // e.g. "M 6.1 - 45 km SW of Tual, Indonesia"
}

// FeatureGeometry is a GeoJSON point: [lon, lat] or [lon, lat, depth].
type FeatureGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Event is one validated earthquake record.
type Event struct {
	ID        string  `json:"id,omitempty"`
	Time      int64   `json:"time"` // epoch milliseconds
	Magnitude float64 `json:"magnitude"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Depth     float64 `json:"depth,omitempty"`
	Title     string  `json:"title"`
}

// OccurredAt converts the millisecond timestamp to UTC, truncated to whole seconds.
func (e Event) OccurredAt() time.Time {
	return time.UnixMilli(e.Time).UTC().Truncate(time.Second)
}

// QuakeRecord is the serialized form published to the sink topic.
type QuakeRecord struct {
	Event
	OccurredAt time.Time `json:"occurred_at"`
	Note       Note      `json:"note"`

	// Geocoding enrichment fields.
	PlaceName     string  `json:"place_name,omitempty"`
	GeoConfidence float64 `json:"geo_confidence,omitempty"`
	GeoSource     string  `json:"geo_source,omitempty"` // "reverse", "original", "failed"

	ProcessedAt time.Time `json:"processed_at"`
}

// NewQuakeRecord pairs an event with its rendered note and stamps ProcessedAt.
func NewQuakeRecord(event Event, note Note) QuakeRecord {
	return QuakeRecord{
		Event:       event,
		OccurredAt:  event.OccurredAt(),
		Note:        note,
		ProcessedAt: clock.Now().UTC(),
	}
}

