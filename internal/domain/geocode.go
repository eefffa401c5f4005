package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding attempts to attach a place name to a published record.
// If geocoder is nil the record is returned unchanged; if geocoding fails the
// record is returned with GeoSource "failed" (graceful degradation).
func EnrichWithGeocoding(ctx context.Context, record QuakeRecord, geocoder Geocoder, logger *slog.Logger) QuakeRecord {
	if geocoder == nil {
		return record
	}

	result, err := geocoder.ReverseGeocode(ctx, record.Latitude, record.Longitude)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"event_id", record.ID,
			"lat", record.Latitude,
			"lon", record.Longitude,
			"error", err,
		)
		record.GeoSource = "failed"
		return record
	}

	// Epicentres at sea usually have no place; the USGS title still describes them.
	if result.FormattedAddress == "" {
		record.GeoSource = "original"
		return record
	}

	record.PlaceName = result.FormattedAddress
	record.GeoConfidence = result.Confidence
	record.GeoSource = "reverse"
	return record
}
