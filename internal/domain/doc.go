// Package domain models USGS earthquake events and their rendering into an
// AlloLib SineEnv synth sequence.
//
// # Data Source
//
// Events come from the USGS FDSN event web service,
// https://earthquake.usgs.gov/fdsnws/event/1/query, requested with
// format=geojson. The response is a GeoJSON FeatureCollection; each feature
// carries one earthquake.
//
// # USGS Data Conventions
//
// Time:
//
//	properties.time is milliseconds since the Unix epoch, UTC.
//
// Coordinates:
//
//	geometry.coordinates is [longitude, latitude, depth]. Longitude comes
//	first, as in every GeoJSON document. Depth is kilometres and optional.
//
// Magnitude:
//
//	properties.mag is a decimal on the scale reported by the network
//	(usually Mww or mb). The feed may send null for unreviewed events;
//	such features are rejected by [ParseFeatureCollection].
//
// # Sequence Format
//
// The output is a line-oriented .synthSequence file:
//
//	# free text                                      (comment, ignored)
//	@ start duration SineEnv amp freq attack release pan x y
//
// Every event produces a comment line followed by a note line. Note fields are
// linear rescales of the raw fields across the whole event set (see
// [Aggregate] and [Rescale]); x and y are the raw longitude and latitude.
//
// Numbers are written the way the sequencer files have always been written:
// shortest round-trip decimal, with ".0" on integral values and exponent
// notation only outside [1e-4, 1e16).
package domain
