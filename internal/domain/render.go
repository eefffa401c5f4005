package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Instrument is the AlloLib voice every note is played on.
const Instrument = "SineEnv"

// Output ranges for each rescaled note field.
var (
	amplitudeRange = Range{Min: 0.01, Max: 0.1}
	startRange     = Range{Min: 1, Max: 60}
	pitchRange     = Range{Min: 110, Max: 880}
	durationRange  = Range{Min: 0.1, Max: 2.0}
	panRange       = Range{Min: -1, Max: 1}
)

// Envelope times are fixed for every note.
const (
	attackTime  = 0.01
	releaseTime = 1.0
)

// Note is one synthesized sound event in the sequence.
type Note struct {
	Start     float64 `json:"start"`     // seconds into the sequence
	Duration  float64 `json:"duration"`  // seconds
	Amplitude float64 `json:"amplitude"` // linear gain
	Frequency float64 `json:"frequency"` // Hz
	Attack    float64 `json:"attack"`
	Release   float64 `json:"release"`
	Pan       float64 `json:"pan"` // -1 left .. 1 right
	X         float64 `json:"x"`   // raw longitude
	Y         float64 `json:"y"`   // raw latitude
}

// NewNote derives the note for an event from the set's aggregate ranges.
func NewNote(e Event, agg Aggregates) Note {
	return Note{
		Start:     rescaleTo(float64(e.Time), agg.Time, startRange),
		Duration:  rescaleTo(e.Magnitude, agg.Magnitude, durationRange),
		Amplitude: rescaleTo(e.Magnitude, agg.Magnitude, amplitudeRange),
		Frequency: rescaleTo(e.Magnitude, agg.Magnitude, pitchRange),
		Attack:    attackTime,
		Release:   releaseTime,
		Pan:       rescaleTo(e.Longitude, agg.Longitude, panRange),
		X:         e.Longitude,
		Y:         e.Latitude,
	}
}

func rescaleTo(x float64, from, to Range) float64 {
	return Rescale(x, from, to.Min, to.Max)
}

// Line renders the note as a sequencer instruction:
//
//	@ start duration SineEnv amplitude frequency attack release pan x y
func (n Note) Line() string {
	fields := []string{
		"@",
		formatNumber(n.Start),
		formatNumber(n.Duration),
		Instrument,
		formatNumber(n.Amplitude),
		formatNumber(n.Frequency),
		formatNumber(n.Attack),
		formatNumber(n.Release),
		formatNumber(n.Pan),
		formatNumber(n.X),
		formatNumber(n.Y),
	}
	return strings.Join(fields, " ")
}

// CommentLine renders the human-readable description of an event.
func CommentLine(e Event) string {
	return fmt.Sprintf("# Title: %s Date/Time: %s, Latitude: %s, Longitude: %s, Magnitude: %s",
		e.Title,
		e.OccurredAt().Format("2006-01-02 15:04:05"),
		formatNumber(e.Latitude),
		formatNumber(e.Longitude),
		formatNumber(e.Magnitude),
	)
}

// ErrorLine is the single line written when the upstream fetch fails.
func ErrorLine(statusCode int) string {
	return fmt.Sprintf("# Error: Unable to retrieve earthquake data. Status code %d", statusCode)
}

// RenderLines produces the comment and note line for every event, in order.
func RenderLines(events []Event, agg Aggregates) []string {
	lines := make([]string, 0, 2*len(events))
	for _, e := range events {
		lines = append(lines, CommentLine(e), NewNote(e, agg).Line())
	}
	return lines
}

// formatNumber writes the shortest decimal that round-trips to v. Integral
// values keep a ".0" suffix and exponent notation is reserved for magnitudes
// below 1e-4 or at least 1e16.
func formatNumber(v float64) string {
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
