package domain

// Range is the closed [Min, Max] span of one numeric series.
type Range struct {
	Min float64
	Max float64
}

// Degenerate reports whether the range has no width, so rescaling against it
// cannot divide by (Max - Min).
func (r Range) Degenerate() bool {
	return r.Max == r.Min
}

// Aggregates holds the normalization bounds for one event set.
type Aggregates struct {
	Time      Range
	Magnitude Range
	Longitude Range
}

// DegenerateSeries names the series whose range has no width.
func (a Aggregates) DegenerateSeries() []string {
	var names []string
	if a.Time.Degenerate() {
		names = append(names, "time")
	}
	if a.Magnitude.Degenerate() {
		names = append(names, "magnitude")
	}
	if a.Longitude.Degenerate() {
		names = append(names, "longitude")
	}
	return names
}

// Aggregate computes min/max of time, magnitude, and longitude across events.
// The zero Aggregates is returned for an empty set.
func Aggregate(events []Event) Aggregates {
	if len(events) == 0 {
		return Aggregates{}
	}

	first := events[0]
	agg := Aggregates{
		Time:      Range{Min: float64(first.Time), Max: float64(first.Time)},
		Magnitude: Range{Min: first.Magnitude, Max: first.Magnitude},
		Longitude: Range{Min: first.Longitude, Max: first.Longitude},
	}
	for _, e := range events[1:] {
		agg.Time = agg.Time.extend(float64(e.Time))
		agg.Magnitude = agg.Magnitude.extend(e.Magnitude)
		agg.Longitude = agg.Longitude.extend(e.Longitude)
	}
	return agg
}

func (r Range) extend(v float64) Range {
	if v < r.Min {
		r.Min = v
	}
	if v > r.Max {
		r.Max = v
	}
	return r
}

// Rescale maps x linearly from r onto [outMin, outMax].
// A degenerate r maps every x to the midpoint of the output range.
func Rescale(x float64, r Range, outMin, outMax float64) float64 {
	if r.Degenerate() {
		return outMin + (outMax-outMin)/2
	}
	return outMin + (outMax-outMin)*(x-r.Min)/(r.Max-r.Min)
}
