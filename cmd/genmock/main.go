// Command genmock renders a saved USGS GeoJSON response offline and writes the
// fixtures the test suites compare against: the sequence text and the JSON
// records that would be published to Kafka. It uses the domain package
// directly so the fixtures match real pipeline output.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -geojson data/mock/usgs_2024-03-15_m55.geojson \
//	  -seq-out data/mock/sequence_2024-03-15.txt \
//	  -records-out data/mock/quake_records_2024-03-15.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/quakeseq/internal/domain"
	"github.com/jonboulle/clockwork"
)

// processedAt pins the ProcessedAt timestamp of every generated record.
var processedAt = time.Date(2024, time.March, 16, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	geojsonPath := flag.String("geojson", "", "saved USGS GeoJSON FeatureCollection")
	seqOut := flag.String("seq-out", "", "output path for the rendered sequence")
	recordsOut := flag.String("records-out", "", "output path for the quake record JSON fixture")
	flag.Parse()

	if *geojsonPath == "" || *seqOut == "" || *recordsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -geojson, -seq-out, -records-out")
	}

	// Set a fixed clock for reproducible ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(processedAt))
	defer domain.SetClock(nil)

	events, err := readEvents(*geojsonPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *geojsonPath, err)
	}
	log.Printf("parsed %d events", len(events))

	lines, records := render(events)

	if err := writeFile(*seqOut, []byte(strings.Join(lines, "\n")+"\n")); err != nil {
		return fmt.Errorf("writing sequence: %w", err)
	}
	log.Printf("wrote sequence: %s (%d lines)", *seqOut, len(lines))

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := writeFile(*recordsOut, append(data, '\n')); err != nil {
		return fmt.Errorf("writing records: %w", err)
	}
	log.Printf("wrote records: %s", *recordsOut)

	printStats(events, domain.Aggregate(events))
	return nil
}

func readEvents(path string) ([]domain.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	return domain.ParseFeatureCollection(f)
}

func render(events []domain.Event) ([]string, []domain.QuakeRecord) {
	if len(events) == 0 {
		return nil, nil
	}
	agg := domain.Aggregate(events)
	lines := domain.RenderLines(events, agg)

	records := make([]domain.QuakeRecord, 0, len(events))
	for _, e := range events {
		records = append(records, domain.NewQuakeRecord(e, domain.NewNote(e, agg)))
	}
	return lines, records
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

type magnitudeCount struct {
	bucket string
	count  int
}

func printStats(events []domain.Event, agg domain.Aggregates) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(events))
	if len(events) == 0 {
		return
	}

	fmt.Printf("Time: %s .. %s\n",
		time.UnixMilli(int64(agg.Time.Min)).UTC().Format(time.RFC3339),
		time.UnixMilli(int64(agg.Time.Max)).UTC().Format(time.RFC3339))
	fmt.Printf("Magnitude: %g .. %g\n", agg.Magnitude.Min, agg.Magnitude.Max)
	fmt.Printf("Longitude: %g .. %g\n", agg.Longitude.Min, agg.Longitude.Max)
	if degenerate := agg.DegenerateSeries(); len(degenerate) > 0 {
		fmt.Printf("Degenerate series: %s\n", strings.Join(degenerate, ", "))
	}

	buckets := map[string]int{}
	for i := range events {
		buckets[fmt.Sprintf("M%.0f", events[i].Magnitude)]++
	}
	mc := make([]magnitudeCount, 0, len(buckets))
	for b, c := range buckets {
		mc = append(mc, magnitudeCount{b, c})
	}
	sort.Slice(mc, func(i, j int) bool { return mc[i].bucket < mc[j].bucket })
	fmt.Print("By magnitude: ")
	for _, m := range mc {
		fmt.Printf("%s=%d ", m.bucket, m.count)
	}
	fmt.Println()

	first := events[0]
	fmt.Printf("\nFirst event:\n")
	fmt.Printf("  ID: %s\n", first.ID)
	fmt.Printf("  %s\n", domain.CommentLine(first))
	fmt.Printf("  %s\n", domain.NewNote(first, agg).Line())
}
