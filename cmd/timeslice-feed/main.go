package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `%[1]s: generate a role-tagged CSV feed of synthetic time series data
Usage:

 %[1]s > file

OR

 %[1]s | timeslice

Column headings carry their roles in parentheses, which is how the viewer
decides what each column means.

`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	dur := flag.Duration("sample-interval", 250*time.Millisecond, "Interval between emitted samples")
	outputName := flag.String("output", "-", "Output file for CSV rows")
	seriesNames := flag.String("series", "web,db", "Comma-separated series names to emit")
	count := flag.Int("count", 0, "Number of samples per series to emit before exiting (0 means run until interrupted)")
	gapEvery := flag.Int("gap-every", 40, "Jump the synthetic clock forward every N samples to demonstrate gaps (0 disables)")
	flag.Parse()

	var output io.WriteCloser
	if *outputName == "-" {
		output = os.Stdout
	} else {
		f, err := os.Create(*outputName)
		if err != nil {
			log.Fatalf("failed opening output file %q: %v", *outputName, err)
		}
		output = f
	}
	names := strings.Split(*seriesNames, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}

	writer := csv.NewWriter(output)
	headings := []string{
		"time (ts)",
		"load (value)",
		"host (series)",
		"spike (anomaly)",
		"deploy (marker)",
		"region (filter)",
		"stroke (line)",
		"shade (area)",
	}
	if err := writer.Write(headings); err != nil {
		log.Fatalf("failed writing headings: %v", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Fatalf("failed flushing headings: %v", err)
	}

	regions := []string{"us-east", "eu-west", "ap-south"}
	// The clock is synthetic so that gap jumps are deterministic; the
	// ticker only paces emission.
	clock := time.Now().UTC()
	ticker := time.NewTicker(*dur)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer ticker.Stop()
	emitted := 0
	for {
		select {
		case <-sigChan:
			// We've gotten an interrupt; shut down.
			writer.Flush()
			if err := output.Close(); err != nil {
				log.Printf("failed closing output: %v", err)
			}
			return
		case <-ticker.C:
			for i, name := range names {
				if err := writer.Write(row(clock, emitted, i, name, regions)); err != nil {
					log.Fatalf("failed writing row: %v", err)
				}
			}
			writer.Flush()
			if err := writer.Error(); err != nil {
				log.Fatalf("failed flushing rows: %v", err)
			}
			emitted++
			clock = clock.Add(*dur)
			if *gapEvery > 0 && emitted%*gapEvery == 0 {
				clock = clock.Add(10 * *dur)
			}
			if *count > 0 && emitted >= *count {
				writer.Flush()
				if err := output.Close(); err != nil {
					log.Printf("failed closing output: %v", err)
				}
				return
			}
		}
	}
}

// row synthesizes one observation for one series: a slow wave with some
// texture, occasional spikes flagged as anomalies with color overrides,
// periodic deploy markers, and a rotating region for the filter column.
func row(at time.Time, tick, seriesIdx int, name string, regions []string) []string {
	phase := float64(tick) / 20 * 2 * math.Pi
	base := 50 + 15*float64(seriesIdx)
	value := base + 10*math.Sin(phase+float64(seriesIdx)) + 3*math.Sin(phase*3.7)
	rec := make([]string, 8)
	rec[0] = at.Format(time.RFC3339Nano)
	rec[1] = strconv.FormatFloat(value, 'f', 3, 64)
	if (tick+seriesIdx)%37 == 36 {
		// Occasionally withhold the measurement to exercise absent-point
		// rendering downstream.
		rec[1] = ""
	}
	rec[2] = name
	if tick > 0 && (tick+seriesIdx*7)%23 == 0 {
		rec[3] = strconv.FormatFloat(value*1.4, 'f', 3, 64)
		rec[6] = "#d32f2f"
		rec[7] = "#ef9a9a"
	}
	if tick > 0 && tick%50 == 0 && seriesIdx == 0 {
		rec[4] = fmt.Sprintf("deploy %d", tick/50)
	}
	rec[5] = regions[(tick/25)%len(regions)]
	return rec
}
