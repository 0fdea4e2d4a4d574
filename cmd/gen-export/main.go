package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/ivasko/courtline/internal/testexport"
	"github.com/ivasko/courtline/pkg/logger"
)

const generateTimeout = 2 * time.Minute

func main() {
	defaults := testexport.DefaultConfig("")

	var (
		outputDir   = flag.String("out", "data/raw", "Directory for the generated export files")
		numPeople   = flag.Int("people", defaults.NumPeople, "Number of distinct people to generate")
		dupRate     = flag.Float64("dup-rate", defaults.DuplicateRate, "Fraction of people duplicated under a misspelled name")
		numEvents   = flag.Int("events", defaults.NumEvents, "Number of events to generate")
		resPerHead  = flag.Int("reservations", defaults.ReservationsPerPerson, "Average reservations per person")
		orphanRate  = flag.Float64("orphan-rate", defaults.OrphanRate, "Fraction of reservations pointing at unknown people")
		seasonWeeks = flag.Int("weeks", defaults.SeasonWeeks, "Length of the generated season in weeks")
		seed        = flag.Int64("seed", defaults.Seed, "Random seed (same seed, same population shape)")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	cfg := testexport.DefaultConfig(*outputDir)
	cfg.NumPeople = *numPeople
	cfg.DuplicateRate = *dupRate
	cfg.NumEvents = *numEvents
	cfg.ReservationsPerPerson = *resPerHead
	cfg.OrphanRate = *orphanRate
	cfg.SeasonWeeks = *seasonWeeks
	cfg.Seed = *seed

	if err := testexport.Generate(ctx, cfg); err != nil {
		os.Stderr.WriteString("export generation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
