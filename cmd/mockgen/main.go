package main

import (
	"flag"
	"fmt"
	"os"

	"stroke-triage/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mixed", "Scenario to generate: urban, rural, mixed")
	outDir := flag.String("out", "./.cache", "Output directory for mock files")
	name := flag.String("name", "mock", "File name prefix")
	primaries := flag.Int("primaries", 4, "Number of primary stroke centers")
	comprehensives := flag.Int("comprehensives", 2, "Number of comprehensive stroke centers")
	locations := flag.Int("locations", 50, "Number of locations")
	patients := flag.Int("patients", 100, "Number of patients")
	seed := flag.Uint64("seed", 1, "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:       *scenario,
		Primaries:      *primaries,
		Comprehensives: *comprehensives,
		Locations:      *locations,
		Patients:       *patients,
		Seed:           *seed,
	}

	fmt.Printf("Generating scenario '%s' (%d PSC, %d CSC, %d locations, %d patients) to %s...\n",
		cfg.Scenario, cfg.Primaries, cfg.Comprehensives, cfg.Locations, cfg.Patients, *outDir)

	net, err := engine.Generate(cfg)
	if err != nil {
		fmt.Printf("Failed to generate mock data: %v\n", err)
		os.Exit(1)
	}
	if err := engine.Save(*outDir, *name, net); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
