package engine

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"stroke-triage/internal/center"
	"stroke-triage/internal/dataio"
	"stroke-triage/internal/patient"
)

type GeneratorConfig struct {
	Scenario       string // "urban", "rural" or "mixed"
	Primaries      int
	Comprehensives int
	Locations      int
	Patients       int
	Seed           uint64
}

// Network is one synthetic region ready to be written as model inputs.
type Network struct {
	Centers   []center.Center
	Locations []dataio.Location
	Patients  []patient.Patient
}

// CenterIDs returns the ids in file order.
func (n Network) CenterIDs() []string {
	ids := make([]string, len(n.Centers))
	for i, c := range n.Centers {
		ids[i] = c.ID
	}
	return ids
}

// travelProfile bounds drive times in minutes for a scenario.
type travelProfile struct {
	lo, hi      float64
	rangeShare  float64 // share of cells reported as [min, max]
	unreachable float64 // share of blank cells
}

var profiles = map[string]travelProfile{
	"urban": {lo: 5, hi: 45, rangeShare: 0.1, unreachable: 0.02},
	"rural": {lo: 20, hi: 150, rangeShare: 0.3, unreachable: 0.2},
	"mixed": {lo: 10, hi: 100, rangeShare: 0.2, unreachable: 0.1},
}

func Generate(cfg GeneratorConfig) (Network, error) {
	prof, ok := profiles[cfg.Scenario]
	if !ok {
		return Network{}, fmt.Errorf("unknown scenario %q", cfg.Scenario)
	}
	if cfg.Comprehensives <= 0 {
		return Network{}, fmt.Errorf("at least one comprehensive center is required")
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, 0))

	var net Network
	for i := range cfg.Primaries {
		id := strconv.Itoa(i)
		dest := strconv.Itoa(cfg.Primaries + rng.IntN(cfg.Comprehensives))
		minutes := round(prof.lo + (prof.hi-prof.lo)*rng.Float64())
		c, err := center.NewPrimary(id,
			center.WithName(fmt.Sprintf("Primary Center %d", i), "PSC"+id),
			center.WithDTN(center.RandomPrimaryDTN(rng)),
			center.WithTransfer(dest, minutes),
		)
		if err != nil {
			return Network{}, err
		}
		net.Centers = append(net.Centers, c)
	}
	for i := range cfg.Comprehensives {
		id := strconv.Itoa(cfg.Primaries + i)
		c, err := center.NewComprehensive(id,
			center.WithName(fmt.Sprintf("Comprehensive Center %d", i), "CSC"+id),
			center.WithDTN(center.RandomComprehensiveDTN(rng)),
			center.WithDTP(center.RandomDTP(rng)),
		)
		if err != nil {
			return Network{}, err
		}
		net.Centers = append(net.Centers, c)
	}

	for l := range cfg.Locations {
		travel := make(center.TravelTimes, len(net.Centers))
		for _, c := range net.Centers {
			if rng.Float64() < prof.unreachable {
				continue
			}
			minutes := round(prof.lo + (prof.hi-prof.lo)*rng.Float64())
			if rng.Float64() < prof.rangeShare {
				travel[c.ID] = center.TravelTime{Min: minutes, Max: minutes + round(5+10*rng.Float64())}
			} else {
				travel[c.ID] = center.FixedTravel(minutes)
			}
		}
		net.Locations = append(net.Locations, dataio.Location{ID: strconv.Itoa(l), Travel: travel})
	}

	for i := range cfg.Patients {
		p, err := patient.FromPopulation(rng, strconv.Itoa(i))
		if err != nil {
			return Network{}, err
		}
		net.Patients = append(net.Patients, p)
	}
	return net, nil
}

func round(v float64) float64 {
	return float64(int(v + 0.5))
}

// Save writes <name>_hospitals.csv, <name>_times.csv and <name>_patients.csv.
func Save(outDir, name string, net Network) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	if err := dataio.WriteCenters(filepath.Join(outDir, name+"_hospitals.csv"), net.Centers); err != nil {
		return err
	}
	if err := dataio.WriteTravelTimes(filepath.Join(outDir, name+"_times.csv"), net.CenterIDs(), net.Locations); err != nil {
		return err
	}
	if len(net.Patients) == 0 {
		return nil
	}
	return dataio.WritePatients(filepath.Join(outDir, name+"_patients.csv"), net.Patients)
}
