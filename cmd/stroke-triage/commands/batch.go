package commands

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"stroke-triage/internal/batch"
	"stroke-triage/internal/dataio"
	"stroke-triage/internal/patient"
	"stroke-triage/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// patientStream keeps generated patients independent of the per-unit
// simulation streams.
const patientStream = 1 << 63

var (
	batchPatient      patientFlags
	batchPatientsFile string
	batchPatients     int
	batchPopulation   bool
	batchSimulations  string
	batchLocations    []string
	batchResume       bool
	batchOutput       string
	batchDefaultTimes bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <hospitals.csv> <times.csv>",
	Short: "Evaluate many patients at every location of a travel-time file",
	Long: `Runs every (patient, location) pair on a bounded worker pool. Each finished pair is appended to the
results CSV and recorded in a checkpoint, so an interrupted batch continues with --resume.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hospitalsFile, timesFile := args[0], args[1]
		realDTN := !(batchDefaultTimes || cfg.UseDefaultTimes)

		centers, err := dataio.ReadCenters(hospitalsFile, !realDTN)
		if err != nil {
			return err
		}
		locations, err := dataio.ReadTravelTimes(timesFile)
		if err != nil {
			return err
		}
		locations, err = selectLocations(locations, batchLocations)
		if err != nil {
			return err
		}
		patients, err := batchPatientList(cmd)
		if err != nil {
			return err
		}

		draws, auto, err := parseSimulations(batchSimulations, params.Sampling.Draws)
		if err != nil {
			return err
		}

		output := batchOutput
		if output == "" {
			output = filepath.Join(cfg.OutputDir, resultsName(timesFile, hospitalsFile, params.Sampling.FixPerformance))
		}
		if _, err := os.Stat(output); err == nil && !batchResume {
			return fmt.Errorf("%s already exists; pass --resume to continue it", output)
		}
		if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
			return err
		}

		cp, err := openCheckpoint(filepath.Join(cfg.CheckpointDir, strings.TrimSuffix(filepath.Base(output), ".csv")), batchResume)
		if err != nil {
			return err
		}
		defer cp.Close()

		writer, err := dataio.NewResultWriter(output, centers)
		if err != nil {
			return err
		}
		defer writer.Close()

		runner := batch.NewRunner(batch.Config{
			Workers: cfg.Workers,
			Seed:    cfg.Seed,
			Draws:   draws,
			Auto:    auto,
			Params:  params,
			RealDTN: realDTN,
		}, writer, cp)

		sum, err := runner.Run(cmd.Context(), patients, centers, locations)
		if err != nil {
			return err
		}

		if sum.Failed > 0 {
			fails, ferr := cp.Failures()
			if ferr == nil {
				for _, f := range fails {
					log.Warn().Str("unit", f.Key).Str("run_id", f.RunID).Str("error", f.Error).Msg("Unit needs a retry")
				}
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d completed, %d skipped, %d failed; results in %s\n",
			sum.Completed, sum.Skipped, sum.Failed, output)
		return nil
	},
}

// openCheckpoint opens the batch checkpoint at path. Without resume any
// earlier checkpoint is discarded.
func openCheckpoint(path string, resume bool) (*store.Checkpoint, error) {
	if !resume {
		if err := os.RemoveAll(path); err != nil {
			return nil, fmt.Errorf("clear checkpoint %s: %w", path, err)
		}
	}
	return store.Open(path)
}

func batchPatientList(cmd *cobra.Command) ([]patient.Patient, error) {
	if batchPatientsFile != "" {
		return dataio.ReadPatients(batchPatientsFile)
	}
	if batchPatients <= 0 {
		return nil, errors.New("--patients must be positive")
	}

	fixed, err := fixedFromFlags(cmd, &batchPatient)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, patientStream))
	patients := make([]patient.Patient, 0, batchPatients)
	for i := range batchPatients {
		id := strconv.Itoa(i)
		var p patient.Patient
		if batchPopulation {
			p, err = patient.FromPopulation(rng, id)
		} else {
			p, err = patient.Random(rng, id, fixed)
		}
		if err != nil {
			return nil, fmt.Errorf("patient %s: %w", id, err)
		}
		patients = append(patients, p)
	}
	return patients, nil
}

func selectLocations(all []dataio.Location, ids []string) ([]dataio.Location, error) {
	if len(ids) == 0 {
		return all, nil
	}
	out := make([]dataio.Location, 0, len(ids))
	for _, id := range ids {
		i := slices.IndexFunc(all, func(l dataio.Location) bool { return l.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("location %q not found", id)
		}
		out = append(out, all[i])
	}
	return out, nil
}

// resultsName derives the results file name from the inputs.
func resultsName(timesFile, hospitalsFile string, fixed bool) string {
	base := func(p string) string { return strings.TrimSuffix(filepath.Base(p), ".csv") }
	mode := "random"
	if fixed {
		mode = "fixed"
	}
	return fmt.Sprintf("times=%s_hospitals=%s_%s.csv", base(timesFile), base(hospitalsFile), mode)
}

func init() {
	batchPatient.register(batchCmd)
	batchCmd.Flags().StringVar(&batchPatientsFile, "patients-file", "", "patient CSV; overrides --patients")
	batchCmd.Flags().IntVar(&batchPatients, "patients", 10, "number of random patients to generate")
	batchCmd.Flags().BoolVar(&batchPopulation, "population", false, "draw random patients from the registry-shaped population")
	batchCmd.Flags().StringVar(&batchSimulations, "simulations", "", "draws per unit or \"auto\"; defaults to SIMULATIONS")
	batchCmd.Flags().StringSliceVar(&batchLocations, "locations", nil, "location IDs to run; defaults to all")
	batchCmd.Flags().BoolVar(&batchResume, "resume", false, "continue an existing results file")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "results CSV; defaults to a name under OUTPUT_DIR")
	batchCmd.Flags().BoolVar(&batchDefaultTimes, "default-times", false, "ignore recorded hospital delays")
	rootCmd.AddCommand(batchCmd)
}
