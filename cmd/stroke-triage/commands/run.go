package commands

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"text/tabwriter"

	"stroke-triage/internal/dataio"
	"stroke-triage/internal/frontier"
	"stroke-triage/internal/triage"
	"stroke-triage/internal/visuals"

	"github.com/spf13/cobra"
)

var (
	runPatient      patientFlags
	runLocation     string
	runSimulations  string
	runDefaultTimes bool
	runCharts       bool
)

var runCmd = &cobra.Command{
	Use:   "run <hospitals.csv> <times.csv>",
	Short: "Evaluate one patient at one location",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := runPatient.patient(cmd)
		if err != nil {
			return err
		}
		centers, err := dataio.ReadCenters(args[0], runDefaultTimes || cfg.UseDefaultTimes)
		if err != nil {
			return err
		}
		locations, err := dataio.ReadTravelTimes(args[1])
		if err != nil {
			return err
		}
		idx := slices.IndexFunc(locations, func(l dataio.Location) bool { return l.ID == runLocation })
		if idx < 0 {
			return fmt.Errorf("location %q not found in %s", runLocation, args[1])
		}

		draws, auto, err := parseSimulations(runSimulations, params.Sampling.Draws)
		if err != nil {
			return err
		}

		m := triage.NewModel(p, centers, locations[idx].Travel, params)
		rng := rand.New(rand.NewPCG(cfg.Seed, 0))
		var res *frontier.Results
		if auto {
			res, err = m.RunUntilConverged(cmd.Context(), rng, draws)
		} else {
			res, _, _, err = m.Run(cmd.Context(), rng, draws)
		}
		if err != nil {
			return err
		}
		if err := printResults(cmd, p.String(), res); err != nil {
			return err
		}
		if runCharts {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%s\n", visuals.GenerateNetworkFlowchart(centers, locations[idx].Travel))
			if pie := visuals.GenerateDestinationPie(res); pie != "" {
				fmt.Fprintf(out, "\n%s\n", pie)
			}
			if bars := visuals.GenerateQALYChart(res.Summaries()); bars != "" {
				fmt.Fprintf(out, "\n%s\n", bars)
			}
		}
		return nil
	},
}

func printResults(cmd *cobra.Command, title string, res *frontier.Results) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d draws, %d infeasible\n\n", title, res.Draws, res.Infeasible)

	counts := res.CountsByCenter()
	shares := res.PercentagesByCenter()
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DESTINATION\tOPTIMAL\tSHARE")
	for _, label := range labels {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", label, counts[label], 100*shares[label])
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "STRATEGY\tMEDIAN QALY\tMEDIAN COST\tFEASIBLE\tOPTIMAL")
	for _, s := range res.Summaries() {
		fmt.Fprintf(tw, "%s\t%.3f\t%.0f\t%d\t%d\n", s.Strategy, s.MedianQALY, s.MedianCost, s.Feasible, s.Optimal)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if dest, ok := res.OptimalDestination(); ok && res.Draws > res.Infeasible {
		fmt.Fprintf(out, "\nMost often cost-effective: %s\n", dest)
	}
	return nil
}

func init() {
	runPatient.register(runCmd)
	runCmd.Flags().StringVar(&runLocation, "location", "", "location ID in the travel-time file")
	runCmd.Flags().StringVar(&runSimulations, "simulations", "", "number of draws or \"auto\"; defaults to SIMULATIONS")
	runCmd.Flags().BoolVar(&runDefaultTimes, "default-times", false, "ignore recorded hospital delays")
	runCmd.Flags().BoolVar(&runCharts, "charts", false, "print Mermaid charts of the network and results")
	_ = runCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(runCmd)
}
