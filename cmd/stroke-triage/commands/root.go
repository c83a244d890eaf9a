package commands

import (
	"context"
	"os"
	"os/signal"

	"stroke-triage/internal/config"
	"stroke-triage/internal/logging"
	"stroke-triage/internal/triage"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose    bool
	paramsFile string

	cfg    *config.AppConfig
	params triage.Params
)

var rootCmd = &cobra.Command{
	Use:   "stroke-triage",
	Short: "Cost-effectiveness of prehospital stroke triage",
	Long: `Estimates, for a stroke patient at a given location, the lifetime QALYs and costs of going to the
nearest primary center, the nearest comprehensive center, or a primary center followed by transfer
(drip-and-ship), and reports which choice is cost-effective across a Monte-Carlo simulation.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		// Load configuration
		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		if paramsFile == "" {
			paramsFile = cfg.ParamsFile
		}
		p, err := config.LoadParams(paramsFile, cfg)
		if err != nil {
			log.Fatal().Err(err).Str("path", paramsFile).Msg("Failed to load model parameters")
		}
		params, err = p.Triage()
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid model parameters")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("stroke-triage starting")
	},
}

// Execute runs the root command, cancelling on interrupt.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&paramsFile, "params", "", "model parameter file (YAML, JSON or TOML); defaults to PARAMS_FILE")
}
