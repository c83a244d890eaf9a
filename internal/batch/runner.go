// Package batch fans (patient, location) units out over a bounded worker
// pool, writing each finished unit as it completes.
package batch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync/atomic"

	"stroke-triage/internal/center"
	"stroke-triage/internal/dataio"
	"stroke-triage/internal/frontier"
	"stroke-triage/internal/patient"
	"stroke-triage/internal/store"
	"stroke-triage/internal/triage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// RowWriter receives finished rows. Implementations must be safe for
// concurrent use.
type RowWriter interface {
	Write(dataio.Row) error
}

// Checkpoint tracks finished and failed units across runs.
type Checkpoint interface {
	Done(key string) bool
	MarkDone(key string, row any) error
	MarkFailed(key, runID string, cause error) error
}

// Config controls a batch run.
type Config struct {
	Workers int
	Seed    uint64
	// Draws per unit; ignored when Auto runs each unit to convergence.
	Draws   int
	Auto    bool
	Params  triage.Params
	RealDTN bool
}

// Summary reports what a run did.
type Summary struct {
	RunID     string
	Completed int
	Skipped   int
	Failed    int
}

// Runner executes a batch.
type Runner struct {
	cfg        Config
	writer     RowWriter
	checkpoint Checkpoint
}

// NewRunner builds a runner. checkpoint may be nil, in which case nothing
// is skipped or recorded.
func NewRunner(cfg Config, writer RowWriter, checkpoint Checkpoint) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{cfg: cfg, writer: writer, checkpoint: checkpoint}
}

// Run evaluates every patient at every location. A failing unit is logged
// and recorded without stopping the others; the returned error is reserved
// for cancellation and output failures.
func (r *Runner) Run(ctx context.Context, patients []patient.Patient, centers []center.Center, locations []dataio.Location) (Summary, error) {
	runID := uuid.New().String()
	logger := log.With().Str("run_id", runID).Logger()
	logger.Info().
		Int("patients", len(patients)).
		Int("locations", len(locations)).
		Int("workers", r.cfg.Workers).
		Msg("Batch starting")

	var completed, skipped, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

units:
	for pi, p := range patients {
		for li, loc := range locations {
			if gctx.Err() != nil {
				break units
			}
			key := store.UnitKey(p.ID(), loc.ID)
			if r.checkpoint != nil && r.checkpoint.Done(key) {
				skipped.Add(1)
				continue
			}
			index := uint64(pi*len(locations) + li)

			g.Go(func() error {
				ulog := logger.With().Str("patient", p.ID()).Str("location", loc.ID).Logger()
				rng := rand.New(rand.NewPCG(r.cfg.Seed, index))

				res, err := r.unit(gctx, rng, p, centers, loc)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					failed.Add(1)
					ulog.Error().Err(err).Msg("Unit failed")
					if r.checkpoint != nil {
						if cerr := r.checkpoint.MarkFailed(key, runID, err); cerr != nil {
							return fmt.Errorf("record failure %s: %w", key, cerr)
						}
					}
					return nil
				}

				row := dataio.NewRow(loc.ID, p, centers, res, r.cfg.RealDTN, !r.cfg.Params.Sampling.FixPerformance)
				if err := r.writer.Write(row); err != nil {
					return fmt.Errorf("write %s: %w", key, err)
				}
				if r.checkpoint != nil {
					if err := r.checkpoint.MarkDone(key, row); err != nil {
						return fmt.Errorf("checkpoint %s: %w", key, err)
					}
				}
				completed.Add(1)
				ulog.Debug().Int("draws", res.Draws).Msg("Unit complete")
				return nil
			})
		}
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	sum := Summary{
		RunID:     runID,
		Completed: int(completed.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
	}
	logger.Info().
		Int("completed", sum.Completed).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Msg("Batch finished")
	return sum, err
}

func (r *Runner) unit(ctx context.Context, rng *rand.Rand, p patient.Patient, centers []center.Center, loc dataio.Location) (*frontier.Results, error) {
	m := triage.NewModel(p, centers, loc.Travel, r.cfg.Params)
	if r.cfg.Auto {
		return m.RunUntilConverged(ctx, rng, r.cfg.Draws)
	}
	res, _, _, err := m.Run(ctx, rng, r.cfg.Draws)
	return res, err
}
