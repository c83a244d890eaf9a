package mcp

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"

	"stroke-triage/internal/center"
	"stroke-triage/internal/dataio"
	"stroke-triage/internal/frontier"
	"stroke-triage/internal/patient"
	"stroke-triage/internal/triage"
	"stroke-triage/internal/visuals"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// PatientInput describes the patient of a tool call.
type PatientInput struct {
	ID                string   `json:"id,omitempty" jsonschema:"optional patient identifier"`
	Age               int      `json:"age" jsonschema:"age in years, 0 to 100"`
	Sex               string   `json:"sex" jsonschema:"male or female"`
	RACE              *float64 `json:"race,omitempty" jsonschema:"RACE score 0 to 9; takes precedence over nihss"`
	NIHSS             *float64 `json:"nihss,omitempty" jsonschema:"NIHSS score 0 to 42"`
	TimeSinceSymptoms float64  `json:"time_since_symptoms" jsonschema:"minutes since symptom onset"`
}

// CenterInput describes one center as seen from the patient's location.
type CenterInput struct {
	ID               string   `json:"id" jsonschema:"center identifier"`
	Type             string   `json:"type" jsonschema:"Primary or Comprehensive"`
	TravelMinutes    *float64 `json:"travel_minutes,omitempty" jsonschema:"travel time in minutes; omit when unreachable"`
	TravelMaxMinutes *float64 `json:"travel_max_minutes,omitempty" jsonschema:"upper end of a travel time range"`
	TransferTo       string   `json:"transfer_to,omitempty" jsonschema:"comprehensive center a primary center ships to"`
	TransferMinutes  *float64 `json:"transfer_minutes,omitempty" jsonschema:"transfer time in minutes; omit when unknown"`
}

// RunInput holds the Monte-Carlo settings shared by every tool.
type RunInput struct {
	Simulations int    `json:"simulations,omitempty" jsonschema:"number of draws; defaults to SIMULATIONS"`
	Seed        uint64 `json:"seed,omitempty" jsonschema:"random seed; defaults to SEED"`
	Charts      bool   `json:"charts,omitempty" jsonschema:"include Mermaid charts of the network and results"`
}

type EvaluateTriageInput struct {
	Patient PatientInput  `json:"patient"`
	Centers []CenterInput `json:"centers"`
	Run     RunInput      `json:"run,omitempty"`
}

type EvaluateLocationInput struct {
	Patient         PatientInput `json:"patient"`
	HospitalsFile   string       `json:"hospitals_file" jsonschema:"hospital CSV path"`
	TimesFile       string       `json:"times_file" jsonschema:"travel-time CSV path"`
	Location        string       `json:"location" jsonschema:"location ID in the travel-time file"`
	UseDefaultTimes bool         `json:"use_default_times,omitempty" jsonschema:"ignore recorded hospital delays"`
	Run             RunInput     `json:"run,omitempty"`
}

// StrategyOutput summarises one strategy. Medians are absent when the
// strategy was never feasible.
type StrategyOutput struct {
	Strategy   string   `json:"strategy"`
	Kind       string   `json:"kind"`
	Center     string   `json:"center"`
	MedianQALY *float64 `json:"median_qaly,omitempty"`
	MedianCost *float64 `json:"median_cost,omitempty"`
	Feasible   int      `json:"feasible_draws"`
	Optimal    int      `json:"optimal_draws"`
	MaxQALY    int      `json:"max_qaly_draws"`
}

type EvaluateOutput struct {
	Patient            string             `json:"patient"`
	Draws              int                `json:"draws"`
	Infeasible         int                `json:"infeasible_draws"`
	Threshold          float64            `json:"icer_threshold"`
	OptimalDestination string             `json:"optimal_destination,omitempty"`
	OptimalStrategy    string             `json:"optimal_strategy,omitempty"`
	Counts             map[string]int     `json:"counts_by_center"`
	Shares             map[string]float64 `json:"shares_by_center"`
	Strategies         []StrategyOutput   `json:"strategies"`
	Charts             []string           `json:"charts,omitempty"`
}

func (s *Server) handleEvaluateTriage(ctx context.Context, _ *sdk.CallToolRequest, in EvaluateTriageInput) (*sdk.CallToolResult, EvaluateOutput, error) {
	p, err := buildPatient(in.Patient)
	if err != nil {
		return nil, EvaluateOutput{}, err
	}
	centers, travel, err := buildCenters(in.Centers)
	if err != nil {
		return nil, EvaluateOutput{}, err
	}
	out, err := s.evaluate(ctx, p, centers, travel, in.Run)
	return nil, out, err
}

func (s *Server) handleEvaluateLocation(ctx context.Context, _ *sdk.CallToolRequest, in EvaluateLocationInput) (*sdk.CallToolResult, EvaluateOutput, error) {
	p, err := buildPatient(in.Patient)
	if err != nil {
		return nil, EvaluateOutput{}, err
	}
	centers, err := dataio.ReadCenters(s.resolve(in.HospitalsFile), in.UseDefaultTimes)
	if err != nil {
		return nil, EvaluateOutput{}, err
	}
	locations, err := dataio.ReadTravelTimes(s.resolve(in.TimesFile))
	if err != nil {
		return nil, EvaluateOutput{}, err
	}
	for _, loc := range locations {
		if loc.ID == in.Location {
			out, err := s.evaluate(ctx, p, centers, loc.Travel, in.Run)
			return nil, out, err
		}
	}
	return nil, EvaluateOutput{}, fmt.Errorf("location %q not found in %s", in.Location, in.TimesFile)
}

func (s *Server) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || s.cfg == nil {
		return path
	}
	return filepath.Join(s.cfg.DataPath, path)
}

func (s *Server) evaluate(ctx context.Context, p patient.Patient, centers []center.Center, travel center.TravelTimes, run RunInput) (EvaluateOutput, error) {
	draws, seed := run.Simulations, run.Seed
	if draws == 0 && s.cfg != nil {
		draws = s.cfg.Simulations
	}
	if seed == 0 && s.cfg != nil {
		seed = s.cfg.Seed
	}
	if draws <= 0 || draws > MaxSimulations {
		return EvaluateOutput{}, fmt.Errorf("simulations must be between 1 and %d, got %d", MaxSimulations, draws)
	}

	m := triage.NewModel(p, centers, travel, s.params)
	res, _, _, err := m.Run(ctx, rand.New(rand.NewPCG(seed, 0)), draws)
	if err != nil {
		return EvaluateOutput{}, err
	}
	log.Info().Str("patient", p.ID()).Int("draws", draws).Msg("Tool evaluation complete")
	out := summarize(p, res)
	if run.Charts {
		for _, chart := range []string{
			visuals.GenerateNetworkFlowchart(centers, travel),
			visuals.GenerateDestinationPie(res),
			visuals.GenerateQALYChart(res.Summaries()),
		} {
			if chart != "" {
				out.Charts = append(out.Charts, chart)
			}
		}
	}
	return out, nil
}

func summarize(p patient.Patient, res *frontier.Results) EvaluateOutput {
	out := EvaluateOutput{
		Patient:    p.String(),
		Draws:      res.Draws,
		Infeasible: res.Infeasible,
		Threshold:  res.Threshold,
		Counts:     res.CountsByCenter(),
		Shares:     res.PercentagesByCenter(),
	}
	if res.Draws > res.Infeasible {
		if dest, ok := res.OptimalDestination(); ok {
			out.OptimalDestination = dest
		}
		if best, ok := res.OptimalStrategy(); ok {
			out.OptimalStrategy = best.String()
		}
	}
	for _, sum := range res.Summaries() {
		out.Strategies = append(out.Strategies, StrategyOutput{
			Strategy:   sum.Strategy.String(),
			Kind:       sum.Strategy.Kind().String(),
			Center:     sum.Strategy.Center().String(),
			MedianQALY: finite(sum.MedianQALY),
			MedianCost: finite(sum.MedianCost),
			Feasible:   sum.Feasible,
			Optimal:    sum.Optimal,
			MaxQALY:    sum.MaxQALY,
		})
	}
	return out
}

// finite drops NaN and infinities, which JSON cannot carry.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func buildPatient(in PatientInput) (patient.Patient, error) {
	sex, err := patient.ParseSex(in.Sex)
	if err != nil {
		return patient.Patient{}, err
	}
	id := in.ID
	if id == "" {
		id = "tool"
	}
	switch {
	case in.RACE != nil:
		return patient.WithRACE(id, sex, in.Age, in.TimeSinceSymptoms, *in.RACE)
	case in.NIHSS != nil:
		return patient.WithNIHSS(id, sex, in.Age, in.TimeSinceSymptoms, *in.NIHSS)
	}
	return patient.Patient{}, fmt.Errorf("%w: race or nihss is required", patient.ErrInvalidPatient)
}

func buildCenters(in []CenterInput) ([]center.Center, center.TravelTimes, error) {
	if len(in) == 0 {
		return nil, nil, fmt.Errorf("%w: no centers given", center.ErrInvalidCenter)
	}
	var centers []center.Center
	travel := center.TravelTimes{}
	for _, ci := range in {
		kind, err := center.ParseKind(ci.Type)
		if err != nil {
			return nil, nil, err
		}
		var opts []center.Option
		if ci.TransferTo != "" {
			minutes := math.NaN()
			if ci.TransferMinutes != nil {
				minutes = *ci.TransferMinutes
			}
			opts = append(opts, center.WithTransfer(ci.TransferTo, minutes))
		}

		var c center.Center
		if kind == center.Primary {
			c, err = center.NewPrimary(ci.ID, opts...)
		} else {
			c, err = center.NewComprehensive(ci.ID, opts...)
		}
		if err != nil {
			return nil, nil, err
		}
		centers = append(centers, c)

		if ci.TravelMinutes != nil {
			tt := center.FixedTravel(*ci.TravelMinutes)
			if ci.TravelMaxMinutes != nil {
				tt = center.TravelTime{Min: math.Min(tt.Min, *ci.TravelMaxMinutes), Max: math.Max(tt.Min, *ci.TravelMaxMinutes)}
			}
			travel[ci.ID] = tt
		}
	}
	return centers, travel, nil
}
