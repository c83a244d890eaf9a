package config

import (
	"errors"
	"fmt"

	"stroke-triage/internal/cohort"
	"stroke-triage/internal/costs"
	"stroke-triage/internal/frontier"
	"stroke-triage/internal/sampling"
	"stroke-triage/internal/triage"

	"github.com/spf13/viper"
)

// ErrInvalidParams is returned by Params.Validate.
var ErrInvalidParams = errors.New("invalid model parameters")

// Params are the model settings read from an optional YAML, JSON or TOML
// parameter file.
type Params struct {
	Simulations     int     `mapstructure:"simulations"`
	ICERThreshold   float64 `mapstructure:"icer_threshold"`
	Horizon         int     `mapstructure:"horizon"`
	DiscountRate    float64 `mapstructure:"discount_rate"`
	TargetCostYear  int     `mapstructure:"target_cost_year"`
	DeathCost       string  `mapstructure:"death_cost"`
	TimeUncertainty bool    `mapstructure:"time_uncertainty"`
	LVOUncertainty  bool    `mapstructure:"lvo_uncertainty"`
	FixPerformance  bool    `mapstructure:"fix_performance"`
	TrustThreshold  int     `mapstructure:"trust_threshold"`
}

// LoadParams reads the parameter file at path. Keys missing from the file,
// or every key when path is empty, fall back to cfg and then to the model
// defaults. cfg may be nil.
func LoadParams(path string, cfg *AppConfig) (*Params, error) {
	v := viper.New()

	v.SetDefault("simulations", 1000)
	v.SetDefault("icer_threshold", frontier.DefaultThreshold)
	v.SetDefault("horizon", 0)
	v.SetDefault("discount_rate", cohort.DefaultDiscountRate)
	v.SetDefault("target_cost_year", triage.DefaultTargetCostYear)
	v.SetDefault("death_cost", costs.Cumulative.String())
	v.SetDefault("time_uncertainty", true)
	v.SetDefault("lvo_uncertainty", true)
	v.SetDefault("fix_performance", false)
	v.SetDefault("trust_threshold", 0)

	if cfg != nil {
		if cfg.Simulations > 0 {
			v.SetDefault("simulations", cfg.Simulations)
		}
		if cfg.ICERThreshold > 0 {
			v.SetDefault("icer_threshold", cfg.ICERThreshold)
		}
		if cfg.TargetCostYear != 0 {
			v.SetDefault("target_cost_year", cfg.TargetCostYear)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read params %s: %w", path, err)
		}
	}

	p := &Params{}
	if err := v.Unmarshal(p); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate rejects settings the model cannot run with.
func (p *Params) Validate() error {
	if p.Simulations <= 0 {
		return fmt.Errorf("%w: simulations must be positive, got %d", ErrInvalidParams, p.Simulations)
	}
	if !(p.ICERThreshold > 0) {
		return fmt.Errorf("%w: icer_threshold must be positive, got %v", ErrInvalidParams, p.ICERThreshold)
	}
	if p.Horizon < 0 {
		return fmt.Errorf("%w: negative horizon %d", ErrInvalidParams, p.Horizon)
	}
	if p.DiscountRate < 0 {
		return fmt.Errorf("%w: negative discount_rate %v", ErrInvalidParams, p.DiscountRate)
	}
	if _, err := costs.ParseDeathCostPolicy(p.DeathCost); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if p.TargetCostYear != 0 {
		if _, err := costs.Factor(p.TargetCostYear, p.TargetCostYear); err != nil {
			return fmt.Errorf("%w: target_cost_year: %v", ErrInvalidParams, err)
		}
	}
	if p.FixPerformance && !p.TimeUncertainty {
		return fmt.Errorf("%w: fix_performance requires time_uncertainty", ErrInvalidParams)
	}
	if p.TrustThreshold < 0 {
		return fmt.Errorf("%w: negative trust_threshold %d", ErrInvalidParams, p.TrustThreshold)
	}
	return nil
}

// Triage converts the settings into model parameters.
func (p *Params) Triage() (triage.Params, error) {
	policy, err := costs.ParseDeathCostPolicy(p.DeathCost)
	if err != nil {
		return triage.Params{}, err
	}
	out := triage.DefaultParams()
	out.Threshold = p.ICERThreshold
	out.TargetCostYear = p.TargetCostYear
	out.Sampling = sampling.Options{
		Draws:              p.Simulations,
		AddTimeUncertainty: p.TimeUncertainty,
		AddLVOUncertainty:  p.LVOUncertainty,
		FixPerformance:     p.FixPerformance,
		TrustThreshold:     p.TrustThreshold,
	}
	out.Cohort.DeathCost = policy
	out.Cohort.Horizon = p.Horizon
	out.Cohort.DiscountRate = p.DiscountRate
	return out, nil
}
