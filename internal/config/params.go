package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Params are the strategy tunables, loaded from a YAML file on top of
// the defaults.
type Params struct {
	QuantileCount      int     `yaml:"quantile_count"`
	LookbackDays       int     `yaml:"lookback_days"`
	RebalancePeriod    int     `yaml:"rebalance_period_months"`
	Leverage           float64 `yaml:"leverage"`
	FreeMargin         float64 `yaml:"free_margin"`
	ManagedSymbolsSize int     `yaml:"managed_symbols_size"`
	BuyDaysBefore      int     `yaml:"buy_days_before"`
	SwitchDaysAfter    int     `yaml:"switch_days_after"`
	SellDaysAfter      int     `yaml:"sell_days_after"`
	MinPrice           float64 `yaml:"min_price"`
}

func DefaultParams() Params {
	return Params{
		QuantileCount:      10,
		LookbackDays:       12 * 21,
		RebalancePeriod:    3,
		Leverage:           3,
		FreeMargin:         1,
		ManagedSymbolsSize: 30,
		BuyDaysBefore:      5,
		SwitchDaysAfter:    1,
		SellDaysAfter:      5,
		MinPrice:           5,
	}
}

// LoadParams reads the YAML parameter file at path, overlaying it on the
// defaults. An empty path returns the defaults.
func LoadParams(path string) (Params, error) {
	params := DefaultParams()
	if path == "" {
		return params, params.Validate()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("failed to read params file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &params); err != nil {
		return params, fmt.Errorf("failed to parse params file: %w", err)
	}

	return params, params.Validate()
}

func (p Params) Validate() error {
	if p.QuantileCount <= 0 {
		return fmt.Errorf("quantile_count must be positive, got %d", p.QuantileCount)
	}
	if p.LookbackDays < 2 {
		return fmt.Errorf("lookback_days must be at least 2, got %d", p.LookbackDays)
	}
	if p.RebalancePeriod <= 0 {
		return fmt.Errorf("rebalance_period_months must be positive, got %d", p.RebalancePeriod)
	}
	if p.ManagedSymbolsSize <= 0 {
		return fmt.Errorf("managed_symbols_size must be positive, got %d", p.ManagedSymbolsSize)
	}
	if p.Leverage <= p.FreeMargin {
		return fmt.Errorf("leverage %.2f must exceed free_margin %.2f", p.Leverage, p.FreeMargin)
	}
	if p.BuyDaysBefore < 0 || p.SwitchDaysAfter < 0 || p.SellDaysAfter < 0 {
		return fmt.Errorf("business-day offsets must be non-negative")
	}
	if p.SwitchDaysAfter > p.SellDaysAfter {
		return fmt.Errorf("switch_days_after %d must not exceed sell_days_after %d",
			p.SwitchDaysAfter, p.SellDaysAfter)
	}
	return nil
}

// SlotWeight is the portfolio-weight fraction each managed slot receives.
func (p Params) SlotWeight() float64 {
	return (p.Leverage - p.FreeMargin) / float64(p.ManagedSymbolsSize)
}
