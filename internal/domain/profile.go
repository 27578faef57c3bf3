package domain

import "fmt"

// EngineProfile parameterizes the simulation engine. The two shipped game
// modes differ only in these numbers, so one engine serves both.
type EngineProfile struct {
	Name                   string
	StockCount             int
	VolatilityMin          float64
	VolatilityMax          float64
	StartingBudget         float64
	IncludeSectorAndTidbit bool

	// ScaledFallbackVolatility applies the random [0.5,1.5) multiplier to
	// each stock's base volatility in the fallback simulator. The casual
	// mode historically ran with the unscaled value.
	ScaledFallbackVolatility bool
}

// ExpertProfile is the high-volatility, full-detail game mode.
func ExpertProfile() EngineProfile {
	return EngineProfile{
		Name:                     "expert",
		StockCount:               8,
		VolatilityMin:            1,
		VolatilityMax:            20,
		StartingBudget:           10000,
		IncludeSectorAndTidbit:   true,
		ScaledFallbackVolatility: true,
	}
}

// CasualProfile is the gentler game mode with fewer stocks and no sector
// detail.
func CasualProfile() EngineProfile {
	return EngineProfile{
		Name:                     "casual",
		StockCount:               5,
		VolatilityMin:            1,
		VolatilityMax:            5,
		StartingBudget:           5000,
		IncludeSectorAndTidbit:   false,
		ScaledFallbackVolatility: false,
	}
}

// ProfileByName resolves a built-in profile.
func ProfileByName(name string) (EngineProfile, error) {
	switch name {
	case "expert":
		return ExpertProfile(), nil
	case "casual":
		return CasualProfile(), nil
	default:
		return EngineProfile{}, fmt.Errorf("unknown engine profile %q", name)
	}
}

// Validate reports configuration mistakes in an overridden profile.
func (p EngineProfile) Validate() error {
	if p.StockCount <= 0 {
		return fmt.Errorf("profile %s: stock count must be positive", p.Name)
	}
	if p.VolatilityMin <= 0 || p.VolatilityMax < p.VolatilityMin {
		return fmt.Errorf("profile %s: volatility range [%v,%v] invalid", p.Name, p.VolatilityMin, p.VolatilityMax)
	}
	if p.StartingBudget <= 0 {
		return fmt.Errorf("profile %s: starting budget must be positive", p.Name)
	}
	return nil
}
