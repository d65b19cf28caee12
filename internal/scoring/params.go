package scoring

import (
	"time"

	"github.com/northdesk/triage/internal/store"
)

// Params holds the scoring thresholds. Immutable after construction.
type Params struct {
	// Workload
	WorkloadCapacity  float64 // normalization denominator for weighted load
	OverloadThreshold float64 // weighted load above this marks the member overloaded

	// Timezone
	ISTWindowStartUTC float64 // inclusive, UTC hour with fraction
	ISTWindowEndUTC   float64 // exclusive
	TZBoostCritical   float64 // out-of-window floor for Critical tickets
	TZBoostExpert     float64 // out-of-window floor for experts
	ExpertSolvedCount int     // solved-similar count that makes an expert
}

func DefaultParams() Params {
	return Params{
		WorkloadCapacity:  30.0,
		OverloadThreshold: 20.0,
		ISTWindowStartUTC: 2.5,
		ISTWindowEndUTC:   12.5,
		TZBoostCritical:   0.5,
		TZBoostExpert:     0.6,
		ExpertSolvedCount: 3,
	}
}

// PreferredRegion returns the region whose working hours cover the given
// UTC instant: IN inside the IST window, US otherwise.
func (p Params) PreferredRegion(nowUTC time.Time) store.Region {
	hour := float64(nowUTC.Hour()) + float64(nowUTC.Minute())/60.0
	if hour >= p.ISTWindowStartUTC && hour < p.ISTWindowEndUTC {
		return store.RegionIN
	}
	return store.RegionUS
}
