package scoring

import (
	"fmt"
	"math"

	"github.com/northdesk/triage/internal/store"
)

// weightTolerance is the allowed deviation of a weight row from 1.0.
const weightTolerance = 1e-9

// WeightSet defines the relative importance of the five component scores
// for one priority. Each row must sum to 1.0.
type WeightSet struct {
	Similarity   float64
	Skill        float64
	Availability float64
	Workload     float64
	Timezone     float64
}

func (w WeightSet) Sum() float64 {
	return w.Similarity + w.Skill + w.Availability + w.Workload + w.Timezone
}

// Validate checks that the row sums to 1.0 and no weight is negative.
func (w WeightSet) Validate() error {
	if math.Abs(w.Sum()-1.0) > weightTolerance {
		return fmt.Errorf("weights sum to %.12f, must sum to 1.0", w.Sum())
	}
	for _, v := range []float64{w.Similarity, w.Skill, w.Availability, w.Workload, w.Timezone} {
		if v < 0 {
			return fmt.Errorf("negative weight: %f", v)
		}
	}
	return nil
}

// WeightTable maps ticket priority to its weight row.
type WeightTable map[store.Priority]WeightSet

// DefaultWeights returns the per-priority weight distribution. Critical
// tickets lean on similarity and timezone; Low tickets lean on workload
// balance so routine work spreads across the team.
func DefaultWeights() WeightTable {
	return WeightTable{
		store.PriorityCritical: {Similarity: 0.30, Skill: 0.25, Availability: 0.15, Workload: 0.10, Timezone: 0.20},
		store.PriorityHigh:     {Similarity: 0.25, Skill: 0.25, Availability: 0.20, Workload: 0.15, Timezone: 0.15},
		store.PriorityMedium:   {Similarity: 0.20, Skill: 0.25, Availability: 0.20, Workload: 0.20, Timezone: 0.15},
		store.PriorityLow:      {Similarity: 0.15, Skill: 0.15, Availability: 0.15, Workload: 0.40, Timezone: 0.15},
	}
}

// Validate checks that every priority has a row and every row is valid.
func (t WeightTable) Validate() error {
	for _, p := range []store.Priority{store.PriorityCritical, store.PriorityHigh, store.PriorityMedium, store.PriorityLow} {
		w, ok := t[p]
		if !ok {
			return fmt.Errorf("missing weight row for priority %s", p)
		}
		if err := w.Validate(); err != nil {
			return fmt.Errorf("priority %s: %w", p, err)
		}
	}
	return nil
}
