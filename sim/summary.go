package sim

import "github.com/schedsim/schedsim/sim/internal/mathutil"

// ProcessSummary describes the completed population beyond the four headline metrics.
type ProcessSummary struct {
	Completed     int     `json:"completed"`
	MeanWaiting   float64 `json:"mean_waiting"` // mean of (turnaround - service) over completed processes
	MaxWaiting    float64 `json:"max_waiting"`
	MaxTurnaround float64 `json:"max_turnaround"`
}

// Summarize computes per-process statistics over the Completed list.
func (sim *Simulator) Summarize() ProcessSummary {
	waits := make([]float64, len(sim.Completed))
	turns := make([]float64, len(sim.Completed))
	for i, p := range sim.Completed {
		turns[i] = p.Turnaround()
		waits[i] = turns[i] - p.ServiceTime
	}
	return ProcessSummary{
		Completed:     len(sim.Completed),
		MeanWaiting:   mathutil.Mean(waits),
		MaxWaiting:    mathutil.Max(waits),
		MaxTurnaround: mathutil.Max(turns),
	}
}
