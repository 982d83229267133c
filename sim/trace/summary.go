package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalBursts     int                  `json:"total_bursts"`
	CompletedBursts int                  `json:"completed_bursts"`
	SlicedBursts    int                  `json:"sliced_bursts"`
	PreemptedBursts int                  `json:"preempted_bursts"`
	Preemptions     int                  `json:"preemptions"`
	MeanBurst       float64              `json:"mean_burst"`
	MaxBurst        float64              `json:"max_burst"`
	OutcomeCounts   map[BurstOutcome]int `json:"outcome_counts"`
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		OutcomeCounts: make(map[BurstOutcome]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalBursts = len(st.Bursts)
	summary.Preemptions = len(st.Preemptions)
	total := 0.0
	for _, b := range st.Bursts {
		summary.OutcomeCounts[b.Outcome]++
		l := b.Length()
		total += l
		if l > summary.MaxBurst {
			summary.MaxBurst = l
		}
	}
	summary.CompletedBursts = summary.OutcomeCounts[OutcomeCompleted]
	summary.SlicedBursts = summary.OutcomeCounts[OutcomeSliced]
	summary.PreemptedBursts = summary.OutcomeCounts[OutcomePreempted]
	if len(st.Bursts) > 0 {
		summary.MeanBurst = total / float64(len(st.Bursts))
	}

	return summary
}
