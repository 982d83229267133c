package trace

import "testing"

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	// GIVEN no trace at all
	// WHEN summarized
	summary := Summarize(nil)

	// THEN all counts are zero and the map is usable
	if summary.TotalBursts != 0 || summary.Preemptions != 0 {
		t.Errorf("expected zero counts, got %+v", summary)
	}
	if summary.OutcomeCounts == nil {
		t.Error("expected non-nil outcome map")
	}
}

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelBursts})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalBursts != 0 {
		t.Errorf("expected 0 bursts, got %d", summary.TotalBursts)
	}
	if summary.MeanBurst != 0 || summary.MaxBurst != 0 {
		t.Error("expected 0 burst lengths")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN the bursts of one 2.5-unit process under a quantum of 1
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelBursts})
	st.RecordBurst(BurstRecord{ProcessID: 1, Start: 0, End: 1, Outcome: OutcomeSliced})
	st.RecordBurst(BurstRecord{ProcessID: 1, Start: 1, End: 2, Outcome: OutcomeSliced})
	st.RecordBurst(BurstRecord{ProcessID: 1, Start: 2, End: 2.5, Outcome: OutcomeCompleted})
	st.RecordPreemption(PreemptionRecord{ProcessID: 2, Clock: 1})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts and lengths match
	if summary.TotalBursts != 3 {
		t.Errorf("expected 3 bursts, got %d", summary.TotalBursts)
	}
	if summary.SlicedBursts != 2 || summary.CompletedBursts != 1 || summary.PreemptedBursts != 0 {
		t.Errorf("outcome counts wrong: %+v", summary.OutcomeCounts)
	}
	if summary.Preemptions != 1 {
		t.Errorf("expected 1 preemption, got %d", summary.Preemptions)
	}
	if summary.MaxBurst != 1 {
		t.Errorf("expected max burst 1, got %v", summary.MaxBurst)
	}
	if got, want := summary.MeanBurst, 2.5/3; got != want {
		t.Errorf("expected mean burst %v, got %v", want, got)
	}
}
