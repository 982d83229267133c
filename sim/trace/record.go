// Package trace provides in-memory burst recording for scheduling analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// BurstOutcome says how a service burst ended.
type BurstOutcome string

const (
	OutcomeCompleted BurstOutcome = "completed"
	OutcomeSliced    BurstOutcome = "sliced"
	OutcomePreempted BurstOutcome = "preempted"
)

// BurstRecord captures one uninterrupted stretch of service.
type BurstRecord struct {
	ProcessID int64
	Start     float64
	End       float64
	Before    float64 // remaining demand when the burst started
	Outcome   BurstOutcome
}

// Length is the simulated time the burst occupied the server.
func (b BurstRecord) Length() float64 {
	return b.End - b.Start
}

// PreemptionRecord captures an SRTF displacement.
type PreemptionRecord struct {
	ProcessID int64
	Clock     float64
	Remaining float64 // remaining demand after charging the elapsed service
}
