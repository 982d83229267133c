// Tracks simulation-wide running sums and finalizes them into the reported statistics.

package sim

import (
	"fmt"
	"math"

	"github.com/markphelps/optional"
)

// Metrics aggregates statistics about the simulation for final reporting.
type Metrics struct {
	Admitted              int     // processes whose Arrival has been consumed
	Completed             int     // processes that departed
	TotalTurnaround       float64 // Σ (completion - arrival) over completed processes
	TotalServiceCompleted float64 // Σ service time over completed processes (CPU busy time)
	QueueLengthSum        int64   // Σ ready-queue length over status samples
	StatusSamples         int64   // number of status samples taken
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordCompletion accumulates a departed process.
func (m *Metrics) RecordCompletion(p *Process) {
	m.Completed++
	m.TotalTurnaround += p.Turnaround()
	m.TotalServiceCompleted += p.ServiceTime
}

// SampleQueue adds one ready-queue length observation.
func (m *Metrics) SampleQueue(length int) {
	m.QueueLengthSum += int64(length)
	m.StatusSamples++
}

// Report holds the four reported statistics. A metric whose divisor is zero
// (no process admitted, clock still at 0, no samples) is empty and prints as
// "undefined".
type Report struct {
	Turnaround     optional.Float64
	Throughput     optional.Float64
	CPUUtilization optional.Float64
	AvgQueueLength optional.Float64

	Admitted   int
	Completed  int
	FinalClock float64
	Stalled    bool // ended after the system stayed empty for MaxIdleSamples samples
}

// Finalize derives the report from the accumulated sums and the final clock.
// Turnaround is averaged over every admitted process, not just completed ones.
func (m *Metrics) Finalize(finalClock float64) *Report {
	r := &Report{
		Turnaround:     safeDiv(m.TotalTurnaround, float64(m.Admitted)),
		Throughput:     safeDiv(float64(m.Completed), finalClock),
		CPUUtilization: safeDiv(m.TotalServiceCompleted, finalClock),
		AvgQueueLength: safeDiv(float64(m.QueueLengthSum), float64(m.StatusSamples)),
		Admitted:       m.Admitted,
		Completed:      m.Completed,
		FinalClock:     finalClock,
	}
	return r
}

func safeDiv(num, den float64) optional.Float64 {
	if den == 0 || math.IsNaN(den) {
		return optional.Float64{}
	}
	return optional.NewFloat64(num / den)
}

// ReportLine is one labeled metric.
type ReportLine struct {
	Label string
	Value optional.Float64
}

// Labeled returns the four metrics in output order with their labels.
func (r *Report) Labeled() []ReportLine {
	return []ReportLine{
		{"Average Turnaround", r.Turnaround},
		{"Average Throughput", r.Throughput},
		{"Average CPU Utilization", r.CPUUtilization},
		{"Average # of Process in Q", r.AvgQueueLength},
	}
}

// Lines renders the report as "<label>: <value>" lines rounded to two decimals.
func (r *Report) Lines() []string {
	labeled := r.Labeled()
	out := make([]string, 0, len(labeled))
	for _, l := range labeled {
		out = append(out, fmt.Sprintf("%s: %s", l.Label, FormatMetric(l.Value)))
	}
	return out
}

// FormatMetric renders a metric with two decimals, or "undefined".
func FormatMetric(v optional.Float64) string {
	f, err := v.Get()
	if err != nil {
		return "undefined"
	}
	return fmt.Sprintf("%.2f", Round2(f))
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
