package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/markphelps/optional"
	"github.com/olekukonko/tablewriter"

	"github.com/schedsim/schedsim/sim"
	"github.com/schedsim/schedsim/sim/experiment"
	"github.com/schedsim/schedsim/sim/trace"
)

const (
	outputText = "text"
	outputJSON = "json"
)

func validOutput(format string) error {
	if format != outputText && format != outputJSON {
		return fmt.Errorf("unknown output format %q; valid: text, json", format)
	}
	return nil
}

// MetricsOutput is the JSON form of the four headline metrics, rounded to
// two decimals. Undefined metrics encode as null.
type MetricsOutput struct {
	Turnaround     *float64 `json:"average_turnaround"`
	Throughput     *float64 `json:"average_throughput"`
	CPUUtilization *float64 `json:"average_cpu_utilization"`
	AvgQueueLength *float64 `json:"average_queue_length"`
}

// RunOutput is the JSON document for a single run.
type RunOutput struct {
	Scheduler  sim.PolicyKind      `json:"scheduler"`
	Seed       int64               `json:"seed"`
	Metrics    MetricsOutput       `json:"metrics"`
	Admitted   int                 `json:"admitted"`
	Completed  int                 `json:"completed"`
	FinalClock float64             `json:"final_clock"`
	Stalled    bool                `json:"stalled,omitempty"`
	Processes  sim.ProcessSummary  `json:"processes"`
	Trace      *trace.TraceSummary `json:"trace,omitempty"`
}

// StatsOutput is one metric aggregated over replications.
type StatsOutput struct {
	N         int     `json:"n"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"stddev"`
	HalfWidth float64 `json:"ci95_half_width"`
}

// SummaryOutput is the JSON document for one policy's replications.
type SummaryOutput struct {
	Scheduler      sim.PolicyKind `json:"scheduler"`
	Replications   int            `json:"replications"`
	Turnaround     StatsOutput    `json:"average_turnaround"`
	Throughput     StatsOutput    `json:"average_throughput"`
	CPUUtilization StatsOutput    `json:"average_cpu_utilization"`
	AvgQueueLength StatsOutput    `json:"average_queue_length"`
	MeanWaiting    StatsOutput    `json:"mean_waiting"`
}

func rounded(v optional.Float64) *float64 {
	f, err := v.Get()
	if err != nil {
		return nil
	}
	r := sim.Round2(f)
	return &r
}

// NewRunOutput assembles the JSON view of a finished simulator.
func NewRunOutput(s *sim.Simulator, report *sim.Report) RunOutput {
	out := RunOutput{
		Scheduler: s.Config.Policy,
		Seed:      s.Config.Seed,
		Metrics: MetricsOutput{
			Turnaround:     rounded(report.Turnaround),
			Throughput:     rounded(report.Throughput),
			CPUUtilization: rounded(report.CPUUtilization),
			AvgQueueLength: rounded(report.AvgQueueLength),
		},
		Admitted:   report.Admitted,
		Completed:  report.Completed,
		FinalClock: report.FinalClock,
		Stalled:    report.Stalled,
		Processes:  s.Summarize(),
	}
	if s.Trace != nil {
		out.Trace = trace.Summarize(s.Trace)
	}
	return out
}

func statsOutput(m experiment.MetricStats) StatsOutput {
	return StatsOutput{N: m.N, Mean: m.Mean, StdDev: m.StdDev, HalfWidth: m.HalfWidth}
}

// NewSummaryOutput assembles the JSON view of a replicated experiment.
func NewSummaryOutput(s *experiment.Summary) SummaryOutput {
	return SummaryOutput{
		Scheduler:      s.Policy,
		Replications:   s.Replications,
		Turnaround:     statsOutput(s.Turnaround),
		Throughput:     statsOutput(s.Throughput),
		CPUUtilization: statsOutput(s.CPUUtilization),
		AvgQueueLength: statsOutput(s.AvgQueueLength),
		MeanWaiting:    statsOutput(s.MeanWaiting),
	}
}

// writeRun prints a single run. Text output is the four metric lines,
// followed by a burst summary when tracing was on.
func writeRun(w io.Writer, format string, s *sim.Simulator, report *sim.Report) error {
	if format == outputJSON {
		return writeJSON(w, NewRunOutput(s, report))
	}
	for _, line := range report.Lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if s.Trace == nil {
		return nil
	}
	ts := trace.Summarize(s.Trace)
	_, err := fmt.Fprintf(w, "Bursts: %d (completed %d, sliced %d, preempted %d), mean %.2f, max %.2f\n",
		ts.TotalBursts, ts.CompletedBursts, ts.SlicedBursts, ts.PreemptedBursts,
		sim.Round2(ts.MeanBurst), sim.Round2(ts.MaxBurst))
	return err
}

// writeSummary prints one policy's replications in the labeled-line form.
func writeSummary(w io.Writer, format string, s *experiment.Summary) error {
	if format == outputJSON {
		return writeJSON(w, NewSummaryOutput(s))
	}
	lines := []struct {
		label string
		stats experiment.MetricStats
	}{
		{"Average Turnaround", s.Turnaround},
		{"Average Throughput", s.Throughput},
		{"Average CPU Utilization", s.CPUUtilization},
		{"Average # of Process in Q", s.AvgQueueLength},
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s: %v\n", l.label, l.stats); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Replications: %d (%.0f%% confidence)\n", s.Replications, experiment.Confidence*100)
	return err
}

var summaryHeader = []string{"Scheduler", "Turnaround", "Throughput", "CPU Util", "Avg # in Q", "Mean Wait"}

func summaryRow(s *experiment.Summary) []string {
	return []string{
		s.Policy.String(),
		s.Turnaround.String(),
		s.Throughput.String(),
		s.CPUUtilization.String(),
		s.AvgQueueLength.String(),
		s.MeanWaiting.String(),
	}
}

// writeComparison renders one row per policy.
func writeComparison(w io.Writer, format string, summaries []*experiment.Summary) error {
	if format == outputJSON {
		out := make([]SummaryOutput, 0, len(summaries))
		for _, s := range summaries {
			out = append(out, NewSummaryOutput(s))
		}
		return writeJSON(w, out)
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader(summaryHeader)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, s := range summaries {
		table.Append(summaryRow(s))
	}
	table.Render()
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
