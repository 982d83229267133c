// Package experiment runs independent simulations (replications over seeds,
// policy comparisons) in parallel and aggregates their reports.
//
// Each simulation owns disjoint state, so runs fan out freely; the engine
// itself stays single-threaded.
package experiment

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/schedsim/schedsim/sim"
)

// Confidence is the two-sided confidence level of MetricStats.HalfWidth.
const Confidence = 0.95

// Result is the outcome of one seeded run.
type Result struct {
	Seed    int64
	Policy  sim.PolicyKind
	Report  *sim.Report
	Summary sim.ProcessSummary
}

// RunOnce builds, seeds and runs one simulation from cfg.
func RunOnce(cfg sim.SimConfig) (*Result, error) {
	s, err := sim.NewSimulator(cfg)
	if err != nil {
		return nil, err
	}
	s.SeedWorkload()
	report := s.Run()
	return &Result{Seed: cfg.Seed, Policy: cfg.Policy, Report: report, Summary: s.Summarize()}, nil
}

// MetricStats summarizes one metric across replications. Undefined metrics
// (empty optionals) are left out; N counts the defined samples.
type MetricStats struct {
	N         int
	Mean      float64
	StdDev    float64
	HalfWidth float64 // Student-t half-width at Confidence; 0 when N < 2
}

func (m MetricStats) String() string {
	if m.N == 0 {
		return "undefined"
	}
	return fmt.Sprintf("%.2f ± %.2f", sim.Round2(m.Mean), sim.Round2(m.HalfWidth))
}

// Summary aggregates the replications of one policy.
type Summary struct {
	Policy         sim.PolicyKind
	Replications   int
	Turnaround     MetricStats
	Throughput     MetricStats
	CPUUtilization MetricStats
	AvgQueueLength MetricStats
	MeanWaiting    MetricStats
	Results        []*Result
}

// Replicate runs n replications of cfg with seeds cfg.Seed, cfg.Seed+1, ...
// using at most parallelism goroutines (0 means GOMAXPROCS).
func Replicate(ctx context.Context, cfg sim.SimConfig, n, parallelism int) (*Summary, error) {
	if n <= 0 {
		return nil, fmt.Errorf("replications must be positive, got %d", n)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	results := make([]*Result, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c := cfg
			c.Seed = cfg.Seed + int64(i)
			res, err := RunOnce(c)
			if err != nil {
				return fmt.Errorf("replication %d (seed %d): %w", i, c.Seed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logrus.Debugf("%v: %d replications done", cfg.Policy, n)
	return summarize(cfg.Policy, results), nil
}

// Compare replicates base under each policy in kinds. Summaries come back in
// the order of kinds.
func Compare(ctx context.Context, base sim.SimConfig, kinds []sim.PolicyKind, replications, parallelism int) ([]*Summary, error) {
	out := make([]*Summary, 0, len(kinds))
	for _, k := range kinds {
		cfg := base
		cfg.Policy = k
		s, err := Replicate(ctx, cfg, replications, parallelism)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", k, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func summarize(kind sim.PolicyKind, results []*Result) *Summary {
	var turn, thr, util, q, wait []float64
	for _, r := range results {
		appendDefined(&turn, r.Report.Turnaround.Get)
		appendDefined(&thr, r.Report.Throughput.Get)
		appendDefined(&util, r.Report.CPUUtilization.Get)
		appendDefined(&q, r.Report.AvgQueueLength.Get)
		if r.Summary.Completed > 0 {
			wait = append(wait, r.Summary.MeanWaiting)
		}
	}
	return &Summary{
		Policy:         kind,
		Replications:   len(results),
		Turnaround:     describe(turn),
		Throughput:     describe(thr),
		CPUUtilization: describe(util),
		AvgQueueLength: describe(q),
		MeanWaiting:    describe(wait),
		Results:        results,
	}
}

func appendDefined(dst *[]float64, get func() (float64, error)) {
	if v, err := get(); err == nil {
		*dst = append(*dst, v)
	}
}

func describe(xs []float64) MetricStats {
	n := len(xs)
	switch n {
	case 0:
		return MetricStats{}
	case 1:
		return MetricStats{N: 1, Mean: xs[0]}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	half := t.Quantile(1-(1-Confidence)/2) * std / math.Sqrt(float64(n))
	return MetricStats{N: n, Mean: mean, StdDev: std, HalfWidth: half}
}
