package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/schedsim/schedsim/sim"
	"github.com/schedsim/schedsim/sim/experiment"
)

// compareFlags drive a side-by-side run of several schedulers on one workload.
type compareFlags struct {
	workloadFlags
	policies []string
	output   string
}

var compareOpts compareFlags

func registerCompareFlags(fs *pflag.FlagSet, f *compareFlags) {
	registerWorkloadFlags(fs, &f.workloadFlags)
	fs.StringSliceVar(&f.policies, "policies", []string{"fcfs", "srtf", "hrrn", "rr"}, "Schedulers to compare")
	fs.StringVar(&f.output, "output", outputText, "Output format: text|json")
}

// parsePolicies converts names or 1-4 tags, rejecting duplicates.
func parsePolicies(names []string) ([]sim.PolicyKind, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no schedulers selected")
	}
	seen := make(map[sim.PolicyKind]bool, len(names))
	kinds := make([]sim.PolicyKind, 0, len(names))
	for _, n := range names {
		k, err := sim.ParsePolicyKind(n)
		if err != nil {
			return nil, err
		}
		if seen[k] {
			return nil, fmt.Errorf("scheduler %v listed twice", k)
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// baseConfig resolves the shared workload. The scheduler field is a
// placeholder; Compare substitutes each selected policy. A positive
// arrivalRate replaces the configured one.
func (f *workloadFlags) baseConfig(fs *pflag.FlagSet, kinds []sim.PolicyKind, arrivalRate float64) (sim.SimConfig, int, error) {
	exp, err := f.experiment(fs, nil)
	if err != nil {
		return sim.SimConfig{}, 0, err
	}
	if arrivalRate > 0 {
		exp.ArrivalRate = arrivalRate
	}
	if len(exp.Arrivals) > 0 {
		return sim.SimConfig{}, 0, fmt.Errorf("comparisons use generated arrivals; remove the arrivals list")
	}
	exp.Scheduler = kinds[0].String()
	cfg, err := exp.SimConfig()
	if err != nil {
		return sim.SimConfig{}, 0, err
	}
	reps := exp.Replications
	if reps == 0 {
		reps = 1
	}
	return cfg, reps, nil
}

func (f *compareFlags) execute(ctx context.Context, fs *pflag.FlagSet, stdout io.Writer) error {
	if err := validOutput(f.output); err != nil {
		return err
	}
	kinds, err := parsePolicies(f.policies)
	if err != nil {
		return err
	}
	cfg, reps, err := f.baseConfig(fs, kinds, 0)
	if err != nil {
		return err
	}
	summaries, err := experiment.Compare(ctx, cfg, kinds, reps, f.parallelism)
	if err != nil {
		return err
	}
	return writeComparison(stdout, f.output, summaries)
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run several schedulers on the same seeded workload",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := compareOpts.execute(cmd.Context(), cmd.Flags(), os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func init() {
	registerCompareFlags(compareCmd.Flags(), &compareOpts)
	rootCmd.AddCommand(compareCmd)
}
