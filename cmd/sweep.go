package cmd

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/schedsim/schedsim/sim"
	"github.com/schedsim/schedsim/sim/experiment"
)

// sweepFlags vary the arrival rate over a grid for each selected scheduler.
type sweepFlags struct {
	compareFlags
	lambdaMin  float64
	lambdaMax  float64
	lambdaStep float64
}

var sweepOpts sweepFlags

func registerSweepFlags(fs *pflag.FlagSet, f *sweepFlags) {
	registerCompareFlags(fs, &f.compareFlags)
	fs.Float64Var(&f.lambdaMin, "lambda-min", 1, "First arrival rate of the sweep")
	fs.Float64Var(&f.lambdaMax, "lambda-max", 10, "Last arrival rate of the sweep (inclusive)")
	fs.Float64Var(&f.lambdaStep, "lambda-step", 1, "Arrival rate increment")
}

// lambdaGrid returns min, min+step, ... up to max. Points are computed from
// the index so the grid does not drift.
func lambdaGrid(min, max, step float64) ([]float64, error) {
	if !(min > 0) || math.IsInf(min, 0) || !(max >= min) || math.IsInf(max, 0) {
		return nil, fmt.Errorf("invalid lambda range [%v, %v]", min, max)
	}
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("lambda step must be positive, got %v", step)
	}
	n := int(math.Floor((max-min)/step+1e-9)) + 1
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = min + float64(i)*step
	}
	return grid, nil
}

// SweepPoint is one (arrival rate, scheduler) cell of a sweep.
type SweepPoint struct {
	ArrivalRate float64       `json:"arrival_rate"`
	Load        float64       `json:"offered_load"`
	Summary     SummaryOutput `json:"summary"`
}

func (f *sweepFlags) execute(ctx context.Context, fs *pflag.FlagSet, stdout io.Writer) error {
	if err := validOutput(f.output); err != nil {
		return err
	}
	kinds, err := parsePolicies(f.policies)
	if err != nil {
		return err
	}
	grid, err := lambdaGrid(f.lambdaMin, f.lambdaMax, f.lambdaStep)
	if err != nil {
		return err
	}
	cfg, reps, err := f.baseConfig(fs, kinds, grid[0])
	if err != nil {
		return err
	}

	var points []SweepPoint
	rows := make([][]string, 0, len(grid)*len(kinds))
	for _, lambda := range grid {
		c := cfg
		c.ArrivalRate = lambda
		summaries, err := experiment.Compare(ctx, c, kinds, reps, f.parallelism)
		if err != nil {
			return fmt.Errorf("lambda=%v: %w", lambda, err)
		}
		load := lambda * c.MeanServiceTime
		logrus.Infof("lambda=%v (load %.2f): %d schedulers done", lambda, load, len(summaries))
		for _, s := range summaries {
			points = append(points, SweepPoint{ArrivalRate: lambda, Load: load, Summary: NewSummaryOutput(s)})
			rows = append(rows, append([]string{
				strconv.FormatFloat(lambda, 'g', -1, 64),
				fmt.Sprintf("%.2f", sim.Round2(load)),
			}, summaryRow(s)...))
		}
	}

	if f.output == outputJSON {
		return writeJSON(stdout, points)
	}
	table := tablewriter.NewWriter(stdout)
	table.SetHeader(append([]string{"Lambda", "Load"}, summaryHeader...))
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.AppendBulk(rows)
	table.Render()
	return nil
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep the arrival rate and compare schedulers at each load",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := sweepOpts.execute(cmd.Context(), cmd.Flags(), os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func init() {
	registerSweepFlags(sweepCmd.Flags(), &sweepOpts)
	rootCmd.AddCommand(sweepCmd)
}
