package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/schedsim/schedsim/sim"
	"github.com/schedsim/schedsim/sim/experiment"
	"github.com/schedsim/schedsim/sim/trace"
)

var (
	logLevel string // Log verbosity level
	runOpts  runFlags
)

// workloadFlags are shared by every command that drives the engine.
type workloadFlags struct {
	lambda         float64 // Poisson arrival rate
	serviceTime    float64 // Mean CPU demand per process
	quantum        float64 // RR time slice
	seed           int64   // Seed for arrival and demand draws
	maxProcesses   int     // Completions after which a run stops
	horizon        float64 // Simulated time limit (0 = unbounded)
	statusInterval float64 // Queue sampling period (0 = half the mean service time)
	maxIdleSamples int     // Consecutive empty samples before a run is declared stalled
	configPath     string  // YAML experiment file
	replications   int     // Independent seeds per configuration
	parallelism    int     // Concurrent runs (0 = GOMAXPROCS)
}

// runFlags adds the single-run knobs.
type runFlags struct {
	workloadFlags
	scheduler    string
	arrivalsPath string
	traceLevel   string
	output       string
}

func registerWorkloadFlags(fs *pflag.FlagSet, f *workloadFlags) {
	fs.Float64Var(&f.lambda, "lambda", 0, "Average arrival rate (processes per unit time)")
	fs.Float64Var(&f.serviceTime, "service-time", 0, "Average service time per process")
	fs.Float64Var(&f.quantum, "quantum", 0, "Round-robin time slice (required for rr)")
	fs.Int64Var(&f.seed, "seed", 42, "Seed for arrival and service-time generation")
	fs.IntVar(&f.maxProcesses, "max-processes", sim.DefaultMaxProcesses, "Completions after which the run stops")
	fs.Float64Var(&f.horizon, "horizon", 0, "Simulated time limit (0 = unbounded)")
	fs.Float64Var(&f.statusInterval, "status-interval", 0, "Queue-length sampling period (0 = half the mean service time)")
	fs.IntVar(&f.maxIdleSamples, "max-idle-samples", sim.DefaultMaxIdleSamples, "Consecutive empty-system samples before the run stops as stalled")
	fs.StringVar(&f.configPath, "config", "", "YAML experiment file; explicit flags override its values")
	fs.IntVar(&f.replications, "replications", 1, "Independent replications with consecutive seeds")
	fs.IntVar(&f.parallelism, "parallelism", 0, "Concurrent replications (0 = GOMAXPROCS)")
}

func registerRunFlags(fs *pflag.FlagSet, f *runFlags) {
	registerWorkloadFlags(fs, &f.workloadFlags)
	fs.StringVar(&f.scheduler, "scheduler", "", "Scheduler: fcfs|srtf|hrrn|rr or 1-4")
	fs.StringVar(&f.arrivalsPath, "arrivals", "", "YAML file of injected arrivals; disables generated arrivals")
	fs.StringVar(&f.traceLevel, "trace", string(trace.TraceLevelNone), "Trace level: none|bursts")
	fs.StringVar(&f.output, "output", outputText, "Output format: text|json")
}

// experiment merges, lowest precedence first: flag defaults, the --config
// file, the given base values, then flags set explicitly on the command line.
func (f *workloadFlags) experiment(fs *pflag.FlagSet, base *ExperimentConfig) (*ExperimentConfig, error) {
	exp := &ExperimentConfig{
		Seed:         f.seed,
		MaxProcesses: f.maxProcesses,
		Replications: f.replications,
	}
	if f.configPath != "" {
		if err := decodeExperimentFile(f.configPath, exp); err != nil {
			return nil, err
		}
	}
	if base != nil {
		if base.Scheduler != "" {
			exp.Scheduler = base.Scheduler
		}
		if base.ArrivalRate != 0 {
			exp.ArrivalRate = base.ArrivalRate
		}
		if base.MeanServiceTime != 0 {
			exp.MeanServiceTime = base.MeanServiceTime
		}
		if base.Quantum != 0 {
			exp.Quantum = base.Quantum
		}
	}
	override := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	override("lambda", func() { exp.ArrivalRate = f.lambda })
	override("service-time", func() { exp.MeanServiceTime = f.serviceTime })
	override("quantum", func() { exp.Quantum = f.quantum })
	override("seed", func() { exp.Seed = f.seed })
	override("max-processes", func() { exp.MaxProcesses = f.maxProcesses })
	override("horizon", func() { exp.Horizon = f.horizon })
	override("status-interval", func() { exp.StatusInterval = f.statusInterval })
	override("max-idle-samples", func() { exp.MaxIdleSamples = f.maxIdleSamples })
	override("replications", func() { exp.Replications = f.replications })
	return exp, nil
}

// positional parses the classic "<type> <lambda> <service> [quantum]" form.
func positional(args []string) (*ExperimentConfig, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) < 3 || len(args) > 4 {
		return nil, fmt.Errorf("expected <type> <lambda> <service time> [quantum], got %d arguments", len(args))
	}
	exp := &ExperimentConfig{Scheduler: args[0]}
	var err error
	if exp.ArrivalRate, err = strconv.ParseFloat(args[1], 64); err != nil {
		return nil, fmt.Errorf("arrival rate %q: %w", args[1], err)
	}
	if exp.MeanServiceTime, err = strconv.ParseFloat(args[2], 64); err != nil {
		return nil, fmt.Errorf("service time %q: %w", args[2], err)
	}
	if len(args) == 4 {
		if exp.Quantum, err = strconv.ParseFloat(args[3], 64); err != nil {
			return nil, fmt.Errorf("quantum %q: %w", args[3], err)
		}
	}
	return exp, nil
}

// resolve builds the experiment for a run from file, positional and flags.
func (f *runFlags) resolve(fs *pflag.FlagSet, args []string) (*ExperimentConfig, error) {
	base, err := positional(args)
	if err != nil {
		return nil, err
	}
	exp, err := f.experiment(fs, base)
	if err != nil {
		return nil, err
	}
	if fs.Changed("scheduler") {
		exp.Scheduler = f.scheduler
	}
	if exp.Scheduler == "" {
		return nil, fmt.Errorf("scheduler not provided; pass <type> positionally or --scheduler")
	}
	if f.arrivalsPath != "" {
		if exp.Arrivals, err = LoadArrivals(f.arrivalsPath); err != nil {
			return nil, err
		}
	}
	if !trace.IsValidTraceLevel(f.traceLevel) {
		return nil, fmt.Errorf("unknown trace level %q; valid: none, bursts", f.traceLevel)
	}
	if err := validOutput(f.output); err != nil {
		return nil, err
	}
	return exp, nil
}

// execute resolves, runs and prints one experiment.
func (f *runFlags) execute(ctx context.Context, fs *pflag.FlagSet, args []string, stdout io.Writer) error {
	exp, err := f.resolve(fs, args)
	if err != nil {
		return err
	}
	cfg, err := exp.SimConfig()
	if err != nil {
		return err
	}
	cfg.TraceBursts = trace.TraceLevel(f.traceLevel) == trace.TraceLevelBursts

	if exp.Replications > 1 {
		if len(exp.Arrivals) > 0 {
			return fmt.Errorf("injected arrivals are deterministic; replications must be 1")
		}
		summary, err := experiment.Replicate(ctx, cfg, exp.Replications, f.parallelism)
		if err != nil {
			return err
		}
		return writeSummary(stdout, f.output, summary)
	}

	s, err := exp.NewSimulator(cfg)
	if err != nil {
		return err
	}
	report := s.Run()
	return writeRun(stdout, f.output, s, report)
}

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "schedsim",
	Short: "Discrete-event simulator for single-CPU scheduling policies",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd executes one simulation (or one replicated configuration).
var runCmd = &cobra.Command{
	Use:   "run [<type> <lambda> <service time> [quantum]]",
	Short: "Run the scheduling simulation",
	Long: `Run simulates one scheduler on a Poisson workload and prints the average
turnaround, throughput, CPU utilization and ready-queue length.

<type> is 1-4 or fcfs|srtf|hrrn|rr. The quantum is required for rr.`,
	Args: cobra.MaximumNArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		startTime := time.Now()
		if err := runOpts.execute(cmd.Context(), cmd.Flags(), args, os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")

	registerRunFlags(runCmd.Flags(), &runOpts)

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
