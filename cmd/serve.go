package cmd

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/schedsim/schedsim/sim"
	"github.com/schedsim/schedsim/sim/experiment"
)

// ServerConfig bounds what a single HTTP request may ask the engine to do.
type ServerConfig struct {
	Addr            string
	MaxProcesses    int
	MaxReplications int
	MaxHorizon      float64 // simulated-time bound applied to every request
	Parallelism     int
}

var serveConfigPath string

// loadServerConfig layers defaults, an optional YAML file, SCHEDSIM_*
// environment variables and bound flags, in increasing precedence.
func loadServerConfig(v *viper.Viper, path string) (*ServerConfig, error) {
	v.SetDefault("addr", ":9095")
	v.SetDefault("limits.max_processes", 100000)
	v.SetDefault("limits.max_replications", 32)
	v.SetDefault("limits.max_horizon", 1e6)
	v.SetDefault("limits.parallelism", 0)
	v.SetEnvPrefix("SCHEDSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading server config: %w", err)
		}
	}
	cfg := &ServerConfig{
		Addr:            v.GetString("addr"),
		MaxProcesses:    v.GetInt("limits.max_processes"),
		MaxReplications: v.GetInt("limits.max_replications"),
		MaxHorizon:      v.GetFloat64("limits.max_horizon"),
		Parallelism:     v.GetInt("limits.parallelism"),
	}
	if cfg.MaxProcesses <= 0 || cfg.MaxReplications <= 0 || !(cfg.MaxHorizon > 0) || math.IsInf(cfg.MaxHorizon, 0) {
		return nil, fmt.Errorf("server limits must be positive: max_processes=%d, max_replications=%d, max_horizon=%v",
			cfg.MaxProcesses, cfg.MaxReplications, cfg.MaxHorizon)
	}
	return cfg, nil
}

// compareRequest is an experiment plus the schedulers to run it under.
type compareRequest struct {
	ExperimentConfig
	Policies []string `json:"policies"`
}

// SchedulerHandler serves simulation requests.
type SchedulerHandler struct {
	config *ServerConfig
}

func NewSchedulerHandler(config *ServerConfig) *SchedulerHandler {
	return &SchedulerHandler{config: config}
}

func badRequest(ctx *fiber.Ctx, err error) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

// admit resolves and bounds one request body.
func (h *SchedulerHandler) admit(exp *ExperimentConfig) (sim.SimConfig, int, error) {
	cfg, err := exp.SimConfig()
	if err != nil {
		return sim.SimConfig{}, 0, err
	}
	if cfg.MaxProcesses == 0 {
		cfg.MaxProcesses = sim.DefaultMaxProcesses
	}
	if cfg.MaxProcesses > h.config.MaxProcesses {
		return sim.SimConfig{}, 0, fmt.Errorf("max_processes %d exceeds server limit %d", cfg.MaxProcesses, h.config.MaxProcesses)
	}
	// an unbounded request runs to the server's horizon
	if cfg.Horizon == 0 {
		cfg.Horizon = h.config.MaxHorizon
	}
	if cfg.Horizon > h.config.MaxHorizon {
		return sim.SimConfig{}, 0, fmt.Errorf("horizon %v exceeds server limit %v", cfg.Horizon, h.config.MaxHorizon)
	}
	reps := exp.Replications
	if reps == 0 {
		reps = 1
	}
	if reps > h.config.MaxReplications {
		return sim.SimConfig{}, 0, fmt.Errorf("replications %d exceeds server limit %d", reps, h.config.MaxReplications)
	}
	if reps > 1 && len(exp.Arrivals) > 0 {
		return sim.SimConfig{}, 0, errors.New("injected arrivals are deterministic; replications must be 1")
	}
	return cfg, reps, nil
}

// Simulate runs one experiment. A single replication returns the run's
// metrics; several return the aggregated summary.
func (h *SchedulerHandler) Simulate(ctx *fiber.Ctx) error {
	exp := new(ExperimentConfig)
	if err := ctx.BodyParser(exp); err != nil {
		return badRequest(ctx, fmt.Errorf("invalid request format: %w", err))
	}
	cfg, reps, err := h.admit(exp)
	if err != nil {
		return badRequest(ctx, err)
	}
	if reps > 1 {
		summary, err := experiment.Replicate(ctx.UserContext(), cfg, reps, h.config.Parallelism)
		if err != nil {
			return err
		}
		return ctx.JSON(NewSummaryOutput(summary))
	}
	s, err := exp.NewSimulator(cfg)
	if err != nil {
		return badRequest(ctx, err)
	}
	report := s.Run()
	return ctx.JSON(NewRunOutput(s, report))
}

// Compare runs one generated workload under several schedulers.
func (h *SchedulerHandler) Compare(ctx *fiber.Ctx) error {
	req := new(compareRequest)
	if err := ctx.BodyParser(req); err != nil {
		return badRequest(ctx, fmt.Errorf("invalid request format: %w", err))
	}
	if len(req.Policies) == 0 {
		req.Policies = []string{"fcfs", "srtf", "hrrn", "rr"}
	}
	kinds, err := parsePolicies(req.Policies)
	if err != nil {
		return badRequest(ctx, err)
	}
	if len(req.Arrivals) > 0 {
		return badRequest(ctx, errors.New("comparisons use generated arrivals; remove the arrivals list"))
	}
	req.Scheduler = kinds[0].String()
	cfg, reps, err := h.admit(&req.ExperimentConfig)
	if err != nil {
		return badRequest(ctx, err)
	}
	summaries, err := experiment.Compare(ctx.UserContext(), cfg, kinds, reps, h.config.Parallelism)
	if err != nil {
		if errors.Is(err, sim.ErrInvalidConfig) {
			return badRequest(ctx, err)
		}
		return err
	}
	out := make([]SummaryOutput, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, NewSummaryOutput(s))
	}
	return ctx.JSON(out)
}

func (h *SchedulerHandler) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "ok"})
}

// newServer wires the routes under /api/v1.
func newServer(config *ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	h := NewSchedulerHandler(config)

	api := app.Group("/api")
	v1 := api.Group("/v1")
	{
		v1.Get("/health", h.Health)
		v1.Post("/simulate", h.Simulate)
		v1.Post("/compare", h.Compare)
	}
	return app
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve simulations over HTTP",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		v := viper.New()
		if err := v.BindPFlag("addr", cmd.Flags().Lookup("addr")); err != nil {
			logrus.Fatalf("binding --addr: %v", err)
		}
		cfg, err := loadServerConfig(v, serveConfigPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Listening on %s (max_processes=%d, max_replications=%d, max_horizon=%v)",
			cfg.Addr, cfg.MaxProcesses, cfg.MaxReplications, cfg.MaxHorizon)
		logrus.Fatal(newServer(cfg).Listen(cfg.Addr))
	},
}

func init() {
	serveCmd.Flags().String("addr", ":9095", "Listen address")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "YAML server config (addr, limits.*)")
	rootCmd.AddCommand(serveCmd)
}
