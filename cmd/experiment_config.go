package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/schedsim/schedsim/sim"
)

// ExperimentConfig is the file (YAML) and request (JSON) form of a run.
// Unset numeric fields fall back to the engine defaults.
type ExperimentConfig struct {
	Scheduler       string            `yaml:"scheduler" json:"scheduler"`
	ArrivalRate     float64           `yaml:"arrival_rate" json:"arrival_rate"`
	MeanServiceTime float64           `yaml:"mean_service_time" json:"mean_service_time"`
	Quantum         float64           `yaml:"quantum,omitempty" json:"quantum,omitempty"`
	Seed            int64             `yaml:"seed" json:"seed"`
	MaxProcesses    int               `yaml:"max_processes,omitempty" json:"max_processes,omitempty"`
	Horizon         float64           `yaml:"horizon,omitempty" json:"horizon,omitempty"`
	StatusInterval  float64           `yaml:"status_interval,omitempty" json:"status_interval,omitempty"`
	MaxIdleSamples  int               `yaml:"max_idle_samples,omitempty" json:"max_idle_samples,omitempty"`
	Replications    int               `yaml:"replications,omitempty" json:"replications,omitempty"`
	Arrivals        []InjectedArrival `yaml:"arrivals,omitempty" json:"arrivals,omitempty"`
}

// InjectedArrival is one manually scheduled arrival with a fixed demand.
// When an experiment lists arrivals, no Poisson arrivals are generated.
type InjectedArrival struct {
	At          float64 `yaml:"at" json:"at"`
	ServiceTime float64 `yaml:"service_time" json:"service_time"`
}

// LoadExperimentConfig reads and parses a YAML experiment file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadExperimentConfig(path string) (*ExperimentConfig, error) {
	var cfg ExperimentConfig
	if err := decodeExperimentFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// decodeExperimentFile overlays the keys present in the file onto cfg;
// keys the file omits keep their current values.
func decodeExperimentFile(path string, cfg *ExperimentConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading experiment config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parsing experiment config %s: %w", path, err)
	}
	return nil
}

// SimConfig converts the experiment into a validated engine config.
func (e *ExperimentConfig) SimConfig() (sim.SimConfig, error) {
	kind, err := sim.ParsePolicyKind(e.Scheduler)
	if err != nil {
		return sim.SimConfig{}, err
	}
	cfg := sim.SimConfig{
		Policy:          kind,
		ArrivalRate:     e.ArrivalRate,
		MeanServiceTime: e.MeanServiceTime,
		Quantum:         e.Quantum,
		Seed:            e.Seed,
		MaxProcesses:    e.MaxProcesses,
		Horizon:         e.Horizon,
		StatusInterval:  e.StatusInterval,
		MaxIdleSamples:  e.MaxIdleSamples,
	}
	if err := cfg.Validate(); err != nil {
		return sim.SimConfig{}, err
	}
	if e.Replications < 0 {
		return sim.SimConfig{}, fmt.Errorf("replications must be non-negative, got %d", e.Replications)
	}
	return cfg, nil
}

// NewSimulator builds a ready-to-run simulator: either fed by the listed
// arrivals or by the seeded Poisson generator.
func (e *ExperimentConfig) NewSimulator(cfg sim.SimConfig) (*sim.Simulator, error) {
	s, err := sim.NewSimulator(cfg)
	if err != nil {
		return nil, err
	}
	if len(e.Arrivals) == 0 {
		s.SeedWorkload()
		return s, nil
	}
	for i, a := range e.Arrivals {
		if _, err := s.InjectArrival(a.At, a.ServiceTime); err != nil {
			return nil, fmt.Errorf("arrivals[%d]: %w", i, err)
		}
	}
	return s, nil
}

// arrivalsFile is the standalone form accepted by --arrivals.
type arrivalsFile struct {
	Arrivals []InjectedArrival `yaml:"arrivals"`
}

// LoadArrivals reads a YAML file holding an "arrivals:" list.
func LoadArrivals(path string) ([]InjectedArrival, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading arrivals: %w", err)
	}
	var f arrivalsFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing arrivals %s: %w", path, err)
	}
	if len(f.Arrivals) == 0 {
		return nil, fmt.Errorf("arrivals %s: no arrivals listed", path)
	}
	return f.Arrivals, nil
}
