package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"evodrone/internal/ga"
	"evodrone/internal/nn"
)

// Config is the root configuration structure
type Config struct {
	Seed    int64         `yaml:"seed" ini:"seed"`
	NN      NNConfig      `yaml:"nn" ini:"nn"`
	GA      GAConfig      `yaml:"ga" ini:"ga"`
	Swarm   SwarmConfig   `yaml:"swarm" ini:"swarm"`
	Task    TaskConfig    `yaml:"task" ini:"task"`
	Eval    EvalConfig    `yaml:"eval" ini:"eval"`
	Logging LogConfig     `yaml:"logging" ini:"logging"`
	Storage StorageConfig `yaml:"storage" ini:"storage"`
	Metrics MetricsConfig `yaml:"metrics" ini:"metrics"`
}

// NNConfig defines the network architecture
type NNConfig struct {
	// Hidden lists the hidden layer widths. Input and output widths come from the task.
	Hidden []int `yaml:"hidden" ini:"hidden" delim:","`
}

// GAConfig defines population and reproduction parameters
type GAConfig struct {
	Population     int     `yaml:"population" ini:"population"`
	EliteRatio     float64 `yaml:"elite_ratio" ini:"elite_ratio"`
	SurvivorRatio  float64 `yaml:"survivor_ratio" ini:"survivor_ratio"`
	WheelScope     string  `yaml:"wheel_scope" ini:"wheel_scope"`         // survivors|all
	MutationPolicy string  `yaml:"mutation_policy" ini:"mutation_policy"` // inverse_sqrt|inverse_average|inverse_log
	MutationFloor  float64 `yaml:"mutation_floor" ini:"mutation_floor"`
	InitRange      float64 `yaml:"init_range" ini:"init_range"`
	SeedArchive    string  `yaml:"seed_archive" ini:"seed_archive"` // archive file to load champions from
}

// SwarmConfig sizes the worker pool
type SwarmConfig struct {
	Workers int `yaml:"workers" ini:"workers"` // 0 = NumCPU
}

// TaskConfig selects and parameterizes the fitness task
type TaskConfig struct {
	Name    string  `yaml:"name" ini:"name"` // seek|xor
	MaxTime float64 `yaml:"max_time" ini:"max_time"`
	DT      float64 `yaml:"dt" ini:"dt"`
	Targets int     `yaml:"targets" ini:"targets"`
}

// EvalConfig defines champion benchmark parameters
type EvalConfig struct {
	BenchmarkEvery   int     `yaml:"benchmark_every" ini:"benchmark_every"`
	BenchmarkSeeds   []int64 `yaml:"benchmark_seeds" ini:"benchmark_seeds" delim:","`
	BenchmarkWorkers int     `yaml:"benchmark_workers" ini:"benchmark_workers"`
}

// LogConfig defines logging and artifact parameters
type LogConfig struct {
	Level           string `yaml:"level" ini:"level"`   // debug|info|warn|error
	Format          string `yaml:"format" ini:"format"` // text|json
	EveryGenSummary bool   `yaml:"every_gen_summary" ini:"every_gen_summary"`
	CSVPath         string `yaml:"csv_path" ini:"csv_path"`
	JSONPath        string `yaml:"json_path" ini:"json_path"`
	DumpEvery       int    `yaml:"dump_every" ini:"dump_every"`
	DumpPath        string `yaml:"dump_path" ini:"dump_path"` // base path, ".bin" is appended
}

// StorageConfig selects the champion store backend
type StorageConfig struct {
	Kind       string `yaml:"kind" ini:"kind"` // memory|sqlite
	SQLitePath string `yaml:"sqlite_path" ini:"sqlite_path"`
}

// MetricsConfig configures the prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr" ini:"addr"` // empty disables the endpoint
}

// Load reads a YAML or INI config file and returns a validated Config
func Load(path string) (*Config, error) {
	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini":
		if err := loadINI(path, cfg); err != nil {
			return nil, err
		}
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config holding only default values
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func loadINI(path string, cfg *Config) error {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
	}, path)
	if err != nil {
		return fmt.Errorf("failed to load config file '%s': %w", path, err)
	}
	if err := file.MapTo(cfg); err != nil {
		return fmt.Errorf("failed to map config file '%s': %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Seed == 0 {
		cfg.Seed = 1337
	}
	if cfg.NN.Hidden == nil {
		cfg.NN.Hidden = []int{12, 8}
	}
	if cfg.GA.Population == 0 {
		cfg.GA.Population = 1600
	}
	if cfg.GA.EliteRatio == 0 {
		cfg.GA.EliteRatio = 0.05
	}
	if cfg.GA.SurvivorRatio == 0 {
		cfg.GA.SurvivorRatio = 0.25
	}
	if cfg.GA.WheelScope == "" {
		cfg.GA.WheelScope = string(ga.ScopeSurvivors)
	}
	if cfg.GA.MutationPolicy == "" {
		cfg.GA.MutationPolicy = ga.PolicyInverseSqrt
	}
	if cfg.GA.MutationFloor == 0 {
		cfg.GA.MutationFloor = 1
	}
	if cfg.GA.InitRange == 0 {
		cfg.GA.InitRange = 16
	}
	if cfg.Task.Name == "" {
		cfg.Task.Name = "seek"
	}
	if cfg.Task.MaxTime == 0 {
		cfg.Task.MaxTime = 100
	}
	if cfg.Task.DT == 0 {
		cfg.Task.DT = 0.007
	}
	if cfg.Task.Targets == 0 {
		cfg.Task.Targets = 10
	}
	if cfg.Eval.BenchmarkEvery == 0 {
		cfg.Eval.BenchmarkEvery = 50
	}
	if len(cfg.Eval.BenchmarkSeeds) == 0 {
		cfg.Eval.BenchmarkSeeds = []int64{2000, 2001, 2002, 2003, 2004}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.CSVPath == "" {
		cfg.Logging.CSVPath = "runs/run.csv"
	}
	if cfg.Logging.JSONPath == "" {
		cfg.Logging.JSONPath = "runs/run.jsonl"
	}
	if cfg.Logging.DumpEvery == 0 {
		cfg.Logging.DumpEvery = 10
	}
	if cfg.Logging.DumpPath == "" {
		cfg.Logging.DumpPath = "artifacts/selector_output"
	}
	if cfg.Storage.Kind == "" {
		cfg.Storage.Kind = "memory"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "artifacts/champions.db"
	}
}

// Validate rejects configurations that cannot build a population
func (c *Config) Validate() error {
	if c.GA.Population < 1 {
		return &ga.ConfigError{Field: "ga.population", Reason: fmt.Sprintf("must be at least 1, got %d", c.GA.Population)}
	}
	if c.GA.EliteRatio < 0 || c.GA.EliteRatio > 1 {
		return &ga.ConfigError{Field: "ga.elite_ratio", Reason: fmt.Sprintf("must be in [0, 1], got %v", c.GA.EliteRatio)}
	}
	if c.GA.SurvivorRatio <= 0 || c.GA.SurvivorRatio > 1 {
		return &ga.ConfigError{Field: "ga.survivor_ratio", Reason: fmt.Sprintf("must be in (0, 1], got %v", c.GA.SurvivorRatio)}
	}
	switch ga.WheelScope(c.GA.WheelScope) {
	case ga.ScopeSurvivors, ga.ScopeAll:
	default:
		return &ga.ConfigError{Field: "ga.wheel_scope", Reason: fmt.Sprintf("unknown scope %q", c.GA.WheelScope)}
	}
	if _, err := ga.PolicyByName(c.GA.MutationPolicy, c.GA.MutationFloor); err != nil {
		return err
	}
	for i, w := range c.NN.Hidden {
		if w <= 0 {
			return &ga.ConfigError{Field: "nn.hidden", Reason: fmt.Sprintf("width %d at position %d must be positive", w, i)}
		}
	}
	if c.Swarm.Workers < 0 {
		return &ga.ConfigError{Field: "swarm.workers", Reason: "must not be negative"}
	}
	if c.Task.DT <= 0 || c.Task.MaxTime <= 0 {
		return &ga.ConfigError{Field: "task", Reason: "dt and max_time must be positive"}
	}
	switch c.Storage.Kind {
	case "memory", "sqlite":
	default:
		return &ga.ConfigError{Field: "storage.kind", Reason: fmt.Sprintf("unsupported backend %q", c.Storage.Kind)}
	}
	return nil
}

// Architecture builds the full width list for a task with the given input and output
// widths
func (c *Config) Architecture(inputs, outputs int) ([]int, error) {
	arch := make([]int, 0, len(c.NN.Hidden)+2)
	arch = append(arch, inputs)
	arch = append(arch, c.NN.Hidden...)
	arch = append(arch, outputs)
	if err := nn.ValidateArchitecture(arch); err != nil {
		return nil, &ga.ConfigError{Field: "nn", Reason: err.Error()}
	}
	return arch, nil
}

// SelectorOptions converts the GA section into ga.Options for arch
func (c *Config) SelectorOptions(arch []int) (ga.Options, error) {
	policy, err := ga.PolicyByName(c.GA.MutationPolicy, c.GA.MutationFloor)
	if err != nil {
		return ga.Options{}, err
	}
	return ga.Options{
		Architecture:   arch,
		PopulationSize: c.GA.Population,
		EliteRatio:     c.GA.EliteRatio,
		SurvivorRatio:  c.GA.SurvivorRatio,
		WheelScope:     ga.WheelScope(c.GA.WheelScope),
		Policy:         policy,
		InitRange:      float32(c.GA.InitRange),
	}, nil
}
