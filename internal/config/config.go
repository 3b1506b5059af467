package config

import (
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/mosim/internal/engine"
)

const (
	DefaultEngine    = "dymola"
	DefaultStopTime  = 1.0
	DefaultTolerance = 1e-6
	DefaultOutput    = "."
	DefaultPackage   = "."
)

type Config struct {
	Engine      string         `yaml:"engine"`
	Model       string         `yaml:"model"`
	Package     string         `yaml:"package"`
	Output      string         `yaml:"output"`
	Settings    SettingsConfig `yaml:"settings"`
	Parameters  map[string]any `yaml:"parameters"`
	Modifiers   []string       `yaml:"modifiers"`
	PreScript   []string       `yaml:"pre_script"`
	PostScript  []string       `yaml:"post_script"`
	KeepWorkDir bool           `yaml:"keep_workdir"`
}

type SettingsConfig struct {
	StartTime  float64 `yaml:"start_time"`
	StopTime   float64 `yaml:"stop_time"`
	Tolerance  float64 `yaml:"tolerance"`
	Solver     string  `yaml:"solver"`
	Intervals  int     `yaml:"intervals"`
	ResultFile string  `yaml:"result_file"`
	// TimeoutSec kills the external tool after this many seconds;
	// zero or negative means never.
	TimeoutSec float64 `yaml:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Engine:  DefaultEngine,
		Package: DefaultPackage,
		Output:  DefaultOutput,
		Settings: SettingsConfig{
			StartTime: 0,
			StopTime:  DefaultStopTime,
			Tolerance: DefaultTolerance,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadInto(path, DefaultConfig())
}

// LoadInto reads a config file over an existing configuration. Fields the
// file does not set keep their base values, so a preset can be layered
// under a file that only overrides part of it.
func LoadInto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Job converts the configuration into an engine job. YAML maps are
// unordered, so parameters are sorted by name to keep generated scripts
// stable across runs.
func (c *Config) Job() *engine.Job {
	job := engine.NewJob(c.Model, c.Package)
	job.OutputDir = c.Output
	job.KeepWorkDir = c.KeepWorkDir
	job.Modifiers = append(job.Modifiers, c.Modifiers...)
	job.PreScript = append(job.PreScript, c.PreScript...)
	job.PostScript = append(job.PostScript, c.PostScript...)

	job.Settings.StartTime = c.Settings.StartTime
	job.Settings.StopTime = c.Settings.StopTime
	job.Settings.Tolerance = c.Settings.Tolerance
	job.Settings.Solver = c.Settings.Solver
	job.Settings.Intervals = c.Settings.Intervals
	if c.Settings.ResultFile != "" {
		job.Settings.ResultFile = c.Settings.ResultFile
	}
	if c.Settings.TimeoutSec > 0 {
		job.Settings.Timeout = time.Duration(c.Settings.TimeoutSec * float64(time.Second))
	}

	names := make([]string, 0, len(c.Parameters))
	for name := range c.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		job.AddParameter(name, c.Parameters[name])
	}

	return job
}
