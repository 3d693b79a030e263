package config

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//Config holds every tunable for a correction run. Values from a YAML file
//overlay the defaults; command line flags overlay both.
type Config struct {
	Input   string `yaml:"input"`
	Output  string `yaml:"output"`
	Discard string `yaml:"discard"`
	Metrics string `yaml:"metrics"`

	Algorithm      string  `yaml:"algorithm"`
	KmerLength     int     `yaml:"kmerLength"`
	MinOverlap     int     `yaml:"minOverlap"`
	MinIdentity    float64 `yaml:"minIdentity"`
	KmerRounds     int     `yaml:"kmerRounds"`
	OverlapRounds  int     `yaml:"overlapRounds"`
	ConflictCutoff int     `yaml:"conflictCutoff"`
	ErrorRate      float64 `yaml:"errorRate"`
	BaseMinSupport int     `yaml:"baseMinSupport"`

	Threads     int    `yaml:"threads"`
	MetricsAddr string `yaml:"metricsAddr"`
	Verbose     bool   `yaml:"verbose"`
}

func Default() Config {
	return Config{
		Output:         "corrected.fa",
		Algorithm:      "kmer",
		KmerLength:     31,
		MinOverlap:     45,
		MinIdentity:    95.0,
		KmerRounds:     10,
		OverlapRounds:  5,
		ConflictCutoff: 5,
		ErrorRate:      0.04,
		Threads:        runtime.NumCPU(),
	}
}

//Load reads a YAML config, overlaying the defaults
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrap(err, "reading config")
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrapf(err, "parsing config %s", path)
	}
	return c, nil
}
