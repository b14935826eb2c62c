package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/psmkit/rescore/internal/brew"
)

// settings mirrors the training options in a YAML file. Absent keys keep
// their defaults.
type settings struct {
	NumFolds      *int     `yaml:"num_folds"`
	TrainFDR      *float64 `yaml:"train_fdr"`
	MaxIterations *int     `yaml:"max_iterations"`
	Seed          *int64   `yaml:"seed"`
}

func loadSettings(path string, cfg *brew.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("settings file: %w", err)
	}
	var s settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("settings file %s: %w", path, err)
	}
	if s.NumFolds != nil {
		cfg.NumFolds = *s.NumFolds
	}
	if s.TrainFDR != nil {
		cfg.TrainFDR = *s.TrainFDR
	}
	if s.MaxIterations != nil {
		cfg.MaxIterations = *s.MaxIterations
	}
	if s.Seed != nil {
		cfg.Seed = *s.Seed
	}
	return nil
}
