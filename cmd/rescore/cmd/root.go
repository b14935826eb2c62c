// Package cmd provides the rescore CLI.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/psmkit/rescore/internal/brew"
	"github.com/psmkit/rescore/internal/confidence"
	"github.com/psmkit/rescore/internal/dataset"
	"github.com/psmkit/rescore/internal/model"
	"github.com/psmkit/rescore/internal/mzident"
	"github.com/psmkit/rescore/internal/pin"
)

var (
	inputFile  string
	configFile string
	outDir     string
	fileRoot   string
	sqliteFile string
	numFolds   int
	trainFDR   float64
	maxIter    int
	seed       int64
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "rescore [flags] <input file>",
	Short: "Rescore PSMs and estimate FDR-based confidence",
	Long: `rescore re-ranks peptide-spectrum matches from a search engine using a
semi-supervised learning loop over target and decoy matches, and converts
the resulting scores into q-values at the PSM, peptide and protein level.

Input is a Percolator tab-delimited file (.pin) or an mzIdentML file
(.mzid); the format is detected from the extension. One tab-delimited
result file is written per confidence level.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRescore,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "", "YAML settings file (flags override it)")
	rootCmd.Flags().StringVarP(&outDir, "out-dir", "d", ".", "directory for result files")
	rootCmd.Flags().StringVarP(&fileRoot, "root", "r", "rescore", "file root for result files")
	rootCmd.Flags().StringVar(&sqliteFile, "sqlite", "", "also write results to this SQLite database")
	rootCmd.Flags().IntVar(&numFolds, "folds", 3, "cross-validation fold count (>= 2)")
	rootCmd.Flags().Float64Var(&trainFDR, "train-fdr", 0.01, "FDR cutoff for positive training examples")
	rootCmd.Flags().IntVar(&maxIter, "max-iterations", 10, "training iterations per fold")
	rootCmd.Flags().Int64Var(&seed, "seed", 1, "seed for fold assignment")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print per-iteration progress")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only print errors")
}

func runRescore(cc *cobra.Command, args []string) error {
	inputFile = args[0]

	cfg := brew.DefaultConfig()
	if configFile != "" {
		if err := loadSettings(configFile, &cfg); err != nil {
			return err
		}
	}
	// Flags set on the command line take precedence over the file.
	if cc.Flags().Changed("folds") {
		cfg.NumFolds = numFolds
	}
	if cc.Flags().Changed("train-fdr") {
		cfg.TrainFDR = trainFDR
	}
	if cc.Flags().Changed("max-iterations") {
		cfg.MaxIterations = maxIter
	}
	if cc.Flags().Changed("seed") {
		cfg.Seed = seed
	}

	logger, err := buildLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	psms, featNames, err := readInput(inputFile)
	if err != nil {
		return err
	}
	ds, err := dataset.New(psms, featNames)
	if err != nil {
		return err
	}
	sugar.Infow("input read", "file", inputFile, "psms", ds.Len(),
		"features", ds.NumFeatures())

	result, err := brew.Brew(cc.Context(), ds, model.NewLinear(), cfg, sugar)
	if err != nil {
		return err
	}
	if err := ds.SetScores(result.Scores); err != nil {
		return err
	}

	levels, err := confidence.Assign(ds, result.Scores)
	if err != nil {
		return err
	}
	paths, err := levels.WriteTSV(outDir, fileRoot)
	if err != nil {
		return err
	}
	for _, p := range paths {
		sugar.Infow("wrote", "file", p)
	}
	if sqliteFile != "" {
		if err := levels.WriteSQLite(sqliteFile); err != nil {
			return err
		}
		sugar.Infow("wrote", "file", sqliteFile)
	}
	return nil
}

func readInput(path string) ([]dataset.PSM, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pin", ".tsv", ".tab":
		return pin.Read(f)
	case ".mzid":
		return mzident.Read(f)
	default:
		return nil, nil, fmt.Errorf("cannot detect input format from extension of %s (expected .pin or .mzid)", path)
	}
}

func buildLogger() (*zap.Logger, error) {
	if quiet {
		return zap.NewNop(), nil
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableCaller = true
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
