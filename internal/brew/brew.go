// Package brew runs the cross-validated, semi-supervised training loop
// that rescores a PSM collection. Each fold trains on the other folds and
// scores only its own held-out PSMs, so no PSM is ever scored by a model
// that saw it during training.
package brew

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/psmkit/rescore/internal/dataset"
	"github.com/psmkit/rescore/internal/model"
	"github.com/psmkit/rescore/internal/qvalues"
)

// Config holds the recognized training options.
type Config struct {
	NumFolds      int     // cross-validation fold count, at least 2
	TrainFDR      float64 // FDR cutoff for selecting positive training examples
	MaxIterations int     // training loop cap per fold, at least 1
	Seed          int64   // fold assignment determinism

	// InitialScores overrides the initial ranking. When nil the best
	// single feature of the collection is used instead.
	InitialScores []float64
}

// DefaultConfig returns the default training options.
func DefaultConfig() Config {
	return Config{
		NumFolds:      3,
		TrainFDR:      0.01,
		MaxIterations: 10,
		Seed:          1,
	}
}

func (c Config) validate(numPSMs int) error {
	if c.NumFolds < 2 {
		return fmt.Errorf("brew: num_folds %d, must be at least 2", c.NumFolds)
	}
	if c.TrainFDR <= 0 || c.TrainFDR >= 1 {
		return fmt.Errorf("brew: train_fdr %g, must be in (0,1)", c.TrainFDR)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("brew: max_iterations %d, must be at least 1", c.MaxIterations)
	}
	if c.InitialScores != nil && len(c.InitialScores) != numPSMs {
		return fmt.Errorf("brew: %d initial scores for %d PSMs",
			len(c.InitialScores), numPSMs)
	}
	return nil
}

// Result holds the outcome of a training run.
type Result struct {
	// Scores contains the final held-out score of every PSM, aligned to
	// the collection order.
	Scores []float64
	// Models contains the fitted model of each fold, indexed by fold.
	Models []model.Model
	Folds  dataset.Folds
}

type foldResult struct {
	fold   int
	model  model.Model
	scores []float64 // aligned to the held-out indices of the fold
	err    error
}

// Brew assigns folds, trains one model per fold and returns the held-out
// scores. Folds are trained on parallel goroutines; each fold reads only
// its own partition and writes only its own result, so no locking is
// needed beyond the final join. Cancellation is checked once per training
// iteration; on cancellation partial results are discarded.
func Brew(ctx context.Context, ds *dataset.Collection, clf model.Classifier,
	cfg Config, logger *zap.SugaredLogger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if err := cfg.validate(ds.Len()); err != nil {
		return nil, err
	}
	folds, err := ds.AssignFolds(cfg.NumFolds, cfg.Seed)
	if err != nil {
		return nil, err
	}

	init := cfg.InitialScores
	if init == nil {
		init, err = initialScores(ds, cfg.TrainFDR, logger)
		if err != nil {
			return nil, err
		}
	}

	results := make([]foldResult, cfg.NumFolds)
	var wg sync.WaitGroup
	for f := 0; f < cfg.NumFolds; f++ {
		wg.Add(1)
		go func(f int) {
			defer wg.Done()
			results[f] = trainFold(ctx, ds, folds, f, init, clf, cfg, logger)
		}(f)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for f := range results {
		if results[f].err != nil {
			return nil, results[f].err
		}
	}

	res := &Result{
		Scores: make([]float64, ds.Len()),
		Models: make([]model.Model, cfg.NumFolds),
		Folds:  folds,
	}
	for f := range results {
		res.Models[f] = results[f].model
		held, _ := folds.Split(f)
		for i, idx := range held {
			res.Scores[idx] = results[f].scores[i]
		}
	}
	return res, nil
}

// trainFold runs the iterative train/label/re-train loop for one fold and
// scores the fold's held-out PSMs with the resulting model.
func trainFold(ctx context.Context, ds *dataset.Collection, folds dataset.Folds,
	fold int, init []float64, clf model.Classifier, cfg Config,
	logger *zap.SugaredLogger) foldResult {

	held, train := folds.Split(fold)
	trainX := ds.FeatureRows(train)
	allDecoys := ds.Decoys()

	decoy := make([]bool, len(train))
	scores := make([]float64, len(train))
	for i, idx := range train {
		decoy[i] = allDecoys[idx]
		scores[i] = init[idx]
	}

	var (
		prevPositives []int
		bestPositives []int
	)
	for it := 0; it < cfg.MaxIterations; it++ {
		if err := ctx.Err(); err != nil {
			return foldResult{fold: fold, err: err}
		}

		positives, err := selectPositives(scores, decoy, cfg.TrainFDR)
		if err != nil {
			return foldResult{fold: fold, err: fmt.Errorf("fold %d: %w", fold, err)}
		}
		logger.Debugw("training iteration", "fold", fold, "iteration", it,
			"positives", len(positives))

		// The split yielding the most positive targets is kept for the
		// final fit; on ties the earliest iteration wins.
		if len(positives) > len(bestPositives) {
			bestPositives = positives
		}
		if equalInts(positives, prevPositives) {
			break
		}
		prevPositives = positives

		m, err := fitSubset(clf, trainX, decoy, positives)
		if err != nil {
			return foldResult{fold: fold, err: fmt.Errorf("fold %d: %w", fold, err)}
		}
		// New scores replace the previous ones for the training set only.
		scores = m.Score(trainX)
	}

	final, err := fitSubset(clf, trainX, decoy, bestPositives)
	if err != nil {
		return foldResult{fold: fold, err: fmt.Errorf("fold %d: %w", fold, err)}
	}
	heldScores := final.Score(ds.FeatureRows(held))
	logger.Infow("fold trained", "fold", fold, "positives", len(bestPositives),
		"held_out", len(held))
	return foldResult{fold: fold, model: final, scores: heldScores}
}

// selectPositives returns the indices of targets that pass the training
// FDR cutoff under target-decoy competition of the given scores.
func selectPositives(scores []float64, decoy []bool, trainFDR float64) ([]int, error) {
	qvals, err := qvalues.Compute(scores, decoy)
	if err != nil {
		return nil, err
	}
	var positives []int
	for i, q := range qvals {
		if !decoy[i] && q <= trainFDR {
			positives = append(positives, i)
		}
	}
	if len(positives) == 0 {
		return nil, fmt.Errorf("%w: no targets at train FDR %g",
			dataset.ErrInsufficientData, trainFDR)
	}
	return positives, nil
}

// fitSubset fits the classifier on the positive targets and all decoys of
// the training partition.
func fitSubset(clf model.Classifier, trainX *mat.Dense, decoy []bool,
	positives []int) (model.Model, error) {

	rows := make([]int, 0, len(positives)+len(decoy))
	labels := make([]bool, 0, len(positives)+len(decoy))
	for _, i := range positives {
		rows = append(rows, i)
		labels = append(labels, true)
	}
	for i, d := range decoy {
		if d {
			rows = append(rows, i)
			labels = append(labels, false)
		}
	}
	return clf.Fit(subMatrix(trainX, rows), labels)
}

func subMatrix(x *mat.Dense, rows []int) *mat.Dense {
	_, cols := x.Dims()
	out := mat.NewDense(len(rows), cols, nil)
	for r, i := range rows {
		out.SetRow(r, x.RawRowView(i))
	}
	return out
}

// initialScores picks the single feature (and sign) that yields the most
// targets at the training FDR over the whole collection, and returns that
// feature as the initial score vector.
func initialScores(ds *dataset.Collection, trainFDR float64,
	logger *zap.SugaredLogger) ([]float64, error) {

	decoy := ds.Decoys()
	bestCount := -1
	bestFeat := -1
	bestSign := 1.0
	for j := 0; j < ds.NumFeatures(); j++ {
		col := ds.FeatureColumn(j)
		for _, sign := range []float64{1, -1} {
			scores := make([]float64, len(col))
			for i, v := range col {
				scores[i] = sign * v
			}
			qvals, err := qvalues.Compute(scores, decoy)
			if err != nil {
				// Constant features cannot rank anything.
				continue
			}
			count := qvalues.TargetsAt(qvals, decoy, trainFDR)
			if count > bestCount {
				bestCount = count
				bestFeat = j
				bestSign = sign
			}
		}
	}
	if bestFeat < 0 || bestCount == 0 {
		return nil, fmt.Errorf("%w: no feature yields targets at train FDR %g",
			dataset.ErrInsufficientData, trainFDR)
	}
	logger.Infow("initial direction", "feature", ds.FeatureNames()[bestFeat],
		"sign", bestSign, "positives", bestCount)

	col := ds.FeatureColumn(bestFeat)
	init := make([]float64, len(col))
	for i, v := range col {
		init[i] = bestSign * v
	}
	return init, nil
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
