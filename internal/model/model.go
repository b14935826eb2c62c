// Package model defines the classifier contract used by the trainer and a
// linear (logistic regression) implementation fitted with gonum/optimize.
//
// The trainer only needs supervised fit and predict-score over feature
// vectors and binary labels, so any backend satisfying Classifier can be
// plugged in.
package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

var ErrModelFit = errors.New("model: fit failed")

// Model is a fitted scoring function over feature vectors.
// Implementations are immutable after creation.
type Model interface {
	Score(features *mat.Dense) []float64
}

// Classifier fits a Model on labeled feature vectors.
// labels[i] is true for positive examples.
type Classifier interface {
	Fit(features *mat.Dense, labels []bool) (Model, error)
}

// Linear fits an L2-regularized logistic regression by minimizing the
// cross-entropy loss with gonum/optimize.
type Linear struct {
	// Lambda is the L2 penalty on the weights (not the intercept).
	Lambda float64
}

// NewLinear returns a Linear classifier with the default penalty.
func NewLinear() *Linear {
	return &Linear{Lambda: 0.01}
}

// linearModel holds the fitted weights together with the feature scaling
// of the training partition, so held-out vectors are transformed the same
// way before scoring.
type linearModel struct {
	weights []float64
	bias    float64
	mean    []float64
	scale   []float64
}

// Fit fits the classifier. It fails with ErrModelFit when the input shape
// is invalid, only one class is present, or the optimizer does not produce
// finite parameters.
func (l *Linear) Fit(features *mat.Dense, labels []bool) (Model, error) {
	rows, cols := features.Dims()
	if rows != len(labels) {
		return nil, fmt.Errorf("%w: %d rows, %d labels", ErrModelFit, rows, len(labels))
	}
	var pos, neg int
	for _, lb := range labels {
		if lb {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return nil, fmt.Errorf("%w: need both classes, got %d positive and %d negative",
			ErrModelFit, pos, neg)
	}

	mean, scale := columnStats(features)
	x := standardize(features, mean, scale)

	y := make([]float64, rows)
	for i, lb := range labels {
		if lb {
			y[i] = 1
		}
	}

	// Minimize the regularized cross-entropy. Parameter vector layout:
	// weights for each feature followed by the intercept.
	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			loss := 0.0
			for i := 0; i < rows; i++ {
				z := p[cols]
				for j := 0; j < cols; j++ {
					z += p[j] * x.At(i, j)
				}
				// log(1+exp(-z)) for y=1, log(1+exp(z)) for y=0
				if y[i] == 1 {
					loss += logOnePlusExp(-z)
				} else {
					loss += logOnePlusExp(z)
				}
			}
			for j := 0; j < cols; j++ {
				loss += 0.5 * l.Lambda * p[j] * p[j]
			}
			return loss
		},
		Grad: func(grad, p []float64) {
			for j := range grad {
				grad[j] = 0
			}
			for i := 0; i < rows; i++ {
				z := p[cols]
				for j := 0; j < cols; j++ {
					z += p[j] * x.At(i, j)
				}
				d := sigmoid(z) - y[i]
				for j := 0; j < cols; j++ {
					grad[j] += d * x.At(i, j)
				}
				grad[cols] += d
			}
			for j := 0; j < cols; j++ {
				grad[j] += l.Lambda * p[j]
			}
		},
	}

	p0 := make([]float64, cols+1)
	result, err := optimize.Minimize(problem, p0, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelFit, err)
	}
	for _, v := range result.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite parameters", ErrModelFit)
		}
	}

	m := &linearModel{
		weights: result.X[:cols],
		bias:    result.X[cols],
		mean:    mean,
		scale:   scale,
	}
	return m, nil
}

// Score returns the linear decision value for each row.
func (m *linearModel) Score(features *mat.Dense) []float64 {
	rows, cols := features.Dims()
	scores := make([]float64, rows)
	for i := 0; i < rows; i++ {
		z := m.bias
		for j := 0; j < cols && j < len(m.weights); j++ {
			z += m.weights[j] * (features.At(i, j) - m.mean[j]) / m.scale[j]
		}
		scores[i] = z
	}
	return scores
}

// columnStats returns per-column mean and standard deviation.
// Constant columns get scale 1 so standardization leaves them at zero.
func columnStats(x *mat.Dense) (mean, scale []float64) {
	rows, cols := x.Dims()
	mean = make([]float64, cols)
	scale = make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		m, sd := stat.MeanStdDev(col, nil)
		if sd == 0 || math.IsNaN(sd) {
			sd = 1
		}
		mean[j] = m
		scale[j] = sd
	}
	return mean, scale
}

func standardize(x *mat.Dense, mean, scale []float64) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, (x.At(i, j)-mean[j])/scale[j])
		}
	}
	return out
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

// logOnePlusExp computes log(1+exp(v)) without overflow for large v.
func logOnePlusExp(v float64) float64 {
	if v > 35 {
		return v
	}
	return math.Log1p(math.Exp(v))
}
