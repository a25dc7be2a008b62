// Package ml holds the linear classifier, the persisted model bundle
// and the scoring contract consumed by the UI.
package ml

import (
	"errors"
	"math"

	"github.com/rs/zerolog/log"

	"phasecast/internal/features"
)

// Training-data failures. Both are fatal at training time: fitting a
// degenerate model silently is worse than aborting.
var (
	ErrEmptyTrainingSet  = errors.New("ml: training set is empty")
	ErrSingleClassLabels = errors.New("ml: training labels contain a single class")
)

// LogisticRegression is a binary linear classifier with class-balanced
// sample weighting. Fitting runs full-batch gradient descent for at
// most MaxIter iterations; hitting the cap without converging is not
// an error. Once fitted, predictions are pure functions of the
// coefficients.
type LogisticRegression struct {
	Weights []float64
	Bias    float64

	MaxIter      int
	LearningRate float64
	L2Penalty    float64
	Converged    bool
	Iterations   int
}

// NewLogisticRegression creates an unfitted classifier with the given
// optimization bounds.
func NewLogisticRegression(maxIter int, learningRate, l2 float64) *LogisticRegression {
	if maxIter <= 0 {
		maxIter = 500
	}
	if learningRate <= 0 {
		learningRate = 0.5
	}
	return &LogisticRegression{
		MaxIter:      maxIter,
		LearningRate: learningRate,
		L2Penalty:    l2,
	}
}

// Fitted reports whether Fit has run.
func (lr *LogisticRegression) Fitted() bool { return lr.Weights != nil }

const gradientTolerance = 1e-5

// Fit trains the classifier on sparse feature vectors and binary
// labels. Sample weights are balanced so that each class contributes
// equally regardless of label imbalance: w(c) = n / (2 * n(c)).
func (lr *LogisticRegression) Fit(x []features.Vector, y []int) error {
	if len(x) == 0 {
		return ErrEmptyTrainingSet
	}

	var pos int
	for _, label := range y {
		pos += label
	}
	neg := len(y) - pos
	if pos == 0 || neg == 0 {
		return ErrSingleClassLabels
	}

	n := float64(len(y))
	classWeight := [2]float64{n / (2 * float64(neg)), n / (2 * float64(pos))}

	dim := x[0].Dim
	lr.Weights = make([]float64, dim)
	lr.Bias = 0
	lr.Converged = false

	grad := make([]float64, dim)
	for iter := 0; iter < lr.MaxIter; iter++ {
		for i := range grad {
			grad[i] = lr.L2Penalty * lr.Weights[i] / n
		}
		var gradBias float64

		for i, v := range x {
			p := sigmoid(v.Dot(lr.Weights) + lr.Bias)
			residual := classWeight[y[i]] * (p - float64(y[i])) / n
			for j, idx := range v.Indices {
				grad[idx] += residual * v.Values[j]
			}
			gradBias += residual
		}

		var norm float64
		for _, g := range grad {
			norm += g * g
		}
		norm += gradBias * gradBias

		for i := range lr.Weights {
			lr.Weights[i] -= lr.LearningRate * grad[i]
		}
		lr.Bias -= lr.LearningRate * gradBias
		lr.Iterations = iter + 1

		if math.Sqrt(norm) < gradientTolerance {
			lr.Converged = true
			break
		}
	}

	if !lr.Converged {
		log.Warn().Int("iterations", lr.Iterations).Msg("gradient descent hit the iteration cap without converging")
	} else {
		log.Debug().Int("iterations", lr.Iterations).Msg("gradient descent converged")
	}

	return nil
}

// PredictProba returns the estimated probability of the positive
// (success) class, always in [0, 1]. Panics if the classifier has not
// been fitted.
func (lr *LogisticRegression) PredictProba(v features.Vector) float64 {
	if !lr.Fitted() {
		panic("ml: PredictProba called before Fit")
	}
	return sigmoid(v.Dot(lr.Weights) + lr.Bias)
}

// Predict returns the thresholded decision: 1 iff PredictProba >= 0.5.
func (lr *LogisticRegression) Predict(v features.Vector) int {
	if lr.PredictProba(v) >= 0.5 {
		return 1
	}
	return 0
}

func sigmoid(z float64) float64 {
	// Split on sign to stay numerically stable for large |z|.
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
