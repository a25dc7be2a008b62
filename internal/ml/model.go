package ml

import (
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"phasecast/internal/features"
	"phasecast/internal/pairs"
)

// Model bundles the fitted feature pipeline and classifier into one
// artifact. It is produced end-to-end by Train and is read-only once
// loaded; a new model is built by retraining, never by mutating an
// existing one.
type Model struct {
	Pipeline   *features.Pipeline
	Classifier *LogisticRegression

	TrainedAt       time.Time
	TrainingSamples int
}

// TrainConfig bounds the feature pipeline and the optimizer.
type TrainConfig struct {
	MaxFeatures  int
	MaxIter      int
	LearningRate float64
	L2Penalty    float64
	TestFraction float64
	Seed         int64
}

// DefaultTrainConfig mirrors the parameters the pair dataset was
// originally modeled with.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		MaxFeatures:  5000,
		MaxIter:      500,
		LearningRate: 0.5,
		L2Penalty:    1.0,
		TestFraction: 0.2,
		Seed:         42,
	}
}

// Train fits the feature pipeline and classifier on the labeled pair
// dataset and evaluates on a held-out stratified split. An empty or
// single-class dataset aborts with a training-data error.
func Train(ps []pairs.Pair, cfg TrainConfig) (*Model, Evaluation, error) {
	if len(ps) == 0 {
		return nil, Evaluation{}, ErrEmptyTrainingSet
	}

	rows := make([]features.Row, len(ps))
	labels := make([]int, len(ps))
	for i, p := range ps {
		rows[i] = features.Row{
			Text:           p.CombinedText(),
			OrgClass:       p.OrgClass,
			PrimaryPurpose: p.PrimaryPurpose,
		}
		labels[i] = p.Label
	}

	trainIdx, testIdx, err := stratifiedSplit(labels, cfg.TestFraction, cfg.Seed)
	if err != nil {
		return nil, Evaluation{}, err
	}

	trainRows := make([]features.Row, len(trainIdx))
	trainY := make([]int, len(trainIdx))
	for i, idx := range trainIdx {
		trainRows[i] = rows[idx]
		trainY[i] = labels[idx]
	}

	pipeline := features.NewPipeline(cfg.MaxFeatures)
	pipeline.Fit(trainRows)
	trainX := pipeline.TransformAll(trainRows)

	log.Info().
		Int("samples", len(trainX)).
		Int("dim", pipeline.Dim()).
		Msg("feature pipeline fitted")

	clf := NewLogisticRegression(cfg.MaxIter, cfg.LearningRate, cfg.L2Penalty)
	if err := clf.Fit(trainX, trainY); err != nil {
		return nil, Evaluation{}, err
	}

	m := &Model{
		Pipeline:        pipeline,
		Classifier:      clf,
		TrainedAt:       time.Now(),
		TrainingSamples: len(trainX),
	}

	var eval Evaluation
	if len(testIdx) > 0 {
		testX := make([]features.Vector, len(testIdx))
		testY := make([]int, len(testIdx))
		for i, idx := range testIdx {
			testX[i] = pipeline.Transform(rows[idx])
			testY[i] = labels[idx]
		}
		eval = Evaluate(clf, testX, testY)
		log.Info().
			Float64("accuracy", eval.Accuracy).
			Float64("auc", eval.AUC).
			Int("testSamples", eval.Samples).
			Msg("held-out evaluation")
	}

	return m, eval, nil
}

// Save writes the model artifact as a single binary blob.
func (m *Model) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model artifact %s: %w", path, err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(m); err != nil {
		return fmt.Errorf("encode model artifact: %w", err)
	}

	log.Info().Str("path", path).Int("samples", m.TrainingSamples).Msg("model artifact saved")
	return nil
}

// Load reads a model artifact. A missing or corrupt file is an error;
// scoring cannot proceed without a valid model, so callers treat this
// as fatal at process start.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model artifact %s: %w", path, err)
	}
	defer f.Close()

	var m Model
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model artifact %s: %w", path, err)
	}
	if m.Pipeline == nil || !m.Pipeline.Fitted() || m.Classifier == nil || !m.Classifier.Fitted() {
		return nil, fmt.Errorf("model artifact %s is incomplete", path)
	}

	log.Info().
		Str("path", path).
		Time("trainedAt", m.TrainedAt).
		Int("dim", m.Pipeline.Dim()).
		Msg("model artifact loaded")

	return &m, nil
}
