// Package training fits, evaluates and persists the five forecasting models.
package training

import (
	"fmt"
	"path/filepath"
	"time"

	customerrors "fieldops-forecast/errors"
	"fieldops-forecast/features"
	"fieldops-forecast/ml"
	"fieldops-forecast/models"

	"github.com/rs/zerolog"
)

// Options configure a Trainer.
type Options struct {
	ArtifactDir   string
	RunID         string
	Seed          int64
	HorizonMonths int
	// Now anchors the forecast horizon.
	Now         time.Time
	GridWorkers int
	// Params are the base boosting parameters of every model.
	Params ml.Params
	Grid   ml.Grid
	Folds  int
}

// DefaultOptions returns the production settings writing into dir.
func DefaultOptions(dir, runID string, now time.Time) Options {
	return Options{
		ArtifactDir:   dir,
		RunID:         runID,
		Seed:          42,
		HorizonMonths: 3,
		Now:           now,
		Params:        ml.DefaultParams(),
		Grid:          ml.TravelGrid,
		Folds:         3,
	}
}

// Model is a trained and persisted model ready to predict one output column.
type Model struct {
	Target   string
	Column   string
	Path     string
	Artifact *ml.Artifact
	// Evaluations are in training order; the last one belongs to the
	// persisted pipeline.
	Evaluations []models.Evaluation
	// Candidates is the number of grid candidates searched, 0 without a search.
	Candidates int

	prepare func(f *ml.Frame) (*ml.Frame, error)
}

// OutputColumn returns the name of the prediction column.
func (m *Model) OutputColumn() string {
	return m.Column
}

// Predict applies the model to every row of f.
func (m *Model) Predict(f *ml.Frame) ([]float64, error) {
	in := f
	if m.prepare != nil {
		var err error
		if in, err = m.prepare(f); err != nil {
			return nil, err
		}
	}
	return m.Artifact.Predict(in)
}

// Trainer runs the training protocols.
type Trainer struct {
	opts   Options
	logger zerolog.Logger
}

// NewTrainer returns a Trainer with the given options.
func NewTrainer(opts Options, logger zerolog.Logger) *Trainer {
	if opts.Folds == 0 {
		opts.Folds = 3
	}
	return &Trainer{opts: opts, logger: logger.With().Str("component", "training").Logger()}
}

// HorizonRows keeps rows whose forecast quarter is at most the quarter of
// the anchor time plus the horizon.
func (t *Trainer) HorizonRows(f *ml.Frame) (*ml.Frame, error) {
	quarter, err := f.Numeric(models.ColForecastQuarter)
	if err != nil {
		return nil, err
	}
	limit := float64(features.ForecastQuarter(t.opts.Now, t.opts.HorizonMonths))
	return f.Filter(func(i int) bool { return quarter[i] <= limit }), nil
}

func (t *Trainer) params() ml.Params {
	p := t.opts.Params
	p.Seed = t.opts.Seed
	return p
}

// split divides f into training and held-out frames.
func (t *Trainer) split(f *ml.Frame, target string) (train, test *ml.Frame, err error) {
	trainIdx, testIdx, err := ml.TrainTestSplit(f.Len(), ml.DefaultTestFraction, t.opts.Seed)
	if err != nil {
		return nil, nil, fmt.Errorf("splitting %s: %w", target, err)
	}
	return f.Take(trainIdx), f.Take(testIdx), nil
}

func (t *Trainer) evaluateRegression(p *ml.Pipeline, train, test *ml.Frame, target, variant, note string) (models.Evaluation, error) {
	y, err := test.Numeric(target)
	if err != nil {
		return models.Evaluation{}, err
	}
	pred, err := p.Predict(test)
	if err != nil {
		return models.Evaluation{}, err
	}
	eval := models.Evaluation{
		Variant:   variant,
		Target:    target,
		Kind:      models.KindRegression,
		Algorithm: "gradient_boosting_regressor",
		TrainRows: train.Len(),
		TestRows:  test.Len(),
		RMSE:      ml.RMSE(y, pred),
		R2:        ml.R2(y, pred),
		Note:      note,
	}
	t.logger.Info().
		Str("target", target).
		Str("variant", variant).
		Int("train_rows", eval.TrainRows).
		Int("test_rows", eval.TestRows).
		Float64("rmse", eval.RMSE).
		Float64("r2", eval.R2).
		Str("note", note).
		Msg("model evaluated")
	return eval, nil
}

// persist wraps p with its metadata and writes it to the artifact directory.
// Every evaluation is stamped with the prediction column of the model.
func (t *Trainer) persist(name, target, column string, p *ml.Pipeline, evals []models.Evaluation) (*Model, error) {
	for i := range evals {
		evals[i].Model = column
	}
	last := evals[len(evals)-1]
	art := ml.NewArtifact(target, t.opts.RunID, p, &last, t.opts.Now)
	path := filepath.Join(t.opts.ArtifactDir, name)
	if err := art.Save(path); err != nil {
		return nil, err
	}
	t.logger.Info().Str("target", target).Str("model", column).Str("path", path).Msg("artifact saved")
	return &Model{Target: target, Column: column, Path: path, Artifact: art, Evaluations: evals}, nil
}

// requireColumns checks f carries the target and every feature before a
// protocol starts.
func requireColumns(f *ml.Frame, target string, features []string) error {
	for _, c := range append([]string{target}, features...) {
		if !f.Has(c) {
			return &customerrors.SchemaError{Table: f.Name, Column: c}
		}
	}
	return nil
}
