package training

import (
	"context"
	"fmt"

	"fieldops-forecast/balance"
	customerrors "fieldops-forecast/errors"
	"fieldops-forecast/ml"
	"fieldops-forecast/models"
)

// ServiceDuration fits the service duration regressor on f with mean
// imputation and standardization.
func (t *Trainer) ServiceDuration(f *ml.Frame) (*Model, error) {
	target := models.ColServiceDuration
	if err := requireColumns(f, target, ServiceDurationFeatures); err != nil {
		return nil, err
	}
	build := func(p ml.Params) *ml.Pipeline {
		return &ml.Pipeline{
			Features:  ServiceDurationFeatures,
			Imputer:   &ml.MeanImputer{},
			Scaler:    &ml.StandardScaler{},
			Regressor: ml.NewGradientBoostingRegressor(p),
		}
	}
	return t.fitRegression(f, target, models.ColServiceDurationPred, ServiceDurationArtifact, build)
}

// ResponseTime fits the response time regressor on the rows of f with no
// missing feature, standardized. Predictions read missing features as 0.
func (t *Trainer) ResponseTime(f *ml.Frame) (*Model, error) {
	target := models.ColResponseTime
	if err := requireColumns(f, target, ResponseTimeFeatures); err != nil {
		return nil, err
	}
	complete, err := f.CompleteRows(append([]string{target}, ResponseTimeFeatures...))
	if err != nil {
		return nil, err
	}
	if dropped := f.Len() - len(complete); dropped > 0 {
		t.logger.Info().Str("target", target).Int("rows_dropped", dropped).Msg("incomplete rows left out of training")
	}
	build := func(p ml.Params) *ml.Pipeline {
		return &ml.Pipeline{
			Features:  ResponseTimeFeatures,
			Scaler:    &ml.StandardScaler{},
			Regressor: ml.NewGradientBoostingRegressor(p),
		}
	}
	m, err := t.fitRegression(f.Take(complete), target, models.ColResponseTimePred, ResponseTimeArtifact, build)
	if err != nil {
		return nil, err
	}
	m.prepare = func(in *ml.Frame) (*ml.Frame, error) {
		return in.FillNaN(ResponseTimeFeatures, 0)
	}
	return m, nil
}

// IdealTime fits the ideal time regressor on one-hot encoded categories
// and predicts forward: the request month is shifted by the horizon, without
// wrapping past 12, before the model is applied.
func (t *Trainer) IdealTime(f *ml.Frame) (*Model, error) {
	target := models.ColServiceDuration
	if err := requireColumns(f, target, IdealTimeFeatures); err != nil {
		return nil, err
	}
	build := func(p ml.Params) *ml.Pipeline {
		return &ml.Pipeline{
			Features:  IdealTimeFeatures,
			Encoder:   &ml.OneHotEncoder{},
			Regressor: ml.NewGradientBoostingRegressor(p),
		}
	}
	m, err := t.fitRegression(f, target, models.ColIdealTimePred, IdealTimeArtifact, build)
	if err != nil {
		return nil, err
	}
	shift := float64(t.opts.HorizonMonths)
	m.prepare = func(in *ml.Frame) (*ml.Frame, error) {
		out := in.Clone()
		month, err := out.Numeric(models.ColRequestMonth)
		if err != nil {
			return nil, err
		}
		for i := range month {
			month[i] += shift
		}
		return out, nil
	}
	return m, nil
}

func (t *Trainer) fitRegression(f *ml.Frame, target, column, artifact string, build func(ml.Params) *ml.Pipeline) (*Model, error) {
	train, test, err := t.split(f, target)
	if err != nil {
		return nil, err
	}
	y, err := train.Numeric(target)
	if err != nil {
		return nil, err
	}
	p := build(t.params())
	if err := p.Fit(train, y); err != nil {
		return nil, fmt.Errorf("fitting %s: %w", target, err)
	}
	eval, err := t.evaluateRegression(p, train, test, target, models.VariantFinal, "")
	if err != nil {
		return nil, err
	}
	return t.persist(artifact, target, column, p, []models.Evaluation{eval})
}

// Effectiveness fits the effectiveness classifier. The held-out rows keep
// their natural class mix; only the training rows are balanced, separately
// for each status.
func (t *Trainer) Effectiveness(f *ml.Frame) (*Model, []*customerrors.UnbalanceableSegmentWarning, error) {
	target := models.ColEffectivenessID
	if err := requireColumns(f, target, EffectivenessFeatures); err != nil {
		return nil, nil, err
	}
	train, test, err := t.split(f, target)
	if err != nil {
		return nil, nil, err
	}

	names := map[float64]string{
		models.StatusCodeCommercial: string(models.StatusCommercial),
		models.StatusCodeEmergency:  string(models.StatusEmergency),
	}
	balanced, warnings, err := balance.BySegment(train, models.ColStatusID, target, t.opts.Seed, names)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		t.logger.Warn().Err(w).Str("segment", w.Segment).Int("class_0", w.Class0).Int("class_1", w.Class1).Msg("segment not balanced")
	}
	if balanced.Len() == 0 {
		return nil, warnings, fmt.Errorf("%s: %w", target, customerrors.ErrNoTrainingRows)
	}

	y, err := balanced.Numeric(target)
	if err != nil {
		return nil, warnings, err
	}
	p := &ml.Pipeline{
		Features:   EffectivenessFeatures,
		Classifier: ml.NewGradientBoostingClassifier(t.params()),
	}
	if err := p.Fit(balanced, y); err != nil {
		return nil, warnings, fmt.Errorf("fitting %s: %w", target, err)
	}

	yTest, err := test.Numeric(target)
	if err != nil {
		return nil, warnings, err
	}
	pred, err := p.Predict(test)
	if err != nil {
		return nil, warnings, err
	}
	report := ml.Classify(yTest, pred)
	eval := models.Evaluation{
		Variant:   models.VariantFinal,
		Target:    target,
		Kind:      models.KindClassification,
		Algorithm: "gradient_boosting_classifier",
		TrainRows: balanced.Len(),
		TestRows:  test.Len(),
		Precision: report.Macro.Precision,
		Recall:    report.Macro.Recall,
		F1:        report.Macro.F1,
		Accuracy:  report.Accuracy,
	}
	t.logger.Info().
		Str("target", target).
		Int("train_rows", eval.TrainRows).
		Int("test_rows", eval.TestRows).
		Float64("precision", eval.Precision).
		Float64("recall", eval.Recall).
		Float64("f1", eval.F1).
		Float64("accuracy", eval.Accuracy).
		Msg("model evaluated")

	m, err := t.persist(EffectivenessArtifact, target, models.ColEffectivenessPred, p, []models.Evaluation{eval})
	return m, warnings, err
}

// TravelTime fits a default travel time pipeline as a baseline, then grid
// searches the boosting parameters with k-fold cross-validation on the
// training rows and keeps the best candidate refitted on all of them.
func (t *Trainer) TravelTime(ctx context.Context, f *ml.Frame) (*Model, error) {
	target := models.ColTravelTime
	if err := requireColumns(f, target, TravelTimeFeatures); err != nil {
		return nil, err
	}
	build := func(p ml.Params) *ml.Pipeline {
		return &ml.Pipeline{
			Features:  TravelTimeFeatures,
			Imputer:   &ml.MeanImputer{},
			Scaler:    &ml.StandardScaler{},
			Regressor: ml.NewGradientBoostingRegressor(p),
		}
	}

	train, test, err := t.split(f, target)
	if err != nil {
		return nil, err
	}
	y, err := train.Numeric(target)
	if err != nil {
		return nil, err
	}

	baseline := build(t.params())
	if err := baseline.Fit(train, y); err != nil {
		return nil, fmt.Errorf("fitting %s baseline: %w", target, err)
	}
	baseEval, err := t.evaluateRegression(baseline, train, test, target, models.VariantBaseline, "baseline "+t.params().String())
	if err != nil {
		return nil, err
	}

	search, err := ml.GridSearch(ctx, build, train, y, t.opts.Grid, t.params(), t.opts.Folds, t.opts.GridWorkers)
	if err != nil {
		return nil, fmt.Errorf("grid search %s: %w", target, err)
	}
	t.logger.Info().
		Str("target", target).
		Int("candidates", len(search.Candidates)).
		Str("best", search.BestParams().String()).
		Float64("cv_r2", search.BestScore()).
		Msg("grid search finished")

	bestEval, err := t.evaluateRegression(search.Best, train, test, target, models.VariantFinal, "best "+search.BestParams().String())
	if err != nil {
		return nil, err
	}
	m, err := t.persist(TravelTimeArtifact, target, models.ColTravelTimePred, search.Best, []models.Evaluation{baseEval, bestEval})
	if err != nil {
		return nil, err
	}
	m.Candidates = len(search.Candidates)
	return m, nil
}
