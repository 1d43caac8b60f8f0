// Package pipeline runs one forecasting batch from the raw exports to the
// enriched dataset and the persisted models.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"fieldops-forecast/features"
	"fieldops-forecast/filter"
	"fieldops-forecast/metrics"
	"fieldops-forecast/ml"
	"fieldops-forecast/models"
	"fieldops-forecast/training"
	"fieldops-forecast/unify"
	"fieldops-forecast/writer"

	"github.com/rs/zerolog"
)

// Input base names, looked up in the output directory with a .csv or .xlsx
// extension.
const (
	CommercialInput = "oper_comercial"
	EmergencyInput  = "oper_emergencial"
	LookupInput     = "IDs"
)

// Output file names.
const (
	UnifiedOutput  = "dataframe_OPER.csv"
	EnrichedOutput = "ML_dataframe_OPER.csv"
)

// Stage names reported in the run summary.
const (
	StageUnify    = "unify"
	StageModel    = "model_frame"
	StageHorizon  = "forecast_horizon"
	StageEnriched = "enriched"
)

// Options configure a run. Every stage reads its inputs from and writes its
// outputs to OutputDir.
type Options struct {
	OutputDir     string
	RunID         string
	Seed          int64
	HorizonMonths int
	GridWorkers   int
	// Now anchors the forecast horizon and stamps the artifacts.
	Now time.Time
}

// Runner executes the pipeline stages in order.
type Runner struct {
	opts   Options
	logger zerolog.Logger
	train  training.Options
}

// New returns a Runner for opts.
func New(opts Options, logger zerolog.Logger) *Runner {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	train := training.DefaultOptions(opts.OutputDir, opts.RunID, opts.Now)
	train.Seed = opts.Seed
	train.HorizonMonths = opts.HorizonMonths
	train.GridWorkers = opts.GridWorkers
	return &Runner{opts: opts, logger: logger, train: train}
}

// WithTraining replaces the training options, keeping the directory, run id
// and clock of the runner.
func (r *Runner) WithTraining(opts training.Options) *Runner {
	opts.ArtifactDir = r.opts.OutputDir
	opts.RunID = r.opts.RunID
	opts.Now = r.opts.Now
	r.train = opts
	return r
}

// Run executes one batch. The returned summary describes everything done up
// to the point of failure, if any.
func (r *Runner) Run(ctx context.Context) (*models.RunSummary, error) {
	metrics.ResetRunGauges()
	summary := &models.RunSummary{
		RunID:     r.opts.RunID,
		StartedAt: time.Now(),
		Artifacts: make(map[string]string),
	}
	err := r.run(ctx, summary)
	summary.FinishedAt = time.Now()
	if err != nil {
		metrics.RunFailuresTotal.Inc()
		r.logger.Error().Err(err).Msg("run failed")
		return summary, err
	}
	r.logger.Info().
		Int("warnings", len(summary.Warnings)).
		Dur("elapsed", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("run finished")
	return summary, nil
}

func (r *Runner) run(ctx context.Context, summary *models.RunSummary) error {
	lookups, err := r.loadLookups()
	if err != nil {
		return err
	}
	emergency, err := r.prepareSegment(models.EmergencySchema, EmergencyInput, lookups, summary)
	if err != nil {
		return err
	}
	commercial, err := r.prepareSegment(models.CommercialSchema, CommercialInput, lookups, summary)
	if err != nil {
		return err
	}

	start := time.Now()
	unified := unify.Unify(emergency, commercial)
	byStatus := unify.CountByStatus(unified)
	r.logger.Info().
		Int("emergency", byStatus[models.StatusEmergency]).
		Int("commercial", byStatus[models.StatusCommercial]).
		Msg("segments unified")
	r.stage(summary, models.StageCount{Stage: StageUnify, RowsIn: len(emergency) + len(commercial), RowsOut: len(unified)}, start)
	if err := r.writeDataset(summary, UnifiedOutput, features.UnifiedFrame(unified), models.UnifiedColumns); err != nil {
		return err
	}

	start = time.Now()
	plausible := filter.Plausibility().Run(unified)
	for _, c := range plausible.Counts {
		r.stage(summary, c, start)
	}
	frame := features.ModelFrame(plausible.Orders, r.opts.HorizonMonths)
	r.stage(summary, models.StageCount{Stage: StageModel, RowsIn: len(plausible.Orders), RowsOut: frame.Len()}, start)

	trained, final, err := r.trainModels(ctx, summary, plausible.Orders, frame)
	if err != nil {
		return err
	}

	start = time.Now()
	enriched, err := writer.Enrich(final, trained)
	if err != nil {
		return err
	}
	r.stage(summary, models.StageCount{Stage: StageEnriched, RowsIn: final.Len(), RowsOut: enriched.Len()}, start)
	return r.writeDataset(summary, EnrichedOutput, enriched, models.EnrichedColumns)
}

// trainModels fits the five models and returns them with the frame they
// predict over: the model frame after the travel sigma filter.
func (r *Runner) trainModels(ctx context.Context, summary *models.RunSummary, orders []models.WorkOrder, frame *ml.Frame) ([]writer.Predictor, *ml.Frame, error) {
	trainer := training.NewTrainer(r.train, r.logger)
	var trained []writer.Predictor
	keep := func(m *training.Model, stage string, start time.Time) {
		trained = append(trained, m)
		summary.Evaluations = append(summary.Evaluations, m.Evaluations...)
		summary.Artifacts[m.Column] = m.Path
		for _, e := range m.Evaluations {
			recordScores(e)
		}
		metrics.StageDurationSeconds.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}

	start := time.Now()
	duration, err := trainer.ServiceDuration(frame)
	if err != nil {
		return nil, nil, err
	}
	keep(duration, "train_service_duration", start)

	horizon, err := trainer.HorizonRows(frame)
	if err != nil {
		return nil, nil, err
	}
	r.stage(summary, models.StageCount{Stage: StageHorizon, RowsIn: frame.Len(), RowsOut: horizon.Len()}, time.Now())

	start = time.Now()
	effectiveness, warnings, err := trainer.Effectiveness(horizon)
	for _, w := range warnings {
		summary.AddWarning(w)
		metrics.UnbalanceableSegmentsTotal.Inc()
	}
	if err != nil {
		return nil, nil, err
	}
	keep(effectiveness, "train_effectiveness", start)

	start = time.Now()
	response, err := trainer.ResponseTime(horizon)
	if err != nil {
		return nil, nil, err
	}
	keep(response, "train_response_time", start)

	start = time.Now()
	ideal, err := trainer.IdealTime(frame)
	if err != nil {
		return nil, nil, err
	}
	keep(ideal, "train_ideal_time", start)

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	start = time.Now()
	sigma := filter.Chain{filter.TravelSigma{Factor: filter.TravelSigmaFactor}}.Run(orders)
	for _, c := range sigma.Counts {
		r.stage(summary, c, start)
	}
	final := frame.Take(sigma.Index)

	start = time.Now()
	travel, err := trainer.TravelTime(ctx, final)
	if err != nil {
		return nil, nil, err
	}
	metrics.GridCandidatesEvaluated.Set(float64(travel.Candidates))
	keep(travel, "train_travel_time", start)

	return trained, final, nil
}

func (r *Runner) writeDataset(summary *models.RunSummary, name string, f *ml.Frame, columns []string) error {
	path := filepath.Join(r.opts.OutputDir, name)
	if err := writer.WriteFile(path, f, columns); err != nil {
		return err
	}
	summary.Outputs = append(summary.Outputs, path)
	r.logger.Info().Str("path", path).Int("rows", f.Len()).Msg("dataset written")
	return nil
}

// stage records a stage count in the summary, the log and the metrics.
func (r *Runner) stage(summary *models.RunSummary, c models.StageCount, start time.Time) {
	summary.Stages = append(summary.Stages, c)
	metrics.StageRows.WithLabelValues(c.Stage, "in").Set(float64(c.RowsIn))
	metrics.StageRows.WithLabelValues(c.Stage, "out").Set(float64(c.RowsOut))
	metrics.StageDurationSeconds.WithLabelValues(c.Stage).Observe(time.Since(start).Seconds())
	r.logger.Info().
		Str("stage", c.Stage).
		Int("rows_in", c.RowsIn).
		Int("rows_out", c.RowsOut).
		Int("dropped", c.Dropped()).
		Msg("stage complete")
}

func recordScores(e models.Evaluation) {
	scores := map[string]float64{"rmse": e.RMSE, "r2": e.R2}
	if e.IsClassification() {
		scores = map[string]float64{
			"precision": e.Precision,
			"recall":    e.Recall,
			"f1":        e.F1,
			"accuracy":  e.Accuracy,
		}
	}
	for metric, v := range scores {
		metrics.ModelScore.WithLabelValues(e.Model, e.Variant, metric).Set(v)
	}
}

func segmentStage(status models.Status, step string) string {
	return fmt.Sprintf("%s_%s", step, status)
}
