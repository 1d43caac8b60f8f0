package models

import "time"

// StageCount records how many rows entered and left a pipeline stage.
type StageCount struct {
	Stage   string `json:"stage"`
	RowsIn  int    `json:"rows_in"`
	RowsOut int    `json:"rows_out"`
}

// Dropped is the number of rows the stage removed.
func (s StageCount) Dropped() int {
	return s.RowsIn - s.RowsOut
}

// Evaluation kinds.
const (
	KindRegression     = "regression"
	KindClassification = "classification"
)

// Evaluation variants. A model searched over a parameter grid also reports
// the default-parameter baseline it was compared against.
const (
	VariantBaseline = "baseline"
	VariantFinal    = "final"
)

// Evaluation holds held-out scores for one trained model.
// Regression models fill RMSE and R2; the classifier fills the rest.
// Model is the prediction column, unique per model; several models may
// share a Target.
type Evaluation struct {
	Model     string  `json:"model"`
	Variant   string  `json:"variant"`
	Target    string  `json:"target"`
	Kind      string  `json:"kind"`
	Algorithm string  `json:"algorithm"`
	TrainRows int     `json:"train_rows"`
	TestRows  int     `json:"test_rows"`
	RMSE      float64 `json:"rmse,omitempty"`
	R2        float64 `json:"r2,omitempty"`
	Precision float64 `json:"precision,omitempty"`
	Recall    float64 `json:"recall,omitempty"`
	F1        float64 `json:"f1,omitempty"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	Note      string  `json:"note,omitempty"`
}

// IsClassification reports whether the evaluation carries classification scores.
func (e Evaluation) IsClassification() bool {
	return e.Kind == KindClassification
}

// RunSummary is the report of one pipeline run.
type RunSummary struct {
	RunID       string            `json:"run_id"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	Stages      []StageCount      `json:"stages"`
	Warnings    []string          `json:"warnings,omitempty"`
	Evaluations []Evaluation      `json:"evaluations"`
	Artifacts   map[string]string `json:"artifacts"`
	Outputs     []string          `json:"outputs"`
}

// AddStage appends a stage count.
func (r *RunSummary) AddStage(stage string, in, out int) {
	r.Stages = append(r.Stages, StageCount{Stage: stage, RowsIn: in, RowsOut: out})
}

// AddWarning appends a non-fatal condition.
func (r *RunSummary) AddWarning(w error) {
	r.Warnings = append(r.Warnings, w.Error())
}
