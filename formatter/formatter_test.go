package formatter_test

import (
	"strings"
	"testing"
	"time"

	"fieldops-forecast/formatter"
	"fieldops-forecast/models"

	"github.com/stretchr/testify/assert"
)

func sampleSummary() *models.RunSummary {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	return &models.RunSummary{
		RunID:      "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Stages: []models.StageCount{
			{Stage: "unify", RowsIn: 80, RowsOut: 79},
			{Stage: "travel_sigma", RowsIn: 79, RowsOut: 75},
		},
		Evaluations: []models.Evaluation{
			{Model: "DURACAO_SERVICO_PRED", Variant: models.VariantFinal, Target: "DURACAO_SERVICO", Kind: models.KindRegression, Algorithm: "gradient_boosting", TrainRows: 60, TestRows: 15, RMSE: 12.5, R2: 0.75},
			{Model: "TEMPO_IDEAL_PRED", Variant: models.VariantFinal, Target: "DURACAO_SERVICO", Kind: models.KindRegression, Algorithm: "gradient_boosting", TrainRows: 60, TestRows: 15, RMSE: 9.25, R2: 0.5},
			{Model: "EFETIVIDADE_PRED", Variant: models.VariantFinal, Target: "EFETIVIDADE", Kind: models.KindClassification, Algorithm: "gradient_boosting", TrainRows: 40, TestRows: 10, Precision: 0.8, Recall: 0.7, F1: 0.74, Accuracy: 0.9},
		},
		Warnings: []string{"segment EMERGENCIAL: 1 rows dropped joining MUNICIPIO"},
		Artifacts: map[string]string{
			"DURACAO_SERVICO_PRED": "out/modelo_tempo_servico.json",
			"TEMPO_IDEAL_PRED":     "out/modelo_tempo_ideal_xgb.json",
		},
		Outputs: []string{"out/ML_dataframe_OPER.csv"},
	}
}

func TestFormatText(t *testing.T) {
	tests := map[string]struct {
		summary  *models.RunSummary
		contains []string
		excludes []string
	}{
		"EmptySummary": {
			summary:  &models.RunSummary{RunID: "empty"},
			contains: []string{"run empty finished in 0s", "stages:", "models:"},
			excludes: []string{"WARNINGS"},
		},
		"FullSummary": {
			summary: sampleSummary(),
			contains: []string{
				"run run-1 finished in 1.5s",
				"in=79 out=75 dropped=4",
				"DURACAO_SERVICO_PRED [final] target=DURACAO_SERVICO (regression) train=60 test=15 : r2=0.7500, rmse=12.5000",
				"TEMPO_IDEAL_PRED [final] target=DURACAO_SERVICO (regression) train=60 test=15 : r2=0.5000, rmse=9.2500",
				"accuracy=0.9000, f1=0.7400, precision=0.8000, recall=0.7000",
				"WARNINGS",
				"dropped joining MUNICIPIO",
				"DURACAO_SERVICO_PRED: out/modelo_tempo_servico.json",
				"TEMPO_IDEAL_PRED: out/modelo_tempo_ideal_xgb.json",
				"output: out/ML_dataframe_OPER.csv",
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			output := formatter.FormatText(tt.summary)
			for _, s := range tt.contains {
				assert.Contains(t, output, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, output, s)
			}
		})
	}
}

func TestFormatJSON(t *testing.T) {
	tests := map[string]struct {
		summary  *models.RunSummary
		contains []string
	}{
		"EmptySummary": {
			summary:  &models.RunSummary{RunID: "empty"},
			contains: []string{`"run_id": "empty"`, `"stages": null`},
		},
		"FullSummary": {
			summary: sampleSummary(),
			contains: []string{
				`"run_id": "run-1"`,
				`"dropped": 4`,
				`"r2": 0.75`,
				`"f1": 0.74`,
				`"algorithm": "gradient_boosting"`,
				`"model": "TEMPO_IDEAL_PRED"`,
				`"variant": "final"`,
				`"DURACAO_SERVICO_PRED": "out/modelo_tempo_servico.json"`,
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			output := formatter.FormatJSON(tt.summary)
			for _, s := range tt.contains {
				assert.Contains(t, output, s)
			}
		})
	}
}

func TestFormatCSV(t *testing.T) {
	tests := map[string]struct {
		summary  *models.RunSummary
		contains []string
	}{
		"EmptySummary": {
			summary: &models.RunSummary{},
		},
		"FullSummary": {
			summary: sampleSummary(),
			contains: []string{
				"stage,unify,,,80,79,1,,,",
				"model,DURACAO_SERVICO_PRED,final,DURACAO_SERVICO,60,15,,regression,r2=0.7500; rmse=12.5000,",
				"model,TEMPO_IDEAL_PRED,final,DURACAO_SERVICO,60,15,,regression,r2=0.5000; rmse=9.2500,",
				"warning,,,,,,,,,segment EMERGENCIAL: 1 rows dropped joining MUNICIPIO",
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			output := formatter.FormatCSV(tt.summary)
			lines := strings.Split(output, "\n")

			// Check header
			assert.Equal(t, "Section,Name,Variant,Target,Rows In,Rows Out,Dropped,Kind,Scores,Note", lines[0])

			for _, s := range tt.contains {
				assert.Contains(t, output, s)
			}
		})
	}
}
