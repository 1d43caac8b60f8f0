package formatter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"fieldops-forecast/models"
)

// ReportData holds prepared run data used by all formatters
type ReportData struct {
	RunID     string            `json:"run_id"`
	Elapsed   string            `json:"elapsed"`
	Stages    []StageData       `json:"stages"`
	Models    []ModelData       `json:"models"`
	Warnings  []string          `json:"warnings,omitempty"`
	Artifacts map[string]string `json:"artifacts"`
	Outputs   []string          `json:"outputs"`
}

// StageData is one stage row of the report
type StageData struct {
	Stage   string `json:"stage"`
	RowsIn  int    `json:"rows_in"`
	RowsOut int    `json:"rows_out"`
	Dropped int    `json:"dropped"`
}

// ModelData is one evaluation row of the report
type ModelData struct {
	Model     string             `json:"model"`
	Variant   string             `json:"variant"`
	Target    string             `json:"target"`
	Kind      string             `json:"kind"`
	Algorithm string             `json:"algorithm"`
	TrainRows int                `json:"train_rows"`
	TestRows  int                `json:"test_rows"`
	Scores    map[string]float64 `json:"scores"`
	Note      string             `json:"note,omitempty"`
}

// prepareReportData extracts and organizes run data for formatting
func prepareReportData(summary *models.RunSummary) *ReportData {
	data := &ReportData{
		RunID:     summary.RunID,
		Elapsed:   summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond).String(),
		Warnings:  summary.Warnings,
		Artifacts: summary.Artifacts,
		Outputs:   summary.Outputs,
	}

	for _, s := range summary.Stages {
		data.Stages = append(data.Stages, StageData{
			Stage:   s.Stage,
			RowsIn:  s.RowsIn,
			RowsOut: s.RowsOut,
			Dropped: s.Dropped(),
		})
	}

	for _, e := range summary.Evaluations {
		m := ModelData{
			Model:     e.Model,
			Variant:   e.Variant,
			Target:    e.Target,
			Kind:      e.Kind,
			Algorithm: e.Algorithm,
			TrainRows: e.TrainRows,
			TestRows:  e.TestRows,
			Note:      e.Note,
		}
		if e.IsClassification() {
			m.Scores = map[string]float64{
				"precision": e.Precision,
				"recall":    e.Recall,
				"f1":        e.F1,
				"accuracy":  e.Accuracy,
			}
		} else {
			m.Scores = map[string]float64{"rmse": e.RMSE, "r2": e.R2}
		}
		data.Models = append(data.Models, m)
	}

	return data
}

// FormatText returns the text representation of the run summary
func FormatText(summary *models.RunSummary) string {
	data := prepareReportData(summary)
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("run %s finished in %s\n", data.RunID, data.Elapsed))

	sb.WriteString("\nstages:\n")
	for _, s := range data.Stages {
		sb.WriteString(fmt.Sprintf("  %-24s in=%d out=%d dropped=%d\n", s.Stage, s.RowsIn, s.RowsOut, s.Dropped))
	}

	sb.WriteString("\nmodels:\n")
	for _, m := range data.Models {
		sb.WriteString(formatTextModel(m))
		sb.WriteString("\n")
	}

	if len(data.Warnings) > 0 {
		sb.WriteString("\n⚠️  WARNINGS:\n")
		for _, w := range data.Warnings {
			sb.WriteString(fmt.Sprintf("    • %s\n", w))
		}
	}

	sb.WriteString("\nartifacts:\n")
	for _, model := range getSortedKeys(data.Artifacts) {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", model, data.Artifacts[model]))
	}
	for _, out := range data.Outputs {
		sb.WriteString(fmt.Sprintf("  output: %s\n", out))
	}

	return sb.String()
}

// FormatJSON returns the JSON representation of the run summary
func FormatJSON(summary *models.RunSummary) string {
	data := prepareReportData(summary)
	jsonBytes, _ := json.MarshalIndent(data, "", "  ")
	return string(jsonBytes)
}

// FormatCSV returns the CSV representation of the run summary, one row per
// stage followed by one row per model evaluation
func FormatCSV(summary *models.RunSummary) string {
	data := prepareReportData(summary)
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	// Write header
	writer.Write([]string{
		"Section", "Name", "Variant", "Target", "Rows In", "Rows Out", "Dropped", "Kind", "Scores", "Note",
	})

	for _, s := range data.Stages {
		writer.Write([]string{
			"stage", s.Stage, "", "",
			fmt.Sprintf("%d", s.RowsIn),
			fmt.Sprintf("%d", s.RowsOut),
			fmt.Sprintf("%d", s.Dropped),
			"", "", "",
		})
	}

	for _, m := range data.Models {
		writer.Write([]string{
			"model", m.Model, m.Variant, m.Target,
			fmt.Sprintf("%d", m.TrainRows),
			fmt.Sprintf("%d", m.TestRows),
			"",
			m.Kind,
			formatScores(m.Scores, "; "),
			m.Note,
		})
	}

	for _, w := range data.Warnings {
		writer.Write([]string{"warning", "", "", "", "", "", "", "", "", w})
	}

	writer.Flush()
	return sb.String()
}

// formatTextModel formats a single model line for text output
func formatTextModel(m ModelData) string {
	line := fmt.Sprintf("  %s [%s] target=%s (%s) train=%d test=%d : %s", m.Model, m.Variant, m.Target, m.Kind, m.TrainRows, m.TestRows, formatScores(m.Scores, ", "))
	if m.Note != "" {
		line += fmt.Sprintf(" [%s]", m.Note)
	}
	return line
}

// formatScores renders scores sorted by name
func formatScores(scores map[string]float64, sep string) string {
	parts := make([]string, 0, len(scores))
	for _, name := range getSortedScoreNames(scores) {
		parts = append(parts, fmt.Sprintf("%s=%.4f", name, scores[name]))
	}
	return strings.Join(parts, sep)
}

// getSortedKeys returns sorted map keys
func getSortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// getSortedScoreNames returns sorted score names
func getSortedScoreNames(scores map[string]float64) []string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
