package pipeline

import (
	"time"

	customerrors "fieldops-forecast/errors"
	"fieldops-forecast/features"
	"fieldops-forecast/metrics"
	"fieldops-forecast/models"
	"fieldops-forecast/parser"
	"fieldops-forecast/repair"
	"fieldops-forecast/resolver"
)

func (r *Runner) readTable(base string) (*parser.Table, error) {
	path, err := parser.FindInput(r.opts.OutputDir, base)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	t, err := parser.ReadFile(path)
	metrics.ParserDurationSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Str("path", path).Int("rows", t.Len()).Msg("input read")
	return t, nil
}

func (r *Runner) loadLookups() (models.Lookups, error) {
	t, err := r.readTable(LookupInput)
	if err != nil {
		return nil, err
	}
	lookups, err := parser.ParseLookups(t, models.LookupDimensionNames)
	if err != nil {
		return nil, err
	}
	for _, name := range models.LookupDimensionNames {
		r.logger.Debug().Str("dimension", name).Int("labels", lookups[name].Len()).Msg("lookup loaded")
	}
	return lookups, nil
}

// prepareSegment loads one service line and takes it through repair,
// feature aggregation and dimension resolution.
func (r *Runner) prepareSegment(schema models.SourceSchema, base string, lookups models.Lookups, summary *models.RunSummary) ([]models.WorkOrder, error) {
	segment := string(schema.Status)
	logger := r.logger.With().Str("segment", segment).Logger()

	t, err := r.readTable(base)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	orders, skipped, err := parser.ParseOrders(t, schema)
	if err != nil {
		return nil, err
	}
	metrics.ParserRecordsTotal.WithLabelValues(t.Name).Add(float64(len(orders)))
	if skipped != nil {
		summary.AddWarning(skipped)
		metrics.SkippedRowsTotal.WithLabelValues(t.Name).Add(float64(skipped.Count))
		logger.Warn().Err(skipped).Int("rows", skipped.Count).Msg("rows skipped")
	}
	r.stage(summary, models.StageCount{Stage: segmentStage(schema.Status, "load"), RowsIn: t.Len(), RowsOut: len(orders)}, start)

	start = time.Now()
	report, err := repair.Repair(orders, segment)
	if err != nil {
		return nil, err
	}
	recordRepair(report)
	logger.Info().
		Dur("mean_travel_offset", report.MeanTravelOffset).
		Int("travel_start_filled", report.TravelStartFilled).
		Int("travel_end_filled", report.TravelEndFilled).
		Int("exec_start_filled", report.ExecStartFilled).
		Int("exec_end_filled", report.ExecEndFilled).
		Int("travel_end_clamped", report.TravelEndClamped).
		Int("exec_end_clamped", report.ExecEndClamped).
		Msg("timestamps repaired")
	features.Prepare(orders)
	r.stage(summary, models.StageCount{Stage: segmentStage(schema.Status, "repair"), RowsIn: len(orders), RowsOut: len(orders)}, start)

	plan := resolver.CommercialPlan
	if schema.Status == models.StatusEmergency {
		plan = resolver.EmergencyPlan
	}
	start = time.Now()
	result, err := resolver.Resolve(orders, lookups, plan)
	if err != nil {
		return nil, err
	}
	for _, w := range result.Warnings(segment, plan) {
		r.warnJoinLoss(summary, w)
	}
	for dim, n := range result.Unmatched {
		logger.Info().Str("dimension", dim).Int("rows", n).Msg("optional dimension unmatched, id left empty")
	}
	r.stage(summary, models.StageCount{Stage: segmentStage(schema.Status, "resolve"), RowsIn: len(orders), RowsOut: len(result.Orders)}, start)
	return result.Orders, nil
}

func (r *Runner) warnJoinLoss(summary *models.RunSummary, w *customerrors.JoinLossWarning) {
	summary.AddWarning(w)
	metrics.JoinDroppedRows.WithLabelValues(w.Segment, w.Dimension).Set(float64(w.Dropped))
	r.logger.Warn().Err(w).Str("segment", w.Segment).Str("dimension", w.Dimension).Int("dropped", w.Dropped).Msg("rows dropped by lookup join")
}

func recordRepair(report repair.Report) {
	for field, n := range map[string]int{
		"travel_start": report.TravelStartFilled,
		"travel_end":   report.TravelEndFilled,
		"exec_start":   report.ExecStartFilled,
		"exec_end":     report.ExecEndFilled,
	} {
		metrics.RepairedTimestampsTotal.WithLabelValues(report.Segment, field, "filled").Add(float64(n))
	}
	metrics.RepairedTimestampsTotal.WithLabelValues(report.Segment, "travel_end", "clamped").Add(float64(report.TravelEndClamped))
	metrics.RepairedTimestampsTotal.WithLabelValues(report.Segment, "exec_end", "clamped").Add(float64(report.ExecEndClamped))
}
