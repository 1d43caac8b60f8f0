package features

import (
	"math"
	"sort"

	"fieldops-forecast/ml"
	"fieldops-forecast/models"
)

// TimestampLayout is how lifecycle timestamps are written to datasets.
const TimestampLayout = "2006-01-02 15:04:05"

// UnifiedFrame lays the orders out with the unified dataset columns.
func UnifiedFrame(orders []models.WorkOrder) *ml.Frame {
	n := len(orders)
	f := ml.NewFrame("dataframe_OPER", n)

	text := func(get func(o models.WorkOrder) string) []string {
		out := make([]string, n)
		for i, o := range orders {
			out[i] = get(o)
		}
		return out
	}
	num := func(get func(o models.WorkOrder) float64) []float64 {
		out := make([]float64, n)
		for i, o := range orders {
			out[i] = get(o)
		}
		return out
	}

	// Errors are impossible here: every column has exactly n rows.
	_ = f.SetCategorical(models.ColPrefix, text(func(o models.WorkOrder) string { return o.Prefix }))
	_ = f.SetCategorical(models.ColOrderNumber, text(func(o models.WorkOrder) string { return o.OrderNumber }))
	_ = f.SetCategorical(models.ColMunicipality, text(func(o models.WorkOrder) string { return o.Municipality }))
	_ = f.SetCategorical(models.ColOrderType, text(func(o models.WorkOrder) string { return o.OrderType }))
	_ = f.SetCategorical(models.ColOrderSubtype, text(func(o models.WorkOrder) string { return o.OrderSubtype }))
	_ = f.SetCategorical(models.ColEffectiveness, text(func(o models.WorkOrder) string { return o.Effectiveness }))
	_ = f.SetCategorical(models.ColRequestedAt, text(func(o models.WorkOrder) string { return o.RequestedAt.Format(TimestampLayout) }))
	_ = f.SetCategorical(models.ColTravelStart, text(func(o models.WorkOrder) string { return o.TravelStart.Format(TimestampLayout) }))
	_ = f.SetCategorical(models.ColTravelEnd, text(func(o models.WorkOrder) string { return o.TravelEnd.Format(TimestampLayout) }))
	_ = f.SetCategorical(models.ColExecStart, text(func(o models.WorkOrder) string { return o.ExecStart.Format(TimestampLayout) }))
	_ = f.SetCategorical(models.ColExecEnd, text(func(o models.WorkOrder) string { return o.ExecEnd.Format(TimestampLayout) }))

	_ = f.SetInteger(models.ColPrefixID, num(func(o models.WorkOrder) float64 { return float64(o.IDs.PrefixID) }))
	_ = f.SetInteger(models.ColMunicipalityID, num(func(o models.WorkOrder) float64 { return float64(o.IDs.MunicipalityID) }))
	_ = f.SetInteger(models.ColEffectivenessID, num(func(o models.WorkOrder) float64 { return float64(o.IDs.EffectivenessID) }))
	_ = f.SetInteger(models.ColOrderTypeID, num(func(o models.WorkOrder) float64 {
		if o.IDs.TypeID == nil {
			return math.NaN()
		}
		return float64(*o.IDs.TypeID)
	}))
	_ = f.SetInteger(models.ColOrderSubtypeID, num(func(o models.WorkOrder) float64 { return float64(o.IDs.SubtypeID) }))
	_ = f.SetInteger(models.ColTeamMonthOrders, num(func(o models.WorkOrder) float64 { return float64(o.Counts.TeamMonthOrders) }))
	_ = f.SetInteger(models.ColTeamDayOrders, num(func(o models.WorkOrder) float64 { return float64(o.Counts.TeamDayOrders) }))
	_ = f.SetInteger(models.ColCityMonthNonEffective, num(func(o models.WorkOrder) float64 { return float64(o.Counts.CityMonthNonEffective) }))
	_ = f.SetInteger(models.ColCityDayNonEffective, num(func(o models.WorkOrder) float64 { return float64(o.Counts.CityDayNonEffective) }))
	_ = f.SetInteger(models.ColResponseTime, num(func(o models.WorkOrder) float64 { return float64(o.ResponseMinutes) }))
	_ = f.SetCategorical(models.ColStatus, text(func(o models.WorkOrder) string { return string(o.Status) }))
	_ = f.SetInteger(models.ColStatusID, num(func(o models.WorkOrder) float64 { return float64(o.StatusCode) }))
	return f
}

// ModelFrame extends the unified columns with the duration and calendar
// features the models train on. horizonMonths drives the forecast quarter
// and the future month columns.
func ModelFrame(orders []models.WorkOrder, horizonMonths int) *ml.Frame {
	f := UnifiedFrame(orders)
	n := len(orders)

	columns := map[string][]float64{}
	names := []string{
		models.ColServiceDuration, models.ColExecutionTime, models.ColTravelTime,
		models.ColTravelEndWeekday, models.ColTravelEndMonth,
		models.ColTravelStartWeekday, models.ColTravelStartMonth,
		models.ColRequestWeekday, models.ColRequestMonth, models.ColRequestMonthAlias,
		models.ColForecastQuarter, models.ColCluster, models.ColFutureMonth,
	}
	for _, name := range names {
		columns[name] = make([]float64, n)
	}

	clusters := ClusterCodes(orders)
	for i, o := range orders {
		columns[models.ColServiceDuration][i] = o.ServiceMinutes()
		columns[models.ColExecutionTime][i] = o.ExecutionMinutes()
		columns[models.ColTravelTime][i] = o.TravelMinutes()
		columns[models.ColTravelEndWeekday][i] = float64(Weekday(o.TravelEnd))
		columns[models.ColTravelEndMonth][i] = float64(o.TravelEnd.Month())
		columns[models.ColTravelStartWeekday][i] = float64(Weekday(o.TravelStart))
		columns[models.ColTravelStartMonth][i] = float64(o.TravelStart.Month())
		columns[models.ColRequestWeekday][i] = float64(Weekday(o.RequestedAt))
		columns[models.ColRequestMonth][i] = float64(o.RequestedAt.Month())
		columns[models.ColRequestMonthAlias][i] = float64(o.RequestedAt.Month())
		columns[models.ColForecastQuarter][i] = float64(ForecastQuarter(o.RequestedAt, horizonMonths))
		columns[models.ColCluster][i] = float64(clusters[o.Municipality])
		// Not wrapped into 1..12; the ideal-time model was fitted this way.
		columns[models.ColFutureMonth][i] = float64(int(o.RequestedAt.Month()) + horizonMonths)
	}

	for _, name := range names {
		switch name {
		case models.ColServiceDuration, models.ColExecutionTime, models.ColTravelTime:
			_ = f.SetNumeric(name, columns[name])
		default:
			_ = f.SetInteger(name, columns[name])
		}
	}
	return f
}

// ClusterCodes numbers the distinct municipalities in sorted label order.
func ClusterCodes(orders []models.WorkOrder) map[string]int {
	seen := make(map[string]struct{})
	for _, o := range orders {
		seen[o.Municipality] = struct{}{}
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	codes := make(map[string]int, len(labels))
	for i, l := range labels {
		codes[l] = i
	}
	return codes
}
