package features_test

import (
	"math"
	"testing"
	"time"

	"fieldops-forecast/features"
	"fieldops-forecast/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wo(prefix, number, city, effectiveness string, travelStart time.Time) models.WorkOrder {
	return models.WorkOrder{
		Prefix:        prefix,
		OrderNumber:   number,
		Municipality:  city,
		Effectiveness: effectiveness,
		Status:        models.StatusCommercial,
		Lifecycle: models.Lifecycle{
			RequestedAt: travelStart.Add(-45 * time.Minute),
			TravelStart: travelStart,
			TravelEnd:   travelStart.Add(30 * time.Minute),
			ExecStart:   travelStart.Add(30 * time.Minute),
			ExecEnd:     travelStart.Add(90 * time.Minute),
		},
	}
}

func day(d, hour int) time.Time {
	return time.Date(2024, 3, d, hour, 0, 0, 0, time.UTC)
}

func TestAggregate_TeamCounts(t *testing.T) {
	orders := []models.WorkOrder{
		wo("PRI01", "1", "GOIANIA", models.EffectiveLabel, day(1, 8)),
		wo("PRI01", "2", "GOIANIA", models.EffectiveLabel, day(1, 10)),
		wo("PRI01", "2", "GOIANIA", models.EffectiveLabel, day(2, 9)), // same order number, other day
		wo("PRI01", "3", "GOIANIA", models.EffectiveLabel, day(5, 9)),
		wo("PRI02", "4", "GOIANIA", models.EffectiveLabel, day(1, 8)),
		wo("PRI01", "5", "GOIANIA", models.EffectiveLabel, time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)),
	}

	features.Aggregate(orders)

	tests := map[string]struct {
		index         int
		expectedMonth int
		expectedDay   int
	}{
		"PRI01_March_Day1":  {index: 0, expectedMonth: 3, expectedDay: 2},
		"PRI01_March_Day2":  {index: 2, expectedMonth: 3, expectedDay: 1},
		"PRI01_March_Day5":  {index: 3, expectedMonth: 3, expectedDay: 1},
		"PRI02_March":       {index: 4, expectedMonth: 1, expectedDay: 1},
		"PRI01_April_Alone": {index: 5, expectedMonth: 1, expectedDay: 1},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expectedMonth, orders[tc.index].Counts.TeamMonthOrders)
			assert.Equal(t, tc.expectedDay, orders[tc.index].Counts.TeamDayOrders)
		})
	}
}

func TestAggregate_BlankOrderNumbers(t *testing.T) {
	orders := []models.WorkOrder{
		wo("PRI01", "", "GOIANIA", models.NonEffectiveLabel, day(1, 8)),
		wo("PRI01", "", "GOIANIA", models.NonEffectiveLabel, day(1, 9)),
		wo("PRI01", "7", "GOIANIA", models.NonEffectiveLabel, day(1, 10)),
		wo("PRI02", "", "CATALAO - GO", models.NonEffectiveLabel, day(1, 8)),
	}

	features.Aggregate(orders)

	assert.Equal(t, 1, orders[0].Counts.TeamMonthOrders)
	assert.Equal(t, 1, orders[0].Counts.TeamDayOrders)
	assert.Equal(t, 1, orders[0].Counts.CityDayNonEffective)
	assert.Zero(t, orders[3].Counts.TeamMonthOrders, "a group of blank numbers has no distinct orders")
	assert.Zero(t, orders[3].Counts.CityMonthNonEffective)
}

func TestAggregate_GroupConsistency(t *testing.T) {
	orders := []models.WorkOrder{
		wo("PRI01", "1", "A", models.EffectiveLabel, day(1, 8)),
		wo("PRI01", "2", "A", models.EffectiveLabel, day(3, 8)),
		wo("PRI01", "3", "B", models.EffectiveLabel, day(9, 8)),
		wo("PRI01", "3", "B", models.EffectiveLabel, day(9, 9)),
	}
	features.Aggregate(orders)

	for _, o := range orders {
		assert.Equal(t, 3, o.Counts.TeamMonthOrders, "every row of (team, month) reports the distinct order count")
	}

	// Adding an unrelated row to the group changes every row's count.
	orders = append(orders, wo("PRI01", "9", "C", models.EffectiveLabel, day(20, 8)))
	features.Aggregate(orders)
	for _, o := range orders {
		assert.Equal(t, 4, o.Counts.TeamMonthOrders)
	}
}

func TestAggregate_CityNonEffective(t *testing.T) {
	orders := []models.WorkOrder{
		wo("PRI01", "1", "CATALAO - GO", models.NonEffectiveLabel, day(1, 8)),
		wo("PRI02", "2", "CATALAO - GO", models.NonEffectiveLabel, day(2, 8)),
		wo("PRI02", "3", "CATALAO - GO", models.EffectiveLabel, day(2, 9)),
		wo("PRI03", "4", "GOIANIA", models.EffectiveLabel, day(2, 9)),
	}
	features.Aggregate(orders)

	assert.Equal(t, 2, orders[0].Counts.CityMonthNonEffective)
	assert.Equal(t, 1, orders[0].Counts.CityDayNonEffective)
	assert.Equal(t, 2, orders[2].Counts.CityMonthNonEffective, "effective rows still report their city's count")
	assert.Equal(t, 1, orders[2].Counts.CityDayNonEffective)
	assert.Equal(t, 0, orders[3].Counts.CityMonthNonEffective, "groups without non-effective visits default to 0")
	assert.Equal(t, 0, orders[3].Counts.CityDayNonEffective)
}

func TestPrepare(t *testing.T) {
	orders := []models.WorkOrder{
		wo("PIR15", "1", "GOIANIA", "", day(1, 8)),
		wo("XPIR1", "2", "GOIANIA", models.NonEffectiveLabel, day(1, 8)),
	}
	features.Prepare(orders)

	assert.Equal(t, "PRI15", orders[0].Prefix)
	assert.Equal(t, "XPIR1", orders[1].Prefix)
	assert.Equal(t, models.EffectiveLabel, orders[0].Effectiveness)
	assert.Equal(t, 45, orders[0].ResponseMinutes)
}

func TestResponseMinutes(t *testing.T) {
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	tests := map[string]struct {
		travelStart time.Time
		expected    int
	}{
		"Whole":     {base.Add(30 * time.Minute), 30},
		"Truncated": {base.Add(30*time.Minute + 59*time.Second), 30},
		"Negative":  {base.Add(-10 * time.Minute), 0},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			o := models.WorkOrder{Lifecycle: models.Lifecycle{RequestedAt: base, TravelStart: tc.travelStart}}
			assert.Equal(t, tc.expected, features.ResponseMinutes(o))
		})
	}
}

func TestCalendar(t *testing.T) {
	assert.Equal(t, 0, features.Weekday(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), "2024-01-01 is a Monday")
	assert.Equal(t, 6, features.Weekday(time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, 0, features.QuarterOrdinal(time.Date(1970, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 216, features.QuarterOrdinal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), features.AddMonths(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), 3))
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), features.AddMonths(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1))
	assert.Equal(t, 217, features.ForecastQuarter(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), 3), "Mar 31 + 3 months stays in Q2")
}

func TestModelFrame(t *testing.T) {
	typeID := 7
	orders := []models.WorkOrder{
		wo("PRI01", "1", "RIO VERDE - GO", models.EffectiveLabel, time.Date(2024, 11, 4, 8, 0, 0, 0, time.UTC)),
		wo("PRI02", "2", "CATALAO - GO", models.EffectiveLabel, time.Date(2024, 11, 5, 8, 0, 0, 0, time.UTC)),
	}
	orders[0].IDs.TypeID = &typeID

	f := features.ModelFrame(orders, 3)
	assert.Equal(t, 2, f.Len())

	typeIDs, err := f.Numeric(models.ColOrderTypeID)
	require.NoError(t, err)
	assert.Equal(t, 7.0, typeIDs[0])
	assert.True(t, math.IsNaN(typeIDs[1]))

	cluster, err := f.Numeric(models.ColCluster)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, cluster)

	future, err := f.Numeric(models.ColFutureMonth)
	require.NoError(t, err)
	assert.Equal(t, 14.0, future[0], "future month is not wrapped")

	duration, err := f.Numeric(models.ColServiceDuration)
	require.NoError(t, err)
	assert.Equal(t, 90.0, duration[0])

	requested, err := f.Categorical(models.ColRequestedAt)
	require.NoError(t, err)
	assert.Equal(t, "2024-11-04 07:15:00", requested[0])
}
