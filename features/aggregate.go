// Package features derives the per-team and per-city volume counts, the
// response time, and the calendar and duration features used for modeling.
package features

import (
	"strings"
	"time"

	"fieldops-forecast/models"
)

type periodKey struct {
	entity string
	period string
}

// NormalizePrefix rewrites a leading "PIR" team code to "PRI".
func NormalizePrefix(prefix string) string {
	if strings.HasPrefix(prefix, "PIR") {
		return "PRI" + prefix[3:]
	}
	return prefix
}

// Prepare normalizes team codes and effectiveness labels, then attaches the
// batch aggregates and response time. It expects repaired timestamps.
func Prepare(orders []models.WorkOrder) {
	for i := range orders {
		orders[i].Prefix = NormalizePrefix(orders[i].Prefix)
		if orders[i].Effectiveness == "" {
			orders[i].Effectiveness = models.EffectiveLabel
		}
	}
	Aggregate(orders)
	for i := range orders {
		orders[i].ResponseMinutes = ResponseMinutes(orders[i])
	}
}

// Aggregate sets the per-period counts of every order from the whole batch.
//
// Team counts are the number of distinct order numbers per (team, month) and
// (team, day) of travel start. City counts do the same per municipality but
// only over non-effective visits; a group without any stays at 0.
func Aggregate(orders []models.WorkOrder) {
	teamMonth := make(map[periodKey]map[string]struct{})
	teamDay := make(map[periodKey]map[string]struct{})
	cityMonth := make(map[periodKey]map[string]struct{})
	cityDay := make(map[periodKey]map[string]struct{})

	for _, o := range orders {
		month, day := monthKey(o.TravelStart), dayKey(o.TravelStart)
		addDistinct(teamMonth, periodKey{o.Prefix, month}, o.OrderNumber)
		addDistinct(teamDay, periodKey{o.Prefix, day}, o.OrderNumber)
		if o.NonEffective() {
			addDistinct(cityMonth, periodKey{o.Municipality, month}, o.OrderNumber)
			addDistinct(cityDay, periodKey{o.Municipality, day}, o.OrderNumber)
		}
	}

	for i := range orders {
		o := &orders[i]
		month, day := monthKey(o.TravelStart), dayKey(o.TravelStart)
		o.Counts = models.Aggregates{
			TeamMonthOrders:       len(teamMonth[periodKey{o.Prefix, month}]),
			TeamDayOrders:         len(teamDay[periodKey{o.Prefix, day}]),
			CityMonthNonEffective: len(cityMonth[periodKey{o.Municipality, month}]),
			CityDayNonEffective:   len(cityDay[periodKey{o.Municipality, day}]),
		}
	}
}

// ResponseMinutes is the whole minutes between request and travel start.
// Values are truncated toward zero and never negative.
func ResponseMinutes(o models.WorkOrder) int {
	minutes := int(o.TravelStart.Sub(o.RequestedAt).Minutes())
	if minutes < 0 {
		return 0
	}
	return minutes
}

// addDistinct records value in the group of key. Blank order numbers are
// missing values and never count.
func addDistinct(groups map[periodKey]map[string]struct{}, key periodKey, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	set, ok := groups[key]
	if !ok {
		set = make(map[string]struct{})
		groups[key] = set
	}
	set[value] = struct{}{}
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
