// Package filter removes implausible work orders before model training.
//
// Stages run in a fixed order and each one sees only the rows its
// predecessors kept. TravelSigma derives its bound from the rows it is
// given, so moving it earlier changes what it removes.
package filter

import (
	"fieldops-forecast/models"

	"gonum.org/v1/gonum/stat"
)

// Stage keeps a subset of orders.
type Stage interface {
	Name() string
	// Select returns the indexes of the orders to keep, in input order.
	Select(orders []models.WorkOrder) []int
}

// Default thresholds, in minutes.
const (
	EmergencyResponseCeiling  = 1440
	CommercialResponseCeiling = 7200
	TravelCeilingMinutes      = 120
	TravelSigmaFactor         = 2
)

// ResponseCeiling drops orders whose response time exceeds the limit for
// their status. Statuses without a limit are kept.
type ResponseCeiling struct {
	Limits map[models.Status]int
}

// NewResponseCeiling returns the 24h emergency and 5 day commercial limits.
func NewResponseCeiling() ResponseCeiling {
	return ResponseCeiling{Limits: map[models.Status]int{
		models.StatusEmergency:  EmergencyResponseCeiling,
		models.StatusCommercial: CommercialResponseCeiling,
	}}
}

func (ResponseCeiling) Name() string { return "response_ceiling" }

func (s ResponseCeiling) Select(orders []models.WorkOrder) []int {
	return keep(orders, func(o models.WorkOrder) bool {
		limit, ok := s.Limits[o.Status]
		return !ok || o.ResponseMinutes <= limit
	})
}

// TravelCeiling drops orders whose travel took longer than Minutes.
type TravelCeiling struct {
	Minutes float64
}

func (TravelCeiling) Name() string { return "travel_ceiling" }

func (s TravelCeiling) Select(orders []models.WorkOrder) []int {
	return keep(orders, func(o models.WorkOrder) bool {
		return o.TravelMinutes() <= s.Minutes
	})
}

// TravelSigma keeps orders whose travel time is strictly below
// mean + Factor*std of the rows it receives, using the sample standard
// deviation. With fewer than two rows the bound is undefined and every row
// is kept.
type TravelSigma struct {
	Factor float64
}

func (TravelSigma) Name() string { return "travel_sigma" }

func (s TravelSigma) Select(orders []models.WorkOrder) []int {
	bound, ok := s.Bound(orders)
	if !ok {
		return keep(orders, func(models.WorkOrder) bool { return true })
	}
	return keep(orders, func(o models.WorkOrder) bool {
		return o.TravelMinutes() < bound
	})
}

// Bound returns mean + Factor*std of the travel minutes of orders.
func (s TravelSigma) Bound(orders []models.WorkOrder) (float64, bool) {
	if len(orders) < 2 {
		return 0, false
	}
	minutes := make([]float64, len(orders))
	for i, o := range orders {
		minutes[i] = o.TravelMinutes()
	}
	m, sd := stat.MeanStdDev(minutes, nil)
	return m + s.Factor*sd, true
}

// Plausibility is the ceiling pass run before the first models train.
func Plausibility() Chain {
	return Chain{NewResponseCeiling(), TravelCeiling{Minutes: TravelCeilingMinutes}}
}

// Chain runs stages in order.
type Chain []Stage

// Result is what a chain kept and how many rows each stage saw.
type Result struct {
	Orders []models.WorkOrder
	// Index maps each kept order to its position in the chain input.
	Index  []int
	Counts []models.StageCount
}

// Run applies every stage to the output of the previous one.
func (c Chain) Run(orders []models.WorkOrder) Result {
	index := make([]int, len(orders))
	for i := range index {
		index[i] = i
	}
	result := Result{Orders: orders, Index: index}
	for _, stage := range c {
		in := len(result.Orders)
		kept := stage.Select(result.Orders)
		result.Orders = Take(result.Orders, kept)
		next := make([]int, len(kept))
		for i, k := range kept {
			next[i] = result.Index[k]
		}
		result.Index = next
		result.Counts = append(result.Counts, models.StageCount{Stage: stage.Name(), RowsIn: in, RowsOut: len(kept)})
	}
	return result
}

// Take returns the orders at idx, in that order.
func Take(orders []models.WorkOrder, idx []int) []models.WorkOrder {
	out := make([]models.WorkOrder, len(idx))
	for i, j := range idx {
		out[i] = orders[j]
	}
	return out
}

func keep(orders []models.WorkOrder, ok func(models.WorkOrder) bool) []int {
	idx := make([]int, 0, len(orders))
	for i, o := range orders {
		if ok(o) {
			idx = append(idx, i)
		}
	}
	return idx
}
