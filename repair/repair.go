// Package repair fills missing lifecycle timestamps of work orders so every
// record carries a complete, ordered set of travel and execution times.
package repair

import (
	"math"
	"time"

	customerrors "fieldops-forecast/errors"
	"fieldops-forecast/models"
)

// DefaultPhaseDuration is assumed for a travel or execution phase whose end
// is missing.
const DefaultPhaseDuration = time.Hour

// Report counts what Repair changed in one segment.
type Report struct {
	Segment           string
	MeanTravelOffset  time.Duration
	TravelStartFilled int
	TravelEndFilled   int
	ExecStartFilled   int
	ExecEndFilled     int
	TravelEndClamped  int
	ExecEndClamped    int
}

// MeanTravelOffset returns the mean of TravelStart - RequestedAt over orders
// where both are present. ok is false when no such pair exists.
func MeanTravelOffset(orders []models.WorkOrder) (offset time.Duration, ok bool) {
	var (
		sum   float64
		count int
	)
	for _, o := range orders {
		if o.RequestedAt.IsZero() || o.TravelStart.IsZero() {
			continue
		}
		sum += float64(o.TravelStart.Sub(o.RequestedAt))
		count++
	}
	if count == 0 {
		return 0, false
	}
	return time.Duration(math.Round(sum / float64(count))), true
}

// Repair fills missing timestamps of a single segment in place.
//
// The steps cascade in this order: travel start from the segment's mean
// offset, travel end one hour after travel start, execution start at travel
// end, execution end one hour after execution start. A final pass clamps
// each phase end to be no earlier than its start. A non-empty segment without
// any complete (anchor, travel start) pair yields an UndefinedOffsetError.
func Repair(orders []models.WorkOrder, segment string) (Report, error) {
	report := Report{Segment: segment}
	if len(orders) == 0 {
		return report, nil
	}

	offset, ok := MeanTravelOffset(orders)
	if !ok {
		return report, &customerrors.UndefinedOffsetError{Segment: segment}
	}
	report.MeanTravelOffset = offset

	for i := range orders {
		o := &orders[i]

		if o.TravelStart.IsZero() {
			o.TravelStart = o.RequestedAt.Add(offset)
			report.TravelStartFilled++
		}
		if o.TravelEnd.IsZero() {
			o.TravelEnd = o.TravelStart.Add(DefaultPhaseDuration)
			report.TravelEndFilled++
		}
		if o.ExecStart.IsZero() {
			o.ExecStart = o.TravelEnd
			report.ExecStartFilled++
		}
		if o.ExecEnd.IsZero() {
			o.ExecEnd = o.ExecStart.Add(DefaultPhaseDuration)
			report.ExecEndFilled++
		}

		if o.TravelEnd.Before(o.TravelStart) {
			o.TravelEnd = o.TravelStart
			report.TravelEndClamped++
		}
		if o.ExecEnd.Before(o.ExecStart) {
			o.ExecEnd = o.ExecStart
			report.ExecEndClamped++
		}
	}
	return report, nil
}
