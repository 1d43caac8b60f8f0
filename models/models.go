package models

import "time"

// Status identifies the service line a work order came from.
type Status string

const (
	StatusCommercial Status = "COMERCIAL"
	StatusEmergency  Status = "EMERGENCIAL"
)

// Numeric status codes carried by the unified dataset.
const (
	StatusCodeCommercial = 1001
	StatusCodeEmergency  = 1002
)

// Code returns the numeric status code for s, or 0 for an unknown status.
func (s Status) Code() int {
	switch s {
	case StatusCommercial:
		return StatusCodeCommercial
	case StatusEmergency:
		return StatusCodeEmergency
	default:
		return 0
	}
}

// Effectiveness labels as they appear in the source exports.
const (
	EffectiveLabel    = "EFETIVA"
	NonEffectiveLabel = "NÃO EFETIVA"
)

// Lifecycle holds the timestamps of a work order. A zero time means the value
// was missing in the source; after repair only RequestedAt may never be zero
// and every other field is populated.
type Lifecycle struct {
	RequestedAt time.Time
	TravelStart time.Time
	TravelEnd   time.Time
	ExecStart   time.Time
	ExecEnd     time.Time
}

// Dimensions are the integer identifiers attached by the dimension resolver.
// TypeID is nil when an optional dimension had no lookup match.
type Dimensions struct {
	PrefixID        int
	MunicipalityID  int
	EffectivenessID int
	TypeID          *int
	SubtypeID       int
}

// Aggregates are batch-level counts computed over the full loaded segment.
type Aggregates struct {
	TeamMonthOrders       int
	TeamDayOrders         int
	CityMonthNonEffective int
	CityDayNonEffective   int
}

// WorkOrder is the canonical work order ("OS") row shared by every stage.
// Commercial and emergency exports are mapped onto it at load time.
type WorkOrder struct {
	Prefix        string
	OrderNumber   string
	Municipality  string
	OrderType     string
	OrderSubtype  string
	Effectiveness string

	Status     Status
	StatusCode int

	Lifecycle
	IDs    Dimensions
	Counts Aggregates

	// ResponseMinutes is travel start minus request time, truncated to whole minutes.
	ResponseMinutes int
}

// TravelMinutes is the travel phase duration in minutes.
func (w WorkOrder) TravelMinutes() float64 {
	return w.TravelEnd.Sub(w.TravelStart).Minutes()
}

// ExecutionMinutes is the on-site execution duration in minutes.
func (w WorkOrder) ExecutionMinutes() float64 {
	return w.ExecEnd.Sub(w.ExecStart).Minutes()
}

// ServiceMinutes spans from travel start to execution end.
func (w WorkOrder) ServiceMinutes() float64 {
	return w.ExecEnd.Sub(w.TravelStart).Minutes()
}

// NonEffective reports whether the visit outcome was not effective.
func (w WorkOrder) NonEffective() bool {
	return w.Effectiveness == NonEffectiveLabel
}
