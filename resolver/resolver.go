// Package resolver attaches lookup identifiers to work orders.
package resolver

import (
	customerrors "fieldops-forecast/errors"
	"fieldops-forecast/models"
)

// Join binds one categorical attribute of a work order to a lookup dimension.
type Join struct {
	Dimension string
	Label     func(o models.WorkOrder) string
	Assign    func(o *models.WorkOrder, id int)
	// Optional joins keep unmatched rows and leave their id unset.
	Optional bool
}

// Plan is an ordered list of joins. A row dropped by an earlier join is
// charged to that dimension only.
type Plan []Join

var (
	prefixJoin = Join{
		Dimension: models.DimPrefix,
		Label:     func(o models.WorkOrder) string { return o.Prefix },
		Assign:    func(o *models.WorkOrder, id int) { o.IDs.PrefixID = id },
	}
	municipalityJoin = Join{
		Dimension: models.DimMunicipality,
		Label:     func(o models.WorkOrder) string { return o.Municipality },
		Assign:    func(o *models.WorkOrder, id int) { o.IDs.MunicipalityID = id },
	}
	effectivenessJoin = Join{
		Dimension: models.DimEffectiveness,
		Label:     func(o models.WorkOrder) string { return o.Effectiveness },
		Assign:    func(o *models.WorkOrder, id int) { o.IDs.EffectivenessID = id },
	}
)

// CommercialPlan resolves the commercial export; every join is inner.
var CommercialPlan = Plan{
	prefixJoin,
	municipalityJoin,
	effectivenessJoin,
	{
		Dimension: models.DimCommercialType,
		Label:     func(o models.WorkOrder) string { return o.OrderType },
		Assign:    func(o *models.WorkOrder, id int) { o.IDs.TypeID = &id },
	},
	{
		Dimension: models.DimCommercialSub,
		Label:     func(o models.WorkOrder) string { return o.OrderSubtype },
		Assign:    func(o *models.WorkOrder, id int) { o.IDs.SubtypeID = id },
	},
}

// EmergencyPlan resolves the emergency export. The cause is optional: an
// unknown cause keeps the row with no type id.
var EmergencyPlan = Plan{
	prefixJoin,
	municipalityJoin,
	effectivenessJoin,
	{
		Dimension: models.DimEmergencyCause,
		Label:     func(o models.WorkOrder) string { return o.OrderType },
		Assign:    func(o *models.WorkOrder, id int) { o.IDs.TypeID = &id },
		Optional:  true,
	},
	{
		Dimension: models.DimEmergencyReason,
		Label:     func(o models.WorkOrder) string { return o.OrderSubtype },
		Assign:    func(o *models.WorkOrder, id int) { o.IDs.SubtypeID = id },
	},
}

// Result is the outcome of resolving one segment.
type Result struct {
	Orders []models.WorkOrder
	// Dropped counts rows removed per inner-join dimension.
	Dropped map[string]int
	// Unmatched counts rows kept without an id by optional joins.
	Unmatched map[string]int
}

// TotalDropped sums the rows removed across dimensions.
func (r Result) TotalDropped() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}

// Warnings returns one JoinLossWarning per dimension that dropped rows, in
// plan order.
func (r Result) Warnings(segment string, plan Plan) []*customerrors.JoinLossWarning {
	var out []*customerrors.JoinLossWarning
	for _, j := range plan {
		if n := r.Dropped[j.Dimension]; n > 0 {
			out = append(out, &customerrors.JoinLossWarning{Segment: segment, Dimension: j.Dimension, Dropped: n})
		}
	}
	return out
}

// Resolve matches every order against the plan's lookup dimensions on exact
// label equality. Orders failing an inner join are excluded from the result
// and counted; they are never dropped silently. A dimension absent from
// lookups is a SchemaError.
func Resolve(orders []models.WorkOrder, lookups models.Lookups, plan Plan) (Result, error) {
	for _, j := range plan {
		if _, ok := lookups[j.Dimension]; !ok {
			return Result{}, &customerrors.SchemaError{Table: "IDs", Column: j.Dimension}
		}
	}

	result := Result{
		Orders:    make([]models.WorkOrder, 0, len(orders)),
		Dropped:   make(map[string]int),
		Unmatched: make(map[string]int),
	}

	for _, o := range orders {
		kept := true
		for _, j := range plan {
			id, ok := lookups[j.Dimension].ID(j.Label(o))
			if ok {
				j.Assign(&o, id)
				continue
			}
			if j.Optional {
				result.Unmatched[j.Dimension]++
				continue
			}
			result.Dropped[j.Dimension]++
			kept = false
			break
		}
		if kept {
			result.Orders = append(result.Orders, o)
		}
	}
	return result, nil
}
