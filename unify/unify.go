// Package unify merges the two service lines into one dataset.
package unify

import "fieldops-forecast/models"

// Unify concatenates emergency orders followed by commercial orders and
// stamps each row with the numeric code of its status. The inputs are not
// modified.
func Unify(emergency, commercial []models.WorkOrder) []models.WorkOrder {
	out := make([]models.WorkOrder, 0, len(emergency)+len(commercial))
	for _, segment := range []struct {
		orders []models.WorkOrder
		status models.Status
	}{
		{emergency, models.StatusEmergency},
		{commercial, models.StatusCommercial},
	} {
		for _, o := range segment.orders {
			o.Status = segment.status
			o.StatusCode = segment.status.Code()
			out = append(out, o)
		}
	}
	return out
}

// CountByStatus returns how many orders carry each status.
func CountByStatus(orders []models.WorkOrder) map[models.Status]int {
	counts := make(map[models.Status]int)
	for _, o := range orders {
		counts[o.Status]++
	}
	return counts
}
