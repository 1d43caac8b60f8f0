package resolver_test

import (
	"errors"
	"testing"

	customerrors "fieldops-forecast/errors"
	"fieldops-forecast/models"
	"fieldops-forecast/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookups() models.Lookups {
	l := models.Lookups{}
	add := func(name string, pairs map[string]int) {
		d := models.NewLookupDimension(name)
		for label, id := range pairs {
			d.Add(label, id)
		}
		l[name] = d
	}
	add(models.DimPrefix, map[string]int{"PRI01": 1, "PRI02": 2})
	add(models.DimMunicipality, map[string]int{"GOIANIA": 10, "CATALAO - GO": 11})
	add(models.DimEffectiveness, map[string]int{models.EffectiveLabel: 1, models.NonEffectiveLabel: 0})
	add(models.DimCommercialType, map[string]int{"LIGACAO": 100})
	add(models.DimCommercialSub, map[string]int{"NOVA": 200})
	add(models.DimEmergencyCause, map[string]int{"ARVORE": 300})
	add(models.DimEmergencyReason, map[string]int{"FALTA": 400})
	return l
}

func commercial(prefix, city string) models.WorkOrder {
	return models.WorkOrder{
		Prefix:        prefix,
		Municipality:  city,
		Effectiveness: models.NonEffectiveLabel,
		OrderType:     "LIGACAO",
		OrderSubtype:  "NOVA",
	}
}

func TestResolve_Commercial(t *testing.T) {
	orders := []models.WorkOrder{
		commercial("PRI01", "GOIANIA"),
		commercial("PRI02", "ANAPOLIS"),
		commercial("PRI99", "ANAPOLIS"),
	}

	result, err := resolver.Resolve(orders, lookups(), resolver.CommercialPlan)
	require.NoError(t, err)

	require.Len(t, result.Orders, 1)
	o := result.Orders[0]
	assert.Equal(t, 1, o.IDs.PrefixID)
	assert.Equal(t, 10, o.IDs.MunicipalityID)
	assert.Equal(t, 0, o.IDs.EffectivenessID)
	require.NotNil(t, o.IDs.TypeID)
	assert.Equal(t, 100, *o.IDs.TypeID)
	assert.Equal(t, 200, o.IDs.SubtypeID)

	// The unknown prefix is charged to PREFIXO only, not also to MUNICIPIO.
	assert.Equal(t, map[string]int{models.DimPrefix: 1, models.DimMunicipality: 1}, result.Dropped)
	assert.Equal(t, 2, result.TotalDropped())

	warnings := result.Warnings("COMERCIAL", resolver.CommercialPlan)
	require.Len(t, warnings, 2)
	assert.Equal(t, models.DimPrefix, warnings[0].Dimension)
}

func TestResolve_UnknownMunicipalityDropsOneRow(t *testing.T) {
	before := []models.WorkOrder{commercial("PRI01", "GOIANIA")}
	after := append(before, commercial("PRI01", "NOWHERE"))

	r1, err := resolver.Resolve(before, lookups(), resolver.CommercialPlan)
	require.NoError(t, err)
	r2, err := resolver.Resolve(after, lookups(), resolver.CommercialPlan)
	require.NoError(t, err)

	assert.Len(t, r2.Orders, 1)
	assert.Equal(t, r1.TotalDropped()+1, r2.TotalDropped())
	for _, o := range r2.Orders {
		assert.NotEqual(t, "NOWHERE", o.Municipality)
	}
}

func TestResolve_EmergencyOptionalCause(t *testing.T) {
	orders := []models.WorkOrder{
		{Prefix: "PRI01", Municipality: "GOIANIA", Effectiveness: models.EffectiveLabel, OrderType: "ARVORE", OrderSubtype: "FALTA"},
		{Prefix: "PRI01", Municipality: "GOIANIA", Effectiveness: models.EffectiveLabel, OrderType: "VENTO", OrderSubtype: "FALTA"},
	}

	result, err := resolver.Resolve(orders, lookups(), resolver.EmergencyPlan)
	require.NoError(t, err)
	require.Len(t, result.Orders, 2)
	assert.Equal(t, 300, *result.Orders[0].IDs.TypeID)
	assert.Nil(t, result.Orders[1].IDs.TypeID)
	assert.Equal(t, 400, result.Orders[1].IDs.SubtypeID)
	assert.Equal(t, 1, result.Unmatched[models.DimEmergencyCause])
	assert.Zero(t, result.TotalDropped())
}

func TestResolve_MissingDimension(t *testing.T) {
	l := lookups()
	delete(l, models.DimCommercialSub)

	_, err := resolver.Resolve(nil, l, resolver.CommercialPlan)
	assert.True(t, errors.Is(err, customerrors.ErrMissingColumn))
}
