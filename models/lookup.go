package models

// LookupDimension maps a categorical label to a stable integer identifier.
// It is built once by the loader and only read afterwards.
type LookupDimension struct {
	Name string
	ids  map[string]int
}

// NewLookupDimension returns an empty dimension called name.
func NewLookupDimension(name string) *LookupDimension {
	return &LookupDimension{Name: name, ids: make(map[string]int)}
}

// Add registers label with id. The first id seen for a label wins.
func (d *LookupDimension) Add(label string, id int) {
	if _, exists := d.ids[label]; exists {
		return
	}
	d.ids[label] = id
}

// ID returns the identifier for label and whether it exists.
func (d *LookupDimension) ID(label string) (int, bool) {
	id, ok := d.ids[label]
	return id, ok
}

// Len returns the number of labels in the dimension.
func (d *LookupDimension) Len() int {
	return len(d.ids)
}

// Lookups indexes dimensions by name.
type Lookups map[string]*LookupDimension

// Lookup dimension names used in the IDs table.
const (
	DimPrefix          = "PREFIXO"
	DimMunicipality    = "MUNICIPIO"
	DimEffectiveness   = "EFETIVIDADE"
	DimCommercialType  = "TIPO SERVICO COMERCIAL"
	DimCommercialSub   = "SUBTIPO SERVICO COMERCIAL"
	DimEmergencyReason = "MOTIVO RECLAMACAO EMERGENCIA"
	DimEmergencyCause  = "CAUSA"
)

// LookupDimensionNames lists the dimensions the pipeline reads from the IDs table.
var LookupDimensionNames = []string{
	DimPrefix,
	DimMunicipality,
	DimEffectiveness,
	DimCommercialType,
	DimCommercialSub,
	DimEmergencyReason,
	DimEmergencyCause,
}
