package models

// SourceSchema names the columns of one service line's export. Each field is
// the header used by that export for the matching canonical WorkOrder field.
type SourceSchema struct {
	Status        Status
	Prefix        string
	OrderNumber   string
	Municipality  string
	OrderType     string
	OrderSubtype  string
	Effectiveness string
	RequestedAt   string
	TravelStart   string
	TravelEnd     string
	ExecStart     string
	ExecEnd       string

	// OrderNumberSuffixed marks exports whose order number looks like
	// "12345-XX"; only the integer before the first dash is kept.
	OrderNumberSuffixed bool
}

// Columns returns every header the schema requires, in export order.
func (s SourceSchema) Columns() []string {
	return []string{
		s.Prefix, s.OrderNumber, s.Municipality, s.OrderType, s.OrderSubtype,
		s.Effectiveness, s.RequestedAt, s.TravelStart, s.TravelEnd, s.ExecStart, s.ExecEnd,
	}
}

// CommercialSchema describes the scheduled/commercial export.
var CommercialSchema = SourceSchema{
	Status:        StatusCommercial,
	Prefix:        "PREFIXO",
	OrderNumber:   "SS_NUMERO",
	Municipality:  "MUNICIPIO",
	OrderType:     "TIPO_SERVICO",
	OrderSubtype:  "SUBTIPO_SERVICO",
	Effectiveness: "EFETIVIDADE_VISITA",
	RequestedAt:   "DATA_SOLICITACAO",
	TravelStart:   "INICIO_DESLOCAMENTO",
	TravelEnd:     "FIM_DESLOCAMENTO",
	ExecStart:     "INICIO_EXECUCAO",
	ExecEnd:       "FIM_EXECUCAO",
}

// EmergencySchema describes the emergency export.
var EmergencySchema = SourceSchema{
	Status:              StatusEmergency,
	Prefix:              "PREFIXO",
	OrderNumber:         "OCORRENCIA",
	Municipality:        "MUNICIPIO",
	OrderType:           "CAUSA",
	OrderSubtype:        "MOTIVO_RECLAMACAO",
	Effectiveness:       "EFETIVIDADE",
	RequestedAt:         "DATA_ABERTURA",
	TravelStart:         "INICIO_DESLOCAMENTO",
	TravelEnd:           "FIM_DESLOCAMENTO",
	ExecStart:           "INICIO_EXECUCAO",
	ExecEnd:             "FIM_EXECUCAO",
	OrderNumberSuffixed: true,
}
