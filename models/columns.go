package models

// Column headers of the unified and enriched datasets. The dashboard reads
// these names, so they are part of the output contract.
const (
	ColPrefix                = "PREFIXO"
	ColOrderNumber           = "OS"
	ColMunicipality          = "MUNICIPIO"
	ColOrderType             = "TIPO OS"
	ColOrderSubtype          = "SUB OS"
	ColEffectiveness         = "EFETIVIDADE"
	ColRequestedAt           = "DATA SOLICITACAO"
	ColTravelStart           = "DATA INICIO DESLOCAMENTO"
	ColTravelEnd             = "DATA FIM DESLOCAMENTO"
	ColExecStart             = "DATA INICIO EXECUCAO"
	ColExecEnd               = "DATA FIM EXECUCAO"
	ColPrefixID              = "ID PREFIXO"
	ColMunicipalityID        = "ID MUNICIPIO"
	ColEffectivenessID       = "ID EFETIVIDADE"
	ColOrderTypeID           = "ID TIPO OS"
	ColOrderSubtypeID        = "ID SUB OS"
	ColTeamMonthOrders       = "QTD OS POR PREFIXO(MES)"
	ColTeamDayOrders         = "QTD OS POR PREFIXO(DIA)"
	ColCityMonthNonEffective = "EFETIVIDADE POR CIDADE (MES)"
	ColCityDayNonEffective   = "EFETIVIDADE POR CIDADE (DIA)"
	ColResponseTime          = "TEMPO_RESPOSTA"
	ColStatus                = "STATUS"
	ColStatusID              = "ID STATUS"

	ColServiceDuration    = "DURACAO_SERVICO"
	ColExecutionTime      = "TEMPO_EXECUCAO"
	ColTravelTime         = "TEMPO_DESLOCAMENTO"
	ColTravelEndWeekday   = "DIA_SEMANA_FIM_DESLOCAMENTO"
	ColTravelEndMonth     = "MES_FIM_DESLOCAMENTO"
	ColTravelStartWeekday = "DIA_SEMANA_IN_DESLOCAMENTO"
	ColTravelStartMonth   = "MES_IN_DESLOCAMENTO"
	ColRequestWeekday     = "DIA_SEMANA"
	ColRequestMonth       = "MES"
	ColRequestMonthAlias  = "MES_SOLICITACAO"
	ColForecastQuarter    = "TRIMESTRE_PREVISTO"
	ColCluster            = "CLUSTER"
	ColFutureMonth        = "MES_FUTURO"

	ColServiceDurationPred = "DURACAO_SERVICO_PRED"
	ColEffectivenessPred   = "EFETIVIDADE_PRED"
	ColResponseTimePred    = "TEMPO_RESPOSTA_PRED"
	ColIdealTimePred       = "TEMPO_IDEAL_PRED"
	ColTravelTimePred      = "TEMPO_DESLOCAMENTO_PRED"
	ColPrefixDurationPred  = "PREVISAO_DURACAO_PREFIXO"
	ColCityDurationPred    = "PREVISAO_DURACAO_CIDADE"
)

// UnifiedColumns is the column order of the unified dataset.
var UnifiedColumns = []string{
	ColPrefix, ColOrderNumber, ColMunicipality, ColOrderType, ColOrderSubtype,
	ColEffectiveness, ColRequestedAt, ColTravelStart, ColTravelEnd, ColExecStart,
	ColExecEnd, ColPrefixID, ColMunicipalityID, ColEffectivenessID, ColOrderTypeID,
	ColOrderSubtypeID, ColTeamMonthOrders, ColTeamDayOrders, ColCityMonthNonEffective,
	ColCityDayNonEffective, ColResponseTime, ColStatus, ColStatusID,
}

// EnrichedColumns is the column order of the enriched prediction dataset.
var EnrichedColumns = append(append([]string(nil), UnifiedColumns...),
	ColServiceDuration, ColExecutionTime, ColTravelTime,
	ColTravelEndWeekday, ColTravelEndMonth, ColTravelStartWeekday, ColTravelStartMonth,
	ColFutureMonth, ColRequestMonthAlias,
	ColServiceDurationPred, ColEffectivenessPred, ColResponseTimePred,
	ColIdealTimePred, ColTravelTimePred,
	ColPrefixDurationPred, ColCityDurationPred,
)

// IntegerOutputColumns are rounded to integers in the enriched dataset, with
// -1 standing for a missing value.
var IntegerOutputColumns = []string{
	ColStatusID, ColEffectivenessID, ColPrefixDurationPred,
	ColCityDurationPred, ColServiceDuration, ColTravelTime, ColCluster,
}
