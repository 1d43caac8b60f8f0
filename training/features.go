package training

import "fieldops-forecast/models"

// Artifact file names, one per model.
const (
	ServiceDurationArtifact = "modelo_tempo_servico.json"
	EffectivenessArtifact   = "modelo_efetividade_xgb.json"
	ResponseTimeArtifact    = "modelo_tempo_resposta.json"
	IdealTimeArtifact       = "modelo_tempo_ideal_xgb.json"
	TravelTimeArtifact      = "modelo_tempo_deslocamento.json"
)

// operationalFeatures are the identifiers and batch counts shared by
// several models.
var operationalFeatures = []string{
	models.ColMunicipalityID, models.ColStatusID, models.ColOrderTypeID, models.ColOrderSubtypeID,
	models.ColTeamMonthOrders, models.ColTeamDayOrders,
	models.ColCityMonthNonEffective, models.ColCityDayNonEffective,
}

// ServiceDurationFeatures feed the service duration model.
var ServiceDurationFeatures = append([]string{models.ColForecastQuarter}, operationalFeatures...)

// EffectivenessFeatures feed the effectiveness classifier.
var EffectivenessFeatures = append([]string(nil), operationalFeatures...)

// ResponseTimeFeatures feed the response time model.
var ResponseTimeFeatures = append([]string(nil), operationalFeatures...)

// IdealTimeFeatures feed the ideal time model. The first three are
// categorical and one-hot encoded.
var IdealTimeFeatures = []string{
	models.ColOrderType, models.ColMunicipality, models.ColPrefix,
	models.ColRequestWeekday, models.ColRequestMonth, models.ColCluster,
}

// TravelTimeFeatures feed the travel time model.
var TravelTimeFeatures = append(append([]string{
	models.ColTravelEndWeekday, models.ColTravelEndMonth,
	models.ColTravelStartWeekday, models.ColTravelStartMonth,
	models.ColRequestWeekday, models.ColRequestMonth,
}, operationalFeatures...),
	models.ColPrefixID, models.ColResponseTime, models.ColRequestMonthAlias,
)
