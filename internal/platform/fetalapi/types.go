package fetalapi

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fetalcare/fetalcare/internal/domain/scoring"
)

// Health status values stored by the remote service in saude_feto.status_saude.
const (
	HealthNormal   = "Normal"
	HealthAtRisk   = "Em Risco"
	HealthCritical = "Risco Crítico"
)

// UnknownCPF is the placeholder stored when a patient has no CPF.
const UnknownCPF = "00000000000"

// HealthStatuses lists the accepted status_saude filter values.
var HealthStatuses = []string{HealthNormal, HealthAtRisk, HealthCritical}

// HealthResponse is the body of GET /.
type HealthResponse struct {
	Status         string `json:"status"`
	Service        string `json:"service,omitempty"`
	ModelLoaded    bool   `json:"model_loaded,omitempty"`
	DatabaseStatus string `json:"database_status,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"`
}

// Stats is the body of GET /records/stats.
type Stats struct {
	TotalRecords   int            `json:"total_records"`
	ByHealthStatus map[string]int `json:"by_health_status"`
	ByRiskLevel    map[string]int `json:"by_risk_level,omitempty"`
}

// Count returns the number of records with the given status_saude value.
func (s *Stats) Count(status string) int {
	if s == nil || s.ByHealthStatus == nil {
		return 0
	}
	return s.ByHealthStatus[status]
}

// ListParams are the query parameters of GET /records.
type ListParams struct {
	Limit        int
	Skip         int
	CPF          string
	HealthStatus string
}

// RecordList is the body of GET /records.
type RecordList struct {
	Records []ExamRecord `json:"records"`
	Total   int          `json:"total"`
	Limit   int          `json:"limit,omitempty"`
	Skip    int          `json:"skip,omitempty"`
}

// PatientData is the dados_gestante block of a stored exam.
type PatientData struct {
	Name           string `json:"patient_name"`
	CPF            string `json:"patient_cpf"`
	ID             string `json:"patient_id"`
	GestationalAge int    `json:"gestational_age"`
	Age            int    `json:"patient_age"`
}

// ModelResult is the resultado_ml block of a stored exam.
type ModelResult struct {
	Confidence      float64       `json:"confidence"`
	Status          string        `json:"status"`
	Prediction      scoring.Class `json:"prediction"`
	Recommendations []string      `json:"recommendations"`
}

// FetalHealth is the saude_feto block of a stored exam.
type FetalHealth struct {
	Status    string `json:"status_saude"`
	RiskLevel string `json:"nivel_risco"`
}

// ExamRecord is one stored exam as returned by GET /records.
type ExamRecord struct {
	ID         primitive.ObjectID           `json:"_id"`
	ExamDate   string                       `json:"data_exame"`
	Patient    PatientData                  `json:"dados_gestante"`
	Parameters scoring.MonitoringParameters `json:"parametros_monitoramento"`
	Result     ModelResult                  `json:"resultado_ml"`
	Health     FetalHealth                  `json:"saude_feto"`
}

// PredictRequest is the body of POST /predict: the monitoring reading plus
// the identity of the patient it belongs to.
type PredictRequest struct {
	scoring.MonitoringParameters
	PatientName    string `json:"patient_name"`
	PatientID      string `json:"patient_id"`
	PatientCPF     string `json:"patient_cpf"`
	GestationalAge int    `json:"gestational_age"`
	PatientAge     int    `json:"patient_age"`
}

// PredictResponse is the body of a successful POST /predict.
type PredictResponse struct {
	Confidence      float64       `json:"confidence"`
	Prediction      scoring.Class `json:"prediction"`
	Status          string        `json:"status,omitempty"`
	Description     string        `json:"description,omitempty"`
	Recommendations []string      `json:"recommendations"`
	SavedToDatabase bool          `json:"saved_to_database"`
	RecordID        string        `json:"record_id,omitempty"`
	Timestamp       string        `json:"timestamp,omitempty"`
}

// errorBody is the shape of error responses from the remote service.
type errorBody struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}
