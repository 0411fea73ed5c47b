package records

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fetalcare/fetalcare/internal/domain/scoring"
	"github.com/fetalcare/fetalcare/internal/platform/fetalapi"
	"github.com/fetalcare/fetalcare/pkg/pagination"
)

// Badge classes for status_saude values.
const (
	BadgeNormal   = "status-normal"
	BadgeRisk     = "status-risk"
	BadgeCritical = "status-critical"
)

// Confidence bar colours.
const (
	ColorCritical = "#dc3545"
	ColorRisk     = "#ffc107"
	ColorHealthy  = "#28a745"
)

const (
	notAvailable = "N/A"
	dateLayout   = "02/01/2006 15:04:05"
)

// View is the full description of the records screen for a rendering
// surface. It carries no behaviour.
type View struct {
	State      State           `json:"state"`
	Loading    bool            `json:"loading"`
	Rows       []RowView       `json:"rows"`
	Count      string          `json:"count"`
	Total      int             `json:"total"`
	Pagination pagination.View `json:"pagination"`
	Form       FormInput       `json:"form"`
	Query      Query           `json:"query"`
	Error      string          `json:"error,omitempty"`
}

// RowView is one table row plus its expandable details block.
type RowView struct {
	ID              string     `json:"id"`
	ExamDate        string     `json:"exam_date"`
	PatientName     string     `json:"patient_name"`
	CPF             string     `json:"cpf"`
	CPFFilter       string     `json:"cpf_filter"`
	PatientID       string     `json:"patient_id"`
	GestationalAge  string     `json:"gestational_age"`
	Status          string     `json:"status"`
	BadgeClass      string     `json:"badge_class"`
	Confidence      string     `json:"confidence"`
	ConfidenceWidth float64    `json:"confidence_width"`
	ConfidenceColor string     `json:"confidence_color"`
	Baseline        string     `json:"baseline"`
	Details         DetailView `json:"details"`
}

// DetailView groups the expanded fields of a record.
type DetailView struct {
	PatientAge      string   `json:"patient_age"`
	GestationalAge  string   `json:"gestational_age"`
	Accelerations   string   `json:"accelerations"`
	FetalMovement   string   `json:"fetal_movement"`
	Contractions    string   `json:"contractions"`
	ModelStatus     string   `json:"model_status"`
	Prediction      string   `json:"prediction"`
	RiskLevel       string   `json:"risk_level"`
	ShortTermVar    string   `json:"short_term_variability"`
	LongTermVar     string   `json:"long_term_variability"`
	SevereDecels    string   `json:"severe_decelerations"`
	ProlongedDecels string   `json:"prolonged_decelerations"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Render describes the screen for a snapshot. It is pure.
func Render(s Snapshot) View {
	v := View{
		State:   s.State,
		Loading: s.State == StateLoading,
		Rows:    make([]RowView, 0, len(s.Page.Records)),
		Total:   s.Page.Total,
		Form:    s.Form,
		Query:   s.Query,
		Error:   s.Error,
	}
	for _, r := range s.Page.Records {
		v.Rows = append(v.Rows, renderRow(r))
	}

	totalPages := pagination.TotalPages(s.Page.Total, s.Query.Limit)
	v.Pagination = pagination.Window(s.Query.Page, totalPages)

	switch s.State {
	case StateLoaded:
		v.Count = CountText(s.Query, s.Page.Total)
	case StateEmpty, StateErrored:
		v.Count = "Nenhum registro encontrado"
		if s.State == StateErrored {
			v.Pagination = pagination.Window(0, 0)
		}
	}
	return v
}

// CountText renders "Mostrando a-b de n registros" for the query's page.
func CountText(q Query, total int) string {
	start, end := q.pagination().Span(total)
	return fmt.Sprintf("Mostrando %d-%d de %d registros", start, end, total)
}

// BadgeClass maps a status_saude value to its badge class.
func BadgeClass(status string) string {
	switch status {
	case fetalapi.HealthAtRisk:
		return BadgeRisk
	case fetalapi.HealthCritical:
		return BadgeCritical
	default:
		return BadgeNormal
	}
}

// ConfidenceColor maps a confidence percentage to the bar colour, using the
// same inclusive thresholds as classification.
func ConfidenceColor(confidence float64) string {
	switch {
	case confidence <= scoring.ThresholdCritical:
		return ColorCritical
	case confidence <= scoring.ThresholdRisk:
		return ColorRisk
	default:
		return ColorHealthy
	}
}

// FormatExamDate renders a stored exam timestamp as dd/mm/yyyy hh:mm:ss.
// Unrecognised values are returned unchanged.
func FormatExamDate(raw string) string {
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		time.RFC1123,
	} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(dateLayout)
		}
	}
	return raw
}

func renderRow(r ExamRecord) RowView {
	p := r.Parameters
	conf := r.Result.Confidence
	status := r.Health.Status
	if status == "" {
		status = notAvailable
	}
	width := conf
	if width < 0 {
		width = 0
	}
	if width > 100 {
		width = 100
	}

	row := RowView{
		ID:              r.ID.Hex(),
		ExamDate:        FormatExamDate(r.ExamDate),
		PatientName:     orNA(r.Patient.Name),
		CPF:             FormatCPF(r.Patient.CPF),
		CPFFilter:       r.Patient.CPF,
		PatientID:       orNA(r.Patient.ID),
		GestationalAge:  intOrNA(r.Patient.GestationalAge) + " sem",
		Status:          status,
		BadgeClass:      BadgeClass(r.Health.Status),
		Confidence:      formatNumber(conf) + "%",
		ConfidenceWidth: width,
		ConfidenceColor: ConfidenceColor(conf),
		Baseline:        numOrNA(p.BaselineValue) + " bpm",
		Details: DetailView{
			PatientAge:      intOrNA(r.Patient.Age) + " anos",
			GestationalAge:  intOrNA(r.Patient.GestationalAge) + " semanas",
			Accelerations:   numOrNA(p.Accelerations),
			FetalMovement:   numOrNA(p.FetalMovement),
			Contractions:    numOrNA(p.UterineContractions),
			ModelStatus:     orNA(r.Result.Status),
			Prediction:      intOrNA(int(r.Result.Prediction)),
			RiskLevel:       orNA(r.Health.RiskLevel),
			ShortTermVar:    numOrNA(p.MeanValueOfShortTermVariability),
			LongTermVar:     numOrNA(p.MeanValueOfLongTermVariability),
			SevereDecels:    numOrNA(p.SevereDecelerations),
			ProlongedDecels: numOrNA(p.ProlonguedDecelerations),
			Recommendations: r.Result.Recommendations,
		},
	}
	return row
}

// formatNumber rounds to one decimal place and drops a trailing ".0".
func formatNumber(f float64) string {
	return decimal.NewFromFloat(f).Round(1).String()
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

// Zero reads as missing, matching how the stored documents leave absent
// fields.
func numOrNA(f float64) string {
	if f == 0 {
		return notAvailable
	}
	return formatNumber(f)
}

func intOrNA(n int) string {
	if n == 0 {
		return notAvailable
	}
	return strconv.Itoa(n)
}
