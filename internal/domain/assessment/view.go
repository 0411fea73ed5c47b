package assessment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fetalcare/fetalcare/internal/domain/scoring"
	"github.com/fetalcare/fetalcare/internal/platform/fetalapi"
)

// DetailTimeLayout is the dd/mm/yyyy hh:mm:ss layout of the result details.
const DetailTimeLayout = "02/01/2006 15:04:05"

// Status bar widths in percent, by severity.
const (
	BarHealthy  = 25
	BarRisk     = 60
	BarCritical = 90
)

// ResultView describes the result panel.
type ResultView struct {
	Source          string        `json:"source"`
	Label           string        `json:"label"`
	Severity        string        `json:"severity"`
	Description     string        `json:"description"`
	Confidence      string        `json:"confidence"`
	Prediction      scoring.Class `json:"prediction"`
	BarWidth        int           `json:"bar_width"`
	Recommendations []string      `json:"recommendations"`
	Details         ResultDetails `json:"details"`
	SavedToDatabase bool          `json:"saved_to_database"`
	RecordID        string        `json:"record_id,omitempty"`
	PatientName     string        `json:"patient_name"`
	PatientID       string        `json:"patient_id"`
}

// ResultDetails is the small parameter summary under the result.
type ResultDetails struct {
	Baseline      string `json:"baseline"`
	Accelerations string `json:"accelerations"`
	FetalMovement string `json:"fetal_movement"`
	Timestamp     string `json:"timestamp"`
}

// ScreenView is the whole assessment screen.
type ScreenView struct {
	Connection fetalapi.Connection `json:"connection"`
	Patient    *Patient            `json:"patient"`
	Form       MonitoringForm      `json:"form"`
	Result     *ResultView         `json:"result"`
}

// RenderResult builds the result panel for a, with the timestamp shown in loc.
func RenderResult(a Assessment, loc *time.Location) ResultView {
	if loc == nil {
		loc = time.Local
	}
	recs := make([]string, len(a.Recommendations))
	copy(recs, a.Recommendations)
	return ResultView{
		Source:          a.Source,
		Label:           a.Status.Label,
		Severity:        a.Status.Severity,
		Description:     a.Status.Description,
		Confidence:      FormatConfidence(a.Confidence),
		Prediction:      a.Prediction,
		BarWidth:        BarWidth(a.Status.Severity),
		Recommendations: recs,
		Details: ResultDetails{
			Baseline:      formatValue(a.Parameters.BaselineValue) + " bpm",
			Accelerations: formatValue(a.Parameters.Accelerations),
			FetalMovement: formatValue(a.Parameters.FetalMovement),
			Timestamp:     a.CreatedAt.In(loc).Format(DetailTimeLayout),
		},
		SavedToDatabase: a.SavedToDatabase,
		RecordID:        a.RecordID,
		PatientName:     a.Patient.Name,
		PatientID:       a.Patient.ID,
	}
}

// RenderScreen builds the screen view from a controller snapshot.
func RenderScreen(s Snapshot, loc *time.Location) ScreenView {
	v := ScreenView{
		Connection: s.Connection,
		Patient:    s.Patient,
		Form:       s.Form,
	}
	if s.Last != nil {
		r := RenderResult(*s.Last, loc)
		v.Result = &r
	}
	return v
}

// BarWidth maps a status severity to the bar width.
func BarWidth(severity string) int {
	switch severity {
	case scoring.SeveritySuccess:
		return BarHealthy
	case scoring.SeverityWarning:
		return BarRisk
	default:
		return BarCritical
	}
}

// FormatConfidence renders a confidence with one decimal and a percent sign.
func FormatConfidence(c float64) string {
	return decimal.NewFromFloat(c).StringFixed(1) + "%"
}

func formatValue(f float64) string {
	return decimal.NewFromFloat(f).String()
}
