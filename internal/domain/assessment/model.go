package assessment

import (
	"errors"
	"strings"
	"time"

	"github.com/fetalcare/fetalcare/internal/domain/scoring"
)

// Prediction sources.
const (
	SourceRemote = "remote"
	SourceLocal  = "local"
)

var (
	// ErrNoPatient is returned when an operation needs a registered patient
	// and none has been entered in the session.
	ErrNoPatient = errors.New("assessment: no patient registered")

	// ErrUnknownScenario is returned for a scenario name not in the catalog.
	ErrUnknownScenario = errors.New("assessment: unknown scenario")
)

// ValidationError reports operator input that cannot be accepted. Message is
// shown to the operator as-is.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "assessment: validation: " + e.Message
	}
	return "assessment: validation: " + e.Message + " (" + strings.Join(e.Fields, ", ") + ")"
}

// PatientForm is the raw patient form.
type PatientForm struct {
	Name           string `json:"name" yaml:"name"`
	ID             string `json:"id" yaml:"id"`
	CPF            string `json:"cpf" yaml:"cpf"`
	GestationalAge string `json:"gestational_age" yaml:"gestational_age"`
	Age            string `json:"age" yaml:"age"`
}

// Patient is the validated identity attached to every prediction.
type Patient struct {
	Name           string    `json:"name" yaml:"name"`
	ID             string    `json:"id" yaml:"id"`
	CPF            string    `json:"cpf" yaml:"cpf"`
	GestationalAge int       `json:"gestational_age" yaml:"gestational_age"`
	Age            int       `json:"age,omitempty" yaml:"age"`
	RegisteredAt   time.Time `json:"timestamp" yaml:"-"`
}

// MonitoringForm is the raw monitoring form keyed by wire field name.
type MonitoringForm map[string]string

// Assessment is one completed analysis, remote or local.
type Assessment struct {
	Source          string                       `json:"source"`
	Confidence      float64                      `json:"confidence"`
	Prediction      scoring.Class                `json:"prediction"`
	Status          scoring.Status               `json:"status"`
	Recommendations []string                     `json:"recommendations"`
	RiskScore       int                          `json:"risk_score,omitempty"`
	Contributions   []scoring.Contribution       `json:"contributions,omitempty"`
	SavedToDatabase bool                         `json:"saved_to_database"`
	RecordID        string                       `json:"record_id,omitempty"`
	Patient         Patient                      `json:"patient"`
	Parameters      scoring.MonitoringParameters `json:"parameters"`
	CreatedAt       time.Time                    `json:"created_at"`
}

// SavedResult is the value written to the local sink.
type SavedResult struct {
	Patient   Patient `json:"patient"`
	Timestamp string  `json:"timestamp"`
	Saved     bool    `json:"saved"`
}
