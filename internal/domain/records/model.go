package records

import (
	"time"

	"github.com/fetalcare/fetalcare/internal/platform/fetalapi"
	"github.com/fetalcare/fetalcare/pkg/pagination"
)

// State is the lifecycle position of a Browser.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateEmpty   State = "empty"
	StateErrored State = "errored"
)

// Fetch outcomes reported to Metrics.
const (
	OutcomeLoaded = "loaded"
	OutcomeEmpty  = "empty"
	OutcomeError  = "error"
)

// ExamRecord is one stored exam.
type ExamRecord = fetalapi.ExamRecord

// Filters narrow the record listing. Empty fields are not sent.
type Filters struct {
	CPF          string `json:"cpf,omitempty"`
	HealthStatus string `json:"status_saude,omitempty"`
}

// Query is the active listing request: a zero-based page, a page size, and
// the installed filters.
type Query struct {
	Page    int     `json:"page"`
	Limit   int     `json:"limit"`
	Filters Filters `json:"filters"`
}

// Params converts the query into remote list parameters.
func (q Query) Params() fetalapi.ListParams {
	return fetalapi.ListParams{
		Limit:        q.Limit,
		Skip:         q.pagination().Skip(),
		CPF:          q.Filters.CPF,
		HealthStatus: q.Filters.HealthStatus,
	}
}

func (q Query) pagination() pagination.Params {
	return pagination.Params{Page: q.Page, Limit: q.Limit}
}

// Page is the most recent fetch result. Total counts every record matching
// the filters, not just those in Records.
type Page struct {
	Records []ExamRecord `json:"records"`
	Total   int          `json:"total"`
}

// FormInput is the raw text of the filter form as the operator typed it.
type FormInput struct {
	CPF    string `json:"cpf"`
	Status string `json:"status"`
	Limit  string `json:"limit"`
}

// Snapshot is a consistent copy of a Browser's state.
type Snapshot struct {
	State     State     `json:"state"`
	Query     Query     `json:"query"`
	Page      Page      `json:"page"`
	Form      FormInput `json:"form"`
	Error     string    `json:"error,omitempty"`
	Seq       uint64    `json:"seq"`
	FetchedAt time.Time `json:"fetched_at,omitempty"`
}
