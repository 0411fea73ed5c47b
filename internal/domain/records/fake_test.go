package records

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fetalcare/fetalcare/internal/platform/fetalapi"
)

// fakeAPI serves a fixed population of records and records every call.
type fakeAPI struct {
	mu       sync.Mutex
	total    int
	err      error
	calls    []fetalapi.ListParams
	health   error
	stats    *fetalapi.Stats
	statsErr error

	// gate, when set, is consulted before answering; the call blocks until a
	// value is received.
	gate    func(call int) chan struct{}
	entered chan int
}

func (f *fakeAPI) ListRecords(ctx context.Context, p fetalapi.ListParams) (*fetalapi.RecordList, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	n := len(f.calls)
	err := f.err
	total := f.total
	gate := f.gate
	entered := f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- n
	}
	if gate != nil {
		if ch := gate(n); ch != nil {
			<-ch
		}
	}
	if err != nil {
		return nil, err
	}

	recs := []fetalapi.ExamRecord{}
	for i := p.Skip; i < p.Skip+p.Limit && i < total; i++ {
		recs = append(recs, fetalapi.ExamRecord{
			ID:      primitive.NewObjectID(),
			Patient: fetalapi.PatientData{Name: "Paciente", CPF: "12345678900"},
			Result:  fetalapi.ModelResult{Confidence: 90},
			Health:  fetalapi.FetalHealth{Status: fetalapi.HealthNormal},
		})
	}
	return &fetalapi.RecordList{Records: recs, Total: total}, nil
}

func (f *fakeAPI) Health(ctx context.Context) (*fetalapi.HealthResponse, error) {
	if f.health != nil {
		return nil, f.health
	}
	return &fetalapi.HealthResponse{Status: "healthy"}, nil
}

func (f *fakeAPI) Stats(ctx context.Context) (*fetalapi.Stats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	if f.stats != nil {
		return f.stats, nil
	}
	return &fetalapi.Stats{}, nil
}

func (f *fakeAPI) lastCall() fetalapi.ListParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
	stale    int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{outcomes: map[string]int{}}
}

func (m *countingMetrics) RecordFetch(outcome string) {
	m.mu.Lock()
	m.outcomes[outcome]++
	m.mu.Unlock()
}

func (m *countingMetrics) StaleResponse() {
	m.mu.Lock()
	m.stale++
	m.mu.Unlock()
}
