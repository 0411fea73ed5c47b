package assessment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fetalcare/fetalcare/internal/domain/scoring"
	"github.com/fetalcare/fetalcare/internal/platform/fetalapi"
	"github.com/fetalcare/fetalcare/internal/platform/localstore"
	"github.com/fetalcare/fetalcare/internal/platform/notification"
)

// fakePredictor answers health and predict calls from fixed values.
type fakePredictor struct {
	mu         sync.Mutex
	healthErr  error
	predictErr error
	response   *fetalapi.PredictResponse
	requests   []fetalapi.PredictRequest
	healthHits int
}

func (f *fakePredictor) Health(ctx context.Context) (*fetalapi.HealthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthHits++
	if f.healthErr != nil {
		return nil, f.healthErr
	}
	return &fetalapi.HealthResponse{Status: "healthy", ModelLoaded: true}, nil
}

func (f *fakePredictor) Predict(ctx context.Context, req fetalapi.PredictRequest) (*fetalapi.PredictResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.predictErr != nil {
		return nil, f.predictErr
	}
	if f.response != nil {
		r := *f.response
		return &r, nil
	}
	return &fetalapi.PredictResponse{Confidence: 88, Prediction: scoring.ClassHealthy}, nil
}

func (f *fakePredictor) predictCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// fakeMetrics counts predictions by source.
type fakeMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *fakeMetrics) Prediction(source string, _ scoring.Class) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[source]++
}

// failingSink rejects every write.
type failingSink struct{}

func (failingSink) Put(context.Context, string, []byte) error {
	return errors.New("disk full")
}

var fixedNow = time.Date(2024, 3, 15, 14, 30, 5, 123000000, time.UTC)

func newTestController(p Predictor, opts ...Option) (*Controller, *notification.Recorder, *localstore.Memory) {
	notes := &notification.Recorder{}
	mem := localstore.NewMemory()
	all := append([]Option{WithSink(mem), WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewController(p, notes, zerolog.Nop(), all...), notes, mem
}

func validPatientForm() PatientForm {
	return PatientForm{Name: "Maria", ID: "G1", GestationalAge: "32"}
}
