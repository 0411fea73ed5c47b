package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fetalcare/fetalcare/internal/domain/scoring"
	"github.com/fetalcare/fetalcare/internal/platform/fetalapi"
	"github.com/fetalcare/fetalcare/internal/platform/localstore"
	"github.com/fetalcare/fetalcare/internal/platform/notification"
)

// ResultKeyPrefix prefixes every key written by SaveResults.
const ResultKeyPrefix = "fetalcare_result_"

// resultKeyLayout renders the key suffix as a millisecond ISO timestamp.
const resultKeyLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrAnalysisFailed is returned when neither the remote model nor the local
// engine could produce a result.
var ErrAnalysisFailed = errors.New("assessment: analysis failed")

// Predictor is the remote prediction service.
type Predictor interface {
	Health(ctx context.Context) (*fetalapi.HealthResponse, error)
	Predict(ctx context.Context, req fetalapi.PredictRequest) (*fetalapi.PredictResponse, error)
}

// Metrics receives completed predictions.
type Metrics interface {
	Prediction(source string, class scoring.Class)
}

type nopMetrics struct{}

func (nopMetrics) Prediction(string, scoring.Class) {}

// Option customises a Controller.
type Option func(*Controller)

// WithMetrics reports predictions to m.
func WithMetrics(m Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithSink sets where SaveResults writes.
func WithSink(s localstore.Sink) Option {
	return func(c *Controller) { c.sink = s }
}

// WithCatalog sets the scenario catalog used by RunScenario.
func WithCatalog(cat *Catalog) Option {
	return func(c *Controller) { c.catalog = cat }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Snapshot is a copy of the controller state.
type Snapshot struct {
	Connection fetalapi.Connection `json:"connection"`
	Checked    bool                `json:"checked"`
	Patient    *Patient            `json:"patient"`
	Form       MonitoringForm      `json:"form"`
	Last       *Assessment         `json:"last"`
}

// Controller drives the assessment screen of one console session: patient
// registration, monitoring submission, scenarios and result saving.
type Controller struct {
	mu        sync.Mutex
	predictor Predictor
	notifier  notification.Notifier
	sink      localstore.Sink
	catalog   *Catalog
	metrics   Metrics
	logger    zerolog.Logger
	now       func() time.Time

	connected bool
	checked   bool
	patient   *Patient
	form      MonitoringForm
	last      *Assessment
}

// NewController returns a controller with no patient and an unknown
// connection state.
func NewController(predictor Predictor, notifier notification.Notifier, logger zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{
		predictor: predictor,
		notifier:  notifier,
		sink:      localstore.NewMemory(),
		metrics:   nopMetrics{},
		logger:    logger.With().Str("component", "assessment").Logger(),
		now:       time.Now,
		form:      MonitoringForm{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.catalog == nil {
		c.catalog = NewCatalog(nil)
	}
	return c
}

func (c *Controller) notify(level notification.Level, msg string) {
	if c.notifier != nil {
		c.notifier.Notify(level, msg)
	}
}

// Probe asks the remote service whether it is healthy. Any error means
// offline and is returned alongside the status.
func Probe(ctx context.Context, p Predictor) (fetalapi.Connection, error) {
	_, err := p.Health(ctx)
	return fetalapi.ConnectionStatus(err == nil), err
}

// CheckConnection probes the remote service and records the outcome. A
// service that answers but is not healthy goes offline silently; an
// unreachable one goes offline with a warning.
func (c *Controller) CheckConnection(ctx context.Context) fetalapi.Connection {
	conn, err := Probe(ctx, c.predictor)

	c.mu.Lock()
	c.connected = conn.Online
	c.checked = true
	c.mu.Unlock()

	switch {
	case err == nil:
		c.notify(notification.LevelSuccess, "Sistema conectado com sucesso!")
	case errors.Is(err, fetalapi.ErrUnhealthy):
		c.logger.Info().Err(err).Msg("prediction service reports unhealthy")
	default:
		c.logger.Warn().Err(err).Msg("prediction service unreachable")
		c.notify(notification.LevelWarning, "Modo offline - usando simulação local")
	}
	return conn
}

// SetPatient validates and stores the patient identity.
func (c *Controller) SetPatient(form PatientForm) (Patient, error) {
	p, err := ParsePatient(form, c.now())
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			c.notify(notification.LevelError, "Erro: "+ve.Message)
		}
		return Patient{}, err
	}

	c.mu.Lock()
	c.patient = &p
	c.mu.Unlock()

	c.notify(notification.LevelSuccess, fmt.Sprintf("Dados da gestante %s salvos com sucesso!", p.Name))
	return p, nil
}

// LoadDefaults replaces the monitoring form with the typical reading.
func (c *Controller) LoadDefaults() MonitoringForm {
	form := FormFromParameters(Defaults())

	c.mu.Lock()
	c.form = form
	c.mu.Unlock()

	c.notify(notification.LevelSuccess, "Valores padrão carregados com sucesso!")
	return copyForm(form)
}

// Submit validates the monitoring form and analyses it for the registered
// patient.
func (c *Controller) Submit(ctx context.Context, form MonitoringForm) (Assessment, error) {
	c.mu.Lock()
	patient := c.patient
	c.mu.Unlock()

	if patient == nil {
		c.notify(notification.LevelWarning, "Por favor, preencha primeiro os dados da gestante.")
		return Assessment{}, ErrNoPatient
	}

	params, err := ParseMonitoring(form)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			c.notify(notification.LevelError, ve.Message)
		}
		return Assessment{}, err
	}

	c.mu.Lock()
	c.form = copyForm(form)
	c.mu.Unlock()

	a, err := c.analyze(ctx, *patient, params)
	if err != nil {
		c.notify(notification.LevelError, "Erro ao realizar análise. Verifique os dados e tente novamente.")
		return Assessment{}, err
	}
	return a, nil
}

// RunScenario registers the scenario patient, fills the form with its
// reading and analyses it.
func (c *Controller) RunScenario(ctx context.Context, name string) (Assessment, error) {
	s, ok := c.catalog.Get(name)
	if !ok {
		c.notify(notification.LevelError, "Erro ao executar teste.")
		return Assessment{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}

	p, err := ParsePatient(s.Patient, c.now())
	if err != nil {
		c.notify(notification.LevelError, "Erro ao executar teste.")
		return Assessment{}, fmt.Errorf("assessment: scenario %q: %w", name, err)
	}

	c.mu.Lock()
	c.patient = &p
	c.form = FormFromParameters(s.Parameters)
	c.mu.Unlock()

	a, err := c.analyze(ctx, p, s.Parameters)
	if err != nil {
		c.notify(notification.LevelError, "Erro ao executar teste.")
		return Assessment{}, err
	}
	c.notify(notification.LevelSuccess, fmt.Sprintf("Teste \"%s\" executado com sucesso!", s.Title))
	return a, nil
}

// SaveResults writes the current patient to the result sink and returns the
// key used.
func (c *Controller) SaveResults(ctx context.Context) (string, error) {
	c.mu.Lock()
	patient := c.patient
	c.mu.Unlock()

	if patient == nil {
		c.notify(notification.LevelWarning, "Nenhum resultado para salvar.")
		return "", ErrNoPatient
	}

	ts := c.now().UTC().Format(resultKeyLayout)
	key := ResultKeyPrefix + ts
	value, err := json.Marshal(SavedResult{Patient: *patient, Timestamp: ts, Saved: true})
	if err != nil {
		return "", fmt.Errorf("assessment: encode result: %w", err)
	}
	if err := c.sink.Put(ctx, key, value); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("saving result failed")
		c.notify(notification.LevelError, "Erro ao salvar resultados.")
		return "", fmt.Errorf("assessment: save result: %w", err)
	}

	c.logger.Info().Str("key", key).Str("patient_id", patient.ID).Msg("result saved")
	c.notify(notification.LevelSuccess, "Resultados salvos com sucesso!")
	return key, nil
}

// Snapshot returns a copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Connection: fetalapi.ConnectionStatus(c.connected),
		Checked:    c.checked,
		Form:       copyForm(c.form),
	}
	if c.patient != nil {
		p := *c.patient
		s.Patient = &p
	}
	if c.last != nil {
		a := *c.last
		s.Last = &a
	}
	return s
}

// analyze runs the remote model when connected and falls back to the local
// engine otherwise or on any remote failure.
func (c *Controller) analyze(ctx context.Context, patient Patient, params scoring.MonitoringParameters) (Assessment, error) {
	c.mu.Lock()
	checked := c.checked
	c.mu.Unlock()
	if !checked {
		c.CheckConnection(ctx)
	}

	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()

	var (
		a   Assessment
		err error
	)
	if connected {
		a, err = c.predictRemote(ctx, patient, params)
		if err != nil {
			c.logger.Warn().Err(err).Bool("unavailable", fetalapi.IsUnavailable(err)).Msg("remote prediction failed, using local engine")
		}
	}
	if !connected || err != nil {
		if ctx.Err() != nil {
			return Assessment{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, ctx.Err())
		}
		a = c.predictLocal(patient, params)
	}

	c.mu.Lock()
	last := a
	c.last = &last
	c.mu.Unlock()

	c.metrics.Prediction(a.Source, a.Prediction)
	c.logger.Info().
		Str("source", a.Source).
		Str("patient_id", patient.ID).
		Float64("confidence", a.Confidence).
		Int("prediction", int(a.Prediction)).
		Msg("analysis complete")

	c.notify(levelForSeverity(a.Status.Severity), "Análise concluída: "+a.Status.Label)
	if a.SavedToDatabase {
		c.notify(notification.LevelSuccess, "Dados salvos no banco de dados com sucesso!")
	}
	return a, nil
}

func (c *Controller) predictRemote(ctx context.Context, patient Patient, params scoring.MonitoringParameters) (Assessment, error) {
	resp, err := c.predictor.Predict(ctx, fetalapi.PredictRequest{
		MonitoringParameters: params,
		PatientName:          patient.Name,
		PatientID:            patient.ID,
		PatientCPF:           patient.CPF,
		GestationalAge:       patient.GestationalAge,
		PatientAge:           patient.Age,
	})
	if err != nil {
		return Assessment{}, err
	}

	cl := scoring.Classify(resp.Confidence)
	prediction := resp.Prediction
	if !prediction.Valid() {
		prediction = cl.Class
	}
	recs := resp.Recommendations
	if len(recs) == 0 {
		recs = cl.Recommendations
	}
	return Assessment{
		Source:          SourceRemote,
		Confidence:      resp.Confidence,
		Prediction:      prediction,
		Status:          cl.Status,
		Recommendations: recs,
		SavedToDatabase: resp.SavedToDatabase,
		RecordID:        resp.RecordID,
		Patient:         patient,
		Parameters:      params,
		CreatedAt:       c.now(),
	}, nil
}

func (c *Controller) predictLocal(patient Patient, params scoring.MonitoringParameters) Assessment {
	r := scoring.Score(params)
	return Assessment{
		Source:          SourceLocal,
		Confidence:      r.Confidence,
		Prediction:      r.Prediction,
		Status:          r.Status,
		Recommendations: r.Recommendations,
		RiskScore:       r.RiskScore,
		Contributions:   r.Contributions,
		Patient:         patient,
		Parameters:      params,
		CreatedAt:       c.now(),
	}
}

func levelForSeverity(severity string) notification.Level {
	switch severity {
	case scoring.SeveritySuccess:
		return notification.LevelSuccess
	case scoring.SeverityWarning:
		return notification.LevelWarning
	default:
		return notification.LevelError
	}
}

func copyForm(f MonitoringForm) MonitoringForm {
	out := make(MonitoringForm, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
