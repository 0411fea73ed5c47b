package assessment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/fetalcare/fetalcare/internal/domain/scoring"
)

// Built-in scenario names.
const (
	ScenarioNormal   = "normal"
	ScenarioRisk     = "risk"
	ScenarioCritical = "critical"
)

// Scenario is a canned patient plus monitoring reading used to exercise the
// full analysis path.
type Scenario struct {
	Name       string                       `json:"name" yaml:"-"`
	Title      string                       `json:"title" yaml:"title"`
	Patient    PatientForm                  `json:"patient" yaml:"patient"`
	Parameters scoring.MonitoringParameters `json:"parameters" yaml:"parameters"`
}

// BuiltinScenarios returns the three stock scenarios.
func BuiltinScenarios() map[string]Scenario {
	normal := Defaults()
	normal.Accelerations = 3
	normal.FetalMovement = 5

	return map[string]Scenario{
		ScenarioNormal: {
			Name:  ScenarioNormal,
			Title: "Caso Normal",
			Patient: PatientForm{
				Name: "Maria da Silva", ID: "G2024001", GestationalAge: "32", Age: "28",
			},
			Parameters: normal,
		},
		ScenarioRisk: {
			Name:  ScenarioRisk,
			Title: "Caso de Risco",
			Patient: PatientForm{
				Name: "Ana Santos", ID: "G2024002", GestationalAge: "36", Age: "32",
			},
			Parameters: scoring.MonitoringParameters{
				BaselineValue:                   165,
				Accelerations:                   1,
				FetalMovement:                   2,
				UterineContractions:             3,
				LightDecelerations:              2,
				AbnormalShortTermVariability:    45,
				MeanValueOfShortTermVariability: 0.8,
				PercentageOfTimeWithAbnormalLongTermVariability: 25,
				MeanValueOfLongTermVariability:                  5.2,
				HistogramWidth:                                  180,
				HistogramMin:                                    120,
				HistogramMax:                                    180,
				HistogramNumberOfPeaks:                          5,
				HistogramNumberOfZeroes:                         2,
				HistogramMode:                                   165,
				HistogramMean:                                   158,
				HistogramMedian:                                 162,
				HistogramVariance:                               45,
				HistogramTendency:                               scoring.TendencyIncreasing,
			},
		},
		ScenarioCritical: {
			Name:  ScenarioCritical,
			Title: "Caso Crítico",
			Patient: PatientForm{
				Name: "Carla Oliveira", ID: "G2024003", GestationalAge: "38", Age: "35",
			},
			Parameters: scoring.MonitoringParameters{
				BaselineValue:                   95,
				UterineContractions:             5,
				SevereDecelerations:             3,
				ProlonguedDecelerations:         2,
				AbnormalShortTermVariability:    75,
				MeanValueOfShortTermVariability: 0.3,
				PercentageOfTimeWithAbnormalLongTermVariability: 60,
				MeanValueOfLongTermVariability:                  2.1,
				HistogramWidth:                                  80,
				HistogramMin:                                    80,
				HistogramMax:                                    110,
				HistogramNumberOfPeaks:                          8,
				HistogramNumberOfZeroes:                         15,
				HistogramMode:                                   95,
				HistogramMean:                                   92,
				HistogramMedian:                                 94,
				HistogramVariance:                               85,
				HistogramTendency:                               scoring.TendencyDecreasing,
			},
		},
	}
}

// Catalog is the concurrency-safe set of scenarios available to sessions.
type Catalog struct {
	mu        sync.RWMutex
	scenarios map[string]Scenario
}

// NewCatalog returns a catalog seeded with the given scenarios, or the
// built-ins when none are given.
func NewCatalog(scenarios map[string]Scenario) *Catalog {
	if scenarios == nil {
		scenarios = BuiltinScenarios()
	}
	return &Catalog{scenarios: scenarios}
}

// Get looks up a scenario by name.
func (c *Catalog) Get(name string) (Scenario, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.scenarios[name]
	return s, ok
}

// Names returns the scenario names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.scenarios))
	for n := range c.scenarios {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// List returns every scenario sorted by name.
func (c *Catalog) List() []Scenario {
	names := c.Names()
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Scenario, 0, len(names))
	for _, n := range names {
		if s, ok := c.scenarios[n]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Replace swaps the catalog contents.
func (c *Catalog) Replace(scenarios map[string]Scenario) {
	c.mu.Lock()
	c.scenarios = scenarios
	c.mu.Unlock()
}

type scenarioFile struct {
	Scenarios map[string]Scenario `yaml:"scenarios"`
}

// LoadScenarios reads a YAML scenario file. Entries override the built-ins
// by name; new names are added. An entry without a tendency gets "normal".
func LoadScenarios(path string) (map[string]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("assessment: read scenarios %q: %w", path, err)
	}

	var f scenarioFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("assessment: parse scenarios %q: %w", path, err)
	}

	out := BuiltinScenarios()
	for name, s := range f.Scenarios {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("assessment: scenarios %q: empty scenario name", path)
		}
		s.Name = name
		if s.Title == "" {
			s.Title = name
		}
		if s.Parameters.HistogramTendency == "" {
			s.Parameters.HistogramTendency = scoring.TendencyNormal
		}
		out[name] = s
	}
	return out, nil
}

// LoadParameters reads a single monitoring reading from a YAML file.
func LoadParameters(path string) (scoring.MonitoringParameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scoring.MonitoringParameters{}, fmt.Errorf("assessment: read parameters %q: %w", path, err)
	}
	p := Defaults()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return scoring.MonitoringParameters{}, fmt.Errorf("assessment: parse parameters %q: %w", path, err)
	}
	if p.HistogramTendency == "" {
		p.HistogramTendency = scoring.TendencyNormal
	}
	return p, nil
}

// WatchScenarios reloads path into catalog whenever the file changes, until
// ctx is cancelled. A failed reload is logged and the catalog is left alone.
// The parent directory is watched so editors that save by rename are seen.
func WatchScenarios(ctx context.Context, path string, catalog *Catalog, logger zerolog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info().Str("path", abs).Msg("watching scenario file")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			scenarios, err := LoadScenarios(abs)
			if err != nil {
				logger.Error().Err(err).Str("path", abs).Msg("scenario reload failed, keeping previous catalog")
				continue
			}
			catalog.Replace(scenarios)
			logger.Info().Str("path", abs).Int("scenarios", len(scenarios)).Msg("scenarios reloaded")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("scenario watcher error")
		}
	}
}
