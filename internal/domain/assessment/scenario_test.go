package assessment

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fetalcare/fetalcare/internal/domain/scoring"
)

func TestBuiltinScenarios_Classes(t *testing.T) {
	tests := []struct {
		name       string
		risk       int
		class      scoring.Class
		confidence float64
	}{
		{ScenarioNormal, 0, scoring.ClassHealthy, 94},
		{ScenarioRisk, 55, scoring.ClassRisk, 56 + 7*(1-25.0/30)},
		{ScenarioCritical, 185, scoring.ClassCritical, 30},
	}
	scenarios := BuiltinScenarios()
	for _, tt := range tests {
		s, ok := scenarios[tt.name]
		if !ok {
			t.Fatalf("missing scenario %q", tt.name)
		}
		r := scoring.Score(s.Parameters)
		if r.RiskScore != tt.risk {
			t.Errorf("%s: risk = %d, want %d", tt.name, r.RiskScore, tt.risk)
		}
		if r.Prediction != tt.class {
			t.Errorf("%s: class = %v, want %v", tt.name, r.Prediction, tt.class)
		}
		if diff := r.Confidence - tt.confidence; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s: confidence = %v, want %v", tt.name, r.Confidence, tt.confidence)
		}
		if _, err := ParsePatient(s.Patient, fixedNow); err != nil {
			t.Errorf("%s: patient invalid: %v", tt.name, err)
		}
	}
}

func TestCatalog(t *testing.T) {
	c := NewCatalog(nil)
	names := c.Names()
	if len(names) != 3 || names[0] != "critical" || names[1] != "normal" || names[2] != "risk" {
		t.Fatalf("names = %v", names)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("unexpected scenario")
	}

	c.Replace(map[string]Scenario{"only": {Name: "only"}})
	if list := c.List(); len(list) != 1 || list[0].Name != "only" {
		t.Errorf("list after replace = %+v", list)
	}
}

const scenarioYAML = `
scenarios:
  normal:
    title: Caso Normal Ajustado
    patient:
      name: Joana
      id: G9
      gestational_age: 30
    parameters:
      baseline_value: 150
      accelerations: 2
      fetal_movement: 3
      mean_value_of_short_term_variability: 1.2
      mean_value_of_long_term_variability: 7
  twins:
    patient:
      name: Beatriz
      id: G10
      gestational_age: 34
    parameters:
      baseline_value: 100
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadScenarios(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	writeFile(t, path, scenarioYAML)

	got, err := LoadScenarios(path)
	if err != nil {
		t.Fatalf("LoadScenarios: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected built-ins plus one, got %d", len(got))
	}
	n := got[ScenarioNormal]
	if n.Title != "Caso Normal Ajustado" || n.Patient.Name != "Joana" || n.Patient.GestationalAge != "30" {
		t.Errorf("normal override = %+v", n)
	}
	if n.Parameters.BaselineValue != 150 || n.Parameters.HistogramTendency != scoring.TendencyNormal {
		t.Errorf("normal parameters = %+v", n.Parameters)
	}
	tw := got["twins"]
	if tw.Name != "twins" || tw.Title != "twins" {
		t.Errorf("twins = %+v", tw)
	}
	if _, ok := got[ScenarioCritical]; !ok {
		t.Error("built-in critical should survive")
	}
}

func TestLoadScenarios_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadScenarios(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "scenarios: [unclosed")
	if _, err := LoadScenarios(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadParameters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	writeFile(t, path, "baseline_value: 95\nsevere_decelerations: 1\n")

	p, err := LoadParameters(path)
	if err != nil {
		t.Fatalf("LoadParameters: %v", err)
	}
	if p.BaselineValue != 95 || p.SevereDecelerations != 1 {
		t.Errorf("parameters = %+v", p)
	}
	if p.Accelerations != 2 {
		t.Errorf("unset fields should keep defaults, accelerations = %v", p.Accelerations)
	}
}

func TestWatchScenarios_Reloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenarios.yaml")
	writeFile(t, path, "scenarios: {}\n")

	catalog := NewCatalog(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- WatchScenarios(ctx, path, catalog, zerolog.Nop()) }()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		writeFile(t, path, scenarioYAML)
		if _, ok := catalog.Get("twins"); ok {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if _, ok := catalog.Get("twins"); !ok {
		t.Fatal("catalog was not reloaded")
	}

	// Broken content keeps the previous catalog.
	writeFile(t, path, "scenarios: [")
	time.Sleep(100 * time.Millisecond)
	if _, ok := catalog.Get("twins"); !ok {
		t.Error("failed reload must not clear the catalog")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WatchScenarios returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
