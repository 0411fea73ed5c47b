package scoring

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestTendency_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Tendency
	}{
		{`"increasing"`, TendencyIncreasing},
		{`"stable"`, TendencyStable},
		{`0`, TendencyNormal},
		{`-1`, TendencyDecreasing},
		{`1`, TendencyIncreasing},
		{`0.0`, TendencyNormal},
		{`null`, ""},
	}
	for _, tc := range tests {
		var p MonitoringParameters
		if err := json.Unmarshal([]byte(`{"histogram_tendency":`+tc.in+`}`), &p); err != nil {
			t.Errorf("%s: unexpected error: %v", tc.in, err)
			continue
		}
		if p.HistogramTendency != tc.want {
			t.Errorf("%s: tendency = %q, want %q", tc.in, p.HistogramTendency, tc.want)
		}
	}
}

func TestTendency_UnmarshalJSONRejectsOtherKinds(t *testing.T) {
	for _, in := range []string{`true`, `[1]`, `{"a":1}`} {
		var tend Tendency
		if err := json.Unmarshal([]byte(in), &tend); err == nil {
			t.Errorf("%s: expected error", in)
		}
	}
}

func TestTendency_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		in   string
		want Tendency
	}{
		{"histogram_tendency: decreasing", TendencyDecreasing},
		{"histogram_tendency: -1", TendencyDecreasing},
		{"histogram_tendency: 0", TendencyNormal},
		{"histogram_tendency: 1", TendencyIncreasing},
		{"histogram_tendency: ~", ""},
		{"baseline_value: 120", ""},
	}
	for _, tc := range tests {
		var p MonitoringParameters
		if err := yaml.Unmarshal([]byte(tc.in), &p); err != nil {
			t.Errorf("%q: unexpected error: %v", tc.in, err)
			continue
		}
		if p.HistogramTendency != tc.want {
			t.Errorf("%q: tendency = %q, want %q", tc.in, p.HistogramTendency, tc.want)
		}
	}

	var p MonitoringParameters
	if err := yaml.Unmarshal([]byte("histogram_tendency: [1, 2]"), &p); err == nil {
		t.Error("expected error for a sequence")
	}
}

func TestTendencyFromCode(t *testing.T) {
	if TendencyFromCode(-0.5) != TendencyDecreasing || TendencyFromCode(2) != TendencyIncreasing || TendencyFromCode(0) != TendencyNormal {
		t.Error("unexpected mapping")
	}
}
