package scoring

import "math"

// Bounds of the confidence scale produced by the engine.
const (
	MinConfidence = 30.0
	MaxConfidence = 94.0
)

// Risk score breakpoints used by the confidence mapping.
const (
	riskHigh     = 60
	riskModerate = 30
)

// tier is one severity level of a rule. Tiers of a rule are evaluated in
// order and only the first match contributes.
type tier struct {
	points int
	match  func(p MonitoringParameters) bool
}

type rule struct {
	name  string
	tiers []tier
}

var rules = []rule{
	{
		name: "baseline_value",
		tiers: []tier{
			{30, func(p MonitoringParameters) bool { return p.BaselineValue < 110 || p.BaselineValue > 160 }},
			{15, func(p MonitoringParameters) bool { return p.BaselineValue < 120 || p.BaselineValue > 150 }},
		},
	},
	{
		name: "accelerations",
		tiers: []tier{
			{20, func(p MonitoringParameters) bool { return p.Accelerations == 0 }},
			{10, func(p MonitoringParameters) bool { return p.Accelerations < 2 }},
		},
	},
	{
		name: "fetal_movement",
		tiers: []tier{
			{25, func(p MonitoringParameters) bool { return p.FetalMovement == 0 }},
			{15, func(p MonitoringParameters) bool { return p.FetalMovement < 2 }},
		},
	},
	{
		name:  "severe_decelerations",
		tiers: []tier{{35, func(p MonitoringParameters) bool { return p.SevereDecelerations > 0 }}},
	},
	{
		name:  "prolongued_decelerations",
		tiers: []tier{{30, func(p MonitoringParameters) bool { return p.ProlonguedDecelerations > 0 }}},
	},
	{
		name:  "light_decelerations",
		tiers: []tier{{15, func(p MonitoringParameters) bool { return p.LightDecelerations > 2 }}},
	},
	{
		name:  "uterine_contractions",
		tiers: []tier{{10, func(p MonitoringParameters) bool { return p.UterineContractions > 3 }}},
	},
	{
		name:  "abnormal_short_term_variability",
		tiers: []tier{{20, func(p MonitoringParameters) bool { return p.AbnormalShortTermVariability > 50 }}},
	},
	{
		name:  "mean_value_of_short_term_variability",
		tiers: []tier{{15, func(p MonitoringParameters) bool { return p.MeanValueOfShortTermVariability < 1.0 }}},
	},
}

// Evaluate runs every rule against p and returns the accumulated risk score
// together with the non-zero contributions in rule order.
func Evaluate(p MonitoringParameters) (int, []Contribution) {
	total := 0
	var contribs []Contribution
	for _, r := range rules {
		for _, t := range r.tiers {
			if t.match(p) {
				total += t.points
				contribs = append(contribs, Contribution{Rule: r.name, Points: t.points})
				break
			}
		}
	}
	return total, contribs
}

// ConfidenceFromRisk maps a risk score onto the confidence scale:
//
//	risk >= 60       : 55 - (risk-60)*0.5, floored at 30
//	30 <= risk < 60  : 56 + 7*(1 - (risk-30)/30)
//	risk < 30        : 64 + 30*(1 - risk/30)
//
// The result is always clamped to [MinConfidence, MaxConfidence].
func ConfidenceFromRisk(risk int) float64 {
	r := float64(risk)
	var confidence float64
	switch {
	case risk >= riskHigh:
		confidence = math.Max(MinConfidence, 55-(r-riskHigh)*0.5)
	case risk >= riskModerate:
		confidence = 56 + (63-56)*(1-(r-riskModerate)/30)
	default:
		confidence = 64 + (MaxConfidence-64)*(1-r/30)
	}
	return clamp(confidence, MinConfidence, MaxConfidence)
}

// Score is the offline fallback used when the remote prediction service is
// unreachable. It never fails: out-of-domain inputs still land in range.
func Score(p MonitoringParameters) ScoreResult {
	risk, contribs := Evaluate(p)
	confidence := ConfidenceFromRisk(risk)
	c := Classify(confidence)
	return ScoreResult{
		RiskScore:       risk,
		Confidence:      confidence,
		Prediction:      c.Class,
		Status:          c.Status,
		Recommendations: c.Recommendations,
		Contributions:   contribs,
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
