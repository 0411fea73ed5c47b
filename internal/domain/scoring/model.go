package scoring

// Tendency values accepted for MonitoringParameters.HistogramTendency.
const (
	TendencyNormal     = "normal"
	TendencyIncreasing = "increasing"
	TendencyDecreasing = "decreasing"
	TendencyStable     = "stable"
)

// MonitoringParameters is one cardiotocography reading as entered by the
// operator. Field names follow the remote prediction API wire format.
type MonitoringParameters struct {
	BaselineValue                                   float64  `json:"baseline_value" yaml:"baseline_value"`
	Accelerations                                   float64  `json:"accelerations" yaml:"accelerations"`
	FetalMovement                                   float64  `json:"fetal_movement" yaml:"fetal_movement"`
	UterineContractions                             float64  `json:"uterine_contractions" yaml:"uterine_contractions"`
	LightDecelerations                              float64  `json:"light_decelerations" yaml:"light_decelerations"`
	SevereDecelerations                             float64  `json:"severe_decelerations" yaml:"severe_decelerations"`
	ProlonguedDecelerations                         float64  `json:"prolongued_decelerations" yaml:"prolongued_decelerations"`
	AbnormalShortTermVariability                    float64  `json:"abnormal_short_term_variability" yaml:"abnormal_short_term_variability"`
	MeanValueOfShortTermVariability                 float64  `json:"mean_value_of_short_term_variability" yaml:"mean_value_of_short_term_variability"`
	PercentageOfTimeWithAbnormalLongTermVariability float64  `json:"percentage_of_time_with_abnormal_long_term_variability" yaml:"percentage_of_time_with_abnormal_long_term_variability"`
	MeanValueOfLongTermVariability                  float64  `json:"mean_value_of_long_term_variability" yaml:"mean_value_of_long_term_variability"`
	HistogramWidth                                  float64  `json:"histogram_width" yaml:"histogram_width"`
	HistogramMin                                    float64  `json:"histogram_min" yaml:"histogram_min"`
	HistogramMax                                    float64  `json:"histogram_max" yaml:"histogram_max"`
	HistogramNumberOfPeaks                          float64  `json:"histogram_number_of_peaks" yaml:"histogram_number_of_peaks"`
	HistogramNumberOfZeroes                         float64  `json:"histogram_number_of_zeroes" yaml:"histogram_number_of_zeroes"`
	HistogramMode                                   float64  `json:"histogram_mode" yaml:"histogram_mode"`
	HistogramMean                                   float64  `json:"histogram_mean" yaml:"histogram_mean"`
	HistogramMedian                                 float64  `json:"histogram_median" yaml:"histogram_median"`
	HistogramVariance                               float64  `json:"histogram_variance" yaml:"histogram_variance"`
	HistogramTendency                               Tendency `json:"histogram_tendency" yaml:"histogram_tendency"`
}

// Status is the display classification attached to a confidence value.
type Status struct {
	Label       string `json:"label"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// Contribution records the points a single rule added to the risk score.
type Contribution struct {
	Rule   string `json:"rule"`
	Points int    `json:"points"`
}

// ScoreResult is the output of the heuristic scoring engine.
type ScoreResult struct {
	// RiskScore is the accumulated rule points before the confidence mapping.
	RiskScore int `json:"risk_score"`

	// Confidence lies in [MinConfidence, MaxConfidence].
	Confidence float64 `json:"confidence"`

	Prediction      Class          `json:"prediction"`
	Status          Status         `json:"status"`
	Recommendations []string       `json:"recommendations"`
	Contributions   []Contribution `json:"contributions,omitempty"`
}
