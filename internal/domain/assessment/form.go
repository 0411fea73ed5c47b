package assessment

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fetalcare/fetalcare/internal/domain/scoring"
	"github.com/fetalcare/fetalcare/internal/platform/fetalapi"
)

// requiredMonitoring lists the monitoring fields that must be filled, with
// the label shown when one is missing.
var requiredMonitoring = []struct {
	field string
	label string
}{
	{"baseline_value", "Linha de Base FCF (bpm)"},
	{"accelerations", "Acelerações"},
	{"fetal_movement", "Movimento Fetal"},
	{"mean_value_of_short_term_variability", "Variabilidade de Curto Prazo (média)"},
	{"mean_value_of_long_term_variability", "Variabilidade de Longo Prazo (média)"},
}

// ParsePatient validates the patient form. Name, identifier and gestational
// age are required; a missing CPF becomes the placeholder; age is optional.
func ParsePatient(f PatientForm, now time.Time) (Patient, error) {
	name := strings.TrimSpace(f.Name)
	id := strings.TrimSpace(f.ID)
	ga := strings.TrimSpace(f.GestationalAge)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if id == "" {
		missing = append(missing, "id")
	}
	if ga == "" {
		missing = append(missing, "gestational_age")
	}
	if len(missing) > 0 {
		return Patient{}, &ValidationError{
			Fields:  missing,
			Message: "Preencha todos os campos obrigatórios da gestante",
		}
	}

	gaWeeks, ok := leadingInt(ga)
	if !ok || gaWeeks <= 0 {
		return Patient{}, &ValidationError{
			Fields:  []string{"gestational_age"},
			Message: "Idade gestacional inválida",
		}
	}

	cpf := strings.TrimSpace(f.CPF)
	if cpf == "" {
		cpf = fetalapi.UnknownCPF
	}
	age, _ := leadingInt(strings.TrimSpace(f.Age))

	return Patient{
		Name:           name,
		ID:             id,
		CPF:            cpf,
		GestationalAge: gaWeeks,
		Age:            age,
		RegisteredAt:   now.UTC(),
	}, nil
}

// ParseMonitoring validates the monitoring form. The required fields must be
// non-blank; every numeric field is read as a leading decimal number and
// falls back to 0; the tendency falls back to "normal".
func ParseMonitoring(f MonitoringForm) (scoring.MonitoringParameters, error) {
	for _, r := range requiredMonitoring {
		if strings.TrimSpace(f[r.field]) == "" {
			return scoring.MonitoringParameters{}, &ValidationError{
				Fields:  []string{r.field},
				Message: "Campo obrigatório não preenchido: " + r.label,
			}
		}
	}

	num := func(field string) float64 { return leadingFloat(f[field]) }
	p := scoring.MonitoringParameters{
		BaselineValue:                   num("baseline_value"),
		Accelerations:                   num("accelerations"),
		FetalMovement:                   num("fetal_movement"),
		UterineContractions:             num("uterine_contractions"),
		LightDecelerations:              num("light_decelerations"),
		SevereDecelerations:             num("severe_decelerations"),
		ProlonguedDecelerations:         num("prolongued_decelerations"),
		AbnormalShortTermVariability:    num("abnormal_short_term_variability"),
		MeanValueOfShortTermVariability: num("mean_value_of_short_term_variability"),
		PercentageOfTimeWithAbnormalLongTermVariability: num("percentage_of_time_with_abnormal_long_term_variability"),
		MeanValueOfLongTermVariability:                  num("mean_value_of_long_term_variability"),
		HistogramWidth:                                  num("histogram_width"),
		HistogramMin:                                    num("histogram_min"),
		HistogramMax:                                    num("histogram_max"),
		HistogramNumberOfPeaks:                          num("histogram_number_of_peaks"),
		HistogramNumberOfZeroes:                         num("histogram_number_of_zeroes"),
		HistogramMode:                                   num("histogram_mode"),
		HistogramMean:                                   num("histogram_mean"),
		HistogramMedian:                                 num("histogram_median"),
		HistogramVariance:                               num("histogram_variance"),
		HistogramTendency:                               scoring.Tendency(strings.TrimSpace(f["histogram_tendency"])),
	}
	if p.HistogramTendency == "" {
		p.HistogramTendency = scoring.TendencyNormal
	}
	return p, nil
}

// Defaults returns the typical reading loaded by "carregar valores padrão".
func Defaults() scoring.MonitoringParameters {
	return scoring.MonitoringParameters{
		BaselineValue:                   140,
		Accelerations:                   2,
		FetalMovement:                   3,
		AbnormalShortTermVariability:    20,
		MeanValueOfShortTermVariability: 1.5,
		PercentageOfTimeWithAbnormalLongTermVariability: 10,
		MeanValueOfLongTermVariability:                  8.5,
		HistogramWidth:                                  150,
		HistogramMin:                                    110,
		HistogramMax:                                    160,
		HistogramNumberOfPeaks:                          3,
		HistogramMode:                                   140,
		HistogramMean:                                   142,
		HistogramMedian:                                 141,
		HistogramVariance:                               25,
		HistogramTendency:                               scoring.TendencyNormal,
	}
}

// FormFromParameters renders parameters back into form text, the inverse of
// ParseMonitoring for well-formed input.
func FormFromParameters(p scoring.MonitoringParameters) MonitoringForm {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return MonitoringForm{
		"baseline_value":                       f(p.BaselineValue),
		"accelerations":                        f(p.Accelerations),
		"fetal_movement":                       f(p.FetalMovement),
		"uterine_contractions":                 f(p.UterineContractions),
		"light_decelerations":                  f(p.LightDecelerations),
		"severe_decelerations":                 f(p.SevereDecelerations),
		"prolongued_decelerations":             f(p.ProlonguedDecelerations),
		"abnormal_short_term_variability":      f(p.AbnormalShortTermVariability),
		"mean_value_of_short_term_variability": f(p.MeanValueOfShortTermVariability),
		"percentage_of_time_with_abnormal_long_term_variability": f(p.PercentageOfTimeWithAbnormalLongTermVariability),
		"mean_value_of_long_term_variability":                    f(p.MeanValueOfLongTermVariability),
		"histogram_width":                                        f(p.HistogramWidth),
		"histogram_min":                                          f(p.HistogramMin),
		"histogram_max":                                          f(p.HistogramMax),
		"histogram_number_of_peaks":                              f(p.HistogramNumberOfPeaks),
		"histogram_number_of_zeroes":                             f(p.HistogramNumberOfZeroes),
		"histogram_mode":                                         f(p.HistogramMode),
		"histogram_mean":                                         f(p.HistogramMean),
		"histogram_median":                                       f(p.HistogramMedian),
		"histogram_variance":                                     f(p.HistogramVariance),
		"histogram_tendency":                                     string(p.HistogramTendency),
	}
}

// leadingFloat parses the longest numeric prefix of s, returning 0 when
// there is none.
func leadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && isDigit(s[end]) {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		if exp < len(s) && isDigit(s[exp]) {
			for exp < len(s) && isDigit(s[exp]) {
				exp++
			}
			end = exp
		}
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// leadingInt parses the leading decimal integer of s.
func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
