package scoring

// Class is the ordinal prediction class reported by the remote model and
// reproduced by the fallback engine.
type Class int

const (
	ClassHealthy  Class = 1
	ClassRisk     Class = 2
	ClassCritical Class = 3
)

// Confidence thresholds. Both bounds are inclusive: a confidence equal to
// ThresholdCritical is critical, one equal to ThresholdRisk is risk.
const (
	ThresholdCritical = 55.0
	ThresholdRisk     = 63.0
)

// Severity tags used by the rendering surface.
const (
	SeveritySuccess = "success"
	SeverityWarning = "warning"
	SeverityDanger  = "danger"
)

// Classification bundles everything derived from a confidence value.
type Classification struct {
	Class           Class    `json:"prediction"`
	Status          Status   `json:"status"`
	Recommendations []string `json:"recommendations"`
}

var statuses = map[Class]Status{
	ClassHealthy: {
		Label:       "Saudável",
		Severity:    SeveritySuccess,
		Description: "Feto saudável - parâmetros dentro da normalidade",
	},
	ClassRisk: {
		Label:       "Risco",
		Severity:    SeverityWarning,
		Description: "Situação de risco que necessita acompanhamento médico próximo",
	},
	ClassCritical: {
		Label:       "Risco Crítico",
		Severity:    SeverityDanger,
		Description: "Situação crítica que requer intervenção médica imediata",
	},
}

var recommendations = map[Class][]string{
	ClassHealthy: {
		"Continue o monitoramento de rotina",
		"Mantenha consultas pré-natais regulares",
		"Acompanhe os movimentos fetais diariamente",
		"Mantenha estilo de vida saudável",
	},
	ClassRisk: {
		"Aumente a frequência do monitoramento",
		"Considere realizar cardiotocografia adicional",
		"Agende consulta médica em 24-48 horas",
		"Monitore movimentos fetais de perto",
	},
	ClassCritical: {
		"URGENTE: Contate médico imediatamente",
		"Considere internação hospitalar",
		"Monitoramento contínuo necessário",
		"Avalie necessidade de parto de emergência",
	},
}

// ClassFromConfidence maps a confidence value to its prediction class.
func ClassFromConfidence(confidence float64) Class {
	switch {
	case confidence <= ThresholdCritical:
		return ClassCritical
	case confidence <= ThresholdRisk:
		return ClassRisk
	default:
		return ClassHealthy
	}
}

// Classify returns the class, status and recommendations for a confidence.
// It is used for fallback results and to re-classify remote results so both
// paths display identically.
func Classify(confidence float64) Classification {
	class := ClassFromConfidence(confidence)
	return Classification{
		Class:           class,
		Status:          class.Status(),
		Recommendations: class.Recommendations(),
	}
}

// Status returns the fixed status for c. Unknown classes map to healthy.
func (c Class) Status() Status {
	if s, ok := statuses[c]; ok {
		return s
	}
	return statuses[ClassHealthy]
}

// Recommendations returns a copy of the fixed recommendation list for c.
func (c Class) Recommendations() []string {
	recs, ok := recommendations[c]
	if !ok {
		recs = recommendations[ClassHealthy]
	}
	out := make([]string, len(recs))
	copy(out, recs)
	return out
}

// Valid reports whether c is one of the three known classes.
func (c Class) Valid() bool {
	return c == ClassHealthy || c == ClassRisk || c == ClassCritical
}

func (c Class) String() string {
	switch c {
	case ClassHealthy:
		return "healthy"
	case ClassRisk:
		return "risk"
	case ClassCritical:
		return "critical"
	default:
		return "unknown"
	}
}
