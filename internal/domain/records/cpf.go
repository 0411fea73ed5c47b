package records

import (
	"strings"

	"github.com/fetalcare/fetalcare/internal/platform/fetalapi"
)

// MinCPFDigits is the shortest CPF fragment installed as a filter.
const MinCPFDigits = 3

// UnknownCPF is the placeholder stored when a patient has no CPF.
const UnknownCPF = fetalapi.UnknownCPF

// NormalizeCPF strips every non-digit character.
func NormalizeCPF(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CPFFilter returns the filter value for raw operator input, or "" when
// fewer than MinCPFDigits digits remain after normalization.
func CPFFilter(raw string) string {
	d := NormalizeCPF(raw)
	if len(d) < MinCPFDigits {
		return ""
	}
	return d
}

// FormatCPF renders a CPF for display. Missing and placeholder values read
// "Não informado"; eleven digits become 000.000.000-00; anything else is
// returned untouched.
func FormatCPF(cpf string) string {
	if cpf == "" || cpf == UnknownCPF {
		return "Não informado"
	}
	d := NormalizeCPF(cpf)
	if len(d) != 11 {
		return cpf
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}
