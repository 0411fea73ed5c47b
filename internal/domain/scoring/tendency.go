package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Tendency is the histogram_tendency of a reading. Stored exams may carry it
// as the numeric model code (-1, 0, 1) instead of a name, or not at all.
type Tendency string

// TendencyFromCode maps the numeric model code to its name: negative is
// decreasing, positive is increasing, zero is normal.
func TendencyFromCode(code float64) Tendency {
	switch {
	case code < 0:
		return TendencyDecreasing
	case code > 0:
		return TendencyIncreasing
	default:
		return TendencyNormal
	}
}

// UnmarshalJSON accepts a string, a number or null.
func (t *Tendency) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Tendency(s)
		return nil
	}
	var code float64
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("scoring: histogram_tendency: %w", err)
	}
	*t = TendencyFromCode(code)
	return nil
}

// UnmarshalYAML applies the same rules to YAML scalars.
func (t *Tendency) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("scoring: histogram_tendency: line %d: expected a scalar", n.Line)
	}
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!int", "!!float":
		code, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return fmt.Errorf("scoring: histogram_tendency: line %d: %w", n.Line, err)
		}
		*t = TendencyFromCode(code)
	default:
		*t = Tendency(n.Value)
	}
	return nil
}
