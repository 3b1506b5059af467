package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Parameter is one parameter assignment on the model instance. Order is
// preserved so generated scripts are stable.
type Parameter struct {
	Name  string
	Value any
}

// Modelica renders the assignment as a Modelica literal, e.g.
// "PID.k=10", "valve.name=\"v1\"" or "const.k={1,2,3}".
func (p Parameter) Modelica() (string, error) {
	v, err := literal(p.Value)
	if err != nil {
		return "", fmt.Errorf("%w: %s (%T)", ErrBadParameter, p.Name, p.Value)
	}
	return p.Name + "=" + v, nil
}

func literal(value any) (string, error) {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	case string:
		return `"` + v + `"`, nil
	case []float64:
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		return "{" + strings.Join(parts, ",") + "}", nil
	case []int:
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = strconv.Itoa(x)
		}
		return "{" + strings.Join(parts, ",") + "}", nil
	case [][]float64:
		rows := make([]string, len(v))
		for i, row := range v {
			r, err := literal(row)
			if err != nil {
				return "", err
			}
			rows[i] = r
		}
		return "[" + strings.Join(rows, ";") + "]", nil
	case []any:
		parts := make([]string, len(v))
		for i, x := range v {
			s, err := literal(x)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "{" + strings.Join(parts, ",") + "}", nil
	default:
		return "", ErrBadParameter
	}
}

// ModelInstance builds the instance expression handed to the tool: the model
// name decorated with parameter assignments and modifiers, e.g.
// "MyLib.Pump(m_flow=0.1,redeclare package Medium = MyLib.Media.Air)".
// A model without decorations stays a bare name.
func ModelInstance(job *Job) (string, error) {
	dec := make([]string, 0, len(job.Parameters)+len(job.Modifiers))
	for _, p := range job.Parameters {
		s, err := p.Modelica()
		if err != nil {
			return "", err
		}
		dec = append(dec, s)
	}
	dec = append(dec, job.Modifiers...)

	if len(dec) == 0 {
		return job.Model, nil
	}
	return job.Model + "(" + strings.Join(dec, ",") + ")", nil
}
