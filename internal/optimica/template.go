package optimica

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/san-kum/mosim/internal/engine"
)

// driverTemplate renders the Python script handed to jm_ipython.sh. The
// script compiles the model to an FMU and, unless compile-only, loads it
// with PyFMI, applies parameter values and simulates.
var driverTemplate = template.Must(template.New("driver").Parse(`# File autogenerated by mosim.
# Do not edit.
from pymodelica import compile_fmu
{{- if .Simulate}}
from pyfmi import load_fmu
{{- end}}

model = "{{.Model}}"
fmu_name = compile_fmu(model,
                       version="2.0",
                       compiler_log_level="warning")
{{- if .Simulate}}

mod = load_fmu(fmu_name, log_level=4)
{{- range .Parameters}}
mod.set("{{.Name}}", {{.Value}})
{{- end}}
opts = mod.simulate_options()
opts["solver"] = "{{.Solver}}"
opts["ncp"] = {{.Intervals}}
opts["{{.Solver}}_options"]["rtol"] = {{.Tolerance}}
opts["filter"] = [{{range $i, $f := .Filter}}{{if $i}}, {{end}}"{{$f}}"{{end}}]
opts["result_file_name"] = "{{.ResultFile}}.mat"

res = mod.simulate(start_time={{.StartTime}},
                   final_time={{.StopTime}},
                   options=opts)
{{- end}}
`))

type driverParam struct {
	Name  string
	Value string
}

type driverData struct {
	Model      string
	Simulate   bool
	Parameters []driverParam
	Solver     string
	Intervals  int
	Tolerance  float64
	StartTime  float64
	StopTime   float64
	ResultFile string
	Filter     []string
}

// BuildScript renders the Python driver for the job. With compileOnly the
// model is translated to an FMU and nothing is simulated. Parameters are
// applied through PyFMI on the loaded FMU; model modifiers have no
// equivalent here and are rejected.
func BuildScript(job *engine.Job, compileOnly bool) (string, error) {
	if len(job.Modifiers) > 0 {
		return "", fmt.Errorf("%w: model modifiers are not supported by the optimica driver", engine.ErrBadParameter)
	}

	params := make([]driverParam, 0, len(job.Parameters))
	for _, p := range job.Parameters {
		v, err := pythonLiteral(p.Value)
		if err != nil {
			return "", fmt.Errorf("%w: %s (%T)", engine.ErrBadParameter, p.Name, p.Value)
		}
		params = append(params, driverParam{Name: p.Name, Value: v})
	}

	data := driverData{
		Model:      job.Model,
		Simulate:   !compileOnly,
		Parameters: params,
		Solver:     job.Settings.Solver,
		Intervals:  job.Settings.Intervals,
		Tolerance:  job.Settings.Tolerance,
		StartTime:  job.Settings.StartTime,
		StopTime:   job.Settings.StopTime,
		ResultFile: job.Settings.ResultFile,
		Filter:     []string{"*"},
	}

	var b strings.Builder
	if err := driverTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func pythonLiteral(value any) (string, error) {
	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		if v {
			return "True", nil
		}
		return "False", nil
	case string:
		return `"` + v + `"`, nil
	case []float64:
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	default:
		return "", engine.ErrBadParameter
	}
}

// ScriptName returns the driver file name for a model,
// e.g. MyLib_Examples_Pump.py.
func ScriptName(model string) string {
	return strings.ReplaceAll(model, ".", "_") + ".py"
}

// CompileLogName returns the log the JModelica compiler writes for a model.
func CompileLogName(model string) string {
	return strings.ReplaceAll(model, ".", "_") + "_log.txt"
}
