package dymola

import (
	"fmt"
	"strings"

	"github.com/san-kum/mosim/internal/engine"
)

// Log files written by the generated scripts.
const (
	SimulatorLog  = "simulator.log"
	TranslatorLog = "translator.log"
)

// Script file names handed to the tool.
const (
	simulateScript  = "run.mos"
	translateScript = "run_translate.mos"
)

// BuildScript renders the .mos command file Dymola executes. With
// translateOnly the model is only translated; otherwise it is translated
// and simulated with the job's solver settings.
func BuildScript(job *engine.Job, logFile string, translateOnly bool) (string, error) {
	mi, err := engine.ModelInstance(job)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("// File autogenerated by mosim.\n")
	b.WriteString("// Do not edit.\n")
	fmt.Fprintf(&b, "Modelica.Utilities.Files.remove(%q);\n", logFile)
	b.WriteString("openModel(\"package.mo\");\n")
	b.WriteString("OutputCPUtime:=true;\n")

	for _, stmt := range job.PreScript {
		b.WriteString(stmt)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "modelInstance=%q;\n", mi)

	if translateOnly {
		b.WriteString("translateModel(modelInstance);\n")
	} else {
		intervals := ""
		if job.Settings.Intervals > 0 {
			intervals = fmt.Sprintf(", numberOfIntervals=%d", job.Settings.Intervals)
		}
		fmt.Fprintf(&b, "simulateModel(modelInstance, startTime=%g, stopTime=%g, method=%q, tolerance=%g, resultFile=%q%s);\n",
			job.Settings.StartTime,
			job.Settings.StopTime,
			job.Settings.Solver,
			job.Settings.Tolerance,
			job.Settings.ResultFile,
			intervals)
	}

	for _, stmt := range job.PostScript {
		b.WriteString(stmt)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "savelog(%q);\n", logFile)
	if job.ExitAfter {
		b.WriteString("Modelica.Utilities.System.exit();\n")
	}

	return b.String(), nil
}
