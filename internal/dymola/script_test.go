package dymola

import (
	"strings"
	"testing"

	"github.com/san-kum/mosim/internal/engine"
)

func testJob() *engine.Job {
	job := engine.NewJob("MyLib.Examples.Pump", ".")
	job.Settings.Solver = "radau"
	return job
}

func TestBuildScriptSimulate(t *testing.T) {
	job := testJob()
	job.Settings.StopTime = 86400
	job.AddParameter("PID.k", 1.0)

	script, err := BuildScript(job, SimulatorLog, false)
	if err != nil {
		t.Fatalf("build script: %v", err)
	}

	for _, want := range []string{
		`Modelica.Utilities.Files.remove("simulator.log");`,
		`openModel("package.mo");`,
		"OutputCPUtime:=true;",
		`modelInstance="MyLib.Examples.Pump(PID.k=1)";`,
		`simulateModel(modelInstance, startTime=0, stopTime=86400, method="radau", tolerance=1e-06, resultFile="Pump");`,
		`savelog("simulator.log");`,
		"Modelica.Utilities.System.exit();",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q\nscript:\n%s", want, script)
		}
	}
}

func TestBuildScriptTranslate(t *testing.T) {
	script, err := BuildScript(testJob(), TranslatorLog, true)
	if err != nil {
		t.Fatalf("build script: %v", err)
	}

	if !strings.Contains(script, "translateModel(modelInstance);") {
		t.Error("translate script should call translateModel")
	}
	if strings.Contains(script, "simulateModel") {
		t.Error("translate script should not call simulateModel")
	}
	if !strings.Contains(script, `savelog("translator.log");`) {
		t.Error("translate script should save translator.log")
	}
}

func TestBuildScriptIntervals(t *testing.T) {
	job := testJob()
	job.Settings.Intervals = 500

	script, err := BuildScript(job, SimulatorLog, false)
	if err != nil {
		t.Fatalf("build script: %v", err)
	}
	if !strings.Contains(script, ", numberOfIntervals=500);") {
		t.Errorf("script missing interval count:\n%s", script)
	}
}

func TestBuildScriptPrePostStatements(t *testing.T) {
	job := testJob()
	job.PreScript = append(job.PreScript, "Advanced.StoreProtectedVariables:= true;")
	job.PostScript = append(job.PostScript, "plot({\"PID.y\"});")

	script, err := BuildScript(job, SimulatorLog, false)
	if err != nil {
		t.Fatalf("build script: %v", err)
	}

	pre := strings.Index(script, "Advanced.StoreProtectedVariables")
	sim := strings.Index(script, "simulateModel")
	post := strings.Index(script, "plot(")
	save := strings.Index(script, "savelog")

	if pre == -1 || sim == -1 || post == -1 || save == -1 {
		t.Fatalf("script missing sections:\n%s", script)
	}
	if !(pre < sim && sim < post && post < save) {
		t.Errorf("statements out of order:\n%s", script)
	}
}

func TestBuildScriptNoExit(t *testing.T) {
	job := testJob()
	job.ExitAfter = false

	script, err := BuildScript(job, SimulatorLog, false)
	if err != nil {
		t.Fatalf("build script: %v", err)
	}
	if strings.Contains(script, "Modelica.Utilities.System.exit()") {
		t.Error("script should not exit the tool when ExitAfter is off")
	}
}
