package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/mosim/internal/config"
	"github.com/san-kum/mosim/internal/engine"
	"github.com/san-kum/mosim/internal/logscan"
	"github.com/san-kum/mosim/internal/registry"
	"github.com/san-kum/mosim/internal/reporter"
	"github.com/san-kum/mosim/internal/scenario"
	"github.com/san-kum/mosim/internal/store"
	"github.com/san-kum/mosim/internal/watch"
	"github.com/san-kum/mosim/internal/workdir"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	engineName  string
	packagePath string
	outputDir   string
	startTime   float64
	stopTime    float64
	tolerance   float64
	solver      string
	intervals   int
	resultFile  string
	timeoutSec  float64
	params      []string
	modifiers   []string
	keepWork    bool
	showGUI     bool
	// Config file
	configFile string
	// Preset name
	preset string
	// Sweep range
	sweepMin     float64
	sweepMax     float64
	sweepPoints  int
	sweepWorkers int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mosim",
		Short: "drive Modelica simulation tools",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".mosim", "run catalog directory")

	simulateCmd := &cobra.Command{
		Use:   "simulate [model]",
		Short: "translate and simulate a model",
		Args:  cobra.ExactArgs(1),
		RunE:  simulateModel,
	}
	addJobFlags(simulateCmd)

	translateCmd := &cobra.Command{
		Use:   "translate [model]",
		Short: "translate a model without simulating",
		Args:  cobra.ExactArgs(1),
		RunE:  translateModel,
	}
	addJobFlags(translateCmd)

	scriptCmd := &cobra.Command{
		Use:   "script [model]",
		Short: "print the tool script a simulation would run",
		Args:  cobra.ExactArgs(1),
		RunE:  printScript,
	}
	addJobFlags(scriptCmd)

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted sequence of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [model] [parameter]",
		Short: "simulate a model across a parameter range",
		Args:  cobra.ExactArgs(2),
		RunE:  runSweep,
	}
	addJobFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "lowest parameter value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "highest parameter value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 5, "number of sweep points")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 1, "concurrent simulations")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	historyCmd := &cobra.Command{
		Use:   "history [model]",
		Short: "plot elapsed time across recorded runs of a model",
		Args:  cobra.ExactArgs(1),
		RunE:  plotHistory,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [engine]",
		Short: "list available presets for an engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for engine: %s\n", args[0])
				return nil
			}
			sort.Strings(presets)
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	enginesCmd := &cobra.Command{
		Use:   "engines",
		Short: "list supported simulation engines",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range registry.New().List() {
				fmt.Println(name)
			}
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch [logfile]",
		Short: "follow a simulator log with highlighted diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch.Run(args[0], dialectFor(engineName))
		},
	}
	watchCmd.Flags().StringVar(&engineName, "engine", config.DefaultEngine, "engine whose log format to expect")

	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "remove leftover temporary working directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := workdir.RemoveStale()
			for _, dir := range removed {
				fmt.Printf("removed %s\n", dir)
			}
			if len(removed) == 0 && err == nil {
				fmt.Println("nothing to remove")
			}
			return err
		},
	}

	rootCmd.AddCommand(simulateCmd, translateCmd, scriptCmd, batchCmd, sweepCmd, listCmd, showCmd, historyCmd, presetsCmd, enginesCmd, watchCmd, cleanCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addJobFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&engineName, "engine", config.DefaultEngine, "simulation engine")
	cmd.Flags().StringVar(&packagePath, "package", config.DefaultPackage, "path to the Modelica package directory")
	cmd.Flags().StringVar(&outputDir, "output", config.DefaultOutput, "directory for simulation outputs")
	cmd.Flags().Float64Var(&startTime, "start", 0, "simulation start time in seconds")
	cmd.Flags().Float64Var(&stopTime, "stop", config.DefaultStopTime, "simulation stop time in seconds")
	cmd.Flags().Float64Var(&tolerance, "tolerance", config.DefaultTolerance, "solver tolerance")
	cmd.Flags().StringVar(&solver, "solver", "", "solver method (engine default when empty)")
	cmd.Flags().IntVar(&intervals, "intervals", 0, "number of output intervals")
	cmd.Flags().StringVar(&resultFile, "result", "", "result file base name")
	cmd.Flags().Float64Var(&timeoutSec, "timeout", 0, "kill the tool after this many seconds (0 = never)")
	cmd.Flags().StringArrayVar(&params, "param", nil, "parameter assignment name=value (repeatable)")
	cmd.Flags().StringArrayVar(&modifiers, "modifier", nil, "raw Modelica modifier (repeatable)")
	cmd.Flags().BoolVar(&keepWork, "keep", false, "keep the temporary working directory")
	cmd.Flags().BoolVar(&showGUI, "gui", false, "run the tool with its window visible")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// loadConfig layers preset, config file, and CLI flags for one model.
// Flags the user set override the file; the file overrides the preset.
func loadConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(engineName, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(engineName))
		}
		cfg.Engine = p.Engine
		cfg.Settings = p.Settings
	}

	if configFile != "" {
		// The file is read over the preset-seeded config, so every preset
		// setting survives unless the file overrides it.
		fileCfg, err := config.LoadInto(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = fileCfg
	}

	cfg.Model = model
	if cmd.Flags().Changed("engine") {
		cfg.Engine = engineName
	}
	if cmd.Flags().Changed("package") {
		cfg.Package = packagePath
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = outputDir
	}
	if cmd.Flags().Changed("start") {
		cfg.Settings.StartTime = startTime
	}
	if cmd.Flags().Changed("stop") {
		cfg.Settings.StopTime = stopTime
	}
	if cmd.Flags().Changed("tolerance") {
		cfg.Settings.Tolerance = tolerance
	}
	if cmd.Flags().Changed("solver") {
		cfg.Settings.Solver = solver
	}
	if cmd.Flags().Changed("intervals") {
		cfg.Settings.Intervals = intervals
	}
	if cmd.Flags().Changed("result") {
		cfg.Settings.ResultFile = resultFile
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Settings.TimeoutSec = timeoutSec
	}
	if cmd.Flags().Changed("keep") {
		cfg.KeepWorkDir = keepWork
	}

	return cfg, nil
}

// buildJob converts the layered configuration into a job and applies the
// flag-only extras.
func buildJob(cmd *cobra.Command, model string) (*engine.Job, *config.Config, error) {
	cfg, err := loadConfig(cmd, model)
	if err != nil {
		return nil, nil, err
	}

	job := cfg.Job()
	job.ShowGUI = showGUI

	for _, p := range params {
		name, value, err := parseParam(p)
		if err != nil {
			return nil, nil, err
		}
		job.AddParameter(name, value)
	}
	job.Modifiers = append(job.Modifiers, modifiers...)

	return job, cfg, nil
}

// parseParam splits name=value and narrows the value to a number or bool
// where it parses as one. Everything else stays a string.
func parseParam(s string) (string, any, error) {
	name, raw, found := strings.Cut(s, "=")
	if !found || name == "" {
		return "", nil, fmt.Errorf("%w: %q (want name=value)", engine.ErrBadParameter, s)
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return name, v, nil
	}
	if v, err := strconv.ParseBool(raw); err == nil {
		return name, v, nil
	}
	return name, raw, nil
}

func simulateModel(cmd *cobra.Command, args []string) error {
	job, cfg, err := buildJob(cmd, args[0])
	if err != nil {
		return err
	}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	rep, err := reporter.New(cfg.Output)
	if err != nil {
		return err
	}
	defer rep.Close()

	eng, err := registry.New().Get(cfg.Engine, rep)
	if err != nil {
		return err
	}

	fmt.Printf("simulating %s with %s...\n", job.Model, eng.Name())

	run, runErr := eng.Simulate(context.Background(), job)
	if run != nil {
		status := store.StatusOK
		if runErr != nil {
			status = store.StatusFailed
		}
		if _, err := st.Save(run, job.Settings, status, cfg.Output); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Printf("completed in %v\n", run.Elapsed)
	fmt.Printf("run id: %s\n", run.ID)
	fmt.Printf("outputs: %d files in %s\n", len(run.Outputs), cfg.Output)
	if len(run.Warnings) > 0 {
		fmt.Printf("warnings: %d (see %s)\n", len(run.Warnings), rep.Path())
	}
	if run.WorkDir != "" {
		fmt.Printf("working directory kept at %s\n", run.WorkDir)
	}

	return nil
}

func translateModel(cmd *cobra.Command, args []string) error {
	job, cfg, err := buildJob(cmd, args[0])
	if err != nil {
		return err
	}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	rep, err := reporter.New(cfg.Output)
	if err != nil {
		return err
	}
	defer rep.Close()

	eng, err := registry.New().Get(cfg.Engine, rep)
	if err != nil {
		return err
	}

	fmt.Printf("translating %s with %s...\n", job.Model, eng.Name())

	run, runErr := eng.Translate(context.Background(), job)
	if run != nil {
		status := store.StatusOK
		if runErr != nil {
			status = store.StatusFailed
		}
		if _, err := st.Save(run, job.Settings, status, cfg.Output); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Printf("completed in %v\n", run.Elapsed)
	fmt.Printf("run id: %s\n", run.ID)
	fmt.Printf("translation outputs in %s\n", run.WorkDir)

	return nil
}

func printScript(cmd *cobra.Command, args []string) error {
	job, cfg, err := buildJob(cmd, args[0])
	if err != nil {
		return err
	}

	eng, err := registry.New().Get(cfg.Engine, reporter.NewNop())
	if err != nil {
		return err
	}

	script, err := eng.Script(job)
	if err != nil {
		return err
	}
	fmt.Print(script)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	rep, err := reporter.New(".")
	if err != nil {
		return err
	}
	defer rep.Close()

	if sc.Name != "" {
		fmt.Printf("scenario: %s\n", sc.Name)
	}

	results, runErr := scenario.Run(context.Background(), sc, registry.New(), rep)

	completed := 0
	for _, res := range results {
		if res.Err == nil {
			completed++
		}
		if res.Run == nil {
			continue
		}
		status := store.StatusOK
		if res.Err != nil {
			status = store.StatusFailed
		}
		if _, err := st.Save(res.Run, res.Job.Settings, status, res.Job.OutputDir); err != nil {
			return err
		}
	}

	fmt.Printf("%d of %d steps completed\n", completed, len(sc.Steps))
	return runErr
}

func runSweep(cmd *cobra.Command, args []string) error {
	job, cfg, err := buildJob(cmd, args[0])
	if err != nil {
		return err
	}

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	rep, err := reporter.New(cfg.Output)
	if err != nil {
		return err
	}
	defer rep.Close()

	eng, err := registry.New().Get(cfg.Engine, rep)
	if err != nil {
		return err
	}

	sweep := &scenario.Sweep{
		Base:      job,
		Parameter: args[1],
		Min:       sweepMin,
		Max:       sweepMax,
		Points:    sweepPoints,
		Workers:   sweepWorkers,
	}

	fmt.Printf("sweeping %s over %s in [%g, %g] (%d points)...\n",
		job.Model, args[1], sweepMin, sweepMax, sweepPoints)

	points, runErr := sweep.Run(context.Background(), eng)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POINT\tVALUE\tSTATUS\tELAPSED")
	for _, p := range points {
		status := "-"
		elapsed := "-"
		if p.Run != nil {
			status = store.StatusOK
			if p.Err != nil {
				status = store.StatusFailed
			}
			elapsed = p.Run.Elapsed.String()
			if _, err := st.Save(p.Run, job.Settings, status, cfg.Output); err != nil {
				return err
			}
		} else if p.Err != nil {
			status = store.StatusFailed
		}
		fmt.Fprintf(w, "%d\t%g\t%s\t%s\n", p.Index, p.Value, status, elapsed)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	return runErr
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tENGINE\tMODEL\tTIME\tSTOP\tSOLVER\tSTATUS\tELAPSED\tWARN")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0fs\t%s\t%s\t%.2fs\t%d\n",
			run.ID,
			run.Engine,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.StopTime,
			run.Solver,
			run.Status,
			run.ElapsedSec,
			run.Warnings,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func plotHistory(cmd *cobra.Command, args []string) error {
	model := args[0]

	st := store.New(dataDir)
	runs, err := st.ListModel(model)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return fmt.Errorf("no runs recorded for model: %s", model)
	}

	data := make([]float64, len(runs))
	failures := 0
	for i, run := range runs {
		data[i] = run.ElapsedSec
		if run.Status == store.StatusFailed {
			failures++
		}
	}

	fmt.Printf("model: %s\n", model)
	fmt.Printf("runs: %d (%d failed)\n\n", len(runs), failures)

	if len(data) > 1 {
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("elapsed seconds per run (oldest first)"),
		)
		fmt.Println(graph)
	} else {
		fmt.Printf("elapsed: %.2fs\n", data[0])
	}

	return nil
}

func dialectFor(name string) logscan.Dialect {
	if name == "optimica" {
		return logscan.Optimica
	}
	return logscan.Dymola
}
