package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/go-logr/logr"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/contactdyn/internal/config"
	"github.com/san-kum/contactdyn/internal/experiment"
	"github.com/san-kum/contactdyn/internal/linalg"
	"github.com/san-kum/contactdyn/internal/logging"
	"github.com/san-kum/contactdyn/internal/metrics"
	"github.com/san-kum/contactdyn/internal/models"
	"github.com/san-kum/contactdyn/internal/report"
	"github.com/san-kum/contactdyn/internal/storage"
	"github.com/spf13/cobra"
)

var (
	dataDir     string
	verbosity   int
	configFile  string
	preset      string
	method      string
	solver      string
	restitution float64
	repeat      int
	benchRepeat int
	save        bool
	output      string
)

var accelerationMethods = []string{"lagrangian", "compliance", "list"}

func main() {
	rootCmd := &cobra.Command{
		Use:           "contactdyn",
		Short:         "contact-constrained rigid-body dynamics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".contactdyn", "data directory")
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbosity", "v", 0, "log verbosity (2 default, 3 verbose, 4 debug, 5 trace)")

	solveCmd := &cobra.Command{
		Use:   "solve [model]",
		Short: "solve constrained forward dynamics for a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  solveScenario,
	}
	scenarioFlags(solveCmd)
	solveCmd.Flags().StringVar(&method, "method", config.DefaultMethod, "solver method")
	solveCmd.Flags().IntVar(&repeat, "repeat", config.DefaultRepeat, "number of solves")
	solveCmd.Flags().BoolVar(&save, "save", true, "store the run")

	impulseCmd := &cobra.Command{
		Use:   "impulse [model]",
		Short: "resolve a collision into post-impact velocities and impulses",
		Args:  cobra.MaximumNArgs(1),
		RunE:  solveImpulse,
	}
	scenarioFlags(impulseCmd)
	impulseCmd.Flags().Float64Var(&restitution, "restitution", 0, "coefficient of restitution")
	impulseCmd.Flags().BoolVar(&save, "save", true, "store the run")

	compareCmd := &cobra.Command{
		Use:   "compare [model] [methods...]",
		Short: "solve a scenario with several methods",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareMethods,
	}
	scenarioFlags(compareCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [model]",
		Short: "time the solver methods on a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchMethods,
	}
	scenarioFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchRepeat, "repeat", 200, "solves per method")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "solve every preset concurrently",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepPresets,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list built-in scenarios",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [model] [preset]",
		Short: "write a preset as a scenario file",
		Args:  cobra.ExactArgs(2),
		RunE:  writePreset,
	}
	initCmd.Flags().StringVarP(&output, "output", "o", "scenario.yaml", "output path")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	rootCmd.AddCommand(solveCmd, impulseCmd, compareCmd, benchCmd, sweepCmd, presetsCmd, initCmd, listCmd, showCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, report.StatusFail.Render("error: ")+err.Error())
		stop()
		os.Exit(1)
	}
}

func scenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use a built-in scenario")
	cmd.Flags().StringVar(&solver, "solver", linalg.PartialPivLU.String(), "linear solver (lu, qr)")
}

func newLogger() (logr.Logger, error) {
	if verbosity <= 0 {
		return logging.Discard(), nil
	}
	return logging.New(verbosity)
}

// loadConfig resolves preset, then config file, then explicit flags.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	model := ""
	if len(args) > 0 {
		model = args[0]
	}

	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(model, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if model != "" {
		cfg.Model = model
	}
	if cmd.Flags().Changed("solver") {
		m, err := linalg.ParseMethod(solver)
		if err != nil {
			return nil, err
		}
		cfg.Solver = m
	}
	if f := cmd.Flags().Lookup("method"); f != nil && f.Changed {
		cfg.Method = method
	}
	if f := cmd.Flags().Lookup("restitution"); f != nil && f.Changed {
		cfg.Restitution = restitution
	}
	if cmd.Name() == "solve" && cmd.Flags().Changed("repeat") {
		cfg.Repeat = repeat
	}
	return cfg, nil
}

func newExperiment(cmd *cobra.Command, args []string) (*config.Config, *experiment.Experiment, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	s, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, experiment.New(s, log), nil
}

func solveScenario(cmd *cobra.Command, args []string) error {
	cfg, exp, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}
	return runAndStore(cmd, exp, cfg.Method, cfg.Repeat)
}

func solveImpulse(cmd *cobra.Command, args []string) error {
	_, exp, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}
	return runAndStore(cmd, exp, "impulse", 1)
}

func runAndStore(cmd *cobra.Command, exp *experiment.Experiment, name string, n int) error {
	s := exp.Scenario()
	res, err := exp.Bench(cmd.Context(), name, n)
	if err != nil {
		report.Failure(os.Stdout, s, err)
		return err
	}
	if err := report.Result(os.Stdout, s, res); err != nil {
		return err
	}
	if !save {
		return nil
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(s, res)
	if err != nil {
		return err
	}
	fmt.Printf("\n%s %s\n", report.Subtle.Render("saved run"), runID)
	return nil
}

func compareMethods(cmd *cobra.Command, args []string) error {
	names := args[1:]
	if len(names) == 0 {
		names = accelerationMethods
	}
	_, exp, err := newExperiment(cmd, args[:1])
	if err != nil {
		return err
	}

	var results []*experiment.Result
	errs := make(map[string]error)
	for _, name := range names {
		res, err := exp.Run(cmd.Context(), name)
		if err != nil {
			errs[name] = err
			continue
		}
		results = append(results, res)
	}

	s := exp.Scenario()
	fmt.Printf("comparing methods for %s (%d dofs, %d contacts, solver %s)\n\n",
		s.ModelName, s.Model.DofCount, len(s.Contacts), s.Solver)
	return report.Comparison(os.Stdout, results, errs)
}

func benchMethods(cmd *cobra.Command, args []string) error {
	cfg, exp, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}
	n := benchRepeat
	if !cmd.Flags().Changed("repeat") && cfg.Repeat > 1 {
		n = cfg.Repeat
	}

	s := exp.Scenario()
	fmt.Printf("benchmarking %s (%d dofs, %d contacts, %d solves)\n\n",
		s.ModelName, s.Model.DofCount, len(s.Contacts), n)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tMEAN (us)\tP50 (us)\tP99 (us)\tSOLVES/SEC")

	var series [][]float64
	var captions []string
	for _, name := range accelerationMethods {
		res, err := exp.Bench(cmd.Context(), name, n)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", name, err)
			continue
		}
		mean := res.Metrics["solve_time_us"]
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%.1f\t%.0f\n",
			name, mean, metrics.Quantile(res.Timings, 0.5), metrics.Quantile(res.Timings, 0.99), 1e6/mean)
		series = append(series, res.Timings)
		captions = append(captions, name)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(series) > 0 {
		fmt.Println()
		fmt.Println(asciigraph.PlotMany(series,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Green, asciigraph.Blue, asciigraph.Red),
			asciigraph.Caption(fmt.Sprintf("solve time (us): %v", captions)),
		))
	}
	return nil
}

func sweepPresets(cmd *cobra.Command, args []string) error {
	names := models.Names()
	if len(args) > 0 {
		names = args
	}

	var jobs []experiment.Job
	for _, model := range names {
		for _, name := range config.ListPresets(model) {
			cfg := config.GetPreset(model, name)
			s, err := cfg.Build()
			if err != nil {
				return err
			}
			jobs = append(jobs, experiment.Job{Scenario: s, Method: cfg.Method})
		}
	}
	if len(jobs) == 0 {
		return fmt.Errorf("no presets for %v", names)
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	results, errs := experiment.NewEnsemble(jobs, log).Run(cmd.Context())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tMETHOD\tSOLVER\tPEAK FORCE\tVIOLATION\tSTATUS")
	failed := 0
	for i, job := range jobs {
		if errs[i] != nil {
			failed++
			fmt.Fprintf(w, "%s\t%s\t%s\t-\t-\t%s\n", job.Scenario.Name, job.Method, job.Scenario.Solver,
				report.StatusFail.Render(errs[i].Error()))
			continue
		}
		res := results[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%.6f\t%.3e\t%s\n", job.Scenario.Name, res.Method, job.Scenario.Solver,
			res.Metrics["peak_force"], res.Metrics["constraint_violation"], report.StatusOK.Render("ok"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d scenarios, %d failed\n", len(jobs), failed)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	names := models.Names()
	if len(args) > 0 {
		names = args
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tPRESET\tMETHOD\tSOLVER\tCONTACTS")
	for _, model := range names {
		for _, name := range config.ListPresets(model) {
			cfg := config.GetPreset(model, name)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", model, name, cfg.Method, cfg.Solver, len(cfg.Contacts))
		}
	}
	return w.Flush()
}

func writePreset(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(args[0], args[1])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[1], config.ListPresets(args[0]))
	}
	if err := config.Save(output, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", output)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tMETHOD\tSOLVER\tCONTACTS\tVIOLATION")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%.3e\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Method,
			run.Solver,
			run.Contacts,
			run.Metrics["constraint_violation"],
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	forces, err := st.LoadForces(args[0])
	if err != nil {
		return err
	}
	joints, err := st.LoadJoints(args[0])
	if err != nil {
		return err
	}

	fmt.Println(report.Header.Render(fmt.Sprintf("%s  %s/%s", meta.ID, meta.Method, meta.Solver)))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DOF\tQ\tQDOT\tTAU\tOUTPUT")
	for _, j := range joints {
		fmt.Fprintf(w, "%d\t%.6f\t%.6f\t%.6f\t%.6f\n", j.Index, j.Q, j.QDot, j.Tau, j.Output)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(forces) > 0 {
		fmt.Println()
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CONTACT\tBODY\tNORMAL\tTARGET\tFORCE\tVIOLATION")
		for _, f := range forces {
			fmt.Fprintf(w, "%s\t%d\t%s\t%.6f\t%.6f\t%.3e\n", f.Name, f.Body, f.Normal, f.Target, f.Force, f.Violation)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fmt.Println()
	return report.Metrics(os.Stdout, meta.Metrics)
}
