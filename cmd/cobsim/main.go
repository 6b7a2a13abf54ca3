package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/janpeter19/cobsim/internal/config"
	"github.com/janpeter19/cobsim/internal/cosim"
	"github.com/janpeter19/cobsim/internal/experiment"
	"github.com/janpeter19/cobsim/internal/flux"
	"github.com/janpeter19/cobsim/internal/optim"
	"github.com/janpeter19/cobsim/internal/reactor"
	"github.com/janpeter19/cobsim/internal/storage"
	"github.com/janpeter19/cobsim/internal/viz"
)

var (
	dataDir    string
	dt         float64
	horizon    float64
	optimizer  string
	integrator string
	ncp        int
	maxSteps   int
	v0         float64
	vx0        float64
	vg0        float64
	ve0        float64
	qo2max     float64
	configFile string
	// Sweep settings
	sweepParam  string
	sweepValues string
	sweepMetric string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cobsim",
		Short: "constraint-based yeast cultivation co-simulation",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cobsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a cultivation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "biomass vs glucose phase plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCENARIO\tHORIZON\tDT\tOPTIMIZER\tINTEGRATOR")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%.1fh\t%.3fh\t%s\t%s\n",
					name, cfg.Horizon, cfg.Dt, cfg.Optimizer, cfg.Integrator)
			}
			return w.Flush()
		},
	}

	compareCmd := &cobra.Command{
		Use:   "compare [optimizer1] [optimizer2] ...",
		Short: "compare flux optimizers on the same scenario",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareOptimizers,
	}
	addScenarioFlags(compareCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search over a kinetic parameter",
		RunE:  sweepParameter,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "qo2max", "kinetic parameter to sweep")
	sweepCmd.Flags().StringVar(&sweepValues, "values", "", "comma-separated parameter values")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "final_biomass", "metric to maximize")

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a cultivation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, phaseCmd, exportCSVCmd,
		exportJSONCmd, presetsCmd, compareCmd, sweepCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "sample interval [h]")
	cmd.Flags().Float64Var(&horizon, "time", config.DefaultHorizon, "simulated horizon [h]")
	cmd.Flags().StringVar(&optimizer, "optimizer", "simplex", "flux optimizer")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")
	cmd.Flags().IntVar(&ncp, "ncp", config.DefaultNCP, "communication points per interval")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "step cap (0 disables)")
	cmd.Flags().Float64Var(&v0, "v0", 4.5, "initial broth volume [L]")
	cmd.Flags().Float64Var(&vx0, "vx0", 1.0, "initial biomass [g]")
	cmd.Flags().Float64Var(&vg0, "vg0", 10.0, "initial glucose [g]")
	cmd.Flags().Float64Var(&ve0, "ve0", 0.0, "initial ethanol [g]")
	cmd.Flags().Float64Var(&qo2max, "qo2max", flux.DefaultParams().QO2Max, "oxygen uptake capacity")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
}

// buildConfig layers scenario preset, config file and CLI flags, later
// sources overriding earlier ones. Flags only apply when set explicitly.
func buildConfig(cmd *cobra.Command, scenario string) (*config.Config, error) {
	var cfg *config.Config
	if scenario != "" {
		preset := config.GetPreset(scenario)
		if preset == nil {
			return nil, fmt.Errorf("unknown scenario: %s (available: %v)", scenario, config.ListPresets())
		}
		c := *preset
		cfg = &c
	} else {
		cfg = config.DefaultConfig()
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Horizon = horizon
	}
	if cmd.Flags().Changed("optimizer") {
		cfg.Optimizer = optimizer
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	if cmd.Flags().Changed("ncp") {
		cfg.NCP = ncp
	}
	if cmd.Flags().Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if cmd.Flags().Changed("v0") {
		cfg.Init.V = v0
	}
	if cmd.Flags().Changed("vx0") {
		cfg.Init.VX = vx0
	}
	if cmd.Flags().Changed("vg0") {
		cfg.Init.VG = vg0
	}
	if cmd.Flags().Changed("ve0") {
		cfg.Init.VE = ve0
	}
	if cmd.Flags().Changed("qo2max") {
		cfg.Kinetics.QO2Max = qo2max
	}

	return cfg, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario := "batch"
	if len(args) > 0 {
		scenario = args[0]
	}

	cfg, err := buildConfig(cmd, scenario)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("running %s cultivation...\n", scenario)
	start := time.Now()

	result, runErr := exp.Run(context.Background())
	if result == nil {
		return runErr
	}

	elapsed := time.Since(start)

	runID, err := st.Save(scenario, cfg.Dt, cfg.Horizon, cfg.Optimizer, cfg.Integrator, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("status: %s\n", result.Status)
	fmt.Printf("steps: %d\n", result.Steps)
	if runErr != nil {
		fmt.Printf("stopped early: %v\n", runErr)
	}
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tHORIZON\tDT\tOPTIMIZER\tINTEG\tSTATUS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1fh\t%.3fh\t%s\t%s\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Horizon,
			run.Dt,
			run.Optimizer,
			run.Integrator,
			run.Status,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if len(traj) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(traj))

	series := []struct {
		caption string
		value   func(cosim.Record) float64
	}{
		{"glucose [g/L]", func(r cosim.Record) float64 { return r.State.Glucose }},
		{"ethanol [g/L]", func(r cosim.Record) float64 { return r.State.Ethanol }},
		{"biomass [g/L]", func(r cosim.Record) float64 { return r.Biomass }},
		{"growth rate mu [1/h]", func(r cosim.Record) float64 { return r.Flux.Mu }},
	}

	for _, sp := range series {
		data := make([]float64, len(traj))
		for i, rec := range traj {
			data[i] = sp.value(rec)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(sp.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if len(traj) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("phase plot: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("x-axis: glucose [g/L], y-axis: biomass [g/L]\n\n")

	xData := make([]float64, len(traj))
	yData := make([]float64, len(traj))
	for i, rec := range traj {
		xData[i] = rec.State.Glucose
		yData[i] = rec.Biomass
	}

	xMin, xMax := xData[0], xData[0]
	yMin, yMax := yData[0], yData[0]
	for i := range xData {
		if xData[i] < xMin {
			xMin = xData[i]
		}
		if xData[i] > xMax {
			xMax = xData[i]
		}
		if yData[i] < yMin {
			yMin = yData[i]
		}
		if yData[i] > yMax {
			yMax = yData[i]
		}
	}

	xRange := xMax - xMin
	yRange := yMax - yMin
	if xRange == 0 {
		xRange = 1
	}
	if yRange == 0 {
		yRange = 1
	}

	width := 70
	height := 20
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for i := range xData {
		px := int(float64(width-1) * (xData[i] - xMin) / xRange)
		py := int(float64(height-1) * (yData[i] - yMin) / yRange)
		py = height - 1 - py
		if px >= 0 && px < width && py >= 0 && py < height {
			if i < len(xData)/3 {
				canvas[py][px] = '.'
			} else if i < 2*len(xData)/3 {
				canvas[py][px] = 'o'
			} else {
				canvas[py][px] = '●'
			}
		}
	}

	fmt.Printf("  %.3f ┌%s┐\n", yMax, strings.Repeat("─", width))
	for i := range canvas {
		if i == height/2 {
			fmt.Printf("  %.3f │", (yMax+yMin)/2)
		} else {
			fmt.Print("        │")
		}
		fmt.Print(string(canvas[i]))
		fmt.Println("│")
	}
	fmt.Printf("  %.3f └%s┘\n", yMin, strings.Repeat("─", width))
	fmt.Printf("        %.3f%s%.3f\n", xMin, strings.Repeat(" ", width-14), xMax)
	fmt.Printf("\nLegend: . = early, o = middle, ● = late\n")

	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if len(traj) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"time", "G", "E", "X", "mu", "qGr", "qEr", "qO2"}); err != nil {
		return err
	}

	for _, rec := range traj {
		row := []string{
			strconv.FormatFloat(rec.Time, 'f', 6, 64),
			strconv.FormatFloat(rec.State.Glucose, 'f', 6, 64),
			strconv.FormatFloat(rec.State.Ethanol, 'f', 6, 64),
			strconv.FormatFloat(rec.Biomass, 'f', 6, 64),
			strconv.FormatFloat(rec.Flux.Mu, 'g', -1, 64),
			strconv.FormatFloat(rec.Flux.QGr, 'g', -1, 64),
			strconv.FormatFloat(rec.Flux.QEr, 'g', -1, 64),
			strconv.FormatFloat(rec.Flux.QO2, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	traj, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	return storage.ExportJSON(os.Stdout, meta, traj)
}

func compareOptimizers(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, "")
	if err != nil {
		return err
	}

	fmt.Printf("comparing optimizers (dt=%.3fh, horizon=%.1fh)\n\n", cfg.Dt, cfg.Horizon)
	fmt.Printf("%-10s  %-12s  %-14s  %-10s  %-10s\n",
		"optimizer", "status", "final_biomass", "depletion", "time_ms")
	fmt.Println(strings.Repeat("-", 64))

	for _, name := range args {
		c := *cfg
		c.Optimizer = name

		exp, err := experiment.New(&c)
		if err != nil {
			fmt.Printf("%-10s  error: %v\n", name, err)
			continue
		}

		start := time.Now()
		result, runErr := exp.Run(context.Background())
		elapsed := time.Since(start)

		if result == nil {
			fmt.Printf("%-10s  error: %v\n", name, runErr)
			continue
		}

		fmt.Printf("%-10s  %-12s  %14.6f  %10.2f  %10.2f\n",
			name,
			result.Status,
			result.Metrics["final_biomass"],
			result.Metrics["glucose_depletion_time"],
			float64(elapsed.Microseconds())/1000,
		)
	}

	return nil
}

func sweepParameter(cmd *cobra.Command, args []string) error {
	if sweepValues == "" {
		return fmt.Errorf("no sweep values given (use --values)")
	}

	values := make([]float64, 0)
	for _, s := range strings.Split(sweepValues, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("bad sweep value %q: %w", s, err)
		}
		values = append(values, v)
	}

	base, err := buildConfig(cmd, "")
	if err != nil {
		return err
	}

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		c := *base
		if err := applyKinetic(&c, sweepParam, params[sweepParam]); err != nil {
			return nil, err
		}
		return experiment.New(&c)
	}

	fmt.Printf("sweeping %s over %v, maximizing %s\n", sweepParam, values, sweepMetric)

	gs := optim.NewGridSearch([]string{sweepParam}, [][]float64{values})
	bestParams, best, err := gs.Search(context.Background(), build, sweepMetric)
	if err != nil {
		return err
	}
	if bestParams == nil {
		return fmt.Errorf("no grid point produced a result")
	}

	fmt.Printf("best %s: %g (%s = %.6f)\n", sweepParam, bestParams[sweepParam], sweepMetric, best)
	return nil
}

func applyKinetic(cfg *config.Config, name string, val float64) error {
	switch name {
	case "qo2max":
		cfg.Kinetics.QO2Max = val
	case "kog":
		cfg.Kinetics.Kog = val
	case "koe":
		cfg.Kinetics.Koe = val
	case "ygr":
		cfg.Kinetics.YGr = val
	case "yer":
		cfg.Kinetics.YEr = val
	case "alpha":
		cfg.Kinetics.Alpha = val
	case "beta":
		cfg.Kinetics.Beta = val
	default:
		return fmt.Errorf("unknown kinetic parameter: %s", name)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	scenario := "batch"
	if len(args) > 0 {
		scenario = args[0]
	}

	cfg, err := buildConfig(cmd, scenario)
	if err != nil {
		return err
	}

	params := cfg.FluxParams()
	if err := params.Validate(); err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	integ, err := registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	batch, err := reactor.New(cfg.InitialState(), reactor.Options{
		Integrator: integ,
		NCP:        cfg.NCP,
	})
	if err != nil {
		return err
	}

	newOpt := func(p flux.Params) flux.Optimizer {
		opt, err := registry.GetOptimizer(cfg.Optimizer, p)
		if err != nil {
			return flux.NewSimplex(p)
		}
		return opt
	}

	m := viz.NewLiveModel(batch, newOpt, params, cfg.Dt)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
