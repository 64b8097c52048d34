package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ArinaShifrina/PZ4/internal/analysis"
	"github.com/ArinaShifrina/PZ4/internal/config"
	"github.com/ArinaShifrina/PZ4/internal/experiment"
	"github.com/ArinaShifrina/PZ4/internal/export"
	"github.com/ArinaShifrina/PZ4/internal/fdtd"
	"github.com/ArinaShifrina/PZ4/internal/server"
	"github.com/ArinaShifrina/PZ4/internal/storage"
	"github.com/ArinaShifrina/PZ4/internal/sweep"
	"github.com/ArinaShifrina/PZ4/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	steps      int
	courant    float64
	// run output
	liveView bool
	noSave   bool
	pngPath  string
	svgPath  string
	// export-svg
	braille bool
	// serve
	addr string
	// sweep
	axes      []string
	workers   int
	objective string
	// bench
	sizes []int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fdtd",
		Short:         "one-dimensional FDTD electromagnetics lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fdtd", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	scenarioFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml or ini)")
		cmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
		cmd.Flags().IntVar(&steps, "steps", 0, "override number of time steps")
		cmd.Flags().Float64Var(&courant, "courant", 0, "override courant number")
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scenario and store its probe signals",
		Args:  cobra.NoArgs,
		RunE:  runScenario,
	}
	scenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&liveView, "live", false, "show the field in the terminal while running")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().StringVar(&pngPath, "png", "", "write probe signals chart to this PNG file")
	runCmd.Flags().StringVar(&svgPath, "svg", "", "write the final field to this SVG file")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a scenario with live terminal visualization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			liveView = true
			return runScenario(cmd, args)
		},
	}
	scenarioFlags(liveCmd)
	liveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot probe signals of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&pngPath, "png", "", "also write the chart to this PNG file")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectra and reflection coefficient of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&pngPath, "png", "", "also write the spectra to this PNG file")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export probe signals to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export probe signals to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().BoolVar(&braille, "braille", false, "render the first probe as a braille dot raster")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenarios",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve runs over HTTP and stream the field to websocket clients",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	scenarioFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark the engine on growing grids",
		Args:  cobra.NoArgs,
		RunE:  bench,
	}
	scenarioFlags(benchCmd)
	benchCmd.Flags().IntSliceVar(&sizes, "sizes", []int{500, 2000, 8000}, "grid sizes in cells")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "measure reflection over a parameter grid",
		Example: "  fdtd sweep --preset interface --param layer.1.eps=2,4,9\n" +
			"  fdtd sweep --param courant=0.5,1 --param layer.2.thickness=0.1,0.2",
		Args: cobra.NoArgs,
		RunE: runSweep,
	}
	scenarioFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&axes, "param", nil, "swept parameter as name=v1,v2,... (repeatable)")
	sweepCmd.Flags().IntVar(&workers, "workers", 1, "scenarios simulated at once")
	sweepCmd.Flags().StringVar(&objective, "objective", "min_reflection", "best point by min_reflection or model_error")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd, exportCSVCmd,
		exportSVGCmd, presetsCmd, serveCmd, benchCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// loadScenario resolves the scenario: preset first, then the config file,
// then the command-line overrides.
func loadScenario(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("courant") {
		cfg.Courant = courant
	}
	return cfg, cfg.Validate()
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ec := exp.EngineConfig()
	if liveView {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		display := viz.NewLiveDisplay(
			fmt.Sprintf("%s  %d cells  Sc=%.2f", cfg.Name, ec.Size, ec.Courant),
			ec.Steps,
			viz.WithLimit(1.5*cfg.Pulse.Magnitude),
			viz.WithQuitHandler(cancel),
		)
		exp.AddDisplay(display)
		return finishRun(ctx, exp, display)
	}

	fmt.Printf("running %s: %d cells, %d steps...\n", cfg.Name, ec.Size, ec.Steps)
	return finishRun(ctx, exp, nil)
}

func finishRun(ctx context.Context, exp *experiment.Experiment, display *viz.LiveDisplay) error {
	out, err := exp.Run(ctx)
	if display != nil {
		if derr := display.Err(); derr != nil {
			log.WithError(derr).Warn("terminal display failed")
		}
		if n := display.Dropped(); n > 0 {
			log.WithField("frames", n).Debug("live view dropped frames")
		}
	}
	if errors.Is(err, context.Canceled) {
		fmt.Printf("interrupted at step %d\n", out.Result.Steps)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", out.Elapsed)
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(out.Config, out.Engine, out.Result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	fmt.Printf("steps: %d\n", out.Result.Steps)
	fmt.Println("\nmetrics:")
	for _, name := range []string{"energy", "residual_energy", "peak_field", "stability"} {
		fmt.Printf("  %s: %.6g\n", name, out.Result.Metrics[name])
	}

	if measured, err := out.MeasuredReflection(); err == nil {
		fmt.Printf("\nreflection |R|: measured %.4f", measured)
		if len(out.Config.Layers) > 0 {
			fmt.Printf(", analytic %.4f", out.ExpectedReflection())
		}
		fmt.Println()
	}

	if pngPath != "" {
		probes := make(map[int][]float64, len(out.Result.Probes))
		for _, p := range out.Result.Probes {
			probes[p.Position()] = p.E()
		}
		times := timeAxis(out.Result.Steps, out.Config.Dt())
		spec := viz.ProbeChart(out.Config.Name, times, probes, out.Engine.Probes)
		if err := viz.SavePNG(pngPath, spec); err != nil {
			return err
		}
		fmt.Printf("chart: %s\n", pngPath)
	}
	if svgPath != "" {
		f, err := os.Create(svgPath)
		if err != nil {
			return err
		}
		ec := out.Engine
		err = export.FieldToSVG(f, out.Result.Ez, ec.Probes, []int{ec.SourcePos}, ec.Boundaries, 1200, 300)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Printf("field: %s\n", svgPath)
	}
	return nil
}

func timeAxis(n int, dt float64) []float64 {
	t := make([]float64, n)
	for q := range t {
		t[q] = float64(q) * dt
	}
	return t
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tCELLS\tSTEPS\tSC\tPEAK")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.2f\t%.4f\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Size,
			run.Steps,
			run.Courant,
			run.Metrics["peak_field"],
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
	probes, times, err := st.LoadProbes(runID)
	if err != nil {
		return err
	}
	if len(probes) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Name)
	fmt.Printf("samples: %d\n\n", len(times))

	ns := make([]float64, len(times))
	for i, t := range times {
		ns[i] = t * 1e9
	}
	series := make([]viz.Series, len(probes))
	byPos := make(map[int][]float64, len(probes))
	order := make([]int, len(probes))
	for i, p := range probes {
		series[i] = viz.Series{Name: fmt.Sprintf("Ez at cell %d", p.Position), X: ns, Y: p.E}
		byPos[p.Position] = p.E
		order[i] = p.Position
	}
	for _, graph := range viz.PlotSeries(series, viz.DefaultPlotOptions()) {
		fmt.Println(graph)
		fmt.Println()
	}
	fmt.Printf("time axis: 0 .. %.3f ns\n", ns[len(ns)-1])

	if pngPath != "" {
		if err := viz.SavePNG(pngPath, viz.ProbeChart(meta.Name, times, byPos, order)); err != nil {
			return err
		}
		fmt.Printf("chart: %s\n", pngPath)
	}
	return nil
}

// storedIncident rebuilds the source waveform of a stored run.
func storedIncident(meta *storage.RunMetadata) ([]float64, error) {
	if meta.Scenario == nil {
		return nil, fmt.Errorf("%s: run has no scenario", meta.ID)
	}
	ec, err := meta.Scenario.Engine()
	if err != nil {
		return nil, err
	}
	ec.Probes = nil
	engine, err := fdtd.New(ec)
	if err != nil {
		return nil, err
	}
	return engine.Source().Sample(meta.Steps), nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	probes, _, err := st.LoadProbes(runID)
	if err != nil {
		return err
	}

	var scattered *storage.ProbeSeries
	for i := range probes {
		if probes[i].Position < meta.SourcePos {
			scattered = &probes[i]
			break
		}
	}
	if scattered == nil {
		return experiment.ErrNoScatteredProbe
	}

	incident, err := storedIncident(meta)
	if err != nil {
		return err
	}

	sc := meta.Scenario.Spectrum
	spec := analysis.FallAndScattered(incident, scattered.E, meta.Dt, 0)
	shown := spec.Limit(sc.FreqPlotMax)

	norm := analysis.MaxAbs(shown.Incident)
	if norm == 0 {
		return fmt.Errorf("%s: incident spectrum is empty", runID)
	}
	inc := make([]float64, len(shown.Incident))
	ref := make([]float64, len(shown.Reflected))
	for i := range inc {
		inc[i] = shown.Incident[i] / norm
		ref[i] = shown.Reflected[i] / norm
	}

	fmt.Printf("spectral analysis: %s\n", meta.ID)
	fmt.Printf("scenario: %s, probe at cell %d, %d-point FFT\n\n", meta.Name, scattered.Position, 2*len(spec.Freqs))

	ghz := make([]float64, len(shown.Freqs))
	for i, f := range shown.Freqs {
		ghz[i] = f / 1e9
	}
	fmt.Println(viz.PlotOverlay(
		fmt.Sprintf("amplitude spectra, 0 .. %.1f GHz", sc.FreqPlotMax/1e9),
		[]viz.Series{
			{Name: "incident", X: ghz, Y: inc},
			{Name: "reflected", X: ghz, Y: ref},
		},
		viz.PlotOptions{Width: 80, Height: 12},
	))
	fmt.Println()

	freqs, r := spec.Coefficient(sc.FreqMin, sc.FreqMax)
	if len(r) > 0 {
		fmt.Println(viz.PlotOverlay(
			fmt.Sprintf("|R(f)|, %.1f .. %.1f GHz", sc.FreqMin/1e9, sc.FreqMax/1e9),
			[]viz.Series{{Name: "|R|", X: freqs, Y: r}},
			viz.PlotOptions{Width: 80, Height: 10},
		))
		fmt.Println()
		lo, hi := r[0], r[0]
		for _, v := range r {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		fmt.Printf("|R| in band: %.4f .. %.4f\n", lo, hi)
	}
	fmt.Printf("dominant incident frequency: %.3f GHz\n", spec.Dominant()/1e9)
	fmt.Printf("peak-to-peak |R|: %.4f\n", analysis.Reflection(incident, scattered.E))
	if layers := meta.Scenario.Layers; len(layers) > 0 {
		fmt.Printf("analytic |r| at first interface: %.4f\n", math.Abs(analysis.ReflectionCoefficient(1, layers[0].Eps)))
	}

	if pngPath != "" {
		chart := viz.SpectrumChart(meta.Name, shown.Freqs, inc, ref)
		if err := viz.SavePNG(pngPath, chart); err != nil {
			return err
		}
		fmt.Printf("chart: %s\n", pngPath)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if _, err := st.Load(args[0]); err != nil {
		return err
	}
	f, err := os.Open(st.ProbesPath(args[0]))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(os.Stdout, f)
	return err
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	probes, times, err := st.LoadProbes(args[0])
	if err != nil {
		return err
	}
	if len(probes) == 0 {
		return fmt.Errorf("no data to export")
	}

	if braille {
		canvas := viz.NewCanvas(120, 20)
		canvas.Field(probes[0].E, 1.1*analysis.MaxAbs(probes[0].E))
		_, err := io.WriteString(os.Stdout, export.CanvasToSVG(canvas, 3))
		return err
	}

	ns := make([]float64, len(times))
	for i, t := range times {
		ns[i] = t * 1e9
	}
	series := make([]viz.Series, len(probes))
	for i, p := range probes {
		series[i] = viz.Series{Name: fmt.Sprintf("Ez at cell %d", p.Position), X: ns, Y: p.E}
	}
	return export.SeriesToSVG(os.Stdout, series, 1200, 400)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tCELLS\tSTEPS\tSC\tLAYERS")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		layers := make([]string, len(cfg.Layers))
		for i, l := range cfg.Layers {
			if l.Thickness > 0 {
				layers[i] = fmt.Sprintf("eps=%g/%gm", l.Eps, l.Thickness)
			} else {
				layers[i] = fmt.Sprintf("eps=%g", l.Eps)
			}
		}
		desc := strings.Join(layers, " ")
		if desc == "" {
			desc = "vacuum"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\t%s\n", name, cfg.Size(), cfg.Steps, cfg.Courant, desc)
	}
	return w.Flush()
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg)
	err = srv.ListenAndServe(ctx, addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func bench(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %s (%d steps)\n\n", cfg.Name, cfg.Steps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CELLS\tSTEPS\tTIME\tCELL-STEPS/SEC")

	for _, n := range sizes {
		scenario := cfg.Clone()
		scenario.X = float64(n) * scenario.Dx
		scenario.LayerStart = scenario.X / 2
		ec, err := scenario.Engine()
		if err != nil {
			return err
		}
		ec.Probes = nil
		engine, err := fdtd.New(ec)
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := engine.Run(context.Background())
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		rate := float64(ec.Size) * float64(result.Steps) / elapsed.Seconds()
		fmt.Fprintf(w, "%d\t%d\t%v\t%.3g\n", ec.Size, result.Steps, elapsed, rate)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	if len(axes) == 0 {
		return fmt.Errorf("sweep needs at least one --param (known: %s)", strings.Join(sweep.Names(), ", "))
	}

	var rank func(sweep.Point) float64
	switch objective {
	case "min_reflection":
		rank = sweep.MinReflection
	case "model_error":
		rank = sweep.ModelError
	default:
		return fmt.Errorf("unknown objective: %s", objective)
	}

	names := make([]string, len(axes))
	ranges := make([][]float64, len(axes))
	for i, a := range axes {
		names[i], ranges[i], err = sweep.ParseAxis(a)
		if err != nil {
			return err
		}
	}
	grid, err := sweep.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	points, err := grid.Run(ctx, cfg, sweep.NewEnsemble(workers))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tMEASURED\tANALYTIC\tSTABLE\n", strings.ToUpper(strings.Join(names, "\t")))
	for _, p := range points {
		for _, name := range names {
			fmt.Fprintf(w, "%g\t", p.Values[name])
		}
		fmt.Fprintf(w, "%.4f\t%.4f\t%v\n", p.Measured, p.Expected, p.Stability == 1)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d runs in %v\n", len(points), time.Since(start))
	if best, ok := sweep.Best(points, rank); ok {
		fmt.Printf("best by %s: %v (measured %.4f)\n", objective, best.Values, best.Measured)
	}
	return nil
}
