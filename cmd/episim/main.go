package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/integrators"
	"github.com/san-kum/episim/internal/logging"
	"github.com/san-kum/episim/internal/sweep"
	"github.com/san-kum/episim/internal/tui"
)

var (
	verbose   bool
	logger    *log.Logger
	newLogger = logging.New

	i0         float64
	beta       float64
	gamma      float64
	step       float64
	horizon    float64
	integrator string
	tolerance  float64
	configFile string
	preset     string

	format  string
	outFile string

	sweepParam string
	sweepFrom  float64
	sweepTo    float64
	sweepN     int
	workers    int
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if logger == nil {
			logger = logging.New(os.Stderr, false)
		}
		logger.Error(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "episim",
		Short:         "SIR epidemic simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(cmd.ErrOrStderr(), verbose)
		},
		RunE: runPanel,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	addSimFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one simulation",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().StringVarP(&format, "format", "f", "table", "output format: "+strings.Join(formats, "|"))
	runCmd.Flags().StringVarP(&outFile, "out", "o", "", "write output to file instead of stdout")

	panelCmd := &cobra.Command{
		Use:     "panel",
		Aliases: []string{"tui"},
		Short:   "interactive control panel",
		Args:    cobra.NoArgs,
		RunE:    runPanel,
	}
	addSimFlags(panelCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list parameter presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [integrator...]",
		Short: "compare integrators on the same parameters",
		RunE:  compareIntegrators,
	}
	addSimFlags(compareCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a parameter sweep",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "beta", "swept parameter: "+strings.Join(sweep.Params(), "|"))
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0.5, "first value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 4.0, "last value")
	sweepCmd.Flags().IntVar(&sweepN, "n", 8, "number of values")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = GOMAXPROCS)")
	sweepCmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table|json")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark integrators",
		Args:  cobra.NoArgs,
		RunE:  benchIntegrators,
	}
	addSimFlags(benchCmd)

	plotCmd := &cobra.Command{
		Use:   "plot [file.json]",
		Short: "plot a run exported with --format json",
		Args:  cobra.ExactArgs(1),
		RunE:  plotExport,
	}

	rootCmd.AddCommand(runCmd, panelCmd, presetsCmd, compareCmd, sweepCmd, benchCmd, plotCmd)
	return rootCmd
}

func addSimFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	cmd.Flags().Float64Var(&i0, "i0", def.I0, "initial infected fraction")
	cmd.Flags().Float64Var(&beta, "beta", def.Beta, "infection rate")
	cmd.Flags().Float64Var(&gamma, "gamma", def.Gamma, "recovery rate")
	cmd.Flags().Float64Var(&step, "step", def.Step, "output grid spacing")
	cmd.Flags().Float64Var(&horizon, "time", def.Horizon, "simulated time period")
	cmd.Flags().StringVar(&integrator, "integrator", def.Integrator, "integrator: "+strings.Join(integrators.Names(), "|"))
	cmd.Flags().Float64Var(&tolerance, "tol", def.Solver.Tolerance, "adaptive solver tolerance")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}

// resolveConfig layers defaults, preset, config file and explicitly set flags
// in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
		logger.Debug("preset", "name", preset)
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		logger.Debug("config", "path", configFile)
	}

	flags := cmd.Flags()
	if flags.Changed("i0") {
		cfg.I0 = i0
	}
	if flags.Changed("beta") {
		cfg.Beta = beta
	}
	if flags.Changed("gamma") {
		cfg.Gamma = gamma
	}
	if flags.Changed("step") {
		cfg.Step = step
	}
	if flags.Changed("time") {
		cfg.Horizon = horizon
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("tol") {
		cfg.Solver.Tolerance = tolerance
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runPanel(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return tui.Run(cfg)
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "PRESET\tI0\tBETA\tGAMMA\tR0\tTIME")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%g\t%g\t%.4g\t%.2f\t%g\n", name, p.I0, p.Beta, p.Gamma, epidemic.ReproductionRatio(p.Beta, p.Gamma), p.Horizon)
	}
	return w.Flush()
}
