package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sherine-k/roundabout/log"
	"github.com/sherine-k/roundabout/pkg/chart"
	"github.com/sherine-k/roundabout/pkg/config"
	"github.com/sherine-k/roundabout/pkg/scenario"
	"github.com/sherine-k/roundabout/pkg/simulation"
	"github.com/sherine-k/roundabout/pkg/telemetry"
)

const envPrefix = "ROUNDABOUT"

const defaultConfigFile = "scenario.yaml"

var (
	configFile       string
	showTimeline     bool
	timelineLimit    int
	showEventSummary bool
	realtime         bool
	ringEvery        time.Duration
	vehicles         int
	stopDuration     time.Duration
	seed             uint64
	logLevel         string
	logFormat        string
	enableTelemetry  bool
)

var rootCmd = &cobra.Command{
	Use:   "roundabout",
	Short: "Roundabout traffic simulator",
	Long: `A CLI tool that simulates vehicles circling a roundabout.

Vehicles travel at constant speed and brake when a slower vehicle is
inside the safety gap ahead of them. Emergency stops are injected on a
schedule and the resulting stop statistics, a chart of stopped vehicles
over time and the final state of the ring are printed.`,
	SilenceUsage: true,
	RunE:         runSimulation,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigFile,
		"Path to scenario file (.yaml or .toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn",
		"controls the log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"controls the log output format (text, json)")

	rootCmd.Flags().BoolVarP(&showTimeline, "timeline", "t", false, "Show detailed timeline of events")
	rootCmd.Flags().IntVarP(&timelineLimit, "timeline-limit", "l", 50, "Limit number of timeline events to display")
	rootCmd.Flags().BoolVarP(&showEventSummary, "summary", "s", true, "Show event summary")
	rootCmd.Flags().BoolVar(&realtime, "realtime", false, "Pace ticks at the configured tick rate")
	rootCmd.Flags().DurationVar(&ringEvery, "ring-every", 0,
		"Print the ring every interval of simulated time (0 disables)")
	rootCmd.Flags().IntVar(&vehicles, "vehicles", 0, "Override the number of vehicles (1-20)")
	rootCmd.Flags().DurationVar(&stopDuration, "stop-duration", 0, "Override the emergency stop duration (100ms-20s)")
	rootCmd.Flags().Uint64Var(&seed, "seed", 0, "Override the random seed")
	rootCmd.Flags().BoolVar(&enableTelemetry, "enable-telemetry", false, "Write OpenTelemetry metrics to stderr")

	rootCmd.AddCommand(newValidateCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetConfigName(".roundabout")

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd, viper.GetViper())
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --log-level to ROUNDABOUT_LOG_LEVEL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}

func setupLogger() {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		level = log.WarnLevel
	}
	var logger *log.Logger
	switch logFormat {
	case "json":
		logger = log.New(os.Stderr, level, log.WithCaller(true))
	default:
		logger = log.DevLogger(os.Stderr, level, log.WithCaller(true))
	}
	log.ResetDefault(logger)
}

// loadScenario reads the scenario file. A missing default file falls back
// to the built-in scenario.
func loadScenario(cmd *cobra.Command) (*config.Config, error) {
	if !cmd.Flags().Changed("config") && configFile == defaultConfigFile {
		if _, err := os.Stat(configFile); errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
	}
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

//nolint:funlen // readability
func runSimulation(cmd *cobra.Command, args []string) error {
	setupLogger()

	cfg, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}

	fmt.Printf("Loaded configuration from %s\n", configFile)
	fmt.Printf("  - Vehicles: %d\n", cfg.VehicleCount)
	fmt.Printf("  - Stop Duration: %s (%d ticks)\n", cfg.StopDuration, cfg.StopTicks())
	fmt.Printf("  - Tick Rate: %d/s\n", cfg.TickRate)
	fmt.Printf("  - Simulation Duration: %s\n", cfg.SimulationDuration)
	if cfg.EmergencyStops.CronSchedule != "" {
		fmt.Printf("  - Stop Schedule: %s\n", cfg.EmergencyStops.CronSchedule)
	}
	fmt.Printf("  - Scheduled Stop Ticks: %d\n\n", len(cfg.EmergencyStops.AtTicks))

	opts := []simulation.Option{simulation.WithRandomSource(simulation.NewRandomSource(cfg.Seed))}

	var tel *telemetry.Telemetry
	if enableTelemetry {
		if tel, err = telemetry.Setup(os.Stderr, 10*time.Second); err != nil {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		} else {
			opts = append(opts, simulation.WithMeter(tel.Meter()))
			defer func() {
				if err := tel.Shutdown(context.Background()); err != nil {
					log.Warn("Could not shutdown telemetry", log.ErrorField(err))
				}
			}()
		}
	}

	sim, err := simulation.NewSimulator(cfg.Simulation, opts...)
	if err != nil {
		return fmt.Errorf("failed to create simulation: %w", err)
	}

	// flag overrides go through the same path a user would use between runs
	if cmd.Flags().Changed("vehicles") || cmd.Flags().Changed("stop-duration") {
		next := cfg.Simulation
		if cmd.Flags().Changed("vehicles") {
			next.VehicleCount = vehicles
		}
		if cmd.Flags().Changed("stop-duration") {
			next.StopDuration = stopDuration
		}
		if err := sim.Reconfigure(next); err != nil {
			return fmt.Errorf("invalid override: %w", err)
		}
		cfg.Simulation = next
	}

	chartGen := chart.NewGenerator()

	runnerOpts := []scenario.Option{scenario.WithRealtime(realtime)}
	if ringEvery > 0 {
		every := uint64(ringEvery.Seconds() * float64(cfg.TickRate))
		runnerOpts = append(runnerOpts, scenario.WithFrameCallback(func(snap simulation.Snapshot) {
			if every > 0 && snap.Tick%every == 0 {
				fmt.Print(chartGen.GenerateRingView(snap, cfg.StopDuration))
			}
		}))
	}

	runner, err := scenario.NewRunner(sim, cfg, runnerOpts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if err := runner.Run(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			return fmt.Errorf("simulation failed: %w", err)
		}
		fmt.Printf("Interrupted after %s of simulated time\n", sim.Elapsed())
	}

	// Display final state of the ring
	fmt.Println(chartGen.GenerateRingView(sim.Snapshot(), cfg.StopDuration))

	// Display stopped vehicles chart
	fmt.Println(chartGen.GenerateStoppedChart(runner.GetTimePoints(), cfg.VehicleCount))

	// Display stop statistics
	fmt.Println(chartGen.GenerateStatsTable(sim.Stats()))

	events := sim.GetEvents()
	if showEventSummary {
		fmt.Println(chartGen.GenerateEventSummary(events))
	}

	fmt.Println(chartGen.GenerateWarnings(sim.GetWarnings()))

	if showTimeline {
		fmt.Println(chartGen.GenerateDetailedTimeline(events, timelineLimit))
	}

	return nil
}
