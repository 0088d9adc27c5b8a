package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rickchristie/govner/testdeck/internal/config"
	"github.com/rickchristie/govner/testdeck/internal/dashboard"
	"github.com/rickchristie/govner/testdeck/internal/declare"
	"github.com/rickchristie/govner/testdeck/internal/demo"
	"github.com/rickchristie/govner/testdeck/internal/render"
	"github.com/rickchristie/govner/testdeck/internal/replay"
	"github.com/rickchristie/govner/testdeck/internal/schedule"
	"github.com/rickchristie/govner/testdeck/internal/state"
	"github.com/rickchristie/govner/testdeck/internal/terminal"
	"github.com/rickchristie/govner/testdeck/internal/util"
	"github.com/rickchristie/govner/testdeck/meta"
)

var (
	configDir string
	noColor   bool
	display   string
)

// Flags for 'demo' command
var (
	demoWorkers      int
	demoDelay        time.Duration
	demoRecord       string
	demoShowThoughts bool
	demoSeed         uint64
)

// Flags for 'replay' command
var replaySpeed float64

var rootCmd = &cobra.Command{
	Use:   "testdeck",
	Short: "Live terminal dashboard for browser-agent test runs",
	Long: `testdeck - Watch agent-driven browser tests as they run

Quick Start:
  testdeck init                Write a default configuration to .testdeck/
  testdeck demo                Run the sample suite against a simulated agent
  testdeck replay run.jsonl    Replay a recorded run

The default URL for every test comes from $TESTDECK_URL, then the url field of
.testdeck/config.yaml.`,
	Version: meta.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
	},
	SilenceUsage: true,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(resolveConfigDir(), "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.SaveConfig(path, config.DefaultConfig()); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		fmt.Printf("Next steps:\n")
		fmt.Printf("  1. Set url in %s or export %s\n", path, declare.URLEnvVar)
		fmt.Printf("  2. testdeck demo\n")
		return nil
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the sample suite against a simulated agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dir, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = demoWorkers
		}
		if cmd.Flags().Changed("show-thoughts") {
			cfg.ShowThoughts = demoShowThoughts
		}
		if cfg.URL == "" {
			// The sample suite only needs something to resolve against.
			cfg.URL = "https://shop.example.com"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logFile, err := setupLogging(cfg.LogPath(dir), cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logFile.Close()

		reg := declare.NewRegistry(cfg.Defaults())
		if err := demo.Declare(reg); err != nil {
			return err
		}

		var observer demo.Observer
		if demoRecord != "" {
			f, err := os.Create(demoRecord)
			if err != nil {
				return fmt.Errorf("failed to create recording: %w", err)
			}
			defer f.Close()
			w := replay.NewWriter(f, nil)
			defer func() {
				w.Finish()
				if err := w.Err(); err != nil {
					log.Error().Err(err).Str("file", demoRecord).Msg("recording incomplete")
				}
			}()
			observer = w
		}

		return runDashboard(cfg, func(ctx context.Context, loop *schedule.Loop, dash *dashboard.Dashboard) error {
			eng := demo.NewEngine(loop, dash, demo.Options{
				Workers:   cfg.Workers,
				Model:     cfg.Model,
				StepDelay: demoDelay,
				Observer:  observer,
				Seed:      demoSeed,
			})
			return eng.Run(ctx, reg.Files())
		})
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay <recording.jsonl>",
	Short: "Replay a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dir, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logFile, err := setupLogging(cfg.LogPath(dir), cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logFile.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open recording: %w", err)
		}
		defer f.Close()

		events, err := replay.Read(f)
		if err != nil {
			return err
		}
		log.Info().Str("file", args[0]).Int("events", len(events)).Msg("replaying")

		return runDashboard(cfg, func(ctx context.Context, loop *schedule.Loop, dash *dashboard.Dashboard) error {
			return replay.Play(ctx, events, loop, dash, replaySpeed)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "",
		"Path to .testdeck directory (default: ./.testdeck)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable colors")
	rootCmd.PersistentFlags().StringVar(&display, "display", "",
		"Display mode: inline or program (overrides config)")

	// Flags for 'demo' command
	demoCmd.Flags().IntVarP(&demoWorkers, "workers", "w", 0,
		"Concurrent tests per file (overrides config)")
	demoCmd.Flags().DurationVar(&demoDelay, "delay", 400*time.Millisecond,
		"Mean pause between simulated agent events")
	demoCmd.Flags().StringVar(&demoRecord, "record", "",
		"Write the run to a JSON-lines recording")
	demoCmd.Flags().BoolVar(&demoShowThoughts, "show-thoughts", false,
		"Show agent thoughts (overrides config)")
	demoCmd.Flags().Uint64Var(&demoSeed, "seed", 1,
		"Seed for the simulated agent")

	// Flags for 'replay' command
	replayCmd.Flags().Float64VarP(&replaySpeed, "speed", "s", 1,
		"Playback speed multiplier, 0 for no delays")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(replayCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfigDir() string {
	if configDir == "" {
		return config.DefaultDir
	}
	return configDir
}

func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	dir := resolveConfigDir()
	cfg, err := config.LoadDir(dir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config from %s: %w", dir, err)
	}
	cfg.ApplyEnv(os.Getenv)
	if cmd.Flags().Changed("display") {
		cfg.Display = display
	}
	return cfg, dir, nil
}

func setupLogging(path, level string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(logFile).Level(lvl).With().Timestamp().Logger()
	return logFile, nil
}

// runDashboard starts the loop, the spinner ticker and the display, runs work, then
// finishes the dashboard. It returns an error when any test failed.
func runDashboard(cfg *config.Config, work func(ctx context.Context, loop *schedule.Loop, dash *dashboard.Dashboard) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var out terminal.Display
	if cfg.Display == config.DisplayProgram {
		prog := terminal.NewProgram(terminal.ProgramOptions{
			Output:      os.Stdout,
			Input:       os.Stdin,
			OnInterrupt: cancel,
		})
		go cancelOnExit(ctx, prog.Exited(), cancel)
		out = prog
	} else {
		out = terminal.NewInline(os.Stdout)
	}

	loop := schedule.NewLoop()
	dash := dashboard.New(loop.Queue(), out, dashboard.Options{
		Version:  meta.Version,
		Model:    cfg.Model,
		Settings: cfg.Settings(),
		Costs:    cfg.Costs(),
	})

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(loopCtx) }()

	finished := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.TickInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				loop.Post(dash.Tick)
			case <-finished:
				return
			}
		}
	}()

	started := time.Now()
	workErr := work(ctx, loop, dash)

	var summary render.Summary
	var frames int
	loop.Post(func() {
		dash.Finish()
		summary = dash.Summary()
		frames = dash.Frames()
		close(finished)
	})
	<-finished
	stopLoop()
	<-loopDone

	log.Info().
		Int("tests", summary.Total).
		Int("failed", summary.Counts[state.StatusFailed]).
		Int("frames", frames).
		Dur("elapsed", time.Since(started)).
		Msg("run finished")

	if workErr != nil && !errors.Is(workErr, context.Canceled) {
		return workErr
	}
	if n := summary.Counts[state.StatusFailed]; n > 0 {
		return fmt.Errorf("%d %s failed", n, util.Plural(n, "test", "tests"))
	}
	if workErr != nil {
		return fmt.Errorf("run interrupted after %s", util.FormatDuration(time.Since(started)))
	}
	return nil
}

// cancelOnExit stops the run when the display program exits before ctx is done.
func cancelOnExit(ctx context.Context, exited <-chan struct{}, cancel context.CancelFunc) {
	select {
	case <-exited:
		cancel()
	case <-ctx.Done():
	}
}
