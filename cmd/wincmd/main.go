package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/wincmd/internal/config"
	"github.com/GriffinCanCode/wincmd/internal/console"
	"github.com/GriffinCanCode/wincmd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/wincmd/internal/interpreter"
	"github.com/GriffinCanCode/wincmd/internal/logging"
	"github.com/GriffinCanCode/wincmd/internal/process"
	"github.com/GriffinCanCode/wincmd/internal/session"
	"github.com/GriffinCanCode/wincmd/internal/shared/paths"
)

type flags struct {
	configPath string
	logLevel   string
	dev        bool
	pty        bool
	encoding   string
	startup    string
	metrics    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "wincmd [command [args...]]",
		Short: "Line-oriented shell bridge",
		Long: "wincmd shows a scrolling text console that runs a small set of built-in\n" +
			"commands and forwards everything else to the platform command interpreter.\n" +
			"Arguments after the flags are spawned directly as the initial program.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, args)
		},
	}
	// everything after the first positional belongs to the child
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "TOML config file (default <user config dir>/wincmd/config.toml)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&f.dev, "dev", false, "development logging")
	cmd.Flags().BoolVar(&f.pty, "pty", false, "run children on a pseudo-terminal where supported")
	cmd.Flags().StringVarP(&f.encoding, "encoding", "e", "", "child output encoding (platform, utf-8, cp437, auto)")
	cmd.Flags().StringVar(&f.startup, "startup", "", "command started at launch and on restart")
	cmd.Flags().StringVar(&f.metrics, "metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

// loadConfig reads env and file configuration, then applies the flags the
// user actually set.
func loadConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	path := f.configPath
	if path == "" {
		if def, ok := paths.ConfigFile(); ok {
			path = def
		}
	}
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if changed("dev") {
		cfg.Logging.Development = f.dev
	}
	if changed("pty") {
		cfg.Process.PTY = f.pty
	}
	if changed("encoding") {
		cfg.Session.Encoding = f.encoding
	}
	if changed("startup") {
		cfg.Shell.StartupCommand = f.startup
	}
	if changed("metrics-addr") {
		cfg.Metrics.Addr = f.metrics
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) (*logging.Logger, error) {
	// the console owns the terminal, so logs go to a file by default
	out := cfg.Output
	if out == "" {
		out = paths.LogFile()
	}
	return logging.New(logging.Config{
		Level:       cfg.Level,
		Development: cfg.Development,
		Output:      out,
	})
}

func run(ctx context.Context, cfg *config.Config, argv []string) error {
	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	restore, raw, err := console.MakeRaw(os.Stdin)
	if err != nil {
		return fmt.Errorf("prepare terminal: %w", err)
	}
	defer restore()

	s := session.New(session.Options{
		MaxChars:  cfg.Session.MaxChars,
		TrimSlack: cfg.Session.TrimSlack,
		Encoding:  cfg.Session.Encoding,
		Logger:    logger,
		Metrics:   metrics,
	})
	it := interpreter.New(interpreter.Options{
		PromptMarker:    cfg.Shell.PromptMarker,
		StartupCommand:  cfg.Shell.StartupCommand,
		ExclusiveInput:  cfg.Shell.ExclusiveInput,
		RestartFailures: cfg.Shell.RestartFailures,
		RestartCooldown: cfg.Shell.RestartCooldown.Std(),
		Process: process.Options{
			Interpreter:     cfg.Process.Interpreter,
			InterpreterFlag: cfg.Process.InterpreterFlag,
			PTY:             cfg.Process.PTY,
			DrainGrace:      cfg.Process.DrainGrace.Std(),
		},
		Logger:  logger,
		Metrics: metrics,
	})
	driver := console.New(s, it, console.Options{
		In:            os.Stdin,
		Out:           os.Stdout,
		Raw:           raw,
		FrameRate:     cfg.Console.FrameRate,
		ExitWithChild: cfg.Console.ExitWithChild,
		Behavior: console.Behavior{
			LimitDigits: cfg.Behavior.LimitDigits,
			Substitute:  cfg.Behavior.Substitute,
		},
		Logger: logger,
	})

	logger.Info("starting",
		zap.String("session_id", s.ID().String()),
		zap.Strings("argv", argv),
		zap.Bool("raw", raw),
		zap.Bool("pty", cfg.Process.PTY))

	it.Start(s, argv)

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancelRun := context.WithCancel(gctx)
	defer cancelRun()

	g.Go(func() error {
		// the driver finishing ends the metrics server too
		defer cancelRun()
		return driver.Run(runCtx)
	})

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metricsHandler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-runCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	logger.Info("stopped", zap.Any("metrics", metrics.Snapshot()), zap.Error(err))
	return err
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
