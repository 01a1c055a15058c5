package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/l0p7/routesweep/internal/config"
	"github.com/l0p7/routesweep/internal/logging"
	"github.com/l0p7/routesweep/internal/metrics"
	"github.com/l0p7/routesweep/internal/progress"
	"github.com/l0p7/routesweep/internal/report"
	"github.com/l0p7/routesweep/internal/sweep"
	"github.com/l0p7/routesweep/internal/targets"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// flagKeys maps CLI flags onto config keys. Only flags the operator set are
// forwarded so file and env values survive otherwise.
var flagKeys = map[string]string{
	"base-url":     "sweep.baseUrl",
	"targets":      "sweep.targetsFile",
	"export":       "sweep.exportFile",
	"concurrency":  "sweep.concurrency",
	"log-level":    "logging.level",
	"log-format":   "logging.format",
	"metrics-file": "metrics.file",
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var (
		configFile string
		envPrefix  string
		baseURL    string
		targetFile string
		exportFile string
		workers    int
		logLevel   string
		logFormat  string
		metricFile string
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:           "routesweep",
		Short:         "Probe a list of HTTP routes and report their status codes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			values := map[string]any{
				"base-url":     baseURL,
				"targets":      targetFile,
				"export":       exportFile,
				"concurrency":  workers,
				"log-level":    logLevel,
				"log-format":   logFormat,
				"metrics-file": metricFile,
			}
			overrides := make(map[string]any)
			for flagName, key := range flagKeys {
				if cmd.Flags().Changed(flagName) {
					overrides[key] = values[flagName]
				}
			}
			if cmd.Flags().Changed("no-progress") {
				overrides["progress.enabled"] = !noProgress
			}

			var files []string
			if configFile != "" {
				files = append(files, configFile)
			}
			cfg, err := config.NewLoader(envPrefix, files...).WithOverrides(overrides).Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return run(cmd.Context(), cfg, stdout, stderr)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&baseURL, "base-url", "", "URL prefix prepended to every route")
	flags.StringVar(&targetFile, "targets", "", "path to the descriptor list (JSON array, or YAML by extension)")
	flags.StringVar(&exportFile, "export", "", "write JSON results to this path instead of printing a table")
	flags.StringVar(&configFile, "config", "", "optional settings file (.yaml, .yml, .json, .toml)")
	flags.StringVar(&envPrefix, "env-prefix", "ROUTESWEEP", "environment variable prefix")
	flags.IntVar(&workers, "concurrency", 1, "number of requests in flight; results keep input order")
	flags.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	flags.StringVar(&metricFile, "metrics-file", "", "write Prometheus text metrics here after the sweep")
	flags.BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}

// run executes one sweep and renders it. Per-descriptor failures never make it
// return an error; only startup, interruption and output problems do.
func run(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	logger, err := logging.NewWithWriter(cfg.Logging, stderr)
	if err != nil {
		return fmt.Errorf("failed to configure logger: %w", err)
	}

	descriptors, err := targets.Load(cfg.Sweep.TargetsFile)
	if err != nil {
		logger.Error("targets load failed", slog.String("targets_file", cfg.Sweep.TargetsFile), slog.Any("error", err))
		return err
	}
	if unsupported := lo.CountBy(descriptors, func(d targets.Descriptor) bool { return !sweep.Supported(d.Method) }); unsupported > 0 {
		logger.Warn("descriptors with unsupported methods will be reported as errors", slog.Int("count", unsupported))
	}

	var recorder *metrics.Recorder
	if cfg.Metrics.File != "" {
		recorder = metrics.NewRecorder(nil)
	}

	var bar *progress.Bar
	if cfg.Progress.Enabled && len(descriptors) > 0 {
		bar = progress.New(stderr, len(descriptors))
	}

	runner := sweep.NewRunner(sweep.Options{
		Logger:      logger,
		Metrics:     recorder,
		Progress:    bar.Observe,
		Concurrency: cfg.Sweep.Concurrency,
	})
	results, err := runner.Run(ctx, cfg.Sweep.BaseURL, descriptors)
	if closeErr := bar.Close(); closeErr != nil {
		logger.Debug("progress bar close failed", slog.Any("error", closeErr))
	}
	if err != nil {
		return fmt.Errorf("sweep interrupted: %w", err)
	}

	failed := lo.CountBy(results, func(r sweep.Result) bool { return r.Failed() })
	logger.Info("sweep summary",
		slog.Int("descriptors", len(results)),
		slog.Int("succeeded", len(results)-failed),
		slog.Int("failed", failed))

	doc := report.NewDocument(cfg.Sweep.BaseURL, cfg.Sweep.TargetsFile, cfg.Sweep.ExportFile, results)
	if err := report.Render(stdout, doc, cfg.Sweep.ExportFile); err != nil {
		logger.Error("report failed", slog.Any("error", err))
		return err
	}

	if cfg.Metrics.File != "" {
		if err := recorder.WriteTextfile(cfg.Metrics.File); err != nil {
			logger.Error("metrics write failed", slog.Any("error", err))
			return err
		}
	}
	return nil
}
