package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andrej220/netaudit/internal/fleet"
	"github.com/andrej220/netaudit/internal/inventory"
	"github.com/andrej220/netaudit/internal/lg"
	"github.com/andrej220/netaudit/internal/metrics"
	"github.com/andrej220/netaudit/internal/runner"
	"github.com/andrej220/netaudit/internal/sink"
	"github.com/andrej220/netaudit/internal/tasks"
	"github.com/andrej220/netaudit/pkg/executor"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type runOptions struct {
	configPath  string
	inventory   string
	collect     []string
	backupDir   string
	ntpServer   string
	workers     int
	out         string
	metricsFile string
	debug       bool
	logFormat   string

	// dialer replaces the SSH dialer in tests.
	dialer executor.Dialer
}

func newRunCmd() *cobra.Command {
	return newRunCmdWithOptions(&runOptions{})
}

func newRunCmdWithOptions(opts *runOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run tasks on every device of an inventory",
		Long: `Run the selected tasks on every device of the inventory.

Devices are processed concurrently. A device that cannot be reached, or a task
that fails on one device, never affects the other devices. Results are printed
in inventory order once every device has finished.

Output:
  stdout  one pipe-delimited line per successful device
  stderr  device failures (red), task failures (yellow), logs

Examples:
  netaudit run -i inventory.yaml -c all
  netaudit run -i inventory.yaml -c backup -c ntp --ntp-server 10.0.0.123
  netaudit run -i inventory.yaml -c all --config netaudit.yaml --out results.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			code, err := runAudit(ctx, cmd, opts)
			if err != nil || code != exitOK {
				return &exitError{code: code, err: err}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.inventory, "inventory", "i", "", "Inventory YAML file")
	f.StringSliceVarP(&opts.collect, "collect", "c", nil, "Tasks to run: backup, software, cdp, ntp or all (repeatable, comma separated)")
	f.StringVar(&opts.configPath, "config", "", "Service config YAML file")
	f.StringVar(&opts.backupDir, "backup-dir", "", "Directory for configuration backups")
	f.StringVar(&opts.ntpServer, "ntp-server", "", "NTP server probed and configured by the ntp task")
	f.IntVar(&opts.workers, "workers", 0, "Maximum devices processed at once (0 = all)")
	f.StringVar(&opts.out, "out", "", "Write run records as JSON to this file")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format to this file")
	f.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	f.StringVar(&opts.logFormat, "log-format", "json", "Log format: json or console")
	return cmd
}

// applyFlags lets explicitly set flags override the config file.
func applyFlags(cmd *cobra.Command, opts *runOptions, cfg *NetauditConfig) {
	f := cmd.Flags()
	if f.Changed("backup-dir") {
		cfg.BackupDir = opts.backupDir
	}
	if f.Changed("ntp-server") {
		cfg.NTPServer = opts.ntpServer
	}
	if f.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if f.Changed("out") {
		cfg.Output.JSONFile = opts.out
	}
	if f.Changed("metrics-file") {
		cfg.Output.MetricsFile = opts.metricsFile
	}
}

func runAudit(ctx context.Context, cmd *cobra.Command, opts *runOptions) (int, error) {
	if opts.inventory == "" || len(opts.collect) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to do")
		return exitOK, nil
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return exitFatal, err
	}
	applyFlags(cmd, opts, cfg)
	if err := cfg.Validate(); err != nil {
		return exitFatal, err
	}

	runID := uuid.New()
	logger := lg.New(&lg.Config{ServiceName: SERVICENAME, Debug: opts.debug, Format: opts.logFormat}).
		With(lg.String("run_id", runID.String()))
	defer logger.Sync()
	ctx = lg.Attach(ctx, logger)

	devices, err := inventory.Load(opts.inventory)
	if err != nil {
		return exitFatal, err
	}

	dialer := opts.dialer
	if dialer == nil {
		dialer = executor.NewSSHDialer(cfg.SSHSettings())
	}
	m := metrics.New()
	registry := tasks.DefaultRegistry(tasks.Options{BackupDir: cfg.BackupDir, NTPServer: cfg.NTPServer})
	orchestrator := fleet.New(registry, runner.New(dialer, runner.WithObserver(m)), cfg.Workers)

	results, err := orchestrator.Run(ctx, devices, opts.collect)
	if err != nil {
		return exitFatal, err
	}

	records := sink.Records(runID, time.Now().UTC(), results)
	sink.Dispatch(ctx, records, buildSinks(ctx, cmd, cfg)...)

	if path := cfg.Output.MetricsFile; path != "" {
		if err := m.WriteFile(path); err != nil {
			logger.Error("writing metrics file failed", lg.String("path", path), lg.Err(err))
		}
	}

	if !fleet.Summarize(results).Clean() {
		return exitPartial, nil
	}
	return exitOK, nil
}

// buildSinks returns the console sink plus every configured optional sink.
// A sink that cannot be set up is logged and skipped.
func buildSinks(ctx context.Context, cmd *cobra.Command, cfg *NetauditConfig) []sink.Sink {
	logger := lg.FromContext(ctx)
	sinks := []sink.Sink{sink.NewConsole(cmd.OutOrStdout(), cmd.ErrOrStderr())}

	if cfg.Output.JSONFile != "" {
		sinks = append(sinks, sink.NewFile(cfg.Output.JSONFile))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		sinks = append(sinks, sink.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic))
	}
	if cfg.Mongo.URI != "" {
		mongoSink, err := sink.NewMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err != nil {
			logger.Error("mongo sink unavailable", lg.Err(err))
		} else {
			sinks = append(sinks, mongoSink)
		}
	}
	return sinks
}
