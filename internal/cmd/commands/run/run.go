package run

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ocean-watch/rfmo-ingestion/internal/cmd/base"
	fetchcmd "github.com/ocean-watch/rfmo-ingestion/internal/cmd/commands/fetch"
	"github.com/ocean-watch/rfmo-ingestion/pkg/adapters"
	"github.com/ocean-watch/rfmo-ingestion/pkg/config"
	"github.com/ocean-watch/rfmo-ingestion/pkg/database"
	fetchsvc "github.com/ocean-watch/rfmo-ingestion/pkg/fetch"
	"github.com/ocean-watch/rfmo-ingestion/pkg/ingest"
	"github.com/ocean-watch/rfmo-ingestion/pkg/metrics"
	"github.com/ocean-watch/rfmo-ingestion/pkg/scheduler"
	"github.com/ocean-watch/rfmo-ingestion/pkg/storage"
	"github.com/ocean-watch/rfmo-ingestion/pkg/store"
)

type Command struct {
	*base.Command

	flagConfig      string
	flagDBPath      string
	flagStorageRoot string
	flagAdapters    string
	flagInterval    time.Duration
	flagMetricsAddr string
}

func (c *Command) Synopsis() string {
	return "Run the periodic ingestion scheduler with a metrics endpoint"
}

func (c *Command) Help() string {
	return `Usage: rfmo run [options]

  Starts the fixed-interval ingestion scheduler and the Prometheus
  metrics endpoint, then runs until interrupted.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("run", flag.ExitOnError))

	f.StringVar(&c.flagConfig, "config", "",
		"Path to an optional YAML config file.")
	f.StringVar(&c.flagDBPath, "db-path", "./rfmo_ingestion.db",
		"Path to the SQLite metadata database.")
	f.StringVar(&c.flagStorageRoot, "storage-root", "./rfmo",
		"Root directory for versioned artifacts.")
	f.StringVar(&c.flagAdapters, "adapters", "iccat,wcpfc,iotc",
		"Comma-separated adapter names. Empty runs every registered adapter.")
	f.DurationVar(&c.flagInterval, "interval", scheduler.DefaultInterval,
		"Spacing between scheduled runs.")
	f.StringVar(&c.flagMetricsAddr, "metrics-addr", metrics.DefaultAddr,
		"Listen address for the metrics endpoint.")

	return f
}

func (c *Command) Run(args []string) int {
	ui := c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := config.Load(c.flagConfig)
	if err != nil {
		ui.Error(fmt.Sprintf("error loading config: %v", err))
		return 1
	}
	if flags.Changed("db-path") {
		cfg.Database.Path = c.flagDBPath
	}
	if flags.Changed("storage-root") {
		cfg.Storage.Root = c.flagStorageRoot
	}
	if flags.Changed("adapters") || len(cfg.Adapters.Default) == 0 {
		cfg.Adapters.Default = fetchcmd.SplitAdapterNames(c.flagAdapters)
	}
	if flags.Changed("interval") {
		cfg.Scheduler.Interval = config.Duration(c.flagInterval)
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = c.flagMetricsAddr
	}

	db, err := database.Connect(database.Config{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		DSN:    cfg.Database.DSN,
	}, c.Log)
	if err != nil {
		ui.Error(fmt.Sprintf("error opening database: %v", err))
		return 1
	}

	counters := metrics.NewRegistry()
	registry := adapters.NewRegistry(adapters.RegistryOptions{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.Fetch.Timeout.Std(),
		Logger:    c.Log,
		Counter:   counters,
	})

	engine := ingest.New(
		store.New(db, c.Log),
		storage.New(cfg.Storage.Root, c.Log),
		registry,
		ingest.WithLogger(c.Log),
		ingest.WithMetrics(counters),
		ingest.WithFetchConfig(fetchsvc.Config{
			MaxAttempts: cfg.Fetch.MaxAttempts,
			BackoffBase: cfg.Fetch.BackoffBase.Std(),
			MinInterval: cfg.Fetch.MinInterval.Std(),
			UserAgent:   cfg.Fetch.UserAgent,
		}),
	)

	metricsServer := metrics.NewServer(counters, cfg.Metrics.Addr, c.Log)
	metricsServer.Start()

	sched := scheduler.New(engine, cfg.Scheduler.Interval.Std(), c.Log)
	sched.Start(cfg.Adapters.Default)

	ui.Output(fmt.Sprintf("scheduler running, interval=%s metrics=%s", cfg.Scheduler.Interval.Std(), cfg.Metrics.Addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	ui.Output("shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Stop(shutdownCtx); err != nil {
		ui.Error(fmt.Sprintf("error stopping metrics endpoint: %v", err))
	}

	return 0
}
