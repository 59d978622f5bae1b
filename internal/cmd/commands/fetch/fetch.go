package fetch

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ocean-watch/rfmo-ingestion/internal/cmd/base"
	"github.com/ocean-watch/rfmo-ingestion/pkg/adapters"
	"github.com/ocean-watch/rfmo-ingestion/pkg/config"
	"github.com/ocean-watch/rfmo-ingestion/pkg/database"
	fetchsvc "github.com/ocean-watch/rfmo-ingestion/pkg/fetch"
	"github.com/ocean-watch/rfmo-ingestion/pkg/ingest"
	"github.com/ocean-watch/rfmo-ingestion/pkg/metrics"
	"github.com/ocean-watch/rfmo-ingestion/pkg/storage"
	"github.com/ocean-watch/rfmo-ingestion/pkg/store"
)

type Command struct {
	*base.Command

	flagConfig      string
	flagDBPath      string
	flagStorageRoot string
	flagOutput      string
	flagAdapters    string
}

func (c *Command) Synopsis() string {
	return "Run one ingestion pass and write the raw artifact paths"
}

func (c *Command) Help() string {
	return `Usage: rfmo fetch [options]

  Runs one full discovery/fetch/ingest pass over the selected adapters,
  then writes a JSON report with the run result and every stored raw
  artifact path.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("fetch", flag.ExitOnError))

	f.StringVar(&c.flagConfig, "config", "",
		"Path to an optional YAML config file.")
	f.StringVar(&c.flagDBPath, "db-path", "./rfmo_ingestion.db",
		"Path to the SQLite metadata database.")
	f.StringVar(&c.flagStorageRoot, "storage-root", "./rfmo",
		"Root directory for versioned artifacts.")
	f.StringVar(&c.flagOutput, "output", "./raw_file_paths.json",
		"Path of the JSON report to write.")
	f.StringVar(&c.flagAdapters, "adapters", "iccat,wcpfc,iotc",
		"Comma-separated adapter names. Empty runs every registered adapter.")

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
		cfg.Adapters.Default = SplitAdapterNames(c.flagAdapters)
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

	result, err := engine.RunOnce(context.Background(), cfg.Adapters.Default)
	if err != nil {
		ui.Error(fmt.Sprintf("error running ingestion: %v", err))
		return 1
	}

	rawPaths, err := engine.ListStoragePaths("")
	if err != nil {
		ui.Error(fmt.Sprintf("error listing storage paths: %v", err))
		return 1
	}
	if rawPaths == nil {
		rawPaths = []string{}
	}

	payload, err := json.MarshalIndent(map[string]interface{}{
		"run":       result,
		"raw_paths": rawPaths,
	}, "", "  ")
	if err != nil {
		ui.Error(fmt.Sprintf("error encoding report: %v", err))
		return 1
	}
	if err := os.WriteFile(c.flagOutput, payload, 0o644); err != nil {
		ui.Error(fmt.Sprintf("error writing report: %v", err))
		return 1
	}

	ui.Output(fmt.Sprintf("saved=%s", c.flagOutput))
	ui.Output(fmt.Sprintf("ingested=%d", result.Metrics.DocumentsIngested))
	ui.Output(fmt.Sprintf("skipped=%d", result.Metrics.DocumentsSkipped))
	ui.Output(fmt.Sprintf("failures=%d", result.Metrics.Failures))
	return 0
}

// SplitAdapterNames parses a comma-separated adapter list, dropping empty
// entries.
func SplitAdapterNames(csv string) []string {
	var names []string
	for _, part := range strings.Split(csv, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
