package alerts

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/ocean-watch/rfmo-ingestion/internal/cmd/base"
	alertgen "github.com/ocean-watch/rfmo-ingestion/pkg/alerts"
)

type Command struct {
	*base.Command

	flagStorageRoot string
	flagOutput      string
	flagDays        int
}

func (c *Command) Synopsis() string {
	return "Generate actionable alerts from the persisted artifact corpus"
}

func (c *Command) Help() string {
	return `Usage: rfmo alerts [options]

  Walks the artifact store, classifies each persisted document, and
  writes the resulting alerts as JSON.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("alerts", flag.ExitOnError))

	f.StringVar(&c.flagStorageRoot, "storage-root", "./rfmo",
		"Root directory of the versioned artifact store.")
	f.StringVar(&c.flagOutput, "output", "./alerts.json",
		"Path of the alerts JSON file to write.")
	f.IntVar(&c.flagDays, "days", 7,
		"Only include documents published in the last N days. 0 includes all.")

	return f
}

func (c *Command) Run(args []string) int {
	ui := c.UI

	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	generator := alertgen.New(c.flagStorageRoot, c.Log)
	alerts, err := generator.Generate(c.flagDays)
	if err != nil {
		ui.Error(fmt.Sprintf("error generating alerts: %v", err))
		return 1
	}

	payload, err := json.MarshalIndent(map[string]interface{}{"alerts": alerts}, "", "  ")
	if err != nil {
		ui.Error(fmt.Sprintf("error encoding alerts: %v", err))
		return 1
	}
	if err := os.WriteFile(c.flagOutput, payload, 0o644); err != nil {
		ui.Error(fmt.Sprintf("error writing alerts: %v", err))
		return 1
	}

	ui.Output(fmt.Sprintf("saved=%s", c.flagOutput))
	ui.Output(fmt.Sprintf("alerts=%d", len(alerts)))
	return 0
}
