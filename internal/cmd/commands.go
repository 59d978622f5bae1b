package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/ocean-watch/rfmo-ingestion/internal/cmd/base"
	alertscommand "github.com/ocean-watch/rfmo-ingestion/internal/cmd/commands/alerts"
	fetchcommand "github.com/ocean-watch/rfmo-ingestion/internal/cmd/commands/fetch"
	runcommand "github.com/ocean-watch/rfmo-ingestion/internal/cmd/commands/run"
	versioncommand "github.com/ocean-watch/rfmo-ingestion/internal/cmd/commands/version"
)

// Commands is the CLI command registry.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	baseCommand := base.NewCommand(log, ui)

	Commands = map[string]cli.CommandFactory{
		"fetch": func() (cli.Command, error) {
			return &fetchcommand.Command{Command: baseCommand}, nil
		},
		"alerts": func() (cli.Command, error) {
			return &alertscommand.Command{Command: baseCommand}, nil
		},
		"run": func() (cli.Command, error) {
			return &runcommand.Command{Command: baseCommand}, nil
		},
		"version": func() (cli.Command, error) {
			return &versioncommand.Command{Command: baseCommand}, nil
		},
	}
}
