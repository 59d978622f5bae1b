// Package base carries the state shared by every CLI command: the logger,
// the UI, and a flag set wrapper that renders its own help text.
package base

import (
	"flag"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded by every leaf command.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui
}

// NewCommand creates the shared command state.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{Log: log, UI: ui}
}

// FlagSet wraps flag.FlagSet so commands can append generated flag help to
// their Help output.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps a flag set.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: f}
}

// Changed reports whether the named flag was set explicitly on the
// command line. Commands use it to let flags override config file values
// without clobbering them with flag defaults.
func (f *FlagSet) Changed(name string) bool {
	changed := false
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			changed = true
		}
	})
	return changed
}

// Help renders the defined flags as an indented usage block.
func (f *FlagSet) Help() string {
	var b strings.Builder
	b.WriteString("\n\nOptions:\n")
	f.VisitAll(func(fl *flag.Flag) {
		b.WriteString("  -" + fl.Name)
		if fl.DefValue != "" {
			b.WriteString(" (default: " + fl.DefValue + ")")
		}
		b.WriteString("\n      " + fl.Usage + "\n")
	})
	return strings.TrimRight(b.String(), "\n")
}
