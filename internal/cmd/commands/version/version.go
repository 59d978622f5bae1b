package version

import (
	"fmt"

	"github.com/ocean-watch/rfmo-ingestion/internal/cmd/base"
	buildversion "github.com/ocean-watch/rfmo-ingestion/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return "Usage: rfmo version"
}

func (c *Command) Run(args []string) int {
	c.UI.Output(fmt.Sprintf("rfmo %s", buildversion.Version))
	return 0
}
