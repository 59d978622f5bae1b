package main

import (
	"os"

	"github.com/ocean-watch/rfmo-ingestion/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
