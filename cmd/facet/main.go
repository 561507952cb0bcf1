package main

import (
	"os"

	"facet/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
