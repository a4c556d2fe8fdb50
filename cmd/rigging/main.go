package main

import (
	"os"

	"github.com/slimloans/rigging/cli"
)

func main() {
	if err := cli.Execute(cli.Options{}); err != nil {
		os.Exit(1)
	}
}
