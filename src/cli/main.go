package main

import (
	"os"

	"github.com/kodecks/kodeship/src/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
