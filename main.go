package main

import (
	"os"

	"github.com/sherine-k/roundabout/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
