package main

import (
	"os"

	"github.com/careerpilot/jobradar/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
