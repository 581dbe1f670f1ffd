package main

import (
	"os"

	"github.com/spigell/cv-assessor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
