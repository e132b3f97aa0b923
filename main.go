package main

import (
	"os"

	"github.com/cwbudde/evosolve/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
