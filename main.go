package main

import (
	"os"

	"github.com/signalnine/smacview/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
