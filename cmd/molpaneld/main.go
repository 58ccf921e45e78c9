package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/molpanel/internal/cli/daemon"
)

var version = "dev"

func main() {
	rootCmd := daemon.RootCmd(version)

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
