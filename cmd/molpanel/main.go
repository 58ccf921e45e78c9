package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/molpanel/internal/cli/client"
)

var version = "dev"

func main() {
	if err := client.RootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
