package main

import (
	"fmt"
	"os"

	"github.com/de-tools/bacc-research/pkg/runtime/terminal"
	"github.com/de-tools/bacc-research/pkg/services/allowance"
)

func main() {
	cli := terminal.NewCLI(terminal.Options{
		Calculator: allowance.NewCalculator(allowance.DefaultTables()),
		Output:     os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
