package terminal

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/de-tools/bacc-research/pkg/models/domain"
	"github.com/de-tools/bacc-research/pkg/runtime/terminal/export"
	"github.com/de-tools/bacc-research/pkg/services/allowance"
)

const (
	FormatTable = "table"
	FormatPlain = "plain"
)

// ReportHandler renders an allowance report.
type ReportHandler interface {
	Handle(report *domain.Report) error
}

// CLI represents the command-line interface
type CLI struct {
	calculator allowance.Calculator
	reporters  map[string]ReportHandler
	output     io.Writer
	rootCmd    *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Calculator allowance.Calculator
	Output     io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Calculator == nil {
		opts.Calculator = allowance.NewCalculator(allowance.DefaultTables())
	}

	cli := &CLI{
		calculator: opts.Calculator,
		reporters: map[string]ReportHandler{
			FormatTable: export.NewReporter(opts.Output),
			FormatPlain: NewReporter(opts.Output),
		},
		output: opts.Output,
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

// SetArgs overrides os.Args, mainly for tests.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bacc",
		Short:         "Child care allowance calculator and data export tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(cli.output)

	cmd.AddCommand(cli.newCalculateCmd())
	cmd.AddCommand(cli.newOptionsCmd())
	cmd.AddCommand(cli.newExportCmd())

	return cmd
}
