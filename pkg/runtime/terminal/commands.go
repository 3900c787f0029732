package terminal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/de-tools/bacc-research/pkg/adapters"
	"github.com/de-tools/bacc-research/pkg/config"
	"github.com/de-tools/bacc-research/pkg/models/domain"
	"github.com/de-tools/bacc-research/pkg/models/store"
	"github.com/de-tools/bacc-research/pkg/services/export"
	"github.com/de-tools/bacc-research/pkg/store/jsonfile"
)

const (
	exportCalculations = "calculations"
	exportSurveys      = "surveys"
)

func (cli *CLI) newCalculateCmd() *cobra.Command {
	var (
		rank      string
		location  string
		costShare float64
		children  []string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate the monthly allowance for one or more children",
		Example: `  bacc calculate --rank E-5 --location "Standard Cost" --cost-share 25 \
    --child "Infant (0-12 months)" --child "School-age (6-13 years)"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reporter, ok := cli.reporters[format]
			if !ok {
				return fmt.Errorf("unknown format %q", format)
			}

			req := domain.AllowanceRequest{
				Rank:             domain.Rank(rank),
				Location:         domain.Location(location),
				CostSharePercent: costShare,
			}
			for _, age := range children {
				req.Children = append(req.Children, domain.ChildInput{Age: domain.AgeBracket(age)})
			}

			result, err := cli.calculator.Calculate(req)
			if err != nil {
				return err
			}
			return reporter.Handle(adapters.MapDomainResultToReport(req, *result))
		},
	}

	cmd.Flags().StringVar(&rank, "rank", "", "Pay grade, e.g. E-5")
	cmd.Flags().StringVar(&location, "location", string(domain.LocationStandard), "Location cost band")
	cmd.Flags().Float64Var(&costShare, "cost-share", 0, "Cost share percentage (0-100)")
	cmd.Flags().StringArrayVar(&children, "child", nil, "Age bracket of a child (repeatable)")
	cmd.Flags().StringVar(&format, "format", FormatTable, "Output format: table or plain")
	_ = cmd.MarkFlagRequired("rank")

	return cmd
}

func (cli *CLI) newOptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List valid ranks, locations and age brackets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables := cli.calculator.Tables()
			opts := adapters.MapDomainTablesToApiOptions(tables.Ranks(), tables.Locations(), tables.AgeBrackets())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ranks:     %s\n", strings.Join(opts.Ranks, ", "))
			fmt.Fprintf(out, "Locations: %s\n", strings.Join(opts.Locations, ", "))
			fmt.Fprintf(out, "Ages:      %s\n", strings.Join(opts.Ages, ", "))
			return nil
		},
	}
}

func (cli *CLI) newExportCmd() *cobra.Command {
	var (
		cfgPath string
		dataDir string
	)

	cmd := &cobra.Command{
		Use:       "export calculations|surveys",
		Short:     "Write stored calculations or survey responses as CSV to stdout",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{exportCalculations, exportSurveys},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if dataDir != "" {
				cfg.Storage.DataDir = dataDir
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()

			switch args[0] {
			case exportCalculations:
				records, err := readAll[store.CalculationRecord](ctx, cfg.CalculationsPath())
				if err != nil {
					return err
				}
				return export.WriteCalculations(out, records)
			default:
				records, err := readAll[store.SurveyRecord](ctx, cfg.SurveysPath())
				if err != nil {
					return err
				}
				return export.WriteSurveys(out, records)
			}
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory holding the data files (overrides config)")

	return cmd
}

func readAll[T any](ctx context.Context, path string) ([]T, error) {
	s, err := jsonfile.NewStore[T](path)
	if err != nil {
		return nil, err
	}
	records, err := s.ReadAll(ctx)
	if errors.Is(err, jsonfile.ErrNoData) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, err
}
