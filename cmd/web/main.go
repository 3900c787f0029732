package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/bacc-research/pkg/config"
	"github.com/de-tools/bacc-research/pkg/metrics"
	"github.com/de-tools/bacc-research/pkg/models/store"
	"github.com/de-tools/bacc-research/pkg/server"
	"github.com/de-tools/bacc-research/pkg/services/allowance"
	"github.com/de-tools/bacc-research/pkg/services/records"
	"github.com/de-tools/bacc-research/pkg/store/backends"
	"github.com/de-tools/bacc-research/pkg/store/jsonfile"
)

var (
	cfgPath string
	envFile string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:          "web",
		Short:        "Start the BACC calculator and research API",
		RunE:         runServer,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to a YAML config file (defaults and BACC_* environment variables apply without it)")
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "Path to a .env file to load before reading config")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading %s file: %v\n", envFile, err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(os.Stdout, cfg.Log)
	if err != nil {
		return err
	}
	ctx := logger.WithContext(cmd.Context())

	calcStore, err := jsonfile.NewStore[store.CalculationRecord](cfg.CalculationsPath())
	if err != nil {
		return fmt.Errorf("failed to create calculation store: %w", err)
	}
	surveyStore, err := jsonfile.NewStore[store.SurveyRecord](cfg.SurveysPath())
	if err != nil {
		return fmt.Errorf("failed to create survey store: %w", err)
	}
	recordsSvc, err := records.NewService(calcStore, surveyStore)
	if err != nil {
		return fmt.Errorf("failed to create records service: %w", err)
	}

	researchStore, err := backends.OpenResearch(ctx, cfg.Research)
	if err != nil {
		return fmt.Errorf("failed to connect research store: %w", err)
	}
	defer func() {
		if err := researchStore.Close(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to close research store")
		}
	}()

	logger.Info().
		Str("calculations", calcStore.Path()).
		Str("surveys", surveyStore.Path()).
		Str("research_backend", cfg.Research.Backend).
		Msg("storage configured")

	api := server.NewWebAPI(server.Config{
		Addr:            cfg.Addr(),
		BasePath:        cfg.Server.BasePath,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimit: server.RateLimit{
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.Window,
		},
		Dependencies: server.Dependencies{
			Calculator: allowance.NewCalculator(allowance.DefaultTables()),
			Records:    recordsSvc,
			Research:   researchStore,
			Metrics:    metrics.New(),
			Logger:     logger,
		},
	})

	return api.Start(ctx)
}

func newLogger(out io.Writer, cfg config.LogConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
