package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	calculatorhandlers "github.com/de-tools/bacc-research/pkg/handlers/calculator"
	"github.com/de-tools/bacc-research/pkg/handlers/httpio"
	researchhandlers "github.com/de-tools/bacc-research/pkg/handlers/research"
	surveyhandlers "github.com/de-tools/bacc-research/pkg/handlers/survey"
	"github.com/de-tools/bacc-research/pkg/metrics"
	"github.com/de-tools/bacc-research/pkg/models/api"
	baccmiddleware "github.com/de-tools/bacc-research/pkg/server/middleware"
	"github.com/de-tools/bacc-research/pkg/services/allowance"
	"github.com/de-tools/bacc-research/pkg/services/records"
	"github.com/de-tools/bacc-research/pkg/store/research"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	defaultRateLimit       = 100
	defaultRateWindow      = time.Minute
)

type WebAPI struct {
	router          http.Handler
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Calculator allowance.Calculator
	Records    records.Service
	Research   research.Store
	Metrics    *metrics.Metrics
	Logger     zerolog.Logger
}

type RateLimit struct {
	Requests int
	Window   time.Duration
}

type Config struct {
	Addr            string
	BasePath        string
	ShutdownTimeout time.Duration
	RateLimit       RateLimit
	Dependencies    Dependencies
}

func ConfigureRouter(config Config) http.Handler {
	deps := config.Dependencies
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	limit := config.RateLimit
	if limit.Requests <= 0 {
		limit.Requests = defaultRateLimit
	}
	if limit.Window <= 0 {
		limit.Window = defaultRateWindow
	}

	calcHandler := calculatorhandlers.NewHandler(deps.Calculator, deps.Records, deps.Metrics)
	surveyHandler := surveyhandlers.NewHandler(deps.Records, deps.Metrics)
	researchHandler := researchhandlers.NewHandler(deps.Research, deps.Metrics)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(baccmiddleware.Logger(&deps.Logger))
	router.Use(baccmiddleware.Metrics(deps.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(baccmiddleware.CORS())
	router.Use(baccmiddleware.SecureHeaders())
	router.Use(baccmiddleware.RateLimit(limit.Requests, limit.Window))

	routes := func(r chi.Router) {
		r.Get("/", index)
		r.Handle("/metrics", deps.Metrics.Handler())

		r.Route("/api", func(r chi.Router) {
			r.Get("/options", calcHandler.Options)
			r.Post("/calculate-bacc", calcHandler.Calculate)
			r.Get("/export-csv", calcHandler.ExportCSV)
			r.Get("/data", calcHandler.Data)

			r.Post("/submit-survey", surveyHandler.Submit)
			r.Get("/export-survey-csv", surveyHandler.ExportCSV)
			r.Get("/survey-data", surveyHandler.Data)

			r.Post("/research-data", researchHandler.Upsert)
			r.Get("/research-data", researchHandler.List)
			r.Get("/research-data/export/csv", researchHandler.ExportCSV)
			r.Get("/research-data/{sessionId}", researchHandler.Get)
		})
	}

	if base := strings.TrimRight(config.BasePath, "/"); base != "" {
		if !strings.HasPrefix(base, "/") {
			base = "/" + base
		}
		router.Route(base, routes)
	} else {
		routes(router)
	}

	return router
}

func index(w http.ResponseWriter, r *http.Request) {
	httpio.JSON(w, r, http.StatusOK, api.Message{Message: "BACC calculator API is running"})
}

func NewWebAPI(config Config) *WebAPI {
	logger := config.Dependencies.Logger
	router := ConfigureRouter(config)

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	return &WebAPI{
		router:          router,
		logger:          &logger,
		shutdownTimeout: timeout,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully.
func (w *WebAPI) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		w.logger.Info().Msg("context cancelled, shutting down")
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")
	}

	// Give outstanding requests a deadline for completion.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
	defer cancel()

	err := w.server.Shutdown(shutdownCtx)
	if err != nil {
		w.logger.Error().Err(err).Msg("graceful shutdown failed")
		err = w.server.Close()
	}
	return err
}
