package calculator

import (
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/de-tools/bacc-research/pkg/adapters"
	"github.com/de-tools/bacc-research/pkg/handlers/httpio"
	"github.com/de-tools/bacc-research/pkg/metrics"
	"github.com/de-tools/bacc-research/pkg/models/api"
	"github.com/de-tools/bacc-research/pkg/models/store"
	"github.com/de-tools/bacc-research/pkg/services/allowance"
	"github.com/de-tools/bacc-research/pkg/services/export"
	"github.com/de-tools/bacc-research/pkg/services/records"
	"github.com/de-tools/bacc-research/pkg/store/jsonfile"
)

const exportFilename = "bacc_calculations.csv"

var calculateSchema = httpio.MustSchema(`{
	"type": "object",
	"required": ["rank", "location", "children"],
	"properties": {
		"rank": {"type": "string", "minLength": 1},
		"location": {"type": "string", "minLength": 1},
		"costShare": {"type": ["number", "string", "null"]},
		"children": {"type": "array"}
	}
}`)

type Handler struct {
	calculator allowance.Calculator
	records    records.Service
	metrics    *metrics.Metrics
}

func NewHandler(calculator allowance.Calculator, svc records.Service, m *metrics.Metrics) *Handler {
	return &Handler{
		calculator: calculator,
		records:    svc,
		metrics:    m,
	}
}

// Calculate prices the request and records it. A failed save is logged but the
// result is still returned.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req api.CalculateRequest
	if err := httpio.Decode(r, calculateSchema, &req); err != nil {
		httpio.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	domainReq := adapters.MapApiRequestToDomainRequest(req)
	result, err := h.calculator.Calculate(domainReq)
	if err != nil {
		if errors.Is(err, allowance.ErrUnknownRank) ||
			errors.Is(err, allowance.ErrUnknownLocation) ||
			errors.Is(err, allowance.ErrInvalidCostShare) {
			httpio.Error(w, r, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error().Err(err).Msg("failed to calculate allowance")
		httpio.Error(w, r, http.StatusInternalServerError, "Failed to calculate allowance")
		return
	}

	if _, err := h.records.SaveCalculation(ctx, domainReq, *result); err != nil {
		h.metrics.StoreWriteFailures.WithLabelValues("calculations").Inc()
		logger.Error().
			Err(err).
			Str("rank", req.Rank).
			Msg("failed to save calculation")
	}
	h.metrics.Calculations.Inc()

	httpio.JSON(w, r, http.StatusOK, adapters.MapDomainResultToApiResult(*result))
}

func (h *Handler) Options(w http.ResponseWriter, r *http.Request) {
	tables := h.calculator.Tables()
	httpio.JSON(w, r, http.StatusOK,
		adapters.MapDomainTablesToApiOptions(tables.Ranks(), tables.Locations(), tables.AgeBrackets()))
}

func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	calcs, err := h.records.Calculations(r.Context())
	if err != nil && !errors.Is(err, jsonfile.ErrNoData) {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to read calculations")
		httpio.Error(w, r, http.StatusInternalServerError, "Failed to read data")
		return
	}

	httpio.JSON(w, r, http.StatusOK, api.DataResponse[store.CalculationRecord]{
		Message: "Calculation data retrieved successfully",
		Count:   len(calcs),
		Data:    httpio.NonNil(calcs),
	})
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	calcs, err := h.records.Calculations(r.Context())
	if errors.Is(err, jsonfile.ErrNoData) {
		httpio.Error(w, r, http.StatusNotFound, httpio.NoDataMessage)
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to read calculations")
		httpio.Error(w, r, http.StatusInternalServerError, "Failed to export data")
		return
	}

	httpio.CSV(w, r, exportFilename, func(out io.Writer) error {
		return export.WriteCalculations(out, calcs)
	})
}
