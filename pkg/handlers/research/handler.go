package research

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/de-tools/bacc-research/pkg/adapters"
	"github.com/de-tools/bacc-research/pkg/handlers/httpio"
	"github.com/de-tools/bacc-research/pkg/metrics"
	"github.com/de-tools/bacc-research/pkg/models/api"
	"github.com/de-tools/bacc-research/pkg/models/store"
	"github.com/de-tools/bacc-research/pkg/services/export"
	"github.com/de-tools/bacc-research/pkg/store/research"
)

const exportFilename = "research_data.csv"

var upsertSchema = httpio.MustSchema(`{
	"type": "object",
	"required": ["sessionId"],
	"properties": {
		"sessionId": {"type": "string", "minLength": 1},
		"calculatorData": {
			"type": ["object", "null"],
			"additionalProperties": {"type": "object"}
		},
		"surveyData": {
			"type": ["object", "null"],
			"additionalProperties": {"type": "object"}
		},
		"metadata": {"type": ["object", "null"]},
		"completionStatus": {"type": ["object", "null"]}
	}
}`)

type Handler struct {
	store   research.Store
	metrics *metrics.Metrics
}

func NewHandler(researchStore research.Store, m *metrics.Metrics) *Handler {
	return &Handler{
		store:   researchStore,
		metrics: m,
	}
}

func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req api.ResearchDataRequest
	if err := httpio.Decode(r, upsertSchema, &req); err != nil {
		httpio.JSON(w, r, http.StatusBadRequest, api.ResearchDataResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	rec, err := h.store.Upsert(ctx, adapters.MapApiResearchToStoreUpdate(req))
	if errors.Is(err, research.ErrMissingSessionID) {
		httpio.JSON(w, r, http.StatusBadRequest, api.ResearchDataResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}
	if err != nil {
		h.metrics.ResearchUpserts.WithLabelValues("error").Inc()
		logger.Error().
			Err(err).
			Str("session_id", req.SessionID).
			Msg("failed to save research data")
		httpio.JSON(w, r, http.StatusInternalServerError, api.ResearchDataResponse{
			Success: false,
			Message: "Failed to save research data",
		})
		return
	}
	h.metrics.ResearchUpserts.WithLabelValues("ok").Inc()

	logger.Info().
		Str("session_id", rec.SessionID).
		Int("items", rec.ItemCount()).
		Msg("research data saved")
	httpio.JSON(w, r, http.StatusOK, api.ResearchDataResponse{
		Success:   true,
		Message:   "Research data saved successfully",
		SessionID: rec.SessionID,
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to list research data")
		httpio.Error(w, r, http.StatusInternalServerError, "Failed to read data")
		return
	}

	httpio.JSON(w, r, http.StatusOK, api.DataResponse[store.ResearchRecord]{
		Message: "Research data retrieved successfully",
		Count:   len(records),
		Data:    httpio.NonNil(records),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	rec, err := h.store.Get(r.Context(), sessionID)
	if errors.Is(err, research.ErrNotFound) {
		httpio.Error(w, r, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Str("session_id", sessionID).
			Msg("failed to get research data")
		httpio.Error(w, r, http.StatusInternalServerError, "Failed to read data")
		return
	}

	httpio.JSON(w, r, http.StatusOK, rec)
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to list research data")
		httpio.Error(w, r, http.StatusInternalServerError, "Failed to export data")
		return
	}
	if len(records) == 0 {
		httpio.Error(w, r, http.StatusNotFound, httpio.NoDataMessage)
		return
	}

	httpio.CSV(w, r, exportFilename, func(out io.Writer) error {
		return export.WriteResearch(out, records)
	})
}
