package survey

import (
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/de-tools/bacc-research/pkg/handlers/httpio"
	"github.com/de-tools/bacc-research/pkg/metrics"
	"github.com/de-tools/bacc-research/pkg/models/api"
	"github.com/de-tools/bacc-research/pkg/models/store"
	"github.com/de-tools/bacc-research/pkg/services/export"
	"github.com/de-tools/bacc-research/pkg/services/records"
	"github.com/de-tools/bacc-research/pkg/store/jsonfile"
)

const exportFilename = "survey_responses.csv"

var submitSchema = httpio.MustSchema(`{
	"type": "object",
	"required": ["responses"],
	"properties": {
		"timestamp": {"type": ["string", "null"]},
		"responses": {"type": "object"}
	}
}`)

type Handler struct {
	records records.Service
	metrics *metrics.Metrics
}

func NewHandler(svc records.Service, m *metrics.Metrics) *Handler {
	return &Handler{
		records: svc,
		metrics: m,
	}
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req api.SubmitSurveyRequest
	if err := httpio.Decode(r, submitSchema, &req); err != nil {
		httpio.JSON(w, r, http.StatusBadRequest, api.SubmitSurveyResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	rec, err := h.records.SaveSurvey(ctx, req.Timestamp, req.Responses)
	if err != nil {
		h.metrics.StoreWriteFailures.WithLabelValues("surveys").Inc()
		logger.Error().Err(err).Msg("failed to save survey response")
		httpio.JSON(w, r, http.StatusInternalServerError, api.SubmitSurveyResponse{
			Success: false,
			Message: "Failed to save survey response",
		})
		return
	}
	h.metrics.SurveySubmissions.Inc()

	logger.Info().Str("survey_id", rec.ID).Int("answers", len(rec.Responses)).Msg("survey response saved")
	httpio.JSON(w, r, http.StatusOK, api.SubmitSurveyResponse{
		Success: true,
		Message: "Survey response saved successfully",
		ID:      rec.ID,
	})
}

func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.records.Surveys(r.Context())
	if err != nil && !errors.Is(err, jsonfile.ErrNoData) {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to read surveys")
		httpio.Error(w, r, http.StatusInternalServerError, "Failed to read data")
		return
	}

	httpio.JSON(w, r, http.StatusOK, api.DataResponse[store.SurveyRecord]{
		Message: "Survey data retrieved successfully",
		Count:   len(surveys),
		Data:    httpio.NonNil(surveys),
	})
}

func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	surveys, err := h.records.Surveys(r.Context())
	if errors.Is(err, jsonfile.ErrNoData) {
		httpio.Error(w, r, http.StatusNotFound, httpio.NoDataMessage)
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to read surveys")
		httpio.Error(w, r, http.StatusInternalServerError, "Failed to export data")
		return
	}

	httpio.CSV(w, r, exportFilename, func(out io.Writer) error {
		return export.WriteSurveys(out, surveys)
	})
}
