package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/bacc-research/pkg/metrics"
	"github.com/de-tools/bacc-research/pkg/models/api"
	"github.com/de-tools/bacc-research/pkg/models/domain"
	"github.com/de-tools/bacc-research/pkg/models/store"
	"github.com/de-tools/bacc-research/pkg/services/allowance"
	"github.com/de-tools/bacc-research/pkg/services/records"
	"github.com/de-tools/bacc-research/pkg/store/jsonfile"
	"github.com/de-tools/bacc-research/pkg/store/research"
)

func testConfig(t *testing.T) Config {
	dir := t.TempDir()
	calcs, err := jsonfile.NewStore[store.CalculationRecord](filepath.Join(dir, "bacc_calculations.json"))
	require.NoError(t, err)
	surveys, err := jsonfile.NewStore[store.SurveyRecord](filepath.Join(dir, "survey_responses.json"))
	require.NoError(t, err)
	svc, err := records.NewService(calcs, surveys)
	require.NoError(t, err)

	return Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Dependencies: Dependencies{
			Calculator: allowance.NewCalculator(allowance.DefaultTables()),
			Records:    svc,
			Research:   research.NewMemoryStore(),
			Logger:     zerolog.New(zerolog.NewTestWriter(t)),
		},
	}
}

func do(t *testing.T, client *http.Client, method, url, body string, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	require.NoError(t, err, "Failed to send request")
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "Failed to read response body")
	return resp, data
}

func TestWebAPI_Endpoints(t *testing.T) {
	testServer := httptest.NewServer(ConfigureRouter(testConfig(t)))
	defer testServer.Close()
	client := testServer.Client()

	// Steps run in order: exports only have data after the writes above them.
	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
		check          func(t *testing.T, body []byte)
	}{
		{
			name:           "Index",
			method:         http.MethodGet,
			path:           "/",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var msg api.Message
				require.NoError(t, json.Unmarshal(body, &msg))
				assert.NotEmpty(t, msg.Message)
			},
		},
		{
			name:           "ExportCalculationsWithoutData",
			method:         http.MethodGet,
			path:           "/api/export-csv",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "CalculateMissingChildren",
			method:         http.MethodPost,
			path:           "/api/calculate-bacc",
			body:           `{"rank":"E-5","location":"Standard Cost"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "DataAfterRejectedCalculation",
			method:         http.MethodGet,
			path:           "/api/data",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp api.DataResponse[store.CalculationRecord]
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, 0, resp.Count)
			},
		},
		{
			name:           "Calculate",
			method:         http.MethodPost,
			path:           "/api/calculate-bacc",
			body:           `{"rank":"E-5","location":"Standard Cost","costShare":25,"children":[{"age":"Infant (0-12 months)"}]}`,
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var res api.CalculationResult
				require.NoError(t, json.Unmarshal(body, &res))
				assert.Equal(t, 1050.0, res.TotalMonthly)
				assert.Equal(t, 12600.0, res.TotalAnnual)
			},
		},
		{
			name:           "Data",
			method:         http.MethodGet,
			path:           "/api/data",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp api.DataResponse[store.CalculationRecord]
				require.NoError(t, json.Unmarshal(body, &resp))
				require.Equal(t, 1, resp.Count)
				assert.Equal(t, "E-5", resp.Data[0].Rank)
			},
		},
		{
			name:           "ExportCalculations",
			method:         http.MethodGet,
			path:           "/api/export-csv",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.Equal(t, 2, strings.Count(string(body), "\n"))
			},
		},
		{
			name:           "SubmitSurvey",
			method:         http.MethodPost,
			path:           "/api/submit-survey",
			body:           `{"timestamp":"2025-06-13T08:00:00Z","responses":{"marital_status":"Single"}}`,
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp api.SubmitSurveyResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.True(t, resp.Success)
				assert.True(t, strings.HasPrefix(resp.ID, "survey_"))
			},
		},
		{
			name:           "SurveyData",
			method:         http.MethodGet,
			path:           "/api/survey-data",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp api.DataResponse[store.SurveyRecord]
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, 1, resp.Count)
			},
		},
		{
			name:           "ExportSurveys",
			method:         http.MethodGet,
			path:           "/api/export-survey-csv",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "ExportResearchWithoutData",
			method:         http.MethodGet,
			path:           "/api/research-data/export/csv",
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "ResearchMissingSession",
			method:         http.MethodPost,
			path:           "/api/research-data",
			body:           `{"metadata":{}}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "ResearchUpsert",
			method:         http.MethodPost,
			path:           "/api/research-data",
			body:           `{"sessionId":"abc","calculatorData":{"rank":{"input":"E-5"}},"surveyData":{"q1":{"response":"Yes","questionText":"Q1?"}}}`,
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var resp api.ResearchDataResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, api.ResearchDataResponse{
					Success:   true,
					Message:   "Research data saved successfully",
					SessionID: "abc",
				}, resp)
			},
		},
		{
			name:           "ResearchGet",
			method:         http.MethodGet,
			path:           "/api/research-data/abc",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "ExportResearch",
			method:         http.MethodGet,
			path:           "/api/research-data/export/csv",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.Equal(t, 3, strings.Count(string(body), "\n"))
			},
		},
		{
			name:           "Options",
			method:         http.MethodGet,
			path:           "/api/options",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Metrics",
			method:         http.MethodGet,
			path:           "/metrics",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), `bacc_http_requests_total{method="POST",route="/api/calculate-bacc",status="200"} 1`)
				assert.Contains(t, string(body), "bacc_calculations_total 1")
			},
		},
		{
			name:           "UnknownRoute",
			method:         http.MethodGet,
			path:           "/api/unknown",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := do(t, client, tc.method, testServer.URL+tc.path, tc.body, nil)

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "Status code mismatch")
			if tc.check != nil {
				tc.check(t, body)
			}
		})
	}
}

type panickingCalculator struct {
	allowance.Calculator
}

func (panickingCalculator) Calculate(domain.AllowanceRequest) (*domain.CalculationResult, error) {
	panic("calculator failed")
}

func TestWebAPI_PanicIsCounted(t *testing.T) {
	config := testConfig(t)
	m := metrics.New()
	config.Dependencies.Metrics = m
	config.Dependencies.Calculator = panickingCalculator{Calculator: config.Dependencies.Calculator}
	testServer := httptest.NewServer(ConfigureRouter(config))
	defer testServer.Close()

	body := `{"rank":"E-5","location":"Standard Cost","children":[]}`
	resp, _ := do(t, testServer.Client(), http.MethodPost, testServer.URL+"/api/calculate-bacc", body, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodPost, "/api/calculate-bacc", "500")))
}

func TestWebAPI_BasePath(t *testing.T) {
	config := testConfig(t)
	config.BasePath = "bacc/"
	testServer := httptest.NewServer(ConfigureRouter(config))
	defer testServer.Close()

	resp, _ := do(t, testServer.Client(), http.MethodGet, testServer.URL+"/bacc/api/options", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, testServer.Client(), http.MethodGet, testServer.URL+"/api/options", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebAPI_RateLimit(t *testing.T) {
	config := testConfig(t)
	config.RateLimit = RateLimit{Requests: 5, Window: 500 * time.Millisecond}
	testServer := httptest.NewServer(ConfigureRouter(config))
	defer testServer.Close()
	client := testServer.Client()

	// Given a client that used its whole allowance
	for i := 0; i < 5; i++ {
		resp, _ := do(t, client, http.MethodGet, testServer.URL+"/", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, "request %d", i+1)
	}

	// When it sends one more request inside the window
	resp, body := do(t, client, http.MethodGet, testServer.URL+"/", "", nil)

	// Then it is rejected
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	var errResp api.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.NotEmpty(t, errResp.Error)

	// And accepted again once the sliding window has fully passed
	time.Sleep(2*config.RateLimit.Window + 100*time.Millisecond)
	resp, _ = do(t, client, http.MethodGet, testServer.URL+"/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebAPI_SecurityHeaders(t *testing.T) {
	testServer := httptest.NewServer(ConfigureRouter(testConfig(t)))
	defer testServer.Close()

	resp, _ := do(t, testServer.Client(), http.MethodGet, testServer.URL+"/", "", nil)

	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "no-referrer", resp.Header.Get("Referrer-Policy"))
}

func TestWebAPI_CORS(t *testing.T) {
	testServer := httptest.NewServer(ConfigureRouter(testConfig(t)))
	defer testServer.Close()
	client := testServer.Client()

	t.Run("simple request", func(t *testing.T) {
		resp, _ := do(t, client, http.MethodGet, testServer.URL+"/api/options", "", map[string]string{
			"Origin": "https://survey.example.org",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		resp, _ := do(t, client, http.MethodOptions, testServer.URL+"/api/calculate-bacc", "", map[string]string{
			"Origin":                         "https://survey.example.org",
			"Access-Control-Request-Method":  http.MethodPost,
			"Access-Control-Request-Headers": "Content-Type",
		})
		assert.Less(t, resp.StatusCode, 300)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
	})
}
