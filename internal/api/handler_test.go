package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"phasecast/internal/metrics"
	"phasecast/internal/ml"
	"phasecast/internal/pairs"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	ps := []pairs.Pair{
		{Intervention: "nivolumab", BriefTitle: "Nivolumab in NSCLC", Conditions: "Lung Cancer", OutcomeMeasure: "Overall response rate", OrgClass: "INDUSTRY", PrimaryPurpose: "TREATMENT", Phase3Status: "COMPLETED", Label: 1},
		{Intervention: "pembrolizumab", BriefTitle: "Pembrolizumab in Melanoma", Conditions: "Melanoma", OutcomeMeasure: "Progression free survival", OrgClass: "INDUSTRY", PrimaryPurpose: "TREATMENT", Phase3Status: "COMPLETED", Label: 1},
		{Intervention: "compound x", BriefTitle: "Compound X in Glioma", Conditions: "Glioblastoma", OutcomeMeasure: "Six month survival", OrgClass: "OTHER", PrimaryPurpose: "PREVENTION", Phase3Status: "TERMINATED", Label: 0},
		{Intervention: "compound y", BriefTitle: "Compound Y in Sarcoma", Conditions: "Sarcoma", OutcomeMeasure: "Tumor shrinkage", OrgClass: "NIH", PrimaryPurpose: "PREVENTION", Phase3Status: "WITHDRAWN", Label: 0},
	}

	cfg := ml.DefaultTrainConfig()
	cfg.MaxFeatures = 100
	cfg.MaxIter = 200
	cfg.TestFraction = 0

	model, _, err := ml.Train(ps, cfg)
	if err != nil {
		t.Fatalf("training test model failed: %v", err)
	}

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	return NewHandler(model, ps, m)
}

func newTestRouter(t *testing.T) *mux.Router {
	r := mux.NewRouter()
	newTestHandler(t).RegisterRoutes(r)
	return r
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var response map[string]string
	json.NewDecoder(w.Body).Decode(&response)
	if response["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", response["status"])
	}
}

func TestScoreEndpoint(t *testing.T) {
	r := newTestRouter(t)

	body, _ := json.Marshal(ml.TrialInput{
		Intervention:   "Pembrolizumab",
		BriefTitle:     "A Phase II Study of Pembrolizumab in NSCLC",
		Condition:      "Non-Small Cell Lung Cancer",
		OutcomeSummary: "Overall response rate at 6 months",
		OrgClass:       "INDUSTRY",
		PrimaryPurpose: "TREATMENT",
	})

	req := httptest.NewRequest("POST", "/score", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Probability    float64 `json:"probability"`
		Label          int     `json:"label"`
		Classification string  `json:"classification"`
		ProbabilityPct string  `json:"probabilityPct"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if response.Probability < 0 || response.Probability > 1 {
		t.Errorf("probability out of range: %f", response.Probability)
	}
	if response.Label != 0 && response.Label != 1 {
		t.Errorf("label out of range: %d", response.Label)
	}
	if response.Classification == "" || response.ProbabilityPct == "" {
		t.Errorf("missing display fields: %+v", response)
	}
}

func TestScoreEndpoint_EmptyInterventionRejected(t *testing.T) {
	r := newTestRouter(t)

	body, _ := json.Marshal(ml.TrialInput{
		Intervention:   "   ",
		OrgClass:       "INDUSTRY",
		PrimaryPurpose: "TREATMENT",
	})

	req := httptest.NewRequest("POST", "/score", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestScoreEndpoint_MalformedBody(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest("POST", "/score", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestTrialsEndpoint_Filters(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest("GET", "/trials?orgClass=INDUSTRY&outcome=success", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response struct {
		Total  int          `json:"total"`
		Trials []pairs.Pair `json:"trials"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Total != 2 || len(response.Trials) != 2 {
		t.Errorf("expected 2 industry successes, got total=%d rows=%d", response.Total, len(response.Trials))
	}
}

func TestTrialsEndpoint_Paging(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest("GET", "/trials?limit=1&offset=1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var response struct {
		Total  int          `json:"total"`
		Offset int          `json:"offset"`
		Trials []pairs.Pair `json:"trials"`
	}
	json.NewDecoder(w.Body).Decode(&response)
	if response.Total != 4 || len(response.Trials) != 1 || response.Offset != 1 {
		t.Errorf("unexpected page: total=%d offset=%d rows=%d", response.Total, response.Offset, len(response.Trials))
	}
}

func TestTrialsEndpoint_BadOutcome(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest("GET", "/trials?outcome=maybe", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestTrialStatsEndpoint(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest("GET", "/trials/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var st pairs.DatasetStats
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if st.Total != 4 || st.Successes != 2 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestModelInfoEndpoint(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest("GET", "/model/info", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var info map[string]interface{}
	json.NewDecoder(w.Body).Decode(&info)
	if info["featureDim"] == nil || info["trainingSamples"] == nil {
		t.Errorf("missing model info fields: %v", info)
	}

	pos, ok := info["topPositiveFeatures"].([]interface{})
	if !ok || len(pos) == 0 {
		t.Errorf("missing top positive features: %v", info["topPositiveFeatures"])
	}
	neg, ok := info["topNegativeFeatures"].([]interface{})
	if !ok || len(neg) == 0 {
		t.Errorf("missing top negative features: %v", info["topNegativeFeatures"])
	}
}

func TestTrialsEndpoint_PagingValidation(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		query string
		code  int
	}{
		{"/trials?offset=0", http.StatusOK}, // zero offset is legitimate
		{"/trials?offset=abc", http.StatusBadRequest},
		{"/trials?limit=abc", http.StatusBadRequest},
		{"/trials?offset=-1", http.StatusBadRequest},
		{"/trials?limit=0", http.StatusBadRequest},
		{"/trials?limit=-5", http.StatusBadRequest},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", tc.query, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.code {
			t.Errorf("%s: expected status %d, got %d", tc.query, tc.code, w.Code)
		}
	}

	req := httptest.NewRequest("GET", "/trials?offset=abc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["error"] != "offset must be an integer" {
		t.Errorf("unexpected error message: %q", body["error"])
	}
}
