// Package api exposes the scoring contract and the historical pair
// dataset over HTTP for the dashboard UI.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"phasecast/internal/metrics"
	"phasecast/internal/ml"
	"phasecast/internal/pairs"
)

// Handler provides the HTTP API. The model is injected already loaded
// and is treated as immutable; the handler never reloads or mutates
// it.
type Handler struct {
	model   *ml.Model
	dataset []pairs.Pair
	met     *metrics.Metrics
}

// NewHandler creates an API handler around a loaded model and the
// historical pair dataset.
func NewHandler(model *ml.Model, dataset []pairs.Pair, met *metrics.Metrics) *Handler {
	return &Handler{model: model, dataset: dataset, met: met}
}

// RegisterRoutes sets up all API routes.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
	r.HandleFunc("/model/info", h.handleModelInfo).Methods("GET")
	r.HandleFunc("/score", h.handleScore).Methods("POST")
	r.HandleFunc("/trials", h.handleTrials).Methods("GET")
	r.HandleFunc("/trials/stats", h.handleTrialStats).Methods("GET")
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// respondError sends a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// modelInfoTopFeatures caps the coefficient lists returned by
// /model/info.
const modelInfoTopFeatures = 10

func (h *Handler) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	pos, neg := h.model.FeatureImportance(modelInfoTopFeatures)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"trainedAt":           h.model.TrainedAt,
		"trainingSamples":     h.model.TrainingSamples,
		"featureDim":          h.model.Pipeline.Dim(),
		"datasetPairs":        len(h.dataset),
		"topPositiveFeatures": pos,
		"topNegativeFeatures": neg,
	})
}

// scoreResponse wraps the scoring result with a display-ready
// percentage.
type scoreResponse struct {
	ml.Result
	ProbabilityPct string `json:"probabilityPct"`
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var in ml.TrialInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.met.ScoreFailures.Inc()
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	res, err := h.model.Score(in)
	if err != nil {
		if errors.Is(err, ml.ErrInvalidInput) {
			h.met.ScoreFailures.Inc()
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("scoring failed")
		respondError(w, http.StatusInternalServerError, "scoring failed")
		return
	}

	h.met.ScoresTotal.Inc()
	h.met.ScoreLatency.Observe(time.Since(start).Seconds())
	h.met.ScoreProbabilities.Observe(res.Probability)

	respondJSON(w, http.StatusOK, scoreResponse{
		Result:         res,
		ProbabilityPct: fmt.Sprintf("%.2f%%", res.Probability*100),
	})
}

// trialsResponse pages the filtered historical dataset.
type trialsResponse struct {
	Total  int          `json:"total"`
	Offset int          `json:"offset"`
	Trials []pairs.Pair `json:"trials"`
}

const defaultTrialsLimit = 100

func (h *Handler) handleTrials(w http.ResponseWriter, r *http.Request) {
	q := pairs.Query{
		Search:         r.URL.Query().Get("search"),
		OrgClass:       r.URL.Query().Get("orgClass"),
		PrimaryPurpose: r.URL.Query().Get("purpose"),
		Outcome:        r.URL.Query().Get("outcome"),
	}
	if q.Outcome != "" && q.Outcome != "success" && q.Outcome != "failure" {
		respondError(w, http.StatusBadRequest, "outcome must be \"success\" or \"failure\"")
		return
	}

	filtered := pairs.Filter(h.dataset, q)

	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", defaultTrialsLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if offset < 0 {
		respondError(w, http.StatusBadRequest, "offset must not be negative")
		return
	}
	if limit <= 0 {
		respondError(w, http.StatusBadRequest, "limit must be positive")
		return
	}

	page := filtered
	if offset < len(page) {
		page = page[offset:]
	} else {
		page = nil
	}
	if len(page) > limit {
		page = page[:limit]
	}

	respondJSON(w, http.StatusOK, trialsResponse{
		Total:  len(filtered),
		Offset: offset,
		Trials: page,
	})
}

func (h *Handler) handleTrialStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, pairs.Stats(h.dataset))
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return i, nil
}
