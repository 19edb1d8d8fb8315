package reports

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/synaptica-ai/bloodwork/pkg/common/logger"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

type HTTPHandler struct {
	service *Service
	maxBody int64
}

func NewHTTPHandler(service *Service, maxBody int64) *HTTPHandler {
	return &HTTPHandler{service: service, maxBody: maxBody}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/reports/analyze", h.handleAnalyze).Methods(http.MethodPost)
	router.HandleFunc("/reports/batch", h.handleBatch).Methods(http.MethodPost)
	router.HandleFunc("/reports/{id}", h.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/reports", h.handleList).Methods(http.MethodGet)
	router.HandleFunc("/reference/{parameter}", h.handleReference).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var req RequestWrapper
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.WithError(err).Warn("invalid report payload")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	report, err := h.service.Analyze(r.Context(), req.ToModel())
	if err != nil {
		h.writeError(w, err, "failed to analyze report")
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *HTTPHandler) handleBatch(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.WithError(err).Warn("invalid batch payload")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	results, err := h.service.AnalyzeBatch(r.Context(), req.ToModels())
	if err != nil {
		h.writeError(w, err, "failed to analyze batch")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (h *HTTPHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	report, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "failed to fetch report")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *HTTPHandler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	summaries, err := h.service.Recent(r.Context(), limit)
	if err != nil {
		h.writeError(w, err, "failed to list reports")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": summaries})
}

func (h *HTTPHandler) handleReference(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.service.Reference(mux.Vars(r)["parameter"], q.Get("gender"), q.Get("age"))
	if err != nil {
		h.writeError(w, err, "failed to resolve reference range")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error, msg string) {
	switch {
	case IsValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnknownParameter):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		logger.Log.WithError(err).Error(msg)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Warn("failed to write response")
	}
}
