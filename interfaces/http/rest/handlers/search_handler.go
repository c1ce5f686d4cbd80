package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"eventpipe/application/lookup"
	"eventpipe/pkg/common"
)

// SearchHandler serves document store queries.
type SearchHandler struct {
	lookup *lookup.Service
	logger *zap.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(lookup *lookup.Service, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		lookup: lookup,
		logger: logger,
	}
}

// SearchResponse wraps a search result with its query echo.
type SearchResponse struct {
	Query   string      `json:"query"`
	Results interface{} `json:"results"`
}

// Search handles GET /search?q=&size=
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		query = "*"
	}

	size := 10
	if raw := r.URL.Query().Get("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			common.RespondError(w, http.StatusBadRequest, "VALIDATION", "size must be a positive integer")
			return
		}
		size = parsed
	}

	result, err := h.lookup.Search(r.Context(), query, size)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, SearchResponse{
		Query:   query,
		Results: result,
	})
}
