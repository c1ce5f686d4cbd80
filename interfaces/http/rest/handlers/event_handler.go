package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"eventpipe/application/lookup"
	"eventpipe/pkg/common"
	"eventpipe/pkg/errors"
	"eventpipe/pkg/utils"
)

// EventHandler serves cached record lookups.
type EventHandler struct {
	lookup *lookup.Service
	logger *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(lookup *lookup.Service, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		lookup: lookup,
		logger: logger,
	}
}

// GetEvent handles GET /events/{eventID}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if eventID == "" {
		common.RespondError(w, http.StatusBadRequest, string(errors.ErrorTypeValidation), "eventID is required")
		return
	}

	rec, err := h.lookup.GetEvent(r.Context(), eventID)
	if err != nil {
		// a miss is an expected outcome; anything else is a degraded or
		// misconfigured cache and logged as such
		if !errors.IsNotFound(err) {
			h.logger.Error("event lookup failed", zap.String("event_id", eventID), zap.Error(err))
		}
		common.RespondAppError(w, err)
		return
	}

	common.RespondWithMeta(w, http.StatusOK, rec, &common.MetaInfo{
		RequestID: common.ExtractRequestID(r),
		Timestamp: utils.NowRFC3339(),
		Cached:    true,
	})
}

// GetKey handles GET /cache?key=
func (h *EventHandler) GetKey(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		common.RespondError(w, http.StatusBadRequest, string(errors.ErrorTypeValidation), "key parameter is required")
		return
	}

	payload, err := h.lookup.GetKey(r.Context(), key)
	if err != nil {
		if !errors.IsNotFound(err) {
			h.logger.Error("cache lookup failed", zap.String("key", key), zap.Error(err))
		}
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{
		"key":   key,
		"value": string(payload),
	})
}
