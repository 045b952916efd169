package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/confrec/confrec/internal/middleware"
	"github.com/confrec/confrec/internal/ranking"
	"github.com/confrec/confrec/internal/store"
)

// maxQueryTopics caps the number of topic phrases accepted per query.
const maxQueryTopics = 32

// RecommendHandlers holds dependencies for the recommendation endpoint.
type RecommendHandlers struct {
	service *ranking.Service
}

// NewRecommendHandlers creates a new RecommendHandlers instance.
func NewRecommendHandlers(service *ranking.Service) *RecommendHandlers {
	return &RecommendHandlers{service: service}
}

// Recommend handles POST /recommend - ranks PC member candidates for a query.
func (h *RecommendHandlers) Recommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	var q ranking.Query
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&q); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body: "+err.Error())
		return
	}

	if len(q.Topics) > maxQueryTopics {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "too many topics (max 32)")
		return
	}

	resp, err := h.service.Recommend(r.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, ranking.ErrInvalidQuery):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		case errors.Is(err, store.ErrUnavailable):
			slog.ErrorContext(r.Context(), "store unavailable during recommendation", "error", err)
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeStoreUnavailable)
			WriteError(w, ctx, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "Backing store is unavailable")
		default:
			slog.ErrorContext(r.Context(), "recommendation failed", "error", err)
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to compute recommendations")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode recommendation response", "error", err)
	}
}
