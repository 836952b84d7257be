package handler

import (
	"net/http"

	"drink-rating/internal/model"
	"drink-rating/internal/service"

	"github.com/rs/zerolog"
)

// RatingHandler handles rating requests.
type RatingHandler struct {
	service service.RatingService
	logger  zerolog.Logger
}

// NewRatingHandler creates a new rating handler.
func NewRatingHandler(service service.RatingService, logger zerolog.Logger) *RatingHandler {
	return &RatingHandler{
		service: service,
		logger:  logger.With().Str("handler", "rating").Logger(),
	}
}

// Submit handles POST /api/ratings requests.
func (h *RatingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.RatingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	id, err := h.service.Submit(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, model.RatingCreatedResponse{ID: id})
}

// ListForDrink handles GET /api/ratings/{drinkId} requests.
func (h *RatingHandler) ListForDrink(w http.ResponseWriter, r *http.Request) {
	drinkID, err := pathID(r, "drinkId")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	ratings, err := h.service.ListFor(r.Context(), drinkID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ratings)
}

// Delete handles DELETE /api/ratings/{id} requests.
func (h *RatingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := adminLogger(r, h.logger)

	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, err, logger)
		return
	}

	if err := h.service.DeleteOne(r.Context(), id); err != nil {
		writeServiceError(w, err, logger)
		return
	}

	logger.Info().Int64("rating_id", id).Msg("admin deleted rating")
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Rating deleted"})
}
