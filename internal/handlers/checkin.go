package handlers

import (
	"context"
	"errors"
	"net/http"

	"moodsync/internal/models"
	"moodsync/internal/services"

	"github.com/rs/zerolog/log"
)

// CheckInService is what the check-in handlers need from the service layer
type CheckInService interface {
	Create(ctx context.Context, in models.CheckIn) (*models.CheckIn, error)
	List(ctx context.Context) ([]*models.CheckIn, error)
	Healthy(ctx context.Context) error
}

// CheckInHandler handles check-in HTTP requests
type CheckInHandler struct {
	checkInService CheckInService
}

// NewCheckInHandler creates a new check-in handler
func NewCheckInHandler(checkInService CheckInService) *CheckInHandler {
	return &CheckInHandler{
		checkInService: checkInService,
	}
}

// CreateCheckIn handles POST /api/emotions
func (h *CheckInHandler) CreateCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CheckIn
	if err := decodeJSON(r.Body, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	checkIn, err := h.checkInService.Create(ctx, req)
	if err != nil {
		log.Error().
			Err(err).
			Str("emotion", req.Emotion).
			Msg("Failed to create check-in")

		statusCode := http.StatusInternalServerError
		if errors.Is(err, services.ErrInvalidDataURL) {
			statusCode = http.StatusBadRequest
		}

		respondError(w, err.Error(), statusCode)
		return
	}

	log.Info().
		Str("checkin_id", checkIn.ID).
		Str("emotion", checkIn.Emotion).
		Int("intensity", checkIn.Intensity).
		Bool("photo", checkIn.HasPhoto()).
		Msg("Check-in stored")

	respondJSON(w, checkIn, http.StatusCreated)
}

// ListCheckIns handles GET /api/emotions
func (h *CheckInHandler) ListCheckIns(w http.ResponseWriter, r *http.Request) {
	checkIns, err := h.checkInService.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list check-ins")
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, checkIns, http.StatusOK)
}

// Health handles GET /api/health
func (h *CheckInHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.checkInService.Healthy(r.Context()); err != nil {
		log.Warn().Err(err).Msg("Health check failed")
		respondJSON(w, map[string]string{"status": "unavailable"}, http.StatusServiceUnavailable)
		return
	}

	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
