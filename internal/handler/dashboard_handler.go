package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"drink-rating/internal/report"
	"drink-rating/internal/service"

	"github.com/rs/zerolog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DashboardHandler handles the admin dashboard requests.
type DashboardHandler struct {
	service service.RatingService
	logger  zerolog.Logger
	now     func() time.Time
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(service service.RatingService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("handler", "dashboard").Logger(),
		now:     time.Now,
	}
}

// Dashboard handles GET /api/admin/dashboard requests.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.DashboardSummary(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}

// Export handles GET /api/admin/dashboard/export requests.
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	logger := adminLogger(r, h.logger)

	dashboard, err := h.service.DashboardSummary(r.Context())
	if err != nil {
		writeServiceError(w, err, logger)
		return
	}

	// Render fully before writing so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := report.WriteDashboardXLSX(&buf, dashboard); err != nil {
		writeServiceError(w, err, logger)
		return
	}

	logger.Info().Int("drinks", len(dashboard.Drinks)).Msg("admin exported dashboard")

	filename := fmt.Sprintf("drink-ratings-%s.xlsx", h.now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
