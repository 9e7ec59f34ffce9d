package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"pharmacy-dashboard/internal/models"
	"pharmacy-dashboard/internal/settings"
	"pharmacy-dashboard/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

type PageHandlers struct {
	settings       settings.Store
	settingsCookie string
	currency       string
	logger         *slog.Logger
}

func NewPageHandlers(store settings.Store, settingsCookie, currency string, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		settings:       store,
		settingsCookie: settingsCookie,
		currency:       currency,
		logger:         logger,
	}
}

// HandleDashboard renders the page with the client's saved layout. A
// settings lookup failure falls back to the defaults.
func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	prefs := models.DefaultSettings()
	if id, ok := SettingsID(r, h.settingsCookie); ok {
		loaded, err := h.settings.Load(ctx, id)
		if err != nil {
			h.logger.Warn("load settings for dashboard", "error", err)
		} else {
			prefs = loaded
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "private, no-cache")
	page := templates.Dashboard(templates.DashboardData{Settings: prefs, Currency: h.currency})
	if err := page.Render(ctx, w); err != nil {
		h.logger.Error("render dashboard", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}
