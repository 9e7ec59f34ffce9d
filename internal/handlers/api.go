package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"pharmacy-dashboard/internal/config"
	"pharmacy-dashboard/internal/errors"
	"pharmacy-dashboard/internal/middleware"
	"pharmacy-dashboard/internal/observability"
	"pharmacy-dashboard/internal/services"
	"pharmacy-dashboard/internal/settings"
)

const maxSettingsBody = 4 << 10

// Reports are built from a fresh fetch on every request.
var noStore = map[string]string{
	"Cache-Control": "no-store",
}

type APIHandlers struct {
	analytics      *services.Analytics
	settings       settings.Store
	settingsCookie string
	logger         *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, store settings.Store, settingsCookie string, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics:      analytics,
		settings:       store,
		settingsCookie: settingsCookie,
		logger:         logger,
	}
}

func (h *APIHandlers) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	q, err := parseQuery(r)
	if err != nil {
		errors.WriteError(w, h.logger, errors.ValidationWrap(err, err.Error()), requestID)
		return
	}

	report, err := h.analytics.Report(r.Context(), middleware.Token(r.Context()), q)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	errors.WriteSuccessWithHeaders(w, report, noStore)
}

func (h *APIHandlers) HandleGrowth(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	q, err := parseQuery(r)
	if err != nil {
		errors.WriteError(w, h.logger, errors.ValidationWrap(err, err.Error()), requestID)
		return
	}

	report, err := h.analytics.Report(r.Context(), middleware.Token(r.Context()), q)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	errors.WriteSuccessWithHeaders(w, map[string]string{
		"growth":     report.Growth,
		"time_range": string(q.TimeRange),
	}, noStore)
}

func (h *APIHandlers) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	id := ensureSettingsID(w, r, h.settingsCookie)

	s, err := h.settings.Load(r.Context(), id)
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Could not load settings"), observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccessWithHeaders(w, s, noStore)
}

// HandlePutSettings applies the fields present in the body over the stored
// settings.
func (h *APIHandlers) HandlePutSettings(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())
	id := ensureSettingsID(w, r, h.settingsCookie)

	s, err := h.settings.Load(r.Context(), id)
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Could not load settings"), requestID)
		return
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxSettingsBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "Settings body must be a JSON object of known fields"), requestID)
		return
	}

	if err := settings.Validate(s); err != nil {
		errors.WriteError(w, h.logger, errors.ValidationWrap(err, err.Error()), requestID)
		return
	}

	if err := h.settings.Save(r.Context(), id, s); err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "Could not save settings"), requestID)
		return
	}

	errors.WriteSuccess(w, s)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   config.Version,
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
