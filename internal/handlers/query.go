package handlers

import (
	"net/http"
	"time"

	"pharmacy-dashboard/internal/models"
	"pharmacy-dashboard/internal/settings"
)

const settingsCookieMaxAge = 365 * 24 * time.Hour

func parseQuery(r *http.Request) (models.Query, error) {
	v := r.URL.Query()
	return models.ParseQuery(v.Get("scope"), v.Get("id"), v.Get("timeRange"), v.Get("granularity"))
}

// SettingsID returns the settings identity carried by the request cookie.
func SettingsID(r *http.Request, cookieName string) (string, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil || !settings.ValidID(c.Value) {
		return "", false
	}
	return c.Value, true
}

// ensureSettingsID returns the request's settings identity, issuing a new
// one in a cookie when the request has none.
func ensureSettingsID(w http.ResponseWriter, r *http.Request, cookieName string) string {
	if id, ok := SettingsID(r, cookieName); ok {
		return id
	}
	id := settings.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(settingsCookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
