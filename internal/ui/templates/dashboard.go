// Package templates holds the server-rendered pages of the dashboard.
package templates

import "pharmacy-dashboard/internal/models"

// DashboardData is what the page needs before the analytics stream fills it in.
type DashboardData struct {
	Settings models.Settings
	Currency string
}
