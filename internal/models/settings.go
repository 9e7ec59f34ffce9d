package models

const (
	BranchTypeAll       = "all"
	BranchTypeRetail    = "retail"
	BranchTypeWholesale = "wholesale"
)

// Settings are the per-client dashboard preferences.
type Settings struct {
	SidebarCollapsed bool   `json:"sidebar_collapsed"`
	BranchType       string `json:"branch_type"`
}

func DefaultSettings() Settings {
	return Settings{BranchType: BranchTypeAll}
}

func ValidBranchType(t string) bool {
	switch t {
	case BranchTypeAll, BranchTypeRetail, BranchTypeWholesale:
		return true
	}
	return false
}
