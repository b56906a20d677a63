// Package settings defines the competition-wide configuration row.
package settings

import "time"

// Setting names accepted by the settings service accessors.
const (
	NumberOfTeams         = "number_of_teams"
	MaxTeamSize           = "max_team_size"
	AdministratorBindDN   = "administrator_bind_dn"
	AdministratorBindPW   = "administrator_bind_pw"
	CheckInDate           = "check_in_date"
	DocumentationURL      = "documentation_url"
	CompetitionName       = "competition_name"
	CompetitionDate       = "competition_date"
	EnableAccountCreation = "enable_account_creation"
	EnableRed             = "enable_red"
	EnableGreen           = "enable_green"
)

// GlobalSettings is the singleton configuration row, created lazily on
// first access. Zero values fall back to the static config defaults when
// read through the settings service.
type GlobalSettings struct {
	ID                  string
	NumberOfTeams       int
	MaxTeamSize         int
	AdministratorBindDN string
	AdministratorBindPW string
	CheckInDate         *time.Time
	DocumentationURL    string
	CompetitionName     string
	CompetitionDate     *time.Time

	EnableAccountCreation bool
	EnableRed             bool
	EnableGreen           bool

	UpdatedAt time.Time
}

// New returns a settings row with the feature flags that default to on.
func New() GlobalSettings {
	return GlobalSettings{
		EnableAccountCreation: true,
		EnableRed:             true,
		EnableGreen:           true,
	}
}
