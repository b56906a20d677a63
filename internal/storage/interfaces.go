// Package storage defines the persistence capability interfaces consumed
// by the portal services, plus the error sentinels every implementation
// maps its backend failures onto.
package storage

import (
	"context"
	"errors"

	"github.com/iseage/signup/internal/domain/broadcast"
	"github.com/iseage/signup/internal/domain/identity"
	"github.com/iseage/signup/internal/domain/participant"
	"github.com/iseage/signup/internal/domain/settings"
	"github.com/iseage/signup/internal/domain/team"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness
	// constraint. Callers that raced a read-check-write sequence can
	// re-read and retry.
	ErrConflict = errors.New("uniqueness conflict")
)

// UserStore persists local identity records.
type UserStore interface {
	CreateUser(ctx context.Context, u identity.User) (identity.User, error)
	UpdateUser(ctx context.Context, u identity.User) (identity.User, error)
	GetUser(ctx context.Context, id string) (identity.User, error)
	GetUserByUsername(ctx context.Context, username string) (identity.User, error)
	ListUsersByEmail(ctx context.Context, email string) ([]identity.User, error)
	ListUsers(ctx context.Context) ([]identity.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// ParticipantStore persists participant records. UpdateParticipant
// accepts an optional field list for partial saves so concurrent
// mutations of unrelated fields are not clobbered; an empty list saves
// every field.
type ParticipantStore interface {
	CreateParticipant(ctx context.Context, p participant.Participant) (participant.Participant, error)
	UpdateParticipant(ctx context.Context, p participant.Participant, fields ...string) (participant.Participant, error)
	GetParticipant(ctx context.Context, id string) (participant.Participant, error)
	GetParticipantByUserID(ctx context.Context, userID string) (participant.Participant, error)
	ListParticipants(ctx context.Context) ([]participant.Participant, error)
	ListTeamMembers(ctx context.Context, teamID string) ([]participant.Participant, error)
	ListJoinRequests(ctx context.Context, teamID string) ([]participant.Participant, error)
	DeleteParticipant(ctx context.Context, id string) error
}

// Field names accepted by UpdateParticipant partial saves.
const (
	FieldTeam            = "team_id"
	FieldRequestedTeam   = "requested_team_id"
	FieldCaptain         = "captain"
	FieldRequestsCaptain = "requests_captain"
	FieldCheckedIn       = "checked_in"
	FieldLookingForTeam  = "looking_for_team"
	FieldApproved        = "approved"
)

// TeamStore persists team records. Name and number are unique among live
// teams; violations surface as ErrConflict.
type TeamStore interface {
	CreateTeam(ctx context.Context, t team.Team) (team.Team, error)
	UpdateTeam(ctx context.Context, t team.Team) (team.Team, error)
	GetTeam(ctx context.Context, id string) (team.Team, error)
	GetTeamByName(ctx context.Context, name string) (team.Team, error)
	ListTeams(ctx context.Context) ([]team.Team, error)
	ListTeamNumbers(ctx context.Context) ([]int, error)
	DeleteTeam(ctx context.Context, id string) error
}

// SettingsStore persists the singleton GlobalSettings row. Get returns
// ErrNotFound until the first save; get-or-create lives in the settings
// service, not here.
type SettingsStore interface {
	GetSettings(ctx context.Context) (settings.GlobalSettings, error)
	SaveSettings(ctx context.Context, gs settings.GlobalSettings) (settings.GlobalSettings, error)
}

// ArchiveStore persists broadcast email records.
type ArchiveStore interface {
	CreateArchivedEmail(ctx context.Context, m broadcast.ArchivedEmail) (broadcast.ArchivedEmail, error)
	GetArchivedEmail(ctx context.Context, id string) (broadcast.ArchivedEmail, error)
	ListArchivedEmails(ctx context.Context) ([]broadcast.ArchivedEmail, error)
	DeleteArchivedEmails(ctx context.Context) error
}
