// Package broadcast defines audience tags for bulk mail and the archived
// email record.
package broadcast

import (
	"time"

	"github.com/iseage/signup/internal/domain/identity"
	"github.com/iseage/signup/internal/domain/participant"
)

// Audience names a filter over participants used to target bulk email
// and to gate archive visibility.
type Audience string

const (
	// AudienceAll is every blue participant, excluding red/green.
	AudienceAll Audience = "all"
	// AudienceWithTeam is blue participants on a team.
	AudienceWithTeam Audience = "with_team"
	// AudienceNoTeam is blue participants without a team.
	AudienceNoTeam Audience = "no_team"

	AudienceRedAll        Audience = "red_team_all"
	AudienceRedApproved   Audience = "red_team_approved"
	AudienceGreenAll      Audience = "green_team_all"
	AudienceGreenApproved Audience = "green_team_approved"

	// AudienceEveryone applies no filter.
	AudienceEveryone Audience = "everyone"
)

// Audiences lists every valid tag, in the order the admin form shows them.
func Audiences() []Audience {
	return []Audience{
		AudienceWithTeam,
		AudienceNoTeam,
		AudienceAll,
		AudienceRedAll,
		AudienceRedApproved,
		AudienceGreenAll,
		AudienceGreenApproved,
		AudienceEveryone,
	}
}

// Valid reports whether the tag is a known audience.
func (a Audience) Valid() bool {
	for _, known := range Audiences() {
		if a == known {
			return true
		}
	}
	return false
}

// Contains reports whether the user belongs to the audience. Staff and
// superusers are considered part of every audience; use Matches for
// recipient selection, which has no such override.
func (a Audience) Contains(user identity.User, pt participant.Participant) bool {
	if user.IsSuperuser || user.IsStaff {
		return true
	}
	return a.Matches(pt)
}

// Matches reports whether the participant's state alone places it in
// the audience.
func (a Audience) Matches(pt participant.Participant) bool {
	if a == AudienceEveryone {
		return true
	}

	if !pt.IsRedGreen() {
		switch a {
		case AudienceAll:
			return true
		case AudienceWithTeam:
			return pt.TeamID != ""
		case AudienceNoTeam:
			return pt.TeamID == ""
		}
	}

	if pt.IsRed {
		switch a {
		case AudienceRedAll:
			return true
		case AudienceRedApproved:
			return pt.Approved
		}
	}

	if pt.IsGreen {
		switch a {
		case AudienceGreenAll:
			return true
		case AudienceGreenApproved:
			return pt.Approved
		}
	}

	return false
}

// ArchivedEmail records a broadcast send. Written once, read-only after.
type ArchivedEmail struct {
	ID       string
	Subject  string
	Content  string
	Audience Audience
	SenderID string
	SentAt   time.Time
}
