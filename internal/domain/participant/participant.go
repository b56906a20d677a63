// Package participant defines the competition participant record and the
// pure pieces of its membership state machine. Transitions that touch the
// directory or send mail live in the teams service; the helpers here only
// mutate the struct and report whether anything changed.
package participant

import "time"

// Participant tracks one user's competition state. Team and RequestedTeam
// are mutually exclusive: a participant with a team has no pending join
// request. Red/green participants never hold team state.
type Participant struct {
	ID              string
	UserID          string
	TeamID          string // empty when unaffiliated
	RequestedTeamID string // empty when no pending join request
	Captain         bool
	RequestsCaptain bool
	CheckedIn       bool
	LookingForTeam  bool

	// Auxiliary role state; Approved is only meaningful when red or green.
	IsRed    bool
	IsGreen  bool
	Approved bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsRedGreen reports whether the participant holds an auxiliary role.
func (p Participant) IsRedGreen() bool {
	return p.IsRed || p.IsGreen
}

// RequestTeam records a pending join request. No-op for participants who
// already have a team and for red/green participants; callers treat a
// false return as a precondition failure.
func (p *Participant) RequestTeam(teamID string) bool {
	if p.TeamID != "" || p.IsRedGreen() {
		return false
	}
	p.RequestedTeamID = teamID
	return true
}

// RequestPromotion flags a captain request. No-op if already requested
// or red/green.
func (p *Participant) RequestPromotion() bool {
	if p.RequestsCaptain || p.IsRedGreen() {
		return false
	}
	p.RequestsCaptain = true
	return true
}

// Promote grants captain status and clears the pending request. No-op if
// already captain or red/green.
func (p *Participant) Promote() bool {
	if p.Captain || p.IsRedGreen() {
		return false
	}
	p.Captain = true
	p.RequestsCaptain = false
	return true
}

// Demote revokes captain status. No-op for non-captains and red/green.
// The only-remaining-captain guard belongs to the teams service, which
// can see the rest of the roster.
func (p *Participant) Demote() bool {
	if !p.Captain || p.IsRedGreen() {
		return false
	}
	p.Captain = false
	return true
}

// JoinTeam moves the participant onto a team, clearing any pending
// request and the looking-for-team flag.
func (p *Participant) JoinTeam(teamID string) {
	p.TeamID = teamID
	p.RequestedTeamID = ""
	p.LookingForTeam = false
}

// LeaveTeam clears all team affiliation, including captain state and any
// pending requests.
func (p *Participant) LeaveTeam() {
	p.TeamID = ""
	p.RequestedTeamID = ""
	p.Captain = false
	p.RequestsCaptain = false
}
