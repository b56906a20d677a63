package mail

import "fmt"

// Subjects for the portal's notification mail.
const (
	SubjectAccountCreated   = "Your CDC account"
	SubjectPasswordUpdated  = "CDC Support: Password successfully updated"
	SubjectPasswordReset    = "CDC Support: Your password has been reset"
	SubjectTeamCreated      = "CDC Support: Team Created"
	SubjectAddedToTeam      = "CDC Support: You have been added to a team"
	SubjectMemberJoined     = "CDC Support: Someone has joined your team"
	SubjectJoinRequested    = "CDC Support: Someone has requested to join your team"
	SubjectCaptainPromoted  = "CDC Support: You have been promoted to captain"
	SubjectCaptainRequested = "CDC Support: Someone has requested to become a captain of your team"
	SubjectMemberLeft       = "CDC Support: A member has left your team"
	SubjectSteppedDown      = "CDC Support: A member has stepped down as captain"
	SubjectTeamDisbanded    = "CDC Support: Your team has been disbanded"
)

const accountCreatedBody = `Hi there %s %s,

Your CDC account has been successfully created!
Please use the following credentials to log in at %s/login/

Username: %s
Password: %s

Make sure you change your password right away.

If you do not have a team and want support staff to place you on one, log in with the above credentials and click "Looking For Team".

You will use these credentials to log in to all CDC systems.

If you have questions, email CDC support at %s.
`

const accountCreatedRoleBody = `Hi there %s %s,

Your %s account has been successfully created!
Please use the following credentials to log in at %s/login/

Username: %s
Password: %s

Make sure you change your password right away.

If you have questions, email CDC support at %s.
`

// AccountCreated renders the credentials mail for a new account.
// Role is "Red Team" or "Green Team" for auxiliary accounts, empty for blue.
func AccountCreated(role, firstName, lastName, username, password, portalURL, support string) string {
	if role == "" {
		return fmt.Sprintf(accountCreatedBody, firstName, lastName, portalURL, username, password, support)
	}
	return fmt.Sprintf(accountCreatedRoleBody, firstName, lastName, role, portalURL, username, password, support)
}

const passwordUpdatedBody = `Hi there %s %s,

Your password has been successfully updated.

If you didn't change your password, please contact CDC support at %s immediately.
`

// PasswordUpdated renders the change-password confirmation mail.
func PasswordUpdated(firstName, lastName, support string) string {
	return fmt.Sprintf(passwordUpdatedBody, firstName, lastName, support)
}

const passwordResetBody = `Hi there %s %s,

Your password has been reset. Here are your new credentials:

Username: %s
Password: %s

You should change your password right away at %s/dashboard/

If you didn't request a password reset, please contact CDC support at %s immediately.
`

// PasswordReset renders the forgot-password mail with fresh credentials.
func PasswordReset(firstName, lastName, username, password, portalURL, support string) string {
	return fmt.Sprintf(passwordResetBody, firstName, lastName, username, password, portalURL, support)
}

const teamCreatedBody = `Hi there %s %s,

Your team has been successfully created.
Your team name is: %s
Your team number is: %d

You can manage your team by visiting %s/dashboard/manage_team/

Your team members should create an account and submit a request to join your team.

If you have questions, email CDC support at %s
`

// TeamCreated renders the captain's team-creation confirmation.
func TeamCreated(firstName, lastName, teamName string, number int, portalURL, support string) string {
	return fmt.Sprintf(teamCreatedBody, firstName, lastName, teamName, number, portalURL, support)
}

const addedToTeamBody = `Hi there %s %s,

Your request to join a team has been approved.
You have been added to Team %d: %s

Be sure to get in contact with your team captain(s) if you haven't already:

%s
If you have questions, email CDC support at %s
`

// AddedToTeam renders the mail sent to a participant who joined a team.
// The captains argument is a preformatted "First Last  email" block.
func AddedToTeam(firstName, lastName string, number int, teamName, captains, support string) string {
	return fmt.Sprintf(addedToTeamBody, firstName, lastName, number, teamName, captains, support)
}

const memberJoinedBody = `Hi there captains,

%s %s (%s) has joined your team, %s.

Visit %s/dashboard/manage_team/ to manage your team.

If you have questions, email CDC support at %s
`

// MemberJoined renders the captains' notification of a direct join.
func MemberJoined(firstName, lastName, email, teamName, portalURL, support string) string {
	return fmt.Sprintf(memberJoinedBody, firstName, lastName, email, teamName, portalURL, support)
}

const joinRequestedBody = `Hi there captains,

%s %s (%s) has requested to join your team, %s.

Visit %s/dashboard/manage_team/ to confirm or deny this request.

If you have questions, email CDC support at %s
`

// JoinRequested renders the captains' notification of a pending request.
func JoinRequested(firstName, lastName, email, teamName, portalURL, support string) string {
	return fmt.Sprintf(joinRequestedBody, firstName, lastName, email, teamName, portalURL, support)
}

const captainPromotedBody = `Hi there %s %s,

Your request to be promoted to captain has been approved.

Visit %s/dashboard/manage_team/ to manage your team.

If you have questions, email CDC support at %s
`

// CaptainPromoted renders the promotion confirmation.
func CaptainPromoted(firstName, lastName, portalURL, support string) string {
	return fmt.Sprintf(captainPromotedBody, firstName, lastName, portalURL, support)
}

const captainRequestedBody = `Hi there captains,

%s %s (%s) has requested to become a captain of your team, %s.

Visit %s/dashboard/manage_team/ to confirm or deny this request.

If you have questions, email CDC support at %s
`

// CaptainRequested renders the captains' notification of a promotion request.
func CaptainRequested(firstName, lastName, email, teamName, portalURL, support string) string {
	return fmt.Sprintf(captainRequestedBody, firstName, lastName, email, teamName, portalURL, support)
}

const memberLeftBody = `Hi there captains,

%s %s (%s) has left your team, %s.

If you have questions, email CDC support at %s
`

// MemberLeft renders the captains' notification of a departure.
func MemberLeft(firstName, lastName, email, teamName, support string) string {
	return fmt.Sprintf(memberLeftBody, firstName, lastName, email, teamName, support)
}

const steppedDownBody = `Hi there captains,

%s %s has stepped down as a captain of your team, %s.

If you have questions, email CDC support at %s
`

// SteppedDown renders the captains' notification of a demotion.
func SteppedDown(firstName, lastName, teamName, support string) string {
	return fmt.Sprintf(steppedDownBody, firstName, lastName, teamName, support)
}

const teamDisbandedBody = `Hi there members,

Your team, %s, has been disbanded.

If you wish to join or create another team, please visit %s/dashboard/

If you have questions, email CDC support at %s
`

// TeamDisbanded renders the notice sent to every former member.
func TeamDisbanded(teamName, portalURL, support string) string {
	return fmt.Sprintf(teamDisbandedBody, teamName, portalURL, support)
}
