// Package teams implements the team membership engine: number
// allocation, captain flows, join requests, and the directory and mail
// side effects each transition carries. Local storage always commits
// first; a directory failure after the commit surfaces as an error
// without rolling back, and the reconciliation sweep repairs the gap.
package teams

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iseage/signup/internal/config"
	"github.com/iseage/signup/internal/directory"
	"github.com/iseage/signup/internal/domain/identity"
	"github.com/iseage/signup/internal/domain/participant"
	"github.com/iseage/signup/internal/domain/team"
	"github.com/iseage/signup/internal/logging"
	"github.com/iseage/signup/internal/mail"
	"github.com/iseage/signup/internal/services/settings"
	"github.com/iseage/signup/internal/storage"
)

var (
	// ErrTeamExists is returned when the requested team name is taken.
	ErrTeamExists = errors.New("team name already exists")
	// ErrOutOfTeamNumbers is returned when every number in the pool
	// is assigned. Raising number_of_teams frees the operation.
	ErrOutOfTeamNumbers = errors.New("no team numbers remain")
	// ErrOnlyRemainingCaptain blocks the last captain from stepping
	// down. Leaving or disbanding remain available.
	ErrOnlyRemainingCaptain = errors.New("only remaining captain may not step down")
	// ErrNotCaptain guards captain-only operations.
	ErrNotCaptain = errors.New("participant is not a captain")
	// ErrTeamFull is returned when the roster is at max_team_size.
	ErrTeamFull = errors.New("team is full")
	// ErrNoTeam is returned for operations that need a current team.
	ErrNoTeam = errors.New("participant has no team")
	// ErrHasTeam is returned when a teamed participant tries to join
	// or create another team.
	ErrHasTeam = errors.New("participant already has a team")
	// ErrNoSuchRequest is returned when an approval targets a
	// participant without the matching pending request.
	ErrNoSuchRequest = errors.New("no matching request")
	// ErrRedGreen is returned when a red/green participant attempts a
	// blue-team operation.
	ErrRedGreen = errors.New("red/green participants cannot hold team state")
	// ErrNotRedGreen is returned when approval targets a blue
	// participant.
	ErrNotRedGreen = errors.New("participant is not red/green")
	// ErrCheckInClosed is returned before the check-in date.
	ErrCheckInClosed = errors.New("check-in is not open")
)

// teamNumberAttempts bounds the create retry when a concurrent create
// races the number scan.
const teamNumberAttempts = 3

// Deps are the collaborators the engine needs.
type Deps struct {
	Users        storage.UserStore
	Participants storage.ParticipantStore
	Teams        storage.TeamStore
	Settings     *settings.Service
	Directory    directory.Directory
	Names        directory.Names
	Notifier     *mail.Notifier
	SMTP         config.SMTP
	Logger       *logging.Logger
}

// Service drives every team membership transition.
type Service struct {
	users        storage.UserStore
	participants storage.ParticipantStore
	teams        storage.TeamStore
	settings     *settings.Service
	dir          directory.Directory
	names        directory.Names
	notifier     *mail.Notifier
	smtp         config.SMTP
	log          *logging.Logger
}

// New constructs a teams service. A nil logger gets a default.
func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logging.NewDefault("teams")
	}
	return &Service{
		users:        d.Users,
		participants: d.Participants,
		teams:        d.Teams,
		settings:     d.Settings,
		dir:          d.Directory,
		names:        d.Names,
		notifier:     d.Notifier,
		smtp:         d.SMTP,
		log:          d.Logger,
	}
}

// AssignTeamNumber returns the lowest unused number in 1..number_of_teams.
func (s *Service) AssignTeamNumber(ctx context.Context) (int, error) {
	pool, err := s.settings.NumberOfTeams(ctx)
	if err != nil {
		return 0, err
	}
	used, err := s.teams.ListTeamNumbers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list team numbers: %w", err)
	}
	taken := make(map[int]bool, len(used))
	for _, n := range used {
		taken[n] = true
	}
	for n := 1; n <= pool; n++ {
		if !taken[n] {
			return n, nil
		}
	}
	return 0, ErrOutOfTeamNumbers
}

// CreateTeam creates a team and makes the creating participant its
// captain. The creator must be an unaffiliated blue participant.
func (s *Service) CreateTeam(ctx context.Context, participantID, name string) (team.Team, error) {
	pt, user, err := s.load(ctx, participantID)
	if err != nil {
		return team.Team{}, err
	}
	if pt.IsRedGreen() {
		return team.Team{}, ErrRedGreen
	}
	if pt.TeamID != "" {
		return team.Team{}, ErrHasTeam
	}

	if _, err := s.teams.GetTeamByName(ctx, name); err == nil {
		return team.Team{}, ErrTeamExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return team.Team{}, fmt.Errorf("check team name: %w", err)
	}

	var created team.Team
	for attempt := 0; ; attempt++ {
		number, err := s.AssignTeamNumber(ctx)
		if err != nil {
			return team.Team{}, err
		}
		created, err = s.teams.CreateTeam(ctx, team.Team{
			Number:            number,
			Name:              name,
			LookingForMembers: true,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrConflict) {
			return team.Team{}, fmt.Errorf("create team: %w", err)
		}
		// Conflict is either our name or a raced number. Re-check the
		// name to tell them apart, then rescan for a fresh number.
		if _, nameErr := s.teams.GetTeamByName(ctx, name); nameErr == nil {
			return team.Team{}, ErrTeamExists
		}
		if attempt >= teamNumberAttempts {
			return team.Team{}, fmt.Errorf("create team: %w", err)
		}
	}

	pt.JoinTeam(created.ID)
	pt.Captain = true
	pt.RequestsCaptain = false
	if _, err := s.participants.UpdateParticipant(ctx, pt,
		storage.FieldTeam, storage.FieldRequestedTeam, storage.FieldCaptain,
		storage.FieldRequestsCaptain, storage.FieldLookingForTeam); err != nil {
		return team.Team{}, fmt.Errorf("save captain: %w", err)
	}

	if err := s.addToGroup(ctx, user, pt, created.Number); err != nil {
		return created, err
	}

	s.notifier.Notify(ctx, mail.Message{
		Subject: mail.SubjectTeamCreated,
		Body:    mail.TeamCreated(user.FirstName, user.LastName, created.Name, created.Number, s.smtp.PortalURL, s.smtp.SupportAddr),
		To:      []string{user.Email},
	})
	return created, nil
}

// JoinTeam joins an open team immediately, or records a join request
// for a team that is not looking for members. The returned bool is true
// when the participant joined, false when a request was filed.
func (s *Service) JoinTeam(ctx context.Context, participantID, teamID string) (bool, error) {
	pt, user, err := s.load(ctx, participantID)
	if err != nil {
		return false, err
	}
	if pt.IsRedGreen() {
		return false, ErrRedGreen
	}
	if pt.TeamID != "" {
		return false, ErrHasTeam
	}

	t, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return false, fmt.Errorf("get team: %w", err)
	}
	full, err := s.isFull(ctx, t.ID)
	if err != nil {
		return false, err
	}
	if full {
		return false, ErrTeamFull
	}

	if !t.LookingForMembers {
		if !pt.RequestTeam(t.ID) {
			return false, ErrHasTeam
		}
		if _, err := s.participants.UpdateParticipant(ctx, pt, storage.FieldRequestedTeam); err != nil {
			return false, fmt.Errorf("save join request: %w", err)
		}
		s.notifyCaptains(ctx, t, "", mail.SubjectJoinRequested,
			mail.JoinRequested(user.FirstName, user.LastName, user.Email, t.Name, s.smtp.PortalURL, s.smtp.SupportAddr))
		return false, nil
	}

	if err := s.placeOnTeam(ctx, pt, user, t); err != nil {
		return false, err
	}
	s.notifyCaptains(ctx, t, pt.ID, mail.SubjectMemberJoined,
		mail.MemberJoined(user.FirstName, user.LastName, user.Email, t.Name, s.smtp.PortalURL, s.smtp.SupportAddr))
	return true, nil
}

// ApproveJoin lets a captain accept a pending join request for their
// own team.
func (s *Service) ApproveJoin(ctx context.Context, captainID, requesterID string) error {
	capt, err := s.participants.GetParticipant(ctx, captainID)
	if err != nil {
		return fmt.Errorf("get captain: %w", err)
	}
	if !capt.Captain || capt.TeamID == "" {
		return ErrNotCaptain
	}

	pt, user, err := s.load(ctx, requesterID)
	if err != nil {
		return err
	}
	if pt.RequestedTeamID != capt.TeamID || pt.TeamID != "" {
		return ErrNoSuchRequest
	}

	t, err := s.teams.GetTeam(ctx, capt.TeamID)
	if err != nil {
		return fmt.Errorf("get team: %w", err)
	}
	full, err := s.isFull(ctx, t.ID)
	if err != nil {
		return err
	}
	if full {
		return ErrTeamFull
	}
	return s.placeOnTeam(ctx, pt, user, t)
}

// LeaveTeam removes the participant from their team, captain or not.
// A team left empty is deleted, returning its number to the pool.
func (s *Service) LeaveTeam(ctx context.Context, participantID string) error {
	pt, user, err := s.load(ctx, participantID)
	if err != nil {
		return err
	}
	if pt.TeamID == "" {
		return ErrNoTeam
	}
	t, err := s.teams.GetTeam(ctx, pt.TeamID)
	if err != nil {
		return fmt.Errorf("get team: %w", err)
	}

	pt.LeaveTeam()
	if _, err := s.participants.UpdateParticipant(ctx, pt,
		storage.FieldTeam, storage.FieldRequestedTeam, storage.FieldCaptain,
		storage.FieldRequestsCaptain); err != nil {
		return fmt.Errorf("save leave: %w", err)
	}

	dirErr := s.dir.RemoveMember(ctx, s.userDN(user, pt), s.names.TeamGroupDN(t.Number))
	if dirErr != nil {
		s.log.Errorf("remove %s from team %d group: %v", user.Username, t.Number, dirErr)
	}

	remaining, err := s.participants.ListTeamMembers(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	if len(remaining) == 0 {
		if err := s.teams.DeleteTeam(ctx, t.ID); err != nil {
			return fmt.Errorf("delete empty team: %w", err)
		}
		s.log.Infof("deleted empty team %d %q", t.Number, t.Name)
	} else {
		s.notifyCaptains(ctx, t, pt.ID, mail.SubjectMemberLeft,
			mail.MemberLeft(user.FirstName, user.LastName, user.Email, t.Name, s.smtp.SupportAddr))
	}
	if dirErr != nil {
		return fmt.Errorf("directory removal for %s: %w", user.Username, dirErr)
	}
	return nil
}

// RequestPromotion records a captain request and notifies the current
// captains. Requesting twice is a no-op.
func (s *Service) RequestPromotion(ctx context.Context, participantID string) error {
	pt, user, err := s.load(ctx, participantID)
	if err != nil {
		return err
	}
	if pt.TeamID == "" {
		return ErrNoTeam
	}
	if !pt.RequestPromotion() {
		return nil
	}
	if _, err := s.participants.UpdateParticipant(ctx, pt, storage.FieldRequestsCaptain); err != nil {
		return fmt.Errorf("save captain request: %w", err)
	}

	t, err := s.teams.GetTeam(ctx, pt.TeamID)
	if err != nil {
		return fmt.Errorf("get team: %w", err)
	}
	s.notifyCaptains(ctx, t, pt.ID, mail.SubjectCaptainRequested,
		mail.CaptainRequested(user.FirstName, user.LastName, user.Email, t.Name, s.smtp.PortalURL, s.smtp.SupportAddr))
	return nil
}

// PromoteToCaptain lets a captain grant captain status to a teammate
// with a pending captain request.
func (s *Service) PromoteToCaptain(ctx context.Context, captainID, requesterID string) error {
	capt, err := s.participants.GetParticipant(ctx, captainID)
	if err != nil {
		return fmt.Errorf("get captain: %w", err)
	}
	if !capt.Captain || capt.TeamID == "" {
		return ErrNotCaptain
	}

	pt, user, err := s.load(ctx, requesterID)
	if err != nil {
		return err
	}
	if pt.TeamID != capt.TeamID || !pt.RequestsCaptain {
		return ErrNoSuchRequest
	}
	if !pt.Promote() {
		return nil
	}
	if _, err := s.participants.UpdateParticipant(ctx, pt,
		storage.FieldCaptain, storage.FieldRequestsCaptain); err != nil {
		return fmt.Errorf("save promotion: %w", err)
	}

	s.notifier.Notify(ctx, mail.Message{
		Subject: mail.SubjectCaptainPromoted,
		Body:    mail.CaptainPromoted(user.FirstName, user.LastName, s.smtp.PortalURL, s.smtp.SupportAddr),
		To:      []string{user.Email},
	})
	return nil
}

// StepDown demotes a captain to a regular member. The last captain of a
// team may not step down.
func (s *Service) StepDown(ctx context.Context, participantID string) error {
	pt, user, err := s.load(ctx, participantID)
	if err != nil {
		return err
	}
	if !pt.Captain || pt.TeamID == "" {
		return ErrNotCaptain
	}

	captains, err := s.teamCaptains(ctx, pt.TeamID)
	if err != nil {
		return err
	}
	if len(captains) < 2 {
		return ErrOnlyRemainingCaptain
	}

	if !pt.Demote() {
		return nil
	}
	if _, err := s.participants.UpdateParticipant(ctx, pt, storage.FieldCaptain); err != nil {
		return fmt.Errorf("save demotion: %w", err)
	}

	t, err := s.teams.GetTeam(ctx, pt.TeamID)
	if err != nil {
		return fmt.Errorf("get team: %w", err)
	}
	s.notifyCaptains(ctx, t, pt.ID, mail.SubjectSteppedDown,
		mail.SteppedDown(user.FirstName, user.LastName, t.Name, s.smtp.SupportAddr))
	return nil
}

// DisbandTeam deletes a captain's team: every member is released and
// removed from the directory group, pending requests pointing at the
// team are cleared, and the team row is hard deleted. Directory
// failures during the cascade are logged and skipped so one broken
// entry cannot wedge the disband.
func (s *Service) DisbandTeam(ctx context.Context, participantID string) error {
	pt, err := s.participants.GetParticipant(ctx, participantID)
	if err != nil {
		return fmt.Errorf("get participant: %w", err)
	}
	if !pt.Captain || pt.TeamID == "" {
		return ErrNotCaptain
	}
	t, err := s.teams.GetTeam(ctx, pt.TeamID)
	if err != nil {
		return fmt.Errorf("get team: %w", err)
	}

	requesters, err := s.participants.ListJoinRequests(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("list join requests: %w", err)
	}
	for _, r := range requesters {
		r.RequestedTeamID = ""
		if _, err := s.participants.UpdateParticipant(ctx, r, storage.FieldRequestedTeam); err != nil {
			return fmt.Errorf("clear request for %s: %w", r.ID, err)
		}
	}

	members, err := s.participants.ListTeamMembers(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	groupDN := s.names.TeamGroupDN(t.Number)
	var emails []string
	for _, m := range members {
		user, err := s.users.GetUser(ctx, m.UserID)
		if err != nil {
			return fmt.Errorf("get member user: %w", err)
		}
		emails = append(emails, user.Email)

		if err := s.dir.RemoveMember(ctx, s.userDN(user, m), groupDN); err != nil {
			s.log.Errorf("remove %s from disbanded team %d: %v", user.Username, t.Number, err)
		}
		m.LeaveTeam()
		if _, err := s.participants.UpdateParticipant(ctx, m,
			storage.FieldTeam, storage.FieldRequestedTeam, storage.FieldCaptain,
			storage.FieldRequestsCaptain); err != nil {
			return fmt.Errorf("release member %s: %w", m.ID, err)
		}
	}

	if err := s.teams.DeleteTeam(ctx, t.ID); err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	s.log.Infof("disbanded team %d %q with %d members", t.Number, t.Name, len(members))

	s.notifier.Notify(ctx, mail.Message{
		Subject: mail.SubjectTeamDisbanded,
		Body:    mail.TeamDisbanded(t.Name, s.smtp.PortalURL, s.smtp.SupportAddr),
		To:      []string{s.smtp.FromAddr},
		BCC:     emails,
	})
	return nil
}

// CheckIn marks the participant present. Only available once the
// check-in date has passed.
func (s *Service) CheckIn(ctx context.Context, participantID string) error {
	open, err := s.settings.CheckInOpen(ctx, time.Now())
	if err != nil {
		return err
	}
	if !open {
		return ErrCheckInClosed
	}
	return s.setCheckedIn(ctx, participantID, true)
}

// UndoCheckIn reverses a mistaken check-in.
func (s *Service) UndoCheckIn(ctx context.Context, participantID string) error {
	return s.setCheckedIn(ctx, participantID, false)
}

func (s *Service) setCheckedIn(ctx context.Context, participantID string, checkedIn bool) error {
	pt, err := s.participants.GetParticipant(ctx, participantID)
	if err != nil {
		return fmt.Errorf("get participant: %w", err)
	}
	if pt.IsRedGreen() {
		return ErrRedGreen
	}
	if pt.CheckedIn == checkedIn {
		return nil
	}
	pt.CheckedIn = checkedIn
	if _, err := s.participants.UpdateParticipant(ctx, pt, storage.FieldCheckedIn); err != nil {
		return fmt.Errorf("save check-in: %w", err)
	}
	return nil
}

// SetLookingForTeam toggles the roster-browse flag. Participants on a
// team cannot advertise; the flag is forced off instead.
func (s *Service) SetLookingForTeam(ctx context.Context, participantID string, looking bool) error {
	pt, err := s.participants.GetParticipant(ctx, participantID)
	if err != nil {
		return fmt.Errorf("get participant: %w", err)
	}
	if pt.IsRedGreen() {
		return ErrRedGreen
	}
	if looking && pt.TeamID != "" {
		if pt.LookingForTeam {
			pt.LookingForTeam = false
			if _, err := s.participants.UpdateParticipant(ctx, pt, storage.FieldLookingForTeam); err != nil {
				return fmt.Errorf("save looking-for-team: %w", err)
			}
		}
		return ErrHasTeam
	}
	if pt.LookingForTeam == looking {
		return nil
	}
	pt.LookingForTeam = looking
	if _, err := s.participants.UpdateParticipant(ctx, pt, storage.FieldLookingForTeam); err != nil {
		return fmt.Errorf("save looking-for-team: %w", err)
	}
	return nil
}

// Approve moves a red/green participant from the pending directory
// group into the active one and marks them approved.
func (s *Service) Approve(ctx context.Context, participantID string) error {
	return s.setApproved(ctx, participantID, true)
}

// Unapprove reverses Approve.
func (s *Service) Unapprove(ctx context.Context, participantID string) error {
	return s.setApproved(ctx, participantID, false)
}

func (s *Service) setApproved(ctx context.Context, participantID string, approved bool) error {
	pt, user, err := s.load(ctx, participantID)
	if err != nil {
		return err
	}
	if !pt.IsRedGreen() {
		return ErrNotRedGreen
	}
	if pt.Approved == approved {
		return nil
	}
	pt.Approved = approved
	if _, err := s.participants.UpdateParticipant(ctx, pt, storage.FieldApproved); err != nil {
		return fmt.Errorf("save approval: %w", err)
	}

	var pending, active string
	if pt.IsRed {
		pending, active = s.names.RedGroupDN(true), s.names.RedGroupDN(false)
	} else {
		pending, active = s.names.GreenGroupDN(true), s.names.GreenGroupDN(false)
	}
	from, to := pending, active
	if !approved {
		from, to = active, pending
	}

	dn := s.userDN(user, pt)
	if err := s.dir.RemoveMember(ctx, dn, from); err != nil {
		return fmt.Errorf("directory move for %s: %w", user.Username, err)
	}
	if err := s.dir.AddMember(ctx, dn, to); err != nil {
		return fmt.Errorf("directory move for %s: %w", user.Username, err)
	}
	return nil
}

// Lookup resolves a user and their participant record by user ID.
func (s *Service) Lookup(ctx context.Context, userID string) (identity.User, participant.Participant, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return identity.User{}, participant.Participant{}, fmt.Errorf("get user: %w", err)
	}
	pt, err := s.participants.GetParticipantByUserID(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return identity.User{}, participant.Participant{}, fmt.Errorf("get participant: %w", err)
	}
	return user, pt, nil
}

// ListParticipants returns every participant record, for the admin
// dashboard.
func (s *Service) ListParticipants(ctx context.Context) ([]participant.Participant, error) {
	return s.participants.ListParticipants(ctx)
}

// ListTeams returns all teams, for the browse page.
func (s *Service) ListTeams(ctx context.Context) ([]team.Team, error) {
	return s.teams.ListTeams(ctx)
}

// TeamMembers returns a team's roster.
func (s *Service) TeamMembers(ctx context.Context, teamID string) ([]participant.Participant, error) {
	return s.participants.ListTeamMembers(ctx, teamID)
}

// JoinRequests returns the pending join requests for a team.
func (s *Service) JoinRequests(ctx context.Context, teamID string) ([]participant.Participant, error) {
	return s.participants.ListJoinRequests(ctx, teamID)
}

// placeOnTeam performs the actual join: participant state, the
// directory group add, the capacity flip, and the joiner's mail.
func (s *Service) placeOnTeam(ctx context.Context, pt participant.Participant, user identity.User, t team.Team) error {
	pt.JoinTeam(t.ID)
	if _, err := s.participants.UpdateParticipant(ctx, pt,
		storage.FieldTeam, storage.FieldRequestedTeam, storage.FieldLookingForTeam); err != nil {
		return fmt.Errorf("save join: %w", err)
	}

	dirErr := s.dir.AddMember(ctx, s.userDN(user, pt), s.names.TeamGroupDN(t.Number))
	if dirErr != nil {
		s.log.Errorf("add %s to team %d group: %v", user.Username, t.Number, dirErr)
	}

	members, err := s.participants.ListTeamMembers(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	max, err := s.settings.MaxTeamSize(ctx)
	if err != nil {
		return err
	}
	if len(members) >= max && t.LookingForMembers {
		t.LookingForMembers = false
		if _, err := s.teams.UpdateTeam(ctx, t); err != nil {
			return fmt.Errorf("close team: %w", err)
		}
	}

	captains, err := s.teamCaptains(ctx, t.ID)
	if err != nil {
		return err
	}
	var names []string
	for _, c := range captains {
		cu, err := s.users.GetUser(ctx, c.UserID)
		if err != nil {
			return fmt.Errorf("get captain user: %w", err)
		}
		names = append(names, cu.FullName())
	}
	s.notifier.Notify(ctx, mail.Message{
		Subject: mail.SubjectAddedToTeam,
		Body:    mail.AddedToTeam(user.FirstName, user.LastName, t.Number, t.Name, strings.Join(names, ", "), s.smtp.SupportAddr),
		To:      []string{user.Email},
	})
	if dirErr != nil {
		return fmt.Errorf("directory add for %s: %w", user.Username, dirErr)
	}
	return nil
}

func (s *Service) addToGroup(ctx context.Context, user identity.User, pt participant.Participant, number int) error {
	if err := s.dir.AddMember(ctx, s.userDN(user, pt), s.names.TeamGroupDN(number)); err != nil {
		s.log.Errorf("add %s to team %d group: %v", user.Username, number, err)
		return fmt.Errorf("directory add for %s: %w", user.Username, err)
	}
	return nil
}

func (s *Service) isFull(ctx context.Context, teamID string) (bool, error) {
	members, err := s.participants.ListTeamMembers(ctx, teamID)
	if err != nil {
		return false, fmt.Errorf("list members: %w", err)
	}
	max, err := s.settings.MaxTeamSize(ctx)
	if err != nil {
		return false, err
	}
	return len(members) >= max, nil
}

// teamCaptains returns the captains on a team.
func (s *Service) teamCaptains(ctx context.Context, teamID string) ([]participant.Participant, error) {
	members, err := s.participants.ListTeamMembers(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	var captains []participant.Participant
	for _, m := range members {
		if m.Captain {
			captains = append(captains, m)
		}
	}
	return captains, nil
}

// notifyCaptains mails every captain on the team except excludeID.
func (s *Service) notifyCaptains(ctx context.Context, t team.Team, excludeID, subject, body string) {
	captains, err := s.teamCaptains(ctx, t.ID)
	if err != nil {
		s.log.Errorf("list captains for team %d: %v", t.Number, err)
		return
	}
	var emails []string
	for _, c := range captains {
		if c.ID == excludeID {
			continue
		}
		user, err := s.users.GetUser(ctx, c.UserID)
		if err != nil {
			s.log.Errorf("get captain user %s: %v", c.UserID, err)
			continue
		}
		emails = append(emails, user.Email)
	}
	if len(emails) == 0 {
		return
	}
	s.notifier.Notify(ctx, mail.Message{Subject: subject, Body: body, To: emails})
}

func (s *Service) load(ctx context.Context, participantID string) (participant.Participant, identity.User, error) {
	pt, err := s.participants.GetParticipant(ctx, participantID)
	if err != nil {
		return participant.Participant{}, identity.User{}, fmt.Errorf("get participant: %w", err)
	}
	user, err := s.users.GetUser(ctx, pt.UserID)
	if err != nil {
		return participant.Participant{}, identity.User{}, fmt.Errorf("get user: %w", err)
	}
	return pt, user, nil
}

func (s *Service) userDN(user identity.User, pt participant.Participant) string {
	return s.names.UserDN(user.FirstName, user.LastName, pt.IsRed, pt.IsGreen)
}
