// Package maintenance holds the administrative background jobs: the
// end-of-season competition reset, and the directory reconciliation
// sweep that repairs group membership drift left behind by directory
// outages during team changes.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iseage/signup/internal/directory"
	"github.com/iseage/signup/internal/logging"
	"github.com/iseage/signup/internal/storage"
)

// Deps are the collaborators the maintenance jobs need.
type Deps struct {
	Users        storage.UserStore
	Participants storage.ParticipantStore
	Teams        storage.TeamStore
	Archive      storage.ArchiveStore
	Directory    directory.Directory
	Names        directory.Names
	Logger       *logging.Logger
}

// Service runs the reset and the reconciliation sweep.
type Service struct {
	users        storage.UserStore
	participants storage.ParticipantStore
	teams        storage.TeamStore
	archive      storage.ArchiveStore
	dir          directory.Directory
	names        directory.Names
	log          *logging.Logger

	cron *cron.Cron
}

// New constructs a maintenance service. A nil logger gets a default.
func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logging.NewDefault("maintenance")
	}
	return &Service{
		users:        d.Users,
		participants: d.Participants,
		teams:        d.Teams,
		archive:      d.Archive,
		dir:          d.Directory,
		names:        d.Names,
		log:          d.Logger,
	}
}

// ResetCompetition wipes the season: every team, every non-superuser
// account with its participant record, and the broadcast archive.
// Superuser accounts survive so admins can still log in. Directory
// entries are left to the domain controller's own cleanup.
func (s *Service) ResetCompetition(ctx context.Context) error {
	teams, err := s.teams.ListTeams(ctx)
	if err != nil {
		return fmt.Errorf("list teams: %w", err)
	}
	for _, t := range teams {
		if err := s.teams.DeleteTeam(ctx, t.ID); err != nil {
			return fmt.Errorf("delete team %d: %w", t.Number, err)
		}
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	var removed int
	for _, u := range users {
		if u.IsSuperuser {
			continue
		}
		pt, err := s.participants.GetParticipantByUserID(ctx, u.ID)
		if err == nil {
			if err := s.participants.DeleteParticipant(ctx, pt.ID); err != nil {
				return fmt.Errorf("delete participant %s: %w", pt.ID, err)
			}
		} else if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("get participant for %s: %w", u.Username, err)
		}
		if err := s.users.DeleteUser(ctx, u.ID); err != nil {
			return fmt.Errorf("delete user %s: %w", u.Username, err)
		}
		removed++
	}

	if err := s.archive.DeleteArchivedEmails(ctx); err != nil {
		return fmt.Errorf("clear archive: %w", err)
	}

	s.log.Infof("competition reset: %d teams and %d accounts removed", len(teams), removed)
	return nil
}

// ReconcileDirectory re-asserts every teamed participant's membership
// in their team group. Adds are idempotent at the gateway, so a clean
// directory is a cheap no-op pass. Failures are counted and logged,
// never fatal: the next sweep retries.
func (s *Service) ReconcileDirectory(ctx context.Context) error {
	pts, err := s.participants.ListParticipants(ctx)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}

	var checked, failed int
	for _, pt := range pts {
		if pt.TeamID == "" {
			continue
		}
		t, err := s.teams.GetTeam(ctx, pt.TeamID)
		if err != nil {
			s.log.Errorf("reconcile: team %s for participant %s: %v", pt.TeamID, pt.ID, err)
			failed++
			continue
		}
		user, err := s.users.GetUser(ctx, pt.UserID)
		if err != nil {
			s.log.Errorf("reconcile: user %s: %v", pt.UserID, err)
			failed++
			continue
		}
		checked++
		dn := s.names.UserDN(user.FirstName, user.LastName, pt.IsRed, pt.IsGreen)
		if err := s.dir.AddMember(ctx, dn, s.names.TeamGroupDN(t.Number)); err != nil {
			s.log.Errorf("reconcile: add %s to team %d: %v", user.Username, t.Number, err)
			failed++
		}
	}

	s.log.Infof("reconcile sweep: %d memberships checked, %d failures", checked, failed)
	if failed > 0 {
		return fmt.Errorf("reconcile sweep: %d of %d memberships failed", failed, checked)
	}
	return nil
}

// StartSweep schedules ReconcileDirectory on the given cron spec. An
// empty spec disables the sweep.
func (s *Service) StartSweep(schedule string) error {
	if schedule == "" {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.ReconcileDirectory(ctx); err != nil {
			s.log.Warnf("scheduled sweep: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reconcile sweep %q: %w", schedule, err)
	}
	c.Start()
	s.cron = c
	s.log.Infof("reconcile sweep scheduled: %s", schedule)
	return nil
}

// StopSweep halts the scheduled sweep, waiting for a running pass.
func (s *Service) StopSweep() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}
