// Package memory provides a thread-safe in-memory implementation of the
// storage interfaces. It is intended for tests and prototyping and
// deliberately keeps the implementation simple.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iseage/signup/internal/domain/broadcast"
	"github.com/iseage/signup/internal/domain/identity"
	"github.com/iseage/signup/internal/domain/participant"
	"github.com/iseage/signup/internal/domain/settings"
	"github.com/iseage/signup/internal/domain/team"
	"github.com/iseage/signup/internal/storage"
)

// Store is the in-memory persistence layer.
type Store struct {
	mu           sync.RWMutex
	nextID       int64
	users        map[string]identity.User
	participants map[string]participant.Participant
	teams        map[string]team.Team
	archive      map[string]broadcast.ArchivedEmail
	settings     *settings.GlobalSettings
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		nextID:       1,
		users:        make(map[string]identity.User),
		participants: make(map[string]participant.Participant),
		teams:        make(map[string]team.Team),
		archive:      make(map[string]broadcast.ArchivedEmail),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u identity.User) (identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return identity.User{}, fmt.Errorf("username %s: %w", u.Username, storage.ErrConflict)
		}
	}

	if u.ID == "" {
		u.ID = s.nextIDLocked()
	} else if _, exists := s.users[u.ID]; exists {
		return identity.User{}, fmt.Errorf("user %s: %w", u.ID, storage.ErrConflict)
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u identity.User) (identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return identity.User{}, fmt.Errorf("user %s: %w", u.ID, storage.ErrNotFound)
	}
	u.CreatedAt = original.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return identity.User{}, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return identity.User{}, fmt.Errorf("user %s: %w", username, storage.ErrNotFound)
}

func (s *Store) ListUsersByEmail(_ context.Context, email string) ([]identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []identity.User
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			result = append(result, u)
		}
	}
	sortUsers(result)
	return result, nil
}

func (s *Store) ListUsers(_ context.Context) ([]identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]identity.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u)
	}
	sortUsers(result)
	return result, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	delete(s.users, id)
	return nil
}

// ParticipantStore implementation ---------------------------------------------

func (s *Store) CreateParticipant(_ context.Context, p participant.Participant) (participant.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = s.nextIDLocked()
	} else if _, exists := s.participants[p.ID]; exists {
		return participant.Participant{}, fmt.Errorf("participant %s: %w", p.ID, storage.ErrConflict)
	}

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.participants[p.ID] = p
	return p, nil
}

func (s *Store) UpdateParticipant(_ context.Context, p participant.Participant, fields ...string) (participant.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.participants[p.ID]
	if !ok {
		return participant.Participant{}, fmt.Errorf("participant %s: %w", p.ID, storage.ErrNotFound)
	}

	next := p
	if len(fields) > 0 {
		next = original
		for _, f := range fields {
			switch f {
			case storage.FieldTeam:
				next.TeamID = p.TeamID
			case storage.FieldRequestedTeam:
				next.RequestedTeamID = p.RequestedTeamID
			case storage.FieldCaptain:
				next.Captain = p.Captain
			case storage.FieldRequestsCaptain:
				next.RequestsCaptain = p.RequestsCaptain
			case storage.FieldCheckedIn:
				next.CheckedIn = p.CheckedIn
			case storage.FieldLookingForTeam:
				next.LookingForTeam = p.LookingForTeam
			case storage.FieldApproved:
				next.Approved = p.Approved
			default:
				return participant.Participant{}, fmt.Errorf("unknown participant field %q", f)
			}
		}
	}

	next.CreatedAt = original.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	s.participants[next.ID] = next
	return next, nil
}

func (s *Store) GetParticipant(_ context.Context, id string) (participant.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.participants[id]
	if !ok {
		return participant.Participant{}, fmt.Errorf("participant %s: %w", id, storage.ErrNotFound)
	}
	return p, nil
}

func (s *Store) GetParticipantByUserID(_ context.Context, userID string) (participant.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.participants {
		if p.UserID == userID {
			return p, nil
		}
	}
	return participant.Participant{}, fmt.Errorf("participant for user %s: %w", userID, storage.ErrNotFound)
}

func (s *Store) ListParticipants(_ context.Context) ([]participant.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]participant.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		result = append(result, p)
	}
	sortParticipants(result)
	return result, nil
}

func (s *Store) ListTeamMembers(_ context.Context, teamID string) ([]participant.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []participant.Participant
	for _, p := range s.participants {
		if p.TeamID == teamID && teamID != "" {
			result = append(result, p)
		}
	}
	sortParticipants(result)
	return result, nil
}

func (s *Store) ListJoinRequests(_ context.Context, teamID string) ([]participant.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []participant.Participant
	for _, p := range s.participants {
		if p.RequestedTeamID == teamID && teamID != "" {
			result = append(result, p)
		}
	}
	sortParticipants(result)
	return result, nil
}

func (s *Store) DeleteParticipant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[id]; !ok {
		return fmt.Errorf("participant %s: %w", id, storage.ErrNotFound)
	}
	delete(s.participants, id)
	return nil
}

// TeamStore implementation ----------------------------------------------------

func (s *Store) CreateTeam(_ context.Context, t team.Team) (team.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.teams {
		if existing.Name == t.Name {
			return team.Team{}, fmt.Errorf("team name %q: %w", t.Name, storage.ErrConflict)
		}
		if existing.Number == t.Number && t.Number != 0 {
			return team.Team{}, fmt.Errorf("team number %d: %w", t.Number, storage.ErrConflict)
		}
	}

	if t.ID == "" {
		t.ID = s.nextIDLocked()
	} else if _, exists := s.teams[t.ID]; exists {
		return team.Team{}, fmt.Errorf("team %s: %w", t.ID, storage.ErrConflict)
	}

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.teams[t.ID] = t
	return t, nil
}

func (s *Store) UpdateTeam(_ context.Context, t team.Team) (team.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.teams[t.ID]
	if !ok {
		return team.Team{}, fmt.Errorf("team %s: %w", t.ID, storage.ErrNotFound)
	}
	for _, existing := range s.teams {
		if existing.ID == t.ID {
			continue
		}
		if existing.Name == t.Name {
			return team.Team{}, fmt.Errorf("team name %q: %w", t.Name, storage.ErrConflict)
		}
		if existing.Number == t.Number && t.Number != 0 {
			return team.Team{}, fmt.Errorf("team number %d: %w", t.Number, storage.ErrConflict)
		}
	}

	t.CreatedAt = original.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	s.teams[t.ID] = t
	return t, nil
}

func (s *Store) GetTeam(_ context.Context, id string) (team.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[id]
	if !ok {
		return team.Team{}, fmt.Errorf("team %s: %w", id, storage.ErrNotFound)
	}
	return t, nil
}

func (s *Store) GetTeamByName(_ context.Context, name string) (team.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.teams {
		if t.Name == name {
			return t, nil
		}
	}
	return team.Team{}, fmt.Errorf("team %q: %w", name, storage.ErrNotFound)
}

func (s *Store) ListTeams(_ context.Context) ([]team.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]team.Team, 0, len(s.teams))
	for _, t := range s.teams {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (s *Store) ListTeamNumbers(_ context.Context) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	numbers := make([]int, 0, len(s.teams))
	for _, t := range s.teams {
		numbers = append(numbers, t.Number)
	}
	sort.Ints(numbers)
	return numbers, nil
}

func (s *Store) DeleteTeam(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[id]; !ok {
		return fmt.Errorf("team %s: %w", id, storage.ErrNotFound)
	}
	delete(s.teams, id)
	return nil
}

// SettingsStore implementation ------------------------------------------------

func (s *Store) GetSettings(_ context.Context) (settings.GlobalSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return settings.GlobalSettings{}, fmt.Errorf("global settings: %w", storage.ErrNotFound)
	}
	return *s.settings, nil
}

func (s *Store) SaveSettings(_ context.Context, gs settings.GlobalSettings) (settings.GlobalSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gs.ID == "" {
		gs.ID = s.nextIDLocked()
	}
	gs.UpdatedAt = time.Now().UTC()
	s.settings = &gs
	return gs, nil
}

// ArchiveStore implementation -------------------------------------------------

func (s *Store) CreateArchivedEmail(_ context.Context, m broadcast.ArchivedEmail) (broadcast.ArchivedEmail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = s.nextIDLocked()
	} else if _, exists := s.archive[m.ID]; exists {
		return broadcast.ArchivedEmail{}, fmt.Errorf("archived email %s: %w", m.ID, storage.ErrConflict)
	}
	if m.SentAt.IsZero() {
		m.SentAt = time.Now().UTC()
	}
	s.archive[m.ID] = m
	return m, nil
}

func (s *Store) GetArchivedEmail(_ context.Context, id string) (broadcast.ArchivedEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.archive[id]
	if !ok {
		return broadcast.ArchivedEmail{}, fmt.Errorf("archived email %s: %w", id, storage.ErrNotFound)
	}
	return m, nil
}

func (s *Store) ListArchivedEmails(_ context.Context) ([]broadcast.ArchivedEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]broadcast.ArchivedEmail, 0, len(s.archive))
	for _, m := range s.archive {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SentAt.Before(result[j].SentAt) })
	return result, nil
}

func (s *Store) DeleteArchivedEmails(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.archive = make(map[string]broadcast.ArchivedEmail)
	return nil
}

// Helpers ---------------------------------------------------------------------

func sortUsers(users []identity.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
}

func sortParticipants(pts []participant.Participant) {
	sort.Slice(pts, func(i, j int) bool { return pts[i].ID < pts[j].ID })
}
