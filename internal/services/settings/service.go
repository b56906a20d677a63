// Package settings serves the competition-wide GlobalSettings row
// through a process-wide cache. Reads hit storage once; every write goes
// through the service so the cache never serves a stale row to the
// process that wrote it.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iseage/signup/internal/config"
	domain "github.com/iseage/signup/internal/domain/settings"
	"github.com/iseage/signup/internal/logging"
	"github.com/iseage/signup/internal/storage"
)

// Service caches the singleton settings row and applies static-config
// fallbacks for numeric fields left at their zero value.
type Service struct {
	store    storage.SettingsStore
	defaults config.Defaults
	log      *logging.Logger

	mu     sync.RWMutex
	cached *domain.GlobalSettings
}

// New constructs the settings service. A nil logger gets a default.
func New(store storage.SettingsStore, defaults config.Defaults, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("settings")
	}
	return &Service{store: store, defaults: defaults, log: log}
}

// Current returns the settings row, creating it with defaults on first
// access. After the first call the row is served from memory until a
// write or Invalidate.
func (s *Service) Current(ctx context.Context) (domain.GlobalSettings, error) {
	s.mu.RLock()
	if s.cached != nil {
		gs := *s.cached
		s.mu.RUnlock()
		return gs, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return *s.cached, nil
	}

	gs, err := s.store.GetSettings(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		gs, err = s.store.SaveSettings(ctx, domain.New())
		if err == nil {
			s.log.Info("created global settings row")
		}
	}
	if err != nil {
		return domain.GlobalSettings{}, fmt.Errorf("load settings: %w", err)
	}
	s.cached = &gs
	return gs, nil
}

// Save persists the full row and refreshes the cache.
func (s *Service) Save(ctx context.Context, gs domain.GlobalSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved, err := s.store.SaveSettings(ctx, gs)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.cached = &saved
	return nil
}

// Invalidate drops the cached row. The next read reloads from storage.
// Needed only when another process may have written the row.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// Get returns a setting by name, applying the static fallback for
// numeric fields whose stored value is unset.
func (s *Service) Get(ctx context.Context, name string) (any, error) {
	gs, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	switch name {
	case domain.NumberOfTeams:
		return fallbackInt(gs.NumberOfTeams, s.defaults.NumberOfTeams), nil
	case domain.MaxTeamSize:
		return fallbackInt(gs.MaxTeamSize, s.defaults.MaxTeamSize), nil
	case domain.AdministratorBindDN:
		return gs.AdministratorBindDN, nil
	case domain.AdministratorBindPW:
		return gs.AdministratorBindPW, nil
	case domain.CheckInDate:
		return gs.CheckInDate, nil
	case domain.DocumentationURL:
		return gs.DocumentationURL, nil
	case domain.CompetitionName:
		return gs.CompetitionName, nil
	case domain.CompetitionDate:
		return gs.CompetitionDate, nil
	case domain.EnableAccountCreation:
		return gs.EnableAccountCreation, nil
	case domain.EnableRed:
		return gs.EnableRed, nil
	case domain.EnableGreen:
		return gs.EnableGreen, nil
	}
	return nil, fmt.Errorf("unknown setting %q", name)
}

// Set updates a single setting by name and writes the row through. The
// value's concrete type must match the setting.
func (s *Service) Set(ctx context.Context, name string, value any) error {
	gs, err := s.Current(ctx)
	if err != nil {
		return err
	}

	switch name {
	case domain.NumberOfTeams:
		gs.NumberOfTeams, err = asInt(name, value)
	case domain.MaxTeamSize:
		gs.MaxTeamSize, err = asInt(name, value)
	case domain.AdministratorBindDN:
		gs.AdministratorBindDN, err = asString(name, value)
	case domain.AdministratorBindPW:
		gs.AdministratorBindPW, err = asString(name, value)
	case domain.CheckInDate:
		gs.CheckInDate, err = asTime(name, value)
	case domain.DocumentationURL:
		gs.DocumentationURL, err = asString(name, value)
	case domain.CompetitionName:
		gs.CompetitionName, err = asString(name, value)
	case domain.CompetitionDate:
		gs.CompetitionDate, err = asTime(name, value)
	case domain.EnableAccountCreation:
		gs.EnableAccountCreation, err = asBool(name, value)
	case domain.EnableRed:
		gs.EnableRed, err = asBool(name, value)
	case domain.EnableGreen:
		gs.EnableGreen, err = asBool(name, value)
	default:
		return fmt.Errorf("unknown setting %q", name)
	}
	if err != nil {
		return err
	}
	return s.Save(ctx, gs)
}

// NumberOfTeams returns the size of the team number pool.
func (s *Service) NumberOfTeams(ctx context.Context) (int, error) {
	gs, err := s.Current(ctx)
	if err != nil {
		return 0, err
	}
	return fallbackInt(gs.NumberOfTeams, s.defaults.NumberOfTeams), nil
}

// MaxTeamSize returns the roster cap.
func (s *Service) MaxTeamSize(ctx context.Context) (int, error) {
	gs, err := s.Current(ctx)
	if err != nil {
		return 0, err
	}
	return fallbackInt(gs.MaxTeamSize, s.defaults.MaxTeamSize), nil
}

// BindCredentials returns the administrative bind DN and password for
// the directory gateway. Sourced from settings rather than static config
// so the account can be rotated from the admin dashboard.
func (s *Service) BindCredentials(ctx context.Context) (dn, password string, err error) {
	gs, err := s.Current(ctx)
	if err != nil {
		return "", "", err
	}
	return gs.AdministratorBindDN, gs.AdministratorBindPW, nil
}

// AccountCreationEnabled reports whether blue signup is open.
func (s *Service) AccountCreationEnabled(ctx context.Context) (bool, error) {
	gs, err := s.Current(ctx)
	return gs.EnableAccountCreation, err
}

// RedEnabled reports whether red team signup is open.
func (s *Service) RedEnabled(ctx context.Context) (bool, error) {
	gs, err := s.Current(ctx)
	return gs.EnableRed, err
}

// GreenEnabled reports whether green team signup is open.
func (s *Service) GreenEnabled(ctx context.Context) (bool, error) {
	gs, err := s.Current(ctx)
	return gs.EnableGreen, err
}

// CheckInOpen reports whether check-in has opened: a check-in date is
// set and is not in the future.
func (s *Service) CheckInOpen(ctx context.Context, now time.Time) (bool, error) {
	gs, err := s.Current(ctx)
	if err != nil {
		return false, err
	}
	return gs.CheckInDate != nil && !gs.CheckInDate.After(now), nil
}

func fallbackInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func asInt(name string, v any) (int, error) {
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("setting %q wants an int, got %T", name, v)
	}
	return n, nil
}

func asString(name string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("setting %q wants a string, got %T", name, v)
	}
	return s, nil
}

func asBool(name string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("setting %q wants a bool, got %T", name, v)
	}
	return b, nil
}

func asTime(name string, v any) (*time.Time, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &t, nil
	case *time.Time:
		return t, nil
	}
	return nil, fmt.Errorf("setting %q wants a time, got %T", name, v)
}
