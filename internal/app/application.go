// Package app wires the portal services together and manages their
// lifecycle.
package app

import (
	"context"

	"github.com/iseage/signup/internal/auth"
	"github.com/iseage/signup/internal/config"
	"github.com/iseage/signup/internal/directory"
	"github.com/iseage/signup/internal/directory/ldapdir"
	"github.com/iseage/signup/internal/logging"
	"github.com/iseage/signup/internal/mail"
	"github.com/iseage/signup/internal/services/accounts"
	"github.com/iseage/signup/internal/services/broadcast"
	"github.com/iseage/signup/internal/services/maintenance"
	settingssvc "github.com/iseage/signup/internal/services/settings"
	"github.com/iseage/signup/internal/services/teams"
	"github.com/iseage/signup/internal/storage"
	"github.com/iseage/signup/internal/storage/memory"
)

// Stores encapsulates persistence dependencies. Nil stores default to
// the in-memory implementation.
type Stores struct {
	Users        storage.UserStore
	Participants storage.ParticipantStore
	Teams        storage.TeamStore
	Settings     storage.SettingsStore
	Archive      storage.ArchiveStore
}

// Application ties the portal services together.
type Application struct {
	cfg *config.Config
	log *logging.Logger

	Settings    *settingssvc.Service
	Teams       *teams.Service
	Accounts    *accounts.Service
	Broadcast   *broadcast.Service
	Maintenance *maintenance.Service
	Auth        *auth.Service
}

// New builds a fully initialised application. The directory gateway and
// mail sender are injected so tests can substitute fakes.
func New(cfg *config.Config, stores Stores, dir directory.Directory, sender mail.Sender, log *logging.Logger) (*Application, error) {
	if log == nil {
		log = logging.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Participants == nil {
		stores.Participants = mem
	}
	if stores.Teams == nil {
		stores.Teams = mem
	}
	if stores.Settings == nil {
		stores.Settings = mem
	}
	if stores.Archive == nil {
		stores.Archive = mem
	}

	names := directory.NewNames(cfg.Directory)
	if sender == nil && cfg.SMTP.Host != "" {
		sender = mail.NewSMTPSender(cfg.SMTP)
	}
	notifier := mail.NewNotifier(sender, log.Named("mail"))

	settingsService := settingssvc.New(stores.Settings, cfg.Defaults, log.Named("settings"))
	if dir == nil {
		// The admin bind credentials live in settings so they can be
		// rotated from the dashboard; the gateway reads them per
		// operation.
		dir = ldapdir.New(cfg.Directory, settingsService.BindCredentials, log.Named("directory"))
	}
	teamsService := teams.New(teams.Deps{
		Users:        stores.Users,
		Participants: stores.Participants,
		Teams:        stores.Teams,
		Settings:     settingsService,
		Directory:    dir,
		Names:        names,
		Notifier:     notifier,
		SMTP:         cfg.SMTP,
		Logger:       log.Named("teams"),
	})
	accountsService := accounts.New(accounts.Deps{
		Users:        stores.Users,
		Participants: stores.Participants,
		Settings:     settingsService,
		Directory:    dir,
		Names:        names,
		Notifier:     notifier,
		SMTP:         cfg.SMTP,
		Logger:       log.Named("accounts"),
	})
	broadcastService := broadcast.New(broadcast.Deps{
		Users:        stores.Users,
		Participants: stores.Participants,
		Archive:      stores.Archive,
		Sender:       sender,
		SMTP:         cfg.SMTP,
		Logger:       log.Named("broadcast"),
	})
	maintenanceService := maintenance.New(maintenance.Deps{
		Users:        stores.Users,
		Participants: stores.Participants,
		Teams:        stores.Teams,
		Archive:      stores.Archive,
		Directory:    dir,
		Names:        names,
		Logger:       log.Named("maintenance"),
	})
	authService := auth.New(auth.Deps{
		Users:        stores.Users,
		Participants: stores.Participants,
		Directory:    dir,
		Names:        names,
		AdminGroup:   cfg.Directory.AdminGroup,
		Auth:         cfg.Auth,
		Logger:       log.Named("auth"),
	})

	return &Application{
		cfg:         cfg,
		log:         log,
		Settings:    settingsService,
		Teams:       teamsService,
		Accounts:    accountsService,
		Broadcast:   broadcastService,
		Maintenance: maintenanceService,
		Auth:        authService,
	}, nil
}

// Start launches the background jobs.
func (a *Application) Start(_ context.Context) error {
	return a.Maintenance.StartSweep(a.cfg.Maintenance.ReconcileSchedule)
}

// Stop halts the background jobs.
func (a *Application) Stop(_ context.Context) error {
	a.Maintenance.StopSweep()
	return nil
}
