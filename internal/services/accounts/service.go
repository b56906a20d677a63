// Package accounts handles self-service account provisioning and the
// password flows. The directory holds the authoritative credential; the
// local user row mirrors identity attributes and a bcrypt hash kept
// only so logins can ride out short directory outages.
package accounts

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iseage/signup/internal/config"
	"github.com/iseage/signup/internal/directory"
	"github.com/iseage/signup/internal/domain/identity"
	"github.com/iseage/signup/internal/domain/participant"
	"github.com/iseage/signup/internal/logging"
	"github.com/iseage/signup/internal/mail"
	"github.com/iseage/signup/internal/services/settings"
	"github.com/iseage/signup/internal/storage"
)

var (
	// ErrPasswordMismatch is returned when the current password given
	// for a change does not bind against the directory.
	ErrPasswordMismatch = errors.New("current password is incorrect")
	// ErrSignupClosed is returned when the requested account type is
	// disabled in settings.
	ErrSignupClosed = errors.New("signup is closed for this account type")
	// ErrUsernameExists mirrors the directory sentinel for callers
	// that only import this package.
	ErrUsernameExists = directory.ErrUsernameExists
	// ErrDuplicateName mirrors the directory sentinel.
	ErrDuplicateName = directory.ErrDuplicateName
)

// AccountType selects the OU and initial group for a new account.
type AccountType string

const (
	Blue  AccountType = "blue"
	Red   AccountType = "red"
	Green AccountType = "green"
)

const passwordLength = 12

// SignupRequest carries the self-service signup form.
type SignupRequest struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Type      AccountType
}

// Deps are the collaborators the accounts service needs.
type Deps struct {
	Users        storage.UserStore
	Participants storage.ParticipantStore
	Settings     *settings.Service
	Directory    directory.Directory
	Names        directory.Names
	Notifier     *mail.Notifier
	SMTP         config.SMTP
	Logger       *logging.Logger
}

// Service provisions accounts and manages passwords.
type Service struct {
	users        storage.UserStore
	participants storage.ParticipantStore
	settings     *settings.Service
	dir          directory.Directory
	names        directory.Names
	notifier     *mail.Notifier
	smtp         config.SMTP
	log          *logging.Logger
}

// New constructs an accounts service. A nil logger gets a default.
func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logging.NewDefault("accounts")
	}
	return &Service{
		users:        d.Users,
		participants: d.Participants,
		settings:     d.Settings,
		dir:          d.Directory,
		names:        d.Names,
		notifier:     d.Notifier,
		smtp:         d.SMTP,
		log:          d.Logger,
	}
}

// CreateAccount provisions a new account: directory entry first, then
// the local mirror rows, then the credentials mail. The caller never
// sees the generated password; it only travels by email.
func (s *Service) CreateAccount(ctx context.Context, req SignupRequest) (identity.User, error) {
	if err := s.checkOpen(ctx, req.Type); err != nil {
		return identity.User{}, err
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.FirstName == "" || req.LastName == "" || req.Email == "" {
		return identity.User{}, fmt.Errorf("all signup fields are required")
	}

	if _, err := s.users.GetUserByUsername(ctx, req.Username); err == nil {
		return identity.User{}, ErrUsernameExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return identity.User{}, fmt.Errorf("check username: %w", err)
	}

	isRed := req.Type == Red
	isGreen := req.Type == Green
	userDN := s.names.UserDN(req.FirstName, req.LastName, isRed, isGreen)
	groupDN := s.groupFor(req.Type)

	password, err := GeneratePassword()
	if err != nil {
		return identity.User{}, err
	}

	if err := s.dir.CreateAccount(ctx, directory.NewAccount{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		UserDN:    userDN,
		GroupDN:   groupDN,
		Password:  password,
	}); err != nil {
		return identity.User{}, fmt.Errorf("provision %s: %w", req.Username, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return identity.User{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.users.CreateUser(ctx, identity.User{
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return identity.User{}, fmt.Errorf("create user: %w", err)
	}
	if _, err := s.participants.CreateParticipant(ctx, participant.Participant{
		UserID:  user.ID,
		IsRed:   isRed,
		IsGreen: isGreen,
	}); err != nil {
		return identity.User{}, fmt.Errorf("create participant: %w", err)
	}
	s.log.Infof("provisioned %s account %s", req.Type, req.Username)

	s.notifier.Notify(ctx, mail.Message{
		Subject: mail.SubjectAccountCreated,
		Body: mail.AccountCreated(roleLabel(req.Type), req.FirstName, req.LastName,
			req.Username, password, s.smtp.PortalURL, s.smtp.SupportAddr),
		To: []string{req.Email},
	})
	return user, nil
}

// UpdatePassword changes a user's password after verifying the current
// one with a directory bind as the user.
func (s *Service) UpdatePassword(ctx context.Context, userID, current, next string) error {
	user, pt, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.dir.Authenticate(ctx, s.names.BindName(user.Username), current); err != nil {
		if errors.Is(err, directory.ErrInvalidCredentials) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("verify current password: %w", err)
	}

	dn := s.names.UserDN(user.FirstName, user.LastName, pt.IsRed, pt.IsGreen)
	if err := s.dir.SetPassword(ctx, dn, next); err != nil {
		return fmt.Errorf("set password for %s: %w", user.Username, err)
	}
	if err := s.cacheHash(ctx, user, next); err != nil {
		return err
	}

	s.notifier.Notify(ctx, mail.Message{
		Subject: mail.SubjectPasswordUpdated,
		Body:    mail.PasswordUpdated(user.FirstName, user.LastName, s.smtp.SupportAddr),
		To:      []string{user.Email},
	})
	return nil
}

// ResetPassword generates fresh credentials for every account under the
// given email address and mails them out.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	users, err := s.users.ListUsersByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("find accounts: %w", err)
	}
	if len(users) == 0 {
		return storage.ErrNotFound
	}

	for _, user := range users {
		pt, err := s.participants.GetParticipantByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("get participant: %w", err)
		}

		password, err := GeneratePassword()
		if err != nil {
			return err
		}
		dn := s.names.UserDN(user.FirstName, user.LastName, pt.IsRed, pt.IsGreen)
		if err := s.dir.SetPassword(ctx, dn, password); err != nil {
			return fmt.Errorf("reset password for %s: %w", user.Username, err)
		}
		if err := s.cacheHash(ctx, user, password); err != nil {
			return err
		}

		s.notifier.Notify(ctx, mail.Message{
			Subject: mail.SubjectPasswordReset,
			Body: mail.PasswordReset(user.FirstName, user.LastName, user.Username,
				password, s.smtp.PortalURL, s.smtp.SupportAddr),
			To: []string{user.Email},
		})
		s.log.Infof("reset password for %s", user.Username)
	}
	return nil
}

// GeneratePassword returns a random alphanumeric password containing at
// least one uppercase letter, one lowercase letter, and one digit.
func GeneratePassword() (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	buf := make([]byte, passwordLength)
	for {
		for i := range buf {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
			if err != nil {
				return "", fmt.Errorf("generate password: %w", err)
			}
			buf[i] = charset[n.Int64()]
		}
		pw := string(buf)
		if strings.ContainsAny(pw, "abcdefghijklmnopqrstuvwxyz") &&
			strings.ContainsAny(pw, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") &&
			strings.ContainsAny(pw, "0123456789") {
			return pw, nil
		}
	}
}

func (s *Service) checkOpen(ctx context.Context, at AccountType) error {
	var open bool
	var err error
	switch at {
	case Blue:
		open, err = s.settings.AccountCreationEnabled(ctx)
	case Red:
		open, err = s.settings.RedEnabled(ctx)
	case Green:
		open, err = s.settings.GreenEnabled(ctx)
	default:
		return fmt.Errorf("unknown account type %q", at)
	}
	if err != nil {
		return err
	}
	if !open {
		return ErrSignupClosed
	}
	return nil
}

func (s *Service) groupFor(at AccountType) string {
	switch at {
	case Red:
		return s.names.RedGroupDN(true)
	case Green:
		return s.names.GreenGroupDN(true)
	}
	return s.names.UserGroupDN()
}

func roleLabel(at AccountType) string {
	switch at {
	case Red:
		return "Red Team"
	case Green:
		return "Green Team"
	}
	return ""
}

func (s *Service) cacheHash(ctx context.Context, user identity.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now()
	if _, err := s.users.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("save password hash: %w", err)
	}
	return nil
}

func (s *Service) loadUser(ctx context.Context, userID string) (identity.User, participant.Participant, error) {
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
