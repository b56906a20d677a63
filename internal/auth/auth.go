// Package auth authenticates portal logins against the directory and
// issues JWT session tokens. The directory is authoritative; on every
// successful bind the local user row is refreshed from directory
// attributes, and a bcrypt hash of the password is cached so logins
// keep working through short directory outages.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/iseage/signup/internal/config"
	"github.com/iseage/signup/internal/directory"
	"github.com/iseage/signup/internal/domain/identity"
	"github.com/iseage/signup/internal/domain/participant"
	"github.com/iseage/signup/internal/logging"
	"github.com/iseage/signup/internal/storage"
)

var (
	// ErrInvalidLogin is returned for a bad username or password.
	// Deliberately indistinct about which.
	ErrInvalidLogin = errors.New("invalid username or password")
	// ErrInvalidToken is returned for expired or malformed session
	// tokens.
	ErrInvalidToken = errors.New("invalid session token")
)

// Claims is the JWT payload for a portal session.
type Claims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	Staff     bool   `json:"staff,omitempty"`
	Superuser bool   `json:"superuser,omitempty"`
}

// Deps are the collaborators the auth service needs.
type Deps struct {
	Users        storage.UserStore
	Participants storage.ParticipantStore
	Directory    directory.Directory
	Names        directory.Names
	AdminGroup   string
	Auth         config.Auth
	Logger       *logging.Logger
}

// Service performs logins and token handling.
type Service struct {
	users        storage.UserStore
	participants storage.ParticipantStore
	dir          directory.Directory
	names        directory.Names
	adminGroup   string
	secret       []byte
	ttl          time.Duration
	log          *logging.Logger
}

// New constructs an auth service. A nil logger gets a default.
func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = logging.NewDefault("auth")
	}
	ttl := d.Auth.TokenTTL
	if ttl == 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		users:        d.Users,
		participants: d.Participants,
		dir:          d.Directory,
		names:        d.Names,
		adminGroup:   d.AdminGroup,
		secret:       []byte(d.Auth.JWTSecret),
		ttl:          ttl,
		log:          d.Logger,
	}
}

// Login verifies credentials and returns the user with a session token.
// A rejected bind is final; a transport failure falls back to the
// locally cached password hash.
func (s *Service) Login(ctx context.Context, username, password string) (identity.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return identity.User{}, "", ErrInvalidLogin
	}

	bindErr := s.dir.Authenticate(ctx, s.names.BindName(username), password)
	switch {
	case bindErr == nil:
		user, err := s.mirror(ctx, username, password)
		if err != nil {
			return identity.User{}, "", err
		}
		return s.finish(ctx, user)
	case errors.Is(bindErr, directory.ErrInvalidCredentials):
		return identity.User{}, "", ErrInvalidLogin
	}

	// Directory unreachable; accept the cached hash if it matches.
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return identity.User{}, "", ErrInvalidLogin
		}
		return identity.User{}, "", fmt.Errorf("get user: %w", err)
	}
	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return identity.User{}, "", ErrInvalidLogin
	}
	s.log.Warnf("directory unreachable, accepted cached credentials for %s: %v", username, bindErr)
	return s.finish(ctx, user)
}

// IssueToken signs a session token for the user.
func (s *Service) IssueToken(user identity.User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Username:  user.Username,
		Staff:     user.IsStaff,
		Superuser: user.IsSuperuser,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// ParseToken validates a session token and returns its claims.
func (s *Service) ParseToken(tokenString string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// mirror refreshes the local user row from directory attributes after a
// successful bind, creating the row on first login. Membership in the
// admin group grants staff and superuser.
func (s *Service) mirror(ctx context.Context, username, password string) (identity.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return identity.User{}, fmt.Errorf("get user: %w", err)
	}
	missing := errors.Is(err, storage.ErrNotFound)
	user.Username = username

	info, lookupErr := s.dir.LookupUser(ctx, username)
	if lookupErr == nil {
		if info.Email != "" {
			user.Email = info.Email
		}
		if info.FirstName != "" {
			user.FirstName = info.FirstName
		}
		if info.LastName != "" {
			user.LastName = info.LastName
		}
		admin := s.inAdminGroup(info.Groups)
		user.IsStaff = admin
		user.IsSuperuser = admin
	} else {
		s.log.Warnf("attribute lookup for %s failed: %v", username, lookupErr)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return identity.User{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	if missing {
		user, err = s.users.CreateUser(ctx, user)
	} else {
		user, err = s.users.UpdateUser(ctx, user)
	}
	if err != nil {
		return identity.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// finish makes sure a participant record exists and issues the token.
func (s *Service) finish(ctx context.Context, user identity.User) (identity.User, string, error) {
	if _, err := s.participants.GetParticipantByUserID(ctx, user.ID); errors.Is(err, storage.ErrNotFound) {
		if _, err := s.participants.CreateParticipant(ctx, participant.Participant{UserID: user.ID}); err != nil {
			return identity.User{}, "", fmt.Errorf("create participant: %w", err)
		}
	} else if err != nil {
		return identity.User{}, "", fmt.Errorf("get participant: %w", err)
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return identity.User{}, "", err
	}
	return user, token, nil
}

func (s *Service) inAdminGroup(groups []string) bool {
	want := "cn=" + strings.ToLower(s.adminGroup)
	for _, g := range groups {
		cn := strings.ToLower(strings.SplitN(g, ",", 2)[0])
		if cn == want {
			return true
		}
	}
	return false
}
