// Package directory defines the capability interface for the group
// directory (an LDAP/Active-Directory-like store) that mirrors portal
// accounts and team membership for downstream access control.
package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/iseage/signup/internal/config"
)

var (
	// ErrInvalidCredentials distinguishes a rejected bind from a
	// transport failure. Never retried.
	ErrInvalidCredentials = errors.New("directory: invalid credentials")
	// ErrUsernameExists is returned by CreateAccount when the
	// sAMAccountName is already taken.
	ErrUsernameExists = errors.New("directory: username already exists")
	// ErrDuplicateName is returned by CreateAccount when the target
	// distinguished name collides. Distinct from ErrUsernameExists:
	// the DN derives from the display name, so the remediation is a
	// different first/last name, not a different username.
	ErrDuplicateName = errors.New("directory: distinguished name already exists")
	// ErrNotFound is returned by LookupUser for unknown usernames.
	ErrNotFound = errors.New("directory: entry not found")
)

// NewAccount carries the attributes for a directory account creation.
type NewAccount struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	UserDN    string
	GroupDN   string
	Password  string
}

// UserInfo is the directory's view of a user, returned by LookupUser.
type UserInfo struct {
	DN        string
	Email     string
	FirstName string
	LastName  string
	Groups    []string
}

// Directory is the gateway contract. All operations are synchronous and
// blocking; implementations apply a bounded per-attempt timeout and the
// admin bind retries at most twice on transient errors. Failures beyond
// the typed sentinels above surface as plain errors.
type Directory interface {
	// AddMember adds userDN to the group's member attribute.
	AddMember(ctx context.Context, userDN, groupDN string) error
	// RemoveMember removes userDN from the group's member attribute.
	RemoveMember(ctx context.Context, userDN, groupDN string) error
	// CreateAccount provisions a new account: search for a username
	// collision, create the entry disabled, add it to GroupDN, set the
	// password, then enable it. The disabled-create ordering prevents
	// the account being usable with a blank password mid-creation.
	CreateAccount(ctx context.Context, acct NewAccount) error
	// SetPassword replaces the account password via the admin session.
	SetPassword(ctx context.Context, userDN, password string) error
	// Authenticate verifies credentials with a bind as the user.
	// Returns ErrInvalidCredentials on rejection, a plain error when
	// the directory is unreachable.
	Authenticate(ctx context.Context, bindName, password string) error
	// LookupUser fetches directory attributes for a username.
	LookupUser(ctx context.Context, username string) (UserInfo, error)
}

// Names builds distinguished names from the fixed templates:
// users CN={first} {last},OU={ou},{base}; groups CN={group},OU={ou},{base}.
type Names struct {
	cfg config.Directory
}

// NewNames returns a DN builder for the configured directory layout.
func NewNames(cfg config.Directory) Names {
	return Names{cfg: cfg}
}

// UserDN returns the user entry DN. Red and green accounts live in their
// own organizational units.
func (n Names) UserDN(firstName, lastName string, isRed, isGreen bool) string {
	ou := n.cfg.UserOU
	if isRed {
		ou = n.cfg.RedOU
	} else if isGreen {
		ou = n.cfg.GreenOU
	}
	return fmt.Sprintf("CN=%s %s,OU=%s,%s", firstName, lastName, ou, n.cfg.BaseDN)
}

// TeamGroupDN returns the DN of a blue team's group.
func (n Names) TeamGroupDN(number int) string {
	group := fmt.Sprintf(n.cfg.TeamFormat, number)
	return n.groupDN(group, n.cfg.UserOU)
}

// UserGroupDN returns the DN of the group every blue account joins.
func (n Names) UserGroupDN() string {
	return n.groupDN(n.cfg.UserGroup, n.cfg.UserOU)
}

// RedGroupDN returns the active or pending red team group DN.
func (n Names) RedGroupDN(pending bool) string {
	group := n.cfg.RedGroup
	if pending {
		group = n.cfg.RedPending
	}
	return n.groupDN(group, n.cfg.RedOU)
}

// GreenGroupDN returns the active or pending green team group DN.
func (n Names) GreenGroupDN(pending bool) string {
	group := n.cfg.GreenGroup
	if pending {
		group = n.cfg.GreenPending
	}
	return n.groupDN(group, n.cfg.GreenOU)
}

// UPN returns the userPrincipalName for a username.
func (n Names) UPN(username string) string {
	return username + "@" + n.cfg.Domain
}

// BindName returns the NT4-style bind name used for user authentication.
func (n Names) BindName(username string) string {
	return username + "@" + n.cfg.NT4Domain
}

func (n Names) groupDN(group, ou string) string {
	return fmt.Sprintf("CN=%s,OU=%s,%s", group, ou, n.cfg.BaseDN)
}
