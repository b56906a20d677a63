// Package ldapdir implements the directory gateway against a real
// LDAP/Active Directory server using go-ldap.
package ldapdir

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"
	"unicode/utf16"

	"github.com/go-ldap/ldap/v3"

	"github.com/iseage/signup/internal/app/metrics"
	"github.com/iseage/signup/internal/config"
	"github.com/iseage/signup/internal/directory"
	"github.com/iseage/signup/internal/logging"
)

// adminBindRetries is the number of extra bind attempts made on
// transient connection errors. Invalid credentials are terminal.
const adminBindRetries = 2

// userAccountControl values: accounts are created disabled and enabled
// only after the password is set.
const (
	uacDisabled = "514"
	uacEnabled  = "512"
)

// CredentialSource supplies the administrative bind DN and password.
// They live in GlobalSettings so admins can rotate them at runtime.
type CredentialSource func(ctx context.Context) (bindDN, bindPW string, err error)

// Gateway talks to the directory server. Each operation acquires a
// fresh admin session and releases it on every exit path.
type Gateway struct {
	cfg   config.Directory
	names directory.Names
	creds CredentialSource
	log   *logging.Logger
}

var _ directory.Directory = (*Gateway)(nil)

// New constructs a Gateway.
func New(cfg config.Directory, creds CredentialSource, log *logging.Logger) *Gateway {
	if log == nil {
		log = logging.NewDefault("ldap")
	}
	return &Gateway{cfg: cfg, names: directory.NewNames(cfg), creds: creds, log: log}
}

func (g *Gateway) dial(ctx context.Context) (*ldap.Conn, error) {
	tlsCfg := &tls.Config{InsecureSkipVerify: g.cfg.SkipVerify}
	if g.cfg.CACertFile != "" {
		pem, err := os.ReadFile(g.cfg.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("read ca cert: %w", err)
		}
		pool := x509.NewCertPool()
		pool.AppendCertsFromPEM(pem)
		tlsCfg.RootCAs = pool
	}

	conn, err := ldap.DialURL(g.cfg.URL, ldap.DialWithTLSConfig(tlsCfg))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", g.cfg.URL, err)
	}
	if g.cfg.Timeout > 0 {
		conn.SetTimeout(g.cfg.Timeout)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetTimeout(time.Until(deadline))
	}
	return conn, nil
}

// withAdmin acquires an admin-bound session, runs fn, and closes the
// session on every exit path. The bind is retried on transient errors
// but never on invalid credentials.
func (g *Gateway) withAdmin(ctx context.Context, fn func(conn *ldap.Conn) error) error {
	bindDN, bindPW, err := g.creds(ctx)
	if err != nil {
		return fmt.Errorf("load admin credentials: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= adminBindRetries; attempt++ {
		conn, err := g.dial(ctx)
		if err != nil {
			lastErr = err
			continue
		}

		if err := conn.Bind(bindDN, bindPW); err != nil {
			conn.Close()
			if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
				g.log.Errorf("admin bind rejected for %s", bindDN)
				return fmt.Errorf("admin bind: %w", directory.ErrInvalidCredentials)
			}
			g.log.Warnf("admin bind attempt %d failed: %v", attempt+1, err)
			lastErr = err
			continue
		}

		defer conn.Close()
		return fn(conn)
	}
	return fmt.Errorf("admin bind: %w", lastErr)
}

// AddMember adds the user to the group's member attribute.
func (g *Gateway) AddMember(ctx context.Context, userDN, groupDN string) (err error) {
	defer func() { metrics.RecordDirectoryOp("add_member", err) }()
	return g.withAdmin(ctx, func(conn *ldap.Conn) error {
		mod := ldap.NewModifyRequest(groupDN, nil)
		mod.Add("member", []string{userDN})
		if err := conn.Modify(mod); err != nil {
			// Re-adding an existing member is success for our purposes;
			// the reconciliation sweep depends on this.
			if ldap.IsErrorWithCode(err, ldap.LDAPResultAttributeOrValueExists) ||
				ldap.IsErrorWithCode(err, ldap.LDAPResultEntryAlreadyExists) {
				return nil
			}
			return fmt.Errorf("add %s to %s: %w", userDN, groupDN, err)
		}
		return nil
	})
}

// RemoveMember removes the user from the group's member attribute.
func (g *Gateway) RemoveMember(ctx context.Context, userDN, groupDN string) (err error) {
	defer func() { metrics.RecordDirectoryOp("remove_member", err) }()
	return g.withAdmin(ctx, func(conn *ldap.Conn) error {
		mod := ldap.NewModifyRequest(groupDN, nil)
		mod.Delete("member", []string{userDN})
		if err := conn.Modify(mod); err != nil {
			if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchAttribute) {
				return nil
			}
			return fmt.Errorf("remove %s from %s: %w", userDN, groupDN, err)
		}
		return nil
	})
}

// CreateAccount provisions a directory account. The entry is created
// disabled, joined to its group, given a password, then enabled, so it
// is never bindable with a blank password mid-sequence.
func (g *Gateway) CreateAccount(ctx context.Context, acct directory.NewAccount) (err error) {
	defer func() { metrics.RecordDirectoryOp("create_account", err) }()
	return g.withAdmin(ctx, func(conn *ldap.Conn) error {
		filter := fmt.Sprintf("(&(sAMAccountName=%s)(objectClass=person))", ldap.EscapeFilter(acct.Username))
		search := ldap.NewSearchRequest(
			g.cfg.BaseDN,
			ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
			filter,
			[]string{"distinguishedName"},
			nil,
		)
		res, err := conn.Search(search)
		if err != nil {
			return fmt.Errorf("search username %s: %w", acct.Username, err)
		}
		if len(res.Entries) > 0 {
			return fmt.Errorf("username %s: %w", acct.Username, directory.ErrUsernameExists)
		}

		displayName := acct.FirstName + " " + acct.LastName
		add := ldap.NewAddRequest(acct.UserDN, nil)
		add.Attribute("objectClass", []string{"top", "person", "organizationalPerson", "user"})
		add.Attribute("cn", []string{displayName})
		add.Attribute("userPrincipalName", []string{g.names.UPN(acct.Username)})
		add.Attribute("sAMAccountName", []string{acct.Username})
		add.Attribute("givenName", []string{acct.FirstName})
		add.Attribute("sn", []string{acct.LastName})
		add.Attribute("displayName", []string{displayName})
		add.Attribute("userAccountControl", []string{uacDisabled})
		add.Attribute("mail", []string{acct.Email})
		if err := conn.Add(add); err != nil {
			if ldap.IsErrorWithCode(err, ldap.LDAPResultEntryAlreadyExists) {
				return fmt.Errorf("dn %s: %w", acct.UserDN, directory.ErrDuplicateName)
			}
			return fmt.Errorf("add entry %s: %w", acct.UserDN, err)
		}

		join := ldap.NewModifyRequest(acct.GroupDN, nil)
		join.Add("member", []string{acct.UserDN})
		if err := conn.Modify(join); err != nil {
			return fmt.Errorf("add %s to %s: %w", acct.UserDN, acct.GroupDN, err)
		}

		pwd := ldap.NewModifyRequest(acct.UserDN, nil)
		pwd.Replace("unicodePwd", []string{EncodePassword(acct.Password)})
		if err := conn.Modify(pwd); err != nil {
			return fmt.Errorf("set password for %s: %w", acct.UserDN, err)
		}

		enable := ldap.NewModifyRequest(acct.UserDN, nil)
		enable.Replace("userAccountControl", []string{uacEnabled})
		if err := conn.Modify(enable); err != nil {
			return fmt.Errorf("enable %s: %w", acct.UserDN, err)
		}
		return nil
	})
}

// SetPassword replaces the account password through the admin session.
func (g *Gateway) SetPassword(ctx context.Context, userDN, password string) (err error) {
	defer func() { metrics.RecordDirectoryOp("set_password", err) }()
	if password == "" {
		return fmt.Errorf("refusing to set empty password for %s", userDN)
	}
	return g.withAdmin(ctx, func(conn *ldap.Conn) error {
		mod := ldap.NewModifyRequest(userDN, nil)
		mod.Replace("unicodePwd", []string{EncodePassword(password)})
		if err := conn.Modify(mod); err != nil {
			return fmt.Errorf("set password for %s: %w", userDN, err)
		}
		return nil
	})
}

// Authenticate verifies credentials with a bind as the user.
func (g *Gateway) Authenticate(ctx context.Context, bindName, password string) (err error) {
	defer func() { metrics.RecordDirectoryOp("authenticate", err) }()
	if password == "" {
		return directory.ErrInvalidCredentials
	}
	conn, err := g.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Bind(bindName, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return directory.ErrInvalidCredentials
		}
		return fmt.Errorf("bind %s: %w", bindName, err)
	}
	return nil
}

// LookupUser fetches directory attributes for a username.
func (g *Gateway) LookupUser(ctx context.Context, username string) (info directory.UserInfo, err error) {
	defer func() { metrics.RecordDirectoryOp("lookup_user", err) }()
	err = g.withAdmin(ctx, func(conn *ldap.Conn) error {
		filter := fmt.Sprintf("(&(sAMAccountName=%s)(objectClass=person))", ldap.EscapeFilter(username))
		search := ldap.NewSearchRequest(
			g.cfg.BaseDN,
			ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
			filter,
			[]string{"distinguishedName", "mail", "givenName", "sn", "memberOf"},
			nil,
		)
		res, err := conn.Search(search)
		if err != nil {
			return fmt.Errorf("search %s: %w", username, err)
		}
		if len(res.Entries) == 0 {
			return fmt.Errorf("user %s: %w", username, directory.ErrNotFound)
		}

		entry := res.Entries[0]
		info = directory.UserInfo{
			DN:        entry.DN,
			Email:     entry.GetAttributeValue("mail"),
			FirstName: entry.GetAttributeValue("givenName"),
			LastName:  entry.GetAttributeValue("sn"),
			Groups:    entry.GetAttributeValues("memberOf"),
		}
		return nil
	})
	return info, err
}

// EncodePassword encodes a password for the unicodePwd attribute: the
// quoted password as UTF-16LE bytes.
func EncodePassword(password string) string {
	quoted := `"` + password + `"`
	units := utf16.Encode([]rune(quoted))
	encoded := make([]byte, 0, len(units)*2)
	for _, u := range units {
		encoded = append(encoded, byte(u), byte(u>>8))
	}
	return string(encoded)
}
