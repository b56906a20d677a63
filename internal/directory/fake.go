package directory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Fake is an in-memory Directory for tests. Errors can be injected per
// operation name ("AddMember", "CreateAccount", ...); group membership
// and passwords are inspectable afterward.
type Fake struct {
	mu        sync.Mutex
	groups    map[string]map[string]bool // groupDN -> set of userDNs
	passwords map[string]string          // userDN -> password
	accounts  map[string]UserInfo        // username -> info
	failures  map[string]error
	Calls     []string
}

// NewFake returns an empty fake directory.
func NewFake() *Fake {
	return &Fake{
		groups:    make(map[string]map[string]bool),
		passwords: make(map[string]string),
		accounts:  make(map[string]UserInfo),
		failures:  make(map[string]error),
	}
}

// FailWith makes the named operation return err until cleared with a nil err.
func (f *Fake) FailWith(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, op)
		return
	}
	f.failures[op] = err
}

func (f *Fake) failLocked(op string) error {
	f.Calls = append(f.Calls, op)
	return f.failures[op]
}

func (f *Fake) AddMember(_ context.Context, userDN, groupDN string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failLocked("AddMember"); err != nil {
		return err
	}
	if f.groups[groupDN] == nil {
		f.groups[groupDN] = make(map[string]bool)
	}
	f.groups[groupDN][userDN] = true
	return nil
}

func (f *Fake) RemoveMember(_ context.Context, userDN, groupDN string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failLocked("RemoveMember"); err != nil {
		return err
	}
	delete(f.groups[groupDN], userDN)
	return nil
}

func (f *Fake) CreateAccount(_ context.Context, acct NewAccount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failLocked("CreateAccount"); err != nil {
		return err
	}
	if _, exists := f.accounts[strings.ToLower(acct.Username)]; exists {
		return fmt.Errorf("create %s: %w", acct.Username, ErrUsernameExists)
	}
	for _, info := range f.accounts {
		if info.DN == acct.UserDN {
			return fmt.Errorf("create %s: %w", acct.UserDN, ErrDuplicateName)
		}
	}
	f.accounts[strings.ToLower(acct.Username)] = UserInfo{
		DN:        acct.UserDN,
		Email:     acct.Email,
		FirstName: acct.FirstName,
		LastName:  acct.LastName,
		Groups:    []string{acct.GroupDN},
	}
	if f.groups[acct.GroupDN] == nil {
		f.groups[acct.GroupDN] = make(map[string]bool)
	}
	f.groups[acct.GroupDN][acct.UserDN] = true
	f.passwords[acct.UserDN] = acct.Password
	return nil
}

func (f *Fake) SetPassword(_ context.Context, userDN, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failLocked("SetPassword"); err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("empty password for %s", userDN)
	}
	f.passwords[userDN] = password
	return nil
}

func (f *Fake) Authenticate(_ context.Context, bindName, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failLocked("Authenticate"); err != nil {
		return err
	}
	stored, ok := f.passwords[bindName]
	if !ok || stored != password {
		return ErrInvalidCredentials
	}
	return nil
}

func (f *Fake) LookupUser(_ context.Context, username string) (UserInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failLocked("LookupUser"); err != nil {
		return UserInfo{}, err
	}
	info, ok := f.accounts[strings.ToLower(username)]
	if !ok {
		return UserInfo{}, fmt.Errorf("lookup %s: %w", username, ErrNotFound)
	}
	return info, nil
}

// SetCredential registers a bindName/password pair so Authenticate can
// succeed for it. Tests use this for user-bind checks keyed by bind
// name rather than DN.
func (f *Fake) SetCredential(bindName, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwords[bindName] = password
}

// Password returns the stored password for a user DN.
func (f *Fake) Password(userDN string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.passwords[userDN]
}

// Members returns the sorted member DNs of a group.
func (f *Fake) Members(groupDN string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	members := make([]string, 0, len(f.groups[groupDN]))
	for dn := range f.groups[groupDN] {
		members = append(members, dn)
	}
	sort.Strings(members)
	return members
}

// HasMember reports whether userDN is in the group.
func (f *Fake) HasMember(groupDN, userDN string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.groups[groupDN][userDN]
}
