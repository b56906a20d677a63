// Package identity defines the local user record mirrored from the
// directory service.
package identity

import "time"

// User is the local identity record. The directory is authoritative for
// credentials; PasswordHash only caches the last password seen on a
// successful bind so the portal can ride out short directory outages.
type User struct {
	ID           string
	Username     string
	FirstName    string
	LastName     string
	Email        string
	IsStaff      bool
	IsSuperuser  bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName returns "First Last" for display and mail templates.
func (u User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	return u.FirstName + " " + u.LastName
}
