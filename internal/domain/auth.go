package domain

import "time"

const (
	// AuthorityUser is granted to every account.
	AuthorityUser = "USER"
	// AuthorityAdmin may trigger remote imports.
	AuthorityAdmin = "ADMIN"
)

// Credential is the login input shape. It is never persisted.
type Credential struct {
	Email    string
	Password string
}

// Identity is the resolved principal bound to one request.
type Identity struct {
	Subject     string
	Authorities []string
}

// HasAuthority reports whether the identity was granted authority.
func (i *Identity) HasAuthority(authority string) bool {
	if i == nil {
		return false
	}
	for _, a := range i.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// User is the stored account an Identity is resolved from.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Authorities  []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity projects the user into a request principal.
func (u *User) Identity() *Identity {
	authorities := make([]string, len(u.Authorities))
	copy(authorities, u.Authorities)
	return &Identity{Subject: u.Email, Authorities: authorities}
}
