package entity

import "time"

// User is an identity that owns feeds, groups, tokens, and per-article
// state, and authenticates via the GReader ClientLogin flow (spec.md §4.10).
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

// Validate checks the structural invariants of a User.
func (u *User) Validate() error {
	if u.Email == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	return nil
}

// GReaderAuthToken authenticates one request on behalf of its owner. It has
// no self-describing claims (unlike a JWT): the server must look it up.
// Revocation is deletion (spec.md §3).
type GReaderAuthToken struct {
	Token     string // 64-char lowercase hex
	OwnerID   int64
	ExpiresAt *time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its optional expiry, as of now.
func (t *GReaderAuthToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}
