package entity

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt-hashes a plaintext password for storage in
// User.PasswordHash, grounded on geraldfingburke-dossier's
// server/internal/auth/auth.go (the only example-pack repo carrying a
// password-auth flow; no pack repo hand-rolls password hashing).
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plaintext matches the user's stored hash,
// used by the GReader ClientLogin flow (spec.md §4.10).
func (u *User) CheckPassword(plaintext string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext))
	return err == nil
}
