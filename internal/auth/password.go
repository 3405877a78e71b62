// Package auth holds credential handling: how stored passwords are checked
// and how session tokens are issued.
package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordScheme checks plaintext passwords against the stored column and
// produces the value to store on a password change.
type PasswordScheme interface {
	Verify(stored, plaintext string) bool
	Hash(plaintext string) (string, error)
}

// PlainScheme stores passwords as given. It matches the existing usuarios data.
type PlainScheme struct{}

func (PlainScheme) Verify(stored, plaintext string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(plaintext)) == 1
}

func (PlainScheme) Hash(plaintext string) (string, error) {
	return plaintext, nil
}

// BcryptScheme stores bcrypt hashes
type BcryptScheme struct {
	Cost int
}

func (b BcryptScheme) Verify(stored, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plaintext)) == nil
}

func (b BcryptScheme) Hash(plaintext string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(hashed), nil
}

// SchemeByName resolves the PASSWORD_SCHEME setting
func SchemeByName(name string) (PasswordScheme, error) {
	switch name {
	case "", "plain":
		return PlainScheme{}, nil
	case "bcrypt":
		return BcryptScheme{}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", name)
	}
}
