// Package authutil holds password and registration-email rules shared by
// registration, login and profile handlers.
package authutil

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 128
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d characters", MaxPasswordLength)
	ErrPasswordCommon   = errors.New("password is too common; choose something harder to guess")
	ErrEmailDomain      = errors.New("email must be a university address")
)

var commonPasswords = map[string]struct{}{
	"123456": {}, "1234567": {}, "12345678": {}, "123456789": {}, "password": {},
	"qwerty": {}, "abc123": {}, "iloveyou": {}, "letmein": {}, "football": {},
	"welcome": {}, "monkey": {}, "dragon": {}, "111111": {}, "sunshine": {},
	"princess": {}, "password1": {}, "qwerty123": {}, "student": {}, "unimelb": {},
}

// ValidatePassword checks length and rejects well-known passwords.
func ValidatePassword(pw string) error {
	if len(pw) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(pw) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if _, bad := commonPasswords[strings.ToLower(pw)]; bad {
		return ErrPasswordCommon
	}
	return nil
}

// PasswordRules describes ValidatePassword for API clients.
func PasswordRules() string {
	return fmt.Sprintf("Passwords must be %d to %d characters and not a common password.",
		MinPasswordLength, MaxPasswordLength)
}

// HashPassword returns a bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches hash.
func CheckPassword(pw, hash string) bool {
	if pw == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// CheckEmailDomain requires email to end with "@"+domain (case-insensitive).
// Subdomains of domain are accepted. An empty domain accepts everything.
func CheckEmailDomain(email, domain string) error {
	domain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "@"))
	if domain == "" {
		return nil
	}
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ErrEmailDomain
	}
	host := email[at+1:]
	if host == domain || strings.HasSuffix(host, "."+domain) {
		return nil
	}
	return ErrEmailDomain
}
