package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the shortest accepted plain-text password.
	MinPasswordLength = 8
	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72
)

// User represents an account. PasswordHash, RememberToken and
// TwoFactorSecret are credentials and are redacted from projections.
type User struct {
	ID               int64     `db:"id"`
	Username         string    `db:"username"`
	Email            string    `db:"email"`
	PasswordHash     string    `db:"password_hash"`
	Role             UserRole  `db:"role"`
	RememberToken    *string   `db:"remember_token"`
	TwoFactorSecret  *string   `db:"two_factor_secret"`
	TwoFactorEnabled bool      `db:"two_factor_enabled"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// CanModerate reports whether the user may approve or reject content.
func (u *User) CanModerate() bool { return u.Role == RoleAdmin || u.Role == RoleModerator }

// SetPassword validates plain and stores its bcrypt hash.
func (u *User) SetPassword(plain string, cost int) error {
	if err := checkPassword("password", plain); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// VerifyPassword reports whether plain matches the stored hash.
func (u *User) VerifyPassword(plain string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// ChangePassword replaces the password after proving knowledge of the
// current one. On any failure the stored hash is left untouched.
func (u *User) ChangePassword(current, next string, cost int) error {
	if !u.VerifyPassword(current) {
		return NewValidationError("current_password", "does not match")
	}
	return u.SetPassword(next, cost)
}

// RotateRememberToken issues a fresh remember-me token and returns it.
func (u *User) RotateRememberToken() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	u.RememberToken = &token
	return token
}

// EnableTwoFactor stores secret and switches two-factor authentication on.
func (u *User) EnableTwoFactor(secret string) error {
	if strings.TrimSpace(secret) == "" {
		return NewValidationError("two_factor_secret", "required")
	}
	u.TwoFactorSecret = &secret
	u.TwoFactorEnabled = true
	return nil
}

// DisableTwoFactor clears the secret and the flag together.
func (u *User) DisableTwoFactor() {
	u.TwoFactorSecret = nil
	u.TwoFactorEnabled = false
}

// VerifyTwoFactor checks a TOTP code against the stored secret.
func (u *User) VerifyTwoFactor(code string) bool {
	if !u.TwoFactorEnabled || u.TwoFactorSecret == nil {
		return false
	}
	return totp.Validate(code, *u.TwoFactorSecret)
}

// GenerateTwoFactorSecret creates a new base32 TOTP secret for account.
func GenerateTwoFactorSecret(issuer, account string) (string, error) {
	if issuer == "" || account == "" {
		return "", errors.New("two-factor secret: issuer and account are required")
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
	})
	if err != nil {
		return "", fmt.Errorf("generate two-factor secret: %w", err)
	}
	return key.Secret(), nil
}

func checkPassword(field, plain string) error {
	if len([]rune(plain)) < MinPasswordLength {
		return NewValidationError(field, fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	if len(plain) > MaxPasswordBytes {
		return NewValidationError(field, fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes))
	}
	return nil
}
