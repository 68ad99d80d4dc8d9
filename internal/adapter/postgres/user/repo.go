// Package user persists accounts and their credential lifecycle.
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/polascin/renaltales-backend/internal/adapter/postgres"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/record"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/schema"
	"github.com/polascin/renaltales-backend/internal/config"
	"github.com/polascin/renaltales-backend/internal/domain"
)

// Model is a tracked user.
type Model = record.Model[domain.User]

// PasswordAttr is the virtual attribute Build hashes into password_hash.
const PasswordAttr = "password"

// Repo provides user persistence backed by PostgreSQL.
type Repo struct {
	*record.Repository[domain.User]

	cost   int
	issuer string
	log    *slog.Logger

	Stories  record.HasMany[domain.User, domain.Story]
	Contents record.HasMany[domain.User, domain.StoryContent]
	Comments record.HasMany[domain.User, domain.Comment]
}

// New creates a new user repository.
func New(db postgres.DB, sec config.SecurityConfig, opts record.Options) *Repo {
	return &Repo{
		Repository: record.NewRepository(db, schema.Users, opts),
		cost:       sec.PasswordHashCost,
		issuer:     sec.TwoFactorIssuer,
		log:        opts.Log().With("repo", "user"),
		Stories: record.HasMany[domain.User, domain.Story]{
			Name:       "stories",
			ForeignKey: "user_id",
			Target:     record.NewRepository(db, schema.Stories, opts),
		},
		Contents: record.HasMany[domain.User, domain.StoryContent]{
			Name:       "contents",
			ForeignKey: "user_id",
			Target:     record.NewRepository(db, schema.StoryContents, opts),
		},
		Comments: record.HasMany[domain.User, domain.Comment]{
			Name:       "comments",
			ForeignKey: "user_id",
			Target:     record.NewRepository(db, schema.Comments, opts),
		},
	}
}

// ---------------------------------------------------------------------------
// Creation and lookup
// ---------------------------------------------------------------------------

// Build creates an unsaved user from attrs. A "password" attribute is
// validated and stored as a bcrypt hash; it never reaches the table.
func (r *Repo) Build(attrs map[string]any) (*Model, error) {
	fields := make(map[string]any, len(attrs))
	var (
		plain   string
		hasPass bool
	)
	for k, v := range attrs {
		if k == PasswordAttr {
			s, ok := v.(string)
			if !ok {
				return nil, domain.NewValidationError(PasswordAttr, "must be a string")
			}
			plain, hasPass = s, true
			continue
		}
		fields[k] = v
	}

	m := r.New(fields)
	if hasPass {
		if err := m.Entity.SetPassword(plain, r.cost); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Register builds and inserts a user.
func (r *Repo) Register(ctx context.Context, attrs map[string]any) (*Model, error) {
	m, err := r.Build(attrs)
	if err != nil {
		return nil, err
	}
	if err := r.Save(ctx, m); err != nil {
		return nil, err
	}
	r.log.InfoContext(ctx, "user registered",
		slog.Int64("user_id", m.ID()),
		slog.String("username", m.Entity.Username))
	return m, nil
}

// FindByEmail returns the user with the given email.
func (r *Repo) FindByEmail(ctx context.Context, email string) (*Model, error) {
	return r.FindBy(ctx, "email", email)
}

// FindByUsername returns the user with the given username.
func (r *Repo) FindByUsername(ctx context.Context, username string) (*Model, error) {
	return r.FindBy(ctx, "username", username)
}

// FindByRememberToken returns the user holding token.
func (r *Repo) FindByRememberToken(ctx context.Context, token string) (*Model, error) {
	return r.FindBy(ctx, "remember_token", token)
}

// ---------------------------------------------------------------------------
// Credential lifecycle
// ---------------------------------------------------------------------------

// ChangePassword replaces the password after checking current. On failure
// neither the entity nor the row changes.
func (r *Repo) ChangePassword(ctx context.Context, m *Model, current, next string) error {
	return r.apply(ctx, m, "change password", func(u *domain.User) error {
		return u.ChangePassword(current, next, r.cost)
	})
}

// EnableTwoFactor generates a TOTP secret, stores it together with the
// enabled flag in one transaction and returns the secret for enrolment.
func (r *Repo) EnableTwoFactor(ctx context.Context, m *Model) (string, error) {
	secret, err := domain.GenerateTwoFactorSecret(r.issuer, m.Entity.Email)
	if err != nil {
		return "", err
	}
	if err := r.apply(ctx, m, "enable two-factor", func(u *domain.User) error {
		return u.EnableTwoFactor(secret)
	}); err != nil {
		return "", err
	}
	return secret, nil
}

// DisableTwoFactor clears the secret and the flag in one transaction.
func (r *Repo) DisableTwoFactor(ctx context.Context, m *Model) error {
	return r.apply(ctx, m, "disable two-factor", func(u *domain.User) error {
		u.DisableTwoFactor()
		return nil
	})
}

// RotateRememberToken persists a fresh remember-me token and returns it.
func (r *Repo) RotateRememberToken(ctx context.Context, m *Model) (string, error) {
	var token string
	err := r.apply(ctx, m, "rotate remember token", func(u *domain.User) error {
		token = u.RotateRememberToken()
		return nil
	})
	return token, err
}

// SetRole changes the user's role.
func (r *Repo) SetRole(ctx context.Context, m *Model, role domain.UserRole) error {
	if !role.IsValid() {
		return domain.NewValidationError("role", "must be one of: user, moderator, admin")
	}
	return r.apply(ctx, m, "set role", func(u *domain.User) error {
		u.Role = role
		return nil
	})
}

// Promote grants the admin role to the user with the given email.
func (r *Repo) Promote(ctx context.Context, email string) (*Model, error) {
	m, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if m.Entity.IsAdmin() {
		return m, nil
	}
	if err := r.SetRole(ctx, m, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return m, nil
}

// apply runs a credential change and persists it in its own transaction.
func (r *Repo) apply(ctx context.Context, m *Model, action string, change func(*domain.User) error) error {
	if err := r.Transition(ctx, m, change); err != nil {
		return fmt.Errorf("user %d: %s: %w", m.ID(), action, err)
	}
	r.log.InfoContext(ctx, "user updated",
		slog.Int64("user_id", m.ID()),
		slog.String("action", action))
	return nil
}
