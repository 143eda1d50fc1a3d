package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aidetectsai/detector-api/database"
	"github.com/aidetectsai/detector-api/logger"
)

// ErrDefaultRoleMissing indicates the well-known default role has not been
// seeded. Registration and provisioning cannot proceed without it; this is
// a configuration error, not a user-facing condition.
var ErrDefaultRoleMissing = fmt.Errorf("auth: default role %q not found", DefaultRole)

// Credential is a transient login/secret pair. The secret is plaintext and
// must never be persisted or logged.
type Credential struct {
	Login  string `json:"login" binding:"required,min=3,max=50,login_chars"`
	Secret string `json:"password" binding:"required,min=8,max=72"`
	Email  string `json:"email" binding:"required,email"`
}

// UserStore is the persistence contract the auth domain depends on.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*database.User, error)
	FindByLoginAndProvider(ctx context.Context, login, provider string) (*database.User, error)
	Create(ctx context.Context, user *database.User) error
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// RoleStore is the role lookup contract the auth domain depends on.
type RoleStore interface {
	FindByName(ctx context.Context, name string) (*database.Role, error)
}

// Service orchestrates hasher, token service and user storage for local
// registration and login.
type Service struct {
	users  UserStore
	roles  RoleStore
	hasher *Hasher
	tokens *TokenService
	log    *logger.Logger
}

// NewService creates the auth service.
func NewService(users UserStore, roles RoleStore, hasher *Hasher, tokens *TokenService) *Service {
	return &Service{
		users:  users,
		roles:  roles,
		hasher: hasher,
		tokens: tokens,
		log:    logger.WithComponent("auth"),
	}
}

// Register creates a local account. The default role must exist before any
// persistence write happens; its absence aborts with ErrDefaultRoleMissing.
func (s *Service) Register(ctx context.Context, cred Credential) (uuid.UUID, error) {
	role, err := s.roles.FindByName(ctx, DefaultRole)
	if err != nil {
		if database.IsNotFound(err) {
			return uuid.Nil, ErrDefaultRoleMissing
		}
		return uuid.Nil, fmt.Errorf("auth: look up default role: %w", err)
	}

	hash, err := s.hasher.Hash(cred.Secret)
	if err != nil {
		return uuid.Nil, err
	}

	user := &database.User{
		Login:        cred.Login,
		PasswordHash: &hash,
		Email:        cred.Email,
		Provider:     ProviderLocal,
		IsDeleted:    false,
		Roles:        []database.Role{*role},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return uuid.Nil, err
	}

	s.log.Info("user registered", map[string]interface{}{"login": cred.Login})
	return user.ID, nil
}

// VerifyCredential checks the login/secret pair against the stored local
// account. It returns false for unknown or deleted accounts and verifies
// the secret through the hasher's constant-time path.
func (s *Service) VerifyCredential(ctx context.Context, cred Credential) bool {
	user, err := s.users.FindByLoginAndProvider(ctx, cred.Login, ProviderLocal)
	if err != nil {
		if !database.IsNotFound(err) {
			s.log.Error("credential lookup failed", map[string]interface{}{
				"login": cred.Login, "error": err.Error(),
			})
		}
		return false
	}
	if user.IsDeleted || user.PasswordHash == nil {
		return false
	}
	return s.hasher.Verify(cred.Secret, *user.PasswordHash)
}

// HasRole reports whether the local account under login holds the named
// role. Deleted and unknown accounts hold no roles.
func (s *Service) HasRole(ctx context.Context, login, role string) bool {
	user, err := s.users.FindByLoginAndProvider(ctx, login, ProviderLocal)
	if err != nil || user.IsDeleted {
		return false
	}
	for _, r := range user.Roles {
		if r.Name == role {
			return true
		}
	}
	return false
}

// IssueSessionToken issues a session token for the given login.
func (s *Service) IssueSessionToken(login string) (string, error) {
	return s.tokens.Issue(login)
}

// RecordLogin stamps last_login_at for a successful local login.
func (s *Service) RecordLogin(ctx context.Context, login string) {
	user, err := s.users.FindByLoginAndProvider(ctx, login, ProviderLocal)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.log.Warn("unable to record login time", map[string]interface{}{
				"login": login, "error": err.Error(),
			})
		}
		return
	}
	if err := s.users.TouchLastLogin(ctx, user.ID, time.Now()); err != nil {
		s.log.Warn("unable to record login time", map[string]interface{}{
			"login": login, "error": err.Error(),
		})
	}
}
