// Package provision reconciles externally-authenticated identities into
// local user records. Provisioning is a side effect of the OAuth2 callback,
// not the authentication decision: the resolved identity is always handed
// back to the caller unchanged.
package provision

import (
	"context"
	"errors"
	"fmt"

	"github.com/aidetectsai/detector-api/auth"
	"github.com/aidetectsai/detector-api/database"
	"github.com/aidetectsai/detector-api/logger"
)

// ErrEmailFetch indicates the provider's email list could not be fetched.
// Transient failures are retried inside the client; this surfaces once the
// retries are exhausted.
var ErrEmailFetch = errors.New("provision: fetching provider emails failed")

// ExternalIdentity is a resolved identity from an OAuth2 provider.
type ExternalIdentity struct {
	// Provider is the registration id ("github", ...).
	Provider string
	// Subject is the provider's stable user identifier.
	Subject string
	// Attributes are the raw identity attributes from the provider.
	Attributes map[string]any
	// AccessToken is the provider access token, when supplied.
	AccessToken string
}

// attribute returns the named attribute as a string, or "" when absent.
func (id *ExternalIdentity) attribute(key string) string {
	if v, ok := id.Attributes[key].(string); ok {
		return v
	}
	return ""
}

// Service resolves or creates the local user corresponding to an external
// identity.
type Service struct {
	users  auth.UserStore
	roles  auth.RoleStore
	emails EmailLister
	log    *logger.Logger
}

// NewService creates the provisioning service.
func NewService(users auth.UserStore, roles auth.RoleStore, emails EmailLister) *Service {
	return &Service{
		users:  users,
		roles:  roles,
		emails: emails,
		log:    logger.WithComponent("provision"),
	}
}

// extractFunc resolves login and email from a provider-specific identity.
type extractFunc func(ctx context.Context, s *Service, id *ExternalIdentity) (login, email string, err error)

// extractors keys provider-specific attribute extraction by provider name.
// Adding a provider means adding one entry here.
var extractors = map[string]extractFunc{
	auth.ProviderGitHub: extractGitHub,
}

// Provision resolves or creates the local user for the identity. An
// existing user (matched by email) is left untouched. The input identity
// is returned to the caller either way.
func (s *Service) Provision(ctx context.Context, id *ExternalIdentity) (*ExternalIdentity, error) {
	s.log.Info("provisioning external identity", map[string]interface{}{"provider": id.Provider})

	role, err := s.roles.FindByName(ctx, auth.DefaultRole)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, auth.ErrDefaultRoleMissing
		}
		return nil, fmt.Errorf("provision: look up default role: %w", err)
	}

	extract := extractors[id.Provider]
	if extract == nil {
		extract = extractGeneric
	}
	login, email, err := extract(ctx, s, id)
	if err != nil {
		return nil, err
	}

	_, err = s.users.FindByEmail(ctx, email)
	if err == nil {
		// Known user: no re-provisioning, no attribute refresh.
		s.log.Info("external identity already provisioned", map[string]interface{}{
			"login": login, "provider": id.Provider,
		})
		return id, nil
	}
	if !database.IsNotFound(err) {
		return nil, fmt.Errorf("provision: look up user by email: %w", err)
	}

	subject := id.Subject
	user := &database.User{
		Login:          login,
		Email:          email,
		Provider:       id.Provider,
		ProviderUserID: &subject,
		IsDeleted:      false,
		Roles:          []database.Role{*role},
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent provisioning call for the same brand-new email may
		// have won the race; the uniqueness constraint reports it.
		return nil, fmt.Errorf("provision: create user: %w", err)
	}

	s.log.Info("external identity provisioned", map[string]interface{}{
		"login": login, "provider": id.Provider,
	})
	return id, nil
}

// extractGitHub resolves login and email for GitHub identities. GitHub
// omits the email attribute unless the user makes it public, so the
// fallback chain fetches the registered-email list and finally synthesizes
// a placeholder address.
func extractGitHub(ctx context.Context, s *Service, id *ExternalIdentity) (string, string, error) {
	login := id.attribute("login")
	email := id.attribute("email")
	if email != "" {
		return login, email, nil
	}

	emails, err := s.emails.ListEmails(ctx, id.AccessToken)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrEmailFetch, err)
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return login, e.Email, nil
		}
	}

	email = login + "@github.com"
	s.log.Warn("no primary verified email found, using fallback address", map[string]interface{}{
		"login": login,
	})
	return login, email, nil
}

// extractGeneric resolves login and email for providers without special
// handling. No fallback fetch is performed.
func extractGeneric(_ context.Context, _ *Service, id *ExternalIdentity) (string, string, error) {
	return id.attribute("name"), id.attribute("email"), nil
}
