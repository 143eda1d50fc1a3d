package auth

const (
	// ProviderLocal tags accounts registered with local credentials.
	ProviderLocal = "AiDetectsAi"
	// ProviderGitHub is the registration id of the GitHub OAuth2 provider.
	ProviderGitHub = "github"

	// DefaultRole must exist before any registration or provisioning can succeed.
	DefaultRole = "USER"
	// AdminRole is the elevated role seeded alongside DefaultRole.
	AdminRole = "ADMIN"
)
