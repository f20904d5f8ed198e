package domain

import "time"

// SecretTypeSharedSecret is the only secret type the admin surface creates.
const SecretTypeSharedSecret = "SharedSecret"

type Client struct {
	ID          string // Surrogate key (ULID)
	ClientID    string // OAuth client_id, unique and immutable once created
	ClientName  string
	Description string
	Enabled     bool

	RequireClientSecret              bool
	RequirePKCE                      bool
	AllowPlainTextPKCE               bool
	RequireConsent                   bool
	AllowRememberConsent             bool
	AllowOfflineAccess               bool
	AllowAccessTokensViaBrowser      bool
	AlwaysIncludeUserClaimsInIDToken bool
	AlwaysSendClientClaims           bool
	ClientClaimsPrefix               string

	// Lifetimes are in seconds.
	AccessTokenLifetime          int
	IdentityTokenLifetime        int
	AuthorizationCodeLifetime    int
	AbsoluteRefreshTokenLifetime int
	SlidingRefreshTokenLifetime  int

	FrontChannelLogoutURI string
	BackChannelLogoutURI  string

	AllowedGrantTypes      []string
	AllowedScopes          []string
	ClientSecrets          []Secret
	RedirectURIs           []string
	PostLogoutRedirectURIs []string
	AllowedCORSOrigins     []string
	Claims                 []Claim

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Secret is a client secret. Value holds the sha256 hex digest once IsHashed
// is set; it only ever carries plaintext on its way into a manager.
type Secret struct {
	Value       string
	Type        string
	Description string
	Expiration  *time.Time
	IsHashed    bool
}

// Expired reports whether the secret has an expiration at or before now.
func (s Secret) Expired(now time.Time) bool {
	return s.Expiration != nil && !s.Expiration.After(now)
}

// NewClient returns a client carrying the defaults IdentityServer applies to
// a fresh registration.
func NewClient(clientID string) Client {
	return Client{
		ClientID:                     clientID,
		Enabled:                      true,
		RequireClientSecret:          true,
		RequirePKCE:                  true,
		AllowRememberConsent:         true,
		ClientClaimsPrefix:           "client_",
		AccessTokenLifetime:          3600,
		IdentityTokenLifetime:        300,
		AuthorizationCodeLifetime:    300,
		AbsoluteRefreshTokenLifetime: 2592000,
		SlidingRefreshTokenLifetime:  1296000,
	}
}
