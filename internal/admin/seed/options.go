package seed

import (
	"time"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
)

// Record types mirror the configuration keys of a seed file. Keys match
// case-insensitively; pointer fields fall back to the entity defaults when
// absent.

type ClaimRecord struct {
	Type  string `mapstructure:"type" json:"type" yaml:"type"`
	Value string `mapstructure:"value" json:"value" yaml:"value"`
}

type PropertyRecord struct {
	Key   string `mapstructure:"key" json:"key" yaml:"key"`
	Value string `mapstructure:"value" json:"value" yaml:"value"`
}

type SecretRecord struct {
	Value       string     `mapstructure:"value" json:"value,omitempty" yaml:"value"`
	Type        string     `mapstructure:"type" json:"type,omitempty" yaml:"type,omitempty"`
	Description string     `mapstructure:"description" json:"description,omitempty" yaml:"description,omitempty"`
	Expiration  *time.Time `mapstructure:"expiration" json:"expiration,omitempty" yaml:"expiration,omitempty"`
	IsHashed    bool       `mapstructure:"isHashed" json:"isHashed,omitempty" yaml:"isHashed,omitempty"`
}

type ResourceRecord struct {
	Name                    string           `mapstructure:"name" json:"name,omitempty" yaml:"name"`
	DisplayName             string           `mapstructure:"displayName" json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Description             string           `mapstructure:"description" json:"description,omitempty" yaml:"description,omitempty"`
	Enabled                 *bool            `mapstructure:"enabled" json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Required                bool             `mapstructure:"required" json:"required,omitempty" yaml:"required,omitempty"`
	Emphasize               bool             `mapstructure:"emphasize" json:"emphasize,omitempty" yaml:"emphasize,omitempty"`
	ShowInDiscoveryDocument *bool            `mapstructure:"showInDiscoveryDocument" json:"showInDiscoveryDocument,omitempty" yaml:"showInDiscoveryDocument,omitempty"`
	UserClaims              []string         `mapstructure:"userClaims" json:"userClaims,omitempty" yaml:"userClaims,omitempty"`
	Properties              []PropertyRecord `mapstructure:"properties" json:"properties,omitempty" yaml:"properties,omitempty"`
}

type ClientRecord struct {
	ClientID                         string         `mapstructure:"clientId" json:"clientId,omitempty" yaml:"clientId"`
	ClientName                       string         `mapstructure:"clientName" json:"clientName,omitempty" yaml:"clientName,omitempty"`
	Description                      string         `mapstructure:"description" json:"description,omitempty" yaml:"description,omitempty"`
	Enabled                          *bool          `mapstructure:"enabled" json:"enabled,omitempty" yaml:"enabled,omitempty"`
	RequireClientSecret              *bool          `mapstructure:"requireClientSecret" json:"requireClientSecret,omitempty" yaml:"requireClientSecret,omitempty"`
	RequirePKCE                      *bool          `mapstructure:"requirePkce" json:"requirePkce,omitempty" yaml:"requirePkce,omitempty"`
	AllowPlainTextPKCE               bool           `mapstructure:"allowPlainTextPkce" json:"allowPlainTextPkce,omitempty" yaml:"allowPlainTextPkce,omitempty"`
	RequireConsent                   bool           `mapstructure:"requireConsent" json:"requireConsent,omitempty" yaml:"requireConsent,omitempty"`
	AllowRememberConsent             *bool          `mapstructure:"allowRememberConsent" json:"allowRememberConsent,omitempty" yaml:"allowRememberConsent,omitempty"`
	AllowOfflineAccess               bool           `mapstructure:"allowOfflineAccess" json:"allowOfflineAccess,omitempty" yaml:"allowOfflineAccess,omitempty"`
	AllowAccessTokensViaBrowser      bool           `mapstructure:"allowAccessTokensViaBrowser" json:"allowAccessTokensViaBrowser,omitempty" yaml:"allowAccessTokensViaBrowser,omitempty"`
	AlwaysIncludeUserClaimsInIDToken bool           `mapstructure:"alwaysIncludeUserClaimsInIdToken" json:"alwaysIncludeUserClaimsInIdToken,omitempty" yaml:"alwaysIncludeUserClaimsInIdToken,omitempty"`
	AlwaysSendClientClaims           bool           `mapstructure:"alwaysSendClientClaims" json:"alwaysSendClientClaims,omitempty" yaml:"alwaysSendClientClaims,omitempty"`
	ClientClaimsPrefix               *string        `mapstructure:"clientClaimsPrefix" json:"clientClaimsPrefix,omitempty" yaml:"clientClaimsPrefix,omitempty"`
	AccessTokenLifetime              *int           `mapstructure:"accessTokenLifetime" json:"accessTokenLifetime,omitempty" yaml:"accessTokenLifetime,omitempty"`
	IdentityTokenLifetime            *int           `mapstructure:"identityTokenLifetime" json:"identityTokenLifetime,omitempty" yaml:"identityTokenLifetime,omitempty"`
	AuthorizationCodeLifetime        *int           `mapstructure:"authorizationCodeLifetime" json:"authorizationCodeLifetime,omitempty" yaml:"authorizationCodeLifetime,omitempty"`
	AbsoluteRefreshTokenLifetime     *int           `mapstructure:"absoluteRefreshTokenLifetime" json:"absoluteRefreshTokenLifetime,omitempty" yaml:"absoluteRefreshTokenLifetime,omitempty"`
	SlidingRefreshTokenLifetime      *int           `mapstructure:"slidingRefreshTokenLifetime" json:"slidingRefreshTokenLifetime,omitempty" yaml:"slidingRefreshTokenLifetime,omitempty"`
	FrontChannelLogoutURI            string         `mapstructure:"frontChannelLogoutUri" json:"frontChannelLogoutUri,omitempty" yaml:"frontChannelLogoutUri,omitempty"`
	BackChannelLogoutURI             string         `mapstructure:"backChannelLogoutUri" json:"backChannelLogoutUri,omitempty" yaml:"backChannelLogoutUri,omitempty"`
	AllowedGrantTypes                []string       `mapstructure:"allowedGrantTypes" json:"allowedGrantTypes,omitempty" yaml:"allowedGrantTypes,omitempty"`
	AllowedScopes                    []string       `mapstructure:"allowedScopes" json:"allowedScopes,omitempty" yaml:"allowedScopes,omitempty"`
	ClientSecrets                    []SecretRecord `mapstructure:"clientSecrets" json:"clientSecrets,omitempty" yaml:"clientSecrets,omitempty"`
	RedirectURIs                     []string       `mapstructure:"redirectUris" json:"redirectUris,omitempty" yaml:"redirectUris,omitempty"`
	PostLogoutRedirectURIs           []string       `mapstructure:"postLogoutRedirectUris" json:"postLogoutRedirectUris,omitempty" yaml:"postLogoutRedirectUris,omitempty"`
	AllowedCORSOrigins               []string       `mapstructure:"allowedCorsOrigins" json:"allowedCorsOrigins,omitempty" yaml:"allowedCorsOrigins,omitempty"`
	Claims                           []ClaimRecord  `mapstructure:"claims" json:"claims,omitempty" yaml:"claims,omitempty"`
}

type RoleRecord struct {
	Name        string `mapstructure:"name" json:"name,omitempty" yaml:"name"`
	Description string `mapstructure:"description" json:"description,omitempty" yaml:"description,omitempty"`
}

// UserRecord carries a plaintext password; it is hashed by the user manager
// and never exported.
type UserRecord struct {
	UserName       string `mapstructure:"userName" json:"userName,omitempty" yaml:"userName"`
	Email          string `mapstructure:"email" json:"email,omitempty" yaml:"email,omitempty"`
	EmailConfirmed bool   `mapstructure:"emailConfirmed" json:"emailConfirmed,omitempty" yaml:"emailConfirmed,omitempty"`
	Password       string `mapstructure:"password" json:"password,omitempty" yaml:"password,omitempty"`
	PhoneNumber    string `mapstructure:"phoneNumber" json:"phoneNumber,omitempty" yaml:"phoneNumber,omitempty"`
	FirstName      string `mapstructure:"firstName" json:"firstName,omitempty" yaml:"firstName,omitempty"`
	LastName       string `mapstructure:"lastName" json:"lastName,omitempty" yaml:"lastName,omitempty"`
	LockoutEnabled *bool  `mapstructure:"lockoutEnabled" json:"lockoutEnabled,omitempty" yaml:"lockoutEnabled,omitempty"`
}

type RoleClaimAssignment struct {
	RoleName string        `mapstructure:"roleName" json:"roleName,omitempty" yaml:"roleName"`
	Claims   []ClaimRecord `mapstructure:"claims" json:"claims,omitempty" yaml:"claims"`
}

type UserClaimAssignment struct {
	Email  string        `mapstructure:"email" json:"email,omitempty" yaml:"email"`
	Claims []ClaimRecord `mapstructure:"claims" json:"claims,omitempty" yaml:"claims"`
}

type UserRoleAssignment struct {
	Email string   `mapstructure:"email" json:"email,omitempty" yaml:"email"`
	Roles []string `mapstructure:"roles" json:"roles,omitempty" yaml:"roles"`
}

// Options DTOs, one per seedable kind. Each binds the section of the same name.

type APIScopeOptions struct {
	APIScopes []ResourceRecord `mapstructure:"apiScopes"`
}

type IdentityResourceOptions struct {
	IdentityResources []ResourceRecord `mapstructure:"identityResources"`
}

type ClientOptions struct {
	Clients []ClientRecord `mapstructure:"clients"`
}

type RoleOptions struct {
	Roles []RoleRecord `mapstructure:"roles"`
}

type RoleClaimAssignmentOptions struct {
	RoleClaims []RoleClaimAssignment `mapstructure:"roleClaims"`
}

type UserOptions struct {
	Users []UserRecord `mapstructure:"users"`
}

type UserClaimAssignmentOptions struct {
	UserClaims []UserClaimAssignment `mapstructure:"userClaims"`
}

type UserRoleAssignmentOptions struct {
	UserRoles []UserRoleAssignment `mapstructure:"userRoles"`
}

// Document is a whole seed file: every section under the Seed key.
type Document struct {
	Seed Tree `json:"Seed" yaml:"Seed"`
}

type Tree struct {
	APIScopes         []ResourceRecord      `json:"apiScopes,omitempty" yaml:"apiScopes,omitempty"`
	IdentityResources []ResourceRecord      `json:"identityResources,omitempty" yaml:"identityResources,omitempty"`
	Clients           []ClientRecord        `json:"clients,omitempty" yaml:"clients,omitempty"`
	Roles             []RoleRecord          `json:"roles,omitempty" yaml:"roles,omitempty"`
	RoleClaims        []RoleClaimAssignment `json:"roleClaims,omitempty" yaml:"roleClaims,omitempty"`
	Users             []UserRecord          `json:"users,omitempty" yaml:"users,omitempty"`
	UserClaims        []UserClaimAssignment `json:"userClaims,omitempty" yaml:"userClaims,omitempty"`
	UserRoles         []UserRoleAssignment  `json:"userRoles,omitempty" yaml:"userRoles,omitempty"`
}

func (r ResourceRecord) ToDomain() domain.Resource {
	res := domain.Resource{
		Name:                    r.Name,
		DisplayName:             r.DisplayName,
		Description:             r.Description,
		Enabled:                 valueOr(r.Enabled, true),
		Required:                r.Required,
		Emphasize:               r.Emphasize,
		ShowInDiscoveryDocument: valueOr(r.ShowInDiscoveryDocument, true),
		UserClaims:              r.UserClaims,
	}
	for _, p := range r.Properties {
		res.Properties = append(res.Properties, domain.Property{Key: p.Key, Value: p.Value})
	}
	return res
}

// ToDomain applies r over the defaults of a new client. Secrets keep their
// IsHashed flag so digests are not hashed twice.
func (r ClientRecord) ToDomain() domain.Client {
	c := domain.NewClient(r.ClientID)
	c.ClientName = r.ClientName
	c.Description = r.Description
	c.Enabled = valueOr(r.Enabled, c.Enabled)
	c.RequireClientSecret = valueOr(r.RequireClientSecret, c.RequireClientSecret)
	c.RequirePKCE = valueOr(r.RequirePKCE, c.RequirePKCE)
	c.AllowPlainTextPKCE = r.AllowPlainTextPKCE
	c.RequireConsent = r.RequireConsent
	c.AllowRememberConsent = valueOr(r.AllowRememberConsent, c.AllowRememberConsent)
	c.AllowOfflineAccess = r.AllowOfflineAccess
	c.AllowAccessTokensViaBrowser = r.AllowAccessTokensViaBrowser
	c.AlwaysIncludeUserClaimsInIDToken = r.AlwaysIncludeUserClaimsInIDToken
	c.AlwaysSendClientClaims = r.AlwaysSendClientClaims
	c.ClientClaimsPrefix = valueOr(r.ClientClaimsPrefix, c.ClientClaimsPrefix)
	c.AccessTokenLifetime = valueOr(r.AccessTokenLifetime, c.AccessTokenLifetime)
	c.IdentityTokenLifetime = valueOr(r.IdentityTokenLifetime, c.IdentityTokenLifetime)
	c.AuthorizationCodeLifetime = valueOr(r.AuthorizationCodeLifetime, c.AuthorizationCodeLifetime)
	c.AbsoluteRefreshTokenLifetime = valueOr(r.AbsoluteRefreshTokenLifetime, c.AbsoluteRefreshTokenLifetime)
	c.SlidingRefreshTokenLifetime = valueOr(r.SlidingRefreshTokenLifetime, c.SlidingRefreshTokenLifetime)
	c.FrontChannelLogoutURI = r.FrontChannelLogoutURI
	c.BackChannelLogoutURI = r.BackChannelLogoutURI
	c.AllowedGrantTypes = r.AllowedGrantTypes
	c.AllowedScopes = r.AllowedScopes
	c.RedirectURIs = r.RedirectURIs
	c.PostLogoutRedirectURIs = r.PostLogoutRedirectURIs
	c.AllowedCORSOrigins = r.AllowedCORSOrigins
	c.Claims = Claims(r.Claims)

	for _, s := range r.ClientSecrets {
		c.ClientSecrets = append(c.ClientSecrets, domain.Secret{
			Value:       s.Value,
			Type:        s.Type,
			Description: s.Description,
			Expiration:  s.Expiration,
			IsHashed:    s.IsHashed,
		})
	}
	return c
}

func (r UserRecord) ToDomain() domain.User {
	return domain.User{
		UserName:       r.UserName,
		Email:          r.Email,
		EmailConfirmed: r.EmailConfirmed,
		PhoneNumber:    r.PhoneNumber,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		LockoutEnabled: valueOr(r.LockoutEnabled, true),
	}
}

// Claims converts claim records to domain claims.
func Claims(in []ClaimRecord) []domain.Claim {
	if in == nil {
		return nil
	}
	out := make([]domain.Claim, len(in))
	for i, c := range in {
		out[i] = domain.Claim{Type: c.Type, Value: c.Value}
	}
	return out
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
