package seed

import (
	"context"
	"time"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
	"github.com/aussiebroadwan/greenadmin/pkg/slogx"
)

// Export reads the store into a seed document the binder accepts. Secrets are
// exported as stored digests with IsHashed set. Passwords are not exported,
// and users without an email are left out of the claim and role assignments
// because assignments are keyed by email.
func (d *Director) Export(ctx context.Context) (Document, error) {
	l := slogx.FromContext(ctx)
	var t Tree

	scopes, err := d.APIScopes.List(ctx)
	if err != nil {
		return Document{}, err
	}
	for _, r := range scopes {
		t.APIScopes = append(t.APIScopes, FromResource(r))
	}

	resources, err := d.IdentityResources.List(ctx)
	if err != nil {
		return Document{}, err
	}
	for _, r := range resources {
		t.IdentityResources = append(t.IdentityResources, FromResource(r))
	}

	clients, err := d.Clients.List(ctx)
	if err != nil {
		return Document{}, err
	}
	for _, c := range clients {
		t.Clients = append(t.Clients, FromClient(c))
	}

	roles, err := d.Roles.List(ctx)
	if err != nil {
		return Document{}, err
	}
	for _, r := range roles {
		t.Roles = append(t.Roles, RoleRecord{Name: r.Name, Description: r.Description})

		cs, err := d.Roles.Claims(ctx, r.Name)
		if err != nil {
			return Document{}, err
		}
		if len(cs) > 0 {
			t.RoleClaims = append(t.RoleClaims, RoleClaimAssignment{RoleName: r.Name, Claims: ClaimRecords(cs)})
		}
	}

	users, err := d.Users.List(ctx)
	if err != nil {
		return Document{}, err
	}
	for _, u := range users {
		t.Users = append(t.Users, FromUser(u))
		if u.Email == "" {
			l.Debug("user without email left out of assignments", "user", u.UserName)
			continue
		}

		cs, err := d.Users.Claims(ctx, u.ID)
		if err != nil {
			return Document{}, err
		}
		if len(cs) > 0 {
			t.UserClaims = append(t.UserClaims, UserClaimAssignment{Email: u.Email, Claims: ClaimRecords(cs)})
		}

		rs, err := d.Users.Roles(ctx, u.ID)
		if err != nil {
			return Document{}, err
		}
		if len(rs) > 0 {
			names := make([]string, len(rs))
			for i, r := range rs {
				names[i] = r.Name
			}
			t.UserRoles = append(t.UserRoles, UserRoleAssignment{Email: u.Email, Roles: names})
		}
	}

	l.Info("store exported",
		"api_scopes", len(t.APIScopes), "identity_resources", len(t.IdentityResources),
		"clients", len(t.Clients), "roles", len(t.Roles), "users", len(t.Users))
	return Document{Seed: t}, nil
}

// FromResource is the inverse of ResourceRecord.ToDomain.
func FromResource(r domain.Resource) ResourceRecord {
	rec := ResourceRecord{
		Name:                    r.Name,
		DisplayName:             r.DisplayName,
		Description:             r.Description,
		Enabled:                 &r.Enabled,
		Required:                r.Required,
		Emphasize:               r.Emphasize,
		ShowInDiscoveryDocument: &r.ShowInDiscoveryDocument,
		UserClaims:              r.UserClaims,
	}
	for _, p := range r.Properties {
		rec.Properties = append(rec.Properties, PropertyRecord{Key: p.Key, Value: p.Value})
	}
	return rec
}

// FromClient maps a stored client to a record. Secret values are digests.
func FromClient(c domain.Client) ClientRecord {
	rec := ClientRecord{
		ClientID:                         c.ClientID,
		ClientName:                       c.ClientName,
		Description:                      c.Description,
		Enabled:                          &c.Enabled,
		RequireClientSecret:              &c.RequireClientSecret,
		RequirePKCE:                      &c.RequirePKCE,
		AllowPlainTextPKCE:               c.AllowPlainTextPKCE,
		RequireConsent:                   c.RequireConsent,
		AllowRememberConsent:             &c.AllowRememberConsent,
		AllowOfflineAccess:               c.AllowOfflineAccess,
		AllowAccessTokensViaBrowser:      c.AllowAccessTokensViaBrowser,
		AlwaysIncludeUserClaimsInIDToken: c.AlwaysIncludeUserClaimsInIDToken,
		AlwaysSendClientClaims:           c.AlwaysSendClientClaims,
		ClientClaimsPrefix:               &c.ClientClaimsPrefix,
		AccessTokenLifetime:              &c.AccessTokenLifetime,
		IdentityTokenLifetime:            &c.IdentityTokenLifetime,
		AuthorizationCodeLifetime:        &c.AuthorizationCodeLifetime,
		AbsoluteRefreshTokenLifetime:     &c.AbsoluteRefreshTokenLifetime,
		SlidingRefreshTokenLifetime:      &c.SlidingRefreshTokenLifetime,
		FrontChannelLogoutURI:            c.FrontChannelLogoutURI,
		BackChannelLogoutURI:             c.BackChannelLogoutURI,
		AllowedGrantTypes:                c.AllowedGrantTypes,
		AllowedScopes:                    c.AllowedScopes,
		RedirectURIs:                     c.RedirectURIs,
		PostLogoutRedirectURIs:           c.PostLogoutRedirectURIs,
		AllowedCORSOrigins:               c.AllowedCORSOrigins,
		Claims:                           ClaimRecords(c.Claims),
	}
	for _, s := range c.ClientSecrets {
		var exp *time.Time
		if s.Expiration != nil {
			t := s.Expiration.UTC()
			exp = &t
		}
		rec.ClientSecrets = append(rec.ClientSecrets, SecretRecord{
			Value:       s.Value,
			Type:        s.Type,
			Description: s.Description,
			Expiration:  exp,
			IsHashed:    true,
		})
	}
	return rec
}

func FromUser(u domain.User) UserRecord {
	return UserRecord{
		UserName:       u.UserName,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmed,
		PhoneNumber:    u.PhoneNumber,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		LockoutEnabled: &u.LockoutEnabled,
	}
}

func ClaimRecords(in []domain.Claim) []ClaimRecord {
	if len(in) == 0 {
		return nil
	}
	out := make([]ClaimRecord, len(in))
	for i, c := range in {
		out[i] = ClaimRecord{Type: c.Type, Value: c.Value}
	}
	return out
}
