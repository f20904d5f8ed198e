package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
	"github.com/aussiebroadwan/greenadmin/internal/admin/store"
	"github.com/aussiebroadwan/greenadmin/internal/admin/store/drivers/sqlite"
	"github.com/aussiebroadwan/greenadmin/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	st := newStore(t)
	require.NoError(t, st.ApplyMigrations())
	require.NoError(t, st.Ping(context.Background()))
}

func TestClientsRoundTrip(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	c := domain.NewClient("web")
	c.ID = idx.NewString()
	c.ClientName = "Web App"
	c.AllowedGrantTypes = []string{"authorization_code", "refresh_token"}
	c.AllowedScopes = []string{"openid", "profile", "api"}
	c.RedirectURIs = []string{"https://app.example/cb"}
	c.PostLogoutRedirectURIs = []string{"https://app.example/"}
	c.AllowedCORSOrigins = []string{"https://app.example"}
	c.ClientSecrets = []domain.Secret{{Value: "digest", Type: domain.SecretTypeSharedSecret, Expiration: &exp, IsHashed: true}}
	c.Claims = []domain.Claim{{Type: "tier", Value: "gold"}}

	require.NoError(t, st.Clients().CreateClient(ctx, c))

	got, err := st.Clients().GetClientByClientID(ctx, "web")
	require.NoError(t, err)
	require.Equal(t, c.ID, got.ID)
	require.Equal(t, "Web App", got.ClientName)
	require.True(t, got.RequirePKCE)
	require.Equal(t, 3600, got.AccessTokenLifetime)
	require.Equal(t, c.AllowedGrantTypes, got.AllowedGrantTypes)
	require.Equal(t, c.AllowedScopes, got.AllowedScopes)
	require.Equal(t, c.RedirectURIs, got.RedirectURIs)
	require.Equal(t, c.PostLogoutRedirectURIs, got.PostLogoutRedirectURIs)
	require.Equal(t, c.AllowedCORSOrigins, got.AllowedCORSOrigins)
	require.Equal(t, c.Claims, got.Claims)
	require.Len(t, got.ClientSecrets, 1)
	require.True(t, got.ClientSecrets[0].IsHashed)
	require.True(t, exp.Equal(*got.ClientSecrets[0].Expiration))

	n, err := st.Clients().CountClients(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	t.Run("duplicate client id", func(t *testing.T) {
		dup := domain.NewClient("web")
		dup.ID = idx.NewString()
		require.ErrorIs(t, st.Clients().CreateClient(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("replace children", func(t *testing.T) {
		got.AllowedScopes = []string{"openid"}
		got.Claims = nil
		require.NoError(t, st.Clients().ReplaceClientChildren(ctx, got))

		again, err := st.Clients().GetClientByClientID(ctx, "web")
		require.NoError(t, err)
		require.Equal(t, []string{"openid"}, again.AllowedScopes)
		require.Empty(t, again.Claims)
		require.Len(t, again.ClientSecrets, 1)
	})

	t.Run("missing client", func(t *testing.T) {
		_, err := st.Clients().GetClientByClientID(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)

		ghost := domain.NewClient("ghost")
		ghost.ID = idx.NewString()
		require.ErrorIs(t, st.Clients().UpdateClient(ctx, ghost), store.ErrNotFound)
	})

	t.Run("delete cascades", func(t *testing.T) {
		require.NoError(t, st.Clients().DeleteClient(ctx, c.ID))
		list, err := st.Clients().ListClients(ctx)
		require.NoError(t, err)
		require.Empty(t, list)

		removed, err := st.Clients().DeleteExpiredSecrets(ctx, exp.Add(time.Hour))
		require.NoError(t, err)
		require.Zero(t, removed)
	})
}

func TestDeleteExpiredSecrets(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	c := domain.NewClient("svc")
	c.ID = idx.NewString()
	c.ClientSecrets = []domain.Secret{
		{Value: "old", Type: domain.SecretTypeSharedSecret, Expiration: &past, IsHashed: true},
		{Value: "new", Type: domain.SecretTypeSharedSecret, Expiration: &future, IsHashed: true},
		{Value: "forever", Type: domain.SecretTypeSharedSecret, IsHashed: true},
	}
	require.NoError(t, st.Clients().CreateClient(ctx, c))

	removed, err := st.Clients().DeleteExpiredSecrets(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	got, err := st.Clients().GetClientByClientID(ctx, "svc")
	require.NoError(t, err)
	require.Len(t, got.ClientSecrets, 2)
	require.Equal(t, "new", got.ClientSecrets[0].Value)
	require.Equal(t, "forever", got.ClientSecrets[1].Value)
}

func TestResourcesAreSplitByKind(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	scope := domain.Resource{ID: idx.NewString(), Name: "profile", Enabled: true, UserClaims: []string{"name"}}
	res := domain.Resource{
		ID:         idx.NewString(),
		Name:       "profile",
		Enabled:    true,
		UserClaims: []string{"email", "profile"},
		Properties: []domain.Property{{Key: "a", Value: "1"}},
	}

	require.NoError(t, st.APIScopes().CreateResource(ctx, scope))
	require.NoError(t, st.IdentityResources().CreateResource(ctx, res))

	n, err := st.APIScopes().CountResources(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := st.IdentityResources().GetResourceByName(ctx, "profile")
	require.NoError(t, err)
	require.Equal(t, res.ID, got.ID)
	require.Equal(t, []string{"email", "profile"}, got.UserClaims)
	require.Equal(t, res.Properties, got.Properties)

	t.Run("claims and properties add and remove", func(t *testing.T) {
		repo := st.IdentityResources()
		require.NoError(t, repo.RemoveResourceClaims(ctx, res.ID, []string{"email"}))
		require.NoError(t, repo.AddResourceClaims(ctx, res.ID, []string{"address"}))
		require.NoError(t, repo.RemoveResourceProperties(ctx, res.ID, []string{"a"}))
		require.NoError(t, repo.AddResourceProperties(ctx, res.ID, []domain.Property{{Key: "b", Value: "2"}}))

		got, err := repo.GetResourceByName(ctx, "profile")
		require.NoError(t, err)
		require.ElementsMatch(t, []string{"address", "profile"}, got.UserClaims)
		require.Equal(t, []domain.Property{{Key: "b", Value: "2"}}, got.Properties)
	})

	t.Run("duplicate claim type", func(t *testing.T) {
		err := st.IdentityResources().AddResourceClaims(ctx, res.ID, []string{"profile"})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("duplicate name within kind", func(t *testing.T) {
		dup := domain.Resource{ID: idx.NewString(), Name: "profile"}
		require.ErrorIs(t, st.APIScopes().CreateResource(ctx, dup), store.ErrAlreadyExists)
	})
}

func TestRolesUsersAndAssociations(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	role := domain.Role{ID: idx.NewString(), Name: "Admin", ConcurrencyStamp: "s"}
	require.NoError(t, st.Roles().CreateRole(ctx, role))

	got, err := st.Roles().GetRoleByNormalizedName(ctx, "ADMIN")
	require.NoError(t, err)
	require.Equal(t, role.ID, got.ID)
	require.Equal(t, "Admin", got.Name)

	dup := domain.Role{ID: idx.NewString(), Name: "admin", ConcurrencyStamp: "s"}
	require.ErrorIs(t, st.Roles().CreateRole(ctx, dup), store.ErrAlreadyExists)

	user := domain.User{
		ID: idx.NewString(), UserName: "alice", Email: "Alice@Example.com",
		SecurityStamp: "a", ConcurrencyStamp: "b", LockoutEnabled: true,
	}
	require.NoError(t, st.Users().CreateUser(ctx, user))

	byEmail, err := st.Users().GetUserByNormalizedEmail(ctx, "ALICE@EXAMPLE.COM")
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)
	require.Nil(t, byEmail.LockoutEnd)

	require.NoError(t, st.RoleClaims().CreateRoleClaim(ctx, domain.RoleClaim{
		ID: idx.NewString(), RoleID: role.ID, Claim: domain.Claim{Type: "perm", Value: "read"},
	}))
	require.NoError(t, st.UserClaims().CreateUserClaim(ctx, domain.UserClaim{
		ID: idx.NewString(), UserID: user.ID, Claim: domain.Claim{Type: "dept", Value: "ops"},
	}))
	require.NoError(t, st.UserRoles().CreateUserRole(ctx, domain.UserRole{UserID: user.ID, RoleID: role.ID}))
	require.ErrorIs(t,
		st.UserRoles().CreateUserRole(ctx, domain.UserRole{UserID: user.ID, RoleID: role.ID}),
		store.ErrAlreadyExists)

	memberships, err := st.UserRoles().ListUserRoles(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, []domain.UserRole{{UserID: user.ID, RoleID: role.ID}}, memberships)

	t.Run("foreign keys are enforced", func(t *testing.T) {
		err := st.UserRoles().CreateUserRole(ctx, domain.UserRole{UserID: user.ID, RoleID: "missing"})
		require.Error(t, err)
	})

	t.Run("deleting a role cascades", func(t *testing.T) {
		require.NoError(t, st.Roles().DeleteRole(ctx, role.ID))

		n, err := st.RoleClaims().CountRoleClaims(ctx)
		require.NoError(t, err)
		require.Zero(t, n)

		n, err = st.UserRoles().CountUserRoles(ctx)
		require.NoError(t, err)
		require.Zero(t, n)

		n, err = st.UserClaims().CountUserClaims(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})
}

func TestWithTxRollsBack(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	err := st.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Roles().CreateRole(ctx, domain.Role{ID: idx.NewString(), Name: "Temp", ConcurrencyStamp: "s"}))
		return store.ErrNotFound
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	n, err := st.Roles().CountRoles(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	t.Run("nested transactions are refused", func(t *testing.T) {
		err := st.WithTx(ctx, func(tx store.Tx) error {
			return tx.WithTx(ctx, func(store.Tx) error { return nil })
		})
		require.Error(t, err)
	})
}
