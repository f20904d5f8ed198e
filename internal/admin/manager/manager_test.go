package manager_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
	"github.com/aussiebroadwan/greenadmin/internal/admin/manager"
	"github.com/aussiebroadwan/greenadmin/internal/admin/store"
	"github.com/aussiebroadwan/greenadmin/internal/admin/store/drivers/sqlite"
	"github.com/aussiebroadwan/greenadmin/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

const actor = "tester"

func newStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestClientCreateHashesSecrets(t *testing.T) {
	ctx := context.Background()
	m := &manager.ClientManager{Store: newStore(t)}

	digest := cryptox.HashSecret("already")

	c := domain.NewClient("web")
	c.ClientSecrets = []domain.Secret{
		{Value: "plain"},
		{Value: digest, IsHashed: true},
	}

	created, err := m.Create(ctx, c, actor)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Len(t, created.ClientSecrets, 2)

	require.Equal(t, cryptox.HashSecret("plain"), created.ClientSecrets[0].Value)
	require.True(t, created.ClientSecrets[0].IsHashed)
	require.Equal(t, domain.SecretTypeSharedSecret, created.ClientSecrets[0].Type)
	require.Equal(t, digest, created.ClientSecrets[1].Value, "hashed secrets must not be re-hashed")

	// The caller's slice keeps its plaintext.
	require.Equal(t, "plain", c.ClientSecrets[0].Value)

	t.Run("update with loaded secrets keeps digests", func(t *testing.T) {
		updated, err := m.Update(ctx, created, actor)
		require.NoError(t, err)
		require.Equal(t, created.ClientSecrets[0].Value, updated.ClientSecrets[0].Value)
		require.Equal(t, digest, updated.ClientSecrets[1].Value)
	})
}

func TestClientUpdateReplacesChildren(t *testing.T) {
	ctx := context.Background()
	m := &manager.ClientManager{Store: newStore(t)}

	c := domain.NewClient("spa")
	c.AllowedGrantTypes = []string{"authorization_code"}
	c.AllowedScopes = []string{"openid", "profile"}
	c.RedirectURIs = []string{"https://a/cb", "https://b/cb"}
	c.Claims = []domain.Claim{{Type: "tier", Value: "gold"}}
	_, err := m.Create(ctx, c, actor)
	require.NoError(t, err)

	c.ClientName = "Single Page"
	c.AllowedScopes = []string{"profile", "api"}
	c.RedirectURIs = []string{"https://b/cb"}
	c.Claims = nil
	c.RequirePKCE = false

	updated, err := m.Update(ctx, c, actor)
	require.NoError(t, err)
	require.Equal(t, "Single Page", updated.ClientName)
	require.False(t, updated.RequirePKCE)
	require.Equal(t, []string{"authorization_code"}, updated.AllowedGrantTypes)
	require.Equal(t, []string{"profile", "api"}, updated.AllowedScopes)
	require.Equal(t, []string{"https://b/cb"}, updated.RedirectURIs)
	require.Empty(t, updated.Claims)

	t.Run("unknown client", func(t *testing.T) {
		_, err := m.Update(ctx, domain.NewClient("ghost"), actor)
		require.ErrorIs(t, err, domain.ErrNotFound)

		var me *domain.ManagerError
		require.ErrorAs(t, err, &me)
		require.Equal(t, domain.KindClients, me.Kind)
		require.Equal(t, "update", me.Op)
	})
}

func TestClientGenerateSecretKeepsExisting(t *testing.T) {
	ctx := context.Background()
	m := &manager.ClientManager{Store: newStore(t)}

	c := domain.NewClient("worker")
	c.ClientSecrets = []domain.Secret{{Value: "first"}}
	_, err := m.Create(ctx, c, actor)
	require.NoError(t, err)

	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	plaintext, updated, err := m.GenerateSecret(ctx, "worker", "rotated", &exp, actor)
	require.NoError(t, err)
	require.NotEmpty(t, plaintext)
	require.Len(t, updated.ClientSecrets, 2)
	require.Equal(t, cryptox.HashSecret("first"), updated.ClientSecrets[0].Value)
	require.Equal(t, cryptox.HashSecret(plaintext), updated.ClientSecrets[1].Value)
	require.Equal(t, "rotated", updated.ClientSecrets[1].Description)

	_, _, err = m.GenerateSecret(ctx, "ghost", "", nil, actor)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = m.GenerateSecret(ctx, "worker", "", nil, "")
	var ae *domain.ArgumentError
	require.ErrorAs(t, err, &ae)
}

func TestClientArgumentsAndConflicts(t *testing.T) {
	ctx := context.Background()
	m := &manager.ClientManager{Store: newStore(t)}

	var argErr *domain.ArgumentError

	_, err := m.Create(ctx, domain.NewClient(""), actor)
	require.ErrorAs(t, err, &argErr)
	require.Equal(t, "clientID", argErr.Param)

	_, err = m.Create(ctx, domain.NewClient("web"), "")
	require.ErrorAs(t, err, &argErr)
	require.Equal(t, "actor", argErr.Param)

	_, err = m.Create(ctx, domain.NewClient("web"), actor)
	require.NoError(t, err)

	_, err = m.Create(ctx, domain.NewClient("web"), actor)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
	var me *domain.ManagerError
	require.ErrorAs(t, err, &me)

	n, err := m.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	t.Run("delete is a no-op when absent", func(t *testing.T) {
		require.NoError(t, m.Delete(ctx, "missing", actor))
		require.NoError(t, m.Delete(ctx, "web", actor))

		_, ok, err := m.FindByClientID(ctx, "web")
		require.NoError(t, err)
		require.False(t, ok)

		exists, err := m.Any(ctx)
		require.NoError(t, err)
		require.False(t, exists)
	})
}

func TestResourceUpdateReconcilesClaimsAndProperties(t *testing.T) {
	ctx := context.Background()
	m := manager.NewIdentityResourceManager(newStore(t))

	_, err := m.Create(ctx, domain.Resource{
		Name:       "profile",
		Enabled:    true,
		UserClaims: []string{"email", "profile"},
		Properties: []domain.Property{{Key: "tier", Value: "gold"}, {Key: "owner", Value: "ops"}},
	}, actor)
	require.NoError(t, err)

	updated, err := m.Update(ctx, domain.Resource{
		Name:        "profile",
		DisplayName: "Profile",
		Enabled:     true,
		UserClaims:  []string{"profile", "address"},
		Properties:  []domain.Property{{Key: "tier", Value: "silver"}, {Key: "owner", Value: "ops"}},
	}, actor)
	require.NoError(t, err)

	require.Equal(t, "Profile", updated.DisplayName)
	require.ElementsMatch(t, []string{"profile", "address"}, updated.UserClaims)
	require.ElementsMatch(t,
		[]domain.Property{{Key: "tier", Value: "silver"}, {Key: "owner", Value: "ops"}},
		updated.Properties)

	t.Run("api scopes are a separate kind", func(t *testing.T) {
		scopes := manager.NewAPIScopeManager(m.Store)
		_, ok, err := scopes.FindByName(ctx, "profile")
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, domain.KindAPIScopes, scopes.Kind())
	})

	t.Run("missing resource", func(t *testing.T) {
		_, err := m.Update(ctx, domain.Resource{Name: "nope"}, actor)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("duplicate property keys are rejected", func(t *testing.T) {
		_, err := m.Update(ctx, domain.Resource{
			Name:       "profile",
			Properties: []domain.Property{{Key: "a", Value: "1"}, {Key: "a", Value: "2"}},
		}, actor)
		var argErr *domain.ArgumentError
		require.ErrorAs(t, err, &argErr)
		require.Equal(t, "properties", argErr.Param)
	})
}

func TestRoleSetClaimsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	roles := &manager.RoleManager{Store: st}

	_, err := roles.Create(ctx, domain.Role{Name: "Admin"}, actor)
	require.NoError(t, err)

	desired := []domain.Claim{{Type: "perm", Value: "read"}, {Type: "perm", Value: "write"}}
	got, err := roles.SetClaims(ctx, "admin", desired, actor)
	require.NoError(t, err)
	require.ElementsMatch(t, desired, got)

	before, err := st.RoleClaims().ListRoleClaims(ctx, mustRole(t, roles, "Admin").ID)
	require.NoError(t, err)

	_, err = roles.SetClaims(ctx, "Admin", desired, actor)
	require.NoError(t, err)

	after, err := st.RoleClaims().ListRoleClaims(ctx, mustRole(t, roles, "Admin").ID)
	require.NoError(t, err)
	require.Equal(t, before, after, "second pass must not touch existing rows")

	got, err = roles.SetClaims(ctx, "Admin", []domain.Claim{{Type: "perm", Value: "write"}}, actor)
	require.NoError(t, err)
	require.Equal(t, []domain.Claim{{Type: "perm", Value: "write"}}, got)

	_, err = roles.SetClaims(ctx, "Ghost", desired, actor)
	require.ErrorIs(t, err, domain.ErrNotFound)

	t.Run("duplicate claims", func(t *testing.T) {
		read := domain.Claim{Type: "perm", Value: "read"}
		_, err := roles.SetClaims(ctx, "Admin", []domain.Claim{read, read}, actor)
		var argErr *domain.ArgumentError
		require.ErrorAs(t, err, &argErr)
		require.Equal(t, "claims", argErr.Param)

		var me *domain.ManagerError
		require.False(t, errors.As(err, &me), "argument errors are not wrapped")

		got, err := roles.Claims(ctx, "Admin")
		require.NoError(t, err)
		require.Equal(t, []domain.Claim{{Type: "perm", Value: "write"}}, got)
	})
}

func mustRole(t *testing.T, m *manager.RoleManager, name string) domain.Role {
	t.Helper()
	r, err := m.GetByName(context.Background(), name)
	require.NoError(t, err)
	return r
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	users := &manager.UserManager{Store: st}
	roles := &manager.RoleManager{Store: st}

	for _, name := range []string{"Admin", "Reader"} {
		_, err := roles.Create(ctx, domain.Role{Name: name}, actor)
		require.NoError(t, err)
	}

	u, err := users.Create(ctx, domain.User{UserName: "alice", Email: "Alice@Example.com"}, "hunter2", actor)
	require.NoError(t, err)
	require.NoError(t, cryptox.VerifyPassword("hunter2", u.PasswordHash))
	require.NotEmpty(t, u.SecurityStamp)
	require.NotEmpty(t, u.ConcurrencyStamp)

	found, ok, err := users.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, u.ID, found.ID)

	_, ok, err = users.FindByUserName(ctx, "ALICE")
	require.NoError(t, err)
	require.True(t, ok)

	t.Run("update keeps password", func(t *testing.T) {
		u.FirstName = "Alice"
		updated, err := users.Update(ctx, u, actor)
		require.NoError(t, err)
		require.Equal(t, "Alice", updated.FirstName)
		require.Equal(t, u.PasswordHash, updated.PasswordHash)
		require.NotEqual(t, u.ConcurrencyStamp, updated.ConcurrencyStamp)
	})

	t.Run("set password rotates security stamp", func(t *testing.T) {
		require.NoError(t, users.SetPassword(ctx, u.ID, "correct horse", actor))
		got, _, err := users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		require.NoError(t, cryptox.VerifyPassword("correct horse", got.PasswordHash))
		require.NotEqual(t, u.SecurityStamp, got.SecurityStamp)
	})

	t.Run("set roles", func(t *testing.T) {
		got, err := users.SetRoles(ctx, u.ID, []string{"admin", "reader"}, actor)
		require.NoError(t, err)
		require.Len(t, got, 2)

		got, err = users.SetRoles(ctx, u.ID, []string{"Reader"}, actor)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "Reader", got[0].Name)

		_, err = users.SetRoles(ctx, u.ID, []string{"Reader", "Ghost"}, actor)
		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf)
		require.Equal(t, "Ghost", nf.Key)

		current, err := users.Roles(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, current, 1, "failed reconciliation must roll back")

		_, err = users.SetRoles(ctx, u.ID, []string{"Admin", "admin"}, actor)
		var argErr *domain.ArgumentError
		require.ErrorAs(t, err, &argErr)
		require.Equal(t, "roleNames", argErr.Param)

		current, err = users.Roles(ctx, u.ID)
		require.NoError(t, err)
		require.Len(t, current, 1, "rejected role names must not write")
	})

	t.Run("set claims", func(t *testing.T) {
		claims := []domain.Claim{{Type: "dept", Value: "ops"}}
		got, err := users.SetClaims(ctx, u.ID, claims, actor)
		require.NoError(t, err)
		require.Equal(t, claims, got)

		got, err = users.Claims(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, claims, got)

		_, err = users.SetClaims(ctx, u.ID, []domain.Claim{claims[0], claims[0]}, actor)
		var argErr *domain.ArgumentError
		require.ErrorAs(t, err, &argErr)
		require.Equal(t, "claims", argErr.Param)

		got, err = users.Claims(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, claims, got)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, users.Delete(ctx, u.ID, actor))
		require.NoError(t, users.Delete(ctx, u.ID, actor))

		n, err := st.UserRoles().CountUserRoles(ctx)
		require.NoError(t, err)
		require.Zero(t, n)
	})
}

func TestAssociationManagers(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)

	role, err := (&manager.RoleManager{Store: st}).Create(ctx, domain.Role{Name: "Admin"}, actor)
	require.NoError(t, err)
	user, err := (&manager.UserManager{Store: st}).Create(ctx, domain.User{UserName: "bob"}, "", actor)
	require.NoError(t, err)
	require.Empty(t, user.PasswordHash)

	rcm := &manager.RoleClaimManager{Store: st}
	exists, err := rcm.Any(ctx)
	require.NoError(t, err)
	require.False(t, exists)

	_, err = rcm.Create(ctx, domain.RoleClaim{RoleID: role.ID, Claim: domain.Claim{Type: "perm", Value: "read"}}, actor)
	require.NoError(t, err)

	ucm := &manager.UserClaimManager{Store: st}
	_, err = ucm.Create(ctx, domain.UserClaim{UserID: user.ID, Claim: domain.Claim{Type: "dept", Value: "ops"}}, actor)
	require.NoError(t, err)

	urm := &manager.UserRoleManager{Store: st}
	require.NoError(t, urm.Create(ctx, domain.UserRole{UserID: user.ID, RoleID: role.ID}, actor))
	require.ErrorIs(t, urm.Create(ctx, domain.UserRole{UserID: user.ID, RoleID: role.ID}, actor), store.ErrAlreadyExists)

	for _, counter := range []interface {
		Count(context.Context) (int, error)
	}{rcm, ucm, urm} {
		n, err := counter.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	}

	_, err = rcm.Create(ctx, domain.RoleClaim{RoleID: role.ID}, actor)
	var argErr *domain.ArgumentError
	require.ErrorAs(t, err, &argErr)
	require.Equal(t, "claimType", argErr.Param)
}

func TestHousekeepingPurgesExpiredSecrets(t *testing.T) {
	ctx := context.Background()
	clients := &manager.ClientManager{Store: newStore(t)}

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	c := domain.NewClient("svc")
	c.ClientSecrets = []domain.Secret{{Value: "old", Expiration: &past}, {Value: "keep"}}
	_, err := clients.Create(ctx, c, actor)
	require.NoError(t, err)

	hk := manager.NewHousekeeping(clients, discardLogger(), 0)
	require.Equal(t, time.Hour, hk.Interval)
	hk.Now = func() time.Time { return now }

	require.EqualValues(t, 1, hk.RunOnce(ctx))
	require.EqualValues(t, 0, hk.RunOnce(ctx))

	got, err := clients.GetByClientID(ctx, "svc")
	require.NoError(t, err)
	require.Len(t, got.ClientSecrets, 1)
	require.Equal(t, cryptox.HashSecret("keep"), got.ClientSecrets[0].Value)
}
