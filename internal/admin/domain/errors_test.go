package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Kind
	}{
		{"apiscopes", domain.KindAPIScopes},
		{"ApiScopes", domain.KindAPIScopes},
		{"  CLIENTS ", domain.KindClients},
		{"IdentityResources", domain.KindIdentityResources},
		{"roleClaims", domain.KindRoleClaims},
		{"UserRoles", domain.KindUserRoles},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.ParseKind(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown kind names the kind", func(t *testing.T) {
		_, err := domain.ParseKind("tenants")

		var argErr *domain.ArgumentError
		require.ErrorAs(t, err, &argErr)
		require.Equal(t, "entityKindName", argErr.Param)
		require.Contains(t, err.Error(), "tenants")
	})
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("disk full")
	nf := &domain.NotFoundError{Kind: domain.KindRoles, Key: "Admin"}

	t.Run("manager error keeps cause", func(t *testing.T) {
		err := &domain.ManagerError{Kind: domain.KindClients, Op: "create", Err: cause}
		require.ErrorIs(t, err, cause)
		require.Contains(t, err.Error(), "clients create failed")
	})

	t.Run("seeding error exposes not found", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", &domain.SeedingError{Kind: domain.KindRoleClaims, Err: nf})
		require.ErrorIs(t, err, domain.ErrNotFound)

		var got *domain.NotFoundError
		require.ErrorAs(t, err, &got)
		require.Equal(t, "Admin", got.Key)
	})

	t.Run("require arg", func(t *testing.T) {
		require.NoError(t, domain.RequireArg("name", "x"))

		var argErr *domain.ArgumentError
		require.ErrorAs(t, domain.RequireArg("name", "  "), &argErr)
		require.Equal(t, "name", argErr.Param)
	})
}
