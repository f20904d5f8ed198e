package manager

import (
	"context"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
	"github.com/aussiebroadwan/greenadmin/internal/admin/store"
	"github.com/aussiebroadwan/greenadmin/pkg/idx"
)

// RoleClaimManager adds single claims to roles. Callers resolve the owning
// role first; an unknown RoleID fails on the foreign key.
type RoleClaimManager struct {
	Store store.Store
}

func (m *RoleClaimManager) Any(ctx context.Context) (bool, error) {
	n, err := m.Count(ctx)
	return n > 0, err
}

func (m *RoleClaimManager) Count(ctx context.Context) (int, error) {
	return call(ctx, domain.KindRoleClaims, opCount, func() (int, error) {
		return m.Store.RoleClaims().CountRoleClaims(ctx)
	})
}

func (m *RoleClaimManager) List(ctx context.Context, roleID string) ([]domain.RoleClaim, error) {
	if err := domain.RequireArg("roleID", roleID); err != nil {
		return nil, err
	}
	return call(ctx, domain.KindRoleClaims, opList, func() ([]domain.RoleClaim, error) {
		return m.Store.RoleClaims().ListRoleClaims(ctx, roleID)
	})
}

func (m *RoleClaimManager) Create(ctx context.Context, rc domain.RoleClaim, actor string) (domain.RoleClaim, error) {
	if err := domain.RequireArg("roleID", rc.RoleID); err != nil {
		return domain.RoleClaim{}, err
	}
	if err := domain.RequireArg("claimType", rc.Type); err != nil {
		return domain.RoleClaim{}, err
	}
	if err := requireActor(actor); err != nil {
		return domain.RoleClaim{}, err
	}

	rc.ID = idx.NewString()
	err := exec(ctx, domain.KindRoleClaims, opCreate, func() error {
		return m.Store.WithTx(ctx, func(tx store.Tx) error {
			return tx.RoleClaims().CreateRoleClaim(ctx, rc)
		})
	})
	if err != nil {
		return domain.RoleClaim{}, err
	}

	audit(ctx, domain.KindRoleClaims, opCreate, rc.RoleID+":"+rc.Type, actor)
	return rc, nil
}

// UserClaimManager adds single claims to users.
type UserClaimManager struct {
	Store store.Store
}

func (m *UserClaimManager) Any(ctx context.Context) (bool, error) {
	n, err := m.Count(ctx)
	return n > 0, err
}

func (m *UserClaimManager) Count(ctx context.Context) (int, error) {
	return call(ctx, domain.KindUserClaims, opCount, func() (int, error) {
		return m.Store.UserClaims().CountUserClaims(ctx)
	})
}

func (m *UserClaimManager) List(ctx context.Context, userID string) ([]domain.UserClaim, error) {
	if err := domain.RequireArg("userID", userID); err != nil {
		return nil, err
	}
	return call(ctx, domain.KindUserClaims, opList, func() ([]domain.UserClaim, error) {
		return m.Store.UserClaims().ListUserClaims(ctx, userID)
	})
}

func (m *UserClaimManager) Create(ctx context.Context, uc domain.UserClaim, actor string) (domain.UserClaim, error) {
	if err := domain.RequireArg("userID", uc.UserID); err != nil {
		return domain.UserClaim{}, err
	}
	if err := domain.RequireArg("claimType", uc.Type); err != nil {
		return domain.UserClaim{}, err
	}
	if err := requireActor(actor); err != nil {
		return domain.UserClaim{}, err
	}

	uc.ID = idx.NewString()
	err := exec(ctx, domain.KindUserClaims, opCreate, func() error {
		return m.Store.WithTx(ctx, func(tx store.Tx) error {
			return tx.UserClaims().CreateUserClaim(ctx, uc)
		})
	})
	if err != nil {
		return domain.UserClaim{}, err
	}

	audit(ctx, domain.KindUserClaims, opCreate, uc.UserID+":"+uc.Type, actor)
	return uc, nil
}

// UserRoleManager adds single role memberships.
type UserRoleManager struct {
	Store store.Store
}

func (m *UserRoleManager) Any(ctx context.Context) (bool, error) {
	n, err := m.Count(ctx)
	return n > 0, err
}

func (m *UserRoleManager) Count(ctx context.Context) (int, error) {
	return call(ctx, domain.KindUserRoles, opCount, func() (int, error) {
		return m.Store.UserRoles().CountUserRoles(ctx)
	})
}

func (m *UserRoleManager) List(ctx context.Context, userID string) ([]domain.UserRole, error) {
	if err := domain.RequireArg("userID", userID); err != nil {
		return nil, err
	}
	return call(ctx, domain.KindUserRoles, opList, func() ([]domain.UserRole, error) {
		return m.Store.UserRoles().ListUserRoles(ctx, userID)
	})
}

func (m *UserRoleManager) Create(ctx context.Context, ur domain.UserRole, actor string) error {
	if err := domain.RequireArg("userID", ur.UserID); err != nil {
		return err
	}
	if err := domain.RequireArg("roleID", ur.RoleID); err != nil {
		return err
	}
	if err := requireActor(actor); err != nil {
		return err
	}

	err := exec(ctx, domain.KindUserRoles, opCreate, func() error {
		return m.Store.WithTx(ctx, func(tx store.Tx) error {
			return tx.UserRoles().CreateUserRole(ctx, ur)
		})
	})
	if err == nil {
		audit(ctx, domain.KindUserRoles, opCreate, ur.UserID+":"+ur.RoleID, actor)
	}
	return err
}
