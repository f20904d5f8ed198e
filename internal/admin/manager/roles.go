package manager

import (
	"context"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
	"github.com/aussiebroadwan/greenadmin/internal/admin/reconcile"
	"github.com/aussiebroadwan/greenadmin/internal/admin/store"
	"github.com/aussiebroadwan/greenadmin/pkg/idx"
)

const kindRoles = domain.KindRoles

type RoleManager struct {
	Store store.Store
}

func (m *RoleManager) Any(ctx context.Context) (bool, error) {
	return call(ctx, kindRoles, opAny, func() (bool, error) {
		n, err := m.Store.Roles().CountRoles(ctx)
		return n > 0, err
	})
}

func (m *RoleManager) Count(ctx context.Context) (int, error) {
	return call(ctx, kindRoles, opCount, func() (int, error) {
		return m.Store.Roles().CountRoles(ctx)
	})
}

func (m *RoleManager) List(ctx context.Context) ([]domain.Role, error) {
	return call(ctx, kindRoles, opList, func() ([]domain.Role, error) {
		return m.Store.Roles().ListRoles(ctx)
	})
}

// FindByName matches name case-insensitively.
func (m *RoleManager) FindByName(ctx context.Context, name string) (domain.Role, bool, error) {
	if err := domain.RequireArg("roleName", name); err != nil {
		return domain.Role{}, false, err
	}

	var found bool
	r, err := call(ctx, kindRoles, opFind, func() (domain.Role, error) {
		r, ok, err := find(m.Store.Roles().GetRoleByNormalizedName(ctx, domain.NormalizeName(name)))
		found = ok
		return r, err
	})
	return r, found, err
}

func (m *RoleManager) GetByName(ctx context.Context, name string) (domain.Role, error) {
	if err := domain.RequireArg("roleName", name); err != nil {
		return domain.Role{}, err
	}
	return call(ctx, kindRoles, opFind, func() (domain.Role, error) {
		r, err := m.Store.Roles().GetRoleByNormalizedName(ctx, domain.NormalizeName(name))
		return r, notFound(err, kindRoles, name)
	})
}

func (m *RoleManager) Create(ctx context.Context, r domain.Role, actor string) (domain.Role, error) {
	if err := domain.RequireArg("roleName", r.Name); err != nil {
		return domain.Role{}, err
	}
	if err := requireActor(actor); err != nil {
		return domain.Role{}, err
	}

	r.ID = idx.NewString()
	r.ConcurrencyStamp = newStamp()

	created, err := call(ctx, kindRoles, opCreate, func() (out domain.Role, err error) {
		err = m.Store.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Roles().CreateRole(ctx, r); err != nil {
				return err
			}
			out, err = tx.Roles().GetRoleByID(ctx, r.ID)
			return err
		})
		return out, err
	})
	if err != nil {
		return domain.Role{}, err
	}

	audit(ctx, kindRoles, opCreate, r.Name, actor)
	return created, nil
}

// Update renames or redescribes the role with r.ID and rotates its stamp.
func (m *RoleManager) Update(ctx context.Context, r domain.Role, actor string) (domain.Role, error) {
	if err := domain.RequireArg("roleID", r.ID); err != nil {
		return domain.Role{}, err
	}
	if err := domain.RequireArg("roleName", r.Name); err != nil {
		return domain.Role{}, err
	}
	if err := requireActor(actor); err != nil {
		return domain.Role{}, err
	}

	r.ConcurrencyStamp = newStamp()
	updated, err := call(ctx, kindRoles, opUpdate, func() (out domain.Role, err error) {
		err = m.Store.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Roles().UpdateRole(ctx, r); err != nil {
				return notFound(err, kindRoles, r.ID)
			}
			out, err = tx.Roles().GetRoleByID(ctx, r.ID)
			return err
		})
		return out, err
	})
	if err != nil {
		return domain.Role{}, err
	}

	audit(ctx, kindRoles, opUpdate, r.Name, actor)
	return updated, nil
}

// Delete removes the role with its claims and memberships; a missing role is
// not an error.
func (m *RoleManager) Delete(ctx context.Context, name, actor string) error {
	if err := domain.RequireArg("roleName", name); err != nil {
		return err
	}
	if err := requireActor(actor); err != nil {
		return err
	}

	var deleted bool
	err := exec(ctx, kindRoles, opDelete, func() error {
		return m.Store.WithTx(ctx, func(tx store.Tx) error {
			r, ok, err := find(tx.Roles().GetRoleByNormalizedName(ctx, domain.NormalizeName(name)))
			if err != nil || !ok {
				return err
			}
			deleted = true
			return tx.Roles().DeleteRole(ctx, r.ID)
		})
	})
	if err == nil && deleted {
		audit(ctx, kindRoles, opDelete, name, actor)
	}
	return err
}

// Claims returns the claims held by the named role.
func (m *RoleManager) Claims(ctx context.Context, name string) ([]domain.Claim, error) {
	if err := domain.RequireArg("roleName", name); err != nil {
		return nil, err
	}
	return call(ctx, domain.KindRoleClaims, opList, func() ([]domain.Claim, error) {
		r, err := m.Store.Roles().GetRoleByNormalizedName(ctx, domain.NormalizeName(name))
		if err != nil {
			return nil, notFound(err, kindRoles, name)
		}
		rcs, err := m.Store.RoleClaims().ListRoleClaims(ctx, r.ID)
		return roleClaimValues(rcs), err
	})
}

// SetClaims reconciles the role's claims with desired, comparing type and
// value. Claims already held are kept as they are.
func (m *RoleManager) SetClaims(ctx context.Context, name string, desired []domain.Claim, actor string) ([]domain.Claim, error) {
	if err := domain.RequireArg("roleName", name); err != nil {
		return nil, err
	}
	if err := validateClaims(desired); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	out, err := call(ctx, domain.KindRoleClaims, opClaims, func() (out []domain.Claim, err error) {
		err = m.Store.WithTx(ctx, func(tx store.Tx) error {
			r, err := tx.Roles().GetRoleByNormalizedName(ctx, domain.NormalizeName(name))
			if err != nil {
				return notFound(err, kindRoles, name)
			}

			rcs, err := tx.RoleClaims().ListRoleClaims(ctx, r.ID)
			if err != nil {
				return err
			}

			toAdd, toRemove := reconcile.Diff(roleClaimValues(rcs), desired, reconcile.Claims)
			for _, c := range toRemove {
				if err := tx.RoleClaims().DeleteRoleClaim(ctx, r.ID, c); err != nil {
					return err
				}
			}
			for _, c := range toAdd {
				rc := domain.RoleClaim{ID: idx.NewString(), RoleID: r.ID, Claim: c}
				if err := tx.RoleClaims().CreateRoleClaim(ctx, rc); err != nil {
					return err
				}
			}

			rcs, err = tx.RoleClaims().ListRoleClaims(ctx, r.ID)
			out = roleClaimValues(rcs)
			return err
		})
		return out, err
	})
	if err != nil {
		return nil, err
	}

	audit(ctx, domain.KindRoleClaims, opClaims, name, actor)
	return out, nil
}

func roleClaimValues(rcs []domain.RoleClaim) []domain.Claim {
	out := make([]domain.Claim, len(rcs))
	for i, rc := range rcs {
		out[i] = rc.Claim
	}
	return out
}
