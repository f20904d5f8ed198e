package manager

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
	"github.com/aussiebroadwan/greenadmin/internal/admin/reconcile"
	"github.com/aussiebroadwan/greenadmin/internal/admin/store"
	"github.com/aussiebroadwan/greenadmin/pkg/cryptox"
	"github.com/aussiebroadwan/greenadmin/pkg/idx"
)

const kindUsers = domain.KindUsers

type UserManager struct {
	Store store.Store
}

func (m *UserManager) Any(ctx context.Context) (bool, error) {
	return call(ctx, kindUsers, opAny, func() (bool, error) {
		n, err := m.Store.Users().CountUsers(ctx)
		return n > 0, err
	})
}

func (m *UserManager) Count(ctx context.Context) (int, error) {
	return call(ctx, kindUsers, opCount, func() (int, error) {
		return m.Store.Users().CountUsers(ctx)
	})
}

func (m *UserManager) List(ctx context.Context) ([]domain.User, error) {
	return call(ctx, kindUsers, opList, func() ([]domain.User, error) {
		return m.Store.Users().ListUsers(ctx)
	})
}

func (m *UserManager) FindByID(ctx context.Context, id string) (domain.User, bool, error) {
	if err := domain.RequireArg("userID", id); err != nil {
		return domain.User{}, false, err
	}
	return m.find(ctx, func(u store.Users) (domain.User, error) { return u.GetUserByID(ctx, id) })
}

// FindByEmail matches email case-insensitively.
func (m *UserManager) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	if err := domain.RequireArg("email", email); err != nil {
		return domain.User{}, false, err
	}
	return m.find(ctx, func(u store.Users) (domain.User, error) {
		return u.GetUserByNormalizedEmail(ctx, domain.NormalizeName(email))
	})
}

// FindByUserName matches userName case-insensitively.
func (m *UserManager) FindByUserName(ctx context.Context, userName string) (domain.User, bool, error) {
	if err := domain.RequireArg("userName", userName); err != nil {
		return domain.User{}, false, err
	}
	return m.find(ctx, func(u store.Users) (domain.User, error) {
		return u.GetUserByNormalizedUserName(ctx, domain.NormalizeName(userName))
	})
}

func (m *UserManager) find(ctx context.Context, get func(store.Users) (domain.User, error)) (domain.User, bool, error) {
	var found bool
	u, err := call(ctx, kindUsers, opFind, func() (domain.User, error) {
		u, ok, err := find(get(m.Store.Users()))
		found = ok
		return u, err
	})
	return u, found, err
}

// Create stores u with fresh stamps. A non-empty password is hashed with
// argon2id; an empty one leaves the user unable to sign in with a password.
func (m *UserManager) Create(ctx context.Context, u domain.User, password, actor string) (domain.User, error) {
	if err := domain.RequireArg("userName", u.UserName); err != nil {
		return domain.User{}, err
	}
	if err := requireActor(actor); err != nil {
		return domain.User{}, err
	}

	u.ID = idx.NewString()
	u.SecurityStamp = newStamp()
	u.ConcurrencyStamp = newStamp()
	u.PasswordHash = ""

	created, err := call(ctx, kindUsers, opCreate, func() (out domain.User, err error) {
		if password != "" {
			if u.PasswordHash, err = cryptox.HashPassword(password); err != nil {
				return out, err
			}
		}
		err = m.Store.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.Users().CreateUser(ctx, u); err != nil {
				return err
			}
			out, err = tx.Users().GetUserByID(ctx, u.ID)
			return err
		})
		return out, err
	})
	if err != nil {
		return domain.User{}, err
	}

	audit(ctx, kindUsers, opCreate, u.UserName, actor)
	return created, nil
}

// Update overwrites the profile fields of the user with u.ID. The password
// hash and security stamp are kept; the concurrency stamp rotates.
func (m *UserManager) Update(ctx context.Context, u domain.User, actor string) (domain.User, error) {
	if err := domain.RequireArg("userID", u.ID); err != nil {
		return domain.User{}, err
	}
	if err := domain.RequireArg("userName", u.UserName); err != nil {
		return domain.User{}, err
	}
	if err := requireActor(actor); err != nil {
		return domain.User{}, err
	}

	updated, err := call(ctx, kindUsers, opUpdate, func() (out domain.User, err error) {
		err = m.Store.WithTx(ctx, func(tx store.Tx) error {
			existing, err := tx.Users().GetUserByID(ctx, u.ID)
			if err != nil {
				return notFound(err, kindUsers, u.ID)
			}
			u.PasswordHash = existing.PasswordHash
			u.SecurityStamp = existing.SecurityStamp
			u.ConcurrencyStamp = newStamp()

			if err := tx.Users().UpdateUser(ctx, u); err != nil {
				return err
			}
			out, err = tx.Users().GetUserByID(ctx, u.ID)
			return err
		})
		return out, err
	})
	if err != nil {
		return domain.User{}, err
	}

	audit(ctx, kindUsers, opUpdate, u.UserName, actor)
	return updated, nil
}

// SetPassword replaces the password hash and rotates both stamps.
func (m *UserManager) SetPassword(ctx context.Context, id, password, actor string) error {
	if err := domain.RequireArg("userID", id); err != nil {
		return err
	}
	if err := domain.RequireArg("password", password); err != nil {
		return err
	}
	if err := requireActor(actor); err != nil {
		return err
	}

	err := exec(ctx, kindUsers, opUpdate, func() error {
		hash, err := cryptox.HashPassword(password)
		if err != nil {
			return err
		}
		return m.Store.WithTx(ctx, func(tx store.Tx) error {
			u, err := tx.Users().GetUserByID(ctx, id)
			if err != nil {
				return notFound(err, kindUsers, id)
			}
			u.PasswordHash = hash
			u.SecurityStamp = newStamp()
			u.ConcurrencyStamp = newStamp()
			return tx.Users().UpdateUser(ctx, u)
		})
	})
	if err == nil {
		audit(ctx, kindUsers, "set_password", id, actor)
	}
	return err
}

// Delete removes the user with its claims and memberships; a missing user is
// not an error.
func (m *UserManager) Delete(ctx context.Context, id, actor string) error {
	if err := domain.RequireArg("userID", id); err != nil {
		return err
	}
	if err := requireActor(actor); err != nil {
		return err
	}

	var deleted bool
	err := exec(ctx, kindUsers, opDelete, func() error {
		return m.Store.WithTx(ctx, func(tx store.Tx) error {
			_, ok, err := find(tx.Users().GetUserByID(ctx, id))
			if err != nil || !ok {
				return err
			}
			deleted = true
			return tx.Users().DeleteUser(ctx, id)
		})
	})
	if err == nil && deleted {
		audit(ctx, kindUsers, opDelete, id, actor)
	}
	return err
}

func (m *UserManager) Claims(ctx context.Context, id string) ([]domain.Claim, error) {
	if err := domain.RequireArg("userID", id); err != nil {
		return nil, err
	}
	return call(ctx, domain.KindUserClaims, opList, func() ([]domain.Claim, error) {
		if _, err := m.Store.Users().GetUserByID(ctx, id); err != nil {
			return nil, notFound(err, kindUsers, id)
		}
		ucs, err := m.Store.UserClaims().ListUserClaims(ctx, id)
		return userClaimValues(ucs), err
	})
}

// SetClaims reconciles the user's claims with desired, comparing type and value.
func (m *UserManager) SetClaims(ctx context.Context, id string, desired []domain.Claim, actor string) ([]domain.Claim, error) {
	if err := domain.RequireArg("userID", id); err != nil {
		return nil, err
	}
	if err := validateClaims(desired); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	out, err := call(ctx, domain.KindUserClaims, opClaims, func() (out []domain.Claim, err error) {
		err = m.Store.WithTx(ctx, func(tx store.Tx) error {
			if _, err := tx.Users().GetUserByID(ctx, id); err != nil {
				return notFound(err, kindUsers, id)
			}

			ucs, err := tx.UserClaims().ListUserClaims(ctx, id)
			if err != nil {
				return err
			}

			toAdd, toRemove := reconcile.Diff(userClaimValues(ucs), desired, reconcile.Claims)
			for _, c := range toRemove {
				if err := tx.UserClaims().DeleteUserClaim(ctx, id, c); err != nil {
					return err
				}
			}
			for _, c := range toAdd {
				uc := domain.UserClaim{ID: idx.NewString(), UserID: id, Claim: c}
				if err := tx.UserClaims().CreateUserClaim(ctx, uc); err != nil {
					return err
				}
			}

			ucs, err = tx.UserClaims().ListUserClaims(ctx, id)
			out = userClaimValues(ucs)
			return err
		})
		return out, err
	})
	if err != nil {
		return nil, err
	}

	audit(ctx, domain.KindUserClaims, opClaims, id, actor)
	return out, nil
}

// Roles returns the roles the user belongs to.
func (m *UserManager) Roles(ctx context.Context, id string) ([]domain.Role, error) {
	if err := domain.RequireArg("userID", id); err != nil {
		return nil, err
	}
	return call(ctx, domain.KindUserRoles, opList, func() ([]domain.Role, error) {
		return userRoles(ctx, m.Store, id)
	})
}

// SetRoles reconciles the user's memberships with the named roles. Every name
// must resolve and names are compared normalized; memberships already held
// are kept.
func (m *UserManager) SetRoles(ctx context.Context, id string, roleNames []string, actor string) ([]domain.Role, error) {
	if err := domain.RequireArg("userID", id); err != nil {
		return nil, err
	}
	sameRole := reconcile.ByKey(domain.NormalizeName)
	if dups := reconcile.Duplicates(roleNames, sameRole); len(dups) > 0 {
		return nil, &domain.ArgumentError{Param: "roleNames", Reason: fmt.Sprintf("duplicate role %q", dups[0])}
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	out, err := call(ctx, domain.KindUserRoles, opRoles, func() (out []domain.Role, err error) {
		err = m.Store.WithTx(ctx, func(tx store.Tx) error {
			if _, err := tx.Users().GetUserByID(ctx, id); err != nil {
				return notFound(err, kindUsers, id)
			}

			desired := make([]string, 0, len(roleNames))
			for _, name := range roleNames {
				r, err := tx.Roles().GetRoleByNormalizedName(ctx, domain.NormalizeName(name))
				if err != nil {
					return notFound(err, kindRoles, name)
				}
				desired = append(desired, r.ID)
			}

			current, err := tx.UserRoles().ListUserRoles(ctx, id)
			if err != nil {
				return err
			}
			currentIDs := make([]string, len(current))
			for i, ur := range current {
				currentIDs[i] = ur.RoleID
			}

			toAdd, toRemove := reconcile.Diff(currentIDs, desired, reconcile.Strings)
			for _, roleID := range toRemove {
				if err := tx.UserRoles().DeleteUserRole(ctx, id, roleID); err != nil {
					return err
				}
			}
			for _, roleID := range toAdd {
				if err := tx.UserRoles().CreateUserRole(ctx, domain.UserRole{UserID: id, RoleID: roleID}); err != nil {
					return err
				}
			}

			out, err = userRoles(ctx, tx, id)
			return err
		})
		return out, err
	})
	if err != nil {
		return nil, err
	}

	audit(ctx, domain.KindUserRoles, opRoles, id, actor)
	return out, nil
}

func userRoles(ctx context.Context, s store.Store, userID string) ([]domain.Role, error) {
	if _, err := s.Users().GetUserByID(ctx, userID); err != nil {
		return nil, notFound(err, kindUsers, userID)
	}
	memberships, err := s.UserRoles().ListUserRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles := make([]domain.Role, 0, len(memberships))
	for _, ur := range memberships {
		r, err := s.Roles().GetRoleByID(ctx, ur.RoleID)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}

func userClaimValues(ucs []domain.UserClaim) []domain.Claim {
	out := make([]domain.Claim, len(ucs))
	for i, uc := range ucs {
		out[i] = uc.Claim
	}
	return out
}
