package seed

import (
	"context"

	"github.com/spf13/viper"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
	"github.com/aussiebroadwan/greenadmin/internal/admin/manager"
	"github.com/aussiebroadwan/greenadmin/internal/admin/metrics"
	"github.com/aussiebroadwan/greenadmin/internal/admin/store"
	"github.com/aussiebroadwan/greenadmin/pkg/slogx"
)

// Director seeds the store from a configuration tree, one entity kind per
// pass. Each item is created in its own transaction; a failing item stops the
// pass and leaves the items before it in place.
type Director struct {
	APIScopes         *manager.ResourceManager
	IdentityResources *manager.ResourceManager
	Clients           *manager.ClientManager
	Roles             *manager.RoleManager
	RoleClaims        *manager.RoleClaimManager
	Users             *manager.UserManager
	UserClaims        *manager.UserClaimManager
	UserRoles         *manager.UserRoleManager
}

// NewDirector builds a director whose managers all share s.
func NewDirector(s store.Store) *Director {
	return &Director{
		APIScopes:         manager.NewAPIScopeManager(s),
		IdentityResources: manager.NewIdentityResourceManager(s),
		Clients:           &manager.ClientManager{Store: s},
		Roles:             &manager.RoleManager{Store: s},
		RoleClaims:        &manager.RoleClaimManager{Store: s},
		Users:             &manager.UserManager{Store: s},
		UserClaims:        &manager.UserClaimManager{Store: s},
		UserRoles:         &manager.UserRoleManager{Store: s},
	}
}

// Result describes one seeding pass.
type Result struct {
	Kind    domain.Kind `json:"kind"`
	Skipped bool        `json:"skipped"`
	Before  int         `json:"before"`
	After   int         `json:"after"`
	Seeded  int         `json:"seeded"`
}

// batch is the bound work for one kind: how to count the kind and the
// creates to run, in input order.
type batch struct {
	count func(context.Context) (int, error)
	steps []step
}

type step struct {
	key    string
	create func(context.Context) error
}

// SeedFromConfiguration seeds the kind named kindName (matched
// case-insensitively) from its section of tree. The pass is skipped with a
// warning when the store already holds the kind and force is false.
func (d *Director) SeedFromConfiguration(ctx context.Context, kindName string, tree *viper.Viper, actor string, force bool) (Result, error) {
	kind, err := domain.ParseKind(kindName)
	if err != nil {
		return Result{}, err
	}
	if err := domain.RequireArg("actorName", actor); err != nil {
		return Result{}, err
	}

	l := slogx.FromContext(ctx).With("kind", kind)
	res := Result{Kind: kind}

	b, err := d.plan(kind, tree, actor)
	if err != nil {
		l.Error("seed configuration rejected", "error", err)
		return res, err
	}

	before, err := b.count(ctx)
	if err != nil {
		return res, d.fail(ctx, kind, "", err)
	}
	res.Before, res.After = before, before

	if !ShouldSeed(before == 0, force) {
		l.Warn("seeding skipped", "gate", "store_not_empty", "force", force, "existing", before)
		metrics.SeedSkipped.WithLabelValues(kind.String()).Inc()
		res.Skipped = true
		return res, nil
	}

	for _, s := range b.steps {
		if err := ctx.Err(); err != nil {
			return res, d.fail(ctx, kind, s.key, err)
		}
		if err := s.create(ctx); err != nil {
			return res, d.fail(ctx, kind, s.key, err)
		}
	}

	after, err := b.count(ctx)
	if err != nil {
		return res, d.fail(ctx, kind, "", err)
	}
	res.After = after
	res.Seeded = after - before

	if res.Seeded > 0 {
		metrics.SeededEntities.WithLabelValues(kind.String()).Add(float64(res.Seeded))
	}
	l.Info("seeding completed", "before", before, "after", after, "seeded", res.Seeded, "actor", actor)
	return res, nil
}

// SeedAll seeds every kind present in tree, in dependency order, and stops at
// the first failure. Absent sections are skipped.
func (d *Director) SeedAll(ctx context.Context, tree *viper.Viper, actor string, force bool) ([]Result, error) {
	l := slogx.FromContext(ctx)

	var results []Result
	for _, k := range domain.Kinds {
		if !Has(tree, k) {
			l.Debug("no seed section", "kind", k)
			continue
		}
		res, err := d.SeedFromConfiguration(ctx, k.String(), tree, actor, force)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (d *Director) fail(ctx context.Context, kind domain.Kind, key string, err error) error {
	slogx.FromContext(ctx).Error("seeding failed", "kind", kind, "item", key, "error", err)
	return &domain.SeedingError{Kind: kind, Err: err}
}

func (d *Director) plan(kind domain.Kind, tree *viper.Viper, actor string) (batch, error) {
	switch kind {
	case domain.KindAPIScopes:
		opts, err := BindAPIScopes(tree)
		return d.resources(d.APIScopes, opts.APIScopes, actor), err

	case domain.KindIdentityResources:
		opts, err := BindIdentityResources(tree)
		return d.resources(d.IdentityResources, opts.IdentityResources, actor), err

	case domain.KindClients:
		opts, err := BindClients(tree)
		return batch{
			count: d.Clients.Count,
			steps: steps(opts.Clients, func(r ClientRecord) string { return r.ClientID },
				func(ctx context.Context, r ClientRecord) error {
					_, err := d.Clients.Create(ctx, r.ToDomain(), actor)
					return err
				}),
		}, err

	case domain.KindRoles:
		opts, err := BindRoles(tree)
		return batch{
			count: d.Roles.Count,
			steps: steps(opts.Roles, func(r RoleRecord) string { return r.Name },
				func(ctx context.Context, r RoleRecord) error {
					_, err := d.Roles.Create(ctx, domain.Role{Name: r.Name, Description: r.Description}, actor)
					return err
				}),
		}, err

	case domain.KindRoleClaims:
		opts, err := BindRoleClaims(tree)
		return batch{
			count: d.RoleClaims.Count,
			steps: steps(opts.RoleClaims, func(a RoleClaimAssignment) string { return a.RoleName },
				func(ctx context.Context, a RoleClaimAssignment) error {
					role, err := d.role(ctx, a.RoleName)
					if err != nil {
						return err
					}
					for _, c := range Claims(a.Claims) {
						if _, err := d.RoleClaims.Create(ctx, domain.RoleClaim{RoleID: role.ID, Claim: c}, actor); err != nil {
							return err
						}
					}
					return nil
				}),
		}, err

	case domain.KindUsers:
		opts, err := BindUsers(tree)
		return batch{
			count: d.Users.Count,
			steps: steps(opts.Users, func(u UserRecord) string { return u.UserName },
				func(ctx context.Context, u UserRecord) error {
					_, err := d.Users.Create(ctx, u.ToDomain(), u.Password, actor)
					return err
				}),
		}, err

	case domain.KindUserClaims:
		opts, err := BindUserClaims(tree)
		return batch{
			count: d.UserClaims.Count,
			steps: steps(opts.UserClaims, func(a UserClaimAssignment) string { return a.Email },
				func(ctx context.Context, a UserClaimAssignment) error {
					user, err := d.user(ctx, a.Email)
					if err != nil {
						return err
					}
					for _, c := range Claims(a.Claims) {
						if _, err := d.UserClaims.Create(ctx, domain.UserClaim{UserID: user.ID, Claim: c}, actor); err != nil {
							return err
						}
					}
					return nil
				}),
		}, err

	case domain.KindUserRoles:
		opts, err := BindUserRoles(tree)
		return batch{
			count: d.UserRoles.Count,
			steps: steps(opts.UserRoles, func(a UserRoleAssignment) string { return a.Email },
				func(ctx context.Context, a UserRoleAssignment) error {
					user, err := d.user(ctx, a.Email)
					if err != nil {
						return err
					}
					for _, name := range a.Roles {
						role, err := d.role(ctx, name)
						if err != nil {
							return err
						}
						if err := d.UserRoles.Create(ctx, domain.UserRole{UserID: user.ID, RoleID: role.ID}, actor); err != nil {
							return err
						}
					}
					return nil
				}),
		}, err
	}

	return batch{}, &domain.ArgumentError{Param: "entityKindName", Reason: "unknown entity kind " + `"` + kind.String() + `"`}
}

func (d *Director) resources(m *manager.ResourceManager, records []ResourceRecord, actor string) batch {
	return batch{
		count: m.Count,
		steps: steps(records, func(r ResourceRecord) string { return r.Name },
			func(ctx context.Context, r ResourceRecord) error {
				_, err := m.Create(ctx, r.ToDomain(), actor)
				return err
			}),
	}
}

// role resolves an owning role by name; a miss is a *domain.NotFoundError.
func (d *Director) role(ctx context.Context, name string) (domain.Role, error) {
	role, ok, err := d.Roles.FindByName(ctx, name)
	if err != nil {
		return domain.Role{}, err
	}
	if !ok {
		return domain.Role{}, &domain.NotFoundError{Kind: domain.KindRoles, Key: name}
	}
	return role, nil
}

// user resolves an owning user by email; a miss is a *domain.NotFoundError.
func (d *Director) user(ctx context.Context, email string) (domain.User, error) {
	user, ok, err := d.Users.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, &domain.NotFoundError{Kind: domain.KindUsers, Key: email}
	}
	return user, nil
}

func steps[T any](items []T, key func(T) string, create func(context.Context, T) error) []step {
	out := make([]step, len(items))
	for i, item := range items {
		out[i] = step{
			key:    key(item),
			create: func(ctx context.Context) error { return create(ctx, item) },
		}
	}
	return out
}
