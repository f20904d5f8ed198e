package manager

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
	"github.com/aussiebroadwan/greenadmin/internal/admin/reconcile"
	"github.com/aussiebroadwan/greenadmin/internal/admin/store"
	"github.com/aussiebroadwan/greenadmin/pkg/idx"
	"github.com/aussiebroadwan/greenadmin/pkg/slogx"
)

// ResourceManager manages API scopes or identity resources, depending on the
// constructor used. Both kinds reconcile their sub-collections on update.
type ResourceManager struct {
	Store store.Store

	kind domain.Kind
	repo func(store.Store) store.Resources
}

func NewAPIScopeManager(s store.Store) *ResourceManager {
	return &ResourceManager{Store: s, kind: domain.KindAPIScopes, repo: store.Store.APIScopes}
}

func NewIdentityResourceManager(s store.Store) *ResourceManager {
	return &ResourceManager{Store: s, kind: domain.KindIdentityResources, repo: store.Store.IdentityResources}
}

func (m *ResourceManager) Kind() domain.Kind { return m.kind }

func (m *ResourceManager) Any(ctx context.Context) (bool, error) {
	return call(ctx, m.kind, opAny, func() (bool, error) {
		n, err := m.repo(m.Store).CountResources(ctx)
		return n > 0, err
	})
}

func (m *ResourceManager) Count(ctx context.Context) (int, error) {
	return call(ctx, m.kind, opCount, func() (int, error) {
		return m.repo(m.Store).CountResources(ctx)
	})
}

func (m *ResourceManager) List(ctx context.Context) ([]domain.Resource, error) {
	return call(ctx, m.kind, opList, func() ([]domain.Resource, error) {
		return m.repo(m.Store).ListResources(ctx)
	})
}

func (m *ResourceManager) FindByName(ctx context.Context, name string) (domain.Resource, bool, error) {
	if err := domain.RequireArg("name", name); err != nil {
		return domain.Resource{}, false, err
	}

	var found bool
	r, err := call(ctx, m.kind, opFind, func() (domain.Resource, error) {
		r, ok, err := find(m.repo(m.Store).GetResourceByName(ctx, name))
		found = ok
		return r, err
	})
	return r, found, err
}

func (m *ResourceManager) GetByName(ctx context.Context, name string) (domain.Resource, error) {
	if err := domain.RequireArg("name", name); err != nil {
		return domain.Resource{}, err
	}
	return call(ctx, m.kind, opFind, func() (domain.Resource, error) {
		r, err := m.repo(m.Store).GetResourceByName(ctx, name)
		return r, notFound(err, m.kind, name)
	})
}

func (m *ResourceManager) Create(ctx context.Context, r domain.Resource, actor string) (domain.Resource, error) {
	if err := validateResource(r); err != nil {
		return domain.Resource{}, err
	}
	if err := requireActor(actor); err != nil {
		return domain.Resource{}, err
	}

	r.ID = idx.NewString()
	created, err := call(ctx, m.kind, opCreate, func() (out domain.Resource, err error) {
		err = m.Store.WithTx(ctx, func(tx store.Tx) error {
			if err := m.repo(tx).CreateResource(ctx, r); err != nil {
				return err
			}
			out, err = m.repo(tx).GetResourceByName(ctx, r.Name)
			return err
		})
		return out, err
	})
	if err != nil {
		return domain.Resource{}, err
	}

	audit(ctx, m.kind, opCreate, r.Name, actor)
	return created, nil
}

// Update locates the resource by r.Name, overwrites its scalar fields and
// reconciles its user claims (by type) and properties (by key and value).
// Entries present on both sides are left untouched; a property whose value
// changed is removed by key and added again.
func (m *ResourceManager) Update(ctx context.Context, r domain.Resource, actor string) (domain.Resource, error) {
	if err := validateResource(r); err != nil {
		return domain.Resource{}, err
	}
	if err := requireActor(actor); err != nil {
		return domain.Resource{}, err
	}

	l := slogx.FromContext(ctx)
	updated, err := call(ctx, m.kind, opUpdate, func() (out domain.Resource, err error) {
		err = m.Store.WithTx(ctx, func(tx store.Tx) error {
			repo := m.repo(tx)

			existing, err := repo.GetResourceByName(ctx, r.Name)
			if err != nil {
				return notFound(err, m.kind, r.Name)
			}
			r.ID = existing.ID

			if err := repo.UpdateResource(ctx, r); err != nil {
				return err
			}

			addClaims, removeClaims := reconcile.Diff(existing.UserClaims, r.UserClaims, reconcile.Strings)
			if err := repo.RemoveResourceClaims(ctx, r.ID, removeClaims); err != nil {
				return err
			}
			if err := repo.AddResourceClaims(ctx, r.ID, addClaims); err != nil {
				return err
			}

			// A changed value shows up on both sides: the old pair is removed
			// by key before the new pair is added.
			addProps, removeProps := reconcile.Diff(existing.Properties, r.Properties, reconcile.Properties)
			if err := repo.RemoveResourceProperties(ctx, r.ID, propertyKeys(removeProps)); err != nil {
				return err
			}
			if err := repo.AddResourceProperties(ctx, r.ID, addProps); err != nil {
				return err
			}

			l.Debug("resource reconciled", "kind", m.kind, "name", r.Name,
				"claims_added", len(addClaims), "claims_removed", len(removeClaims),
				"properties_added", len(addProps), "properties_removed", len(removeProps))

			out, err = repo.GetResourceByName(ctx, r.Name)
			return err
		})
		return out, err
	})
	if err != nil {
		return domain.Resource{}, err
	}

	audit(ctx, m.kind, opUpdate, r.Name, actor)
	return updated, nil
}

// Delete removes the resource; a missing resource is not an error.
func (m *ResourceManager) Delete(ctx context.Context, name, actor string) error {
	if err := domain.RequireArg("name", name); err != nil {
		return err
	}
	if err := requireActor(actor); err != nil {
		return err
	}

	var deleted bool
	err := exec(ctx, m.kind, opDelete, func() error {
		return m.Store.WithTx(ctx, func(tx store.Tx) error {
			r, ok, err := find(m.repo(tx).GetResourceByName(ctx, name))
			if err != nil || !ok {
				return err
			}
			deleted = true
			return m.repo(tx).DeleteResource(ctx, r.ID)
		})
	})
	if err == nil && deleted {
		audit(ctx, m.kind, opDelete, name, actor)
	}
	return err
}

func validateResource(r domain.Resource) error {
	if err := domain.RequireArg("name", r.Name); err != nil {
		return err
	}
	if dups := reconcile.Duplicates(r.UserClaims, reconcile.Strings); len(dups) > 0 {
		return &domain.ArgumentError{Param: "userClaims", Reason: fmt.Sprintf("duplicate claim type %q", dups[0])}
	}
	if dups := reconcile.Duplicates(r.Properties, reconcile.PropertyKeys); len(dups) > 0 {
		return &domain.ArgumentError{Param: "properties", Reason: fmt.Sprintf("duplicate key %q", dups[0].Key)}
	}
	return nil
}

func propertyKeys(props []domain.Property) []string {
	keys := make([]string, len(props))
	for i, p := range props {
		keys[i] = p.Key
	}
	return keys
}
