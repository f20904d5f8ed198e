package sqlstore

import (
	"context"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
)

const resourceColumns = `id, name, display_name, description, enabled, required,
	emphasize, show_in_discovery_document, created_at, updated_at`

// resourcesRepo serves one resource kind out of the shared resources table.
type resourcesRepo struct {
	db   DBTX
	d    Dialect
	kind string
}

func newResourcesRepo(db DBTX, d Dialect, kind domain.Kind) *resourcesRepo {
	return &resourcesRepo{db: db, d: d, kind: string(kind)}
}

func (r *resourcesRepo) CountResources(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM resources WHERE kind = ?`, r.kind)
}

func (r *resourcesRepo) ListResources(ctx context.Context) ([]domain.Resource, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE kind = ? ORDER BY name`, r.kind)
	if err != nil {
		return nil, err
	}

	var out []domain.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := r.loadChildren(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *resourcesRepo) GetResourceByName(ctx context.Context, name string) (domain.Resource, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE kind = ? AND name = ?`, r.kind, name)
	res, err := scanResource(row)
	if err != nil {
		return domain.Resource{}, r.d.mapErr(err)
	}
	if err := r.loadChildren(ctx, &res); err != nil {
		return domain.Resource{}, err
	}
	return res, nil
}

func (r *resourcesRepo) CreateResource(ctx context.Context, res domain.Resource) error {
	ts := now()
	_, err := r.db.ExecContext(ctx, `INSERT INTO resources (kind, `+resourceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.kind, res.ID, res.Name, res.DisplayName, res.Description, res.Enabled, res.Required,
		res.Emphasize, res.ShowInDiscoveryDocument, ts, ts,
	)
	if err != nil {
		return r.d.mapErr(err)
	}
	if err := r.AddResourceClaims(ctx, res.ID, res.UserClaims); err != nil {
		return err
	}
	return r.AddResourceProperties(ctx, res.ID, res.Properties)
}

func (r *resourcesRepo) UpdateResource(ctx context.Context, res domain.Resource) error {
	result, err := r.db.ExecContext(ctx, `UPDATE resources SET
		display_name = ?, description = ?, enabled = ?, required = ?,
		emphasize = ?, show_in_discovery_document = ?, updated_at = ?
		WHERE id = ? AND kind = ?`,
		res.DisplayName, res.Description, res.Enabled, res.Required,
		res.Emphasize, res.ShowInDiscoveryDocument, now(),
		res.ID, r.kind,
	)
	return r.d.mapErr(requireAffected(result, err))
}

func (r *resourcesRepo) AddResourceClaims(ctx context.Context, resourceID string, claimTypes []string) error {
	for _, t := range claimTypes {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO resource_claims (resource_id, claim_type) VALUES (?, ?)`, resourceID, t)
		if err != nil {
			return r.d.mapErr(err)
		}
	}
	return nil
}

func (r *resourcesRepo) RemoveResourceClaims(ctx context.Context, resourceID string, claimTypes []string) error {
	for _, t := range claimTypes {
		_, err := r.db.ExecContext(ctx,
			`DELETE FROM resource_claims WHERE resource_id = ? AND claim_type = ?`, resourceID, t)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *resourcesRepo) AddResourceProperties(ctx context.Context, resourceID string, props []domain.Property) error {
	for _, p := range props {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO resource_properties (resource_id, property_key, property_value) VALUES (?, ?, ?)`,
			resourceID, p.Key, p.Value)
		if err != nil {
			return r.d.mapErr(err)
		}
	}
	return nil
}

func (r *resourcesRepo) RemoveResourceProperties(ctx context.Context, resourceID string, keys []string) error {
	for _, k := range keys {
		_, err := r.db.ExecContext(ctx,
			`DELETE FROM resource_properties WHERE resource_id = ? AND property_key = ?`, resourceID, k)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *resourcesRepo) DeleteResource(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = ? AND kind = ?`, id, r.kind)
	return err
}

func (r *resourcesRepo) loadChildren(ctx context.Context, res *domain.Resource) error {
	claims, err := scanStrings(ctx, r.db,
		`SELECT claim_type FROM resource_claims WHERE resource_id = ? ORDER BY claim_type`, res.ID)
	if err != nil {
		return err
	}
	res.UserClaims = claims

	rows, err := r.db.QueryContext(ctx, `SELECT property_key, property_value
		FROM resource_properties WHERE resource_id = ? ORDER BY property_key`, res.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	res.Properties = nil
	for rows.Next() {
		var p domain.Property
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			return err
		}
		res.Properties = append(res.Properties, p)
	}
	return rows.Err()
}

func scanResource(row scanner) (domain.Resource, error) {
	var res domain.Resource
	err := row.Scan(
		&res.ID, &res.Name, &res.DisplayName, &res.Description, &res.Enabled, &res.Required,
		&res.Emphasize, &res.ShowInDiscoveryDocument, &res.CreatedAt, &res.UpdatedAt,
	)
	return res, err
}
