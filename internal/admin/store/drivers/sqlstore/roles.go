package sqlstore

import (
	"context"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
)

const roleColumns = `id, name, description, concurrency_stamp, created_at, updated_at`

type rolesRepo struct {
	db DBTX
	d  Dialect
}

func (r *rolesRepo) CountRoles(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM roles`)
}

func (r *rolesRepo) ListRoles(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY normalized_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *rolesRepo) GetRoleByID(ctx context.Context, id string) (domain.Role, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = ?`, id))
	return role, r.d.mapErr(err)
}

func (r *rolesRepo) GetRoleByNormalizedName(ctx context.Context, normalized string) (domain.Role, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE normalized_name = ?`, normalized))
	return role, r.d.mapErr(err)
}

func (r *rolesRepo) CreateRole(ctx context.Context, role domain.Role) error {
	ts := now()
	_, err := r.db.ExecContext(ctx, `INSERT INTO roles
		(id, name, normalized_name, description, concurrency_stamp, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		role.ID, role.Name, domain.NormalizeName(role.Name), role.Description, role.ConcurrencyStamp, ts, ts)
	return r.d.mapErr(err)
}

func (r *rolesRepo) UpdateRole(ctx context.Context, role domain.Role) error {
	res, err := r.db.ExecContext(ctx, `UPDATE roles SET
		name = ?, normalized_name = ?, description = ?, concurrency_stamp = ?, updated_at = ?
		WHERE id = ?`,
		role.Name, domain.NormalizeName(role.Name), role.Description, role.ConcurrencyStamp, now(), role.ID)
	return r.d.mapErr(requireAffected(res, err))
}

func (r *rolesRepo) DeleteRole(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM roles WHERE id = ?`, id)
	return err
}

func scanRole(row scanner) (domain.Role, error) {
	var role domain.Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.ConcurrencyStamp, &role.CreatedAt, &role.UpdatedAt)
	return role, err
}
