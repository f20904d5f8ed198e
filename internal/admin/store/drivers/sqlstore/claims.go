package sqlstore

import (
	"context"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
)

type roleClaimsRepo struct {
	db DBTX
	d  Dialect
}

func (r *roleClaimsRepo) CountRoleClaims(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM role_claims`)
}

func (r *roleClaimsRepo) ListRoleClaims(ctx context.Context, roleID string) ([]domain.RoleClaim, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, role_id, claim_type, claim_value
		FROM role_claims WHERE role_id = ? ORDER BY id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RoleClaim
	for rows.Next() {
		var rc domain.RoleClaim
		if err := rows.Scan(&rc.ID, &rc.RoleID, &rc.Type, &rc.Value); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func (r *roleClaimsRepo) CreateRoleClaim(ctx context.Context, rc domain.RoleClaim) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO role_claims (id, role_id, claim_type, claim_value, created_at)
		VALUES (?, ?, ?, ?, ?)`, rc.ID, rc.RoleID, rc.Type, rc.Value, now())
	return r.d.mapErr(err)
}

func (r *roleClaimsRepo) DeleteRoleClaim(ctx context.Context, roleID string, c domain.Claim) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM role_claims WHERE role_id = ? AND claim_type = ? AND claim_value = ?`,
		roleID, c.Type, c.Value)
	return err
}

type userClaimsRepo struct {
	db DBTX
	d  Dialect
}

func (r *userClaimsRepo) CountUserClaims(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM user_claims`)
}

func (r *userClaimsRepo) ListUserClaims(ctx context.Context, userID string) ([]domain.UserClaim, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, claim_type, claim_value
		FROM user_claims WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UserClaim
	for rows.Next() {
		var uc domain.UserClaim
		if err := rows.Scan(&uc.ID, &uc.UserID, &uc.Type, &uc.Value); err != nil {
			return nil, err
		}
		out = append(out, uc)
	}
	return out, rows.Err()
}

func (r *userClaimsRepo) CreateUserClaim(ctx context.Context, uc domain.UserClaim) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO user_claims (id, user_id, claim_type, claim_value, created_at)
		VALUES (?, ?, ?, ?, ?)`, uc.ID, uc.UserID, uc.Type, uc.Value, now())
	return r.d.mapErr(err)
}

func (r *userClaimsRepo) DeleteUserClaim(ctx context.Context, userID string, c domain.Claim) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_claims WHERE user_id = ? AND claim_type = ? AND claim_value = ?`,
		userID, c.Type, c.Value)
	return err
}

type userRolesRepo struct {
	db DBTX
	d  Dialect
}

func (r *userRolesRepo) CountUserRoles(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM user_roles`)
}

func (r *userRolesRepo) ListUserRoles(ctx context.Context, userID string) ([]domain.UserRole, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, role_id FROM user_roles WHERE user_id = ? ORDER BY role_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.UserRole
	for rows.Next() {
		var ur domain.UserRole
		if err := rows.Scan(&ur.UserID, &ur.RoleID); err != nil {
			return nil, err
		}
		out = append(out, ur)
	}
	return out, rows.Err()
}

func (r *userRolesRepo) CreateUserRole(ctx context.Context, ur domain.UserRole) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO user_roles (user_id, role_id, created_at) VALUES (?, ?, ?)`,
		ur.UserID, ur.RoleID, now())
	return r.d.mapErr(err)
}

func (r *userRolesRepo) DeleteUserRole(ctx context.Context, userID, roleID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ? AND role_id = ?`, userID, roleID)
	return err
}
