package sqlstore

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
)

const userColumns = `id, user_name, email, email_confirmed, password_hash, security_stamp,
	concurrency_stamp, phone_number, phone_number_confirmed, two_factor_enabled,
	lockout_enabled, lockout_end, access_failed_count, first_name, last_name,
	created_at, updated_at`

type usersRepo struct {
	db DBTX
	d  Dialect
}

func (r *usersRepo) CountUsers(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM users`)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY normalized_user_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	return u, r.d.mapErr(err)
}

func (r *usersRepo) GetUserByNormalizedUserName(ctx context.Context, normalized string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE normalized_user_name = ?`, normalized))
	return u, r.d.mapErr(err)
}

func (r *usersRepo) GetUserByNormalizedEmail(ctx context.Context, normalized string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE normalized_email = ? ORDER BY created_at, id LIMIT 1`, normalized))
	return u, r.d.mapErr(err)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	ts := now()
	_, err := r.db.ExecContext(ctx, `INSERT INTO users
		(id, user_name, normalized_user_name, email, normalized_email, email_confirmed,
		 password_hash, security_stamp, concurrency_stamp, phone_number, phone_number_confirmed,
		 two_factor_enabled, lockout_enabled, lockout_end, access_failed_count,
		 first_name, last_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.UserName, domain.NormalizeName(u.UserName), u.Email, domain.NormalizeName(u.Email), u.EmailConfirmed,
		u.PasswordHash, u.SecurityStamp, u.ConcurrencyStamp, u.PhoneNumber, u.PhoneNumberConfirmed,
		u.TwoFactorEnabled, u.LockoutEnabled, mapOptionalTime(u.LockoutEnd), u.AccessFailedCount,
		u.FirstName, u.LastName, ts, ts,
	)
	return r.d.mapErr(err)
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET
		user_name = ?, normalized_user_name = ?, email = ?, normalized_email = ?, email_confirmed = ?,
		password_hash = ?, security_stamp = ?, concurrency_stamp = ?, phone_number = ?,
		phone_number_confirmed = ?, two_factor_enabled = ?, lockout_enabled = ?, lockout_end = ?,
		access_failed_count = ?, first_name = ?, last_name = ?, updated_at = ?
		WHERE id = ?`,
		u.UserName, domain.NormalizeName(u.UserName), u.Email, domain.NormalizeName(u.Email), u.EmailConfirmed,
		u.PasswordHash, u.SecurityStamp, u.ConcurrencyStamp, u.PhoneNumber,
		u.PhoneNumberConfirmed, u.TwoFactorEnabled, u.LockoutEnabled, mapOptionalTime(u.LockoutEnd),
		u.AccessFailedCount, u.FirstName, u.LastName, now(),
		u.ID,
	)
	return r.d.mapErr(requireAffected(res, err))
}

func (r *usersRepo) DeleteUser(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

func scanUser(row scanner) (domain.User, error) {
	var (
		u          domain.User
		lockoutEnd sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.UserName, &u.Email, &u.EmailConfirmed, &u.PasswordHash, &u.SecurityStamp,
		&u.ConcurrencyStamp, &u.PhoneNumber, &u.PhoneNumberConfirmed, &u.TwoFactorEnabled,
		&u.LockoutEnabled, &lockoutEnd, &u.AccessFailedCount, &u.FirstName, &u.LastName,
		&u.CreatedAt, &u.UpdatedAt,
	)
	u.LockoutEnd = mapNullTimePtr(lockoutEnd)
	return u, err
}
