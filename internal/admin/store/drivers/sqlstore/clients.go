package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aussiebroadwan/greenadmin/internal/admin/domain"
)

const clientColumns = `id, client_id, client_name, description, enabled,
	require_client_secret, require_pkce, allow_plain_text_pkce, require_consent,
	allow_remember_consent, allow_offline_access, allow_access_tokens_via_browser,
	always_include_user_claims_in_id_token, always_send_client_claims, client_claims_prefix,
	access_token_lifetime, identity_token_lifetime, authorization_code_lifetime,
	absolute_refresh_token_lifetime, sliding_refresh_token_lifetime,
	front_channel_logout_uri, back_channel_logout_uri, created_at, updated_at`

// stringChild is a child table holding an ordered list of strings of a client.
type stringChild struct {
	table  string
	column string
	field  func(c *domain.Client) *[]string
}

var clientStringChildren = []stringChild{
	{"client_grant_types", "grant_type", func(c *domain.Client) *[]string { return &c.AllowedGrantTypes }},
	{"client_scopes", "scope", func(c *domain.Client) *[]string { return &c.AllowedScopes }},
	{"client_redirect_uris", "redirect_uri", func(c *domain.Client) *[]string { return &c.RedirectURIs }},
	{"client_post_logout_redirect_uris", "post_logout_redirect_uri", func(c *domain.Client) *[]string { return &c.PostLogoutRedirectURIs }},
	{"client_cors_origins", "origin", func(c *domain.Client) *[]string { return &c.AllowedCORSOrigins }},
}

// Tables keyed by client_row_id, cleared wholesale on replace.
var clientChildTables = []string{
	"client_grant_types",
	"client_scopes",
	"client_redirect_uris",
	"client_post_logout_redirect_uris",
	"client_cors_origins",
	"client_secrets",
	"client_claims",
}

type clientsRepo struct {
	db DBTX
	d  Dialect
}

func newClientsRepo(db DBTX, d Dialect) *clientsRepo {
	return &clientsRepo{db: db, d: d}
}

func (r *clientsRepo) CountClients(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM clients`)
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY client_id`)
	if err != nil {
		return nil, err
	}

	var clients []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		clients = append(clients, c)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Children are loaded after the cursor is closed; sqlite in-memory pools
	// hold a single connection.
	for i := range clients {
		if err := r.loadChildren(ctx, &clients[i]); err != nil {
			return nil, err
		}
	}
	return clients, nil
}

func (r *clientsRepo) GetClientByClientID(ctx context.Context, clientID string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE client_id = ?`, clientID)
	c, err := scanClient(row)
	if err != nil {
		return domain.Client{}, r.d.mapErr(err)
	}
	if err := r.loadChildren(ctx, &c); err != nil {
		return domain.Client{}, err
	}
	return c, nil
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	ts := now()
	_, err := r.db.ExecContext(ctx, `INSERT INTO clients (`+clientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ClientID, c.ClientName, c.Description, c.Enabled,
		c.RequireClientSecret, c.RequirePKCE, c.AllowPlainTextPKCE, c.RequireConsent,
		c.AllowRememberConsent, c.AllowOfflineAccess, c.AllowAccessTokensViaBrowser,
		c.AlwaysIncludeUserClaimsInIDToken, c.AlwaysSendClientClaims, c.ClientClaimsPrefix,
		c.AccessTokenLifetime, c.IdentityTokenLifetime, c.AuthorizationCodeLifetime,
		c.AbsoluteRefreshTokenLifetime, c.SlidingRefreshTokenLifetime,
		c.FrontChannelLogoutURI, c.BackChannelLogoutURI, ts, ts,
	)
	if err != nil {
		return r.d.mapErr(err)
	}
	return r.insertChildren(ctx, c)
}

func (r *clientsRepo) UpdateClient(ctx context.Context, c domain.Client) error {
	res, err := r.db.ExecContext(ctx, `UPDATE clients SET
		client_name = ?, description = ?, enabled = ?,
		require_client_secret = ?, require_pkce = ?, allow_plain_text_pkce = ?, require_consent = ?,
		allow_remember_consent = ?, allow_offline_access = ?, allow_access_tokens_via_browser = ?,
		always_include_user_claims_in_id_token = ?, always_send_client_claims = ?, client_claims_prefix = ?,
		access_token_lifetime = ?, identity_token_lifetime = ?, authorization_code_lifetime = ?,
		absolute_refresh_token_lifetime = ?, sliding_refresh_token_lifetime = ?,
		front_channel_logout_uri = ?, back_channel_logout_uri = ?, updated_at = ?
		WHERE id = ?`,
		c.ClientName, c.Description, c.Enabled,
		c.RequireClientSecret, c.RequirePKCE, c.AllowPlainTextPKCE, c.RequireConsent,
		c.AllowRememberConsent, c.AllowOfflineAccess, c.AllowAccessTokensViaBrowser,
		c.AlwaysIncludeUserClaimsInIDToken, c.AlwaysSendClientClaims, c.ClientClaimsPrefix,
		c.AccessTokenLifetime, c.IdentityTokenLifetime, c.AuthorizationCodeLifetime,
		c.AbsoluteRefreshTokenLifetime, c.SlidingRefreshTokenLifetime,
		c.FrontChannelLogoutURI, c.BackChannelLogoutURI, now(),
		c.ID,
	)
	return r.d.mapErr(requireAffected(res, err))
}

func (r *clientsRepo) ReplaceClientChildren(ctx context.Context, c domain.Client) error {
	for _, table := range clientChildTables {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE client_row_id = ?`, c.ID); err != nil {
			return err
		}
	}
	return r.insertChildren(ctx, c)
}

func (r *clientsRepo) DeleteClient(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	return err
}

func (r *clientsRepo) DeleteExpiredSecrets(ctx context.Context, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM client_secrets WHERE expiration IS NOT NULL AND expiration <= ?`, at.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *clientsRepo) insertChildren(ctx context.Context, c domain.Client) error {
	for _, child := range clientStringChildren {
		q := fmt.Sprintf(`INSERT INTO %s (client_row_id, position, %s) VALUES (?, ?, ?)`, child.table, child.column)
		for i, v := range *child.field(&c) {
			if _, err := r.db.ExecContext(ctx, q, c.ID, i, v); err != nil {
				return r.d.mapErr(err)
			}
		}
	}

	for i, s := range c.ClientSecrets {
		_, err := r.db.ExecContext(ctx, `INSERT INTO client_secrets
			(client_row_id, position, secret_value, secret_type, description, expiration)
			VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, i, s.Value, s.Type, s.Description, mapOptionalTime(s.Expiration))
		if err != nil {
			return r.d.mapErr(err)
		}
	}

	for i, cl := range c.Claims {
		_, err := r.db.ExecContext(ctx, `INSERT INTO client_claims
			(client_row_id, position, claim_type, claim_value) VALUES (?, ?, ?, ?)`,
			c.ID, i, cl.Type, cl.Value)
		if err != nil {
			return r.d.mapErr(err)
		}
	}
	return nil
}

func (r *clientsRepo) loadChildren(ctx context.Context, c *domain.Client) error {
	for _, child := range clientStringChildren {
		q := fmt.Sprintf(`SELECT %s FROM %s WHERE client_row_id = ? ORDER BY position`, child.column, child.table)
		values, err := scanStrings(ctx, r.db, q, c.ID)
		if err != nil {
			return err
		}
		*child.field(c) = values
	}

	secrets, err := r.loadSecrets(ctx, c.ID)
	if err != nil {
		return err
	}
	c.ClientSecrets = secrets

	claims, err := r.loadClaims(ctx, c.ID)
	if err != nil {
		return err
	}
	c.Claims = claims
	return nil
}

func (r *clientsRepo) loadSecrets(ctx context.Context, id string) ([]domain.Secret, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT secret_value, secret_type, description, expiration
		FROM client_secrets WHERE client_row_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Secret
	for rows.Next() {
		var (
			s   domain.Secret
			exp sql.NullTime
		)
		if err := rows.Scan(&s.Value, &s.Type, &s.Description, &exp); err != nil {
			return nil, err
		}
		s.Expiration = mapNullTimePtr(exp)
		s.IsHashed = true // only digests are ever written
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *clientsRepo) loadClaims(ctx context.Context, id string) ([]domain.Claim, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT claim_type, claim_value
		FROM client_claims WHERE client_row_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Claim
	for rows.Next() {
		var c domain.Claim
		if err := rows.Scan(&c.Type, &c.Value); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(row scanner) (domain.Client, error) {
	var c domain.Client
	err := row.Scan(
		&c.ID, &c.ClientID, &c.ClientName, &c.Description, &c.Enabled,
		&c.RequireClientSecret, &c.RequirePKCE, &c.AllowPlainTextPKCE, &c.RequireConsent,
		&c.AllowRememberConsent, &c.AllowOfflineAccess, &c.AllowAccessTokensViaBrowser,
		&c.AlwaysIncludeUserClaimsInIDToken, &c.AlwaysSendClientClaims, &c.ClientClaimsPrefix,
		&c.AccessTokenLifetime, &c.IdentityTokenLifetime, &c.AuthorizationCodeLifetime,
		&c.AbsoluteRefreshTokenLifetime, &c.SlidingRefreshTokenLifetime,
		&c.FrontChannelLogoutURI, &c.BackChannelLogoutURI, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// requireAffected turns an UPDATE that matched nothing into sql.ErrNoRows.
func requireAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
