package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/soochol/flowmart/internal/flowmart"
)

// ErrNotFound is returned when no row matches.
var ErrNotFound = errors.New("not found")

// UpsertCredential inserts a credential or replaces the secret of the existing
// (user_id, site_name) row.
func (d *DB) UpsertCredential(ctx context.Context, c *flowmart.SiteCredential) error {
	_, err := d.Pool.ExecContext(ctx,
		`INSERT INTO site_credentials (id, user_id, site_name, secret, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, site_name) DO UPDATE SET secret = EXCLUDED.secret, updated_at = EXCLUDED.updated_at`,
		c.ID, c.UserID, c.SiteName, c.Secret, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

func (d *DB) GetCredential(ctx context.Context, userID, siteName string) (*flowmart.SiteCredential, error) {
	c := &flowmart.SiteCredential{}
	err := d.Pool.QueryRowContext(ctx,
		`SELECT id, user_id, site_name, secret, created_at, updated_at
		 FROM site_credentials WHERE user_id = $1 AND site_name = $2`, userID, siteName,
	).Scan(&c.ID, &c.UserID, &c.SiteName, &c.Secret, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("credential %s/%s: %w", userID, siteName, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return c, nil
}

func (d *DB) ListCredentials(ctx context.Context, userID string) ([]*flowmart.SiteCredential, error) {
	rows, err := d.Pool.QueryContext(ctx,
		`SELECT id, user_id, site_name, secret, created_at, updated_at
		 FROM site_credentials WHERE user_id = $1 ORDER BY site_name`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var result []*flowmart.SiteCredential
	for rows.Next() {
		c := &flowmart.SiteCredential{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.SiteName, &c.Secret, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (d *DB) DeleteCredential(ctx context.Context, userID, siteName string) error {
	res, err := d.Pool.ExecContext(ctx,
		`DELETE FROM site_credentials WHERE user_id = $1 AND site_name = $2`, userID, siteName)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("credential %s/%s: %w", userID, siteName, ErrNotFound)
	}
	return nil
}
