package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"status-dashboard/internal/models"
)

var (
	ErrCredentialNotFound = errors.New("filemaker credential not found")
	ErrServerNotFound     = errors.New("server not found")
)

// GetFileMakerCredential returns the admin API credential stored for a server.
// The password stays encrypted.
func (d *DB) GetFileMakerCredential(ctx context.Context, serverID string) (models.FileMakerCredential, error) {
	query := `
	SELECT c.server_id::text, s.name, c.admin_url, c.username, c.password_encrypted, c.updated_at
	FROM filemaker_credentials c
	JOIN servers s ON s.id = c.server_id
	WHERE c.server_id = $1::uuid`

	var c models.FileMakerCredential
	err := d.Pool.QueryRow(ctx, query, serverID).Scan(
		&c.ServerID,
		&c.ServerName,
		&c.AdminURL,
		&c.Username,
		&c.PasswordEncrypted,
		&c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.FileMakerCredential{}, ErrCredentialNotFound
	}
	if err != nil {
		return models.FileMakerCredential{}, fmt.Errorf("failed to get filemaker credential: %w", err)
	}
	return c, nil
}

// UpsertFileMakerCredential stores or replaces the credential for a server.
// PasswordEncrypted must already be sealed.
func (d *DB) UpsertFileMakerCredential(ctx context.Context, c models.FileMakerCredential) error {
	query := `
	INSERT INTO filemaker_credentials (server_id, admin_url, username, password_encrypted, updated_at)
	VALUES ($1::uuid, $2, $3, $4, NOW())
	ON CONFLICT (server_id) DO UPDATE
	SET admin_url = EXCLUDED.admin_url,
		username = EXCLUDED.username,
		password_encrypted = EXCLUDED.password_encrypted,
		updated_at = NOW()`

	if _, err := d.Pool.Exec(ctx, query, c.ServerID, c.AdminURL, c.Username, c.PasswordEncrypted); err != nil {
		var pgErr *pgconn.PgError
		// 23503 foreign_key_violation, 22P02 invalid_text_representation (bad uuid)
		if errors.As(err, &pgErr) && (pgErr.Code == "23503" || pgErr.Code == "22P02") {
			return ErrServerNotFound
		}
		return fmt.Errorf("failed to upsert filemaker credential: %w", err)
	}
	return nil
}
