package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/barklazza/projeto-vendas/types"
)

const backupColumns = `id, user_id, file_name, file_size, sales_count, created_at`

// BackupRepository handles persistence for backup records.
type BackupRepository struct {
	db *sql.DB
}

func NewBackupRepository(db *sql.DB) *BackupRepository {
	return &BackupRepository{db: db}
}

func (r *BackupRepository) Create(ctx context.Context, backup types.Backup) (types.Backup, error) {
	if err := available(r.db); err != nil {
		return types.Backup{}, err
	}

	backup.CreatedAt = time.Now()

	const query = `
		INSERT INTO backups (user_id, file_name, file_size, sales_count, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		backup.UserID,
		backup.FileName,
		backup.FileSize,
		backup.SalesCount,
		backup.CreatedAt,
	).Scan(&backup.ID); err != nil {
		return types.Backup{}, err
	}
	return backup, nil
}

// ListByOwner returns the owner's backups, newest first.
func (r *BackupRepository) ListByOwner(ctx context.Context, ownerID int) ([]types.Backup, error) {
	if err := available(r.db); err != nil {
		return nil, err
	}

	const query = `
		SELECT ` + backupColumns + `
		FROM backups
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	backups := make([]types.Backup, 0)
	for rows.Next() {
		var backup types.Backup
		if err := rows.Scan(
			&backup.ID,
			&backup.UserID,
			&backup.FileName,
			&backup.FileSize,
			&backup.SalesCount,
			&backup.CreatedAt,
		); err != nil {
			return nil, err
		}
		backups = append(backups, backup)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return backups, nil
}

func (r *BackupRepository) Get(ctx context.Context, id, ownerID int) (types.Backup, error) {
	if err := available(r.db); err != nil {
		return types.Backup{}, err
	}

	const query = `SELECT ` + backupColumns + ` FROM backups WHERE id = $1 AND user_id = $2`
	var backup types.Backup
	err := r.db.QueryRowContext(ctx, query, id, ownerID).Scan(
		&backup.ID,
		&backup.UserID,
		&backup.FileName,
		&backup.FileSize,
		&backup.SalesCount,
		&backup.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Backup{}, ErrNotFound
		}
		return types.Backup{}, err
	}
	return backup, nil
}

func (r *BackupRepository) Delete(ctx context.Context, id, ownerID int) error {
	if err := available(r.db); err != nil {
		return err
	}

	const query = `DELETE FROM backups WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
