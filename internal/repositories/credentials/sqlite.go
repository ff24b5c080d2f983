package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/passvault/internal/dbx"
	"github.com/dmitrijs2005/passvault/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.CredentialRecord, error) {
	query := `SELECT id, site, username, envelope, created_at, updated_at FROM credentials ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select credentials: %w", err)
	}
	defer rows.Close()

	result := []models.CredentialRecord{}
	for rows.Next() {
		var (
			item     models.CredentialRecord
			envelope string
			created  int64
			updated  sql.NullInt64
		)
		if err := rows.Scan(&item.ID, &item.Site, &item.Username, &envelope, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan credential row: %w", err)
		}
		if err := json.Unmarshal([]byte(envelope), &item.Envelope); err != nil {
			return nil, fmt.Errorf("credential %s: bad envelope: %w", item.ID, err)
		}
		item.CreatedAt = time.UnixMilli(created).UTC()
		if updated.Valid {
			u := time.UnixMilli(updated.Int64).UTC()
			item.UpdatedAt = &u
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credential rows: %w", err)
	}

	return result, nil
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, records []models.CredentialRecord) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	query := `INSERT INTO credentials (id, position, site, username, envelope, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`

	for i, rec := range records {
		envelope, err := json.Marshal(rec.Envelope)
		if err != nil {
			return fmt.Errorf("credential %s: encode envelope: %w", rec.ID, err)
		}

		var updated sql.NullInt64
		if rec.UpdatedAt != nil {
			updated = sql.NullInt64{Int64: rec.UpdatedAt.UnixMilli(), Valid: true}
		}

		_, err = r.db.ExecContext(ctx, query, rec.ID, i, rec.Site, rec.Username, string(envelope), rec.CreatedAt.UnixMilli(), updated)
		if err != nil {
			return fmt.Errorf("failed to insert credential %s: %w", rec.ID, err)
		}
	}

	return nil
}
