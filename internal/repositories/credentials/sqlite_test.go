package credentials

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/passvault/internal/dbx"
	"github.com/dmitrijs2005/passvault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE credentials (
  id         TEXT PRIMARY KEY,
  position   INTEGER NOT NULL,
  site       TEXT NOT NULL,
  username   TEXT NOT NULL,
  envelope   TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NULL
);`)
	require.NoError(t, err)
	return db
}

func record(id, site, user string, env models.Envelope) models.CredentialRecord {
	return models.CredentialRecord{
		ID:        id,
		Site:      site,
		Username:  user,
		Envelope:  env,
		CreatedAt: time.UnixMilli(1700000000000).UTC(),
	}
}

func TestGetAll_Empty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	got, err := r.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReplaceAll_PreservesOrderAndFields(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	updated := time.UnixMilli(1700000005000).UTC()
	recs := []models.CredentialRecord{
		record("b", "zeta.com", "bob", models.NewSymmetricEnvelope([]byte{1, 2}, []byte{3, 4})),
		record("a", "alpha.com", "alice", models.NewAsymmetricEnvelope([]byte{9, 9})),
	}
	recs[1].UpdatedAt = &updated

	require.NoError(t, r.ReplaceAll(ctx, recs))

	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, recs, got)
}

func TestReplaceAll_DropsRecordsNotInSlice(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	env := models.NewAsymmetricEnvelope([]byte{1})
	require.NoError(t, r.ReplaceAll(ctx, []models.CredentialRecord{record("1", "a", "u", env), record("2", "b", "u", env)}))
	require.NoError(t, r.ReplaceAll(ctx, []models.CredentialRecord{record("2", "b", "u", env)}))

	got, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestReplaceAll_InTxRollsBack(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	env := models.NewAsymmetricEnvelope([]byte{1})

	require.NoError(t, NewSQLiteRepository(db).ReplaceAll(ctx, []models.CredentialRecord{record("keep", "a", "u", env)}))

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := NewSQLiteRepository(tx).ReplaceAll(ctx, nil); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	got, err := NewSQLiteRepository(db).GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "keep", got[0].ID)
}

func TestGetAll_BadEnvelope(t *testing.T) {
	db := setupDB(t)
	_, err := db.Exec(`INSERT INTO credentials VALUES ('x', 0, 's', 'u', '{"type":"des","payload":""}', 0, NULL)`)
	require.NoError(t, err)

	_, err = NewSQLiteRepository(db).GetAll(context.Background())
	assert.ErrorContains(t, err, "credential x: bad envelope")
}

func TestReplaceAll_DriverErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := NewSQLiteRepository(db)
	ctx := context.Background()

	mock.ExpectExec(`DELETE FROM credentials`).WillReturnError(errors.New("locked"))
	err = r.ReplaceAll(ctx, nil)
	assert.ErrorContains(t, err, "failed to clear credentials")

	mock.ExpectExec(`DELETE FROM credentials`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO credentials`).WillReturnError(errors.New("constraint"))
	err = r.ReplaceAll(ctx, []models.CredentialRecord{record("1", "a", "u", models.NewAsymmetricEnvelope([]byte{1}))})
	assert.ErrorContains(t, err, "failed to insert credential 1")

	mock.ExpectQuery(`SELECT id, site`).WillReturnError(errors.New("io"))
	_, err = r.GetAll(ctx)
	assert.ErrorContains(t, err, "failed to select credentials")

	require.NoError(t, mock.ExpectationsWereMet())
}
