package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/passvault/internal/dbx"
	"github.com/dmitrijs2005/passvault/internal/repositories/credentials"
	"github.com/dmitrijs2005/passvault/internal/repositories/metadata"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Metadata(db dbx.DBTX) metadata.Repository
	Credentials(db dbx.DBTX) credentials.Repository
}
