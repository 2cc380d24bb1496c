package repomanager

import (
	"context"
	"database/sql"

	"github.com/avidalm/iptvgate/internal/dbx"
	"github.com/avidalm/iptvgate/internal/server/repositories/accounts"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
}
