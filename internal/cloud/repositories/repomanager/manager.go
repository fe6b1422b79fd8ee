// Package repomanager vends repositories bound to a connection or a
// transaction and applies the cloud schema.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/brewlog/internal/cloud/repositories/bars"
	"github.com/dmitrijs2005/brewlog/internal/cloud/repositories/journal"
	"github.com/dmitrijs2005/brewlog/internal/cloud/repositories/refreshtokens"
	"github.com/dmitrijs2005/brewlog/internal/cloud/repositories/users"
	"github.com/dmitrijs2005/brewlog/internal/dbx"
)

// RepositoryManager hands out repositories bound to a DBTX, so the same code
// runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Journal(db dbx.DBTX) journal.Repository
	Bars(db dbx.DBTX) bars.Repository
}
