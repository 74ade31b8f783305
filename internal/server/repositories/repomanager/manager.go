package repomanager

import (
	"context"
	"database/sql"

	"github.com/civicdeck/backend/internal/dbx"
	"github.com/civicdeck/backend/internal/logging"
	"github.com/civicdeck/backend/internal/server/repositories/cards"
	"github.com/civicdeck/backend/internal/server/repositories/feed"
	"github.com/civicdeck/backend/internal/server/repositories/swipes"
	"github.com/civicdeck/backend/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Swipes(db dbx.DBTX) swipes.Repository
	Feed(db dbx.DBTX) feed.Repository
	Cards(db *sql.DB, log logging.Logger) cards.Repository
}
