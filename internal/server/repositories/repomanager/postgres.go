// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/civicdeck/backend/internal/dbx"
	"github.com/civicdeck/backend/internal/logging"
	"github.com/civicdeck/backend/internal/server/migrations"
	"github.com/civicdeck/backend/internal/server/repositories/cards"
	"github.com/civicdeck/backend/internal/server/repositories/feed"
	"github.com/civicdeck/backend/internal/server/repositories/swipes"
	"github.com/civicdeck/backend/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository
// implementations and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Swipes returns a swipes.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Swipes(db dbx.DBTX) swipes.Repository {
	return swipes.NewPostgresRepository(db)
}

// Feed returns a feed.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Feed(db dbx.DBTX) feed.Repository {
	return feed.NewPostgresRepository(db)
}

// Cards returns a cards.Repository. It takes the full *sql.DB because card
// batches manage their own transactions.
func (m *PostgresRepositoryManager) Cards(db *sql.DB, log logging.Logger) cards.Repository {
	return cards.NewPostgresRepository(db, log)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed
// RepositoryManager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}
