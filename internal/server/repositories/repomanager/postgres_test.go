package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/pressly/goose/v3"

	"github.com/civicdeck/backend/internal/logging"
)

func TestManagerVendsRepositories(t *testing.T) {
	m := NewPostgresRepositoryManager()

	db := &sql.DB{}
	if m.Users(db) == nil {
		t.Fatal("Users returned nil")
	}
	if m.Swipes(db) == nil {
		t.Fatal("Swipes returned nil")
	}
	if m.Feed(db) == nil {
		t.Fatal("Feed returned nil")
	}
	if m.Cards(db, logging.NopLogger{}) == nil {
		t.Fatal("Cards returned nil")
	}
}

func TestRunMigrations_UsesGoose(t *testing.T) {
	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var calledDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		calledDir = dir
		return nil
	}

	m := NewPostgresRepositoryManager()
	if err := m.RunMigrations(context.Background(), &sql.DB{}); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
	if calledDir != "." {
		t.Fatalf("unexpected migrations dir: %q", calledDir)
	}
}

func TestRunMigrations_PropagatesError(t *testing.T) {
	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	wantErr := errors.New("migration failed")
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return wantErr
	}

	m := NewPostgresRepositoryManager()
	if err := m.RunMigrations(context.Background(), &sql.DB{}); !errors.Is(err, wantErr) {
		t.Fatalf("want %v, got %v", wantErr, err)
	}
}
