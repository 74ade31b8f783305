package services

import (
	"context"
	"database/sql"

	"github.com/civicdeck/backend/internal/server/models"
	"github.com/civicdeck/backend/internal/server/repositories/repomanager"
)

// UsersService manages user profiles.
type UsersService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewUsersService(db *sql.DB, m repomanager.RepositoryManager) *UsersService {
	return &UsersService{db: db, repomanager: m}
}

// Profile returns the user's profile with axis averages from their history.
func (s *UsersService) Profile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return s.repomanager.Users(s.db).Read(ctx, userID)
}

// Create registers a user and returns the stored username.
func (s *UsersService) Create(ctx context.Context, user *models.User) (string, error) {
	return s.repomanager.Users(s.db).Create(ctx, user)
}

// Update applies a partial profile update.
func (s *UsersService) Update(ctx context.Context, userID string, fields map[string]any) error {
	return s.repomanager.Users(s.db).Update(ctx, userID, fields)
}
