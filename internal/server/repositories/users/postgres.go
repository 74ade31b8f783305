package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/civicdeck/backend/internal/common"
	"github.com/civicdeck/backend/internal/dbx"
	"github.com/civicdeck/backend/internal/server/models"
)

// updatable lists the columns Update accepts. The identity column is
// deliberately absent.
var updatable = map[string]bool{
	"username":                               true,
	"street_address":                         true,
	"state":                                  true,
	"city":                                   true,
	"zipcode":                                true,
	"gender":                                 true,
	"age":                                    true,
	"lat":                                    true,
	"lng":                                    true,
	"google_place_id":                        true,
	"name":                                   true,
	"date_of_birth":                          true,
	"avatar":                                 true,
	"is_interested_in_social":                true,
	"is_interested_in_economic":              true,
	"is_interested_in_international":         true,
	"is_interested_in_local_candidates":      true,
	"is_interested_in_state_candidates":      true,
	"is_interested_in_federal_candidates":    true,
	"is_interested_in_municipal_legislation": true,
	"is_interested_in_state_legislation":     true,
	"is_interested_in_federal_legislation":   true,
	"has_seen_tutorial":                      true,
	"is_reviewer":                            true,
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Read(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `SELECT
      u.cognito_user_id,
      u.username,
      u.street_address,
      u.state,
      u.city,
      u.zipcode,
      u.gender,
      u.age,
      u.lat,
      u.lng,
      u.google_place_id,
      u.name,
      u.date_of_birth,
      u.avatar,
      u.is_interested_in_social,
      u.is_interested_in_economic,
      u.is_interested_in_international,
      u.is_interested_in_local_candidates,
      u.is_interested_in_state_candidates,
      u.is_interested_in_federal_candidates,
      u.is_interested_in_municipal_legislation,
      u.is_interested_in_state_legislation,
      u.is_interested_in_federal_legislation,
      u.has_seen_tutorial,
      COALESCE(SUM(
          CASE
              WHEN us.action_type = 'right' THEN c.social_score
              WHEN us.action_type = 'left' THEN -c.social_score
              ELSE 0
          END
      ) / NULLIF(COUNT(
          CASE
              WHEN c.social_score IS NOT NULL AND us.action_type IN ('right', 'left') THEN 1
          END
      ), 0) + 50, 50) AS average_social_score,
      COALESCE(SUM(
          CASE
              WHEN us.action_type = 'right' THEN c.economic_score
              WHEN us.action_type = 'left' THEN -c.economic_score
              ELSE 0
          END
      ) / NULLIF(COUNT(
          CASE
              WHEN c.economic_score IS NOT NULL AND us.action_type IN ('right', 'left') THEN 1
          END
      ), 0) + 50, 50) AS average_economic_score,
      COALESCE(SUM(
          CASE
              WHEN us.action_type = 'right' THEN c.international_score
              WHEN us.action_type = 'left' THEN -c.international_score
              ELSE 0
          END
      ) / NULLIF(COUNT(
          CASE
              WHEN c.international_score IS NOT NULL AND us.action_type IN ('right', 'left') THEN 1
          END
      ), 0) + 50, 50) AS average_international_score
    FROM users u
    LEFT JOIN user_swipes us
      ON u.cognito_user_id = us.user_id
    LEFT JOIN cards c
      ON us.card_id = c.id
    WHERE u.cognito_user_id = $1
    GROUP BY u.id`

	p := &models.UserProfile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.CognitoUserID,
		&p.Username,
		&p.StreetAddress,
		&p.State,
		&p.City,
		&p.Zipcode,
		&p.Gender,
		&p.Age,
		&p.Lat,
		&p.Lng,
		&p.GooglePlaceID,
		&p.Name,
		&p.DateOfBirth,
		&p.Avatar,
		&p.InterestedInSocial,
		&p.InterestedInEconomic,
		&p.InterestedInInternational,
		&p.InterestedInLocalCandidates,
		&p.InterestedInStateCandidates,
		&p.InterestedInFederalCandidates,
		&p.InterestedInMunicipalLegislation,
		&p.InterestedInStateLegislation,
		&p.InterestedInFederalLegislation,
		&p.HasSeenTutorial,
		&p.AverageSocialScore,
		&p.AverageEconomicScore,
		&p.AverageInternationalScore,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.WrapStorage("users.read", err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (string, error) {
	username := user.Username
	if username == "" {
		var err error
		username, err = generateUsername(ctx, r.db)
		if err != nil {
			return "", err
		}
	}

	query := `INSERT INTO users (
      cognito_user_id, username, street_address, state, city, zipcode, gender, age,
      lat, lng, google_place_id, name, date_of_birth, avatar,
      is_interested_in_social, is_interested_in_economic, is_interested_in_international,
      is_interested_in_local_candidates, is_interested_in_state_candidates,
      is_interested_in_federal_candidates, is_interested_in_municipal_legislation,
      is_interested_in_state_legislation, is_interested_in_federal_legislation,
      has_seen_tutorial, is_reviewer)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
      $18, $19, $20, $21, $22, $23, $24, $25)`

	_, err := r.db.ExecContext(ctx, query,
		user.CognitoUserID, username, user.StreetAddress, user.State, user.City,
		user.Zipcode, user.Gender, user.Age, user.Lat, user.Lng, user.GooglePlaceID,
		user.Name, user.DateOfBirth, user.Avatar,
		user.InterestedInSocial, user.InterestedInEconomic, user.InterestedInInternational,
		user.InterestedInLocalCandidates, user.InterestedInStateCandidates,
		user.InterestedInFederalCandidates, user.InterestedInMunicipalLegislation,
		user.InterestedInStateLegislation, user.InterestedInFederalLegislation,
		user.HasSeenTutorial, user.IsReviewer)
	if err != nil {
		return "", common.WrapStorage("users.create", err)
	}
	return username, nil
}

func (r *PostgresRepository) Update(ctx context.Context, userID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		if !updatable[col] {
			return common.NewValidationError(col, "not an updatable user column")
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	set := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		set[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, fields[col])
	}
	args = append(args, userID)

	query := fmt.Sprintf("UPDATE users SET %s WHERE cognito_user_id = $%d",
		strings.Join(set, ", "), len(cols)+1)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return common.WrapStorage("users.update", err)
	}
	return nil
}
