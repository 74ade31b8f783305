package swipes

import (
	"context"
	"fmt"

	"github.com/civicdeck/backend/internal/common"
	"github.com/civicdeck/backend/internal/dbx"
	"github.com/civicdeck/backend/internal/server/models"
)

const activePairClause = `WHERE card_id = $1 AND user_id = $2 AND action_type IN ('left', 'right')`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID, cardID string, action models.Action) error {
	if !action.Valid() {
		return common.NewValidationError("action", fmt.Sprintf("unknown action %q", action))
	}

	insert := `INSERT INTO user_swipes (card_id, user_id, action_type) VALUES ($1, $2, $3)`

	if action.Deduplicated() {
		get := `SELECT id FROM user_swipes ` + activePairClause

		rows, err := r.db.QueryContext(ctx, get, cardID, userID)
		if err != nil {
			return common.WrapStorage("swipes.create", err)
		}
		exists := rows.Next()
		if err := rows.Close(); err != nil {
			return common.WrapStorage("swipes.create", err)
		}
		if err := rows.Err(); err != nil {
			return common.WrapStorage("swipes.create", err)
		}

		if exists {
			update := `UPDATE user_swipes SET timestamp = CURRENT_TIMESTAMP, action_type = $3 ` + activePairClause
			if _, err := r.db.ExecContext(ctx, update, cardID, userID, action); err != nil {
				return common.WrapStorage("swipes.create", err)
			}
			return nil
		}
	}

	if _, err := r.db.ExecContext(ctx, insert, cardID, userID, action); err != nil {
		return common.WrapStorage("swipes.create", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, cardID string) error {
	query := `DELETE FROM user_swipes WHERE user_id = $1 AND card_id = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, cardID); err != nil {
		return common.WrapStorage("swipes.delete", err)
	}
	return nil
}

func (r *PostgresRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	query := `SELECT count(*) AS swipes FROM user_swipes WHERE user_id = $1`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, common.WrapStorage("swipes.count", err)
	}
	return count, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.SwipeDetail, error) {
	query := `SELECT
      us.action_type,
      us.timestamp AS action_timestamp,
      ct.name AS card_type,
      us.card_id,
      c.external_id,
      c.social_score + 50 AS social_score,
      c.economic_score + 50 AS economic_score,
      c.international_score + 50 AS international_score,
      c.title,
      c.description
    FROM user_swipes us
    JOIN cards c
      ON us.card_id = c.id
    JOIN card_type ct
      ON c.card_type_id = ct.id
    WHERE user_id = $1`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, common.WrapStorage("swipes.list", err)
	}
	defer rows.Close()

	var out []models.SwipeDetail
	for rows.Next() {
		var d models.SwipeDetail
		err := rows.Scan(&d.Action, &d.Timestamp, &d.CardType, &d.CardID, &d.ExternalID,
			&d.SocialScore, &d.EconomicScore, &d.InternationalScore, &d.Title, &d.Description)
		if err != nil {
			return nil, common.WrapStorage("swipes.list", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapStorage("swipes.list", err)
	}
	return out, nil
}

func (r *PostgresRepository) ListTopics(ctx context.Context, userID string, action *models.Action) ([]string, error) {
	query := `SELECT DISTINCT
      c.topic
    FROM user_swipes us
    JOIN cards c
      ON us.card_id = c.id
    JOIN card_type ct
      ON c.card_type_id = ct.id
    WHERE user_id = $1`

	args := []any{userID}
	if action != nil {
		query += ` AND action_type = $2`
		args = append(args, *action)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.WrapStorage("swipes.topics", err)
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var topic *string
		if err := rows.Scan(&topic); err != nil {
			return nil, common.WrapStorage("swipes.topics", err)
		}
		if topic != nil {
			topics = append(topics, *topic)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapStorage("swipes.topics", err)
	}
	return topics, nil
}
