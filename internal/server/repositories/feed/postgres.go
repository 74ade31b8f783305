package feed

import (
	"context"

	"github.com/civicdeck/backend/internal/common"
	"github.com/civicdeck/backend/internal/dbx"
	"github.com/civicdeck/backend/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Unseen(ctx context.Context, userID string) ([]models.FeedCard, error) {
	query := `SELECT
      c.id,
      c.external_id,
      c.state,
      ct.name AS card_type
    FROM cards c
    JOIN card_type ct
      ON c.card_type_id = ct.id
    JOIN users u
      ON u.cognito_user_id = $1
      AND ((c.is_reviewed = FALSE AND u.is_reviewer = TRUE)
      OR (u.is_reviewer = FALSE AND (c.state IS NULL OR u.state = c.state)))
    WHERE c.id NOT IN (
      SELECT card_id
      FROM user_swipes
      WHERE user_id = $1
    )
    ORDER BY priority DESC, RANDOM()
    LIMIT 100`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, common.WrapStorage("feed.unseen", err)
	}
	defer rows.Close()

	var out []models.FeedCard
	for rows.Next() {
		var fc models.FeedCard
		if err := rows.Scan(&fc.ID, &fc.ExternalID, &fc.State, &fc.CardType); err != nil {
			return nil, common.WrapStorage("feed.unseen", err)
		}
		out = append(out, fc)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapStorage("feed.unseen", err)
	}
	return out, nil
}

// matchesQuery segments the card population into per-axis quartiles to find
// the extreme-score thresholds, computes the user's signed affinity per axis
// over their strong-signal swipes, then ranks the swiped cards by summed
// per-axis distance (a missing term counts 3). Cards need at least one
// scored axis within distance 5 and a total rank of at most 8.
//
// A brand-new user has NULL affinity on every axis, so every distance
// defaults to 3 and every rank is 9: the query returns no rows.
const matchesQuery = `WITH
    IntSig AS (
      SELECT
          int_q,
          MAX(international_score) AS max_int_score,
          MIN(international_score) AS min_int_score,
          COUNT(id) AS count
      FROM (
        SELECT
            id,
            international_score,
            NTILE(4) OVER (ORDER BY international_score) AS int_q
        FROM cards
        WHERE international_score != 0 AND international_score IS NOT NULL
      ) AS X
      GROUP BY int_q
    ),
    EcoSig AS (
      SELECT
          eco_q,
          MAX(economic_score) AS max_eco_score,
          MIN(economic_score) AS min_eco_score,
          COUNT(id) AS count
      FROM (
        SELECT
            id,
            economic_score,
            NTILE(4) OVER (ORDER BY economic_score) AS eco_q
        FROM cards
        WHERE economic_score != 0 AND economic_score IS NOT NULL
      ) AS X
      GROUP BY eco_q
    ),
    SocSig AS (
      SELECT
          soc_q,
          MAX(social_score) AS max_soc_score,
          MIN(social_score) AS min_soc_score,
          COUNT(id) AS count
      FROM (
        SELECT
            id,
            social_score,
            NTILE(4) OVER (ORDER BY social_score) AS soc_q
        FROM cards
        WHERE social_score != 0 AND social_score IS NOT NULL
      ) AS X
      GROUP BY soc_q
    ),
    Sig AS (
      SELECT
        ( SELECT max_int_score FROM IntSig WHERE int_q = 1 ) AS int_min,
        ( SELECT min_int_score FROM IntSig WHERE int_q = 4 ) AS int_max,
        ( SELECT max_eco_score FROM EcoSig WHERE eco_q = 1 LIMIT 1 ) AS eco_min,
        ( SELECT min_eco_score FROM EcoSig WHERE eco_q = 4 LIMIT 1 ) AS eco_max,
        ( SELECT max_soc_score FROM SocSig WHERE soc_q = 1 LIMIT 1 ) AS soc_min,
        ( SELECT min_soc_score FROM SocSig WHERE soc_q = 4 LIMIT 1 ) AS soc_max
    ),
    UserSwipes AS (
      SELECT *
      FROM user_swipes us
      LEFT JOIN cards c ON us.card_id = c.id
        WHERE us.user_id = $1
    ),
    UserScore AS (
      SELECT
        user_id,
        (
          SELECT
            SUM(
              CASE
                WHEN action_type = 'right' THEN international_score
                WHEN action_type = 'left' THEN -international_score
              END
            ) / COUNT(1)
          FROM UserSwipes
          WHERE international_score IS NOT NULL
            AND action_type IN ('right', 'left')
            AND international_score != 0
            AND (
              international_score <= (SELECT int_min FROM Sig) OR
              international_score >= (SELECT int_max FROM Sig)
            )
            AND user_id = US.user_id
        ) AS avg_int_score,
        (
          SELECT
            SUM(
              CASE
                WHEN action_type = 'right' THEN economic_score
                WHEN action_type = 'left' THEN -economic_score
              END
            ) / COUNT(1)
          FROM UserSwipes
          WHERE economic_score IS NOT NULL
            AND action_type IN ('right', 'left')
            AND economic_score != 0
            AND (
              economic_score <= (SELECT eco_min FROM Sig) OR
              economic_score >= (SELECT eco_max FROM Sig)
            )
            AND user_id = US.user_id
        ) AS avg_eco_score,
        (
          SELECT
            SUM(
              CASE
                WHEN action_type = 'right' THEN social_score
                WHEN action_type = 'left' THEN -social_score
              END
            ) / COUNT(1)
          FROM UserSwipes
          WHERE social_score IS NOT NULL
            AND action_type IN ('right', 'left')
            AND social_score != 0
            AND (
              social_score <= (SELECT soc_min FROM Sig) OR
              social_score >= (SELECT soc_max FROM Sig)
            )
            AND user_id = US.user_id
        ) AS avg_soc_score
      FROM UserSwipes US
      GROUP BY user_id
    ),
    Ranked AS (
      SELECT
        Card.id,
        Card.external_id,
        Card.priority,
        Card.card_type_id,
        COALESCE(ABS(UserScore.avg_soc_score - Card.social_score), 3)
          + COALESCE(ABS(UserScore.avg_eco_score - Card.economic_score), 3)
          + COALESCE(ABS(UserScore.avg_int_score - Card.international_score), 3)
        AS rank
      FROM cards Card, UserScore
      WHERE Card.id IN (
        SELECT card_id
        FROM UserSwipes
      )
      AND (
        (Card.social_score != 0 AND Card.social_score IS NOT NULL AND ABS(UserScore.avg_soc_score - Card.social_score) <= 5)
        OR (Card.economic_score != 0 AND Card.economic_score IS NOT NULL AND ABS(UserScore.avg_eco_score - Card.economic_score) <= 5)
        OR (Card.international_score != 0 AND Card.international_score IS NOT NULL AND ABS(UserScore.avg_int_score - Card.international_score) <= 5)
      )
    )
    SELECT
      Ranked.id,
      Ranked.external_id,
      CardType.name AS card_type
    FROM Ranked
    LEFT JOIN card_type CardType ON CardType.id = Ranked.card_type_id
    WHERE rank <= 8
    ORDER BY Ranked.rank ASC, Ranked.priority DESC
    LIMIT 20`

func (r *PostgresRepository) Matches(ctx context.Context, userID string) ([]models.FeedCard, error) {
	rows, err := r.db.QueryContext(ctx, matchesQuery, userID)
	if err != nil {
		return nil, common.WrapStorage("feed.matches", err)
	}
	defer rows.Close()

	var out []models.FeedCard
	for rows.Next() {
		var fc models.FeedCard
		if err := rows.Scan(&fc.ID, &fc.ExternalID, &fc.CardType); err != nil {
			return nil, common.WrapStorage("feed.matches", err)
		}
		out = append(out, fc)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapStorage("feed.matches", err)
	}
	return out, nil
}
