package cards

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/civicdeck/backend/internal/common"
	"github.com/civicdeck/backend/internal/dbx"
	"github.com/civicdeck/backend/internal/logging"
	"github.com/civicdeck/backend/internal/server/models"
)

// patchable lists the columns UpdateByID accepts.
var patchable = map[string]bool{
	"external_id":         true,
	"social_score":        true,
	"economic_score":      true,
	"international_score": true,
	"title":               true,
	"description":         true,
	"image_url":           true,
	"topic":               true,
	"job_title":           true,
	"state":               true,
	"priority":            true,
	"is_reviewed":         true,
}

type PostgresRepository struct {
	db  *sql.DB
	log logging.Logger
}

func NewPostgresRepository(db *sql.DB, log logging.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, log: log}
}

// insertSQL builds the per-type insert. Official cards carry topic and
// job_title (the topic column is fed from the card title), state-scoped
// cards carry state.
func insertSQL(cardType models.CardType) string {
	cols := []string{"id", "external_id", "card_type_id", "social_score", "economic_score",
		"international_score", "title", "description", "image_url"}
	if cardType.IsOfficial() {
		cols = append(cols, "topic", "job_title")
	}
	if cardType.IsState() {
		cols = append(cols, "state")
	}

	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}

	return fmt.Sprintf(
		"INSERT INTO cards (%s) VALUES (%s) ON CONFLICT (id) DO NOTHING",
		strings.Join(cols, ", "), strings.Join(ph, ", "))
}

func insertArgs(in Input, cardType models.CardType) []any {
	args := []any{in.ID, in.ExternalID, cardType.ID(), in.SocialScore, in.EconomicScore,
		in.InternationalScore, in.Title, in.Description, in.ImageURL}
	if cardType.IsOfficial() {
		args = append(args, in.Title, in.JobTitle)
	}
	if cardType.IsState() {
		args = append(args, in.State)
	}
	return args
}

func (r *PostgresRepository) CreateBatch(ctx context.Context, inputs []Input, cardType models.CardType, mode BulkMode) error {
	if cardType.ID() == 0 {
		return common.NewValidationError("cardType", fmt.Sprintf("unknown card type %q", cardType))
	}

	query := insertSQL(cardType)

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var failed int
		for _, in := range inputs {
			if _, err := tx.ExecContext(ctx, query, insertArgs(in, cardType)...); err != nil {
				if mode == BulkAllOrNothing {
					return common.WrapStorage("cards.create", err)
				}
				failed++
				r.log.Error(ctx, "card insert failed", "card_id", in.ID, "error", err)
			}
		}
		if failed > 0 {
			r.log.Warn(ctx, "card batch committed with failures", "failed", failed, "total", len(inputs))
		}
		return nil
	})
}

func (r *PostgresRepository) UpdateByID(ctx context.Context, patches []Patch) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, p := range patches {
			if len(p.Fields) == 0 {
				continue
			}

			cols := make([]string, 0, len(p.Fields))
			for col := range p.Fields {
				if !patchable[col] {
					return common.NewValidationError(col, "not an updatable card column")
				}
				cols = append(cols, col)
			}
			sort.Strings(cols)

			set := make([]string, len(cols))
			args := make([]any, 0, len(cols)+1)
			for i, col := range cols {
				set[i] = fmt.Sprintf("%s = $%d", col, i+1)
				args = append(args, p.Fields[col])
			}
			args = append(args, p.ID)

			query := fmt.Sprintf("UPDATE cards SET %s WHERE id = $%d", strings.Join(set, ", "), len(cols)+1)
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return common.WrapStorage("cards.update", err)
			}
		}
		return nil
	})
}

func (r *PostgresRepository) MarkReviewed(ctx context.Context) (int64, error) {
	query := `UPDATE cards
    SET is_reviewed = TRUE
    WHERE is_reviewed = FALSE
    AND cards.id IN (
      SELECT c.id
      FROM user_swipes us
      JOIN users u ON us.user_id = u.cognito_user_id
      JOIN cards c ON us.card_id = c.id
      WHERE us.action_type = 'right'
      AND c.is_reviewed = FALSE
      AND u.is_reviewer = TRUE
    )`

	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, common.WrapStorage("cards.markreviewed", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, common.WrapStorage("cards.markreviewed", err)
	}
	return n, nil
}

func (r *PostgresRepository) SetTopicCreated(ctx context.Context, cardID string) error {
	query := `UPDATE cards SET is_topic_created = TRUE WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, cardID); err != nil {
		return common.WrapStorage("cards.settopiccreated", err)
	}
	return nil
}

func (r *PostgresRepository) Poll(ctx context.Context, cardID string) (*models.CardPoll, error) {
	query := `SELECT
      c.id,
      COUNT(us.action_type) AS total_swipes,
      COUNT(CASE WHEN us.action_type = 'left' THEN 1 END) AS left_swipes,
      COUNT(CASE WHEN us.action_type = 'right' THEN 1 END) AS right_swipes
    FROM cards c
    LEFT JOIN user_swipes us ON c.id = us.card_id
    WHERE c.id = $1
    GROUP BY c.id`

	poll := &models.CardPoll{}
	err := r.db.QueryRowContext(ctx, query, cardID).
		Scan(&poll.CardID, &poll.TotalSwipes, &poll.LeftSwipes, &poll.RightSwipes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.WrapStorage("cards.poll", err)
	}
	return poll, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, cardID string) (*models.Card, error) {
	query := `SELECT
      id, external_id, card_type_id, social_score, economic_score, international_score,
      title, description, image_url, topic, job_title, state, priority, is_reviewed
    FROM cards
    WHERE id = $1`

	c := &models.Card{}
	err := r.db.QueryRowContext(ctx, query, cardID).Scan(
		&c.ID, &c.ExternalID, &c.CardTypeID, &c.SocialScore, &c.EconomicScore, &c.InternationalScore,
		&c.Title, &c.Description, &c.ImageURL, &c.Topic, &c.JobTitle, &c.State, &c.Priority, &c.IsReviewed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.WrapStorage("cards.get", err)
	}
	return c, nil
}
