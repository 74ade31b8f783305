package cards

import (
	"context"

	"github.com/civicdeck/backend/internal/server/models"
)

// BulkMode selects how CreateBatch treats per-row insert failures.
type BulkMode int

const (
	// BulkBestEffort logs row failures and commits the rest.
	BulkBestEffort BulkMode = iota
	// BulkAllOrNothing rolls the whole batch back on the first failure.
	BulkAllOrNothing
)

// Input carries the card attributes supplied by the entity sync. The
// card_type_id, topic, job_title and state columns are derived from the
// CardType at insert time.
type Input struct {
	ID                 string
	ExternalID         string
	State              *string
	SocialScore        *float64
	EconomicScore      *float64
	InternationalScore *float64
	Title              *string
	Description        *string
	ImageURL           *string
	JobTitle           *string
}

// Patch is a partial update of one card: DB column name to new value.
type Patch struct {
	ID     string
	Fields map[string]any
}

type Repository interface {
	// CreateBatch inserts the cards in one transaction with per-row
	// ON CONFLICT (id) DO NOTHING.
	CreateBatch(ctx context.Context, inputs []Input, cardType models.CardType, mode BulkMode) error

	// UpdateByID applies each patch as a dynamic UPDATE, all in one
	// transaction.
	UpdateByID(ctx context.Context, patches []Patch) error

	// MarkReviewed promotes unreviewed cards that a reviewer has
	// right-swiped. Returns the number of cards promoted.
	MarkReviewed(ctx context.Context) (int64, error)

	// SetTopicCreated flags that a discussion topic exists for the card.
	SetTopicCreated(ctx context.Context, cardID string) error

	Poll(ctx context.Context, cardID string) (*models.CardPoll, error)
	GetByID(ctx context.Context, cardID string) (*models.Card, error)
}
